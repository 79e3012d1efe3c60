package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "worksheet_user")
	password := getEnv("DB_PASSWORD", "worksheet_password")
	dbname := getEnv("DB_NAME", "worksheet_gen")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS score_batches (
		id            BIGSERIAL PRIMARY KEY,
		filename      VARCHAR(255),
		actual_grade  INT NOT NULL,
		record_count  INT NOT NULL DEFAULT 0,
		status        VARCHAR(20) NOT NULL DEFAULT 'stored',
		created_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_score_batches_status ON score_batches(status);

	CREATE TABLE IF NOT EXISTS score_records (
		id            BIGSERIAL PRIMARY KEY,
		batch_id      BIGINT NOT NULL REFERENCES score_batches(id) ON DELETE CASCADE,
		student_id    VARCHAR(100) NOT NULL,
		student_name  VARCHAR(255) NOT NULL,
		skill         VARCHAR(100) NOT NULL,
		score         DOUBLE PRECISION NOT NULL,
		actual_grade  INT NOT NULL,
		created_at    TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_score_records_batch ON score_records(batch_id);
	CREATE INDEX IF NOT EXISTS idx_score_records_skill ON score_records(batch_id, skill);

	CREATE TABLE IF NOT EXISTS reference_entries (
		id          BIGSERIAL PRIMARY KEY,
		grade       VARCHAR(20) NOT NULL,
		skill       VARCHAR(100) NOT NULL,
		fields      JSONB NOT NULL DEFAULT '[]',
		position    INT NOT NULL DEFAULT 0,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reference_lookup ON reference_entries(grade, skill);

	CREATE TABLE IF NOT EXISTS worksheets (
		id                 BIGSERIAL PRIMARY KEY,
		batch_id           BIGINT REFERENCES score_batches(id),
		student_id         VARCHAR(100) NOT NULL,
		student_name       VARCHAR(255) NOT NULL,
		skill              VARCHAR(100) NOT NULL,
		tier               VARCHAR(20) NOT NULL,
		actual_grade       INT NOT NULL,
		target_grade       INT NOT NULL,
		question_count     INT NOT NULL,
		body               TEXT,
		answer_key         TEXT,
		context_bullets    JSONB NOT NULL DEFAULT '[]',
		model_used         VARCHAR(100),
		prompt_tokens      INT,
		output_tokens      INT,
		generation_time_ms INT,
		status             VARCHAR(20) NOT NULL DEFAULT 'completed',
		error_message      TEXT,
		created_at         TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_worksheets_batch ON worksheets(batch_id);
	CREATE INDEX IF NOT EXISTS idx_worksheets_lookup ON worksheets(skill, tier);
	CREATE INDEX IF NOT EXISTS idx_worksheets_student ON worksheets(student_id, created_at DESC);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent for databases created before these columns existed
	alterStatements := []string{
		`ALTER TABLE score_batches ADD COLUMN IF NOT EXISTS filename VARCHAR(255)`,
		`ALTER TABLE worksheets ADD COLUMN IF NOT EXISTS generation_time_ms INT`,
		`ALTER TABLE worksheets ADD COLUMN IF NOT EXISTS error_message TEXT`,
	}

	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
