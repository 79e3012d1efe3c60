package worksheets

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/worksheet-gen/backend/internal/models"
	"github.com/worksheet-gen/backend/internal/retrieval"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Score Batches ───────────────────────────────────────

func (s *Store) CreateBatch(filename string, actualGrade int, records []models.ScoreRecord) (*models.ScoreBatch, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	var batch models.ScoreBatch
	err = tx.QueryRow(
		`INSERT INTO score_batches (filename, actual_grade, record_count, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, filename, actual_grade, record_count, status, created_at`,
		filename, actualGrade, len(records), models.BatchStored,
	).Scan(&batch.ID, &batch.Filename, &batch.ActualGrade, &batch.RecordCount,
		&batch.Status, &batch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO score_records (batch_id, student_id, student_name, skill, score, actual_grade)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return nil, fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(batch.ID, rec.StudentID, rec.StudentName, rec.Skill, rec.Score, rec.ActualGrade); err != nil {
			return nil, fmt.Errorf("insert record for student %s: %w", rec.StudentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch insert: %w", err)
	}
	return &batch, nil
}

func (s *Store) GetBatch(batchID int64) (*models.ScoreBatch, error) {
	var batch models.ScoreBatch
	err := s.db.QueryRow(
		`SELECT id, COALESCE(filename, ''), actual_grade, record_count, status, created_at
		 FROM score_batches WHERE id = $1`,
		batchID,
	).Scan(&batch.ID, &batch.Filename, &batch.ActualGrade, &batch.RecordCount,
		&batch.Status, &batch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	if err := scanStrings(s.db,
		`SELECT DISTINCT skill FROM score_records WHERE batch_id = $1 ORDER BY skill`,
		&batch.Skills, batchID); err != nil {
		return nil, err
	}
	return &batch, nil
}

func (s *Store) ListBatches(limit, offset int) ([]models.ScoreBatch, error) {
	rows, err := s.db.Query(
		`SELECT id, COALESCE(filename, ''), actual_grade, record_count, status, created_at
		 FROM score_batches ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []models.ScoreBatch
	for rows.Next() {
		var b models.ScoreBatch
		if err := rows.Scan(&b.ID, &b.Filename, &b.ActualGrade, &b.RecordCount,
			&b.Status, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *Store) UpdateBatchStatus(batchID int64, status models.BatchStatus) error {
	_, err := s.db.Exec(
		`UPDATE score_batches SET status = $1 WHERE id = $2`,
		status, batchID,
	)
	return err
}

func (s *Store) ListRecords(batchID int64) ([]models.ScoreRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, batch_id, student_id, student_name, skill, score, actual_grade
		 FROM score_records WHERE batch_id = $1 ORDER BY id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []models.ScoreRecord
	for rows.Next() {
		var rec models.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.StudentID, &rec.StudentName,
			&rec.Skill, &rec.Score, &rec.ActualGrade); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ── Reference Bank ──────────────────────────────────────

// ReplaceReference swaps the whole reference bank for a new upload.
// Row position preserves the original table order, which retrieval
// depends on.
func (s *Store) ReplaceReference(entries []retrieval.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin reference replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reference_entries`); err != nil {
		return fmt.Errorf("clear reference entries: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO reference_entries (grade, skill, fields, position) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare reference insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		fieldsJSON, err := json.Marshal(e.Fields)
		if err != nil {
			return fmt.Errorf("marshal reference fields: %w", err)
		}
		if _, err := stmt.Exec(e.Grade, e.Skill, fieldsJSON, i); err != nil {
			return fmt.Errorf("insert reference entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reference replace: %w", err)
	}
	return nil
}

func (s *Store) LoadReference() ([]retrieval.Entry, error) {
	rows, err := s.db.Query(
		`SELECT grade, skill, fields FROM reference_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load reference entries: %w", err)
	}
	defer rows.Close()

	var entries []retrieval.Entry
	for rows.Next() {
		var e retrieval.Entry
		var fieldsJSON []byte
		if err := rows.Scan(&e.Grade, &e.Skill, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan reference entry: %w", err)
		}
		if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal reference fields: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ReferenceStatus() (*models.ReferenceStatus, error) {
	status := &models.ReferenceStatus{
		Grades: []string{},
		Skills: []string{},
	}

	var updatedAt sql.NullTime
	err := s.db.QueryRow(
		`SELECT COUNT(*), MAX(created_at) FROM reference_entries`).
		Scan(&status.EntryCount, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reference status: %w", err)
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		status.UpdatedAt = &t
	}

	if err := scanStrings(s.db, `SELECT DISTINCT grade FROM reference_entries ORDER BY grade`, &status.Grades); err != nil {
		return nil, err
	}
	if err := scanStrings(s.db, `SELECT DISTINCT skill FROM reference_entries ORDER BY skill`, &status.Skills); err != nil {
		return nil, err
	}
	return status, nil
}

func scanStrings(db *sql.DB, query string, out *[]string, args ...interface{}) error {
	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query %q: %w", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return fmt.Errorf("scan string: %w", err)
		}
		*out = append(*out, s)
	}
	return rows.Err()
}

// ── Worksheets ──────────────────────────────────────────

func (s *Store) CreateWorksheet(w *models.Worksheet, bullets []string) (int64, error) {
	if bullets == nil {
		bullets = []string{}
	}
	bulletsJSON, err := json.Marshal(bullets)
	if err != nil {
		return 0, fmt.Errorf("marshal context bullets: %w", err)
	}

	var id int64
	var createdAt time.Time
	err = s.db.QueryRow(
		`INSERT INTO worksheets
		 (batch_id, student_id, student_name, skill, tier, actual_grade, target_grade,
		  question_count, body, answer_key, context_bullets, model_used,
		  prompt_tokens, output_tokens, generation_time_ms, status, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id, created_at`,
		w.BatchID, w.StudentID, w.StudentName, w.Skill, w.Tier, w.ActualGrade, w.TargetGrade,
		w.QuestionCount, w.Body, w.AnswerKey, bulletsJSON, w.ModelUsed,
		w.PromptTokens, w.OutputTokens, w.GenerationTimeMs, w.Status, w.ErrorMessage,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, fmt.Errorf("create worksheet: %w", err)
	}

	w.ID = id
	w.CreatedAt = createdAt
	w.ContextBullets = len(bullets)
	return id, nil
}

const worksheetCols = `id, batch_id, student_id, student_name, skill, tier,
	actual_grade, target_grade, question_count,
	COALESCE(body, ''), COALESCE(answer_key, ''),
	COALESCE(jsonb_array_length(context_bullets), 0),
	COALESCE(model_used, ''), COALESCE(prompt_tokens, 0), COALESCE(output_tokens, 0),
	COALESCE(generation_time_ms, 0), status, error_message, created_at`

func scanWorksheet(row interface{ Scan(...interface{}) error }) (*models.Worksheet, error) {
	var w models.Worksheet
	err := row.Scan(&w.ID, &w.BatchID, &w.StudentID, &w.StudentName, &w.Skill, &w.Tier,
		&w.ActualGrade, &w.TargetGrade, &w.QuestionCount,
		&w.Body, &w.AnswerKey, &w.ContextBullets,
		&w.ModelUsed, &w.PromptTokens, &w.OutputTokens,
		&w.GenerationTimeMs, &w.Status, &w.ErrorMessage, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) GetWorksheet(id int64) (*models.Worksheet, error) {
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM worksheets WHERE id = $1`, worksheetCols), id)
	w, err := scanWorksheet(row)
	if err != nil {
		return nil, fmt.Errorf("get worksheet: %w", err)
	}
	return w, nil
}

func (s *Store) ListWorksheets(batchID *int64, skill string, tier string, limit, offset int) ([]models.Worksheet, error) {
	query := fmt.Sprintf(`SELECT %s FROM worksheets`, worksheetCols)
	var conditions []string
	var args []interface{}

	if batchID != nil {
		args = append(args, *batchID)
		conditions = append(conditions, fmt.Sprintf("batch_id = $%d", len(args)))
	}
	if skill != "" {
		args = append(args, skill)
		conditions = append(conditions, fmt.Sprintf("LOWER(skill) = LOWER($%d)", len(args)))
	}
	if tier != "" {
		args = append(args, tier)
		conditions = append(conditions, fmt.Sprintf("tier = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	defer rows.Close()

	var worksheets []models.Worksheet
	for rows.Next() {
		w, err := scanWorksheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worksheet: %w", err)
		}
		worksheets = append(worksheets, *w)
	}
	return worksheets, rows.Err()
}
