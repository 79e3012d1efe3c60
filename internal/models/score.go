package models

import "time"

// ScoreRecord is one canonical long-table row: one student, one skill,
// one score. Records are created once per uploaded batch and read-only
// afterwards.
type ScoreRecord struct {
	ID          int64   `json:"id"`
	BatchID     int64   `json:"batch_id"`
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	Skill       string  `json:"skill"`
	Score       float64 `json:"score"`
	ActualGrade int     `json:"actual_grade"`
}

type BatchStatus string

const (
	BatchStored     BatchStatus = "stored"
	BatchGenerating BatchStatus = "generating"
	BatchCompleted  BatchStatus = "completed"
)

type ScoreBatch struct {
	ID          int64       `json:"id"`
	Filename    string      `json:"filename,omitempty"`
	ActualGrade int         `json:"actual_grade"`
	RecordCount int         `json:"record_count"`
	Status      BatchStatus `json:"status"`
	Skills      []string    `json:"skills,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type UploadScoresResponse struct {
	BatchID      int64    `json:"batch_id"`
	RecordCount  int      `json:"record_count"`
	StudentCount int      `json:"student_count"`
	Skills       []string `json:"skills"`
	Message      string   `json:"message"`
}

type RecordListResponse struct {
	Records []ScoreRecord `json:"records"`
	Total   int           `json:"total"`
}

// ReferenceStatus summarizes the currently loaded reference bank.
type ReferenceStatus struct {
	EntryCount int        `json:"entry_count"`
	Grades     []string   `json:"grades"`
	Skills     []string   `json:"skills"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
