package models

import (
	"fmt"
	"strings"
	"time"
)

// GenerationRequest is the fully resolved payload for one student's
// worksheet: the classified tier, the mapped target grade, and the
// retrieval context gathered for the (grade, skill) pair.
type GenerationRequest struct {
	StudentID        string   `json:"student_id"`
	StudentName      string   `json:"student_name"`
	ActualGrade      int      `json:"actual_grade"`
	TargetGrade      int      `json:"target_grade"`
	Skill            string   `json:"skill"`
	Tier             Tier     `json:"tier"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`
	QuestionCount    int      `json:"question_count"`
}

type WorksheetStatus string

const (
	WorksheetCompleted WorksheetStatus = "completed"
	WorksheetFailed    WorksheetStatus = "failed"
)

type Worksheet struct {
	ID               int64           `json:"id"`
	BatchID          int64           `json:"batch_id"`
	StudentID        string          `json:"student_id"`
	StudentName      string          `json:"student_name"`
	Skill            string          `json:"skill"`
	Tier             Tier            `json:"tier"`
	ActualGrade      int             `json:"actual_grade"`
	TargetGrade      int             `json:"target_grade"`
	QuestionCount    int             `json:"question_count"`
	Body             string          `json:"body,omitempty"`
	AnswerKey        string          `json:"answer_key,omitempty"`
	ContextBullets   int             `json:"context_bullets"`
	ModelUsed        string          `json:"model_used,omitempty"`
	PromptTokens     int             `json:"prompt_tokens,omitempty"`
	OutputTokens     int             `json:"output_tokens,omitempty"`
	GenerationTimeMs int             `json:"generation_time_ms,omitempty"`
	Status           WorksheetStatus `json:"status"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ── Request/Response Types ────────────────────────────────

type GenerateWorksheetsRequest struct {
	BatchID       int64             `json:"batch_id"`
	Skill         string            `json:"skill"`
	Tier          Tier              `json:"tier"`
	Thresholds    ThresholdConfig   `json:"thresholds"`
	Mapping       CurriculumMapping `json:"curriculum_mapping"`
	QuestionCount int               `json:"question_count"`
}

// Validate checks the tunable parts of a generation request. A zero
// question count selects the default.
func (r *GenerateWorksheetsRequest) Validate() error {
	if err := r.Thresholds.Validate(); err != nil {
		return err
	}
	if err := r.Mapping.Validate(); err != nil {
		return err
	}
	if !ValidTiers[r.Tier] {
		return fmt.Errorf("invalid tier %q", r.Tier)
	}
	if strings.TrimSpace(r.Skill) == "" {
		return fmt.Errorf("skill is required")
	}
	if r.QuestionCount == 0 {
		r.QuestionCount = DefaultQuestionCount
	}
	if r.QuestionCount < MinQuestionCount || r.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("question_count %d outside range [%d, %d]",
			r.QuestionCount, MinQuestionCount, MaxQuestionCount)
	}
	return nil
}

type StudentFailure struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Error       string `json:"error"`
}

type GenerateWorksheetsResponse struct {
	BatchID      int64            `json:"batch_id"`
	Skill        string           `json:"skill"`
	Tier         Tier             `json:"tier"`
	TargetGrade  int              `json:"target_grade"`
	GroupSize    int              `json:"group_size"`
	Generated    int              `json:"generated"`
	Failed       int              `json:"failed"`
	WorksheetIDs []int64          `json:"worksheet_ids"`
	Failures     []StudentFailure `json:"failures,omitempty"`
	Message      string           `json:"message"`
}

type WorksheetListResponse struct {
	Worksheets []Worksheet `json:"worksheets"`
	Total      int         `json:"total"`
}
