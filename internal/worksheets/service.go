package worksheets

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/worksheet-gen/backend/internal/classifier"
	"github.com/worksheet-gen/backend/internal/generator"
	"github.com/worksheet-gen/backend/internal/models"
	"github.com/worksheet-gen/backend/internal/render"
	"github.com/worksheet-gen/backend/internal/retrieval"
	"github.com/worksheet-gen/backend/internal/tabular"
)

// storage is the persistence surface the service works against.
// *Store implements it over Postgres; tests substitute an in-memory
// fake.
type storage interface {
	CreateBatch(filename string, actualGrade int, records []models.ScoreRecord) (*models.ScoreBatch, error)
	GetBatch(batchID int64) (*models.ScoreBatch, error)
	ListBatches(limit, offset int) ([]models.ScoreBatch, error)
	ListRecords(batchID int64) ([]models.ScoreRecord, error)
	UpdateBatchStatus(batchID int64, status models.BatchStatus) error
	ReplaceReference(entries []retrieval.Entry) error
	LoadReference() ([]retrieval.Entry, error)
	ReferenceStatus() (*models.ReferenceStatus, error)
	CreateWorksheet(w *models.Worksheet, bullets []string) (int64, error)
	GetWorksheet(id int64) (*models.Worksheet, error)
	ListWorksheets(batchID *int64, skill, tier string, limit, offset int) ([]models.Worksheet, error)
}

type Service struct {
	store     storage
	generator *generator.Generator
	renderer  *render.Renderer
}

func NewService(store storage, gen *generator.Generator, renderer *render.Renderer) *Service {
	return &Service{
		store:     store,
		generator: gen,
		renderer:  renderer,
	}
}

// ── Score Upload ────────────────────────────────────────

// UploadScores ingests a CSV of student scores. Wide per-skill tables
// are reshaped into canonical long form before anything else looks at
// them.
func (s *Service) UploadScores(r io.Reader, filename string, actualGrade int) (*models.UploadScoresResponse, error) {
	if actualGrade < models.MinCurriculumGrade || actualGrade > models.MaxCurriculumGrade {
		return nil, fmt.Errorf("actual_grade %d outside range [%d, %d]",
			actualGrade, models.MinCurriculumGrade, models.MaxCurriculumGrade)
	}

	table, err := tabular.FromCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parse scores CSV: %w", err)
	}
	table = tabular.Normalize(table)

	records, err := tabular.Records(table, actualGrade)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("scores file contains no data rows")
	}

	batch, err := s.store.CreateBatch(filename, actualGrade, records)
	if err != nil {
		return nil, err
	}

	students := make(map[string]bool)
	skillSet := make(map[string]bool)
	for _, rec := range records {
		students[rec.StudentID] = true
		skillSet[rec.Skill] = true
	}
	skills := make([]string, 0, len(skillSet))
	for skill := range skillSet {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	log.Printf("[scores] stored batch %d: %d records, %d students, grade %d",
		batch.ID, len(records), len(students), actualGrade)

	return &models.UploadScoresResponse{
		BatchID:      batch.ID,
		RecordCount:  len(records),
		StudentCount: len(students),
		Skills:       skills,
		Message:      fmt.Sprintf("Stored %d score records for %d students", len(records), len(students)),
	}, nil
}

func (s *Service) GetBatch(batchID int64) (*models.ScoreBatch, error) {
	return s.store.GetBatch(batchID)
}

func (s *Service) ListBatches(limit, offset int) ([]models.ScoreBatch, error) {
	return s.store.ListBatches(limit, offset)
}

func (s *Service) ListRecords(batchID int64) (*models.RecordListResponse, error) {
	records, err := s.store.ListRecords(batchID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ScoreRecord{}
	}
	return &models.RecordListResponse{Records: records, Total: len(records)}, nil
}

// ── Reference Bank ──────────────────────────────────────

// UploadReference replaces the curriculum reference bank from a CSV.
// A table without usable grade and skill columns yields an empty bank
// rather than an error, so generation still runs without context.
func (s *Service) UploadReference(r io.Reader) (*models.ReferenceStatus, error) {
	table, err := tabular.FromCSV(r)
	if err != nil {
		return nil, fmt.Errorf("parse reference CSV: %w", err)
	}

	entries := retrieval.Load(table)
	if entries == nil {
		log.Printf("WARN: [reference] uploaded table has no grade/skill columns, bank is empty")
		entries = []retrieval.Entry{}
	}

	if err := s.store.ReplaceReference(entries); err != nil {
		return nil, err
	}

	log.Printf("[reference] loaded %d entries", len(entries))
	return s.store.ReferenceStatus()
}

func (s *Service) ReferenceStatus() (*models.ReferenceStatus, error) {
	return s.store.ReferenceStatus()
}

// ── Worksheet Generation ────────────────────────────────

// SelectGroup filters a batch's records down to the students whose
// score in the requested skill classifies into the requested tier.
func SelectGroup(records []models.ScoreRecord, skill string, tier models.Tier, thresholds models.ThresholdConfig) []models.ScoreRecord {
	var group []models.ScoreRecord
	for _, rec := range records {
		if !strings.EqualFold(strings.TrimSpace(rec.Skill), strings.TrimSpace(skill)) {
			continue
		}
		if classifier.Classify(rec.Score, thresholds) == tier {
			group = append(group, rec)
		}
	}
	return group
}

// GenerateWorksheets runs the full pipeline for one (batch, skill,
// tier) group: classify, map the target grade, retrieve reference
// context, and generate one worksheet per student. One student's
// failure never aborts the rest of the group.
func (s *Service) GenerateWorksheets(ctx context.Context, req models.GenerateWorksheetsRequest) (*models.GenerateWorksheetsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	batch, err := s.store.GetBatch(req.BatchID)
	if err != nil {
		return nil, fmt.Errorf("batch %d not found", req.BatchID)
	}

	records, err := s.store.ListRecords(req.BatchID)
	if err != nil {
		return nil, err
	}

	targetGrade := classifier.MapTier(req.Tier, req.Mapping)
	group := SelectGroup(records, req.Skill, req.Tier, req.Thresholds)

	resp := &models.GenerateWorksheetsResponse{
		BatchID:      req.BatchID,
		Skill:        req.Skill,
		Tier:         req.Tier,
		TargetGrade:  targetGrade,
		GroupSize:    len(group),
		WorksheetIDs: []int64{},
	}

	if len(group) == 0 {
		resp.Message = fmt.Sprintf("No students in tier %q for skill %q", req.Tier, req.Skill)
		return resp, nil
	}

	refEntries, err := s.store.LoadReference()
	if err != nil {
		log.Printf("WARN: [generate] could not load reference bank: %v, continuing without context", err)
		refEntries = nil
	}
	contextBullets := retrieval.Retrieve(refEntries, req.Skill, targetGrade)
	if len(contextBullets) == 0 {
		log.Printf("[generate] no reference context for skill %q grade %d", req.Skill, targetGrade)
	}

	if err := s.store.UpdateBatchStatus(req.BatchID, models.BatchGenerating); err != nil {
		return nil, fmt.Errorf("update batch status: %w", err)
	}

	log.Printf("[generate] batch %d: %d students, skill %q, tier %s, target grade %d, %d context bullets",
		req.BatchID, len(group), req.Skill, req.Tier, targetGrade, len(contextBullets))

	for _, student := range group {
		genReq := models.GenerationRequest{
			StudentID:        student.StudentID,
			StudentName:      student.StudentName,
			ActualGrade:      batch.ActualGrade,
			TargetGrade:      targetGrade,
			Skill:            req.Skill,
			Tier:             req.Tier,
			RetrievalContext: contextBullets,
			QuestionCount:    req.QuestionCount,
		}

		id, genErr := s.generateOne(ctx, req.BatchID, genReq)
		if genErr != nil {
			log.Printf("WARN: [generate] student %s (%s) failed: %v",
				student.StudentID, student.StudentName, genErr)
			resp.Failed++
			resp.Failures = append(resp.Failures, models.StudentFailure{
				StudentID:   student.StudentID,
				StudentName: student.StudentName,
				Error:       genErr.Error(),
			})
			continue
		}
		resp.Generated++
		resp.WorksheetIDs = append(resp.WorksheetIDs, id)
	}

	if err := s.store.UpdateBatchStatus(req.BatchID, models.BatchCompleted); err != nil {
		log.Printf("WARN: [generate] could not mark batch %d completed: %v", req.BatchID, err)
	}

	resp.Message = fmt.Sprintf("Generated %d of %d worksheets", resp.Generated, resp.GroupSize)
	return resp, nil
}

func (s *Service) generateOne(ctx context.Context, batchID int64, req models.GenerationRequest) (int64, error) {
	start := time.Now()

	body, answerKey, llmResp, err := s.generator.GenerateWorksheet(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		failed := &models.Worksheet{
			BatchID:          batchID,
			StudentID:        req.StudentID,
			StudentName:      req.StudentName,
			Skill:            req.Skill,
			Tier:             req.Tier,
			ActualGrade:      req.ActualGrade,
			TargetGrade:      req.TargetGrade,
			QuestionCount:    req.QuestionCount,
			ModelUsed:        s.generator.ModelName(),
			GenerationTimeMs: int(elapsed),
			Status:           models.WorksheetFailed,
			ErrorMessage:     &errMsg,
		}
		if _, storeErr := s.store.CreateWorksheet(failed, req.RetrievalContext); storeErr != nil {
			log.Printf("WARN: [generate] could not record failure for student %s: %v", req.StudentID, storeErr)
		}
		return 0, err
	}

	for _, warning := range generator.CheckWorksheet(body, answerKey, req.QuestionCount) {
		log.Printf("WARN: [generate] student %s worksheet: %s", req.StudentID, warning)
	}

	w := &models.Worksheet{
		BatchID:          batchID,
		StudentID:        req.StudentID,
		StudentName:      req.StudentName,
		Skill:            req.Skill,
		Tier:             req.Tier,
		ActualGrade:      req.ActualGrade,
		TargetGrade:      req.TargetGrade,
		QuestionCount:    req.QuestionCount,
		Body:             body,
		AnswerKey:        answerKey,
		ModelUsed:        s.generator.ModelName(),
		PromptTokens:     llmResp.PromptTokens,
		OutputTokens:     llmResp.OutputTokens,
		GenerationTimeMs: int(elapsed),
		Status:           models.WorksheetCompleted,
	}
	return s.store.CreateWorksheet(w, req.RetrievalContext)
}

// ── Worksheet Retrieval ─────────────────────────────────

func (s *Service) GetWorksheet(id int64) (*models.Worksheet, error) {
	return s.store.GetWorksheet(id)
}

func (s *Service) ListWorksheets(batchID *int64, skill, tier string, limit, offset int) (*models.WorksheetListResponse, error) {
	worksheets, err := s.store.ListWorksheets(batchID, skill, tier, limit, offset)
	if err != nil {
		return nil, err
	}
	if worksheets == nil {
		worksheets = []models.Worksheet{}
	}
	return &models.WorksheetListResponse{Worksheets: worksheets, Total: len(worksheets)}, nil
}

// Document parts servable as printable pages.
const (
	PartWorksheet = "worksheet"
	PartAnswerKey = "answer_key"
)

// RenderDocument produces the printable PNG pages for one part of a
// stored worksheet.
func (s *Service) RenderDocument(id int64, part string) ([][]byte, error) {
	w, err := s.store.GetWorksheet(id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WorksheetCompleted {
		return nil, fmt.Errorf("worksheet %d has no document: status is %s", id, w.Status)
	}

	var title, text string
	switch part {
	case PartWorksheet:
		title = fmt.Sprintf("%s Practice - %s (Grade %d)", w.Skill, w.StudentName, w.TargetGrade)
		text = w.Body
	case PartAnswerKey:
		title = fmt.Sprintf("%s Answer Key - %s", w.Skill, w.StudentName)
		text = w.AnswerKey
	default:
		return nil, fmt.Errorf("unknown document part %q", part)
	}

	pages, err := s.renderer.RenderDocument(title, text)
	if err != nil {
		return nil, fmt.Errorf("render worksheet %d: %w", id, err)
	}
	return pages, nil
}
