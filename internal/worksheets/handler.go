package worksheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/worksheet-gen/backend/internal/models"
	"github.com/worksheet-gen/backend/internal/tabular"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// csvBody returns the uploaded CSV stream. Multipart uploads carry it
// in a "file" form field, plain uploads in the request body.
func csvBody(r *http.Request) (io.ReadCloser, string, error) {
	if err := r.ParseMultipartForm(16 << 20); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("multipart upload missing 'file' field")
		}
		return file, header.Filename, nil
	}
	return r.Body, "", nil
}

func (h *Handler) UploadScores(w http.ResponseWriter, r *http.Request) {
	gradeParam := r.URL.Query().Get("actual_grade")
	if gradeParam == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "actual_grade query parameter is required"})
		return
	}
	actualGrade, err := strconv.Atoi(gradeParam)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "actual_grade must be an integer"})
		return
	}

	body, filename, err := csvBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	defer body.Close()

	resp, err := h.service.UploadScores(body, filename, actualGrade)
	if err != nil {
		var missing *tabular.MissingColumnError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Upload failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	offset := intQueryParam(query, "offset", 0)

	batches, err := h.service.ListBatches(limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list batches"})
		return
	}
	if batches == nil {
		batches = []models.ScoreBatch{}
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid batch ID")
	if !ok {
		return
	}

	batch, err := h.service.GetBatch(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Batch not found"})
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) ListBatchRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid batch ID")
	if !ok {
		return
	}

	if _, err := h.service.GetBatch(id); err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Batch not found"})
		return
	}

	resp, err := h.service.ListRecords(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list records"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) UploadReference(w http.ResponseWriter, r *http.Request) {
	body, _, err := csvBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	defer body.Close()

	status, err := h.service.UploadReference(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Reference upload failed: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (h *Handler) GetReferenceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.ReferenceStatus()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to read reference status"})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) GenerateWorksheets(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateWorksheetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.service.GenerateWorksheets(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Generation failed: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListWorksheets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var batchID *int64
	if b := query.Get("batch_id"); b != "" {
		id, err := strconv.ParseInt(b, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid batch_id"})
			return
		}
		batchID = &id
	}

	tier := query.Get("tier")
	if tier != "" && !models.ValidTiers[models.Tier(tier)] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "tier must be 'low', 'medium', or 'high'"})
		return
	}

	limit := intQueryParam(query, "limit", 20)
	offset := intQueryParam(query, "offset", 0)

	resp, err := h.service.ListWorksheets(batchID, query.Get("skill"), tier, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list worksheets"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetWorksheet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid worksheet ID")
	if !ok {
		return
	}

	worksheet, err := h.service.GetWorksheet(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Worksheet not found"})
		return
	}
	writeJSON(w, http.StatusOK, worksheet)
}

// GetWorksheetDocument serves one rendered PNG page of a worksheet or
// its answer key. The page query parameter selects the page, and the
// total page count goes out in the X-Total-Pages header.
func (h *Handler) GetWorksheetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Invalid worksheet ID")
	if !ok {
		return
	}

	part := r.URL.Query().Get("part")
	if part == "" {
		part = PartWorksheet
	}
	if part != PartWorksheet && part != PartAnswerKey {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "part must be 'worksheet' or 'answer_key'"})
		return
	}

	pages, err := h.service.RenderDocument(id, part)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	page := intQueryParam(r.URL.Query(), "page", 1)
	if page < 1 || page > len(pages) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("page %d out of range, document has %d pages", page, len(pages))})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Total-Pages", strconv.Itoa(len(pages)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pages[page-1]); err != nil {
		log.Printf("WARN: [worksheets] write document page: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	if v := query.Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func pathID(w http.ResponseWriter, r *http.Request, errMsg string) (int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: errMsg})
		return 0, false
	}
	return id, true
}
