package worksheets

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/worksheet-gen/backend/internal/generator"
)

func postGenerate(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/worksheets/generate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.GenerateWorksheets(rr, req)
	return rr
}

func TestGenerateWorksheetsHandler_InvalidRequestIs400(t *testing.T) {
	h := NewHandler(NewService(&memStore{}, nil, nil))

	rr := postGenerate(h, `{"batch_id":1,"skill":"Grammar","tier":"expert",
		"thresholds":{"low_threshold":50,"high_threshold":75},
		"curriculum_mapping":{"low_grade":2,"medium_grade":3,"high_grade":4}}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid tier status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = postGenerate(h, `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGenerateWorksheetsHandler_StoreFailureIs500(t *testing.T) {
	store := &memStore{failGetBatch: true}
	svc := NewService(store, generator.NewGeneratorWithClient(&flakyLLM{}, "test-model"), nil)
	h := NewHandler(svc)

	rr := postGenerate(h, `{"batch_id":1,"skill":"Grammar","tier":"low",
		"thresholds":{"low_threshold":50,"high_threshold":75},
		"curriculum_mapping":{"low_grade":2,"medium_grade":3,"high_grade":4}}`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("store failure status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
