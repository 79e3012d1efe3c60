package generator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/worksheet-gen/backend/internal/models"
)

// fakeClient records the prompts it receives and returns a canned
// response.
type fakeClient struct {
	systemPrompt string
	userPrompt   string
	response     string
	err          error
}

func (f *fakeClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &LLMResponse{Content: f.response, PromptTokens: 100, OutputTokens: 200}, nil
}

func TestGenerateWorksheet_SplitsResponse(t *testing.T) {
	fake := &fakeClient{response: "PASSAGE:\nA cat sat.\n\nQUESTIONS:\n1) Who sat?\n\nANSWER KEY:\n1) A"}
	gen := NewGeneratorWithClient(fake, "test-model")

	req := models.GenerationRequest{
		StudentName:   "Amal",
		ActualGrade:   4,
		TargetGrade:   2,
		Skill:         "Grammar",
		Tier:          models.TierLow,
		QuestionCount: 5,
	}

	body, key, resp, err := gen.GenerateWorksheet(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateWorksheet returned error: %v", err)
	}

	if strings.Contains(strings.ToUpper(body), "ANSWER KEY") {
		t.Errorf("body still contains answer key: %q", body)
	}
	if !strings.HasPrefix(key, AnswerKeyMarker) {
		t.Errorf("key = %q, want it to start with the marker", key)
	}
	if resp.PromptTokens != 100 || resp.OutputTokens != 200 {
		t.Errorf("token usage not passed through: %+v", resp)
	}

	if !strings.Contains(fake.systemPrompt, "Grade 2") {
		t.Errorf("system prompt not pitched at target grade: %q", fake.systemPrompt)
	}
	if !strings.Contains(fake.userPrompt, "Student name: Amal") {
		t.Errorf("user prompt missing student context: %q", fake.userPrompt)
	}
}

func TestGenerateWorksheet_PropagatesError(t *testing.T) {
	fake := &fakeClient{err: fmt.Errorf("engine unavailable")}
	gen := NewGeneratorWithClient(fake, "test-model")

	_, _, _, err := gen.GenerateWorksheet(context.Background(), models.GenerationRequest{
		StudentName: "Amal", TargetGrade: 3, Skill: "Writing", Tier: models.TierMedium, QuestionCount: 5,
	})
	if err == nil {
		t.Fatal("expected error from failing client")
	}
	if !strings.Contains(err.Error(), "engine unavailable") {
		t.Errorf("error = %q, want the client error wrapped", err)
	}
}

func TestMockClient_ProducesWellFormedWorksheet(t *testing.T) {
	resp, err := NewMockClient().Generate(context.Background(), "", "")
	if err != nil {
		t.Fatalf("mock generate: %v", err)
	}

	body, key := Split(resp.Content)
	if warnings := CheckWorksheet(body, key, 5); len(warnings) != 0 {
		t.Errorf("mock worksheet has structural warnings: %v", warnings)
	}
}
