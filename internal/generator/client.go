package generator

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/worksheet-gen/backend/internal/models"
)

// LLMClient is the interface all generation backends satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// Generator wraps an LLMClient and adds worksheet-specific methods.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("USE_CLI_GENERATOR") == "true" {
		cliPath := os.Getenv("CLAUDE_CLI_PATH")
		if cliPath == "" {
			cliPath = "claude"
		}
		llm = NewCLIClient(cliPath)
		model = "claude-cli"
		log.Println("Generator using Claude CLI (local plan)")
	} else if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("Generator using mock worksheets")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("Generator using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWithClient builds a Generator around an explicit client.
// Used by tests to inject a fake.
func NewGeneratorWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// GenerateWorksheet runs one student's full generation cycle: compose
// the role and task instructions, call the engine, and split the
// returned text into worksheet body and answer key.
func (g *Generator) GenerateWorksheet(ctx context.Context, req models.GenerationRequest) (body string, answerKey string, resp *LLMResponse, err error) {
	systemPrompt := RoleInstruction(req.TargetGrade)
	userPrompt := BuildTaskInstruction(req)

	resp, err = g.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate worksheet: %w", err)
	}

	body, answerKey = Split(resp.Content)
	return body, answerKey, resp, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			sleepDuration := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("Retrying Anthropic API call in %v (attempt %d)", sleepDuration, attempt+1)
			time.Sleep(sleepDuration)
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      buildMockWorksheet(),
		PromptTokens: 600,
		OutputTokens: 900,
	}, nil
}

func buildMockWorksheet() string {
	var b strings.Builder

	b.WriteString("PASSAGE:\n")
	b.WriteString("[Mock] Sara has a small garden behind her house. Every morning she waters the flowers before school. ")
	b.WriteString("Yesterday she planted three new seeds, and today she checked them carefully. ")
	b.WriteString("Her brother helped her pull the weeds, and they finished before lunch.\n\n")

	b.WriteString("QUESTIONS:\n")
	answers := []string{"B", "A", "D", "C", "B"}
	for i := 1; i <= len(answers); i++ {
		fmt.Fprintf(&b, "%d) [Mock] Which sentence about the garden is correct for item %d?\n", i, i)
		for _, opt := range []string{"A", "B", "C", "D"} {
			fmt.Fprintf(&b, "%s) [Mock] Option %s for item %d.\n", opt, opt, i)
		}
		b.WriteString("\n")
	}

	b.WriteString("ANSWER KEY:\n")
	for i, ans := range answers {
		fmt.Fprintf(&b, "%d) %s\n", i+1, ans)
	}

	return b.String()
}
