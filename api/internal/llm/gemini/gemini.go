package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"exam-coach/api/internal/llm"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Complete(ctx context.Context, system, user string, maxTokens int) (llm.Reply, error) {
	if e.APIKey == "" {
		return llm.Reply{}, fmt.Errorf("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return llm.Reply{}, llm.NewTransportError(0, err.Error())
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return llm.Reply{}, fmt.Errorf("gemini: model is nil")
	}
	// Не фиксируем ResponseMIMEType: ответ может прийти и тегами, и JSON,
	// разбор — на стороне пайплайна.
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(0),
		MaxOutputTokens: ptrInt32(int32(maxTokens)),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return llm.Reply{}, llm.NewTransportError(gerr.Code, gerr.Message)
		}
		return llm.Reply{}, llm.NewTransportError(0, err.Error())
	}

	r := llm.Reply{}
	if resp.UsageMetadata != nil {
		r.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 {
		r.FinishReason = llm.FinishEmpty
		return r, nil
	}
	cand := resp.Candidates[0]
	r.Text = candidateText(cand)
	switch {
	case strings.TrimSpace(r.Text) == "":
		r.FinishReason = llm.FinishEmpty
	case cand.FinishReason == genai.FinishReasonMaxTokens:
		r.FinishReason = llm.FinishTruncated
	default:
		r.FinishReason = llm.FinishComplete
	}
	return r, nil
}

// candidateText склеивает текстовые части кандидата.
func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func ptrFloat32(f float32) *float32 { return &f }
func ptrInt32(i int32) *int32       { return &i }
