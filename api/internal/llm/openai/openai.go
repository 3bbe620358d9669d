package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"exam-coach/api/internal/llm"
)

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:  key,
		Model:   model,
		BaseURL: "https://api.openai.com",
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *Engine) Name() string { return "gpt" }

func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Complete(ctx context.Context, system, user string, maxTokens int) (llm.Reply, error) {
	if e.APIKey == "" {
		return llm.Reply{}, fmt.Errorf("OPENAI_API_KEY is empty")
	}
	return chatComplete(ctx, e.httpc, e.BaseURL+"/v1/chat/completions", e.APIKey, e.Model, system, user, maxTokens)
}

// chatComplete — общий вызов chat-completions API (им же пользуется
// deepseek: формат wire-совместим).
func chatComplete(ctx context.Context, httpc *http.Client, url, key, model, system, user string, maxTokens int) (llm.Reply, error) {
	body := map[string]any{
		"model": model,
		"messages": []any{
			map[string]any{"role": "system", "content": system},
			map[string]any{"role": "user", "content": user},
		},
		"max_tokens":  maxTokens,
		"temperature": 0,
	}
	payload, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := httpc.Do(req)
	if err != nil {
		return llm.Reply{}, llm.NewTransportError(0, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return llm.Reply{}, llm.NewTransportError(resp.StatusCode, truncateBytes(x, 512))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Reply{}, llm.NewTransportError(resp.StatusCode, "bad response envelope: "+err.Error())
	}

	r := llm.Reply{
		Usage: llm.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
		},
	}
	if len(out.Choices) == 0 {
		r.FinishReason = llm.FinishEmpty
		return r, nil
	}
	c := out.Choices[0]
	r.Text = c.Message.Content
	switch {
	case strings.TrimSpace(r.Text) == "":
		r.FinishReason = llm.FinishEmpty
	case c.FinishReason == "length":
		r.FinishReason = llm.FinishTruncated
	default:
		r.FinishReason = llm.FinishComplete
	}
	return r, nil
}

func truncateBytes(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
