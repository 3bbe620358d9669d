package deepseek

import (
	"exam-coach/api/internal/llm/openai"
)

// Engine — DeepSeek Chat API. Формат запросов и ответов совместим с
// chat-completions, поэтому переиспользуем клиент OpenAI с другим
// базовым URL.
type Engine struct {
	*openai.Engine
}

func New(key, model string) *Engine {
	e := openai.New(key, model)
	e.BaseURL = "https://api.deepseek.com"
	return &Engine{e}
}

func (e *Engine) Name() string { return "deepseek" }
