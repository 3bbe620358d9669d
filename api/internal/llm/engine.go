package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Finish — сигнал провайдера о том, как завершилась генерация.
type Finish string

const (
	FinishComplete  Finish = "complete"
	FinishTruncated Finish = "truncated" // ответ обрезан по лимиту токенов
	FinishEmpty     Finish = "empty"
)

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Reply — сырой ответ одной модели на один вызов Complete.
type Reply struct {
	Text         string `json:"text"`
	FinishReason Finish `json:"finish_reason"`
	Usage        Usage  `json:"usage"`
}

type Engine interface {
	Name() string
	GetModel() string
	// Complete отправляет пару system+user и возвращает текст ответа
	// с индикатором завершения. maxTokens — бюджет ответа в токенах
	// провайдера.
	Complete(ctx context.Context, system, user string, maxTokens int) (Reply, error)
}

type Engines struct {
	OpenAI   Engine
	Gemini   Engine
	Deepseek Engine
}

func (e *Engines) Get(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini":
		return e.Gemini, nil
	case "gpt", "openai":
		return e.OpenAI, nil
	case "deepseek":
		if e.Deepseek == nil {
			return nil, fmt.Errorf("deepseek engine is not configured")
		}
		return e.Deepseek, nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}
func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
