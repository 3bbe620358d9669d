package handle

import (
	"encoding/json"
	"net/http"
	"time"

	"exam-coach/api/internal/config"
	"exam-coach/api/internal/llm"
	"exam-coach/api/internal/store"
)

type Handle struct {
	engs         *llm.Engines
	questions    *store.QuestionRepo
	explanations *store.ExplanationRepo
	cfg          *config.Config
}

func New(engs *llm.Engines, questions *store.QuestionRepo, explanations *store.ExplanationRepo, cfg *config.Config) *Handle {
	return &Handle{
		engs:         engs,
		questions:    questions,
		explanations: explanations,
		cfg:          cfg,
	}
}

func (h *Handle) cacheMaxAge() time.Duration {
	return time.Duration(h.cfg.ExplainCacheHours) * time.Hour
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
