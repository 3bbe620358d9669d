package handle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"exam-coach/api/internal/explain"
)

// genericFailure — единственный текст, который видит пользователь при
// терминальной ошибке пайплайна; диагностика только в логах.
const genericFailure = "explanation generation failed, please retry"

type ExplainRequest struct {
	LLMName      string `json:"llm_name"`
	QuestionID   string `json:"question_id,omitempty"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`

	// Инлайновый вопрос, если question_id не задан.
	Question *explain.Request `json:"question,omitempty"`
}

type ExplainResponse struct {
	QuestionID  string              `json:"question_id,omitempty"`
	Engine      string              `json:"engine"`
	Model       string              `json:"model"`
	Cached      bool                `json:"cached"`
	Explanation explain.Explanation `json:"explanation"`
}

func (h *Handle) Explain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	engine, err := h.engs.Get(req.LLMName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 180*time.Second)
	defer cancel()

	var in explain.Request
	switch {
	case req.QuestionID != "":
		q, err := h.questions.Get(ctx, req.QuestionID)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		if err != nil {
			log.Printf("explain: question %s: %v", req.QuestionID, err)
			writeError(w, http.StatusInternalServerError, "storage error")
			return
		}
		in = q.ExplainRequest()
	case req.Question != nil:
		in = *req.Question
	default:
		writeError(w, http.StatusBadRequest, "either question_id or question is required")
		return
	}
	if len(in.Options) < 2 || len(in.CorrectAnswers) == 0 {
		writeError(w, http.StatusBadRequest, "question needs 2+ options and 1+ correct answers")
		return
	}

	// Кэш: только для сохранённых вопросов.
	if req.QuestionID != "" && !req.ForceRefresh {
		if exp, err := h.explanations.Find(ctx, req.QuestionID, engine.Name(), engine.GetModel(), h.cacheMaxAge()); err == nil {
			writeJSON(w, http.StatusOK, ExplainResponse{
				QuestionID:  req.QuestionID,
				Engine:      engine.Name(),
				Model:       engine.GetModel(),
				Cached:      true,
				Explanation: exp,
			})
			return
		}
	}

	ex := &explain.Explainer{Engine: engine, Config: h.explainConfig()}
	exp, err := ex.Explain(ctx, in)
	if err != nil {
		// Детали — в лог; наружу только общий текст.
		log.Printf("explain: question=%q engine=%s: %v", req.QuestionID, engine.Name(), err)
		writeError(w, http.StatusBadGateway, genericFailure)
		return
	}

	if req.QuestionID != "" {
		if err := h.explanations.Upsert(ctx, req.QuestionID, engine.Name(), engine.GetModel(), exp); err != nil {
			log.Printf("explain: cache upsert: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, ExplainResponse{
		QuestionID:  req.QuestionID,
		Engine:      engine.Name(),
		Model:       engine.GetModel(),
		Explanation: exp,
	})
}

func (h *Handle) explainConfig() explain.Config {
	cfg := explain.DefaultConfig()
	cfg.RetryBudget = h.cfg.RetryBudget
	cfg.TokenBudget = h.cfg.TokenBudget
	cfg.TokenStep = h.cfg.TokenStep
	cfg.TokenCeiling = h.cfg.TokenCeiling
	cfg.IncludeQuestion = h.cfg.IncludeQuestion
	cfg.IncludeOptions = h.cfg.IncludeOptions
	cfg.CustomTemplate = h.cfg.PromptTemplate
	return cfg
}
