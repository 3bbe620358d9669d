package explain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"exam-coach/api/internal/llm"
)

// Config — конфигурация одного прогона пайплайна. Значения приходят из
// внешнего конфига, внутри не мутируются.
type Config struct {
	RetryBudget  int // дефолт 2: до трёх попыток суммарно
	TokenBudget  int // стартовый бюджет ответа
	TokenStep    int // шаг эскалации при обрезке
	TokenCeiling int // абсолютный потолок бюджета

	IncludeQuestion bool
	IncludeOptions  bool
	CustomTemplate  string
	SystemOverride  string
}

func DefaultConfig() Config {
	return Config{
		RetryBudget:     2,
		TokenBudget:     1024,
		TokenStep:       1024,
		TokenCeiling:    4096,
		IncludeQuestion: true,
		IncludeOptions:  true,
	}
}

// Explainer гоняет цикл prompt -> transport -> parse -> normalize ->
// validate и решает: ретрай с эскалацией, фоллбэк-синтез или
// терминальная ошибка.
type Explainer struct {
	Engine llm.Engine
	Config Config
}

// attemptState — состояние между попытками одного запроса.
type attemptState struct {
	attempt      int
	remaining    int
	budget       int
	forceDefault bool
}

// retry списывает одну попытку. false — бюджет ретраев исчерпан.
func (st *attemptState) retry() bool {
	if st.remaining <= 0 {
		return false
	}
	st.remaining--
	st.attempt++
	st.forceDefault = true
	return true
}

// escalate поднимает бюджет токенов на шаг, не выходя за потолок.
func (st *attemptState) escalate(cfg Config) {
	st.budget += cfg.TokenStep
	if cfg.TokenCeiling > 0 && st.budget > cfg.TokenCeiling {
		st.budget = cfg.TokenCeiling
	}
}

// Explain — единственная точка входа пайплайна. Возвращает либо запись,
// прошедшую все инварианты схемы, либо терминальную ошибку. Ошибки
// транспорта не ретраятся (это забота движка); пустые и обрезанные
// ответы ретраятся в пределах бюджета; структурно целый, но
// семантически неполный ответ спасается синтезом, а не повтором.
func (e *Explainer) Explain(ctx context.Context, req Request) (Explanation, error) {
	cfg := e.Config
	st := attemptState{attempt: 1, remaining: cfg.RetryBudget, budget: cfg.TokenBudget}

	for {
		system, user := BuildPrompt(req, PromptOptions{
			ForceDefault:    st.forceDefault,
			IncludeQuestion: cfg.IncludeQuestion,
			IncludeOptions:  cfg.IncludeOptions,
			CustomTemplate:  cfg.CustomTemplate,
			SystemOverride:  cfg.SystemOverride,
		})

		reply, err := e.Engine.Complete(ctx, system, user, st.budget)
		if err != nil {
			return Explanation{}, fmt.Errorf("explain: transport: %w", err)
		}
		log.Printf("explain: attempt %d engine=%s finish=%s tokens=%d/%d",
			st.attempt, e.Engine.Name(), reply.FinishReason, reply.Usage.CompletionTokens, st.budget)

		// Пустой ответ: ретрай с принудительным дефолтным промптом.
		if reply.FinishReason == llm.FinishEmpty || strings.TrimSpace(reply.Text) == "" {
			if st.retry() {
				continue
			}
			return Explanation{}, ErrEmptyReply
		}

		// Обрезка: ретрай с увеличенным бюджетом, разбирать нечего.
		if reply.FinishReason == llm.FinishTruncated {
			if st.retry() {
				st.escalate(cfg)
				continue
			}
			return Explanation{}, ErrTruncated
		}

		rec, err := Parse(reply.Text, reply.FinishReason)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) && pe.Retryable {
				if st.retry() {
					st.escalate(cfg)
					continue
				}
				return Explanation{}, ErrTruncated
			}
			// Кривой JSON после ремонта или отсутствующий контейнер —
			// повторный запрос тут не помогает.
			return Explanation{}, err
		}

		rec = Normalize(rec)
		exp, verr := Validate(rec)
		if verr == nil {
			return exp, nil
		}
		log.Printf("explain: validation failed (%s), synthesizing", verr.Violations[0])

		out := Synthesize(rec, req)
		if v := violations(out); len(v) > 0 {
			// Синтез специфицирован так, что это недостижимо; если
			// случилось — баг в синтезаторе, не в данных.
			return Explanation{}, &SynthesisAssertionError{Violations: v}
		}
		return out, nil
	}
}
