package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"exam-coach/api/internal/config"
	"exam-coach/api/internal/handle"
	"exam-coach/api/internal/llm"
	"exam-coach/api/internal/llm/deepseek"
	"exam-coach/api/internal/llm/gemini"
	"exam-coach/api/internal/llm/openai"
	"exam-coach/api/internal/store"
)

func main() {
	cfg := config.Load()

	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	// --- Postgres ---
	dsn := store.ResolveDSN()
	db, err := store.Open(context.Background(), dsn)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	log.Printf("db connected: %s", store.SafeDSNSummary(dsn))

	questions := store.NewQuestionRepo(db)
	explanations := store.NewExplanationRepo(db)

	engines := &llm.Engines{
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
	}
	if cfg.DeepseekAPIKey != "" {
		engines.Deepseek = deepseek.New(cfg.DeepseekAPIKey, cfg.DeepseekModel)
	}

	h := handle.New(engines, questions, explanations, cfg)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.HandleFunc("/v1/explain", h.Explain).Methods(http.MethodPost)
	r.HandleFunc("/v1/questions", h.ListQuestions).Methods(http.MethodGet)
	r.HandleFunc("/v1/questions", h.CreateQuestion).Methods(http.MethodPost)
	r.HandleFunc("/v1/questions/{id}", h.GetQuestion).Methods(http.MethodGet)
	r.HandleFunc("/v1/questions/{id}", h.UpdateQuestion).Methods(http.MethodPut)
	r.HandleFunc("/v1/questions/{id}", h.DeleteQuestion).Methods(http.MethodDelete)

	addr := ":" + cfg.Port
	log.Printf("exam-coach api listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
