package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	DeepseekAPIKey string
	DeepseekModel  string

	TelegramBotToken string
	WebhookURL       string

	// Настройки пайплайна объяснений.
	RetryBudget     int
	TokenBudget     int
	TokenStep       int
	TokenCeiling    int
	IncludeQuestion bool   // включать ли текст вопроса в промпт
	IncludeOptions  bool   // включать ли варианты и ключ ответа
	PromptTemplate  string // кастомный шаблон user-промпта, опционально

	// Кэш объяснений в Postgres, часов; 0 — без устаревания.
	ExplainCacheHours int
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("env %s: expected integer, got %q", k, v)
	}
	return n
}

func getEnvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func Load() *Config {
	tpl := ""
	if p := os.Getenv("PROMPT_TEMPLATE_FILE"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("PROMPT_TEMPLATE_FILE: %v", err)
		}
		tpl = string(b)
	}
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey:   mustEnv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   mustEnv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		DeepseekAPIKey: getEnv("DEEPSEEK_API_KEY", ""),
		DeepseekModel:  getEnv("DEEPSEEK_MODEL", "deepseek-chat"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		RetryBudget:     getEnvInt("EXPLAIN_RETRY_BUDGET", 2),
		TokenBudget:     getEnvInt("EXPLAIN_TOKEN_BUDGET", 1024),
		TokenStep:       getEnvInt("EXPLAIN_TOKEN_STEP", 1024),
		TokenCeiling:    getEnvInt("EXPLAIN_TOKEN_CEILING", 4096),
		IncludeQuestion: getEnvBool("EXPLAIN_INCLUDE_QUESTION", true),
		IncludeOptions:  getEnvBool("EXPLAIN_INCLUDE_OPTIONS", true),
		PromptTemplate:  tpl,

		ExplainCacheHours: getEnvInt("EXPLAIN_CACHE_HOURS", 0),
	}
}
