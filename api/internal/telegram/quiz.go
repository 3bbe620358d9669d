package telegram

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-coach/api/internal/explain"
	"exam-coach/api/internal/llm"
	"exam-coach/api/internal/store"
)

// sendQuiz шлёт случайный вопрос с inline-кнопками по вариантам.
func (r *Router) sendQuiz(cid int64, category string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q, err := r.Questions.Random(ctx, category)
	if errors.Is(err, sql.ErrNoRows) {
		r.send(cid, "В банке пока нет вопросов по этому запросу.")
		return
	}
	if err != nil {
		log.Printf("quiz: random: %v", err)
		r.send(cid, "Не получилось достать вопрос, попробуй ещё раз.")
		return
	}

	var b strings.Builder
	b.WriteString("❓ " + q.Title + "\n\n")
	for _, o := range q.Options {
		b.WriteString(o.ID + ". " + o.Text + "\n")
	}
	msg := tgbotapi.NewMessage(cid, b.String())
	msg.ReplyMarkup = makeOptionsKeyboard(q)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	cid := cb.Message.Chat.ID
	data := cb.Data
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch {
	case strings.HasPrefix(data, "ans:"):
		parts := strings.SplitN(data, ":", 3)
		if len(parts) == 3 {
			r.onAnswer(cid, cb.Message.MessageID, parts[1], parts[2])
		}
	case strings.HasPrefix(data, "exp:"):
		r.onExplain(cid, strings.TrimPrefix(data, "exp:"))
	}
}

// onAnswer сверяет выбранный вариант с ключом и предлагает объяснение.
func (r *Router) onAnswer(cid int64, msgID int, questionID, optionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q, err := r.Questions.Get(ctx, questionID)
	if err != nil {
		log.Printf("quiz: answer: question %s: %v", questionID, err)
		r.send(cid, "Вопрос не найден — возможно, его удалили.")
		return
	}

	// убрать клавиатуру с вариантами
	edit := tgbotapi.NewEditMessageReplyMarkup(cid, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.Bot.Send(edit)

	var verdict string
	if isCorrectOption(q, optionID) {
		verdict = "✅ Верно!"
	} else {
		verdict = "❌ Неверно. Правильный ответ: " + strings.Join(q.CorrectAnswers, ", ")
	}
	msg := tgbotapi.NewMessage(cid, verdict)
	msg.ReplyMarkup = makeExplainKeyboard(q.ID)
	_, _ = r.Bot.Send(msg)
}

// isCorrectOption: ключ может ссылаться на вариант и по id, и по тексту.
func isCorrectOption(q store.Question, optionID string) bool {
	var optText string
	for _, o := range q.Options {
		if o.ID == optionID {
			optText = strings.TrimSpace(o.Text)
		}
	}
	for _, a := range q.CorrectAnswers {
		a = strings.TrimSpace(a)
		if strings.EqualFold(a, optionID) || (optText != "" && strings.EqualFold(a, optText)) {
			return true
		}
	}
	return false
}

// onExplain гонит пайплайн объяснения (или достаёт из кэша) и рендерит
// результат. Терминальные ошибки показываются одной общей фразой.
func (r *Router) onExplain(cid int64, questionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	q, err := r.Questions.Get(ctx, questionID)
	if err != nil {
		log.Printf("quiz: explain: question %s: %v", questionID, err)
		r.send(cid, "Вопрос не найден — возможно, его удалили.")
		return
	}

	engine := r.EngManager.Get(cid)
	maxAge := time.Duration(r.Cfg.ExplainCacheHours) * time.Hour
	if exp, err := r.Explanations.Find(ctx, q.ID, engine.Name(), engine.GetModel(), maxAge); err == nil {
		r.send(cid, renderExplanation(q, exp))
		return
	}

	r.send(cid, "Готовлю объяснение…")

	ex := &explain.Explainer{Engine: engine, Config: r.explainConfig()}
	exp, err := ex.Explain(ctx, q.ExplainRequest())
	if err != nil {
		log.Printf("quiz: explain: question=%s engine=%s: %v", q.ID, engine.Name(), err)
		var terr *llm.TransportError
		if errors.As(err, &terr) {
			r.send(cid, terr.Human())
			return
		}
		r.send(cid, "Не получилось сгенерировать объяснение. Попробуй ещё раз.")
		return
	}

	if err := r.Explanations.Upsert(ctx, q.ID, engine.Name(), engine.GetModel(), exp); err != nil {
		log.Printf("quiz: explain: cache upsert: %v", err)
	}
	r.send(cid, renderExplanation(q, exp))
}

func (r *Router) explainConfig() explain.Config {
	cfg := explain.DefaultConfig()
	cfg.RetryBudget = r.Cfg.RetryBudget
	cfg.TokenBudget = r.Cfg.TokenBudget
	cfg.TokenStep = r.Cfg.TokenStep
	cfg.TokenCeiling = r.Cfg.TokenCeiling
	cfg.IncludeQuestion = r.Cfg.IncludeQuestion
	cfg.IncludeOptions = r.Cfg.IncludeOptions
	cfg.CustomTemplate = r.Cfg.PromptTemplate
	return cfg
}

// renderExplanation — текстовый рендер канонической записи.
func renderExplanation(q store.Question, exp explain.Explanation) string {
	var b strings.Builder
	b.WriteString("💡 " + exp.Summary + "\n\n")
	b.WriteString("Ответ: " + strings.Join(exp.Answer, ", ") + "\n\n")

	b.WriteString("Разбор вариантов:\n")
	for _, a := range exp.Analysis {
		mark := "❌"
		if a.Verdict == explain.VerdictCorrect {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s — %s\n", mark, a.Option, a.Reason))
	}

	b.WriteString("\nГлавное:\n")
	for _, p := range exp.KeyPoints {
		b.WriteString("• " + p + "\n")
	}

	if len(exp.MemoryAids) > 0 {
		b.WriteString("\nКак запомнить:\n")
		for _, a := range exp.MemoryAids {
			b.WriteString("• " + a.Text + "\n")
		}
	}
	if len(exp.Citations) > 0 {
		b.WriteString("\nИсточники:\n")
		for _, c := range exp.Citations {
			b.WriteString("• " + c.Title + " — " + c.URL + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("\nСложность: %d/5", exp.Difficulty))
	if exp.Insufficiency {
		b.WriteString("\n⚠️ Материала для полного разбора не хватило.")
	}
	return b.String()
}
