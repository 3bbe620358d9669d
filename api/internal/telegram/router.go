package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-coach/api/internal/config"
	"exam-coach/api/internal/llm"
	"exam-coach/api/internal/store"
)

type Router struct {
	Bot        *tgbotapi.BotAPI
	EngManager *llm.Manager
	Engines    *llm.Engines

	Questions    *store.QuestionRepo
	Explanations *store.ExplanationRepo

	Cfg *config.Config
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.handleCommand(upd)
		return
	}
	r.send(upd.Message.Chat.ID, "Не понял. Команды: /quiz, /engine, /health")
}

func (r *Router) handleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Привет! Я тренажёр по тестовым вопросам.\n"+
			"/quiz [категория] — случайный вопрос\n"+
			"/engine — выбор LLM-движка\n"+
			"/health — проверка")
	case "health":
		r.send(cid, "✅ OK")
	case "quiz":
		category := strings.TrimSpace(upd.Message.CommandArguments())
		r.sendQuiz(cid, category)
	case "engine":
		r.handleEngineCommand(cid, upd.Message.Text)
	default:
		r.send(cid, "Неизвестная команда")
	}
}

func (r *Router) handleEngineCommand(cid int64, text string) {
	args := strings.Fields(strings.TrimSpace(strings.TrimPrefix(text, "/engine")))
	if len(args) == 0 {
		cur := r.EngManager.Get(cid)
		r.send(cid, "Текущий движок: "+cur.Name()+" ("+cur.GetModel()+")\n"+
			"Использование:\n/engine gemini\n/engine gpt\n/engine deepseek")
		return
	}
	eng, err := r.Engines.Get(args[0])
	if err != nil {
		r.send(cid, "Неизвестный движок. Доступны: gemini | gpt | deepseek")
		return
	}
	r.EngManager.Set(cid, eng)
	r.send(cid, "Ок, переключил на: "+eng.Name()+" ("+eng.GetModel()+")")
}

func (r *Router) send(chatID int64, text string) {
	_, _ = r.Bot.Send(tgbotapi.NewMessage(chatID, text))
}
