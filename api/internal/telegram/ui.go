package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"exam-coach/api/internal/store"
)

// Кнопки вариантов ответа: по одной в ряд, callback несёт id вопроса и
// id варианта.
func makeOptionsKeyboard(q store.Question) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range q.Options {
		btn := tgbotapi.NewInlineKeyboardButtonData(o.ID, "ans:"+q.ID+":"+o.ID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Кнопка запроса объяснения после ответа.
func makeExplainKeyboard(questionID string) tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Объяснить", "exp:"+questionID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn),
	)
}
