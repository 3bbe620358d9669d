package llm

import "fmt"

// TransportError — ошибка на стороне провайдера или сети. Пайплайн
// объяснений такие ошибки не ретраит: это зона ответственности движка.
type TransportError struct {
	Status   int    // HTTP-статус провайдера, 0 при сетевой ошибке
	Category string // auth | model | timeout | quota | provider | network | unknown
	Msg      string
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transport %s (%d): %s", e.Category, e.Status, e.Msg)
	}
	return fmt.Sprintf("transport %s: %s", e.Category, e.Msg)
}

// Human — короткое сообщение для пользователя, без внутренних деталей.
func (e *TransportError) Human() string {
	switch e.Category {
	case "quota":
		return "Сервис объяснений перегружен. Попробуй ещё раз через минуту."
	case "timeout":
		return "Модель отвечала слишком долго. Попробуй ещё раз."
	case "auth", "model":
		return "Сервис объяснений временно недоступен."
	default:
		return "Не получилось сгенерировать объяснение. Попробуй ещё раз."
	}
}

// NewTransportError маппит статус провайдера в категорию.
func NewTransportError(status int, msg string) *TransportError {
	cat := "unknown"
	switch {
	case status == 0:
		cat = "network"
	case status == 401 || status == 403:
		cat = "auth"
	case status == 404:
		cat = "model"
	case status == 408 || status == 504:
		cat = "timeout"
	case status == 429:
		cat = "quota"
	case status >= 500:
		cat = "provider"
	}
	return &TransportError{Status: status, Category: cat, Msg: msg}
}
