package explain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Synthesize детерминированно собирает валидный Explanation из записи,
// не прошедшей валидацию (например, модель ответила прозой). Тотальна:
// выход всегда проходит violations() — это контролируется тестами и
// страхующей проверкой в контроллере.
func Synthesize(rec Record, req Request) Explanation {
	sentences := splitSentences(rec.FreeText)

	// Сводка: своё поле, если оно достаточно длинное; иначе первое
	// пригодное предложение свободного текста; иначе генерик.
	var summary string
	usable := false
	switch {
	case utf8.RuneCountInString(rec.Summary) >= 20:
		summary = truncateRunes(rec.Summary, 300)
		usable = true
	case len(sentences) > 0 && utf8.RuneCountInString(sentences[0]) >= 20:
		summary = truncateRunes(sentences[0], 300)
		usable = true
	}

	// Ответ не бывает пустым: нормализованный массив, потом ключ из
	// запроса, потом идентификатор первого варианта.
	answer := rec.Answer
	if len(answer) == 0 {
		for _, a := range req.CorrectAnswers {
			if a = strings.TrimSpace(a); a != "" {
				answer = append(answer, a)
			}
		}
	}
	if len(answer) == 0 && len(req.Options) > 0 {
		if id := strings.TrimSpace(req.Options[0].ID); id != "" {
			answer = []string{id}
		}
	}
	if len(answer) == 0 {
		answer = []string{"unknown"}
	}

	if !usable {
		summary = truncateRunes("Верный ответ: "+strings.Join(answer, ", ")+". Материала для развёрнутого разбора недостаточно.", 300)
	}

	answerSet := map[string]bool{}
	for _, a := range answer {
		answerSet[strings.ToLower(strings.TrimSpace(a))] = true
	}

	// Разбор по вариантам: по одной записи на каждый вариант вопроса.
	correctReason := "Этот вариант соответствует ключу ответа."
	if len(sentences) > 0 && utf8.RuneCountInString(sentences[0]) >= 10 {
		correctReason = truncateRunes(sentences[0], 200)
	}
	analysis := []OptionAnalysis{}
	for _, o := range req.Options {
		verdict := VerdictWrong
		reason := "Подтверждений в пользу этого варианта не найдено."
		if answerSet[strings.ToLower(o.ID)] || answerSet[strings.ToLower(strings.TrimSpace(o.Text))] {
			verdict = VerdictCorrect
			reason = correctReason
		}
		analysis = append(analysis, OptionAnalysis{Option: o.ID, Verdict: verdict, Reason: reason})
	}
	for i := len(analysis); i < 2; i++ {
		analysis = append(analysis, OptionAnalysis{
			Option:  "N/A",
			Verdict: VerdictWrong,
			Reason:  "Вариант отсутствует в исходном вопросе.",
		})
	}

	// Ключевые пункты: до трёх первых предложений, иначе генерик.
	keyPoints := []string{}
	for _, s := range sentences {
		if utf8.RuneCountInString(s) < 3 {
			continue
		}
		keyPoints = append(keyPoints, truncateRunes(s, 200))
		if len(keyPoints) == 3 {
			break
		}
	}
	if len(keyPoints) == 0 {
		keyPoints = []string{"Развёрнутое объяснение для этого вопроса получить не удалось."}
	}

	// Мнемоники и цитаты в фоллбэке не синтезируются никогда.
	return Explanation{
		Summary:       summary,
		Answer:        answer,
		Analysis:      analysis,
		KeyPoints:     keyPoints,
		Difficulty:    clampDifficulty(rec.Difficulty),
		Insufficiency: !usable,
	}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

// splitSentences режет свободный текст на предложения по [.!?].
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
