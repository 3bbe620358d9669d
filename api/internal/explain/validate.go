package explain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate собирает Explanation из нормализованного Record и проверяет
// все инварианты схемы. Нарушения собираются целиком — для диагностики.
// Ошибка валидации никогда не ведёт к повторному вызову транспорта:
// контроллер уходит в Synthesize.
//
// Difficulty — исключение: отсутствие или выход за 1..5 не нарушение,
// а повод для клампа с дефолтом 3.
func Validate(rec Record) (Explanation, *ValidationError) {
	exp := Explanation{
		Summary:       rec.Summary,
		Answer:        rec.Answer,
		Analysis:      rec.Analysis,
		KeyPoints:     rec.KeyPoints,
		MemoryAids:    rec.MemoryAids,
		Citations:     rec.Citations,
		Difficulty:    clampDifficulty(rec.Difficulty),
		Insufficiency: rec.Insufficient,
	}
	if v := violations(exp); len(v) > 0 {
		return Explanation{}, &ValidationError{Violations: v}
	}
	return exp, nil
}

// violations проверяет готовую запись по инвариантам схемы. Используется
// и Validate, и контрольной перепроверкой выхода Synthesize.
func violations(exp Explanation) []string {
	var out []string

	if n := utf8.RuneCountInString(exp.Summary); n < 20 || n > 300 {
		out = append(out, fmt.Sprintf("summary length %d, want 20..300", n))
	}

	if len(exp.Answer) == 0 {
		out = append(out, "answer is empty")
	}
	for i, a := range exp.Answer {
		if strings.TrimSpace(a) == "" {
			out = append(out, fmt.Sprintf("answer[%d] is blank", i))
		}
	}

	if len(exp.Analysis) < 2 {
		out = append(out, fmt.Sprintf("option analysis has %d entries, want >=2", len(exp.Analysis)))
	}
	for i, a := range exp.Analysis {
		if a.Verdict != VerdictCorrect && a.Verdict != VerdictWrong {
			out = append(out, fmt.Sprintf("analysis[%d] verdict %q", i, a.Verdict))
		}
		if utf8.RuneCountInString(a.Reason) < 10 {
			out = append(out, fmt.Sprintf("analysis[%d] reason too short", i))
		}
	}

	if n := len(exp.KeyPoints); n < 1 || n > 5 {
		out = append(out, fmt.Sprintf("key points %d, want 1..5", n))
	}

	if len(exp.MemoryAids) > 3 {
		out = append(out, fmt.Sprintf("memory aids %d, want <=3", len(exp.MemoryAids)))
	}
	for i, a := range exp.MemoryAids {
		if !validAidType(a.Type) {
			out = append(out, fmt.Sprintf("memory aid[%d] type %q", i, a.Type))
		}
		if n := utf8.RuneCountInString(a.Text); n < 5 || n > 120 {
			out = append(out, fmt.Sprintf("memory aid[%d] text length %d, want 5..120", i, n))
		}
	}

	if len(exp.Citations) > 5 {
		out = append(out, fmt.Sprintf("citations %d, want <=5", len(exp.Citations)))
	}
	for i, c := range exp.Citations {
		if c.Title == "" || utf8.RuneCountInString(c.Quote) < 10 || !isHTTPURL(c.URL) {
			out = append(out, fmt.Sprintf("citation[%d] malformed", i))
		}
	}

	if exp.Difficulty < 1 || exp.Difficulty > 5 {
		out = append(out, fmt.Sprintf("difficulty %d, want 1..5", exp.Difficulty))
	}

	return out
}

func validAidType(t AidType) bool {
	for _, v := range aidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// clampDifficulty — int 1..5, дефолт 3 при отсутствии или мусоре.
func clampDifficulty(v *float64) int {
	if v == nil {
		return 3
	}
	d := int(*v)
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}
