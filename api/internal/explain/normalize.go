package explain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Normalize приводит сырые поля Record к канонической форме. Тотальна:
// любой мусор превращается в пустое/дефолтное значение, сбоев нет.
// Границы длин здесь НЕ проверяются (это работа Validate), кроме
// цитат — единственного места, где негодные записи молча отбрасываются.
func Normalize(rec Record) Record {
	rec.Summary = strings.TrimSpace(asString(rec.RawSummary))
	rec.Answer = normalizeAnswer(rec.RawAnswer)
	rec.Analysis = normalizeAnalysis(rec.RawAnalysis)
	rec.KeyPoints = normalizeStrings(rec.RawKeyPoints)
	rec.MemoryAids = normalizeAids(rec.RawMemoryAids)
	rec.Citations = normalizeCitations(rec.RawCitations)
	rec.Difficulty = asNumber(rec.RawDifficulty)
	rec.Insufficient = asBool(rec.RawInsufficient)
	return rec
}

// answerDelims — типовые разделители, когда модель склеила ответы в
// одну строку ("A, B" / "A;B" / "A/B").
var answerDelims = strings.NewReplacer(",", "\n", ";", "\n", "/", "\n")

func normalizeAnswer(v any) []string {
	var items []string
	switch t := v.(type) {
	case string:
		items = strings.Split(answerDelims.Replace(t), "\n")
	case []any:
		for _, el := range t {
			if s := asString(el); s != "" {
				items = append(items, s)
			}
		}
	}
	seen := map[string]bool{}
	out := []string{}
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func normalizeAnalysis(v any) []OptionAnalysis {
	arr, ok := v.([]any)
	if !ok {
		return []OptionAnalysis{}
	}
	out := []OptionAnalysis{}
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, OptionAnalysis{
			Option:  strings.TrimSpace(asString(pick(m, "option", "id"))),
			Verdict: canonicalVerdict(asString(pick(m, "verdict"))),
			Reason:  strings.TrimSpace(asString(pick(m, "reason", "explanation"))),
		})
	}
	return out
}

// canonicalVerdict терпит разнобой в написании. "INCORRECT" проверяется
// раньше "CORRECT": второе — подстрока первого.
func canonicalVerdict(s string) Verdict {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case u == string(VerdictCorrect):
		return VerdictCorrect
	case u == string(VerdictWrong):
		return VerdictWrong
	case strings.Contains(u, "INCORRECT") || u == "FALSE" || u == "INVALID":
		return VerdictWrong
	case strings.Contains(u, "CORRECT") || u == "TRUE" || u == "RIGHT":
		return VerdictCorrect
	}
	return Verdict(u)
}

func normalizeStrings(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := []string{}
	for _, el := range arr {
		if s := strings.TrimSpace(asString(el)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeAids(v any) []MemoryAid {
	arr, ok := v.([]any)
	if !ok {
		return []MemoryAid{}
	}
	out := []MemoryAid{}
	for _, el := range arr {
		switch t := el.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, MemoryAid{Type: AidOther, Text: s})
			}
		case map[string]any:
			text := strings.TrimSpace(asString(pick(t, "text", "aid")))
			if text == "" {
				continue
			}
			out = append(out, MemoryAid{
				Type: canonicalAidType(asString(pick(t, "type"))),
				Text: text,
			})
		}
	}
	return out
}

// canonicalAidType: точное совпадение без учёта регистра, затем
// вхождение подстроки ("ACRONYM" ⊂ "acronym mnemonic"), иначе OTHER.
func canonicalAidType(s string) AidType {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, t := range aidTypes {
		if u == string(t) {
			return t
		}
	}
	for _, t := range aidTypes {
		if strings.Contains(u, string(t)) {
			return t
		}
	}
	return AidOther
}

// normalizeCitations — единственная точка, где записи выбрасываются:
// без title, без цитаты в 10+ символов или без абсолютного http(s)-URL
// запись не жилец. Больше пяти не берём.
func normalizeCitations(v any) []Citation {
	arr, ok := v.([]any)
	if !ok {
		return []Citation{}
	}
	out := []Citation{}
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		c := Citation{
			Title: strings.TrimSpace(asString(pick(m, "title"))),
			URL:   strings.TrimSpace(asString(pick(m, "url"))),
			Quote: strings.TrimSpace(asString(pick(m, "quote"))),
		}
		if c.Title == "" || utf8.RuneCountInString(c.Quote) < 10 || !isHTTPURL(c.URL) {
			continue
		}
		out = append(out, c)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return ""
}

func asNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	}
	return false
}
