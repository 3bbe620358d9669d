package explain

import (
	"encoding/json"
	"regexp"
	"strings"

	"exam-coach/api/internal/llm"
	"exam-coach/api/internal/util"
)

// Parse превращает сырой текст ответа в Record. Выбор грамматики:
// после trim и снятия code fences текст, начинающийся с '<', идёт в
// теговый парсер, всё остальное — в JSON-парсер. Выбор детерминирован
// первым непробельным символом.
func Parse(raw string, finish llm.Finish) (Record, error) {
	text := util.StripCodeFences(raw)
	if strings.HasPrefix(text, "<") {
		return parseTags(text)
	}
	return parseJSON(text, finish)
}

// --------------------------- теговая грамматика ---------------------------

var (
	reContainer = regexp.MustCompile(`(?is)<explanation\b[^>]*>`)
	reClose     = regexp.MustCompile(`(?i)</explanation>`)

	reAnswer   = regexp.MustCompile(`(?is)<answer\b([^>]*)>(.*?)</answer>`)
	rePoint    = regexp.MustCompile(`(?is)<point\b[^>]*>(.*?)</point>`)
	reOption   = regexp.MustCompile(`(?is)<option\b([^>]*)>(.*?)</option>`)
	reAid      = regexp.MustCompile(`(?is)<aid\b([^>]*)>(.*?)</aid>`)
	reCitation = regexp.MustCompile(`(?is)<citation\b([^>]*)>(.*?)</citation>`)
)

// parseTags — не полноценный XML-парсер, а регулярное сканирование
// фиксированного набора тегов: мелкие поломки разметки переживает.
// Единственный фатальный случай — отсутствие контейнера <explanation>.
func parseTags(text string) (Record, error) {
	loc := reContainer.FindStringIndex(text)
	if loc == nil {
		return Record{}, &MalformedGrammarError{Preview: preview(text, 120)}
	}
	body := text[loc[1]:]
	if end := reClose.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}
	// закрывающего тега может не быть (обрезка) — берём всё до конца

	rec := Record{}
	if s, ok := section(body, "summary"); ok {
		rec.RawSummary = unescape(s)
	}
	if s, ok := section(body, "answers"); ok {
		var answers []any
		for _, m := range reAnswer.FindAllStringSubmatch(s, -1) {
			if id := attr(m[1], "option"); id != "" {
				answers = append(answers, unescape(id))
			} else if t := strings.TrimSpace(m[2]); t != "" {
				answers = append(answers, unescape(t))
			}
		}
		rec.RawAnswer = answers
	}
	if s, ok := section(body, "analysis"); ok {
		var entries []any
		for _, m := range reOption.FindAllStringSubmatch(s, -1) {
			entries = append(entries, map[string]any{
				"option":  unescape(attr(m[1], "id")),
				"verdict": attr(m[1], "verdict"),
				"reason":  unescape(strings.TrimSpace(m[2])),
			})
		}
		rec.RawAnalysis = entries
	}
	if s, ok := section(body, "keypoints"); ok {
		var points []any
		for _, m := range rePoint.FindAllStringSubmatch(s, -1) {
			points = append(points, unescape(strings.TrimSpace(m[1])))
		}
		rec.RawKeyPoints = points
	}
	if s, ok := section(body, "mnemonics"); ok {
		var aids []any
		for _, m := range reAid.FindAllStringSubmatch(s, -1) {
			aids = append(aids, map[string]any{
				"type": attr(m[1], "type"),
				"text": unescape(strings.TrimSpace(m[2])),
			})
		}
		rec.RawMemoryAids = aids
	}
	if s, ok := section(body, "citations"); ok {
		var cits []any
		for _, m := range reCitation.FindAllStringSubmatch(s, -1) {
			cits = append(cits, map[string]any{
				"title": unescape(attr(m[1], "title")),
				"url":   unescape(attr(m[1], "url")),
				"quote": unescape(strings.TrimSpace(m[2])),
			})
		}
		rec.RawCitations = cits
	}
	if s, ok := section(body, "difficulty"); ok {
		rec.RawDifficulty = strings.TrimSpace(s)
	}
	if s, ok := section(body, "insufficient"); ok {
		rec.RawInsufficient = strings.TrimSpace(s)
	}
	return rec, nil
}

var sectionRe = map[string]*regexp.Regexp{}
var attrRe = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range []string{"summary", "answers", "analysis", "keypoints", "mnemonics", "citations", "difficulty", "insufficient"} {
		sectionRe[tag] = regexp.MustCompile(`(?is)<` + tag + `\b[^>]*>(.*?)</` + tag + `>`)
	}
	for _, name := range []string{"option", "id", "verdict", "type", "title", "url"} {
		attrRe[name] = regexp.MustCompile(name + `\s*=\s*"([^"]*)"`)
	}
}

func section(body, tag string) (string, bool) {
	m := sectionRe[tag].FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func attr(attrs, name string) string {
	m := attrRe[name].FindStringSubmatch(attrs)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// unescape декодирует пять стандартных сущностей. Одного прохода
// Replacer достаточно: "&amp;lt;" корректно превращается в "&lt;".
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

func unescape(s string) string { return entityReplacer.Replace(s) }

// --------------------------- JSON-грамматика ---------------------------

func parseJSON(text string, finish llm.Finish) (Record, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err == nil {
		return recordFromMap(m), nil
	}

	// Похоже на обрезку? Тогда чинить бессмысленно — просим заново с
	// бОльшим бюджетом.
	if finish == llm.FinishTruncated ||
		(strings.HasPrefix(text, "{") && !strings.HasSuffix(strings.TrimSpace(text), "}")) {
		return Record{}, &ParseError{Retryable: true, Msg: "json looks truncated"}
	}

	// Один ремонтный проход: экранируем сырые \n / \t / \r внутри
	// строк — частый артефакт склейки ответа.
	repaired := escapeControlChars(text)
	if err := json.Unmarshal([]byte(repaired), &m); err == nil {
		return recordFromMap(m), nil
	}
	return Record{}, &MalformedGrammarError{Preview: preview(text, 120)}
}

func recordFromMap(m map[string]any) Record {
	rec := Record{
		RawSummary:      pick(m, "summary"),
		RawAnswer:       pick(m, "answer", "answers"),
		RawAnalysis:     pick(m, "optionAnalysis", "option_analysis", "analysis"),
		RawKeyPoints:    pick(m, "keyPoints", "key_points", "keypoints"),
		RawMemoryAids:   pick(m, "memoryAids", "memory_aids", "mnemonics"),
		RawCitations:    pick(m, "citations"),
		RawDifficulty:   pick(m, "difficulty"),
		RawInsufficient: pick(m, "insufficient", "insufficiency"),
	}
	// Свободный текст — сырьё для фоллбэка, если структура неполная.
	for _, k := range []string{"explanation", "reasoning", "text"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			rec.FreeText = s
			break
		}
	}
	return rec
}

func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// escapeControlChars экранирует сырые управляющие символы внутри
// строковых литералов JSON. Другие поломки намеренно не чинит.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
