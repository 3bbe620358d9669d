package explain

import (
	"errors"
	"fmt"
	"strings"
)

// Терминальные ошибки пайплайна. Наружу уходит либо валидный
// Explanation, либо одна из них (или *llm.TransportError как есть).
var (
	ErrEmptyReply = errors.New("explain: empty reply, retries exhausted")
	ErrTruncated  = errors.New("explain: reply still truncated, retries exhausted")
)

// ParseError — ошибка разбора ответа. Retryable=true означает, что
// сбой похож на артефакт обрезки и имеет смысл повторить запрос с
// увеличенным бюджетом токенов.
type ParseError struct {
	Retryable bool
	Msg       string
}

func (e *ParseError) Error() string {
	if e.Retryable {
		return "explain: retryable parse failure: " + e.Msg
	}
	return "explain: malformed reply: " + e.Msg
}

// MalformedGrammarError — ответ не удалось разобрать ни одной из двух
// грамматик, и это не похоже на обрезку. Не ретраится.
type MalformedGrammarError struct {
	Preview string
}

func (e *MalformedGrammarError) Error() string {
	return "explain: reply matches neither grammar: " + e.Preview
}

// ValidationError — список нарушенных инвариантов схемы. Наружу не
// уходит: запись с такой ошибкой досинтезируется.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "explain: invalid record: " + e.Violations[0]
	}
	return fmt.Sprintf("explain: invalid record: %s (+%d more)", e.Violations[0], len(e.Violations)-1)
}

// SynthesisAssertionError — выход синтезатора сам не прошёл валидацию.
// В проде случаться не должно; ловится юнит-тестами.
type SynthesisAssertionError struct {
	Violations []string
}

func (e *SynthesisAssertionError) Error() string {
	return "explain: synthesized record failed validation: " + strings.Join(e.Violations, "; ")
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
