package explain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRequest = Request{
	QuestionTitle: "Какой город — столица Франции?",
	Options: []Option{
		{ID: "A", Text: "Париж"},
		{ID: "B", Text: "Лион"},
		{ID: "C", Text: "Марсель"},
	},
	CorrectAnswers: []string{"A"},
}

// Синтез тотален: на любом вырожденном входе выход обязан проходить
// валидацию. Несоблюдение — баг синтезатора, а не данных.
func TestSynthesizeAlwaysValid(t *testing.T) {
	seven := 7.0
	records := []Record{
		{},
		Normalize(Record{}),
		Normalize(Record{RawSummary: "коротко"}),
		Normalize(Record{FreeText: "Прозаический ответ модели без структуры. Вторая фраза. Третья фраза. Четвёртая."}),
		Normalize(Record{RawAnswer: []any{"B"}, RawDifficulty: "11"}),
		{Difficulty: &seven},
		Normalize(Record{RawSummary: strings.Repeat("о", 400)}),
	}
	requests := []Request{
		sampleRequest,
		{},
		{Options: []Option{{ID: "X", Text: "единственный"}}},
		{Options: []Option{{ID: " ", Text: ""}, {ID: "B", Text: "второй"}}},
		{CorrectAnswers: []string{"  "}},
	}
	for _, rec := range records {
		for _, req := range requests {
			out := Synthesize(rec, req)
			assert.Empty(t, violations(out), "record %+v request %+v", rec, req)
		}
	}
}

func TestSynthesizeUsesSummaryWhenLongEnough(t *testing.T) {
	rec := Normalize(Record{RawSummary: "Сводка достаточной длины для прямого использования."})
	out := Synthesize(rec, sampleRequest)
	assert.Equal(t, "Сводка достаточной длины для прямого использования.", out.Summary)
	assert.False(t, out.Insufficiency)
}

func TestSynthesizeMinesFirstSentence(t *testing.T) {
	rec := Normalize(Record{})
	rec.FreeText = "Париж является столицей Франции с десятого века. Лион — лишь третий по величине город."
	out := Synthesize(rec, sampleRequest)
	assert.Equal(t, "Париж является столицей Франции с десятого века.", out.Summary)
	assert.False(t, out.Insufficiency)
	// первые предложения уходят и в keyPoints
	require.NotEmpty(t, out.KeyPoints)
	assert.Equal(t, "Париж является столицей Франции с десятого века.", out.KeyPoints[0])
}

func TestSynthesizeGenericSummarySetsInsufficiency(t *testing.T) {
	out := Synthesize(Normalize(Record{}), sampleRequest)
	assert.True(t, out.Insufficiency)
	assert.Contains(t, out.Summary, "A")
	assert.GreaterOrEqual(t, utf8.RuneCountInString(out.Summary), 20)
}

func TestSynthesizeAnswerFallbackChain(t *testing.T) {
	// нормализованный ответ побеждает
	rec := Normalize(Record{RawAnswer: []any{"B"}})
	assert.Equal(t, []string{"B"}, Synthesize(rec, sampleRequest).Answer)

	// иначе ключ из запроса
	assert.Equal(t, []string{"A"}, Synthesize(Normalize(Record{}), sampleRequest).Answer)

	// иначе первый вариант
	req := Request{Options: []Option{{ID: "X"}, {ID: "Y"}}}
	assert.Equal(t, []string{"X"}, Synthesize(Normalize(Record{}), req).Answer)

	// совсем пустой запрос — ответ всё равно непустой
	assert.NotEmpty(t, Synthesize(Normalize(Record{}), Request{}).Answer)
}

func TestSynthesizeAnalysisPerOption(t *testing.T) {
	out := Synthesize(Normalize(Record{}), sampleRequest)
	require.Len(t, out.Analysis, 3)
	byOpt := map[string]Verdict{}
	for _, a := range out.Analysis {
		byOpt[a.Option] = a.Verdict
		assert.GreaterOrEqual(t, utf8.RuneCountInString(a.Reason), 10)
	}
	assert.Equal(t, VerdictCorrect, byOpt["A"])
	assert.Equal(t, VerdictWrong, byOpt["B"])
	assert.Equal(t, VerdictWrong, byOpt["C"])
}

func TestSynthesizePadsToTwoEntries(t *testing.T) {
	req := Request{Options: []Option{{ID: "A", Text: "один"}}, CorrectAnswers: []string{"A"}}
	out := Synthesize(Normalize(Record{}), req)
	require.GreaterOrEqual(t, len(out.Analysis), 2)
	assert.Equal(t, "N/A", out.Analysis[1].Option)
}

func TestSynthesizeDropsAidsAndCitations(t *testing.T) {
	rec := Normalize(Record{
		RawMemoryAids: []any{map[string]any{"type": "RHYME", "text": "рифма для памяти"}},
		RawCitations:  []any{map[string]any{"title": "t", "url": "https://example.com", "quote": "длинная цитата из книги"}},
	})
	out := Synthesize(rec, sampleRequest)
	assert.Empty(t, out.MemoryAids)
	assert.Empty(t, out.Citations)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Первое предложение. Второе! Третье? Хвост без точки")
	assert.Equal(t, []string{"Первое предложение.", "Второе!", "Третье?", "Хвост без точки"}, got)
	assert.Nil(t, splitSentences("   "))
}
