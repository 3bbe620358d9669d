package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-coach/api/internal/llm"
)

const tagReply = `<explanation>
  <summary>Париж — столица Франции с 987 года.</summary>
  <answers>
    <answer option="A">Париж</answer>
  </answers>
  <analysis>
    <option id="A" verdict="CORRECT">Париж является столицей Франции.</option>
    <option id="B" verdict="WRONG">Лион никогда не был столицей страны.</option>
  </analysis>
  <keypoints>
    <point>Столица Франции — Париж.</point>
  </keypoints>
  <difficulty>2</difficulty>
  <insufficient>false</insufficient>
</explanation>`

func TestParseTagGrammar(t *testing.T) {
	rec, err := Parse(tagReply, llm.FinishComplete)
	require.NoError(t, err)

	rec = Normalize(rec)
	assert.Equal(t, []string{"A"}, rec.Answer)
	assert.Equal(t, "Париж — столица Франции с 987 года.", rec.Summary)
	require.Len(t, rec.Analysis, 2)
	assert.Equal(t, VerdictCorrect, rec.Analysis[0].Verdict)
	assert.Equal(t, VerdictWrong, rec.Analysis[1].Verdict)
	assert.Equal(t, []string{"Столица Франции — Париж."}, rec.KeyPoints)
	require.NotNil(t, rec.Difficulty)
	assert.Equal(t, 2.0, *rec.Difficulty)
	assert.False(t, rec.Insufficient)

	exp, verr := Validate(rec)
	require.Nil(t, verr)
	assert.Equal(t, []string{"A"}, exp.Answer)
	assert.Equal(t, 2, exp.Difficulty)
}

func TestParseTagGrammarEntities(t *testing.T) {
	reply := `<explanation><summary>Оператор &lt;= сравнивает значения, а &amp;&amp; — логическое И.</summary></explanation>`
	rec, err := Parse(reply, llm.FinishComplete)
	require.NoError(t, err)
	assert.Equal(t, "Оператор <= сравнивает значения, а && — логическое И.", rec.RawSummary)
}

func TestParseTagGrammarMissingContainer(t *testing.T) {
	_, err := Parse("<summary>нет контейнера</summary>", llm.FinishComplete)
	var merr *MalformedGrammarError
	require.ErrorAs(t, err, &merr)
}

func TestParseTagGrammarUnclosedContainer(t *testing.T) {
	// обрезанный хвост: закрывающего </explanation> нет, но секции,
	// успевшие закрыться, достаём
	reply := `<explanation><summary>Достаточно длинная сводка для проверки.</summary><answers><answer option="B">x</answer></answers>`
	rec, err := Parse(reply, llm.FinishComplete)
	require.NoError(t, err)
	rec = Normalize(rec)
	assert.Equal(t, []string{"B"}, rec.Answer)
}

func TestParseJSONDirect(t *testing.T) {
	reply := `{"summary":"s","answer":["A","B"],"difficulty":4}`
	rec, err := Parse(reply, llm.FinishComplete)
	require.NoError(t, err)
	rec = Normalize(rec)
	assert.Equal(t, []string{"A", "B"}, rec.Answer)
	require.NotNil(t, rec.Difficulty)
	assert.Equal(t, 4.0, *rec.Difficulty)
}

func TestParseJSONCodeFences(t *testing.T) {
	reply := "```json\n{\"summary\":\"в фенсах\"}\n```"
	rec, err := Parse(reply, llm.FinishComplete)
	require.NoError(t, err)
	assert.Equal(t, "в фенсах", rec.RawSummary)
}

func TestParseJSONRepairControlChars(t *testing.T) {
	// сырой перевод строки внутри строкового литерала
	reply := "{\"summary\":\"первая строка\nвторая строка\"}"
	rec, err := Parse(reply, llm.FinishComplete)
	require.NoError(t, err)
	assert.Equal(t, "первая строка\nвторая строка", rec.RawSummary)
}

func TestParseJSONRetryableWhenTruncatedFinish(t *testing.T) {
	_, err := Parse(`{"summary":"обор`, llm.FinishTruncated)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestParseJSONRetryableWhenNoClosingBrace(t *testing.T) {
	_, err := Parse(`{"summary":"обрыв без скобки"`, llm.FinishComplete)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestParseProseIsTerminal(t *testing.T) {
	_, err := Parse("I think it's A because the capital of France is Paris.", llm.FinishComplete)
	var merr *MalformedGrammarError
	require.ErrorAs(t, err, &merr)
}

func TestParseDetectionIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		_, err1 := Parse(tagReply, llm.FinishComplete)
		require.NoError(t, err1)
		_, err2 := Parse(`{"summary":"json"}`, llm.FinishComplete)
		require.NoError(t, err2)
	}
}

func TestEscapeControlCharsOutsideStringsUntouched(t *testing.T) {
	in := "{\n\t\"a\": \"b\"\n}"
	assert.Equal(t, in, escapeControlChars(in))
}
