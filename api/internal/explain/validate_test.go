package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	d := 3.0
	return Record{
		Summary: "Достаточно длинная сводка для схемы.",
		Answer:  []string{"A"},
		Analysis: []OptionAnalysis{
			{Option: "A", Verdict: VerdictCorrect, Reason: "подходящая причина"},
			{Option: "B", Verdict: VerdictWrong, Reason: "подходящая причина"},
		},
		KeyPoints:  []string{"пункт"},
		Difficulty: &d,
	}
}

func TestValidateHappyPath(t *testing.T) {
	exp, verr := Validate(validRecord())
	require.Nil(t, verr)
	assert.Equal(t, 3, exp.Difficulty)
	assert.False(t, exp.Insufficiency)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	rec := validRecord()
	rec.Summary = "коротко"
	rec.Answer = nil
	rec.KeyPoints = []string{}
	_, verr := Validate(rec)
	require.NotNil(t, verr)
	assert.GreaterOrEqual(t, len(verr.Violations), 3)
}

func TestValidateAnalysisConstraints(t *testing.T) {
	rec := validRecord()
	rec.Analysis = []OptionAnalysis{{Option: "A", Verdict: "MAYBE", Reason: "мало"}}
	_, verr := Validate(rec)
	require.NotNil(t, verr)
	joined := strings.Join(verr.Violations, "\n")
	assert.Contains(t, joined, "verdict")
	assert.Contains(t, joined, "reason too short")
	assert.Contains(t, joined, "want >=2")
}

func TestValidateDifficultyClampAndDefault(t *testing.T) {
	rec := validRecord()
	rec.Difficulty = nil
	exp, verr := Validate(rec)
	require.Nil(t, verr)
	assert.Equal(t, 3, exp.Difficulty)

	nine := 9.0
	rec.Difficulty = &nine
	exp, verr = Validate(rec)
	require.Nil(t, verr)
	assert.Equal(t, 5, exp.Difficulty)

	zero := 0.0
	rec.Difficulty = &zero
	exp, verr = Validate(rec)
	require.Nil(t, verr)
	assert.Equal(t, 1, exp.Difficulty)
}

func TestValidateMemoryAidBounds(t *testing.T) {
	rec := validRecord()
	rec.MemoryAids = []MemoryAid{
		{Type: AidOther, Text: "ок, достаточно"},
		{Type: "WEIRD", Text: "ок, достаточно"},
		{Type: AidRhyme, Text: "к"},
	}
	_, verr := Validate(rec)
	require.NotNil(t, verr)
	joined := strings.Join(verr.Violations, "\n")
	assert.Contains(t, joined, `type "WEIRD"`)
	assert.Contains(t, joined, "text length 1")
}

func TestValidateSummaryBounds(t *testing.T) {
	rec := validRecord()
	rec.Summary = strings.Repeat("ы", 301)
	_, verr := Validate(rec)
	require.NotNil(t, verr)

	rec.Summary = strings.Repeat("ы", 300)
	_, verr = Validate(rec)
	require.Nil(t, verr)
}
