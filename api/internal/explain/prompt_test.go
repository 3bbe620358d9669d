package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptDefault(t *testing.T) {
	req := sampleRequest
	req.Category = "geo"
	req.SyllabusPath = "europe/capitals"
	req.DifficultyHint = "easy"
	req.Evidence = []Evidence{{Title: "Атлас", URL: "https://example.com/atlas", Quote: "Столица Франции — Париж."}}

	system, user := BuildPrompt(req, PromptOptions{IncludeQuestion: true, IncludeOptions: true})
	assert.Equal(t, defaultSystem, system)
	assert.Contains(t, user, "Question: "+req.QuestionTitle)
	assert.Contains(t, user, "A. Париж")
	assert.Contains(t, user, "Correct answer(s): A")
	assert.Contains(t, user, "Category: geo")
	assert.Contains(t, user, "Syllabus: europe/capitals")
	assert.Contains(t, user, "Difficulty hint: easy")
	assert.Contains(t, user, "https://example.com/atlas")
	assert.Contains(t, user, closingInstruction)
}

func TestBuildPromptIncludeFlags(t *testing.T) {
	system, user := BuildPrompt(sampleRequest, PromptOptions{})
	assert.Equal(t, defaultSystem, system)
	assert.NotContains(t, user, "Question:")
	assert.NotContains(t, user, "Options:")
	// промпт всё равно осмысленный и заканчивается грамматической инструкцией
	assert.Contains(t, user, "multiple-choice")
	assert.Contains(t, user, closingInstruction)
}

func TestBuildPromptCustomTemplate(t *testing.T) {
	opt := PromptOptions{
		CustomTemplate: "Q: {{QUESTION}}\nVariants:\n{{OPTIONS}}Right: {{ANSWERS}}\nPath: {{SYLLABUS}}",
	}
	req := sampleRequest
	req.SyllabusPath = "geo/fr"

	_, user := BuildPrompt(req, opt)
	assert.Contains(t, user, "Q: "+req.QuestionTitle)
	assert.Contains(t, user, "B. Лион")
	assert.Contains(t, user, "Right: A")
	assert.Contains(t, user, "Path: geo/fr")
	// закрывающая инструкция обязана приклеиться и к кастомному шаблону
	assert.Contains(t, user, closingInstruction)
	assert.NotContains(t, user, "Explain the following")
}

func TestBuildPromptForceDefaultDropsTemplate(t *testing.T) {
	opt := PromptOptions{
		ForceDefault:    true,
		IncludeQuestion: true,
		IncludeOptions:  true,
		CustomTemplate:  "Q: {{QUESTION}}",
	}
	_, user := BuildPrompt(sampleRequest, opt)
	require.NotContains(t, user, "Q: ")
	assert.Contains(t, user, "Explain the following")
	assert.Contains(t, user, "Options:")
}

func TestBuildPromptSystemOverride(t *testing.T) {
	system, _ := BuildPrompt(sampleRequest, PromptOptions{SystemOverride: "Ты репетитор."})
	assert.Equal(t, "Ты репетитор.", system)

	// пустой override не затирает дефолт
	system, _ = BuildPrompt(sampleRequest, PromptOptions{SystemOverride: "   "})
	assert.Equal(t, defaultSystem, system)
}
