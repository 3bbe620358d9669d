package explain

import (
	"fmt"
	"strings"
)

// PromptOptions управляют сборкой промпта. ForceDefault выставляет
// контроллер при ретраях: кастомный шаблон отбрасывается, уходит
// дефолтный промпт со строгим описанием грамматики.
type PromptOptions struct {
	ForceDefault    bool
	IncludeQuestion bool
	IncludeOptions  bool
	CustomTemplate  string
	SystemOverride  string
}

// defaultSystem — полное описание канонической грамматики ответа.
const defaultSystem = `You are an exam tutor. You explain multiple-choice exam questions.
Reply with EXACTLY ONE document in the following tag grammar and nothing else.
No markdown, no code fences, no commentary outside the outer tag.

<explanation>
  <summary>one-line summary, 20..300 characters</summary>
  <answers>
    <answer option="OPTION_ID">optional echo of the option text</answer>  <!-- one per correct option, at least 1 -->
  </answers>
  <analysis>
    <option id="OPTION_ID" verdict="CORRECT|WRONG">reason, at least 10 characters</option>  <!-- one per option, at least 2 -->
  </analysis>
  <keypoints>
    <point>key fact</point>  <!-- 1..5 points -->
  </keypoints>
  <mnemonics>
    <aid type="ACRONYM|RHYME|STORY|IMAGE|ASSOCIATION|OTHER">5..120 characters</aid>  <!-- 0..3, optional -->
  </mnemonics>
  <citations>
    <citation title="source title" url="absolute http(s) url">quote, at least 10 characters</citation>  <!-- 0..5, optional -->
  </citations>
  <difficulty>integer 1..5</difficulty>
  <insufficient>true|false</insufficient>  <!-- true when the provided material is not enough -->
</explanation>

Escape &, <, >, " and ' inside text as &amp; &lt; &gt; &quot; &#39;.`

// closingInstruction добавляется к любому кастомному шаблону, чтобы
// модель не забыла грамматику.
const closingInstruction = "\n\nReturn the result strictly in the <explanation> tag grammar described by the system message. Output nothing outside the outer tag."

// BuildPrompt собирает пару system+user. Сбоев не бывает: при любом
// наборе опций получается осмысленный промпт.
func BuildPrompt(req Request, opt PromptOptions) (system, user string) {
	system = defaultSystem
	if strings.TrimSpace(opt.SystemOverride) != "" {
		system = opt.SystemOverride
	}

	if tpl := strings.TrimSpace(opt.CustomTemplate); tpl != "" && !opt.ForceDefault {
		user = substitute(tpl, req) + closingInstruction
		return system, user
	}

	var b strings.Builder
	b.WriteString("Explain the following multiple-choice exam question.\n")
	if opt.IncludeQuestion {
		b.WriteString("\nQuestion: " + req.QuestionTitle + "\n")
	}
	if opt.IncludeOptions {
		b.WriteString("\nOptions:\n" + optionList(req) + "\n")
		b.WriteString("Correct answer(s): " + strings.Join(req.CorrectAnswers, ", ") + "\n")
	}
	if req.Category != "" {
		b.WriteString("Category: " + req.Category + "\n")
	}
	if req.SyllabusPath != "" {
		b.WriteString("Syllabus: " + req.SyllabusPath + "\n")
	}
	if req.DifficultyHint != "" {
		b.WriteString("Difficulty hint: " + req.DifficultyHint + "\n")
	}
	if len(req.Evidence) > 0 {
		b.WriteString("\nReference material:\n")
		for _, ev := range req.Evidence {
			b.WriteString(fmt.Sprintf("- %s (%s): %s\n", ev.Title, ev.URL, ev.Quote))
		}
	}
	b.WriteString(closingInstruction)
	return system, b.String()
}

func substitute(tpl string, req Request) string {
	r := strings.NewReplacer(
		"{{QUESTION}}", req.QuestionTitle,
		"{{OPTIONS}}", optionList(req),
		"{{ANSWERS}}", strings.Join(req.CorrectAnswers, ", "),
		"{{SYLLABUS}}", req.SyllabusPath,
	)
	return r.Replace(tpl)
}

func optionList(req Request) string {
	var b strings.Builder
	for _, o := range req.Options {
		b.WriteString(o.ID + ". " + o.Text + "\n")
	}
	return b.String()
}
