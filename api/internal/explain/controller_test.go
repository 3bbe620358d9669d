package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-coach/api/internal/llm"
)

type call struct {
	system    string
	user      string
	maxTokens int
}

// fakeEngine отдаёт заранее заготовленные ответы по очереди.
type fakeEngine struct {
	t       *testing.T
	replies []llm.Reply
	errs    []error
	calls   []call
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "fake-1" }

func (f *fakeEngine) Complete(_ context.Context, system, user string, maxTokens int) (llm.Reply, error) {
	i := len(f.calls)
	f.calls = append(f.calls, call{system: system, user: user, maxTokens: maxTokens})
	if i < len(f.errs) && f.errs[i] != nil {
		return llm.Reply{}, f.errs[i]
	}
	require.Less(f.t, i, len(f.replies), "unexpected extra transport call")
	return f.replies[i], nil
}

func newExplainer(f *fakeEngine) *Explainer {
	cfg := DefaultConfig()
	cfg.TokenBudget = 1000
	cfg.TokenStep = 500
	cfg.TokenCeiling = 1800
	return &Explainer{Engine: f, Config: cfg}
}

func TestExplainSuccessFirstAttempt(t *testing.T) {
	f := &fakeEngine{t: t, replies: []llm.Reply{{Text: tagReply, FinishReason: llm.FinishComplete}}}
	exp, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, exp.Answer)
	assert.Len(t, f.calls, 1)
	assert.Equal(t, 1000, f.calls[0].maxTokens)
}

func TestExplainTruncatedEscalatesBudget(t *testing.T) {
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{Text: "<explanation><summary>обры", FinishReason: llm.FinishTruncated},
		{Text: tagReply, FinishReason: llm.FinishComplete},
	}}
	ex := newExplainer(f)
	ex.Config.CustomTemplate = "{{QUESTION}}"

	_, err := ex.Explain(context.Background(), sampleRequest)
	require.NoError(t, err)
	require.Len(t, f.calls, 2)
	// ровно один шаг эскалации
	assert.Equal(t, 1000, f.calls[0].maxTokens)
	assert.Equal(t, 1500, f.calls[1].maxTokens)
	// первый запрос шёл по кастомному шаблону, ретрай — по дефолтному
	assert.Equal(t, sampleRequest.QuestionTitle+closingInstruction, f.calls[0].user)
	assert.Contains(t, f.calls[1].user, "Options:")
}

func TestExplainBudgetMonotonicAndCapped(t *testing.T) {
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{Text: "x", FinishReason: llm.FinishTruncated},
		{Text: "x", FinishReason: llm.FinishTruncated},
		{Text: "x", FinishReason: llm.FinishTruncated},
	}}
	_, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.ErrorIs(t, err, ErrTruncated)
	require.Len(t, f.calls, 3)
	prev := 0
	for _, c := range f.calls {
		assert.GreaterOrEqual(t, c.maxTokens, prev)
		assert.LessOrEqual(t, c.maxTokens, 1800)
		prev = c.maxTokens
	}
	assert.Equal(t, []int{1000, 1500, 1800}, []int{f.calls[0].maxTokens, f.calls[1].maxTokens, f.calls[2].maxTokens})
}

func TestExplainEmptyReplyExhaustsRetries(t *testing.T) {
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{FinishReason: llm.FinishEmpty},
		{Text: "   ", FinishReason: llm.FinishComplete},
		{FinishReason: llm.FinishEmpty},
	}}
	_, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.ErrorIs(t, err, ErrEmptyReply)
	assert.Len(t, f.calls, 3)
}

func TestExplainTransportErrorNotRetried(t *testing.T) {
	f := &fakeEngine{t: t, errs: []error{llm.NewTransportError(503, "upstream down")}}
	_, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.Error(t, err)
	var terr *llm.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "provider", terr.Category)
	assert.Len(t, f.calls, 1)
}

func TestExplainProseIsTerminalMalformed(t *testing.T) {
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{Text: "I think it's A because Paris is the capital.", FinishReason: llm.FinishComplete},
	}}
	_, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	var merr *MalformedGrammarError
	require.ErrorAs(t, err, &merr)
	assert.Len(t, f.calls, 1)
}

func TestExplainRetryableParseEscalates(t *testing.T) {
	// finish=complete, но JSON обрезан — без закрывающей скобки
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{Text: `{"summary":"оборвало на полусло`, FinishReason: llm.FinishComplete},
		{Text: tagReply, FinishReason: llm.FinishComplete},
	}}
	_, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.NoError(t, err)
	require.Len(t, f.calls, 2)
	assert.Equal(t, 1500, f.calls[1].maxTokens)
}

func TestExplainValidationFailureSynthesizesNotRetries(t *testing.T) {
	// корректный JSON, но разбор пустой и keyPoints нет
	f := &fakeEngine{t: t, replies: []llm.Reply{
		{Text: `{"answer":["A"],"optionAnalysis":[]}`, FinishReason: llm.FinishComplete},
	}}
	exp, err := newExplainer(f).Explain(context.Background(), sampleRequest)
	require.NoError(t, err)
	assert.Len(t, f.calls, 1, "salvage, not re-request")
	assert.Equal(t, []string{"A"}, exp.Answer)
	assert.GreaterOrEqual(t, len(exp.Analysis), 2)
	assert.NotEmpty(t, exp.KeyPoints)
	assert.True(t, exp.Insufficiency)
	assert.Empty(t, violations(exp))
}
