package ask_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/route"
	"github.com/bankrag/bankrag/pkg/usecase/ask"
	"github.com/m-mizutani/gt"
)

type mockRetriever struct {
	fragments []*model.Fragment
	err       error

	calls    int
	query    string
	k        int
	scope    model.Category
	onSearch func()
}

func (m *mockRetriever) Search(ctx context.Context, query string, k int, scope model.Category) ([]*model.Fragment, error) {
	if m.onSearch != nil {
		m.onSearch()
	}
	m.calls++
	m.query = query
	m.k = k
	m.scope = scope
	return m.fragments, m.err
}

type mockGenerator struct {
	answer string
	err    error

	calls      int
	prompt     string
	onGenerate func()
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.onGenerate != nil {
		m.onGenerate()
	}
	m.calls++
	m.prompt = prompt
	return m.answer, m.err
}

type mockAuditSink struct {
	records []*model.QueryRecord
	err     error
}

func (m *mockAuditSink) PutQueryRecord(ctx context.Context, record *model.QueryRecord) error {
	m.records = append(m.records, record)
	return m.err
}

func TestHandleKnowledge(t *testing.T) {
	retriever := &mockRetriever{
		fragments: []*model.Fragment{
			{Text: "Loan approval takes five working days.", Category: model.CategoryPolicy},
			{Text: "Escalate delays to the credit desk.", Category: model.CategoryMemo},
		},
	}
	generator := &mockGenerator{answer: "Five working days."}
	uc := ask.New(route.DefaultTable(), retriever, generator)

	outcome := uc.Handle(context.Background(), "What is the turnaround time for loan approval?")

	gt.Equal(t, outcome.Kind, model.OutcomeAnswered)
	gt.Equal(t, outcome.Intent, model.IntentKnowledge)
	gt.Equal(t, outcome.Scope, model.CategoryNone)
	gt.Equal(t, outcome.Answer, "Five working days.")
	gt.Equal(t, outcome.Fragments, 2)
	gt.True(t, outcome.Failure == nil)
	gt.True(t, outcome.Elapsed >= 0)
	gt.NotEqual(t, outcome.ID, model.QueryID(""))

	gt.Equal(t, retriever.calls, 1)
	gt.Equal(t, retriever.k, ask.DefaultK)
	gt.Equal(t, retriever.scope, model.CategoryNone)

	gt.Equal(t, generator.calls, 1)
	gt.S(t, generator.prompt).Contains("Loan approval takes five working days.\n\nEscalate delays to the credit desk.")
	gt.S(t, generator.prompt).Contains("Question: What is the turnaround time for loan approval?")
	gt.S(t, generator.prompt).Contains(ask.RefusalSentence)
}

func TestHandleScopeIsPassedToRetriever(t *testing.T) {
	retriever := &mockRetriever{}
	generator := &mockGenerator{answer: ask.RefusalSentence}
	uc := ask.New(route.DefaultTable(), retriever, generator, ask.WithK(3))

	outcome := uc.Handle(context.Background(), "CBN compliance rules")

	gt.Equal(t, outcome.Kind, model.OutcomeAnswered)
	gt.Equal(t, outcome.Scope, model.CategoryRegulation)
	gt.Equal(t, retriever.scope, model.CategoryRegulation)
	gt.Equal(t, retriever.k, 3)
	gt.Equal(t, outcome.Fragments, 0)
	// empty context still reaches the generator
	gt.S(t, generator.prompt).Contains("Context:\n\n\nQuestion:")
}

func TestHandleAction(t *testing.T) {
	retriever := &mockRetriever{}
	generator := &mockGenerator{}
	uc := ask.New(route.DefaultTable(), retriever, generator)

	outcome := uc.Handle(context.Background(), "send a birthday wish to customer")

	gt.Equal(t, outcome.Kind, model.OutcomeDeclined)
	gt.Equal(t, outcome.Intent, model.IntentAction)
	gt.Equal(t, outcome.Answer, ask.ActionDisabledMessage)
	gt.Equal(t, retriever.calls, 0)
	gt.Equal(t, generator.calls, 0)
}

func TestHandleData(t *testing.T) {
	retriever := &mockRetriever{}
	generator := &mockGenerator{}
	uc := ask.New(route.DefaultTable(), retriever, generator)

	outcome := uc.Handle(context.Background(), "show me account 0123456789 balance")

	gt.Equal(t, outcome.Kind, model.OutcomeDeclined)
	gt.Equal(t, outcome.Intent, model.IntentData)
	gt.S(t, outcome.Answer).Contains("core banking")
	gt.Equal(t, retriever.calls, 0)
	gt.Equal(t, generator.calls, 0)
}

func TestHandleRetrievalFailure(t *testing.T) {
	retriever := &mockRetriever{err: errors.New("index unavailable")}
	generator := &mockGenerator{}
	uc := ask.New(route.DefaultTable(), retriever, generator)

	outcome := uc.Handle(context.Background(), "What is the loan policy?")

	gt.True(t, outcome.Failed())
	gt.V(t, outcome.Failure).NotNil()
	gt.Equal(t, outcome.Failure.Reason, model.FailureRetrieval)
	gt.S(t, outcome.Text()).Contains("index unavailable")
	gt.Equal(t, generator.calls, 0)

	// the use case keeps working after a failure
	retriever.err = nil
	generator.answer = "ok"
	next := uc.Handle(context.Background(), "What is the loan policy?")
	gt.Equal(t, next.Kind, model.OutcomeAnswered)
}

func TestHandleGenerationFailure(t *testing.T) {
	retriever := &mockRetriever{fragments: []*model.Fragment{{Text: "ctx"}}}
	generator := &mockGenerator{err: errors.New("model unreachable")}
	uc := ask.New(route.DefaultTable(), retriever, generator)

	outcome := uc.Handle(context.Background(), "What is the loan policy?")

	gt.True(t, outcome.Failed())
	gt.Equal(t, outcome.Failure.Reason, model.FailureGeneration)
	gt.S(t, outcome.Text()).Contains("model unreachable")
	gt.Equal(t, outcome.Answer, "")
}

func TestHandleNotInitialized(t *testing.T) {
	var uc *ask.UseCase

	outcome := uc.Handle(context.Background(), "What is the loan policy?")
	gt.True(t, outcome.Failed())
	gt.Equal(t, outcome.Failure.Reason, model.FailureNotInitialized)
	gt.True(t, errors.Is(outcome.Failure, ask.ErrNotInitialized))
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestHandleElapsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	retriever := &mockRetriever{
		fragments: []*model.Fragment{{Text: "ctx"}},
		onSearch:  func() { clock.Advance(10 * time.Second) },
	}
	generator := &mockGenerator{
		answer:     "a",
		onGenerate: func() { clock.Advance(1250 * time.Millisecond) },
	}

	uc := ask.New(route.DefaultTable(), retriever, generator, ask.WithClock(clock.Now))
	outcome := uc.Handle(context.Background(), "What are the month-end procedures?")

	// only the generator call is measured
	gt.Equal(t, outcome.Elapsed, 1250*time.Millisecond)
}

func TestHandleElapsedOnGenerationFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	retriever := &mockRetriever{onSearch: func() { clock.Advance(3 * time.Second) }}
	generator := &mockGenerator{
		err:        errors.New("model unreachable"),
		onGenerate: func() { clock.Advance(500 * time.Millisecond) },
	}

	uc := ask.New(route.DefaultTable(), retriever, generator, ask.WithClock(clock.Now))
	outcome := uc.Handle(context.Background(), "What is the loan policy?")

	gt.True(t, outcome.Failed())
	gt.Equal(t, outcome.Elapsed, 500*time.Millisecond)
}

func TestHandleElapsedWithoutGeneration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	retriever := &mockRetriever{
		err:      errors.New("index unavailable"),
		onSearch: func() { clock.Advance(2 * time.Second) },
	}

	uc := ask.New(route.DefaultTable(), retriever, &mockGenerator{}, ask.WithClock(clock.Now))
	outcome := uc.Handle(context.Background(), "What is the loan policy?")

	gt.Equal(t, outcome.Failure.Reason, model.FailureRetrieval)
	gt.Equal(t, outcome.Elapsed, time.Duration(0))
}

func TestHandleAudit(t *testing.T) {
	sink := &mockAuditSink{err: errors.New("table not found")}
	uc := ask.New(route.DefaultTable(), &mockRetriever{}, &mockGenerator{answer: "a"}, ask.WithAuditSink(sink))

	first := uc.Handle(context.Background(), "What is the loan policy?")
	second := uc.Handle(context.Background(), "notify the branch")

	// sink errors do not change the outcome
	gt.Equal(t, first.Kind, model.OutcomeAnswered)
	gt.Equal(t, second.Kind, model.OutcomeDeclined)

	gt.A(t, sink.records).Length(2)
	gt.Equal(t, sink.records[0].ID, string(first.ID))
	gt.Equal(t, sink.records[0].Scope, "policy")
	gt.Equal(t, sink.records[1].Intent, "ACTION")
	gt.Equal(t, sink.records[1].Kind, "declined")
}

func TestWithSystemPrompt(t *testing.T) {
	generator := &mockGenerator{answer: "a"}
	uc := ask.New(route.DefaultTable(), &mockRetriever{}, generator, ask.WithSystemPrompt("Be brief."))

	uc.Handle(context.Background(), "What is the loan policy?")
	gt.S(t, generator.prompt).Contains("Be brief.\n\nContext:")
	gt.S(t, generator.prompt).NotContains(ask.RefusalSentence)
}
