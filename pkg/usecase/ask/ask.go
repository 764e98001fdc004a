package ask

import (
	"time"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

var ErrNotInitialized = goerr.New("assistant is not initialized")

const (
	// DefaultK is the number of fragments retrieved per query
	DefaultK = 5

	// ActionDisabledMessage answers ACTION queries
	ActionDisabledMessage = "Action tools are not enabled yet. I can answer questions about bank policies, regulations and internal memos, but I cannot send messages or perform actions."

	// DataNotConnectedMessage answers DATA queries
	DataNotConnectedMessage = "Live data access is not connected. To look up accounts, customers or transactions, connect the assistant to the core banking system. I can answer questions about bank policies, regulations and internal memos."
)

// UseCase answers questions grounded in the document index
type UseCase struct {
	router    interfaces.Router
	retriever Retriever
	generator interfaces.Generator
	audit     interfaces.AuditSink

	k            int
	systemPrompt string
	now          func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithK sets the number of fragments retrieved per query
func WithK(k int) Option {
	return func(uc *UseCase) {
		if k > 0 {
			uc.k = k
		}
	}
}

// WithSystemPrompt replaces the grounding instruction
func WithSystemPrompt(prompt string) Option {
	return func(uc *UseCase) {
		uc.systemPrompt = prompt
	}
}

// WithAuditSink records every handled query
func WithAuditSink(sink interfaces.AuditSink) Option {
	return func(uc *UseCase) {
		uc.audit = sink
	}
}

// WithClock overrides the wall clock used to time the generator call
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new ask UseCase instance
func New(
	router interfaces.Router,
	retriever Retriever,
	generator interfaces.Generator,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		router:       router,
		retriever:    retriever,
		generator:    generator,
		k:            DefaultK,
		systemPrompt: DefaultSystemPrompt,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
