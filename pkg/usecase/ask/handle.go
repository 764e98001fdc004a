package ask

import (
	"context"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Handle runs one query through routing, retrieval and generation. It never
// returns nil and never panics on collaborator errors; failures are reported
// in the Outcome. A nil UseCase reports FailureNotInitialized.
func (u *UseCase) Handle(ctx context.Context, query string) *model.Outcome {
	outcome := &model.Outcome{
		ID:    model.NewQueryID(),
		Query: query,
	}

	if u == nil {
		outcome.Kind = model.OutcomeFailed
		outcome.Failure = &model.Failure{Reason: model.FailureNotInitialized, Err: ErrNotInitialized}
		return outcome
	}

	ctx = logging.WithAttrs(ctx, "query_id", outcome.ID)
	logger := logging.From(ctx)

	u.handle(ctx, outcome)
	handledAt := u.now()

	logger.Info("query handled",
		"intent", outcome.Intent,
		"scope", outcome.Scope,
		"kind", outcome.Kind,
		"fragments", outcome.Fragments,
		"elapsed", outcome.Elapsed,
	)

	if u.audit != nil {
		if err := u.audit.PutQueryRecord(ctx, model.NewQueryRecord(outcome, handledAt)); err != nil {
			logger.Warn("failed to record query", "error", err)
		}
	}

	return outcome
}

func (u *UseCase) handle(ctx context.Context, outcome *model.Outcome) {
	r := u.router.Route(ctx, outcome.Query)
	outcome.Intent = r.Intent

	switch r.Intent {
	case model.IntentAction:
		outcome.Kind = model.OutcomeDeclined
		outcome.Answer = ActionDisabledMessage
		return
	case model.IntentData:
		outcome.Kind = model.OutcomeDeclined
		outcome.Answer = DataNotConnectedMessage
		return
	}

	outcome.Scope = r.Scope
	logger := logging.From(ctx)

	fragments, err := u.retriever.Search(ctx, outcome.Query, u.k, r.Scope)
	if err != nil {
		logger.Error("retrieval failed", "error", err)
		outcome.Kind = model.OutcomeFailed
		outcome.Failure = &model.Failure{
			Reason: model.FailureRetrieval,
			Err:    goerr.Wrap(err, "failed to retrieve context"),
		}
		return
	}
	outcome.Fragments = len(fragments)

	prompt := BuildPrompt(u.systemPrompt, AssembleContext(fragments), outcome.Query)
	logger.Debug("prompt built", "length", len(prompt))

	start := u.now()
	answer, err := u.generator.Generate(ctx, prompt)
	if outcome.Elapsed = u.now().Sub(start); outcome.Elapsed < 0 {
		outcome.Elapsed = 0
	}
	if err != nil {
		logger.Error("generation failed", "error", err)
		outcome.Kind = model.OutcomeFailed
		outcome.Failure = &model.Failure{
			Reason: model.FailureGeneration,
			Err:    goerr.Wrap(err, "failed to generate answer"),
		}
		return
	}

	outcome.Kind = model.OutcomeAnswered
	outcome.Answer = answer
}
