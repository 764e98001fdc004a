// Package policy lets operators override query routing with Rego.
//
// Policies live in package "route" and may define "intent" and "scope".
// The input document is:
//
//	{"query": "...", "intent": "KNOWLEDGE", "scope": "policy"}
//
// where intent and scope are the decision of the built-in rule table.
// An undefined or empty field keeps the built-in decision; scope "none"
// removes the retrieval filter.
package policy

import (
	"context"
	"strings"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

type regoPrintHook struct {
	ctx context.Context
}

func (h *regoPrintHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Router consults Rego policies before falling back to another router
type Router struct {
	query    *rego.PreparedEvalQuery
	fallback interfaces.Router
}

// New loads policies from policyDir. An empty directory yields a router that
// always returns the fallback decision.
func New(ctx context.Context, policyDir string, fallback interfaces.Router) (*Router, error) {
	query, err := loadPolicy(ctx, policyDir)
	if err != nil {
		return nil, err
	}

	return &Router{
		query:    query,
		fallback: fallback,
	}, nil
}

// Route implements interfaces.Router
func (r *Router) Route(ctx context.Context, query string) model.Route {
	base := r.fallback.Route(ctx, query)
	if r.query == nil {
		return base
	}

	input := map[string]any{
		"query":  query,
		"intent": string(base.Intent),
		"scope":  string(base.Scope),
	}

	logger := logging.From(ctx)
	rs, err := r.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{ctx: ctx}))
	if err != nil {
		logger.Warn("failed to evaluate route policy, using rule table", "error", err)
		return base
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return base
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return base
	}

	decided := base
	if v := getString(data, "intent"); v != "" {
		intent := model.Intent(strings.ToUpper(v))
		if err := intent.Validate(); err != nil {
			logger.Warn("route policy returned invalid intent", "error", err)
		} else {
			decided.Intent = intent
		}
	}

	if v := getString(data, "scope"); v != "" {
		scope := model.Category(strings.ToLower(v))
		if scope == "none" {
			scope = model.CategoryNone
		}
		if err := scope.Validate(); err != nil {
			logger.Warn("route policy returned invalid scope", "error", err)
		} else {
			decided.Scope = scope
		}
	}

	if decided != base {
		logger.Debug("route overridden by policy",
			"query", query,
			"intent", decided.Intent,
			"scope", decided.Scope,
		)
	}

	return decided
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
