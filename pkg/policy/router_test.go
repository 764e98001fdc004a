package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/policy"
	"github.com/bankrag/bankrag/pkg/route"
	"github.com/m-mizutani/gt"
)

func writePolicy(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "route.rego"), []byte(src), 0644))
	return dir
}

func TestRouterWithoutPolicy(t *testing.T) {
	ctx := context.Background()
	r, err := policy.New(ctx, t.TempDir(), route.DefaultTable())
	gt.NoError(t, err)

	got := r.Route(ctx, "send balance policy update")
	gt.Equal(t, got.Intent, model.IntentAction)
	gt.Equal(t, got.Scope, model.CategoryPolicy)
}

func TestRouterOverride(t *testing.T) {
	ctx := context.Background()
	dir := writePolicy(t, `package route

intent := "KNOWLEDGE" if {
	contains(lower(input.query), "account opening")
}

scope = "policy" if {
	contains(lower(input.query), "account opening")
}

scope = "none" if {
	input.scope == "memo"
	contains(lower(input.query), "all documents")
}
`)

	r, err := policy.New(ctx, dir, route.DefaultTable())
	gt.NoError(t, err)

	t.Run("policy turns a data query into knowledge", func(t *testing.T) {
		got := r.Route(ctx, "What documents are needed for account opening?")
		gt.Equal(t, got.Intent, model.IntentKnowledge)
		gt.Equal(t, got.Scope, model.CategoryPolicy)
	})

	t.Run("policy removes filter", func(t *testing.T) {
		got := r.Route(ctx, "search all documents for the memo on fraud")
		gt.Equal(t, got.Intent, model.IntentKnowledge)
		gt.Equal(t, got.Scope, model.CategoryNone)
	})

	t.Run("no rule fired keeps rule table decision", func(t *testing.T) {
		got := r.Route(ctx, "show account balance")
		gt.Equal(t, got.Intent, model.IntentData)
		gt.Equal(t, got.Scope, model.CategoryNone)
	})
}

func TestRouterInvalidDecisionIgnored(t *testing.T) {
	ctx := context.Background()
	dir := writePolicy(t, `package route

intent := "SMALLTALK"
scope := "customer_data"
`)

	r, err := policy.New(ctx, dir, route.DefaultTable())
	gt.NoError(t, err)

	got := r.Route(ctx, "What is the loan policy?")
	gt.Equal(t, got.Intent, model.IntentKnowledge)
	gt.Equal(t, got.Scope, model.CategoryPolicy)
}

func TestRouterBrokenPolicy(t *testing.T) {
	dir := writePolicy(t, `package route

intent := 
`)
	_, err := policy.New(context.Background(), dir, route.DefaultTable())
	gt.Error(t, err)
}
