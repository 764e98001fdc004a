package route

import (
	"context"
	"os"
	"strings"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// IntentRule maps any of its keywords to an intent
type IntentRule struct {
	Intent   model.Intent `yaml:"intent"`
	Keywords []string     `yaml:"keywords"`
}

// ScopeRule maps any of its keywords to a category
type ScopeRule struct {
	Category model.Category `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
}

// Table is an ordered set of keyword rules. Rules are evaluated in order and
// the first rule with a keyword contained in the lower-cased query wins.
type Table struct {
	Intents []IntentRule `yaml:"intents"`
	Scopes  []ScopeRule  `yaml:"scopes"`
}

// DefaultTable returns the built-in rules. ACTION is checked before DATA and
// DATA before KNOWLEDGE.
func DefaultTable() *Table {
	return &Table{
		Intents: []IntentRule{
			{
				Intent: model.IntentAction,
				Keywords: []string{
					"send", "generate message", "compose", "write message",
					"birthday wish", "email customer", "notify",
				},
			},
			{
				Intent: model.IntentData,
				Keywords: []string{
					"balance", "account", "customer", "transaction", "opened",
					"last debit", "last credit", "bvn", "phone number", "email",
					"turnover", "branch", "show", "list", "find", "get", "retrieve",
				},
			},
			{
				Intent: model.IntentKnowledge,
				Keywords: []string{
					"policy", "procedure", "guideline", "requirement", "how to",
					"steps", "process", "rule", "regulation", "cbn", "compliance",
					"kyc", "aml", "memo", "circular",
				},
			},
		},
		Scopes: []ScopeRule{
			{Category: model.CategoryPolicy, Keywords: []string{"policy", "procedure", "guideline"}},
			{Category: model.CategoryRegulation, Keywords: []string{"regulation", "cbn", "compliance"}},
			{Category: model.CategoryMemo, Keywords: []string{"memo", "circular", "announcement"}},
		},
	}
}

// LoadTable reads a rule table from a YAML file and validates it
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rule file", goerr.V("path", path))
	}

	var table Table
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, goerr.Wrap(err, "failed to parse rule file", goerr.V("path", path))
	}

	if err := table.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid rule file", goerr.V("path", path))
	}

	return &table, nil
}

// Validate checks every rule carries a known label and at least one keyword
func (t *Table) Validate() error {
	for i, r := range t.Intents {
		if err := r.Intent.Validate(); err != nil {
			return goerr.Wrap(err, "invalid intent rule", goerr.V("index", i))
		}
		if len(r.Keywords) == 0 {
			return goerr.New("intent rule has no keywords", goerr.V("index", i), goerr.V("intent", r.Intent))
		}
	}
	for i, r := range t.Scopes {
		if err := r.Category.Validate(); err != nil || !r.Category.IsSet() {
			return goerr.Wrap(model.ErrInvalidCategory, "invalid scope rule", goerr.V("index", i), goerr.V("category", r.Category))
		}
		if len(r.Keywords) == 0 {
			return goerr.New("scope rule has no keywords", goerr.V("index", i), goerr.V("category", r.Category))
		}
	}
	return nil
}

// Classify returns the intent of the first matching rule, or KNOWLEDGE when nothing matches
func (t *Table) Classify(query string) model.Intent {
	q := strings.ToLower(query)
	for _, r := range t.Intents {
		if containsAny(q, r.Keywords) {
			return r.Intent
		}
	}
	return model.IntentKnowledge
}

// DetectScope returns the category of the first matching rule, or CategoryNone
func (t *Table) DetectScope(query string) model.Category {
	q := strings.ToLower(query)
	for _, r := range t.Scopes {
		if containsAny(q, r.Keywords) {
			return r.Category
		}
	}
	return model.CategoryNone
}

// Route implements interfaces.Router
func (t *Table) Route(_ context.Context, query string) model.Route {
	return model.Route{
		Intent: t.Classify(query),
		Scope:  t.DetectScope(query),
	}
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

var defaultTable = DefaultTable()

// Classify classifies query with the built-in rules
func Classify(query string) model.Intent {
	return defaultTable.Classify(query)
}

// DetectScope detects the retrieval scope of query with the built-in rules
func DetectScope(query string) model.Category {
	return defaultTable.DetectScope(query)
}
