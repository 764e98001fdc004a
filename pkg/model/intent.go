package model

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidIntent   = goerr.New("invalid intent")
	ErrInvalidCategory = goerr.New("invalid category")
)

// Intent is the routing decision for a query
type Intent string

const (
	IntentKnowledge Intent = "KNOWLEDGE"
	IntentData      Intent = "DATA"
	IntentAction    Intent = "ACTION"
)

// Validate checks if the intent is one of the known values
func (i Intent) Validate() error {
	switch i {
	case IntentKnowledge, IntentData, IntentAction:
		return nil
	default:
		return goerr.Wrap(ErrInvalidIntent, "unknown intent", goerr.V("intent", string(i)))
	}
}

func (i Intent) String() string { return string(i) }

// Category tags an ingested chunk and doubles as the retrieval scope.
// The zero value means no filter.
type Category string

const (
	CategoryNone       Category = ""
	CategoryPolicy     Category = "policy"
	CategoryRegulation Category = "regulation"
	CategoryMemo       Category = "memo"
)

// Validate checks if the category is one of the known values. CategoryNone is valid.
func (c Category) Validate() error {
	switch c {
	case CategoryNone, CategoryPolicy, CategoryRegulation, CategoryMemo:
		return nil
	default:
		return goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", string(c)))
	}
}

// IsSet reports whether the category narrows retrieval
func (c Category) IsSet() bool { return c != CategoryNone }

func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}
	return string(c)
}

// Categories returns all concrete categories
func Categories() []Category {
	return []Category{CategoryPolicy, CategoryRegulation, CategoryMemo}
}

// Route is the classification of a query: its intent and retrieval scope
type Route struct {
	Intent Intent
	Scope  Category
}
