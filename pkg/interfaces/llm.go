package interfaces

import (
	"context"

	"github.com/bankrag/bankrag/pkg/model"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Router decides intent and retrieval scope of a query
type Router interface {
	Route(ctx context.Context, query string) model.Route
}
