package interfaces

import (
	"context"

	"github.com/bankrag/bankrag/pkg/model"
)

// ChunkRepository defines the interface for the persisted vector index
type ChunkRepository interface {
	// PutChunks saves chunks with their embeddings, overwriting chunks with the same ID
	PutChunks(ctx context.Context, chunks []*model.Chunk) error

	// SearchChunks performs vector search and returns at most limit fragments ordered by similarity.
	// A set category restricts the search to chunks tagged with it.
	SearchChunks(ctx context.Context, embedding []float32, limit int, category model.Category) ([]*model.Fragment, error)

	// DeleteSource removes all chunks ingested from source
	DeleteSource(ctx context.Context, source string) error

	// Clear removes every chunk
	Clear(ctx context.Context) error
}

// AuditSink receives one record per handled query
type AuditSink interface {
	PutQueryRecord(ctx context.Context, record *model.QueryRecord) error
}
