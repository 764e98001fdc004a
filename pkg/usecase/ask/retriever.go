package ask

import (
	"context"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Retriever returns fragments relevant to a query, ordered by relevance
type Retriever interface {
	Search(ctx context.Context, query string, k int, scope model.Category) ([]*model.Fragment, error)
}

// VectorRetriever embeds the query and runs a vector search on the chunk repository
type VectorRetriever struct {
	embedder interfaces.Embedder
	repo     interfaces.ChunkRepository
}

func NewRetriever(embedder interfaces.Embedder, repo interfaces.ChunkRepository) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		repo:     repo,
	}
}

func (r *VectorRetriever) Search(ctx context.Context, query string, k int, scope model.Category) ([]*model.Fragment, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if len(vector) == 0 {
		return nil, goerr.New("embedding is empty")
	}

	fragments, err := r.repo.SearchChunks(ctx, vector, k, scope)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks", goerr.V("k", k), goerr.V("scope", scope))
	}

	return fragments, nil
}
