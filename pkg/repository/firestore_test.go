package repository_test

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/repository"
	"github.com/m-mizutani/gt"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID,
		repository.WithCollection("bank_knowledge_test"))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func randomVector(rng *rand.Rand, base float32) firestore.Vector32 {
	v := make(firestore.Vector32, 768)
	for i := range v {
		v[i] = base + float32(rng.Float64()*0.02-0.01)
	}
	return v
}

func TestFirestoreSearchChunks(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	source := "policies/test-" + string(model.NewQueryID()) + ".pdf"
	chunks := []*model.Chunk{
		{ID: model.NewChunkID(source, 0), Source: source, Category: model.CategoryPolicy, Content: "near", Embedding: randomVector(rng, 0.5), CreatedAt: time.Now()},
		{ID: model.NewChunkID(source, 1), Source: source, Category: model.CategoryPolicy, Content: "far", Embedding: randomVector(rng, -0.9), CreatedAt: time.Now()},
	}
	gt.NoError(t, repo.PutChunks(ctx, chunks))
	t.Cleanup(func() { _ = repo.DeleteSource(ctx, source) })

	time.Sleep(2 * time.Second)

	results, err := repo.SearchChunks(ctx, []float32(randomVector(rng, 0.5)), 3, model.CategoryPolicy)
	gt.NoError(t, err)
	gt.A(t, results).Longer(0)
	for _, r := range results {
		gt.Equal(t, r.Category, model.CategoryPolicy)
	}

	results, err = repo.SearchChunks(ctx, []float32(randomVector(rng, 0.5)), 1, model.CategoryNone)
	gt.NoError(t, err)
	if len(results) > 1 {
		t.Errorf("expected at most 1 result, got %d", len(results))
	}
}

func TestFirestoreDeleteSource(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	source := "internal_memos/test-" + string(model.NewQueryID()) + ".txt"
	query := randomVector(rng, 0.7)
	chunks := []*model.Chunk{
		{ID: model.NewChunkID(source, 0), Source: source, Category: model.CategoryMemo, Content: "first", Embedding: query, CreatedAt: time.Now()},
		{ID: model.NewChunkID(source, 1), Source: source, Category: model.CategoryMemo, Content: "second", Embedding: query, CreatedAt: time.Now()},
	}
	gt.NoError(t, repo.PutChunks(ctx, chunks))
	gt.NoError(t, repo.DeleteSource(ctx, source))

	time.Sleep(2 * time.Second)

	results, err := repo.SearchChunks(ctx, []float32(query), 10, model.CategoryMemo)
	gt.NoError(t, err)
	for _, r := range results {
		gt.NotEqual(t, r.Source, source)
	}
}
