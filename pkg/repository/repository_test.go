package repository_test

import (
	"context"
	"testing"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/repository"
	"github.com/m-mizutani/gt"
)

func testChunks() []*model.Chunk {
	return []*model.Chunk{
		{ID: model.NewChunkID("policies/loan.pdf", 0), Source: "policies/loan.pdf", Category: model.CategoryPolicy, Index: 0, Content: "loan approval takes five days", Embedding: []float32{1, 0, 0}},
		{ID: model.NewChunkID("policies/loan.pdf", 1), Source: "policies/loan.pdf", Category: model.CategoryPolicy, Index: 1, Content: "collateral for overdraft", Embedding: []float32{0.7, 0.7, 0}},
		{ID: model.NewChunkID("regulations/fx.txt", 0), Source: "regulations/fx.txt", Category: model.CategoryRegulation, Index: 0, Content: "fx limits", Embedding: []float32{0.9, 0.1, 0}},
		{ID: model.NewChunkID("internal_memos/audit.txt", 0), Source: "internal_memos/audit.txt", Category: model.CategoryMemo, Index: 0, Content: "audit in march", Embedding: []float32{0, 0, 1}},
	}
}

func runRepositoryTest(t *testing.T, repo interfaces.ChunkRepository) {
	ctx := context.Background()
	gt.NoError(t, repo.PutChunks(ctx, testChunks()))

	t.Run("search without filter orders by similarity", func(t *testing.T) {
		fragments, err := repo.SearchChunks(ctx, []float32{1, 0, 0}, 3, model.CategoryNone)
		gt.NoError(t, err)
		gt.A(t, fragments).Length(3)
		gt.Equal(t, fragments[0].Text, "loan approval takes five days")
		gt.Equal(t, fragments[1].Text, "fx limits")
		gt.Equal(t, fragments[2].Text, "collateral for overdraft")
		gt.True(t, fragments[0].Score >= fragments[1].Score)
	})

	t.Run("search with category filter", func(t *testing.T) {
		fragments, err := repo.SearchChunks(ctx, []float32{1, 0, 0}, 5, model.CategoryRegulation)
		gt.NoError(t, err)
		gt.A(t, fragments).Length(1)
		gt.Equal(t, fragments[0].Category, model.CategoryRegulation)
		gt.Equal(t, fragments[0].Source, "regulations/fx.txt")
	})

	t.Run("put overwrites same id", func(t *testing.T) {
		updated := testChunks()[3]
		updated.Content = "audit moved to april"
		gt.NoError(t, repo.PutChunks(ctx, []*model.Chunk{updated}))

		fragments, err := repo.SearchChunks(ctx, []float32{0, 0, 1}, 5, model.CategoryMemo)
		gt.NoError(t, err)
		gt.A(t, fragments).Length(1)
		gt.Equal(t, fragments[0].Text, "audit moved to april")
	})

	t.Run("delete source", func(t *testing.T) {
		gt.NoError(t, repo.DeleteSource(ctx, "policies/loan.pdf"))
		fragments, err := repo.SearchChunks(ctx, []float32{1, 0, 0}, 5, model.CategoryPolicy)
		gt.NoError(t, err)
		gt.A(t, fragments).Length(0)
	})

	t.Run("clear", func(t *testing.T) {
		gt.NoError(t, repo.Clear(ctx))
		fragments, err := repo.SearchChunks(ctx, []float32{1, 0, 0}, 5, model.CategoryNone)
		gt.NoError(t, err)
		gt.A(t, fragments).Length(0)
	})
}

func TestMemory(t *testing.T) {
	runRepositoryTest(t, repository.NewMemory())
}

func TestSQLite(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewSQLite(dir)
	gt.NoError(t, err)
	defer repo.Close()

	runRepositoryTest(t, repo)
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := repository.OpenSQLite(dir)
	gt.Error(t, err)

	repo, err := repository.NewSQLite(dir)
	gt.NoError(t, err)
	gt.NoError(t, repo.PutChunks(ctx, testChunks()))
	gt.NoError(t, repo.Close())

	reopened, err := repository.OpenSQLite(dir)
	gt.NoError(t, err)
	defer reopened.Close()

	counts, err := reopened.Count(ctx)
	gt.NoError(t, err)
	gt.Equal(t, counts[model.CategoryPolicy], 2)
	gt.Equal(t, counts[model.CategoryRegulation], 1)
	gt.Equal(t, counts[model.CategoryMemo], 1)
}
