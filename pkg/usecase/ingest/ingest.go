package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/model"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// UseCase builds the vector index from categorized documents
type UseCase struct {
	embedder interfaces.Embedder
	repo     interfaces.ChunkRepository
	splitter *Splitter
	output   io.Writer
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the output writer for progress messages
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithSplitter replaces the default 800/120 splitter
func WithSplitter(s *Splitter) Option {
	return func(uc *UseCase) {
		uc.splitter = s
	}
}

// New creates a new ingest UseCase instance
func New(
	embedder interfaces.Embedder,
	repo interfaces.ChunkRepository,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		embedder: embedder,
		repo:     repo,
		splitter: NewSplitter(),
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Stats summarizes an ingestion run
type Stats struct {
	Documents  int
	Chunks     int
	Failed     int
	ByCategory map[model.Category]int
}

// RunOptions controls an ingestion run
type RunOptions struct {
	// Reset clears the index before loading
	Reset bool
}

// Run loads every document of src into the index. A document that cannot be
// loaded is reported and skipped; Run fails only when listing fails or every
// document fails.
func (u *UseCase) Run(ctx context.Context, src Source, opts RunOptions) (*Stats, error) {
	logger := logging.From(ctx)

	if opts.Reset {
		if err := u.repo.Clear(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to clear index")
		}
		fmt.Fprintf(u.output, "Cleared existing index\n")
	}

	files, err := src.Files(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByCategory: make(map[model.Category]int)}
	fmt.Fprintf(u.output, "Loading %d documents (skipping customer_data/ and transactions/)\n", len(files))

	for _, f := range files {
		n, err := u.IngestFile(ctx, src, f)
		if err != nil {
			stats.Failed++
			logger.Error("failed to ingest document", "path", f.Path, "error", err)
			fmt.Fprintf(u.output, "  ✗ %s: %s\n", f.Path, err.Error())
			continue
		}

		stats.Documents++
		stats.Chunks += n
		stats.ByCategory[f.Category] += n
		fmt.Fprintf(u.output, "  ✓ %s [%s] %d chunks\n", f.Path, f.Category, n)
	}

	if stats.Failed > 0 && stats.Documents == 0 {
		return stats, goerr.New("no document could be ingested", goerr.V("failed", stats.Failed))
	}

	fmt.Fprintf(u.output, "Documents processed: %d, chunks: %d, failed: %d\n", stats.Documents, stats.Chunks, stats.Failed)
	return stats, nil
}

// IngestFile replaces the chunks of one document and returns how many were stored
func (u *UseCase) IngestFile(ctx context.Context, src Source, f *File) (int, error) {
	r, err := src.Open(ctx, f)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read document", goerr.V("path", f.Path))
	}

	text, err := extractText(f.Path, data)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to extract text", goerr.V("path", f.Path))
	}

	pieces := u.splitter.Split(text)
	now := time.Now()
	chunks := make([]*model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vector, err := u.embedder.Embed(ctx, piece)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to embed chunk", goerr.V("path", f.Path), goerr.V("index", i))
		}

		chunks = append(chunks, &model.Chunk{
			ID:        model.NewChunkID(f.Path, i),
			Source:    f.Path,
			Category:  f.Category,
			Index:     i,
			Content:   piece,
			Embedding: vector,
			CreatedAt: now,
		})
	}

	if err := u.repo.DeleteSource(ctx, f.Path); err != nil {
		return 0, goerr.Wrap(err, "failed to delete previous chunks", goerr.V("path", f.Path))
	}

	if err := u.repo.PutChunks(ctx, chunks); err != nil {
		return 0, goerr.Wrap(err, "failed to store chunks", goerr.V("path", f.Path))
	}

	return len(chunks), nil
}

// Remove drops a document from the index
func (u *UseCase) Remove(ctx context.Context, f *File) error {
	if err := u.repo.DeleteSource(ctx, f.Path); err != nil {
		return goerr.Wrap(err, "failed to remove document", goerr.V("path", f.Path))
	}
	return nil
}
