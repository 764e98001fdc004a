package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
)

// Watch re-ingests documents of src that are created or written and drops
// removed ones, until ctx is done.
func (u *UseCase) Watch(ctx context.Context, src *DirSource) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	logger := logging.From(ctx)
	for _, r := range Layout {
		dir := filepath.Join(src.Root(), r.Dir)
		if _, err := os.Stat(dir); err != nil {
			logger.Warn("skip watching missing directory", "dir", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return goerr.Wrap(err, "failed to watch directory", goerr.V("dir", dir))
		}
	}

	fmt.Fprintf(u.output, "Watching %s for changes (Ctrl+C to stop)\n", src.Root())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			u.handleEvent(ctx, src, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

func (u *UseCase) handleEvent(ctx context.Context, src *DirSource, event fsnotify.Event) {
	f := src.File(event.Name)
	if f == nil {
		return
	}
	logger := logging.From(ctx)

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		n, err := u.IngestFile(ctx, src, f)
		if err != nil {
			logger.Error("failed to re-ingest document", "path", f.Path, "error", err)
			return
		}
		fmt.Fprintf(u.output, "  ↻ %s [%s] %d chunks\n", f.Path, f.Category, n)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := u.Remove(ctx, f); err != nil {
			logger.Error("failed to remove document", "path", f.Path, "error", err)
			return
		}
		fmt.Fprintf(u.output, "  − %s\n", f.Path)
	}
}
