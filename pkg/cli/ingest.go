package cli

import (
	"context"

	"github.com/bankrag/bankrag/pkg/adapter"
	"github.com/bankrag/bankrag/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg          config
		dataDir      string
		sourceBucket string
		sourcePrefix string
		reset        bool
		watch        bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding policies/, regulations/ and internal_memos/",
			Value:       "data",
			Sources:     cli.EnvVars("BANKRAG_DATA_DIR"),
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "source-bucket",
			Usage:       "Cloud Storage bucket to read documents from instead of data-dir",
			Sources:     cli.EnvVars("BANKRAG_SOURCE_BUCKET"),
			Destination: &sourceBucket,
		},
		&cli.StringFlag{
			Name:        "source-prefix",
			Usage:       "Object prefix inside source-bucket",
			Sources:     cli.EnvVars("BANKRAG_SOURCE_PREFIX"),
			Destination: &sourcePrefix,
		},
		&cli.BoolFlag{
			Name:        "reset",
			Usage:       "Clear the index before loading",
			Destination: &reset,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Aliases:     []string{"w"},
			Usage:       "Keep running and re-ingest documents when they change",
			Destination: &watch,
		},
	}
	flags = append(flags, backendFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Build the vector index from bank documents",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if watch && sourceBucket != "" {
				return goerr.New("watch is only supported for data-dir")
			}

			backend, err := cfg.newLLM(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx, true)
			if err != nil {
				return err
			}
			defer repo.Close()

			var src ingest.Source
			dir := ingest.NewDirSource(dataDir)
			src = dir
			if sourceBucket != "" {
				storage, err := adapter.NewStorage(ctx, sourceBucket)
				if err != nil {
					return goerr.Wrap(err, "failed to create storage", goerr.V("bucket", sourceBucket))
				}
				src = ingest.NewBucketSource(storage, sourcePrefix)
			}

			uc := ingest.New(backend, repo, ingest.WithOutput(c.Root().Writer))
			if _, err := uc.Run(ctx, src, ingest.RunOptions{Reset: reset}); err != nil {
				return goerr.Wrap(err, "failed to ingest documents")
			}

			if watch {
				return uc.Watch(ctx, dir)
			}
			return nil
		},
	}
}
