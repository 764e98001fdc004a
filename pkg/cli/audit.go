package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func auditCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Number of recent queries to show",
			Value:       20,
			Destination: &limit,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
	}
	flags = append(flags, auditFlags(&cfg)...)

	return &cli.Command{
		Name:  "audit",
		Usage: "Show recently handled queries from the BigQuery audit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if cfg.auditDataset == "" {
				return goerr.New("audit-dataset is required")
			}

			bq, err := cfg.newBigQuery(ctx)
			if err != nil {
				return err
			}
			defer bq.Close()

			records, err := bq.RecentQueries(ctx, int(limit))
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if len(records) == 0 {
				fmt.Fprintln(w, "No queries recorded")
				return nil
			}

			for _, r := range records {
				fmt.Fprintf(w, "%s  %-9s  %-10s  %-8s  %6dms  %s\n",
					r.Timestamp.Format("2006-01-02 15:04:05"),
					r.Intent,
					r.Scope,
					r.Kind,
					r.LatencyMS,
					r.Query,
				)
			}
			return nil
		},
	}
}
