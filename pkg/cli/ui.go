package cli

import (
	"context"

	"github.com/bankrag/bankrag/pkg/tui"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func uiCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, backendFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, askFlags(&cfg)...)
	flags = append(flags, auditFlags(&cfg)...)

	return &cli.Command{
		Name:  "ui",
		Usage: "Full-screen chat interface",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var handler tui.Handler
			uc, cleanup, err := cfg.newAskUseCase(ctx)
			if err != nil {
				// The shell still starts and reports the failure on every question.
				logging.From(ctx).Error("failed to initialize assistant", "error", err)
			} else {
				defer cleanup()
				handler = uc
			}

			if err := tui.Run(ctx, handler); err != nil {
				return goerr.Wrap(err, "failed to run UI")
			}
			return nil
		},
	}
}
