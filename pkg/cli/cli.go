package cli

import (
	"context"

	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	var logLevel string

	cmd := &cli.Command{
		Name:    "bankrag",
		Usage:   "Question answering over bank policies, regulations and internal memos",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "warn",
				Sources:     cli.EnvVars("BANKRAG_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Commands: []*cli.Command{
			askCommand(),
			uiCommand(),
			demoCommand(),
			ingestCommand(),
			serveCommand(),
			auditCommand(),
		},
	}

	for _, sub := range cmd.Commands {
		sub.Action = withLogger(&logLevel, sub.Action)
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// withLogger installs the logger configured by the root flags before running action
func withLogger(level *string, action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		logger := logging.New(*level, c.Root().ErrWriter)
		logging.SetDefault(logger)
		return action(logging.With(ctx, logger), c)
	}
}
