package cli

import (
	"context"

	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg      config
		question string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "Answer a single question and exit",
			Destination: &question,
		},
	}
	flags = append(flags, backendFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, askFlags(&cfg)...)
	flags = append(flags, auditFlags(&cfg)...)

	return &cli.Command{
		Name:  "ask",
		Usage: "Ask questions about bank policies, regulations and internal memos",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := cfg.newAskUseCase(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize assistant")
			}
			defer cleanup()

			w := c.Root().Writer

			if question != "" {
				outcome := NewShell(uc, nil, w).Ask(ctx, question)
				if outcome.Failed() {
					return goerr.Wrap(outcome.Failure, "failed to answer question")
				}
				return nil
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "Ask: ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create readline")
			}
			defer rl.Close()

			logging.From(ctx).Debug("ask shell started", "backend", cfg.backend, "store", cfg.store)
			return NewShell(uc, rl, w, WithSpinner(true)).Run(ctx)
		},
	}
}
