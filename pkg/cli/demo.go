package cli

import (
	"context"
	"fmt"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func demoCommand() *cli.Command {
	var (
		cfg      config
		all      bool
		category int64
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Run every demo question",
			Destination: &all,
		},
		&cli.IntFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Run the demo questions of one category (1-based)",
			Destination: &category,
		},
	}
	flags = append(flags, backendFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, askFlags(&cfg)...)
	flags = append(flags, auditFlags(&cfg)...)

	return &cli.Command{
		Name:  "demo",
		Usage: "Guided demo over sample questions",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			categories, err := selectDemo(model.DemoCategories(), all, int(category))
			if err != nil {
				return err
			}

			uc, cleanup, err := cfg.newAskUseCase(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize assistant")
			}
			defer cleanup()

			w := c.Root().Writer
			fmt.Fprintln(w, "BANK AI ASSISTANT - GUIDED DEMO")

			if categories != nil {
				NewShell(uc, nil, w).RunDemo(ctx, categories)
				fmt.Fprintln(w, "\nDemo completed!")
				return nil
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "Enter choice: ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create readline")
			}
			defer rl.Close()

			if err := NewShell(uc, rl, w, WithSpinner(true)).RunDemoMenu(ctx, model.DemoCategories()); err != nil {
				return err
			}
			fmt.Fprintln(w, "\nDemo completed!")
			return nil
		},
	}
}

// selectDemo returns the categories to run unattended, or nil for the interactive menu
func selectDemo(categories []model.DemoCategory, all bool, category int) ([]model.DemoCategory, error) {
	switch {
	case all:
		return categories, nil
	case category == 0:
		return nil, nil
	case category < 1 || category > len(categories):
		return nil, goerr.New("category out of range",
			goerr.V("category", category),
			goerr.V("max", len(categories)))
	default:
		return categories[category-1 : category], nil
	}
}
