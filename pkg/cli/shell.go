package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bankrag/bankrag/pkg/model"
	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
)

const (
	farewell  = "Thank you for using Bank AI Assistant!"
	separator = "============================================================"
)

// Handler answers one query
type Handler interface {
	Handle(ctx context.Context, query string) *model.Outcome
}

// LineReader reads one line of user input. It returns readline.ErrInterrupt on
// Ctrl+C and io.EOF when input ends.
type LineReader interface {
	Readline() (string, error)
}

// Shell is the interactive question loop of the ask command
type Shell struct {
	handler Handler
	reader  LineReader
	w       io.Writer
	spinner bool
}

// ShellOption is a functional option for Shell
type ShellOption func(*Shell)

// WithSpinner shows a wait indicator while a question is answered
func WithSpinner(enabled bool) ShellOption {
	return func(s *Shell) {
		s.spinner = enabled
	}
}

// NewShell creates a Shell reading questions from reader and writing answers to w
func NewShell(handler Handler, reader LineReader, w io.Writer, opts ...ShellOption) *Shell {
	s := &Shell{
		handler: handler,
		reader:  reader,
		w:       w,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads questions until quit, Ctrl+C or end of input
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.w, "Type your question (or 'quit' to exit)")
	fmt.Fprintln(s.w, separator)

	for {
		line, err := s.reader.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintf(s.w, "\n%s\n", farewell)
				return nil
			}
			return err
		}

		question := strings.TrimSpace(line)
		if isQuit(question) {
			fmt.Fprintf(s.w, "\n%s\n", farewell)
			return nil
		}
		if question == "" {
			continue
		}

		s.Ask(ctx, question)
		if ctx.Err() != nil {
			fmt.Fprintf(s.w, "\n%s\n", farewell)
			return nil
		}
	}
}

// Ask answers one question and prints the answer or the error inline. Nothing
// is printed when ctx was cancelled while waiting.
func (s *Shell) Ask(ctx context.Context, question string) *model.Outcome {
	var sp *spinner.Spinner
	if s.spinner {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.w))
		sp.Suffix = " Searching the knowledge base..."
		sp.Start()
	}

	outcome := s.handler.Handle(ctx, question)

	if sp != nil {
		sp.Stop()
	}

	if ctx.Err() != nil {
		return outcome
	}

	fmt.Fprintf(s.w, "\n%s\n", outcome.Text())
	if !outcome.Failed() {
		fmt.Fprintf(s.w, "\n[Response time: %.2fs]\n", outcome.Elapsed.Seconds())
	}
	fmt.Fprintln(s.w, separator)

	return outcome
}

// RunDemo asks every question of the given categories in order
func (s *Shell) RunDemo(ctx context.Context, categories []model.DemoCategory) {
	for _, c := range categories {
		fmt.Fprintf(s.w, "\n%s\n%s\n%s\n", separator, c.Name, separator)
		for _, q := range c.Questions {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(s.w, "\nQ: %s\n", q)
			s.Ask(ctx, q)
		}
	}
}

// RunDemoMenu lets the user pick a category and a question (or 'all') until 0 is entered
func (s *Shell) RunDemoMenu(ctx context.Context, categories []model.DemoCategory) error {
	for ctx.Err() == nil {
		fmt.Fprintln(s.w, "\nSelect a category:")
		for i, c := range categories {
			fmt.Fprintf(s.w, "%d. %s\n", i+1, c.Name)
		}
		fmt.Fprintln(s.w, "0. Exit")

		choice, err := s.readChoice()
		if err != nil || choice == "0" || isQuit(choice) {
			return ignoreEndOfInput(err)
		}

		idx, err := strconv.Atoi(choice)
		if err != nil || idx < 1 || idx > len(categories) {
			fmt.Fprintln(s.w, "Invalid choice!")
			continue
		}
		c := categories[idx-1]

		fmt.Fprintf(s.w, "\n%s\n", c.Name)
		for i, q := range c.Questions {
			fmt.Fprintf(s.w, "%d. %s\n", i+1, q)
		}
		fmt.Fprintln(s.w, "Select question (or 'all'):")

		pick, err := s.readChoice()
		if err != nil {
			return ignoreEndOfInput(err)
		}
		if strings.EqualFold(pick, "all") {
			s.RunDemo(ctx, []model.DemoCategory{c})
			continue
		}

		qi, err := strconv.Atoi(pick)
		if err != nil || qi < 1 || qi > len(c.Questions) {
			fmt.Fprintln(s.w, "Invalid choice!")
			continue
		}
		fmt.Fprintf(s.w, "\nQ: %s\n", c.Questions[qi-1])
		s.Ask(ctx, c.Questions[qi-1])
	}
	return nil
}

func (s *Shell) readChoice() (string, error) {
	line, err := s.reader.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func ignoreEndOfInput(err error) error {
	if err == nil || errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func isQuit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}
