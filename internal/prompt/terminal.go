package prompt

import (
	"challenge-replayer/pkg/apperr"
	"context"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// AskFunc shows a yes/no question and returns the raw promptui outcome.
type AskFunc func(label string) error

// Terminal asks on the controlling terminal.
type Terminal struct {
	out io.Writer
	ask AskFunc
}

func NewTerminal() *Terminal {
	return &Terminal{
		out: os.Stdout,
		ask: func(label string) error {
			p := promptui.Prompt{Label: label, IsConfirm: true}
			_, err := p.Run()

			return err
		},
	}
}

// NewTerminalWith builds a terminal prompter around a custom ask function.
func NewTerminalWith(out io.Writer, ask AskFunc) *Terminal {
	return &Terminal{out: out, ask: ask}
}

var bodyColor = color.New(color.FgYellow)

func (t *Terminal) Confirm(ctx context.Context, title, body string) (bool, error) {
	const op = "Terminal.Confirm"

	if err := ctx.Err(); err != nil {
		return false, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	if body != "" {
		_, _ = bodyColor.Fprintln(t.out, "\n"+body)
	}

	err := t.ask(title)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, nil
	default:
		return false, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "terminal_unavailable",
			apperr.MetaStage:  apperr.StagePrompt,
		})
	}
}
