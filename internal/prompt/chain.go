// Package prompt implements the yes/no human confirmation used before the
// model fallback and after session recovery.
package prompt

import (
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/logg"
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Chain tries each prompter in order and falls through on error. When every
// prompter fails the answer is no.
type Chain struct {
	prompters []ports.Prompter
	logger    *zap.Logger
}

type Params struct {
	fx.In

	Browser ports.BrowserManager
	Logger  *zap.Logger
}

// NewPrompter prefers the in-page dialog and falls back to the terminal.
func NewPrompter(params Params) *Chain {
	return NewChain(params.Logger,
		NewDialog(params.Browser, params.Logger),
		NewTerminal(),
	)
}

// NewRecoveryPrompter asks on the terminal only. After a relaunch the
// browser shows a blank page that the operator must navigate away from,
// which would destroy an in-page dialog.
func NewRecoveryPrompter(logger *zap.Logger) ports.Prompter {
	return NewChain(logger, NewTerminal())
}

func NewChain(logger *zap.Logger, prompters ...ports.Prompter) *Chain {
	return &Chain{
		prompters: prompters,
		logger:    logger.With(zap.String(logg.Layer, "Prompter")),
	}
}

func (c *Chain) Confirm(ctx context.Context, title, body string) (bool, error) {
	for i, p := range c.prompters {
		answer, err := p.Confirm(ctx, title, body)
		if err == nil {
			c.logger.Info("Confirmation answered", zap.String("title", title), zap.Bool("answer", answer))
			return answer, nil
		}

		if ctx.Err() != nil {
			return false, err
		}

		c.logger.Warn("Prompter failed, trying next", zap.Int("index", i), zap.Error(err))
	}

	c.logger.Warn("No prompter could ask, treating as declined", zap.String("title", title))

	return false, nil
}
