// Package replay re-types acquired text into the challenge editor as
// paced synthetic keystrokes.
package replay

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/dom"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/pagemap"
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	replayerName   = "InputReplayer"
	replayerTracer = "replay"

	countdownTicks = 3
	countdownTick  = time.Second
	clearSettle    = 100 * time.Millisecond
	progressEvery  = 5
)

// Browser is what the replayer needs from the live session.
type Browser interface {
	ports.Page
	ports.Keyboard
}

type Options struct {
	Plan   PlanOptions
	Format bool
}

type Replayer struct {
	browser Browser
	pacer   *pacing.Pacer
	opts    Options
	logger  *zap.Logger
	tracer  trace.Tracer
}

type Params struct {
	fx.In

	Browser ports.BrowserManager
	Pacer   *pacing.Pacer
	Config  *config.Config
	Logger  *zap.Logger
}

func NewReplayer(params Params) *Replayer {
	settings := params.Config.Settings

	return New(params.Browser, params.Pacer, Options{
		Plan: PlanOptions{
			Mode:     settings.Mode(),
			Typing:   settings.TypingSpeed.Delay(),
			TypoRate: settings.TypoRate,
			Floor:    settings.OpDelayFloor(),
		},
		Format: settings.FormatCode,
	}, params.Logger)
}

func New(browser Browser, pacer *pacing.Pacer, opts Options, logger *zap.Logger) *Replayer {
	if !opts.Plan.Mode.Valid() {
		opts.Plan.Mode = entity.ReplayModeChunked
	}

	return &Replayer{
		browser: browser,
		pacer:   pacer,
		opts:    opts,
		logger:  logger.With(zap.String(logg.Layer, replayerName)),
		tracer:  otel.Tracer(replayerTracer),
	}
}

// Replay clears the editor and types text. Whatever was typed before a
// failure stays in the editor.
func (r *Replayer) Replay(ctx context.Context, text string) (err error) {
	const op = "Replay"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.Mode, string(r.opts.Plan.Mode)))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op,
		attribute.String("mode", string(r.opts.Plan.Mode)),
		attribute.Int("chars", len(text)))
	defer func() {
		step.End(err)
	}()

	if r.opts.Format {
		text = Format(text)
	}

	if len(text) == 0 {
		return apperr.InvalidReqError(op, "text", errors.New("nothing to replay"))
	}

	r.clearEditor(ctx, logger)
	r.focusEditor(ctx, logger)

	for tick := countdownTicks; tick > 0; tick-- {
		logger.Info("Typing starts soon, keep the editor focused", zap.Int("seconds", tick))

		if err := r.pacer.Pause(ctx, countdownTick); err != nil {
			return apperr.Wrap(op, apperr.CodeCancelled, err, nil)
		}
	}

	step.AddEvent("countdown finished")

	if err := r.quickClear(ctx); err != nil {
		return r.keyboardErr(ctx, op, err)
	}

	plan := Build(text, r.opts.Plan, r.pacer)
	logger.Info("Typing solution",
		zap.Int("strokes", len(plan.Strokes)),
		zap.Duration("estimated", plan.Duration()))

	if err := r.execute(ctx, logger, plan); err != nil {
		return r.keyboardErr(ctx, op, err)
	}

	logger.Info("Typing completed", zap.Int(logg.Chars, len(text)))

	return nil
}

// clearEditor empties the editor through its own API and turns its
// auto-pairing off. Every failure here is only logged.
func (r *Replayer) clearEditor(ctx context.Context, logger *zap.Logger) {
	res, err := r.browser.Evaluate(ctx, pagemap.ClearEditorScript, pagemap.EditorOptionsOff)
	reached, _ := res.(bool)

	switch {
	case err != nil:
		logger.Warn("Editor API clear failed", zap.Error(err))
	case !reached:
		logger.Warn("Editor API not reachable, relying on keyboard clear")
	default:
		logger.Debug("Editor cleared and auto-pairing disabled")
	}

	if _, err := r.browser.Evaluate(ctx, pagemap.ClearBackingFieldScript, nil); err != nil {
		logger.Debug("Backing field clear failed", zap.Error(err))
	}
}

func (r *Replayer) focusEditor(ctx context.Context, logger *zap.Logger) {
	match, ok := dom.First(ctx, r.browser, pagemap.Editor, dom.Present)
	if !ok {
		logger.Warn("Editor not found, click into it before the countdown ends")
		return
	}

	if err := match.Element.Focus(ctx); err != nil {
		logger.Debug("Editor focus failed", zap.Error(err), zap.String(logg.Selector, match.Selector.String()))
	}
}

func (r *Replayer) quickClear(ctx context.Context) error {
	if err := r.browser.Press(ctx, entity.KeySelectAll); err != nil {
		return err
	}

	if err := r.pacer.Pause(ctx, clearSettle); err != nil {
		return err
	}

	if err := r.browser.Press(ctx, entity.KeyDelete); err != nil {
		return err
	}

	return r.pacer.Pause(ctx, clearSettle)
}

func (r *Replayer) execute(ctx context.Context, logger *zap.Logger, plan *entity.TypingPlan) error {
	line := 1

	for _, stroke := range plan.Strokes {
		var err error

		switch stroke.Kind {
		case entity.KeystrokeType:
			err = r.browser.Type(ctx, stroke.Value)
		case entity.KeystrokePress:
			err = r.browser.Press(ctx, stroke.Value)
		}

		if err != nil {
			return err
		}

		if stroke.Kind == entity.KeystrokePress && stroke.Value == entity.KeyEnter {
			line++
			if line%progressEvery == 0 {
				logger.Debug("Typing progress", zap.Int("line", line))
			}
		}

		if err := r.pacer.Pause(ctx, stroke.Delay); err != nil {
			return err
		}
	}

	return nil
}

func (r *Replayer) keyboardErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	return apperr.Wrap(op, apperr.CodeReplayFailed, err, map[string]any{
		apperr.MetaReason: "keyboard_failed",
		apperr.MetaStage:  apperr.StageReplay,
	})
}
