package locator

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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	locatorName   = "SolutionLocator"
	locatorTracer = "locator"
	panelPolls    = 3
)

// Timing holds the pauses around activating the reveal control.
type Timing struct {
	PreClick  entity.DelayRange
	PostClick entity.DelayRange
	PollGap   entity.DelayRange
}

var DefaultTiming = Timing{
	PreClick:  pacing.Range(800*time.Millisecond, 1500*time.Millisecond),
	PostClick: pacing.Range(2*time.Second, 4*time.Second),
	PollGap:   pacing.Range(time.Second, 2*time.Second),
}

type Locator struct {
	page    ports.Page
	pacer   *pacing.Pacer
	timing  Timing
	control entity.ElementQuery
	panel   entity.ElementQuery
	logger  *zap.Logger
	tracer  trace.Tracer
}

type Params struct {
	fx.In

	Page   ports.BrowserManager
	Pacer  *pacing.Pacer
	Config *config.Config
	Logger *zap.Logger
}

func NewLocator(params Params) *Locator {
	timing := DefaultTiming
	timing.PreClick = params.Config.Settings.PreClickDelays.Delay()
	timing.PostClick = params.Config.Settings.HumanDelays.Delay()

	return New(params.Page, params.Pacer, timing, params.Logger)
}

func New(page ports.Page, pacer *pacing.Pacer, timing Timing, logger *zap.Logger) *Locator {
	return &Locator{
		page:    page,
		pacer:   pacer,
		timing:  timing,
		control: pagemap.RevealControl,
		panel:   pagemap.CodePanel,
		logger:  logger.With(zap.String(logg.Layer, locatorName)),
		tracer:  otel.Tracer(locatorTracer),
	}
}

// Present reports whether an actionable reveal control exists, without
// touching it.
func (l *Locator) Present(ctx context.Context) bool {
	match, ok := dom.First(ctx, l.page, l.control, dom.Actionable)
	if ok {
		l.logger.Info("View Solution control found", zap.String(logg.Selector, match.Selector.String()))
	}

	return ok
}

// Locate finds the reveal control, activates it and waits for the code
// panel. A missing control is a normal outcome (Found=false, nil error).
func (l *Locator) Locate(ctx context.Context) (res *entity.LocateResult, err error) {
	const op = "Locate"
	logger := l.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, l.tracer, logger, op,
		attribute.Int("selectors", len(l.control.Selectors)))
	defer func() {
		step.End(err)
	}()

	match, ok := dom.First(ctx, l.page, l.control, dom.Actionable)
	if !ok {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(op, apperr.CodeCancelled, ctx.Err(), nil)
		}

		logger.Info("No View Solution control found with any selector")

		return &entity.LocateResult{Found: false}, nil
	}

	res = &entity.LocateResult{Found: true, Selector: match.Selector}
	logger = logger.With(zap.String(logg.Selector, match.Selector.String()))
	logger.Info("Found View Solution control")
	step.SetAttributes(attribute.String("selector", match.Selector.String()))

	if err := match.Element.ScrollToCenter(ctx); err != nil {
		logger.Debug("Scroll into view failed", zap.Error(err))
	}

	if err := l.pacer.Human(ctx, l.timing.PreClick); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	if err := match.Element.Click(ctx); err != nil {
		logger.Debug("Normal click failed, forcing script click", zap.Error(err))

		if err := match.Element.ScriptClick(ctx); err != nil {
			return nil, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
				apperr.MetaReason:   "activation_failed",
				apperr.MetaStage:    apperr.StageLocate,
				apperr.MetaSelector: match.Selector.String(),
			})
		}

		res.ScriptClick = true
	}

	step.AddEvent("control activated")

	if err := l.pacer.Human(ctx, l.timing.PostClick); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	res.PanelConfirmed, err = l.awaitPanel(ctx)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	if res.PanelConfirmed {
		logger.Info("Solution panel loaded")
	} else {
		logger.Warn("Control activated but the solution panel was not confirmed")
	}

	return res, nil
}

func (l *Locator) awaitPanel(ctx context.Context) (bool, error) {
	for attempt := 1; attempt <= panelPolls; attempt++ {
		if _, ok := dom.First(ctx, l.page, l.panel, dom.Visible); ok {
			return true, nil
		}

		if attempt == panelPolls {
			break
		}

		if err := l.pacer.Human(ctx, l.timing.PollGap); err != nil {
			return false, err
		}
	}

	return false, ctx.Err()
}
