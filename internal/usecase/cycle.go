package usecase

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
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	cycleServiceName = "CycleService"
	cycleTracer      = "usecase.cycle"

	modelConfirmTitle = "No solution on this page"
	modelConfirmBody  = "No View Solution control was found. Ask the local model to write a solution and type it into the editor?"
)

var runCheckPause = pacing.Range(3*time.Second, 5*time.Second)

// CycleOptions are the behaviour switches read from the settings file.
type CycleOptions struct {
	ModelEnabled     bool
	StrictPanelCheck bool
	AutoRun          bool
}

type CycleService struct {
	guard     ports.Guard
	locator   ports.Locator
	extractor ports.Extractor
	replayer  ports.Replayer
	prompter  ports.Prompter
	page      ports.Page
	pacer     *pacing.Pacer
	opts      CycleOptions
	stats     *entity.Stats
	logger    *zap.Logger
	tracer    trace.Tracer
}

type CycleServiceParams struct {
	fx.In

	Guard     ports.Guard
	Locator   ports.Locator
	Extractor ports.Extractor
	Replayer  ports.Replayer
	Prompter  ports.Prompter
	Browser   ports.BrowserManager
	Pacer     *pacing.Pacer
	Config    *config.Config
	Logger    *zap.Logger
}

func NewCycleService(params CycleServiceParams) *CycleService {
	settings := params.Config.Settings

	return &CycleService{
		guard:     params.Guard,
		locator:   params.Locator,
		extractor: params.Extractor,
		replayer:  params.Replayer,
		prompter:  params.Prompter,
		page:      params.Browser,
		pacer:     params.Pacer,
		opts: CycleOptions{
			ModelEnabled:     settings.OllamaEnabled,
			StrictPanelCheck: settings.StrictPanelCheck,
			AutoRun:          settings.AutoRun,
		},
		stats:  &entity.Stats{},
		logger: params.Logger.With(zap.String(logg.Layer, cycleServiceName)),
		tracer: otel.Tracer(cycleTracer),
	}
}

func (s *CycleService) Stats() *entity.Stats {
	return s.stats
}

// SolveCurrent runs one acquisition cycle against the page that is open
// now. The returned cycle is never nil and records how far it got.
func (s *CycleService) SolveCurrent(ctx context.Context) (cycle *entity.Cycle, err error) {
	const op = "SolveCurrent"

	cycle = entity.NewCycle()
	logger := s.logger.With(zap.String(logg.Operation, op), zap.String(logg.CycleID, cycle.ID.String()))

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op,
		attribute.String("cycle_id", cycle.ID.String()))
	defer func() {
		if err != nil {
			cycle.Fail(err)
			logger.Warn("Cycle failed",
				zap.Strings(logg.State, stateNames(cycle.Trail)),
				zap.String("code", apperr.CodeOf(err)),
				zap.Error(err))
		} else {
			logger.Info("Cycle completed", zap.Strings(logg.State, stateNames(cycle.Trail)))
		}

		s.stats.Record(err == nil)
		step.End(err)
	}()

	if err := s.guard.EnsureActive(ctx); err != nil {
		return cycle, err
	}

	cycle.Advance(entity.CycleStateSessionChecked)
	cycle.Advance(entity.CycleStateLocating)

	located, err := s.locator.Locate(ctx)
	if err != nil {
		return cycle, err
	}

	var sol *entity.AcquiredSolution

	if located.Found {
		cycle.Advance(entity.CycleStateLocated)
		cycle.PanelConfirmed = located.PanelConfirmed

		if !located.PanelConfirmed && s.opts.StrictPanelCheck {
			return cycle, apperr.Wrap(op, apperr.CodePanelNotConfirmed, errors.New("solution panel did not appear"), map[string]any{
				apperr.MetaReason:   "panel_not_confirmed",
				apperr.MetaStage:    apperr.StageLocate,
				apperr.MetaSelector: located.Selector.String(),
			})
		}

		cycle.Advance(entity.CycleStateExtractingPage)

		sol, err = s.extractor.FromPage(ctx)
	} else {
		cycle.Advance(entity.CycleStateNotLocated)

		sol, err = s.generate(ctx, cycle)
	}

	if err != nil {
		return cycle, err
	}

	cycle.Advance(entity.CycleStateAcquired)
	cycle.Provenance = sol.Provenance
	cycle.Chars = len(sol.Text)
	step.SetAttributes(attribute.String("provenance", string(sol.Provenance)), attribute.Int("chars", len(sol.Text)))
	logger.Info("Solution acquired", zap.String(logg.Provenance, string(sol.Provenance)), zap.Int(logg.Chars, len(sol.Text)))

	cycle.Advance(entity.CycleStateReplaying)

	if err := s.replayer.Replay(ctx, sol.Text); err != nil {
		return cycle, err
	}

	if s.opts.AutoRun {
		cycle.CompileError = s.runAndCheck(ctx, logger)
	}

	cycle.Advance(entity.CycleStateDone)

	return cycle, nil
}

func (s *CycleService) generate(ctx context.Context, cycle *entity.Cycle) (*entity.AcquiredSolution, error) {
	const op = "generate"

	if !s.opts.ModelEnabled {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, errors.New("no reveal control and the model fallback is disabled"), map[string]any{
			apperr.MetaReason: "no_reveal_control",
			apperr.MetaStage:  apperr.StageLocate,
		})
	}

	cycle.Advance(entity.CycleStateConfirmingModel)

	ok, err := s.prompter.Confirm(ctx, modelConfirmTitle, modelConfirmBody)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeDeclinedByUser, "model_declined")
	}

	cycle.Advance(entity.CycleStateGenerating)

	problem, err := s.extractor.ProblemText(ctx)
	if err != nil {
		return nil, err
	}

	return s.extractor.Generate(ctx, problem)
}

// runAndCheck presses the run control and returns the compiler error text
// shown afterwards, if any. Nothing here fails the cycle.
func (s *CycleService) runAndCheck(ctx context.Context, logger *zap.Logger) string {
	match, ok := dom.First(ctx, s.page, pagemap.RunButton, dom.Actionable)
	if !ok {
		logger.Warn("Run button not found")
		return ""
	}

	if err := match.Element.Click(ctx); err != nil {
		if err := match.Element.ScriptClick(ctx); err != nil {
			logger.Warn("Run button click failed", zap.Error(err))
			return ""
		}
	}

	logger.Info("Run button clicked", zap.String(logg.Selector, match.Selector.String()))

	if err := s.pacer.Human(ctx, runCheckPause); err != nil {
		return ""
	}

	panel, ok := dom.First(ctx, s.page, pagemap.ErrorPanel, dom.Visible)
	if !ok {
		logger.Info("No errors detected")
		return ""
	}

	text, err := panel.Element.Text(ctx)
	if err != nil {
		return ""
	}

	text = strings.TrimSpace(text)
	if !strings.Contains(strings.ToLower(text), "error") {
		logger.Info("No errors detected")
		return ""
	}

	logger.Warn("Compilation error reported", zap.String("error_text", text))

	return text
}

func stateNames(states []entity.CycleState) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = string(st)
	}

	return out
}
