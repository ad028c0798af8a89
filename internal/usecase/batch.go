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
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	batchServiceName = "BatchService"
	batchTracer      = "usecase.batch"

	StopMaxReached = "max_reached"
	StopNoNext     = "no_next_challenge"
	StopRequested  = "stopped"
	StopCancelled  = "cancelled"
)

var (
	betweenChallenges = pacing.Range(5*time.Second, 10*time.Second)
	afterNavigation   = pacing.Range(2*time.Second, 4*time.Second)
)

// CycleRunner runs one challenge cycle.
type CycleRunner interface {
	SolveCurrent(ctx context.Context) (*entity.Cycle, error)
}

type BatchService struct {
	cycles   CycleRunner
	page     ports.Page
	pacer    *pacing.Pacer
	maxRuns  int
	stopping atomic.Bool
	running  atomic.Bool
	logger   *zap.Logger
	tracer   trace.Tracer
}

type BatchServiceParams struct {
	fx.In

	Browser ports.BrowserManager
	Pacer   *pacing.Pacer
	Config  *config.Config
	Logger  *zap.Logger
}

func NewBatchService(params BatchServiceParams, cycles CycleRunner) *BatchService {
	return &BatchService{
		cycles:  cycles,
		page:    params.Browser,
		pacer:   params.Pacer,
		maxRuns: params.Config.Settings.BatchMax,
		logger:  params.Logger.With(zap.String(logg.Layer, batchServiceName)),
		tracer:  otel.Tracer(batchTracer),
	}
}

// Run solves up to limit challenges in a row, following the next-challenge
// link between them. limit <= 0 uses the configured batch size.
func (s *BatchService) Run(ctx context.Context, limit int) (report *entity.BatchReport, err error) {
	const op = "Run"
	logger := s.logger.With(zap.String(logg.Operation, op))

	if limit <= 0 {
		limit = s.maxRuns
	}

	if limit <= 0 {
		return nil, apperr.InvalidReqError(op, "limit", errInvalidBatchSize)
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInvalidArgument, "batch_already_running")
	}
	defer s.running.Store(false)

	s.stopping.Store(false)

	ctx, step := tracing.StartSpan(ctx, s.tracer, logger, op, attribute.Int("limit", limit))
	defer func() {
		step.End(err)
	}()

	report = &entity.BatchReport{StartedAt: time.Now()}
	defer func() {
		report.CompletedAt = time.Now()
		step.SetAttributes(
			attribute.Int("processed", report.Processed),
			attribute.Int("solved", report.Solved),
			attribute.String("stop_reason", report.StopReason))
	}()

	logger.Info("Batch started", zap.Int("limit", limit))

	for {
		if s.stopping.Load() {
			report.StopReason = StopRequested
			break
		}

		if ctx.Err() != nil {
			report.StopReason = StopCancelled
			break
		}

		cycle, cycleErr := s.cycles.SolveCurrent(ctx)
		report.Processed++
		report.Cycles = append(report.Cycles, cycle)

		if cycle != nil && cycle.Succeeded() {
			report.Solved++
		} else {
			report.Failed++
		}

		logger.Info("Batch progress",
			zap.Int("processed", report.Processed),
			zap.Int("solved", report.Solved),
			zap.Int("failed", report.Failed))

		if apperr.CodeOf(cycleErr) == apperr.CodeCancelled {
			report.StopReason = StopCancelled
			break
		}

		if report.Processed >= limit {
			report.StopReason = StopMaxReached
			break
		}

		if s.stopping.Load() {
			report.StopReason = StopRequested
			break
		}

		if err := s.pacer.Human(ctx, betweenChallenges); err != nil {
			report.StopReason = StopCancelled
			break
		}

		if !s.next(ctx, logger) {
			report.StopReason = StopNoNext
			break
		}

		if err := s.pacer.Human(ctx, afterNavigation); err != nil {
			report.StopReason = StopCancelled
			break
		}
	}

	logger.Info("Batch finished",
		zap.String("stop_reason", report.StopReason),
		zap.Int("processed", report.Processed),
		zap.Float64("success_rate", report.SuccessRate()))

	return report, nil
}

// Stop asks a running batch to end after the current cycle.
func (s *BatchService) Stop() {
	if s.running.Load() {
		s.logger.Info("Stop requested, finishing the current challenge first")
	}

	s.stopping.Store(true)
}

func (s *BatchService) next(ctx context.Context, logger *zap.Logger) bool {
	match, ok := dom.First(ctx, s.page, pagemap.NextChallenge, dom.Actionable)
	if !ok {
		logger.Info("No next challenge control found")
		return false
	}

	if err := match.Element.Click(ctx); err != nil {
		if err := match.Element.ScriptClick(ctx); err != nil {
			logger.Warn("Next challenge click failed", zap.Error(err))
			return false
		}
	}

	logger.Info("Moved to the next challenge", zap.String(logg.Selector, match.Selector.String()))

	return true
}
