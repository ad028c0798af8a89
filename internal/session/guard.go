package session

import (
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	guardName   = "SessionGuard"
	guardTracer = "session.guard"

	recoveryTitle = "Browser session was lost"
	recoveryBody  = "A new browser window has been opened.\n" +
		"Navigate back to the challenge page in that window first, then confirm here to continue."
)

type Guard struct {
	session  ports.Session
	prompter ports.Prompter
	logger   *zap.Logger
	tracer   trace.Tracer
}

type Params struct {
	fx.In

	Session  ports.BrowserManager
	Prompter ports.Prompter `name:"recovery"`
	Logger   *zap.Logger
}

func NewGuard(params Params) *Guard {
	return New(params.Session, params.Prompter, params.Logger)
}

func New(session ports.Session, prompter ports.Prompter, logger *zap.Logger) *Guard {
	return &Guard{
		session:  session,
		prompter: prompter,
		logger:   logger.With(zap.String(logg.Layer, guardName)),
		tracer:   otel.Tracer(guardTracer),
	}
}

// EnsureActive probes the session and, if it is dead, relaunches it once and
// waits for the operator to restore the page. The only failure reported is
// a relaunch that itself fails.
func (g *Guard) EnsureActive(ctx context.Context) (err error) {
	const op = "EnsureActive"
	logger := g.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, g.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	probeErr := g.session.Ping(ctx)
	if probeErr == nil {
		return nil
	}

	if ctx.Err() != nil {
		return apperr.Wrap(op, apperr.CodeCancelled, ctx.Err(), nil)
	}

	logger.Warn("Session lost, attempting recovery...", zap.Error(probeErr))
	step.AddEvent("closing dead session")

	if closeErr := g.session.Close(ctx); closeErr != nil {
		logger.Debug("Ignoring close error on dead session", zap.Error(closeErr))
	}

	step.AddEvent("relaunching session")

	if err := g.session.Launch(ctx); err != nil {
		logger.Error("Session recovery failed", zap.Error(err))

		return apperr.Wrap(op, apperr.CodeSessionDead, err, map[string]any{
			apperr.MetaReason: "relaunch_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	step.AddEvent("waiting for operator")

	if _, promptErr := g.prompter.Confirm(ctx, recoveryTitle, recoveryBody); promptErr != nil {
		logger.Warn("Recovery prompt unavailable", zap.Error(promptErr))
	}

	if err := g.session.Ping(ctx); err != nil {
		logger.Warn("Session still not answering after recovery", zap.Error(err))
	} else {
		logger.Info("Session recovered")
	}

	return nil
}
