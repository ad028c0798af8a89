package bootstrap

import (
	"challenge-replayer/internal/ai"
	"challenge-replayer/internal/browser"
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/console"
	"challenge-replayer/internal/diagnostics"
	"challenge-replayer/internal/extract"
	"challenge-replayer/internal/locator"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/ports"
	"challenge-replayer/internal/prompt"
	"challenge-replayer/internal/replay"
	"challenge-replayer/internal/session"
	"challenge-replayer/internal/usecase"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager))),
			fx.Annotate(ai.NewClient, fx.As(new(ports.ModelClient))),
			fx.Annotate(prompt.NewPrompter, fx.As(new(ports.Prompter))),
			fx.Annotate(prompt.NewRecoveryPrompter, fx.ResultTags(`name:"recovery"`)),
			pacing.New,

			fx.Annotate(session.NewGuard, fx.As(new(ports.Guard))),
			fx.Annotate(locator.NewLocator, fx.As(new(ports.Locator))),
			fx.Annotate(extract.NewExtractor, fx.As(new(ports.Extractor))),
			fx.Annotate(replay.NewReplayer, fx.As(new(ports.Replayer))),

			diagnostics.NewChecker,
			usecase.NewUsecase,

			console.NewInterface,
		),

		telemetry(),

		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)

			return l
		}),

		fx.Invoke(
			runSession,
		),

		fx.StartTimeout(2*time.Minute),
	)
}
