package bootstrap

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/console"
	"challenge-replayer/internal/ports"
	"challenge-replayer/internal/usecase"
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type sessionParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Console   *console.Interface
	Browser   ports.BrowserManager
	Usecase   *usecase.Service
	Config    *config.Config
	Logger    *zap.Logger
}

// runSession opens the browser before the operator gets a prompt and
// closes it after the console loop has returned.
func runSession(params sessionParams) {
	logger := params.Logger.Named("session")
	settings := params.Config.Settings

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Launching browser",
				zap.Bool("headless", settings.Headless),
				zap.String("profile", settings.ChromeProfilePath),
				zap.String("replay_mode", string(settings.Mode())))

			if err := params.Browser.Launch(ctx); err != nil {
				logger.Error("Failed to launch browser", zap.Error(err))

				return err
			}

			logger.Info("Browser launched, open a challenge page to begin")

			go func() {
				if err := params.Console.Start(); err != nil {
					logger.Error("Console stopped with error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := params.Console.Stop(); err != nil {
				logger.Error("Failed to stop console", zap.Error(err))
			}

			stats := params.Usecase.Cycle.Stats()
			logger.Info("Session finished",
				zap.Int64("solved", stats.Solved()),
				zap.Int64("failed", stats.Failed()),
				zap.Float64("success_rate", stats.SuccessRate()))

			if err := params.Browser.Close(ctx); err != nil {
				logger.Error("Failed to close browser", zap.Error(err))
			}

			return nil
		},
	})
}
