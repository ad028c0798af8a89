package usecase

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/diagnostics"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/ports"
	"challenge-replayer/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Cycle       adapters.CycleService
	Batch       adapters.BatchService
	Diagnostics adapters.DiagnosticsService
}

type Params struct {
	fx.In

	Logger      *zap.Logger
	Config      *config.Config
	Browser     ports.BrowserManager
	Pacer       *pacing.Pacer
	Guard       ports.Guard
	Locator     ports.Locator
	Extractor   ports.Extractor
	Replayer    ports.Replayer
	Prompter    ports.Prompter
	Diagnostics *diagnostics.Checker
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)
	cycle := factory.CreateCycleService()

	return &Service{
		Cycle:       cycle,
		Batch:       factory.CreateBatchService(cycle),
		Diagnostics: factory.CreateDiagnosticsService(),
	}
}
