package usecase

import (
	"challenge-replayer/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateCycleService() *CycleService {
	return NewCycleService(CycleServiceParams{
		Guard:     f.deps.Guard,
		Locator:   f.deps.Locator,
		Extractor: f.deps.Extractor,
		Replayer:  f.deps.Replayer,
		Prompter:  f.deps.Prompter,
		Browser:   f.deps.Browser,
		Pacer:     f.deps.Pacer,
		Config:    f.deps.Config,
		Logger:    f.deps.Logger,
	})
}

func (f *serviceFactory) CreateBatchService(cycles CycleRunner) adapters.BatchService {
	return NewBatchService(BatchServiceParams{
		Browser: f.deps.Browser,
		Pacer:   f.deps.Pacer,
		Config:  f.deps.Config,
		Logger:  f.deps.Logger,
	}, cycles)
}

func (f *serviceFactory) CreateDiagnosticsService() adapters.DiagnosticsService {
	return f.deps.Diagnostics
}
