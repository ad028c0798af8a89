package adapters

import (
	"challenge-replayer/internal/entity"
	"context"
)

type CycleService interface {
	SolveCurrent(ctx context.Context) (*entity.Cycle, error)
	Stats() *entity.Stats
}

type BatchService interface {
	Run(ctx context.Context, limit int) (*entity.BatchReport, error)
	Stop()
}

type DiagnosticsService interface {
	Run(ctx context.Context) *entity.DiagnosticReport
}
