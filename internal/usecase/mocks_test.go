package usecase

import (
	"context"

	"challenge-replayer/internal/entity"

	"github.com/stretchr/testify/mock"
)

type guardMock struct{ mock.Mock }

func (m *guardMock) EnsureActive(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type locatorMock struct{ mock.Mock }

func (m *locatorMock) Locate(ctx context.Context) (*entity.LocateResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*entity.LocateResult)

	return res, args.Error(1)
}

func (m *locatorMock) Present(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

type extractorMock struct{ mock.Mock }

func (m *extractorMock) FromPage(ctx context.Context) (*entity.AcquiredSolution, error) {
	args := m.Called(ctx)
	sol, _ := args.Get(0).(*entity.AcquiredSolution)

	return sol, args.Error(1)
}

func (m *extractorMock) ProblemText(ctx context.Context) (string, error) {
	args := m.Called(ctx)

	return args.String(0), args.Error(1)
}

func (m *extractorMock) Generate(ctx context.Context, pageText string) (*entity.AcquiredSolution, error) {
	args := m.Called(ctx, pageText)
	sol, _ := args.Get(0).(*entity.AcquiredSolution)

	return sol, args.Error(1)
}

type replayerMock struct{ mock.Mock }

func (m *replayerMock) Replay(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}
