package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/usecase"
	"challenge-replayer/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cycleStub struct {
	stats entity.Stats
	err   error
	calls int
}

func (c *cycleStub) SolveCurrent(context.Context) (*entity.Cycle, error) {
	c.calls++
	cycle := entity.NewCycle()

	if c.err != nil {
		cycle.Fail(c.err)
		c.stats.Record(false)

		return cycle, c.err
	}

	cycle.Provenance = entity.ProvenancePage
	cycle.PanelConfirmed = true
	cycle.Chars = 42
	cycle.Advance(entity.CycleStateDone)
	c.stats.Record(true)

	return cycle, nil
}

func (c *cycleStub) Stats() *entity.Stats {
	return &c.stats
}

type batchStub struct {
	limits []int
	stops  int
}

func (b *batchStub) Run(_ context.Context, limit int) (*entity.BatchReport, error) {
	b.limits = append(b.limits, limit)
	now := time.Now()

	return &entity.BatchReport{Processed: 2, Solved: 1, Failed: 1, StopReason: "max_reached", StartedAt: now, CompletedAt: now}, nil
}

func (b *batchStub) Stop() {
	b.stops++
}

type diagnosticsStub struct{}

func (diagnosticsStub) Run(context.Context) *entity.DiagnosticReport {
	report := &entity.DiagnosticReport{}
	report.Add("settings_file", true, "config.json")
	report.Add("model_server", false, "connection refused")

	return report
}

func newConsole(input string, cycles *cycleStub, batch *batchStub) (*Interface, *bytes.Buffer) {
	var out bytes.Buffer

	uc := &usecase.Service{Cycle: cycles, Batch: batch, Diagnostics: diagnosticsStub{}}
	cfg := &config.Config{Settings: &config.Settings{}}

	return New(cfg, uc, nil, strings.NewReader(input), &out, zap.NewNop()), &out
}

func TestLoopSolvesOnEmptyLine(t *testing.T) {
	cycles := &cycleStub{}
	c, out := newConsole("\nsolve\nq\nsolve\n", cycles, &batchStub{})

	require.NoError(t, c.Loop(context.Background()))

	assert.Equal(t, 2, cycles.calls)
	assert.Contains(t, out.String(), "Solution typed (page, 42 chars)")
	assert.Contains(t, out.String(), "solved 2, failed 0")
	assert.Contains(t, out.String(), "Shutting down")
}

func TestLoopReportsFailure(t *testing.T) {
	cycles := &cycleStub{err: apperr.WrapErrorWithReason("generate", apperr.CodeDeclinedByUser, "model_declined")}
	c, out := newConsole("s\n", cycles, &batchStub{})

	require.NoError(t, c.Loop(context.Background()))

	assert.Contains(t, out.String(), "Failed: model fallback declined")
	assert.Contains(t, out.String(), "solved 0, failed 1")
}

func TestLoopBatch(t *testing.T) {
	batch := &batchStub{}
	c, out := newConsole("batch\nbatch 4\nb x\n", &cycleStub{}, batch)

	require.NoError(t, c.Loop(context.Background()))

	assert.Equal(t, []int{0, 4}, batch.limits)
	assert.Contains(t, out.String(), "processed 2, solved 1, failed 1, success rate 50.0%")
	assert.Contains(t, out.String(), "batch size must be a positive number")
}

func TestLoopCheckAndUnknown(t *testing.T) {
	c, out := newConsole("check\nfrobnicate\nstats\nhelp\n", &cycleStub{}, &batchStub{})

	require.NoError(t, c.Loop(context.Background()))

	text := out.String()
	assert.Contains(t, text, "settings_file")
	assert.Contains(t, text, "connection refused")
	assert.Contains(t, text, "Some checks failed")
	assert.Contains(t, text, `unknown command "frobnicate"`)
	assert.Contains(t, text, "batch [n]")
}

func TestStopCancelsRunningCommand(t *testing.T) {
	batch := &batchStub{}
	c, _ := newConsole("", &cycleStub{}, batch)

	ctx, end := c.begin(context.Background())
	defer end()

	require.NoError(t, c.Stop())

	assert.Error(t, ctx.Err())
	assert.Equal(t, 1, batch.stops)
	assert.NoError(t, c.Stop())
}
