package diagnostics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports/portstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type locatorStub struct {
	present bool
}

func (l locatorStub) Locate(context.Context) (*entity.LocateResult, error) {
	return &entity.LocateResult{}, nil
}

func (l locatorStub) Present(context.Context) bool {
	return l.present
}

type browserStub struct {
	*portstest.Session
	*portstest.Page
	*portstest.Keyboard
}

func newChecker(t *testing.T, settings *config.Settings, session *portstest.Session, model *portstest.ModelClient) *Checker {
	t.Helper()

	return NewChecker(Params{
		Config:  &config.Config{Settings: settings},
		Session: browserStub{Session: session, Page: portstest.NewPage(), Keyboard: &portstest.Keyboard{}},
		Locator: locatorStub{present: true},
		Model:   model,
		Logger:  zap.NewNop(),
	})
}

func byName(report *entity.DiagnosticReport) map[string]entity.DiagnosticCheck {
	out := map[string]entity.DiagnosticCheck{}
	for _, c := range report.Checks {
		out[c.Name] = c
	}

	return out
}

func TestCheckerAllPassing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	model := &portstest.ModelClient{Models: []entity.ModelInfo{{Name: "codellama:latest"}, {Name: "llama3:8b"}}}
	c := newChecker(t, &config.Settings{OllamaEnabled: true, OllamaModel: "codellama"}, &portstest.Session{}, model)
	c.settingsPath = path

	report := c.Run(context.Background())
	checks := byName(report)

	assert.True(t, report.Passed())
	assert.Len(t, report.Checks, 5)
	assert.Contains(t, checks[CheckModel].Detail, "codellama:latest")
	assert.Contains(t, checks[CheckControl].Detail, "present")
}

func TestCheckerReportsFailures(t *testing.T) {
	session := &portstest.Session{PingErr: errors.New("target closed")}
	model := &portstest.ModelClient{Err: errors.New("connection refused")}
	c := newChecker(t, &config.Settings{OllamaEnabled: true, OllamaModel: "codellama"}, session, model)
	c.settingsPath = filepath.Join(t.TempDir(), "missing.json")

	report := c.Run(context.Background())
	checks := byName(report)

	assert.False(t, report.Passed())
	assert.False(t, checks[CheckSettings].Passed)
	assert.True(t, checks[CheckExpression].Passed)
	assert.False(t, checks[CheckBrowser].Passed)
	assert.NotContains(t, checks, CheckControl)
	assert.False(t, checks[CheckModel].Passed)
}

func TestCheckerModelDisabledTolerated(t *testing.T) {
	model := &portstest.ModelClient{Err: errors.New("connection refused")}
	c := newChecker(t, &config.Settings{OllamaEnabled: false}, &portstest.Session{}, model)

	checks := byName(c.Run(context.Background()))

	assert.True(t, checks[CheckModel].Passed)
}

func TestCheckerMissingModel(t *testing.T) {
	model := &portstest.ModelClient{Models: []entity.ModelInfo{{Name: "llama3:8b"}}}
	c := newChecker(t, &config.Settings{OllamaEnabled: true, OllamaModel: "codellama"}, &portstest.Session{}, model)

	checks := byName(c.Run(context.Background()))

	assert.False(t, checks[CheckModel].Passed)
	assert.Contains(t, checks[CheckModel].Detail, "not installed")
}
