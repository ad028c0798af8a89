// Package diagnostics runs the self checks behind the console "check"
// command.
package diagnostics

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	checkerName   = "Diagnostics"
	checkerTracer = "diagnostics"

	CheckSettings   = "settings_file"
	CheckExpression = "expression"
	CheckBrowser    = "browser_session"
	CheckControl    = "reveal_control"
	CheckModel      = "model_server"
)

var selfTests = []struct {
	expr string
	want int
}{
	{"15+23", 38},
	{"42 - 17", 25},
	{"8 * 9", 72},
	{"100/4", 25},
}

type Checker struct {
	settingsPath string
	modelEnabled bool
	modelName    string
	session      ports.Session
	locator      ports.Locator
	model        ports.ModelClient
	logger       *zap.Logger
	tracer       trace.Tracer
}

type Params struct {
	fx.In

	Config  *config.Config
	Session ports.BrowserManager
	Locator ports.Locator
	Model   ports.ModelClient
	Logger  *zap.Logger
}

func NewChecker(params Params) *Checker {
	settings := params.Config.Settings

	return &Checker{
		settingsPath: settings.Path(),
		modelEnabled: settings.OllamaEnabled,
		modelName:    settings.OllamaModel,
		session:      params.Session,
		locator:      params.Locator,
		model:        params.Model,
		logger:       params.Logger.With(zap.String(logg.Layer, checkerName)),
		tracer:       otel.Tracer(checkerTracer),
	}
}

// Run executes every check; a failing check never stops the others.
func (c *Checker) Run(ctx context.Context) *entity.DiagnosticReport {
	const op = "Run"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op)
	report := &entity.DiagnosticReport{}

	defer func() {
		step.End(nil)
	}()

	c.checkSettings(report)
	c.checkExpressions(report)
	c.checkBrowser(ctx, report)
	c.checkModel(ctx, report)

	for _, check := range report.Checks {
		logger.Info("Diagnostic check",
			zap.String("check", check.Name),
			zap.Bool("passed", check.Passed),
			zap.String("detail", check.Detail))
	}

	return report
}

func (c *Checker) checkSettings(report *entity.DiagnosticReport) {
	if _, err := os.Stat(c.settingsPath); err != nil {
		report.Add(CheckSettings, false, fmt.Sprintf("%s: %v", c.settingsPath, err))
		return
	}

	report.Add(CheckSettings, true, c.settingsPath)
}

func (c *Checker) checkExpressions(report *entity.DiagnosticReport) {
	var failed []string

	for _, tt := range selfTests {
		got, err := EvaluateExpression(tt.expr)
		if err != nil || got != tt.want {
			failed = append(failed, fmt.Sprintf("%s = %d (want %d)", tt.expr, got, tt.want))
		}
	}

	if len(failed) > 0 {
		report.Add(CheckExpression, false, strings.Join(failed, "; "))
		return
	}

	report.Add(CheckExpression, true, fmt.Sprintf("%d expressions correct", len(selfTests)))
}

func (c *Checker) checkBrowser(ctx context.Context, report *entity.DiagnosticReport) {
	if err := c.session.Ping(ctx); err != nil {
		report.Add(CheckBrowser, false, err.Error())
		return
	}

	report.Add(CheckBrowser, true, "page responsive")

	if c.locator.Present(ctx) {
		report.Add(CheckControl, true, "View Solution control present on the current page")
	} else {
		report.Add(CheckControl, true, "no View Solution control on the current page")
	}
}

func (c *Checker) checkModel(ctx context.Context, report *entity.DiagnosticReport) {
	models, err := c.model.ListModels(ctx)
	if err != nil {
		if !c.modelEnabled {
			report.Add(CheckModel, true, "model fallback disabled, server not reachable")
			return
		}

		report.Add(CheckModel, false, err.Error())

		return
	}

	names := make([]string, 0, len(models))
	installed := false

	for _, m := range models {
		names = append(names, m.Name)

		if m.Name == c.modelName || strings.HasPrefix(m.Name, c.modelName+":") {
			installed = true
		}
	}

	detail := fmt.Sprintf("%d models: %s", len(models), strings.Join(names, ", "))

	if c.modelEnabled && !installed {
		report.Add(CheckModel, false, fmt.Sprintf("model %q not installed; %s", c.modelName, detail))
		return
	}

	report.Add(CheckModel, true, detail)
}
