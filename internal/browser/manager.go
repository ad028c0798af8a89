package browser

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	browserManagerName = "BrowserManager"
	browserTracer      = "browser.manager"
)

var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--window-size=1366,900",
}

// Manager owns the single playwright browser session. It is the only
// place that creates or replaces the underlying handles; everything else
// talks to it through the ports interfaces.
type Manager struct {
	settings       *config.Settings
	logger         *zap.Logger
	tracer         trace.Tracer
	mu             sync.Mutex
	installed      bool
	playwright     *playwright.Playwright
	browser        playwright.Browser
	browserContext playwright.BrowserContext
	page           playwright.Page
	ready          bool
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewManager(params Params) *Manager {
	return &Manager{
		settings: params.Config.Settings,
		logger:   params.Logger.With(zap.String(logg.Layer, browserManagerName)),
		tracer:   otel.Tracer(browserTracer),
		ready:    false,
	}
}

func (m *Manager) Launch(ctx context.Context) (err error) {
	const op = "Launch"
	logger := m.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op,
		attribute.Bool("headless", m.settings.Headless),
		attribute.Bool("persistent", m.settings.ChromeProfilePath != ""))
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("Launching browser...")

	if !m.installed {
		step.AddEvent("installing playwright")

		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason: "playwright_install_failed",
				apperr.MetaStage:  apperr.StageSession,
			})
		}

		m.installed = true
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_start_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}
	m.playwright = pw

	if m.settings.ChromeProfilePath != "" {
		err = m.launchPersistent(ctx)
	} else {
		err = m.launchNew(ctx)
	}

	if err != nil {
		return err
	}

	m.page.SetDefaultTimeout(float64(m.settings.ElementTimeout().Milliseconds()))
	m.ready = true
	logger.Info("Browser launched successfully")

	return nil
}

func (m *Manager) launchPersistent(ctx context.Context) (err error) {
	const op = "launchPersistent"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	userDataDir := m.settings.ChromeProfilePath
	logger.Info("Launching persistent browser context", zap.String("profile", userDataDir))

	if err := os.MkdirAll(userDataDir, 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(m.settings.Headless),
		Viewport:          &playwright.Size{Width: 1366, Height: 900},
		JavaScriptEnabled: playwright.Bool(true),
		Args:              launchArgs,
		IgnoreDefaultArgs: []string{"--enable-automation"},
	}

	browserContext, err := m.playwright.Chromium.LaunchPersistentContext(userDataDir, options)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "launch_persistent_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	m.browserContext = browserContext

	if pages := browserContext.Pages(); len(pages) > 0 {
		m.page = pages[0]
		logger.Info("Using existing page")

		return nil
	}

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "new_page_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}
	m.page = page
	logger.Info("Created new page")

	return nil
}

func (m *Manager) launchNew(ctx context.Context) (err error) {
	const op = "launchNew"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	logger.Info("Launching new browser")

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless:          playwright.Bool(m.settings.Headless),
		Args:              launchArgs,
		IgnoreDefaultArgs: []string{"--enable-automation"},
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "browser_launch_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}
	m.browser = browser

	browserContext, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1366, Height: 900},
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "context_create_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}
	m.browserContext = browserContext

	page, err := browserContext.NewPage()
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "page_create_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}
	m.page = page

	return nil
}

// Close tears the whole session down. Individual failures are logged and
// the remaining handles are still released.
func (m *Manager) Close(ctx context.Context) (err error) {
	const op = "Close"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	logger.Info("Closing browser...")
	m.ready = false

	var errs []error

	if m.browserContext != nil {
		if err := m.browserContext.Close(); err != nil {
			logger.Warn("Failed to close context", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			logger.Warn("Failed to close browser", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			logger.Warn("Failed to stop playwright", zap.Error(err))
			errs = append(errs, err)
		}
	}

	m.page = nil
	m.browserContext = nil
	m.browser = nil
	m.playwright = nil

	if len(errs) > 0 {
		return apperr.Wrap(op, apperr.CodeInternal, errors.Join(errs...), map[string]any{
			apperr.MetaReason: "close_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	logger.Info("Browser closed")

	return nil
}

// Ping probes the session with two cheap reads: the page title through the
// driver and the live document address through a script.
func (m *Manager) Ping(ctx context.Context) error {
	const op = "Ping"

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready || m.page == nil {
		return apperr.WrapErrorWithReason(op, apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if m.page.IsClosed() {
		return apperr.WrapErrorWithReason(op, apperr.CodeSessionDead, "page_closed")
	}

	if _, err := m.page.Title(); err != nil {
		return apperr.Wrap(op, apperr.CodeSessionDead, err, map[string]any{
			apperr.MetaReason: "title_probe_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	href, err := m.page.Evaluate(locationScript)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeSessionDead, err, map[string]any{
			apperr.MetaReason: "location_probe_failed",
			apperr.MetaStage:  apperr.StageSession,
		})
	}

	m.logger.Debug("Session alive", zap.String(logg.Operation, op), zap.Any(logg.URL, href))

	return ctx.Err()
}

func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

func (m *Manager) Headless() bool {
	return m.settings.Headless
}

func (m *Manager) activePage(ctx context.Context) (playwright.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap("activePage", apperr.CodeCancelled, err, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready || m.page == nil {
		return nil, apperr.WrapErrorWithReason("activePage", apperr.CodeBrowserNotReady, "browser_not_ready")
	}

	if m.page.IsClosed() {
		if err := m.reattachPage(); err != nil {
			return nil, apperr.Wrap("activePage", apperr.CodeSessionDead, err, map[string]any{
				apperr.MetaReason: "page_not_active",
			})
		}
	}

	return m.page, nil
}

// reattachPage switches to another open tab of the same context when the
// operator closed the one we were driving.
func (m *Manager) reattachPage() error {
	if m.browserContext == nil {
		return fmt.Errorf("browser context is nil")
	}

	for _, p := range m.browserContext.Pages() {
		if !p.IsClosed() {
			m.page = p
			m.logger.Info("Reconnected to existing page", zap.String(logg.URL, p.URL()))

			return nil
		}
	}

	return fmt.Errorf("no open pages left")
}

func (m *Manager) QueryAll(ctx context.Context, selector entity.Selector) ([]ports.Element, error) {
	const op = "QueryAll"

	page, err := m.activePage(ctx)
	if err != nil {
		return nil, err
	}

	rendered, err := playwrightSelector(selector)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason:   "invalid_selector",
			apperr.MetaSelector: selector.String(),
		})
	}

	handles, err := page.QuerySelectorAll(rendered)
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeNotFound, err, map[string]any{
			apperr.MetaReason:   "query_failed",
			apperr.MetaSelector: selector.String(),
		})
	}

	elements := make([]ports.Element, 0, len(handles))
	for _, handle := range handles {
		if handle == nil {
			continue
		}

		elements = append(elements, &element{handle: handle})
	}

	return elements, nil
}

func (m *Manager) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	const op = "Evaluate"

	page, err := m.activePage(ctx)
	if err != nil {
		return nil, err
	}

	var result any
	if arg == nil {
		result, err = page.Evaluate(script)
	} else {
		result, err = page.Evaluate(script, arg)
	}

	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "evaluate_failed",
		})
	}

	return result, nil
}

func (m *Manager) BodyText(ctx context.Context) (string, error) {
	const op = "BodyText"

	result, err := m.Evaluate(ctx, bodyTextScript, nil)
	if err != nil {
		return "", err
	}

	return scriptText(op, result)
}

// scriptText accepts the result of a text-returning script. A missing body
// evaluates to null and reads as empty.
func scriptText(op string, result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", apperr.Wrap(op, apperr.CodeInternal, fmt.Errorf("script returned %T", result), map[string]any{
			apperr.MetaReason: "unexpected_result_type",
		})
	}
}

// playwrightSelector renders a selector with the explicit engine prefix
// playwright expects (css=, xpath=, text=).
func playwrightSelector(selector entity.Selector) (string, error) {
	switch selector.Kind {
	case entity.SelectorCSS, entity.SelectorXPath, entity.SelectorText:
	default:
		return "", fmt.Errorf("unknown selector kind %q", selector.Kind)
	}

	if strings.TrimSpace(selector.Value) == "" {
		return "", fmt.Errorf("empty %s selector", selector.Kind)
	}

	return selector.String(), nil
}

func (m *Manager) Type(ctx context.Context, text string) error {
	const op = "Type"

	page, err := m.activePage(ctx)
	if err != nil {
		return err
	}

	if err := page.Keyboard().Type(text); err != nil {
		return apperr.Wrap(op, apperr.CodeReplayFailed, err, map[string]any{
			apperr.MetaReason: "keyboard_type_failed",
			apperr.MetaStage:  apperr.StageReplay,
		})
	}

	return nil
}

func (m *Manager) Press(ctx context.Context, key string) error {
	const op = "Press"

	page, err := m.activePage(ctx)
	if err != nil {
		return err
	}

	if err := page.Keyboard().Press(key); err != nil {
		return apperr.Wrap(op, apperr.CodeReplayFailed, err, map[string]any{
			apperr.MetaReason: "keyboard_press_failed",
			apperr.MetaStage:  apperr.StageReplay,
			"key":             key,
		})
	}

	return nil
}
