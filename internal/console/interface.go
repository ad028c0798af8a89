package console

import (
	"bufio"
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/usecase"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	infoMark = color.New(color.FgCyan).SprintFunc()
	dim      = color.New(color.FgHiBlack).SprintFunc()
	bold     = color.New(color.Bold).SprintFunc()
)

type Interface struct {
	config     *config.Config
	logger     *zap.Logger
	usecase    *usecase.Service
	shutdowner fx.Shutdowner
	in         io.Reader
	out        io.Writer

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopping atomic.Bool
	sigChan  chan os.Signal
	done     chan struct{}
}

type Params struct {
	fx.In

	Config     *config.Config
	Logger     *zap.Logger
	Usecase    *usecase.Service
	Shutdowner fx.Shutdowner
}

func NewInterface(params Params) *Interface {
	return New(params.Config, params.Usecase, params.Shutdowner, os.Stdin, os.Stdout, params.Logger)
}

func New(cfg *config.Config, uc *usecase.Service, shutdowner fx.Shutdowner, in io.Reader, out io.Writer, logger *zap.Logger) *Interface {
	return &Interface{
		config:     cfg,
		logger:     logger.With(zap.String(logg.Layer, "Console")),
		usecase:    uc,
		shutdowner: shutdowner,
		in:         in,
		out:        out,
		sigChan:    make(chan os.Signal, 1),
		done:       make(chan struct{}),
	}
}

// Start runs the interactive loop until quit, end of input or shutdown.
func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGTERM)

	go i.watchSignals()

	err := i.Loop(context.Background())

	if !i.stopping.Load() && i.shutdowner != nil {
		if shutdownErr := i.shutdowner.Shutdown(); shutdownErr != nil {
			i.logger.Error("Shutdown failed", zap.Error(shutdownErr))
		}
	}

	return err
}

// Loop reads commands from the input until quit or end of input.
func (i *Interface) Loop(ctx context.Context) error {
	scanner := bufio.NewScanner(i.in)

	for !i.stopping.Load() {
		fmt.Fprint(i.out, "\n"+bold("> "))

		if !scanner.Scan() {
			break
		}

		if err := i.handleCommand(ctx, strings.TrimSpace(scanner.Text())); err != nil {
			if errors.Is(err, errExit) {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Fprintf(i.out, "%s %v\n", failMark("✘"), err)
		}
	}

	return scanner.Err()
}

// Stop ends the loop and cancels whatever command is running.
func (i *Interface) Stop() error {
	if !i.stopping.CompareAndSwap(false, true) {
		return nil
	}

	i.logger.Info("Stopping console interface...")

	signal.Stop(i.sigChan)
	close(i.done)
	i.interruptCurrent()

	return nil
}

func (i *Interface) watchSignals() {
	for {
		select {
		case <-i.done:
			return
		case <-i.sigChan:
			if i.interruptCurrent() {
				fmt.Fprintf(i.out, "\n%s Interrupt received, stopping the current task...\n", warnMark("!"))
				continue
			}

			fmt.Fprintf(i.out, "\n%s Interrupt received, shutting down...\n", warnMark("!"))

			if i.shutdowner != nil {
				_ = i.shutdowner.Shutdown()
			}

			return
		}
	}
}

// interruptCurrent cancels the running command, if any.
func (i *Interface) interruptCurrent() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cancel == nil {
		return false
	}

	i.cancel()
	i.cancel = nil
	i.usecase.Batch.Stop()

	return true
}

func (i *Interface) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	i.mu.Lock()
	i.cancel = cancel
	i.mu.Unlock()

	return ctx, func() {
		i.mu.Lock()
		i.cancel = nil
		i.mu.Unlock()
		cancel()
	}
}

func (i *Interface) handleCommand(ctx context.Context, input string) error {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return i.solve(ctx)
	}

	switch fields[0] {
	case "solve", "s":
		return i.solve(ctx)
	case "batch", "b":
		limit := 0

		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("batch size must be a positive number, got %q", fields[1])
			}

			limit = n
		}

		return i.batch(ctx, limit)
	case "stats":
		i.printStats()
		return nil
	case "check":
		return i.check(ctx)
	case "help", "h":
		i.printHelp()
		return nil
	case "exit", "quit", "q":
		fmt.Fprintln(i.out, "Shutting down...")
		return errExit
	default:
		return fmt.Errorf("unknown command %q, type help", input)
	}
}

func (i *Interface) solve(ctx context.Context) error {
	ctx, end := i.begin(ctx)
	defer end()

	fmt.Fprintf(i.out, "\n%s Solving the current challenge\n", infoMark("›"))
	fmt.Fprintln(i.out, dim(strings.Repeat("─", 52)))

	cycle, err := i.usecase.Cycle.SolveCurrent(ctx)
	i.printCycle(cycle, err)

	return nil
}

func (i *Interface) batch(ctx context.Context, limit int) error {
	ctx, end := i.begin(ctx)
	defer end()

	fmt.Fprintf(i.out, "\n%s Batch mode, press Ctrl+C to stop after the current challenge\n", infoMark("›"))

	report, err := i.usecase.Batch.Run(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(i.out, dim(strings.Repeat("─", 52)))
	fmt.Fprintf(i.out, "%s Batch finished (%s)\n", okMark("✔"), report.StopReason)
	fmt.Fprintf(i.out, "  processed %d, solved %d, failed %d, success rate %.1f%%\n",
		report.Processed, report.Solved, report.Failed, report.SuccessRate())
	fmt.Fprintf(i.out, "  took %s\n", report.CompletedAt.Sub(report.StartedAt).Round(time.Second))

	return nil
}

func (i *Interface) check(ctx context.Context) error {
	ctx, end := i.begin(ctx)
	defer end()

	report := i.usecase.Diagnostics.Run(ctx)

	for _, c := range report.Checks {
		mark := okMark("✔")
		if !c.Passed {
			mark = failMark("✘")
		}

		fmt.Fprintf(i.out, "%s %-16s %s\n", mark, c.Name, dim(c.Detail))
	}

	if report.Passed() {
		fmt.Fprintf(i.out, "\n%s All checks passed\n", okMark("✔"))
	} else {
		fmt.Fprintf(i.out, "\n%s Some checks failed\n", warnMark("!"))
	}

	return nil
}

func (i *Interface) printCycle(cycle *entity.Cycle, err error) {
	fmt.Fprintln(i.out, dim(strings.Repeat("─", 52)))

	if err == nil && cycle != nil && cycle.Succeeded() {
		fmt.Fprintf(i.out, "%s Solution typed (%s, %d chars)\n", okMark("✔"), cycle.Provenance, cycle.Chars)

		if !cycle.PanelConfirmed && cycle.Provenance == entity.ProvenancePage {
			fmt.Fprintf(i.out, "%s The solution panel was not confirmed, check the typed code\n", warnMark("!"))
		}

		if cycle.CompileError != "" {
			fmt.Fprintf(i.out, "%s Compiler says: %s\n", warnMark("!"), cycle.CompileError)
		}

		i.printStats()

		return
	}

	fmt.Fprintf(i.out, "%s Failed: %s\n", failMark("✘"), describe(err))
	i.printStats()
}

func (i *Interface) printStats() {
	stats := i.usecase.Cycle.Stats()
	fmt.Fprintf(i.out, "%s solved %d, failed %d, success rate %.1f%%\n",
		infoMark("Σ"), stats.Solved(), stats.Failed(), stats.SuccessRate())
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		if apperr.ReasonOf(err) == "no_reveal_control" {
			return "no View Solution control on this page and the model fallback is disabled"
		}
	case apperr.CodeDeclinedByUser:
		return "model fallback declined"
	case apperr.CodeCancelled:
		return "cancelled"
	case apperr.CodeSessionDead:
		return "browser session could not be restored: " + err.Error()
	}

	return err.Error()
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════╗
║                                                   ║
║               challenge-replayer                  ║
║                                                   ║
║   reveal, extract and re-type challenge solutions ║
║                                                   ║
╚═══════════════════════════════════════════════════╝`
	fmt.Fprintln(i.out, banner)
	fmt.Fprintf(i.out, "settings: %s, replay mode: %s, model fallback: %t\n",
		i.config.Settings.Path(), i.config.Settings.Mode(), i.config.Settings.OllamaEnabled)
}

func (i *Interface) printHelp() {
	help := `
Open a challenge in the browser window, then:
  <Enter>, solve, s   - solve the challenge that is open now
  batch [n], b [n]    - solve up to n challenges in a row (default from settings)
  stats               - show solved/failed counters
  check               - run the self checks
  help, h             - show this help message
  exit, quit, q       - exit the application

Ctrl+C stops the running task; press it again at the prompt to quit.`
	fmt.Fprintln(i.out, help)
}
