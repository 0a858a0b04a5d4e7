package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"NebenkostenConsole/internal/config"
	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/infrastructure/api"
	"NebenkostenConsole/internal/infrastructure/notify"
	"NebenkostenConsole/internal/infrastructure/scheduler"
	"NebenkostenConsole/internal/logging"
	"NebenkostenConsole/internal/observability"
	"NebenkostenConsole/internal/ports"
	"NebenkostenConsole/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *api.Client
	notifier ports.Notifier
	clock    clock.Clock
	shutdown observability.ShutdownFunc
}

// Options overrides process-level collaborators, mostly for tests.
type Options struct {
	// Out receives console notifications; defaults to stdout.
	Out io.Writer
	// TraceOut receives exported spans; defaults to stderr.
	TraceOut io.Writer
	Clock    clock.Clock
}

// New builds the backend client, notifiers and tracing from cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.TraceOut == nil {
		opts.TraceOut = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	shutdown := observability.InitTracing(ctx, cfg.Tracing, opts.TraceOut, logging.Component(baseLogger, "tracing"))

	notifiers := notify.Fanout{notify.NewConsole(opts.Out, logging.Component(baseLogger, "notify.console"))}
	if cfg.Notifications.Telegram.Enabled() {
		// the chat only mirrors outcomes, not progress chatter
		notifiers = append(notifiers, notify.MinLevel{
			Level:  domain.LevelSuccess,
			Target: notify.NewTelegram(cfg.Notifications.Telegram, logging.Component(baseLogger, "notify.telegram")),
		})
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		client:   api.NewClient(cfg.API, logging.Component(baseLogger, "api")),
		notifier: notifiers,
		clock:    opts.Clock,
		shutdown: shutdown,
	}
}

// Notifier exposes the configured notification fan-out.
func (a *Application) Notifier() ports.Notifier {
	return a.notifier
}

// NewWorkspace builds an unloaded workspace for scope with its own polling scheduler.
func (a *Application) NewWorkspace(scope usecase.Scope, onRedirect func(settlementID uuid.UUID)) (*usecase.Workspace, error) {
	sched, err := scheduler.NewCronScheduler(a.cfg.Polling.Schedule, a.clock)
	if err != nil {
		return nil, fmt.Errorf("polling schedule: %w", err)
	}

	return usecase.NewWorkspace(usecase.WorkspaceDeps{
		Documents:        a.client,
		Invoices:         a.client,
		Settlements:      a.client,
		Notifier:         a.notifier,
		Scheduler:        sched,
		Clock:            a.clock,
		Validator:        usecase.FileValidator{MaxBytes: a.cfg.Upload.MaxBytes()},
		FallbackCategory: domain.CostCategory(a.cfg.Review.FallbackCategory),
		RedirectDelay:    a.cfg.Navigation.RedirectDelay,
		OnRedirect:       onRedirect,
		Logger:           logging.Component(a.logger, "workspace"),
	}, scope), nil
}

// OpenWorkspace builds and loads a workspace.
func (a *Application) OpenWorkspace(ctx context.Context, scope usecase.Scope, onRedirect func(settlementID uuid.UUID)) (*usecase.Workspace, error) {
	ws, err := a.NewWorkspace(scope, onRedirect)
	if err != nil {
		return nil, err
	}
	if err := ws.Load(ctx); err != nil {
		return ws, err
	}
	return ws, nil
}

// Shutdown flushes pending spans.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	return a.shutdown(ctx)
}
