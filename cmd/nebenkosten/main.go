package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/app"
	"NebenkostenConsole/internal/config"
	"NebenkostenConsole/internal/logging"
	"NebenkostenConsole/internal/usecase"
)

const usage = `usage: nebenkosten <command> [flags]

commands:
  documents  list documents of a settlement (-include/-exclude/-delete ID)
  upload     upload files to a settlement or unit settlement
  process    start OCR for a document (-watch to follow it)
  watch      refresh until no document is processing
  review     review the OCR result of a document and create an invoice
  invoices   list invoices (-verify ID)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	application := app.New(ctx, cfg, logger, app.Options{})

	err := run(ctx, application, os.Args[1], os.Args[2:], os.Stdout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("tracing shutdown failed", "error", shutdownErr)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.Application, command string, args []string, out io.Writer) error {
	switch command {
	case "documents":
		return runDocuments(ctx, application, args, out)
	case "upload":
		return runUpload(ctx, application, args, out)
	case "process":
		return runProcess(ctx, application, args, out)
	case "watch":
		return runWatch(ctx, application, args, out)
	case "review":
		return runReview(ctx, application, args, out)
	case "invoices":
		return runInvoices(ctx, application, args, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// scopeFlags are shared by every command that opens a workspace.
type scopeFlags struct {
	settlement     string
	unitSettlement string
}

func (s *scopeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.settlement, "settlement", "", "settlement id")
	fs.StringVar(&s.unitSettlement, "unit-settlement", "", "unit settlement id (optional)")
}

func (s *scopeFlags) scope() (usecase.Scope, error) {
	settlementID, err := uuid.Parse(s.settlement)
	if err != nil {
		return usecase.Scope{}, fmt.Errorf("-settlement: %w", err)
	}
	scope := usecase.Scope{SettlementID: settlementID}
	if s.unitSettlement != "" {
		id, err := uuid.Parse(s.unitSettlement)
		if err != nil {
			return usecase.Scope{}, fmt.Errorf("-unit-settlement: %w", err)
		}
		scope.UnitSettlementID = &id
	}
	return scope, nil
}

// openWorkspace loads the scope. When the unit settlement is gone it waits for
// the redirect and reports the settlement to go back to.
func openWorkspace(ctx context.Context, application *app.Application, sf scopeFlags, out io.Writer) (*usecase.Workspace, error) {
	scope, err := sf.scope()
	if err != nil {
		return nil, err
	}

	redirected := make(chan uuid.UUID, 1)
	ws, err := application.OpenWorkspace(ctx, scope, func(settlementID uuid.UUID) {
		redirected <- settlementID
	})
	if errors.Is(err, usecase.ErrUnitSettlementGone) {
		select {
		case id := <-redirected:
			fmt.Fprintf(out, "Weiter zur Abrechnung %s\n", id)
		case <-ctx.Done():
		}
		_ = ws.Close(context.Background())
		return nil, err
	}
	if err != nil {
		if ws != nil {
			_ = ws.Close(context.Background())
		}
		return nil, err
	}
	return ws, nil
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("-%s: %w", name, err)
	}
	return id, nil
}
