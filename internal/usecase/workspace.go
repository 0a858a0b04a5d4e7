package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// DefaultRedirectDelay is how long a not-found message stays before navigating away.
const DefaultRedirectDelay = 2 * time.Second

// ErrUnitSettlementGone is returned by Load when the unit settlement no longer exists.
var ErrUnitSettlementGone = errors.New("unit settlement not found")

// Scope selects the page a workspace backs.
type Scope struct {
	SettlementID     uuid.UUID
	UnitSettlementID *uuid.UUID
}

// WorkspaceDeps wires a settlement workspace.
type WorkspaceDeps struct {
	Documents   ports.DocumentService
	Invoices    ports.InvoiceService
	Settlements ports.SettlementService
	Notifier    ports.Notifier
	Scheduler   ports.Scheduler
	Clock       clock.Clock

	Validator        FileValidator
	FallbackCategory domain.CostCategory
	RedirectDelay    time.Duration
	// OnRedirect navigates back to the parent settlement.
	OnRedirect func(settlementID uuid.UUID)
	Logger     *slog.Logger
}

// WorkspaceView is a consistent copy of everything a settlement page shows.
type WorkspaceView struct {
	Settlement     domain.Settlement
	UnitSettlement *domain.UnitSettlement
	Documents      []domain.Document
	Invoices       []domain.Invoice
	Linked         map[uuid.UUID]struct{}
	// Partition is only set for a unit-settlement scope.
	Partition  *Partition
	Allocation domain.DefaultAllocation
	Polling    bool
}

// HasInvoice reports whether the document already backs an invoice.
func (v WorkspaceView) HasInvoice(documentID uuid.UUID) bool {
	_, ok := v.Linked[documentID]
	return ok
}

// Workspace keeps the documents and invoices of one settlement page fresh and
// hosts the upload, review and document actions.
type Workspace struct {
	documents   ports.DocumentService
	invoices    ports.InvoiceService
	settlements ports.SettlementService
	notifier    ports.Notifier
	clock       clock.Clock
	delay       time.Duration
	onRedirect  func(uuid.UUID)
	logger      *slog.Logger

	scope    Scope
	poller   *ProcessingPoller[domain.Document]
	uploader *Uploader
	review   *ReviewController
	flight   singleflight.Group

	mu       sync.Mutex
	base     context.Context
	view     WorkspaceView
	unitID   *uuid.UUID
	loaded   bool
	closed   bool
	redirect *clock.Timer
}

// NewWorkspace builds a workspace for scope. Nothing is fetched until Load.
func NewWorkspace(deps WorkspaceDeps, scope Scope) *Workspace {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	delay := deps.RedirectDelay
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}

	w := &Workspace{
		documents:   deps.Documents,
		invoices:    deps.Invoices,
		settlements: deps.Settlements,
		notifier:    deps.Notifier,
		clock:       clk,
		delay:       delay,
		onRedirect:  deps.OnRedirect,
		logger:      logger,
		scope:       scope,
		view:        WorkspaceView{Linked: map[uuid.UUID]struct{}{}},
	}

	w.poller = NewProcessingPoller[domain.Document](deps.Scheduler, logger.With("component", "poller"),
		w.pollDocuments,
		w.pollInvoices,
	)
	w.uploader = NewUploader(UploaderDeps{
		Documents:  deps.Documents,
		Notifier:   deps.Notifier,
		Validator:  deps.Validator,
		OnUploaded: func(ctx context.Context) { _ = w.RefreshDocuments(ctx) },
		Logger:     logger.With("component", "uploader"),
	})
	w.review = NewReviewController(ReviewDeps{
		Documents: deps.Documents,
		Invoices:  deps.Invoices,
		Notifier:  deps.Notifier,
		OnInvoiceCreated: func(ctx context.Context, _ domain.Invoice) {
			_ = w.RefreshInvoices(ctx)
		},
		FallbackCategory: deps.FallbackCategory,
		Logger:           logger.With("component", "review"),
	})
	return w
}

// Load resolves the scope and fetches settlement, documents, invoices and the
// default allocation in parallel. The refresh rounds started by polling run
// with ctx.
func (w *Workspace) Load(ctx context.Context) error {
	w.mu.Lock()
	w.base = ctx
	w.mu.Unlock()

	if w.scope.UnitSettlementID != nil {
		if err := w.resolveUnitSettlement(ctx, *w.scope.UnitSettlementID); err != nil {
			return err
		}
	}

	var (
		settlement domain.Settlement
		documents  []domain.Document
		invoices   []domain.Invoice
		allocation domain.DefaultAllocation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settlement, err = w.settlements.GetSettlement(gctx, w.scope.SettlementID)
		if err != nil {
			return fmt.Errorf("load settlement: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		documents, err = w.fetchDocuments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = w.fetchInvoices(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		allocation, err = w.invoices.DefaultAllocation(gctx, w.scope.SettlementID)
		if err != nil {
			return fmt.Errorf("load default allocation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		w.logger.Warn("load workspace failed", "settlement", w.scope.SettlementID, "error", err)
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Abrechnung konnte nicht geladen werden"))
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.view.Settlement = settlement
	w.view.Allocation = allocation
	w.loaded = true
	w.applyInvoices(invoices)
	return w.applyDocuments(documents)
}

func (w *Workspace) resolveUnitSettlement(ctx context.Context, id uuid.UUID) error {
	us, err := w.settlements.GetUnitSettlement(ctx, id)
	if err != nil {
		if isNotFound(err) {
			w.logger.Warn("unit settlement gone, redirecting", "unit_settlement", id)
			w.notify(ctx, domain.LevelError, "Einzelabrechnung nicht gefunden",
				"Die Einzelabrechnung existiert nicht mehr, vermutlich wurde die Abrechnung neu berechnet. Sie werden zur Abrechnung weitergeleitet.")
			w.scheduleRedirect()
			return ErrUnitSettlementGone
		}
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Einzelabrechnung konnte nicht geladen werden"))
		return fmt.Errorf("load unit settlement: %w", err)
	}

	unitID := us.EffectiveUnitID()
	w.mu.Lock()
	w.view.UnitSettlement = &us
	w.unitID = &unitID
	w.mu.Unlock()
	return nil
}

func (w *Workspace) scheduleRedirect() {
	w.mu.Lock()
	pending := w.closed || w.onRedirect == nil || w.redirect != nil
	w.mu.Unlock()
	if pending {
		return
	}

	settlementID := w.scope.SettlementID
	timer := w.clock.AfterFunc(w.delay, func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.onRedirect(settlementID)
		}
	})

	w.mu.Lock()
	w.redirect = timer
	w.mu.Unlock()
}

// RefreshDocuments reloads the document list; overlapping calls share one request.
func (w *Workspace) RefreshDocuments(ctx context.Context) error {
	_, err, _ := w.flight.Do("documents", func() (any, error) {
		documents, err := w.fetchDocuments(ctx)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return nil, nil
		}
		return nil, w.applyDocuments(documents)
	})
	if err != nil {
		w.logger.Warn("refresh documents failed", "error", err)
	}
	return err
}

// RefreshInvoices reloads invoices and recomputes the linkage set.
func (w *Workspace) RefreshInvoices(ctx context.Context) error {
	_, err, _ := w.flight.Do("invoices", func() (any, error) {
		invoices, err := w.fetchInvoices(ctx)
		if err != nil {
			return nil, err
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.closed {
			w.applyInvoices(invoices)
		}
		return nil, nil
	})
	if err != nil {
		w.logger.Warn("refresh invoices failed", "error", err)
	}
	return err
}

// Refresh reloads documents and invoices together.
func (w *Workspace) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.RefreshDocuments(gctx) })
	g.Go(func() error { return w.RefreshInvoices(gctx) })
	return g.Wait()
}

func (w *Workspace) pollDocuments(ctx context.Context) { _ = w.RefreshDocuments(ctx) }
func (w *Workspace) pollInvoices(ctx context.Context)  { _ = w.RefreshInvoices(ctx) }

func (w *Workspace) fetchDocuments(ctx context.Context) ([]domain.Document, error) {
	var (
		documents []domain.Document
		err       error
	)
	if w.scope.UnitSettlementID != nil {
		documents, err = w.documents.ListUnitSettlementDocuments(ctx, *w.scope.UnitSettlementID)
	} else {
		documents, err = w.documents.ListSettlementDocuments(ctx, w.scope.SettlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

func (w *Workspace) fetchInvoices(ctx context.Context) ([]domain.Invoice, error) {
	query := domain.InvoiceQuery{SettlementID: w.scope.SettlementID}
	w.mu.Lock()
	if w.unitID != nil {
		unitID := *w.unitID
		query.UnitID = &unitID
		query.IncludeSettlementWide = true
	}
	w.mu.Unlock()

	invoices, err := w.invoices.ListInvoices(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// applyDocuments must be called with mu held. Polling is bound to the
// context of Load, not to the request that delivered the documents.
func (w *Workspace) applyDocuments(documents []domain.Document) error {
	base := w.base
	if base == nil {
		base = context.Background()
	}
	w.view.Documents = documents
	err := w.poller.Observe(base, documents)
	w.view.Polling = w.poller.HasActiveProcessing()
	return err
}

// applyInvoices must be called with mu held.
func (w *Workspace) applyInvoices(invoices []domain.Invoice) {
	w.view.Invoices = invoices
	w.view.Linked = DocumentsWithInvoices(invoices)
	if w.unitID != nil {
		p := PartitionInvoices(invoices, *w.unitID)
		w.view.Partition = &p
	}
}

// View returns a copy of the current page state.
func (w *Workspace) View() WorkspaceView {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.view
	v.Documents = append([]domain.Document(nil), w.view.Documents...)
	v.Invoices = append([]domain.Invoice(nil), w.view.Invoices...)
	return v
}

// Finalized reports whether the settlement refuses mutations.
func (w *Workspace) Finalized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.Settlement.Finalized()
}

// Upload sends a batch of dropped or selected files.
func (w *Workspace) Upload(ctx context.Context, files []domain.File) (BatchResult, error) {
	if err := w.guardMutation(ctx); err != nil {
		return BatchResult{}, err
	}
	target := UploadTarget{SettlementID: w.scope.SettlementID, UnitSettlementID: w.scope.UnitSettlementID}
	return w.uploader.Upload(ctx, target, files)
}

// IngestFiles adapts Upload to a drop-zone callback.
func (w *Workspace) IngestFiles(ctx context.Context) FilesFunc {
	return func(files []domain.File) {
		if _, err := w.Upload(ctx, files); err != nil {
			w.logger.Debug("drop not uploaded", "error", err)
		}
	}
}

// ProcessDocument starts OCR for a document and refreshes so polling picks it up.
func (w *Workspace) ProcessDocument(ctx context.Context, documentID uuid.UUID) error {
	doc, err := w.documents.ProcessDocument(ctx, documentID)
	if err != nil {
		w.logger.Warn("start processing failed", "document", documentID, "error", err)
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Verarbeitung konnte nicht gestartet werden"))
		return fmt.Errorf("process document: %w", err)
	}
	w.notify(ctx, domain.LevelInfo, "Verarbeitung gestartet", fmt.Sprintf("%s wird verarbeitet.", doc.OriginalFilename))
	return w.RefreshDocuments(ctx)
}

// SetIncludeInExport toggles whether a document is attached to the export.
func (w *Workspace) SetIncludeInExport(ctx context.Context, documentID uuid.UUID, include bool) error {
	if err := w.guardMutation(ctx); err != nil {
		return err
	}
	if _, err := w.documents.UpdateDocument(ctx, documentID, domain.DocumentUpdate{IncludeInExport: &include}); err != nil {
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Dokument konnte nicht aktualisiert werden"))
		return fmt.Errorf("update document: %w", err)
	}
	return w.RefreshDocuments(ctx)
}

// DeleteDocument removes a document and refreshes the list.
func (w *Workspace) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	if err := w.guardMutation(ctx); err != nil {
		return err
	}
	if err := w.documents.DeleteDocument(ctx, documentID); err != nil {
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Dokument konnte nicht gelöscht werden"))
		return fmt.Errorf("delete document: %w", err)
	}
	w.notify(ctx, domain.LevelSuccess, "Gelöscht", "Das Dokument wurde gelöscht.")
	return w.RefreshDocuments(ctx)
}

// VerifyInvoice marks an invoice verified.
func (w *Workspace) VerifyInvoice(ctx context.Context, invoiceID uuid.UUID) (domain.Invoice, error) {
	inv, err := w.invoices.VerifyInvoice(ctx, invoiceID)
	if err != nil {
		w.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Rechnung konnte nicht verifiziert werden"))
		return domain.Invoice{}, fmt.Errorf("verify invoice: %w", err)
	}
	return inv, w.RefreshInvoices(ctx)
}

// Review exposes the OCR review controller bound to this workspace.
func (w *Workspace) Review() *ReviewController {
	return w.review
}

// ReviewContext derives identifiers and defaults for a review opened here.
func (w *Workspace) ReviewContext() ReviewContext {
	w.mu.Lock()
	defer w.mu.Unlock()

	rc := ReviewContext{
		SettlementID: w.scope.SettlementID,
		Finalized:    w.view.Settlement.Finalized(),
	}
	if w.unitID != nil {
		unitID := *w.unitID
		rc.UnitID = &unitID
	}
	if w.loaded {
		rc.DefaultAllocation = decimal.NewNullDecimal(w.view.Allocation.DefaultAllocation)
	}
	return rc
}

// OpenReview opens the review controller for a document of this workspace.
func (w *Workspace) OpenReview(ctx context.Context, documentID uuid.UUID) error {
	return w.review.Open(ctx, documentID, w.ReviewContext())
}

// Close stops polling, cancels a pending redirect and discards in-flight results.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
	w.mu.Unlock()

	w.review.Close()
	return w.poller.Close(ctx)
}

func (w *Workspace) guardMutation(ctx context.Context) error {
	if !w.Finalized() {
		return nil
	}
	w.notify(ctx, domain.LevelError, "Abrechnung finalisiert", "Finalisierte Abrechnungen können nicht mehr bearbeitet werden.")
	return ErrFinalized
}

func (w *Workspace) notify(ctx context.Context, level domain.NotificationLevel, title, message string) {
	if w.notifier == nil {
		return
	}
	w.notifier.Notify(ctx, domain.Notification{Level: level, Title: title, Message: message})
}

type notFounder interface {
	NotFound() bool
}

func isNotFound(err error) bool {
	var nf notFounder
	return errors.As(err, &nf) && nf.NotFound()
}
