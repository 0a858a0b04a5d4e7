package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/locale"
	"NebenkostenConsole/internal/ports"
)

// ReviewState is the lifecycle of the OCR review surface.
type ReviewState int

const (
	StateClosed ReviewState = iota
	StateLoading
	StateLoaded
	StateEmpty
	StateReExtracting
)

func (s ReviewState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateEmpty:
		return "empty"
	case StateReExtracting:
		return "re-extracting"
	default:
		return fmt.Sprintf("ReviewState(%d)", int(s))
	}
}

// EditableFields is the client-local, display-form copy of the extracted
// fields. AllocationPercentage is a whole percent between 0 and 100.
type EditableFields struct {
	VendorName           string
	InvoiceNumber        string
	InvoiceDate          string
	TotalAmount          string
	CostCategory         domain.CostCategory
	AllocationPercentage int
}

// ReviewContext carries the identifiers and defaults of the page that opened the review.
type ReviewContext struct {
	SettlementID uuid.UUID
	// UnitID scopes the created invoice to one unit; nil means settlement-wide.
	UnitID *uuid.UUID
	// DefaultAllocation is a 0.0-1.0 fraction; absent means 100 %.
	DefaultAllocation decimal.NullDecimal
	Finalized         bool
}

// ReviewSnapshot is a consistent copy of the controller state.
type ReviewSnapshot struct {
	State      ReviewState
	DocumentID uuid.UUID
	Result     *domain.ExtractionResult
	Fields     EditableFields
	FetchErr   error
	Submitting bool
	CanCreate  bool
}

// ReviewDeps wires the review controller.
type ReviewDeps struct {
	Documents ports.DocumentService
	Invoices  ports.InvoiceService
	Notifier  ports.Notifier
	// OnInvoiceCreated observes every successfully created invoice.
	OnInvoiceCreated func(ctx context.Context, invoice domain.Invoice)
	// FallbackCategory replaces a missing or unknown suggested category.
	FallbackCategory domain.CostCategory
	Logger           *slog.Logger
}

// ReviewController drives closed -> loading -> {loaded, empty, re-extracting} -> closed.
//
// Every blocking call runs without the lock held. A session counter is bumped
// on Open, Close and successful creation; results arriving for an older
// session are discarded.
type ReviewController struct {
	documents ports.DocumentService
	invoices  ports.InvoiceService
	notifier  ports.Notifier
	onCreated func(ctx context.Context, invoice domain.Invoice)
	fallback  domain.CostCategory
	logger    *slog.Logger

	mu         sync.Mutex
	session    uint64
	state      ReviewState
	documentID uuid.UUID
	rc         ReviewContext
	result     *domain.ExtractionResult
	fields     EditableFields
	fetchErr   error
	submitting bool
}

// NewReviewController constructs a closed controller.
func NewReviewController(deps ReviewDeps) *ReviewController {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := deps.FallbackCategory
	if !fallback.Valid() {
		fallback = domain.CategorySonstige
	}
	return &ReviewController{
		documents: deps.Documents,
		invoices:  deps.Invoices,
		notifier:  deps.Notifier,
		onCreated: deps.OnInvoiceCreated,
		fallback:  fallback,
		logger:    logger,
	}
}

// Open selects a document and fetches its extraction result. A fetch error
// leaves the controller in the empty state so the form stays usable for
// manual entry; the error is returned and notified.
func (c *ReviewController) Open(ctx context.Context, documentID uuid.UUID, rc ReviewContext) error {
	c.mu.Lock()
	c.session++
	session := c.session
	c.state = StateLoading
	c.documentID = documentID
	c.rc = rc
	c.result = nil
	c.fetchErr = nil
	c.submitting = false
	c.fields = c.populate(nil)
	c.mu.Unlock()

	c.logger.Debug("fetching extraction", "document", documentID)
	result, err := c.documents.GetOCRResult(ctx, documentID)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		c.logger.Debug("discarding stale extraction", "document", documentID)
		return ErrReviewClosed
	}
	switch {
	case err != nil:
		c.state = StateEmpty
		c.fetchErr = err
	case result == nil:
		c.state = StateEmpty
	default:
		c.state = StateLoaded
		c.result = result
		c.fields = c.populate(result)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("fetch extraction failed", "document", documentID, "error", err)
		c.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "OCR-Ergebnis konnte nicht geladen werden"))
		return fmt.Errorf("fetch extraction: %w", err)
	}
	return nil
}

// Edit applies a user edit to the editable field-set.
func (c *ReviewController) Edit(edit func(*EditableFields)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return ErrReviewClosed
	}
	edit(&c.fields)
	c.fields.AllocationPercentage = clampPercent(c.fields.AllocationPercentage)
	return nil
}

// ReExtract asks the backend to run the LLM extraction again. On failure the
// editable fields are left untouched.
func (c *ReviewController) ReExtract(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == StateClosed:
		c.mu.Unlock()
		return ErrReviewClosed
	case c.rc.Finalized:
		c.mu.Unlock()
		return ErrFinalized
	case c.state != StateLoaded && c.state != StateEmpty, c.submitting:
		c.mu.Unlock()
		return ErrBusy
	}
	previous := c.state
	c.state = StateReExtracting
	session := c.session
	documentID := c.documentID
	c.mu.Unlock()

	c.logger.Debug("re-extracting", "document", documentID)
	result, err := c.documents.ReExtract(ctx, documentID)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		return ErrReviewClosed
	}
	if err != nil {
		c.state = previous
		c.mu.Unlock()

		c.logger.Warn("re-extraction failed", "document", documentID, "error", err)
		c.notify(ctx, domain.LevelError, "Re-Extraktion fehlgeschlagen", errorMessage(err, err.Error()))
		return fmt.Errorf("re-extract: %w", err)
	}
	if result == nil {
		result = &domain.ExtractionResult{DocumentID: documentID}
	}
	c.state = StateLoaded
	c.result = result
	c.fetchErr = nil
	c.fields = c.populate(result)
	c.mu.Unlock()

	c.notify(ctx, domain.LevelSuccess, "Re-Extraktion erfolgreich", "Die Rechnungsdaten wurden neu extrahiert.")
	return nil
}

// CanCreateInvoice reports whether the create affordance is enabled.
func (c *ReviewController) CanCreateInvoice() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canCreate()
}

func (c *ReviewController) canCreate() bool {
	if c.state != StateLoaded && c.state != StateEmpty {
		return false
	}
	return c.fields.TotalAmount != "" && !c.rc.Finalized && !c.submitting
}

// CreateInvoice converts the edited fields back to canonical form and creates
// the invoice. On success the review closes; on failure it stays open for retry.
func (c *ReviewController) CreateInvoice(ctx context.Context) (domain.Invoice, error) {
	c.mu.Lock()
	switch {
	case c.state == StateClosed:
		c.mu.Unlock()
		return domain.Invoice{}, ErrReviewClosed
	case c.submitting:
		c.mu.Unlock()
		return domain.Invoice{}, ErrBusy
	case !c.canCreate():
		c.mu.Unlock()
		return domain.Invoice{}, ErrCreateDisabled
	}
	c.submitting = true
	session := c.session
	payload := buildInvoiceCreate(c.fields, c.rc, c.documentID)
	c.mu.Unlock()

	c.logger.Debug("creating invoice", "document", payload.DocumentID, "amount", payload.TotalAmount)
	invoice, err := c.invoices.CreateInvoice(ctx, payload)

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		c.logger.Debug("discarding invoice result of a closed review", "document", payload.DocumentID)
		return domain.Invoice{}, ErrReviewClosed
	}
	c.submitting = false
	if err != nil {
		c.mu.Unlock()

		c.logger.Warn("create invoice failed", "document", payload.DocumentID, "error", err)
		c.notify(ctx, domain.LevelError, "Fehler", errorMessage(err, "Rechnung konnte nicht erstellt werden"))
		return domain.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	c.reset()
	c.mu.Unlock()

	c.notify(ctx, domain.LevelSuccess, "Rechnung erstellt", "Die Rechnung wurde aus dem Dokument erstellt.")
	if c.onCreated != nil {
		c.onCreated(ctx, invoice)
	}
	return invoice, nil
}

// Close discards the editable fields and retires any request in flight.
func (c *ReviewController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Snapshot returns a copy of the current state.
func (c *ReviewController) Snapshot() ReviewSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ReviewSnapshot{
		State:      c.state,
		DocumentID: c.documentID,
		Result:     c.result,
		Fields:     c.fields,
		FetchErr:   c.fetchErr,
		Submitting: c.submitting,
		CanCreate:  c.canCreate(),
	}
}

func (c *ReviewController) reset() {
	c.session++
	c.state = StateClosed
	c.documentID = uuid.Nil
	c.rc = ReviewContext{}
	c.result = nil
	c.fields = EditableFields{}
	c.fetchErr = nil
	c.submitting = false
}

// populate must be called with mu held.
func (c *ReviewController) populate(result *domain.ExtractionResult) EditableFields {
	fields := EditableFields{
		CostCategory:         c.fallback,
		AllocationPercentage: defaultPercent(c.rc.DefaultAllocation),
	}
	if result == nil || result.ExtractedData == nil {
		return fields
	}

	data := result.ExtractedData
	fields.VendorName = data.VendorName
	fields.InvoiceNumber = data.InvoiceNumber
	fields.InvoiceDate = locale.IsoToDisplayDate(data.InvoiceDate)
	fields.TotalAmount = locale.NumberToDisplayAmount(data.TotalAmount)
	if data.SuggestedCategory.Valid() {
		fields.CostCategory = data.SuggestedCategory
	}
	return fields
}

func (c *ReviewController) notify(ctx context.Context, level domain.NotificationLevel, title, message string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ctx, domain.Notification{Level: level, Title: title, Message: message})
}

func buildInvoiceCreate(fields EditableFields, rc ReviewContext, documentID uuid.UUID) domain.InvoiceCreate {
	docID := documentID
	payload := domain.InvoiceCreate{
		SettlementID:         rc.SettlementID,
		DocumentID:           &docID,
		UnitID:               rc.UnitID,
		VendorName:           fields.VendorName,
		TotalAmount:          locale.DisplayAmountToNumber(fields.TotalAmount),
		CostCategory:         fields.CostCategory,
		AllocationPercentage: decimal.NewFromInt(int64(clampPercent(fields.AllocationPercentage))).Shift(-2),
	}
	if fields.InvoiceNumber != "" {
		number := fields.InvoiceNumber
		payload.InvoiceNumber = &number
	}
	if iso := locale.DisplayToIsoDate(fields.InvoiceDate); iso != "" {
		payload.InvoiceDate = &iso
	}
	return payload
}

func defaultPercent(fraction decimal.NullDecimal) int {
	if !fraction.Valid {
		return 100
	}
	return clampPercent(int(fraction.Decimal.Shift(2).Round(0).IntPart()))
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
