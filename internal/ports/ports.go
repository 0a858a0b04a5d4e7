package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
)

// DocumentService is the remote document collaborator.
type DocumentService interface {
	ListSettlementDocuments(ctx context.Context, settlementID uuid.UUID) ([]domain.Document, error)
	ListUnitSettlementDocuments(ctx context.Context, unitSettlementID uuid.UUID) ([]domain.Document, error)
	// GetOCRResult returns nil without error when no extraction exists yet.
	GetOCRResult(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error)
	ProcessDocument(ctx context.Context, documentID uuid.UUID) (domain.Document, error)
	ReExtract(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error)
	UpdateDocument(ctx context.Context, documentID uuid.UUID, update domain.DocumentUpdate) (domain.Document, error)
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
	UploadSettlementDocument(ctx context.Context, settlementID uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error)
	UploadUnitSettlementDocument(ctx context.Context, unitSettlementID uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error)
}

// InvoiceService is the remote invoice collaborator.
type InvoiceService interface {
	ListInvoices(ctx context.Context, query domain.InvoiceQuery) ([]domain.Invoice, error)
	CreateInvoice(ctx context.Context, payload domain.InvoiceCreate) (domain.Invoice, error)
	VerifyInvoice(ctx context.Context, invoiceID uuid.UUID) (domain.Invoice, error)
	DefaultAllocation(ctx context.Context, settlementID uuid.UUID) (domain.DefaultAllocation, error)
}

// SettlementService resolves settlements and unit settlements.
type SettlementService interface {
	GetSettlement(ctx context.Context, settlementID uuid.UUID) (domain.Settlement, error)
	GetUnitSettlement(ctx context.Context, unitSettlementID uuid.UUID) (domain.UnitSettlement, error)
}

// Notifier delivers dismissible notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Scheduler fires a job on a recurring cadence until stopped.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
