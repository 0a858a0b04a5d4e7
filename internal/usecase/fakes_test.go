package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

var errNotStubbed = errors.New("not stubbed")

type fakeDocuments struct {
	mu sync.Mutex

	list        func(settlementID uuid.UUID) ([]domain.Document, error)
	listUnit    func(unitSettlementID uuid.UUID) ([]domain.Document, error)
	ocrResult   func(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error)
	reExtract   func(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error)
	process     func(documentID uuid.UUID) (domain.Document, error)
	upload      func(filename string, content []byte) (domain.UploadAck, error)
	uploaded    []string
	unitUploads []string
	deleted     []uuid.UUID
	updated     map[uuid.UUID]domain.DocumentUpdate
}

var _ ports.DocumentService = (*fakeDocuments)(nil)

func (f *fakeDocuments) ListSettlementDocuments(_ context.Context, id uuid.UUID) ([]domain.Document, error) {
	if f.list == nil {
		return nil, nil
	}
	return f.list(id)
}

func (f *fakeDocuments) ListUnitSettlementDocuments(_ context.Context, id uuid.UUID) ([]domain.Document, error) {
	if f.listUnit == nil {
		return nil, nil
	}
	return f.listUnit(id)
}

func (f *fakeDocuments) GetOCRResult(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error) {
	if f.ocrResult == nil {
		return nil, nil
	}
	return f.ocrResult(ctx, id)
}

func (f *fakeDocuments) ProcessDocument(_ context.Context, id uuid.UUID) (domain.Document, error) {
	if f.process == nil {
		return domain.Document{ID: id, Status: domain.StatusProcessing}, nil
	}
	return f.process(id)
}

func (f *fakeDocuments) ReExtract(ctx context.Context, id uuid.UUID) (*domain.ExtractionResult, error) {
	if f.reExtract == nil {
		return nil, errNotStubbed
	}
	return f.reExtract(ctx, id)
}

func (f *fakeDocuments) UpdateDocument(_ context.Context, id uuid.UUID, update domain.DocumentUpdate) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[uuid.UUID]domain.DocumentUpdate{}
	}
	f.updated[id] = update
	doc := domain.Document{ID: id}
	if update.IncludeInExport != nil {
		doc.IncludeInExport = *update.IncludeInExport
	}
	return doc, nil
}

func (f *fakeDocuments) DeleteDocument(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocuments) UploadSettlementDocument(_ context.Context, _ uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error) {
	return f.doUpload(filename, content, &f.uploaded)
}

func (f *fakeDocuments) UploadUnitSettlementDocument(_ context.Context, _ uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error) {
	return f.doUpload(filename, content, &f.unitUploads)
}

func (f *fakeDocuments) doUpload(filename string, content io.Reader, into *[]string) (domain.UploadAck, error) {
	body, err := io.ReadAll(content)
	if err != nil {
		return domain.UploadAck{}, err
	}
	f.mu.Lock()
	*into = append(*into, filename)
	f.mu.Unlock()
	if f.upload != nil {
		return f.upload(filename, body)
	}
	return domain.UploadAck{ID: uuid.New(), Filename: filename, Status: domain.StatusPending}, nil
}

type fakeInvoices struct {
	mu sync.Mutex

	list       func(query domain.InvoiceQuery) ([]domain.Invoice, error)
	create     func(ctx context.Context, payload domain.InvoiceCreate) (domain.Invoice, error)
	allocation func(settlementID uuid.UUID) (domain.DefaultAllocation, error)
	created    []domain.InvoiceCreate
}

var _ ports.InvoiceService = (*fakeInvoices)(nil)

func (f *fakeInvoices) ListInvoices(_ context.Context, query domain.InvoiceQuery) ([]domain.Invoice, error) {
	if f.list == nil {
		return nil, nil
	}
	return f.list(query)
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, payload domain.InvoiceCreate) (domain.Invoice, error) {
	f.mu.Lock()
	f.created = append(f.created, payload)
	f.mu.Unlock()
	if f.create != nil {
		return f.create(ctx, payload)
	}
	return domain.Invoice{
		ID:           uuid.New(),
		SettlementID: payload.SettlementID,
		DocumentID:   payload.DocumentID,
		UnitID:       payload.UnitID,
		VendorName:   payload.VendorName,
		TotalAmount:  payload.TotalAmount,
		CostCategory: payload.CostCategory,
	}, nil
}

func (f *fakeInvoices) VerifyInvoice(_ context.Context, id uuid.UUID) (domain.Invoice, error) {
	return domain.Invoice{ID: id, IsVerified: true}, nil
}

func (f *fakeInvoices) DefaultAllocation(_ context.Context, id uuid.UUID) (domain.DefaultAllocation, error) {
	if f.allocation == nil {
		return domain.DefaultAllocation{}, nil
	}
	return f.allocation(id)
}

func (f *fakeInvoices) createdPayloads() []domain.InvoiceCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.InvoiceCreate(nil), f.created...)
}

type fakeSettlements struct {
	settlement     func(id uuid.UUID) (domain.Settlement, error)
	unitSettlement func(id uuid.UUID) (domain.UnitSettlement, error)
}

var _ ports.SettlementService = (*fakeSettlements)(nil)

func (f *fakeSettlements) GetSettlement(_ context.Context, id uuid.UUID) (domain.Settlement, error) {
	if f.settlement == nil {
		return domain.Settlement{ID: id, Status: domain.SettlementDraft}, nil
	}
	return f.settlement(id)
}

func (f *fakeSettlements) GetUnitSettlement(_ context.Context, id uuid.UUID) (domain.UnitSettlement, error) {
	if f.unitSettlement == nil {
		return domain.UnitSettlement{ID: id}, nil
	}
	return f.unitSettlement(id)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return domain.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

// messageError mimics a transport error carrying a server message.
type messageError struct{ msg string }

func (e messageError) Error() string       { return "request failed: " + e.msg }
func (e messageError) UserMessage() string { return e.msg }
