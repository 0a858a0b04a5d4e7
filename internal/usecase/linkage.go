package usecase

import (
	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
)

// DocumentsWithInvoices collects the documents that already back an invoice.
func DocumentsWithInvoices(invoices []domain.Invoice) map[uuid.UUID]struct{} {
	linked := make(map[uuid.UUID]struct{}, len(invoices))
	for _, inv := range invoices {
		if inv.DocumentID != nil {
			linked[*inv.DocumentID] = struct{}{}
		}
	}
	return linked
}

// Partition splits the invoices visible from one unit.
type Partition struct {
	SettlementWide []domain.Invoice
	UnitSpecific   []domain.Invoice
}

// PartitionInvoices keeps settlement-wide invoices and those of unitID;
// invoices of other units are dropped.
func PartitionInvoices(invoices []domain.Invoice, unitID uuid.UUID) Partition {
	p := Partition{
		SettlementWide: []domain.Invoice{},
		UnitSpecific:   []domain.Invoice{},
	}
	for _, inv := range invoices {
		switch {
		case inv.SettlementWide():
			p.SettlementWide = append(p.SettlementWide, inv)
		case *inv.UnitID == unitID:
			p.UnitSpecific = append(p.UnitSpecific, inv)
		}
	}
	return p
}
