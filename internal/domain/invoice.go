package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostCategory is one of the operating-cost types of §2 BetrKV.
type CostCategory string

const (
	CategoryGrundsteuer          CostCategory = "GRUNDSTEUER"
	CategoryWasserversorgung     CostCategory = "WASSERVERSORGUNG"
	CategoryEntwaesserung        CostCategory = "ENTWAESSERUNG"
	CategoryHeizung              CostCategory = "HEIZUNG"
	CategoryWarmwasser           CostCategory = "WARMWASSER"
	CategoryVerbundeneAnlagen    CostCategory = "VERBUNDENE_ANLAGEN"
	CategoryAufzug               CostCategory = "AUFZUG"
	CategoryStrassenreinigung    CostCategory = "STRASSENREINIGUNG"
	CategoryGebaeudereinigung    CostCategory = "GEBAEUDEREINIGUNG"
	CategoryGartenpflege         CostCategory = "GARTENPFLEGE"
	CategoryBeleuchtung          CostCategory = "BELEUCHTUNG"
	CategorySchornsteinreinigung CostCategory = "SCHORNSTEINREINIGUNG"
	CategoryVersicherung         CostCategory = "VERSICHERUNG"
	CategoryHauswart             CostCategory = "HAUSWART"
	CategoryAntenneKabel         CostCategory = "ANTENNE_KABEL"
	CategoryWaeschepflege        CostCategory = "WAESCHEPFLEGE"
	CategorySonstige             CostCategory = "SONSTIGE"
)

var costCategoryLabels = map[CostCategory]string{
	CategoryGrundsteuer:          "Grundsteuer (§2 Nr. 1 BetrKV)",
	CategoryWasserversorgung:     "Wasserversorgung (§2 Nr. 2 BetrKV)",
	CategoryEntwaesserung:        "Entwässerung (§2 Nr. 3 BetrKV)",
	CategoryHeizung:              "Heizkosten (§2 Nr. 4 BetrKV)",
	CategoryWarmwasser:           "Warmwasserversorgung (§2 Nr. 5 BetrKV)",
	CategoryVerbundeneAnlagen:    "Verbundene Anlagen (§2 Nr. 6 BetrKV)",
	CategoryAufzug:               "Aufzug (§2 Nr. 7 BetrKV)",
	CategoryStrassenreinigung:    "Straßenreinigung/Müllbeseitigung (§2 Nr. 8 BetrKV)",
	CategoryGebaeudereinigung:    "Gebäudereinigung (§2 Nr. 9 BetrKV)",
	CategoryGartenpflege:         "Gartenpflege (§2 Nr. 10 BetrKV)",
	CategoryBeleuchtung:          "Beleuchtung (§2 Nr. 11 BetrKV)",
	CategorySchornsteinreinigung: "Schornsteinreinigung (§2 Nr. 12 BetrKV)",
	CategoryVersicherung:         "Versicherungen (§2 Nr. 13 BetrKV)",
	CategoryHauswart:             "Hauswart (§2 Nr. 14 BetrKV)",
	CategoryAntenneKabel:         "Antenne/Kabel (§2 Nr. 15 BetrKV)",
	CategoryWaeschepflege:        "Wäschepflege (§2 Nr. 16 BetrKV)",
	CategorySonstige:             "Sonstige Betriebskosten (§2 Nr. 17 BetrKV)",
}

// Valid reports whether c is a known category.
func (c CostCategory) Valid() bool {
	_, ok := costCategoryLabels[c]
	return ok
}

// Label returns the German display label, or the raw value for unknown categories.
func (c CostCategory) Label() string {
	if label, ok := costCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Invoice is a cost record of a settlement. A nil UnitID means the invoice
// applies to every unit of the settlement.
type Invoice struct {
	ID                   uuid.UUID           `json:"id"`
	SettlementID         uuid.UUID           `json:"settlement_id"`
	DocumentID           *uuid.UUID          `json:"document_id"`
	UnitID               *uuid.UUID          `json:"unit_id"`
	VendorName           string              `json:"vendor_name"`
	InvoiceNumber        string              `json:"invoice_number"`
	InvoiceDate          string              `json:"invoice_date"`
	DueDate              string              `json:"due_date,omitempty"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	CostCategory         CostCategory        `json:"cost_category"`
	AllocationPercentage decimal.NullDecimal `json:"allocation_percentage"`
	Notes                string              `json:"notes,omitempty"`
	IsVerified           bool                `json:"is_verified"`
	CreatedAt            *Timestamp          `json:"created_at,omitempty"`
	UpdatedAt            *Timestamp          `json:"updated_at,omitempty"`
}

// SettlementWide reports whether the invoice has no unit association.
func (i Invoice) SettlementWide() bool {
	return i.UnitID == nil
}

// InvoiceCreate is the POST /invoices payload.
type InvoiceCreate struct {
	SettlementID         uuid.UUID       `json:"settlement_id"`
	DocumentID           *uuid.UUID      `json:"document_id,omitempty"`
	UnitID               *uuid.UUID      `json:"unit_id,omitempty"`
	VendorName           string          `json:"vendor_name"`
	InvoiceNumber        *string         `json:"invoice_number,omitempty"`
	InvoiceDate          *string         `json:"invoice_date,omitempty"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	CostCategory         CostCategory    `json:"cost_category"`
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
	Notes                *string         `json:"notes,omitempty"`
}

// InvoiceQuery filters GET /invoices.
type InvoiceQuery struct {
	SettlementID          uuid.UUID
	UnitID                *uuid.UUID
	IncludeSettlementWide bool
}

// UnitAllocation is the per-unit share inside a default allocation.
type UnitAllocation struct {
	UnitID               uuid.UUID       `json:"unit_id"`
	Designation          string          `json:"designation"`
	AreaSqm              decimal.Decimal `json:"area_sqm"`
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
}

// DefaultAllocation is the pre-fill source for the allocation-percentage field.
type DefaultAllocation struct {
	DefaultAllocation decimal.Decimal  `json:"default_allocation"`
	PropertyTotalArea decimal.Decimal  `json:"property_total_area"`
	Units             []UnitAllocation `json:"units"`
}

