package domain

import "github.com/google/uuid"

// SettlementStatus tracks the reconciliation lifecycle.
type SettlementStatus string

const (
	SettlementDraft      SettlementStatus = "DRAFT"
	SettlementCalculated SettlementStatus = "CALCULATED"
	SettlementFinalized  SettlementStatus = "FINALIZED"
	SettlementExported   SettlementStatus = "EXPORTED"
)

// Settlement is a utility-cost reconciliation period for one property.
type Settlement struct {
	ID          uuid.UUID        `json:"id"`
	PropertyID  uuid.UUID        `json:"property_id"`
	Status      SettlementStatus `json:"status"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	PeriodLabel string           `json:"period_label"`
	Year        int              `json:"year"`
	Notes       string           `json:"notes,omitempty"`
}

// Finalized reports whether invoices of the settlement are frozen.
func (s Settlement) Finalized() bool {
	return s.Status == SettlementFinalized
}

// UnitBrief is the minimal unit projection embedded in a unit settlement.
type UnitBrief struct {
	ID          uuid.UUID `json:"id"`
	Designation string    `json:"designation"`
}

// UnitSettlement is the per-unit breakdown of a settlement for one tenant.
type UnitSettlement struct {
	ID           uuid.UUID `json:"id"`
	SettlementID uuid.UUID `json:"settlement_id"`
	UnitID       uuid.UUID `json:"unit_id"`
	Unit         UnitBrief `json:"unit"`
}

// EffectiveUnitID prefers the embedded unit over the flat identifier.
func (u UnitSettlement) EffectiveUnitID() uuid.UUID {
	if u.Unit.ID != uuid.Nil {
		return u.Unit.ID
	}
	return u.UnitID
}
