package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/usecase"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	if err := run(context.Background(), nil, "frobnicate", nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown command")
	}

	var out bytes.Buffer
	if err := run(context.Background(), nil, "help", nil, &out); err != nil || !strings.Contains(out.String(), "review") {
		t.Fatalf("help: err=%v out=%q", err, out.String())
	}
}

func TestScopeFlags(t *testing.T) {
	t.Parallel()

	settlementID, unitSettlementID := uuid.New(), uuid.New()
	sf := scopeFlags{settlement: settlementID.String(), unitSettlement: unitSettlementID.String()}
	scope, err := sf.scope()
	if err != nil {
		t.Fatalf("scope: %v", err)
	}
	if scope.SettlementID != settlementID || scope.UnitSettlementID == nil || *scope.UnitSettlementID != unitSettlementID {
		t.Fatalf("unexpected scope %+v", scope)
	}

	if _, err := (&scopeFlags{settlement: "kaputt"}).scope(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyOverridesKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	f := usecase.EditableFields{VendorName: "Stadtwerke", TotalAmount: "1.234,56", AllocationPercentage: 45}
	applyOverrides(&f, reviewFlags{amount: "99,00", category: "HEIZUNG", allocation: -1})

	if f.VendorName != "Stadtwerke" || f.TotalAmount != "99,00" || f.CostCategory != domain.CategoryHeizung || f.AllocationPercentage != 45 {
		t.Fatalf("unexpected fields %+v", f)
	}
}

func TestStatusSignatureChangesWithStatus(t *testing.T) {
	t.Parallel()

	doc := domain.Document{ID: uuid.New(), Status: domain.StatusProcessing}
	before := statusSignature([]domain.Document{doc})
	doc.Status = domain.StatusProcessed
	if statusSignature([]domain.Document{doc}) == before {
		t.Fatalf("signature must change with status")
	}
}
