package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/locale"
	"NebenkostenConsole/internal/usecase"
)

func printHeader(out io.Writer, view usecase.WorkspaceView) {
	s := view.Settlement
	label := s.PeriodLabel
	if label == "" {
		label = fmt.Sprintf("%s - %s", locale.IsoToDisplayDate(s.PeriodStart), locale.IsoToDisplayDate(s.PeriodEnd))
	}
	fmt.Fprintf(out, "Abrechnung %s (%s)\n", label, s.Status)
	if view.UnitSettlement != nil {
		fmt.Fprintf(out, "Einheit %s\n", view.UnitSettlement.Unit.Designation)
	}
	if s.Finalized() {
		fmt.Fprintln(out, "Finalisiert: keine Änderungen möglich.")
	}
}

func printDocuments(out io.Writer, view usecase.WorkspaceView) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATEI\tSTATUS\tKONFIDENZ\tEXPORT\tRECHNUNG\tHOCHGELADEN")
	for _, d := range view.Documents {
		confidence := "-"
		if d.OCRConfidence.Valid {
			confidence = locale.FormatPercent(d.OCRConfidence.Decimal, 0)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.OriginalFilename, d.Status, confidence,
			yesNo(d.IncludeInExport), yesNo(view.HasInvoice(d.ID)),
			d.UploadDate.Format("02.01.2006 15:04"))
	}
	tw.Flush()
	if view.Polling {
		fmt.Fprintln(out, "Dokumente werden verarbeitet, Liste wird aktualisiert ...")
	}
}

func printInvoices(out io.Writer, title string, invoices []domain.Invoice) {
	fmt.Fprintf(out, "\n%s (%d)\n", title, len(invoices))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLIEFERANT\tDATUM\tBETRAG\tKATEGORIE\tANTEIL\tGEPRÜFT")
	total := decimal.Zero
	for _, inv := range invoices {
		share := "100 %"
		if inv.AllocationPercentage.Valid {
			share = locale.FormatPercent(inv.AllocationPercentage.Decimal, 1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s €\t%s\t%s\t%s\n",
			inv.ID, inv.VendorName, locale.IsoToDisplayDate(inv.InvoiceDate),
			locale.NumberToDisplayAmount(inv.TotalAmount), inv.CostCategory.Label(), share, yesNo(inv.IsVerified))
		total = total.Add(inv.TotalAmount)
	}
	tw.Flush()
	fmt.Fprintf(out, "Summe: %s €\n", locale.NumberToDisplayAmount(total))
}

func printReview(out io.Writer, snap usecase.ReviewSnapshot) {
	fmt.Fprintf(out, "Dokument %s (%s)\n", snap.DocumentID, snap.State)
	if r := snap.Result; r != nil {
		if r.Confidence.Valid {
			fmt.Fprintf(out, "OCR-Konfidenz: %s (%s)\n", locale.FormatPercent(r.Confidence.Decimal, 0), r.Engine)
		}
		if r.LLMExtractionError != "" {
			fmt.Fprintf(out, "KI-Extraktion fehlgeschlagen: %s\n", r.LLMExtractionError)
		}
	}

	f := snap.Fields
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Lieferant\t%s\n", f.VendorName)
	fmt.Fprintf(tw, "Rechnungsnummer\t%s\n", f.InvoiceNumber)
	fmt.Fprintf(tw, "Rechnungsdatum\t%s\n", f.InvoiceDate)
	fmt.Fprintf(tw, "Betrag\t%s €\n", f.TotalAmount)
	fmt.Fprintf(tw, "Kategorie\t%s\n", f.CostCategory.Label())
	fmt.Fprintf(tw, "Umlageanteil\t%d %%\n", f.AllocationPercentage)
	tw.Flush()

	if !snap.CanCreate {
		fmt.Fprintln(out, "Rechnung kann noch nicht angelegt werden.")
	}
}

func yesNo(v bool) string {
	if v {
		return "ja"
	}
	return "nein"
}
