package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"NebenkostenConsole/internal/app"
	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/locale"
	"NebenkostenConsole/internal/usecase"
)

func runDocuments(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("documents", flag.ContinueOnError)
	var sf scopeFlags
	sf.register(fs)
	include := fs.String("include", "", "include document in export")
	exclude := fs.String("exclude", "", "exclude document from export")
	remove := fs.String("delete", "", "delete document")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())

	switch {
	case *include != "" || *exclude != "":
		value, flagName, includeIt := *include, "include", true
		if *exclude != "" {
			value, flagName, includeIt = *exclude, "exclude", false
		}
		id, err := parseID(flagName, value)
		if err != nil {
			return err
		}
		if err := ws.SetIncludeInExport(ctx, id, includeIt); err != nil {
			return err
		}
	case *remove != "":
		id, err := parseID("delete", *remove)
		if err != nil {
			return err
		}
		if err := ws.DeleteDocument(ctx, id); err != nil {
			return err
		}
	}

	printHeader(out, ws.View())
	printDocuments(out, ws.View())
	return nil
}

func runUpload(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	var sf scopeFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	files, err := app.LocalFiles(fs.Args())
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())

	if len(files) == 0 {
		_, err := ws.Upload(ctx, files)
		return err
	}
	app.DropFiles(files, ws.IngestFiles(ctx))
	printDocuments(out, ws.View())
	return nil
}

func runProcess(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	var sf scopeFlags
	sf.register(fs)
	document := fs.String("document", "", "document id")
	follow := fs.Bool("watch", false, "keep refreshing until processing ends")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID("document", *document)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())

	if err := ws.ProcessDocument(ctx, id); err != nil {
		return err
	}
	if *follow {
		return watch(ctx, ws, out)
	}
	printDocuments(out, ws.View())
	return nil
}

func runWatch(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var sf scopeFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())
	return watch(ctx, ws, out)
}

// watch prints the document table whenever a status changes and returns once
// polling has stopped.
func watch(ctx context.Context, ws *usecase.Workspace, out io.Writer) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := ""
	for {
		view := ws.View()
		if sig := statusSignature(view.Documents); sig != last {
			last = sig
			printDocuments(out, view)
		}
		if !view.Polling {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func statusSignature(docs []domain.Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.ID.String())
		b.WriteByte('=')
		b.WriteString(string(d.Status))
		b.WriteByte(';')
	}
	return b.String()
}

type reviewFlags struct {
	document   string
	vendor     string
	number     string
	date       string
	amount     string
	category   string
	allocation int
	reExtract  bool
	create     bool
}

func runReview(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	var (
		sf scopeFlags
		rf reviewFlags
	)
	sf.register(fs)
	fs.StringVar(&rf.document, "document", "", "document id")
	fs.StringVar(&rf.vendor, "vendor", "", "override vendor name")
	fs.StringVar(&rf.number, "number", "", "override invoice number")
	fs.StringVar(&rf.date, "date", "", "override invoice date (TT.MM.JJJJ)")
	fs.StringVar(&rf.amount, "amount", "", "override total amount (1.234,56)")
	fs.StringVar(&rf.category, "category", "", "override cost category")
	fs.IntVar(&rf.allocation, "allocation", -1, "override allocation percentage (0-100)")
	fs.BoolVar(&rf.reExtract, "re-extract", false, "run the LLM extraction again first")
	fs.BoolVar(&rf.create, "create", false, "create the invoice")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseID("document", rf.document)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())

	if ws.View().HasInvoice(id) {
		fmt.Fprintln(out, "Für dieses Dokument existiert bereits eine Rechnung.")
	}

	review := ws.Review()
	if err := ws.OpenReview(ctx, id); err != nil {
		// the form stays usable for manual entry
		fmt.Fprintf(out, "OCR-Ergebnis nicht verfügbar: %v\n", err)
	}
	if rf.reExtract {
		if err := review.ReExtract(ctx); err != nil {
			return err
		}
	}

	if rf.category != "" && !domain.CostCategory(rf.category).Valid() {
		return fmt.Errorf("-category: unknown cost category %q", rf.category)
	}
	if err := review.Edit(func(f *usecase.EditableFields) { applyOverrides(f, rf) }); err != nil {
		return err
	}

	printReview(out, review.Snapshot())

	if !rf.create {
		return nil
	}
	if !review.CanCreateInvoice() {
		return errors.New("invoice not creatable: vendor and amount are required and the settlement must not be finalized")
	}
	invoice, err := review.CreateInvoice(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rechnung %s angelegt: %s € (%s)\n",
		invoice.ID, locale.NumberToDisplayAmount(invoice.TotalAmount), invoice.CostCategory.Label())
	return nil
}

func applyOverrides(f *usecase.EditableFields, rf reviewFlags) {
	if rf.vendor != "" {
		f.VendorName = rf.vendor
	}
	if rf.number != "" {
		f.InvoiceNumber = rf.number
	}
	if rf.date != "" {
		f.InvoiceDate = rf.date
	}
	if rf.amount != "" {
		f.TotalAmount = rf.amount
	}
	if rf.category != "" {
		f.CostCategory = domain.CostCategory(rf.category)
	}
	if rf.allocation >= 0 {
		f.AllocationPercentage = rf.allocation
	}
}

func runInvoices(ctx context.Context, application *app.Application, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("invoices", flag.ContinueOnError)
	var sf scopeFlags
	sf.register(fs)
	verify := fs.String("verify", "", "mark invoice as verified")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := openWorkspace(ctx, application, sf, out)
	if err != nil {
		return err
	}
	defer ws.Close(context.Background())

	if *verify != "" {
		id, err := parseID("verify", *verify)
		if err != nil {
			return err
		}
		if _, err := ws.VerifyInvoice(ctx, id); err != nil {
			return err
		}
	}

	view := ws.View()
	printHeader(out, view)
	if view.Partition == nil {
		printInvoices(out, "Rechnungen", view.Invoices)
		return nil
	}
	printInvoices(out, "Umlagefähige Kosten der Abrechnung", view.Partition.SettlementWide)
	printInvoices(out, "Einheitenspezifische Kosten", view.Partition.UnitSpecific)
	return nil
}
