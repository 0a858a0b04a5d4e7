// Package api is the REST client of the settlement backend. Every call runs
// inside a client span and carries an X-Request-Id header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"NebenkostenConsole/internal/config"
	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

const (
	tracerName      = "NebenkostenConsole/internal/infrastructure/api"
	headerRequestID = "X-Request-Id"
)

// Client implements the document, invoice and settlement ports over HTTP.
type Client struct {
	http   *resty.Client
	tracer trace.Tracer
	logger *slog.Logger
}

var (
	_ ports.DocumentService   = (*Client)(nil)
	_ ports.InvoiceService    = (*Client)(nil)
	_ ports.SettlementService = (*Client)(nil)
)

// NewClient creates a reusable client for cfg.BaseURL (including the /api/v1 prefix).
func NewClient(cfg config.APIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	return &Client{
		http:   httpClient,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}
}

type params map[string]string

func idParam(id uuid.UUID) params { return params{"id": id.String()} }

// ListSettlementDocuments returns all documents of a settlement.
func (c *Client) ListSettlementDocuments(ctx context.Context, settlementID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.do(ctx, http.MethodGet, "/documents/settlement/{id}", idParam(settlementID), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListUnitSettlementDocuments returns the documents attached to one unit settlement.
func (c *Client) ListUnitSettlementDocuments(ctx context.Context, unitSettlementID uuid.UUID) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.do(ctx, http.MethodGet, "/unit-settlements/{id}/documents", idParam(unitSettlementID), nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetOCRResult returns nil without error for 404 or an empty body.
func (c *Client) GetOCRResult(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error) {
	var result *domain.ExtractionResult
	err := c.do(ctx, http.MethodGet, "/documents/{id}/ocr-result", idParam(documentID), nil, &result)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessDocument starts OCR; the document moves to PROCESSING.
func (c *Client) ProcessDocument(ctx context.Context, documentID uuid.UUID) (domain.Document, error) {
	var doc domain.Document
	err := c.do(ctx, http.MethodPost, "/documents/{id}/process", idParam(documentID), nil, &doc)
	return doc, err
}

// ReExtract runs the LLM extraction again on the stored OCR text.
func (c *Client) ReExtract(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionResult, error) {
	var result *domain.ExtractionResult
	if err := c.do(ctx, http.MethodPost, "/documents/{id}/re-extract", idParam(documentID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UpdateDocument(ctx context.Context, documentID uuid.UUID, update domain.DocumentUpdate) (domain.Document, error) {
	var doc domain.Document
	err := c.do(ctx, http.MethodPatch, "/documents/{id}", idParam(documentID), func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(update)
	}, &doc)
	return doc, err
}

func (c *Client) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/documents/{id}", idParam(documentID), nil, nil)
}

// UploadSettlementDocument posts a multipart form with field "file".
func (c *Client) UploadSettlementDocument(ctx context.Context, settlementID uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error) {
	return c.upload(ctx, "/documents/settlement/{id}", settlementID, filename, content)
}

func (c *Client) UploadUnitSettlementDocument(ctx context.Context, unitSettlementID uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error) {
	return c.upload(ctx, "/unit-settlements/{id}/documents", unitSettlementID, filename, content)
}

func (c *Client) upload(ctx context.Context, route string, id uuid.UUID, filename string, content io.Reader) (domain.UploadAck, error) {
	var ack domain.UploadAck
	err := c.do(ctx, http.MethodPost, route, idParam(id), func(r *resty.Request) {
		r.SetFileReader("file", filename, content)
	}, &ack)
	if err != nil {
		return domain.UploadAck{}, err
	}
	if ack.Filename == "" {
		ack.Filename = filename
	}
	return ack, nil
}

// ListInvoices filters by settlement and, optionally, by unit.
func (c *Client) ListInvoices(ctx context.Context, query domain.InvoiceQuery) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := c.do(ctx, http.MethodGet, "/invoices", nil, func(r *resty.Request) {
		r.SetQueryParam("settlement_id", query.SettlementID.String())
		if query.UnitID != nil {
			r.SetQueryParam("unit_id", query.UnitID.String())
			r.SetQueryParam("include_settlement_wide", strconv.FormatBool(query.IncludeSettlementWide))
		}
	}, &invoices)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (c *Client) CreateInvoice(ctx context.Context, payload domain.InvoiceCreate) (domain.Invoice, error) {
	var invoice domain.Invoice
	err := c.do(ctx, http.MethodPost, "/invoices", nil, func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	}, &invoice)
	return invoice, err
}

func (c *Client) VerifyInvoice(ctx context.Context, invoiceID uuid.UUID) (domain.Invoice, error) {
	var invoice domain.Invoice
	err := c.do(ctx, http.MethodPost, "/invoices/{id}/verify", idParam(invoiceID), nil, &invoice)
	return invoice, err
}

// DefaultAllocation fetches the rented-area share used to pre-fill new invoices.
func (c *Client) DefaultAllocation(ctx context.Context, settlementID uuid.UUID) (domain.DefaultAllocation, error) {
	var alloc domain.DefaultAllocation
	err := c.do(ctx, http.MethodGet, "/invoices/settlement/{id}/default-allocation", idParam(settlementID), nil, &alloc)
	return alloc, err
}

func (c *Client) GetSettlement(ctx context.Context, settlementID uuid.UUID) (domain.Settlement, error) {
	var s domain.Settlement
	err := c.do(ctx, http.MethodGet, "/settlements/{id}", idParam(settlementID), nil, &s)
	return s, err
}

func (c *Client) GetUnitSettlement(ctx context.Context, unitSettlementID uuid.UUID) (domain.UnitSettlement, error) {
	var us domain.UnitSettlement
	err := c.do(ctx, http.MethodGet, "/unit-settlements/{id}", idParam(unitSettlementID), nil, &us)
	return us, err
}

func (c *Client) do(ctx context.Context, method, route string, pathParams params, prepare func(*resty.Request), out any) error {
	path := expand(route, pathParams)

	ctx, span := c.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	req := c.http.R().
		SetContext(ctx).
		SetHeader(headerRequestID, uuid.NewString())
	if len(pathParams) > 0 {
		req.SetPathParams(pathParams)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, route)
	if err != nil {
		apiErr := &Error{Method: method, Path: path, Err: err}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, "transport error")
		return apiErr
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	c.logger.Debug("api call", "method", method, "path", path, "status", status, "elapsed", resp.Time())

	if resp.IsError() {
		apiErr := &Error{
			Method: method,
			Path:   path,
			Status: status,
			Detail: parseDetail(resp.Header().Get("Content-Type"), resp.Body()),
		}
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, http.StatusText(status))
		return apiErr
	}

	body := bytes.TrimSpace(resp.Body())
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func expand(route string, p params) string {
	if len(p) == 0 {
		return route
	}
	pairs := make([]string, 0, len(p)*2)
	for k, v := range p {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(route)
}
