package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus enumerates the OCR lifecycle of an uploaded document.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusProcessed  DocumentStatus = "PROCESSED"
	StatusFailed     DocumentStatus = "FAILED"
	StatusVerified   DocumentStatus = "VERIFIED"
)

// Terminal reports whether no further automatic transition happens from s.
func (s DocumentStatus) Terminal() bool {
	switch s {
	case StatusProcessed, StatusFailed, StatusVerified:
		return true
	default:
		return false
	}
}

// Document is the client-side read-through copy of an uploaded file.
type Document struct {
	ID                 uuid.UUID           `json:"id"`
	SettlementID       uuid.UUID           `json:"settlement_id"`
	OriginalFilename   string              `json:"original_filename"`
	StoredFilename     string              `json:"stored_filename,omitempty"`
	FileSizeBytes      int64               `json:"file_size_bytes"`
	FileSizeMB         float64             `json:"file_size_mb,omitempty"`
	MimeType           string              `json:"mime_type"`
	Status             DocumentStatus      `json:"document_status"`
	OCRConfidence      decimal.NullDecimal `json:"ocr_confidence"`
	OCREngine          string              `json:"ocr_engine,omitempty"`
	LLMExtractionUsed  bool                `json:"llm_extraction_used"`
	LLMExtractionError string              `json:"llm_extraction_error,omitempty"`
	IncludeInExport    bool                `json:"include_in_export"`
	UploadDate         Timestamp           `json:"upload_date"`
	ProcessedAt        *Timestamp          `json:"processed_at,omitempty"`
}

// ProcessingStatus exposes the lifecycle status to the poller.
func (d Document) ProcessingStatus() DocumentStatus {
	return d.Status
}

// DocumentUpdate is the PATCH body for a document.
type DocumentUpdate struct {
	IncludeInExport *bool `json:"include_in_export,omitempty"`
}

// UploadAck acknowledges a stored upload.
type UploadAck struct {
	ID       uuid.UUID      `json:"id"`
	Filename string         `json:"filename,omitempty"`
	Status   DocumentStatus `json:"status"`
	Message  string         `json:"message"`
}

// ExtractedFields holds the structured OCR/LLM output for one invoice document.
type ExtractedFields struct {
	VendorName        string              `json:"vendor_name"`
	InvoiceNumber     string              `json:"invoice_number"`
	InvoiceDate       string              `json:"invoice_date"`
	TotalAmount       decimal.NullDecimal `json:"total_amount"`
	SuggestedCategory CostCategory        `json:"suggested_category"`
}

// ExtractionResult is the read-only OCR projection of a document.
type ExtractionResult struct {
	DocumentID         uuid.UUID           `json:"document_id"`
	Status             DocumentStatus      `json:"status"`
	RawText            string              `json:"raw_text"`
	CorrectedText      string              `json:"corrected_text"`
	Confidence         decimal.NullDecimal `json:"confidence"`
	Engine             string              `json:"engine"`
	LLMExtractionUsed  bool                `json:"llm_extraction_used"`
	LLMExtractionError string              `json:"llm_extraction_error"`
	ExtractedData      *ExtractedFields    `json:"extracted_data"`
}

// Timestamp accepts both RFC 3339 and zone-less ISO datetimes as sent by the backend.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
