package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// UploadTarget is a settlement, optionally narrowed to one unit settlement.
type UploadTarget struct {
	SettlementID     uuid.UUID
	UnitSettlementID *uuid.UUID
}

// UploadFailure names a file whose upload request failed.
type UploadFailure struct {
	File string
	Err  error
}

// BatchResult is the outcome of one batch, in input order per bucket.
type BatchResult struct {
	Uploaded []domain.UploadAck
	Rejected []Rejection
	Failed   []UploadFailure
}

// UploaderDeps wires the uploader.
type UploaderDeps struct {
	Documents ports.DocumentService
	Notifier  ports.Notifier
	Validator FileValidator
	// OnUploaded runs once after a batch that stored at least one file.
	OnUploaded RefreshFunc
	Logger     *slog.Logger
}

// Uploader uploads file batches one at a time.
type Uploader struct {
	documents  ports.DocumentService
	notifier   ports.Notifier
	validator  FileValidator
	onUploaded RefreshFunc
	logger     *slog.Logger
}

// NewUploader constructs the batch uploader.
func NewUploader(deps UploaderDeps) *Uploader {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		documents:  deps.Documents,
		notifier:   deps.Notifier,
		validator:  deps.Validator,
		onUploaded: deps.OnUploaded,
		logger:     logger,
	}
}

// Upload validates files and uploads the accepted ones sequentially. The
// returned error is only set when nothing could be attempted.
func (u *Uploader) Upload(ctx context.Context, target UploadTarget, files []domain.File) (BatchResult, error) {
	var result BatchResult
	if len(files) == 0 {
		u.notify(ctx, domain.LevelError, "Keine Dateien", "Es wurden keine Dateien ausgewählt.")
		return result, ErrNoFiles
	}

	accepted, rejected := u.validator.Validate(files)
	result.Rejected = rejected
	for _, r := range rejected {
		u.logger.Warn("file rejected", "file", r.File, "reason", r.Reason)
	}

	for _, f := range accepted {
		ack, err := u.uploadOne(ctx, target, f)
		if err != nil {
			u.logger.Warn("upload failed", "file", f.Name, "error", err)
			result.Failed = append(result.Failed, UploadFailure{File: f.Name, Err: err})
			continue
		}
		u.logger.Debug("uploaded", "file", f.Name, "document", ack.ID)
		result.Uploaded = append(result.Uploaded, ack)
	}

	u.summarize(ctx, result)

	if len(result.Uploaded) > 0 && u.onUploaded != nil {
		u.onUploaded(ctx)
	}
	return result, nil
}

func (u *Uploader) uploadOne(ctx context.Context, target UploadTarget, f domain.File) (domain.UploadAck, error) {
	if f.Open == nil {
		return domain.UploadAck{}, errors.New("file has no content")
	}
	content, err := f.Open()
	if err != nil {
		return domain.UploadAck{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer content.Close()

	if target.UnitSettlementID != nil {
		return u.documents.UploadUnitSettlementDocument(ctx, *target.UnitSettlementID, f.Name, content)
	}
	return u.documents.UploadSettlementDocument(ctx, target.SettlementID, f.Name, content)
}

func (u *Uploader) summarize(ctx context.Context, result BatchResult) {
	var lines []string
	for _, r := range result.Rejected {
		lines = append(lines, fmt.Sprintf("%s: %s", r.File, r.Reason))
	}
	for _, f := range result.Failed {
		lines = append(lines, fmt.Sprintf("%s: %s", f.File, errorMessage(f.Err, "Upload fehlgeschlagen")))
	}

	switch {
	case len(lines) == 0:
		u.notify(ctx, domain.LevelSuccess, "Hochgeladen",
			fmt.Sprintf("%d Dokument(e) erfolgreich hochgeladen.", len(result.Uploaded)))
	case len(result.Uploaded) == 0:
		u.notify(ctx, domain.LevelError, "Upload fehlgeschlagen", strings.Join(lines, "\n"))
	default:
		u.notify(ctx, domain.LevelError, "Teilweise hochgeladen",
			fmt.Sprintf("%d Dokument(e) hochgeladen, %d fehlgeschlagen:\n%s",
				len(result.Uploaded), len(lines), strings.Join(lines, "\n")))
	}
}

func (u *Uploader) notify(ctx context.Context, level domain.NotificationLevel, title, message string) {
	if u.notifier == nil {
		return
	}
	u.notifier.Notify(ctx, domain.Notification{Level: level, Title: title, Message: message})
}

// userMessager is implemented by transport errors that carry a server message.
type userMessager interface {
	UserMessage() string
}

// errorMessage prefers the server-provided message over fallback.
func errorMessage(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
