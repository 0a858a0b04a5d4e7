package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"NebenkostenConsole/internal/domain"
)

func TestUploaderTargetsUnitSettlement(t *testing.T) {
	t.Parallel()

	docs := &fakeDocuments{}
	notifier := &recordingNotifier{}
	refreshed := 0
	u := NewUploader(UploaderDeps{
		Documents:  docs,
		Notifier:   notifier,
		OnUploaded: func(context.Context) { refreshed++ },
	})

	unitSettlementID := uuid.New()
	result, err := u.Upload(context.Background(),
		UploadTarget{SettlementID: uuid.New(), UnitSettlementID: &unitSettlementID},
		[]domain.File{memFile("heizung.png", "image/png", "png")})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(result.Uploaded) != 1 || len(docs.unitUploads) != 1 || len(docs.uploaded) != 0 {
		t.Fatalf("expected one unit-settlement upload, got %+v", result)
	}
	if refreshed != 1 {
		t.Fatalf("expected one refresh, got %d", refreshed)
	}
	if last := notifier.last(); last.Level != domain.LevelSuccess {
		t.Fatalf("unexpected notification %+v", last)
	}
}

func TestUploaderEmptyBatch(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	u := NewUploader(UploaderDeps{Documents: &fakeDocuments{}, Notifier: notifier})

	if _, err := u.Upload(context.Background(), UploadTarget{}, nil); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
	if len(notifier.all()) != 1 {
		t.Fatalf("empty batch must be reported once")
	}
}

func TestUploaderNothingStoredSkipsRefresh(t *testing.T) {
	t.Parallel()

	refreshed := false
	broken := domain.File{
		Name:     "scan.pdf",
		MimeType: "application/pdf",
		Open:     func() (io.ReadCloser, error) { return nil, errors.New("permission denied") },
	}
	notifier := &recordingNotifier{}
	u := NewUploader(UploaderDeps{
		Documents:  &fakeDocuments{},
		Notifier:   notifier,
		OnUploaded: func(context.Context) { refreshed = true },
	})

	result, err := u.Upload(context.Background(), UploadTarget{SettlementID: uuid.New()}, []domain.File{broken})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].File != "scan.pdf" {
		t.Fatalf("unexpected result %+v", result)
	}
	if refreshed {
		t.Fatalf("refresh must not run when nothing was stored")
	}
	if notifier.last().Title != "Upload fehlgeschlagen" {
		t.Fatalf("unexpected notification %+v", notifier.last())
	}
}
