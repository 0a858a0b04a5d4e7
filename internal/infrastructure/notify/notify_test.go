package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"NebenkostenConsole/internal/config"
	"NebenkostenConsole/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsolePrintsLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf, discardLogger())
	c.Notify(context.Background(), domain.Notification{Level: domain.LevelSuccess, Title: "Hochgeladen", Message: "2 Dateien"})
	c.Notify(context.Background(), domain.Notification{Level: domain.LevelError, Title: "Fehler"})

	want := "[OK] Hochgeladen: 2 Dateien\n[FEHLER] Fehler\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestTelegramSendsMarkdown(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		form map[string]string
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		mu.Lock()
		path = r.URL.Path
		form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "secret", ChatID: "42", Endpoint: srv.URL + "/"}, discardLogger())
	tg.Notify(context.Background(), domain.Notification{Level: domain.LevelError, Title: "Upload fehlgeschlagen", Message: "rechnung_2024.pdf"})

	mu.Lock()
	defer mu.Unlock()
	if path != "/botsecret/sendMessage" {
		t.Fatalf("unexpected path %q", path)
	}
	if form["chat_id"] != "42" || form["parse_mode"] != "Markdown" {
		t.Fatalf("unexpected form %v", form)
	}
	if !strings.Contains(form["text"], "*Upload fehlgeschlagen*") || !strings.Contains(form["text"], `rechnung\_2024.pdf`) {
		t.Fatalf("unexpected text %q", form["text"])
	}
}

func TestTelegramFailureIsLogged(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	tg := NewTelegram(config.TelegramConfig{BotToken: "bad", ChatID: "1", Endpoint: srv.URL}, slog.New(slog.NewTextHandler(&logs, nil)))
	tg.Notify(context.Background(), domain.Notification{Level: domain.LevelInfo, Title: "x"})

	if !strings.Contains(logs.String(), "telegram delivery failed") {
		t.Fatalf("expected warning, got %q", logs.String())
	}
}

type collector struct {
	got []domain.Notification
}

func (c *collector) Notify(_ context.Context, n domain.Notification) {
	c.got = append(c.got, n)
}

func TestFanoutAndMinLevel(t *testing.T) {
	t.Parallel()

	all, errorsOnly := &collector{}, &collector{}
	fan := Fanout{all, nil, MinLevel{Level: domain.LevelError, Target: errorsOnly}}

	fan.Notify(context.Background(), domain.Notification{Level: domain.LevelInfo, Title: "a"})
	fan.Notify(context.Background(), domain.Notification{Level: domain.LevelSuccess, Title: "b"})
	fan.Notify(context.Background(), domain.Notification{Level: domain.LevelError, Title: "c"})

	if len(all.got) != 3 {
		t.Fatalf("fanout delivered %d, want 3", len(all.got))
	}
	if len(errorsOnly.got) != 1 || errorsOnly.got[0].Title != "c" {
		t.Fatalf("min level delivered %+v", errorsOnly.got)
	}
}
