package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(configPathEnv, "")
	t.Setenv(apiURLEnv, "")
	t.Setenv(tracingEnv, "")

	cfg := Load()

	if cfg.API.BaseURL != defaultBaseURL || cfg.API.Timeout != defaultTimeout {
		t.Fatalf("unexpected api defaults %+v", cfg.API)
	}
	if cfg.Polling.Schedule != "@every 2s" {
		t.Fatalf("schedule = %q", cfg.Polling.Schedule)
	}
	if cfg.Upload.MaxBytes() != 10<<20 {
		t.Fatalf("max bytes = %d", cfg.Upload.MaxBytes())
	}
	if cfg.Review.FallbackCategory != "SONSTIGE" || cfg.Navigation.RedirectDelay != 2*time.Second {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Review, cfg.Navigation)
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	raw := `
api:
  baseUrl: http://backend:8000/api/v1
  timeout: 5s
polling:
  schedule: "@every 3s"
upload:
  maxFileSizeMb: 4
navigation:
  redirectDelay: 1500ms
notifications:
  telegram:
    chatId: "42"
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(apiURLEnv, "http://override:9000/api/v1")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(tracingEnv, "true")
	t.Setenv(logLevelEnv, "")

	cfg := Load()

	if cfg.API.BaseURL != "http://override:9000/api/v1" {
		t.Fatalf("env must win over file, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second || cfg.Polling.Schedule != "@every 3s" {
		t.Fatalf("file values not merged: %+v %+v", cfg.API, cfg.Polling)
	}
	if cfg.Upload.MaxFileSizeMB != 4 || cfg.Navigation.RedirectDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected %+v %+v", cfg.Upload, cfg.Navigation)
	}
	if !cfg.Notifications.Telegram.Enabled() || cfg.Notifications.Telegram.Endpoint == "" {
		t.Fatalf("telegram not configured: %+v", cfg.Notifications.Telegram)
	}
	if !cfg.Tracing.Enabled || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected tracing/logging %+v %+v", cfg.Tracing, cfg.Logging)
	}
	if cfg.Review.FallbackCategory != "SONSTIGE" {
		t.Fatalf("unset file values keep defaults, got %q", cfg.Review.FallbackCategory)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(configPathEnv, "")
	t.Setenv(logLevelEnv, "")
	// godotenv never overrides variables that are already set, so unset it for the test.
	os.Unsetenv(logLevelEnv)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("NEBENKOSTEN_LOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if got := Load().Logging.Level; got != "warn" {
		t.Fatalf("level = %q, want warn", got)
	}
}

func TestBrokenFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(apiURLEnv, "")

	if got := Load().API.BaseURL; got != defaultBaseURL {
		t.Fatalf("base url = %q, want default", got)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
