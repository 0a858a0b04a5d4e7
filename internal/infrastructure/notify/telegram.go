package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NebenkostenConsole/internal/config"
	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// Telegram mirrors notifications into a Telegram chat via bot API.
type Telegram struct {
	botToken string
	chatID   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Notifier = (*Telegram)(nil)

// NewTelegram registers bot token, chat identifier and API host.
func NewTelegram(cfg config.TelegramConfig, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.telegram.org"
	}
	return &Telegram{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// Notify posts n as a Markdown message. Delivery failures are logged only.
func (t *Telegram) Notify(ctx context.Context, n domain.Notification) {
	if err := t.send(ctx, formatMarkdown(n)); err != nil {
		t.logger.Warn("telegram delivery failed", "title", n.Title, "error", err)
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if t.botToken == "" || t.chatID == "" || t.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.endpoint, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

var levelIcons = map[domain.NotificationLevel]string{
	domain.LevelInfo:    "ℹ️",
	domain.LevelSuccess: "✅",
	domain.LevelError:   "❌",
}

func formatMarkdown(n domain.Notification) string {
	var b strings.Builder
	if icon, ok := levelIcons[n.Level]; ok {
		b.WriteString(icon)
		b.WriteByte(' ')
	}
	b.WriteString("*")
	b.WriteString(escapeMarkdown(n.Title))
	b.WriteString("*")
	if n.Message != "" {
		b.WriteByte('\n')
		b.WriteString(escapeMarkdown(n.Message))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
