// Package notify delivers workflow notifications to the terminal and to
// optional outbound channels.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// Console prints notifications as single lines and records them in the log.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

var _ ports.Notifier = (*Console)(nil)

func NewConsole(out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{out: out, logger: logger}
}

func (c *Console) Notify(_ context.Context, n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := FormatLine(n)
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		c.logger.Warn("console notification dropped", "error", err)
	}

	attrs := []any{"level", string(n.Level), "title", n.Title}
	if n.Level == domain.LevelError {
		c.logger.Warn("notification", append(attrs, "message", n.Message)...)
		return
	}
	c.logger.Debug("notification", attrs...)
}

var levelTags = map[domain.NotificationLevel]string{
	domain.LevelInfo:    "INFO",
	domain.LevelSuccess: "OK",
	domain.LevelError:   "FEHLER",
}

// FormatLine renders "[TAG] Title: Message".
func FormatLine(n domain.Notification) string {
	tag, ok := levelTags[n.Level]
	if !ok {
		tag = strings.ToUpper(string(n.Level))
	}
	if n.Message == "" {
		return fmt.Sprintf("[%s] %s", tag, n.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", tag, n.Title, n.Message)
}
