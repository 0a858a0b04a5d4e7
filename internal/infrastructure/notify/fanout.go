package notify

import (
	"context"

	"NebenkostenConsole/internal/domain"
	"NebenkostenConsole/internal/ports"
)

// Fanout forwards every notification to all targets in order.
type Fanout []ports.Notifier

func (f Fanout) Notify(ctx context.Context, n domain.Notification) {
	for _, target := range f {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// MinLevel drops notifications below level before passing them on.
type MinLevel struct {
	Level  domain.NotificationLevel
	Target ports.Notifier
}

var levelRank = map[domain.NotificationLevel]int{
	domain.LevelInfo:    0,
	domain.LevelSuccess: 1,
	domain.LevelError:   2,
}

func (m MinLevel) Notify(ctx context.Context, n domain.Notification) {
	if m.Target == nil || levelRank[n.Level] < levelRank[m.Level] {
		return
	}
	m.Target.Notify(ctx, n)
}
