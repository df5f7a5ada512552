// Package notification delivers billing events to subscribers and staff.
// Delivery runs off the event log, never inside a sale's transaction, so a
// broken channel cannot block a sale.
package notification

import (
	"context"

	"go.uber.org/zap"
)

// Notifier is one delivery channel. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, eventType string, payload map[string]any) error
}

// LogNotifier writes every event to the application log. It is the default
// channel when no external provider is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notification.log")}
}

func (n *LogNotifier) Notify(ctx context.Context, eventType string, payload map[string]any) error {
	n.log.Info("billing event",
		zap.String("event_type", eventType),
		zap.Any("payload", payload))
	return nil
}
