package router

import (
	"log/slog"

	"github.com/botdash/realtime/internal/model"
)

// Notifier receives user-facing notifications (toasts). Implementations must
// not block: notifications are advisory and droppable.
type Notifier interface {
	Notify(n model.Notification)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(model.Notification) {}

// ChannelNotifier buffers notifications on a channel for a UI consumer.
// When the consumer falls behind, new notifications are dropped.
type ChannelNotifier struct {
	ch     chan model.Notification
	logger *slog.Logger
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(size int, logger *slog.Logger) *ChannelNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelNotifier{
		ch:     make(chan model.Notification, size),
		logger: logger,
	}
}

// Notify implements Notifier.
func (c *ChannelNotifier) Notify(n model.Notification) {
	select {
	case c.ch <- n:
	default:
		c.logger.Warn("notification buffer full, dropping", "title", n.Title)
	}
}

// Notifications returns the consumer channel.
func (c *ChannelNotifier) Notifications() <-chan model.Notification {
	return c.ch
}
