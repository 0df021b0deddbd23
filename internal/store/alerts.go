package store

import (
	"sync"

	"github.com/botdash/realtime/internal/model"
)

// AlertBuffer is a bounded most-recent-first sequence of alerts. Pushing past
// the cap evicts the oldest entries.
type AlertBuffer struct {
	mu     sync.RWMutex
	max    int
	alerts []model.Alert
}

// NewAlertBuffer creates a buffer holding at most max alerts.
func NewAlertBuffer(max int) *AlertBuffer {
	if max < 1 {
		max = 1
	}
	return &AlertBuffer{max: max}
}

// Push prepends an alert, evicting beyond the cap.
func (b *AlertBuffer) Push(a model.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.alerts = append([]model.Alert{a}, b.alerts...)
	if len(b.alerts) > b.max {
		b.alerts = b.alerts[:b.max]
	}
}

// Dismiss removes the alert with the given id. Returns false if absent.
func (b *AlertBuffer) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, a := range b.alerts {
		if a.ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy, most recent first.
func (b *AlertBuffer) Snapshot() []model.Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Alert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

// Len returns the number of buffered alerts.
func (b *AlertBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.alerts)
}
