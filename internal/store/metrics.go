package store

import (
	"sync"

	"github.com/botdash/realtime/internal/model"
)

// MetricsCell holds the single current metrics snapshot. Replace swaps it
// wholesale; there is no per-field merge.
type MetricsCell struct {
	mu      sync.RWMutex
	current model.MetricsSnapshot
	set     bool
}

// NewMetricsCell creates an empty cell.
func NewMetricsCell() *MetricsCell {
	return &MetricsCell{}
}

// Replace installs a new snapshot.
func (c *MetricsCell) Replace(m model.MetricsSnapshot) {
	c.mu.Lock()
	c.current = m
	c.set = true
	c.mu.Unlock()
}

// Current returns the snapshot and whether one has been set.
func (c *MetricsCell) Current() (model.MetricsSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.set
}
