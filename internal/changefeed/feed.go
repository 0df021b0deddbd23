package changefeed

import (
	"encoding/json"
	"sync"
	"time"
)

// Row change event kinds, mirroring the backend's publisher.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// RowEvent is one row-level change on a watched table.
type RowEvent struct {
	Table string          `json:"table"`
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

// Feed delivers row change events for watched (table, id) pairs.
//
// Watch registers interest in one row. The returned cancel func deregisters
// the watch and closes the event channel; it is safe to call more than once.
type Feed interface {
	Watch(table, id string) (<-chan RowEvent, func(), error)
}

// watchBuffer is the per-watch channel depth. A consumer that falls this far
// behind starts losing events; the REST resync covers the gap.
const watchBuffer = 16

type watchKey struct {
	table string
	id    string
}

// demux fans row events out to per-row watchers. Shared by the in-memory and
// Postgres feeds.
type demux struct {
	mu       sync.Mutex
	watchers map[watchKey]map[*watcher]struct{}
}

type watcher struct {
	ch     chan RowEvent
	closed bool
}

func newDemux() *demux {
	return &demux{watchers: make(map[watchKey]map[*watcher]struct{})}
}

func (d *demux) watch(table, id string) (<-chan RowEvent, func()) {
	key := watchKey{table: table, id: id}
	w := &watcher{ch: make(chan RowEvent, watchBuffer)}

	d.mu.Lock()
	set, ok := d.watchers[key]
	if !ok {
		set = make(map[*watcher]struct{})
		d.watchers[key] = set
	}
	set[w] = struct{}{}
	d.mu.Unlock()

	cancel := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if w.closed {
			return
		}
		w.closed = true
		delete(d.watchers[key], w)
		if len(d.watchers[key]) == 0 {
			delete(d.watchers, key)
		}
		close(w.ch)
	}

	return w.ch, cancel
}

// publish delivers an event to every watcher of its row. Slow watchers drop.
func (d *demux) publish(ev RowEvent) int {
	key := watchKey{table: ev.Table, id: ev.ID}

	d.mu.Lock()
	defer d.mu.Unlock()

	delivered := 0
	for w := range d.watchers[key] {
		select {
		case w.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (d *demux) watchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, set := range d.watchers {
		n += len(set)
	}
	return n
}

// closeAll cancels every watcher, closing their channels.
func (d *demux) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, set := range d.watchers {
		for w := range set {
			if !w.closed {
				w.closed = true
				close(w.ch)
			}
		}
		delete(d.watchers, key)
	}
}
