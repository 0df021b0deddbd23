package changefeed

import "time"

// MemoryFeed is an in-process Feed. Used in tests and in deployments that run
// without a Postgres change-feed source.
type MemoryFeed struct {
	demux *demux
}

// NewMemoryFeed creates an empty in-memory feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{demux: newDemux()}
}

// Watch implements Feed.
func (f *MemoryFeed) Watch(table, id string) (<-chan RowEvent, func(), error) {
	ch, cancel := f.demux.watch(table, id)
	return ch, cancel, nil
}

// Publish delivers one event to the row's watchers.
func (f *MemoryFeed) Publish(ev RowEvent) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	f.demux.publish(ev)
}

// Watchers returns the number of active watches.
func (f *MemoryFeed) Watchers() int {
	return f.demux.watchCount()
}

// Close cancels all watches.
func (f *MemoryFeed) Close() {
	f.demux.closeAll()
}
