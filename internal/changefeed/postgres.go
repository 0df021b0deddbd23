package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// listenRetryDelay is the pause before re-acquiring a listen connection after
// a failure.
const listenRetryDelay = time.Second

// PostgresFeed receives row change events over a Postgres NOTIFY channel. The
// backend's triggers publish one JSON payload per changed row; the feed demuxes
// them to per-row watchers.
type PostgresFeed struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
	demux   *demux

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	received int64
	dropped  int64
}

// NewPostgresFeed creates a feed listening on the given NOTIFY channel.
func NewPostgresFeed(pool *pgxpool.Pool, channel string, logger *slog.Logger) *PostgresFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresFeed{
		pool:    pool,
		channel: channel,
		logger:  logger,
		demux:   newDemux(),
	}
}

// Watch implements Feed.
func (f *PostgresFeed) Watch(table, id string) (<-chan RowEvent, func(), error) {
	ch, cancel := f.demux.watch(table, id)
	return ch, cancel, nil
}

// Start begins listening for notifications.
func (f *PostgresFeed) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.listenLoop()

	f.logger.Info("change feed started", "channel", f.channel)
	return nil
}

// Stop shuts the feed down and closes all watch channels.
func (f *PostgresFeed) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("change feed stopped")
	case <-ctx.Done():
		f.logger.Warn("change feed stop timed out")
	}

	f.demux.closeAll()
	return nil
}

// listenLoop holds a dedicated connection in LISTEN mode, re-acquiring on
// failure until the feed is stopped.
func (f *PostgresFeed) listenLoop() {
	defer f.wg.Done()

	for {
		if f.ctx.Err() != nil {
			return
		}

		if err := f.listen(); err != nil && f.ctx.Err() == nil {
			f.logger.Warn("listen connection lost, retrying",
				"channel", f.channel,
				"error", err,
			)
			select {
			case <-f.ctx.Done():
				return
			case <-time.After(listenRetryDelay):
			}
		}
	}
}

func (f *PostgresFeed) listen() error {
	conn, err := f.pool.Acquire(f.ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(f.ctx, "listen "+sanitizeChannel(f.channel)); err != nil {
		return fmt.Errorf("listen %s: %w", f.channel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(f.ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		f.handle(notification.Payload)
	}
}

// handle parses one NOTIFY payload and fans it out. A malformed payload is
// dropped; the stream continues.
func (f *PostgresFeed) handle(payload string) {
	f.count(&f.received)

	var ev RowEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		f.logger.Warn("dropping malformed change event", "error", err)
		f.count(&f.dropped)
		return
	}
	if ev.Table == "" || ev.ID == "" {
		f.logger.Warn("dropping change event without table or id")
		f.count(&f.dropped)
		return
	}
	ev.ReceivedAt = time.Now()

	f.demux.publish(ev)
}

// Stats returns received/dropped counts since start.
func (f *PostgresFeed) Stats() (received, dropped int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received, f.dropped
}

func (f *PostgresFeed) count(field *int64) {
	f.mu.Lock()
	*field++
	f.mu.Unlock()
}

// sanitizeChannel quotes the channel name as an identifier. Channel names come
// from config, not user input, but LISTEN takes no bind parameters.
func sanitizeChannel(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '"' {
			continue
		}
		out = append(out, r)
	}
	return `"` + string(out) + `"`
}
