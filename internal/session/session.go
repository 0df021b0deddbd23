package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/botdash/realtime/internal/auth"
	"github.com/botdash/realtime/internal/changefeed"
	"github.com/botdash/realtime/internal/config"
	"github.com/botdash/realtime/internal/connection"
	"github.com/botdash/realtime/internal/model"
	"github.com/botdash/realtime/internal/protocol"
	"github.com/botdash/realtime/internal/router"
	"github.com/botdash/realtime/internal/store"
	"github.com/botdash/realtime/internal/subscription"
)

// Topic kind to change-feed table. A user topic watches the notifications
// table keyed by user id, covering user-scoped alerts.
var kindTables = map[string]string{
	"bot":      "bots",
	"trade":    "trades",
	"strategy": "strategies",
	"user":     "notifications",
}

// ErrClosed is returned by Subscribe after Teardown. A torn-down session
// spawns no new adapters; nothing would ever stop them.
var ErrClosed = errors.New("session closed")

// Resyncer fetches current entity state from the dashboard REST API.
type Resyncer interface {
	ListBots(ctx context.Context) ([]model.BotUpdate, error)
	ListTrades(ctx context.Context) ([]model.TradeUpdate, error)
	ListStrategies(ctx context.Context) ([]model.StrategyUpdate, error)
}

// Session wires the connection manager, reconnection controller, subscription
// registry, message router and change-feed adapters into one realtime client
// session. One Session serves one authenticated user.
type Session struct {
	cfg      config.ClientConfig
	logger   *slog.Logger
	tokens   auth.TokenSource
	stores   *store.Stores
	notifier *router.ChannelNotifier
	manager  *connection.Manager
	retrier  *connection.Reconnector
	registry *subscription.Registry
	router   *router.Router
	resync   Resyncer
	feed     changefeed.Feed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	adapters map[string]*changefeed.Adapter
}

// Option configures a Session.
type Option func(*Session)

// WithResyncer sets the REST resync client. Without one, resync after
// (re)connect is skipped.
func WithResyncer(r Resyncer) Option {
	return func(s *Session) { s.resync = r }
}

// WithFeed sets the row-level change feed. Without one, entity updates arrive
// over push only.
func WithFeed(f changefeed.Feed) Option {
	return func(s *Session) { s.feed = f }
}

// New creates a Session. Nothing connects until Start.
func New(cfg config.ClientConfig, tokens auth.TokenSource, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		stores:   store.NewStores(cfg.Alerts.MaxBuffered),
		notifier: router.NewChannelNotifier(cfg.Notifications.BufferSize, logger),
		adapters: make(map[string]*changefeed.Adapter),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.retrier = connection.NewReconnector(
		cfg.Realtime.ReconnectBaseDelay,
		cfg.Realtime.ReconnectMaxDelay,
		logger,
	)

	connCfg := connection.Config{
		Origin:            cfg.Origin,
		WSPath:            cfg.Realtime.WSPath,
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		WriteTimeout:      cfg.Realtime.WriteTimeout,
		HandshakeTimeout:  cfg.Realtime.HandshakeTimeout,
		BufferSize:        cfg.Realtime.BufferSize,
	}
	s.manager = connection.NewManager(connCfg, tokens, s.retrier, logger)

	s.registry = subscription.NewRegistry(
		s.manager.Send,
		func() bool { return s.manager.State() == connection.StateOpen },
		logger,
	)

	s.router = router.New(
		router.Config{PriorityThreshold: cfg.Notifications.PriorityThreshold},
		s.stores,
		s.notifier,
		s.manager.Messages(),
		logger,
	)

	return s
}

// Start starts the router, wires reconnect and replay behavior, and makes the
// initial connection attempt. An auth.ErrNoToken failure is returned to the
// caller without starting a retry loop; any other initial failure schedules a
// retry and returns nil.
func (s *Session) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.router.Start(s.ctx); err != nil {
		return err
	}

	s.retrier.SetConnect(func() error {
		return s.manager.Connect(s.ctx)
	})

	s.manager.OnOpen(func() {
		s.registry.ReplayAll()
		if s.resync != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.resyncAll()
			}()
		}
	})

	s.manager.OnConnectionError(func(err error) {
		s.pushConnectionAlert(err)
	})

	if err := s.manager.Connect(s.ctx); err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return err
		}
		s.logger.Warn("initial connect failed, will retry", "error", err)
		s.retrier.ConnectionLost()
	}

	return nil
}

// Subscribe registers interest in a topic and, when a change feed is
// configured, starts watching the matching database row.
func (s *Session) Subscribe(topic string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	s.registry.Subscribe(topic)

	if s.feed == nil {
		return nil
	}

	kind, id, err := subscription.Split(topic)
	if err != nil {
		return err
	}
	table, ok := kindTables[kind]
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-checked under the same lock Teardown drains adapters with, so no
	// adapter can slip in behind it.
	if s.closed {
		return ErrClosed
	}
	if _, exists := s.adapters[topic]; exists {
		return nil
	}

	adapter, err := changefeed.NewAdapter(s.feed, table, id, s.applyRow, s.logger)
	if err != nil {
		// Degraded, not fatal: this entity misses live change-feed coverage
		// until resubscribed; push updates still flow.
		s.logger.Warn("change feed watch failed",
			"topic", topic,
			"error", err,
		)
		return nil
	}
	s.adapters[topic] = adapter

	return nil
}

// Unsubscribe removes a topic and stops its change-feed adapter.
func (s *Session) Unsubscribe(topic string) {
	s.registry.Unsubscribe(topic)

	s.mu.Lock()
	adapter := s.adapters[topic]
	delete(s.adapters, topic)
	s.mu.Unlock()

	if adapter != nil {
		adapter.Stop()
	}
}

// SendChat sends one chat message best-effort.
func (s *Session) SendChat(sessionID, message string) {
	s.manager.Send(protocol.ChatFrame(sessionID, message))
}

// Stores returns the session's state containers.
func (s *Session) Stores() *store.Stores {
	return s.stores
}

// Notifications returns the toast channel.
func (s *Session) Notifications() <-chan model.Notification {
	return s.notifier.Notifications()
}

// State returns the connection lifecycle state.
func (s *Session) State() connection.State {
	return s.manager.State()
}

// StateChanges registers a connection state observer.
func (s *Session) StateChanges(fn func(connection.State)) (cancel func()) {
	return s.manager.StateChanges(fn)
}

// AdapterCount returns the number of running change-feed adapters.
func (s *Session) AdapterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.adapters)
}

// RouterStats returns message routing statistics.
func (s *Session) RouterStats() router.Stats {
	return s.router.Stats()
}

// Teardown shuts the whole session down: pending reconnect timer cancelled,
// heartbeat stopped, socket closed intentionally, adapters stopped, router
// drained. After it returns no session goroutine or timer remains.
func (s *Session) Teardown(ctx context.Context) error {
	s.manager.Disconnect("client teardown")

	s.mu.Lock()
	s.closed = true
	adapters := make([]*changefeed.Adapter, 0, len(s.adapters))
	for topic, a := range s.adapters {
		adapters = append(adapters, a)
		delete(s.adapters, topic)
	}
	s.mu.Unlock()

	for _, a := range adapters {
		a.Stop()
	}

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("session teardown timed out waiting for resync")
	}

	if err := s.router.Stop(ctx); err != nil {
		return err
	}

	s.logger.Info("session torn down")
	return nil
}

// applyRow merges one change-feed event into the stores through the same
// path push updates take.
func (s *Session) applyRow(ev changefeed.RowEvent) {
	if ev.Event == changefeed.EventDelete {
		switch ev.Table {
		case "bots":
			s.stores.Bots.Delete(ev.ID)
		case "trades":
			s.stores.Trades.Delete(ev.ID)
		case "strategies":
			s.stores.Strategies.Delete(ev.ID)
		}
		return
	}

	if ev.Table == "notifications" {
		alert, err := changefeed.DecodeAlert(ev)
		if err != nil {
			s.logger.Warn("bad notification row", "error", err)
			return
		}
		s.stores.Alerts.Push(alert)
		return
	}

	switch ev.Table {
	case "bots":
		u, err := changefeed.DecodeBot(ev)
		if err != nil {
			s.logger.Warn("bad bot row", "error", err)
			return
		}
		s.router.ApplyBot(u)
	case "trades":
		u, err := changefeed.DecodeTrade(ev)
		if err != nil {
			s.logger.Warn("bad trade row", "error", err)
			return
		}
		s.router.ApplyTrade(u)
	case "strategies":
		u, err := changefeed.DecodeStrategy(ev)
		if err != nil {
			s.logger.Warn("bad strategy row", "error", err)
			return
		}
		s.router.ApplyStrategy(u)
	default:
		s.logger.Debug("ignoring row from unknown table", "table", ev.Table)
	}
}

// resyncAll refetches entity state from the REST API after a (re)connect.
// Push messages missed while the socket was down are recovered here; failures
// are logged and the live stream continues.
func (s *Session) resyncAll() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.API.Timeout)
	defer cancel()

	now := time.Now()

	bots, err := s.resync.ListBots(ctx)
	if err != nil {
		s.logger.Warn("bot resync failed", "error", err)
	}
	for _, u := range bots {
		u.Source = model.SourceResync
		u.ReceivedAt = now
		s.router.ApplyBot(u)
	}

	trades, err := s.resync.ListTrades(ctx)
	if err != nil {
		s.logger.Warn("trade resync failed", "error", err)
	}
	for _, u := range trades {
		u.Source = model.SourceResync
		u.ReceivedAt = now
		s.router.ApplyTrade(u)
	}

	strategies, err := s.resync.ListStrategies(ctx)
	if err != nil {
		s.logger.Warn("strategy resync failed", "error", err)
	}
	for _, u := range strategies {
		u.Source = model.SourceResync
		u.ReceivedAt = now
		s.router.ApplyStrategy(u)
	}

	s.logger.Info("resync complete",
		"bots", len(bots),
		"trades", len(trades),
		"strategies", len(strategies),
	)
}

// pushConnectionAlert records a transport failure as a local alert and toast.
func (s *Session) pushConnectionAlert(err error) {
	now := time.Now()
	alert := model.Alert{
		ID:        uuid.NewString(),
		Level:     model.LevelWarning,
		Title:     "Connection lost",
		Message:   err.Error(),
		Timestamp: now,
	}
	s.stores.Alerts.Push(alert)
	s.notifier.Notify(model.Notification{
		ID:      alert.ID,
		Urgency: alert.Level,
		Title:   alert.Title,
		Body:    alert.Message,
		At:      now,
	})
}
