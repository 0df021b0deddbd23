// Package router dispatches inbound envelopes and change-feed rows to the
// entity stores. It is the only writer the stores have; the push channel and
// the change feed converge here.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/botdash/realtime/internal/connection"
	"github.com/botdash/realtime/internal/model"
	"github.com/botdash/realtime/internal/protocol"
	"github.com/botdash/realtime/internal/store"
)

// Bot statuses worth a user-facing notification. Everything else updates
// silently.
var notableBotStatuses = map[string]bool{
	"running": true,
	"stopped": true,
	"paused":  true,
	"error":   true,
}

// Router consumes raw frames from the Connection Manager and applies them to
// the stores. Its Apply* methods are safe to call concurrently from any
// source; last write wins by arrival.
type Router struct {
	cfg      Config
	stores   *store.Stores
	notifier Notifier
	logger   *slog.Logger

	// Input from Connection Manager
	input <-chan connection.RawMessage

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	received      int64
	routed        int64
	parseErrors   int64
	unknownTypes  int64
	notifications int64
}

// New creates a Message Router.
func New(cfg Config, stores *store.Stores, notifier Notifier, input <-chan connection.RawMessage, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Router{
		cfg:      cfg,
		stores:   stores,
		notifier: notifier,
		logger:   logger,
		input:    input,
	}
}

// Start begins routing messages.
func (r *Router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("message router started",
		"priority_threshold", r.cfg.PriorityThreshold,
	)

	return nil
}

// Stop gracefully shuts down the router.
func (r *Router) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	return nil
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		Received:      r.received,
		Routed:        r.routed,
		ParseErrors:   r.parseErrors,
		UnknownTypes:  r.unknownTypes,
		Notifications: r.notifications,
	}
}

// routeLoop is the main routing goroutine.
func (r *Router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(raw)
		}
	}
}

// route parses and dispatches a single frame. A frame that fails to parse is
// dropped and logged; the session continues.
func (r *Router) route(raw connection.RawMessage) {
	r.count(&r.received)

	env, err := protocol.Parse(raw.Data)
	if err != nil {
		r.logger.Warn("dropping malformed message", "error", err)
		r.count(&r.parseErrors)
		return
	}

	r.Dispatch(env, raw.ReceivedAt)
}

// Dispatch applies one envelope to the stores. Envelopes are applied in
// receipt order; priority never reorders delivery.
func (r *Router) Dispatch(env protocol.Envelope, receivedAt time.Time) {
	switch env.Type {
	case protocol.TypeBotStatus:
		r.dispatchBotStatus(env, receivedAt)

	case protocol.TypeTradeExecuted:
		r.dispatchTradeExecuted(env, receivedAt)

	case protocol.TypeStrategyGeneration:
		r.dispatchStrategyGeneration(env, receivedAt)

	case protocol.TypeAIChat:
		r.dispatchChat(env, receivedAt)

	case protocol.TypeMetricsUpdate:
		r.dispatchMetrics(env, receivedAt)

	case protocol.TypeAlert:
		r.dispatchAlert(env, receivedAt)

	case protocol.TypeHeartbeat:
		// Keep-alive echo, no state change.

	case protocol.TypeConnectionStatus:
		r.logger.Debug("connection status", "data", string(env.Data))

	default:
		// Forward-compatible with server-added message types.
		r.logger.Debug("skipping unknown message type", "type", env.Type)
		r.count(&r.unknownTypes)
		return
	}

	r.count(&r.routed)
}

// ApplyBot writes a bot update into the store. Change-feed adapters and the
// push path both land here, so the two sources converge on one state.
func (r *Router) ApplyBot(u model.BotUpdate) {
	r.stores.Bots.Put(u.BotID, u)
}

// ApplyTrade writes a trade update into the store.
func (r *Router) ApplyTrade(u model.TradeUpdate) {
	r.stores.Trades.Put(u.TradeID, u)
}

// ApplyStrategy writes a strategy update into the store.
func (r *Router) ApplyStrategy(u model.StrategyUpdate) {
	r.stores.Strategies.Put(u.StrategyID, u)
}

func (r *Router) dispatchBotStatus(env protocol.Envelope, receivedAt time.Time) {
	var u model.BotUpdate
	if err := json.Unmarshal(env.Data, &u); err != nil {
		r.logger.Warn("bad bot_status payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	if u.BotID == "" {
		u.BotID = env.BotID
	}
	if u.BotID == "" {
		r.logger.Warn("bot_status without bot id, dropping")
		r.count(&r.parseErrors)
		return
	}
	u.Source = model.SourcePush
	u.ReceivedAt = receivedAt

	r.ApplyBot(u)

	if notableBotStatuses[u.Status] {
		urgency := model.LevelInfo
		if u.Status == "error" {
			urgency = model.LevelError
		}
		name := u.Name
		if name == "" {
			name = u.BotID
		}
		r.notify(model.Notification{
			ID:      uuid.NewString(),
			Urgency: urgency,
			Title:   "Bot " + u.Status,
			Body:    name,
			At:      receivedAt,
		})
	}
}

func (r *Router) dispatchTradeExecuted(env protocol.Envelope, receivedAt time.Time) {
	var u model.TradeUpdate
	if err := json.Unmarshal(env.Data, &u); err != nil {
		r.logger.Warn("bad trade_executed payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	if u.TradeID == "" {
		u.TradeID = env.TradeID
	}
	if u.TradeID == "" {
		r.logger.Warn("trade_executed without trade id, dropping")
		r.count(&r.parseErrors)
		return
	}
	u.Source = model.SourcePush
	u.ReceivedAt = receivedAt

	r.ApplyTrade(u)

	r.notify(model.Notification{
		ID:      uuid.NewString(),
		Urgency: model.LevelInfo,
		Title:   "Trade executed",
		Body:    u.Side + " " + u.Symbol,
		At:      receivedAt,
	})
}

func (r *Router) dispatchStrategyGeneration(env protocol.Envelope, receivedAt time.Time) {
	var u model.StrategyUpdate
	if err := json.Unmarshal(env.Data, &u); err != nil {
		r.logger.Warn("bad strategy_generation payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	if u.StrategyID == "" {
		u.StrategyID = env.StrategyID
	}
	if u.StrategyID == "" {
		r.logger.Warn("strategy_generation without strategy id, dropping")
		r.count(&r.parseErrors)
		return
	}
	u.Source = model.SourcePush
	u.ReceivedAt = receivedAt

	// Progress-only stream: no notification.
	r.ApplyStrategy(u)
}

func (r *Router) dispatchChat(env protocol.Envelope, receivedAt time.Time) {
	var turn model.ChatTurn
	if err := json.Unmarshal(env.Data, &turn); err != nil {
		r.logger.Warn("bad ai_chat payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	if turn.SessionID == "" {
		r.logger.Warn("ai_chat without session id, dropping")
		r.count(&r.parseErrors)
		return
	}
	turn.ReceivedAt = receivedAt

	r.stores.Chat.Append(turn)
}

func (r *Router) dispatchMetrics(env protocol.Envelope, receivedAt time.Time) {
	var snap model.MetricsSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		r.logger.Warn("bad metrics_update payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	snap.CapturedAt = receivedAt

	r.stores.Metrics.Replace(snap)
}

func (r *Router) dispatchAlert(env protocol.Envelope, receivedAt time.Time) {
	var alert model.Alert
	if err := json.Unmarshal(env.Data, &alert); err != nil {
		r.logger.Warn("bad alert payload", "error", err)
		r.count(&r.parseErrors)
		return
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = receivedAt
	}

	r.stores.Alerts.Push(alert)

	if env.Priority >= r.cfg.PriorityThreshold {
		r.notify(model.Notification{
			ID:      alert.ID,
			Urgency: alert.Level,
			Title:   alert.Title,
			Body:    alert.Message,
			At:      receivedAt,
		})
	}
}

func (r *Router) notify(n model.Notification) {
	r.notifier.Notify(n)
	r.count(&r.notifications)
}

func (r *Router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}
