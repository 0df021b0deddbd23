// Package subscription tracks which topics the client currently wants and
// replays them on every successful (re)connect.
package subscription

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/botdash/realtime/internal/protocol"
)

// Topic constructors. A topic names one subscribable stream of updates.
func UserTopic(id string) string     { return "user:" + id }
func BotTopic(id string) string      { return "bot:" + id }
func TradeTopic(id string) string    { return "trade:" + id }
func StrategyTopic(id string) string { return "strategy:" + id }

// Split breaks a topic into its kind and entity id.
func Split(topic string) (kind, id string, err error) {
	kind, id, ok := strings.Cut(topic, ":")
	if !ok || kind == "" || id == "" {
		return "", "", fmt.Errorf("malformed topic %q", topic)
	}
	return kind, id, nil
}

// Sender delivers outbound frames best-effort.
type Sender func(frame []byte)

// Registry holds the active topic set. Set semantics: no duplicates, and
// replaying an already-server-known topic is harmless by protocol contract.
type Registry struct {
	send   Sender
	isOpen func() bool
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewRegistry creates a registry. send is used for subscribe/unsubscribe
// frames; isOpen gates whether a frame goes out now or waits for replay.
func NewRegistry(send Sender, isOpen func() bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		send:   send,
		isOpen: isOpen,
		logger: logger,
		active: make(map[string]struct{}),
	}
}

// Subscribe records intent for a topic. If the connection is open and the
// topic is new, a subscribe frame goes out immediately; otherwise the intent
// waits for the next replay.
func (r *Registry) Subscribe(topic string) {
	r.mu.Lock()
	_, exists := r.active[topic]
	r.active[topic] = struct{}{}
	r.mu.Unlock()

	if exists {
		return
	}

	if r.isOpen() {
		r.send(protocol.SubscribeFrame(topic))
	}
	r.logger.Debug("subscribed", "topic", topic)
}

// Unsubscribe removes a topic. Succeeds locally regardless of connection
// state; the unsubscribe frame goes out only when open.
func (r *Registry) Unsubscribe(topic string) {
	r.mu.Lock()
	_, exists := r.active[topic]
	delete(r.active, topic)
	r.mu.Unlock()

	if !exists {
		return
	}

	if r.isOpen() {
		r.send(protocol.UnsubscribeFrame(topic))
	}
	r.logger.Debug("unsubscribed", "topic", topic)
}

// ReplayAll re-sends subscribe frames for the whole active set. Invoked once
// per successful (re)connection. Idempotent on the server side.
func (r *Registry) ReplayAll() {
	topics := r.Topics()
	for _, topic := range topics {
		r.send(protocol.SubscribeFrame(topic))
	}
	r.logger.Info("replayed subscriptions", "count", len(topics))
}

// Has reports whether a topic is active.
func (r *Registry) Has(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[topic]
	return ok
}

// Topics returns the active set, sorted for stable iteration.
func (r *Registry) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.active))
	for t := range r.active {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of active topics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
