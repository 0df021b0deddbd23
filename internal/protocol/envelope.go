// Package protocol defines the wire format spoken over the realtime
// WebSocket: the inbound message envelope and the small set of outbound
// frames.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrMalformed   = errors.New("malformed message")
	ErrMissingType = errors.New("message has no type")
)

// MessageType is the discriminator for inbound envelopes.
type MessageType string

// The closed set of message types the server currently emits. Unrecognized
// types are tolerated upstream (logged and dropped), so the server can add
// types without breaking older clients.
const (
	TypeBotStatus          MessageType = "bot_status"
	TypeTradeExecuted      MessageType = "trade_executed"
	TypeStrategyGeneration MessageType = "strategy_generation"
	TypeAIChat             MessageType = "ai_chat"
	TypeMetricsUpdate      MessageType = "metrics_update"
	TypeAlert              MessageType = "alert"
	TypeHeartbeat          MessageType = "heartbeat"
	TypeConnectionStatus   MessageType = "connection_status"
)

// Envelope is the typed wrapper around every inbound realtime message.
// Immutable once parsed.
type Envelope struct {
	MessageID  string          `json:"message_id"`
	Type       MessageType     `json:"type"`
	Data       json.RawMessage `json:"data"`
	UserID     string          `json:"user_id,omitempty"`
	BotID      string          `json:"bot_id,omitempty"`
	TradeID    string          `json:"trade_id,omitempty"`
	StrategyID string          `json:"strategy_id,omitempty"`

	// Priority is an ordinal used only for UI-severity decisions. It never
	// affects delivery order; delivery order is receipt order.
	Priority  int       `json:"priority,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Known reports whether the envelope's type is in the closed set above.
func (e Envelope) Known() bool {
	switch e.Type {
	case TypeBotStatus, TypeTradeExecuted, TypeStrategyGeneration,
		TypeAIChat, TypeMetricsUpdate, TypeAlert,
		TypeHeartbeat, TypeConnectionStatus:
		return true
	}
	return false
}

// Parse decodes a raw frame into an Envelope. A frame that is not valid JSON
// or carries no type fails with ErrMalformed; the caller drops the single bad
// frame and keeps the session alive. Unknown types parse fine; rejecting
// them is the router's call, not the codec's.
func Parse(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}
