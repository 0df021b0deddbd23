package model

import "time"

// Source identifies which channel produced an entity update.
type Source string

const (
	// SourcePush marks updates delivered over the WebSocket push channel.
	SourcePush Source = "push"

	// SourceChangeFeed marks updates delivered by a row-level change feed.
	SourceChangeFeed Source = "changefeed"

	// SourceResync marks updates fetched from the REST API after a
	// (re)connect.
	SourceResync Source = "resync"
)

// -----------------------------------------------------------------------------
// Entity Updates
// -----------------------------------------------------------------------------

// BotUpdate is the latest known state of a trading bot.
type BotUpdate struct {
	BotID      string  `json:"id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"` // running, stopped, paused, error
	StrategyID string  `json:"strategy_id"`
	PnL        float64 `json:"pnl"`

	Source     Source    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// TradeUpdate is the latest known state of a trade.
type TradeUpdate struct {
	TradeID  string  `json:"id"`
	BotID    string  `json:"bot_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"` // buy or sell
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"` // pending, filled, cancelled

	Source     Source    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// StrategyUpdate is the latest generation progress for a strategy.
type StrategyUpdate struct {
	StrategyID string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"` // generating, ready, failed
	Progress   int    `json:"progress"`
	Detail     string `json:"detail"`

	Source     Source    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// ChatTurn is a single turn in an AI chat session. Chat streams are additive;
// turns are appended, never replaced.
type ChatTurn struct {
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"` // user or assistant
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"-"`
}

// MetricsSnapshot is an account-wide metrics rollup. Each update replaces the
// previous snapshot wholesale; there is no per-field merge.
type MetricsSnapshot struct {
	ActiveBots  int     `json:"active_bots"`
	OpenTrades  int     `json:"open_trades"`
	TotalPnL    float64 `json:"total_pnl"`
	WinRate     float64 `json:"win_rate"`
	TradesToday int     `json:"trades_today"`

	CapturedAt time.Time `json:"-"`
}

// -----------------------------------------------------------------------------
// Alerts and Notifications
// -----------------------------------------------------------------------------

// Alert levels, lowest to highest severity.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelError    = "error"
	LevelCritical = "critical"
)

// Alert is a server- or locally-generated alert. Alerts live in a bounded
// most-recent-first buffer and are evicted oldest-first on overflow.
type Alert struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notification is a user-facing toast. Notifications are advisory; dropping
// one never affects entity state.
type Notification struct {
	ID      string
	Urgency string // mirrors alert levels
	Title   string
	Body    string
	At      time.Time
}
