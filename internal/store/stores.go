package store

import "github.com/botdash/realtime/internal/model"

// Stores bundles every state container for one client session. Mutated only
// by the message router; consumers read snapshots or subscribe.
type Stores struct {
	Bots       *EntityStore[model.BotUpdate]
	Trades     *EntityStore[model.TradeUpdate]
	Strategies *EntityStore[model.StrategyUpdate]
	Chat       *ChatLog
	Metrics    *MetricsCell
	Alerts     *AlertBuffer
}

// NewStores creates empty stores with the given alert cap.
func NewStores(alertCap int) *Stores {
	return &Stores{
		Bots:       NewEntityStore[model.BotUpdate](),
		Trades:     NewEntityStore[model.TradeUpdate](),
		Strategies: NewEntityStore[model.StrategyUpdate](),
		Chat:       NewChatLog(),
		Metrics:    NewMetricsCell(),
		Alerts:     NewAlertBuffer(alertCap),
	}
}
