package changefeed

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/botdash/realtime/internal/model"
)

// Adapter drains one row watch and applies each event through a callback. One
// adapter exists per active entity subscription; stopping it cancels the watch
// and waits for the drain goroutine to exit.
type Adapter struct {
	table  string
	id     string
	cancel func()
	done   chan struct{}
	logger *slog.Logger
}

// NewAdapter starts watching one row. apply is called once per event, in
// arrival order, from a single goroutine.
func NewAdapter(feed Feed, table, id string, apply func(RowEvent), logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	events, cancel, err := feed.Watch(table, id)
	if err != nil {
		return nil, fmt.Errorf("watch %s/%s: %w", table, id, err)
	}

	a := &Adapter{
		table:  table,
		id:     id,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logger,
	}

	go func() {
		defer close(a.done)
		for ev := range events {
			apply(ev)
		}
	}()

	a.logger.Debug("change feed adapter started", "table", table, "id", id)
	return a, nil
}

// Stop cancels the watch and waits for the drain goroutine. Idempotent.
func (a *Adapter) Stop() {
	a.cancel()
	<-a.done
	a.logger.Debug("change feed adapter stopped", "table", a.table, "id", a.id)
}

// Table returns the watched table.
func (a *Adapter) Table() string { return a.table }

// ID returns the watched row id.
func (a *Adapter) ID() string { return a.id }

// -----------------------------------------------------------------------------
// Row decoding
// -----------------------------------------------------------------------------

// DecodeBot extracts a bot update from a row event.
func DecodeBot(ev RowEvent) (model.BotUpdate, error) {
	var u model.BotUpdate
	if err := json.Unmarshal(ev.New, &u); err != nil {
		return model.BotUpdate{}, fmt.Errorf("decode bot row: %w", err)
	}
	if u.BotID == "" {
		u.BotID = ev.ID
	}
	u.Source = model.SourceChangeFeed
	u.ReceivedAt = ev.ReceivedAt
	return u, nil
}

// DecodeTrade extracts a trade update from a row event.
func DecodeTrade(ev RowEvent) (model.TradeUpdate, error) {
	var u model.TradeUpdate
	if err := json.Unmarshal(ev.New, &u); err != nil {
		return model.TradeUpdate{}, fmt.Errorf("decode trade row: %w", err)
	}
	if u.TradeID == "" {
		u.TradeID = ev.ID
	}
	u.Source = model.SourceChangeFeed
	u.ReceivedAt = ev.ReceivedAt
	return u, nil
}

// DecodeAlert extracts an alert from a user-notification row event. The row
// is routed by user id, so the alert's own id comes from the payload.
func DecodeAlert(ev RowEvent) (model.Alert, error) {
	var a model.Alert
	if err := json.Unmarshal(ev.New, &a); err != nil {
		return model.Alert{}, fmt.Errorf("decode notification row: %w", err)
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = ev.ReceivedAt
	}
	return a, nil
}

// DecodeStrategy extracts a strategy update from a row event.
func DecodeStrategy(ev RowEvent) (model.StrategyUpdate, error) {
	var u model.StrategyUpdate
	if err := json.Unmarshal(ev.New, &u); err != nil {
		return model.StrategyUpdate{}, fmt.Errorf("decode strategy row: %w", err)
	}
	if u.StrategyID == "" {
		u.StrategyID = ev.ID
	}
	u.Source = model.SourceChangeFeed
	u.ReceivedAt = ev.ReceivedAt
	return u, nil
}
