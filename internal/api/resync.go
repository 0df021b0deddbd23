package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/botdash/realtime/internal/model"
)

// pageSize is the max page size the dashboard API allows.
const pageSize = 200

// BotsResponse from GET /bots
type BotsResponse struct {
	Bots   []model.BotUpdate `json:"bots"`
	Cursor string            `json:"cursor"`
}

// TradesResponse from GET /trades
type TradesResponse struct {
	Trades []model.TradeUpdate `json:"trades"`
	Cursor string              `json:"cursor"`
}

// StrategiesResponse from GET /strategies
type StrategiesResponse struct {
	Strategies []model.StrategyUpdate `json:"strategies"`
	Cursor     string                 `json:"cursor"`
}

// ListBots fetches all bots for the authenticated user, paginating through
// results.
func (c *Client) ListBots(ctx context.Context) ([]model.BotUpdate, error) {
	var all []model.BotUpdate
	cursor := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp BotsResponse
		if err := c.get(ctx, "/bots", query, &resp); err != nil {
			return nil, fmt.Errorf("list bots: %w", err)
		}

		all = append(all, resp.Bots...)

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	return all, nil
}

// ListTrades fetches recent trades for the authenticated user.
func (c *Client) ListTrades(ctx context.Context) ([]model.TradeUpdate, error) {
	var all []model.TradeUpdate
	cursor := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp TradesResponse
		if err := c.get(ctx, "/trades", query, &resp); err != nil {
			return nil, fmt.Errorf("list trades: %w", err)
		}

		all = append(all, resp.Trades...)

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	return all, nil
}

// ListStrategies fetches all strategies for the authenticated user.
func (c *Client) ListStrategies(ctx context.Context) ([]model.StrategyUpdate, error) {
	var all []model.StrategyUpdate
	cursor := ""

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp StrategiesResponse
		if err := c.get(ctx, "/strategies", query, &resp); err != nil {
			return nil, fmt.Errorf("list strategies: %w", err)
		}

		all = append(all, resp.Strategies...)

		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	return all, nil
}
