package fubon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Ticker looks up per-symbol intraday metadata.
func (c *Client) Ticker(ctx context.Context, symbol string) (*TickerData, error) {
	raw, _, err := c.doRequest(ctx, http.MethodGet, "intraday.ticker", symbol, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ticker %s: %w", symbol, err)
	}
	var out TickerData
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("ticker %s: parse response: %w", symbol, err)
	}
	return &out, nil
}

// HistoricalCandles fetches the trailing candle window for an intraday
// timeframe ("5" = 5 minutes). The upstream ignores date-range parameters
// at this granularity and always returns roughly one month, newest first.
func (c *Client) HistoricalCandles(ctx context.Context, symbol, timeframe string) ([]CandleData, error) {
	q := url.Values{"timeframe": {timeframe}}
	raw, _, err := c.doRequest(ctx, http.MethodGet, "historical.candles", symbol, q, nil)
	if err != nil {
		return nil, fmt.Errorf("historical candles %s: %w", symbol, err)
	}
	var out candlesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("historical candles %s: parse response: %w", symbol, err)
	}
	return out.Data, nil
}

// IntradayCandles fetches the current session's candles, oldest first.
func (c *Client) IntradayCandles(ctx context.Context, symbol, timeframe string) ([]CandleData, error) {
	q := url.Values{"timeframe": {timeframe}}
	raw, _, err := c.doRequest(ctx, http.MethodGet, "intraday.candles", symbol, q, nil)
	if err != nil {
		return nil, fmt.Errorf("intraday candles %s: %w", symbol, err)
	}
	var out candlesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("intraday candles %s: parse response: %w", symbol, err)
	}
	return out.Data, nil
}

// Actives fetches the snapshot ranking by traded value for a market
// ("TSE" or "OTC"), common stocks only.
func (c *Client) Actives(ctx context.Context, market string) ([]SnapshotRow, error) {
	q := url.Values{
		"trade": {"value"},
		"type":  {"COMMONSTOCK"},
	}
	raw, _, err := c.doRequest(ctx, http.MethodGet, "snapshot.actives", market, q, nil)
	if err != nil {
		return nil, fmt.Errorf("actives %s: %w", market, err)
	}
	var out snapshotResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("actives %s: parse response: %w", market, err)
	}
	return out.Data, nil
}

// Movers fetches the snapshot ranking of gainers whose percent change lies
// in [gte, lte], common stocks only.
func (c *Client) Movers(ctx context.Context, market string, gte, lte int) ([]SnapshotRow, error) {
	q := url.Values{
		"direction": {"up"},
		"change":    {"percent"},
		"type":      {"COMMONSTOCK"},
		"gte":       {strconv.Itoa(gte)},
		"lte":       {strconv.Itoa(lte)},
	}
	raw, _, err := c.doRequest(ctx, http.MethodGet, "snapshot.movers", market, q, nil)
	if err != nil {
		return nil, fmt.Errorf("movers %s: %w", market, err)
	}
	var out snapshotResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("movers %s: parse response: %w", market, err)
	}
	return out.Data, nil
}
