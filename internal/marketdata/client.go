// Package marketdata adapts the brokerage REST client to the engine's
// MarketData port. All wire rows are validated here, converting missing or
// malformed fields into the typed error kinds the engine branches on.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/pkg/fubon"
)

// Client implements model.MarketData over the Fubon REST client.
type Client struct {
	api     *fubon.Client
	metrics *metrics.Metrics // optional
}

// New wraps an authenticated REST client. m may be nil.
func New(api *fubon.Client, m *metrics.Metrics) *Client {
	return &Client{api: api, metrics: m}
}

// observe records one upstream call per route: count, latency, and
// whether it failed.
func (c *Client) observe(route string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.APIRequests.WithLabelValues(route).Inc()
	c.metrics.APIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.APIErrors.WithLabelValues(route).Inc()
	}
}

// Ticker implements model.MarketData.
func (c *Client) Ticker(ctx context.Context, symbol string) (*model.TickerInfo, error) {
	start := time.Now()
	data, err := c.api.Ticker(ctx, symbol)
	c.observe("ticker", start, err)
	if err != nil {
		return nil, mapErr(err)
	}
	info := &model.TickerInfo{
		Symbol:         data.Symbol,
		Name:           data.Name,
		CanBuyDayTrade: data.CanBuyDayTrade,
		PreviousClose:  data.PreviousClose,
		ReferencePrice: data.ReferencePrice,
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// HistoricalCandles implements model.MarketData.
func (c *Client) HistoricalCandles(ctx context.Context, symbol, timeframe string) ([]model.Candle, error) {
	start := time.Now()
	rows, err := c.api.HistoricalCandles(ctx, symbol, timeframe)
	c.observe("historical_candles", start, err)
	if err != nil {
		return nil, mapErr(err)
	}
	return convertCandles(symbol, rows)
}

// IntradayCandles implements model.MarketData.
func (c *Client) IntradayCandles(ctx context.Context, symbol, timeframe string) ([]model.Candle, error) {
	start := time.Now()
	rows, err := c.api.IntradayCandles(ctx, symbol, timeframe)
	c.observe("intraday_candles", start, err)
	if err != nil {
		return nil, mapErr(err)
	}
	return convertCandles(symbol, rows)
}

// Actives implements model.MarketData.
func (c *Client) Actives(ctx context.Context, market string) ([]model.RankingRow, error) {
	start := time.Now()
	rows, err := c.api.Actives(ctx, market)
	c.observe("actives", start, err)
	if err != nil {
		return nil, mapErr(err)
	}
	return convertRankings(rows)
}

// Movers implements model.MarketData.
func (c *Client) Movers(ctx context.Context, market string, gte, lte int) ([]model.RankingRow, error) {
	start := time.Now()
	rows, err := c.api.Movers(ctx, market, gte, lte)
	c.observe("movers", start, err)
	if err != nil {
		return nil, mapErr(err)
	}
	return convertRankings(rows)
}

func convertCandles(symbol string, rows []fubon.CandleData) ([]model.Candle, error) {
	out := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := convertCandle(symbol, row)
		if err != nil {
			return nil, err
		}
		out = append(out, candle)
	}
	return out, nil
}

func convertCandle(symbol string, row fubon.CandleData) (model.Candle, error) {
	ts, err := parseBarTime(row.Date)
	if err != nil {
		return model.Candle{}, &model.MalformedRecordError{Source: "candle", Field: "date", Symbol: symbol}
	}
	if row.Close <= 0 {
		return model.Candle{}, &model.MalformedRecordError{Source: "candle", Field: "close", Symbol: symbol}
	}
	return model.Candle{
		Symbol: symbol,
		TS:     ts,
		Open:   row.Open,
		High:   row.High,
		Low:    row.Low,
		Close:  row.Close,
		Volume: row.Volume,
	}, nil
}

func convertRankings(rows []fubon.SnapshotRow) ([]model.RankingRow, error) {
	out := make([]model.RankingRow, 0, len(rows))
	for _, row := range rows {
		r := model.RankingRow{
			Symbol:      row.Symbol,
			Name:        row.Name,
			TradeVolume: row.TradeVolume,
			ChangePct:   row.ChangePercent,
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// parseBarTime accepts the ISO-8601 forms the upstream has been seen to
// emit, with and without a zone offset. Offset-less timestamps are
// exchange-local.
func parseBarTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000-07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, calendar.Taipei); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized bar timestamp %q", s)
}

// mapErr converts transport-level failures into the engine's error kinds.
func mapErr(err error) error {
	if fubon.IsThrottled(err) {
		return fmt.Errorf("%w: %v", model.ErrRateLimited, err)
	}
	var se *fubon.StatusError
	if errors.As(err, &se) && se.Code == 404 {
		return fmt.Errorf("%w: %v", model.ErrSourceUnavailable, err)
	}
	return err
}
