package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the watchlist, seeding, and scan logic from the
// concrete brokerage client so tests can substitute fakes.

// MarketData is the brokerage market-data surface the engine consumes.
// All calls are synchronous and blocking; pacing between calls is the
// caller's responsibility.
type MarketData interface {
	// Ticker returns per-symbol metadata (day-trade eligibility, previous
	// close, reference price).
	Ticker(ctx context.Context, symbol string) (*TickerInfo, error)

	// HistoricalCandles returns the broker-default trailing window of
	// candles for the given intraday timeframe ("5" = 5 minutes),
	// newest first. Date-range filtering is not honored upstream.
	HistoricalCandles(ctx context.Context, symbol, timeframe string) ([]Candle, error)

	// IntradayCandles returns the current session's candles, oldest first.
	IntradayCandles(ctx context.Context, symbol, timeframe string) ([]Candle, error)

	// Actives returns the snapshot ranking by traded value for a market
	// ("TSE" or "OTC"), common stocks only, best first.
	Actives(ctx context.Context, market string) ([]RankingRow, error)

	// Movers returns the snapshot ranking of gainers whose percent change
	// lies in [gte, lte], common stocks only, best first.
	Movers(ctx context.Context, market string, gte, lte int) ([]RankingRow, error)
}
