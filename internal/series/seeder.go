package series

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// TailCache caches seeded tails across process restarts so a mid-session
// restart does not repeat the paced historical fetches.
type TailCache interface {
	Load(ctx context.Context, symbol string, date time.Time) ([]model.Candle, bool)
	Save(ctx context.Context, symbol string, date time.Time, candles []model.Candle)
}

// TailSeeder fetches the prior-session tail window for a set of symbols.
// Fetches run serially with a fixed pacing delay between symbols; the
// upstream has no date-range filter for intraday granularity, so the
// trailing window is filtered locally to the previous trading day.
type TailSeeder struct {
	md        model.MarketData
	cache     TailCache        // optional
	metrics   *metrics.Metrics // optional
	timeframe string
	pace      time.Duration
	sleep     func(time.Duration) // injectable for tests
}

// NewTailSeeder creates a seeder over the given market-data source.
// cache and m may be nil.
func NewTailSeeder(md model.MarketData, cache TailCache, m *metrics.Metrics) *TailSeeder {
	return &TailSeeder{
		md:        md,
		cache:     cache,
		metrics:   m,
		timeframe: "5",
		pace:      time.Second,
		sleep:     time.Sleep,
	}
}

func (s *TailSeeder) countSkip(reason string) {
	if s.metrics != nil {
		s.metrics.SeedSkips.WithLabelValues(reason).Inc()
	}
}

// Seed fetches and returns the last TailLen bars of prevDay for each
// symbol. Symbols with errors, rate limiting, or fewer than TailLen bars
// for that date are skipped with a log line; the result only contains
// fully seeded symbols.
func (s *TailSeeder) Seed(ctx context.Context, symbols []string, prevDay time.Time) map[string][]model.Candle {
	log.Printf("[seeder] fetching %d-bar tails of %s for %d symbols",
		TailLen, prevDay.In(calendar.Taipei).Format("2006-01-02"), len(symbols))

	tails := make(map[string][]model.Candle, len(symbols))
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		if tail, ok := s.seedOne(ctx, symbol, prevDay); ok {
			tails[symbol] = tail
		}
		if i < len(symbols)-1 {
			s.sleep(s.pace)
		}
	}

	log.Printf("[seeder] tails ready for %d of %d symbols", len(tails), len(symbols))
	return tails
}

func (s *TailSeeder) seedOne(ctx context.Context, symbol string, prevDay time.Time) ([]model.Candle, bool) {
	if s.cache != nil {
		if tail, ok := s.cache.Load(ctx, symbol, prevDay); ok {
			log.Printf("[seeder] [%s] tail served from cache", symbol)
			return tail, true
		}
	}

	candles, err := s.md.HistoricalCandles(ctx, symbol, s.timeframe)
	if err != nil {
		if errors.Is(err, model.ErrRateLimited) {
			log.Printf("[seeder] [%s] historical fetch throttled, skipping: %v", symbol, err)
			s.countSkip("throttled")
		} else {
			log.Printf("[seeder] [%s] historical fetch failed, skipping: %v", symbol, err)
			s.countSkip("fetch_error")
		}
		return nil, false
	}

	var tail []model.Candle
	for _, c := range candles {
		if calendar.SameDate(c.TS, prevDay) {
			tail = append(tail, c)
		}
	}
	if len(tail) < TailLen {
		if len(tail) == 0 {
			log.Printf("[seeder] [%s] no bars for previous trading day, skipping", symbol)
		} else {
			log.Printf("[seeder] [%s] only %d bars for previous trading day, skipping", symbol, len(tail))
		}
		s.countSkip("short_tail")
		return nil, false
	}

	sortAscending(tail)
	tail = tail[len(tail)-TailLen:]

	if s.cache != nil {
		s.cache.Save(ctx, symbol, prevDay, tail)
	}
	return tail, true
}
