package watchlist

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

const (
	// Rankings are truncated to the top N rows per list.
	strongTopN = 80

	// Movers percent-change bounds: gainers in [1, 9]%.
	moversGte = 1
	moversLte = 9

	baseVolumeThreshold = 500
)

var strongMarkets = []string{"TSE", "OTC"}

// DynamicVolumeThreshold returns the traded-lot floor a ranking row must
// exceed to count as a strong stock, stepping up as the session ages so a
// large turnover figure early in the day is not mistaken for sustained
// interest. Measured in whole minutes from the 09:00 open.
func DynamicVolumeThreshold(now time.Time) int64 {
	minute := calendar.MinutesFromOpen(now)
	switch {
	case minute <= 30:
		return baseVolumeThreshold
	case minute <= 60:
		return baseVolumeThreshold + 600
	case minute <= 90:
		return baseVolumeThreshold + 1000
	case minute <= 120:
		return baseVolumeThreshold + 1500
	default:
		return baseVolumeThreshold + 2000
	}
}

// StrongScanner finds strong stocks from the live snapshot rankings:
// actives by traded value and movers by percent gain, for both markets.
type StrongScanner struct {
	md model.MarketData
}

// NewStrongScanner creates a scanner over the given market-data source.
func NewStrongScanner(md model.MarketData) *StrongScanner {
	return &StrongScanner{md: md}
}

// Find returns the deduplicated union of qualifying symbols across the four
// ranking lists, sorted. A ranking failure aborts the scan with an empty
// result; an empty result is a valid, non-error outcome either way.
func (s *StrongScanner) Find(ctx context.Context, now time.Time) []string {
	threshold := DynamicVolumeThreshold(now)
	log.Printf("[watchlist] strong-stock scan, volume threshold %d lots", threshold)

	seen := make(map[string]struct{})
	for _, market := range strongMarkets {
		actives, err := s.md.Actives(ctx, market)
		if err != nil {
			log.Printf("[watchlist] actives ranking for %s failed, aborting scan: %v", market, err)
			return nil
		}
		collect(seen, actives, threshold)

		movers, err := s.md.Movers(ctx, market, moversGte, moversLte)
		if err != nil {
			log.Printf("[watchlist] movers ranking for %s failed, aborting scan: %v", market, err)
			return nil
		}
		collect(seen, movers, threshold)
	}

	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	log.Printf("[watchlist] strong-stock scan found %d symbols", len(out))
	return out
}

// collect keeps the top rows whose traded lot volume clears the threshold.
// The volume gate filters out symbols with a large turnover figure but few
// lots actually traded.
func collect(seen map[string]struct{}, rows []model.RankingRow, threshold int64) {
	if len(rows) > strongTopN {
		rows = rows[:strongTopN]
	}
	for _, row := range rows {
		if row.TradeVolume > threshold {
			seen[row.Symbol] = struct{}{}
		}
	}
}
