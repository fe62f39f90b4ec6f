package watchlist

import (
	"context"
	"log"
	"sort"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// Symbols whose previous close is at or above this price are too expensive
// for the strategy's position sizing.
const maxPreviousClose = 500

// RefPriceTable maps symbol → session reference price, populated once per
// symbol on its first successful eligibility check and never overwritten.
type RefPriceTable map[string]float64

// FilterEligible keeps the symbols that are day-trade-eligible long with a
// previous close under the price cap, recording each kept symbol's
// reference price into ref on first sight. Per-symbol lookup failures are
// logged and the symbol is dropped; no retry.
func FilterEligible(ctx context.Context, md model.MarketData, symbols []string, ref RefPriceTable) []string {
	kept := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		info, err := md.Ticker(ctx, symbol)
		if err != nil {
			log.Printf("[watchlist] ticker lookup for [%s] failed, dropping: %v", symbol, err)
			continue
		}
		if !info.CanBuyDayTrade || info.PreviousClose >= maxPreviousClose {
			continue
		}
		if _, ok := ref[symbol]; !ok {
			ref[symbol] = info.PreviousClose
		}
		kept = append(kept, symbol)
	}
	return kept
}

// Merge returns the sorted union of the current watchlist and the incoming
// symbols, plus the subset of incoming symbols not already watched. The
// newly-added set decides which symbols still need tail seeding.
func Merge(current, incoming []string) (merged, newlyAdded []string) {
	seen := make(map[string]struct{}, len(current))
	merged = append(merged, current...)
	for _, s := range current {
		seen[s] = struct{}{}
	}
	for _, s := range incoming {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
		newlyAdded = append(newlyAdded, s)
	}
	sort.Strings(merged)
	return merged, newlyAdded
}
