// Package series maintains per-symbol candle series: a frozen tail of
// prior-session bars stitched ahead of the growing same-session segment.
package series

import (
	"sort"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// TailLen is the number of prior-session bars kept per symbol. Symbols with
// fewer bars for the previous trading day are not seeded at all.
const TailLen = 20

// Stitch concatenates the prior-session tail (possibly nil) with the live
// same-session segment in chronological order. Tail and live bars are
// disjoint by construction (different calendar dates), so no deduplication
// is needed. The inputs are not mutated.
func Stitch(tail, live []model.Candle) []model.Candle {
	out := make([]model.Candle, 0, len(tail)+len(live))
	out = append(out, tail...)
	out = append(out, live...)
	return out
}

// sortAscending orders candles by bar start time, oldest first.
func sortAscending(candles []model.Candle) {
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].TS.Before(candles[j].TS)
	})
}
