// Package indicator computes technical indicator columns over a stitched
// candle series. All functions recompute from the full series each scan
// cycle; warm-up positions where a value is not yet defined hold NaN.
package indicator

import "math"

// SMA returns the simple moving average of values with the given period.
// The first period-1 positions are NaN. A NaN inside the window propagates
// to the output, so downstream columns stay NaN through their own warm-up.
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		nan := false
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				nan = true
				break
			}
			sum += values[j]
		}
		if nan {
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}
