package indicator

import "math"

// Stoch computes the stochastic oscillator with the standard
// (length, smoothK, smoothD) parameterization: raw %K over the
// highest-high/lowest-low window, smoothed by smoothK into the fast line
// and by smoothD into the slow line. Warm-up positions are NaN.
//
// The (9, 3, 3) form is the KD oscillator common on Taiwanese charts.
func Stoch(highs, lows, closes []float64, length, smoothK, smoothD int) (k, d []float64) {
	n := len(closes)
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = math.NaN()
	}
	for i := length - 1; i < n; i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - length + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			continue // flat window, %K undefined
		}
		raw[i] = (closes[i] - ll) / (hh - ll) * 100
	}
	k = SMA(raw, smoothK)
	d = SMA(k, smoothD)
	return k, d
}
