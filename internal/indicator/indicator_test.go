package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_Basic(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("warm-up positions should be NaN")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(out[i+2], w) {
			t.Errorf("SMA[%d] = %v, want %v", i+2, out[i+2], w)
		}
	}
}

func TestSMA_ShortSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("position %d: expected NaN for series shorter than period, got %v", i, v)
		}
	}
}

func TestSMA_NaNPropagates(t *testing.T) {
	values := []float64{math.NaN(), 2, 3, 4}
	out := SMA(values, 3)
	if !math.IsNaN(out[2]) {
		t.Error("window containing NaN should yield NaN")
	}
	if !almostEqual(out[3], 3) {
		t.Errorf("clean window should compute: got %v, want 3", out[3])
	}
}

func TestStoch_WarmUp(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 110 + float64(i)
		lows[i] = 90 + float64(i)
		closes[i] = 100 + float64(i)
	}
	k, d := Stoch(highs, lows, closes, 9, 3, 3)

	// Raw %K defined from index 8, smoothed %K from index 10, %D from 12.
	if !math.IsNaN(k[9]) {
		t.Errorf("%%K[9] should still be warming up, got %v", k[9])
	}
	if math.IsNaN(k[10]) {
		t.Error("%K[10] should be defined")
	}
	if !math.IsNaN(d[11]) {
		t.Errorf("%%D[11] should still be warming up, got %v", d[11])
	}
	if math.IsNaN(d[12]) {
		t.Error("%D[12] should be defined")
	}
}

func TestStoch_MidRangeClose(t *testing.T) {
	// Close pinned to the middle of a constant 90..110 range → %K = 50.
	n := 15
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 110
		lows[i] = 90
		closes[i] = 100
	}
	k, d := Stoch(highs, lows, closes, 9, 3, 3)
	if !almostEqual(k[n-1], 50) {
		t.Errorf("%%K = %v, want 50", k[n-1])
	}
	if !almostEqual(d[n-1], 50) {
		t.Errorf("%%D = %v, want 50", d[n-1])
	}
}

func TestStoch_CloseAtHigh(t *testing.T) {
	// Close equal to the window high → %K = 100.
	n := 15
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 100
		lows[i] = 80
		closes[i] = 100
	}
	k, _ := Stoch(highs, lows, closes, 9, 3, 3)
	if !almostEqual(k[n-1], 100) {
		t.Errorf("%%K = %v, want 100", k[n-1])
	}
}

func TestStoch_FlatWindowUndefined(t *testing.T) {
	n := 15
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 100
	}
	k, d := Stoch(flat, flat, flat, 9, 3, 3)
	if !math.IsNaN(k[n-1]) || !math.IsNaN(d[n-1]) {
		t.Error("flat high/low window should leave the oscillator undefined")
	}
}
