// Package strategy evaluates the day-trade entry signal over a stitched
// 5-minute candle series.
//
// The signal fires when, on the latest bar, all four hold:
//   - KD(9,3,3) golden cross: previous %K < %D, latest %K > %D, latest %K < 80
//   - bullish MA stacking: close > SMA5 > SMA10 > SMA20
//   - volume surge: latest volume > 1.2x previous volume
//   - bullish candle: close > open
//
// A technically valid signal is still suppressed when the move has already
// run past the profitability ceiling vs the session reference price.
package strategy

import (
	"math"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/indicator"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
)

// MinSeriesLen is the shortest stitched series the evaluator accepts:
// one bar more than the slowest moving average.
const MinSeriesLen = 21

// Outcome classifies one evaluation of one symbol.
type Outcome int

const (
	// OutcomeNone means the technical conditions did not line up.
	OutcomeNone Outcome = iota
	// OutcomeFired means all conditions held and the ceiling allowed entry.
	OutcomeFired
	// OutcomeAboveCeiling means the conditions held but the move already
	// exceeded the profitability ceiling; logged, never alerted.
	OutcomeAboveCeiling
	// OutcomeInsufficientData means the series is too short to evaluate.
	OutcomeInsufficientData
	// OutcomeNoReference means no reference price is known for the symbol,
	// so the evaluation cannot be gated and is skipped entirely.
	OutcomeNoReference
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFired:
		return "fired"
	case OutcomeAboveCeiling:
		return "above ceiling"
	case OutcomeInsufficientData:
		return "insufficient data"
	case OutcomeNoReference:
		return "no reference price"
	default:
		return "no signal"
	}
}

// Evaluation is the result of scoring one symbol on one scan cycle.
type Evaluation struct {
	Outcome   Outcome
	Signal    *model.Signal // non-nil only when Outcome == OutcomeFired
	ChangePct float64       // vs reference price, defined unless no reference
}

// Evaluator scores a stitched candle series against a reference price.
type Evaluator interface {
	Evaluate(candles []model.Candle, refPrice float64, hasRef bool) Evaluation
}

// DayTrade holds the signal parameterization.
type DayTrade struct {
	stochLen    int
	smoothK     int
	smoothD     int
	maxK        float64 // golden cross rejected at or above this %K
	volumeRatio float64
	ceilingPct  float64
}

// New returns the evaluator with the standard parameterization:
// KD(9,3,3), %K ceiling 80, 1.2x volume surge, 8.5% profit ceiling.
func New() *DayTrade {
	return &DayTrade{
		stochLen:    9,
		smoothK:     3,
		smoothD:     3,
		maxK:        80,
		volumeRatio: 1.2,
		ceilingPct:  8.5,
	}
}

const signalReason = "KD9 golden cross & MA stack & 1.2x volume surge & bullish close"

// columns holds the indicator columns computed over one series.
type columns struct {
	k, d               []float64
	sma5, sma10, sma20 []float64
}

// Evaluate scores a stitched series against the reference price.
// hasRef=false suppresses evaluation entirely for the symbol.
func (s *DayTrade) Evaluate(candles []model.Candle, refPrice float64, hasRef bool) Evaluation {
	if len(candles) < MinSeriesLen {
		return Evaluation{Outcome: OutcomeInsufficientData}
	}
	if !hasRef || refPrice <= 0 {
		return Evaluation{Outcome: OutcomeNoReference}
	}

	n := len(candles)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}

	var cols columns
	cols.k, cols.d = indicator.Stoch(highs, lows, closes, s.stochLen, s.smoothK, s.smoothD)
	cols.sma5 = indicator.SMA(closes, 5)
	cols.sma10 = indicator.SMA(closes, 10)
	cols.sma20 = indicator.SMA(closes, 20)

	return s.score(candles, refPrice, cols)
}

func (s *DayTrade) score(candles []model.Candle, refPrice float64, cols columns) Evaluation {
	n := len(candles)
	latest := candles[n-1]
	previous := candles[n-2]

	// An undefined oscillator column suppresses the golden cross only;
	// the remaining conditions are still checked.
	goldenCross := false
	if !math.IsNaN(cols.k[n-1]) && !math.IsNaN(cols.k[n-2]) &&
		!math.IsNaN(cols.d[n-1]) && !math.IsNaN(cols.d[n-2]) {
		goldenCross = cols.k[n-2] < cols.d[n-2] && cols.k[n-1] > cols.d[n-1] && cols.k[n-1] < s.maxK
	}

	maAligned := !math.IsNaN(cols.sma20[n-1]) &&
		latest.Close > cols.sma5[n-1] &&
		cols.sma5[n-1] > cols.sma10[n-1] &&
		cols.sma10[n-1] > cols.sma20[n-1]

	volumeSurge := float64(latest.Volume) > float64(previous.Volume)*s.volumeRatio

	bullish := latest.Close > latest.Open

	changePct := (latest.Close - refPrice) / refPrice * 100

	if !(goldenCross && maAligned && volumeSurge && bullish) {
		return Evaluation{Outcome: OutcomeNone, ChangePct: changePct}
	}
	if changePct > s.ceilingPct {
		return Evaluation{Outcome: OutcomeAboveCeiling, ChangePct: changePct}
	}
	return Evaluation{
		Outcome:   OutcomeFired,
		ChangePct: changePct,
		Signal: &model.Signal{
			Symbol:    latest.Symbol,
			BarEnd:    latest.BarEnd(),
			Close:     latest.Close,
			ChangePct: changePct,
			Reason:    signalReason,
		},
	}
}
