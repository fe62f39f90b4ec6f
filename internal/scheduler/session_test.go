package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/series"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/strategy"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/watchlist"
)

// 2026-08-28 is a Friday with no exchange holiday.
func tradingTime(hh, mm, ss int) time.Time {
	return time.Date(2026, 8, 28, hh, mm, ss, 0, calendar.Taipei)
}

// fakeClock returns the scripted times in order, then keeps returning a
// time past the monitoring window so the loop always terminates.
type fakeClock struct {
	times []time.Time
	idx   int
}

func (c *fakeClock) now() time.Time {
	if c.idx >= len(c.times) {
		return tradingTime(13, 30, 0)
	}
	t := c.times[c.idx]
	c.idx++
	return t
}

type fakeMarket struct {
	tickers     map[string]*model.TickerInfo
	intraday    []model.Candle
	intradayErr error
	actives     []model.RankingRow
}

func (f *fakeMarket) Ticker(ctx context.Context, symbol string) (*model.TickerInfo, error) {
	info, ok := f.tickers[symbol]
	if !ok {
		return nil, model.ErrSourceUnavailable
	}
	return info, nil
}

func (f *fakeMarket) HistoricalCandles(ctx context.Context, symbol, tf string) ([]model.Candle, error) {
	return nil, model.ErrSourceUnavailable
}

func (f *fakeMarket) IntradayCandles(ctx context.Context, symbol, tf string) ([]model.Candle, error) {
	if f.intradayErr != nil {
		return nil, f.intradayErr
	}
	return f.intraday, nil
}

func (f *fakeMarket) Actives(ctx context.Context, market string) ([]model.RankingRow, error) {
	return f.actives, nil
}

func (f *fakeMarket) Movers(ctx context.Context, market string, gte, lte int) ([]model.RankingRow, error) {
	return nil, nil
}

type fixedEvaluator struct {
	ev    strategy.Evaluation
	calls int
}

func (f *fixedEvaluator) Evaluate(candles []model.Candle, refPrice float64, hasRef bool) strategy.Evaluation {
	f.calls++
	return f.ev
}

type countingNotifier struct {
	sent []model.Signal
}

func (n *countingNotifier) Name() string { return "counting" }

func (n *countingNotifier) Send(ctx context.Context, sig model.Signal) error {
	n.sent = append(n.sent, sig)
	return nil
}

// reportDir writes one big-volume report for the test date so the base
// watchlist contains exactly the given symbols.
func reportDir(t *testing.T, symbols ...string) string {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("出版日期,2026/08/28\n註記\n代號,名稱,股票代號,產業別,收盤,成交量\n")
	for _, s := range symbols {
		b.WriteString("1,x," + s + ",半導體,100," + "3000\n")
	}
	path := filepath.Join(dir, "20260828_volume.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestSession(t *testing.T, md *fakeMarket, eval strategy.Evaluator, alerts *countingNotifier, clock *fakeClock, symbols ...string) *Session {
	t.Helper()
	dir := reportDir(t, symbols...)
	s := New(Deps{
		Market:   md,
		Reports:  watchlist.NewReportReader(dir, []string{"volume.csv"}),
		Strong:   watchlist.NewStrongScanner(md),
		Seeder:   series.NewTailSeeder(md, nil, nil),
		Strategy: eval,
		Alerts:   alerts,
	})
	s.now = clock.now
	s.sleep = func(time.Duration) {}
	return s
}

func eligibleTicker(symbol string) *model.TickerInfo {
	return &model.TickerInfo{Symbol: symbol, CanBuyDayTrade: true, PreviousClose: 100}
}

func TestRun_SignalFiresOnceWithinSameMinute(t *testing.T) {
	md := &fakeMarket{
		tickers:  map[string]*model.TickerInfo{"2330": eligibleTicker("2330")},
		intraday: []model.Candle{{Symbol: "2330", TS: tradingTime(11, 0, 0), Close: 105, Volume: 100}},
	}
	eval := &fixedEvaluator{ev: strategy.Evaluation{
		Outcome:   strategy.OutcomeFired,
		ChangePct: 5,
		Signal:    &model.Signal{Symbol: "2330", Close: 105, ChangePct: 5},
	}}
	alerts := &countingNotifier{}

	// Start past the seeding cutoff so no tail fetches run. Two loop
	// iterations land in the same minute-0 wall-clock minute.
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 0, 0),  // Run entry
		tradingTime(11, 0, 0),  // iteration 1: strong scan + scan
		tradingTime(11, 0, 30), // iteration 2: same minute, deduped
	}}

	s := newTestSession(t, md, eval, alerts, clock, "2330")
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if eval.calls != 1 {
		t.Errorf("evaluator called %d times, want 1", eval.calls)
	}
	if len(alerts.sent) != 1 {
		t.Fatalf("alert sent %d times, want 1", len(alerts.sent))
	}
	if alerts.sent[0].Symbol != "2330" {
		t.Errorf("alerted symbol = %s", alerts.sent[0].Symbol)
	}
}

func TestRun_TerminatesAtWindowEnd(t *testing.T) {
	md := &fakeMarket{tickers: map[string]*model.TickerInfo{"2330": eligibleTicker("2330")}}
	eval := &fixedEvaluator{ev: strategy.Evaluation{Outcome: strategy.OutcomeNone}}
	alerts := &countingNotifier{}

	// 11:02 is not a five-minute boundary; 13:25:00 exactly is already
	// outside the window.
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 2, 0),
		tradingTime(11, 2, 0),
		tradingTime(13, 25, 0),
	}}

	s := newTestSession(t, md, eval, alerts, clock, "2330")
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if eval.calls != 0 {
		t.Errorf("evaluator called %d times, want 0", eval.calls)
	}
}

func TestRun_ScanErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	md := &fakeMarket{
		tickers:     map[string]*model.TickerInfo{"2330": eligibleTicker("2330")},
		intradayErr: boom,
	}
	eval := &fixedEvaluator{ev: strategy.Evaluation{Outcome: strategy.OutcomeNone}}
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 0, 0),
		tradingTime(11, 0, 0),
	}}

	s := newTestSession(t, md, eval, &countingNotifier{}, clock, "2330")
	err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped boom", err)
	}
	if eval.calls != 0 {
		t.Errorf("evaluator ran despite fetch failure")
	}
}

func TestRun_EmptyWatchlistTerminatesEarly(t *testing.T) {
	md := &fakeMarket{tickers: map[string]*model.TickerInfo{}}
	eval := &fixedEvaluator{ev: strategy.Evaluation{Outcome: strategy.OutcomeNone}}
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 0, 0),
		tradingTime(11, 0, 0),
	}}

	// No symbols pass eligibility and the strong scan finds nothing.
	s := newTestSession(t, md, eval, &countingNotifier{}, clock)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if eval.calls != 0 {
		t.Errorf("evaluator called on an empty watchlist")
	}
}

func TestRun_InsufficientSeriesLoggedPerSymbol(t *testing.T) {
	md := &fakeMarket{
		tickers:  map[string]*model.TickerInfo{"2330": eligibleTicker("2330")},
		intraday: []model.Candle{{Symbol: "2330", TS: tradingTime(11, 0, 0), Close: 105, Volume: 100}},
	}
	eval := &fixedEvaluator{ev: strategy.Evaluation{Outcome: strategy.OutcomeInsufficientData}}
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 0, 0),
		tradingTime(11, 0, 0),
	}}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	s := newTestSession(t, md, eval, &countingNotifier{}, clock, "2330")
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), "[2330] series too short (1 bars)") {
		t.Errorf("missing per-symbol short-series log line, got:\n%s", buf.String())
	}
}

func TestRun_StrongScanGrowsWatchlistOnce(t *testing.T) {
	md := &fakeMarket{
		tickers: map[string]*model.TickerInfo{
			"2330": eligibleTicker("2330"),
			"6488": eligibleTicker("6488"),
		},
		actives: []model.RankingRow{{Symbol: "6488", Name: "環球晶", TradeVolume: 9000}},
	}
	eval := &fixedEvaluator{ev: strategy.Evaluation{Outcome: strategy.OutcomeInsufficientData}}
	clock := &fakeClock{times: []time.Time{
		tradingTime(11, 0, 0),
		tradingTime(11, 0, 0), // strong scan + first cycle
		tradingTime(11, 5, 0), // second cycle, no re-scan
	}}

	s := newTestSession(t, md, eval, &countingNotifier{}, clock, "2330")
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Two cycles over {2330, 6488}.
	if eval.calls != 4 {
		t.Errorf("evaluator called %d times, want 4", eval.calls)
	}
	if !s.strongScanDone {
		t.Error("strong scan not marked done")
	}
}
