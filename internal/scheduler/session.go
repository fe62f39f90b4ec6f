// Package scheduler owns the session loop: it builds and grows the
// watchlist, seeds prior-day tails, and runs the five-minute evaluation
// cycles between market open and the monitoring cutoff.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/notification"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/series"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/store/sqlite"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/strategy"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/watchlist"
)

const scanTimeframe = "5"

// Journal persists the session's watchlist and cycle summaries.
type Journal interface {
	RecordWatchlist(ctx context.Context, entries []sqlite.WatchlistEntry) error
	RecordCycle(ctx context.Context, c sqlite.CycleSummary) error
}

// Deps wires the session's collaborators. Journal, Metrics, and Health
// are optional.
type Deps struct {
	Market   model.MarketData
	Reports  *watchlist.ReportReader
	Strong   *watchlist.StrongScanner
	Seeder   *series.TailSeeder
	Strategy strategy.Evaluator
	Alerts   notification.Notifier
	Journal  Journal
	Metrics  *metrics.Metrics
	Health   *metrics.HealthStatus
}

// Session is the single-threaded cooperative loop that owns the
// watchlist, the reference-price table, and the per-symbol tails. All
// mutation happens on the Run goroutine.
type Session struct {
	deps Deps

	now   func() time.Time    // injectable for tests
	sleep func(time.Duration) // injectable for tests

	watched        []string
	refPrices      watchlist.RefPriceTable
	tails          map[string][]model.Candle
	strongScanDone bool
	lastScanMinute int
}

// New creates a session over the given collaborators.
func New(deps Deps) *Session {
	return &Session{
		deps:           deps,
		now:            time.Now,
		sleep:          time.Sleep,
		refPrices:      watchlist.RefPriceTable{},
		tails:          map[string][]model.Candle{},
		lastScanMinute: -1,
	}
}

// Run drives one trading session to completion. It returns nil when the
// session ends normally (window closed, empty watchlist, or not a trading
// day) and an error only on a fatal scan failure or context cancellation.
func (s *Session) Run(ctx context.Context) error {
	start := s.now()

	if !calendar.IsTradingDay(start) {
		log.Printf("[session] %s is not a trading day, nothing to do",
			start.In(calendar.Taipei).Format("2006-01-02"))
		return nil
	}
	if !calendar.InSession(start) {
		log.Printf("[session] %s is outside the trading window, terminating",
			start.In(calendar.Taipei).Format("15:04:05"))
		return nil
	}

	prevDay, err := calendar.PreviousTradingDay(start)
	if err != nil {
		return fmt.Errorf("resolve previous trading day: %w", err)
	}
	log.Printf("[session] previous trading day resolved to %s",
		prevDay.In(calendar.Taipei).Format("2006-01-02"))

	s.setSessionState(1)
	s.seedPhase(ctx, start, prevDay)

	s.setSessionState(2)
	defer s.setSessionState(0)
	return s.monitor(ctx, prevDay)
}

// seedPhase builds the base watchlist from the report files, filters it
// for eligibility, and seeds prior-day tails when the seeding window is
// still open.
func (s *Session) seedPhase(ctx context.Context, now time.Time, prevDay time.Time) {
	dates := []string{
		now.In(calendar.Taipei).Format("20060102"),
		prevDay.In(calendar.Taipei).Format("20060102"),
	}
	base := s.deps.Reports.BaseWatchlist(dates)
	eligible := watchlist.FilterEligible(ctx, s.deps.Market, base, s.refPrices)
	s.watched, _ = watchlist.Merge(nil, eligible)
	log.Printf("[session] base watchlist: %d symbols (%d before eligibility)",
		len(s.watched), len(base))
	s.recordWatched(ctx, now, s.watched, "report")
	s.observeWatchlistSize()

	if !calendar.BeforeSeedCutoff(now) {
		log.Printf("[session] past the seeding window, starting without tails")
		return
	}
	s.tails = s.deps.Seeder.Seed(ctx, s.watched, prevDay)
	if s.deps.Metrics != nil {
		s.deps.Metrics.SymbolsSeeded.Add(float64(len(s.tails)))
	}
}

// monitor is the polling loop. It exits when the wall clock leaves the
// trading window, when the merged watchlist turns out empty, or fatally
// when a scan fails.
func (s *Session) monitor(ctx context.Context, prevDay time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := s.now()
		if !calendar.InSession(now) {
			log.Printf("[session] %s outside trading window, terminating",
				now.In(calendar.Taipei).Format("15:04:05"))
			return nil
		}

		if !s.strongScanDone {
			s.growWatchlist(ctx, now, prevDay)
			s.strongScanDone = true
			if len(s.watched) == 0 {
				log.Printf("[session] watchlist is empty, terminating early")
				return nil
			}
		}

		if minute := now.In(calendar.Taipei).Minute(); minute%5 == 0 && minute != s.lastScanMinute {
			if err := s.scan(ctx, now); err != nil {
				return fmt.Errorf("scan at %s: %w",
					now.In(calendar.Taipei).Format("15:04:05"), err)
			}
			s.lastScanMinute = minute
		}

		s.sleep(time.Second)
	}
}

// growWatchlist runs the once-per-session strong-stock scan and merges
// the eligible discoveries into the monitored set. Newly added symbols
// get tails only while the seeding window is still open.
func (s *Session) growWatchlist(ctx context.Context, now time.Time, prevDay time.Time) {
	strong := s.deps.Strong.Find(ctx, now)
	eligible := watchlist.FilterEligible(ctx, s.deps.Market, strong, s.refPrices)

	merged, added := watchlist.Merge(s.watched, eligible)
	s.watched = merged
	log.Printf("[session] strong-stock scan added %d symbols, watchlist now %d",
		len(added), len(s.watched))
	s.recordWatched(ctx, now, added, "strong")
	s.observeWatchlistSize()
	if s.deps.Metrics != nil {
		s.deps.Metrics.StrongAdded.Add(float64(len(added)))
	}

	if len(added) == 0 {
		return
	}
	if !calendar.BeforeSeedCutoff(now) {
		log.Printf("[session] past the seeding window, %d new symbols start without tails", len(added))
		return
	}
	for symbol, tail := range s.deps.Seeder.Seed(ctx, added, prevDay) {
		s.tails[symbol] = tail
	}
}

// scan runs one full evaluation pass over the watchlist. Any per-symbol
// fetch failure here is fatal: the caller terminates the whole session
// rather than continue on uncertain data.
func (s *Session) scan(ctx context.Context, now time.Time) error {
	started := time.Now()
	var fired, ceiling, insufficient int

	for _, symbol := range s.watched {
		live, err := s.deps.Market.IntradayCandles(ctx, symbol, scanTimeframe)
		if err != nil {
			return fmt.Errorf("[%s] intraday fetch: %w", symbol, err)
		}

		stitched := series.Stitch(s.tails[symbol], live)
		ref, hasRef := s.refPrices[symbol]
		ev := s.deps.Strategy.Evaluate(stitched, ref, hasRef)

		switch ev.Outcome {
		case strategy.OutcomeFired:
			fired++
			log.Printf("[scan] [%s] signal fired (+%.2f%%)", symbol, ev.ChangePct)
			if err := s.deps.Alerts.Send(ctx, *ev.Signal); err != nil {
				log.Printf("[scan] [%s] alert delivery failed: %v", symbol, err)
			}
		case strategy.OutcomeAboveCeiling:
			ceiling++
			log.Printf("[scan] [%s] skipped: above ceiling (+%.2f%%)", symbol, ev.ChangePct)
		case strategy.OutcomeInsufficientData:
			insufficient++
			log.Printf("[scan] [%s] series too short (%d bars), skipping", symbol, len(stitched))
		case strategy.OutcomeNoReference:
			log.Printf("[scan] [%s] no reference price, cannot evaluate", symbol)
		}
	}

	elapsed := time.Since(started)
	log.Printf("[scan] cycle done: %d symbols, %d signals, %d above ceiling, %d insufficient (%v)",
		len(s.watched), fired, ceiling, insufficient, elapsed.Round(time.Millisecond))

	if m := s.deps.Metrics; m != nil {
		m.ScanCycles.Inc()
		m.ScanDuration.Observe(elapsed.Seconds())
		m.SymbolsScanned.Add(float64(len(s.watched)))
		m.SignalsFired.Add(float64(fired))
		m.CeilingSuppressions.Add(float64(ceiling))
		m.InsufficientSeries.Add(float64(insufficient))
	}
	if s.deps.Health != nil {
		s.deps.Health.SetLastScanTime(now)
	}
	if s.deps.Journal != nil {
		err := s.deps.Journal.RecordCycle(ctx, sqlite.CycleSummary{
			TS:           now,
			Symbols:      len(s.watched),
			Signals:      fired,
			CeilingSkips: ceiling,
			Insufficient: insufficient,
			Duration:     elapsed,
		})
		if err != nil {
			log.Printf("[scan] journal write failed: %v", err)
		}
	}
	return nil
}

func (s *Session) recordWatched(ctx context.Context, now time.Time, symbols []string, source string) {
	if s.deps.Journal == nil || len(symbols) == 0 {
		return
	}
	date := now.In(calendar.Taipei).Format("2006-01-02")
	entries := make([]sqlite.WatchlistEntry, 0, len(symbols))
	for _, symbol := range symbols {
		entries = append(entries, sqlite.WatchlistEntry{
			Date:     date,
			Symbol:   symbol,
			Source:   source,
			RefPrice: s.refPrices[symbol],
			AddedAt:  now,
		})
	}
	if err := s.deps.Journal.RecordWatchlist(ctx, entries); err != nil {
		log.Printf("[session] journal write failed: %v", err)
	}
}

func (s *Session) observeWatchlistSize() {
	if s.deps.Metrics != nil {
		s.deps.Metrics.WatchlistSize.Set(float64(len(s.watched)))
	}
	if s.deps.Health != nil {
		s.deps.Health.SetWatchlistSize(len(s.watched))
	}
}

func (s *Session) setSessionState(state float64) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.SessionState.Set(state)
	}
}
