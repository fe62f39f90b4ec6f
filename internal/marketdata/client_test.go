package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/metrics"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/model"
	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/pkg/fubon"
)

func TestParseBarTime(t *testing.T) {
	want := time.Date(2026, 8, 28, 9, 5, 0, 0, calendar.Taipei)
	cases := []string{
		"2026-08-28T09:05:00+08:00",
		"2026-08-28T09:05:00.000+08:00",
		"2026-08-28T09:05:00",
		"2026-08-28 09:05:00",
	}
	for _, s := range cases {
		got, err := parseBarTime(s)
		if err != nil {
			t.Errorf("parseBarTime(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseBarTime(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := parseBarTime("yesterday"); err == nil {
		t.Error("garbage timestamp should not parse")
	}
}

func TestConvertCandle_Malformed(t *testing.T) {
	_, err := convertCandle("2330", fubon.CandleData{Date: "not-a-date", Close: 100})
	if !model.IsMalformed(err) {
		t.Errorf("bad date should be a malformed record, got %v", err)
	}

	_, err = convertCandle("2330", fubon.CandleData{Date: "2026-08-28T09:05:00+08:00", Close: 0})
	if !model.IsMalformed(err) {
		t.Errorf("zero close should be a malformed record, got %v", err)
	}
}

func TestConvertRankings_MalformedRowFails(t *testing.T) {
	_, err := convertRankings([]fubon.SnapshotRow{{Symbol: "", TradeVolume: 100}})
	if !model.IsMalformed(err) {
		t.Errorf("missing symbol should be a malformed record, got %v", err)
	}
}

func TestMapErr_Throttled(t *testing.T) {
	err := mapErr(&fubon.StatusError{Code: 429, Message: "too many requests"})
	if !errors.Is(err, model.ErrRateLimited) {
		t.Errorf("429 should map to ErrRateLimited, got %v", err)
	}

	err = mapErr(&fubon.StatusError{Code: 404, Message: "no data"})
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Errorf("404 should map to ErrSourceUnavailable, got %v", err)
	}

	plain := errors.New("boom")
	if mapErr(plain) != plain {
		t.Error("other errors must pass through unchanged")
	}
}

func TestClient_CountsRequestsAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/intraday/ticker/2330":
			w.Write([]byte(`{"symbol":"2330","name":"台積電","referencePrice":980,"previousClose":975,"canBuyDayTrade":true}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	m := metrics.NewMetrics()
	c := New(fubon.NewClient(fubon.Config{RootURL: srv.URL}), m)
	ctx := context.Background()

	if _, err := c.Ticker(ctx, "2330"); err != nil {
		t.Fatalf("Ticker: %v", err)
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("ticker")); got != 1 {
		t.Errorf("ticker request count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIErrors.WithLabelValues("ticker")); got != 0 {
		t.Errorf("ticker error count = %v, want 0", got)
	}

	if _, err := c.Actives(ctx, "TSE"); err == nil {
		t.Fatal("500 from upstream should surface as an error")
	}
	if got := testutil.ToFloat64(m.APIRequests.WithLabelValues("actives")); got != 1 {
		t.Errorf("actives request count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIErrors.WithLabelValues("actives")); got != 1 {
		t.Errorf("actives error count = %v, want 1", got)
	}
}
