package model

// TickerInfo is the per-symbol metadata returned by the brokerage ticker
// lookup. PreviousClose seeds the session reference price used as the
// denominator for percent-change gating.
type TickerInfo struct {
	Symbol         string
	Name           string
	CanBuyDayTrade bool
	PreviousClose  float64
	ReferencePrice float64
}

// Validate rejects ticker responses missing the fields the eligibility
// filter depends on.
func (t *TickerInfo) Validate() error {
	if t.Symbol == "" {
		return &MalformedRecordError{Source: "ticker", Field: "symbol"}
	}
	if t.PreviousClose <= 0 {
		return &MalformedRecordError{Source: "ticker", Field: "previousClose", Symbol: t.Symbol}
	}
	return nil
}

// RankingRow is one entry of a market snapshot ranking (actives by traded
// value, or movers by percent gain).
type RankingRow struct {
	Symbol      string
	Name        string
	TradeVolume int64 // lots
	ChangePct   float64
}

// Validate rejects ranking rows missing the fields the strong-stock filter
// depends on.
func (r *RankingRow) Validate() error {
	if r.Symbol == "" {
		return &MalformedRecordError{Source: "ranking", Field: "symbol"}
	}
	if r.TradeVolume < 0 {
		return &MalformedRecordError{Source: "ranking", Field: "tradeVolume", Symbol: r.Symbol}
	}
	return nil
}
