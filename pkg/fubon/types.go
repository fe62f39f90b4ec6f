package fubon

import (
	"errors"
	"fmt"
)

// StatusError is a non-2xx or API-level error response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fubon: status %d: %s", e.Code, e.Message)
}

// IsThrottled reports whether err is an explicit HTTP 429 throttling
// response, however deeply wrapped.
func IsThrottled(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 429
}

// loginResponse is the wire shape of the session login reply.
type loginResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

// TickerData is the wire shape of an intraday ticker lookup.
type TickerData struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	ReferencePrice float64 `json:"referencePrice"`
	PreviousClose  float64 `json:"previousClose"`
	CanBuyDayTrade bool    `json:"canBuyDayTrade"`
}

// CandleData is the wire shape of one OHLCV bar. Date carries an ISO-8601
// timestamp with exchange-local offset.
type CandleData struct {
	Date    string  `json:"date"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Volume  int64   `json:"volume"`
	Average float64 `json:"average"`
}

// candlesResponse wraps a candle window reply.
type candlesResponse struct {
	Symbol    string       `json:"symbol"`
	Timeframe string       `json:"timeframe"`
	Data      []CandleData `json:"data"`
}

// SnapshotRow is one entry of an actives/movers snapshot ranking.
type SnapshotRow struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	TradeVolume   int64   `json:"tradeVolume"`
	TradeValue    int64   `json:"tradeValue"`
	ChangePercent float64 `json:"changePercent"`
}

// snapshotResponse wraps a ranking reply.
type snapshotResponse struct {
	Market string        `json:"market"`
	Type   string        `json:"type"`
	Data   []SnapshotRow `json:"data"`
}
