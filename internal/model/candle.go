package model

import "time"

// Candle represents one 5-minute OHLCV bar for a single symbol.
// Prices are in TWD, volume in lots (1 lot = 1,000 shares).
type Candle struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"` // bar start time
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"` // lots traded in this bar
}

// Date returns the calendar date of the bar in the given location,
// truncated to midnight. Used to split prior-session and same-session bars.
func (c *Candle) Date(loc *time.Location) time.Time {
	t := c.TS.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// BarEnd returns the bar's closing time (start + 5 minutes), which is the
// timestamp quoted alongside a fired signal.
func (c *Candle) BarEnd() time.Time {
	return c.TS.Add(5 * time.Minute)
}
