package model

import "time"

// Signal is a fired buy alert for one symbol on one 5-minute bar.
type Signal struct {
	Symbol    string
	BarEnd    time.Time // closing time of the triggering bar
	Close     float64
	ChangePct float64 // percent change vs the session reference price
	Reason    string
}
