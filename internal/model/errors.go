package model

import (
	"errors"
	"fmt"
)

// Error taxonomy for collaborator failures. Recoverable kinds are checked
// with errors.Is and skip the current unit of work; anything else that
// surfaces during a live scan is treated as fatal by the caller.
var (
	// ErrSourceUnavailable marks a missing report file or absent candle data.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited marks an explicit upstream throttling response.
	// The symbol is skipped for the current pass; no retry is attempted.
	ErrRateLimited = errors.New("rate limited")
)

// MalformedRecordError marks a row or field that is missing or non-numeric
// at a collaborator boundary.
type MalformedRecordError struct {
	Source string // "ticker", "ranking", "candle", report file name
	Field  string
	Symbol string
}

func (e *MalformedRecordError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("malformed %s record for [%s]: bad %s", e.Source, e.Symbol, e.Field)
	}
	return fmt.Sprintf("malformed %s record: bad %s", e.Source, e.Field)
}

// IsMalformed reports whether err is a MalformedRecordError.
func IsMalformed(err error) bool {
	var m *MalformedRecordError
	return errors.As(err, &m)
}
