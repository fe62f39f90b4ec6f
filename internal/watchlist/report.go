// Package watchlist builds the monitored symbol set: a base list from dated
// big-volume report files plus a dynamic strong-stock list from live market
// rankings, both filtered down to day-trade-eligible symbols.
package watchlist

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Report rows use fixed positional columns after a 3-line preamble.
const (
	reportSkipLines = 3
	colSymbol       = 2
	colCategory     = 3
	colVolume       = 5

	// Rows below this traded-lot floor are dropped from the base list.
	minReportVolume = 2000
)

// Categories excluded from the base watchlist: ETFs, depositary receipts,
// financial-insurance, corporate bonds.
var excludedCategories = map[string]bool{
	"ETF":  true,
	"存託憑證": true,
	"金融保險": true,
	"公司債":  true,
}

// ReportReader ingests dated report files named "{YYYYMMDD}_{name}" from a
// fixed directory.
type ReportReader struct {
	dir   string
	names []string
}

// NewReportReader creates a reader over the configured report directory and
// report file names.
func NewReportReader(dir string, names []string) *ReportReader {
	return &ReportReader{dir: dir, names: names}
}

// BaseWatchlist reads every configured report for each of the given dates
// (YYYYMMDD) and returns the sorted, deduplicated base watchlist. Missing
// files and malformed rows are logged and skipped; nothing here is fatal.
func (r *ReportReader) BaseWatchlist(dates []string) []string {
	seen := make(map[string]struct{})
	for _, date := range dates {
		for _, name := range r.names {
			fileName := date + "_" + name
			path := filepath.Join(r.dir, fileName)
			symbols, err := readReport(path)
			if err != nil {
				if os.IsNotExist(err) {
					log.Printf("[watchlist] report %q not found, skipping", fileName)
				} else {
					log.Printf("[watchlist] reading %q failed, skipping: %v", fileName, err)
				}
				continue
			}
			for _, s := range symbols {
				seen[s] = struct{}{}
			}
			log.Printf("[watchlist] %d symbols from %q", len(symbols), fileName)
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// readReport parses one report file and returns its qualifying symbols.
func readReport(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // preamble lines have arbitrary shapes

	var symbols []string
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv parse: %w", err)
		}
		line++
		if line <= reportSkipLines {
			continue
		}
		symbol, ok := parseReportRow(rec)
		if !ok {
			continue
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}

// parseReportRow applies the row-level gates: all three fields present and
// well-formed, category not excluded, volume at or above the floor. The
// symbol comes back zero-padded to 4 digits.
func parseReportRow(rec []string) (string, bool) {
	if len(rec) <= colVolume {
		return "", false
	}
	rawSymbol := strings.TrimSpace(rec[colSymbol])
	category := strings.TrimSpace(rec[colCategory])
	rawVolume := strings.TrimSpace(rec[colVolume])
	if rawSymbol == "" || category == "" || rawVolume == "" {
		return "", false
	}
	if excludedCategories[category] {
		return "", false
	}
	volume, err := strconv.ParseFloat(strings.ReplaceAll(rawVolume, ",", ""), 64)
	if err != nil {
		return "", false
	}
	if volume < minReportVolume {
		return "", false
	}
	n, err := strconv.Atoi(rawSymbol)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04d", n), true
}
