package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	periodScanRows = 20
	periodScanCols = 20

	periodLayout = "02.01.2006 15:04:05"
)

var (
	timestampRegex = regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2}\b`)

	labeledPeriodRegex = regexp.MustCompile(
		`(?i)\b(?:perioada|period|interval)\b\s*:?\s*` +
			`(\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2})\s*-\s*(\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2})`)
)

// PeriodOptions controls how period timestamps are interpreted.
type PeriodOptions struct {
	// Location the wall-clock timestamps are read in. Nil means UTC.
	Location *time.Location
}

func (o PeriodOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// ExtractPeriod looks for a "start - end" timestamp pair in the top-left
// 20x20 window of grid. Forms are tried in order:
//
//  1. a labeled cell ("Perioada: 01.03.2024 00:00:00 - 08.03.2024 00:00:00")
//  2. a single cell holding both timestamps around a "-"
//  3. a window row whose cells, joined with spaces, hold the pair
//
// Pairs whose end is not after their start are skipped. The second return
// is false when no usable period exists.
func ExtractPeriod(grid [][]string, opts PeriodOptions) (Period, bool) {
	loc := opts.location()
	rows := min(len(grid), periodScanRows)

	for r := 0; r < rows; r++ {
		for c := 0; c < min(len(grid[r]), periodScanCols); c++ {
			if p, ok := labeledPeriod(grid[r][c], loc); ok {
				return p, true
			}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < min(len(grid[r]), periodScanCols); c++ {
			if p, ok := splitPeriod(grid[r][c], loc); ok {
				return p, true
			}
		}
	}

	for r := 0; r < rows; r++ {
		row := grid[r]
		if len(row) > periodScanCols {
			row = row[:periodScanCols]
		}
		if p, ok := splitPeriod(strings.Join(row, " "), loc); ok {
			return p, true
		}
	}

	return Period{}, false
}

// ExtractPeriodText runs ExtractPeriod over text fragments, one per row.
func ExtractPeriodText(fragments []string, opts PeriodOptions) (Period, bool) {
	grid := make([][]string, 0, min(len(fragments), periodScanRows))
	for i := 0; i < len(fragments) && i < periodScanRows; i++ {
		grid = append(grid, []string{fragments[i]})
	}
	return ExtractPeriod(grid, opts)
}

func labeledPeriod(cell string, loc *time.Location) (Period, bool) {
	m := labeledPeriodRegex.FindStringSubmatch(StripDiacritics(cell))
	if m == nil {
		return Period{}, false
	}
	return newPeriod(m[1], m[2], loc)
}

// splitPeriod splits text on "-" and expects a timestamp in each of the
// first two segments.
func splitPeriod(text string, loc *time.Location) (Period, bool) {
	parts := strings.Split(text, "-")
	if len(parts) < 2 {
		return Period{}, false
	}
	s1 := timestampRegex.FindString(parts[0])
	s2 := timestampRegex.FindString(parts[1])
	if s1 == "" || s2 == "" {
		return Period{}, false
	}
	return newPeriod(s1, s2, loc)
}

func newPeriod(start, end string, loc *time.Location) (Period, bool) {
	s, err := parseTimestamp(start, loc)
	if err != nil {
		return Period{}, false
	}
	e, err := parseTimestamp(end, loc)
	if err != nil {
		return Period{}, false
	}
	if !e.After(s) {
		return Period{}, false
	}
	return Period{Start: s, End: e, Hours: e.Sub(s).Hours()}, true
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(periodLayout, strings.Join(strings.Fields(s), " "), loc)
}
