package core

// scalar.go converts report cell text into numbers and durations.
//
// Fleet exports use the Romanian convention: "." groups thousands and ","
// marks the decimal point ("12.345,67"). Durations come either as a clock
// ("06:48:19", hours unbounded) or as tokens ("2z 08h 55m 33s").
//
// Nothing here fails: unparsable input yields an invalid pgtype.Float8 or a
// zero duration, so a single bad cell never drops its row.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
)

var (
	clockRegex = regexp.MustCompile(`(\d+):(\d{1,2})(?::(\d{1,2}))?`)

	// "m" must not be the start of "ms"; RE2 has no lookahead so "ms" is
	// matched explicitly and skipped.
	durationTokenRegex = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(ms|z|h|m|s)`)
)

const day = 24 * time.Hour

// ParseDecimal converts a cell value to a float.
// Strings are read with "." as thousands separator and "," as decimal point.
// Numeric Go values pass through unchanged.
// Returns Valid=false for nil, empty and unparsable input.
func ParseDecimal(raw any) pgtype.Float8 {
	switch v := raw.(type) {
	case nil:
		return pgtype.Float8{}
	case float64:
		return validFloat(v)
	case float32:
		return validFloat(float64(v))
	case int:
		return validFloat(float64(v))
	case int64:
		return validFloat(float64(v))
	case int32:
		return validFloat(float64(v))
	case uint:
		return validFloat(float64(v))
	case uint64:
		return validFloat(float64(v))
	case string:
		return parseDecimalString(v)
	case fmt.Stringer:
		return parseDecimalString(v.String())
	default:
		return parseDecimalString(fmt.Sprint(v))
	}
}

func parseDecimalString(s string) pgtype.Float8 {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return pgtype.Float8{}
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pgtype.Float8{}
	}
	return validFloat(f)
}

func validFloat(f float64) pgtype.Float8 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// ParseDuration reads a clock value ("H:MM[:SS]") or a token sequence
// ("2z 08h 55m 33s"). Tokens may appear in any order and are optional;
// anything unrecognised contributes nothing. Empty input is zero.
func ParseDuration(raw string) time.Duration {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if m := clockRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		mins, _ := strconv.ParseInt(m[2], 10, 64)
		var sec int64
		if m[3] != "" {
			sec, _ = strconv.ParseInt(m[3], 10, 64)
		}
		return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(sec)*time.Second
	}

	var total time.Duration
	for _, m := range durationTokenRegex.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		var unit time.Duration
		switch strings.ToLower(m[2]) {
		case "z":
			unit = day
		case "h":
			unit = time.Hour
		case "m":
			unit = time.Minute
		case "s":
			unit = time.Second
		default: // "ms"
			continue
		}
		total += time.Duration(n * float64(unit))
	}
	return total
}

// ParseDurationValue is ParseDuration for decoder values. Plain numbers are
// taken as hours.
func ParseDurationValue(raw any) time.Duration {
	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		return ParseDuration(v)
	default:
		f := ParseDecimal(v)
		if !f.Valid || f.Float64 < 0 {
			return 0
		}
		return time.Duration(f.Float64 * float64(time.Hour))
	}
}

// FormatDuration renders d as "HH:MM:SS", rounded to the nearest second.
// Hours are not capped at 99; negative input renders as "00:00:00".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func floatValue(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}
