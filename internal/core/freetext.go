package core

import (
	"regexp"
	"strings"
)

// Free-text reports (PDF or plain text dumps) have no table structure. Rows
// are recovered by splitting the text at every registration plate and keeping
// the segments that mention a distance. Results are best effort.

var (
	plateRegex = regexp.MustCompile(`\b[A-Z]{1,2}[ -]?\d{2,3}[ -]?[A-Z]{3}\b`)

	kmBeforeRegex  = regexp.MustCompile(`(\d[\d.,]*)\s*km\b`)
	kmAfterRegex   = regexp.MustCompile(`(?:distanta|kilometraj)[^\d]{0,30}?(\d[\d.,]*)`)
	distanceMarker = regexp.MustCompile(`\bkm\b|distanta|kilometraj`)

	durationExpr = `(\d+:\d{2}(?::\d{2})?|(?:\d+\s*[zhms]\b\s*)+)`
	idleRegex    = regexp.MustCompile(`(?:idle|relanti)[^\d]{0,30}?` + durationExpr)
	engineRegex  = regexp.MustCompile(`motor[^\d]{0,30}?` + durationExpr)
)

// ExtractFreeText builds rows from unstructured text fragments.
func ExtractFreeText(fragments []string) []CanonicalRow {
	text := strings.Join(fragments, " ")
	locs := plateRegex.FindAllStringIndex(text, -1)

	var out []CanonicalRow
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		plate := text[loc[0]:loc[1]]
		body := NormalizeLabel(text[loc[1]:end])
		if !distanceMarker.MatchString(body) {
			continue
		}

		row := CanonicalRow{
			Vehicle: canonicalPlate(plate),
			Source:  SourceText,
		}
		if m := kmBeforeRegex.FindStringSubmatch(body); m != nil {
			row.DistanceGPS = nonNegative(ParseDecimal(m[1]))
		} else if m := kmAfterRegex.FindStringSubmatch(body); m != nil {
			row.DistanceGPS = nonNegative(ParseDecimal(m[1]))
		}
		if m := idleRegex.FindStringSubmatch(body); m != nil {
			row.Idle = ParseDuration(m[1])
		}
		if m := engineRegex.FindStringSubmatch(body); m != nil {
			row.EngineRun = ParseDuration(m[1])
		}
		out = append(out, row)
	}
	return out
}

// canonicalPlate drops separators so "B 123 ABC" and "B-123-ABC" aggregate
// together.
func canonicalPlate(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}
