package decoders

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/criskgs/analiza-camion/internal/core"
)

// delimiters in order of preference when counts tie. Romanian exports use
// ";" because "," is the decimal separator.
var delimiters = []rune{';', '\t', ','}

// DecodeCSV reads a delimited text export into a grid.
// The delimiter is sniffed from the first non-blank line unless the file
// extension is ".tsv". Rows may have differing lengths.
func DecodeCSV(name string, data []byte) (core.Document, error) {
	text, err := toUTF8(data)
	if err != nil {
		return core.Document{}, err
	}

	comma := sniffDelimiter(text)
	if strings.EqualFold(filepath.Ext(name), ".tsv") {
		comma = '\t'
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return core.Document{}, fmt.Errorf("parse csv: %w", err)
	}
	return core.Document{Grid: grid}, nil
}

func sniffDelimiter(text string) rune {
	lines := splitLines(text)
	if len(lines) == 0 {
		return delimiters[0]
	}

	// Title lines above the header rarely hold delimiters; take the
	// delimiter with the highest count on any of the first lines.
	best, bestCount := delimiters[0], 0
	for _, line := range lines[:min(len(lines), 5)] {
		for _, d := range delimiters {
			if n := strings.Count(line, string(d)); n > bestCount {
				best, bestCount = d, n
			}
		}
	}
	return best
}
