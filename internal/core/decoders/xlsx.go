package decoders

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/criskgs/analiza-camion/internal/core"
	"github.com/xuri/excelize/v2"
)

var errNoSheets = errors.New("workbook has no sheets")

// DecodeXLSX reads the first sheet of a workbook into a grid of display
// strings, the way the cells appear in the tracking platform's export.
//
// Numeric cells are the exception: their display text follows the en-US
// convention ("1,234.50"), so plain numbers are emitted from the stored
// value with a decimal comma instead. Time and date formatted numbers keep
// their display text.
func DecodeXLSX(_ string, data []byte) (core.Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return core.Document{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.Document{}, errNoSheets
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return core.Document{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Document{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	for r, row := range rows {
		for c, display := range row {
			if !looksNumeric(display) || r >= len(raw) || c >= len(raw[r]) {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil || (typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset) {
				continue
			}
			if v, ok := commaDecimal(raw[r][c]); ok {
				row[c] = v
			}
		}
	}
	return core.Document{Grid: rows}, nil
}

// looksNumeric reports whether s is a number as excelize formats it, with
// optional thousands commas.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

func commaDecimal(raw string) (string, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", false
	}
	return strings.Replace(strconv.FormatFloat(f, 'f', -1, 64), ".", ",", 1), true
}
