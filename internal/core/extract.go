package core

import (
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgtype"
)

// headerScanRows bounds the search for the header row.
const headerScanRows = 200

// ExtractRows reads the vehicle table out of a grid.
//
// The header row is the first of the top 200 rows carrying a vehicle column
// together with a GPS or CAN distance column. Data rows follow it and end at
// the first row with an empty vehicle cell or a "Total"/"Medie" summary row.
// A grid without such a table yields no rows; that is not an error.
func ExtractRows(grid [][]string) []CanonicalRow {
	headerRow, idx := findHeader(grid)
	if headerRow < 0 {
		return nil
	}

	var out []CanonicalRow
	for r := headerRow + 1; r < len(grid); r++ {
		row := grid[r]
		cell := func(key string) any {
			i := idx.Col(key)
			if i == Absent || i >= len(row) {
				return nil
			}
			return row[i]
		}

		vehicle, ok := vehicleLabel(cell(KeyVehicle))
		if !ok {
			break
		}
		out = append(out, buildRow(vehicle, cell, SourceGrid))
	}
	return out
}

func findHeader(grid [][]string) (int, ColumnIndex) {
	for r := 0; r < len(grid) && r < headerScanRows; r++ {
		if !rowHasVehicleLabel(grid[r]) {
			continue
		}
		idx := ResolveHeader(grid[r])
		if idx.Has(KeyVehicle) && idx.HasDistance() {
			return r, idx
		}
	}
	return -1, nil
}

func rowHasVehicleLabel(row []string) bool {
	for _, c := range row {
		if key, ok := MatchField(c); ok && key == KeyVehicle {
			return true
		}
	}
	return false
}

// ExtractRecords reads vehicle rows out of field/value records.
//
// order lists the record fields in source column order; it decides which
// field wins when several resolve to the same key (the later one). When
// order is nil the union of all record keys is used, sorted by name.
// Records end at the first one without a vehicle or at a summary record.
func ExtractRecords(records []RawRecord, order []string) []CanonicalRow {
	if len(records) == 0 {
		return nil
	}
	if order == nil {
		order = recordFields(records)
	}

	idx := ResolveHeader(order)
	if !idx.Has(KeyVehicle) || !idx.HasDistance() {
		return nil
	}

	var out []CanonicalRow
	for _, rec := range records {
		cell := func(key string) any {
			i := idx.Col(key)
			if i == Absent {
				return nil
			}
			return rec[order[i]]
		}

		vehicle, ok := vehicleLabel(cell(KeyVehicle))
		if !ok {
			break
		}
		out = append(out, buildRow(vehicle, cell, SourceRecords))
	}
	return out
}

// recordFields returns the union of record keys sorted by name. Records are
// maps, so source order is lost; callers that know it pass it explicitly.
func recordFields(records []RawRecord) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

// vehicleLabel returns the trimmed vehicle identifier. ok is false at the
// end of the table: an empty cell or a summary row.
func vehicleLabel(raw any) (string, bool) {
	if raw == nil {
		return "", false
	}
	s, isString := raw.(string)
	if !isString {
		s = fmt.Sprint(raw)
	}
	s = CleanCell(s)
	if s == "" {
		return "", false
	}
	switch NormalizeLabel(s) {
	case "total", "medie":
		return "", false
	}
	return s, true
}

func buildRow(vehicle string, cell func(key string) any, src RowSource) CanonicalRow {
	return CanonicalRow{
		Vehicle:     vehicle,
		DistanceGPS: nonNegative(ParseDecimal(cell(KeyDistGPS))),
		DistanceCAN: nonNegative(ParseDecimal(cell(KeyKmCAN))),
		Move:        ParseDurationValue(cell(KeyMoveTime)),
		Idle:        ParseDurationValue(cell(KeyIdleTime)),
		EngineRun:   ParseDurationValue(cell(KeyEngineTime)),
		Stop:        ParseDurationValue(cell(KeyStopTime)),
		StopCount:   nonNegative(ParseDecimal(cell(KeyStopCount))),
		AvgSpeed:    nonNegative(ParseDecimal(cell(KeyAvgSpeed))),
		Source:      src,
	}
}

func nonNegative(f pgtype.Float8) pgtype.Float8 {
	if !f.Valid || f.Float64 < 0 {
		return pgtype.Float8{}
	}
	return f
}
