package core

import "strings"

// Absent is the column index of a canonical field the header does not carry.
const Absent = -1

// Canonical field keys, in resolution order.
const (
	KeyVehicle    = "vehicle"
	KeyIdleTime   = "idle_time"
	KeyEngineTime = "engine_time"
	KeyMoveTime   = "move_time"
	KeyStopTime   = "stop_time"
	KeyStopCount  = "stop_count"
	KeyDistGPS    = "dist_gps"
	KeyKmCAN      = "km_can"
	KeyAvgSpeed   = "avg_speed"
)

// FieldAlias lists the normalized substrings that identify a canonical field.
type FieldAlias struct {
	Key     string
	Aliases []string
}

// headerAliases is ordered: a header cell takes the first key with a matching
// alias. Idle precedes engine run because "functionare motor in stationare"
// also contains "functionare motor".
var headerAliases = []FieldAlias{
	{KeyVehicle, []string{"vehic", "nr. inmatriculare", "numar inmatriculare"}},
	{KeyIdleTime, []string{"functionare motor in stationare", "motor in stationare", "relanti", "idle"}},
	{KeyEngineTime, []string{"functionare motor", "engine run", "engine hours"}},
	{KeyMoveTime, []string{"timp in miscare", "timp in mi", "moving time", "drive time"}},
	{KeyStopTime, []string{"timp stationare", "durata stationari", "stop time"}},
	{KeyStopCount, []string{"stationari", "nr. opriri", "stops"}},
	{KeyDistGPS, []string{"distanta gps", "gps distance", "distance gps"}},
	{KeyKmCAN, []string{"kilometraj oprire can", "km can", "can odometer", "distanta can"}},
	{KeyAvgSpeed, []string{"viteza medie", "avg speed", "average speed"}},
}

// HeaderAliases returns the alias table in resolution order.
func HeaderAliases() []FieldAlias {
	out := make([]FieldAlias, len(headerAliases))
	copy(out, headerAliases)
	return out
}

// ColumnIndex maps canonical keys to 0-based column positions.
type ColumnIndex map[string]int

// Col returns the column position for key, or Absent.
func (c ColumnIndex) Col(key string) int {
	if i, ok := c[key]; ok {
		return i
	}
	return Absent
}

// Has reports whether key resolved to a column.
func (c ColumnIndex) Has(key string) bool {
	return c.Col(key) != Absent
}

// HasDistance reports whether at least one distance column resolved.
func (c ColumnIndex) HasDistance() bool {
	return c.Has(KeyDistGPS) || c.Has(KeyKmCAN)
}

// MatchField returns the canonical key a header label resolves to.
// The label is normalized before matching.
func MatchField(label string) (string, bool) {
	norm := NormalizeLabel(CleanCell(label))
	if norm == "" {
		return "", false
	}
	for _, f := range headerAliases {
		for _, alias := range f.Aliases {
			if strings.Contains(norm, alias) {
				return f.Key, true
			}
		}
	}
	return "", false
}

// ResolveHeader maps every canonical key to a column of header.
// Each column resolves to at most one key. When several columns resolve to
// the same key, the rightmost one is kept. Keys with no column are Absent.
func ResolveHeader(header []string) ColumnIndex {
	idx := make(ColumnIndex, len(headerAliases))
	for _, f := range headerAliases {
		idx[f.Key] = Absent
	}
	for i, cell := range header {
		if key, ok := MatchField(cell); ok {
			idx[key] = i
		}
	}
	return idx
}
