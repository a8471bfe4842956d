package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid() [][]string {
	return [][]string{
		{"Raport activitate vehicule"},
		{"Perioada: 01.03.2024 00:00:00 - 04.03.2024 00:00:00"},
		{},
		{"Nr.", "Vehicul", "Timp în mișcare", "Distanța GPS", "Kilometraj oprire CAN", "Staționări", "Viteza medie", "Timp funcționare motor în staționare", "Funcționare motor"},
		{"1", "B 100 ABC", "10:30:00", "1.234,5", "1.250", "12", "62", "04:00:00", "15:00:00"},
		{"2", "CJ 22 XYZ", "1z 02h", "", "300,5", "3", "", "30m", "1z 03h"},
		{"3", "IF 33 KLM", "n/a", "-5", "abc", "", "48,5", "", ""},
		{"", "Total", "", "1.234,5", "", "", "", "", ""},
		{"4", "B 999 ZZZ", "01:00:00", "10", "", "", "", "", ""},
	}
}

func TestExtractRows(t *testing.T) {
	rows := ExtractRows(sampleGrid())
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "B 100 ABC", first.Vehicle)
	assert.Equal(t, SourceGrid, first.Source)
	assert.True(t, first.DistanceGPS.Valid)
	assert.InDelta(t, 1234.5, first.DistanceGPS.Float64, 1e-9)
	assert.InDelta(t, 1250, first.DistanceCAN.Float64, 1e-9)
	assert.Equal(t, 10*time.Hour+30*time.Minute, first.Move)
	assert.Equal(t, 4*time.Hour, first.Idle)
	assert.Equal(t, 15*time.Hour, first.EngineRun)
	assert.InDelta(t, 12, first.StopCount.Float64, 1e-9)
	assert.InDelta(t, 62, first.AvgSpeed.Float64, 1e-9)
	assert.Equal(t, time.Duration(0), first.Stop, "no stop duration column")

	second := rows[1]
	assert.False(t, second.DistanceGPS.Valid)
	assert.InDelta(t, 300.5, second.DistanceCAN.Float64, 1e-9)
	assert.Equal(t, 26*time.Hour, second.Move)
	assert.Equal(t, 30*time.Minute, second.Idle)
	assert.False(t, second.AvgSpeed.Valid)

	third := rows[2]
	assert.False(t, third.DistanceGPS.Valid, "negative distance is dropped")
	assert.False(t, third.DistanceCAN.Valid)
	assert.Equal(t, time.Duration(0), third.Move)
	assert.InDelta(t, 48.5, third.AvgSpeed.Float64, 1e-9)
}

func TestExtractRows_Terminators(t *testing.T) {
	tests := []struct {
		name     string
		stopCell string
	}{
		{name: "total", stopCell: "Total"},
		{name: "medie", stopCell: "MEDIE"},
		{name: "empty vehicle", stopCell: ""},
		{name: "blank vehicle", stopCell: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := [][]string{
				{"Vehicul", "Distanta GPS"},
				{"B 1 AAA", "10"},
				{tt.stopCell, "99"},
				{"B 2 BBB", "20"},
			}
			rows := ExtractRows(grid)
			require.Len(t, rows, 1)
			assert.Equal(t, "B 1 AAA", rows[0].Vehicle)
		})
	}
}

func TestExtractRows_ShortRows(t *testing.T) {
	grid := [][]string{
		{"Vehicul", "Distanta GPS", "Viteza medie"},
		{"B 1 AAA"},
	}
	rows := ExtractRows(grid)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].DistanceGPS.Valid)
	assert.False(t, rows[0].AvgSpeed.Valid)
}

func TestExtractRows_NoTable(t *testing.T) {
	tests := []struct {
		name string
		grid [][]string
	}{
		{name: "empty", grid: nil},
		{name: "no vehicle column", grid: [][]string{{"Sofer", "Distanta GPS"}, {"Ion", "10"}}},
		{name: "no distance column", grid: [][]string{{"Vehicul", "Viteza medie"}, {"B 1 AAA", "50"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ExtractRows(tt.grid))
		})
	}
}

func TestExtractRows_HeaderBeyondScanLimit(t *testing.T) {
	grid := make([][]string, headerScanRows+1)
	grid[headerScanRows] = []string{"Vehicul", "Distanta GPS"}
	grid = append(grid, []string{"B 1 AAA", "10"})

	assert.Empty(t, ExtractRows(grid))
}

func TestExtractRows_TitleMentioningVehicles(t *testing.T) {
	// The title matches the vehicle alias but carries no distance column.
	grid := [][]string{
		{"Raport vehicule"},
		{"Vehicul", "Km CAN"},
		{"B 1 AAA", "77"},
	}
	rows := ExtractRows(grid)
	require.Len(t, rows, 1)
	assert.InDelta(t, 77, rows[0].DistanceCAN.Float64, 1e-9)
}

func TestExtractRecords(t *testing.T) {
	records := []RawRecord{
		{"Vehicul": "B 100 ABC", "Distanta GPS": "1.000,5", "Relanti": "02:00:00", "Viteza medie": 55.0},
		{"Vehicul": "B 200 ABC", "Distanta GPS": 250.0, "Relanti": 1.5},
		{"Vehicul": "Total", "Distanta GPS": 1250.5},
		{"Vehicul": "B 300 ABC", "Distanta GPS": 1.0},
	}
	order := []string{"Vehicul", "Distanta GPS", "Relanti", "Viteza medie"}

	rows := ExtractRecords(records, order)
	require.Len(t, rows, 2)

	assert.Equal(t, SourceRecords, rows[0].Source)
	assert.InDelta(t, 1000.5, rows[0].DistanceGPS.Float64, 1e-9)
	assert.Equal(t, 2*time.Hour, rows[0].Idle)
	assert.InDelta(t, 55, rows[0].AvgSpeed.Float64, 1e-9)

	assert.InDelta(t, 250, rows[1].DistanceGPS.Float64, 1e-9)
	assert.Equal(t, 90*time.Minute, rows[1].Idle)
}

func TestExtractRecords_DerivedFieldOrder(t *testing.T) {
	records := []RawRecord{
		{"vehicle": "B 1 AAA", "gps distance": "12"},
		{"vehicle": "B 2 BBB", "gps distance": "8", "avg speed": "40"},
	}

	rows := ExtractRecords(records, nil)
	require.Len(t, rows, 2)
	assert.InDelta(t, 40, rows[1].AvgSpeed.Float64, 1e-9)
}

func TestExtractRecords_DuplicateKeyLastFieldWins(t *testing.T) {
	records := []RawRecord{
		{"vehicle": "B 1 AAA", "distance gps": "10", "gps distance": "20"},
	}

	tests := []struct {
		name  string
		order []string
		want  float64
	}{
		{name: "source order", order: []string{"vehicle", "gps distance", "distance gps"}, want: 10},
		{name: "reversed source order", order: []string{"vehicle", "distance gps", "gps distance"}, want: 20},
		{name: "no order sorts by name", order: nil, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := ExtractRecords(records, tt.order)
			require.Len(t, rows, 1)
			assert.InDelta(t, tt.want, rows[0].DistanceGPS.Float64, 1e-9)
		})
	}
}

func TestExtractRecords_MissingColumns(t *testing.T) {
	records := []RawRecord{{"vehicle": "B 1 AAA", "speed": "10"}}
	assert.Empty(t, ExtractRecords(records, nil))
	assert.Empty(t, ExtractRecords(nil, nil))
}
