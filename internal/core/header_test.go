package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveHeader_RomanianExport(t *testing.T) {
	header := []string{
		"Nr.",
		"Vehicul",
		"Timp în mișcare",
		"Distanța GPS (km)",
		"Kilometraj oprire CAN",
		"Timp staționare",
		"Staționări",
		"Viteza medie",
		"Timp funcționare motor în staționare",
		"Funcționare motor",
	}

	idx := ResolveHeader(header)

	assert.Equal(t, 1, idx.Col(KeyVehicle))
	assert.Equal(t, 2, idx.Col(KeyMoveTime))
	assert.Equal(t, 3, idx.Col(KeyDistGPS))
	assert.Equal(t, 4, idx.Col(KeyKmCAN))
	assert.Equal(t, 5, idx.Col(KeyStopTime))
	assert.Equal(t, 6, idx.Col(KeyStopCount))
	assert.Equal(t, 7, idx.Col(KeyAvgSpeed))
	assert.Equal(t, 8, idx.Col(KeyIdleTime))
	assert.Equal(t, 9, idx.Col(KeyEngineTime))
	assert.True(t, idx.HasDistance())
}

func TestResolveHeader_EnglishExport(t *testing.T) {
	idx := ResolveHeader([]string{"Vehicle", "GPS distance", "Engine hours", "Idle", "Stops", "Average speed"})

	assert.Equal(t, 0, idx.Col(KeyVehicle))
	assert.Equal(t, 1, idx.Col(KeyDistGPS))
	assert.Equal(t, 2, idx.Col(KeyEngineTime))
	assert.Equal(t, 3, idx.Col(KeyIdleTime))
	assert.Equal(t, 4, idx.Col(KeyStopCount))
	assert.Equal(t, 5, idx.Col(KeyAvgSpeed))
	assert.Equal(t, Absent, idx.Col(KeyKmCAN))
	assert.Equal(t, Absent, idx.Col(KeyMoveTime))
}

func TestResolveHeader_LastColumnWins(t *testing.T) {
	idx := ResolveHeader([]string{"Vehicul", "Distanta GPS", "Distanta GPS (corectat)"})
	assert.Equal(t, 2, idx.Col(KeyDistGPS))
}

func TestResolveHeader_ColumnTakesFirstKey(t *testing.T) {
	// Contains both an idle alias and an engine-run alias.
	idx := ResolveHeader([]string{"Vehicul", "Functionare motor in stationare"})

	assert.Equal(t, 1, idx.Col(KeyIdleTime))
	assert.False(t, idx.Has(KeyEngineTime))
}

func TestResolveHeader_EmptyHeader(t *testing.T) {
	idx := ResolveHeader(nil)

	for _, f := range HeaderAliases() {
		assert.Equal(t, Absent, idx.Col(f.Key), f.Key)
	}
	assert.False(t, idx.HasDistance())
}

func TestMatchField(t *testing.T) {
	tests := []struct {
		label   string
		wantKey string
		wantOK  bool
	}{
		{"VEHICUL", KeyVehicle, true},
		{"Nr. înmatriculare", KeyVehicle, true},
		{"Relanti", KeyIdleTime, true},
		{"Durata staționări", KeyStopTime, true},
		{`="Viteza medie"`, KeyAvgSpeed, true},
		{"Observatii", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key, ok := MatchField(tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}
