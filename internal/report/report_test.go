package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/criskgs/analiza-camion/internal/core"
)

// sampleReport has one idle alert (A), one low-km alert (B) and a clean
// vehicle (C) over a 72h period.
func sampleReport(t *testing.T) *core.Report {
	t.Helper()
	dataset := []core.VehicleAggregate{
		{Vehicle: "A", Km: 1000, Idle: 10 * time.Hour, EngineRun: 20 * time.Hour, Move: 9 * time.Hour, StopCount: 12,
			AvgSpeed: pgtype.Float8{Float64: 54.2, Valid: true}},
		{Vehicle: "B", Km: 10, Idle: time.Hour, EngineRun: 2 * time.Hour, StopCount: 3},
		{Vehicle: "C", Km: 900, Idle: 2 * time.Hour, EngineRun: 15 * time.Hour, StopCount: 8},
	}
	res := core.Analyze(dataset, core.AnalyzeOptions{
		MinKm:       500,
		Idle:        core.IdlePolicy{Mode: core.IdleFromPeriod},
		PeriodHours: pgtype.Float8{Float64: 72, Valid: true},
	})

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &core.Report{
		Result:    res,
		Period:    core.Period{Start: start, End: start.Add(72 * time.Hour), Hours: 72},
		HasPeriod: true,
		Source:    core.DistanceAuto,
		MinKm:     500,
		Files:     []string{"week.xlsx"},
	}
}

func cleanReport(t *testing.T) *core.Report {
	t.Helper()
	dataset := []core.VehicleAggregate{
		{Vehicle: "A", Km: 400},
		{Vehicle: "B", Km: 420},
	}
	res := core.Analyze(dataset, core.AnalyzeOptions{MinKm: 100, Idle: core.IdlePolicy{Mode: core.IdleFromPeriod}})
	return &core.Report{Result: res, Source: core.DistanceGPS, MinKm: 100}
}

// ----------------------------------------------------------------------------
// Table layout
// ----------------------------------------------------------------------------

func TestRows(t *testing.T) {
	rows := Rows(sampleReport(t))
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"A", "1000.00", "9.00 h", "10.00 h", "20.00 h", "54.20", "12"}, rows[0].Cells)
	assert.True(t, rows[0].IdleOver)
	assert.False(t, rows[0].LowKm)
	assert.Equal(t, "idle over normal (+1.00h)", rows[0].Status)

	assert.Equal(t, "", rows[1].Cells[5], "missing average speed prints blank")
	assert.Equal(t, "low KM", rows[1].Status)

	assert.Equal(t, "OK", rows[2].Status)
	assert.Len(t, rows[2].Cells, len(Columns))
}

func TestRows_NoResult(t *testing.T) {
	assert.Nil(t, Rows(nil))
	assert.Nil(t, Rows(&core.Report{}))
}

func TestFooter(t *testing.T) {
	got := Footer(sampleReport(t))
	assert.Contains(t, got, "Total km: 1910.00")
	assert.Contains(t, got, "Average km: 636.7")
	assert.Contains(t, got, "Idle allowed (3h/24h): 9.00 h")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "pdf", want: FormatPDF},
		{in: " XLSX ", want: FormatXLSX},
		{in: "json", want: FormatJSON},
		{in: "html", want: FormatHTML},
		{in: "docx", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrUnsupportedExport)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "truck_report_20240304_050607.pdf", FileName(FormatPDF, at))
}

// ----------------------------------------------------------------------------
// Writers
// ----------------------------------------------------------------------------

func TestWrite_WithoutResult(t *testing.T) {
	for _, f := range []Format{FormatPDF, FormatXLSX, FormatJSON} {
		var buf bytes.Buffer
		err := Write(&buf, f, &core.Report{})
		assert.ErrorIs(t, err, core.ErrNoResult, f)
		assert.Zero(t, buf.Len())
	}
}

func TestWrite_HTMLNotHandled(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatHTML, sampleReport(t))
	assert.ErrorIs(t, err, core.ErrUnsupportedExport)
}

func TestWritePDF(t *testing.T) {
	for name, r := range map[string]*core.Report{
		"with alerts": sampleReport(t),
		"no alerts":   cleanReport(t),
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, r))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Greater(t, buf.Len(), 500)
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAnalysis, SheetAlerts}, f.GetSheetList())

	rows, err := f.GetRows(SheetAnalysis)
	require.NoError(t, err)
	require.Len(t, rows, 5) // header, 3 vehicles, total
	assert.Equal(t, "Vehicle", rows[0][0])
	assert.Equal(t, "Alerts", rows[0][len(Columns)])
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "low KM", rows[2][len(Columns)])
	assert.Equal(t, "Total", rows[4][0])

	alerts, err := f.GetRows(SheetAlerts)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(alerts), 5)
	assert.Contains(t, alerts[0][0], "Duration: 72.00 h")
	assert.Equal(t, "A: KM=1000.00, Idle=10.00 h, idle over normal (+1.00h)", alerts[3][0])
	assert.Equal(t, "B: KM=10.00, Idle=1.00 h, low KM", alerts[4][0])
}

func TestWriteXLSX_NoAlerts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, cleanReport(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetAlerts, "A4")
	require.NoError(t, err)
	assert.Equal(t, "No alerts.", v)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport(t)))

	var doc struct {
		Title            string   `json:"title"`
		AllowedIdleHours *float64 `json:"allowedIdleHours"`
		Period           *struct {
			Hours float64 `json:"hours"`
		} `json:"period"`
		Vehicles []struct {
			Vehicle   string   `json:"vehicle"`
			IdleHours float64  `json:"idleHours"`
			AvgSpeed  *float64 `json:"avgSpeed"`
			LowKm     bool     `json:"lowKm"`
			IdleOver  bool     `json:"idleOver"`
		} `json:"vehicles"`
		Alerts []string `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, Title, doc.Title)
	require.NotNil(t, doc.AllowedIdleHours)
	assert.InDelta(t, 9, *doc.AllowedIdleHours, 1e-9)
	require.NotNil(t, doc.Period)
	assert.InDelta(t, 72, doc.Period.Hours, 1e-9)

	require.Len(t, doc.Vehicles, 3)
	assert.True(t, doc.Vehicles[0].IdleOver)
	assert.InDelta(t, 10, doc.Vehicles[0].IdleHours, 1e-9)
	assert.True(t, doc.Vehicles[1].LowKm)
	assert.Nil(t, doc.Vehicles[1].AvgSpeed)
	assert.Len(t, doc.Alerts, 2)
}

func TestWriteJSON_UnknownPeriod(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, cleanReport(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Nil(t, doc["period"])
	assert.Nil(t, doc["allowedIdleHours"])
	assert.Equal(t, []any{}, doc["alerts"])
}
