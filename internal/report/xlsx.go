package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/criskgs/analiza-camion/internal/core"
)

const (
	SheetAnalysis = "Analysis"
	SheetAlerts   = "Alerts"
)

// WriteXLSX renders r as a workbook with the result table on the
// "Analysis" sheet and the period line, idle allowance and alerts on the
// "Alerts" sheet. Numbers are written as numbers so the sheet can be sorted
// and summed.
func WriteXLSX(w io.Writer, r *core.Report) error {
	if r == nil || r.Result == nil {
		return core.ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetAnalysis); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeAnalysisSheet(f, r); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetAlerts); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := writeAlertsSheet(f, r); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAnalysisSheet(f *excelize.File, r *core.Report) error {
	header := make([]any, 0, len(Columns)+1)
	for _, c := range Columns {
		header = append(header, c)
	}
	header = append(header, "Alerts")
	if err := f.SetSheetRow(SheetAnalysis, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(SheetAnalysis, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	rows := Rows(r)
	for i, v := range r.Result.Dataset {
		var speed any
		if v.AvgSpeed.Valid {
			speed = v.AvgSpeed.Float64
		}
		line := []any{
			v.Vehicle,
			round2(v.Km),
			round2(v.Move.Hours()),
			round2(v.Idle.Hours()),
			round2(v.EngineRun.Hours()),
			speed,
			v.StopCount,
			rows[i].Status,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetAnalysis, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	footer := []any{"Total", round2(r.Result.Stats.TotalKm)}
	cell, _ := excelize.CoordinatesToCellName(1, len(rows)+2)
	if err := f.SetSheetRow(SheetAnalysis, cell, &footer); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return f.SetColWidth(SheetAnalysis, "A", "A", 18)
}

func writeAlertsSheet(f *excelize.File, r *core.Report) error {
	lines := []string{r.PeriodSummary(), r.IdleSummary(), ""}
	alerts := r.Alerts()
	if len(alerts) == 0 {
		lines = append(lines, "No alerts.")
	}
	lines = append(lines, alerts...)

	for i, line := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetCellStr(SheetAlerts, cell, line); err != nil {
			return fmt.Errorf("write alert %d: %w", i+1, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
