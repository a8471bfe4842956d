// Package report renders an analysis report into the export formats offered
// to users: PDF, XLSX and JSON. The HTML view lives with the web templates
// and reuses the table layout defined here.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/criskgs/analiza-camion/internal/core"
)

// Title heads every export.
const Title = "Truck GPS report analysis"

// Columns is the printed result table. The alert column is kept out of the
// fixed-width exports and listed separately below the table.
var Columns = []string{"Vehicle", "KM", "Move time", "Idle time", "Engine run", "Avg speed", "Stops"}

// Row is one printable line of the result table.
type Row struct {
	Cells    []string
	LowKm    bool
	IdleOver bool
	Status   string
}

// Rows lays out the dataset of r in dataset order.
func Rows(r *core.Report) []Row {
	if r == nil || r.Result == nil {
		return nil
	}
	res := r.Result

	out := make([]Row, 0, len(res.Dataset))
	for _, v := range res.Dataset {
		idle, idleOver := res.IdleFlagFor(v.Vehicle)
		row := Row{
			Cells: []string{
				v.Vehicle,
				fmt.Sprintf("%.2f", v.Km),
				Hours(v.Move),
				Hours(v.Idle),
				Hours(v.EngineRun),
				speed(v),
				fmt.Sprintf("%.0f", v.StopCount),
			},
			LowKm:    res.IsLowKm(v.Vehicle),
			IdleOver: idleOver,
		}
		row.Status = status(row.LowKm, idle, idleOver)
		out = append(out, row)
	}
	return out
}

// Footer summarizes the table: total km, average km and the idle allowance.
func Footer(r *core.Report) string {
	if r == nil || r.Result == nil {
		return ""
	}
	return fmt.Sprintf("Total km: %.2f | Average km: %.1f | %s",
		r.Result.Stats.TotalKm, r.Result.AvgKm, r.IdleSummary())
}

// Hours prints a duration as decimal hours.
func Hours(d time.Duration) string {
	return fmt.Sprintf("%.2f h", d.Hours())
}

func speed(v core.VehicleAggregate) string {
	if !v.AvgSpeed.Valid {
		return ""
	}
	return fmt.Sprintf("%.2f", v.AvgSpeed.Float64)
}

func status(low bool, idle core.IdleFlag, idleOver bool) string {
	var parts []string
	if low {
		parts = append(parts, "low KM")
	}
	if idleOver {
		if idle.OverByPercent > 0 {
			parts = append(parts, fmt.Sprintf("idle over normal (+%.1f%%)", idle.OverByPercent))
		} else {
			parts = append(parts, fmt.Sprintf("idle over normal (+%.2fh)", idle.OverByHours))
		}
	}
	if len(parts) == 0 {
		return "OK"
	}
	return strings.Join(parts, ", ")
}

// FileName returns the download name for an export made at t.
func FileName(f Format, t time.Time) string {
	return fmt.Sprintf("truck_report_%s.%s", t.Format("20060102_150405"), f)
}
