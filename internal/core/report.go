package core

import "fmt"

// displayTimeLayout matches the timestamps found in the source reports.
const displayTimeLayout = "02.01.2006 15:04:05"

// Report bundles an analysis result with the context it was produced in.
// It is what presentation layers render and export.
type Report struct {
	Result    *AnalysisResult `json:"result"`
	Period    Period          `json:"period"`
	HasPeriod bool            `json:"hasPeriod"`
	Source    DistanceSource  `json:"distanceSource"`
	MinKm     float64         `json:"minKm"`
	Files     []string        `json:"files"`
}

// PeriodSummary renders the one-line period description shown above the
// result table and in exports.
func (r *Report) PeriodSummary() string {
	if !r.HasPeriod {
		return "Period could not be extracted (looking for two date/times separated by '-')."
	}
	allowed := AllowedIdle(IdlePolicy{Mode: IdleFromPeriod}, floatValue(r.Period.Hours))
	return fmt.Sprintf("Period: %s - %s | Duration: %.2f h | Normal idle allowed: %.2f h (3h/24h)",
		r.Period.Start.Format(displayTimeLayout),
		r.Period.End.Format(displayTimeLayout),
		r.Period.Hours,
		allowed.Float64,
	)
}

// IdleSummary describes the idle allowance that was applied.
func (r *Report) IdleSummary() string {
	res := r.Result
	switch {
	case res == nil:
		return ""
	case res.IdleMode == IdleFromPercent:
		return fmt.Sprintf("Idle allowed: %.1f%% of engine run", res.IdlePercent)
	case res.AllowedIdleHours.Valid:
		return fmt.Sprintf("Idle allowed (3h/24h): %.2f h", res.AllowedIdleHours.Float64)
	default:
		return "Idle allowed: n/a"
	}
}

// Alerts returns one line per flagged vehicle, in dataset order.
func (r *Report) Alerts() []string {
	if r.Result == nil {
		return nil
	}
	var out []string
	for _, v := range r.Result.Dataset {
		low := r.Result.IsLowKm(v.Vehicle)
		idle, idleOver := r.Result.IdleFlagFor(v.Vehicle)
		if !low && !idleOver {
			continue
		}

		line := fmt.Sprintf("%s: KM=%.2f, Idle=%.2f h", v.Vehicle, v.Km, v.Idle.Hours())
		if low {
			line += ", low KM"
		}
		if idleOver {
			if idle.OverByPercent > 0 {
				line += fmt.Sprintf(", idle over normal (+%.1f%%)", idle.OverByPercent)
			} else {
				line += fmt.Sprintf(", idle over normal (+%.2fh)", idle.OverByHours)
			}
		}
		out = append(out, line)
	}
	return out
}
