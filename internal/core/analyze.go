package core

import (
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// lowKmAverageFactor places the low-km edge at 60% of the fleet average
	// unless the configured minimum is lower.
	lowKmAverageFactor = 0.6

	// idleHoursPerDay is the idle time tolerated per 24h of reporting period.
	idleHoursPerDay = 3.0

	// percentPolicyMinEngine keeps vehicles that barely ran out of the
	// percentage check.
	percentPolicyMinEngine = time.Hour
)

// AnalyzeOptions configures one analysis run.
type AnalyzeOptions struct {
	MinKm       float64
	Idle        IdlePolicy
	PeriodHours pgtype.Float8 // only used by IdleFromPeriod
}

// AllowedIdle returns the idle allowance in hours implied by the policy.
// It is invalid for the percentage policy, for a period policy without a
// known period and for a non-positive day count.
func AllowedIdle(policy IdlePolicy, periodHours pgtype.Float8) pgtype.Float8 {
	switch policy.Mode {
	case IdleFromDays:
		if policy.Days <= 0 {
			return pgtype.Float8{}
		}
		return pgtype.Float8{Float64: policy.Days * idleHoursPerDay, Valid: true}
	case IdleFromPercent:
		return pgtype.Float8{}
	default:
		if !periodHours.Valid || periodHours.Float64 <= 0 {
			return pgtype.Float8{}
		}
		return pgtype.Float8{Float64: periodHours.Float64 / 24 * idleHoursPerDay, Valid: true}
	}
}

// Analyze flags low-mileage vehicles and vehicles idling over the allowance.
// The dataset is not modified; the result references it as-is.
func Analyze(dataset []VehicleAggregate, opts AnalyzeOptions) *AnalysisResult {
	kms := make([]float64, len(dataset))
	for i, v := range dataset {
		kms[i] = v.Km
	}

	avg := floats.Sum(kms) / float64(max(1, len(dataset)))
	edge := math.Min(opts.MinKm, avg*lowKmAverageFactor)

	res := &AnalysisResult{
		AvgKm:            avg,
		LowKmEdge:        edge,
		AllowedIdleHours: AllowedIdle(opts.Idle, opts.PeriodHours),
		IdleMode:         ParseIdleMode(string(opts.Idle.Mode)),
		FlaggedLowKm:     []LowKmFlag{},
		FlaggedIdleOver:  []IdleFlag{},
		Dataset:          dataset,
		Stats:            fleetStats(dataset, kms),
		GeneratedAt:      time.Now().UTC(),
	}
	if res.IdleMode == IdleFromPercent {
		res.IdlePercent = opts.Idle.Percent
	}

	for _, v := range dataset {
		if v.Km < edge {
			res.FlaggedLowKm = append(res.FlaggedLowKm, LowKmFlag{
				Vehicle:   v.Vehicle,
				Km:        v.Km,
				Shortfall: edge - v.Km,
			})
		}
		if f, ok := idleFlag(v, res); ok {
			res.FlaggedIdleOver = append(res.FlaggedIdleOver, f)
		}
	}

	return res
}

func idleFlag(v VehicleAggregate, res *AnalysisResult) (IdleFlag, bool) {
	idleH := v.Idle.Hours()

	if res.IdleMode == IdleFromPercent {
		if v.EngineRun <= percentPolicyMinEngine {
			return IdleFlag{}, false
		}
		pct := idleH / v.EngineRun.Hours() * 100
		if pct <= res.IdlePercent {
			return IdleFlag{}, false
		}
		return IdleFlag{
			Vehicle:       v.Vehicle,
			IdleHours:     idleH,
			IdlePercent:   pct,
			OverByPercent: pct - res.IdlePercent,
		}, true
	}

	if !res.AllowedIdleHours.Valid || idleH <= res.AllowedIdleHours.Float64 {
		return IdleFlag{}, false
	}
	return IdleFlag{
		Vehicle:     v.Vehicle,
		IdleHours:   idleH,
		OverByHours: idleH - res.AllowedIdleHours.Float64,
	}, true
}

func fleetStats(dataset []VehicleAggregate, kms []float64) FleetStats {
	st := FleetStats{Vehicles: len(dataset)}
	if len(dataset) == 0 {
		return st
	}

	st.TotalKm = floats.Sum(kms)

	sorted := append([]float64(nil), kms...)
	sort.Float64s(sorted)
	st.MedianKm = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(sorted) > 1 {
		st.StdDevKm = stat.StdDev(kms, nil)
	}

	for _, v := range dataset {
		st.TotalIdleHours += v.Idle.Hours()
	}
	return st
}
