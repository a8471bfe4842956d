package core

import (
	"sort"
	"strings"
)

// rowKm picks the mileage of a row for the given distance source.
// Absent distances count as zero.
func rowKm(r CanonicalRow, src DistanceSource) float64 {
	gps, can := 0.0, 0.0
	if r.DistanceGPS.Valid {
		gps = r.DistanceGPS.Float64
	}
	if r.DistanceCAN.Valid {
		can = r.DistanceCAN.Float64
	}

	switch src {
	case DistanceGPS:
		return gps
	case DistanceCAN:
		return can
	default:
		if gps > 0 {
			return gps
		}
		return can
	}
}

// Aggregate folds rows into one entry per vehicle.
//
// Vehicles are keyed by their trimmed label, case-sensitively. Distances,
// durations and stop counts are summed; the average speed is the last valid
// observation in input order. The result is sorted by km, highest first,
// with ties kept in first-seen order.
func Aggregate(rows []CanonicalRow, src DistanceSource) []VehicleAggregate {
	pos := make(map[string]int)
	var out []VehicleAggregate

	for _, r := range rows {
		key := strings.TrimSpace(r.Vehicle)
		if key == "" {
			continue
		}

		i, ok := pos[key]
		if !ok {
			i = len(out)
			pos[key] = i
			out = append(out, VehicleAggregate{Vehicle: key})
		}
		agg := &out[i]

		agg.Km += rowKm(r, src)
		if r.DistanceGPS.Valid {
			agg.DistanceGPS += r.DistanceGPS.Float64
		}
		if r.DistanceCAN.Valid {
			agg.DistanceCAN += r.DistanceCAN.Float64
		}
		agg.Move += r.Move
		agg.Idle += r.Idle
		agg.EngineRun += r.EngineRun
		agg.Stop += r.Stop
		if r.StopCount.Valid {
			agg.StopCount += r.StopCount.Float64
		}
		if r.AvgSpeed.Valid {
			agg.AvgSpeed = r.AvgSpeed
		}
		agg.Observations++
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Km > out[b].Km
	})
	return out
}
