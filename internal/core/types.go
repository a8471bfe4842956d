// Package core provides the ingestion, normalization, aggregation and
// analysis pipeline for fleet telemetry reports.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// RawRecord maps a column label, exactly as it appeared in the source, to its
// raw value (string, number or nil).
type RawRecord map[string]any

// RowSource tells which extraction path produced a CanonicalRow.
type RowSource string

const (
	SourceGrid    RowSource = "grid"
	SourceRecords RowSource = "records"
	SourceText    RowSource = "text" // heuristic, low confidence
)

// CanonicalRow is one vehicle observation in canonical form.
//
// Nullable numbers use pgtype.Float8: Valid=false means the cell was absent
// or could not be parsed, which aggregates as zero.
type CanonicalRow struct {
	Vehicle     string
	DistanceGPS pgtype.Float8
	DistanceCAN pgtype.Float8
	Move        time.Duration
	Idle        time.Duration
	EngineRun   time.Duration
	Stop        time.Duration
	StopCount   pgtype.Float8
	AvgSpeed    pgtype.Float8

	Source RowSource
	File   string
}

// Period is a reporting period declared inside a report.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours float64   `json:"hours"`
}

// DistanceSource selects where per-vehicle mileage comes from.
type DistanceSource string

const (
	DistanceGPS  DistanceSource = "gps"
	DistanceCAN  DistanceSource = "can"
	DistanceAuto DistanceSource = "auto" // GPS when positive, CAN otherwise
)

// ParseDistanceSource converts a user-supplied value to a DistanceSource.
// Unknown values fall back to DistanceAuto.
func ParseDistanceSource(s string) DistanceSource {
	switch DistanceSource(s) {
	case DistanceGPS, DistanceCAN:
		return DistanceSource(s)
	default:
		return DistanceAuto
	}
}

// VehicleAggregate is the summed telemetry for one vehicle across all files
// of a single analysis run.
type VehicleAggregate struct {
	Vehicle      string        `json:"vehicle"`
	Km           float64       `json:"km"`
	DistanceGPS  float64       `json:"distanceGpsKm"`
	DistanceCAN  float64       `json:"distanceCanKm"`
	Move         time.Duration `json:"-"`
	Idle         time.Duration `json:"-"`
	EngineRun    time.Duration `json:"-"`
	Stop         time.Duration `json:"-"`
	StopCount    float64       `json:"stopCount"`
	AvgSpeed     pgtype.Float8 `json:"avgSpeed"` // last valid observation wins
	Observations int           `json:"observations"`
}

// MarshalJSON writes the durations as seconds.
func (a VehicleAggregate) MarshalJSON() ([]byte, error) {
	type plain VehicleAggregate
	return json.Marshal(struct {
		plain
		Move      float64 `json:"moveDuration"`
		Idle      float64 `json:"idleDuration"`
		EngineRun float64 `json:"engineRunDuration"`
		Stop      float64 `json:"stopDuration"`
	}{
		plain:     plain(a),
		Move:      a.Move.Seconds(),
		Idle:      a.Idle.Seconds(),
		EngineRun: a.EngineRun.Seconds(),
		Stop:      a.Stop.Seconds(),
	})
}

// IdleMode selects how the idle allowance is derived.
type IdleMode string

const (
	IdleFromPeriod  IdleMode = "period"
	IdleFromDays    IdleMode = "days"
	IdleFromPercent IdleMode = "percent"
)

// ParseIdleMode converts a user-supplied value to an IdleMode.
// Unknown values fall back to IdleFromPeriod.
func ParseIdleMode(s string) IdleMode {
	switch IdleMode(s) {
	case IdleFromDays, IdleFromPercent:
		return IdleMode(s)
	default:
		return IdleFromPeriod
	}
}

// IdlePolicy configures the idle allowance.
type IdlePolicy struct {
	Mode    IdleMode
	Days    float64 // IdleFromDays
	Percent float64 // IdleFromPercent
}

// LowKmFlag marks a vehicle whose mileage is under the low-km edge.
type LowKmFlag struct {
	Vehicle   string  `json:"vehicle"`
	Km        float64 `json:"km"`
	Shortfall float64 `json:"shortfall"`
}

// IdleFlag marks a vehicle whose idle time exceeds the allowance.
// OverByHours is set for period and days policies, the percent fields for
// the percentage-of-engine-run policy.
type IdleFlag struct {
	Vehicle       string  `json:"vehicle"`
	IdleHours     float64 `json:"idleHours"`
	OverByHours   float64 `json:"overByHours,omitempty"`
	IdlePercent   float64 `json:"idlePercent,omitempty"`
	OverByPercent float64 `json:"overByPercent,omitempty"`
}

// FleetStats holds fleet-wide figures shown next to the result table.
type FleetStats struct {
	Vehicles       int     `json:"vehicles"`
	TotalKm        float64 `json:"totalKm"`
	MedianKm       float64 `json:"medianKm"`
	StdDevKm       float64 `json:"stdDevKm"`
	TotalIdleHours float64 `json:"totalIdleHours"`
}

// AnalysisResult is the read-only output of one analysis run.
type AnalysisResult struct {
	AvgKm            float64            `json:"avgKm"`
	LowKmEdge        float64            `json:"lowKmEdge"`
	AllowedIdleHours pgtype.Float8      `json:"allowedIdleHours"`
	IdleMode         IdleMode           `json:"idleMode"`
	IdlePercent      float64            `json:"idlePercent,omitempty"`
	FlaggedLowKm     []LowKmFlag        `json:"flaggedLowKm"`
	FlaggedIdleOver  []IdleFlag         `json:"flaggedIdleOver"`
	Dataset          []VehicleAggregate `json:"dataset"`
	Stats            FleetStats         `json:"stats"`
	GeneratedAt      time.Time          `json:"generatedAt"`
}

// IsLowKm reports whether the vehicle was flagged for low mileage.
func (r *AnalysisResult) IsLowKm(vehicle string) bool {
	for _, f := range r.FlaggedLowKm {
		if f.Vehicle == vehicle {
			return true
		}
	}
	return false
}

// IdleFlagFor returns the idle flag for vehicle, if any.
func (r *AnalysisResult) IdleFlagFor(vehicle string) (IdleFlag, bool) {
	for _, f := range r.FlaggedIdleOver {
		if f.Vehicle == vehicle {
			return f, true
		}
	}
	return IdleFlag{}, false
}
