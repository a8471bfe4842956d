package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/criskgs/analiza-camion/internal/core"
)

// jsonReport is the exported JSON document. Durations are given in hours.
type jsonReport struct {
	Title            string          `json:"title"`
	GeneratedAt      time.Time       `json:"generatedAt"`
	Period           *core.Period    `json:"period"`
	PeriodSummary    string          `json:"periodSummary"`
	DistanceSource   string          `json:"distanceSource"`
	MinKm            float64         `json:"minKm"`
	AvgKm            float64         `json:"avgKm"`
	LowKmEdge        float64         `json:"lowKmEdge"`
	IdleMode         string          `json:"idleMode"`
	AllowedIdleHours pgtype.Float8   `json:"allowedIdleHours"`
	Stats            core.FleetStats `json:"stats"`
	Vehicles         []jsonVehicle   `json:"vehicles"`
	Alerts           []string        `json:"alerts"`
	Files            []string        `json:"files"`
}

type jsonVehicle struct {
	Vehicle     string        `json:"vehicle"`
	Km          float64       `json:"km"`
	GPSKm       float64       `json:"gpsKm"`
	CANKm       float64       `json:"canKm"`
	MoveHours   float64       `json:"moveHours"`
	IdleHours   float64       `json:"idleHours"`
	EngineHours float64       `json:"engineHours"`
	StopHours   float64       `json:"stopHours"`
	Stops       float64       `json:"stops"`
	AvgSpeed    pgtype.Float8 `json:"avgSpeed"`
	LowKm       bool          `json:"lowKm"`
	IdleOver    bool          `json:"idleOver"`
}

// WriteJSON renders r as an indented JSON document.
func WriteJSON(w io.Writer, r *core.Report) error {
	if r == nil || r.Result == nil {
		return core.ErrNoResult
	}
	res := r.Result

	doc := jsonReport{
		Title:            Title,
		GeneratedAt:      res.GeneratedAt,
		PeriodSummary:    r.PeriodSummary(),
		DistanceSource:   string(r.Source),
		MinKm:            r.MinKm,
		AvgKm:            res.AvgKm,
		LowKmEdge:        res.LowKmEdge,
		IdleMode:         string(res.IdleMode),
		AllowedIdleHours: res.AllowedIdleHours,
		Stats:            res.Stats,
		Vehicles:         make([]jsonVehicle, 0, len(res.Dataset)),
		Alerts:           r.Alerts(),
		Files:            r.Files,
	}
	if r.HasPeriod {
		p := r.Period
		doc.Period = &p
	}
	if doc.Alerts == nil {
		doc.Alerts = []string{}
	}

	for _, v := range res.Dataset {
		_, idleOver := res.IdleFlagFor(v.Vehicle)
		doc.Vehicles = append(doc.Vehicles, jsonVehicle{
			Vehicle:     v.Vehicle,
			Km:          v.Km,
			GPSKm:       v.DistanceGPS,
			CANKm:       v.DistanceCAN,
			MoveHours:   v.Move.Hours(),
			IdleHours:   v.Idle.Hours(),
			EngineHours: v.EngineRun.Hours(),
			StopHours:   v.Stop.Hours(),
			Stops:       v.StopCount,
			AvgSpeed:    v.AvgSpeed,
			LowKm:       res.IsLowKm(v.Vehicle),
			IdleOver:    idleOver,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
