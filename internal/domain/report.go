package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
)

// Sizer computes a sizing for an explicit locale. *thermal.Engine satisfies it.
type Sizer interface {
	Size(locale string, p thermal.Params) thermal.Result
}

// Params converts the request into engine inputs. A missing latitude becomes
// NaN, which the engine resolves to the locale's default climate band.
func (r SizingRequest) Params() thermal.Params {
	lat := math.NaN()
	if r.Latitude != nil {
		lat = *r.Latitude
	}
	return thermal.Params{
		Occupants:     r.Occupants,
		Usage:         r.Usage,
		Latitude:      lat,
		Altitude:      r.Altitude,
		FloorArea:     r.FloorArea,
		CeilingHeight: r.CeilingHeight,
		EnergyClass:   r.EnergyClass,
		AutonomyDays:  r.AutonomyDays,
		WaterHeating:  r.WaterHeating,
		SpaceHeating:  r.SpaceHeating,
	}
}

// BuildReport sizes a normalized request and stamps the report.
func BuildReport(req SizingRequest, sizer Sizer) SizingReport {
	params := req.Params()
	result := sizer.Size(req.Locale, params)
	if math.IsNaN(params.Latitude) {
		// NaN does not survive JSON encoding; Latitude stays nil instead.
		params.Latitude = 0
	}
	return SizingReport{
		ID:         req.ID,
		Site:       req.Site,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Params:     params,
		Result:     result,
		ComputedAt: clock.Now().UTC(),
	}
}

// SerializeReport converts a SizingReport into an OutputEvent keyed by the
// request ID.
func SerializeReport(report SizingReport) (OutputEvent, error) {
	value, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report %s: %w", report.ID, err)
	}
	return OutputEvent{
		Key:   []byte(report.ID),
		Value: value,
		Headers: map[string]string{
			"locale":       report.Result.Locale,
			"climate_zone": report.Result.ClimateZone,
			"computed_at":  report.ComputedAt.Format(time.RFC3339),
		},
	}, nil
}
