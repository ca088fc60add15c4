package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Site is where the installation goes, plus any geocoding enrichment.
type Site struct {
	Name   string `json:"name,omitempty"`
	Region string `json:"region,omitempty"`

	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "forward", "reverse", "original", "failed"
}

// Geocoding outcomes recorded in Site.GeoSource.
const (
	GeoSourceForward  = "forward"
	GeoSourceReverse  = "reverse"
	GeoSourceOriginal = "original"
	GeoSourceFailed   = "failed"
)

// SizingRequest is the wire form of a sizing job.
type SizingRequest struct {
	ID     string `json:"id,omitempty"`
	Locale string `json:"locale,omitempty"`
	Site   Site   `json:"site,omitzero"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  float64  `json:"altitude,omitempty"`

	Occupants     int     `json:"occupants"`
	Usage         string  `json:"usage,omitempty"`
	FloorArea     float64 `json:"floor_area,omitempty"`
	CeilingHeight float64 `json:"ceiling_height,omitempty"`
	EnergyClass   string  `json:"energy_class,omitempty"`
	AutonomyDays  int     `json:"autonomy_days,omitempty"`
	WaterHeating  bool    `json:"water_heating"`
	SpaceHeating  bool    `json:"space_heating"`
}

// SizingReport is a sizing result together with the request it answers.
type SizingReport struct {
	ID         string         `json:"id"`
	Site       Site           `json:"site,omitzero"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	Params     thermal.Params `json:"params"`
	Result     thermal.Result `json:"result"`
	ComputedAt time.Time      `json:"computed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
