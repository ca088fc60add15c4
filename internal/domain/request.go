package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidRequest marks requests that cannot be sized. Callers match it with
// errors.Is to tell bad input from infrastructure failures.
var ErrInvalidRequest = errors.New("invalid sizing request")

const (
	defaultCeilingHeight = 2.7
	minAutonomyDays      = 1
	maxAutonomyDays      = 7
	maxOccupants         = 10000
	maxFloorArea         = 100000
)

// ParseRawEvent decodes a source message into a SizingRequest. The message key
// and "locale" header fill in the ID and locale when the body omits them.
func ParseRawEvent(raw RawEvent) (SizingRequest, error) {
	var req SizingRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SizingRequest{}, fmt.Errorf("parse raw event: %w: %w", ErrInvalidRequest, err)
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	if req.Locale == "" {
		req.Locale = raw.Headers["locale"]
	}
	return req, nil
}

// ValidateRequest rejects requests with values outside their physical range.
// A request asking for neither water nor space heating is valid.
func ValidateRequest(req SizingRequest) error {
	var problems []string
	if req.Occupants < 0 {
		problems = append(problems, "occupants must not be negative")
	}
	if req.Occupants > maxOccupants {
		problems = append(problems, fmt.Sprintf("occupants must not exceed %d", maxOccupants))
	}
	if req.WaterHeating && req.Occupants == 0 {
		problems = append(problems, "water heating needs at least one occupant")
	}
	if req.Latitude != nil && (math.IsNaN(*req.Latitude) || math.Abs(*req.Latitude) > 90) {
		problems = append(problems, "latitude must be within [-90, 90]")
	}
	if req.Longitude != nil && (math.IsNaN(*req.Longitude) || math.Abs(*req.Longitude) > 180) {
		problems = append(problems, "longitude must be within [-180, 180]")
	}
	if req.Altitude < 0 {
		problems = append(problems, "altitude must not be negative")
	}
	if req.FloorArea < 0 {
		problems = append(problems, "floor area must not be negative")
	}
	if math.IsNaN(req.FloorArea) || req.FloorArea > maxFloorArea {
		problems = append(problems, fmt.Sprintf("floor area must not exceed %d m²", maxFloorArea))
	}
	if req.SpaceHeating && req.FloorArea == 0 {
		problems = append(problems, "space heating needs a floor area")
	}
	if req.CeilingHeight < 0 {
		problems = append(problems, "ceiling height must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
}

// NormalizeRequest canonicalizes enum keys, applies defaults and assigns a
// deterministic ID when the request has none.
func NormalizeRequest(req SizingRequest) SizingRequest {
	req.Locale = strings.TrimSpace(req.Locale)
	req.Usage = strings.ToLower(strings.TrimSpace(req.Usage))
	req.EnergyClass = strings.ToUpper(strings.TrimSpace(req.EnergyClass))
	req.Site.Name = strings.TrimSpace(req.Site.Name)
	req.Site.Region = strings.TrimSpace(req.Site.Region)

	if req.CeilingHeight == 0 {
		req.CeilingHeight = defaultCeilingHeight
	}
	req.AutonomyDays = max(minAutonomyDays, min(req.AutonomyDays, maxAutonomyDays))

	if req.ID == "" {
		req.ID = generateID(req)
	}
	return req
}

// generateID hashes the fields that influence the result, so replays of the
// same request share an ID.
func generateID(req SizingRequest) string {
	lat := "-"
	if req.Latitude != nil {
		lat = fmt.Sprintf("%.4f", *req.Latitude)
	}
	input := fmt.Sprintf("%s|%s|%s|%s|%.1f|%d|%s|%.2f|%.2f|%s|%d|%t|%t",
		req.Locale, req.Site.Name, req.Site.Region, lat, req.Altitude,
		req.Occupants, req.Usage, req.FloorArea, req.CeilingHeight,
		req.EnergyClass, req.AutonomyDays, req.WaterHeating, req.SpaceHeating)
	hash := sha256.Sum256([]byte(input))
	return "sizing-" + hex.EncodeToString(hash[:8])
}
