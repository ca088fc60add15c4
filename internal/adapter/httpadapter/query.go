package httpadapter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
)

// requestFromQuery reads a SizingRequest from form values. Decimal fields
// accept either "," or "." as the decimal separator.
func requestFromQuery(q url.Values) (domain.SizingRequest, error) {
	req := domain.SizingRequest{
		ID:          q.Get("id"),
		Locale:      q.Get("locale"),
		Usage:       q.Get("usage"),
		EnergyClass: q.Get("energy_class"),
		Site: domain.Site{
			Name:   q.Get("site"),
			Region: q.Get("region"),
		},
	}

	var err error
	if req.Occupants, err = intValue(q, "occupants"); err != nil {
		return req, err
	}
	if req.AutonomyDays, err = intValue(q, "autonomy_days"); err != nil {
		return req, err
	}
	if req.Latitude, err = optionalDecimal(q, "latitude"); err != nil {
		return req, err
	}
	if req.Longitude, err = optionalDecimal(q, "longitude"); err != nil {
		return req, err
	}
	for name, dst := range map[string]*float64{
		"altitude":       &req.Altitude,
		"floor_area":     &req.FloorArea,
		"ceiling_height": &req.CeilingHeight,
	} {
		v, err := optionalDecimal(q, name)
		if err != nil {
			return req, err
		}
		if v != nil {
			*dst = *v
		}
	}
	if req.WaterHeating, err = flagValue(q, "water_heating"); err != nil {
		return req, err
	}
	if req.SpaceHeating, err = flagValue(q, "space_heating"); err != nil {
		return req, err
	}
	return req, nil
}

func intValue(q url.Values, name string) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", domain.ErrInvalidRequest, name, s)
	}
	return n, nil
}

func optionalDecimal(q url.Values, name string) (*float64, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := thermal.ParseDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidRequest, name, err)
	}
	return &v, nil
}

// flagValue accepts checkbox values ("on") as well as strconv booleans.
func flagValue(q url.Values, name string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(q.Get(name)))
	switch s {
	case "":
		return false, nil
	case "on", "yes", "sim", "si":
		return true, nil
	case "off", "no", "não", "nao":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %q is not a boolean", domain.ErrInvalidRequest, name, s)
	}
	return b, nil
}
