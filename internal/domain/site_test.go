package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

func TestResolveSite_NilGeocoder(t *testing.T) {
	req := SizingRequest{ID: "req-1", Site: Site{Name: "Campinas", Region: "SP"}}

	result := ResolveSite(context.Background(), req, nil, discardLogger())

	assert.Empty(t, result.Site.GeoSource)
	assert.Nil(t, result.Latitude)
}

func TestResolveSite_ForwardGeocode(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{
			Lat:              -22.9056,
			Lon:              -47.0608,
			FormattedAddress: "Campinas, São Paulo, Brazil",
			PlaceName:        "Campinas",
			Confidence:       0.95,
		},
	}
	req := SizingRequest{ID: "req-1", Site: Site{Name: "Campinas", Region: "SP"}}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	require.NotNil(t, result.Latitude)
	require.NotNil(t, result.Longitude)
	assert.Equal(t, -22.9056, *result.Latitude)
	assert.Equal(t, -47.0608, *result.Longitude)
	assert.Equal(t, "Campinas, São Paulo, Brazil", result.Site.FormattedAddress)
	assert.Equal(t, "Campinas", result.Site.PlaceName)
	assert.Equal(t, 0.95, result.Site.GeoConfidence)
	assert.Equal(t, GeoSourceForward, result.Site.GeoSource)
	assert.Equal(t, 1, geo.forwardCalls)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestResolveSite_ReverseGeocode(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{
			FormattedAddress: "Bologna, Emilia-Romagna, Italy",
			PlaceName:        "Bologna",
			Confidence:       0.98,
		},
	}
	req := SizingRequest{ID: "req-2", Latitude: ptr(44.49), Longitude: ptr(11.34)}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, "Bologna, Emilia-Romagna, Italy", result.Site.FormattedAddress)
	assert.Equal(t, "Bologna", result.Site.PlaceName)
	assert.Equal(t, GeoSourceReverse, result.Site.GeoSource)
	assert.Equal(t, 0, geo.forwardCalls)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestResolveSite_ForwardError_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("API timeout")}
	req := SizingRequest{ID: "req-3", Site: Site{Name: "Campinas"}}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, GeoSourceFailed, result.Site.GeoSource)
	assert.Nil(t, result.Latitude)
}

func TestResolveSite_ReverseError_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("rate limited")}
	req := SizingRequest{ID: "req-4", Latitude: ptr(-23.5), Longitude: ptr(-46.6)}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, GeoSourceFailed, result.Site.GeoSource)
	assert.Equal(t, -23.5, *result.Latitude)
}

func TestResolveSite_NoLocationData(t *testing.T) {
	geo := &mockGeocoder{}

	result := ResolveSite(context.Background(), SizingRequest{ID: "req-5"}, geo, discardLogger())

	assert.Equal(t, GeoSourceOriginal, result.Site.GeoSource)
	assert.Equal(t, 0, geo.forwardCalls)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestResolveSite_LatitudeOnly(t *testing.T) {
	geo := &mockGeocoder{}
	req := SizingRequest{ID: "req-6", Latitude: ptr(-23.5), Site: Site{Name: "Campinas"}}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, GeoSourceOriginal, result.Site.GeoSource)
	assert.Equal(t, 0, geo.forwardCalls, "latitude present, nothing to resolve")
	assert.Equal(t, 0, geo.reverseCalls, "reverse geocoding needs longitude")
}

func TestResolveSite_CoordsPreferred_OverForward(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{FormattedAddress: "São Paulo, Brazil", PlaceName: "São Paulo"},
	}
	req := SizingRequest{
		ID:        "req-7",
		Latitude:  ptr(-23.5),
		Longitude: ptr(-46.6),
		Site:      Site{Name: "Campinas", Region: "SP"},
	}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, GeoSourceReverse, result.Site.GeoSource)
	assert.Equal(t, 0, geo.forwardCalls)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestResolveSite_ForwardEmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	req := SizingRequest{ID: "req-8", Site: Site{Name: "Nowhere"}}

	result := ResolveSite(context.Background(), req, geo, discardLogger())

	assert.Equal(t, GeoSourceOriginal, result.Site.GeoSource)
	assert.Nil(t, result.Latitude)
}
