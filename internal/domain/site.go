package domain

import (
	"context"
	"log/slog"
)

// ResolveSite fills in the site coordinates or place details through the
// geocoder. Failures are logged and recorded in Site.GeoSource; the request is
// always returned.
func ResolveSite(ctx context.Context, req SizingRequest, geocoder Geocoder, logger *slog.Logger) SizingRequest {
	if geocoder == nil {
		return req
	}

	hasCoords := req.Latitude != nil && req.Longitude != nil
	hasName := req.Site.Name != ""

	// Forward geocode: site name → coordinates (when latitude is missing).
	if req.Latitude == nil && hasName {
		result, err := geocoder.ForwardGeocode(ctx, req.Site.Name, req.Site.Region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"request_id", req.ID,
				"site", req.Site.Name,
				"region", req.Site.Region,
				"error", err,
			)
			req.Site.GeoSource = GeoSourceFailed
			return req
		}
		if result.Lat != 0 || result.Lon != 0 {
			lat, lon := result.Lat, result.Lon
			req.Latitude = &lat
			req.Longitude = &lon
			req.Site.FormattedAddress = result.FormattedAddress
			req.Site.PlaceName = result.PlaceName
			req.Site.GeoConfidence = result.Confidence
			req.Site.GeoSource = GeoSourceForward
			return req
		}
		req.Site.GeoSource = GeoSourceOriginal
		return req
	}

	// Reverse geocode: coordinates → place details.
	if hasCoords {
		result, err := geocoder.ReverseGeocode(ctx, *req.Latitude, *req.Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"request_id", req.ID,
				"lat", *req.Latitude,
				"lon", *req.Longitude,
				"error", err,
			)
			req.Site.GeoSource = GeoSourceFailed
			return req
		}
		if result.FormattedAddress != "" {
			req.Site.FormattedAddress = result.FormattedAddress
			req.Site.PlaceName = result.PlaceName
			req.Site.GeoConfidence = result.Confidence
			req.Site.GeoSource = GeoSourceReverse
			return req
		}
	}

	req.Site.GeoSource = GeoSourceOriginal
	return req
}
