// Package domain models sizing requests as they arrive from Kafka or HTTP and
// the sizing reports published in response.
//
// # Request Format
//
// A request is a flat JSON object:
//
//	{
//	  "id": "optional, generated when absent",
//	  "locale": "pt-BR",
//	  "site": {"name": "Campinas", "region": "SP"},
//	  "latitude": -22.9, "longitude": -47.06, "altitude": 685,
//	  "occupants": 4, "usage": "standard",
//	  "floor_area": 120, "ceiling_height": 2.7, "energy_class": "C",
//	  "autonomy_days": 2, "water_heating": true, "space_heating": true
//	}
//
// Latitude and longitude are optional. When latitude is missing and a site
// name is given, [ResolveSite] forward geocodes the site; when coordinates are
// present it reverse geocodes them to fill in the place name. A request whose
// latitude cannot be resolved is still sized against the locale's default
// climate band.
//
// When "locale" is empty the Kafka "locale" header, then the service default,
// is used.
//
// # Normalization
//
// [NormalizeRequest] lower-cases the usage tier, upper-cases the energy class,
// defaults the ceiling height to 2.7 m and clamps autonomy to 1–7 days.
//
// # ID Generation
//
// Request IDs default to a SHA-256 hash of the sizing inputs, so replaying the
// same request yields the same report key. See [generateID].
package domain
