package geolookup

import (
	"math"
	"strconv"
	"strings"

	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches tag parsing
var validate = validator.New()

// normalize maps the provider's untyped payload onto a LocationRecord.
// Fields are renamed only; a field with the wrong JSON type or an empty
// value is recorded as absent.
func normalize(payload map[string]any) *models.LocationRecord {
	record := &models.LocationRecord{
		IPAddress:  stringField(payload["ip"]),
		City:       stringField(payload["city"]),
		Country:    stringField(payload["country"]),
		PostalCode: stringField(payload["postal"]),
		Timezone:   stringField(payload["timezone"]),
		ISP:        stringField(payload["org"]),
	}

	if loc := stringField(payload["loc"]); loc != nil {
		record.Coordinates = ParseCoordinates(*loc)
	}

	return record
}

func stringField(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// ParseCoordinates parses a provider "lat,long" string.
// It returns nil unless both halves parse to finite numbers inside the
// geographic range, so NaN never reaches a renderer.
func ParseCoordinates(loc string) *models.Coordinates {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil
	}

	if !IsFinite(lat) || !IsFinite(lon) {
		return nil
	}
	if validate.Var(lat, "latitude") != nil || validate.Var(lon, "longitude") != nil {
		return nil
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}
}

// IsFinite reports whether f is neither NaN nor infinite
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
