package geolookup

import (
	"math"
	"testing"
)

// TestParseCoordinates_Valid tests that well formed pairs round-trip exactly
func TestParseCoordinates_Valid(t *testing.T) {
	tests := []struct {
		loc      string
		lat, lon float64
	}{
		{"37.4,-122.1", 37.4, -122.1},
		{"37.3860,-122.0838", 37.3860, -122.0838},
		{"-33.8688,151.2093", -33.8688, 151.2093},
		{" 51.5074 , -0.1278 ", 51.5074, -0.1278},
		{"0,0", 0, 0},
		{"90,180", 90, 180},
		{"-90,-180", -90, -180},
		{"1e-7,2", 1e-7, 2},
	}

	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			coords := ParseCoordinates(tt.loc)
			if coords == nil {
				t.Fatal("expected coordinates, got nil")
			}
			if coords.Latitude != tt.lat || coords.Longitude != tt.lon {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.lat, tt.lon, coords.Latitude, coords.Longitude)
			}
		})
	}
}

// TestParseCoordinates_Invalid tests that bad input is absent, never NaN
func TestParseCoordinates_Invalid(t *testing.T) {
	tests := []struct {
		name string
		loc  string
	}{
		{"empty", ""},
		{"no comma", "37.4"},
		{"missing longitude", "37.4,"},
		{"missing latitude", ",-122.1"},
		{"letters", "abc,def"},
		{"NaN latitude", "NaN,10"},
		{"NaN longitude", "10,nan"},
		{"infinite", "Inf,10"},
		{"overflow", "1e400,10"},
		{"latitude out of range", "91,10"},
		{"longitude out of range", "10,181"},
		{"extra component", "37.4,-122.1,5"},
		{"semicolon", "37.4;-122.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if coords := ParseCoordinates(tt.loc); coords != nil {
				t.Errorf("expected nil, got %+v", coords)
			}
		})
	}
}

// TestIsFinite tests the finiteness helper
func TestIsFinite(t *testing.T) {
	if !IsFinite(12.5) {
		t.Error("expected 12.5 to be finite")
	}
	if IsFinite(math.NaN()) {
		t.Error("expected NaN to be non-finite")
	}
	if IsFinite(math.Inf(-1)) {
		t.Error("expected -Inf to be non-finite")
	}
}
