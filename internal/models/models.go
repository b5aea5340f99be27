package models

import "fmt"

// LocationRecord is the normalized result of a single geolocation lookup.
// Every field is optional: a nil pointer means the provider did not supply
// a usable value. Records are built once per successful lookup and never
// mutated afterwards.
type LocationRecord struct {
	IPAddress   *string      `json:"ip_address,omitempty"`
	City        *string      `json:"city,omitempty"`
	Country     *string      `json:"country,omitempty"`
	PostalCode  *string      `json:"postal_code,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Timezone    *string      `json:"timezone,omitempty"`
	ISP         *string      `json:"isp,omitempty"`
}

// Coordinates is a latitude/longitude pair in decimal degrees.
// Only finite, in-range values are ever stored here.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the pair the way popups show it
func (c Coordinates) String() string {
	return fmt.Sprintf("Lat %v, Lon %v", c.Latitude, c.Longitude)
}

// Value returns the string behind an optional field, or "" when absent
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}
