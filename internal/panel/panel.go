package panel

import (
	"strings"

	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/models"
)

// NotAvailable replaces any field the provider did not supply
const NotAvailable = "N/A"

// LoadingText is shown while a lookup is in flight
const LoadingText = "Loading IP details..."

// View is what the info panel displays for one snapshot
type View struct {
	Loading     bool   `json:"loading"`
	LoadingText string `json:"loading_text,omitempty"`
	Visible     bool   `json:"visible"`
	IPAddress   string `json:"ip_address"`
	Location    string `json:"location"`
	Timezone    string `json:"timezone"`
	ISP         string `json:"isp"`
}

// Render builds the panel for a controller snapshot.
//
// The fields panel is visible when the phase is Ready, or Loading after an
// earlier success; it collapses when the phase is Empty. The loading message
// is shown whenever a lookup is in flight.
func Render(s controller.Snapshot) View {
	view := View{
		Loading: s.Phase == controller.PhaseLoading,
		Visible: s.Phase == controller.PhaseReady || (s.Phase == controller.PhaseLoading && s.HasLoaded),
	}
	if view.Loading {
		view.LoadingText = LoadingText
	}

	r := s.Record
	if r == nil {
		r = &models.LocationRecord{}
	}

	view.IPAddress = orNA(r.IPAddress)
	view.Location = Location(r)
	view.Timezone = orNA(r.Timezone)
	view.ISP = orNA(r.ISP)

	return view
}

// Location joins city, country and postal code, each falling back to N/A
func Location(r *models.LocationRecord) string {
	return strings.Join([]string{orNA(r.City), orNA(r.Country), orNA(r.PostalCode)}, ", ")
}

// Lines returns the four labelled rows, in display order
func (v View) Lines() [][2]string {
	return [][2]string{
		{"IP ADDRESS", v.IPAddress},
		{"LOCATION", v.Location},
		{"TIMEZONE", v.Timezone},
		{"ISP", v.ISP},
	}
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return NotAvailable
	}
	return *s
}
