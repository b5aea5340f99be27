package screen

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/mapview"
	"github.com/evyataryagoni/iptracker/internal/panel"
)

// View is the composed screen for one controller snapshot.
// Panel and Map are always rendered from the same snapshot.
type View struct {
	Version uint64           `json:"version"`
	Phase   controller.Phase `json:"phase"`
	Query   string           `json:"query"`
	Panel   panel.View       `json:"panel"`
	Map     mapview.Frame    `json:"map"`
}

// Screen observes a controller and keeps the latest composed view
type Screen struct {
	mapView *mapview.MapView

	mu      sync.RWMutex
	current View
}

// New creates a screen that renders into mapView
func New(mapView *mapview.MapView) *Screen {
	return &Screen{
		mapView: mapView,
		current: View{Map: mapView.Frame(), Panel: panel.Render(controller.Snapshot{})},
	}
}

// Render implements controller.Observer
func (s *Screen) Render(snap controller.Snapshot) {
	view := View{
		Version: snap.Version,
		Phase:   snap.Phase,
		Query:   snap.Query,
		Panel:   panel.Render(snap),
	}

	if snap.Record != nil {
		view.Map = s.mapView.Render(snap.Record.Coordinates, snap.Record.IPAddress)
	} else {
		view.Map = s.mapView.Render(nil, nil)
	}

	s.mu.Lock()
	s.current = view
	s.mu.Unlock()
}

// Current returns the last composed view
func (s *Screen) Current() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
