package mapview

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/google/uuid"
)

// Zoom is the fixed zoom level every new coordinate pair is shown at
const Zoom = 13

// Zoom range a user pan may request, matching OpenStreetMap tiles
const (
	MinZoom = 0
	MaxZoom = 19
)

// PlaceholderText is shown instead of a map while coordinates are unknown
const PlaceholderText = "Loading map coordinates..."

// Default tile provider settings (OpenStreetMap)
const (
	DefaultTileURL         = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultTileAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
)

// TileLayer describes where map tiles come from
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// Point is a pixel offset or size, [x, y]
type Point [2]int

// IconOptions configures the marker icon of one MapView.
// It is passed at construction; there is no process-wide default icon.
type IconOptions struct {
	IconURL       string `json:"icon_url"`
	ShadowURL     string `json:"shadow_url"`
	IconSize      Point  `json:"icon_size"`
	IconAnchor    Point  `json:"icon_anchor"`
	PopupAnchor   Point  `json:"popup_anchor"`
	TooltipAnchor Point  `json:"tooltip_anchor"`
	ShadowSize    Point  `json:"shadow_size"`
}

// DefaultIcon mirrors Leaflet's stock marker
func DefaultIcon() IconOptions {
	return IconOptions{
		IconURL:       "https://unpkg.com/leaflet@1.9.4/dist/images/marker-icon.png",
		ShadowURL:     "https://unpkg.com/leaflet@1.9.4/dist/images/marker-shadow.png",
		IconSize:      Point{25, 41},
		IconAnchor:    Point{12, 41},
		PopupAnchor:   Point{1, -34},
		TooltipAnchor: Point{16, -28},
		ShadowSize:    Point{41, 41},
	}
}

// Options holds everything a MapView needs at construction
type Options struct {
	Tiles TileLayer
	Icon  IconOptions
}

// Marker is the single marker on the map
type Marker struct {
	Position  models.Coordinates `json:"position"`
	PopupText string             `json:"popup_text"`
}

// Widget is the mounted map. It keeps its own center and zoom, which the
// user may change by panning; only a new coordinate pair overrides them.
type Widget struct {
	ID        string             `json:"id"`
	Center    models.Coordinates `json:"center"`
	Zoom      int                `json:"zoom"`
	Marker    Marker             `json:"marker"`
	Recenters int                `json:"recenters"`
}

// Frame is one render of the view: either a placeholder or a widget
type Frame struct {
	Placeholder     bool        `json:"placeholder"`
	PlaceholderText string      `json:"placeholder_text,omitempty"`
	Widget          *Widget     `json:"widget,omitempty"`
	Tiles           TileLayer   `json:"tiles"`
	Icon            IconOptions `json:"icon"`
}

// MapView synchronizes a map widget with the coordinates it is fed
type MapView struct {
	mu      sync.Mutex
	opts    Options
	widget  *Widget
	input   *models.Coordinates // last pair passed to Render
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New creates a map view. Zero-valued tile settings fall back to OpenStreetMap.
func New(opts Options, m *metrics.Metrics, log *logger.Logger) *MapView {
	if log == nil {
		log = logger.NewDefault()
	}
	if opts.Tiles.URLTemplate == "" {
		opts.Tiles.URLTemplate = DefaultTileURL
	}
	if opts.Tiles.Attribution == "" {
		opts.Tiles.Attribution = DefaultTileAttribution
	}
	if opts.Icon == (IconOptions{}) {
		opts.Icon = DefaultIcon()
	}

	return &MapView{
		opts:    opts,
		metrics: m,
		logger:  log.WithComponent("MapView"),
	}
}

// Render shows coords with a marker labelled by label.
//
//   - nil or non-finite coords unmount the widget and yield the placeholder
//   - the first valid pair mounts a widget at Zoom
//   - a different pair re-centers the mounted widget at Zoom
//   - the same pair leaves the widget (and any user pan) alone
func (v *MapView) Render(coords *models.Coordinates, label *string) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()

	if coords == nil || !geolookup.IsFinite(coords.Latitude) || !geolookup.IsFinite(coords.Longitude) {
		if v.widget != nil {
			v.logger.Debug().Str("widget_id", v.widget.ID).Msg("Unmounting map, coordinates unknown")
		}
		v.widget = nil
		v.input = nil
		return v.frameLocked()
	}

	pair := *coords

	switch {
	case v.widget == nil:
		v.widget = &Widget{
			ID:     uuid.NewString(),
			Center: pair,
			Zoom:   Zoom,
		}
		v.logger.Debug().Str("widget_id", v.widget.ID).Stringer("center", pair).Msg("Map mounted")
		if v.metrics != nil {
			v.metrics.MapMounts.Inc()
		}

	case v.input == nil || *v.input != pair:
		v.setViewLocked(pair, Zoom)
	}

	v.input = &pair
	v.widget.Marker = Marker{
		Position:  pair,
		PopupText: popupText(pair, label),
	}

	return v.frameLocked()
}

// Pan records a user pan or zoom on the mounted widget.
// It reports false when no map is mounted.
func (v *MapView) Pan(center models.Coordinates, zoom int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.widget == nil {
		return false
	}
	v.widget.Center = center
	v.widget.Zoom = zoom
	return true
}

// Frame returns the current frame without changing anything
func (v *MapView) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frameLocked()
}

func (v *MapView) setViewLocked(center models.Coordinates, zoom int) {
	v.widget.Center = center
	v.widget.Zoom = zoom
	v.widget.Recenters++

	v.logger.Debug().
		Str("widget_id", v.widget.ID).
		Stringer("center", center).
		Int("zoom", zoom).
		Msg("Map re-centered")
	if v.metrics != nil {
		v.metrics.MapRecenters.Inc()
	}
}

func (v *MapView) frameLocked() Frame {
	frame := Frame{
		Tiles: v.opts.Tiles,
		Icon:  v.opts.Icon,
	}
	if v.widget == nil {
		frame.Placeholder = true
		frame.PlaceholderText = PlaceholderText
		return frame
	}
	w := *v.widget
	frame.Widget = &w
	return frame
}

func popupText(pair models.Coordinates, label *string) string {
	if label != nil && *label != "" {
		return *label
	}
	return "Location: " + pair.String()
}
