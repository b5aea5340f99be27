package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/mapview"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/screen"
	"github.com/goccy/go-json"
)

//go:embed templates/*.html
var templateFS embed.FS

// ScreenHandler serves the tracker page and its JSON endpoints.
// It deals with HTTP concerns only; state lives in the controller.
type ScreenHandler struct {
	controller *controller.Controller
	screen     *screen.Screen
	mapView    *mapview.MapView
	client     geolookup.Lookuper
	page       *template.Template
	logger     *logger.Logger
}

// NewScreenHandler parses the embedded page template and returns a handler.
// client is used by the direct lookup endpoint only.
func NewScreenHandler(c *controller.Controller, s *screen.Screen, mv *mapview.MapView, client geolookup.Lookuper, log *logger.Logger) (*ScreenHandler, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	page, err := template.New("index.html").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse page template: %w", err)
	}

	return &ScreenHandler{
		controller: c,
		screen:     s,
		mapView:    mv,
		client:     client,
		page:       page,
		logger:     log.WithComponent("ScreenHandler"),
	}, nil
}

// Index handles GET /
func (h *ScreenHandler) Index(w http.ResponseWriter, r *http.Request) {
	view := h.screen.Current()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, view); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render page")
	}
}

// Search handles POST /search with form field q.
// The lookup runs in the background; the browser is sent back to the page.
func (h *ScreenHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	// The lookup outlives this request
	h.controller.Search(context.WithoutCancel(r.Context()), r.PostForm.Get("q"))

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State handles GET /v1/state
func (h *ScreenHandler) State(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.screen.Current())
}

// Lookup handles GET /v1/lookup?q=<target>.
// An empty q resolves the caller-facing address of this machine.
func (h *ScreenHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	query := ""
	if target := strings.TrimSpace(r.URL.Query().Get("q")); target != "" {
		query = geolookup.QueryFor(target)
	}

	record, err := h.client.Lookup(r.Context(), query)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, geolookup.ErrLookupFailed.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// mapViewRequest is what the page sends after the user pans or zooms
type mapViewRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      int     `json:"zoom"`
}

// MapView handles POST /v1/map/view, recording a user pan on the mounted map
func (h *ScreenHandler) MapView(w http.ResponseWriter, r *http.Request) {
	var req mapViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !geolookup.IsFinite(req.Latitude) || !geolookup.IsFinite(req.Longitude) {
		h.respondError(w, http.StatusBadRequest, "Invalid coordinates")
		return
	}
	if req.Zoom < mapview.MinZoom || req.Zoom > mapview.MaxZoom {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Zoom must be between %d and %d", mapview.MinZoom, mapview.MaxZoom))
		return
	}

	center := models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if !h.mapView.Pan(center, req.Zoom) {
		h.respondError(w, http.StatusConflict, "No map is mounted")
		return
	}

	h.respondJSON(w, http.StatusOK, h.mapView.Frame())
}

// respondJSON writes a JSON response with the given status code
func (h *ScreenHandler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes an error response with consistent formatting
func (h *ScreenHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
