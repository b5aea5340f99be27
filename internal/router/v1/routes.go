package v1

import (
	"net/http"

	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the /v1/* JSON endpoints.
// limited wraps routes that call the geolocation provider.
func SetupRoutes(h *handler.ScreenHandler, limited func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/state
	r.Get("/state", h.State)

	// GET /v1/lookup?q=<target>
	r.With(limited).Get("/lookup", h.Lookup)

	// POST /v1/map/view
	r.Post("/map/view", h.MapView)

	return r
}
