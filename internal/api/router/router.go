package router

import (
	"net/http"

	json "github.com/goccy/go-json"

	"fleettrack/internal/api/handler"
	"fleettrack/internal/api/middleware"
	"fleettrack/internal/core/service"
)

func NewRouter(
	ingestService service.IngestService,
	deviceService service.DeviceService,
	eventService service.EventService,
) http.Handler {
	// Initialize handlers
	telemetryHandler := handler.NewTelemetryHandler(ingestService)
	adminHandler := handler.NewAdminHandler(deviceService, eventService)

	// Create router
	mux := http.NewServeMux()

	// Device endpoints answer plain text with no middleware beyond logging:
	// trackers choke on anything but the bare acknowledgement body.
	deviceRoute := func(h http.Handler) http.Handler {
		return middleware.LoggingMiddleware(h)
	}

	// Operator API chain
	withMiddleware := func(h http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(h),
		)
	}

	// Tracker check-in routes. Each profile is served on its /Data path and
	// on the bare prefix for firmwares that drop the suffix.
	gc101 := deviceRoute(telemetryHandler.Data("gc101"))
	mux.Handle("/gc101/Data", gc101)
	mux.Handle("/gc101", gc101)

	gprmc := deviceRoute(telemetryHandler.Data("gprmc"))
	mux.Handle("/gprmc/Data", gprmc)
	mux.Handle("/gprmc", gprmc)

	// Health check endpoint
	mux.Handle("/health", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})))

	// Device routes with method handling
	mux.Handle("/api/devices", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			adminHandler.CreateDevice(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/devices/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		adminHandler.GetDevices(w, r)
	})))

	mux.Handle("/api/devices/get", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		adminHandler.GetDevice(w, r)
	})))

	// Event routes
	mux.Handle("/api/events/latest", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		adminHandler.GetLatestEvent(w, r)
	})))

	mux.Handle("/api/events/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		adminHandler.GetEvents(w, r)
	})))

	return mux
}
