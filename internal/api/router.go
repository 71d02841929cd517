package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mmarais/flightops/internal/config"
	"github.com/mmarais/flightops/internal/schedule"
	"github.com/mmarais/flightops/internal/websocket"
	"github.com/mmarais/flightops/pkg/logger"
)

// Router wraps the chi router and its handlers
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(scheduleService *schedule.Service, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler: NewHandler(scheduleService, cfg, log, wsServer),
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes returns the HTTP handler with all routes mounted
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(rt.config.Server.CORSAllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.handler.GetHealth)
		r.Get("/schedule", rt.handler.GetSchedule)

		r.Route("/flights", func(r chi.Router) {
			r.Post("/", rt.handler.CreateFlight)
			r.Get("/{id}", rt.handler.GetFlight)
			r.Put("/{id}", rt.handler.UpdateFlight)
			r.Put("/{id}/status", rt.handler.UpdateFlightStatus)
			r.Delete("/{id}", rt.handler.CancelFlight)
		})

		r.Route("/advisories", func(r chi.Router) {
			r.Post("/weather", rt.handler.CreateWeatherAlert)
			r.Post("/notams", rt.handler.CreateNOTAM)
		})

		r.Post("/maintenance", rt.handler.CreateMaintenance)

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", rt.handler.GetConflicts)
			r.Post("/{id}/resolve", rt.handler.ResolveConflict)
			r.Post("/{id}/ignore", rt.handler.IgnoreConflict)
		})

		r.Get("/alerts", rt.handler.GetAlerts)
		r.Get("/ws", rt.handler.HandleWebSocket)
	})

	return r
}

// corsMiddleware applies the configured CORS policy
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool)
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left to do but drop it
		return
	}
}
