package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmarais/flightops/internal/config"
	"github.com/mmarais/flightops/internal/conflict"
	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/hazard"
	"github.com/mmarais/flightops/internal/schedule"
	"github.com/mmarais/flightops/internal/websocket"
	"github.com/mmarais/flightops/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	scheduleService *schedule.Service
	config          *config.Config
	logger          *logger.Logger
	wsServer        *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(scheduleService *schedule.Service, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		scheduleService: scheduleService,
		config:          config,
		logger:          logger.Named("api-handler"),
		wsServer:        wsServer,
	}
}

// GetSchedule returns the filtered schedule view
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	filters, err := parseScheduleFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view := h.scheduleService.GetSchedule(filters)
	WriteJSON(w, http.StatusOK, view)
}

// GetFlight returns a single flight by id
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing flight ID", http.StatusBadRequest)
		return
	}

	f, err := h.scheduleService.GetFlight(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

// CreateFlight schedules a new flight
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req flight.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	f, err := h.scheduleService.ScheduleFlight(&req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, f)
}

// UpdateFlight reschedules or edits an existing flight
func (h *Handler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing flight ID", http.StatusBadRequest)
		return
	}

	var req flight.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	f, err := h.scheduleService.UpdateFlight(id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

// UpdateFlightStatus applies a flight status transition
func (h *Handler) UpdateFlightStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing flight ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.UpdateFlightStatus(id, flight.Status(body.Status)); err != nil {
		h.writeError(w, err)
		return
	}

	f, err := h.scheduleService.GetFlight(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, f)
}

// CancelFlight cancels a flight
func (h *Handler) CancelFlight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing flight ID", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.CancelFlight(id); err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// CreateWeatherAlert ingests a weather advisory
func (h *Handler) CreateWeatherAlert(w http.ResponseWriter, r *http.Request) {
	var alert hazard.WeatherAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.ApplyWeatherAlert(&alert); err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, alert)
}

// CreateNOTAM ingests a NOTAM
func (h *Handler) CreateNOTAM(w http.ResponseWriter, r *http.Request) {
	var alert hazard.NOTAMAlert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.ApplyNOTAM(&alert); err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, alert)
}

// CreateMaintenance ingests a maintenance window
func (h *Handler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var rec flight.MaintenanceRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.scheduleService.ApplyMaintenance(rec); err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "applied"})
}

// GetConflicts returns conflicts, optionally filtered by status
func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	status := conflict.Status(r.URL.Query().Get("status"))
	switch status {
	case "", conflict.StatusOpen, conflict.StatusResolved, conflict.StatusIgnored:
	default:
		http.Error(w, "Invalid conflict status filter", http.StatusBadRequest)
		return
	}

	conflicts := h.scheduleService.Conflicts(status)
	WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

// ResolveConflict marks an open conflict resolved
func (h *Handler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	h.closeConflict(w, r, h.scheduleService.ResolveConflict)
}

// IgnoreConflict marks an open conflict ignored
func (h *Handler) IgnoreConflict(w http.ResponseWriter, r *http.Request) {
	h.closeConflict(w, r, h.scheduleService.IgnoreConflict)
}

func (h *Handler) closeConflict(w http.ResponseWriter, r *http.Request, close func(id, note string) error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing conflict ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Note string `json:"note"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	if err := close(id, body.Note); err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetAlerts returns the recent conflict alert stream, newest first
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.scheduleService.Alerts()
	WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now().UTC(),
		"count":     len(alerts),
		"alerts":    alerts,
	})
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	view := h.scheduleService.GetSchedule(schedule.Filters{})
	response := map[string]any{
		"status":         "ok",
		"flight_count":   len(view.Flights),
		"open_conflicts": len(h.scheduleService.OpenConflicts()),
	}
	WriteJSON(w, http.StatusOK, response)
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *flight.ValidationError
	var nerr *flight.NotFoundError
	var serr *flight.StateError

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.As(err, &nerr):
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": nerr.Error()})
	case errors.As(err, &serr):
		WriteJSON(w, http.StatusConflict, map[string]string{"error": serr.Error()})
	default:
		h.logger.Error("Unhandled API error", logger.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// parseScheduleFilters reads the schedule query parameters
func parseScheduleFilters(r *http.Request) (schedule.Filters, error) {
	var filters schedule.Filters
	q := r.URL.Query()

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, errors.New("invalid 'from' timestamp, expected RFC3339")
		}
		filters.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filters, errors.New("invalid 'to' timestamp, expected RFC3339")
		}
		filters.To = &t
	}
	if v := q.Get("status"); v != "" {
		status := flight.Status(v)
		if !status.Valid() {
			return filters, errors.New("invalid status filter")
		}
		filters.Status = status
	}
	if v := q.Get("type"); v != "" {
		ftype := flight.Type(v)
		if !ftype.Valid() {
			return filters, errors.New("invalid type filter")
		}
		filters.Type = ftype
	}
	filters.Search = q.Get("search")

	return filters, nil
}
