package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	alarmdb "github.com/dmaitland/alarm-controller/db"
	"github.com/dmaitland/alarm-controller/internal/config"
	"github.com/dmaitland/alarm-controller/internal/gpio"
	"github.com/dmaitland/alarm-controller/internal/model"
)

const defaultEventLimit = 20
const maxEventLimit = 500

// Server exposes a read-only status surface. There is deliberately no
// write endpoint: the controller has no arming modes and pin state is
// owned by the control loops.
type Server struct {
	db        *sql.DB
	config    *config.Config
	zones     []model.Zone
	startedAt time.Time
}

type ZoneStatus struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	SensorPin       int    `json:"sensor_pin"`
	IndicatorPin    int    `json:"indicator_pin"`
	SensorLevel     bool   `json:"sensor_level"`
	IndicatorActive bool   `json:"indicator_active"`
}

type StatusResponse struct {
	UptimeSeconds int64             `json:"uptime_seconds"`
	SafeMode      bool              `json:"safe_mode"`
	GPIOBackend   string            `json:"gpio_backend"`
	Zones         []ZoneStatus      `json:"zones"`
	LastEvent     *model.AlarmEvent `json:"last_event"`
	EventCounts   map[string]int    `json:"event_counts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(database *sql.DB, cfg *config.Config, zones []model.Zone) *Server {
	return &Server{
		db:        database,
		config:    cfg,
		zones:     zones,
		startedAt: time.Now(),
	}
}

func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting status API server")

	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	zones := make([]ZoneStatus, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, ZoneStatus{
			ID:              z.ID,
			Label:           z.Label,
			SensorPin:       z.SensorPin.Number,
			IndicatorPin:    z.IndicatorPin.Number,
			SensorLevel:     gpio.Read(z.SensorPin),
			IndicatorActive: gpio.CurrentlyActive(z.IndicatorPin),
		})
	}

	last, err := alarmdb.LastEvent(s.db)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load last event")
		s.writeError(w, http.StatusInternalServerError, "Failed to load event history")
		return
	}
	counts, err := alarmdb.CountEventsByZone(s.db)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load event counts")
		s.writeError(w, http.StatusInternalServerError, "Failed to load event history")
		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		SafeMode:      s.config.SafeMode,
		GPIOBackend:   s.config.GPIOBackend,
		Zones:         zones,
		LastEvent:     last,
		EventCounts:   counts,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxEventLimit {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxEventLimit))
			return
		}
		limit = n
	}

	events, err := alarmdb.RecentEvents(s.db, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load events")
		s.writeError(w, http.StatusInternalServerError, "Failed to load event history")
		return
	}
	if events == nil {
		events = []model.AlarmEvent{}
	}

	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
