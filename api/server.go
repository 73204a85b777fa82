package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
	"github.com/emilyyejia/Pattern-and-Algebra/game/session"
	"github.com/emilyyejia/Pattern-and-Algebra/transport/websocket"
)

var log = logrus.WithField("component", "api")

// schemas are the types published under /api/schema/{type}.
var schemas = map[string]any{
	"config":    &engine.GameConfig{},
	"action":    &engine.Action{},
	"snapshot":  &engine.Snapshot{},
	"state":     &engine.GameState{},
	"placement": &service.PlacementRequest{},
	"path":      &service.PathRequest{},
	"trap":      &service.TrapRequest{},
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case nothing
// is pushed and /ws is not served.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	// Must be registered before the {id} pattern.
	api.HandleFunc("/sessions/unified", s.handleUnifiedSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/actions", s.handleAct).Methods("POST")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/snapshot", s.handleSnapshot).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// Stateless generators
	api.HandleFunc("/generate/placement", s.handleGeneratePlacement).Methods("POST")
	api.HandleFunc("/generate/path", s.handleGeneratePath).Methods("POST")
	api.HandleFunc("/check/trap", s.handleCheckTrap).Methods("POST")

	api.HandleFunc("/schema/{type}", s.handleSchema).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}
	respondJSON(w, status, map[string]any{
		"error": err.Error(),
		"code":  status,
	})
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, engine.ErrInvalidAction),
		errors.Is(err, engine.ErrUnknownKind),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrLevelComplete),
		errors.Is(err, service.ErrSessionAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v. Unknown fields are rejected so typos in
// actions surface as 400s instead of silently doing nothing.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) broadcast(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
		Seed       int64  `json:"seed,omitempty"`
	}

	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidRequest, err))
			return
		}
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID, req.Seed)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created" or "accessed" (default)
	order := query.Get("order") // "asc" or "desc" (default)
	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	var action engine.Action
	if err := decode(r, &action); err != nil {
		respondError(w, err)
		return
	}
	s.act(w, r, action)
}

// handleMove is shorthand for a move action: {"direction": "north"}.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string  `json:"direction"`
		Distance  float64 `json:"distance,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	dir, err := grid.ParseDirection(req.Direction)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err))
		return
	}
	s.act(w, r, engine.Action{Type: engine.ActionMove, Direction: dir, Distance: req.Distance})
}

func (s *Server) act(w http.ResponseWriter, r *http.Request, action engine.Action) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Act(r.Context(), sessionID, action)
	if err != nil {
		log.WithFields(logrus.Fields{
			"session": sessionID,
			"action":  action.Type,
		}).WithError(err).Debug("Action rejected")
		respondError(w, err)
		return
	}

	s.broadcast(sessionID, result.GameState)

	entry := log.WithFields(logrus.Fields{
		"session":  sessionID,
		"action":   action.Type,
		"accepted": result.Outcome.Accepted,
		"events":   len(result.Outcome.Events),
	})
	if result.GameState.Completed {
		entry.WithField("stars", result.GameState.Stars).Info("Level completed")
	} else {
		entry.Debug("Action applied")
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondError(w, err)
		return
	}

	s.broadcast(sessionID, result.GameState)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configID := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a display name into a config id.
func slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := json.NewDecoder(r.Body).Decode(&gameConfig); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidRequest, err))
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = slug(gameConfig.Name)
	}
	if configID == "" {
		respondError(w, fmt.Errorf("%w: config name is required", service.ErrInvalidRequest))
		return
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Unified Sessions Handler

// handleUnifiedSessions returns several sessions side by side, picked by
// sessionIds or by configId, with a completion summary.
func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sessions []*service.SessionInfo
	if ids := query.Get("sessionIds"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if info, err := s.service.GetSession(r.Context(), id); err == nil {
				sessions = append(sessions, info)
			}
		}
	} else {
		all, err := s.service.ListSessions(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		configID := query.Get("configId")
		for _, info := range all {
			if configID == "" || info.ConfigID == configID {
				sessions = append(sessions, info)
			}
		}
	}

	type summary struct {
		SessionID    string    `json:"session_id"`
		ConfigID     string    `json:"config_id"`
		Completed    bool      `json:"completed"`
		GameOver     bool      `json:"game_over"`
		Stars        int       `json:"stars"`
		TotalActions int       `json:"total_actions"`
		LastAccessed time.Time `json:"last_accessed"`
	}

	completed := 0
	rows := make([]summary, 0, len(sessions))
	for _, info := range sessions {
		row := summary{
			SessionID:    info.ID,
			ConfigID:     info.ConfigID,
			LastAccessed: info.LastAccessedAt,
		}
		if st := info.GameState; st != nil {
			row.Completed = st.Completed
			row.GameOver = st.GameOver
			row.Stars = st.Stars
			row.TotalActions = st.TotalActions
		}
		if row.Completed {
			completed++
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":     len(rows),
		"completed": completed,
		"sessions":  rows,
	})
}

// Generator Handlers

func (s *Server) handleGeneratePlacement(w http.ResponseWriter, r *http.Request) {
	var req service.PlacementRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.service.GeneratePlacement(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGeneratePath(w http.ResponseWriter, r *http.Request) {
	var req service.PathRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.service.GeneratePath(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCheckTrap(w http.ResponseWriter, r *http.Request) {
	var req service.TrapRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := s.service.CheckTrap(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["type"]
	v, ok := schemas[name]
	if !ok {
		known := make([]string, 0, len(schemas))
		for k := range schemas {
			known = append(known, k)
		}
		sort.Strings(known)
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error":     fmt.Sprintf("unknown schema %q", name),
			"available": known,
		})
		return
	}

	reflector := &jsonschema.Reflector{ExpandedStruct: true}
	respondJSON(w, http.StatusOK, reflector.Reflect(v))
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
