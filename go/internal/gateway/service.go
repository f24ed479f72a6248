package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/plan"
	"github.com/courtside/commander/go/internal/schedule"
)

// Service is the plan gateway: the JSON command/query API plus the
// WebSocket fan-out of plan events.
type Service struct {
	planApp           *plan.App
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates a gateway over the plan app. The JetStream consumer is
// optional: pass withBus=false to run API-only (tests, local dev without NATS).
func NewService(planApp *plan.App, config Config, withBus bool) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	wsHandler := NewWebSocketHandler(connectionManager)

	s := &Service{
		planApp:           planApp,
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
	}

	if withBus {
		eventConsumer, err := NewEventConsumer(connectionManager, config.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.eventConsumer = eventConsumer
	}
	return s, nil
}

// Start runs the broadcast loop and bus consumer until the context ends.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting plan gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("plan gateway service shutting down")
	if s.eventConsumer != nil {
		s.eventConsumer.Close()
	}
	return nil
}

// RegisterRoutes registers the API and WebSocket routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/plan", s.handleGetPlan)
	mux.HandleFunc("GET /api/plan/playing-time", s.handlePlayingTime)
	mux.HandleFunc("GET /api/plan/on-court", s.handleOnCourt)
	mux.HandleFunc("GET /api/plans", s.handleListPlans)
	mux.HandleFunc("POST /api/plans", s.handleCreatePlan)
	mux.HandleFunc("POST /api/plans/save-as", s.handleSaveAs)
	mux.HandleFunc("POST /api/plans/rename", s.handleRenamePlan)
	mux.HandleFunc("POST /api/plans/load", s.handleLoadPlan)
	mux.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)
	mux.HandleFunc("POST /api/roster/players", s.handleAddPlayer)
	mux.HandleFunc("PUT /api/roster/players", s.handleEditPlayer)
	mux.HandleFunc("DELETE /api/roster/players/{id}", s.handleDeletePlayer)
	mux.HandleFunc("POST /api/schedule/assign", s.handleAssign)
	mux.HandleFunc("POST /api/schedule/unassign", s.handleUnassign)
	mux.HandleFunc("POST /api/schedule/retime", s.handleRetime)
	s.wsHandler.RegisterRoutes(mux)
}

// planResponse is the standard mutation response: the new plan snapshot
// plus the diagnostics the host renders as user feedback.
type planResponse struct {
	Plan        models.Plan           `json:"plan"`
	Diagnostics []schedule.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Service) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, planResponse{Plan: s.planApp.Current()})
}

func (s *Service) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planApp.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Service) handlePlayingTime(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player_id":     playerID,
		"total_minutes": s.planApp.TotalPlayingTime(playerID),
	})
}

func (s *Service) handleOnCourt(w http.ResponseWriter, r *http.Request) {
	onCourt := s.planApp.OnCourt()
	ids := make([]string, 0, len(onCourt))
	for id := range onCourt {
		ids = append(ids, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"player_ids": ids})
}

func (s *Service) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, diags, err := s.planApp.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleSaveAs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	p, diags, err := s.planApp.SaveAs(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleRenamePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID      string `json:"id"`
		NewName string `json:"new_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" || req.NewName == "" {
		http.Error(w, "id and new_name are required", http.StatusBadRequest)
		return
	}
	diags, err := s.planApp.Rename(r.Context(), req.ID, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": diags})
}

func (s *Service) handleLoadPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, diags, err := s.planApp.Load(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	diags, err := s.planApp.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": diags})
}

func (s *Service) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var player models.Player
	if !decode(w, r, &player) {
		return
	}
	if player.ID == "" {
		player.ID = uuid.New().String()
	}
	p, diags, err := s.planApp.AddPlayer(r.Context(), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleEditPlayer(w http.ResponseWriter, r *http.Request) {
	var player models.Player
	if !decode(w, r, &player) {
		return
	}
	p, diags, err := s.planApp.EditPlayer(r.Context(), player)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	p, diags, err := s.planApp.DeletePlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string               `json:"player_id"`
		Quarter  models.QuarterKey    `json:"quarter"`
		Position int                  `json:"position"`
		Source   *schedule.SegmentRef `json:"source,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	p, diags, err := s.planApp.AssignPlayer(r.Context(), req.PlayerID, req.Quarter, req.Position, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleUnassign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quarter   models.QuarterKey `json:"quarter"`
		Position  int               `json:"position"`
		SegmentID string            `json:"segment_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, diags, err := s.planApp.UnassignSegment(r.Context(), req.Quarter, req.Position, req.SegmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func (s *Service) handleRetime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quarter   models.QuarterKey `json:"quarter"`
		Position  int               `json:"position"`
		SegmentID string            `json:"segment_id"`
		Minutes   int               `json:"minutes"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, diags, err := s.planApp.UpdateSegmentMinutes(r.Context(), req.Quarter, req.Position, req.SegmentID, req.Minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{Plan: p, Diagnostics: diags})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, plan.ErrLastPlan):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Msg("request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
