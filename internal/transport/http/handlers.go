package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rebellion/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveServers   int `json:"activeServers"`
	TrackedPlayers  int `json:"trackedPlayers"`
	RebelledPlayers int `json:"rebelledPlayers"`
}

// ServerInfo describes one game server session
type ServerInfo struct {
	ServerID  string    `json:"serverId"`
	Attached  bool      `json:"attached"`
	Players   int       `json:"players"`
	Tracked   int       `json:"tracked"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordsResponse is the response for a server's tracker records
type RecordsResponse struct {
	ServerID string                `json:"serverId"`
	Enabled  bool                  `json:"enabled"`
	Records  []domain.PlayerRecord `json:"records"`
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveServers:   s.hub.GetSessionCount(),
		TrackedPlayers:  s.hub.GetTrackedCount(),
		RebelledPlayers: s.hub.GetRebelledCount(),
	})
}

// handleListServers handles GET /api/servers
func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	sessions := s.hub.Sessions()
	out := make([]ServerInfo, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, ServerInfo{
			ServerID:  session.ID(),
			Attached:  session.IsAttached(),
			Players:   session.World().Len(),
			Tracked:   session.Tracker().TrackedCount(),
			CreatedAt: session.GetCreatedAt().UTC(),
		})
	}
	s.sendSuccess(w, out)
}

// handleServerRecords handles GET /api/servers/{serverId}/records
func (s *Server) handleServerRecords(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("serverId")
	if serverID == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_SERVER_ID", "Server ID is required")
		return
	}

	session, err := s.hub.GetSession(serverID)
	if err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			s.sendError(w, http.StatusNotFound, "SERVER_NOT_FOUND", "Server not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	s.sendSuccess(w, &RecordsResponse{
		ServerID: session.ID(),
		Enabled:  session.Tracker().Enabled(),
		Records:  session.Tracker().Records(),
	})
}

// handleIncidents handles GET /api/incidents
func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.sendError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	incidents, err := s.store.RecentIncidents(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list incidents", "error", err)
		s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(w, incidents)
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
