package app

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rebellion/internal/domain"
)

const (
	// DefaultStaleSessionTimeout is how long a detached session is kept
	DefaultStaleSessionTimeout = 30 * time.Minute

	// cleanupInterval is how often detached sessions are inspected
	cleanupInterval = 10 * time.Minute
)

// BridgeHub manages the sessions of every connected game server
type BridgeHub struct {
	sessions     map[string]*HostSession
	mu           sync.RWMutex
	settings     domain.Settings
	recorder     IncidentRecorder
	staleTimeout time.Duration
	logger       *slog.Logger
	done         chan struct{}
	closeOnce    sync.Once
}

// NewBridgeHub creates a new hub. A non-positive staleTimeout uses the default.
func NewBridgeHub(settings domain.Settings, recorder IncidentRecorder, staleTimeout time.Duration, logger *slog.Logger) *BridgeHub {
	if staleTimeout <= 0 {
		staleTimeout = DefaultStaleSessionTimeout
	}
	hub := &BridgeHub{
		sessions:     make(map[string]*HostSession),
		settings:     settings,
		recorder:     recorder,
		staleTimeout: staleTimeout,
		logger:       logger,
		done:         make(chan struct{}),
	}

	// Start cleanup goroutine
	go hub.cleanupLoop()

	return hub
}

// OpenSession returns the session for serverID, creating it if needed.
// An empty serverID gets a fresh one. resumed is true for an existing session.
func (h *BridgeHub) OpenSession(serverID string) (session *HostSession, resumed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if serverID != "" {
		if existing, ok := h.sessions[serverID]; ok {
			return existing, true
		}
	} else {
		serverID = uuid.New().String()
	}

	session = NewHostSession(serverID, h.settings, h.recorder, h.logger)
	h.sessions[serverID] = session

	h.logger.Info("host session created", "serverID", serverID)

	return session, false
}

// GetSession returns a session by server ID
func (h *BridgeHub) GetSession(serverID string) (*HostSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[serverID]
	if !ok {
		return nil, domain.ErrServerNotFound
	}

	return session, nil
}

// DeleteSession closes and removes a session
func (h *BridgeHub) DeleteSession(serverID string) {
	h.mu.Lock()
	session, ok := h.sessions[serverID]
	delete(h.sessions, serverID)
	h.mu.Unlock()

	if ok {
		session.Close()
		h.logger.Info("host session deleted", "serverID", serverID)
	}
}

// Sessions returns all sessions ordered by server ID
func (h *BridgeHub) Sessions() []*HostSession {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*HostSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// GetSessionCount returns the number of sessions
func (h *BridgeHub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// GetTrackedCount returns the number of tracked players across all sessions
func (h *BridgeHub) GetTrackedCount() int {
	total := 0
	for _, s := range h.Sessions() {
		total += s.Tracker().TrackedCount()
	}
	return total
}

// GetRebelledCount returns the number of rebels across all sessions
func (h *BridgeHub) GetRebelledCount() int {
	total := 0
	for _, s := range h.Sessions() {
		total += s.Tracker().RebelledCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *BridgeHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*HostSession)
	h.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// cleanupLoop periodically removes stale sessions
func (h *BridgeHub) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleSessions(time.Now())
		}
	}
}

// cleanupStaleSessions removes sessions detached for longer than the timeout
func (h *BridgeHub) cleanupStaleSessions(now time.Time) int {
	h.mu.Lock()
	stale := make([]*HostSession, 0)
	for serverID, session := range h.sessions {
		since, detached := session.DetachedSince()
		if detached && now.Sub(since) > h.staleTimeout {
			stale = append(stale, session)
			delete(h.sessions, serverID)
		}
	}
	h.mu.Unlock()

	for _, session := range stale {
		session.Close()
		h.logger.Info("stale host session cleaned up", "serverID", session.ID())
	}
	return len(stale)
}
