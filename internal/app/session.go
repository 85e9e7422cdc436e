package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rebellion/internal/domain"
)

const (
	// commandQueueSize bounds outbound commands waiting for the host
	commandQueueSize = 256

	// eventQueueSize bounds tracker events waiting to be journaled
	eventQueueSize = 256

	// recordTimeout caps a single journal write
	recordTimeout = 3 * time.Second
)

// ClientConnection represents a connected game server bridge
type ClientConnection interface {
	Send(message interface{}) error
	GetServerID() string
	Close() error
}

// IncidentRecorder persists rebellion incidents
type IncidentRecorder interface {
	RecordIncident(ctx context.Context, incident domain.Incident) error
}

// HostSession binds one game server to its world cache and tracker
type HostSession struct {
	id        string
	world     *World
	tracker   *Tracker
	recorder  IncidentRecorder
	logger    *slog.Logger
	createdAt time.Time

	client     ClientConnection
	detachedAt time.Time
	clientMu   sync.RWMutex

	commands  chan *domain.HostCommand
	events    chan *domain.TrackerEvent
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// NewHostSession creates a session for the server with the given ID
func NewHostSession(id string, settings domain.Settings, recorder IncidentRecorder, logger *slog.Logger) *HostSession {
	now := time.Now()
	s := &HostSession{
		id:         id,
		world:      NewWorld(),
		recorder:   recorder,
		logger:     logger.With("serverID", id),
		createdAt:  now,
		detachedAt: now,
		commands:   make(chan *domain.HostCommand, commandQueueSize),
		events:     make(chan *domain.TrackerEvent, eventQueueSize),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
	s.tracker = NewTracker(s, settings, s.logger, s.queueEvent)

	go s.eventLoop()

	return s
}

// ID returns the server ID
func (s *HostSession) ID() string {
	return s.id
}

// GetCreatedAt returns when the session was created
func (s *HostSession) GetCreatedAt() time.Time {
	return s.createdAt
}

// Tracker returns the session's tracker
func (s *HostSession) Tracker() *Tracker {
	return s.tracker
}

// World returns the session's world cache
func (s *HostSession) World() *World {
	return s.world
}

// Attach binds a bridge connection, replacing any previous one, and
// re-sends current labels so the host catches up
func (s *HostSession) Attach(client ClientConnection) {
	s.clientMu.Lock()
	prev := s.client
	s.client = client
	s.clientMu.Unlock()

	if prev != nil && prev != client {
		prev.Close()
	}

	if n := s.tracker.ResendLabels(); n > 0 {
		s.logger.Info("labels resent to host", "count", n)
	}
}

// Detach unbinds client if it is still the attached connection
func (s *HostSession) Detach(client ClientConnection) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.client != client {
		return
	}
	s.client = nil
	s.detachedAt = time.Now()
}

// IsAttached reports whether a bridge connection is bound
func (s *HostSession) IsAttached() bool {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	return s.client != nil
}

// DetachedSince returns when the last connection went away; ok is false while attached
func (s *HostSession) DetachedSince() (time.Time, bool) {
	s.clientMu.RLock()
	defer s.clientMu.RUnlock()
	if s.client != nil {
		return time.Time{}, false
	}
	return s.detachedAt, true
}

// PlayerVerified handles a player finishing authentication
func (s *HostSession) PlayerVerified(playerID, nickname string) {
	s.world.Join(playerID, nickname)
	s.tracker.PlayerVerified(playerID, nickname)
}

// RoleChanged handles a role assignment
func (s *HostSession) RoleChanged(playerID string, role domain.Role, team domain.Team) {
	if err := s.world.SetRole(playerID, role, team); err != nil {
		s.logger.Debug("role change for unknown player", "playerID", playerID, "error", err)
	}
	s.tracker.RoleChanged(playerID, role)
}

// PlayerDestroyed handles a player leaving the server
func (s *HostSession) PlayerDestroyed(playerID string) {
	s.tracker.PlayerDestroyed(playerID)
	s.world.Leave(playerID)
}

// ItemPickedUp handles an item pickup
func (s *HostSession) ItemPickedUp(playerID string, item domain.ItemType) {
	if err := s.world.AddItem(playerID, item); err != nil {
		s.logger.Debug("pickup for unknown player", "playerID", playerID, "error", err)
	}
	s.tracker.ItemPickedUp(playerID, item)
}

// ItemDropped handles an item drop
func (s *HostSession) ItemDropped(playerID string, item domain.ItemType) {
	if err := s.world.RemoveItem(playerID, item); err != nil {
		s.logger.Debug("drop for unknown player", "playerID", playerID, "error", err)
	}
	s.tracker.ItemDropped(playerID, item)
}

// PlayerHurt handles damage between two players
func (s *HostSession) PlayerHurt(attackerID, victimID string) {
	s.tracker.PlayerHurt(attackerID, victimID)
}

// RoundEnded handles the end of a round
func (s *HostSession) RoundEnded() {
	s.tracker.RoundEnded()
}

// RoundRestarting handles the pre-round teardown
func (s *HostSession) RoundRestarting() {
	s.tracker.RoundRestarting()
}

// ApplySnapshot replaces the world cache with the host's authoritative view
func (s *HostSession) ApplySnapshot(players []domain.PlayerState) {
	s.world.Replace(players)
}

// SetDisplayName implements Host
func (s *HostSession) SetDisplayName(playerID, name string) {
	s.queueCommand(domain.NewSetDisplayName(playerID, name))
}

// Broadcast implements Host
func (s *HostSession) Broadcast(durationSeconds int, text string) {
	s.queueCommand(domain.NewBroadcast(durationSeconds, text))
}

// Players implements Host
func (s *HostSession) Players() []domain.PlayerState {
	return s.world.Players()
}

// Player implements Host
func (s *HostSession) Player(playerID string) (domain.PlayerState, bool) {
	return s.world.Player(playerID)
}

// queueCommand adds a command to the outbound queue
func (s *HostSession) queueCommand(cmd *domain.HostCommand) {
	select {
	case s.commands <- cmd:
	default:
		s.logger.Warn("command queue full, dropping command", "type", cmd.Type, "playerID", cmd.PlayerID)
	}
}

// queueEvent adds a tracker event to the journal queue
func (s *HostSession) queueEvent(event *domain.TrackerEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop delivers commands to the host and journals tracker events
func (s *HostSession) eventLoop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.commands:
			s.deliver(cmd)
		case event := <-s.events:
			s.handleEvent(event)
		}
	}
}

// deliver sends a command to the attached connection
func (s *HostSession) deliver(cmd *domain.HostCommand) {
	s.clientMu.RLock()
	client := s.client
	s.clientMu.RUnlock()

	if client == nil {
		s.logger.Debug("no host attached, command dropped", "type", cmd.Type, "playerID", cmd.PlayerID)
		return
	}
	if err := client.Send(cmd); err != nil {
		s.logger.Debug("failed to send to host", "type", cmd.Type, "error", err)
	}
}

// handleEvent logs tracker events and journals rebellions
func (s *HostSession) handleEvent(event *domain.TrackerEvent) {
	switch event.Type {
	case domain.EventRebelled:
		payload, ok := event.Payload.(*domain.RebelledPayload)
		if !ok {
			return
		}
		s.logger.Info("player rebelled",
			"playerID", event.PlayerID,
			"nickname", payload.Nickname,
			"points", payload.Points,
			"cause", payload.Cause,
		)
		if s.recorder == nil {
			return
		}
		incident := domain.NewIncident(s.id, event.PlayerID, payload.Nickname, payload.Points, payload.Cause)
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.recorder.RecordIncident(ctx, incident); err != nil {
			s.logger.Error("failed to record incident", "playerID", event.PlayerID, "error", err)
		}
	case domain.EventRoundReset:
		s.logger.Info("round reset", "payload", event.Payload)
	default:
		s.logger.Debug("tracker event", "type", event.Type, "playerID", event.PlayerID)
	}
}

// flushCommands delivers whatever is still queued
func (s *HostSession) flushCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.deliver(cmd)
		default:
			return
		}
	}
}

// Close shuts down the session, restoring every player's name first
func (s *HostSession) Close() {
	s.closeOnce.Do(func() {
		s.tracker.Close()

		// Stop the loop first so queued restores go out in order from one goroutine
		close(s.done)
		<-s.loopDone
		s.flushCommands()

		s.clientMu.Lock()
		if s.client != nil {
			s.client.Close()
			s.client = nil
		}
		s.clientMu.Unlock()
	})
}
