package app

import (
	"sort"
	"sync"
	"time"

	"rebellion/internal/domain"
)

// World caches the host's players so the tracker can query them without
// a round trip to the game server
type World struct {
	players map[string]*domain.PlayerState
	mu      sync.RWMutex
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		players: make(map[string]*domain.PlayerState),
	}
}

// Join adds or refreshes a connected player
func (w *World) Join(playerID, nickname string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[playerID]; ok {
		p.Nickname = nickname
		p.Status = domain.StatusConnected
		p.SeenAt = time.Now()
		return
	}
	w.players[playerID] = domain.NewPlayerState(playerID, nickname)
}

// Leave removes a player
func (w *World) Leave(playerID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, playerID)
}

// SetRole updates a player's role; an empty team is derived from the role
func (w *World) SetRole(playerID string, role domain.Role, team domain.Team) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.SetRole(role, team)
	return nil
}

// AddItem records an item entering a player's inventory
func (w *World) AddItem(playerID string, item domain.ItemType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.AddItem(item)
	return nil
}

// RemoveItem records an item leaving a player's inventory
func (w *World) RemoveItem(playerID string, item domain.ItemType) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.RemoveItem(item)
	return nil
}

// Replace overwrites the world with an authoritative host snapshot.
// Players absent from the snapshot are dropped.
func (w *World) Replace(players []domain.PlayerState) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	next := make(map[string]*domain.PlayerState, len(players))
	for i := range players {
		p := players[i].Clone()
		if p.Team == "" {
			p.Team = domain.TeamForRole(p.Role)
		}
		if p.Status == "" {
			p.Status = domain.StatusConnected
		}
		p.SeenAt = now
		next[p.ID] = &p
	}
	w.players = next
}

// Players returns connected players ordered by ID
func (w *World) Players() []domain.PlayerState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.PlayerState, 0, len(w.players))
	for _, p := range w.players {
		if p.IsConnected() {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Player returns a copy of one player
func (w *World) Player(playerID string) (domain.PlayerState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[playerID]
	if !ok {
		return domain.PlayerState{}, false
	}
	return p.Clone(), true
}

// Len returns the number of known players
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.players)
}
