package domain

import "time"

// ConnectionStatus represents a player's connection state
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// PlayerState is the host's view of a player at a point in time
type PlayerState struct {
	ID       string           `json:"id"`
	Nickname string           `json:"nickname"`
	Role     Role             `json:"role,omitempty"`
	Team     Team             `json:"team,omitempty"`
	Alive    bool             `json:"alive"`
	Position Vector3          `json:"position"`
	Items    []ItemType       `json:"items,omitempty"`
	Status   ConnectionStatus `json:"status"`
	SeenAt   time.Time        `json:"seenAt"`
}

// NewPlayerState creates a connected player with no role
func NewPlayerState(id, nickname string) *PlayerState {
	return &PlayerState{
		ID:       id,
		Nickname: nickname,
		Role:     RoleNone,
		Team:     TeamDead,
		Status:   StatusConnected,
		SeenAt:   time.Now(),
	}
}

// IsConnected returns true if the player is currently connected
func (p *PlayerState) IsConnected() bool {
	return p.Status == StatusConnected
}

// Disconnect marks the player as disconnected
func (p *PlayerState) Disconnect() {
	p.Status = StatusDisconnected
}

// SetRole updates role and team, deriving the team when none is given
func (p *PlayerState) SetRole(role Role, team Team) {
	if team == "" {
		team = TeamForRole(role)
	}
	p.Role = role
	p.Team = team
	p.Alive = team != TeamDead
}

// AddItem appends an item to the inventory
func (p *PlayerState) AddItem(item ItemType) {
	p.Items = append(p.Items, item)
}

// RemoveItem removes one instance of the item from the inventory
func (p *PlayerState) RemoveItem(item ItemType) {
	for i, it := range p.Items {
		if it == item {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return
		}
	}
}

// Clone returns a copy that shares no memory with p
func (p *PlayerState) Clone() PlayerState {
	c := *p
	c.Items = append([]ItemType(nil), p.Items...)
	return c
}
