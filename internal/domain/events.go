package domain

import "time"

// EventType represents the type of tracker event
type EventType string

const (
	EventPlayerTracked  EventType = "PLAYER_TRACKED"
	EventPlayerReleased EventType = "PLAYER_RELEASED"
	EventLabelChanged   EventType = "LABEL_CHANGED"
	EventRebelled       EventType = "REBELLED"
	EventRoundReset     EventType = "ROUND_RESET"
)

// TrackerEvent represents something the tracker did to a player or round
type TrackerEvent struct {
	Type      EventType   `json:"type"`
	PlayerID  string      `json:"playerId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new round-wide tracker event
func NewEvent(eventType EventType, payload interface{}) *TrackerEvent {
	return &TrackerEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific tracker event
func NewPlayerEvent(eventType EventType, playerID string, payload interface{}) *TrackerEvent {
	return &TrackerEvent{
		Type:      eventType,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different events

// LabelChangedPayload is emitted whenever a display name is rewritten
type LabelChangedPayload struct {
	Label       string `json:"label"`
	DisplayName string `json:"displayName"`
	Points      int    `json:"points"`
}

// RebelledPayload is emitted once per role tenure when a player rebels
type RebelledPayload struct {
	Nickname string `json:"nickname"`
	Points   int    `json:"points"`
	Cause    Cause  `json:"cause"`
}

// RoundResetPayload is emitted when a round ends and scores are cleared
type RoundResetPayload struct {
	Records int `json:"records"`
}
