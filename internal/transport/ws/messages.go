package ws

import (
	"encoding/json"
	"time"

	"rebellion/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Host → Tracker message types
const (
	MsgPlayerVerified  MessageType = "player_verified"
	MsgRoleChanged     MessageType = "role_changed"
	MsgPlayerDestroyed MessageType = "player_destroyed"
	MsgItemPickedUp    MessageType = "item_picked_up"
	MsgItemDropped     MessageType = "item_dropped"
	MsgPlayerHurt      MessageType = "player_hurt"
	MsgRoundEnded      MessageType = "round_ended"
	MsgRoundRestarting MessageType = "round_restarting"
	MsgWorldSnapshot   MessageType = "world_snapshot"
	MsgPing            MessageType = "ping"
)

// Tracker → Host message types
const (
	MsgConnected      MessageType = "connected"
	MsgSetDisplayName MessageType = "set_display_name"
	MsgBroadcast      MessageType = "broadcast"
	MsgError          MessageType = "error"
	MsgPong           MessageType = "pong"
)

// ClientMessage represents a message from the host bridge
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message to the host bridge
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Host message payloads

// PlayerVerifiedPayload is the payload for player_verified
type PlayerVerifiedPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

// RoleChangedPayload is the payload for role_changed
type RoleChangedPayload struct {
	PlayerID string      `json:"playerId"`
	Role     domain.Role `json:"role"`
	Team     domain.Team `json:"team,omitempty"`
}

// PlayerPayload is the payload for player_destroyed
type PlayerPayload struct {
	PlayerID string `json:"playerId"`
}

// ItemPayload is the payload for item_picked_up and item_dropped
type ItemPayload struct {
	PlayerID string          `json:"playerId"`
	Item     domain.ItemType `json:"item"`
}

// PlayerHurtPayload is the payload for player_hurt
type PlayerHurtPayload struct {
	AttackerID string `json:"attackerId"`
	VictimID   string `json:"victimId"`
}

// SnapshotPlayer is one player inside a world_snapshot
type SnapshotPlayer struct {
	ID       string            `json:"id"`
	Nickname string            `json:"nickname"`
	Role     domain.Role       `json:"role"`
	Team     domain.Team       `json:"team,omitempty"`
	Alive    bool              `json:"alive"`
	Position domain.Vector3    `json:"position"`
	Items    []domain.ItemType `json:"items,omitempty"`
}

// WorldSnapshotPayload is the payload for world_snapshot
type WorldSnapshotPayload struct {
	Players []SnapshotPlayer `json:"players"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	ServerID string `json:"serverId"`
	Resumed  bool   `json:"resumed"`
}

// SetDisplayNamePayload is the payload for set_display_name
type SetDisplayNamePayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// BroadcastPayload is the payload for broadcast
type BroadcastPayload struct {
	DurationSeconds int    `json:"durationSeconds"`
	Text            string `json:"text"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// toPlayerStates converts a snapshot into domain player states
func (p *WorldSnapshotPayload) toPlayerStates() []domain.PlayerState {
	out := make([]domain.PlayerState, 0, len(p.Players))
	for _, sp := range p.Players {
		team := sp.Team
		if team == "" {
			team = domain.TeamForRole(sp.Role)
		}
		out = append(out, domain.PlayerState{
			ID:       sp.ID,
			Nickname: sp.Nickname,
			Role:     sp.Role,
			Team:     team,
			Alive:    sp.Alive,
			Position: sp.Position,
			Items:    sp.Items,
			Status:   domain.StatusConnected,
		})
	}
	return out
}

// fromCommand wraps an outbound host command in its wire message
func fromCommand(cmd *domain.HostCommand) *ServerMessage {
	switch cmd.Type {
	case domain.CommandSetDisplayName:
		return NewServerMessage(MsgSetDisplayName, &SetDisplayNamePayload{
			PlayerID:    cmd.PlayerID,
			DisplayName: cmd.DisplayName,
		})
	case domain.CommandBroadcast:
		return NewServerMessage(MsgBroadcast, &BroadcastPayload{
			DurationSeconds: cmd.DurationSeconds,
			Text:            cmd.Text,
		})
	default:
		return nil
	}
}
