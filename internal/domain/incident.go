package domain

import (
	"time"

	"github.com/google/uuid"
)

// Incident is the journal entry written when a player rebels
type Incident struct {
	ID         string    `json:"id"`
	ServerID   string    `json:"serverId"`
	PlayerID   string    `json:"playerId"`
	Nickname   string    `json:"nickname"`
	Points     int       `json:"points"`
	Cause      Cause     `json:"cause"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewIncident creates an incident stamped with a fresh ID and the current time
func NewIncident(serverID, playerID, nickname string, points int, cause Cause) Incident {
	return Incident{
		ID:         uuid.New().String(),
		ServerID:   serverID,
		PlayerID:   playerID,
		Nickname:   nickname,
		Points:     points,
		Cause:      cause,
		OccurredAt: time.Now().UTC(),
	}
}
