package domain

// CommandType represents an action the host must carry out
type CommandType string

const (
	CommandSetDisplayName CommandType = "SET_DISPLAY_NAME"
	CommandBroadcast      CommandType = "BROADCAST"
)

// HostCommand is an outbound instruction for the game server
type HostCommand struct {
	Type            CommandType `json:"type"`
	PlayerID        string      `json:"playerId,omitempty"`
	DisplayName     string      `json:"displayName,omitempty"`
	DurationSeconds int         `json:"durationSeconds,omitempty"`
	Text            string      `json:"text,omitempty"`
}

// NewSetDisplayName creates a display-name command
func NewSetDisplayName(playerID, name string) *HostCommand {
	return &HostCommand{
		Type:        CommandSetDisplayName,
		PlayerID:    playerID,
		DisplayName: name,
	}
}

// NewBroadcast creates a public broadcast command
func NewBroadcast(durationSeconds int, text string) *HostCommand {
	return &HostCommand{
		Type:            CommandBroadcast,
		DurationSeconds: durationSeconds,
		Text:            text,
	}
}
