package domain

// Cause names what produced the most recent point change on a record
type Cause string

const (
	CauseNone              Cause = ""
	CausePickup            Cause = "pickup"
	CauseHolding           Cause = "holding"
	CauseNearbyContraband  Cause = "nearby_contraband"
	CauseDamageToProtected Cause = "damage_to_protected"
	CauseNearbyViolence    Cause = "nearby_violence"
	CauseDecay             Cause = "decay"
)

// RecordState is the state of the rebellion state machine
type RecordState string

const (
	StateIdle     RecordState = "IDLE"     // not in the tracked role
	StateTracking RecordState = "TRACKING" // scored, below threshold
	StateRebelled RecordState = "REBELLED" // locked in until the role tenure ends
)

// PlayerRecord holds the rebellion bookkeeping of one player
type PlayerRecord struct {
	PlayerID     string `json:"playerId"`
	OriginalName string `json:"originalName"`
	Points       int    `json:"points"`
	Rebelled     bool   `json:"rebelled"`
	LastSuffix   string `json:"lastSuffix"`
	Tracked      bool   `json:"tracked"`
	LastCause    Cause  `json:"lastCause,omitempty"`
}

// NewPlayerRecord creates a record and captures the player's original name
func NewPlayerRecord(playerID, originalName string) *PlayerRecord {
	return &PlayerRecord{
		PlayerID:     playerID,
		OriginalName: originalName,
	}
}

// State returns the current state machine state
func (r *PlayerRecord) State() RecordState {
	switch {
	case r.Rebelled:
		return StateRebelled
	case r.Tracked:
		return StateTracking
	default:
		return StateIdle
	}
}

// AddPoints adds a bonus while the player is tracked and not locked in.
// It returns false when the record did not change.
func (r *PlayerRecord) AddPoints(n int, cause Cause) bool {
	if !r.Tracked || r.Rebelled || n <= 0 {
		return false
	}
	r.Points += n
	r.LastCause = cause
	return true
}

// Decay subtracts n points, floored at zero
func (r *PlayerRecord) Decay(n int) bool {
	if !r.Tracked || r.Rebelled || n <= 0 || r.Points == 0 {
		return false
	}
	r.Points -= n
	if r.Points < 0 {
		r.Points = 0
	}
	r.LastCause = CauseDecay
	return true
}

// CrossThreshold performs the one-way Tracking -> Rebelled transition.
// It returns true only on the call that flips the flag.
func (r *PlayerRecord) CrossThreshold(threshold int) bool {
	if r.Rebelled || r.Points < threshold {
		return false
	}
	r.Rebelled = true
	return true
}

// Reset clears the scoring fields, keeping identity and the original name
func (r *PlayerRecord) Reset() {
	r.Points = 0
	r.Rebelled = false
	r.LastSuffix = ""
	r.LastCause = CauseNone
}
