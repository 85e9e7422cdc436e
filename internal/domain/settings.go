package domain

import (
	"fmt"
	"time"
)

// Settings holds the scoring and labeling parameters of a tracker
type Settings struct {
	Enabled bool `json:"enabled"`
	Debug   bool `json:"debug"`

	RebellionThreshold int `json:"rebellionThreshold"`
	SuspicionThreshold int `json:"suspicionThreshold"`

	PickupPoints            int `json:"pickupPoints"`
	HoldingPerTick          int `json:"holdingPerTick"`
	NearbyContrabandPerTick int `json:"nearbyContrabandPerTick"`
	NearbyViolencePoints    int `json:"nearbyViolencePoints"`
	DamageToProtectedPoints int `json:"damageToProtectedPoints"`
	DecayPerTick            int `json:"decayPerTick"`

	ProximityRadius float64 `json:"proximityRadius"`
	MaxNameLength   int     `json:"maxNameLength"`

	TickInterval      time.Duration `json:"tickInterval"`
	RetryInterval     time.Duration `json:"retryInterval"`
	BroadcastDuration time.Duration `json:"broadcastDuration"`

	RebelledLabel     string `json:"rebelledLabel"`
	CompliantLabel    string `json:"compliantLabel"`
	SuspectedLabel    string `json:"suspectedLabel"`
	BroadcastTemplate string `json:"broadcastTemplate"`

	RestrictedItems ItemSet `json:"-"`
}

// DefaultSettings returns the default tracker settings
func DefaultSettings() Settings {
	return Settings{
		Enabled:                 true,
		Debug:                   false,
		RebellionThreshold:      200,
		SuspicionThreshold:      100,
		PickupPoints:            100,
		HoldingPerTick:          2,
		NearbyContrabandPerTick: 2,
		NearbyViolencePoints:    20,
		DamageToProtectedPoints: 999,
		DecayPerTick:            2,
		ProximityRadius:         10,
		MaxNameLength:           31,
		TickInterval:            500 * time.Millisecond,
		RetryInterval:           time.Second,
		BroadcastDuration:       3 * time.Second,
		RebelledLabel:           "[REBELLED]",
		CompliantLabel:          "[compliant]",
		SuspectedLabel:          "[suspected]",
		BroadcastTemplate:       "Attention Foundation personnel: %s has rebelled as Class-D!",
		RestrictedItems:         NewItemSet(DefaultRestrictedItems...),
	}
}

// Validate checks the settings for values the tracker cannot work with
func (s Settings) Validate() error {
	if s.RebellionThreshold <= 0 {
		return fmt.Errorf("%w: rebellion threshold must be > 0", ErrInvalidSettings)
	}
	if s.SuspicionThreshold < 0 || s.SuspicionThreshold > s.RebellionThreshold {
		return fmt.Errorf("%w: suspicion threshold must be within [0, %d]", ErrInvalidSettings, s.RebellionThreshold)
	}
	if s.PickupPoints < 0 || s.HoldingPerTick < 0 || s.NearbyContrabandPerTick < 0 ||
		s.NearbyViolencePoints < 0 || s.DamageToProtectedPoints < 0 || s.DecayPerTick < 0 {
		return fmt.Errorf("%w: point values must be >= 0", ErrInvalidSettings)
	}
	if s.ProximityRadius < 0 {
		return fmt.Errorf("%w: proximity radius must be >= 0", ErrInvalidSettings)
	}
	if s.MaxNameLength <= 0 {
		return fmt.Errorf("%w: max name length must be > 0", ErrInvalidSettings)
	}
	if s.TickInterval <= 0 || s.RetryInterval <= 0 {
		return fmt.Errorf("%w: tick intervals must be > 0", ErrInvalidSettings)
	}
	if s.RebelledLabel == "" {
		return fmt.Errorf("%w: rebelled label must not be empty", ErrInvalidSettings)
	}
	return nil
}

// BroadcastSeconds returns the broadcast duration in whole seconds, at least 1
func (s Settings) BroadcastSeconds() int {
	secs := int(s.BroadcastDuration / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
