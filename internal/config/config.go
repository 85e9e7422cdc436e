package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rebellion/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Tracker TrackerConfig
	Bridge  BridgeConfig
	Storage StorageConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// TrackerConfig holds the scoring knobs of the rebellion tracker
type TrackerConfig struct {
	Enabled bool
	Debug   bool

	RebellionThreshold           int
	SuspicionThreshold           int
	PickupContrabandPoints       int
	HoldingContrabandPerTick     int
	NearbyContrabandPerTick      int
	NearbyRebelDamagePoints      int
	DamageToFoundationPoints     int
	NoContrabandReductionPerTick int

	ProximityRadius   float64
	MaxNicknameLength int
	TickInterval      time.Duration
	RetryInterval     time.Duration
	BroadcastDuration time.Duration

	RebelledLabel     string
	CompliantLabel    string
	SuspectedLabel    string
	BroadcastTemplate string
	RestrictedItems   string // comma-separated, empty keeps the default firearms
}

// BridgeConfig holds host bridge configuration
type BridgeConfig struct {
	TokenHash           string // bcrypt hash of the shared host token, empty disables auth
	StaleSessionTimeout time.Duration
}

// StorageConfig holds incident journal configuration
type StorageConfig struct {
	Dialect     string // "memory", "sqlite" or "postgres"
	SQLitePath  string
	PostgresDSN string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	defaults := domain.DefaultSettings()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Tracker: TrackerConfig{
			Enabled:                      getEnvBool("TRACKER_ENABLED", defaults.Enabled),
			Debug:                        getEnvBool("TRACKER_DEBUG", defaults.Debug),
			RebellionThreshold:           getEnvInt("REBELLION_THRESHOLD", defaults.RebellionThreshold),
			SuspicionThreshold:           getEnvInt("SUSPICION_THRESHOLD", defaults.SuspicionThreshold),
			PickupContrabandPoints:       getEnvInt("PICKUP_CONTRABAND_POINTS", defaults.PickupPoints),
			HoldingContrabandPerTick:     getEnvInt("HOLDING_CONTRABAND_PER_TICK", defaults.HoldingPerTick),
			NearbyContrabandPerTick:      getEnvInt("NEARBY_CONTRABAND_PER_TICK", defaults.NearbyContrabandPerTick),
			NearbyRebelDamagePoints:      getEnvInt("NEARBY_REBEL_DAMAGE_POINTS", defaults.NearbyViolencePoints),
			DamageToFoundationPoints:     getEnvInt("DAMAGE_TO_FOUNDATION_POINTS", defaults.DamageToProtectedPoints),
			NoContrabandReductionPerTick: getEnvInt("NO_CONTRABAND_DECAY_PER_TICK", defaults.DecayPerTick),
			ProximityRadius:              getEnvFloat("PROXIMITY_RADIUS", defaults.ProximityRadius),
			MaxNicknameLength:            getEnvInt("MAX_NICKNAME_LENGTH", defaults.MaxNameLength),
			TickInterval:                 time.Duration(getEnvInt("TICK_INTERVAL_MS", 500)) * time.Millisecond,
			RetryInterval:                time.Duration(getEnvInt("RETRY_INTERVAL_MS", 1000)) * time.Millisecond,
			BroadcastDuration:            time.Duration(getEnvInt("BROADCAST_SECONDS", 3)) * time.Second,
			RebelledLabel:                getEnv("REBELLED_LABEL", defaults.RebelledLabel),
			CompliantLabel:               getEnv("COMPLIANT_LABEL", defaults.CompliantLabel),
			SuspectedLabel:               getEnv("SUSPECTED_LABEL", defaults.SuspectedLabel),
			BroadcastTemplate:            getEnv("BROADCAST_TEMPLATE", defaults.BroadcastTemplate),
			RestrictedItems:              getEnv("RESTRICTED_ITEMS", ""),
		},
		Bridge: BridgeConfig{
			TokenHash:           getEnv("BRIDGE_TOKEN_HASH", ""),
			StaleSessionTimeout: time.Duration(getEnvInt("STALE_SESSION_TIMEOUT_MINUTES", 30)) * time.Minute,
		},
		Storage: StorageConfig{
			Dialect:     strings.ToLower(strings.TrimSpace(getEnv("DB_DIALECT", "memory"))),
			SQLitePath:  getEnv("DB_SQLITE_PATH", "data/rebellion.sqlite"),
			PostgresDSN: getEnv("DB_POSTGRES_DSN", getEnv("DATABASE_URL", "")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Settings converts the tracker configuration into validated domain settings
func (c TrackerConfig) Settings() (domain.Settings, error) {
	items := domain.NewItemSet(domain.DefaultRestrictedItems...)
	if strings.TrimSpace(c.RestrictedItems) != "" {
		items = domain.ParseItemSet(c.RestrictedItems)
	}

	s := domain.Settings{
		Enabled:                 c.Enabled,
		Debug:                   c.Debug,
		RebellionThreshold:      c.RebellionThreshold,
		SuspicionThreshold:      c.SuspicionThreshold,
		PickupPoints:            c.PickupContrabandPoints,
		HoldingPerTick:          c.HoldingContrabandPerTick,
		NearbyContrabandPerTick: c.NearbyContrabandPerTick,
		NearbyViolencePoints:    c.NearbyRebelDamagePoints,
		DamageToProtectedPoints: c.DamageToFoundationPoints,
		DecayPerTick:            c.NoContrabandReductionPerTick,
		ProximityRadius:         c.ProximityRadius,
		MaxNameLength:           c.MaxNicknameLength,
		TickInterval:            c.TickInterval,
		RetryInterval:           c.RetryInterval,
		BroadcastDuration:       c.BroadcastDuration,
		RebelledLabel:           c.RebelledLabel,
		CompliantLabel:          c.CompliantLabel,
		SuspectedLabel:          c.SuspectedLabel,
		BroadcastTemplate:       c.BroadcastTemplate,
		RestrictedItems:         items,
	}
	if err := s.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as a float or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as a bool or a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
