package store

import (
	"context"
	"fmt"

	"rebellion/internal/config"
	"rebellion/internal/domain"
)

const (
	// DefaultListLimit is used when a caller asks for no particular limit
	DefaultListLimit = 50

	// MaxListLimit caps a single listing
	MaxListLimit = 500
)

// Store journals rebellion incidents
type Store interface {
	RecordIncident(ctx context.Context, incident domain.Incident) error
	RecentIncidents(ctx context.Context, limit int) ([]domain.Incident, error)
	Close() error
}

// Open returns the store selected by the configured dialect
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Dialect {
	case "", DialectMemory:
		return NewMemoryStore(defaultMemoryCapacity), nil
	case DialectSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DialectPostgres:
		s, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", cfg.Dialect)
	}
}

// clampLimit normalizes a listing limit into [1, MaxListLimit]
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
