package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"rebellion/internal/domain"
)

// Dialects understood by Open
const (
	DialectMemory   = "memory"
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS rebellion_incidents (
	id           TEXT PRIMARY KEY,
	server_id    TEXT NOT NULL,
	player_id    TEXT NOT NULL,
	nickname     TEXT NOT NULL,
	points       INTEGER NOT NULL,
	cause        TEXT NOT NULL,
	occurred_at  BIGINT NOT NULL
)`

const schemaIndex = `
CREATE INDEX IF NOT EXISTS idx_rebellion_incidents_occurred
	ON rebellion_incidents (occurred_at)`

// SQLStore journals incidents in SQLite or PostgreSQL
type SQLStore struct {
	dialect string
	db      *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite journal at path
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}

	return newSQLStore(ctx, DialectSQLite, db)
}

// OpenPostgres connects to a PostgreSQL journal
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return newSQLStore(ctx, DialectPostgres, db)
}

func newSQLStore(ctx context.Context, dialect string, db *sql.DB) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}
	s := &SQLStore{dialect: dialect, db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create rebellion_incidents: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schemaIndex); err != nil {
		return fmt.Errorf("create rebellion_incidents index: %w", err)
	}
	return nil
}

// bind returns the placeholder for the pos-th argument
func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) RecordIncident(ctx context.Context, incident domain.Incident) error {
	cols := []string{"id", "server_id", "player_id", "nickname", "points", "cause", "occurred_at"}
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = s.bind(i + 1)
	}
	q := fmt.Sprintf(
		"INSERT INTO rebellion_incidents (%s) VALUES (%s)",
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)

	_, err := s.db.ExecContext(ctx, q,
		incident.ID,
		incident.ServerID,
		incident.PlayerID,
		incident.Nickname,
		incident.Points,
		string(incident.Cause),
		incident.OccurredAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert incident %s: %w", incident.ID, err)
	}
	return nil
}

func (s *SQLStore) RecentIncidents(ctx context.Context, limit int) ([]domain.Incident, error) {
	q := fmt.Sprintf(`
		SELECT id, server_id, player_id, nickname, points, cause, occurred_at
		FROM rebellion_incidents
		ORDER BY occurred_at DESC, id DESC
		LIMIT %s`, s.bind(1))

	rows, err := s.db.QueryContext(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Incident, 0)
	for rows.Next() {
		var (
			inc   domain.Incident
			cause string
			ms    int64
		)
		if err := rows.Scan(&inc.ID, &inc.ServerID, &inc.PlayerID, &inc.Nickname, &inc.Points, &cause, &ms); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Cause = domain.Cause(cause)
		inc.OccurredAt = time.UnixMilli(ms).UTC()
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

// Dialect returns the SQL dialect in use
func (s *SQLStore) Dialect() string {
	return s.dialect
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
