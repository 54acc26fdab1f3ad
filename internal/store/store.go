// Package store keeps versioned snapshots of project documents in Postgres.
// Every save appends a snapshot; loading returns the highest version.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS document_snapshots (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, version)
)`

const insertSnapshot = `
INSERT INTO document_snapshots (id, project_id, version, document)
SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
FROM document_snapshots WHERE project_id = $2
RETURNING version, created_at`

const selectLatest = `
SELECT id, project_id, version, document, created_at
FROM document_snapshots WHERE project_id = $1
ORDER BY version DESC LIMIT 1`

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

// saveAttempts bounds retries when two writers race for the same version.
const saveAttempts = 3

// NewPool connects to databaseURL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type Snapshot struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"projectId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveDocument appends a snapshot of entities and returns its id.
func (s *Store) SaveDocument(ctx context.Context, projectID string, entities []document.Entity) (string, error) {
	data, err := encodeDocument(entities)
	if err != nil {
		return "", err
	}
	snap, err := s.SaveRaw(ctx, projectID, data)
	if err != nil {
		return "", err
	}
	return snap.ID, nil
}

// SaveRaw appends a snapshot of an already encoded entity array.
func (s *Store) SaveRaw(ctx context.Context, projectID string, data json.RawMessage) (Snapshot, error) {
	snap := Snapshot{ProjectID: projectID, Document: data}
	var err error
	for range saveAttempts {
		snap.ID = typeid.NewSnapshotID()
		err = s.pool.QueryRow(ctx, insertSnapshot, snap.ID, projectID, data).Scan(&snap.Version, &snap.CreatedAt)
		if !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot of projectID.
func (s *Store) Latest(ctx context.Context, projectID string) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx, selectLatest, projectID).
		Scan(&snap.ID, &snap.ProjectID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		return Snapshot{}, notFound(err, "get latest snapshot")
	}
	return snap, nil
}

// LoadLatest decodes the newest snapshot of projectID.
func (s *Store) LoadLatest(ctx context.Context, projectID string) ([]document.Entity, error) {
	snap, err := s.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return decodeDocument(snap.Document)
}

func encodeDocument(entities []document.Entity) (json.RawMessage, error) {
	data, err := document.Encode(entities)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeDocument(data json.RawMessage) ([]document.Entity, error) {
	entities, err := document.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return entities, nil
}

func notFound(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
