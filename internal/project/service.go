package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/pathdata"
	"github.com/inamate/vecta/backend-go/internal/store"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

var (
	ErrNotFound         = errors.New("project not found")
	ErrInvalidProjectID = errors.New("invalid project id")
	ErrProjectOpen      = errors.New("project is open in a live session")
	ErrNoStorage        = errors.New("document storage is not configured")
)

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id can name a project.
func ValidID(id string) bool {
	return projectIDPattern.MatchString(id)
}

// Snapshots is the persistent side of a project's document.
type Snapshots interface {
	Latest(ctx context.Context, projectID string) (store.Snapshot, error)
	SaveRaw(ctx context.Context, projectID string, data json.RawMessage) (store.Snapshot, error)
}

// LiveRooms exposes documents currently being edited.
type LiveRooms interface {
	LiveDocument(projectID string) ([]document.Entity, bool)
}

type Service struct {
	snaps Snapshots
	live  LiveRooms
}

// NewService creates a service. Either dependency may be nil: without
// snapshots nothing is persisted, without live rooms only stored documents
// are served.
func NewService(snaps Snapshots, live LiveRooms) *Service {
	return &Service{snaps: snaps, live: live}
}

type Info struct {
	ID       string `json:"id"`
	Snapshot string `json:"snapshotId"`
	Version  int    `json:"version"`
}

// Create starts a project with an empty document.
func (s *Service) Create(ctx context.Context) (*Info, error) {
	if s.snaps == nil {
		return nil, ErrNoStorage
	}
	projectID := typeid.NewProjectID()
	snap, err := s.snaps.SaveRaw(ctx, projectID, json.RawMessage(`[]`))
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}
	return &Info{ID: projectID, Snapshot: snap.ID, Version: snap.Version}, nil
}

// Document returns the current document of projectID, preferring the live
// session over the last stored snapshot.
func (s *Service) Document(ctx context.Context, projectID string) ([]document.Entity, error) {
	if !ValidID(projectID) {
		return nil, ErrInvalidProjectID
	}
	if s.live != nil {
		if doc, ok := s.live.LiveDocument(projectID); ok {
			return doc, nil
		}
	}
	if s.snaps == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, store.ErrNotFound)
	}
	snap, err := s.snaps.Latest(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return document.Decode(snap.Document)
}

// Replace stores entities as the new document of projectID. A project with
// a live session must be edited through it.
func (s *Service) Replace(ctx context.Context, projectID string, entities []document.Entity) (*Info, error) {
	if !ValidID(projectID) {
		return nil, ErrInvalidProjectID
	}
	if s.live != nil {
		if _, ok := s.live.LiveDocument(projectID); ok {
			return nil, ErrProjectOpen
		}
	}
	if s.snaps == nil {
		return nil, ErrNoStorage
	}
	data, err := document.Encode(entities)
	if err != nil {
		return nil, err
	}
	snap, err := s.snaps.SaveRaw(ctx, projectID, data)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return &Info{ID: projectID, Snapshot: snap.ID, Version: snap.Version}, nil
}

// Import converts an SVG document into entities on the editor canvas.
func (s *Service) Import(r io.Reader) ([]document.Entity, error) {
	return pathdata.ImportSVG(r)
}
