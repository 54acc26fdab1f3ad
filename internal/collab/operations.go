package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/editor"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidPayload   = errors.New("invalid operation payload")
	ErrNotLiveOwner     = errors.New("live edit is owned by another client")
)

// readOnly lists the operations that never change the stored document.
var readOnly = map[string]bool{
	OpSelectionSet: true,
	OpFocusSet:     true,
	OpLiveBegin:    true,
	OpSymmetrySet:  true,
	OpClockSeek:    true,
}

// DocumentState holds the authoritative editor for a room. Clients share one
// editor: one selection, one clock and one undo history.
type DocumentState struct {
	mu        sync.Mutex
	ed        *editor.Editor
	serverSeq int64
	savedSeq  int64
	dirtySeq  int64
	liveOwner string
}

// NewDocumentState creates a room state holding entities.
func NewDocumentState(entities []document.Entity, opts editor.Options) *DocumentState {
	ed := editor.New(opts)
	ed.Load(entities)
	return &DocumentState{ed: ed}
}

// ApplyResult describes an accepted operation.
type ApplyResult struct {
	Seq int64
	IDs []string
}

// ApplyOperation applies op on behalf of clientID and returns the server
// sequence assigned to it.
func (ds *DocumentState) ApplyOperation(clientID string, op Operation) (ApplyResult, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ids, err := ds.applyLocked(clientID, op)
	// Discrete edits commit an open gesture inside the editor.
	if !ds.ed.InLiveEdit() {
		ds.liveOwner = ""
	}
	if err != nil {
		return ApplyResult{}, fmt.Errorf("apply %s: %w", op.Type, err)
	}

	ds.serverSeq++
	if !readOnly[op.Type] {
		ds.dirtySeq = ds.serverSeq
	}
	return ApplyResult{Seq: ds.serverSeq, IDs: ids}, nil
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

// applyLocked dispatches op to the editor (caller must hold lock)
func (ds *DocumentState) applyLocked(clientID string, op Operation) ([]string, error) {
	switch op.Type {
	case OpEntityCreate:
		p, err := decode[ShapePayload](op.Payload)
		if err != nil {
			return nil, err
		}
		if len(p.Points) == 0 {
			return nil, fmt.Errorf("%w: no points", ErrInvalidPayload)
		}
		return []string{ds.ed.AddShape(p.Points, p.Closed)}, nil

	case OpStrokeFinish:
		p, err := decode[ShapePayload](op.Payload)
		if err != nil {
			return nil, err
		}
		return ds.ed.FinishStroke(p.Points, p.Closed), nil

	case OpEntityDelete:
		p, err := decode[IDsPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		if len(p.IDs) == 0 {
			ds.ed.DeleteSelection()
			return nil, nil
		}
		if ds.ed.DeleteEntities(p.IDs) == 0 {
			return nil, editor.ErrEntityNotFound
		}
		return nil, nil

	case OpEntityStyle:
		p, err := decode[editor.StylePatch](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.SetStyle(p)
		return nil, nil

	case OpEntityAnimation:
		p, err := decode[AnimationPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.SetAnimation(p.Animation)
		return nil, nil

	case OpSelectionSet:
		p, err := decode[IDsPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.Select(p.IDs)
		return nil, nil

	case OpFocusSet:
		p, err := decode[document.Focus](op.Payload)
		if err != nil {
			return nil, err
		}
		return nil, ds.ed.SetFocus(p)

	case OpLiveBegin:
		if err := ds.ed.BeginLive(); err != nil {
			return nil, err
		}
		ds.liveOwner = clientID
		return nil, nil

	case OpLiveMove, OpLiveRotate, OpLiveScale, OpLivePivot, OpLiveVertex:
		if err := ds.checkOwner(clientID); err != nil {
			return nil, err
		}
		return nil, ds.applyLive(op)

	case OpLiveCommit:
		if err := ds.checkOwner(clientID); err != nil {
			return nil, err
		}
		if err := ds.ed.Commit(); err != nil {
			return nil, err
		}
		ds.liveOwner = ""
		return nil, nil

	case OpLiveRevert:
		if err := ds.checkOwner(clientID); err != nil {
			return nil, err
		}
		if err := ds.ed.Revert(); err != nil {
			return nil, err
		}
		ds.liveOwner = ""
		return nil, nil

	case OpKeyframeAdd:
		p, err := decode[KeyframeAddPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		return ds.ed.AddKeyframe(p.Easing)

	case OpKeyframeUpdate:
		p, err := decode[KeyframeRefPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		return nil, ds.ed.UpdateKeyframe(p.EntityID, p.KeyframeID, p.Patch)

	case OpKeyframeDelete:
		p, err := decode[KeyframeRefPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		return nil, ds.ed.DeleteKeyframe(p.EntityID, p.KeyframeID)

	case OpEntitiesMerge:
		if id, ok := ds.ed.Merge(); ok {
			return []string{id}, nil
		}
		return nil, nil

	case OpEntitySplit:
		ids, _ := ds.ed.Split()
		return ids, nil

	case OpHistoryUndo:
		ds.ed.Undo()
		return nil, nil

	case OpHistoryRedo:
		ds.ed.Redo()
		return nil, nil

	case OpSymmetrySet:
		p, err := decode[geom.Symmetry](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.SetSymmetry(p)
		return nil, nil

	case OpTensionSet:
		p, err := decode[TensionPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.SetTension(p.Tension)
		return nil, nil

	case OpClockSeek:
		p, err := decode[SeekPayload](op.Payload)
		if err != nil {
			return nil, err
		}
		ds.ed.Seek(p.Time)
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

func (ds *DocumentState) applyLive(op Operation) error {
	switch op.Type {
	case OpLiveMove, OpLivePivot:
		p, err := decode[DeltaPayload](op.Payload)
		if err != nil {
			return err
		}
		if op.Type == OpLivePivot {
			return ds.ed.DragPivot(p.DX, p.DY)
		}
		return ds.ed.MoveSelection(p.DX, p.DY)
	case OpLiveRotate:
		p, err := decode[RotatePayload](op.Payload)
		if err != nil {
			return err
		}
		return ds.ed.RotateSelection(p.Degrees)
	case OpLiveScale:
		p, err := decode[ScalePayload](op.Payload)
		if err != nil {
			return err
		}
		return ds.ed.ScaleSelection(p.SX, p.SY)
	default:
		p, err := decode[VertexPayload](op.Payload)
		if err != nil {
			return err
		}
		return ds.ed.MoveVertex(p.EntityID, p.Segment, p.Index, p.X, p.Y)
	}
}

func (ds *DocumentState) checkOwner(clientID string) error {
	if ds.ed.InLiveEdit() && ds.liveOwner != clientID {
		return ErrNotLiveOwner
	}
	return nil
}

// ReleaseClient commits the live edit of a departing client. It reports
// whether anything was committed.
func (ds *DocumentState) ReleaseClient(clientID string) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.liveOwner != clientID || !ds.ed.InLiveEdit() {
		return false
	}
	_ = ds.ed.Commit()
	ds.liveOwner = ""
	ds.serverSeq++
	ds.dirtySeq = ds.serverSeq
	return true
}

// Sync returns the state broadcast to every client of the room.
func (ds *DocumentState) Sync() (DocSyncPayload, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := ds.ed.DocumentJSON()
	if err != nil {
		return DocSyncPayload{}, fmt.Errorf("encode document: %w", err)
	}
	return DocSyncPayload{
		ServerSeq: ds.serverSeq,
		Entities:  data,
		Selection: ds.ed.Selection(),
		Focus:     ds.ed.Focus(),
		Time:      ds.ed.Time(),
		Symmetry:  ds.ed.Symmetry(),
		Tension:   ds.ed.Tension(),
		CanUndo:   ds.ed.CanUndo(),
		CanRedo:   ds.ed.CanRedo(),
		LiveOwner: ds.liveOwner,
		Style:     ds.ed.SelectionStyle(),
	}, nil
}

// Seq returns the last assigned server sequence.
func (ds *DocumentState) Seq() int64 {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.serverSeq
}

// Entities returns a copy of the current document.
func (ds *DocumentState) Entities() []document.Entity {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.ed.Entities()
}

// Unsaved returns the current document and its sequence when it changed
// since the last MarkSaved.
func (ds *DocumentState) Unsaved() ([]document.Entity, int64, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.dirtySeq <= ds.savedSeq {
		return nil, 0, false
	}
	return ds.ed.Entities(), ds.serverSeq, true
}

// MarkSaved records that the document as of seq has been persisted.
func (ds *DocumentState) MarkSaved(seq int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.savedSeq = max(ds.savedSeq, seq)
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
