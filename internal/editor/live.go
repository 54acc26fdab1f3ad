package editor

import (
	"fmt"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

// BeginLive opens a live edit for a pointer gesture. Until Commit or Revert
// the live operations mutate the document without touching history.
func (e *Editor) BeginLive() error {
	if !e.history.BeginLive(e.entities) {
		return ErrLiveEditActive
	}
	e.liveDirty = false
	return nil
}

// InLiveEdit reports whether a gesture is open.
func (e *Editor) InLiveEdit() bool {
	return e.history.Live()
}

// Commit closes the live edit as exactly one undo step. A gesture that
// changed nothing leaves no step behind.
func (e *Editor) Commit() error {
	if !e.history.Live() {
		return ErrNoLiveEdit
	}
	if !e.liveDirty {
		_, _ = e.history.Revert()
		return nil
	}
	e.history.Commit()
	e.liveDirty = false
	return nil
}

// Revert closes the live edit and restores the pre-gesture state.
func (e *Editor) Revert() error {
	before, ok := e.history.Revert()
	if !ok {
		return ErrNoLiveEdit
	}
	e.liveDirty = false
	e.restore(before)
	return nil
}

// EndGesture resolves a gesture however it ended: pointer release commits,
// an abort reverts. Calling it with no gesture open is harmless.
func (e *Editor) EndGesture(commit bool) {
	if !e.history.Live() {
		return
	}
	if commit {
		_ = e.Commit()
		return
	}
	_ = e.Revert()
}

func (e *Editor) resolveLive() {
	if e.history.Live() {
		_ = e.Commit()
	}
}

// liveTransform applies fn to the effective transform of the focused level
// of every selected entity at the current time.
func (e *Editor) liveTransform(fn func(ent *document.Entity, t document.Transform) document.Transform) error {
	if !e.history.Live() {
		return ErrNoLiveEdit
	}
	sel := e.selected()
	if len(sel) == 0 {
		return ErrEmptySelection
	}
	for _, ent := range sel {
		tr := engine.ResolveEffectiveTransform(ent, e.time, e.focus)
		engine.SetEffectiveTransform(ent, e.focus, e.time, fn(ent, tr))
	}
	e.liveDirty = true
	e.dirty = true
	return nil
}

// localDelta maps a canvas delta into the frame the focused level lives in.
// A segment transform sits inside the whole-entity transform, so the delta
// goes through the inverse of the entity level's linear part.
func (e *Editor) localDelta(ent *document.Entity, dx, dy float64) geom.Point {
	d := geom.Point{X: dx, Y: dy}
	if !e.focus.IsSegment() {
		return d
	}
	c := engine.ResolveChain(ent, e.focus.Segment, e.time)
	return engine.Matrix(c.Entity, c.EntityPivot).Invert().ApplyVector(d)
}

// MoveSelection translates the selection by (dx, dy).
func (e *Editor) MoveSelection(dx, dy float64) error {
	return e.liveTransform(func(ent *document.Entity, t document.Transform) document.Transform {
		d := e.localDelta(ent, dx, dy)
		t.X += d.X
		t.Y += d.Y
		return t
	})
}

// RotateSelection rotates each selected entity about its own pivot.
func (e *Editor) RotateSelection(degrees float64) error {
	return e.liveTransform(func(_ *document.Entity, t document.Transform) document.Transform {
		t.Rotation += degrees
		return t
	})
}

// ScaleSelection multiplies the scale of each selected entity about its own
// pivot. Unequal factors switch the transform to per-axis scale.
func (e *Editor) ScaleSelection(sx, sy float64) error {
	return e.liveTransform(func(_ *document.Entity, t document.Transform) document.Transform {
		if sx == sy && !t.HasAxisScale() {
			t.Scale *= sx
			return t
		}
		t.SetAxisScale(t.SX()*sx, t.SY()*sy)
		return t
	})
}

// DragPivot moves the pivot of the selection by a screen-space delta.
func (e *Editor) DragPivot(dx, dy float64) error {
	return e.liveTransform(func(ent *document.Entity, t document.Transform) document.Transform {
		d := e.localDelta(ent, dx, dy)
		return engine.DragPivot(t, d.X, d.Y)
	})
}

// MoveVertex moves vertex idx of segment seg (-1 for a plain entity) so that
// it is displayed under the canvas point (x, y) at the current time.
func (e *Editor) MoveVertex(id string, seg, idx int, x, y float64) error {
	if !e.history.Live() {
		return ErrNoLiveEdit
	}
	ent, err := e.entity(id)
	if err != nil {
		return err
	}
	local := engine.ResolveChain(ent, seg, e.time).Inverse(geom.Point{X: x, Y: y})
	if !ent.SetPoint(seg, idx, local) {
		return fmt.Errorf("move vertex %d of segment %d: index out of range", idx, seg)
	}
	e.liveDirty = true
	e.dirty = true
	return nil
}
