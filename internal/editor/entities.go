package editor

import (
	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// AddEntity appends an entity as one undo step and returns its id. A
// missing id is assigned and segment arrays are normalized.
func (e *Editor) AddEntity(ent document.Entity) string {
	if ent.ID == "" || e.indexOf(ent.ID) >= 0 {
		ent.ID = typeid.NewEntityID()
	}
	ent.NormalizeSegments()
	e.record()
	e.entities = append(e.entities, ent)
	return ent.ID
}

// AddShape appends a shape drawn with the current stroke style, animation
// and tension.
func (e *Editor) AddShape(points []geom.Point, closed bool) string {
	return e.AddEntity(e.newStroke(geom.ClonePoints(points), closed))
}

func (e *Editor) newStroke(pts []geom.Point, closed bool) document.Entity {
	ent := document.NewEntity(pts, e.strokeStyle, closed, e.tension)
	ent.Animation = copyAnimation(e.strokeAnimation)
	return ent
}

// DeleteEntities removes the given entities as one undo step and returns how
// many were removed.
func (e *Editor) DeleteEntities(ids []string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if e.indexOf(id) >= 0 {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	e.record()
	kept := make([]document.Entity, 0, len(e.entities)-len(drop))
	for _, ent := range e.entities {
		if !drop[ent.ID] {
			kept = append(kept, ent)
		}
	}
	e.entities = kept
	e.pruneSelection()
	return len(drop)
}

// DeleteSelection removes the selected entities.
func (e *Editor) DeleteSelection() int {
	return e.DeleteEntities(e.Selection())
}

// FinishStroke turns a freehand stroke into entities: the points are
// simplified, expanded by the active symmetry about the canvas center and
// added as one entity per variant, all in a single undo step. Mirrored
// variants play the stroke animation mirrored. The new entities become the
// selection.
func (e *Editor) FinishStroke(points []geom.Point, closed bool) []string {
	pts := geom.SimplifyPath(points, e.opts.SimplifyTolerance)
	if len(pts) == 0 {
		return nil
	}
	base := e.newStroke(pts, closed)
	variants := geom.ApplySymmetry(pts, e.symmetry, CanvasCenter)

	e.record()
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ent := base
		if v.Mirror != geom.MirrorIdentity {
			ent = engine.MirrorEntity(&base, v.Mirror, CanvasCenter, typeid.NewEntityID())
		}
		e.entities = append(e.entities, ent)
		ids = append(ids, ent.ID)
	}
	e.selection = ids
	e.focus = document.WholeEntity
	return ids
}

// DraftPreview outlines an unfinished stroke as straight segments, one path
// per active symmetry variant, in the order FinishStroke would add them.
func (e *Editor) DraftPreview(points []geom.Point) [][]geom.PathCommand {
	if len(points) == 0 {
		return nil
	}
	variants := geom.ApplySymmetry(points, e.symmetry, CanvasCenter)
	out := make([][]geom.PathCommand, len(variants))
	for i, v := range variants {
		out[i] = geom.Polyline(v.Points)
	}
	return out
}

// Merge combines the selected entities into one compound entity. With fewer
// than two selected it does nothing.
func (e *Editor) Merge() (string, bool) {
	e.resolveLive()
	if len(e.selected()) < 2 {
		e.log.Debug("merge skipped: fewer than two entities selected", "selected", len(e.selection))
		return "", false
	}
	before := e.entities
	out, id, ok := engine.Merge(e.entities, e.selection, e.time)
	if !ok {
		return "", false
	}
	e.history.Record(before)
	e.entities = out
	e.selection = []string{id}
	e.focus = document.WholeEntity
	e.dirty = true
	return id, true
}

// Split breaks every selected compound entity back into its parts. Plain
// entities are left alone; if none is compound it does nothing.
func (e *Editor) Split() ([]string, bool) {
	e.resolveLive()
	var targets []string
	for _, ent := range e.selected() {
		if ent.IsCompound() {
			targets = append(targets, ent.ID)
		}
	}
	if len(targets) == 0 {
		e.log.Debug("split skipped: no compound entity selected")
		return nil, false
	}

	e.history.Record(e.entities)
	var created []string
	for _, id := range targets {
		out, ids, ok := engine.Split(e.entities, id)
		if ok {
			e.entities = out
			created = append(created, ids...)
		}
	}
	e.selection = created
	e.focus = document.WholeEntity
	e.dirty = true
	return created, true
}
