package engine

import (
	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// Merge combines the entities named by ids into one compound entity placed
// at the z-position of the first of them. Each plain source becomes one
// segment whose transform, keyframes and animation move into the segment
// arrays; the new whole-entity transform and track start empty. A compound
// source contributes its segments, and its own whole-entity level is folded
// into them so nothing moves: segments without a level of their own take
// the source level over, the others have the source transform at time t
// (ms) baked into their points. With fewer than two matching entities Merge
// returns the input unchanged and ok false.
func Merge(entities []document.Entity, ids []string, t float64) (out []document.Entity, mergedID string, ok bool) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var picked []int
	for i := range entities {
		if want[entities[i].ID] {
			picked = append(picked, i)
		}
	}
	if len(picked) < 2 {
		return entities, "", false
	}

	first := &entities[picked[0]]
	merged := document.Entity{
		ID:      typeid.NewEntityID(),
		Style:   first.Style,
		Tension: first.Tension,
	}
	for _, i := range picked {
		appendSource(&merged, &entities[i], t)
	}
	merged.SyncPoints()

	out = make([]document.Entity, 0, len(entities)-len(picked)+1)
	for i := range entities {
		switch {
		case i == picked[0]:
			out = append(out, merged)
		case want[entities[i].ID]:
		default:
			out = append(out, entities[i])
		}
	}
	return out, merged.ID, true
}

func appendSource(dst *document.Entity, src *document.Entity, t float64) {
	if !src.IsCompound() {
		dst.Segments = append(dst.Segments, geom.ClonePoints(src.Points))
		dst.SegmentStyles = append(dst.SegmentStyles, src.Style)
		dst.SegmentTransforms = append(dst.SegmentTransforms, cloneTransform(src.Transform))
		dst.SegmentKeyframes = append(dst.SegmentKeyframes, cloneTrack(src.Keyframes))
		dst.SegmentClosed = append(dst.SegmentClosed, src.Closed)
		dst.SegmentTensions = append(dst.SegmentTensions, src.Tension)
		dst.SegmentAnimations = append(dst.SegmentAnimations, cloneAnimation(src.Animation))
		dst.GroupCounts = append(dst.GroupCounts, 1)
		dst.GroupIDs = append(dst.GroupIDs, src.ID)
		return
	}

	n := len(src.Segments)
	parent := entityLevel(src)
	var bake geom.Matrix2D
	if !parent.empty() {
		c := ResolveChain(src, 0, t)
		bake = Matrix(c.Entity, c.EntityPivot)
	}
	for i := 0; i < n; i++ {
		pts := geom.ClonePoints(src.Segments[i])
		var tr *document.Transform
		if i < len(src.SegmentTransforms) {
			tr = cloneTransform(src.SegmentTransforms[i])
		}
		var track []document.Keyframe
		if i < len(src.SegmentKeyframes) {
			track = cloneTrack(src.SegmentKeyframes[i])
		}
		anim := cloneAnimation(src.SegmentAnimation(i))

		switch {
		case parent.empty():
		case tr == nil && len(track) == 0 && anim == nil:
			own := parent.rebased(src.Points, pts)
			tr, track, anim = own.transform, own.track, own.animation
		default:
			baked := bake.ApplyAll(pts)
			if tr == nil {
				// Pins the segment pivot where it was before baking.
				id := document.IdentityTransform()
				tr = &id
			}
			c := conjugate(*tr, pts, baked, bake)
			tr = &c
			for k := range track {
				track[k].Transform = conjugate(track[k].Transform, pts, baked, bake)
			}
			pts = baked
		}

		dst.Segments = append(dst.Segments, pts)
		dst.SegmentStyles = append(dst.SegmentStyles, src.SegmentStyle(i))
		dst.SegmentTransforms = append(dst.SegmentTransforms, tr)
		dst.SegmentKeyframes = append(dst.SegmentKeyframes, track)
		dst.SegmentClosed = append(dst.SegmentClosed, src.SegmentClosedAt(i))
		dst.SegmentTensions = append(dst.SegmentTensions, src.SegmentTension(i))
		dst.SegmentAnimations = append(dst.SegmentAnimations, anim)
	}

	if counts, ok := groupCounts(src); ok {
		dst.GroupCounts = append(dst.GroupCounts, counts...)
		for g := range counts {
			id := ""
			if g < len(src.GroupIDs) {
				id = src.GroupIDs[g]
			}
			dst.GroupIDs = append(dst.GroupIDs, id)
		}
		return
	}
	// No usable grouping: the whole source is one group.
	dst.GroupCounts = append(dst.GroupCounts, n)
	dst.GroupIDs = append(dst.GroupIDs, src.ID)
}

// groupCounts returns the stored grouping and true when it is positive and
// covers every segment exactly, else one group per segment and false.
func groupCounts(e *document.Entity) ([]int, bool) {
	n := len(e.Segments)
	total := 0
	valid := len(e.GroupCounts) > 0
	for _, c := range e.GroupCounts {
		if c <= 0 {
			valid = false
			break
		}
		total += c
	}
	if valid && total == n {
		return e.GroupCounts, true
	}
	counts := make([]int, n)
	for i := range counts {
		counts[i] = 1
	}
	return counts, false
}

// Split breaks a compound entity back into its merged groups, in place of
// the original. A group of one segment collapses into a plain entity with
// scalar fields, and regains its pre-merge id when that id is still free.
// Split of a plain or unknown entity returns the input unchanged and ok false.
func Split(entities []document.Entity, id string) (out []document.Entity, newIDs []string, ok bool) {
	idx := -1
	for i := range entities {
		if entities[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || !entities[idx].IsCompound() {
		return entities, nil, false
	}
	normalized := entities[idx]
	normalized.NormalizeSegments()
	src := &normalized

	taken := make(map[string]bool, len(entities))
	for i := range entities {
		if i != idx {
			taken[entities[i].ID] = true
		}
	}

	counts, restoreIDs := groupCounts(src)
	parts := make([]document.Entity, 0, len(counts))
	off := 0
	for g, c := range counts {
		gid := ""
		if restoreIDs && g < len(src.GroupIDs) {
			gid = src.GroupIDs[g]
		}
		if gid == "" || taken[gid] {
			gid = typeid.NewEntityID()
		}
		taken[gid] = true
		parts = append(parts, slice(src, off, off+c, gid))
		off += c
	}

	out = make([]document.Entity, 0, len(entities)+len(parts)-1)
	out = append(out, entities[:idx]...)
	out = append(out, parts...)
	out = append(out, entities[idx+1:]...)
	newIDs = make([]string, len(parts))
	for i := range parts {
		newIDs[i] = parts[i].ID
	}
	return out, newIDs, true
}

// slice extracts segments [from, to) of a normalized compound entity. The
// whole-entity level of src is carried over to the part with its pivot kept
// in place, so the part renders where it did inside src.
func slice(src *document.Entity, from, to int, id string) document.Entity {
	parent := entityLevel(src)
	if to-from == 1 {
		segEmpty := src.SegmentTransforms[from] == nil && len(src.SegmentKeyframes[from]) == 0 && src.SegmentAnimations[from] == nil
		if parent.empty() || segEmpty {
			e := document.Entity{
				ID:        id,
				Points:    geom.ClonePoints(src.Segments[from]),
				Style:     src.SegmentStyles[from],
				Closed:    src.SegmentClosed[from],
				Tension:   src.SegmentTensions[from],
				Animation: cloneAnimation(src.SegmentAnimations[from]),
				Transform: cloneTransform(src.SegmentTransforms[from]),
				Keyframes: cloneTrack(src.SegmentKeyframes[from]),
			}
			if !parent.empty() {
				parent.rebased(src.Points, e.Points).applyTo(&e)
			}
			return e
		}
		// Both levels are in use: keep a one-segment compound so neither is lost.
	}
	e := document.Entity{
		ID:      id,
		Style:   src.SegmentStyles[from],
		Closed:  src.SegmentClosed[from],
		Tension: src.SegmentTensions[from],
	}
	for i := from; i < to; i++ {
		e.Segments = append(e.Segments, geom.ClonePoints(src.Segments[i]))
		e.SegmentStyles = append(e.SegmentStyles, src.SegmentStyles[i])
		e.SegmentTransforms = append(e.SegmentTransforms, cloneTransform(src.SegmentTransforms[i]))
		e.SegmentKeyframes = append(e.SegmentKeyframes, cloneTrack(src.SegmentKeyframes[i]))
		e.SegmentClosed = append(e.SegmentClosed, src.SegmentClosed[i])
		e.SegmentTensions = append(e.SegmentTensions, src.SegmentTensions[i])
		e.SegmentAnimations = append(e.SegmentAnimations, cloneAnimation(src.SegmentAnimations[i]))
	}
	e.SyncPoints()
	if !parent.empty() {
		parent.rebased(src.Points, e.Points).applyTo(&e)
	}
	return e
}

// level is one transform level of an entity: static transform, keyframe
// track and procedural animation.
type level struct {
	transform *document.Transform
	track     []document.Keyframe
	animation *document.Animation
}

func entityLevel(e *document.Entity) level {
	return level{
		transform: cloneTransform(e.Transform),
		track:     cloneTrack(e.Keyframes),
		animation: cloneAnimation(e.Animation),
	}
}

func (l level) empty() bool {
	return l.transform == nil && len(l.track) == 0 && l.animation == nil
}

// rebased moves the level from geometry from onto geometry to. Pivots are
// measured from the base bounding-box center, so every pivot offset shifts
// by the difference of the two centers and the matrices stay identical.
func (l level) rebased(from, to []geom.Point) level {
	d := geom.BoundingBox(from).Center.Sub(geom.BoundingBox(to).Center)
	out := level{
		transform: cloneTransform(l.transform),
		track:     cloneTrack(l.track),
		animation: cloneAnimation(l.animation),
	}
	if out.transform != nil {
		out.transform.PX += d.X
		out.transform.PY += d.Y
	}
	for i := range out.track {
		out.track[i].Transform.PX += d.X
		out.track[i].Transform.PY += d.Y
	}
	return out
}

func (l level) applyTo(e *document.Entity) {
	e.Transform, e.Keyframes, e.Animation = l.transform, l.track, l.animation
}

// conjugate re-expresses t, defined on base, for the same geometry after it
// was baked through m, so that t' applied to m(base) equals m∘t applied to
// base. It is exact when m is a similarity and t scales uniformly.
func conjugate(t document.Transform, base, baked []geom.Point, m geom.Matrix2D) document.Transform {
	pivot := m.Apply(t.Pivot(base))
	center := geom.BoundingBox(baked).Center
	out := t.Clone()
	v := m.ApplyVector(geom.Point{X: t.X, Y: t.Y})
	out.X, out.Y = v.X, v.Y
	if m.Determinant() < 0 {
		out.Rotation = -out.Rotation
	}
	out.PX = pivot.X - center.X
	out.PY = pivot.Y - center.Y
	return out
}

func cloneTransform(t *document.Transform) *document.Transform {
	if t == nil {
		return nil
	}
	c := t.Clone()
	return &c
}

func cloneAnimation(a *document.Animation) *document.Animation {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneTrack(track []document.Keyframe) []document.Keyframe {
	if track == nil {
		return nil
	}
	out := make([]document.Keyframe, len(track))
	for i, k := range track {
		out[i] = k
		out[i].Transform = k.Transform.Clone()
	}
	return out
}
