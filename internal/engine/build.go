package engine

import (
	"github.com/inamate/vecta/backend-go/internal/document"
)

// ResolveEffectiveTransform returns the editable transform of the focused
// level of e at time t (ms): the interpolated keyframe track if it has one,
// else the static transform, else identity. Procedural animation is not
// included; it is layered on by ResolveChain for display only.
func ResolveEffectiveTransform(e *document.Entity, t float64, focus document.Focus) document.Transform {
	if focus.IsSegment() {
		if tr, ok := segmentBase(e, focus.Segment, t); ok {
			return tr
		}
		return document.IdentityTransform()
	}
	return entityBase(e, t)
}

func entityBase(e *document.Entity, t float64) document.Transform {
	if tr, ok := Interpolate(e.Keyframes, t); ok {
		return tr
	}
	if e.Transform != nil {
		return e.Transform.Clone()
	}
	return document.IdentityTransform()
}

// segmentBase reports false when segment i has neither keyframes nor a
// static transform.
func segmentBase(e *document.Entity, i int, t float64) (document.Transform, bool) {
	if !e.IsCompound() || i < 0 || i >= len(e.Segments) {
		return document.Transform{}, false
	}
	if i < len(e.SegmentKeyframes) {
		if tr, ok := Interpolate(e.SegmentKeyframes[i], t); ok {
			return tr, true
		}
	}
	if i < len(e.SegmentTransforms) && e.SegmentTransforms[i] != nil {
		return e.SegmentTransforms[i].Clone(), true
	}
	return document.Transform{}, false
}

// ResolveChain resolves the full display transform of segment seg of e at
// time t: the segment level nested inside the entity level, each with its
// procedural animation applied. For a plain entity seg is ignored.
// Rendering, hit testing and export all go through this one function.
func ResolveChain(e *document.Entity, seg int, t float64) Chain {
	ent := entityBase(e, t)
	if e.Animation != nil {
		ent = ApplyAnimation(ent, *e.Animation, t)
	}
	c := Chain{Entity: ent, EntityPivot: ent.Pivot(e.Points)}
	if !e.IsCompound() {
		return c
	}

	base := e.SegmentPoints(seg)
	st, ok := segmentBase(e, seg, t)
	anim := e.SegmentAnimation(seg)
	if !ok && anim == nil {
		return c
	}
	if !ok {
		st = document.IdentityTransform()
	}
	if anim != nil {
		st = ApplyAnimation(st, *anim, t)
	}
	c.Segment = &st
	c.SegmentPivot = st.Pivot(base)
	return c
}

// SetEffectiveTransform stores tr as the focused level's transform. When the
// level has a keyframe track, the transform is captured into the track at
// time t instead, so edits made while scrubbing land on the current slot.
func SetEffectiveTransform(e *document.Entity, focus document.Focus, t float64, tr document.Transform) {
	if focus.IsSegment() {
		i := focus.Segment
		if !e.IsCompound() || i < 0 || i >= len(e.Segments) {
			return
		}
		e.NormalizeSegments()
		if len(e.SegmentKeyframes[i]) > 0 {
			e.SegmentKeyframes[i] = captureAt(e.SegmentKeyframes[i], t, tr)
			return
		}
		c := tr.Clone()
		e.SegmentTransforms[i] = &c
		return
	}
	if len(e.Keyframes) > 0 {
		e.Keyframes = captureAt(e.Keyframes, t, tr)
		return
	}
	c := tr.Clone()
	e.Transform = &c
}

func captureAt(track []document.Keyframe, t float64, tr document.Transform) []document.Keyframe {
	easing := document.EasingLinear
	for _, k := range track {
		if k.Time <= t {
			easing = k.Easing
		}
	}
	return UpsertKeyframe(track, document.Keyframe{Time: t, Transform: tr, Easing: easing})
}

// AddKeyframe captures the focused level's current effective transform as a
// keyframe at time t.
func AddKeyframe(e *document.Entity, focus document.Focus, t float64, easing document.EasingType) (string, bool) {
	kf := document.Keyframe{Time: t, Transform: ResolveEffectiveTransform(e, t, focus), Easing: easing}
	if focus.IsSegment() {
		i := focus.Segment
		if !e.IsCompound() || i < 0 || i >= len(e.Segments) {
			return "", false
		}
		e.NormalizeSegments()
		e.SegmentKeyframes[i] = UpsertKeyframe(e.SegmentKeyframes[i], kf)
		return keyframeAt(e.SegmentKeyframes[i], t), true
	}
	e.Keyframes = UpsertKeyframe(e.Keyframes, kf)
	return keyframeAt(e.Keyframes, t), true
}

func keyframeAt(track []document.Keyframe, t float64) string {
	for _, k := range track {
		if k.Time-t < KeyframeEpsilon && t-k.Time < KeyframeEpsilon {
			return k.ID
		}
	}
	return ""
}
