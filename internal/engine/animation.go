package engine

import (
	"math"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// ApplyAnimation layers a procedural loop on top of base at time t (ms).
func ApplyAnimation(base document.Transform, a document.Animation, t float64) document.Transform {
	out := base.Clone()
	dir := float64(a.Direction)
	if dir == 0 {
		dir = 1
	}
	cycles := a.Speed * t / 1000
	wave := math.Sin(cycles * 2 * math.Pi)

	switch a.Type {
	case document.AnimationSpin:
		out.Rotation += dir * 360 * cycles
	case document.AnimationPulse:
		f := 1 + a.Amplitude*wave
		out.Scale *= f
		if out.HasAxisScale() {
			out.SetAxisScale(rawScaleX(out)*f, rawScaleY(out)*f)
		}
	case document.AnimationSway:
		out.X += dir * a.Amplitude * wave
	case document.AnimationBob:
		out.Y += dir * a.Amplitude * wave
	}
	return out
}

// animationFlips reports whether mirroring reverses the visible direction of
// an animation. Reflections reverse rotation, point symmetry does not;
// lateral motion flips with its own axis and under point symmetry.
func animationFlips(kind document.AnimationType, m geom.Mirror) bool {
	switch kind {
	case document.AnimationSpin:
		return m == geom.MirrorHorizontal || m == geom.MirrorVertical
	case document.AnimationSway:
		return m == geom.MirrorHorizontal || m == geom.MirrorCenter
	case document.AnimationBob:
		return m == geom.MirrorVertical || m == geom.MirrorCenter
	default:
		return false
	}
}

// MirrorAnimation returns a copy of a as it should play on a mirrored copy.
func MirrorAnimation(a *document.Animation, m geom.Mirror) *document.Animation {
	if a == nil {
		return nil
	}
	out := *a
	if out.Direction == 0 {
		out.Direction = 1
	}
	if animationFlips(a.Type, m) {
		out.Direction = -out.Direction
	}
	return &out
}

// MirrorTransform reflects a transform's translation, rotation and pivot
// offset so a mirrored copy moves as the reflection of the original.
func MirrorTransform(t document.Transform, m geom.Mirror) document.Transform {
	out := t.Clone()
	switch m {
	case geom.MirrorHorizontal:
		out.X, out.PX = -out.X, -out.PX
		out.Rotation = -out.Rotation
	case geom.MirrorVertical:
		out.Y, out.PY = -out.Y, -out.PY
		out.Rotation = -out.Rotation
	case geom.MirrorCenter:
		out.X, out.PX = -out.X, -out.PX
		out.Y, out.PY = -out.Y, -out.PY
	}
	return out
}

func mirrorTrack(track []document.Keyframe, m geom.Mirror) []document.Keyframe {
	if len(track) == 0 {
		return nil
	}
	out := make([]document.Keyframe, len(track))
	for i, k := range track {
		out[i] = k
		out[i].ID = ""
		out[i].Transform = MirrorTransform(k.Transform, m)
	}
	return out
}

// MirrorEntity returns a reflected copy of e about center with a fresh id.
// Geometry, transforms, keyframes and procedural animations are all mirrored.
func MirrorEntity(e *document.Entity, m geom.Mirror, center geom.Point, newID string) document.Entity {
	out := document.Entity{
		ID:        newID,
		Points:    geom.MirrorPoints(e.Points, m, center),
		Style:     e.Style,
		Closed:    e.Closed,
		Tension:   e.Tension,
		Animation: MirrorAnimation(e.Animation, m),
	}
	if e.Transform != nil {
		t := MirrorTransform(*e.Transform, m)
		out.Transform = &t
	}
	out.Keyframes = assignIDs(mirrorTrack(e.Keyframes, m))

	if e.IsCompound() {
		n := len(e.Segments)
		out.Segments = make([][]geom.Point, n)
		out.SegmentTransforms = make([]*document.Transform, n)
		out.SegmentKeyframes = make([][]document.Keyframe, n)
		out.SegmentAnimations = make([]*document.Animation, n)
		for i := range e.Segments {
			out.Segments[i] = geom.MirrorPoints(e.Segments[i], m, center)
			if i < len(e.SegmentTransforms) && e.SegmentTransforms[i] != nil {
				t := MirrorTransform(*e.SegmentTransforms[i], m)
				out.SegmentTransforms[i] = &t
			}
			if i < len(e.SegmentKeyframes) {
				out.SegmentKeyframes[i] = assignIDs(mirrorTrack(e.SegmentKeyframes[i], m))
			}
			out.SegmentAnimations[i] = MirrorAnimation(e.SegmentAnimation(i), m)
		}
		out.SegmentStyles = append([]document.Style(nil), e.SegmentStyles...)
		out.SegmentClosed = append([]bool(nil), e.SegmentClosed...)
		out.SegmentTensions = append([]float64(nil), e.SegmentTensions...)
		out.GroupCounts = append([]int(nil), e.GroupCounts...)
		out.NormalizeSegments()
	}
	return out
}

func assignIDs(track []document.Keyframe) []document.Keyframe {
	for i := range track {
		track[i].ID = typeid.NewKeyframeID()
	}
	return track
}
