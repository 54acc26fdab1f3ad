package engine

import (
	"math"
	"sort"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// KeyframeEpsilon is the time window (ms) inside which two keyframes are
// considered the same; inserting inside it overwrites the existing one.
const KeyframeEpsilon = 1.0

// ApplyEasing maps linear progress t in [0,1] through the easing curve.
// Unknown easings fall back to linear.
func ApplyEasing(t float64, easing document.EasingType) float64 {
	t = math.Max(0, math.Min(1, t))
	switch easing {
	case document.EasingEaseIn:
		return t * t
	case document.EasingEaseOut:
		return t * (2 - t)
	case document.EasingEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case document.EasingCubicIn:
		return t * t * t
	case document.EasingCubicOut:
		u := t - 1
		return u*u*u + 1
	case document.EasingCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		u := 2*t - 2
		return 0.5*u*u*u + 1
	default:
		return t
	}
}

// Interpolate evaluates a sorted keyframe track at time t (ms).
// Before the first keyframe it holds the first transform, after the last it
// holds the last one. In between, the easing of the earlier keyframe shapes
// the blend. ok is false for an empty track.
func Interpolate(track []document.Keyframe, t float64) (document.Transform, bool) {
	if len(track) == 0 {
		return document.Transform{}, false
	}
	first, last := track[0], track[len(track)-1]
	if t <= first.Time {
		return first.Transform.Clone(), true
	}
	if t >= last.Time {
		return last.Transform.Clone(), true
	}

	// First keyframe strictly after t; i >= 1 because t > first.Time.
	i := sort.Search(len(track), func(i int) bool { return track[i].Time > t })
	k1, k2 := track[i-1], track[i]
	span := k2.Time - k1.Time
	if span <= 0 {
		return k2.Transform.Clone(), true
	}
	u := ApplyEasing((t-k1.Time)/span, k1.Easing)
	return lerpTransform(k1.Transform, k2.Transform, u), true
}

func lerp(a, b, u float64) float64 {
	return a + (b-a)*u
}

// lerpTransform blends every field. Rotation blends linearly in degrees.
// Per-axis scale is produced when either side has it.
func lerpTransform(a, b document.Transform, u float64) document.Transform {
	out := document.Transform{
		X:        lerp(a.X, b.X, u),
		Y:        lerp(a.Y, b.Y, u),
		Rotation: lerp(a.Rotation, b.Rotation, u),
		Scale:    lerp(a.Scale, b.Scale, u),
		PX:       lerp(a.PX, b.PX, u),
		PY:       lerp(a.PY, b.PY, u),
	}
	if a.HasAxisScale() || b.HasAxisScale() {
		out.SetAxisScale(lerp(rawScaleX(a), rawScaleX(b), u), lerp(rawScaleY(a), rawScaleY(b), u))
	}
	return out
}

func rawScaleX(t document.Transform) float64 {
	if t.ScaleX != nil {
		return *t.ScaleX
	}
	return t.Scale
}

func rawScaleY(t document.Transform) float64 {
	if t.ScaleY != nil {
		return *t.ScaleY
	}
	return t.Scale
}

// UpsertKeyframe returns a copy of track with kf inserted in time order.
// A keyframe within KeyframeEpsilon of kf is overwritten but keeps its id.
// A kf without an id gets a fresh one.
func UpsertKeyframe(track []document.Keyframe, kf document.Keyframe) []document.Keyframe {
	kf.Transform = kf.Transform.Clone()
	if kf.Easing == "" {
		kf.Easing = document.EasingLinear
	}
	out := make([]document.Keyframe, 0, len(track)+1)
	replaced := false
	for _, existing := range track {
		if !replaced && math.Abs(existing.Time-kf.Time) < KeyframeEpsilon {
			kf.ID = existing.ID
			out = append(out, kf)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		if kf.ID == "" {
			kf.ID = typeid.NewKeyframeID()
		}
		out = append(out, kf)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// UpdateKeyframe returns a copy of track with the keyframe id modified by fn,
// re-sorted and re-collapsed so the track stays strictly ordered.
func UpdateKeyframe(track []document.Keyframe, id string, fn func(*document.Keyframe)) ([]document.Keyframe, bool) {
	idx := -1
	for i := range track {
		if track[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return track, false
	}
	updated := track[idx]
	updated.Transform = updated.Transform.Clone()
	fn(&updated)

	rest := make([]document.Keyframe, 0, len(track)-1)
	rest = append(rest, track[:idx]...)
	rest = append(rest, track[idx+1:]...)

	// Re-insert, letting the moved keyframe win any collision.
	out := make([]document.Keyframe, 0, len(track))
	for _, k := range rest {
		if math.Abs(k.Time-updated.Time) < KeyframeEpsilon {
			continue
		}
		out = append(out, k)
	}
	out = append(out, updated)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, true
}

// DeleteKeyframe returns a copy of track without keyframe id.
func DeleteKeyframe(track []document.Keyframe, id string) ([]document.Keyframe, bool) {
	out := make([]document.Keyframe, 0, len(track))
	found := false
	for _, k := range track {
		if k.ID == id {
			found = true
			continue
		}
		out = append(out, k)
	}
	if !found {
		return track, false
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

// NormalizeTrack sorts a track loaded from outside and collapses keyframes
// closer than KeyframeEpsilon, keeping the later entry.
func NormalizeTrack(track []document.Keyframe) []document.Keyframe {
	if len(track) == 0 {
		return nil
	}
	sorted := make([]document.Keyframe, len(track))
	copy(sorted, track)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	out := sorted[:1]
	for _, k := range sorted[1:] {
		if k.Time-out[len(out)-1].Time < KeyframeEpsilon {
			out[len(out)-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}
