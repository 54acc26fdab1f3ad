package document

import (
	"math"

	"github.com/inamate/vecta/backend-go/internal/geom"
)

// MinScale is the smallest scale magnitude a transform resolves to. Scale
// factors are clamped to it before any division so inversion stays finite.
const MinScale = 1e-4

// Transform is a translate / rotate / scale with a pivot offset.
// The pivot (PX, PY) is relative to the bounding-box center of the
// untransformed geometry the transform applies to.
type Transform struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Rotation float64  `json:"rotation"`
	Scale    float64  `json:"scale"`
	ScaleX   *float64 `json:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty"`
	PX       float64  `json:"px"`
	PY       float64  `json:"py"`
}

// IdentityTransform returns a transform that leaves geometry unchanged.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// SX returns the effective horizontal scale, falling back to the uniform
// scale and guarded away from zero.
func (t Transform) SX() float64 {
	if t.ScaleX != nil {
		return guardScale(*t.ScaleX)
	}
	return guardScale(t.Scale)
}

// SY returns the effective vertical scale, falling back to the uniform
// scale and guarded away from zero.
func (t Transform) SY() float64 {
	if t.ScaleY != nil {
		return guardScale(*t.ScaleY)
	}
	return guardScale(t.Scale)
}

// HasAxisScale reports whether the transform carries per-axis scale.
func (t Transform) HasAxisScale() bool {
	return t.ScaleX != nil || t.ScaleY != nil
}

// SetAxisScale stores independent per-axis scale factors.
func (t *Transform) SetAxisScale(sx, sy float64) {
	t.ScaleX = &sx
	t.ScaleY = &sy
}

// IsIdentity reports whether the transform has no visible effect.
func (t Transform) IsIdentity() bool {
	const eps = 1e-12
	return math.Abs(t.X) < eps && math.Abs(t.Y) < eps &&
		math.Abs(t.Rotation) < eps &&
		math.Abs(t.SX()-1) < eps && math.Abs(t.SY()-1) < eps
}

// Pivot returns the absolute pivot for base, the untransformed points.
func (t Transform) Pivot(base []geom.Point) geom.Point {
	c := geom.BoundingBox(base).Center
	return geom.Point{X: c.X + t.PX, Y: c.Y + t.PY}
}

// Clone returns a copy that shares no pointers with t.
func (t Transform) Clone() Transform {
	out := t
	if t.ScaleX != nil {
		v := *t.ScaleX
		out.ScaleX = &v
	}
	if t.ScaleY != nil {
		v := *t.ScaleY
		out.ScaleY = &v
	}
	return out
}

func guardScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	if math.Abs(s) < MinScale {
		if s < 0 {
			return -MinScale
		}
		return MinScale
	}
	return s
}

type EasingType string

const (
	EasingLinear     EasingType = "linear"
	EasingEaseIn     EasingType = "easeIn"
	EasingEaseOut    EasingType = "easeOut"
	EasingEaseInOut  EasingType = "easeInOut"
	EasingCubicIn    EasingType = "cubicIn"
	EasingCubicOut   EasingType = "cubicOut"
	EasingCubicInOut EasingType = "cubicInOut"
)

// Keyframe is a timestamped transform. Easing shapes the outgoing blend
// toward the next keyframe, not the arrival at this one.
type Keyframe struct {
	ID        string     `json:"id"`
	Time      float64    `json:"time"`
	Transform Transform  `json:"transform"`
	Easing    EasingType `json:"easing"`
}

type AnimationType string

const (
	AnimationSpin  AnimationType = "spin"
	AnimationPulse AnimationType = "pulse"
	AnimationSway  AnimationType = "sway"
	AnimationBob   AnimationType = "bob"
)

// Animation is a procedural loop applied on top of the resolved transform.
type Animation struct {
	Type      AnimationType `json:"type"`
	Speed     float64       `json:"speed"`     // cycles per second
	Amplitude float64       `json:"amplitude"` // px for sway/bob, fraction for pulse
	Direction int           `json:"direction"` // +1 or -1
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// DefaultStyle is used for entities created without explicit styling.
func DefaultStyle() Style {
	return Style{Fill: "none", Stroke: "#000000", StrokeWidth: 2, Opacity: 1}
}

// Entity is one drawable layer. A plain entity keeps its geometry in Points.
// A compound entity additionally keeps Segments, whose concatenation equals
// Points, and the Segment* arrays, each as long as Segments.
type Entity struct {
	ID        string       `json:"id"`
	Points    []geom.Point `json:"points"`
	Style     Style        `json:"style"`
	Closed    bool         `json:"closed"`
	Tension   float64      `json:"tension"`
	Animation *Animation   `json:"animation,omitempty"`
	Transform *Transform   `json:"transform,omitempty"`
	Keyframes []Keyframe   `json:"keyframes,omitempty"`

	Segments          [][]geom.Point `json:"segments,omitempty"`
	SegmentStyles     []Style        `json:"segmentStyles,omitempty"`
	SegmentTransforms []*Transform   `json:"segmentTransforms,omitempty"`
	SegmentKeyframes  [][]Keyframe   `json:"segmentKeyframes,omitempty"`
	SegmentClosed     []bool         `json:"segmentClosed,omitempty"`
	SegmentTensions   []float64      `json:"segmentTensions,omitempty"`
	SegmentAnimations []*Animation   `json:"segmentAnimations,omitempty"`

	// GroupCounts records how many consecutive segments came from each merged
	// source, and GroupIDs their ids, so a split can restore them.
	GroupCounts []int    `json:"groupCounts,omitempty"`
	GroupIDs    []string `json:"groupIds,omitempty"`
}

// IsCompound reports whether the entity is made of segments.
func (e *Entity) IsCompound() bool {
	return len(e.Segments) > 0
}

// SegmentCount returns the number of independently styled parts; a plain
// entity counts as one.
func (e *Entity) SegmentCount() int {
	if e.IsCompound() {
		return len(e.Segments)
	}
	return 1
}

// SegmentPoints returns the base points of segment i, or all points for a
// plain entity.
func (e *Entity) SegmentPoints(i int) []geom.Point {
	if !e.IsCompound() {
		return e.Points
	}
	if i < 0 || i >= len(e.Segments) {
		return nil
	}
	return e.Segments[i]
}

// SegmentOffset returns the index in Points of the first point of segment i.
func (e *Entity) SegmentOffset(i int) int {
	off := 0
	for j := 0; j < i && j < len(e.Segments); j++ {
		off += len(e.Segments[j])
	}
	return off
}

// SetPoint moves vertex idx of segment seg, keeping Points and Segments in step.
func (e *Entity) SetPoint(seg, idx int, p geom.Point) bool {
	if !e.IsCompound() {
		if idx < 0 || idx >= len(e.Points) {
			return false
		}
		e.Points[idx] = p
		return true
	}
	if seg < 0 || seg >= len(e.Segments) || idx < 0 || idx >= len(e.Segments[seg]) {
		return false
	}
	e.Segments[seg][idx] = p
	if off := e.SegmentOffset(seg) + idx; off < len(e.Points) {
		e.Points[off] = p
	}
	return true
}

// SyncPoints rebuilds Points from Segments.
func (e *Entity) SyncPoints() {
	if !e.IsCompound() {
		return
	}
	pts := make([]geom.Point, 0, len(e.Points))
	for _, s := range e.Segments {
		pts = append(pts, s...)
	}
	e.Points = pts
}

// SegmentStyle returns the style of segment i, falling back to the entity style.
func (e *Entity) SegmentStyle(i int) Style {
	if e.IsCompound() && i >= 0 && i < len(e.SegmentStyles) {
		return e.SegmentStyles[i]
	}
	return e.Style
}

// SegmentClosedAt returns the closed flag of segment i.
func (e *Entity) SegmentClosedAt(i int) bool {
	if e.IsCompound() && i >= 0 && i < len(e.SegmentClosed) {
		return e.SegmentClosed[i]
	}
	return e.Closed
}

// SegmentTension returns the smoothing tension of segment i.
func (e *Entity) SegmentTension(i int) float64 {
	if e.IsCompound() && i >= 0 && i < len(e.SegmentTensions) {
		return e.SegmentTensions[i]
	}
	return e.Tension
}

// SegmentAnimation returns the procedural animation of segment i, if any.
// Plain entities report their whole-entity animation through Animation instead.
func (e *Entity) SegmentAnimation(i int) *Animation {
	if e.IsCompound() && i >= 0 && i < len(e.SegmentAnimations) {
		return e.SegmentAnimations[i]
	}
	return nil
}

// NormalizeSegments pads or truncates every Segment* array to the segment
// count, defaulting from the entity scalars, and resyncs Points.
func (e *Entity) NormalizeSegments() {
	if !e.IsCompound() {
		return
	}
	n := len(e.Segments)
	for len(e.SegmentStyles) < n {
		e.SegmentStyles = append(e.SegmentStyles, e.Style)
	}
	for len(e.SegmentTransforms) < n {
		e.SegmentTransforms = append(e.SegmentTransforms, nil)
	}
	for len(e.SegmentKeyframes) < n {
		e.SegmentKeyframes = append(e.SegmentKeyframes, nil)
	}
	for len(e.SegmentClosed) < n {
		e.SegmentClosed = append(e.SegmentClosed, e.Closed)
	}
	for len(e.SegmentTensions) < n {
		e.SegmentTensions = append(e.SegmentTensions, e.Tension)
	}
	for len(e.SegmentAnimations) < n {
		e.SegmentAnimations = append(e.SegmentAnimations, nil)
	}
	e.SegmentStyles = e.SegmentStyles[:n]
	e.SegmentTransforms = e.SegmentTransforms[:n]
	e.SegmentKeyframes = e.SegmentKeyframes[:n]
	e.SegmentClosed = e.SegmentClosed[:n]
	e.SegmentTensions = e.SegmentTensions[:n]
	e.SegmentAnimations = e.SegmentAnimations[:n]
	e.SyncPoints()
}

// Focus selects which transform level receives edits and new keyframes.
// Segment -1 is the whole entity.
type Focus struct {
	Segment int `json:"segment"`
}

// WholeEntity is the focus on an entity's own transform.
var WholeEntity = Focus{Segment: -1}

// IsSegment reports whether the focus targets a single segment.
func (f Focus) IsSegment() bool {
	return f.Segment >= 0
}
