package engine

import (
	"math"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

// Matrix returns the forward matrix of t about pivot:
// translate ∘ rotate(pivot) ∘ scale(pivot).
func Matrix(t document.Transform, pivot geom.Point) geom.Matrix2D {
	return geom.AboutPivot(t.X, t.Y, t.SX(), t.SY(), t.Rotation, pivot)
}

// ForwardPoint maps a local point through t.
func ForwardPoint(t document.Transform, pivot, p geom.Point) geom.Point {
	return Matrix(t, pivot).Apply(p)
}

// InversePoint maps p back into local space by undoing, in order, the
// translation, the rotation about the pivot and the scale about the pivot.
// It is the exact inverse of ForwardPoint.
func InversePoint(t document.Transform, pivot, p geom.Point) geom.Point {
	x := p.X - t.X - pivot.X
	y := p.Y - t.Y - pivot.Y
	sin, cos := math.Sincos(-t.Rotation * math.Pi / 180)
	rx := x*cos - y*sin
	ry := x*sin + y*cos
	return geom.Point{X: pivot.X + rx/t.SX(), Y: pivot.Y + ry/t.SY()}
}

// Chain is the resolved transform stack for one drawable part: the optional
// segment transform nested inside the whole-entity transform.
type Chain struct {
	Entity       document.Transform
	EntityPivot  geom.Point
	Segment      *document.Transform
	SegmentPivot geom.Point
}

// Matrix returns entity ∘ segment.
func (c Chain) Matrix() geom.Matrix2D {
	m := Matrix(c.Entity, c.EntityPivot)
	if c.Segment != nil {
		m = m.Multiply(Matrix(*c.Segment, c.SegmentPivot))
	}
	return m
}

// Forward maps a base point to rendered coordinates.
func (c Chain) Forward(p geom.Point) geom.Point {
	if c.Segment != nil {
		p = ForwardPoint(*c.Segment, c.SegmentPivot, p)
	}
	return ForwardPoint(c.Entity, c.EntityPivot, p)
}

// Inverse maps a rendered point back to base coordinates, undoing the
// entity transform first and the segment transform second.
func (c Chain) Inverse(p geom.Point) geom.Point {
	p = InversePoint(c.Entity, c.EntityPivot, p)
	if c.Segment != nil {
		p = InversePoint(*c.Segment, c.SegmentPivot, p)
	}
	return p
}

// MinScale returns the smallest absolute composed scale factor, used to
// convert screen tolerances into local ones.
func (c Chain) MinScale() float64 {
	sx, sy := math.Abs(c.Entity.SX()), math.Abs(c.Entity.SY())
	if c.Segment != nil {
		sx *= math.Abs(c.Segment.SX())
		sy *= math.Abs(c.Segment.SY())
	}
	return max(min(sx, sy), document.MinScale)
}

// DragPivot accumulates a screen-space drag (dx, dy) into the pivot offset
// of t. The delta is rotated by -rotation and divided by the scale so the
// pivot handle follows the cursor under any orientation or scale.
func DragPivot(t document.Transform, dx, dy float64) document.Transform {
	sin, cos := math.Sincos(-t.Rotation * math.Pi / 180)
	lx := dx*cos - dy*sin
	ly := dx*sin + dy*cos
	out := t.Clone()
	out.PX += lx / t.SX()
	out.PY += ly / t.SY()
	return out
}
