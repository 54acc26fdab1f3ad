// Package geom holds the pure 2D primitives shared by the editor, the
// importer and the exporter: points, bounding boxes, affine matrices,
// curve smoothing, simplification and symmetry expansion.
package geom

import "math"

// Point is a plain 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(f float64) Point { return Point{p.X * f, p.Y * f} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Near reports whether p and q are within tol of each other.
func (p Point) Near(q Point, tol float64) bool {
	return p.Dist(q) <= tol
}

// ClonePoints returns a copy of pts; nil stays nil.
func ClonePoints(pts []Point) []Point {
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min    Point `json:"min"`
	Max    Point `json:"max"`
	Center Point `json:"center"`
	Size   Point `json:"size"`
}

// BoundingBox computes the box enclosing pts. An empty set yields the zero box.
func BoundingBox(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	minP, maxP := pts[0], pts[0]
	for _, p := range pts[1:] {
		minP.X = min(minP.X, p.X)
		minP.Y = min(minP.Y, p.Y)
		maxP.X = max(maxP.X, p.X)
		maxP.Y = max(maxP.Y, p.Y)
	}
	return BBox{
		Min:    minP,
		Max:    maxP,
		Center: Point{(minP.X + maxP.X) / 2, (minP.Y + maxP.Y) / 2},
		Size:   Point{maxP.X - minP.X, maxP.Y - minP.Y},
	}
}

// Contains checks if a point is inside the box.
func (b BBox) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Pad grows the box by d on every side.
func (b BBox) Pad(d float64) BBox {
	b.Min = Point{b.Min.X - d, b.Min.Y - d}
	b.Max = Point{b.Max.X + d, b.Max.Y + d}
	b.Size = Point{b.Size.X + 2*d, b.Size.Y + 2*d}
	return b
}

// DistanceToSegment returns the distance from p to the segment a-b.
// A degenerate segment (a == b) yields the distance to a.
func DistanceToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = max(0, min(1, t))
	return p.Dist(Point{a.X + t*dx, a.Y + t*dy})
}

// DistanceToPolyline returns the smallest distance from p to any edge of pts.
// When closed is set the edge from the last point back to the first counts too.
func DistanceToPolyline(p Point, pts []Point, closed bool) float64 {
	switch len(pts) {
	case 0:
		return math.Inf(1)
	case 1:
		return p.Dist(pts[0])
	}
	best := math.Inf(1)
	for i := 0; i+1 < len(pts); i++ {
		best = min(best, DistanceToSegment(p, pts[i], pts[i+1]))
	}
	if closed {
		best = min(best, DistanceToSegment(p, pts[len(pts)-1], pts[0]))
	}
	return best
}

// PointInPolygon reports whether p lies inside the closed polygon pts (even-odd rule).
func PointInPolygon(p Point, pts []Point) bool {
	inside := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
