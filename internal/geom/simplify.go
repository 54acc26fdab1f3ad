package geom

// SimplifyPath reduces a polyline with the Ramer–Douglas–Peucker algorithm.
// The first and last points are always kept exactly, the output is an
// order-preserving subset of pts and every dropped point lies within
// tolerance of the simplified polyline.
func SimplifyPath(pts []Point, tolerance float64) []Point {
	if len(pts) <= 2 {
		return ClonePoints(pts)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	rdp(pts, 0, len(pts)-1, tolerance, keep)

	out := make([]Point, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// rdp marks the points to keep between first and last (both exclusive).
func rdp(pts []Point, first, last int, tolerance float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxDist := -1.0
	index := first
	for i := first + 1; i < last; i++ {
		d := DistanceToSegment(pts[i], pts[first], pts[last])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist <= tolerance {
		return
	}
	keep[index] = true
	rdp(pts, first, index, tolerance, keep)
	rdp(pts, index, last, tolerance, keep)
}
