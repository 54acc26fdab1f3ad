package geom

// Tension bounds accepted by SmoothPath.
const (
	MinTension = 0.0
	MaxTension = 1.5
)

// ClampTension restricts k to [MinTension, MaxTension].
func ClampTension(k float64) float64 {
	return max(MinTension, min(MaxTension, k))
}

// SmoothPath converts pts into a Catmull-Rom style cubic bezier chain.
// Control points for the pair (p1, p2) are p1 + (p2-p0)·k/6 and
// p2 - (p3-p1)·k/6, where p0 and p3 are the neighbours (wrapping when
// closed, clamped at the ends otherwise). A tension of 0 yields straight joins.
//
// The live editor and the exporter both call this with the same tension and
// closed flag so the canvas and the exported file agree.
func SmoothPath(pts []Point, tension float64, closed bool) []PathCommand {
	n := len(pts)
	switch {
	case n == 0:
		return nil
	case n == 1:
		return []PathCommand{{Op: OpMove, Pts: []Point{pts[0]}}}
	case n == 2 && !closed:
		return []PathCommand{
			{Op: OpMove, Pts: []Point{pts[0]}},
			{Op: OpLine, Pts: []Point{pts[1]}},
		}
	}

	f := ClampTension(tension) / 6
	at := func(i int) Point {
		if closed {
			return pts[((i%n)+n)%n]
		}
		return pts[max(0, min(n-1, i))]
	}

	segments := n - 1
	if closed {
		segments = n
	}

	cmds := make([]PathCommand, 0, segments+2)
	cmds = append(cmds, PathCommand{Op: OpMove, Pts: []Point{pts[0]}})
	for i := 0; i < segments; i++ {
		p0, p1, p2, p3 := at(i-1), at(i), at(i+1), at(i+2)
		c1 := p1.Add(p2.Sub(p0).Mul(f))
		c2 := p2.Sub(p3.Sub(p1).Mul(f))
		cmds = append(cmds, PathCommand{Op: OpCubic, Pts: []Point{c1, c2, p2}})
	}
	if closed {
		cmds = append(cmds, PathCommand{Op: OpClose})
	}
	return cmds
}
