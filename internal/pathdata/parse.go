// Package pathdata turns SVG markup into editor geometry: path-data strings
// are flattened into point sequences and whole documents into entities laid
// out in the canonical 800x600 frame.
package pathdata

import (
	"math"

	"github.com/tdewolff/parse/v2/strconv"

	"github.com/inamate/vecta/backend-go/internal/geom"
)

const (
	cubicSteps = 8  // 7 interior samples plus the endpoint
	quadSteps  = 6  // 5 interior samples plus the endpoint
	arcSteps   = 13 // 12 interior samples plus the endpoint

	// closeTolerance is how near the last point must be to the first for
	// Z to treat it as a duplicate of the start.
	closeTolerance = 0.1
)

// Subpath is one flattened subpath.
type Subpath struct {
	Points []geom.Point
	Closed bool
}

var cmdLens = map[byte]int{
	'M': 2,
	'Z': 0,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
}

// ParsePoints flattens d into one point sequence per subpath.
func ParsePoints(d string) [][]geom.Point {
	subs := ParsePathData(d)
	out := make([][]geom.Point, len(subs))
	for i, s := range subs {
		out[i] = s.Points
	}
	return out
}

// ParsePathData flattens an SVG path-data string. It never fails: unknown
// commands and stray characters are skipped, an incomplete argument set is
// dropped, and subpaths without points are omitted.
func ParsePathData(d string) []Subpath {
	path := []byte(d)
	var b builder
	var f [7]float64
	var cur, start, lastCubic, lastQuad geom.Point
	cmd := byte(0)
	prevCmd := byte(0)

	i := 0
	for {
		i += skipCommaWhitespace(path[i:])
		if i >= len(path) {
			break
		}

		c := path[i]
		switch {
		case isLetter(c):
			i++
			if _, ok := cmdLens[upper(c)]; !ok {
				// Unknown command: ignore it and any arguments that follow.
				cmd = 0
				continue
			}
			cmd = c
		case isNumberStart(c):
			if cmd == 0 || upper(cmd) == 'Z' {
				// Numbers with nothing to apply them to.
				if _, n := strconv.ParseFloat(path[i:]); n > 0 {
					i += n
				} else {
					i++
				}
				continue
			}
		default:
			i++
			continue
		}

		CMD := upper(cmd)
		argStart := i
		complete := true
		for j := 0; j < cmdLens[CMD]; j++ {
			i += skipCommaWhitespace(path[i:])
			if CMD == 'A' && (j == 3 || j == 4) {
				if i < len(path) && (path[i] == '0' || path[i] == '1') {
					f[j] = float64(path[i] - '0')
					i++
					continue
				}
				complete = false
				break
			}
			num, n := strconv.ParseFloat(path[i:])
			if n == 0 {
				complete = false
				break
			}
			f[j] = num
			i += n
		}
		if !complete {
			if i == argStart && i < len(path) && !isLetter(path[i]) {
				i++
			}
			continue
		}

		rel := cmd != CMD
		abs := func(x, y float64) geom.Point {
			if rel {
				return geom.Point{X: cur.X + x, Y: cur.Y + y}
			}
			return geom.Point{X: x, Y: y}
		}

		switch CMD {
		case 'M':
			cur = abs(f[0], f[1])
			start = cur
			b.moveTo(cur)
			// Coordinates following a move are implicit line-tos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'Z':
			b.close()
			cur = start
		case 'L':
			p := abs(f[0], f[1])
			b.lineTo(cur, p)
			cur = p
		case 'H':
			p := geom.Point{X: f[0], Y: cur.Y}
			if rel {
				p.X += cur.X
			}
			b.lineTo(cur, p)
			cur = p
		case 'V':
			p := geom.Point{X: cur.X, Y: f[0]}
			if rel {
				p.Y += cur.Y
			}
			b.lineTo(cur, p)
			cur = p
		case 'C':
			c1, c2, p := abs(f[0], f[1]), abs(f[2], f[3]), abs(f[4], f[5])
			b.cubic(cur, c1, c2, p)
			lastCubic, cur = c2, p
		case 'S':
			c1 := cur
			if isCubicFamily(prevCmd) {
				c1 = reflect(cur, lastCubic)
			}
			c2, p := abs(f[0], f[1]), abs(f[2], f[3])
			b.cubic(cur, c1, c2, p)
			lastCubic, cur = c2, p
		case 'Q':
			q, p := abs(f[0], f[1]), abs(f[2], f[3])
			b.quad(cur, q, p)
			lastQuad, cur = q, p
		case 'T':
			q := cur
			if isQuadFamily(prevCmd) {
				q = reflect(cur, lastQuad)
			}
			p := abs(f[0], f[1])
			b.quad(cur, q, p)
			lastQuad, cur = q, p
		case 'A':
			p := abs(f[5], f[6])
			b.arc(cur, f[0], f[1], f[2], f[3] == 1, f[4] == 1, p)
			cur = p
		}
		prevCmd = CMD
	}
	b.flush(false)
	return b.out
}

// builder accumulates flattened points for the current subpath.
type builder struct {
	out []Subpath
	pts []geom.Point
}

func (b *builder) moveTo(p geom.Point) {
	b.flush(false)
	b.pts = []geom.Point{p}
}

// begin opens an implicit subpath at the current point when a drawing
// command arrives without a preceding move.
func (b *builder) begin(cur geom.Point) {
	if len(b.pts) == 0 {
		b.pts = append(b.pts, cur)
	}
}

func (b *builder) lineTo(cur, p geom.Point) {
	b.begin(cur)
	b.pts = append(b.pts, p)
}

func (b *builder) cubic(p0, p1, p2, p3 geom.Point) {
	b.begin(p0)
	for i := 1; i < cubicSteps; i++ {
		b.pts = append(b.pts, cubicAt(p0, p1, p2, p3, float64(i)/cubicSteps))
	}
	b.pts = append(b.pts, p3)
}

func (b *builder) quad(p0, p1, p2 geom.Point) {
	b.begin(p0)
	for i := 1; i < quadSteps; i++ {
		b.pts = append(b.pts, quadAt(p0, p1, p2, float64(i)/quadSteps))
	}
	b.pts = append(b.pts, p2)
}

func (b *builder) arc(p0 geom.Point, rx, ry, rotDeg float64, large, sweep bool, p geom.Point) {
	if p0 == p {
		return
	}
	if rx == 0 || ry == 0 {
		b.lineTo(p0, p)
		return
	}
	b.begin(p0)
	b.pts = append(b.pts, flattenArc(p0, rx, ry, rotDeg, large, sweep, p)...)
}

func (b *builder) close() {
	if n := len(b.pts); n > 1 && b.pts[n-1].Near(b.pts[0], closeTolerance) {
		b.pts = b.pts[:n-1]
	}
	b.flush(true)
}

func (b *builder) flush(closed bool) {
	if len(b.pts) > 0 {
		b.out = append(b.out, Subpath{Points: b.pts, Closed: closed})
	}
	b.pts = nil
}

func cubicAt(p0, p1, p2, p3 geom.Point, t float64) geom.Point {
	u := 1 - t
	a, bb, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return geom.Point{
		X: a*p0.X + bb*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + bb*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func quadAt(p0, p1, p2 geom.Point, t float64) geom.Point {
	u := 1 - t
	a, bb, c := u*u, 2*u*t, t*t
	return geom.Point{
		X: a*p0.X + bb*p1.X + c*p2.X,
		Y: a*p0.Y + bb*p1.Y + c*p2.Y,
	}
}

// reflect mirrors the previous control point through the current point.
func reflect(cur, ctrl geom.Point) geom.Point {
	return geom.Point{X: 2*cur.X - ctrl.X, Y: 2*cur.Y - ctrl.Y}
}

// flattenArc samples an elliptical arc using the endpoint-to-center
// conversion. The returned points exclude p0 and end exactly at p.
func flattenArc(p0 geom.Point, rx, ry, rotDeg float64, large, sweep bool, p geom.Point) []geom.Point {
	rx, ry = math.Abs(rx), math.Abs(ry)
	sinPhi, cosPhi := math.Sincos(rotDeg * math.Pi / 180)

	dx, dy := (p0.X-p.X)/2, (p0.Y-p.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	// Scale radii up when the endpoints are too far apart.
	if lambda := x1*x1/(rx*rx) + y1*y1/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	rx2, ry2 := rx*rx, ry*ry
	num := rx2*ry2 - rx2*y1*y1 - ry2*x1*x1
	den := rx2*y1*y1 + ry2*x1*x1
	coef := 0.0
	if v := num / den; den > 0 && v > 0 {
		coef = math.Sqrt(v)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1 / ry
	cyp := -coef * ry * x1 / rx

	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p.Y)/2
	if !finite(rx) || !finite(ry) || !finite(cx) || !finite(cy) {
		return []geom.Point{p}
	}

	ux, uy := (x1-cxp)/rx, (y1-cyp)/ry
	vx, vy := (-x1-cxp)/rx, (-y1-cyp)/ry
	theta := signedAngle(1, 0, ux, uy)
	delta := signedAngle(ux, uy, vx, vy)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	out := make([]geom.Point, 0, arcSteps)
	for i := 1; i < arcSteps; i++ {
		sinT, cosT := math.Sincos(theta + delta*float64(i)/arcSteps)
		out = append(out, geom.Point{
			X: cx + rx*cosPhi*cosT - ry*sinPhi*sinT,
			Y: cy + rx*sinPhi*cosT + ry*cosPhi*sinT,
		})
	}
	return append(out, p)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// signedAngle returns the angle from (ux, uy) to (vx, vy) in (-π, π].
func signedAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}

func skipCommaWhitespace(path []byte) int {
	i := 0
	for i < len(path) && (path[i] == ' ' || path[i] == ',' || path[i] == '\n' || path[i] == '\r' || path[i] == '\t') {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isNumberStart(c byte) bool {
	return '0' <= c && c <= '9' || c == '.' || c == '-' || c == '+'
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func isCubicFamily(c byte) bool { return c == 'C' || c == 'S' }
func isQuadFamily(c byte) bool  { return c == 'Q' || c == 'T' }
