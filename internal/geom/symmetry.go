package geom

// Mirror identifies a symmetry variant.
type Mirror string

const (
	MirrorIdentity   Mirror = "identity"
	MirrorHorizontal Mirror = "horizontal"
	MirrorVertical   Mirror = "vertical"
	MirrorCenter     Mirror = "center"
)

// Symmetry holds the user-facing symmetry toggles.
type Symmetry struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
	Center     bool `json:"center"`
}

// Active derives the effective axes. Mirroring on both axes is point
// symmetry, so any two active toggles imply the third.
func (s Symmetry) Active() Symmetry {
	return Symmetry{
		Horizontal: s.Horizontal || (s.Vertical && s.Center),
		Vertical:   s.Vertical || (s.Horizontal && s.Center),
		Center:     s.Center || (s.Horizontal && s.Vertical),
	}
}

// Variant is one mirrored copy of the input points.
type Variant struct {
	Mirror Mirror  `json:"mirror"`
	Points []Point `json:"points"`
}

// MirrorPoint reflects p about center for the given variant.
func MirrorPoint(p Point, m Mirror, center Point) Point {
	switch m {
	case MirrorHorizontal:
		return Point{2*center.X - p.X, p.Y}
	case MirrorVertical:
		return Point{p.X, 2*center.Y - p.Y}
	case MirrorCenter:
		return Point{2*center.X - p.X, 2*center.Y - p.Y}
	default:
		return p
	}
}

// MirrorPoints reflects every point, keeping order and length so that
// index-based data (segment grouping, per-segment styles) stays aligned.
func MirrorPoints(pts []Point, m Mirror, center Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = MirrorPoint(p, m, center)
	}
	return out
}

// ApplySymmetry expands pts into the identity variant followed by one
// variant per active axis, in horizontal, vertical, center order.
func ApplySymmetry(pts []Point, s Symmetry, center Point) []Variant {
	variants := []Variant{{Mirror: MirrorIdentity, Points: ClonePoints(pts)}}
	active := s.Active()
	if active.Horizontal {
		variants = append(variants, Variant{Mirror: MirrorHorizontal, Points: MirrorPoints(pts, MirrorHorizontal, center)})
	}
	if active.Vertical {
		variants = append(variants, Variant{Mirror: MirrorVertical, Points: MirrorPoints(pts, MirrorVertical, center)})
	}
	if active.Center {
		variants = append(variants, Variant{Mirror: MirrorCenter, Points: MirrorPoints(pts, MirrorCenter, center)})
	}
	return variants
}
