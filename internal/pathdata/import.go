package pathdata

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

// Canvas dimensions of the canonical frame imported geometry is fitted to.
const (
	CanvasWidth  = 800
	CanvasHeight = 600
)

// element is one shape read from the document, before fitting.
type element struct {
	subpaths []Subpath
	style    document.Style
}

// svgStyle carries presentation attributes down the group stack. Empty
// fields inherit.
type svgStyle struct {
	fill        string
	stroke      string
	strokeWidth string
	opacity     string
}

func (s svgStyle) inherit(parent svgStyle) svgStyle {
	if s.fill == "" {
		s.fill = parent.fill
	}
	if s.stroke == "" {
		s.stroke = parent.stroke
	}
	if s.strokeWidth == "" {
		s.strokeWidth = parent.strokeWidth
	}
	if s.opacity == "" {
		s.opacity = parent.opacity
	}
	return s
}

func (s svgStyle) resolve() document.Style {
	st := document.Style{Fill: "#000000", Stroke: "none", StrokeWidth: 1, Opacity: 1}
	if s.fill != "" {
		st.Fill = s.fill
	}
	if s.stroke != "" {
		st.Stroke = s.stroke
	}
	if v, ok := parseNumber(s.strokeWidth); ok {
		st.StrokeWidth = v
	}
	if v, ok := parseNumber(s.opacity); ok {
		st.Opacity = math.Max(0, math.Min(1, v))
	}
	return st
}

func readStyle(attrs []xml.Attr) (svgStyle, string) {
	var s svgStyle
	var transform string
	for _, a := range attrs {
		switch a.Name.Local {
		case "fill":
			s.fill = strings.TrimSpace(a.Value)
		case "stroke":
			s.stroke = strings.TrimSpace(a.Value)
		case "stroke-width":
			s.strokeWidth = a.Value
		case "opacity":
			s.opacity = a.Value
		case "transform":
			transform = a.Value
		}
	}
	// Declarations in style="" override presentation attributes.
	for _, a := range attrs {
		if a.Name.Local != "style" {
			continue
		}
		for _, decl := range strings.Split(a.Value, ";") {
			kv := strings.SplitN(decl, ":", 2)
			if len(kv) != 2 {
				continue
			}
			val := strings.TrimSpace(kv[1])
			switch strings.TrimSpace(strings.ToLower(kv[0])) {
			case "fill":
				s.fill = val
			case "stroke":
				s.stroke = val
			case "stroke-width":
				s.strokeWidth = val
			case "opacity":
				s.opacity = val
			}
		}
	}
	return s, transform
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ImportSVG reads path, polygon and polyline elements from an SVG document
// and returns one entity per element, fitted into the canonical frame. A
// path with several subpaths becomes one compound entity. Group transforms
// and inherited presentation attributes are honoured. Malformed path data is
// tolerated; only a broken XML stream is an error.
func ImportSVG(r io.Reader) ([]document.Entity, error) {
	dec := xml.NewDecoder(r)

	var (
		elements     []element
		viewBox      []float64
		sizeW, sizeH float64
		rootSeen     bool
	)
	styles := []svgStyle{{}}
	matrices := []geom.Matrix2D{geom.Identity()}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode svg token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			st, tr := readStyle(t.Attr)
			st = st.inherit(styles[len(styles)-1])
			m := matrices[len(matrices)-1].Multiply(parseTransform(tr))

			switch t.Name.Local {
			case "svg":
				if !rootSeen {
					rootSeen = true
					viewBox = parseNumbers(attr(t.Attr, "viewBox"))
					sizeW, _ = parseNumber(attr(t.Attr, "width"))
					sizeH, _ = parseNumber(attr(t.Attr, "height"))
				}
			case "path":
				elements = appendElement(elements, ParsePathData(attr(t.Attr, "d")), st, m)
			case "polygon", "polyline":
				closed := t.Name.Local == "polygon"
				pts := parsePointList(attr(t.Attr, "points"))
				if closed {
					if n := len(pts); n > 1 && pts[n-1].Near(pts[0], closeTolerance) {
						pts = pts[:n-1]
					}
				}
				elements = appendElement(elements, []Subpath{{Points: pts, Closed: closed}}, st, m)
			}
			styles = append(styles, st)
			matrices = append(matrices, m)

		case xml.EndElement:
			if len(styles) > 1 {
				styles = styles[:len(styles)-1]
				matrices = matrices[:len(matrices)-1]
			}
		}
	}

	fit := canonicalFit(elements, viewBox, sizeW, sizeH)
	entities := make([]document.Entity, 0, len(elements))
	for _, el := range elements {
		entities = append(entities, toEntity(el, fit))
	}
	return entities, nil
}

// appendElement keeps subpaths with at least one point, mapped through m.
// A lone point survives as a degenerate entity that renders as a single move.
func appendElement(elements []element, subs []Subpath, st svgStyle, m geom.Matrix2D) []element {
	kept := subs[:0]
	for _, s := range subs {
		if len(s.Points) == 0 {
			continue
		}
		s.Points = m.ApplyAll(s.Points)
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return elements
	}
	return append(elements, element{subpaths: kept, style: st.resolve()})
}

// canonicalFit maps the source box uniformly into the 800x600 frame,
// centred. The source box is the viewBox, else the width/height, else the
// bounds of the content. A viewBox of exactly 0 0 800 600 is left as is.
func canonicalFit(elements []element, viewBox []float64, w, h float64) geom.Matrix2D {
	var minX, minY, bw, bh float64
	switch {
	case len(viewBox) == 4:
		if viewBox[0] == 0 && viewBox[1] == 0 && viewBox[2] == CanvasWidth && viewBox[3] == CanvasHeight {
			return geom.Identity()
		}
		minX, minY, bw, bh = viewBox[0], viewBox[1], viewBox[2], viewBox[3]
	case w > 0 && h > 0:
		bw, bh = w, h
	default:
		var pts []geom.Point
		for _, el := range elements {
			for _, s := range el.subpaths {
				pts = append(pts, s.Points...)
			}
		}
		if len(pts) == 0 {
			return geom.Identity()
		}
		box := geom.BoundingBox(pts)
		minX, minY, bw, bh = box.Min.X, box.Min.Y, box.Size.X, box.Size.Y
	}

	s := 1.0
	switch {
	case bw > 0 && bh > 0:
		s = math.Min(CanvasWidth/bw, CanvasHeight/bh)
	case bw > 0:
		s = CanvasWidth / bw
	case bh > 0:
		s = CanvasHeight / bh
	}
	tx := (CanvasWidth-bw*s)/2 - minX*s
	ty := (CanvasHeight-bh*s)/2 - minY*s
	return geom.Translate(tx, ty).Multiply(geom.Scale(s, s))
}

func toEntity(el element, fit geom.Matrix2D) document.Entity {
	if len(el.subpaths) == 1 {
		s := el.subpaths[0]
		return document.NewEntity(fit.ApplyAll(s.Points), el.style, s.Closed, 0)
	}
	e := document.NewEntity(nil, el.style, el.subpaths[0].Closed, 0)
	for _, s := range el.subpaths {
		e.Segments = append(e.Segments, fit.ApplyAll(s.Points))
		e.SegmentClosed = append(e.SegmentClosed, s.Closed)
	}
	e.NormalizeSegments()
	return e
}

// parseTransform reads an SVG transform list. Unknown functions are ignored.
func parseTransform(s string) geom.Matrix2D {
	m := geom.Identity()
	for {
		s = strings.TrimLeft(s, " ,\t\r\n")
		open := strings.IndexByte(s, '(')
		end := strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return m
		}
		name := strings.TrimSpace(s[:open])
		args := parseNumbers(s[open+1 : end])
		s = s[end+1:]

		switch {
		case name == "matrix" && len(args) == 6:
			m = m.Multiply(geom.Matrix2D{args[0], args[1], args[2], args[3], args[4], args[5]})
		case name == "translate" && len(args) == 1:
			m = m.Multiply(geom.Translate(args[0], 0))
		case name == "translate" && len(args) == 2:
			m = m.Multiply(geom.Translate(args[0], args[1]))
		case name == "scale" && len(args) == 1:
			m = m.Multiply(geom.Scale(args[0], args[0]))
		case name == "scale" && len(args) == 2:
			m = m.Multiply(geom.Scale(args[0], args[1]))
		case name == "rotate" && len(args) == 1:
			m = m.Multiply(geom.RotateDegrees(args[0]))
		case name == "rotate" && len(args) == 3:
			m = m.Multiply(geom.Translate(args[1], args[2])).
				Multiply(geom.RotateDegrees(args[0])).
				Multiply(geom.Translate(-args[1], -args[2]))
		}
	}
}

// parseNumbers scans every number in s, skipping separators and junk.
func parseNumbers(s string) []float64 {
	b := []byte(s)
	var out []float64
	for i := 0; i < len(b); {
		i += skipCommaWhitespace(b[i:])
		if i >= len(b) {
			break
		}
		v, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			i++
			continue
		}
		out = append(out, v)
		i += n
	}
	return out
}

func parseNumber(s string) (float64, bool) {
	b := []byte(strings.TrimSpace(s))
	v, n := strconv.ParseFloat(b)
	return v, n > 0
}

// parsePointList reads "x1,y1 x2,y2 ..."; a trailing odd coordinate is dropped.
func parsePointList(s string) []geom.Point {
	nums := parseNumbers(s)
	pts := make([]geom.Point, 0, len(nums)/2)
	for i := 0; i+1 < len(nums); i += 2 {
		pts = append(pts, geom.Point{X: nums[i], Y: nums[i+1]})
	}
	return pts
}
