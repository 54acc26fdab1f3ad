// Package export writes the document as a static SVG image. Every part is
// emitted from the same scene graph the canvas renders, so the file matches
// the screen at the chosen time.
package export

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/pathdata"
)

// Options controls the exported image.
type Options struct {
	Width      float64
	Height     float64
	Background string // omitted when empty
}

// DefaultOptions matches the editor canvas.
func DefaultOptions() Options {
	return Options{Width: pathdata.CanvasWidth, Height: pathdata.CanvasHeight}
}

// WriteSVG renders entities at time t (ms) as an SVG document.
func WriteSVG(w io.Writer, entities []document.Entity, t float64, opts Options) error {
	bw := bufio.NewWriter(w)
	sg := engine.BuildSceneGraph(entities, t)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(opts.Width), num(opts.Height), num(opts.Width), num(opts.Height))
	if opts.Background != "" {
		fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", attr(opts.Background))
	}
	for _, node := range sg.Nodes {
		if len(node.Path) == 0 {
			continue
		}
		writePath(bw, &node)
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writePath(w *bufio.Writer, node *engine.SceneNode) {
	st := node.Style
	fill := node.Fill()
	stroke := st.Stroke
	if stroke == "" {
		stroke = "none"
	}

	w.WriteString(`<path d="`)
	w.WriteString(attr(geom.FormatPathData(node.Path)))
	w.WriteString(`"`)
	if !node.WorldTransform.IsIdentity() {
		fmt.Fprintf(w, ` transform="%s"`, matrix(node.WorldTransform))
	}
	fmt.Fprintf(w, ` fill="%s" stroke="%s"`, attr(fill), attr(stroke))
	if stroke != "none" {
		fmt.Fprintf(w, ` stroke-width="%s" stroke-linejoin="round" stroke-linecap="round"`, num(st.StrokeWidth))
	}
	if st.Opacity < 1 {
		fmt.Fprintf(w, ` opacity="%s"`, num(max(0, st.Opacity)))
	}
	fmt.Fprintf(w, ` data-entity="%s"`, attr(node.EntityID))
	if node.Segment >= 0 {
		fmt.Fprintf(w, ` data-segment="%d"`, node.Segment)
	}
	w.WriteString("/>\n")
}

func matrix(m geom.Matrix2D) string {
	v := m.ToSlice()
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = num(f)
	}
	return "matrix(" + strings.Join(parts, " ") + ")"
}

// num prints v with at most six decimals, enough for matrix entries.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func attr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
