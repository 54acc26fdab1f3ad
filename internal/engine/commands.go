package engine

import (
	"encoding/json"

	"github.com/inamate/vecta/backend-go/internal/geom"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string             `json:"op"`                    // always "path"
	ObjectID    string             `json:"objectId,omitempty"`    // for hit correlation
	Segment     int                `json:"segment"`               // -1 for plain entities
	Transform   []float64          `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []geom.PathCommand `json:"path,omitempty"`        // smoothed path in base coordinates
	Fill        string             `json:"fill,omitempty"`        // fill color
	Stroke      string             `json:"stroke,omitempty"`      // stroke color
	StrokeWidth float64            `json:"strokeWidth,omitempty"` // stroke width
	Opacity     float64            `json:"opacity,omitempty"`     // global alpha
}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil {
		return nil
	}
	commands := make([]DrawCommand, 0, len(sg.Nodes))
	for i := range sg.Nodes {
		node := &sg.Nodes[i]
		if len(node.Path) == 0 {
			continue
		}
		commands = append(commands, DrawCommand{
			Op:          "path",
			ObjectID:    node.EntityID,
			Segment:     node.Segment,
			Transform:   node.WorldTransform.ToSlice(),
			Path:        node.Path,
			Fill:        node.Fill(),
			Stroke:      node.Style.Stroke,
			StrokeWidth: node.Style.StrokeWidth,
			Opacity:     node.Style.Opacity,
		})
	}
	return commands
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

type HitKind string

const (
	HitVertex HitKind = "vertex"
	HitEdge   HitKind = "edge"
	HitFill   HitKind = "fill"
)

// HitTestResult describes what lies under a canvas point.
type HitTestResult struct {
	ObjectID string     `json:"objectId"`
	Segment  int        `json:"segment"`
	Vertex   int        `json:"vertex"` // -1 unless Kind is vertex
	Kind     HitKind    `json:"kind"`
	Local    geom.Point `json:"local"` // the point in base coordinates
}

// HitTest returns the topmost part under p. The point is mapped back into
// each part's base coordinates through the inverse transform chain, so
// picking works against stored geometry at any animation frame. tolerance is
// in canvas units and is divided by the composed scale.
func HitTest(sg *SceneGraph, p geom.Point, tolerance float64) (HitTestResult, bool) {
	if sg == nil {
		return HitTestResult{}, false
	}
	for i := len(sg.Nodes) - 1; i >= 0; i-- {
		if hit, ok := hitTestNode(&sg.Nodes[i], p, tolerance); ok {
			return hit, true
		}
	}
	return HitTestResult{}, false
}

func hitTestNode(node *SceneNode, p geom.Point, tolerance float64) (HitTestResult, bool) {
	if len(node.Base) == 0 {
		return HitTestResult{}, false
	}
	local := node.Chain.Inverse(p)
	tol := tolerance / node.Chain.MinScale()
	if !geom.BoundingBox(node.Base).Pad(tol).Contains(local) {
		return HitTestResult{}, false
	}
	hit := HitTestResult{ObjectID: node.EntityID, Segment: node.Segment, Vertex: -1, Local: local}

	best, bestDist := -1, tol
	for j, v := range node.Base {
		if d := local.Dist(v); d <= bestDist {
			best, bestDist = j, d
		}
	}
	if best >= 0 {
		hit.Vertex = best
		hit.Kind = HitVertex
		return hit, true
	}
	if geom.DistanceToPolyline(local, node.Base, node.Closed) <= tol {
		hit.Kind = HitEdge
		return hit, true
	}
	if node.Fill() != "none" && geom.PointInPolygon(local, node.Base) {
		hit.Kind = HitFill
		return hit, true
	}
	return HitTestResult{}, false
}

// GetSelectionBounds returns the combined displayed bounding box of the
// given entity ids.
func GetSelectionBounds(sg *SceneGraph, objectIDs []string) geom.BBox {
	if sg == nil || len(objectIDs) == 0 {
		return geom.BBox{}
	}
	want := make(map[string]bool, len(objectIDs))
	for _, id := range objectIDs {
		want[id] = true
	}
	var corners []geom.Point
	for _, node := range sg.Nodes {
		if !want[node.EntityID] || len(node.Base) == 0 {
			continue
		}
		corners = append(corners, node.Bounds.Min, node.Bounds.Max)
	}
	return geom.BoundingBox(corners)
}
