package engine

import (
	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

// SceneGraph is the evaluated, render-ready state of the document at one
// point in time. Nodes are in painter's order (back to front).
type SceneGraph struct {
	Time  float64
	Nodes []SceneNode
}

// SceneNode is one drawable part: a plain entity or one segment of a
// compound entity, with its transforms resolved.
type SceneNode struct {
	EntityID string
	Segment  int // -1 for a plain entity

	Chain          Chain
	WorldTransform geom.Matrix2D

	// Base holds the stored points; Path is their smoothed outline. Both
	// are in base coordinates and WorldTransform places them on the canvas.
	Base   []geom.Point
	Closed bool
	Path   []geom.PathCommand
	Style  document.Style

	// Bounds is the axis-aligned box of the transformed base points.
	Bounds geom.BBox
}

// Fill returns the paint for the node interior. Open outlines are never
// filled, so they report "none" whatever their style says.
func (n *SceneNode) Fill() string {
	if n.Style.Fill == "" || !n.Closed {
		return "none"
	}
	return n.Style.Fill
}

// BuildSceneGraph resolves every entity at time t (ms).
func BuildSceneGraph(entities []document.Entity, t float64) *SceneGraph {
	sg := &SceneGraph{Time: t}
	for i := range entities {
		e := &entities[i]
		if !e.IsCompound() {
			sg.Nodes = append(sg.Nodes, buildNode(e, -1, t))
			continue
		}
		for s := range e.Segments {
			sg.Nodes = append(sg.Nodes, buildNode(e, s, t))
		}
	}
	return sg
}

func buildNode(e *document.Entity, seg int, t float64) SceneNode {
	chain := ResolveChain(e, seg, t)
	base := e.SegmentPoints(seg)
	m := chain.Matrix()
	return SceneNode{
		EntityID:       e.ID,
		Segment:        seg,
		Chain:          chain,
		WorldTransform: m,
		Base:           base,
		Closed:         e.SegmentClosedAt(seg),
		Path:           geom.SmoothPath(base, e.SegmentTension(seg), e.SegmentClosedAt(seg)),
		Style:          e.SegmentStyle(seg),
		Bounds:         geom.BoundingBox(m.ApplyAll(base)),
	}
}

// WorldPoints returns the displayed points of segment seg of e at time t.
func WorldPoints(e *document.Entity, seg int, t float64) []geom.Point {
	return ResolveChain(e, seg, t).Matrix().ApplyAll(e.SegmentPoints(seg))
}
