package document

import (
	"math"

	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

// NewSampleDocument returns a small scene: an animated square, a spinning
// star and a two-part compound shape.
func NewSampleDocument() []Entity {
	square := NewEntity([]geom.Point{{X: 120, Y: 120}, {X: 220, Y: 120}, {X: 220, Y: 220}, {X: 120, Y: 220}},
		Style{Fill: "#e94560", Stroke: "#16213e", StrokeWidth: 3, Opacity: 1}, true, 0)
	moved := IdentityTransform()
	moved.X = 300
	moved.Rotation = 90
	square.Keyframes = []Keyframe{
		{ID: typeid.NewKeyframeID(), Time: 0, Transform: IdentityTransform(), Easing: EasingEaseInOut},
		{ID: typeid.NewKeyframeID(), Time: 2000, Transform: moved, Easing: EasingLinear},
	}

	star := NewEntity(starPoints(geom.Point{X: 560, Y: 180}, 70, 30, 5),
		Style{Fill: "#f5c518", Stroke: "#000000", StrokeWidth: 2, Opacity: 1}, true, 0.5)
	star.Animation = &Animation{Type: AnimationSpin, Speed: 0.25, Direction: 1}

	wave := []geom.Point{{X: 100, Y: 450}, {X: 180, Y: 400}, {X: 260, Y: 450}, {X: 340, Y: 400}}
	ring := starPoints(geom.Point{X: 560, Y: 430}, 60, 60, 8)
	compound := Entity{
		ID:                typeid.NewEntityID(),
		Style:             DefaultStyle(),
		Tension:           1,
		Segments:          [][]geom.Point{wave, ring},
		SegmentStyles:     []Style{DefaultStyle(), {Fill: "#0f3460", Stroke: "#0f3460", StrokeWidth: 1, Opacity: 0.8}},
		SegmentTransforms: []*Transform{nil, nil},
		SegmentKeyframes:  [][]Keyframe{nil, nil},
		SegmentClosed:     []bool{false, true},
		SegmentTensions:   []float64{1, 0.8},
		SegmentAnimations: []*Animation{{Type: AnimationSway, Speed: 0.5, Amplitude: 20, Direction: 1}, nil},
	}
	compound.SyncPoints()

	return []Entity{square, star, compound}
}

func starPoints(c geom.Point, outer, inner float64, spikes int) []geom.Point {
	pts := make([]geom.Point, 0, spikes*2)
	for i := 0; i < spikes*2; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(i)*math.Pi/float64(spikes) - math.Pi/2
		pts = append(pts, geom.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)})
	}
	return pts
}
