package editor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

func newTestEditor(t *testing.T) (*Editor, string) {
	t.Helper()
	ed := New(DefaultOptions())
	id := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}, true)
	ed.history.Reset()
	ed.Select([]string{id})
	return ed, id
}

func transformOf(t *testing.T, ed *Editor, id string) document.Transform {
	t.Helper()
	ent, err := ed.entity(id)
	require.NoError(t, err)
	return engine.ResolveEffectiveTransform(ent, ed.Time(), ed.Focus())
}

func TestDragCollapsesToOneUndoStep(t *testing.T) {
	ed, id := newTestEditor(t)

	require.NoError(t, ed.BeginLive())
	for i := 0; i < 250; i++ {
		require.NoError(t, ed.MoveSelection(1, 0.5))
	}
	require.NoError(t, ed.Commit())

	assert.InDelta(t, 250.0, transformOf(t, ed, id).X, 1e-9)
	assert.Equal(t, 1, ed.history.Depth())

	require.True(t, ed.Undo())
	assert.Equal(t, 0.0, transformOf(t, ed, id).X)
	assert.False(t, ed.CanUndo())

	require.True(t, ed.Redo())
	assert.InDelta(t, 125.0, transformOf(t, ed, id).Y, 1e-9)
}

func TestCommitClearsRedo(t *testing.T) {
	ed, _ := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(10))
	require.NoError(t, ed.Commit())
	require.True(t, ed.Undo())
	require.True(t, ed.CanRedo())

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(5))
	require.NoError(t, ed.Commit())
	assert.False(t, ed.CanRedo())
}

func TestLiveEditErrors(t *testing.T) {
	ed, _ := newTestEditor(t)
	assert.ErrorIs(t, ed.MoveSelection(1, 1), ErrNoLiveEdit)
	assert.ErrorIs(t, ed.Commit(), ErrNoLiveEdit)
	assert.ErrorIs(t, ed.Revert(), ErrNoLiveEdit)

	require.NoError(t, ed.BeginLive())
	assert.ErrorIs(t, ed.BeginLive(), ErrLiveEditActive)

	ed.Select(nil)
	assert.ErrorIs(t, ed.MoveSelection(1, 1), ErrEmptySelection)
}

func TestCommitWithoutChangesLeavesNoStep(t *testing.T) {
	ed, _ := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.Commit())
	assert.False(t, ed.CanUndo())
	assert.False(t, ed.InLiveEdit())
}

func TestRevertAndAbortedGesture(t *testing.T) {
	ed, id := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.ScaleSelection(2, 3))
	require.NoError(t, ed.Revert())
	tr := transformOf(t, ed, id)
	assert.Equal(t, 1.0, tr.SX())
	assert.False(t, ed.CanUndo())

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveSelection(40, 0))
	ed.EndGesture(false)
	assert.Equal(t, 0.0, transformOf(t, ed, id).X)
	assert.False(t, ed.InLiveEdit())

	// harmless with nothing open
	ed.EndGesture(true)
}

func TestUndoCommitsDanglingLiveEdit(t *testing.T) {
	ed, id := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveSelection(30, 0))
	assert.True(t, ed.CanUndo())

	require.True(t, ed.Undo())
	assert.False(t, ed.InLiveEdit())
	assert.Equal(t, 0.0, transformOf(t, ed, id).X)
	require.True(t, ed.Redo())
	assert.Equal(t, 30.0, transformOf(t, ed, id).X)
}

func TestUndoOnEmptyStack(t *testing.T) {
	ed := New(DefaultOptions())
	assert.False(t, ed.Undo())
	assert.False(t, ed.Redo())
}

func TestScaleSelection(t *testing.T) {
	ed, id := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.ScaleSelection(2, 2))
	tr := transformOf(t, ed, id)
	assert.False(t, tr.HasAxisScale())
	assert.Equal(t, 2.0, tr.Scale)

	require.NoError(t, ed.ScaleSelection(1, 0.5))
	tr = transformOf(t, ed, id)
	assert.Equal(t, 2.0, tr.SX())
	assert.Equal(t, 1.0, tr.SY())
	require.NoError(t, ed.Commit())
}

func TestMoveVertexThroughTransform(t *testing.T) {
	ed, id := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(90))
	require.NoError(t, ed.ScaleSelection(2, 2))
	require.NoError(t, ed.MoveSelection(300, 100))
	require.NoError(t, ed.Commit())

	ent, err := ed.entity(id)
	require.NoError(t, err)
	chain := engine.ResolveChain(ent, -1, ed.Time())

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveVertex(id, -1, 1, 412, 250))
	shown := chain.Forward(ent.Points[1])
	assert.InDelta(t, 412.0, shown.X, 1e-9)
	assert.InDelta(t, 250.0, shown.Y, 1e-9)

	assert.Error(t, ed.MoveVertex(id, -1, 99, 0, 0))
	assert.ErrorIs(t, ed.MoveVertex("nope", -1, 0, 0, 0), ErrEntityNotFound)
	require.NoError(t, ed.Commit())

	require.True(t, ed.Undo())
	ent, _ = ed.entity(id)
	assert.Equal(t, geom.Pt(100, 0), ent.Points[1])
}

func TestDragPivot(t *testing.T) {
	ed, id := newTestEditor(t)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(90))
	require.NoError(t, ed.DragPivot(10, 0))
	require.NoError(t, ed.Commit())
	tr := transformOf(t, ed, id)
	assert.InDelta(t, 0.0, tr.PX, 1e-9)
	assert.InDelta(t, -10.0, tr.PY, 1e-9)
}

func TestFinishStrokeWithSymmetry(t *testing.T) {
	ed := New(DefaultOptions())
	ed.SetSymmetry(geom.Symmetry{Horizontal: true, Vertical: true})

	stroke := make([]geom.Point, 200)
	for i := range stroke {
		stroke[i] = geom.Pt(100+float64(i), 100+0.001*float64(i))
	}
	ids := ed.FinishStroke(stroke, false)
	require.Len(t, ids, 4)
	assert.Equal(t, ids, ed.Selection())

	ents := ed.Entities()
	require.Len(t, ents, 4)
	assert.LessOrEqual(t, len(ents[0].Points), 3)
	assert.Equal(t, geom.Pt(700, 100), ents[1].Points[0])
	assert.Equal(t, geom.Pt(100, 500), ents[2].Points[0])
	assert.Equal(t, geom.Pt(700, 500), ents[3].Points[0])

	require.True(t, ed.Undo())
	assert.Empty(t, ed.Entities())
	assert.Empty(t, ed.Selection())

	assert.Nil(t, ed.FinishStroke(nil, false))
}

func TestDraftPreviewFollowsSymmetry(t *testing.T) {
	ed := New(DefaultOptions())
	assert.Nil(t, ed.DraftPreview(nil))

	stroke := []geom.Point{{X: 100, Y: 100}, {X: 150, Y: 120}, {X: 200, Y: 100}}
	paths := ed.DraftPreview(stroke)
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 3)
	assert.Equal(t, geom.OpMove, paths[0][0].Op)
	assert.Equal(t, geom.OpLine, paths[0][2].Op)
	assert.Equal(t, []geom.Point{{X: 200, Y: 100}}, paths[0][2].Pts)

	ed.SetSymmetry(geom.Symmetry{Horizontal: true})
	paths = ed.DraftPreview(stroke)
	require.Len(t, paths, 2)
	assert.Equal(t, []geom.Point{{X: 700, Y: 100}}, paths[1][0].Pts)
	assert.Empty(t, ed.Entities(), "previews add nothing")
}

func TestKeyframesFollowClock(t *testing.T) {
	ed, id := newTestEditor(t)
	ids, err := ed.AddKeyframe(document.EasingLinear)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	ed.Seek(1000)
	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveSelection(200, 0))
	require.NoError(t, ed.Commit())

	ent, _ := ed.entity(id)
	require.Len(t, ent.Keyframes, 2, "moving on an animated entity captures a keyframe")
	assert.Equal(t, 1000.0, ent.Keyframes[1].Time)

	ed.Seek(500)
	assert.InDelta(t, 100.0, transformOf(t, ed, id).X, 1e-9)
	assert.Equal(t, 1000.0, ed.Duration())

	newTime := 250.0
	easeIn := document.EasingEaseIn
	require.NoError(t, ed.UpdateKeyframe(id, ent.Keyframes[1].ID, KeyframePatch{Time: &newTime, Easing: &easeIn}))
	assert.Equal(t, 250.0, ed.Duration())

	require.NoError(t, ed.DeleteKeyframe(id, ids[0]))
	ent, _ = ed.entity(id)
	assert.Len(t, ent.Keyframes, 1)
	assert.ErrorIs(t, ed.DeleteKeyframe(id, "kf_missing"), ErrKeyframeNotFound)

	ed.Select(nil)
	_, err = ed.AddKeyframe(document.EasingLinear)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestClock(t *testing.T) {
	ed := New(DefaultOptions())
	ed.Tick(100)
	assert.Equal(t, 0.0, ed.Time(), "paused clock does not advance")

	ed.Play()
	ed.Tick(16)
	ed.Tick(-50)
	ed.Tick(4)
	assert.Equal(t, 20.0, ed.Time())
	ed.Pause()
	assert.False(t, ed.IsPlaying())

	ed.Seek(-3)
	assert.Equal(t, 0.0, ed.Time())

	var state PlaybackState
	require.NoError(t, json.Unmarshal([]byte(ed.GetPlaybackState()), &state))
	assert.False(t, state.Playing)
}

func TestMergeAndSplitThroughEditor(t *testing.T) {
	ed := New(DefaultOptions())
	a := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, true)
	b := ed.AddShape([]geom.Point{{X: 50, Y: 50}, {X: 60, Y: 60}}, false)
	depth := ed.history.Depth()

	ed.Select([]string{a})
	_, ok := ed.Merge()
	assert.False(t, ok, "merge needs two")

	ed.Select([]string{a, b})
	id, ok := ed.Merge()
	require.True(t, ok)
	assert.Equal(t, []string{id}, ed.Selection())
	require.Len(t, ed.Entities(), 1)
	assert.Equal(t, depth+1, ed.history.Depth())

	require.NoError(t, ed.SetFocus(document.Focus{Segment: 1}))
	assert.ErrorIs(t, ed.SetFocus(document.Focus{Segment: 2}), ErrInvalidFocus)

	parts, ok := ed.Split()
	require.True(t, ok)
	assert.Equal(t, []string{a, b}, parts)
	assert.Equal(t, document.WholeEntity, ed.Focus())

	_, ok = ed.Split()
	assert.False(t, ok, "nothing compound left")

	require.True(t, ed.Undo())
	require.Len(t, ed.Entities(), 1)
	require.True(t, ed.Undo())
	assert.Len(t, ed.Entities(), 2)
}

func worldPointsOf(t *testing.T, ed *Editor) []geom.Point {
	t.Helper()
	var out []geom.Point
	for _, ent := range ed.Entities() {
		n := 1
		if ent.IsCompound() {
			n = len(ent.Segments)
		}
		for seg := 0; seg < n; seg++ {
			out = append(out, engine.WorldPoints(&ent, seg, ed.Time())...)
		}
	}
	return out
}

func assertPointsNear(t *testing.T, want, got []geom.Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-6, "point %d x", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-6, "point %d y", i)
	}
}

func TestSplitAfterMovingMergedEntity(t *testing.T) {
	ed := New(DefaultOptions())
	a := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, true)
	b := ed.AddShape([]geom.Point{{X: 50, Y: 50}, {X: 60, Y: 60}}, false)
	ed.Select([]string{a, b})
	_, ok := ed.Merge()
	require.True(t, ok)

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveSelection(100, 0))
	require.NoError(t, ed.Commit())
	moved := worldPointsOf(t, ed)
	assert.InDelta(t, 100.0, moved[0].X, 1e-9)

	_, ok = ed.Split()
	require.True(t, ok)
	assertPointsNear(t, moved, worldPointsOf(t, ed))
}

func TestSegmentMoveInsideRotatedEntity(t *testing.T) {
	ed := New(DefaultOptions())
	a := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, true)
	b := ed.AddShape([]geom.Point{{X: 50, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 10}}, true)
	ed.Select([]string{a, b})
	id, ok := ed.Merge()
	require.True(t, ok)

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(90))
	require.NoError(t, ed.Commit())

	require.NoError(t, ed.SetFocus(document.Focus{Segment: 0}))
	ent, _ := ed.entity(id)
	before := engine.WorldPoints(ent, 0, 0)

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.MoveSelection(10, 0))
	require.NoError(t, ed.Commit())

	ent, _ = ed.entity(id)
	after := engine.WorldPoints(ent, 0, 0)
	for i := range before {
		assert.InDelta(t, before[i].X+10, after[i].X, 1e-9)
		assert.InDelta(t, before[i].Y, after[i].Y, 1e-9)
	}
}

func TestSegmentPivotDragInsideRotatedEntity(t *testing.T) {
	ed := New(DefaultOptions())
	a := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, true)
	b := ed.AddShape([]geom.Point{{X: 50, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 10}}, true)
	ed.Select([]string{a, b})
	id, _ := ed.Merge()

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.RotateSelection(90))
	require.NoError(t, ed.Commit())
	require.NoError(t, ed.SetFocus(document.Focus{Segment: 0}))

	ent, _ := ed.entity(id)
	c := engine.ResolveChain(ent, 0, 0)
	pivotBefore := engine.Matrix(c.Entity, c.EntityPivot).Apply(document.IdentityTransform().Pivot(ent.Segments[0]))

	require.NoError(t, ed.BeginLive())
	require.NoError(t, ed.DragPivot(10, 0))
	require.NoError(t, ed.Commit())

	ent, _ = ed.entity(id)
	c = engine.ResolveChain(ent, 0, 0)
	require.NotNil(t, c.Segment)
	pivotAfter := engine.Matrix(c.Entity, c.EntityPivot).Apply(c.SegmentPivot)
	assert.InDelta(t, pivotBefore.X+10, pivotAfter.X, 1e-9)
	assert.InDelta(t, pivotBefore.Y, pivotAfter.Y, 1e-9)
}

func TestFinishStrokeMirrorsStrokeAnimation(t *testing.T) {
	ed := New(DefaultOptions())
	ed.SetAnimation(&document.Animation{Type: document.AnimationSpin, Speed: 0.5})
	require.NotNil(t, ed.StrokeAnimation())
	assert.Equal(t, 1, ed.StrokeAnimation().Direction)
	ed.SetSymmetry(geom.Symmetry{Horizontal: true})

	ids := ed.FinishStroke([]geom.Point{{X: 100, Y: 100}, {X: 150, Y: 120}, {X: 200, Y: 100}}, false)
	require.Len(t, ids, 2)
	ents := ed.Entities()
	require.NotNil(t, ents[0].Animation)
	require.NotNil(t, ents[1].Animation)
	assert.Equal(t, document.AnimationSpin, ents[1].Animation.Type)
	assert.Equal(t, 1, ents[0].Animation.Direction)
	assert.Equal(t, -1, ents[1].Animation.Direction, "the mirrored copy spins the other way")

	// later strokes keep the setting until it is cleared
	ed.Select(nil)
	ed.SetAnimation(nil)
	assert.Nil(t, ed.StrokeAnimation())
	plain := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, false)
	ent, _ := ed.entity(plain)
	assert.Nil(t, ent.Animation)
}

func TestKeyframeEditUndoRestoresExactShape(t *testing.T) {
	ed := New(DefaultOptions())
	raw := document.Entity{
		ID:       "ent_raw",
		Style:    document.DefaultStyle(),
		Segments: [][]geom.Point{{{X: 0, Y: 0}, {X: 10, Y: 0}}, {{X: 20, Y: 0}, {X: 30, Y: 10}}},
		SegmentKeyframes: [][]document.Keyframe{{
			{ID: "kf_a", Time: 0, Transform: document.IdentityTransform(), Easing: document.EasingLinear},
		}},
	}
	raw.Points = append(geom.ClonePoints(raw.Segments[0]), raw.Segments[1]...)
	ed.entities = []document.Entity{raw}

	at := 400.0
	require.NoError(t, ed.UpdateKeyframe("ent_raw", "kf_a", KeyframePatch{Time: &at}))
	ent, _ := ed.entity("ent_raw")
	assert.Equal(t, 400.0, ent.SegmentKeyframes[0][0].Time)

	require.True(t, ed.Undo())
	restored := ed.Entities()
	require.Len(t, restored, 1)
	assert.Len(t, restored[0].SegmentKeyframes, 1)
	assert.Empty(t, restored[0].SegmentStyles, "undo brings back the shape from before the edit")
	assert.Empty(t, restored[0].SegmentTransforms)
	assert.Equal(t, 0.0, restored[0].SegmentKeyframes[0][0].Time)
}

func TestSelectionStyleProjection(t *testing.T) {
	ed := New(DefaultOptions())
	a := ed.AddShape([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, false)
	b := ed.AddShape([]geom.Point{{X: 2, Y: 2}, {X: 3, Y: 3}}, false)

	ed.Select([]string{a, b})
	p := ed.SelectionStyle()
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, document.DefaultStyle().Stroke, p.Stroke)
	assert.False(t, p.StrokeWidthMixed)

	red := "#ff0000"
	ed.Select([]string{a})
	ed.SetStyle(StylePatch{Stroke: &red})

	ed.Select([]string{a, b})
	p = ed.SelectionStyle()
	assert.Equal(t, Mixed, p.Stroke)
	assert.Equal(t, document.DefaultStyle().Fill, p.Fill)

	ed.SetTension(9)
	p = ed.SelectionStyle()
	assert.Equal(t, geom.MaxTension, p.Tension)
	assert.False(t, p.TensionMixed)

	ed.Select(nil)
	width := 7.0
	ed.SetStyle(StylePatch{StrokeWidth: &width})
	assert.Equal(t, 7.0, ed.SelectionStyle().StrokeWidth)
}

func TestDeletePrunesSelection(t *testing.T) {
	ed, id := newTestEditor(t)
	other := ed.AddShape([]geom.Point{{X: 5, Y: 5}, {X: 6, Y: 6}}, false)
	ed.Select([]string{id, other, "ghost"})
	assert.Equal(t, []string{id, other}, ed.Selection())

	assert.Equal(t, 1, ed.DeleteEntities([]string{id, "ghost"}))
	assert.Equal(t, []string{other}, ed.Selection())
	assert.Equal(t, 0, ed.DeleteEntities([]string{"ghost"}))
	assert.Equal(t, 1, ed.DeleteSelection())
	assert.Empty(t, ed.Entities())
}

func TestRenderAndHitTestSample(t *testing.T) {
	ed := New(DefaultOptions())
	ed.LoadSampleDocument()

	var cmds []engine.DrawCommand
	require.NoError(t, json.Unmarshal([]byte(ed.Render()), &cmds))
	assert.Len(t, cmds, 4)

	// a corner of the square
	hit, ok := ed.HitTest(121, 121)
	require.True(t, ok)
	assert.Equal(t, ed.Entities()[0].ID, hit.ObjectID)
	assert.Equal(t, engine.HitVertex, hit.Kind)

	// the square slides right over two seconds
	ed.Seek(2000)
	_, ok = ed.HitTest(121, 121)
	assert.False(t, ok)

	ed.Select([]string{ed.Entities()[0].ID})
	box := ed.SelectionBounds()
	assert.False(t, math.IsNaN(box.Min.X))
	assert.Greater(t, box.Min.X, 300.0)
}

func TestLoadJSONRoundTrip(t *testing.T) {
	ed := New(DefaultOptions())
	ed.LoadSampleDocument()
	data, err := ed.DocumentJSON()
	require.NoError(t, err)

	other := New(DefaultOptions())
	require.NoError(t, other.LoadJSON(data))
	again, err := other.DocumentJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	assert.Error(t, other.LoadJSON([]byte("{")))
}
