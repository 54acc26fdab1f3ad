package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecta/backend-go/internal/document"
)

func twoKeyTrack(easing document.EasingType) []document.Keyframe {
	a := document.Transform{X: 0, Y: 10, Rotation: 0, Scale: 1}
	b := document.Transform{X: 100, Y: 30, Rotation: 90, Scale: 3, PX: 8}
	return []document.Keyframe{
		{ID: "a", Time: 0, Transform: a, Easing: easing},
		{ID: "b", Time: 1000, Transform: b, Easing: document.EasingLinear},
	}
}

func TestInterpolateHoldsEnds(t *testing.T) {
	track := twoKeyTrack(document.EasingLinear)
	for _, ts := range []float64{-50, 0} {
		got, ok := Interpolate(track, ts)
		require.True(t, ok)
		assert.Equal(t, track[0].Transform, got)
	}
	for _, ts := range []float64{1000, 5000} {
		got, _ := Interpolate(track, ts)
		assert.Equal(t, track[1].Transform, got)
	}
	_, ok := Interpolate(nil, 10)
	assert.False(t, ok)
}

func TestInterpolateLinearMidpoint(t *testing.T) {
	got, ok := Interpolate(twoKeyTrack(document.EasingLinear), 500)
	require.True(t, ok)
	assert.InDelta(t, 50.0, got.X, 1e-12)
	assert.InDelta(t, 20.0, got.Y, 1e-12)
	assert.InDelta(t, 45.0, got.Rotation, 1e-12)
	assert.InDelta(t, 2.0, got.Scale, 1e-12)
	assert.InDelta(t, 4.0, got.PX, 1e-12)
	assert.False(t, got.HasAxisScale())
}

func TestInterpolateUsesOutgoingEasing(t *testing.T) {
	// easeIn on the first keyframe shapes the blend toward the second
	got, _ := Interpolate(twoKeyTrack(document.EasingEaseIn), 500)
	assert.InDelta(t, 25.0, got.X, 1e-12)

	// easing on the last keyframe has nothing to shape
	track := twoKeyTrack(document.EasingLinear)
	track[1].Easing = document.EasingEaseIn
	got, _ = Interpolate(track, 500)
	assert.InDelta(t, 50.0, got.X, 1e-12)
}

func TestInterpolateAxisScaleFallsBackToUniform(t *testing.T) {
	track := twoKeyTrack(document.EasingLinear)
	track[1].Transform.SetAxisScale(5, 1)
	got, _ := Interpolate(track, 500)
	require.True(t, got.HasAxisScale())
	assert.InDelta(t, 3.0, got.SX(), 1e-12) // 1 (uniform) to 5
	assert.InDelta(t, 1.0, got.SY(), 1e-12)
}

func TestApplyEasing(t *testing.T) {
	easings := []document.EasingType{
		document.EasingLinear, document.EasingEaseIn, document.EasingEaseOut, document.EasingEaseInOut,
		document.EasingCubicIn, document.EasingCubicOut, document.EasingCubicInOut, "bogus",
	}
	for _, e := range easings {
		assert.InDelta(t, 0.0, ApplyEasing(0, e), 1e-12, e)
		assert.InDelta(t, 1.0, ApplyEasing(1, e), 1e-12, e)
		assert.InDelta(t, 1.0, ApplyEasing(2, e), 1e-12, e)
	}
	assert.InDelta(t, 0.75, ApplyEasing(0.5, document.EasingEaseOut), 1e-12)
	assert.InDelta(t, 0.5, ApplyEasing(0.5, document.EasingEaseInOut), 1e-12)
	assert.InDelta(t, 0.125, ApplyEasing(0.5, document.EasingCubicIn), 1e-12)
}

func TestUpsertKeyframe(t *testing.T) {
	track := twoKeyTrack(document.EasingLinear)

	mid := document.Keyframe{Time: 400, Transform: document.Transform{X: 7, Scale: 1}}
	track = UpsertKeyframe(track, mid)
	require.Len(t, track, 3)
	assert.Equal(t, 400.0, track[1].Time)
	assert.NotEmpty(t, track[1].ID)
	assert.Equal(t, document.EasingLinear, track[1].Easing)

	// within the epsilon: overwrite, keep id
	again := UpsertKeyframe(track, document.Keyframe{ID: "other", Time: 400.5, Transform: document.Transform{X: 9, Scale: 1}})
	require.Len(t, again, 3)
	assert.Equal(t, track[1].ID, again[1].ID)
	assert.Equal(t, 9.0, again[1].Transform.X)

	// the input track is untouched
	assert.Equal(t, 7.0, track[1].Transform.X)
}

func TestUpdateKeyframeResorts(t *testing.T) {
	track := UpsertKeyframe(twoKeyTrack(document.EasingLinear), document.Keyframe{ID: "m", Time: 500})
	out, ok := UpdateKeyframe(track, "a", func(k *document.Keyframe) { k.Time = 750 })
	require.True(t, ok)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"m", "a", "b"}, []string{out[0].ID, out[1].ID, out[2].ID})

	// moving onto another keyframe replaces it
	out, ok = UpdateKeyframe(out, "m", func(k *document.Keyframe) { k.Time = 1000 })
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "m", out[1].ID)

	_, ok = UpdateKeyframe(out, "missing", func(*document.Keyframe) {})
	assert.False(t, ok)
}

func TestDeleteKeyframe(t *testing.T) {
	track := twoKeyTrack(document.EasingLinear)
	out, ok := DeleteKeyframe(track, "a")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)

	out, ok = DeleteKeyframe(out, "b")
	assert.True(t, ok)
	assert.Nil(t, out)

	_, ok = DeleteKeyframe(track, "zzz")
	assert.False(t, ok)
}

func TestNormalizeTrack(t *testing.T) {
	track := []document.Keyframe{{ID: "late", Time: 900}, {ID: "early", Time: 100}, {ID: "dup", Time: 900.2}}
	out := NormalizeTrack(track)
	require.Len(t, out, 2)
	assert.Equal(t, "early", out[0].ID)
	assert.Equal(t, "dup", out[1].ID)
	assert.Nil(t, NormalizeTrack(nil))
}
