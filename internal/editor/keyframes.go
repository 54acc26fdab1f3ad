package editor

import (
	"fmt"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
)

// AddKeyframe captures the focused transform of every selected entity at
// the current clock time, as one undo step. It returns the keyframe ids.
func (e *Editor) AddKeyframe(easing document.EasingType) ([]string, error) {
	sel := e.selected()
	if len(sel) == 0 {
		return nil, ErrEmptySelection
	}
	if easing == "" {
		easing = document.EasingLinear
	}
	e.record()
	ids := make([]string, 0, len(sel))
	for _, ent := range sel {
		if id, ok := engine.AddKeyframe(ent, e.focus, e.time, easing); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// KeyframePatch changes the non-nil keyframe fields.
type KeyframePatch struct {
	Time      *float64             `json:"time,omitempty"`
	Easing    *document.EasingType `json:"easing,omitempty"`
	Transform *document.Transform  `json:"transform,omitempty"`
}

// findTrack locates the track holding keyframe kfID on entity id, whichever
// level it belongs to.
func (e *Editor) findTrack(id, kfID string) (*[]document.Keyframe, error) {
	ent, err := e.entity(id)
	if err != nil {
		return nil, err
	}
	tracks := []*[]document.Keyframe{&ent.Keyframes}
	for s := range ent.SegmentKeyframes {
		tracks = append(tracks, &ent.SegmentKeyframes[s])
	}
	for _, tr := range tracks {
		for _, k := range *tr {
			if k.ID == kfID {
				return tr, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrKeyframeNotFound, kfID, id)
}

// UpdateKeyframe edits one keyframe as one undo step.
func (e *Editor) UpdateKeyframe(id, kfID string, patch KeyframePatch) error {
	track, err := e.findTrack(id, kfID)
	if err != nil {
		return err
	}
	e.record()
	*track, _ = engine.UpdateKeyframe(*track, kfID, func(k *document.Keyframe) {
		if patch.Time != nil {
			k.Time = max(0, *patch.Time)
		}
		if patch.Easing != nil {
			k.Easing = *patch.Easing
		}
		if patch.Transform != nil {
			k.Transform = patch.Transform.Clone()
		}
	})
	return nil
}

// DeleteKeyframe removes one keyframe as one undo step.
func (e *Editor) DeleteKeyframe(id, kfID string) error {
	track, err := e.findTrack(id, kfID)
	if err != nil {
		return err
	}
	e.record()
	*track, _ = engine.DeleteKeyframe(*track, kfID)
	return nil
}
