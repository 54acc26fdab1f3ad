package editor

import (
	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

// Select replaces the selection. Unknown ids are dropped and the focus
// returns to the whole entity.
func (e *Editor) Select(ids []string) {
	next := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] && e.indexOf(id) >= 0 {
			next = append(next, id)
			seen[id] = true
		}
	}
	e.selection = next
	e.focus = document.WholeEntity
}

// Selection returns the selected ids.
func (e *Editor) Selection() []string {
	return append([]string(nil), e.selection...)
}

// SetFocus chooses which transform level receives edits and keyframes.
// A segment focus must address a segment of every selected entity.
func (e *Editor) SetFocus(f document.Focus) error {
	if f.IsSegment() && !e.focusValid(f) {
		return ErrInvalidFocus
	}
	if !f.IsSegment() {
		f = document.WholeEntity
	}
	e.focus = f
	return nil
}

func (e *Editor) Focus() document.Focus { return e.focus }

func (e *Editor) focusValid(f document.Focus) bool {
	sel := e.selected()
	if len(sel) == 0 {
		return false
	}
	for _, ent := range sel {
		if !ent.IsCompound() || f.Segment >= len(ent.Segments) {
			return false
		}
	}
	return true
}

// Mixed marks a style field whose value differs across the selection.
const Mixed = "mixed"

// StyleProjection is the selection's style as shown in the inspector,
// derived on demand from the selection and the entities.
type StyleProjection struct {
	Count            int     `json:"count"`
	Fill             string  `json:"fill"`
	Stroke           string  `json:"stroke"`
	StrokeWidth      float64 `json:"strokeWidth"`
	StrokeWidthMixed bool    `json:"strokeWidthMixed"`
	Opacity          float64 `json:"opacity"`
	OpacityMixed     bool    `json:"opacityMixed"`
	Tension          float64 `json:"tension"`
	TensionMixed     bool    `json:"tensionMixed"`
}

// SelectionStyle projects the style of the focused level of every selected
// entity. With nothing selected it reports the style new strokes will use.
func (e *Editor) SelectionStyle() StyleProjection {
	sel := e.selected()
	if len(sel) == 0 {
		return StyleProjection{
			Fill:        e.strokeStyle.Fill,
			Stroke:      e.strokeStyle.Stroke,
			StrokeWidth: e.strokeStyle.StrokeWidth,
			Opacity:     e.strokeStyle.Opacity,
			Tension:     e.tension,
		}
	}

	var p StyleProjection
	for _, ent := range sel {
		seg := -1
		if e.focus.IsSegment() {
			seg = e.focus.Segment
		}
		st, k := ent.SegmentStyle(seg), ent.SegmentTension(seg)
		if p.Count == 0 {
			p = StyleProjection{Fill: st.Fill, Stroke: st.Stroke, StrokeWidth: st.StrokeWidth, Opacity: st.Opacity, Tension: k}
		} else {
			if p.Fill != st.Fill {
				p.Fill = Mixed
			}
			if p.Stroke != st.Stroke {
				p.Stroke = Mixed
			}
			p.StrokeWidthMixed = p.StrokeWidthMixed || p.StrokeWidth != st.StrokeWidth
			p.OpacityMixed = p.OpacityMixed || p.Opacity != st.Opacity
			p.TensionMixed = p.TensionMixed || p.Tension != k
		}
		p.Count++
	}
	return p
}

// StylePatch changes the non-nil style fields.
type StylePatch struct {
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
}

func (p StylePatch) apply(st document.Style) document.Style {
	if p.Fill != nil {
		st.Fill = *p.Fill
	}
	if p.Stroke != nil {
		st.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		st.StrokeWidth = max(0, *p.StrokeWidth)
	}
	if p.Opacity != nil {
		st.Opacity = max(0, min(1, *p.Opacity))
	}
	return st
}

// SetStyle applies patch to the focused level of the selection as one undo
// step. With nothing selected it changes the style of future strokes.
func (e *Editor) SetStyle(patch StylePatch) {
	sel := e.selected()
	if len(sel) == 0 {
		e.strokeStyle = patch.apply(e.strokeStyle)
		return
	}
	e.record()
	for _, ent := range sel {
		if e.focus.IsSegment() {
			ent.NormalizeSegments()
			ent.SegmentStyles[e.focus.Segment] = patch.apply(ent.SegmentStyles[e.focus.Segment])
			continue
		}
		ent.Style = patch.apply(ent.Style)
		for s := range ent.SegmentStyles {
			ent.SegmentStyles[s] = patch.apply(ent.SegmentStyles[s])
		}
	}
}

// SetAnimation sets or, with nil, clears the procedural animation of the
// focused level of the selection. With nothing selected it sets the
// animation given to future strokes.
func (e *Editor) SetAnimation(a *document.Animation) {
	var next *document.Animation
	if a != nil {
		c := *a
		if c.Direction == 0 {
			c.Direction = 1
		}
		next = &c
	}
	sel := e.selected()
	if len(sel) == 0 {
		e.strokeAnimation = next
		return
	}
	e.record()
	for _, ent := range sel {
		if e.focus.IsSegment() {
			ent.NormalizeSegments()
			ent.SegmentAnimations[e.focus.Segment] = copyAnimation(next)
			continue
		}
		ent.Animation = copyAnimation(next)
	}
}

// StrokeAnimation returns the animation given to new strokes, or nil.
func (e *Editor) StrokeAnimation() *document.Animation {
	return copyAnimation(e.strokeAnimation)
}

func copyAnimation(a *document.Animation) *document.Animation {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// SetSymmetry replaces the symmetry toggles used by FinishStroke.
func (e *Editor) SetSymmetry(s geom.Symmetry) {
	e.symmetry = s
}

func (e *Editor) Symmetry() geom.Symmetry { return e.symmetry }

// SetTension sets the smoothing tension for new strokes and, as one undo
// step, for the focused level of the selection.
func (e *Editor) SetTension(k float64) {
	k = geom.ClampTension(k)
	e.tension = k
	sel := e.selected()
	if len(sel) == 0 {
		return
	}
	e.record()
	for _, ent := range sel {
		if e.focus.IsSegment() {
			ent.NormalizeSegments()
			ent.SegmentTensions[e.focus.Segment] = k
			continue
		}
		ent.Tension = k
		for s := range ent.SegmentTensions {
			ent.SegmentTensions[s] = k
		}
	}
}

func (e *Editor) Tension() float64 { return e.tension }
