// Package editor is the single-focus editing model behind the canvas: it
// owns the entity list, the selection, the playback clock and the undo
// history, and funnels every edit through the engine's pure functions.
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/engine"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/history"
)

var (
	ErrEntityNotFound   = errors.New("entity not found")
	ErrKeyframeNotFound = errors.New("keyframe not found")
	ErrNoLiveEdit       = errors.New("no live edit in progress")
	ErrLiveEditActive   = errors.New("live edit already in progress")
	ErrEmptySelection   = errors.New("nothing selected")
	ErrInvalidFocus     = errors.New("focus does not address a segment of the selection")
)

// CanvasCenter is the mirror center used for symmetry expansion.
var CanvasCenter = geom.Point{X: 400, Y: 300}

// Options configures an Editor.
type Options struct {
	HistoryDepth      int
	DefaultTension    float64
	HitTolerance      float64
	SimplifyTolerance float64
	Logger            *slog.Logger
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		HistoryDepth:      history.DefaultDepth,
		DefaultTension:    0.5,
		HitTolerance:      6,
		SimplifyTolerance: 1,
	}
}

// Editor owns the document state and processes edits from one user at a
// time. It is not safe for concurrent use; callers serialize access.
type Editor struct {
	opts Options
	log  *slog.Logger

	entities  []document.Entity
	selection []string
	focus     document.Focus
	history   *history.Manager

	symmetry        geom.Symmetry
	tension         float64
	strokeStyle     document.Style
	strokeAnimation *document.Animation

	// Playback clock in milliseconds.
	time    float64
	playing bool

	liveDirty bool

	// Retained scene graph, rebuilt when dirty.
	sceneGraph *engine.SceneGraph
	sceneTime  float64
	dirty      bool
}

// New creates an editor with an empty document.
func New(opts Options) *Editor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Editor{
		opts:        opts,
		log:         opts.Logger,
		focus:       document.WholeEntity,
		history:     history.New(opts.HistoryDepth),
		tension:     geom.ClampTension(opts.DefaultTension),
		strokeStyle: document.DefaultStyle(),
		dirty:       true,
	}
}

// --- Document ---

// Load replaces the document, clearing selection, focus and history.
func (e *Editor) Load(entities []document.Entity) {
	e.entities = history.Snapshot(entities)
	for i := range e.entities {
		ent := &e.entities[i]
		ent.NormalizeSegments()
		ent.Keyframes = engine.NormalizeTrack(ent.Keyframes)
		for s := range ent.SegmentKeyframes {
			ent.SegmentKeyframes[s] = engine.NormalizeTrack(ent.SegmentKeyframes[s])
		}
	}
	e.selection = nil
	e.focus = document.WholeEntity
	e.history.Reset()
	e.liveDirty = false
	e.dirty = true
}

// LoadJSON loads the exchanged entity array.
func (e *Editor) LoadJSON(data []byte) error {
	entities, err := document.Decode(data)
	if err != nil {
		return err
	}
	e.Load(entities)
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Editor) LoadSampleDocument() {
	e.Load(document.NewSampleDocument())
}

// Entities returns a deep copy of the current entity list.
func (e *Editor) Entities() []document.Entity {
	return history.Snapshot(e.entities)
}

// DocumentJSON returns the current entity list in the exchanged format.
func (e *Editor) DocumentJSON() ([]byte, error) {
	return document.Encode(e.entities)
}

func (e *Editor) indexOf(id string) int {
	for i := range e.entities {
		if e.entities[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) entity(id string) (*document.Entity, error) {
	i := e.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return &e.entities[i], nil
}

// selected returns the selected entities in z-order.
func (e *Editor) selected() []*document.Entity {
	want := make(map[string]bool, len(e.selection))
	for _, id := range e.selection {
		want[id] = true
	}
	var out []*document.Entity
	for i := range e.entities {
		if want[e.entities[i].ID] {
			out = append(out, &e.entities[i])
		}
	}
	return out
}

// record pushes the current state before a discrete edit. A dangling live
// edit is committed first so it is never lost.
func (e *Editor) record() {
	e.resolveLive()
	e.history.Record(e.entities)
	e.dirty = true
}

// --- History ---

// Undo restores the previous state. With an empty stack it does nothing.
func (e *Editor) Undo() bool {
	e.resolveLive()
	prev, ok := e.history.Undo(e.entities)
	if !ok {
		return false
	}
	e.restore(prev)
	return true
}

// Redo re-applies the last undone step.
func (e *Editor) Redo() bool {
	e.resolveLive()
	next, ok := e.history.Redo(e.entities)
	if !ok {
		return false
	}
	e.restore(next)
	return true
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() || e.history.Live() && e.liveDirty }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

func (e *Editor) restore(entities []document.Entity) {
	e.entities = entities
	e.pruneSelection()
	e.dirty = true
}

// pruneSelection drops ids that no longer exist and resets an invalid focus.
func (e *Editor) pruneSelection() {
	kept := e.selection[:0]
	for _, id := range e.selection {
		if e.indexOf(id) >= 0 {
			kept = append(kept, id)
		}
	}
	e.selection = kept
	if e.focus.IsSegment() && !e.focusValid(e.focus) {
		e.focus = document.WholeEntity
	}
}

// --- Playback ---

// Play starts the clock.
func (e *Editor) Play() {
	e.playing = true
}

// Pause stops the clock.
func (e *Editor) Pause() {
	e.playing = false
}

// TogglePlay toggles play/pause state.
func (e *Editor) TogglePlay() {
	e.playing = !e.playing
}

// Seek moves the clock to t milliseconds; negative times clamp to zero.
func (e *Editor) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	if e.time != t {
		e.time = t
		e.dirty = true
	}
}

// Tick advances the clock by a wall-clock delta (ms) while playing and
// returns draw commands. Negative deltas are ignored so the clock never
// runs backwards.
func (e *Editor) Tick(deltaMs float64) string {
	if e.playing && deltaMs > 0 {
		e.time += deltaMs
		e.dirty = true
	}
	return e.Render()
}

func (e *Editor) Time() float64 { return e.time }
func (e *Editor) IsPlaying() bool { return e.playing }

// Duration returns the time of the latest keyframe in the document.
func (e *Editor) Duration() float64 {
	end := 0.0
	for i := range e.entities {
		ent := &e.entities[i]
		if n := len(ent.Keyframes); n > 0 {
			end = max(end, ent.Keyframes[n-1].Time)
		}
		for _, track := range ent.SegmentKeyframes {
			if n := len(track); n > 0 {
				end = max(end, track[n-1].Time)
			}
		}
	}
	return end
}

// --- Queries ---

func (e *Editor) scene() *engine.SceneGraph {
	if e.dirty || e.sceneGraph == nil || e.sceneTime != e.time {
		e.sceneGraph = engine.BuildSceneGraph(e.entities, e.time)
		e.sceneTime = e.time
		e.dirty = false
	}
	return e.sceneGraph
}

// DrawCommands returns the draw command buffer at the current time.
func (e *Editor) DrawCommands() []engine.DrawCommand {
	return engine.CompileDrawCommands(e.scene())
}

// Render evaluates the scene graph and returns draw commands as JSON.
func (e *Editor) Render() string {
	result, err := engine.DrawCommandsToJSON(e.DrawCommands())
	if err != nil {
		e.log.Error("encode draw commands", "error", err)
	}
	return result
}

// HitTest returns the topmost part under the canvas point (x, y) at the
// current time, using the configured tolerance.
func (e *Editor) HitTest(x, y float64) (engine.HitTestResult, bool) {
	return engine.HitTest(e.scene(), geom.Point{X: x, Y: y}, e.opts.HitTolerance)
}

// SelectionBounds returns the displayed bounding box of the selection.
func (e *Editor) SelectionBounds() geom.BBox {
	return engine.GetSelectionBounds(e.scene(), e.selection)
}

// PlaybackState is the clock as reported to the UI.
type PlaybackState struct {
	Time     float64 `json:"time"`
	Playing  bool    `json:"playing"`
	Duration float64 `json:"duration"`
}

// GetPlaybackState returns the current playback state as JSON.
func (e *Editor) GetPlaybackState() string {
	data, _ := json.Marshal(PlaybackState{Time: e.time, Playing: e.playing, Duration: e.Duration()})
	return string(data)
}
