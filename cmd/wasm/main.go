//go:build js && wasm

package main

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/editor"
	"github.com/inamate/vecta/backend-go/internal/export"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/pathdata"
)

var ed *editor.Editor

func main() {
	ed = editor.New(editor.DefaultOptions())

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → editor) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("importSVG", js.FuncOf(importSVG))
	api.Set("play", js.FuncOf(play))
	api.Set("pause", js.FuncOf(pause))
	api.Set("togglePlay", js.FuncOf(togglePlay))
	api.Set("seek", js.FuncOf(seek))
	api.Set("tick", js.FuncOf(tick))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("setFocus", js.FuncOf(setFocus))
	api.Set("finishStroke", js.FuncOf(finishStroke))
	api.Set("deleteSelection", js.FuncOf(deleteSelection))
	api.Set("setStyle", js.FuncOf(setStyle))
	api.Set("setAnimation", js.FuncOf(setAnimation))
	api.Set("setSymmetry", js.FuncOf(setSymmetry))
	api.Set("setTension", js.FuncOf(setTension))
	api.Set("beginLive", js.FuncOf(beginLive))
	api.Set("moveSelection", js.FuncOf(moveSelection))
	api.Set("rotateSelection", js.FuncOf(rotateSelection))
	api.Set("scaleSelection", js.FuncOf(scaleSelection))
	api.Set("dragPivot", js.FuncOf(dragPivot))
	api.Set("moveVertex", js.FuncOf(moveVertex))
	api.Set("endGesture", js.FuncOf(endGesture))
	api.Set("addKeyframe", js.FuncOf(addKeyframe))
	api.Set("updateKeyframe", js.FuncOf(updateKeyframe))
	api.Set("deleteKeyframe", js.FuncOf(deleteKeyframe))
	api.Set("merge", js.FuncOf(merge))
	api.Set("split", js.FuncOf(split))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))

	// --- Queries (frontend ← editor) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getSelectionStyle", js.FuncOf(getSelectionStyle))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getHistoryState", js.FuncOf(getHistoryState))
	api.Set("exportSVG", js.FuncOf(exportSVG))
	api.Set("draftPreview", js.FuncOf(draftPreview))
	api.Set("parsePathData", js.FuncOf(parsePathData))

	js.Global().Set("vectaEditor", api)

	// Signal that WASM is ready
	js.Global().Set("vectaWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func result(err error) interface{} {
	if err != nil {
		return fail(err)
	}
	return ok()
}

func stringArg(args []js.Value, i int) (string, bool) {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return "", false
	}
	return args[i].String(), true
}

func floatArgs(args []js.Value, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = args[i].Float()
	}
	return out, true
}

// decodeArg unmarshals the JSON string passed at args[i].
func decodeArg[T any](args []js.Value, i int) (T, bool) {
	var v T
	s, present := stringArg(args, i)
	if !present {
		return v, false
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, false
	}
	return v, true
}

func jsonString(v any) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	s, present := stringArg(args, 0)
	if !present {
		return missing("document JSON")
	}
	return result(ed.LoadJSON([]byte(s)))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	ed.LoadSampleDocument()
	return ok()
}

// importSVG adds the shapes of an SVG document and returns their ids.
func importSVG(this js.Value, args []js.Value) interface{} {
	s, present := stringArg(args, 0)
	if !present {
		return missing("svg source")
	}
	entities, err := pathdata.ImportSVG(strings.NewReader(s))
	if err != nil {
		return fail(err)
	}
	ids := make([]string, 0, len(entities))
	for _, ent := range entities {
		ids = append(ids, ed.AddEntity(ent))
	}
	return jsonString(ids)
}

func play(this js.Value, args []js.Value) interface{} {
	ed.Play()
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	ed.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	ed.TogglePlay()
	return nil
}

func seek(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	ed.Seek(args[0].Float())
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	delta := 0.0
	if len(args) > 0 {
		delta = args[0].Float()
	}
	return js.ValueOf(ed.Tick(delta))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		ed.Select(nil)
		return nil
	}

	arr := args[0]
	ids := make([]string, arr.Length())
	for i := range ids {
		ids[i] = arr.Index(i).String()
	}
	ed.Select(ids)
	return nil
}

func setFocus(this js.Value, args []js.Value) interface{} {
	seg := document.WholeEntity.Segment
	if len(args) > 0 {
		seg = args[0].Int()
	}
	return result(ed.SetFocus(document.Focus{Segment: seg}))
}

// finishStroke takes a JSON point array and returns the new entity ids.
func finishStroke(this js.Value, args []js.Value) interface{} {
	points, present := decodeArg[[]geom.Point](args, 0)
	if !present {
		return missing("stroke points")
	}
	closed := len(args) > 1 && args[1].Truthy()
	return jsonString(ed.FinishStroke(points, closed))
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.DeleteSelection())
}

func setStyle(this js.Value, args []js.Value) interface{} {
	patch, present := decodeArg[editor.StylePatch](args, 0)
	if !present {
		return missing("style patch")
	}
	ed.SetStyle(patch)
	return ok()
}

// setAnimation accepts an animation JSON object, or null to clear it. With
// nothing selected it sets the animation of future strokes.
func setAnimation(this js.Value, args []js.Value) interface{} {
	anim, _ := decodeArg[*document.Animation](args, 0)
	ed.SetAnimation(anim)
	return ok()
}

func setSymmetry(this js.Value, args []js.Value) interface{} {
	s, present := decodeArg[geom.Symmetry](args, 0)
	if !present {
		return missing("symmetry settings")
	}
	ed.SetSymmetry(s)
	return ok()
}

func setTension(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("tension")
	}
	ed.SetTension(args[0].Float())
	return js.ValueOf(ed.Tension())
}

func beginLive(this js.Value, args []js.Value) interface{} {
	return result(ed.BeginLive())
}

func moveSelection(this js.Value, args []js.Value) interface{} {
	v, present := floatArgs(args, 2)
	if !present {
		return missing("delta")
	}
	return result(ed.MoveSelection(v[0], v[1]))
}

func rotateSelection(this js.Value, args []js.Value) interface{} {
	v, present := floatArgs(args, 1)
	if !present {
		return missing("degrees")
	}
	return result(ed.RotateSelection(v[0]))
}

func scaleSelection(this js.Value, args []js.Value) interface{} {
	v, present := floatArgs(args, 2)
	if !present {
		return missing("scale factors")
	}
	return result(ed.ScaleSelection(v[0], v[1]))
}

func dragPivot(this js.Value, args []js.Value) interface{} {
	v, present := floatArgs(args, 2)
	if !present {
		return missing("delta")
	}
	return result(ed.DragPivot(v[0], v[1]))
}

// moveVertex(entityId, segment, index, x, y)
func moveVertex(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return missing("vertex arguments")
	}
	return result(ed.MoveVertex(args[0].String(), args[1].Int(), args[2].Int(), args[3].Float(), args[4].Float()))
}

func endGesture(this js.Value, args []js.Value) interface{} {
	commit := len(args) == 0 || args[0].Truthy()
	ed.EndGesture(commit)
	return nil
}

func addKeyframe(this js.Value, args []js.Value) interface{} {
	easing := document.EasingLinear
	if s, present := stringArg(args, 0); present {
		easing = document.EasingType(s)
	}
	ids, err := ed.AddKeyframe(easing)
	if err != nil {
		return fail(err)
	}
	return jsonString(ids)
}

// updateKeyframe(entityId, keyframeId, patchJSON)
func updateKeyframe(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("keyframe arguments")
	}
	patch, present := decodeArg[editor.KeyframePatch](args, 2)
	if !present {
		return missing("keyframe patch")
	}
	return result(ed.UpdateKeyframe(args[0].String(), args[1].String(), patch))
}

func deleteKeyframe(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("keyframe arguments")
	}
	return result(ed.DeleteKeyframe(args[0].String(), args[1].String()))
}

func merge(this js.Value, args []js.Value) interface{} {
	id, merged := ed.Merge()
	if !merged {
		return js.ValueOf("")
	}
	return js.ValueOf(id)
}

func split(this js.Value, args []js.Value) interface{} {
	ids, _ := ed.Split()
	return jsonString(ids)
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.Redo())
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	v, present := floatArgs(args, 2)
	if !present {
		return js.ValueOf("null")
	}
	hit, found := ed.HitTest(v[0], v[1])
	if !found {
		return js.ValueOf("null")
	}
	return jsonString(hit)
}

// draftPreview returns the in-progress stroke as polyline paths, one per
// symmetry variant.
func draftPreview(this js.Value, args []js.Value) interface{} {
	points, present := decodeArg[[]geom.Point](args, 0)
	if !present {
		return missing("stroke points")
	}
	return jsonString(ed.DraftPreview(points))
}

// parsePathData flattens an SVG "d" string into point lists per subpath.
func parsePathData(this js.Value, args []js.Value) interface{} {
	d, present := stringArg(args, 0)
	if !present {
		return missing("path data")
	}
	return jsonString(pathdata.ParsePoints(d))
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return jsonString(ed.SelectionBounds())
}

func getSelectionStyle(this js.Value, args []js.Value) interface{} {
	return jsonString(ed.SelectionStyle())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return jsonString(ed.Selection())
}

func getPlaybackState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ed.GetPlaybackState())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	data, err := ed.DocumentJSON()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func getHistoryState(this js.Value, args []js.Value) interface{} {
	return jsonString(map[string]bool{"canUndo": ed.CanUndo(), "canRedo": ed.CanRedo()})
}

// exportSVG renders the document at the current clock time.
func exportSVG(this js.Value, args []js.Value) interface{} {
	var b strings.Builder
	if err := export.WriteSVG(&b, ed.Entities(), ed.Time(), export.DefaultOptions()); err != nil {
		return fail(err)
	}
	return js.ValueOf(b.String())
}
