package collab

import (
	"encoding/json"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/editor"
	"github.com/inamate/vecta/backend-go/internal/geom"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

// Operation types accepted in op.submit.
const (
	OpEntityCreate    = "entity.create"
	OpEntityDelete    = "entity.delete"
	OpEntityStyle     = "entity.style"
	OpEntityAnimation = "entity.animation"
	OpSelectionSet    = "selection.set"
	OpFocusSet        = "focus.set"

	OpLiveBegin  = "live.begin"
	OpLiveMove   = "live.move"
	OpLiveRotate = "live.rotate"
	OpLiveScale  = "live.scale"
	OpLivePivot  = "live.pivot"
	OpLiveVertex = "live.vertex"
	OpLiveCommit = "live.commit"
	OpLiveRevert = "live.revert"

	OpKeyframeAdd    = "keyframe.add"
	OpKeyframeUpdate = "keyframe.update"
	OpKeyframeDelete = "keyframe.delete"

	OpEntitiesMerge = "entities.merge"
	OpEntitySplit   = "entity.split"
	OpHistoryUndo   = "history.undo"
	OpHistoryRedo   = "history.redo"

	OpSymmetrySet  = "symmetry.set"
	OpTensionSet   = "tension.set"
	OpStrokeFinish = "stroke.finish"
	OpClockSeek    = "clock.seek"
)

// Operation is one editing command submitted by a client.
type Operation struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ClientSeq int64           `json:"clientSeq"`
	Payload   json.RawMessage `json:"payload,omitempty"` // Type-specific data
}

// --- Operation payloads ---

// ShapePayload is used by entity.create and stroke.finish.
type ShapePayload struct {
	Points []geom.Point `json:"points"`
	Closed bool         `json:"closed"`
}

// IDsPayload is used by entity.delete and selection.set. An empty delete
// removes the selection.
type IDsPayload struct {
	IDs []string `json:"ids"`
}

type AnimationPayload struct {
	Animation *document.Animation `json:"animation"`
}

type DeltaPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type RotatePayload struct {
	Degrees float64 `json:"degrees"`
}

type ScalePayload struct {
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
}

type VertexPayload struct {
	EntityID string  `json:"entityId"`
	Segment  int     `json:"segment"`
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type KeyframeAddPayload struct {
	Easing document.EasingType `json:"easing"`
}

type KeyframeRefPayload struct {
	EntityID   string               `json:"entityId"`
	KeyframeID string               `json:"keyframeId"`
	Patch      editor.KeyframePatch `json:"patch"`
}

type TensionPayload struct {
	Tension float64 `json:"tension"`
}

type SeekPayload struct {
	Time float64 `json:"time"`
}

// --- Server messages ---

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages. IDs lists the
// entities or keyframes the operation created, if any.
type OperationAckPayload struct {
	OperationID     string   `json:"operationId"`
	ServerSeq       int64    `json:"serverSeq"`
	ServerTimestamp int64    `json:"serverTimestamp"`
	IDs             []string `json:"ids,omitempty"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// DocSyncPayload carries the full room state after every accepted operation.
type DocSyncPayload struct {
	ServerSeq int64                  `json:"serverSeq"`
	Entities  json.RawMessage        `json:"entities"`
	Selection []string               `json:"selection"`
	Focus     document.Focus         `json:"focus"`
	Time      float64                `json:"time"`
	Symmetry  geom.Symmetry          `json:"symmetry"`
	Tension   float64                `json:"tension"`
	CanUndo   bool                   `json:"canUndo"`
	CanRedo   bool                   `json:"canRedo"`
	LiveOwner string                 `json:"liveOwner,omitempty"`
	Style     editor.StyleProjection `json:"style"`
}

type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// newMessage marshals payload into a message of the given type.
func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
