package collab

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/editor"
	"github.com/inamate/vecta/backend-go/internal/geom"
	"github.com/inamate/vecta/backend-go/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	docs    map[string][]document.Entity
	saves   int
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]document.Entity{}}
}

func (m *memStore) LoadLatest(_ context.Context, projectID string) ([]document.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	doc, ok := m.docs[projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (m *memStore) SaveDocument(_ context.Context, projectID string, entities []document.Entity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[projectID] = entities
	m.saves++
	return "snap_test", nil
}

func testClient(h *Hub, user, project string) *Client {
	c := &Client{
		hub:         h,
		send:        make(chan []byte, sendBuffer),
		UserID:      user,
		DisplayName: user,
		ProjectID:   project,
		ClientID:    "client-" + user,
	}
	return c
}

// drain returns the queued message types and the last doc.sync payload.
func drain(t *testing.T, c *Client) ([]string, *DocSyncPayload) {
	t.Helper()
	var types []string
	var last *DocSyncPayload
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return types, last
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			types = append(types, msg.Type)
			if msg.Type == TypeDocSync {
				var p DocSyncPayload
				require.NoError(t, json.Unmarshal(msg.Payload, &p))
				last = &p
			}
		default:
			return types, last
		}
	}
}

func submit(t *testing.T, h *Hub, c *Client, o Operation) {
	t.Helper()
	payload, err := json.Marshal(OperationSubmitPayload{Operation: o})
	require.NoError(t, err)
	h.handleMessage(c, &Message{Type: TypeOpSubmit, Payload: payload})
}

func TestHubJoinLoadsAndSyncs(t *testing.T) {
	st := newMemStore()
	st.docs["proj_a"] = document.NewSampleDocument()
	h := NewHub(st, Options{Editor: editor.DefaultOptions()})
	ctx := context.Background()

	alice := testClient(h, "alice", "proj_a")
	h.addClient(ctx, alice)
	types, doc := drain(t, alice)
	assert.Equal(t, []string{TypeWelcome, TypeDocSync, TypePresenceState}, types)
	require.NotNil(t, doc)
	ents, err := document.Decode(doc.Entities)
	require.NoError(t, err)
	assert.Len(t, ents, 3)

	bob := testClient(h, "bob", "proj_a")
	h.addClient(ctx, bob)
	drain(t, bob)
	types, _ = drain(t, alice)
	assert.Equal(t, []string{TypePresenceJoin}, types)
}

func TestHubOperationAckAndBroadcast(t *testing.T) {
	h := NewHub(newMemStore(), Options{Editor: editor.DefaultOptions()})
	ctx := context.Background()
	alice := testClient(h, "alice", "proj_a")
	bob := testClient(h, "bob", "proj_a")
	h.addClient(ctx, alice)
	h.addClient(ctx, bob)
	drain(t, alice)
	drain(t, bob)

	submit(t, h, alice, op(t, OpEntityCreate, ShapePayload{Points: []geom.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}}))
	types, _ := drain(t, alice)
	assert.Equal(t, []string{TypeOpAck, TypeDocSync}, types)
	types, doc := drain(t, bob)
	assert.Equal(t, []string{TypeDocSync}, types)
	require.NotNil(t, doc)
	assert.Equal(t, int64(1), doc.ServerSeq)

	submit(t, h, bob, Operation{ID: "x", Type: "bogus"})
	types, _ = drain(t, bob)
	assert.Equal(t, []string{TypeOpNack}, types)
	types, _ = drain(t, alice)
	assert.Empty(t, types)

	h.handleMessage(bob, &Message{Type: "nope"})
	types, _ = drain(t, bob)
	assert.Equal(t, []string{TypeError}, types)
}

func TestHubLeaveCommitsAndSaves(t *testing.T) {
	st := newMemStore()
	h := NewHub(st, Options{Editor: editor.DefaultOptions()})
	ctx := context.Background()
	alice := testClient(h, "alice", "proj_a")
	bob := testClient(h, "bob", "proj_a")
	h.addClient(ctx, alice)
	h.addClient(ctx, bob)

	submit(t, h, alice, op(t, OpEntityCreate, ShapePayload{Points: []geom.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}}))
	room, ok := h.room("proj_a")
	require.True(t, ok)
	doc, err := room.state.Sync()
	require.NoError(t, err)
	ents, err := document.Decode(doc.Entities)
	require.NoError(t, err)
	submit(t, h, alice, op(t, OpSelectionSet, IDsPayload{IDs: []string{ents[0].ID}}))
	submit(t, h, alice, op(t, OpLiveBegin, nil))
	submit(t, h, alice, op(t, OpLiveMove, DeltaPayload{DX: 10, DY: 10}))
	drain(t, bob)

	h.removeClient(ctx, alice)
	types, after := drain(t, bob)
	assert.Equal(t, []string{TypeDocSync, TypePresenceLeave}, types)
	require.NotNil(t, after)
	assert.True(t, after.CanUndo)
	assert.Empty(t, after.LiveOwner)
	assert.Equal(t, 0, st.saves, "room still occupied")

	h.removeClient(ctx, bob)
	assert.Equal(t, 1, st.saves)
	require.Len(t, st.docs["proj_a"], 1)
	require.NotNil(t, st.docs["proj_a"][0].Transform)
	assert.Equal(t, 10.0, st.docs["proj_a"][0].Transform.X)
	_, ok = h.room("proj_a")
	assert.False(t, ok)

	// a second unregister of the same client is ignored
	h.removeClient(ctx, bob)
}

func TestHubLoadFailureRejectsClient(t *testing.T) {
	st := newMemStore()
	st.loadErr = errors.New("db down")
	h := NewHub(st, Options{})
	alice := testClient(h, "alice", "proj_a")
	h.addClient(context.Background(), alice)

	types, _ := drain(t, alice)
	assert.Equal(t, []string{TypeError}, types)
	_, open := <-alice.send
	assert.False(t, open)
	_, ok := h.room("proj_a")
	assert.False(t, ok)

	// the read side may still deliver messages before the socket closes
	assert.NotPanics(t, func() {
		h.handleMessage(alice, &Message{Type: "bogus"})
		alice.SendError("late")
		h.removeClient(context.Background(), alice)
	})
}

func TestHubRegisterAfterStopRejectsClient(t *testing.T) {
	h := NewHub(nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	alice := testClient(h, "alice", "proj_a")
	h.Register(alice)
	_, open := <-alice.send
	assert.False(t, open)
	assert.NotPanics(t, func() {
		alice.SendPayload(TypeError, ErrorPayload{Message: "late"})
		h.Register(alice)
	})
}

func TestHubStopSavesDirtyRooms(t *testing.T) {
	st := newMemStore()
	h := NewHub(st, Options{Editor: editor.DefaultOptions()})
	ctx := context.Background()
	alice := testClient(h, "alice", "proj_a")
	h.addClient(ctx, alice)
	carol := testClient(h, "carol", "proj_b")
	h.addClient(ctx, carol)

	submit(t, h, alice, op(t, OpEntityCreate, ShapePayload{Points: []geom.Point{{X: 1, Y: 1}}}))
	require.NoError(t, h.Stop(ctx))
	assert.Equal(t, 1, st.saves, "only the changed room is saved")
	require.NoError(t, h.Stop(ctx))
	assert.Equal(t, 1, st.saves)
}

func TestRoster(t *testing.T) {
	r := NewRoster()
	assert.True(t, r.Join("u1", "One"))
	assert.False(t, r.Join("u1", "One"), "second tab")
	assert.False(t, r.Update("u2", &PresencePayload{}))
	assert.True(t, r.Update("u1", &PresencePayload{Cursor: &CursorPos{X: 3, Y: 4}}))

	state := r.State()
	require.Contains(t, state.Presences, "u1")
	assert.Equal(t, 3.0, state.Presences["u1"].Cursor.X)

	assert.False(t, r.Leave("u1"))
	assert.True(t, r.Leave("u1"))
	assert.False(t, r.Leave("u1"))
	assert.Empty(t, r.State().Presences)
}

func TestHubLiveDocument(t *testing.T) {
	st := newMemStore()
	st.docs["proj_a"] = document.NewSampleDocument()
	h := NewHub(st, Options{Editor: editor.DefaultOptions()})

	_, ok := h.LiveDocument("proj_a")
	assert.False(t, ok, "no room yet")

	alice := testClient(h, "alice", "proj_a")
	h.addClient(context.Background(), alice)
	doc, ok := h.LiveDocument("proj_a")
	require.True(t, ok)
	assert.Len(t, doc, 3)

	h.removeClient(context.Background(), alice)
	_, ok = h.LiveDocument("proj_a")
	assert.False(t, ok)
}

func TestHubAssignsMissingOperationID(t *testing.T) {
	h := NewHub(nil, Options{Editor: editor.DefaultOptions()})
	alice := testClient(h, "alice", "proj_a")
	h.addClient(context.Background(), alice)
	drain(t, alice)

	submit(t, h, alice, Operation{Type: OpSelectionSet})
	var msg Message
	require.NoError(t, json.Unmarshal(<-alice.send, &msg))
	require.Equal(t, TypeOpAck, msg.Type)
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &ack))
	assert.True(t, strings.HasPrefix(ack.OperationID, "op_"), ack.OperationID)
}
