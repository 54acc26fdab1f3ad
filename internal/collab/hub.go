// Package collab shares one editing session per project over websockets.
// A room holds the authoritative editor; clients submit operations, receive
// an ack or nack, and every accepted operation is followed by a doc.sync
// broadcast of the room state.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/editor"
	"github.com/inamate/vecta/backend-go/internal/store"
	"github.com/inamate/vecta/backend-go/internal/typeid"
)

const storeTimeout = 5 * time.Second

// Store persists room documents. LoadLatest returns store.ErrNotFound for a
// project that has never been saved.
type Store interface {
	LoadLatest(ctx context.Context, projectID string) ([]document.Entity, error)
	SaveDocument(ctx context.Context, projectID string, entities []document.Entity) (string, error)
}

type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client
	state     *DocumentState
	roster    *Roster
}

func NewRoom(projectID string, state *DocumentState) *Room {
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		state:     state,
		roster:    NewRoster(),
	}
}

// Options configures a Hub.
type Options struct {
	Editor editor.Options
	// SaveInterval is how often dirty rooms are saved while occupied. Zero
	// saves only when a room empties and on Stop.
	SaveInterval time.Duration
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	store      Store
	opts       Options
}

// NewHub creates a hub. A nil store starts every room empty and never saves.
func NewHub(st Store, opts Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		store:      st,
		opts:       opts,
	}
}

// Run serves registrations until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var tick <-chan time.Time
	if h.opts.SaveInterval > 0 {
		ticker := time.NewTicker(h.opts.SaveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case <-tick:
			h.saveAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.shutdown()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop saves every room with unsaved changes. Call it after Run returns.
func (h *Hub) Stop(ctx context.Context) error {
	return h.saveAll(ctx)
}

func (h *Hub) openRoom(ctx context.Context, projectID string) (*Room, error) {
	if room, ok := h.rooms[projectID]; ok {
		return room, nil
	}

	var entities []document.Entity
	if h.store != nil {
		loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		loaded, err := h.store.LoadLatest(loadCtx, projectID)
		cancel()
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			entities = loaded
		}
	}

	room := NewRoom(projectID, NewDocumentState(entities, h.opts.Editor))
	h.mu.Lock()
	h.rooms[projectID] = room
	h.mu.Unlock()
	slog.Info("room opened", "project", projectID, "entities", len(entities))
	return room, nil
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	room, err := h.openRoom(ctx, client.ProjectID)
	if err != nil {
		slog.Error("open room", "error", err, "project", client.ProjectID)
		client.SendError("could not load project")
		client.shutdown()
		return
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()
	first := room.roster.Join(client.UserID, client.DisplayName)

	client.SendPayload(TypeWelcome, WelcomePayload{
		ClientID:  client.ClientID,
		UserID:    client.UserID,
		ServerSeq: room.state.Seq(),
	})
	if msg := syncMessage(room); msg != nil {
		client.Send(msg)
	}
	client.SendPayload(TypePresenceState, room.roster.State())

	if first {
		joinPayload, _ := json.Marshal(PresenceJoinPayload{
			UserID:      client.UserID,
			DisplayName: client.DisplayName,
		})
		h.broadcastToRoom(room, &Message{Type: TypePresenceJoin, UserID: client.UserID, Payload: joinPayload}, client.ClientID)
	}

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}
	delete(room.clients, client.ClientID)
	client.shutdown()
	empty := len(room.clients) == 0
	h.mu.Unlock()

	if room.state.ReleaseClient(client.ClientID) && !empty {
		h.broadcastSync(room)
	}
	if room.roster.Leave(client.UserID) && !empty {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		h.broadcastToRoom(room, &Message{Type: TypePresenceLeave, UserID: client.UserID, Payload: leavePayload}, "")
	}

	if empty {
		if err := h.saveRoom(ctx, room); err != nil {
			// keep the room open so the next save retries
			slog.Error("save document", "error", err, "project", room.projectID)
		} else {
			h.mu.Lock()
			delete(h.rooms, client.ProjectID)
			h.mu.Unlock()
			slog.Info("room closed", "project", client.ProjectID)
		}
	}

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) saveRoom(ctx context.Context, room *Room) error {
	if h.store == nil {
		return nil
	}
	entities, seq, ok := room.state.Unsaved()
	if !ok {
		return nil
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	id, err := h.store.SaveDocument(saveCtx, room.projectID, entities)
	if err != nil {
		return err
	}
	room.state.MarkSaved(seq)
	slog.Info("document saved", "project", room.projectID, "snapshot", id, "seq", seq)
	return nil
}

func (h *Hub) saveAll(ctx context.Context) error {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	var errs []error
	for _, r := range rooms {
		if err := h.saveRoom(ctx, r); err != nil {
			slog.Error("save document", "error", err, "project", r.projectID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) room(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[projectID]
	return room, ok
}

// LiveDocument returns the document of projectID while a room for it is
// open.
func (h *Hub) LiveDocument(projectID string) ([]document.Entity, bool) {
	room, ok := h.room(projectID)
	if !ok {
		return nil, false
	}
	return room.state.Entities(), true
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.SendError("unknown message type: " + msg.Type)
	}
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
		sender.SendError("invalid operation payload")
		return
	}
	room, ok := h.room(sender.ProjectID)
	if !ok {
		return
	}

	op := submit.Operation
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}
	result, err := room.state.ApplyOperation(sender.ClientID, op)
	if err != nil {
		slog.Debug("operation rejected", "error", err, "op", op.Type, "user", sender.UserID)
		sender.SendPayload(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()})
		return
	}

	sender.SendPayload(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       result.Seq,
		ServerTimestamp: GetServerTimestamp(),
		IDs:             result.IDs,
	})
	h.broadcastSync(room)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.ProjectID)
	if !ok || !room.roster.Update(sender.UserID, &presence) {
		return
	}

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(room, outMsg, sender.ClientID)
}

func syncMessage(room *Room) *Message {
	payload, err := room.state.Sync()
	if err != nil {
		slog.Error("build doc sync", "error", err, "project", room.projectID)
		return nil
	}
	msg, err := newMessage(TypeDocSync, payload)
	if err != nil {
		slog.Error("marshal doc sync", "error", err, "project", room.projectID)
		return nil
	}
	msg.ProjectID = room.projectID
	msg.Seq = payload.ServerSeq
	return msg
}

func (h *Hub) broadcastSync(room *Room) {
	if msg := syncMessage(room); msg != nil {
		h.broadcastToRoom(room, msg, "")
	}
}

// broadcastToRoom sends under the read lock so the client set is stable
// mid-broadcast. Send never blocks.
func (h *Hub) broadcastToRoom(room *Room, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
