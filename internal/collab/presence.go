package collab

import (
	"maps"
	"sync"
)

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresencePayload is what a client shares about itself: where its pointer
// is on the canvas and which tool it is using.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// Roster tracks the presence of the users in a room. A user may be
// connected more than once; the entry lives until the last connection goes.
type Roster struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // userID -> presence
	conns     map[string]int
}

func NewRoster() *Roster {
	return &Roster{
		presences: make(map[string]*PresencePayload),
		conns:     make(map[string]int),
	}
}

// Join counts a new connection for userID and reports whether it is the
// user's first.
func (r *Roster) Join(userID, displayName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID]++
	if r.conns[userID] > 1 {
		return false
	}
	r.presences[userID] = &PresencePayload{DisplayName: displayName}
	return true
}

// Leave drops one connection for userID and reports whether it was the last.
func (r *Roster) Leave(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] == 0 {
		return false
	}
	r.conns[userID]--
	if r.conns[userID] > 0 {
		return false
	}
	delete(r.conns, userID)
	delete(r.presences, userID)
	return true
}

// Update replaces the presence of a connected user.
func (r *Roster) Update(userID string, p *PresencePayload) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] == 0 {
		return false
	}
	r.presences[userID] = p
	return true
}

func (r *Roster) State() PresenceStatePayload {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PresenceStatePayload{Presences: maps.Clone(r.presences)}
}
