// Package history records undoable snapshots of the entity list.
//
// Discrete edits call Record with the state before the change. Continuous
// pointer-driven edits call BeginLive once, mutate freely, and finish with
// exactly one Commit (one undo step, however long the drag) or Revert.
package history

import (
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/inamate/vecta/backend-go/internal/document"
)

// DefaultDepth is the number of undo steps kept when none is configured.
const DefaultDepth = 100

// Manager owns the undo and redo stacks. It is not safe for concurrent use.
type Manager struct {
	depth int
	undo  [][]document.Entity
	redo  [][]document.Entity

	live       bool
	liveBefore []document.Entity
}

// New returns a manager keeping at most depth undo steps.
func New(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{depth: depth}
}

// Snapshot returns a deep copy of entities that shares no memory with them.
func Snapshot(entities []document.Entity) []document.Entity {
	if entities == nil {
		return nil
	}
	var out []document.Entity
	if err := copier.CopyWithOption(&out, entities, copier.Option{DeepCopy: true}); err != nil {
		// Entities are plain data; copier only fails on unsupported kinds.
		panic(fmt.Sprintf("history: snapshot entities: %v", err))
	}
	return out
}

// Record pushes the state before a discrete edit and clears redo.
func (m *Manager) Record(before []document.Entity) {
	m.push(Snapshot(before))
}

func (m *Manager) push(snap []document.Entity) {
	m.undo = append(m.undo, snap)
	if over := len(m.undo) - m.depth; over > 0 {
		m.undo = append(m.undo[:0:0], m.undo[over:]...)
	}
	m.redo = nil
}

// BeginLive stores the pre-gesture state. It reports false if a live edit
// is already open, leaving the original snapshot in place.
func (m *Manager) BeginLive(before []document.Entity) bool {
	if m.live {
		return false
	}
	m.live = true
	m.liveBefore = Snapshot(before)
	return true
}

// Live reports whether a live edit is open.
func (m *Manager) Live() bool {
	return m.live
}

// Commit closes the live edit and pushes its pre-gesture snapshot as one
// undo step. It reports false when no live edit was open.
func (m *Manager) Commit() bool {
	if !m.live {
		return false
	}
	m.push(m.liveBefore)
	m.live = false
	m.liveBefore = nil
	return true
}

// Revert closes the live edit without recording it and returns the state to
// restore.
func (m *Manager) Revert() ([]document.Entity, bool) {
	if !m.live {
		return nil, false
	}
	before := m.liveBefore
	m.live = false
	m.liveBefore = nil
	return before, true
}

// Undo pops the last step, saving current for redo. On an empty stack it
// returns false and current is untouched.
func (m *Manager) Undo(current []document.Entity) ([]document.Entity, bool) {
	if len(m.undo) == 0 {
		return nil, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, Snapshot(current))
	return prev, true
}

// Redo re-applies the last undone step, saving current for undo.
func (m *Manager) Redo(current []document.Entity) ([]document.Entity, bool) {
	if len(m.redo) == 0 {
		return nil, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, Snapshot(current))
	return next, true
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the number of undo steps currently held.
func (m *Manager) Depth() int { return len(m.undo) }

// Reset drops all history, including an open live edit.
func (m *Manager) Reset() {
	m.undo, m.redo = nil, nil
	m.live = false
	m.liveBefore = nil
}
