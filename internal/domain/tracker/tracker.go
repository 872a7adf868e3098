// Package tracker maintains the set of active touch contacts.
//
// A Tracker is a plain data structure: it owns no timers and is not safe
// for concurrent use. Callers decide whether a batch may be applied at all.
package tracker

import (
	"github.com/okian/choozi/internal/domain/model"
)

// Tracker holds contacts keyed by id, in creation order, plus the palette
// cursor used to colour new contacts.
type Tracker struct {
	contacts []model.Contact
	index    map[string]int
	cursor   int
}

// New returns an empty tracker with the palette cursor at 0.
func New() *Tracker {
	return &Tracker{index: make(map[string]int)}
}

// Begin creates a contact for every valid touch whose id is not tracked yet
// and returns how many were created. Already tracked ids are left alone.
func (t *Tracker) Begin(touches []model.Touch) int {
	created := 0
	for _, touch := range touches {
		if !touch.Valid() {
			continue
		}
		if _, ok := t.index[touch.ID]; ok {
			continue
		}
		t.index[touch.ID] = len(t.contacts)
		t.contacts = append(t.contacts, model.Contact{
			ID:    touch.ID,
			X:     touch.X,
			Y:     touch.Y,
			Color: model.PaletteColor(t.cursor),
		})
		t.cursor++
		created++
	}
	return created
}

// Move updates the position of tracked contacts. Touches for unknown ids
// are dropped. It returns the number of contacts updated.
func (t *Tracker) Move(touches []model.Touch) int {
	moved := 0
	for _, touch := range touches {
		if !touch.Valid() {
			continue
		}
		i, ok := t.index[touch.ID]
		if !ok {
			continue
		}
		t.contacts[i].X = touch.X
		t.contacts[i].Y = touch.Y
		moved++
	}
	return moved
}

// End keeps only the contacts whose ids appear in survivors, the touches
// still reported as down, and returns how many contacts were removed.
func (t *Tracker) End(survivors []model.Touch) int {
	alive := make(map[string]struct{}, len(survivors))
	for _, touch := range survivors {
		if touch.HasID() {
			alive[touch.ID] = struct{}{}
		}
	}

	kept := t.contacts[:0]
	for _, c := range t.contacts {
		if _, ok := alive[c.ID]; ok {
			kept = append(kept, c)
		}
	}
	removed := len(t.contacts) - len(kept)
	if removed == 0 {
		return 0
	}
	// Zero the tail so dropped contacts are not retained by the backing array.
	for i := len(kept); i < len(t.contacts); i++ {
		t.contacts[i] = model.Contact{}
	}
	t.contacts = kept
	t.reindex()
	return removed
}

// Len returns the number of tracked contacts.
func (t *Tracker) Len() int {
	return len(t.contacts)
}

// Cursor returns the palette cursor.
func (t *Tracker) Cursor() int {
	return t.cursor
}

// Contacts returns a copy of the tracked contacts in creation order.
func (t *Tracker) Contacts() []model.Contact {
	out := make([]model.Contact, len(t.contacts))
	copy(out, t.contacts)
	return out
}

// Get returns the contact with the given id.
func (t *Tracker) Get(id string) (model.Contact, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Contact{}, false
	}
	return t.contacts[i], true
}

// Reset drops every contact and rewinds the palette cursor to 0.
func (t *Tracker) Reset() {
	t.contacts = nil
	t.index = make(map[string]int)
	t.cursor = 0
}

func (t *Tracker) reindex() {
	clear(t.index)
	for i, c := range t.contacts {
		t.index[c.ID] = i
	}
}
