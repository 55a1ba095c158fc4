package availability

import (
	"fmt"
	"strconv"
	"time"
)

// Entry carries a menu item's availability across a service boundary.
// Both fields are nullable on the wire; a nil Available means the kitchen
// has not reported a value for the item.
type Entry struct {
	MenuItemID *int64 `json:"menuItemId"`
	Available  *bool  `json:"available"`
}

// NewEntry builds an entry from both fields. Either may be nil.
func NewEntry(menuItemID *int64, available *bool) Entry {
	return Entry{MenuItemID: menuItemID, Available: available}
}

func (e Entry) GetMenuItemID() *int64 {
	return e.MenuItemID
}

func (e Entry) GetAvailable() *bool {
	return e.Available
}

func (e *Entry) SetMenuItemID(id *int64) {
	e.MenuItemID = id
}

func (e *Entry) SetAvailable(available *bool) {
	e.Available = available
}

// WithMenuItemID returns a copy of e with the id replaced.
func (e Entry) WithMenuItemID(id int64) Entry {
	e.MenuItemID = &id
	return e
}

// WithAvailable returns a copy of e with availability replaced.
func (e Entry) WithAvailable(available bool) Entry {
	e.Available = &available
	return e
}

// IsAvailable treats an unreported value the same as false.
func (e Entry) IsAvailable() bool {
	return e.Available != nil && *e.Available
}

// State reports the raw tri-state, keeping "known unavailable" apart from
// "never reported".
func (e Entry) State() State {
	switch {
	case e.Available == nil:
		return StateUnknown
	case *e.Available:
		return StateAvailable
	default:
		return StateUnavailable
	}
}

// Equal compares by value. Two absent fields are equal; an absent field
// never equals a present one.
func (e Entry) Equal(o Entry) bool {
	return equalPtr(e.MenuItemID, o.MenuItemID) && equalPtr(e.Available, o.Available)
}

func (e Entry) String() string {
	id := "null"
	if e.MenuItemID != nil {
		id = strconv.FormatInt(*e.MenuItemID, 10)
	}
	available := "null"
	if e.Available != nil {
		available = strconv.FormatBool(*e.Available)
	}
	return fmt.Sprintf("Entry(menuItemId=%s, available=%s)", id, available)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --------------------------------------------------
// Tri-state
// --------------------------------------------------

type State int

const (
	StateUnknown State = iota
	StateAvailable
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ParseState maps a query value onto a State. ok is false for anything
// that is not one of the three names.
func ParseState(v string) (State, bool) {
	switch v {
	case "available":
		return StateAvailable, true
	case "unavailable":
		return StateUnavailable, true
	case "unknown":
		return StateUnknown, true
	}
	return StateUnknown, false
}

// --------------------------------------------------
// Persisted form
// --------------------------------------------------

// Record is an entry as stored, with audit columns.
type Record struct {
	Entry
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// View is the HTTP response shape for a single item.
type View struct {
	MenuItemID  *int64     `json:"menuItemId"`
	Available   *bool      `json:"available"`
	IsAvailable bool       `json:"isAvailable"`
	State       string     `json:"state"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
}

func NewView(e Entry, rec *Record) View {
	v := View{
		MenuItemID:  e.MenuItemID,
		Available:   e.Available,
		IsAvailable: e.IsAvailable(),
		State:       e.State().String(),
	}
	if rec != nil {
		updatedAt := rec.UpdatedAt
		v.UpdatedAt = &updatedAt
		v.UpdatedBy = rec.UpdatedBy
	}
	return v
}

// SnapshotResult describes an exported availability snapshot.
type SnapshotResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	ItemCount  int       `json:"item_count"`
	ExportedAt time.Time `json:"exported_at"`
}

func ItemID(v int64) *int64 {
	return &v
}

func Bool(v bool) *bool {
	return &v
}
