package core

import (
	"time"
)

// Operation is the calendar action a parsed message asks for.
type Operation int

const (
	// Could not be classified
	OpUnknown Operation = iota
	// Create a new event
	OpAdd
	// Remove matching events
	OpDelete
	// Move or resize an existing event
	OpUpdate
	// List events / free time
	OpRead
)

func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	case OpUpdate:
		return "update"
	case OpRead:
		return "read"
	default:
		return "unknown"
	}
}

// All backends (Google, Outlook, etc.) convert their data to this format.
type Event struct {
	// Unique ID (assigned by the backend)
	ID string
	// Details
	Title       string
	Description string
	Location    string
	// Timing, always zoned
	Start time.Time
	End   time.Time
	// AllDay events carry date-only timing on the backends
	AllDay bool
	// RRULE string ("RRULE:FREQ=WEEKLY;BYDAY=MO"), empty for one-off events
	Recurrence string
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the event intersects [start, end).
// Half-open semantics: back-to-back events do not overlap.
func (e Event) Overlaps(start, end time.Time) bool {
	return e.Start.Before(end) && e.End.After(start)
}

// FreeSlot is a gap between events, derived and never persisted.
type FreeSlot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// TimeRange is the span a message refers to.
type TimeRange struct {
	Start time.Time
	End   time.Time
	// DateOnly means no clock time was given and the range covers
	// the whole calendar unit (day, week, month).
	DateOnly bool
}

// Result is what an executed command hands to the presentation layer.
type Result struct {
	OK      bool
	Op      Operation
	Message string
	// Events listed, created, updated, conflicting, or ambiguous
	Events []Event
	// Free time for read operations over a single day
	Slots []FreeSlot
	Err   error
}
