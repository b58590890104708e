package core

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a store failure as transient. Backends wrap
// timeouts and 5xx-class responses with it so the retry policy can tell
// them apart from validation failures, which must never be retried.
var ErrUnavailable = errors.New("calendar backend unavailable")

// Store represents a remote calendar backend (Google, Outlook, etc).
// All calls should block until done or context is cancelled.
//
// None of the mutations are assumed to be idempotent: retrying a create
// may duplicate the event, so callers must only retry failures they can
// classify as transient.
type Store interface {
	// ListEvents returns events overlapping the backend's superset match
	// of [min, max), sorted by start time.
	ListEvents(ctx context.Context, min, max time.Time) ([]Event, error)
	// CreateEvent inserts the event and returns it with its assigned ID.
	CreateEvent(ctx context.Context, ev Event) (Event, error)
	// UpdateEvent rewrites the identified event's mutable fields.
	UpdateEvent(ctx context.Context, id string, ev Event) (Event, error)
	// DeleteEvent removes the identified event.
	DeleteEvent(ctx context.Context, id string) error
}

// Provider identifies a configured calendar backend.
type Provider interface {
	// ID returns the unique identifier from the config (e.g. "work_calendar")
	ID() string
	// Name returns a human-readable label (e.g. "Work Account")
	Name() string
}
