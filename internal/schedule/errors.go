package schedule

import (
	"errors"
	"fmt"

	"github.com/skawahara/yotei/internal/core"
)

// ErrNotFound means a delete or update matched zero events.
var ErrNotFound = errors.New("no matching event")

// ValidationError is structurally invalid input: end before start after
// all adjustments, or an add starting in the past. Fatal to the single
// request, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError means an add or update would overlap existing events.
// The operation is aborted; no partial write happens.
type ConflictError struct {
	Conflicts []core.Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d overlapping events", len(e.Conflicts))
}

// AmbiguousMatchError means an update found several candidate events
// and refuses to guess.
type AmbiguousMatchError struct {
	Candidates []core.Event
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d candidate events match", len(e.Candidates))
}

// TransientError wraps a store failure that survived the whole retry
// budget. The caller must not retry further.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("calendar service unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
