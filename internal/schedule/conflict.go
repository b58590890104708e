package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/skawahara/yotei/internal/core"
)

// The backend's time filter is a superset match, not an exact overlap
// filter, so the search window is padded beyond the candidate interval.
const overlapPadding = time.Hour

// FindOverlaps returns the events whose interval intersects
// [start, end), ordered by start time. excludeID removes the event
// being updated from consideration; without it every update would
// conflict with itself.
func (e *Engine) FindOverlaps(ctx context.Context, start, end time.Time, excludeID string) ([]core.Event, error) {
	events, err := e.listEvents(ctx, start.Add(-overlapPadding), end.Add(overlapPadding))
	if err != nil {
		return nil, err
	}
	return Overlapping(events, start, end, excludeID), nil
}

// Overlapping applies the half-open overlap rule to an event list.
// Pure; the remote query lives in FindOverlaps.
func Overlapping(events []core.Event, start, end time.Time, excludeID string) []core.Event {
	var out []core.Event
	for _, ev := range events {
		if excludeID != "" && ev.ID == excludeID {
			continue
		}
		if ev.Overlaps(start, end) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// FreeSlots walks events sorted by start time and collects the gaps of
// at least minDur inside [start, end), including the boundaries. A day
// with no events yields one slot covering the whole range; a fully
// packed day yields none.
func FreeSlots(start, end time.Time, events []core.Event, minDur time.Duration) []core.FreeSlot {
	sorted := make([]core.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var slots []core.FreeSlot
	cursor := start
	for _, ev := range sorted {
		if ev.Start.After(cursor) {
			gap := ev.Start.Sub(cursor)
			if gap >= minDur {
				slots = append(slots, core.FreeSlot{Start: cursor, End: ev.Start, Duration: gap})
			}
		}
		if ev.End.After(cursor) {
			cursor = ev.End
		}
	}
	if end.After(cursor) {
		gap := end.Sub(cursor)
		if gap >= minDur {
			slots = append(slots, core.FreeSlot{Start: cursor, End: end, Duration: gap})
		}
	}
	return slots
}
