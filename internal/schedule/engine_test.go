package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/nlp"
)

// fakeStore is an in-memory core.Store with injectable per-call list
// failures and call counters.
type fakeStore struct {
	events []core.Event
	nextID int

	listErrs    []error
	listCalls   int
	createCalls int
}

func (s *fakeStore) ListEvents(_ context.Context, min, max time.Time) ([]core.Event, error) {
	s.listCalls++
	if len(s.listErrs) > 0 {
		err := s.listErrs[0]
		s.listErrs = s.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	var out []core.Event
	for _, ev := range s.events {
		if ev.Overlaps(min, max) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateEvent(_ context.Context, ev core.Event) (core.Event, error) {
	s.createCalls++
	s.nextID++
	ev.ID = fmt.Sprintf("ev%d", s.nextID)
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *fakeStore) UpdateEvent(_ context.Context, id string, ev core.Event) (core.Event, error) {
	for i := range s.events {
		if s.events[i].ID == id {
			ev.ID = id
			s.events[i] = ev
			return ev, nil
		}
	}
	return core.Event{}, fmt.Errorf("update %s: not found", id)
}

func (s *fakeStore) DeleteEvent(_ context.Context, id string) error {
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s: not found", id)
}

func fixedNow() time.Time {
	return at(10, 0)
}

func testEngine(store *fakeStore) *Engine {
	return NewEngine(store,
		WithClock(fixedNow),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts:      3,
			InitialInterval:  time.Millisecond,
			Multiplier:       1.5,
			AttemptTimeout:   100 * time.Millisecond,
			OperationTimeout: time.Second,
		}))
}

func fullDay() core.TimeRange {
	return core.TimeRange{Start: at(0, 0), End: at(0, 0).AddDate(0, 0, 1), DateOnly: true}
}

func TestExecuteAdd(t *testing.T) {
	store := &fakeStore{}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpAdd,
		Range: core.TimeRange{Start: at(15, 0), End: at(16, 0)},
		Title: "会議",
	})

	require.True(t, res.OK)
	assert.Equal(t, "予定を追加しました：会議", res.Message)
	require.Len(t, store.events, 1)
	assert.Equal(t, "ev1", store.events[0].ID)
	assert.Equal(t, at(15, 0), store.events[0].Start)
}

func TestExecuteAddConflict(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "レビュー", Start: at(15, 0), End: at(16, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpAdd,
		Range: core.TimeRange{Start: at(15, 30), End: at(16, 30)},
		Title: "会議",
	})

	assert.False(t, res.OK)
	var conflict *ConflictError
	require.ErrorAs(t, res.Err, &conflict)
	assert.Len(t, conflict.Conflicts, 1)
	assert.Len(t, store.events, 1, "nothing written on conflict")
	assert.Zero(t, store.createCalls)
}

func TestExecuteAddValidation(t *testing.T) {
	t.Run("past start", func(t *testing.T) {
		store := &fakeStore{}
		res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
			Op:    core.OpAdd,
			Range: core.TimeRange{Start: at(9, 0), End: at(10, 0)},
			Title: "会議",
		})
		assert.False(t, res.OK)
		var verr *ValidationError
		assert.ErrorAs(t, res.Err, &verr)
		assert.Zero(t, store.listCalls, "validation happens before any store call")
	})

	t.Run("inverted range", func(t *testing.T) {
		store := &fakeStore{}
		res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
			Op:    core.OpAdd,
			Range: core.TimeRange{Start: at(16, 0), End: at(15, 0)},
			Title: "会議",
		})
		assert.False(t, res.OK)
		var verr *ValidationError
		assert.ErrorAs(t, res.Err, &verr)
	})
}

func TestExecuteAddAllDayToday(t *testing.T) {
	// Whole-day adds start at midnight; that must not trip the
	// past-start check while the day is still running.
	store := &fakeStore{}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpAdd,
		Range: fullDay(),
		Title: "誕生日",
	})

	require.True(t, res.OK)
	require.Len(t, store.events, 1)
	assert.True(t, store.events[0].AllDay)
}

func TestExecuteAddAllDayPast(t *testing.T) {
	store := &fakeStore{}
	yesterday := core.TimeRange{
		Start:    at(0, 0).AddDate(0, 0, -1),
		End:      at(0, 0),
		DateOnly: true,
	}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpAdd,
		Range: yesterday,
		Title: "誕生日",
	})

	assert.False(t, res.OK)
	var verr *ValidationError
	assert.ErrorAs(t, res.Err, &verr)
}

func TestExecuteAddRecurring(t *testing.T) {
	store := &fakeStore{}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:         core.OpAdd,
		Range:      core.TimeRange{Start: at(15, 0), End: at(16, 0)},
		Title:      "定例会議",
		Recurrence: &core.Recurrence{Freq: core.FreqWeekly},
	})

	require.True(t, res.OK)
	require.Len(t, store.events, 1)
	assert.Contains(t, store.events[0].Recurrence, "FREQ=WEEKLY")
}

func TestExecuteDeleteByTitle(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "ランチ", Start: at(12, 0), End: at(13, 0)},
		{ID: "e2", Title: "企画会議", Start: at(15, 0), End: at(16, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpDelete,
		Range: fullDay(),
		Title: "会議",
	})

	require.True(t, res.OK)
	assert.Equal(t, "1件の予定を削除しました。", res.Message)
	require.Len(t, store.events, 1)
	assert.Equal(t, "e1", store.events[0].ID)
}

func TestExecuteDeleteNoMatch(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "ランチ", Start: at(12, 0), End: at(13, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpDelete,
		Range: fullDay(),
		Title: "歯医者",
	})

	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrNotFound)
	assert.Len(t, store.events, 1)
}

func TestExecuteDeleteWithoutTitle(t *testing.T) {
	// Without a title the search buffer must not widen the deletion:
	// only events inside the stated range go.
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "朝会", Start: at(9, 0), End: at(9, 30)},
		{ID: "e2", Title: "レビュー", Start: at(15, 0), End: at(16, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpDelete,
		Range: core.TimeRange{Start: at(14, 0), End: at(17, 0)},
	})

	require.True(t, res.OK)
	require.Len(t, store.events, 1)
	assert.Equal(t, "e1", store.events[0].ID)
}

func TestExecuteUpdateMove(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "会議", Start: at(14, 0), End: at(15, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op: core.OpUpdate,
		Update: &nlp.UpdateTimes{
			OriginalStart: at(14, 0),
			OriginalEnd:   at(15, 0),
			NewStart:      at(16, 0),
		},
	})

	require.True(t, res.OK)
	assert.Equal(t, at(16, 0), store.events[0].Start)
	assert.Equal(t, at(17, 0), store.events[0].End, "duration preserved")
}

func TestExecuteUpdateDuration(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "会議", Start: at(14, 0), End: at(15, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op: core.OpUpdate,
		Update: &nlp.UpdateTimes{
			OriginalStart: at(14, 0),
			OriginalEnd:   at(15, 0),
			NewDuration:   2 * time.Hour,
		},
	})

	require.True(t, res.OK)
	assert.Equal(t, at(14, 0), store.events[0].Start)
	assert.Equal(t, at(16, 0), store.events[0].End)
}

func TestExecuteUpdateFuzzyStart(t *testing.T) {
	// The stated original time may be off by up to an hour.
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "会議", Start: at(14, 30), End: at(15, 30)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op: core.OpUpdate,
		Update: &nlp.UpdateTimes{
			OriginalStart: at(14, 0),
			OriginalEnd:   at(15, 0),
			NewStart:      at(16, 0),
		},
	})

	require.True(t, res.OK)
	assert.Equal(t, at(16, 0), store.events[0].Start)
}

func TestExecuteUpdateAmbiguous(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "会議", Start: at(14, 0), End: at(15, 0)},
		{ID: "e2", Title: "面談", Start: at(14, 30), End: at(15, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op: core.OpUpdate,
		Update: &nlp.UpdateTimes{
			OriginalStart: at(14, 0),
			OriginalEnd:   at(15, 0),
			NewStart:      at(16, 0),
		},
	})

	assert.False(t, res.OK)
	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, res.Err, &ambiguous)
	assert.Len(t, res.Events, 2)
	assert.Equal(t, at(14, 0), store.events[0].Start, "no write on ambiguity")
}

func TestExecuteUpdateTitleNarrows(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e1", Title: "会議", Start: at(14, 0), End: at(15, 0)},
		{ID: "e2", Title: "面談", Start: at(14, 30), End: at(15, 0)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpUpdate,
		Title: "面談",
		Update: &nlp.UpdateTimes{
			OriginalStart: at(14, 0),
			OriginalEnd:   at(15, 0),
			NewStart:      at(16, 0),
		},
	})

	require.True(t, res.OK)
	assert.Equal(t, at(16, 0), store.events[1].Start)
	assert.Equal(t, at(14, 0), store.events[0].Start)
}

func TestExecuteRead(t *testing.T) {
	store := &fakeStore{events: []core.Event{
		{ID: "e2", Title: "レビュー", Start: at(15, 0), End: at(16, 0)},
		{ID: "e1", Title: "朝会", Start: at(9, 0), End: at(9, 30)},
	}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: fullDay(),
	})

	require.True(t, res.OK)
	assert.Equal(t, "2件の予定があります。", res.Message)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "e1", res.Events[0].ID, "sorted by start")
	assert.NotEmpty(t, res.Slots, "whole-day reads report free time")
}

func TestExecuteReadEmpty(t *testing.T) {
	store := &fakeStore{}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: fullDay(),
	})

	require.True(t, res.OK)
	assert.Equal(t, "予定はありません。", res.Message)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, 24*time.Hour, res.Slots[0].Duration)
}

func TestExecuteReadTimedRangeNoSlots(t *testing.T) {
	store := &fakeStore{}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: core.TimeRange{Start: at(14, 0), End: at(16, 0)},
	})

	require.True(t, res.OK)
	assert.Empty(t, res.Slots, "free time only for whole-day queries")
}

func TestRetryTransient(t *testing.T) {
	unavailable := fmt.Errorf("list: %w", core.ErrUnavailable)
	store := &fakeStore{listErrs: []error{unavailable, unavailable}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: fullDay(),
	})

	require.True(t, res.OK, "third attempt succeeds")
	assert.Equal(t, 3, store.listCalls)
}

func TestRetryExhausted(t *testing.T) {
	unavailable := fmt.Errorf("list: %w", core.ErrUnavailable)
	store := &fakeStore{listErrs: []error{unavailable, unavailable, unavailable}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: fullDay(),
	})

	assert.False(t, res.OK)
	var transient *TransientError
	require.ErrorAs(t, res.Err, &transient)
	assert.Contains(t, res.Message, "接続できませんでした")
	assert.Equal(t, 3, store.listCalls)
}

func TestRetrySkipsPermanent(t *testing.T) {
	boom := errors.New("invalid credentials")
	store := &fakeStore{listErrs: []error{boom}}
	res := testEngine(store).Execute(context.Background(), &nlp.ParsedCommand{
		Op:    core.OpRead,
		Range: fullDay(),
	})

	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 1, store.listCalls, "permanent failures are not retried")
}
