package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/skawahara/yotei/internal/core"
	"github.com/skawahara/yotei/internal/logging"
	"github.com/skawahara/yotei/internal/nlp"
)

const (
	// Delete tolerates a few hours of clock-extraction slack.
	deleteSearchBuffer = 3 * time.Hour
	// Fuzzy update matching accepts a start within this window of the
	// stated original time.
	updateTolerance = time.Hour

	defaultFreeSlotMin = 30 * time.Minute
)

// Engine executes parsed commands against a calendar store. It is the
// only side-effecting component: everything before it is pure
// computation over strings. One Engine is safe for concurrent use; each
// Execute call is an independent unit of work.
type Engine struct {
	store       core.Store
	policy      RetryPolicy
	now         func() time.Time
	logger      *slog.Logger
	freeSlotMin time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRetryPolicy overrides the store-call retry policy.
func WithRetryPolicy(p RetryPolicy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

// WithClock injects the "now" source used for past-start validation.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithFreeSlotMin sets the minimum gap reported as free time.
func WithFreeSlotMin(d time.Duration) EngineOption {
	return func(e *Engine) { e.freeSlotMin = d }
}

// NewEngine builds an engine over the given store.
func NewEngine(store core.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       store,
		policy:      DefaultRetryPolicy(),
		now:         time.Now,
		logger:      slog.Default(),
		freeSlotMin: defaultFreeSlotMin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one command to its terminal state. The returned Result
// is always terminal: either the store mutation fully succeeded or the
// failure is reported without assuming partial effect.
func (e *Engine) Execute(ctx context.Context, cmd *nlp.ParsedCommand) core.Result {
	logger := e.logger.With(logging.Operation(cmd.Op.String()))

	var res core.Result
	switch cmd.Op {
	case core.OpAdd:
		res = e.executeAdd(ctx, cmd)
	case core.OpDelete:
		res = e.executeDelete(ctx, cmd)
	case core.OpUpdate:
		res = e.executeUpdate(ctx, cmd)
	case core.OpRead:
		res = e.executeRead(ctx, cmd)
	default:
		res = fail(cmd.Op, nlp.ErrUnknownOperation, "操作の種類を判別できませんでした。")
	}

	status := logging.StatusSuccess
	if !res.OK {
		status = logging.StatusError
	}
	logger.Info("command executed", logging.Status(status), logging.Err(res.Err))
	return res
}

func (e *Engine) executeAdd(ctx context.Context, cmd *nlp.ParsedCommand) core.Result {
	start, end := cmd.Range.Start, cmd.Range.End
	if !end.After(start) {
		return fail(cmd.Op, &ValidationError{Reason: "end is not after start"},
			"終了時間が開始時間より前になっています。")
	}
	// A whole-day add is in the past only once the day has ended;
	// midnight start times alone must not reject today's events.
	if cmd.Range.DateOnly {
		if end.Before(e.now()) {
			return fail(cmd.Op, &ValidationError{Reason: "day is in the past"},
				"過去の日付になっています。")
		}
	} else if start.Before(e.now()) {
		return fail(cmd.Op, &ValidationError{Reason: "start is in the past"},
			"開始時間が過去になっています。")
	}

	conflicts, err := e.FindOverlaps(ctx, start, end, "")
	if err != nil {
		return storeFailure(cmd.Op, err)
	}
	if len(conflicts) > 0 {
		res := fail(cmd.Op, &ConflictError{Conflicts: conflicts},
			"以下の予定と時間が重複しています。")
		res.Events = conflicts
		return res
	}

	ev := core.Event{
		Title:    cmd.Title,
		Location: cmd.Location,
		Start:    start,
		End:      end,
		AllDay:   cmd.Range.DateOnly,
	}
	if cmd.Person != "" {
		ev.Description = "参加者: " + cmd.Person
	}
	if cmd.Recurrence != nil {
		ev.Recurrence = cmd.Recurrence.RRuleString(start)
	}

	created, err := e.createEvent(ctx, ev)
	if err != nil {
		return storeFailure(cmd.Op, err)
	}
	return core.Result{
		OK:      true,
		Op:      cmd.Op,
		Message: fmt.Sprintf("予定を追加しました：%s", created.Title),
		Events:  []core.Event{created},
	}
}

func (e *Engine) executeDelete(ctx context.Context, cmd *nlp.ParsedCommand) core.Result {
	start, end := cmd.Range.Start, cmd.Range.End
	events, err := e.listEvents(ctx, start.Add(-deleteSearchBuffer), end.Add(deleteSearchBuffer))
	if err != nil {
		return storeFailure(cmd.Op, err)
	}

	var targets []core.Event
	for _, ev := range events {
		if cmd.Title != "" {
			if titleMatch(ev.Title, cmd.Title) {
				targets = append(targets, ev)
			}
			continue
		}
		// Without a title only events inside the stated range go; the
		// buffer exists for title search slack, not blanket deletion.
		if ev.Overlaps(start, end) {
			targets = append(targets, ev)
		}
	}
	if len(targets) == 0 {
		return fail(cmd.Op, ErrNotFound, "指定された条件に一致する予定が見つかりませんでした。")
	}

	for _, ev := range targets {
		e.logger.Debug("deleting event", logging.EventID(ev.ID))
		if err := e.deleteEvent(ctx, ev.ID); err != nil {
			return storeFailure(cmd.Op, err)
		}
	}
	return core.Result{
		OK:      true,
		Op:      cmd.Op,
		Message: fmt.Sprintf("%d件の予定を削除しました。", len(targets)),
		Events:  targets,
	}
}

func (e *Engine) executeUpdate(ctx context.Context, cmd *nlp.ParsedCommand) core.Result {
	up := cmd.Update
	events, err := e.listEvents(ctx,
		up.OriginalStart.Add(-updateTolerance),
		up.OriginalStart.Add(updateTolerance))
	if err != nil {
		return storeFailure(cmd.Op, err)
	}

	var candidates []core.Event
	for _, ev := range events {
		if cmd.Title != "" && !titleMatch(ev.Title, cmd.Title) {
			continue
		}
		diff := ev.Start.Sub(up.OriginalStart)
		if diff < 0 {
			diff = -diff
		}
		if diff <= updateTolerance {
			candidates = append(candidates, ev)
		}
	}

	switch {
	case len(candidates) == 0:
		return fail(cmd.Op, ErrNotFound, "変更対象の予定が見つかりませんでした。")
	case len(candidates) > 1:
		// Never guess between candidates; hand the list back.
		res := fail(cmd.Op, &AmbiguousMatchError{Candidates: candidates},
			"複数の予定が見つかりました。どれを変更するか指定してください。")
		res.Events = candidates
		return res
	}

	target := candidates[0]
	var newStart, newEnd time.Time
	if !up.NewStart.IsZero() {
		newStart = up.NewStart
		newEnd = newStart.Add(target.Duration())
	} else {
		newStart = target.Start
		newEnd = newStart.Add(up.NewDuration)
	}

	conflicts, err := e.FindOverlaps(ctx, newStart, newEnd, target.ID)
	if err != nil {
		return storeFailure(cmd.Op, err)
	}
	if len(conflicts) > 0 {
		res := fail(cmd.Op, &ConflictError{Conflicts: conflicts},
			"変更後の時間が以下の予定と重複しています。")
		res.Events = conflicts
		return res
	}

	updated := target
	updated.Start = newStart
	updated.End = newEnd
	e.logger.Debug("updating event", logging.EventID(target.ID))
	result, err := e.updateEvent(ctx, target.ID, updated)
	if err != nil {
		return storeFailure(cmd.Op, err)
	}
	return core.Result{
		OK: true,
		Op: cmd.Op,
		Message: fmt.Sprintf("予定を変更しました：%s（%s〜%s）",
			result.Title,
			result.Start.Format("15:04"),
			result.End.Format("15:04")),
		Events: []core.Event{result},
	}
}

func (e *Engine) executeRead(ctx context.Context, cmd *nlp.ParsedCommand) core.Result {
	start, end := cmd.Range.Start, cmd.Range.End
	events, err := e.listEvents(ctx, start, end)
	if err != nil {
		return storeFailure(cmd.Op, err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	res := core.Result{OK: true, Op: cmd.Op, Events: events}
	if len(events) == 0 {
		res.Message = "予定はありません。"
	} else {
		res.Message = fmt.Sprintf("%d件の予定があります。", len(events))
	}

	// Free time is only meaningful for a whole single day.
	if cmd.Range.DateOnly && end.Sub(start) <= 24*time.Hour {
		res.Slots = FreeSlots(start, end, events, e.freeSlotMin)
	}
	return res
}

// titleMatch is the fuzzy title rule: case-folded substring
// containment, with the shorter string required to appear in the
// longer one.
func titleMatch(eventTitle, keyword string) bool {
	a := strings.ToLower(nlp.Normalize(eventTitle))
	b := strings.ToLower(nlp.Normalize(keyword))
	if a == "" || b == "" {
		return false
	}
	if len(a) < len(b) {
		a, b = b, a
	}
	return strings.Contains(a, b)
}

func fail(op core.Operation, err error, message string) core.Result {
	return core.Result{Op: op, Message: message, Err: err}
}

// storeFailure maps a store error into a terminal result. Transient
// exhaustion gets the uniform try-again message.
func storeFailure(op core.Operation, err error) core.Result {
	if _, ok := err.(*TransientError); ok {
		return fail(op, err, "カレンダーサービスに接続できませんでした。しばらくしてからもう一度お試しください。")
	}
	return fail(op, err, "カレンダー操作中にエラーが発生しました。")
}

// Retry-wrapped store accessors. Every remote call in the engine goes
// through these.

func (e *Engine) listEvents(ctx context.Context, min, max time.Time) ([]core.Event, error) {
	var out []core.Event
	err := e.policy.do(ctx, e.logger, "list_events", func(ctx context.Context) error {
		var err error
		out, err = e.store.ListEvents(ctx, min, max)
		return err
	})
	return out, err
}

func (e *Engine) createEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	var out core.Event
	err := e.policy.do(ctx, e.logger, "create_event", func(ctx context.Context) error {
		var err error
		out, err = e.store.CreateEvent(ctx, ev)
		return err
	})
	return out, err
}

func (e *Engine) updateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	var out core.Event
	err := e.policy.do(ctx, e.logger, "update_event", func(ctx context.Context) error {
		var err error
		out, err = e.store.UpdateEvent(ctx, id, ev)
		return err
	})
	return out, err
}

func (e *Engine) deleteEvent(ctx context.Context, id string) error {
	return e.policy.do(ctx, e.logger, "delete_event", func(ctx context.Context) error {
		return e.store.DeleteEvent(ctx, id)
	})
}
