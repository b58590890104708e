package nlp

import (
	"errors"
	"fmt"
	"time"

	"github.com/skawahara/yotei/internal/core"
)

// ErrUnknownOperation means the text matched no operation keyword and
// no fallback heuristic applied. Surfaced as a request for
// clarification, never fatal.
var ErrUnknownOperation = errors.New("could not tell what to do with the message")

// MissingFieldError reports a required field the classified operation
// needs but the text did not provide.
type MissingFieldError struct {
	Op    core.Operation
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Op, e.Field)
}

// ParsedCommand is one message turned into a structured calendar
// operation. It is immutable after Parse, owns no resources, and is
// safe to pass across goroutines by value.
type ParsedCommand struct {
	Op    core.Operation
	Range core.TimeRange

	Title    string
	Location string
	Person   string

	Recurrence *core.Recurrence

	// Set only for OpUpdate
	Update *UpdateTimes

	// The normalized input, kept for logging
	Raw string
}

// Parser turns free-form Japanese text into a ParsedCommand. The clock
// and zone are injected so parsing is deterministic under test.
type Parser struct {
	classifier *Classifier
	loc        *time.Location
	now        func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the zone dates and clock times resolve in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.loc = loc }
}

// WithClock injects the "now" source.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// NewParser builds a parser with the default keyword tables, the
// Asia/Tokyo zone, and the system clock.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		classifier: NewClassifier(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loc == nil {
		loc, err := time.LoadLocation("Asia/Tokyo")
		if err != nil {
			loc = time.FixedZone("JST", 9*60*60)
		}
		p.loc = loc
	}
	return p
}

// Parse runs the full pipeline: normalize, classify, extract, assemble.
// Extraction troubles come back as typed errors (ErrUnknownOperation,
// MissingFieldError), never panics; callers short-circuit them into a
// failed result.
func (p *Parser) Parse(text string) (*ParsedCommand, error) {
	normalized := Normalize(text)
	now := p.now().In(p.loc)

	op := p.classifier.Classify(normalized)
	if op == core.OpUnknown {
		// Fallback: a recognizable datetime plus a title is an add
		// request even without an explicit keyword.
		r, recognized := extractRange(normalized, now)
		ent := ExtractEntities(normalized, core.OpAdd, now)
		if recognized && ent.Title != "" {
			return p.assemble(core.OpAdd, normalized, r, true, nil, ent)
		}
		return nil, ErrUnknownOperation
	}

	if op == core.OpUpdate {
		up, err := ExtractUpdate(normalized, now)
		if err != nil {
			return nil, err
		}
		ent := ExtractEntities(normalized, op, now)
		return p.assemble(op, normalized, core.TimeRange{}, true, up, ent)
	}

	r, recognized := extractRange(normalized, now)
	ent := ExtractEntities(normalized, op, now)
	return p.assemble(op, normalized, r, recognized, nil, ent)
}

// assemble applies the per-operation required-field rules and freezes
// the command.
func (p *Parser) assemble(op core.Operation, raw string, r core.TimeRange, recognized bool, up *UpdateTimes, ent Entities) (*ParsedCommand, error) {
	switch op {
	case core.OpAdd:
		if !recognized {
			return nil, &MissingFieldError{Op: op, Field: "datetime"}
		}
		if ent.Title == "" {
			return nil, &MissingFieldError{Op: op, Field: "title"}
		}
	case core.OpDelete:
		// Deletes destroy data, so an unscoped one is refused rather
		// than defaulted to today. Title is optional and only narrows
		// the candidates.
		if !recognized {
			return nil, &MissingFieldError{Op: op, Field: "datetime"}
		}
	case core.OpUpdate:
		if up == nil {
			return nil, &MissingFieldError{Op: op, Field: "original time"}
		}
	case core.OpRead:
		// Range already defaults to today; reads never fail validation.
	}

	return &ParsedCommand{
		Op:         op,
		Range:      r,
		Title:      ent.Title,
		Location:   ent.Location,
		Person:     ent.Person,
		Recurrence: ent.Recurrence,
		Update:     up,
		Raw:        raw,
	}, nil
}
