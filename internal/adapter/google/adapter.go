package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/skawahara/yotei/internal/core"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleAdapter struct {
	id         string
	name       string
	client     *http.Client
	service    *calendar.Service
	config     *oauth2.Config
	credsFile  string
	tokenFile  string
	calendarID string
	loc        *time.Location
}

// NewGoogleAdapter builds an adapter over one calendar. calendarID is
// usually "primary".
func NewGoogleAdapter(id, name, credsFile, tokenFile, calendarID string, loc *time.Location) *GoogleAdapter {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleAdapter{
		id:         id,
		name:       name,
		credsFile:  credsFile,
		tokenFile:  tokenFile,
		calendarID: calendarID,
		loc:        loc,
	}
}

func (g *GoogleAdapter) ID() string   { return g.id }
func (g *GoogleAdapter) Name() string { return g.name }

// Login loads credentials and token, then initializes the Calendar
// service. Run `yotei auth` first to generate the token file.
func (g *GoogleAdapter) Login(ctx context.Context) error {
	b, err := os.ReadFile(g.credsFile)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}
	g.config = config

	tok, err := tokenFromFile(g.tokenFile)
	if err != nil {
		return fmt.Errorf("read token file (run 'yotei auth' first): %w", err)
	}

	g.client = g.config.Client(ctx, tok)
	g.service, err = calendar.NewService(ctx, option.WithHTTPClient(g.client))
	if err != nil {
		return err
	}
	return nil
}

// tokenFromFile reads an OAuth token from a JSON file.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// ListEvents fetches single-instance events in [min, max), paged and
// ordered by start time.
func (g *GoogleAdapter) ListEvents(ctx context.Context, min, max time.Time) ([]core.Event, error) {
	var results []core.Event
	pageToken := ""

	for {
		req := g.service.Events.List(g.calendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(min.Format(time.RFC3339)).
			TimeMax(max.Format(time.RFC3339)).
			OrderBy("startTime").
			Context(ctx)

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		eventsResult, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}

		for _, item := range eventsResult.Items {
			results = append(results, g.parseEvent(item))
		}

		pageToken = eventsResult.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return results, nil
}

// CreateEvent inserts the event and returns it with its assigned ID.
func (g *GoogleAdapter) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	created, err := g.service.Events.Insert(g.calendarID, g.toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return core.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return g.parseEvent(created), nil
}

// UpdateEvent rewrites the identified event's mutable fields.
func (g *GoogleAdapter) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	updated, err := g.service.Events.Update(g.calendarID, id, g.toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return core.Event{}, fmt.Errorf("update event %s: %w", id, err)
	}
	return g.parseEvent(updated), nil
}

// DeleteEvent removes the identified event.
func (g *GoogleAdapter) DeleteEvent(ctx context.Context, id string) error {
	if err := g.service.Events.Delete(g.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// toGoogleEvent converts our unified Event to the Calendar API type.
// All-day events are written as date-only start/end with the API's
// exclusive end date.
func (g *GoogleAdapter) toGoogleEvent(ev core.Event) *calendar.Event {
	item := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if ev.AllDay {
		item.Start = &calendar.EventDateTime{Date: ev.Start.Format("2006-01-02")}
		item.End = &calendar.EventDateTime{Date: exclusiveEndDate(ev.End)}
	} else {
		item.Start = &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		}
		item.End = &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		}
	}
	if ev.Recurrence != "" {
		item.Recurrence = []string{ev.Recurrence}
	}
	return item
}

// exclusiveEndDate renders an interval end as the API's exclusive date:
// an end anywhere inside a day means the event runs through that day.
func exclusiveEndDate(end time.Time) string {
	if h, m, s := end.Clock(); h != 0 || m != 0 || s != 0 {
		end = end.AddDate(0, 0, 1)
	}
	return end.Format("2006-01-02")
}

// parseEvent converts a Google Calendar event to our unified Event type.
func (g *GoogleAdapter) parseEvent(item *calendar.Event) core.Event {
	var startTime, endTime time.Time
	var allDay bool

	if item.Start.DateTime != "" {
		startTime, _ = time.Parse(time.RFC3339, item.Start.DateTime)
		endTime, _ = time.Parse(time.RFC3339, item.End.DateTime)
		startTime = startTime.In(g.loc)
		endTime = endTime.In(g.loc)
	} else {
		// All day event (YYYY-MM-DD); Google end dates are exclusive.
		startTime, _ = time.ParseInLocation("2006-01-02", item.Start.Date, g.loc)
		endTime, _ = time.ParseInLocation("2006-01-02", item.End.Date, g.loc)
		allDay = true
	}

	var rec string
	if len(item.Recurrence) > 0 {
		rec = item.Recurrence[0]
	}

	return core.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       startTime,
		End:         endTime,
		AllDay:      allDay,
		Recurrence:  rec,
	}
}
