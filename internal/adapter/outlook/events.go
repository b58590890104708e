package outlook

import (
	"context"
	"fmt"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphcore "github.com/microsoftgraph/msgraph-sdk-go-core"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/skawahara/yotei/internal/core"
)

const graphTimeLayout = "2006-01-02T15:04:05"

// ListEvents retrieves single-instance events in [min, max) via the
// calendarView endpoint, which expands recurring series for us.
func (o *OutlookAdapter) ListEvents(ctx context.Context, min, max time.Time) ([]core.Event, error) {
	startStr := min.UTC().Format(time.RFC3339)
	endStr := max.UTC().Format(time.RFC3339)
	selectFields := []string{
		"id", "subject", "body", "start", "end", "location", "isAllDay", "isCancelled", "seriesMasterId",
	}
	orderBy := []string{"start/dateTime"}
	top := int32(100)

	headers := abstractions.NewRequestHeaders()
	headers.Add("Prefer", `outlook.timezone="UTC"`)

	var result models.EventCollectionResponseable
	var err error

	if o.calendarID == "" {
		config := &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().CalendarView().Get(ctx, config)
	} else {
		config := &users.ItemCalendarsItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarsItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        selectFields,
				Orderby:       orderBy,
				Top:           &top,
			},
			Headers: headers,
		}
		result, err = o.client.Me().Calendars().ByCalendarId(o.calendarID).CalendarView().Get(ctx, config)
	}

	if err != nil {
		return nil, graphErr("fetch calendar view", err)
	}

	// Use PageIterator for automatic pagination
	var results []core.Event

	pageIterator, err := msgraphcore.NewPageIterator[models.Eventable](
		result,
		o.client.GetAdapter(),
		models.CreateEventCollectionResponseFromDiscriminatorValue,
	)
	if err != nil {
		return nil, fmt.Errorf("create page iterator: %w", err)
	}

	err = pageIterator.Iterate(ctx, func(item models.Eventable) bool {
		if derefBool(item.GetIsCancelled()) {
			return true // skip cancelled, continue
		}
		results = append(results, o.parseGraphEvent(item))
		return true
	})

	if err != nil {
		return nil, graphErr("iterate events", err)
	}

	return results, nil
}

// CreateEvent posts the event to the calendar and returns it with its
// assigned ID. Recurring events are rejected: Graph models recurrence as
// a structured pattern, not an RRULE string, and the two do not round-trip.
func (o *OutlookAdapter) CreateEvent(ctx context.Context, ev core.Event) (core.Event, error) {
	if ev.Recurrence != "" {
		return core.Event{}, fmt.Errorf("recurring events are not supported on the outlook backend")
	}

	var created models.Eventable
	var err error
	if o.calendarID == "" {
		created, err = o.client.Me().Events().Post(ctx, o.toGraphEvent(ev), nil)
	} else {
		created, err = o.client.Me().Calendars().ByCalendarId(o.calendarID).Events().Post(ctx, o.toGraphEvent(ev), nil)
	}
	if err != nil {
		return core.Event{}, graphErr("create event", err)
	}
	return o.parseGraphEvent(created), nil
}

// UpdateEvent patches the identified event's mutable fields.
func (o *OutlookAdapter) UpdateEvent(ctx context.Context, id string, ev core.Event) (core.Event, error) {
	if ev.Recurrence != "" {
		return core.Event{}, fmt.Errorf("recurring events are not supported on the outlook backend")
	}

	updated, err := o.client.Me().Events().ByEventId(id).Patch(ctx, o.toGraphEvent(ev), nil)
	if err != nil {
		return core.Event{}, graphErr(fmt.Sprintf("update event %s", id), err)
	}
	return o.parseGraphEvent(updated), nil
}

// DeleteEvent removes the identified event.
func (o *OutlookAdapter) DeleteEvent(ctx context.Context, id string) error {
	if err := o.client.Me().Events().ByEventId(id).Delete(ctx, nil); err != nil {
		return graphErr(fmt.Sprintf("delete event %s", id), err)
	}
	return nil
}

// toGraphEvent converts our unified Event to the Graph SDK type.
// Graph requires all-day events to span exact midnight boundaries.
func (o *OutlookAdapter) toGraphEvent(ev core.Event) models.Eventable {
	item := models.NewEvent()
	item.SetSubject(ptr(ev.Title))
	if ev.AllDay {
		item.SetIsAllDay(ptr(true))
		item.SetStart(o.toGraphDateTime(midnightBefore(ev.Start)))
		item.SetEnd(o.toGraphDateTime(midnightAfter(ev.End)))
	} else {
		item.SetStart(o.toGraphDateTime(ev.Start))
		item.SetEnd(o.toGraphDateTime(ev.End))
	}

	if ev.Description != "" {
		body := models.NewItemBody()
		contentType := models.TEXT_BODYTYPE
		body.SetContentType(&contentType)
		body.SetContent(ptr(ev.Description))
		item.SetBody(body)
	}

	if ev.Location != "" {
		loc := models.NewLocation()
		loc.SetDisplayName(ptr(ev.Location))
		item.SetLocation(loc)
	}

	return item
}

func midnightBefore(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// midnightAfter returns the first midnight at or after t, so an end
// anywhere inside a day extends the event through that day.
func midnightAfter(t time.Time) time.Time {
	m := midnightBefore(t)
	if m.Equal(t) {
		return t
	}
	return m.AddDate(0, 0, 1)
}

func (o *OutlookAdapter) toGraphDateTime(t time.Time) models.DateTimeTimeZoneable {
	dt := models.NewDateTimeTimeZone()
	dt.SetDateTime(ptr(t.In(o.loc).Format(graphTimeLayout)))
	dt.SetTimeZone(ptr(o.loc.String()))
	return dt
}

// parseGraphEvent converts a Graph SDK event into our unified core.Event.
func (o *OutlookAdapter) parseGraphEvent(item models.Eventable) core.Event {
	// Times arrive in UTC because we set the Prefer header on reads.
	startTime := parseSDKDateTime(item.GetStart()).In(o.loc)
	endTime := parseSDKDateTime(item.GetEnd()).In(o.loc)

	// Description; body.content may be HTML or text
	description := ""
	if body := item.GetBody(); body != nil {
		if content := body.GetContent(); content != nil {
			description = *content
		}
	}

	// Location
	location := ""
	if loc := item.GetLocation(); loc != nil {
		if dn := loc.GetDisplayName(); dn != nil {
			location = *dn
		}
	}

	return core.Event{
		ID:          derefStr(item.GetId()),
		Title:       derefStr(item.GetSubject()),
		Description: description,
		Location:    location,
		Start:       startTime,
		End:         endTime,
		AllDay:      derefBool(item.GetIsAllDay()),
	}
}

// parseSDKDateTime converts a Graph SDK DateTimeTimeZone to time.Time.
func parseSDKDateTime(dt models.DateTimeTimeZoneable) time.Time {
	if dt == nil {
		return time.Time{}
	}
	dateTimeStr := dt.GetDateTime()
	if dateTimeStr == nil {
		return time.Time{}
	}
	layouts := []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, *dateTimeStr); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
