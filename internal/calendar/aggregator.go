// Package calendar merges reminders and appointments into month and day views.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

// DefaultTodayLimit is used when a caller asks for a non-positive limit.
const DefaultTodayLimit = 4

// Month is the day-indexed projection of one calendar month.
type Month struct {
	Year        int                           `json:"year" yaml:"year"`
	Month       time.Month                    `json:"month" yaml:"month"`
	Events      []model.CalendarEvent         `json:"events" yaml:"events"`
	EventsByDay map[int][]model.CalendarEvent `json:"events_by_day" yaml:"events_by_day"`
}

// Aggregator reads both entity tables and builds calendar projections.
type Aggregator struct {
	store store.Store
	loc   *time.Location
	now   temporal.Clock
	log   zerolog.Logger
}

// NewAggregator returns an Aggregator bucketing days in loc (UTC when nil).
func NewAggregator(st store.Store, loc *time.Location, now temporal.Clock, log zerolog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = temporal.SystemClock
	}
	return &Aggregator{store: st, loc: loc, now: now, log: log}
}

// Location is the zone used for day boundaries.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Now is the aggregator's current instant in its zone.
func (a *Aggregator) Now() time.Time {
	return a.now().In(a.loc)
}

// MonthRange returns the half-open range [first day 00:00, first day of next month 00:00) in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Month fetches reminders by remind_at and appointments by start_at within the
// month, projects them and buckets them by day of month.
func (a *Aggregator) Month(ctx context.Context, ownerID string, year int, month time.Month) (*Month, error) {
	if ownerID == "" {
		return nil, model.NewAuthorizationError("owner is required")
	}
	if month < time.January || month > time.December {
		return nil, model.NewValidationError("month", fmt.Sprintf("month %d out of range", month))
	}
	if year < 1 || year > 9999 {
		return nil, model.NewValidationError("year", fmt.Sprintf("year %d out of range", year))
	}

	from, to := MonthRange(year, month, a.loc)
	reminders, err := a.store.Reminders().List(ctx, store.ReminderFilter{OwnerID: ownerID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("calendar reminders: %w", err)
	}
	appointments, err := a.store.Appointments().List(ctx, store.AppointmentFilter{OwnerID: ownerID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("calendar appointments: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(reminders)+len(appointments))
	for _, r := range reminders {
		events = append(events, model.ReminderEvent(r))
	}
	for _, ap := range appointments {
		events = append(events, model.AppointmentEvent(ap))
	}
	sortEvents(events)

	m := &Month{Year: year, Month: month, Events: events, EventsByDay: make(map[int][]model.CalendarEvent)}
	for _, e := range events {
		day := e.Start.In(a.loc).Day()
		m.EventsByDay[day] = append(m.EventsByDay[day], e)
	}

	a.log.Debug().Str("ownerID", ownerID).Int("year", year).Int("month", int(month)).Int("events", len(events)).Msg("Calendar month built")
	return m, nil
}

// Today returns the ranked events of the current day.
func (a *Aggregator) Today(ctx context.Context, ownerID string, limit int) ([]model.CalendarEvent, error) {
	now := a.Now()
	m, err := a.Month(ctx, ownerID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	return RankToday(m.EventsByDay[now.Day()], now, limit), nil
}

// sortEvents orders by start; ties fall back to source type then title so the
// output does not depend on fetch order.
func sortEvents(events []model.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if events[i].SourceType != events[j].SourceType {
			return events[i].SourceType < events[j].SourceType
		}
		return events[i].Title < events[j].Title
	})
}
