package calendar

import (
	"sort"
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
)

// RankToday keeps the events starting on now's calendar day, orders high
// priority first and then by start, and truncates to limit. The sort is stable.
func RankToday(events []model.CalendarEvent, now time.Time, limit int) []model.CalendarEvent {
	if limit <= 0 {
		limit = DefaultTodayLimit
	}
	loc := now.Location()
	y, m, d := now.Date()

	today := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		ey, em, ed := e.Start.In(loc).Date()
		if ey == y && em == m && ed == d {
			today = append(today, e)
		}
	}

	sort.SliceStable(today, func(i, j int) bool {
		ri, rj := rank(today[i]), rank(today[j])
		if ri != rj {
			return ri < rj
		}
		return today[i].Start.Before(today[j].Start)
	})

	if len(today) > limit {
		today = today[:limit]
	}
	return today
}

func rank(e model.CalendarEvent) int {
	if e.Priority == model.PriorityHigh {
		return 0
	}
	return 1
}

// DayIndicators is the per-source split of one day's open events.
type DayIndicators struct {
	Reminders    []model.CalendarEvent `json:"reminders" yaml:"reminders"`
	Appointments []model.CalendarEvent `json:"appointments" yaml:"appointments"`
}

// Indicators keeps only pending and scheduled events of each day, split by
// source type. Days with no open events are omitted.
func Indicators(m *Month) map[int]DayIndicators {
	out := make(map[int]DayIndicators)
	if m == nil {
		return out
	}
	for day, events := range m.EventsByDay {
		var ind DayIndicators
		for _, e := range events {
			if !e.Active() {
				continue
			}
			switch e.SourceType {
			case model.SourceReminder:
				ind.Reminders = append(ind.Reminders, e)
			case model.SourceAppointment:
				ind.Appointments = append(ind.Appointments, e)
			}
		}
		if len(ind.Reminders)+len(ind.Appointments) > 0 {
			out[day] = ind
		}
	}
	return out
}
