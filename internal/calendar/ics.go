package calendar

import (
	"fmt"
	"strconv"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/pathakanu/myAgenda/internal/model"
)

const productID = "-//myAgenda//Calendar Export//EN"

// ICS serializes a month projection as a VCALENDAR. Recurrence tags become an
// RRULE property on the event; occurrences are never expanded.
func ICS(m *Month) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(fmt.Sprintf("myAgenda %04d-%02d", m.Year, int(m.Month)))

	for _, e := range m.Events {
		ev := cal.AddEvent(fmt.Sprintf("%s-%s@myagenda", e.SourceType, e.ID))
		ev.SetDtStampTime(e.Start.UTC())
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.AllDay {
			ev.SetAllDayStartAt(e.Start)
			ev.SetAllDayEndAt(e.End)
		} else {
			ev.SetStartAt(e.Start.UTC())
			ev.SetEndAt(e.End.UTC())
		}
		ev.SetStatus(icsStatus(e.Status))
		ev.AddProperty(ical.ComponentPropertyPriority, strconv.Itoa(icsPriority(e.Priority)))
		ev.AddProperty(ical.ComponentPropertyCategories, string(e.SourceType))
		ev.AddProperty(ical.ComponentProperty("COLOR"), string(e.Color))

		rule, err := recurrenceRule(e.Recurrence)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", e.ID, err)
		}
		if rule != "" {
			ev.AddProperty(ical.ComponentPropertyRrule, rule)
		}
	}
	return cal.Serialize(), nil
}

// recurrenceRule renders a recurrence tag as an RRULE value, or "" for once.
func recurrenceRule(r model.Recurrence) (string, error) {
	var freq rrule.Frequency
	switch r {
	case "", model.RecurrenceOnce:
		return "", nil
	case model.RecurrenceDaily:
		freq = rrule.DAILY
	case model.RecurrenceWeekly:
		freq = rrule.WEEKLY
	case model.RecurrenceMonthly:
		freq = rrule.MONTHLY
	default:
		return "", model.NewValidationError("recurrence", "unknown recurrence "+string(r))
	}
	opt := rrule.ROption{Freq: freq}
	return opt.RRuleString(), nil
}

func icsStatus(status string) ical.ObjectStatus {
	switch status {
	case string(model.ReminderCancelled):
		return ical.ObjectStatusCancelled
	case string(model.ReminderPending):
		return ical.ObjectStatusTentative
	default:
		return ical.ObjectStatusConfirmed
	}
}

// icsPriority maps onto RFC 5545 PRIORITY, where 1 is highest.
func icsPriority(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 1
	case model.PriorityLow:
		return 9
	default:
		return 5
	}
}
