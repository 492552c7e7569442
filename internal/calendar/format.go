package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
)

// FormatDay renders events as one line each, times shown in loc.
func FormatDay(events []model.CalendarEvent, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var sb strings.Builder
	for _, e := range events {
		when := e.Start.In(loc).Format("15:04")
		if e.SourceType == model.SourceAppointment && !e.AllDay {
			when += "-" + e.End.In(loc).Format("15:04")
		}
		if e.AllDay {
			when = "all day"
		}
		sb.WriteString(fmt.Sprintf("%s [%s] %s", when, e.Priority, e.Title))
		if e.Location != "" {
			sb.WriteString(" @ " + e.Location)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
