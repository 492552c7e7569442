package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathakanu/myAgenda/internal/calendar"
)

// CalendarOptions holds flags for the calendar command.
type CalendarOptions struct {
	Owner string
	Year  int
	Month int
	View  string // "events" | "indicators" | "ics"
}

// NewCalendarCommand creates the calendar command.
func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CalendarOptions{}

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show one owner's month calendar",
		Long: `Show the reminders and appointments of one month, bucketed by day in the
configured timezone. --view indicators shows only active items per day and
--view ics prints the month as an iCalendar document.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runCalendar(cmd.Context(), a.calendar, formatter(rootOpts, cmd), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner id (required)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "month 1-12 (default: current)")
	cmd.Flags().StringVar(&opts.View, "view", "events", "events|indicators|ics")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runCalendar(ctx context.Context, agg *calendar.Aggregator, f *OutputFormatter, opts *CalendarOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now := agg.Now()
	if opts.Year == 0 {
		opts.Year = now.Year()
	}
	if opts.Month == 0 {
		opts.Month = int(now.Month())
	}

	m, err := agg.Month(ctx, opts.Owner, opts.Year, time.Month(opts.Month))
	if err != nil {
		return domainExit("calendar", err)
	}

	switch opts.View {
	case "indicators":
		ind := calendar.Indicators(m)
		return f.Print(ind, renderIndicators(m, ind))
	case "ics":
		doc, err := calendar.ICS(m)
		if err != nil {
			return domainExit("ics export", err)
		}
		_, err = fmt.Fprint(f.Writer, doc)
		return err
	case "events", "":
		return f.Print(m, renderMonth(m, agg.Location()))
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid view %q: must be events, indicators or ics", opts.View))
	}
}

func renderMonth(m *calendar.Month, loc *time.Location) string {
	days := make([]int, 0, len(m.EventsByDay))
	for d := range m.EventsByDay {
		days = append(days, d)
	}
	sort.Ints(days)
	if len(days) == 0 {
		return fmt.Sprintf("%s %d: nothing scheduled.", m.Month, m.Year)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d\n", m.Month, m.Year))
	for _, d := range days {
		sb.WriteString(fmt.Sprintf("%02d\n", d))
		for _, line := range strings.Split(calendar.FormatDay(m.EventsByDay[d], loc), "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderIndicators(m *calendar.Month, ind map[int]calendar.DayIndicators) string {
	days := make([]int, 0, len(ind))
	for d := range ind {
		days = append(days, d)
	}
	sort.Ints(days)
	if len(days) == 0 {
		return fmt.Sprintf("%s %d: nothing active.", m.Month, m.Year)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d\n", m.Month, m.Year))
	for _, d := range days {
		sb.WriteString(fmt.Sprintf("%02d  reminders:%d  appointments:%d\n", d, len(ind[d].Reminders), len(ind[d].Appointments)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
