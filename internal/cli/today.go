package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pathakanu/myAgenda/internal/calendar"
)

// NewTodayCommand creates the today command.
func NewTodayCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		owner string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's most important items for one owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if limit <= 0 {
				limit = a.cfg.TodayLimit
			}
			return runToday(cmd.Context(), a.calendar, formatter(rootOpts, cmd), owner, limit)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items (default from MYAGENDA_TODAY_LIMIT)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runToday(ctx context.Context, agg *calendar.Aggregator, f *OutputFormatter, owner string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	events, err := agg.Today(ctx, owner, limit)
	if err != nil {
		return domainExit("today", err)
	}
	text := "Nothing on your agenda today."
	if len(events) > 0 {
		text = calendar.FormatDay(events, agg.Location())
	}
	return f.Print(events, text)
}
