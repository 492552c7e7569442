package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/pathakanu/myAgenda/internal/mcptools"
)

// NewMCPCommand creates the mcp command, serving one owner's agenda over stdio.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agenda tools over MCP (stdio) for one owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			s := mcptools.NewServer(owner, a.reminders, a.appointments, a.calendar, a.cfg.TodayLimit,
				a.log.With().Str("component", "mcp").Str("ownerID", owner).Logger())
			if err := server.ServeStdio(s.MCPServer()); err != nil {
				return WrapExitError(ExitCommandError, "mcp server", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id every tool acts on (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
