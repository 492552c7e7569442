// Package mcptools exposes the agenda operations as MCP tools for one owner.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/reminder"
)

const (
	serverName    = "myagenda"
	serverVersion = "1.0.0"
)

// Server is the MCP server for one owner's agenda.
type Server struct {
	mcpServer    *server.MCPServer
	owner        string
	reminders    *reminder.Service
	appointments *appointment.Service
	calendar     *calendar.Aggregator
	todayLimit   int
	log          zerolog.Logger
}

// NewServer creates an MCP server whose tools all act on owner's data.
func NewServer(owner string, reminders *reminder.Service, appointments *appointment.Service, cal *calendar.Aggregator, todayLimit int, log zerolog.Logger) *Server {
	s := &Server{
		owner:        owner,
		reminders:    reminders,
		appointments: appointments,
		calendar:     cal,
		todayLimit:   todayLimit,
		log:          log,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerReminderTools()
	s.registerAppointmentTools()
	s.registerCalendarTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerReminderTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("create_reminder",
			mcp.WithDescription("Create a reminder at a single moment"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("remind_at", mcp.Required(), mcp.Description("When to remind, RFC3339 (e.g. 2025-03-05T14:30:00Z)")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, high (default: medium)")),
			mcp.WithString("recurrence", mcp.Description("Recurrence tag: once, daily, weekly, monthly (default: once)")),
		),
		s.handleCreateReminder,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List reminders ordered by remind_at, optionally filtered by status"),
			mcp.WithString("status", mcp.Description("pending, completed, cancelled, or empty for all")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 50, max 500)")),
		),
		s.handleListReminders,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields; omitted fields are unchanged"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("remind_at", mcp.Description("New time, RFC3339")),
			mcp.WithString("priority", mcp.Description("New priority: low, medium, high")),
			mcp.WithString("recurrence", mcp.Description("New recurrence tag")),
		),
		s.handleUpdateReminder,
	)

	for _, tool := range []struct{ name, desc string }{
		{"complete_reminder", "Mark a pending reminder as completed"},
		{"cancel_reminder", "Cancel a pending reminder"},
		{"delete_reminder", "Delete a reminder permanently"},
	} {
		s.mcpServer.AddTool(
			mcp.NewTool(tool.name,
				mcp.WithDescription(tool.desc),
				mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID")),
			),
			s.reminderByID(tool.name),
		)
	}
}

func (s *Server) registerAppointmentTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("create_appointment",
			mcp.WithDescription("Create an appointment over [start_at, end_at); overlapping scheduled appointments are rejected"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Appointment title")),
			mcp.WithString("start_at", mcp.Required(), mcp.Description("Start, RFC3339")),
			mcp.WithString("end_at", mcp.Required(), mcp.Description("End, RFC3339; must be after start_at")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithString("location", mcp.Description("Optional location")),
			mcp.WithBoolean("all_day", mcp.Description("All-day appointment")),
			mcp.WithString("priority", mcp.Description("Priority: low, medium, high (default: medium)")),
			mcp.WithNumber("notify_before_minutes", mcp.Description("Alert lead time in minutes (default 30)")),
		),
		s.handleCreateAppointment,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_appointments",
			mcp.WithDescription("List appointments ordered by start_at, optionally filtered by status"),
			mcp.WithString("status", mcp.Description("scheduled, completed, cancelled, or empty for all")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 50, max 500)")),
		),
		s.handleListAppointments,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_appointment",
			mcp.WithDescription("Update an appointment's fields; omitted fields are unchanged. Moving it re-runs the overlap check"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Appointment ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("location", mcp.Description("New location")),
			mcp.WithString("start_at", mcp.Description("New start, RFC3339")),
			mcp.WithString("end_at", mcp.Description("New end, RFC3339")),
			mcp.WithBoolean("all_day", mcp.Description("All-day appointment")),
			mcp.WithString("priority", mcp.Description("New priority: low, medium, high")),
			mcp.WithNumber("notify_before_minutes", mcp.Description("New alert lead time in minutes")),
		),
		s.handleUpdateAppointment,
	)

	for _, tool := range []struct{ name, desc string }{
		{"complete_appointment", "Mark a scheduled appointment as completed"},
		{"cancel_appointment", "Cancel a scheduled appointment, freeing its slot"},
		{"delete_appointment", "Delete an appointment permanently"},
	} {
		s.mcpServer.AddTool(
			mcp.NewTool(tool.name,
				mcp.WithDescription(tool.desc),
				mcp.WithString("id", mcp.Required(), mcp.Description("Appointment ID")),
			),
			s.appointmentByID(tool.name),
		)
	}
}

func (s *Server) registerCalendarTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_calendar",
			mcp.WithDescription("Month view merging reminders and appointments, bucketed by day"),
			mcp.WithNumber("year", mcp.Required(), mcp.Description("Year, e.g. 2025")),
			mcp.WithNumber("month", mcp.Required(), mcp.Description("Month 1-12")),
			mcp.WithString("view", mcp.Description("events (default) or indicators")),
		),
		s.handleGetCalendar,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("rank_today",
			mcp.WithDescription("Today's events, high priority first, then by start time"),
			mcp.WithNumber("limit", mcp.Description("Maximum number of events (default from configuration)")),
		),
		s.handleRankToday,
	)
}

func (s *Server) handleCreateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	remindAt, err := parseTime(req.GetString("remind_at", ""), "remind_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rem, err := s.reminders.Create(ctx, reminder.CreateRequest{
		OwnerID:     s.owner,
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		RemindAt:    remindAt,
		Priority:    model.Priority(req.GetString("priority", "")),
		Recurrence:  model.Recurrence(req.GetString("recurrence", "")),
	})
	if err != nil {
		return s.toolError("create reminder", err), nil
	}
	return jsonResult(rem)
}

func (s *Server) handleListReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.reminders.List(ctx, s.owner, reminder.ListFilter{
		Status: req.GetString("status", ""),
		Limit:  int(req.GetFloat("limit", 0)),
	})
	if err != nil {
		return s.toolError("list reminders", err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}
	return jsonResult(items)
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p reminder.Patch
	p.Title = optionalString(req, "title")
	p.Description = optionalString(req, "description")
	if v := optionalString(req, "remind_at"); v != nil {
		t, err := parseTime(*v, "remind_at")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p.RemindAt = &t
	}
	if v := optionalString(req, "priority"); v != nil {
		pr, err := model.ParsePriority(*v)
		if err != nil {
			return s.toolError("update reminder", err), nil
		}
		p.Priority = &pr
	}
	if v := optionalString(req, "recurrence"); v != nil {
		rec, err := model.ParseRecurrence(*v)
		if err != nil {
			return s.toolError("update reminder", err), nil
		}
		p.Recurrence = &rec
	}

	rem, err := s.reminders.Update(ctx, s.owner, req.GetString("id", ""), p)
	if err != nil {
		return s.toolError("update reminder", err), nil
	}
	return jsonResult(rem)
}

func (s *Server) reminderByID(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("id", "")
		switch tool {
		case "complete_reminder":
			rem, err := s.reminders.Complete(ctx, s.owner, id)
			if err != nil {
				return s.toolError(tool, err), nil
			}
			return jsonResult(rem)
		case "cancel_reminder":
			rem, err := s.reminders.Cancel(ctx, s.owner, id)
			if err != nil {
				return s.toolError(tool, err), nil
			}
			return jsonResult(rem)
		default:
			if err := s.reminders.Delete(ctx, s.owner, id); err != nil {
				return s.toolError(tool, err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", id)), nil
		}
	}
}

func (s *Server) handleCreateAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := parseTime(req.GetString("start_at", ""), "start_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := parseTime(req.GetString("end_at", ""), "end_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	create := appointment.CreateRequest{
		OwnerID:     s.owner,
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Location:    req.GetString("location", ""),
		StartAt:     start,
		EndAt:       end,
		AllDay:      req.GetBool("all_day", false),
		Priority:    model.Priority(req.GetString("priority", "")),
	}
	if _, ok := req.GetArguments()["notify_before_minutes"]; ok {
		n := int(req.GetFloat("notify_before_minutes", 0))
		create.NotifyBefore = &n
	}

	appt, err := s.appointments.Create(ctx, create)
	if err != nil {
		return s.toolError("create appointment", err), nil
	}
	return jsonResult(appt)
}

func (s *Server) handleListAppointments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.appointments.List(ctx, s.owner, appointment.ListFilter{
		Status: req.GetString("status", ""),
		Limit:  int(req.GetFloat("limit", 0)),
	})
	if err != nil {
		return s.toolError("list appointments", err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No appointments found."), nil
	}
	return jsonResult(items)
}

func (s *Server) handleUpdateAppointment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p appointment.Patch
	p.Title = optionalString(req, "title")
	p.Description = optionalString(req, "description")
	p.Location = optionalString(req, "location")
	for field, dst := range map[string]**time.Time{"start_at": &p.StartAt, "end_at": &p.EndAt} {
		if v := optionalString(req, field); v != nil {
			t, err := parseTime(*v, field)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			*dst = &t
		}
	}
	if _, ok := req.GetArguments()["all_day"]; ok {
		v := req.GetBool("all_day", false)
		p.AllDay = &v
	}
	if v := optionalString(req, "priority"); v != nil {
		pr, err := model.ParsePriority(*v)
		if err != nil {
			return s.toolError("update appointment", err), nil
		}
		p.Priority = &pr
	}
	if _, ok := req.GetArguments()["notify_before_minutes"]; ok {
		n := int(req.GetFloat("notify_before_minutes", 0))
		p.NotifyBefore = &n
	}

	appt, err := s.appointments.Update(ctx, s.owner, req.GetString("id", ""), p)
	if err != nil {
		return s.toolError("update appointment", err), nil
	}
	return jsonResult(appt)
}

func (s *Server) appointmentByID(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetString("id", "")
		switch tool {
		case "complete_appointment":
			appt, err := s.appointments.Complete(ctx, s.owner, id)
			if err != nil {
				return s.toolError(tool, err), nil
			}
			return jsonResult(appt)
		case "cancel_appointment":
			appt, err := s.appointments.Cancel(ctx, s.owner, id)
			if err != nil {
				return s.toolError(tool, err), nil
			}
			return jsonResult(appt)
		default:
			if err := s.appointments.Delete(ctx, s.owner, id); err != nil {
				return s.toolError(tool, err), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Appointment %s deleted.", id)), nil
		}
	}
}

func (s *Server) handleGetCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year := int(req.GetFloat("year", 0))
	month := int(req.GetFloat("month", 0))

	m, err := s.calendar.Month(ctx, s.owner, year, time.Month(month))
	if err != nil {
		return s.toolError("get calendar", err), nil
	}
	if req.GetString("view", "") == "indicators" {
		return jsonResult(calendar.Indicators(m))
	}
	return jsonResult(m)
}

func (s *Server) handleRankToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(req.GetFloat("limit", float64(s.todayLimit)))
	events, err := s.calendar.Today(ctx, s.owner, limit)
	if err != nil {
		return s.toolError("rank today", err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText("Nothing scheduled today."), nil
	}
	return jsonResult(events)
}

// toolError turns a domain error into a tool result. Only unexpected failures
// are logged.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if !model.IsValidationError(err) && !model.IsTemporalError(err) &&
		!model.IsConflictError(err) && !model.IsNotFoundError(err) {
		s.log.Error().Err(err).Str("op", op).Str("ownerID", s.owner).Msg("Tool failed")
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(output)), nil
}

func optionalString(req mcp.CallToolRequest, key string) *string {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetString(key, "")
	return &v
}

func parseTime(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %v (use RFC3339, e.g. 2025-03-05T14:30:00Z)", field, err)
	}
	return t, nil
}
