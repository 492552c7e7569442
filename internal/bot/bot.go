package bot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/config"
	"github.com/pathakanu/myAgenda/internal/model"
	myopenai "github.com/pathakanu/myAgenda/internal/openai"
	"github.com/pathakanu/myAgenda/internal/reminder"
	"github.com/pathakanu/myAgenda/internal/temporal"
	"github.com/pathakanu/myAgenda/internal/twilio"
)

// Assistant classifies free text and condenses reminder content.
type Assistant interface {
	ClassifyIntent(ctx context.Context, content string) (myopenai.Intent, error)
	Summarize(ctx context.Context, content string) (string, error)
}

// Bot answers WhatsApp messages on top of the reminder service and calendar.
type Bot struct {
	reminders  *reminder.Service
	calendar   *calendar.Aggregator
	assistant  Assistant
	loc        *time.Location
	todayLimit int
	now        temporal.Clock
	state      *conversationStore
	log        zerolog.Logger
}

// New creates a fully configured Bot instance.
func New(cfg *config.Config, reminders *reminder.Service, cal *calendar.Aggregator, assistant Assistant, log zerolog.Logger) *Bot {
	return &Bot{
		reminders:  reminders,
		calendar:   cal,
		assistant:  assistant,
		loc:        cfg.Location(),
		todayLimit: cfg.TodayLimit,
		now:        temporal.SystemClock,
		state:      newConversationStore(),
		log:        log,
	}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

// handleIncomingMessage processes Twilio webhook POST requests.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.log.Warn().Err(err).Msg("Webhook parse error")
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	ctx := r.Context()
	owner := twilio.OwnerFromAddress(from)
	b.writeTwilioResponse(w, b.reply(ctx, owner, body))
}

// reply computes the answer to one inbound message.
func (b *Bot) reply(ctx context.Context, owner, body string) string {
	if b.state.IsAwaitingTime(owner) {
		if strings.EqualFold(body, "cancel") {
			b.state.Clear(owner)
			return "Okay, I dropped that reminder."
		}
		return b.handleTimeResponse(ctx, owner, body)
	}

	intent, arg := b.determineIntent(ctx, body)
	switch intent {
	case myopenai.IntentListReminders:
		list := b.listReminders(ctx, owner)
		if list == "" {
			return "You have no pending reminders. Send me one to get started!"
		}
		return list
	case myopenai.IntentCompleteReminder:
		if arg == "" {
			return "Tell me which reminders are done, e.g. 'done 1,3'."
		}
		msg, err := b.completeReminders(ctx, owner, arg)
		if err != nil {
			b.log.Info().Err(err).Str("ownerID", owner).Msg("Complete reminders failed")
			return err.Error()
		}
		return msg
	case myopenai.IntentToday:
		return b.todaySummary(ctx, owner)
	case myopenai.IntentHelp:
		return helpResponse()
	default:
		b.state.SetPendingMessage(owner, body)
		return askForTime()
	}
}

func (b *Bot) determineIntent(ctx context.Context, message string) (myopenai.Intent, string) {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "help" {
		return myopenai.IntentHelp, ""
	}
	if isTodayRequest(lower) {
		return myopenai.IntentToday, ""
	}
	if isListRequest(lower) {
		return myopenai.IntentListReminders, ""
	}
	if arg, ok := extractCompleteArgs(message); ok {
		return myopenai.IntentCompleteReminder, arg
	}

	if b.assistant == nil {
		return myopenai.IntentAddReminder, ""
	}

	intent, err := b.assistant.ClassifyIntent(ctx, message)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			b.log.Warn().Err(err).Msg("Intent classification error")
		}
		return myopenai.IntentAddReminder, ""
	}

	switch intent {
	case myopenai.IntentCompleteReminder:
		arg, _ := extractCompleteArgs(message)
		return intent, arg
	case myopenai.IntentListReminders, myopenai.IntentToday, myopenai.IntentHelp, myopenai.IntentAddReminder:
		return intent, ""
	default:
		return myopenai.IntentAddReminder, ""
	}
}

func (b *Bot) handleTimeResponse(ctx context.Context, owner, text string) string {
	content, ok := b.state.PendingMessage(owner)
	if !ok {
		return "I lost track of that reminder. Please send it again."
	}

	remindAt, err := parseWhen(text, b.now().In(b.loc))
	if err != nil {
		return "I couldn't read that time. " + askForTime()
	}

	title := b.summarize(ctx, content)
	description := ""
	if title != content {
		description = content
	}
	rem, err := b.reminders.Create(ctx, reminder.CreateRequest{
		OwnerID:     owner,
		Title:       title,
		Description: description,
		RemindAt:    remindAt,
	})
	if err != nil {
		if model.IsTemporalError(err) {
			return "That time is already in the past. " + askForTime()
		}
		b.log.Error().Err(err).Str("ownerID", owner).Msg("Save reminder failed")
		b.state.Clear(owner)
		return "I couldn't save the reminder. Please try again."
	}

	b.state.Clear(owner)
	return fmt.Sprintf("Got it! I'll remind you: %s (%s).", rem.Title, rem.RemindAt.In(b.loc).Format("Mon Jan 02 15:04"))
}

// listReminders returns a numbered list of pending reminders. The numbering is
// what completeReminders resolves indices against.
func (b *Bot) listReminders(ctx context.Context, owner string) string {
	pending, err := b.pendingReminders(ctx, owner)
	if err != nil {
		b.log.Error().Err(err).Str("ownerID", owner).Msg("List reminders error")
		return ""
	}
	if len(pending) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Here are your reminders:\n")
	for i, r := range pending {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, r.Priority, r.Title, r.RemindAt.In(b.loc).Format("Jan 02 15:04")))
	}
	sb.WriteString("Reply 'done 1,2' to complete some.")
	return sb.String()
}

func (b *Bot) pendingReminders(ctx context.Context, owner string) ([]model.Reminder, error) {
	return b.reminders.List(ctx, owner, reminder.ListFilter{Status: string(model.ReminderPending)})
}

// completeReminders completes the pending reminders at the given 1-based
// positions. Every index is checked before anything is completed.
func (b *Bot) completeReminders(ctx context.Context, owner, arg string) (string, error) {
	indices := parseIndices(arg)
	if len(indices) == 0 {
		return "", fmt.Errorf("I couldn't read %q. Use numbers from 'list reminders', e.g. 'done 1,3'.", arg)
	}
	pending, err := b.pendingReminders(ctx, owner)
	if err != nil {
		return "", errors.New("I couldn't load your reminders. Please try again later.")
	}
	for _, idx := range indices {
		if idx > len(pending) {
			return "", fmt.Errorf("Reminder %d does not exist. You have %d pending.", idx, len(pending))
		}
	}

	done := make([]string, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if _, err := b.reminders.Complete(ctx, owner, pending[idx-1].ID); err != nil {
			return "", fmt.Errorf("I couldn't complete reminder %d.", idx)
		}
		done = append(done, strconv.Itoa(idx))
	}
	return fmt.Sprintf("Completed reminder(s): %s.", strings.Join(done, ", ")), nil
}

func (b *Bot) todaySummary(ctx context.Context, owner string) string {
	events, err := b.calendar.Today(ctx, owner, b.todayLimit)
	if err != nil {
		b.log.Error().Err(err).Str("ownerID", owner).Msg("Today summary error")
		return "I couldn't load today's agenda. Please try again later."
	}
	if len(events) == 0 {
		return "Nothing on your agenda today."
	}
	return "Today:\n" + calendar.FormatDay(events, b.loc)
}

func (b *Bot) summarize(ctx context.Context, content string) string {
	if b.assistant == nil {
		return content
	}
	summary, err := b.assistant.Summarize(ctx, content)
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			b.log.Warn().Err(err).Msg("OpenAI summarise error")
		}
		return content
	}
	return summary
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.log.Error().Err(err).Msg("Twilio response encode")
	}
}

func askForTime() string {
	return "When should I remind you? Reply like '14:30', 'tomorrow 09:00' or '2025-03-05 14:30'."
}

func isListRequest(body string) bool {
	return strings.Contains(body, "show my reminders") ||
		strings.Contains(body, "list my reminders") ||
		strings.Contains(body, "show reminders") ||
		strings.Contains(body, "list reminders") ||
		(strings.Contains(body, "list") && strings.Contains(body, "reminder"))
}

func isTodayRequest(body string) bool {
	return body == "today" ||
		body == "agenda" ||
		strings.Contains(body, "what's on today") ||
		strings.Contains(body, "my day")
}

func helpResponse() string {
	return "You can say things like:\n- \"Pay rent\" and then a time to add a reminder\n- \"List reminders\" to see what is pending\n- \"Done 1,3\" to complete reminders from that list\n- \"Today\" for today's agenda"
}

var completeRegex = regexp.MustCompile(`(?i)^\s*(?:done|complete|completed|finished)(?:\s+([\d,\s]*))?\s*$`)

func extractCompleteArgs(message string) (string, bool) {
	matches := completeRegex.FindStringSubmatch(message)
	if len(matches) < 2 {
		return "", false
	}
	return strings.TrimSpace(matches[1]), true
}

// parseIndices reads 1-based positions separated by commas or spaces. Any
// invalid token rejects the whole input.
func parseIndices(input string) []int {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return nil
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil
		}
		out = append(out, n)
	}
	return out
}

var whenLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "02/01/2006 15:04"}

// parseWhen reads a reminder time relative to now, interpreted in now's
// location. A bare clock time that already passed today means tomorrow.
func parseWhen(text string, now time.Time) (time.Time, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	loc := now.Location()

	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}

	dayOffset := 0
	clock := text
	switch {
	case strings.HasPrefix(text, "tomorrow "):
		dayOffset = 1
		clock = strings.TrimSpace(strings.TrimPrefix(text, "tomorrow "))
	case strings.HasPrefix(text, "today "):
		clock = strings.TrimSpace(strings.TrimPrefix(text, "today "))
	}

	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised time %q", text)
	}
	t := time.Date(now.Year(), now.Month(), now.Day()+dayOffset, hm.Hour(), hm.Minute(), 0, 0, loc)
	if dayOffset == 0 && clock == text && t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

type conversationStore struct {
	mu    sync.RWMutex
	state map[string]conversationState
}

type conversationState struct {
	AwaitingTime   bool
	PendingMessage string
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		state: make(map[string]conversationState),
	}
}

func (c *conversationStore) SetPendingMessage(owner, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[owner] = conversationState{
		AwaitingTime:   true,
		PendingMessage: message,
	}
}

func (c *conversationStore) PendingMessage(owner string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[owner]
	if !ok {
		return "", false
	}
	return state.PendingMessage, true
}

func (c *conversationStore) Clear(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, owner)
}

func (c *conversationStore) IsAwaitingTime(owner string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[owner]
	return ok && state.AwaitingTime
}
