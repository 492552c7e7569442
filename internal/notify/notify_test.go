package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/config"
	"github.com/pathakanu/myAgenda/internal/database/dbtest"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/reminder"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type message struct{ to, body string }

type fakeSender struct {
	mu   sync.Mutex
	sent []message
	fail map[string]bool
}

func (f *fakeSender) SendWhatsAppMessage(to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[to] {
		return errors.New("undeliverable")
	}
	f.sent = append(f.sent, message{to: to, body: body})
	return nil
}

type prefixCondenser struct{}

func (prefixCondenser) Summarize(_ context.Context, content string) (string, error) {
	return "short: " + content[:5], nil
}

type fixture struct {
	dispatcher   *Dispatcher
	sender       *fakeSender
	clock        *testClock
	reminders    *reminder.Service
	appointments *appointment.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)}
	st := dbtest.New(t)
	v := temporal.New(clock.Now, 0)
	sender := &fakeSender{fail: map[string]bool{}}

	d := New(config.NewForTesting(), st, calendar.NewAggregator(st, time.UTC, clock.Now, zerolog.Nop()), sender, nil, zerolog.Nop())
	d.now = clock.Now
	d.last = clock.now

	return fixture{
		dispatcher:   d,
		sender:       sender,
		clock:        clock,
		reminders:    reminder.NewService(st, v, zerolog.Nop()),
		appointments: appointment.NewService(st, v, zerolog.Nop()),
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 5, hour, minute, 0, 0, time.UTC)
}

func TestSendAlertsWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "+155500001", Title: "pills", RemindAt: at(8, 30), Priority: model.PriorityHigh})
	require.NoError(t, err)

	f.clock.now = at(8, 29)
	n, err := f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.now = at(8, 30)
	n, err = f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "+155500001", f.sender.sent[0].to)
	assert.Equal(t, "Reminder [high]: pills (08:30)", f.sender.sent[0].body)

	f.clock.now = at(8, 31)
	n, err = f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a reminder is only alerted once")
}

func TestSendAlertsUsesNotifyBefore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.appointments.Create(ctx, appointment.CreateRequest{
		OwnerID: "+155500002", Title: "dentist", Location: "Clinic",
		StartAt: at(10, 0), EndAt: at(11, 0),
	})
	require.NoError(t, err)
	fifteen := 15
	_, err = f.appointments.Create(ctx, appointment.CreateRequest{
		OwnerID: "+155500002", Title: "call", NotifyBefore: &fifteen,
		StartAt: at(12, 0), EndAt: at(12, 30),
	})
	require.NoError(t, err)

	f.clock.now = at(9, 30)
	n, err := f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Upcoming [medium]: dentist at 10:00-11:00 @ Clinic", f.sender.sent[0].body)

	f.clock.now = at(11, 50)
	n, err = f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Upcoming [medium]: call at 12:00-12:30", f.sender.sent[1].body)

	f.clock.now = at(11, 45)
	n, err = f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "clock going backwards sends nothing")
}

func TestSendAlertsSkipsCancelledAndCountsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "a", Title: "gone", RemindAt: at(8, 10)})
	require.NoError(t, err)
	_, err = f.reminders.Cancel(ctx, "a", r.ID)
	require.NoError(t, err)
	_, err = f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "b", Title: "blocked", RemindAt: at(8, 10)})
	require.NoError(t, err)
	_, err = f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "c", Title: "ok", RemindAt: at(8, 10)})
	require.NoError(t, err)
	f.sender.fail["b"] = true

	f.clock.now = at(8, 15)
	n, err := f.dispatcher.SendAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "c", f.sender.sent[0].to)
}

func TestReminderMessageCondensesDescription(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.condenser = prefixCondenser{}

	msg := f.dispatcher.reminderMessage(context.Background(), model.Reminder{
		Title: "rent", Description: "transfer to landlord", Priority: model.PriorityLow, RemindAt: at(9, 0),
	})
	assert.Equal(t, "Reminder [low]: short: rent: (09:00)", msg)

	msg = f.dispatcher.reminderMessage(context.Background(), model.Reminder{Title: "rent", Priority: model.PriorityLow, RemindAt: at(9, 0)})
	assert.Equal(t, "Reminder [low]: rent (09:00)", msg)
}

func TestSendDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "+1555", Title: "stretch", RemindAt: at(9, 0)})
	require.NoError(t, err)
	_, err = f.appointments.Create(ctx, appointment.CreateRequest{
		OwnerID: "+1555", Title: "standup", Priority: model.PriorityHigh,
		StartAt: at(10, 0), EndAt: at(10, 15),
	})
	require.NoError(t, err)
	_, err = f.reminders.Create(ctx, reminder.CreateRequest{OwnerID: "+1666", Title: "next week", RemindAt: at(9, 0).AddDate(0, 0, 7)})
	require.NoError(t, err)

	n, err := f.dispatcher.SendDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "+1555", f.sender.sent[0].to)
	assert.Equal(t, "Good morning! Today:\n10:00-10:15 [high] standup\n09:00 [medium] stretch", f.sender.sent[0].body)
}

func TestStartSchedulerRejectsBadSpec(t *testing.T) {
	f := newFixture(t)
	f.dispatcher.alertSpec = "not a cron"
	assert.Error(t, f.dispatcher.StartScheduler())

	f = newFixture(t)
	require.NoError(t, f.dispatcher.StartScheduler())
	f.dispatcher.StopScheduler()
}
