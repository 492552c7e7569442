// Package notify pushes reminder alerts and the daily digest to owners on a
// cron schedule.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/config"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

const tickTimeout = 30 * time.Second

// Sender delivers a message to an owner. The owner id is the WhatsApp number.
type Sender interface {
	SendWhatsAppMessage(to, body string) error
}

// Condenser shortens message bodies.
type Condenser interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Dispatcher runs the alert and digest jobs.
type Dispatcher struct {
	store      store.Store
	calendar   *calendar.Aggregator
	sender     Sender
	condenser  Condenser
	loc        *time.Location
	todayLimit int
	alertSpec  string
	digestSpec string
	now        temporal.Clock
	cron       *cron.Cron
	log        zerolog.Logger

	mu   sync.Mutex
	last time.Time
}

// New creates a Dispatcher. Alerts start from the moment of construction so a
// restart never replays old reminders.
func New(cfg *config.Config, st store.Store, cal *calendar.Aggregator, sender Sender, condenser Condenser, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      st,
		calendar:   cal,
		sender:     sender,
		condenser:  condenser,
		loc:        cfg.Location(),
		todayLimit: cfg.TodayLimit,
		alertSpec:  cfg.AlertCron,
		digestSpec: cfg.DigestCron,
		now:        temporal.SystemClock,
		cron:       cron.New(cron.WithLocation(cfg.Location())),
		log:        log,
		last:       temporal.SystemClock(),
	}
}

// StartScheduler registers cron jobs and starts the scheduler loop.
func (d *Dispatcher) StartScheduler() error {
	if _, err := d.cron.AddFunc(d.alertSpec, d.runAlerts); err != nil {
		return fmt.Errorf("alert schedule %q: %w", d.alertSpec, err)
	}
	if _, err := d.cron.AddFunc(d.digestSpec, d.runDigest); err != nil {
		return fmt.Errorf("digest schedule %q: %w", d.digestSpec, err)
	}
	d.cron.Start()
	d.log.Info().Str("alerts", d.alertSpec).Str("digest", d.digestSpec).Msg("Notification scheduler started")
	return nil
}

// StopScheduler stops the cron scheduler and waits for running jobs.
func (d *Dispatcher) StopScheduler() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

func (d *Dispatcher) runAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	if _, err := d.SendAlerts(ctx); err != nil {
		d.log.Error().Err(err).Msg("Alert tick failed")
	}
}

func (d *Dispatcher) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	if _, err := d.SendDigest(ctx); err != nil {
		d.log.Error().Err(err).Msg("Digest tick failed")
	}
}

// SendAlerts notifies owners of reminders due and appointments whose notify
// time fell since the previous tick, i.e. within (last, now]. It returns the
// number of messages delivered.
func (d *Dispatcher) SendAlerts(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	from, to := d.last, d.now()
	if !to.After(from) {
		return 0, nil
	}

	reminders, err := d.store.Reminders().Due(ctx, from, to)
	if err != nil {
		return 0, err
	}
	lookahead := to.Add(model.MaxNotifyBeforeMinutes * time.Minute)
	appointments, err := d.store.Appointments().StartingBetween(ctx, from, lookahead)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range reminders {
		if d.deliver(r.OwnerID, d.reminderMessage(ctx, r)) {
			sent++
		}
	}
	for _, a := range appointments {
		at := a.NotifyAt()
		if !at.After(from) || at.After(to) {
			continue
		}
		if d.deliver(a.OwnerID, d.appointmentMessage(a)) {
			sent++
		}
	}

	d.last = to
	d.log.Debug().Time("from", from).Time("to", to).Int("sent", sent).Msg("Alert tick")
	return sent, nil
}

// SendDigest sends every owner with something on today's agenda a ranked
// summary of the day.
func (d *Dispatcher) SendDigest(ctx context.Context) (int, error) {
	owners, err := d.store.Owners(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, owner := range owners {
		events, err := d.calendar.Today(ctx, owner, d.todayLimit)
		if err != nil {
			d.log.Error().Err(err).Str("ownerID", owner).Msg("Digest: load today")
			continue
		}
		if len(events) == 0 {
			continue
		}
		if d.deliver(owner, "Good morning! Today:\n"+calendar.FormatDay(events, d.loc)) {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) deliver(owner, body string) bool {
	if err := d.sender.SendWhatsAppMessage(owner, body); err != nil {
		d.log.Warn().Err(err).Str("ownerID", owner).Msg("Notification not delivered")
		return false
	}
	return true
}

func (d *Dispatcher) reminderMessage(ctx context.Context, r model.Reminder) string {
	text := r.Title
	if r.Description != "" {
		text = d.condense(ctx, r.Title+": "+r.Description)
	}
	return fmt.Sprintf("Reminder [%s]: %s (%s)", r.Priority, text, r.RemindAt.In(d.loc).Format("15:04"))
}

func (d *Dispatcher) appointmentMessage(a model.Appointment) string {
	msg := fmt.Sprintf("Upcoming [%s]: %s at %s-%s", a.Priority, a.Title,
		a.StartAt.In(d.loc).Format("15:04"), a.EndAt.In(d.loc).Format("15:04"))
	if a.Location != "" {
		msg += " @ " + a.Location
	}
	return msg
}

func (d *Dispatcher) condense(ctx context.Context, text string) string {
	if d.condenser == nil {
		return text
	}
	summary, err := d.condenser.Summarize(ctx, text)
	if err != nil || summary == "" {
		return text
	}
	return summary
}
