package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathakanu/myAgenda/internal/database/dbtest"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
)

var base = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func seedAppointment(t *testing.T, st store.Store, id, owner string, start time.Time, d time.Duration, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		ID: id, OwnerID: owner, Title: id,
		StartAt: start, EndAt: start.Add(d),
		Priority: model.PriorityMedium, Status: status,
		NotifyBeforeMinutes: 30, CreatedAt: base.Add(-24 * time.Hour),
	}
	require.NoError(t, st.Appointments().Create(context.Background(), a))
	return a
}

func TestReminderCRUD(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()

	r := &model.Reminder{
		ID: "r1", OwnerID: "alice", Title: "pay rent",
		RemindAt: base, Priority: model.PriorityHigh, Recurrence: model.RecurrenceMonthly,
		Status: model.ReminderPending, CreatedAt: base.Add(-time.Hour),
	}
	require.NoError(t, st.Reminders().Create(ctx, r))

	got, err := st.Reminders().Get(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, "pay rent", got.Title)
	assert.True(t, got.RemindAt.Equal(base))
	assert.Equal(t, model.RecurrenceMonthly, got.Recurrence)

	_, err = st.Reminders().Get(ctx, "bob", "r1")
	assert.True(t, model.IsNotFoundError(err), "foreign owner must not see the reminder")

	got.Title = "pay rent today"
	got.Description = ""
	require.NoError(t, st.Reminders().Save(ctx, got))
	got, err = st.Reminders().Get(ctx, "alice", "r1")
	require.NoError(t, err)
	assert.Equal(t, "pay rent today", got.Title)

	foreign := *got
	foreign.OwnerID = "bob"
	assert.True(t, model.IsNotFoundError(st.Reminders().Save(ctx, &foreign)))

	require.NoError(t, st.Reminders().Delete(ctx, "alice", "r1"))
	assert.True(t, model.IsNotFoundError(st.Reminders().Delete(ctx, "alice", "r1")))
}

func TestLegacyReminderLabelsNormalizedOnRead(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, st.DB().Exec(
		"INSERT INTO reminders (id, owner_id, title, remind_at, priority, recurrence, status, created_at) VALUES (?,?,?,?,?,?,?,?)",
		"legacy", "alice", "old one", base, "low", "once", "avisado", base.Add(-time.Hour),
	).Error)
	require.NoError(t, st.Reminders().Create(ctx, &model.Reminder{
		ID: "new", OwnerID: "alice", Title: "new one", RemindAt: base.Add(time.Hour),
		Priority: model.PriorityLow, Recurrence: model.RecurrenceOnce,
		Status: model.ReminderCompleted, CreatedAt: base,
	}))

	got, err := st.Reminders().Get(ctx, "alice", "legacy")
	require.NoError(t, err)
	assert.Equal(t, model.ReminderCompleted, got.Status)

	list, err := st.Reminders().List(ctx, store.ReminderFilter{
		OwnerID: "alice", Statuses: model.ReminderCompleted.StoredLabels(),
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "legacy", list[0].ID)
	assert.Equal(t, "new", list[1].ID)
}

func TestStatusFiltersIgnoreLabelCase(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, st.DB().Exec(
		"INSERT INTO reminders (id, owner_id, title, remind_at, priority, recurrence, status, created_at) VALUES (?,?,?,?,?,?,?,?)",
		"legacy", "alice", "old one", base, "low", "once", "Avisado", base.Add(-time.Hour),
	).Error)
	list, err := st.Reminders().List(ctx, store.ReminderFilter{
		OwnerID: "alice", Statuses: model.ReminderCompleted.StoredLabels(),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ReminderCompleted, list[0].Status)

	require.NoError(t, st.DB().Exec(
		"INSERT INTO appointments (id, owner_id, title, start_at, end_at, all_day, notify_before_minutes, priority, status, created_at) VALUES (?,?,?,?,?,?,?,?,?,?)",
		"old-slot", "alice", "old slot", base, base.Add(time.Hour), false, 30, "medium", " Agendado", base.Add(-time.Hour),
	).Error)
	hits, err := st.Appointments().Overlapping(ctx, "alice", base.Add(30*time.Minute), base.Add(90*time.Minute), "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.AppointmentScheduled, hits[0].Status)
}

func TestReminderListRangeAndLimit(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, st.Reminders().Create(ctx, &model.Reminder{
			ID: id, OwnerID: "alice", Title: id, RemindAt: base.Add(time.Duration(2-i) * time.Hour),
			Priority: model.PriorityMedium, Recurrence: model.RecurrenceOnce, Status: model.ReminderPending, CreatedAt: base,
		}))
	}

	all, err := st.Reminders().List(ctx, store.ReminderFilter{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	ranged, err := st.Reminders().List(ctx, store.ReminderFilter{OwnerID: "alice", From: base, To: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, ranged, 2)

	limited, err := st.Reminders().List(ctx, store.ReminderFilter{OwnerID: "alice", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].ID)

	due, err := st.Reminders().Due(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ID)
}

func TestOverlappingQuery(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()

	seedAppointment(t, st, "A", "alice", base, time.Hour, model.AppointmentScheduled)
	seedAppointment(t, st, "back-to-back", "alice", base.Add(time.Hour), time.Hour, model.AppointmentScheduled)
	seedAppointment(t, st, "cancelled", "alice", base, time.Hour, model.AppointmentCancelled)
	seedAppointment(t, st, "other-owner", "bob", base, time.Hour, model.AppointmentScheduled)

	hits, err := st.Appointments().Overlapping(ctx, "alice", base.Add(30*time.Minute), base.Add(90*time.Minute), "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "A", hits[0].ID)
	assert.Equal(t, "back-to-back", hits[1].ID)

	hits, err = st.Appointments().Overlapping(ctx, "alice", base.Add(-time.Hour), base, "")
	require.NoError(t, err)
	assert.Empty(t, hits, "touching intervals do not overlap")

	hits, err = st.Appointments().Overlapping(ctx, "alice", base, base.Add(time.Hour), "A")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAppointmentLifecyclePersistence(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()
	a := seedAppointment(t, st, "A", "alice", base, time.Hour, model.AppointmentScheduled)

	done := base.Add(2 * time.Hour)
	a.Status = model.AppointmentCompleted
	a.CompletedAt = &done
	require.NoError(t, st.Appointments().Save(ctx, a))

	got, err := st.Appointments().Get(ctx, "alice", "A")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
	assert.Nil(t, got.CancelledAt)

	upcoming, err := st.Appointments().StartingBetween(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestOwners(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()
	seedAppointment(t, st, "A", "carol", base, time.Hour, model.AppointmentScheduled)
	require.NoError(t, st.Reminders().Create(ctx, &model.Reminder{
		ID: "r", OwnerID: "alice", Title: "r", RemindAt: base, Priority: model.PriorityLow,
		Recurrence: model.RecurrenceOnce, Status: model.ReminderPending, CreatedAt: base,
	}))
	seedAppointment(t, st, "B", "alice", base.Add(2*time.Hour), time.Hour, model.AppointmentScheduled)

	owners, err := st.Owners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, owners)
}

func TestWithinOwnerTxRollsBack(t *testing.T) {
	st := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.WithinOwnerTx(ctx, "alice", func(tx store.Store) error {
		a := &model.Appointment{
			ID: "A", OwnerID: "alice", Title: "A", StartAt: base, EndAt: base.Add(time.Hour),
			Priority: model.PriorityLow, Status: model.AppointmentScheduled, CreatedAt: base,
		}
		if err := tx.Appointments().Create(ctx, a); err != nil {
			return err
		}
		return tx.WithinOwnerTx(ctx, "alice", func(store.Store) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Appointments().Get(ctx, "alice", "A")
	assert.True(t, model.IsNotFoundError(err))
}
