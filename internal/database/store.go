package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
)

// statusIn matches stored labels the same way Scan reads them.
const statusIn = "LOWER(TRIM(status)) IN ?"

// Store implements store.Store on top of GORM.
type Store struct {
	db    *gorm.DB
	locks *ownerLocks
	inTx  bool
}

// NewStore wraps an open GORM connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, locks: newOwnerLocks()}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Reminders() store.Reminders       { return reminderTable{db: s.db} }
func (s *Store) Appointments() store.Appointments { return appointmentTable{db: s.db} }

// WithinOwnerTx serializes fn per owner in-process and, on PostgreSQL, across
// processes with a transaction-scoped advisory lock keyed on the owner.
func (s *Store) WithinOwnerTx(ctx context.Context, ownerID string, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	unlock := s.locks.lock(ownerID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID).Error; err != nil {
				return fmt.Errorf("owner lock: %w", err)
			}
		}
		return fn(&Store{db: tx, locks: s.locks, inTx: true})
	})
}

// Owners lists every owner that has reminders or appointments.
func (s *Store) Owners(ctx context.Context) ([]string, error) {
	var fromReminders, fromAppointments []string
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.Reminder{}).Distinct().Pluck("owner_id", &fromReminders).Error; err != nil {
		return nil, fmt.Errorf("list reminder owners: %w", err)
	}
	if err := db.Model(&model.Appointment{}).Distinct().Pluck("owner_id", &fromAppointments).Error; err != nil {
		return nil, fmt.Errorf("list appointment owners: %w", err)
	}

	seen := make(map[string]struct{}, len(fromReminders)+len(fromAppointments))
	owners := make([]string, 0, len(fromReminders)+len(fromAppointments))
	for _, id := range append(fromReminders, fromAppointments...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners, nil
}

type reminderTable struct{ db *gorm.DB }

func (t reminderTable) Create(ctx context.Context, r *model.Reminder) error {
	normalizeReminder(r)
	if err := t.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (t reminderTable) Get(ctx context.Context, ownerID, id string) (*model.Reminder, error) {
	var r model.Reminder
	err := t.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NewNotFoundError("id", fmt.Sprintf("reminder %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return &r, nil
}

func (t reminderTable) Save(ctx context.Context, r *model.Reminder) error {
	normalizeReminder(r)
	res := t.db.WithContext(ctx).Model(r).Where("owner_id = ?", r.OwnerID).Select("*").Updates(r)
	if res.Error != nil {
		return fmt.Errorf("update reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError("id", fmt.Sprintf("reminder %s not found", r.ID))
	}
	return nil
}

func (t reminderTable) Delete(ctx context.Context, ownerID, id string) error {
	res := t.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).Delete(&model.Reminder{})
	if res.Error != nil {
		return fmt.Errorf("delete reminder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError("id", fmt.Sprintf("reminder %s not found", id))
	}
	return nil
}

func (t reminderTable) List(ctx context.Context, f store.ReminderFilter) ([]model.Reminder, error) {
	query := t.db.WithContext(ctx).Where("owner_id = ?", f.OwnerID)
	if len(f.Statuses) > 0 {
		query = query.Where(statusIn, f.Statuses)
	}
	if !f.From.IsZero() {
		query = query.Where("remind_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		query = query.Where("remind_at < ?", f.To.UTC())
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var reminders []model.Reminder
	if err := query.Order("remind_at ASC, id ASC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

func (t reminderTable) Due(ctx context.Context, from, to time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := t.db.WithContext(ctx).
		Where(statusIn+" AND remind_at > ? AND remind_at <= ?", model.ReminderPending.StoredLabels(), from.UTC(), to.UTC()).
		Order("remind_at ASC, id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return reminders, nil
}

type appointmentTable struct{ db *gorm.DB }

func (t appointmentTable) Create(ctx context.Context, a *model.Appointment) error {
	normalizeAppointment(a)
	if err := t.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (t appointmentTable) Get(ctx context.Context, ownerID, id string) (*model.Appointment, error) {
	var a model.Appointment
	err := t.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NewNotFoundError("id", fmt.Sprintf("appointment %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}

func (t appointmentTable) Save(ctx context.Context, a *model.Appointment) error {
	normalizeAppointment(a)
	res := t.db.WithContext(ctx).Model(a).Where("owner_id = ?", a.OwnerID).Select("*").Updates(a)
	if res.Error != nil {
		return fmt.Errorf("update appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError("id", fmt.Sprintf("appointment %s not found", a.ID))
	}
	return nil
}

func (t appointmentTable) Delete(ctx context.Context, ownerID, id string) error {
	res := t.db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).Delete(&model.Appointment{})
	if res.Error != nil {
		return fmt.Errorf("delete appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NewNotFoundError("id", fmt.Sprintf("appointment %s not found", id))
	}
	return nil
}

func (t appointmentTable) List(ctx context.Context, f store.AppointmentFilter) ([]model.Appointment, error) {
	query := t.db.WithContext(ctx).Where("owner_id = ?", f.OwnerID)
	if len(f.Statuses) > 0 {
		query = query.Where(statusIn, f.Statuses)
	}
	if !f.From.IsZero() {
		query = query.Where("start_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		query = query.Where("start_at < ?", f.To.UTC())
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var appointments []model.Appointment
	if err := query.Order("start_at ASC, id ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

func (t appointmentTable) Overlapping(ctx context.Context, ownerID string, start, end time.Time, excludeID string) ([]model.Appointment, error) {
	query := t.db.WithContext(ctx).
		Where("owner_id = ? AND "+statusIn, ownerID, model.AppointmentScheduled.StoredLabels()).
		Where("start_at < ? AND end_at > ?", end.UTC(), start.UTC())
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var appointments []model.Appointment
	if err := query.Order("start_at ASC, id ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("overlapping appointments: %w", err)
	}
	return appointments, nil
}

func (t appointmentTable) StartingBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := t.db.WithContext(ctx).
		Where(statusIn+" AND start_at > ? AND start_at <= ?", model.AppointmentScheduled.StoredLabels(), from.UTC(), to.UTC()).
		Order("start_at ASC, id ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("upcoming appointments: %w", err)
	}
	return appointments, nil
}

func normalizeReminder(r *model.Reminder) {
	r.RemindAt = r.RemindAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.CompletedAt = utcPtr(r.CompletedAt)
	r.CancelledAt = utcPtr(r.CancelledAt)
}

func normalizeAppointment(a *model.Appointment) {
	a.StartAt = a.StartAt.UTC()
	a.EndAt = a.EndAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.CompletedAt = utcPtr(a.CompletedAt)
	a.CancelledAt = utcPtr(a.CancelledAt)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
