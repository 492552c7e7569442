// Package appointment orchestrates validation, conflict detection, lifecycle
// and persistence of appointments.
package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/conflict"
	"github.com/pathakanu/myAgenda/internal/lifecycle"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// CreateRequest carries the fields of a new appointment. A nil NotifyBefore
// falls back to model.DefaultNotifyBeforeMinutes.
type CreateRequest struct {
	OwnerID      string
	Title        string
	Description  string
	Location     string
	StartAt      time.Time
	EndAt        time.Time
	AllDay       bool
	Priority     model.Priority
	NotifyBefore *int
}

// Patch holds optional fields for a partial update. Nil means unchanged.
type Patch struct {
	Title        *string
	Description  *string
	Location     *string
	StartAt      *time.Time
	EndAt        *time.Time
	AllDay       *bool
	Priority     *model.Priority
	NotifyBefore *int
}

// ListFilter narrows List. Status accepts canonical or legacy labels.
type ListFilter struct {
	Status string
	Limit  int
}

// Service contains the business logic for appointments.
type Service struct {
	store     store.Store
	validator *temporal.Validator
	log       zerolog.Logger
}

// NewService creates an appointment service.
func NewService(st store.Store, validator *temporal.Validator, log zerolog.Logger) *Service {
	return &Service{store: st, validator: validator, log: log}
}

// Create runs the checks in order (required fields, interval, temporal,
// conflict) and persists a scheduled appointment. The conflict check and the
// insert share one owner-serialized transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Appointment, error) {
	if err := requireOwner(req.OwnerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.NewValidationError("title", "empty title")
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		return nil, model.NewValidationError("start_at", "start_at and end_at are required")
	}
	priority := model.PriorityMedium
	if req.Priority != "" {
		p, err := model.ParsePriority(string(req.Priority))
		if err != nil {
			return nil, err
		}
		priority = p
	}
	notifyBefore := model.DefaultNotifyBeforeMinutes
	if req.NotifyBefore != nil {
		notifyBefore = *req.NotifyBefore
	}
	if err := validateNotifyBefore(notifyBefore); err != nil {
		return nil, err
	}
	if err := validateInterval(req.StartAt, req.EndAt); err != nil {
		return nil, err
	}
	if err := s.validator.Validate("start_at", req.StartAt); err != nil {
		return nil, err
	}

	a := &model.Appointment{
		ID:                  uuid.NewString(),
		OwnerID:             req.OwnerID,
		Title:               title,
		Description:         strings.TrimSpace(req.Description),
		Location:            strings.TrimSpace(req.Location),
		StartAt:             req.StartAt.UTC(),
		EndAt:               req.EndAt.UTC(),
		AllDay:              req.AllDay,
		NotifyBeforeMinutes: notifyBefore,
		Priority:            priority,
		Status:              model.AppointmentScheduled,
		CreatedAt:           s.validator.Now().UTC(),
	}

	err := s.store.WithinOwnerTx(ctx, a.OwnerID, func(tx store.Store) error {
		if err := checkConflict(ctx, tx, a, ""); err != nil {
			return err
		}
		return tx.Appointments().Create(ctx, a)
	})
	if err != nil {
		if model.IsConflictError(err) {
			s.log.Info().Str("ownerID", a.OwnerID).Err(err).Msg("Appointment rejected")
		} else if !model.IsValidationError(err) {
			s.log.Error().Err(err).Str("ownerID", a.OwnerID).Msg("Failed to create appointment")
		}
		return nil, err
	}
	s.log.Info().Str("ownerID", a.OwnerID).Str("appointmentID", a.ID).Time("startAt", a.StartAt).Msg("Appointment created")
	return a, nil
}

// Get returns one appointment of the owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Appointment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Appointments().Get(ctx, ownerID, id)
}

// Update applies p. The merged interval must stay valid; a changed start_at is
// re-validated against the clock, and a changed interval of a scheduled
// appointment is re-checked for conflicts excluding the appointment itself.
func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (*model.Appointment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	var out *model.Appointment
	err := s.store.WithinOwnerTx(ctx, ownerID, func(tx store.Store) error {
		a, err := tx.Appointments().Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		intervalChanged, err := s.applyPatch(a, p)
		if err != nil {
			return err
		}
		if intervalChanged && a.Status == model.AppointmentScheduled {
			if err := checkConflict(ctx, tx, a, a.ID); err != nil {
				return err
			}
		}
		if err := tx.Appointments().Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ownerID", ownerID).Str("appointmentID", id).Msg("Appointment updated")
	return out, nil
}

func (s *Service) applyPatch(a *model.Appointment, p Patch) (bool, error) {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return false, model.NewValidationError("title", "empty title")
		}
		a.Title = title
	}
	if p.Description != nil {
		a.Description = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		a.Location = strings.TrimSpace(*p.Location)
	}
	if p.AllDay != nil {
		a.AllDay = *p.AllDay
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return false, model.NewValidationError("priority", "unknown priority "+string(*p.Priority))
		}
		a.Priority = *p.Priority
	}
	if p.NotifyBefore != nil {
		if err := validateNotifyBefore(*p.NotifyBefore); err != nil {
			return false, err
		}
		a.NotifyBeforeMinutes = *p.NotifyBefore
	}

	start, end := a.StartAt, a.EndAt
	if p.StartAt != nil {
		start = *p.StartAt
	}
	if p.EndAt != nil {
		end = *p.EndAt
	}
	startChanged := !start.Equal(a.StartAt)
	intervalChanged := startChanged || !end.Equal(a.EndAt)
	if !intervalChanged {
		return false, nil
	}
	if err := validateInterval(start, end); err != nil {
		return false, err
	}
	if startChanged {
		if err := s.validator.Validate("start_at", start); err != nil {
			return false, err
		}
	}
	a.StartAt, a.EndAt = start.UTC(), end.UTC()
	return true, nil
}

// Complete marks a scheduled appointment completed.
func (s *Service) Complete(ctx context.Context, ownerID, id string) (*model.Appointment, error) {
	return s.transition(ctx, ownerID, id, lifecycle.Complete)
}

// Cancel marks a scheduled appointment cancelled, freeing its interval.
func (s *Service) Cancel(ctx context.Context, ownerID, id string) (*model.Appointment, error) {
	return s.transition(ctx, ownerID, id, lifecycle.Cancel)
}

func (s *Service) transition(ctx context.Context, ownerID, id string, t lifecycle.Transition) (*model.Appointment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	var out *model.Appointment
	err := s.store.WithinOwnerTx(ctx, ownerID, func(tx store.Store) error {
		a, err := tx.Appointments().Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := lifecycle.ApplyAppointment(a, t, s.validator.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Appointments().Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ownerID", ownerID).Str("appointmentID", id).Str("status", string(out.Status)).Msg("Appointment finalized")
	return out, nil
}

// Delete removes an appointment on owner request.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Appointments().Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info().Str("ownerID", ownerID).Str("appointmentID", id).Msg("Appointment deleted")
	return nil
}

// List returns appointments ordered by start_at ascending.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) ([]model.Appointment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	filter := store.AppointmentFilter{OwnerID: ownerID, Limit: clampLimit(f.Limit)}
	if strings.TrimSpace(f.Status) != "" {
		status, err := model.NormalizeAppointmentStatus(f.Status)
		if err != nil {
			return nil, err
		}
		filter.Statuses = status.StoredLabels()
	}
	appointments, err := s.store.Appointments().List(ctx, filter)
	if err != nil {
		s.log.Warn().Err(err).Str("ownerID", ownerID).Msg("List appointments failed")
		return nil, err
	}
	return appointments, nil
}

func checkConflict(ctx context.Context, tx store.Store, a *model.Appointment, excludeID string) error {
	hit, err := conflict.New(tx.Appointments()).FindConflict(ctx, a.OwnerID, a.StartAt, a.EndAt, excludeID)
	if err != nil {
		return err
	}
	if hit != nil {
		return model.NewConflictError("start_at", "overlapping appointment", hit)
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if !end.After(start) {
		return model.NewValidationError("end_at", "end_at<=start_at")
	}
	return nil
}

func validateNotifyBefore(minutes int) error {
	if minutes < 0 || minutes > model.MaxNotifyBeforeMinutes {
		return model.NewValidationError("notify_before_minutes",
			fmt.Sprintf("must be between 0 and %d", model.MaxNotifyBeforeMinutes))
	}
	return nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return model.NewAuthorizationError("owner is required")
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
