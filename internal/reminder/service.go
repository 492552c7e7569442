// Package reminder orchestrates validation, lifecycle and persistence of reminders.
package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pathakanu/myAgenda/internal/lifecycle"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
	"github.com/pathakanu/myAgenda/internal/temporal"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// CreateRequest carries the fields of a new reminder.
type CreateRequest struct {
	OwnerID     string
	Title       string
	Description string
	RemindAt    time.Time
	Priority    model.Priority
	Recurrence  model.Recurrence
}

// Patch holds optional fields for a partial update. Nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	RemindAt    *time.Time
	Priority    *model.Priority
	Recurrence  *model.Recurrence
}

// ListFilter narrows List. Status accepts canonical or legacy labels; empty lists all.
type ListFilter struct {
	Status string
	Limit  int
}

// Service contains the business logic for reminders.
type Service struct {
	store     store.Store
	validator *temporal.Validator
	log       zerolog.Logger
}

// NewService creates a reminder service.
func NewService(st store.Store, validator *temporal.Validator, log zerolog.Logger) *Service {
	return &Service{store: st, validator: validator, log: log}
}

// Create validates and persists a new pending reminder.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reminder, error) {
	if err := requireOwner(req.OwnerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.NewValidationError("title", "empty title")
	}
	priority, err := defaultPriority(req.Priority)
	if err != nil {
		return nil, err
	}
	recurrence, err := defaultRecurrence(req.Recurrence)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate("remind_at", req.RemindAt); err != nil {
		return nil, err
	}

	r := &model.Reminder{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		RemindAt:    req.RemindAt.UTC(),
		Priority:    priority,
		Recurrence:  recurrence,
		Status:      model.ReminderPending,
		CreatedAt:   s.validator.Now().UTC(),
	}
	if err := s.store.Reminders().Create(ctx, r); err != nil {
		s.log.Error().Err(err).Str("ownerID", r.OwnerID).Msg("Failed to create reminder")
		return nil, err
	}
	s.log.Info().Str("ownerID", r.OwnerID).Str("reminderID", r.ID).Time("remindAt", r.RemindAt).Msg("Reminder created")
	return r, nil
}

// Get returns one reminder of the owner.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Reminder, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Reminders().Get(ctx, ownerID, id)
}

// Update applies p. The temporal check runs only when remind_at actually changes.
func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (*model.Reminder, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	var out *model.Reminder
	err := s.store.WithinOwnerTx(ctx, ownerID, func(tx store.Store) error {
		r, err := tx.Reminders().Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.applyPatch(r, p); err != nil {
			return err
		}
		if err := tx.Reminders().Save(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ownerID", ownerID).Str("reminderID", id).Msg("Reminder updated")
	return out, nil
}

func (s *Service) applyPatch(r *model.Reminder, p Patch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return model.NewValidationError("title", "empty title")
		}
		r.Title = title
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return model.NewValidationError("priority", "unknown priority "+string(*p.Priority))
		}
		r.Priority = *p.Priority
	}
	if p.Recurrence != nil {
		if !p.Recurrence.Valid() {
			return model.NewValidationError("recurrence", "unknown recurrence "+string(*p.Recurrence))
		}
		r.Recurrence = *p.Recurrence
	}
	if p.RemindAt != nil && !p.RemindAt.Equal(r.RemindAt) {
		if err := s.validator.Validate("remind_at", *p.RemindAt); err != nil {
			return err
		}
		r.RemindAt = p.RemindAt.UTC()
	}
	return nil
}

// Complete marks a pending reminder completed.
func (s *Service) Complete(ctx context.Context, ownerID, id string) (*model.Reminder, error) {
	return s.transition(ctx, ownerID, id, lifecycle.Complete)
}

// Cancel marks a pending reminder cancelled.
func (s *Service) Cancel(ctx context.Context, ownerID, id string) (*model.Reminder, error) {
	return s.transition(ctx, ownerID, id, lifecycle.Cancel)
}

func (s *Service) transition(ctx context.Context, ownerID, id string, t lifecycle.Transition) (*model.Reminder, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	var out *model.Reminder
	err := s.store.WithinOwnerTx(ctx, ownerID, func(tx store.Store) error {
		r, err := tx.Reminders().Get(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if err := lifecycle.ApplyReminder(r, t, s.validator.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Reminders().Save(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("ownerID", ownerID).Str("reminderID", id).Str("status", string(out.Status)).Msg("Reminder finalized")
	return out, nil
}

// Delete removes a reminder on owner request.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Reminders().Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.log.Info().Str("ownerID", ownerID).Str("reminderID", id).Msg("Reminder deleted")
	return nil
}

// List returns reminders ordered by remind_at ascending. A completed filter also
// matches legacy completed labels still present in storage.
func (s *Service) List(ctx context.Context, ownerID string, f ListFilter) ([]model.Reminder, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	filter := store.ReminderFilter{OwnerID: ownerID, Limit: clampLimit(f.Limit)}
	if strings.TrimSpace(f.Status) != "" {
		status, err := model.NormalizeReminderStatus(f.Status)
		if err != nil {
			return nil, err
		}
		filter.Statuses = status.StoredLabels()
	}
	reminders, err := s.store.Reminders().List(ctx, filter)
	if err != nil {
		s.log.Warn().Err(err).Str("ownerID", ownerID).Msg("List reminders failed")
		return nil, err
	}
	return reminders, nil
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return model.NewAuthorizationError("owner is required")
	}
	return nil
}

func defaultPriority(p model.Priority) (model.Priority, error) {
	if p == "" {
		return model.PriorityMedium, nil
	}
	return model.ParsePriority(string(p))
}

func defaultRecurrence(r model.Recurrence) (model.Recurrence, error) {
	if r == "" {
		return model.RecurrenceOnce, nil
	}
	return model.ParseRecurrence(string(r))
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
