package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pathakanu/myAgenda/internal/api/respond"
	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/reminder"
)

// ReminderHandler provides HTTP transport for reminder operations.
type ReminderHandler struct {
	svc *reminder.Service
}

type createReminderRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RemindAt    time.Time `json:"remind_at"`
	Priority    string    `json:"priority"`
	Recurrence  string    `json:"recurrence"`
}

type updateReminderRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	RemindAt    *time.Time `json:"remind_at"`
	Priority    *string    `json:"priority"`
	Recurrence  *string    `json:"recurrence"`
}

// Create POST /api/reminders
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.RemindAt.IsZero() {
		respond.WriteBadRequest(w, "remind_at is required")
		return
	}
	rem, err := h.svc.Create(r.Context(), reminder.CreateRequest{
		OwnerID:     OwnerFrom(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		RemindAt:    req.RemindAt,
		Priority:    model.Priority(req.Priority),
		Recurrence:  model.Recurrence(req.Recurrence),
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, rem)
}

// List GET /api/reminders?status=&limit=
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), OwnerFrom(r.Context()), reminder.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": items, "count": len(items)})
}

// Get GET /api/reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	rem, err := h.svc.Get(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rem)
}

// Update PATCH /api/reminders/{id}
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	patch := reminder.Patch{Title: req.Title, Description: req.Description, RemindAt: req.RemindAt}
	if req.Priority != nil {
		p, err := model.ParsePriority(*req.Priority)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		patch.Priority = &p
	}
	if req.Recurrence != nil {
		rec, err := model.ParseRecurrence(*req.Recurrence)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		patch.Recurrence = &rec
	}

	rem, err := h.svc.Update(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rem)
}

// Complete POST /api/reminders/{id}/complete
func (h *ReminderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	rem, err := h.svc.Complete(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rem)
}

// Cancel POST /api/reminders/{id}/cancel
func (h *ReminderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	rem, err := h.svc.Cancel(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rem)
}

// Delete DELETE /api/reminders/{id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryLimit parses ?limit=; absent means 0 so services apply their default.
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respond.WriteBadRequest(w, "invalid limit")
		return 0, false
	}
	return limit, true
}
