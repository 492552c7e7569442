package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pathakanu/myAgenda/internal/api/respond"
	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/model"
)

// AppointmentHandler provides HTTP transport for appointment operations.
type AppointmentHandler struct {
	svc *appointment.Service
}

type createAppointmentRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	StartAt             time.Time `json:"start_at"`
	EndAt               time.Time `json:"end_at"`
	AllDay              bool      `json:"all_day"`
	Priority            string    `json:"priority"`
	NotifyBeforeMinutes *int      `json:"notify_before_minutes"`
}

type updateAppointmentRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Location            *string    `json:"location"`
	StartAt             *time.Time `json:"start_at"`
	EndAt               *time.Time `json:"end_at"`
	AllDay              *bool      `json:"all_day"`
	Priority            *string    `json:"priority"`
	NotifyBeforeMinutes *int       `json:"notify_before_minutes"`
}

// Create POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	a, err := h.svc.Create(r.Context(), appointment.CreateRequest{
		OwnerID:      OwnerFrom(r.Context()),
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		AllDay:       req.AllDay,
		Priority:     model.Priority(req.Priority),
		NotifyBefore: req.NotifyBeforeMinutes,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, a)
}

// List GET /api/appointments?status=&limit=
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), OwnerFrom(r.Context()), appointment.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": items, "count": len(items)})
}

// Get GET /api/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// Update PATCH /api/appointments/{id}
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	patch := appointment.Patch{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		AllDay:       req.AllDay,
		NotifyBefore: req.NotifyBeforeMinutes,
	}
	if req.Priority != nil {
		p, err := model.ParsePriority(*req.Priority)
		if err != nil {
			respond.WriteDomainError(w, err)
			return
		}
		patch.Priority = &p
	}

	a, err := h.svc.Update(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// Complete POST /api/appointments/{id}/complete
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Complete(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// Cancel POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Cancel(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// Delete DELETE /api/appointments/{id}
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), OwnerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
