// Package api exposes the scheduling services over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pathakanu/myAgenda/internal/api/recovery"
	"github.com/pathakanu/myAgenda/internal/appointment"
	"github.com/pathakanu/myAgenda/internal/calendar"
	"github.com/pathakanu/myAgenda/internal/reminder"
)

// Services bundles what the router serves.
type Services struct {
	Reminders    *reminder.Service
	Appointments *appointment.Service
	Calendar     *calendar.Aggregator
	TodayLimit   int
	// Webhook, when set, is mounted at /twilio/webhook outside owner resolution.
	Webhook http.Handler
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(svc Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	router.HandleFunc("/health", CheckHealth).Methods("GET")
	if svc.Webhook != nil {
		router.Handle("/twilio/webhook", svc.Webhook).Methods("POST")
	}

	reminders := &ReminderHandler{svc: svc.Reminders}
	appointments := &AppointmentHandler{svc: svc.Appointments}
	cal := &CalendarHandler{aggregator: svc.Calendar, todayLimit: svc.TodayLimit}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RequireOwner)

	api.HandleFunc("/reminders", reminders.Create).Methods("POST")
	api.HandleFunc("/reminders", reminders.List).Methods("GET")
	api.HandleFunc("/reminders/{id}", reminders.Get).Methods("GET")
	api.HandleFunc("/reminders/{id}", reminders.Update).Methods("PATCH")
	api.HandleFunc("/reminders/{id}", reminders.Delete).Methods("DELETE")
	api.HandleFunc("/reminders/{id}/complete", reminders.Complete).Methods("POST")
	api.HandleFunc("/reminders/{id}/cancel", reminders.Cancel).Methods("POST")

	api.HandleFunc("/appointments", appointments.Create).Methods("POST")
	api.HandleFunc("/appointments", appointments.List).Methods("GET")
	api.HandleFunc("/appointments/{id}", appointments.Get).Methods("GET")
	api.HandleFunc("/appointments/{id}", appointments.Update).Methods("PATCH")
	api.HandleFunc("/appointments/{id}", appointments.Delete).Methods("DELETE")
	api.HandleFunc("/appointments/{id}/complete", appointments.Complete).Methods("POST")
	api.HandleFunc("/appointments/{id}/cancel", appointments.Cancel).Methods("POST")

	api.HandleFunc("/calendar/{year:[0-9]{4}}/{month:[0-9]{1,2}}.ics", cal.ExportICS).Methods("GET")
	api.HandleFunc("/calendar/{year:[0-9]{4}}/{month:[0-9]{1,2}}", cal.GetMonth).Methods("GET")
	api.HandleFunc("/today", cal.Today).Methods("GET")

	return router
}
