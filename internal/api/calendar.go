package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pathakanu/myAgenda/internal/api/respond"
	"github.com/pathakanu/myAgenda/internal/calendar"
)

// CalendarHandler serves month projections and the today summary.
type CalendarHandler struct {
	aggregator *calendar.Aggregator
	todayLimit int
}

func (h *CalendarHandler) month(w http.ResponseWriter, r *http.Request) (*calendar.Month, bool) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		respond.WriteBadRequest(w, "invalid year")
		return nil, false
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil {
		respond.WriteBadRequest(w, "invalid month")
		return nil, false
	}
	m, err := h.aggregator.Month(r.Context(), OwnerFrom(r.Context()), year, time.Month(month))
	if err != nil {
		respond.WriteDomainError(w, err)
		return nil, false
	}
	return m, true
}

// GetMonth GET /api/calendar/{year}/{month}[?view=indicators]
func (h *CalendarHandler) GetMonth(w http.ResponseWriter, r *http.Request) {
	m, ok := h.month(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("view") == "indicators" {
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"year":       m.Year,
			"month":      int(m.Month),
			"indicators": calendar.Indicators(m),
		})
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// ExportICS GET /api/calendar/{year}/{month}.ics
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	m, ok := h.month(w, r)
	if !ok {
		return
	}
	body, err := calendar.ICS(m)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="agenda-%04d-%02d.ics"`, m.Year, int(m.Month)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// Today GET /api/today?limit=N
func (h *CalendarHandler) Today(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	if limit == 0 {
		limit = h.todayLimit
	}
	events, err := h.aggregator.Today(r.Context(), OwnerFrom(r.Context()), limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
}
