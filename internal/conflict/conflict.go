// Package conflict detects overlapping scheduled appointments for one owner.
package conflict

import (
	"context"
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
	"github.com/pathakanu/myAgenda/internal/store"
)

// Overlaps reports whether [s1, e1) and [s2, e2) intersect.
// Back-to-back intervals (e1 == s2) do not.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Detector finds scheduled appointments in the way of a candidate interval.
type Detector struct {
	appointments store.Appointments
}

// New returns a Detector reading from the given table.
func New(appointments store.Appointments) *Detector {
	return &Detector{appointments: appointments}
}

// FindConflict returns the earliest scheduled appointment of ownerID overlapping
// [start, end), ignoring excludeID, or nil when the interval is free.
func (d *Detector) FindConflict(ctx context.Context, ownerID string, start, end time.Time, excludeID string) (*model.Appointment, error) {
	candidates, err := d.appointments.Overlapping(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		c := candidates[i]
		if c.ID == excludeID || c.OwnerID != ownerID || c.Status != model.AppointmentScheduled {
			continue
		}
		if Overlaps(start, end, c.StartAt, c.EndAt) {
			return &c, nil
		}
	}
	return nil, nil
}
