// Package temporal rejects instants that fall too far in the past.
package temporal

import (
	"time"

	"github.com/pathakanu/myAgenda/internal/model"
)

// DefaultGraceWindow is the tolerance subtracted from now.
const DefaultGraceWindow = 5 * time.Minute

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Validator checks scheduled instants against now minus a grace window.
type Validator struct {
	now   Clock
	grace time.Duration
}

// New returns a Validator. A nil clock uses SystemClock, a non-positive grace uses DefaultGraceWindow.
func New(now Clock, grace time.Duration) *Validator {
	if now == nil {
		now = SystemClock
	}
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Validator{now: now, grace: grace}
}

// Threshold is the earliest instant Validate accepts.
func (v *Validator) Threshold() time.Time {
	return v.now().Add(-v.grace)
}

// Validate fails with a TemporalError when instant is strictly before the threshold.
// The threshold itself is accepted.
func (v *Validator) Validate(field string, instant time.Time) error {
	threshold := v.Threshold()
	if instant.Before(threshold) {
		return model.NewTemporalError(field, instant, threshold)
	}
	return nil
}

// Now exposes the validator's clock so services stamp with the same time source.
func (v *Validator) Now() time.Time {
	return v.now()
}
