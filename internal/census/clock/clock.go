// Package clock supplies the business date used by every date-dependent rule.
package clock

import (
	"sync"
	"time"

	"github.com/gartstein/census/internal/pkg/utils"
)

// Clock returns the current business date.
type Clock interface {
	Today() time.Time
}

// System reads the wall clock.
type System struct{}

// Today returns the current UTC calendar date.
func (System) Today() time.Time {
	return utils.DateOf(time.Now().UTC())
}

// Fixed always returns the same date.
type Fixed time.Time

// Today returns the fixed date.
func (f Fixed) Today() time.Time {
	return utils.DateOf(time.Time(f))
}

// Adjustable follows a base clock until an administrator overrides the date.
type Adjustable struct {
	mu       sync.RWMutex
	base     Clock
	override *time.Time
}

// NewAdjustable wraps base.
func NewAdjustable(base Clock) *Adjustable {
	return &Adjustable{base: base}
}

// Today returns the override when set, else the base date.
func (a *Adjustable) Today() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.override != nil {
		return *a.override
	}
	return a.base.Today()
}

// Set pins the business date to d.
func (a *Adjustable) Set(d time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	day := utils.DateOf(d)
	a.override = &day
}

// Reset returns to the base clock.
func (a *Adjustable) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.override = nil
}
