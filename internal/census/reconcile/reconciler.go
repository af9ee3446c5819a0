// Package reconcile walks the enrollments of a roster record when its
// employment ends and moves each one to the matching terminal state.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnrollmentStore loads and saves enrollments.
type EnrollmentStore interface {
	FindEnrollmentsByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*models.Enrollment, error)
	UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
}

// CoverageCalculator supplies the coverage end date for a termination.
type CoverageCalculator interface {
	EarliestCoverageTerminationOn(d time.Time) time.Time
}

// Outcome is what happened to one enrollment.
type Outcome string

const (
	OutcomeTerminationScheduled Outcome = "termination_scheduled"
	OutcomeCanceled             Outcome = "canceled"
	OutcomeWaiverInvalidated    Outcome = "waiver_invalidated"
)

// Change records one reconciled enrollment.
type Change struct {
	EnrollmentID uuid.UUID
	From         models.EnrollmentState
	To           models.EnrollmentState
	Outcome      Outcome
}

// Result summarizes a reconciliation.
type Result struct {
	CoverageTerminatedOn time.Time
	Changes              []Change
}

// Recorder receives one call per reconciled enrollment.
type Recorder interface {
	EnrollmentReconciled(outcome string)
}

// Reconciler applies the termination rules to enrollments.
type Reconciler struct {
	calc     CoverageCalculator
	recorder Recorder
	logger   *zap.Logger
}

// NewReconciler builds a Reconciler. recorder may be nil.
func NewReconciler(calc CoverageCalculator, recorder Recorder, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		calc:     calc,
		recorder: recorder,
		logger:   logger.Named("reconciler"),
	}
}

// Reconcile terminates, cancels or invalidates every enrollment reachable
// through ce's assignments for an employment termination on terminatedOn.
// Enrollments in other states are left alone. store should be bound to the
// caller's transaction.
func (r *Reconciler) Reconcile(ctx context.Context, store EnrollmentStore, ce *models.CensusEmployee, terminatedOn time.Time) (*Result, error) {
	coverageEnd := r.calc.EarliestCoverageTerminationOn(terminatedOn)
	result := &Result{CoverageTerminatedOn: coverageEnd}

	for _, a := range ce.BenefitGroupAssignments {
		enrollments, err := store.FindEnrollmentsByAssignment(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load enrollments for assignment %s: %w", a.ID, err)
		}
		for _, en := range enrollments {
			change, ok, err := r.apply(en, coverageEnd)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if err := store.UpdateEnrollment(ctx, en); err != nil {
				return nil, fmt.Errorf("failed to update enrollment %s: %w", en.ID, err)
			}
			result.Changes = append(result.Changes, change)
			if r.recorder != nil {
				r.recorder.EnrollmentReconciled(string(change.Outcome))
			}
			r.logger.Debug("Enrollment reconciled",
				zap.String("census_employee_id", ce.ID.String()),
				zap.String("enrollment_id", en.ID.String()),
				zap.String("from", string(change.From)),
				zap.String("to", string(change.To)),
			)
		}
	}
	return result, nil
}

func (r *Reconciler) apply(en *models.Enrollment, coverageEnd time.Time) (Change, bool, error) {
	change := Change{EnrollmentID: en.ID, From: en.State}

	switch {
	case en.IsEnrolledOrRenewing() && !utils.DateOf(en.EffectiveOn).After(coverageEnd):
		if err := lifecycle.FireEnrollment(en, lifecycle.EnrollmentScheduleTermination); err != nil {
			return change, false, err
		}
		end := coverageEnd
		en.TerminatedOn = &end
		change.Outcome = OutcomeTerminationScheduled
	case en.IsEnrolledOrRenewing():
		if err := lifecycle.FireEnrollment(en, lifecycle.EnrollmentCancelCoverage); err != nil {
			return change, false, err
		}
		en.TerminatedOn = nil
		change.Outcome = OutcomeCanceled
	case en.IsWaived():
		if err := lifecycle.FireEnrollment(en, lifecycle.EnrollmentInvalidateWaiver); err != nil {
			return change, false, err
		}
		en.TerminatedOn = nil
		change.Outcome = OutcomeWaiverInvalidated
	default:
		return change, false, nil
	}
	change.To = en.State
	return change, true, nil
}
