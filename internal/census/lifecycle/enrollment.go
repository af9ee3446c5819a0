package lifecycle

import (
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
)

// EnrollmentEvent names a transition applied to an enrollment on termination.
type EnrollmentEvent string

const (
	EnrollmentScheduleTermination EnrollmentEvent = "schedule_coverage_termination"
	EnrollmentCancelCoverage      EnrollmentEvent = "cancel_coverage"
	EnrollmentInvalidateWaiver    EnrollmentEvent = "invalidate_waiver"
)

// NextEnrollmentState resolves the target of event from the enrollment's state.
func NextEnrollmentState(en *models.Enrollment, event EnrollmentEvent) (models.EnrollmentState, error) {
	switch event {
	case EnrollmentScheduleTermination:
		if en.IsEnrolledOrRenewing() {
			return models.EnrollmentCoverageTerminationPending, nil
		}
	case EnrollmentCancelCoverage:
		if en.IsEnrolledOrRenewing() {
			return models.EnrollmentCoverageCanceled, nil
		}
	case EnrollmentInvalidateWaiver:
		if en.IsWaived() {
			return models.EnrollmentInactive, nil
		}
	}
	return en.State, &e.IllegalTransitionError{Event: string(event), From: string(en.State)}
}

// FireEnrollment applies event to en.
func FireEnrollment(en *models.Enrollment, event EnrollmentEvent) error {
	next, err := NextEnrollmentState(en, event)
	if err != nil {
		return err
	}
	en.State = next
	return nil
}
