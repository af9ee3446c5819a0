package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentState is the status of a coverage enrollment.
type EnrollmentState string

const (
	EnrollmentCoverageSelected             EnrollmentState = "coverage_selected"
	EnrollmentTransmittedToCarrier         EnrollmentState = "transmitted_to_carrier"
	EnrollmentCoverageEnrolled             EnrollmentState = "coverage_enrolled"
	EnrollmentEnrolledContingent           EnrollmentState = "enrolled_contingent"
	EnrollmentUnverified                   EnrollmentState = "unverified"
	EnrollmentAutoRenewing                 EnrollmentState = "auto_renewing"
	EnrollmentRenewingCoverageSelected     EnrollmentState = "renewing_coverage_selected"
	EnrollmentRenewingTransmittedToCarrier EnrollmentState = "renewing_transmitted_to_carrier"
	EnrollmentRenewingCoverageEnrolled     EnrollmentState = "renewing_coverage_enrolled"
	EnrollmentInactive                     EnrollmentState = "inactive"
	EnrollmentRenewingWaived               EnrollmentState = "renewing_waived"
	EnrollmentCoverageTerminationPending   EnrollmentState = "coverage_termination_pending"
	EnrollmentCoverageTerminated           EnrollmentState = "coverage_terminated"
	EnrollmentCoverageCanceled             EnrollmentState = "coverage_canceled"
	EnrollmentCoverageExpired              EnrollmentState = "coverage_expired"
	EnrollmentVoid                         EnrollmentState = "void"
)

var (
	EnrolledStates = []EnrollmentState{
		EnrollmentCoverageSelected, EnrollmentTransmittedToCarrier, EnrollmentCoverageEnrolled,
		EnrollmentEnrolledContingent, EnrollmentUnverified,
	}
	RenewalStates = []EnrollmentState{
		EnrollmentAutoRenewing, EnrollmentRenewingCoverageSelected,
		EnrollmentRenewingTransmittedToCarrier, EnrollmentRenewingCoverageEnrolled,
	}
	WaivedStates = []EnrollmentState{EnrollmentInactive, EnrollmentRenewingWaived}
)

func containsEnrollmentState(set []EnrollmentState, s EnrollmentState) bool {
	for _, c := range set {
		if c == s {
			return true
		}
	}
	return false
}

// Coverage kinds.
const (
	CoverageHealth = "health"
	CoverageDental = "dental"
)

// Enrollment is a coverage enrollment made through a benefit group assignment.
type Enrollment struct {
	ID                       uuid.UUID
	BenefitGroupAssignmentID uuid.UUID
	CoverageKind             string
	EffectiveOn              time.Time
	TerminatedOn             *time.Time
	State                    EnrollmentState
	CreatedAt                time.Time
}

// IsEnrolledOrRenewing reports whether coverage is in force or renewing.
func (e *Enrollment) IsEnrolledOrRenewing() bool {
	return containsEnrollmentState(EnrolledStates, e.State) || containsEnrollmentState(RenewalStates, e.State)
}

// IsWaived reports whether coverage was declined.
func (e *Enrollment) IsWaived() bool {
	return containsEnrollmentState(WaivedStates, e.State)
}
