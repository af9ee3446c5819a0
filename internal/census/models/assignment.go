package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentState is the coverage sub-state of a BenefitGroupAssignment.
type AssignmentState string

const (
	AssignmentInitialized        AssignmentState = "initialized"
	AssignmentCoverageSelected   AssignmentState = "coverage_selected"
	AssignmentCoverageWaived     AssignmentState = "coverage_waived"
	AssignmentCoverageRenewing   AssignmentState = "coverage_renewing"
	AssignmentCoverageTerminated AssignmentState = "coverage_terminated"
	AssignmentCoverageExpired    AssignmentState = "coverage_expired"
	AssignmentCoverageVoid       AssignmentState = "coverage_void"
)

// BenefitGroupAssignment binds an employee to a benefit group for a period.
// Assignments are deactivated, never deleted.
type BenefitGroupAssignment struct {
	ID             uuid.UUID
	BenefitGroupID uuid.UUID
	StartOn        time.Time
	EndOn          *time.Time
	IsActive       bool
	ActivatedAt    *time.Time
	State          AssignmentState
	CreatedAt      time.Time
}

// Activate marks the assignment active, stamping ActivatedAt once.
func (a *BenefitGroupAssignment) Activate(at time.Time) {
	a.IsActive = true
	if a.ActivatedAt == nil {
		a.ActivatedAt = &at
	}
}

// Deactivate clears the active flag.
func (a *BenefitGroupAssignment) Deactivate() {
	a.IsActive = false
}
