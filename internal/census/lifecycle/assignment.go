package lifecycle

import (
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
)

// AssignmentEvent names a coverage transition of a BenefitGroupAssignment.
type AssignmentEvent string

const (
	AssignmentSelectCoverage    AssignmentEvent = "select_coverage"
	AssignmentWaiveCoverage     AssignmentEvent = "waive_coverage"
	AssignmentRenewCoverage     AssignmentEvent = "renew_coverage"
	AssignmentTerminateCoverage AssignmentEvent = "terminate_coverage"
	AssignmentExpireCoverage    AssignmentEvent = "expire_coverage"
	AssignmentVoidCoverage      AssignmentEvent = "void_coverage"
)

var assignmentTransitions = map[AssignmentEvent]struct {
	from []models.AssignmentState
	to   models.AssignmentState
}{
	AssignmentSelectCoverage: {
		from: []models.AssignmentState{models.AssignmentInitialized, models.AssignmentCoverageWaived, models.AssignmentCoverageRenewing, models.AssignmentCoverageSelected},
		to:   models.AssignmentCoverageSelected,
	},
	AssignmentWaiveCoverage: {
		from: []models.AssignmentState{models.AssignmentInitialized, models.AssignmentCoverageSelected, models.AssignmentCoverageRenewing, models.AssignmentCoverageWaived},
		to:   models.AssignmentCoverageWaived,
	},
	AssignmentRenewCoverage: {
		from: []models.AssignmentState{models.AssignmentInitialized},
		to:   models.AssignmentCoverageRenewing,
	},
	AssignmentTerminateCoverage: {
		from: []models.AssignmentState{models.AssignmentCoverageSelected, models.AssignmentCoverageRenewing},
		to:   models.AssignmentCoverageTerminated,
	},
	AssignmentExpireCoverage: {
		from: []models.AssignmentState{
			models.AssignmentInitialized, models.AssignmentCoverageSelected,
			models.AssignmentCoverageWaived, models.AssignmentCoverageRenewing,
			models.AssignmentCoverageTerminated,
		},
		to: models.AssignmentCoverageExpired,
	},
	AssignmentVoidCoverage: {
		from: []models.AssignmentState{models.AssignmentInitialized, models.AssignmentCoverageSelected, models.AssignmentCoverageWaived},
		to:   models.AssignmentCoverageVoid,
	},
}

// NextAssignmentState resolves the target of event from current.
func NextAssignmentState(current models.AssignmentState, event AssignmentEvent) (models.AssignmentState, error) {
	t, ok := assignmentTransitions[event]
	if ok {
		for _, s := range t.from {
			if s == current {
				return t.to, nil
			}
		}
	}
	return current, &e.IllegalTransitionError{Event: string(event), From: string(current)}
}

// FireAssignment applies event to a.
func FireAssignment(a *models.BenefitGroupAssignment, event AssignmentEvent) error {
	next, err := NextAssignmentState(a.State, event)
	if err != nil {
		return err
	}
	a.State = next
	return nil
}
