package controller

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FindOrCreateBenefitGroupAssignment makes an assignment to the benefit
// group the record's only active one, reusing the best existing assignment
// for the group.
func (s *CensusService) FindOrCreateBenefitGroupAssignment(ctx context.Context, id, benefitGroupID uuid.UUID) (*models.BenefitGroupAssignment, error) {
	var (
		ce         *models.CensusEmployee
		assignment *models.BenefitGroupAssignment
	)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		group, err := s.repo.GetBenefitGroup(ctx, benefitGroupID)
		if err != nil {
			return err
		}
		assignment, _ = eligibility.FindOrCreateAssignment(ce, group, assignmentStart(ce, group), s.now())
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.BenefitGroupAssigned, ce)
	return assignment, nil
}

// assignmentStart is the later of the plan year start and the hire date.
func assignmentStart(ce *models.CensusEmployee, group *models.BenefitGroup) (start time.Time) {
	if group.PlanYear != nil {
		start = group.PlanYear.StartOn
	}
	if ce.HiredOn != nil {
		start = utils.MaxDate(start, *ce.HiredOn)
	}
	return start
}

// UpdateAssignmentCoverage applies a coverage event to one assignment.
func (s *CensusService) UpdateAssignmentCoverage(ctx context.Context, id, assignmentID uuid.UUID, event lifecycle.AssignmentEvent) (*models.BenefitGroupAssignment, error) {
	var assignment *models.BenefitGroupAssignment
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		ce, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		assignment = ce.AssignmentByID(assignmentID)
		if assignment == nil {
			return fmt.Errorf("%w: benefit group assignment %s", e.ErrNotFound, assignmentID)
		}
		if err := lifecycle.FireAssignment(assignment, event); err != nil {
			return err
		}
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// HandlePlanYearStateChanged records a plan year status and updates the
// employer's roster. A renewal gains a renewal assignment on every active
// record; a published plan year activates the assignments already made in
// it. A plan year turning active starts a new plan year for the employer,
// which ends the newly designated period of its roster.
func (s *CensusService) HandlePlanYearStateChanged(ctx context.Context, planYearID uuid.UUID, state models.PlanYearState) (*BatchResult, error) {
	if err := s.repo.UpdatePlanYearState(ctx, planYearID, state); err != nil {
		return nil, err
	}
	py, err := s.repo.GetPlanYear(ctx, planYearID)
	if err != nil {
		return nil, err
	}

	result, err := s.updatePlanYearAssignments(ctx, py)
	if err != nil {
		return nil, err
	}
	if state == models.PlanYearActive {
		rebased, err := s.RebaseNewlyDesignated(ctx, &py.EmployerProfileID)
		if err != nil {
			return nil, err
		}
		result.merge(rebased)
	}
	return result, nil
}

func (s *CensusService) updatePlanYearAssignments(ctx context.Context, py *models.PlanYear) (*BatchResult, error) {
	group := py.DefaultBenefitGroup()
	result := &BatchResult{}
	if group == nil || !(py.IsRenewing() || py.IsPublished()) {
		return result, nil
	}

	roster, err := s.repo.FindActiveByEmployerProfile(ctx, py.EmployerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	groupIDs := make(map[uuid.UUID]*models.BenefitGroup, len(py.BenefitGroups))
	for _, g := range py.BenefitGroups {
		groupIDs[g.ID] = g
	}

	for _, candidate := range roster {
		var changed *models.CensusEmployee
		err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
			ce, err := s.load(ctx, candidate.ID)
			if err != nil {
				return err
			}
			var modified bool
			if py.IsRenewing() {
				_, modified = eligibility.AddRenewalAssignment(ce, group, py.StartOn, s.now())
			} else {
				modified = activatePlanYearAssignment(ce, groupIDs, s.now())
			}
			if !modified {
				return nil
			}
			if err := s.repo.SaveCensusEmployee(ctx, ce); err != nil {
				return err
			}
			changed = ce
			return nil
		})
		switch {
		case err != nil:
			s.logger.Error("Failed to update assignments for plan year",
				zap.Error(err),
				zap.String("plan_year_id", py.ID.String()),
				zap.String("census_employee_id", candidate.ID.String()),
			)
			result.Failures = append(result.Failures, BatchFailure{CensusEmployeeID: candidate.ID, Err: err})
		case changed == nil:
			result.Skipped = append(result.Skipped, candidate.ID)
		default:
			result.Processed = append(result.Processed, changed.ID)
			s.publish(events.BenefitGroupAssigned, changed)
		}
	}
	return result, nil
}

// activatePlanYearAssignment makes the record's assignment in one of groups
// its active assignment. It reports false when there is none or it is
// already the active one.
func activatePlanYearAssignment(ce *models.CensusEmployee, groups map[uuid.UUID]*models.BenefitGroup, now time.Time) bool {
	var group *models.BenefitGroup
	for _, a := range ce.BenefitGroupAssignments {
		if g, ok := groups[a.BenefitGroupID]; ok {
			group = g
			if active := eligibility.ActiveAssignment(ce); active != nil && active.ID == a.ID {
				return false
			}
			break
		}
	}
	if group == nil {
		return false
	}
	eligibility.FindOrCreateAssignment(ce, group, assignmentStart(ce, group), now)
	return true
}

// HandleInboundEvent dispatches a consumed plan year or coverage event.
func (s *CensusService) HandleInboundEvent(ctx context.Context, ev events.InboundEvent) error {
	switch ev.Type {
	case events.PlanYearStateChanged:
		_, err := s.HandlePlanYearStateChanged(ctx, ev.PlanYearID, models.PlanYearState(ev.PlanYearState))
		return err
	case events.CoverageSelected:
		_, err := s.UpdateAssignmentCoverage(ctx, ev.CensusEmployeeID, ev.BenefitGroupAssignmentID, lifecycle.AssignmentSelectCoverage)
		return err
	case events.CoverageWaived:
		_, err := s.UpdateAssignmentCoverage(ctx, ev.CensusEmployeeID, ev.BenefitGroupAssignmentID, lifecycle.AssignmentWaiveCoverage)
		return err
	case events.CoverageTerminated:
		_, err := s.UpdateAssignmentCoverage(ctx, ev.CensusEmployeeID, ev.BenefitGroupAssignmentID, lifecycle.AssignmentTerminateCoverage)
		return err
	default:
		return fmt.Errorf("%w: unknown event type %q", e.ErrInvalidInput, ev.Type)
	}
}
