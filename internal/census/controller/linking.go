package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	reasonNoPublishedAssignment = "no benefit group assignment in a published plan year"
	reasonNoIdentityMatch       = "no matching identity record"
	reasonOtherEmployer         = "employee role belongs to another employer"
)

// linkGuards are the preconditions of link_employee_role beyond the state.
func linkGuards(idx models.BenefitGroupIndex, role *models.EmployeeRole, person *models.Person) []lifecycle.Guard {
	return []lifecycle.Guard{
		func(ce *models.CensusEmployee) string {
			if role.EmployerProfileID != ce.EmployerProfileID {
				return reasonOtherEmployer
			}
			return ""
		},
		func(ce *models.CensusEmployee) string {
			if !eligibility.HasPublishedAssignment(ce, idx) {
				return reasonNoPublishedAssignment
			}
			return ""
		},
		func(ce *models.CensusEmployee) string {
			if person == nil || eligibility.MatchForLink(ce, []*models.Person{person}) == nil {
				return reasonNoIdentityMatch
			}
			return ""
		},
	}
}

// LinkEmployeeRole binds the record to an employee role. The record must be
// unlinked, hold an assignment in a published plan year and match the
// role's person.
func (s *CensusService) LinkEmployeeRole(ctx context.Context, id, employeeRoleID uuid.UUID) (*models.CensusEmployee, error) {
	var ce *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		role, err := s.repo.GetEmployeeRole(ctx, employeeRoleID)
		if err != nil {
			return err
		}
		person, err := s.repo.GetPerson(ctx, role.PersonID)
		if err != nil && !errors.Is(err, e.ErrNotFound) {
			return fmt.Errorf("failed to get person: %w", err)
		}
		idx, err := s.benefitGroupIndex(ctx, ce)
		if err != nil {
			return err
		}
		if err := s.fire(ce, lifecycle.EventLinkEmployeeRole, linkGuards(idx, role, person)...); err != nil {
			return err
		}
		return s.bind(ctx, ce, role)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeLinked, ce)
	return ce, nil
}

// bind records the link on both sides and saves them.
func (s *CensusService) bind(ctx context.Context, ce *models.CensusEmployee, role *models.EmployeeRole) error {
	roleID, ceID := role.ID, ce.ID
	ce.EmployeeRoleID = &roleID
	role.CensusEmployeeID = &ceID
	if role.HiredOn == nil {
		role.HiredOn = ce.HiredOn
	}
	if err := s.repo.SaveEmployeeRole(ctx, role); err != nil {
		return fmt.Errorf("failed to save employee role: %w", err)
	}
	return s.repo.SaveCensusEmployee(ctx, ce)
}

// DelinkEmployeeRole reverses a link and detaches the employee role.
func (s *CensusService) DelinkEmployeeRole(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
	var ce *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := s.fire(ce, lifecycle.EventDelinkEmployeeRole); err != nil {
			return err
		}
		if ce.EmployeeRoleID != nil {
			role, err := s.repo.GetEmployeeRole(ctx, *ce.EmployeeRoleID)
			switch {
			case errors.Is(err, e.ErrNotFound):
			case err != nil:
				return fmt.Errorf("failed to get employee role: %w", err)
			default:
				role.CensusEmployeeID = nil
				if err := s.repo.SaveEmployeeRole(ctx, role); err != nil {
					return fmt.Errorf("failed to save employee role: %w", err)
				}
			}
		}
		ce.EmployeeRoleID = nil
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeDelinked, ce)
	return ce, nil
}

// ConstructEmployeeRoleForMatchPerson looks for a person matching the
// record's SSN, DOB and names. It returns false when none exists or when the
// person already holds a linked, active role with this employer. Otherwise
// it creates (or reuses) a role for the employer, binds it to the record and
// returns true. The record's state moves to linked when the link guards pass.
func (s *CensusService) ConstructEmployeeRoleForMatchPerson(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		ce     *models.CensusEmployee
		linked bool
	)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		people, err := s.repo.MatchPeople(ctx, ce.SSN, ce.DOB, ce.FirstName, ce.LastName)
		if err != nil {
			return fmt.Errorf("failed to match people: %w", err)
		}
		person := eligibility.ExactMatch(ce, people)
		if person == nil {
			return nil
		}

		roles, err := s.repo.FindEmployeeRolesByPerson(ctx, person.ID)
		if err != nil {
			return fmt.Errorf("failed to find employee roles: %w", err)
		}
		var role *models.EmployeeRole
		for _, r := range roles {
			if r.EmployerProfileID != ce.EmployerProfileID || !r.IsActive() {
				continue
			}
			if r.CensusEmployeeID != nil {
				return nil
			}
			role = r
		}
		if role == nil {
			role = &models.EmployeeRole{
				ID:                uuid.New(),
				PersonID:          person.ID,
				EmployerProfileID: ce.EmployerProfileID,
				HiredOn:           ce.HiredOn,
			}
			if err := s.repo.CreateEmployeeRole(ctx, role); err != nil {
				return fmt.Errorf("failed to create employee role: %w", err)
			}
		}

		idx, err := s.benefitGroupIndex(ctx, ce)
		if err != nil {
			return err
		}
		if lifecycle.May(ce.State, lifecycle.EventLinkEmployeeRole) && s.calc.MayLinkEmployeeRole(ce, idx) {
			if err := s.fire(ce, lifecycle.EventLinkEmployeeRole); err != nil {
				return err
			}
		}
		linked = true
		return s.bind(ctx, ce, role)
	})
	if err != nil {
		return false, err
	}

	if linked {
		s.logger.Info("Employee role constructed for matched person",
			zap.String("census_employee_id", ce.ID.String()),
			zap.String("state", string(ce.State)),
		)
		s.publish(events.CensusEmployeeLinked, ce)
	}
	return linked, nil
}

// NewlyDesignate marks the record as a newly designated hire.
func (s *CensusService) NewlyDesignate(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
	var ce *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := s.fire(ce, lifecycle.EventNewlyDesignate); err != nil {
			return err
		}
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeUpdated, ce)
	return ce, nil
}

// RebaseNewlyDesignated returns every newly designated record, optionally
// for one employer, to its regular state at the end of the designation
// period.
func (s *CensusService) RebaseNewlyDesignated(ctx context.Context, employerProfileID *uuid.UUID) (*BatchResult, error) {
	designated, err := s.repo.FindNewlyDesignated(ctx, employerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to find newly designated employees: %w", err)
	}

	result := &BatchResult{}
	for _, candidate := range designated {
		var rebased *models.CensusEmployee
		err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
			ce, err := s.load(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !models.NewlyDesignated.Contains(ce.State) {
				return nil
			}
			if err := s.fire(ce, lifecycle.EventRebaseNewDesignee); err != nil {
				return err
			}
			if err := s.repo.SaveCensusEmployee(ctx, ce); err != nil {
				return err
			}
			rebased = ce
			return nil
		})
		switch {
		case err != nil:
			s.logger.Error("Failed to rebase newly designated census employee",
				zap.Error(err),
				zap.String("census_employee_id", candidate.ID.String()),
			)
			result.Failures = append(result.Failures, BatchFailure{CensusEmployeeID: candidate.ID, Err: err})
		case rebased == nil:
			result.Skipped = append(result.Skipped, candidate.ID)
		default:
			result.Processed = append(result.Processed, rebased.ID)
			s.publish(events.CensusEmployeeUpdated, rebased)
		}
	}
	return result, nil
}
