package controller

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Eligibility is the derived view of a roster record on the business date.
type Eligibility struct {
	CensusEmployee            *models.CensusEmployee
	CurrentState              string
	IsLinked                  bool
	IsActive                  bool
	IsCobraStatus             bool
	MayLinkEmployeeRole       bool
	MayElectCobra             bool
	CanElectCobra             bool
	IsDisabledCobraAction     bool
	NewhireEnrollmentEligible bool
	ShowPlanEndDate           bool
	EarliestEligibleDate      *time.Time
	NewHireEnrollmentPeriod   eligibility.Period
	ActiveAssignment          *models.BenefitGroupAssignment
	RenewalAssignment         *models.BenefitGroupAssignment
	PublishedAssignment       *models.BenefitGroupAssignment
	EnrollmentsForDisplay     []*models.Enrollment
	BusinessDate              time.Time
}

// GetEligibility evaluates every eligibility rule for a record.
func (s *CensusService) GetEligibility(ctx context.Context, id uuid.UUID) (*Eligibility, error) {
	ce, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := s.benefitGroupIndex(ctx, ce)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.repo.FindEnrollmentsByAssignments(ctx, assignmentIDs(ce))
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}

	out := &Eligibility{
		CensusEmployee:            ce,
		CurrentState:              ce.CurrentState(),
		IsLinked:                  ce.IsLinked(),
		IsActive:                  ce.IsActive(),
		IsCobraStatus:             ce.IsCobraStatus(),
		MayLinkEmployeeRole:       s.calc.MayLinkEmployeeRole(ce, idx),
		MayElectCobra:             s.calc.MayElectCobra(ce),
		CanElectCobra:             s.calc.CanElectCobra(ce),
		IsDisabledCobraAction:     s.calc.IsDisabledCobraAction(ce, enrollments),
		NewhireEnrollmentEligible: s.calc.NewhireEnrollmentEligible(ce),
		ShowPlanEndDate:           s.calc.ShowPlanEndDate(ce),
		NewHireEnrollmentPeriod:   s.calc.NewHireEnrollmentPeriod(ce, idx),
		ActiveAssignment:          eligibility.ActiveAssignment(ce),
		RenewalAssignment:         eligibility.RenewalAssignment(ce, idx),
		PublishedAssignment:       eligibility.PublishedAssignment(ce, idx),
		EnrollmentsForDisplay:     s.calc.EnrollmentsForDisplay(ce, idx, enrollments),
		BusinessDate:              s.calc.Today(),
	}
	if d, ok := s.calc.EarliestEligibleDate(ce, idx); ok {
		out.EarliestEligibleDate = &d
	}
	return out, nil
}

func assignmentIDs(ce *models.CensusEmployee) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ce.BenefitGroupAssignments))
	for _, a := range ce.BenefitGroupAssignments {
		ids = append(ids, a.ID)
	}
	return ids
}

// EnrollmentsForDisplay returns the in-force and renewing enrollments of the
// record's active and renewal assignments.
func (s *CensusService) EnrollmentsForDisplay(ctx context.Context, id uuid.UUID) ([]*models.Enrollment, error) {
	summary, err := s.GetEligibility(ctx, id)
	if err != nil {
		return nil, err
	}
	return summary.EnrollmentsForDisplay, nil
}

// FindAllByEmployerProfile returns an employer's roster.
func (s *CensusService) FindAllByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error) {
	list, err := s.repo.FindByEmployerProfile(ctx, employerProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list census employees: %w", err)
	}
	return list, nil
}

// FindAllByEmployeeRole returns the records linked to an employee role.
func (s *CensusService) FindAllByEmployeeRole(ctx context.Context, employeeRoleID uuid.UUID) ([]*models.CensusEmployee, error) {
	list, err := s.repo.FindByEmployeeRole(ctx, employeeRoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list census employees: %w", err)
	}
	return list, nil
}

// FindAllTerminated returns terminated records in a date range. A zero
// bound defaults to the business date.
func (s *CensusService) FindAllTerminated(ctx context.Context, filter models.TerminatedFilter) ([]*models.CensusEmployee, error) {
	today := s.calc.Today()
	if filter.From.IsZero() {
		filter.From = today
	}
	if filter.To.IsZero() {
		filter.To = today
	}
	filter.From, filter.To = utils.DateOf(filter.From), utils.DateOf(filter.To)
	if filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: date range ends before it starts", e.ErrInvalidInput)
	}
	list, err := s.repo.FindTerminated(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminated census employees: %w", err)
	}
	return list, nil
}

// Matchable returns the unlinked records carrying ssn and dob.
func (s *CensusService) Matchable(ctx context.Context, ssn string, dob time.Time) ([]*models.CensusEmployee, error) {
	if ssn == "" || dob.IsZero() {
		return nil, fmt.Errorf("%w: ssn and dob are required", e.ErrInvalidInput)
	}
	list, err := s.repo.FindMatchable(ctx, ssn, utils.DateOf(dob))
	if err != nil {
		return nil, fmt.Errorf("failed to find matchable census employees: %w", err)
	}
	return list, nil
}

// SearchByName finds an employer's records by employee name.
func (s *CensusService) SearchByName(ctx context.Context, employerProfileID uuid.UUID, query string) ([]*models.CensusEmployee, error) {
	list, err := s.repo.SearchByName(ctx, employerProfileID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search census employees: %w", err)
	}
	return list, nil
}

// UpdateCensusEmployeeRecords copies a person's identity onto every roster
// record linked through the person's employee roles. Only administrators may
// run it. It returns the number of records changed.
func (s *CensusService) UpdateCensusEmployeeRecords(ctx context.Context, actor models.Actor, personID uuid.UUID) (int, error) {
	if !actor.IsAdmin() {
		return 0, fmt.Errorf("%w: identity sync requires an administrator", e.ErrForbidden)
	}

	var changed []*models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		person, err := s.repo.GetPerson(ctx, personID)
		if err != nil {
			return err
		}
		roles, err := s.repo.FindEmployeeRolesByPerson(ctx, personID)
		if err != nil {
			return fmt.Errorf("failed to find employee roles: %w", err)
		}
		for _, role := range roles {
			records, err := s.repo.FindByEmployeeRole(ctx, role.ID)
			if err != nil {
				return fmt.Errorf("failed to list census employees: %w", err)
			}
			for _, ce := range records {
				update := &models.CensusEmployeeUpdate{
					ID:        ce.ID,
					FirstName: &person.FirstName,
					LastName:  &person.LastName,
					DOB:       &person.DOB,
				}
				if person.SSN != "" {
					update.SSN = &person.SSN
				}
				if person.Gender != "" {
					update.Gender = &person.Gender
				}
				if !update.ChangesIdentity(ce) && (update.Gender == nil || *update.Gender == ce.Gender) {
					continue
				}
				update.Apply(ce)
				if err := s.validator.Validate(ce); err != nil {
					return err
				}
				if err := s.checkActiveSSN(ctx, ce); err != nil {
					return err
				}
				if err := s.repo.SaveCensusEmployee(ctx, ce); err != nil {
					return err
				}
				changed = append(changed, ce)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, ce := range changed {
		s.publish(events.CensusEmployeeUpdated, ce)
	}
	s.logger.Info("Census employee records synced from person",
		zap.String("person_id", personID.String()),
		zap.Int("updated", len(changed)),
	)
	return len(changed), nil
}
