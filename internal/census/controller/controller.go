// Package controller implements the roster service layer: it loads census
// employees, drives them through the lifecycle state machine inside a
// transaction, persists the result and publishes lifecycle events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/metrics"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/reconcile"
	"github.com/gartstein/census/internal/census/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, ce *models.CensusEmployee)
}

// Repository defines the storage the service needs. Calls made with the
// context handed to WithTransaction's fn join that transaction.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	CreateCensusEmployee(ctx context.Context, ce *models.CensusEmployee) error
	SaveCensusEmployee(ctx context.Context, ce *models.CensusEmployee) error
	GetCensusEmployee(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error)
	FindByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error)
	FindActiveByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error)
	FindByEmployeeRole(ctx context.Context, employeeRoleID uuid.UUID) ([]*models.CensusEmployee, error)
	FindMatchable(ctx context.Context, ssn string, dob time.Time) ([]*models.CensusEmployee, error)
	FindPendingTerminations(ctx context.Context, asOf time.Time) ([]*models.CensusEmployee, error)
	FindNewlyDesignated(ctx context.Context, employerProfileID *uuid.UUID) ([]*models.CensusEmployee, error)
	FindTerminated(ctx context.Context, filter models.TerminatedFilter) ([]*models.CensusEmployee, error)
	SearchByName(ctx context.Context, employerProfileID uuid.UUID, query string) ([]*models.CensusEmployee, error)
	ActiveSSNExists(ctx context.Context, employerProfileID uuid.UUID, ssn string, excludeID uuid.UUID) (bool, error)

	GetPlanYear(ctx context.Context, id uuid.UUID) (*models.PlanYear, error)
	UpdatePlanYearState(ctx context.Context, id uuid.UUID, state models.PlanYearState) error
	FindPlanYearsByEmployer(ctx context.Context, employerProfileID uuid.UUID) ([]*models.PlanYear, error)
	FindBenefitGroups(ctx context.Context, ids []uuid.UUID) ([]*models.BenefitGroup, error)
	GetBenefitGroup(ctx context.Context, id uuid.UUID) (*models.BenefitGroup, error)

	FindEnrollmentsByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*models.Enrollment, error)
	FindEnrollmentsByAssignments(ctx context.Context, ids []uuid.UUID) ([]*models.Enrollment, error)
	UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment) error

	GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error)
	MatchPeople(ctx context.Context, ssn string, dob time.Time, firstName, lastName string) ([]*models.Person, error)
	CreateEmployeeRole(ctx context.Context, role *models.EmployeeRole) error
	SaveEmployeeRole(ctx context.Context, role *models.EmployeeRole) error
	GetEmployeeRole(ctx context.Context, id uuid.UUID) (*models.EmployeeRole, error)
	FindEmployeeRolesByPerson(ctx context.Context, personID uuid.UUID) ([]*models.EmployeeRole, error)
}

// CensusService manages census employees through repository operations,
// the lifecycle state machine and event production.
type CensusService struct {
	repo       Repository
	producer   EventProducer
	calc       *eligibility.Calculator
	validator  *validation.Validator
	reconciler *reconcile.Reconciler
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewCensusService wires the service. m may be nil.
func NewCensusService(repo Repository, producer EventProducer, calc *eligibility.Calculator, m *metrics.Metrics, logger *zap.Logger) *CensusService {
	return &CensusService{
		repo:       repo,
		producer:   producer,
		calc:       calc,
		validator:  validation.NewValidator(calc, calc.Settings().EmploymentTerminationReportingWindowDays),
		reconciler: reconcile.NewReconciler(calc, m, logger),
		metrics:    m,
		logger:     logger.Named("census_service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Calculator exposes the eligibility rules the service evaluates.
func (s *CensusService) Calculator() *eligibility.Calculator {
	return s.calc
}

// fire applies a roster event and records the outcome.
func (s *CensusService) fire(ce *models.CensusEmployee, event lifecycle.Event, guards ...lifecycle.Guard) error {
	if err := lifecycle.Fire(ce, event, guards...); err != nil {
		s.metrics.TransitionRejected(string(event))
		return err
	}
	s.metrics.TransitionApplied(string(event), string(ce.State))
	return nil
}

func (s *CensusService) publish(eventType events.EventType, ce *models.CensusEmployee) {
	if s.producer == nil {
		return
	}
	s.producer.Produce(eventType, ce)
}

// load fetches a record, passing ErrNotFound through unwrapped.
func (s *CensusService) load(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid census employee ID", e.ErrInvalidInput)
	}
	ce, err := s.repo.GetCensusEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get census employee: %w", err)
	}
	return ce, nil
}

// benefitGroupIndex resolves the benefit groups referenced by ce's assignments.
func (s *CensusService) benefitGroupIndex(ctx context.Context, ce *models.CensusEmployee) (models.BenefitGroupIndex, error) {
	ids := make([]uuid.UUID, 0, len(ce.BenefitGroupAssignments))
	for _, a := range ce.BenefitGroupAssignments {
		ids = append(ids, a.BenefitGroupID)
	}
	groups, err := s.repo.FindBenefitGroups(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load benefit groups: %w", err)
	}
	return models.NewBenefitGroupIndex(groups), nil
}

// checkActiveSSN rejects ce when another active roster record of the same
// employer already carries its SSN.
func (s *CensusService) checkActiveSSN(ctx context.Context, ce *models.CensusEmployee) error {
	if ce.IsEmploymentTerminated() {
		return nil
	}
	exists, err := s.repo.ActiveSSNExists(ctx, ce.EmployerProfileID, ce.SSN, ce.ID)
	if err != nil {
		return fmt.Errorf("failed to check ssn: %w", err)
	}
	if exists {
		verr := e.NewValidationError()
		verr.Add(e.BaseField, validation.MsgAlreadyActive)
		return verr
	}
	return nil
}

// CreateCensusEmployee validates and stores a new roster record. The record
// starts in cobra_eligible when it carries existing cobra coverage, and
// receives the employer's default benefit package.
func (s *CensusService) CreateCensusEmployee(ctx context.Context, ce *models.CensusEmployee) (*models.CensusEmployee, error) {
	ce.ID = uuid.New()
	ce.Version = 0
	ce.State = lifecycle.InitialState(ce)
	validation.NormalizeDependents(ce)
	if err := s.validator.Validate(ce); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkActiveSSN(ctx, ce); err != nil {
			return err
		}
		planYears, err := s.repo.FindPlanYearsByEmployer(ctx, ce.EmployerProfileID)
		if err != nil {
			return fmt.Errorf("failed to load plan years: %w", err)
		}
		eligibility.AssignDefaultBenefitPackage(ce, planYears, s.now())
		return s.repo.CreateCensusEmployee(ctx, ce)
	})
	if err != nil {
		if errors.Is(err, e.ErrValidation) || errors.Is(err, e.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create census employee: %w", err)
	}

	s.logger.Info("Census employee created",
		zap.String("census_employee_id", ce.ID.String()),
		zap.String("state", string(ce.State)),
	)
	s.publish(events.CensusEmployeeCreated, ce)
	return ce, nil
}

// GetCensusEmployee retrieves a record by ID.
func (s *CensusService) GetCensusEmployee(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
	return s.load(ctx, id)
}

// UpdateCensusEmployee applies a partial update on behalf of actor.
// Identifying fields of a linked record change only for administrators.
func (s *CensusService) UpdateCensusEmployee(ctx context.Context, actor models.Actor, update *models.CensusEmployeeUpdate) (*models.CensusEmployee, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid census employee ID", e.ErrInvalidInput)
	}

	var updated *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		ce, err := s.load(ctx, update.ID)
		if err != nil {
			return err
		}
		if update.Version != nil && *update.Version != ce.Version {
			return fmt.Errorf("%w: census employee %s", e.ErrConcurrentUpdate, ce.ID)
		}
		if err := validation.CheckIdentityEdit(actor, ce, update); err != nil {
			return err
		}

		ssnChanged := update.SSN != nil && *update.SSN != ce.SSN
		update.Apply(ce)
		validation.NormalizeDependents(ce)
		if err := s.validator.Validate(ce); err != nil {
			return err
		}
		if ssnChanged {
			if err := s.checkActiveSSN(ctx, ce); err != nil {
				return err
			}
		}
		if err := s.repo.SaveCensusEmployee(ctx, ce); err != nil {
			return err
		}
		updated = ce
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeUpdated, updated)
	return updated, nil
}
