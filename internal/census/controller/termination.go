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
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/reconcile"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchFailure is one record a batch operation could not process.
type BatchFailure struct {
	CensusEmployeeID uuid.UUID
	Err              error
}

// BatchResult reports the outcome of a batch operation.
type BatchResult struct {
	Processed []uuid.UUID
	Skipped   []uuid.UUID
	Failures  []BatchFailure
}

// merge folds other into r. A record processed by either run counts as
// processed, not skipped.
func (r *BatchResult) merge(other *BatchResult) {
	seen := make(map[uuid.UUID]bool, len(r.Processed)+len(other.Processed))
	for _, id := range r.Processed {
		seen[id] = true
	}
	for _, id := range other.Processed {
		if !seen[id] {
			seen[id] = true
			r.Processed = append(r.Processed, id)
		}
	}

	var skipped []uuid.UUID
	for _, ids := range [][]uuid.UUID{r.Skipped, other.Skipped} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				skipped = append(skipped, id)
			}
		}
	}
	r.Skipped = skipped
	r.Failures = append(r.Failures, other.Failures...)
}

// TerminateEmployment ends employment on date. A date after the business
// date schedules the termination instead. The coverage end date is set and
// every enrollment is reconciled in the same transaction.
func (s *CensusService) TerminateEmployment(ctx context.Context, id uuid.UUID, date time.Time) (*models.CensusEmployee, *reconcile.Result, error) {
	if date.IsZero() {
		return nil, nil, fmt.Errorf("%w: termination date is required", e.ErrInvalidInput)
	}
	terminatedOn := utils.DateOf(date)

	var (
		ce     *models.CensusEmployee
		result *reconcile.Result
	)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := s.validator.ValidateTerminationDate(ce, terminatedOn); err != nil {
			return err
		}

		event := lifecycle.EventTerminateEmployeeRole
		if terminatedOn.After(s.calc.Today()) {
			event = lifecycle.EventScheduleEmployeeTermination
		}
		if err := s.fire(ce, event); err != nil {
			return err
		}

		ce.EmploymentTerminatedOn = &terminatedOn
		result, err = s.reconciler.Reconcile(ctx, s.repo, ce, terminatedOn)
		if err != nil {
			return err
		}
		coverageEnd := result.CoverageTerminatedOn
		ce.CoverageTerminatedOn = &coverageEnd

		if err := s.terminateEmployeeRole(ctx, ce, terminatedOn); err != nil {
			return err
		}
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Employment terminated",
		zap.String("census_employee_id", ce.ID.String()),
		zap.String("state", string(ce.State)),
		zap.Time("employment_terminated_on", terminatedOn),
		zap.Int("enrollments_reconciled", len(result.Changes)),
	)
	if ce.State == models.StateEmployeeTerminationPending {
		s.publish(events.CensusEmployeeTerminationScheduled, ce)
	} else {
		s.publish(events.CensusEmployeeTerminated, ce)
	}
	return ce, result, nil
}

// terminateEmployeeRole stamps the termination date on the linked role.
func (s *CensusService) terminateEmployeeRole(ctx context.Context, ce *models.CensusEmployee, on time.Time) error {
	if ce.EmployeeRoleID == nil {
		return nil
	}
	role, err := s.repo.GetEmployeeRole(ctx, *ce.EmployeeRoleID)
	if errors.Is(err, e.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get employee role: %w", err)
	}
	role.TerminatedOn = &on
	return s.repo.SaveEmployeeRole(ctx, role)
}

// TerminateFutureScheduledCensusEmployees completes every scheduled
// termination due on or before asOf. Each record commits on its own; a
// failure is collected and the batch continues. Running it twice for the
// same date is a no-op the second time.
func (s *CensusService) TerminateFutureScheduledCensusEmployees(ctx context.Context, asOf time.Time) (*BatchResult, error) {
	start := time.Now()
	asOf = utils.DateOf(asOf)
	pending, err := s.repo.FindPendingTerminations(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending terminations: %w", err)
	}

	result := &BatchResult{}
	for _, candidate := range pending {
		var terminated *models.CensusEmployee
		err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
			ce, err := s.load(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if ce.State != models.StateEmployeeTerminationPending ||
				ce.EmploymentTerminatedOn == nil || ce.EmploymentTerminatedOn.After(asOf) {
				return nil
			}
			if err := s.fire(ce, lifecycle.EventTerminateEmployeeRole); err != nil {
				return err
			}
			if err := s.repo.SaveCensusEmployee(ctx, ce); err != nil {
				return err
			}
			terminated = ce
			return nil
		})
		switch {
		case err != nil:
			s.logger.Error("Failed to terminate scheduled census employee",
				zap.Error(err),
				zap.String("census_employee_id", candidate.ID.String()),
			)
			result.Failures = append(result.Failures, BatchFailure{CensusEmployeeID: candidate.ID, Err: err})
		case terminated == nil:
			result.Skipped = append(result.Skipped, candidate.ID)
		default:
			result.Processed = append(result.Processed, terminated.ID)
			s.publish(events.CensusEmployeeTerminated, terminated)
		}
	}

	s.metrics.ObserveSweep(start, len(result.Processed), len(result.Failures))
	s.logger.Info("Scheduled terminations processed",
		zap.Time("as_of", asOf),
		zap.Int("processed", len(result.Processed)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// Rehire moves a terminated record to rehired and stores a fresh roster
// record for the same person hired on hiredOn.
func (s *CensusService) Rehire(ctx context.Context, id uuid.UUID, hiredOn time.Time) (*models.CensusEmployee, error) {
	if hiredOn.IsZero() {
		return nil, fmt.Errorf("%w: hire date is required", e.ErrInvalidInput)
	}

	var src, replica *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		src, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		replica, err = lifecycle.ReplicateForRehire(src, s.now())
		if err != nil {
			s.metrics.TransitionRejected(string(lifecycle.EventRehireEmployeeRole))
			return err
		}
		s.metrics.TransitionApplied(string(lifecycle.EventRehireEmployeeRole), string(src.State))

		hired := utils.DateOf(hiredOn)
		replica.HiredOn = &hired
		if err := s.validator.Validate(replica); err != nil {
			return err
		}
		if err := s.repo.SaveCensusEmployee(ctx, src); err != nil {
			return err
		}
		if err := s.checkActiveSSN(ctx, replica); err != nil {
			return err
		}
		planYears, err := s.repo.FindPlanYearsByEmployer(ctx, replica.EmployerProfileID)
		if err != nil {
			return fmt.Errorf("failed to load plan years: %w", err)
		}
		eligibility.AssignDefaultBenefitPackage(replica, planYears, s.now())
		return s.repo.CreateCensusEmployee(ctx, replica)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeRehired, src)
	s.publish(events.CensusEmployeeCreated, replica)
	return replica, nil
}
