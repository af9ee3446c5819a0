package controller

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/lifecycle"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
)

// ElectCobra moves a terminated employee onto continuation coverage starting
// on beginDate. The date must fall inside the cobra election window.
func (s *CensusService) ElectCobra(ctx context.Context, id uuid.UUID, beginDate time.Time) (*models.CensusEmployee, error) {
	if beginDate.IsZero() {
		return nil, fmt.Errorf("%w: cobra begin date is required", e.ErrInvalidInput)
	}

	var ce *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		begin := utils.DateOf(beginDate)
		previous := ce.CobraBeginDate
		ce.CobraBeginDate = &begin
		err = s.fire(ce, lifecycle.EventElectCobra, func(c *models.CensusEmployee) string {
			if !s.calc.MayElectCobra(c) {
				return "cobra begin date is outside the election window"
			}
			return ""
		})
		if err != nil {
			ce.CobraBeginDate = previous
			return err
		}
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeCobraElected, ce)
	return ce, nil
}

// TerminateCobra ends continuation coverage on date and reconciles the
// enrollments held under it.
func (s *CensusService) TerminateCobra(ctx context.Context, id uuid.UUID, date time.Time) (*models.CensusEmployee, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: termination date is required", e.ErrInvalidInput)
	}
	terminatedOn := utils.DateOf(date)

	var ce *models.CensusEmployee
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ce, err = s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := s.fire(ce, lifecycle.EventTerminateCobra); err != nil {
			return err
		}
		result, err := s.reconciler.Reconcile(ctx, s.repo, ce, terminatedOn)
		if err != nil {
			return err
		}
		coverageEnd := result.CoverageTerminatedOn
		ce.CoverageTerminatedOn = &coverageEnd
		return s.repo.SaveCensusEmployee(ctx, ce)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.CensusEmployeeTerminated, ce)
	return ce, nil
}
