package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) enroll(t *testing.T, assignmentID uuid.UUID, effective time.Time, state models.EnrollmentState) *models.Enrollment {
	t.Helper()
	en := &models.Enrollment{
		BenefitGroupAssignmentID: assignmentID,
		CoverageKind:             models.CoverageHealth,
		EffectiveOn:              effective,
		State:                    state,
	}
	require.NoError(t, f.repo.CreateEnrollment(context.Background(), en))
	return en
}

func TestCensusService_TerminateEmployment(t *testing.T) {
	ctx := context.Background()

	t.Run("past date terminates and reconciles enrollments", func(t *testing.T) {
		f := newFixture(t)
		f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
		ce, role := f.linkedRecord(t, "123456789")
		active := eligibility.ActiveAssignment(ce)
		require.NotNil(t, active)

		inForce := f.enroll(t, active.ID, utils.Date(2025, time.January, 1), models.EnrollmentCoverageEnrolled)
		future := f.enroll(t, active.ID, utils.Date(2025, time.April, 1), models.EnrollmentCoverageSelected)
		waived := f.enroll(t, active.ID, utils.Date(2025, time.January, 1), models.EnrollmentRenewingWaived)
		expired := f.enroll(t, active.ID, utils.Date(2024, time.January, 1), models.EnrollmentCoverageExpired)

		terminated, result, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 1))
		require.NoError(t, err)

		assert.Equal(t, models.StateEmploymentTerminated, terminated.State)
		endOfMarch := utils.Date(2025, time.March, 31)
		assert.True(t, result.CoverageTerminatedOn.Equal(endOfMarch))
		assert.Len(t, result.Changes, 3)

		stored := f.reload(t, ce.ID)
		assert.Equal(t, models.StateEmploymentTerminated, stored.State)
		require.NotNil(t, stored.EmploymentTerminatedOn)
		assert.True(t, stored.EmploymentTerminatedOn.Equal(utils.Date(2025, time.March, 1)))
		require.NotNil(t, stored.CoverageTerminatedOn)
		assert.True(t, stored.CoverageTerminatedOn.Equal(endOfMarch))

		enrollments, err := f.repo.FindEnrollmentsByAssignment(ctx, active.ID)
		require.NoError(t, err)
		byID := map[uuid.UUID]*models.Enrollment{}
		for _, en := range enrollments {
			byID[en.ID] = en
		}
		assert.Equal(t, models.EnrollmentCoverageTerminationPending, byID[inForce.ID].State)
		require.NotNil(t, byID[inForce.ID].TerminatedOn)
		assert.True(t, byID[inForce.ID].TerminatedOn.Equal(endOfMarch))
		assert.Equal(t, models.EnrollmentCoverageCanceled, byID[future.ID].State)
		assert.Nil(t, byID[future.ID].TerminatedOn)
		assert.Equal(t, models.EnrollmentInactive, byID[waived.ID].State)
		assert.Equal(t, models.EnrollmentCoverageExpired, byID[expired.ID].State)

		storedRole, err := f.repo.GetEmployeeRole(ctx, role.ID)
		require.NoError(t, err)
		require.NotNil(t, storedRole.TerminatedOn)
		assert.True(t, storedRole.TerminatedOn.Equal(utils.Date(2025, time.March, 1)))

		assert.Contains(t, f.producer.Produced(), events.CensusEmployeeTerminated)
	})

	t.Run("coverage ends at the end of the termination month", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))

		_, result, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.January, 20))
		require.NoError(t, err)
		assert.True(t, result.CoverageTerminatedOn.Equal(utils.Date(2025, time.January, 31)))
	})

	t.Run("future date schedules termination", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))

		scheduled, result, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.April, 10))
		require.NoError(t, err)
		assert.Equal(t, models.StateEmployeeTerminationPending, scheduled.State)
		assert.True(t, result.CoverageTerminatedOn.Equal(utils.Date(2025, time.April, 30)))
		assert.Contains(t, f.producer.Produced(), events.CensusEmployeeTerminationScheduled)
	})

	t.Run("late report within the retroactive period", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))

		terminated, result, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.January, 1))
		require.NoError(t, err)
		assert.Equal(t, models.StateEmploymentTerminated, terminated.State)
		assert.True(t, result.CoverageTerminatedOn.Equal(utils.Date(2025, time.January, 31)))
	})

	t.Run("late report before the retroactive period clamps coverage end", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))

		terminated, result, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2024, time.December, 31))
		require.NoError(t, err)
		assert.Equal(t, models.StateEmploymentTerminated, terminated.State)

		earliest := f.svc.Calculator().EarliestCoverageTerminationOn(utils.Date(2024, time.December, 31))
		assert.True(t, earliest.Equal(utils.Date(2025, time.January, 31)))
		assert.True(t, result.CoverageTerminatedOn.Equal(earliest))

		stored := f.reload(t, ce.ID)
		assert.Equal(t, models.StateEmploymentTerminated, stored.State)
		require.NotNil(t, stored.EmploymentTerminatedOn)
		assert.True(t, stored.EmploymentTerminatedOn.Equal(utils.Date(2024, time.December, 31)))
		require.NotNil(t, stored.CoverageTerminatedOn)
		assert.True(t, stored.CoverageTerminatedOn.Equal(earliest))
	})

	t.Run("date before hire", func(t *testing.T) {
		f := newFixture(t)
		rec := f.newRecord("Jane", "Doe", "123456789")
		rec.HiredOn = utils.Ptr(utils.Date(2025, time.March, 1))
		ce := f.create(t, rec)

		_, _, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.February, 20))
		assert.ErrorIs(t, err, e.ErrValidation)
	})

	t.Run("already terminated is an illegal transition", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
		_, _, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 1))
		require.NoError(t, err)
		before := f.reload(t, ce.ID)

		_, _, err = f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 10))
		var illegal *e.IllegalTransitionError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, "terminate_employee_role", illegal.Event)
		assert.Equal(t, "employment_terminated", illegal.From)

		after := f.reload(t, ce.ID)
		assert.Equal(t, before.Version, after.Version)
		assert.True(t, after.EmploymentTerminatedOn.Equal(utils.Date(2025, time.March, 1)))
	})

	t.Run("missing date", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.svc.TerminateEmployment(ctx, uuid.New(), time.Time{})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("reconciliation failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
		active := eligibility.ActiveAssignment(f.reload(t, ce.ID))
		en := f.enroll(t, active.ID, utils.Date(2025, time.January, 1), models.EnrollmentCoverageEnrolled)

		boom := errors.New("disk full")
		mock := &MockRepository{
			Repository: f.repo,
			saveCensusEmployee: func(context.Context, *models.CensusEmployee) error {
				return boom
			},
		}
		svc := newFixtureWith(t, f.repo, mock).svc

		_, _, err := svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 1))
		require.ErrorIs(t, err, boom)

		enrollments, err := f.repo.FindEnrollmentsByAssignment(ctx, active.ID)
		require.NoError(t, err)
		require.Len(t, enrollments, 1)
		assert.Equal(t, en.ID, enrollments[0].ID)
		assert.Equal(t, models.EnrollmentCoverageEnrolled, enrollments[0].State)
		assert.Equal(t, models.StateEligible, f.reload(t, ce.ID).State)
	})
}

func TestCensusService_TerminateFutureScheduledCensusEmployees(t *testing.T) {
	ctx := context.Background()

	t.Run("completes due terminations once", func(t *testing.T) {
		f := newFixture(t)
		due := f.create(t, f.newRecord("Due", "Soon", "111111111"))
		later := f.create(t, f.newRecord("Due", "Later", "222222222"))
		_, _, err := f.svc.TerminateEmployment(ctx, due.ID, utils.Date(2025, time.March, 20))
		require.NoError(t, err)
		_, _, err = f.svc.TerminateEmployment(ctx, later.ID, utils.Date(2025, time.May, 1))
		require.NoError(t, err)

		result, err := f.svc.TerminateFutureScheduledCensusEmployees(ctx, utils.Date(2025, time.March, 19))
		require.NoError(t, err)
		assert.Empty(t, result.Processed)

		result, err = f.svc.TerminateFutureScheduledCensusEmployees(ctx, utils.Date(2025, time.March, 20))
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{due.ID}, result.Processed)
		assert.Empty(t, result.Failures)
		assert.Equal(t, models.StateEmploymentTerminated, f.reload(t, due.ID).State)
		assert.Equal(t, models.StateEmployeeTerminationPending, f.reload(t, later.ID).State)

		result, err = f.svc.TerminateFutureScheduledCensusEmployees(ctx, utils.Date(2025, time.March, 20))
		require.NoError(t, err)
		assert.Empty(t, result.Processed)
	})

	t.Run("leaves newly designated records alone", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Nia", "New", "333333333"))
		_, err := f.svc.NewlyDesignate(ctx, ce.ID)
		require.NoError(t, err)

		result, err := f.svc.TerminateFutureScheduledCensusEmployees(ctx, utils.Date(2025, time.March, 16))
		require.NoError(t, err)
		assert.Empty(t, result.Processed)
		assert.Equal(t, models.StateNewlyDesignatedEligible, f.reload(t, ce.ID).State)
	})

	t.Run("collects failures and continues", func(t *testing.T) {
		f := newFixture(t)
		first := f.create(t, f.newRecord("Ann", "Alpha", "111111111"))
		second := f.create(t, f.newRecord("Ben", "Beta", "222222222"))
		for _, ce := range []*models.CensusEmployee{first, second} {
			_, _, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 20))
			require.NoError(t, err)
		}

		boom := errors.New("lock timeout")
		mock := &MockRepository{
			Repository: f.repo,
			saveCensusEmployee: func(ctx context.Context, ce *models.CensusEmployee) error {
				if ce.ID == first.ID {
					return boom
				}
				return f.repo.SaveCensusEmployee(ctx, ce)
			},
		}
		svc := newFixtureWith(t, f.repo, mock).svc

		result, err := svc.TerminateFutureScheduledCensusEmployees(ctx, utils.Date(2025, time.March, 31))
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second.ID}, result.Processed)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, first.ID, result.Failures[0].CensusEmployeeID)
		assert.ErrorIs(t, result.Failures[0].Err, boom)
		assert.Equal(t, models.StateEmployeeTerminationPending, f.reload(t, first.ID).State)
	})
}

func TestCensusService_Rehire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
	src := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
	_, _, err := f.svc.TerminateEmployment(ctx, src.ID, utils.Date(2025, time.February, 28))
	require.NoError(t, err)

	replica, err := f.svc.Rehire(ctx, src.ID, utils.Date(2025, time.March, 10))
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, replica.ID)
	assert.Equal(t, models.StateEligible, replica.State)
	assert.Equal(t, "123456789", replica.SSN)
	require.NotNil(t, replica.HiredOn)
	assert.True(t, replica.HiredOn.Equal(utils.Date(2025, time.March, 10)))
	assert.Nil(t, replica.EmployeeRoleID)
	assert.Equal(t, models.StateRehired, f.reload(t, src.ID).State)

	stored := f.reload(t, replica.ID)
	require.Len(t, stored.BenefitGroupAssignments, 1, "the new record gets the default package")
	assert.True(t, stored.BenefitGroupAssignments[0].StartOn.Equal(utils.Date(2025, time.March, 10)))

	produced := f.producer.Produced()
	assert.Equal(t, []events.EventType{events.CensusEmployeeRehired, events.CensusEmployeeCreated}, produced[len(produced)-2:])

	t.Run("active record cannot be rehired", func(t *testing.T) {
		_, err := f.svc.Rehire(ctx, replica.ID, utils.Date(2025, time.March, 11))
		assert.ErrorIs(t, err, e.ErrIllegalTransition)
		assert.Equal(t, models.StateEligible, f.reload(t, replica.ID).State)
	})

	t.Run("hire date required", func(t *testing.T) {
		_, err := f.svc.Rehire(ctx, src.ID, time.Time{})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})
}

func TestCensusService_Cobra(t *testing.T) {
	ctx := context.Background()

	terminated := func(t *testing.T, f *fixture) *models.CensusEmployee {
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
		_, _, err := f.svc.TerminateEmployment(ctx, ce.ID, utils.Date(2025, time.March, 1))
		require.NoError(t, err)
		return ce
	}

	t.Run("election inside the window", func(t *testing.T) {
		f := newFixture(t)
		ce := terminated(t, f)

		elected, err := f.svc.ElectCobra(ctx, ce.ID, utils.Date(2025, time.April, 1))
		require.NoError(t, err)
		assert.Equal(t, models.StateCobraLinked, elected.State)
		assert.True(t, elected.IsCobraStatus())
		assert.Contains(t, f.producer.Produced(), events.CensusEmployeeCobraElected)
	})

	t.Run("election outside the window", func(t *testing.T) {
		f := newFixture(t)
		ce := terminated(t, f)

		_, err := f.svc.ElectCobra(ctx, ce.ID, utils.Date(2025, time.December, 1))
		var illegal *e.IllegalTransitionError
		require.ErrorAs(t, err, &illegal)
		assert.NotEmpty(t, illegal.Reason)

		stored := f.reload(t, ce.ID)
		assert.Equal(t, models.StateEmploymentTerminated, stored.State)
		assert.Nil(t, stored.CobraBeginDate)
	})

	t.Run("active record cannot elect", func(t *testing.T) {
		f := newFixture(t)
		ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
		_, err := f.svc.ElectCobra(ctx, ce.ID, utils.Date(2025, time.April, 1))
		assert.ErrorIs(t, err, e.ErrIllegalTransition)
	})

	t.Run("terminate cobra", func(t *testing.T) {
		f := newFixture(t)
		ce := terminated(t, f)
		_, err := f.svc.ElectCobra(ctx, ce.ID, utils.Date(2025, time.April, 1))
		require.NoError(t, err)

		ended, err := f.svc.TerminateCobra(ctx, ce.ID, utils.Date(2025, time.March, 31))
		require.NoError(t, err)
		assert.Equal(t, models.StateCobraTerminated, ended.State)
		require.NotNil(t, ended.CoverageTerminatedOn)
		assert.True(t, ended.CoverageTerminatedOn.Equal(utils.Date(2025, time.March, 31)))
	})
}
