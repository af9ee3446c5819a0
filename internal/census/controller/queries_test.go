package controller

import (
	"context"
	"testing"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/events"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/census/validation"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCensusService_GetEligibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
	ce := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
	active := eligibility.ActiveAssignment(f.reload(t, ce.ID))
	require.NotNil(t, active)
	health := f.enroll(t, active.ID, utils.Date(2025, time.January, 1), models.EnrollmentCoverageEnrolled)
	f.enroll(t, active.ID, utils.Date(2025, time.January, 1), models.EnrollmentCoverageCanceled)

	got, err := f.svc.GetEligibility(ctx, ce.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eligible", got.CurrentState)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsLinked)
	assert.False(t, got.IsCobraStatus)
	assert.True(t, got.MayLinkEmployeeRole)
	assert.True(t, got.NewhireEnrollmentEligible)
	assert.False(t, got.ShowPlanEndDate)
	assert.True(t, got.IsDisabledCobraAction, "unlinked records cannot act on cobra")
	require.NotNil(t, got.ActiveAssignment)
	assert.Equal(t, active.ID, got.ActiveAssignment.ID)
	require.NotNil(t, got.PublishedAssignment)
	assert.Equal(t, active.ID, got.PublishedAssignment.ID)
	assert.Nil(t, got.RenewalAssignment)
	require.NotNil(t, got.EarliestEligibleDate)
	assert.True(t, got.EarliestEligibleDate.Equal(utils.Date(2024, time.June, 1)))
	assert.True(t, got.BusinessDate.Equal(businessDate))

	require.Len(t, got.EnrollmentsForDisplay, 1)
	assert.Equal(t, health.ID, got.EnrollmentsForDisplay[0].ID)

	display, err := f.svc.EnrollmentsForDisplay(ctx, ce.ID)
	require.NoError(t, err)
	assert.Len(t, display, 1)

	_, err = f.svc.GetEligibility(ctx, uuid.New())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCensusService_FindAllTerminated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
	early := f.create(t, f.newRecord("Early", "Leaver", "111111111"))
	today := f.create(t, f.newRecord("Today", "Leaver", "222222222"))
	f.create(t, f.newRecord("Still", "Here", "333333333"))

	_, _, err := f.svc.TerminateEmployment(ctx, early.ID, utils.Date(2025, time.March, 1))
	require.NoError(t, err)
	_, _, err = f.svc.TerminateEmployment(ctx, today.ID, businessDate)
	require.NoError(t, err)

	t.Run("defaults to the business date", func(t *testing.T) {
		list, err := f.svc.FindAllTerminated(ctx, models.TerminatedFilter{})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{today.ID}, ids(list))
	})

	t.Run("explicit range", func(t *testing.T) {
		list, err := f.svc.FindAllTerminated(ctx, models.TerminatedFilter{
			EmployerProfileIDs: []uuid.UUID{f.employer},
			From:               utils.Date(2025, time.February, 1),
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{early.ID, today.ID}, ids(list))
	})

	t.Run("other employer", func(t *testing.T) {
		list, err := f.svc.FindAllTerminated(ctx, models.TerminatedFilter{
			EmployerProfileIDs: []uuid.UUID{uuid.New()},
			From:               utils.Date(2025, time.February, 1),
		})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("range ends before it starts", func(t *testing.T) {
		_, err := f.svc.FindAllTerminated(ctx, models.TerminatedFilter{
			From: utils.Date(2025, time.March, 10),
			To:   utils.Date(2025, time.March, 1),
		})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})
}

func ids(list []*models.CensusEmployee) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(list))
	for _, ce := range list {
		out = append(out, ce.ID)
	}
	return out
}

func TestCensusService_RosterQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
	jane := f.create(t, f.newRecord("Jane", "Doe", "123456789"))
	john := f.create(t, f.newRecord("John", "Smith", "987654321"))
	linked, _ := f.linkedRecord(t, "555555555")

	roster, err := f.svc.FindAllByEmployerProfile(ctx, f.employer)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{jane.ID, john.ID, linked.ID}, ids(roster))

	found, err := f.svc.SearchByName(ctx, f.employer, "jane d")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jane.ID}, ids(found))

	matchable, err := f.svc.Matchable(ctx, "123456789", jane.DOB)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jane.ID}, ids(matchable))

	matchable, err = f.svc.Matchable(ctx, "555555555", linked.DOB)
	require.NoError(t, err)
	assert.Empty(t, matchable, "linked records are not matchable")

	_, err = f.svc.Matchable(ctx, "", jane.DOB)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestCensusService_UpdateCensusEmployeeRecords(t *testing.T) {
	ctx := context.Background()
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}

	t.Run("requires an administrator", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateCensusEmployeeRecords(ctx, models.Actor{ID: "er-1", Role: models.RoleEmployer}, uuid.New())
		assert.ErrorIs(t, err, e.ErrForbidden)
	})

	t.Run("copies the person's identity", func(t *testing.T) {
		f := newFixture(t)
		f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
		ce, role := f.linkedRecord(t, "555555555")

		person, err := f.repo.GetPerson(ctx, role.PersonID)
		require.NoError(t, err)
		person.LastName = "Edwards"
		person.DOB = utils.Date(1981, time.July, 2)
		require.NoError(t, f.repo.SavePerson(ctx, person))

		n, err := f.svc.UpdateCensusEmployeeRecords(ctx, admin, person.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		stored := f.reload(t, ce.ID)
		assert.Equal(t, "Edwards", stored.LastName)
		assert.True(t, stored.DOB.Equal(utils.Date(1981, time.July, 2)))
		assert.Equal(t, "555555555", stored.SSN)
		assert.Contains(t, f.producer.Produced(), events.CensusEmployeeUpdated)

		n, err = f.svc.UpdateCensusEmployeeRecords(ctx, admin, person.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("rejects identity the roster would refuse", func(t *testing.T) {
		tests := []struct {
			name  string
			edit  func(p *models.Person)
			field string
			msg   string
		}{
			{
				name:  "ssn of another active employee",
				edit:  func(p *models.Person) { p.SSN = "666666666" },
				field: e.BaseField,
				msg:   validation.MsgAlreadyActive,
			},
			{
				name:  "birth after hire",
				edit:  func(p *models.Person) { p.DOB = utils.Date(2024, time.July, 1) },
				field: "hired_on",
				msg:   validation.MsgHiredBeforeBirth,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.seedPlanYear(t, utils.Date(2025, time.January, 1), models.PlanYearActive)
				ce, role := f.linkedRecord(t, "555555555")
				f.create(t, f.newRecord("Olga", "Other", "666666666"))

				person, err := f.repo.GetPerson(ctx, role.PersonID)
				require.NoError(t, err)
				tt.edit(person)
				require.NoError(t, f.repo.SavePerson(ctx, person))

				_, err = f.svc.UpdateCensusEmployeeRecords(ctx, admin, person.ID)
				require.ErrorIs(t, err, e.ErrValidation)
				verr, ok := e.AsValidation(err)
				require.True(t, ok)
				assert.Contains(t, verr.On(tt.field), tt.msg)

				stored := f.reload(t, ce.ID)
				assert.Equal(t, "555555555", stored.SSN)
				assert.True(t, stored.DOB.Equal(ce.DOB))
			})
		}
	})

	t.Run("unknown person", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpdateCensusEmployeeRecords(ctx, admin, uuid.New())
		assert.ErrorIs(t, err, e.ErrNotFound)
	})
}
