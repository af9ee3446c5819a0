package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gartstein/census/internal/census/clock"
	"github.com/gartstein/census/internal/census/eligibility"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memoryStore keeps enrollments keyed by assignment.
type memoryStore struct {
	byAssignment map[uuid.UUID][]*models.Enrollment
	updated      []uuid.UUID
	findErr      error
	updateErr    error
}

func (m *memoryStore) FindEnrollmentsByAssignment(_ context.Context, id uuid.UUID) ([]*models.Enrollment, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byAssignment[id], nil
}

func (m *memoryStore) UpdateEnrollment(_ context.Context, en *models.Enrollment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, en.ID)
	return nil
}

type countingRecorder map[string]int

func (c countingRecorder) EnrollmentReconciled(outcome string) { c[outcome]++ }

func newReconciler(t *testing.T, today time.Time, rec Recorder) *Reconciler {
	calc := eligibility.NewCalculator(clock.Fixed(today), eligibility.DefaultSettings())
	return NewReconciler(calc, rec, zaptest.NewLogger(t))
}

func employeeWithEnrollments(enrollments ...*models.Enrollment) (*models.CensusEmployee, *memoryStore) {
	a := &models.BenefitGroupAssignment{ID: uuid.New(), IsActive: true, State: models.AssignmentCoverageSelected}
	for _, en := range enrollments {
		en.BenefitGroupAssignmentID = a.ID
		if en.ID == uuid.Nil {
			en.ID = uuid.New()
		}
	}
	ce := &models.CensusEmployee{
		ID:                      uuid.New(),
		HiredOn:                 utils.Ptr(utils.Date(2024, time.January, 1)),
		BenefitGroupAssignments: []*models.BenefitGroupAssignment{a},
	}
	return ce, &memoryStore{byAssignment: map[uuid.UUID][]*models.Enrollment{a.ID: enrollments}}
}

func TestReconcile(t *testing.T) {
	today := utils.Date(2024, time.January, 25)
	terminated := utils.Date(2024, time.January, 20)

	tests := []struct {
		name          string
		enrollment    *models.Enrollment
		wantState     models.EnrollmentState
		wantEnd       *time.Time
		wantOutcome   Outcome
		wantUntouched bool
	}{
		{
			name:        "coverage started before termination",
			enrollment:  &models.Enrollment{State: models.EnrollmentCoverageEnrolled, EffectiveOn: utils.Date(2023, time.December, 1)},
			wantState:   models.EnrollmentCoverageTerminationPending,
			wantEnd:     utils.Ptr(utils.Date(2024, time.January, 31)),
			wantOutcome: OutcomeTerminationScheduled,
		},
		{
			name:        "coverage effective on the coverage end date",
			enrollment:  &models.Enrollment{State: models.EnrollmentCoverageSelected, EffectiveOn: utils.Date(2024, time.January, 31)},
			wantState:   models.EnrollmentCoverageTerminationPending,
			wantEnd:     utils.Ptr(utils.Date(2024, time.January, 31)),
			wantOutcome: OutcomeTerminationScheduled,
		},
		{
			name:        "future coverage is canceled",
			enrollment:  &models.Enrollment{State: models.EnrollmentCoverageSelected, EffectiveOn: utils.Date(2024, time.February, 1)},
			wantState:   models.EnrollmentCoverageCanceled,
			wantOutcome: OutcomeCanceled,
		},
		{
			name:        "renewing coverage is canceled",
			enrollment:  &models.Enrollment{State: models.EnrollmentAutoRenewing, EffectiveOn: utils.Date(2024, time.March, 1)},
			wantState:   models.EnrollmentCoverageCanceled,
			wantOutcome: OutcomeCanceled,
		},
		{
			name:        "renewal waiver becomes inactive",
			enrollment:  &models.Enrollment{State: models.EnrollmentRenewingWaived, EffectiveOn: utils.Date(2024, time.March, 1)},
			wantState:   models.EnrollmentInactive,
			wantOutcome: OutcomeWaiverInvalidated,
		},
		{
			name:          "terminated coverage is untouched",
			enrollment:    &models.Enrollment{State: models.EnrollmentCoverageTerminated, EffectiveOn: utils.Date(2023, time.January, 1), TerminatedOn: utils.Ptr(utils.Date(2023, time.June, 30))},
			wantState:     models.EnrollmentCoverageTerminated,
			wantEnd:       utils.Ptr(utils.Date(2023, time.June, 30)),
			wantUntouched: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := countingRecorder{}
			ce, store := employeeWithEnrollments(tt.enrollment)

			result, err := newReconciler(t, today, rec).Reconcile(context.Background(), store, ce, terminated)
			require.NoError(t, err)

			assert.Equal(t, utils.Date(2024, time.January, 31), result.CoverageTerminatedOn)
			assert.Equal(t, tt.wantState, tt.enrollment.State)
			assert.Equal(t, tt.wantEnd, tt.enrollment.TerminatedOn)
			if tt.wantUntouched {
				assert.Empty(t, result.Changes)
				assert.Empty(t, store.updated)
				return
			}
			require.Len(t, result.Changes, 1)
			assert.Equal(t, tt.wantOutcome, result.Changes[0].Outcome)
			assert.Equal(t, 1, rec[string(tt.wantOutcome)])
			assert.Equal(t, []uuid.UUID{tt.enrollment.ID}, store.updated)
		})
	}
}

func TestReconcileLateReportedTermination(t *testing.T) {
	today := utils.Date(2025, time.March, 15)
	en := &models.Enrollment{State: models.EnrollmentCoverageEnrolled, EffectiveOn: utils.Date(2024, time.January, 1)}
	ce, store := employeeWithEnrollments(en)

	result, err := newReconciler(t, today, nil).Reconcile(context.Background(), store, ce, utils.Date(2024, time.December, 10))
	require.NoError(t, err)

	assert.Equal(t, utils.Date(2025, time.January, 31), result.CoverageTerminatedOn)
	assert.Equal(t, utils.Date(2025, time.January, 31), *en.TerminatedOn)
}

func TestReconcileCoversEveryAssignment(t *testing.T) {
	today := utils.Date(2024, time.January, 25)
	current := &models.Enrollment{ID: uuid.New(), State: models.EnrollmentCoverageEnrolled, EffectiveOn: utils.Date(2023, time.January, 1)}
	ce, store := employeeWithEnrollments(current)

	inactive := &models.BenefitGroupAssignment{ID: uuid.New()}
	renewal := &models.Enrollment{ID: uuid.New(), BenefitGroupAssignmentID: inactive.ID, State: models.EnrollmentRenewingCoverageSelected, EffectiveOn: utils.Date(2024, time.April, 1)}
	ce.BenefitGroupAssignments = append(ce.BenefitGroupAssignments, inactive)
	store.byAssignment[inactive.ID] = []*models.Enrollment{renewal}

	result, err := newReconciler(t, today, nil).Reconcile(context.Background(), store, ce, utils.Date(2024, time.January, 20))
	require.NoError(t, err)

	assert.Len(t, result.Changes, 2)
	assert.Equal(t, models.EnrollmentCoverageTerminationPending, current.State)
	assert.Equal(t, models.EnrollmentCoverageCanceled, renewal.State)
}

func TestReconcileStoreErrors(t *testing.T) {
	today := utils.Date(2024, time.January, 25)

	t.Run("load failure", func(t *testing.T) {
		ce, store := employeeWithEnrollments()
		store.findErr = errors.New("db down")

		_, err := newReconciler(t, today, nil).Reconcile(context.Background(), store, ce, today)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("update failure", func(t *testing.T) {
		ce, store := employeeWithEnrollments(&models.Enrollment{State: models.EnrollmentCoverageEnrolled, EffectiveOn: utils.Date(2023, time.January, 1)})
		store.updateErr = errors.New("write failed")

		_, err := newReconciler(t, today, nil).Reconcile(context.Background(), store, ce, today)
		assert.ErrorContains(t, err, "write failed")
	})
}
