package eligibility

import (
	"testing"
	"time"

	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignment(groupID uuid.UUID, state models.AssignmentState, active bool, created time.Time) *models.BenefitGroupAssignment {
	return &models.BenefitGroupAssignment{
		ID:             uuid.New(),
		BenefitGroupID: groupID,
		State:          state,
		IsActive:       active,
		CreatedAt:      created,
	}
}

func TestActiveAssignment(t *testing.T) {
	groupID := uuid.New()
	older := utils.Date(2025, time.January, 1)
	newer := utils.Date(2025, time.February, 1)

	tests := []struct {
		name        string
		assignments []*models.BenefitGroupAssignment
		wantIndex   int
	}{
		{
			name: "selected beats newer waived",
			assignments: []*models.BenefitGroupAssignment{
				assignment(groupID, models.AssignmentCoverageSelected, true, older),
				assignment(groupID, models.AssignmentCoverageWaived, true, newer),
			},
			wantIndex: 0,
		},
		{
			name: "initialized beats waived",
			assignments: []*models.BenefitGroupAssignment{
				assignment(groupID, models.AssignmentCoverageWaived, true, newer),
				assignment(groupID, models.AssignmentInitialized, true, older),
			},
			wantIndex: 1,
		},
		{
			name: "newest wins a tie",
			assignments: []*models.BenefitGroupAssignment{
				assignment(groupID, models.AssignmentInitialized, true, older),
				assignment(groupID, models.AssignmentInitialized, true, newer),
			},
			wantIndex: 1,
		},
		{
			name: "inactive assignments are ignored",
			assignments: []*models.BenefitGroupAssignment{
				assignment(groupID, models.AssignmentCoverageSelected, false, newer),
				assignment(groupID, models.AssignmentCoverageWaived, true, older),
			},
			wantIndex: 1,
		},
		{
			name: "none active",
			assignments: []*models.BenefitGroupAssignment{
				assignment(groupID, models.AssignmentCoverageSelected, false, newer),
			},
			wantIndex: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := &models.CensusEmployee{BenefitGroupAssignments: tt.assignments}
			got := ActiveAssignment(ce)
			if tt.wantIndex < 0 {
				assert.Nil(t, got)
				return
			}
			assert.Same(t, tt.assignments[tt.wantIndex], got)
		})
	}
}

func TestFindOrCreateAssignment(t *testing.T) {
	now := utils.Date(2025, time.March, 15)
	group := &models.BenefitGroup{ID: uuid.New()}
	other := uuid.New()

	t.Run("reactivates the best existing assignment", func(t *testing.T) {
		waived := assignment(group.ID, models.AssignmentCoverageWaived, false, utils.Date(2025, time.February, 1))
		selected := assignment(group.ID, models.AssignmentCoverageSelected, false, utils.Date(2025, time.January, 1))
		elsewhere := assignment(other, models.AssignmentInitialized, true, utils.Date(2025, time.January, 1))
		ce := &models.CensusEmployee{BenefitGroupAssignments: []*models.BenefitGroupAssignment{waived, selected, elsewhere}}

		got, created := FindOrCreateAssignment(ce, group, now, now)

		assert.False(t, created)
		assert.Same(t, selected, got)
		assert.True(t, selected.IsActive)
		require.NotNil(t, selected.ActivatedAt)
		assert.Equal(t, now, *selected.ActivatedAt)
		assert.False(t, waived.IsActive)
		assert.False(t, elsewhere.IsActive)
	})

	t.Run("keeps an earlier activation stamp", func(t *testing.T) {
		stamped := utils.Date(2024, time.December, 1)
		existing := assignment(group.ID, models.AssignmentInitialized, false, utils.Date(2024, time.December, 1))
		existing.ActivatedAt = &stamped
		ce := &models.CensusEmployee{BenefitGroupAssignments: []*models.BenefitGroupAssignment{existing}}

		FindOrCreateAssignment(ce, group, now, now)
		assert.Equal(t, stamped, *existing.ActivatedAt)
	})

	t.Run("creates when no assignment exists for the group", func(t *testing.T) {
		elsewhere := assignment(other, models.AssignmentCoverageSelected, true, utils.Date(2025, time.January, 1))
		ce := &models.CensusEmployee{BenefitGroupAssignments: []*models.BenefitGroupAssignment{elsewhere}}

		got, created := FindOrCreateAssignment(ce, group, utils.Date(2025, time.April, 1), now)

		assert.True(t, created)
		assert.Len(t, ce.BenefitGroupAssignments, 2)
		assert.Equal(t, group.ID, got.BenefitGroupID)
		assert.Equal(t, models.AssignmentInitialized, got.State)
		assert.Equal(t, utils.Date(2025, time.April, 1), got.StartOn)
		assert.True(t, got.IsActive)
		assert.False(t, elsewhere.IsActive)
		assert.Same(t, got, ActiveAssignment(ce))
	})
}

func TestRenewalAssignment(t *testing.T) {
	renewing := groupFixture(models.EffectiveOnFirstOfMonth, 0, models.PlanYearRenewingPublished)
	draft := groupFixture(models.EffectiveOnFirstOfMonth, 0, models.PlanYearRenewingDraft)
	idx := models.NewBenefitGroupIndex([]*models.BenefitGroup{renewing, draft})

	first := assignment(renewing.ID, models.AssignmentInitialized, false, utils.Date(2025, time.January, 1))
	second := assignment(renewing.ID, models.AssignmentInitialized, false, utils.Date(2025, time.February, 1))
	unpublished := assignment(draft.ID, models.AssignmentInitialized, false, utils.Date(2025, time.March, 1))
	ce := &models.CensusEmployee{BenefitGroupAssignments: []*models.BenefitGroupAssignment{first, second, unpublished}}

	assert.Same(t, second, RenewalAssignment(ce, idx))
	assert.Same(t, second, PublishedAssignment(ce, idx))
	assert.True(t, HasPublishedAssignment(ce, idx))

	onlyDraft := &models.CensusEmployee{BenefitGroupAssignments: []*models.BenefitGroupAssignment{unpublished}}
	assert.Nil(t, RenewalAssignment(onlyDraft, idx))
	assert.False(t, HasPublishedAssignment(onlyDraft, idx))
}

func TestAssignDefaultBenefitPackage(t *testing.T) {
	now := utils.Date(2025, time.March, 15)
	active := groupFixture(models.EffectiveOnFirstOfMonth, 0, models.PlanYearActive)
	renewal := groupFixture(models.EffectiveOnFirstOfMonth, 0, models.PlanYearRenewingDraft)
	renewal.PlanYear.StartOn = utils.Date(2026, time.January, 1)

	hired := utils.Date(2025, time.February, 10)
	ce := &models.CensusEmployee{HiredOn: &hired}

	AssignDefaultBenefitPackage(ce, []*models.PlanYear{renewal.PlanYear, active.PlanYear}, now)

	require.Len(t, ce.BenefitGroupAssignments, 2)
	current := ActiveAssignment(ce)
	require.NotNil(t, current)
	assert.Equal(t, active.ID, current.BenefitGroupID)
	assert.Equal(t, hired, current.StartOn)

	var renewalAssignment *models.BenefitGroupAssignment
	for _, a := range ce.BenefitGroupAssignments {
		if a.BenefitGroupID == renewal.ID {
			renewalAssignment = a
		}
	}
	require.NotNil(t, renewalAssignment)
	assert.False(t, renewalAssignment.IsActive)
	assert.Equal(t, utils.Date(2026, time.January, 1), renewalAssignment.StartOn)

	again, added := AddRenewalAssignment(ce, renewal, renewal.PlanYear.StartOn, now)
	assert.False(t, added)
	assert.Same(t, renewalAssignment, again)
}

func TestMatching(t *testing.T) {
	dob := utils.Date(1980, time.July, 4)
	ce := &models.CensusEmployee{FirstName: "Jane", LastName: "Doe", SSN: "111223333", DOB: dob}

	bySSN := &models.Person{ID: uuid.New(), FirstName: "Janet", LastName: "Doe", SSN: "111223333", DOB: utils.Date(1981, time.July, 4)}
	byName := &models.Person{ID: uuid.New(), FirstName: "JANE", LastName: "doe", SSN: "999887777", DOB: dob}
	exact := &models.Person{ID: uuid.New(), FirstName: "Jane", LastName: "Doe", SSN: "111223333", DOB: dob}

	assert.Same(t, bySSN, MatchForLink(ce, []*models.Person{byName, bySSN}))
	assert.Same(t, byName, MatchForLink(ce, []*models.Person{byName}))
	assert.Nil(t, ExactMatch(ce, []*models.Person{bySSN, byName}))
	assert.Same(t, exact, ExactMatch(ce, []*models.Person{bySSN, exact}))
}
