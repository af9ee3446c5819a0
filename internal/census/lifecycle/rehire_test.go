package lifecycle

import (
	"testing"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func terminatedEmployee() *models.CensusEmployee {
	roleID := uuid.New()
	return &models.CensusEmployee{
		ID:                     uuid.New(),
		EmployerProfileID:      uuid.New(),
		FirstName:              "Ada",
		LastName:               "Lovelace",
		SSN:                    "123456789",
		DOB:                    utils.Date(1985, time.December, 10),
		Gender:                 models.GenderFemale,
		HiredOn:                utils.Ptr(utils.Date(2020, time.April, 1)),
		State:                  models.StateEmploymentTerminated,
		EmploymentTerminatedOn: utils.Ptr(utils.Date(2024, time.June, 30)),
		EmployeeRoleID:         &roleID,
		Dependents: []*models.CensusDependent{
			{ID: uuid.New(), FirstName: "Byron", EmployeeRelationship: models.RelationshipChildUnder26, SSN: utils.Ptr("987654321")},
		},
		BenefitGroupAssignments: []*models.BenefitGroupAssignment{
			{ID: uuid.New(), IsActive: true, State: models.AssignmentCoverageSelected},
		},
	}
}

func TestReplicateForRehire(t *testing.T) {
	src := terminatedEmployee()
	now := time.Date(2025, time.January, 2, 9, 0, 0, 0, time.UTC)

	replica, err := ReplicateForRehire(src, now)
	require.NoError(t, err)

	assert.Equal(t, models.StateRehired, src.State)
	assert.NotEqual(t, src.ID, replica.ID)
	assert.Equal(t, models.StateEligible, replica.State)
	assert.Equal(t, src.SSN, replica.SSN)
	assert.True(t, src.DOB.Equal(replica.DOB))
	assert.Equal(t, src.FullName(), replica.FullName())
	assert.Nil(t, replica.HiredOn)
	assert.Nil(t, replica.EmployeeRoleID)
	assert.Nil(t, replica.EmploymentTerminatedOn)
	assert.Empty(t, replica.BenefitGroupAssignments)

	require.Len(t, replica.Dependents, 1)
	assert.Equal(t, "Byron", replica.Dependents[0].FirstName)
	assert.NotEqual(t, src.Dependents[0].ID, replica.Dependents[0].ID)
	*replica.Dependents[0].SSN = "111111111"
	assert.Equal(t, "987654321", *src.Dependents[0].SSN)
}

func TestReplicateForRehireRejectsActiveRecord(t *testing.T) {
	src := terminatedEmployee()
	src.State = models.StateEmployeeRoleLinked

	replica, err := ReplicateForRehire(src, time.Now())
	assert.Nil(t, replica)
	assert.ErrorIs(t, err, e.ErrIllegalTransition)
	assert.Equal(t, models.StateEmployeeRoleLinked, src.State)
}
