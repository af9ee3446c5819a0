package validation

import (
	"testing"
	"time"

	"github.com/gartstein/census/internal/census/clock"
	"github.com/gartstein/census/internal/census/eligibility"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = utils.Date(2025, time.March, 15)

func newValidator() *Validator {
	calc := eligibility.NewCalculator(clock.Fixed(today), eligibility.DefaultSettings())
	return NewValidator(calc, 60)
}

func validEmployee() *models.CensusEmployee {
	return &models.CensusEmployee{
		ID:                uuid.New(),
		EmployerProfileID: uuid.New(),
		FirstName:         "Jane",
		LastName:          "Doe",
		SSN:               "123456789",
		DOB:               utils.Date(1980, time.May, 2),
		HiredOn:           utils.Ptr(utils.Date(2015, time.June, 1)),
		State:             models.StateEligible,
	}
}

func fieldErrors(t *testing.T, err error) *e.ValidationError {
	t.Helper()
	require.Error(t, err)
	verr, ok := e.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	return verr
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CensusEmployee)
		field  string
		msg    string
	}{
		{"missing ssn", func(c *models.CensusEmployee) { c.SSN = "" }, "ssn", MsgBlank},
		{"short ssn", func(c *models.CensusEmployee) { c.SSN = "1234" }, "ssn", MsgInvalidSSN},
		{"missing dob", func(c *models.CensusEmployee) { c.DOB = time.Time{} }, "dob", MsgBlank},
		{"missing hire date", func(c *models.CensusEmployee) { c.HiredOn = nil }, "hired_on", MsgBlank},
		{"missing employer", func(c *models.CensusEmployee) { c.EmployerProfileID = uuid.Nil }, "employer_profile_id", MsgBlank},
		{"hired before birth", func(c *models.CensusEmployee) { c.HiredOn = utils.Ptr(utils.Date(1979, time.January, 1)) }, "hired_on", MsgHiredBeforeBirth},
		{
			"terminated before hire",
			func(c *models.CensusEmployee) {
				c.State = models.StateEmploymentTerminated
				c.EmploymentTerminatedOn = utils.Ptr(utils.Date(2015, time.May, 1))
			},
			"employment_terminated_on", MsgTerminatedBeforeHire,
		},
		{
			"termination outside reporting window",
			func(c *models.CensusEmployee) { c.EmploymentTerminatedOn = utils.Ptr(utils.Date(2024, time.December, 1)) },
			"employment_terminated_on", "must be within the past 60 days",
		},
		{
			"cobra before hire",
			func(c *models.CensusEmployee) {
				c.ExistingCobra = true
				c.CobraBeginDate = utils.Ptr(utils.Date(2015, time.January, 1))
			},
			"cobra_begin_date", MsgCobraBeforeHire,
		},
		{
			"spouse and domestic partner",
			func(c *models.CensusEmployee) {
				c.Dependents = []*models.CensusDependent{
					{EmployeeRelationship: models.RelationshipSpouse},
					{EmployeeRelationship: models.RelationshipDomesticPartner},
				}
			},
			"census_dependents", MsgSpouseOrPartner,
		},
		{
			"two spouses",
			func(c *models.CensusEmployee) {
				c.Dependents = []*models.CensusDependent{
					{EmployeeRelationship: models.RelationshipSpouse},
					{EmployeeRelationship: models.RelationshipSpouse},
				}
			},
			"census_dependents", MsgSpouseOrPartner,
		},
		{
			"dependent shares subscriber ssn",
			func(c *models.CensusEmployee) {
				c.Dependents = []*models.CensusDependent{{SSN: utils.Ptr(c.SSN), EmployeeRelationship: models.RelationshipChildUnder26}}
			},
			e.BaseField, MsgDuplicateSSN,
		},
		{
			"dependents share ssn",
			func(c *models.CensusEmployee) {
				c.Dependents = []*models.CensusDependent{
					{SSN: utils.Ptr("555443333"), EmployeeRelationship: models.RelationshipChildUnder26},
					{SSN: utils.Ptr("555443333"), EmployeeRelationship: models.RelationshipChildUnder26},
				}
			},
			e.BaseField, MsgDuplicateSSN,
		},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := validEmployee()
			tt.mutate(ce)
			verr := fieldErrors(t, v.Validate(ce))
			assert.Contains(t, verr.On(tt.field), tt.msg)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	v := newValidator()

	t.Run("valid record", func(t *testing.T) {
		assert.NoError(t, v.Validate(validEmployee()))
	})

	t.Run("blank dependent ssns are not duplicates", func(t *testing.T) {
		ce := validEmployee()
		ce.Dependents = []*models.CensusDependent{
			{SSN: utils.Ptr(""), EmployeeRelationship: models.RelationshipChildUnder26},
			{SSN: utils.Ptr(""), EmployeeRelationship: models.RelationshipChildUnder26},
			{EmployeeRelationship: models.RelationshipSpouse},
		}
		assert.NoError(t, v.Validate(ce))

		NormalizeDependents(ce)
		assert.Nil(t, ce.Dependents[0].SSN)
	})

	t.Run("old termination is fine once terminated", func(t *testing.T) {
		for _, s := range models.EmploymentTerminatedStates {
			ce := validEmployee()
			ce.State = s
			ce.EmploymentTerminatedOn = utils.Ptr(utils.Date(2023, time.January, 1))
			assert.NoError(t, v.Validate(ce), s)
		}
	})

	t.Run("recent termination", func(t *testing.T) {
		ce := validEmployee()
		ce.EmploymentTerminatedOn = utils.Ptr(today.AddDate(0, 0, -60))
		assert.NoError(t, v.Validate(ce))
	})
}

func TestValidateTerminationDate(t *testing.T) {
	v := newValidator()
	ce := validEmployee()

	assert.NoError(t, v.ValidateTerminationDate(ce, today))
	assert.NoError(t, v.ValidateTerminationDate(ce, today.AddDate(0, 1, 0)))

	assert.NoError(t, v.ValidateTerminationDate(ce, today.AddDate(0, 0, -61)), "late reports are accepted")

	verr := fieldErrors(t, v.ValidateTerminationDate(ce, ce.HiredOn.AddDate(0, 0, -1)))
	assert.Equal(t, []string{MsgTerminatedBeforeHire}, verr.On("employment_terminated_on"))
	assert.Nil(t, ce.EmploymentTerminatedOn)
}

func TestCheckIdentityEdit(t *testing.T) {
	roleID := uuid.New()
	newSSN := "987654321"
	newGender := models.GenderFemale

	tests := []struct {
		name    string
		state   models.State
		roleID  *uuid.UUID
		actor   models.Actor
		update  *models.CensusEmployeeUpdate
		wantErr bool
	}{
		{"unlinked employer may edit", models.StateEligible, nil, models.Actor{Role: models.RoleEmployer}, &models.CensusEmployeeUpdate{SSN: &newSSN}, false},
		{"linked employer may not edit ssn", models.StateEmployeeRoleLinked, &roleID, models.Actor{Role: models.RoleEmployer}, &models.CensusEmployeeUpdate{SSN: &newSSN}, true},
		{"linked employer may not edit dob", models.StateEmployeeRoleLinked, &roleID, models.Actor{Role: models.RoleEmployer}, &models.CensusEmployeeUpdate{DOB: utils.Ptr(utils.Date(1981, time.May, 2))}, true},
		{"linked admin may edit", models.StateEmployeeRoleLinked, &roleID, models.Actor{Role: models.RoleAdmin}, &models.CensusEmployeeUpdate{SSN: &newSSN}, false},
		{"linked employer may edit other fields", models.StateEmployeeRoleLinked, &roleID, models.Actor{Role: models.RoleEmployer}, &models.CensusEmployeeUpdate{Gender: &newGender}, false},
		{"same value is not a change", models.StateEmployeeRoleLinked, &roleID, models.Actor{Role: models.RoleEmployer}, &models.CensusEmployeeUpdate{SSN: utils.Ptr("123456789")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := validEmployee()
			ce.State = tt.state
			ce.EmployeeRoleID = tt.roleID

			err := CheckIdentityEdit(tt.actor, ce, tt.update)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			verr := fieldErrors(t, err)
			assert.Equal(t, []string{MsgIdentityLockedForLink}, verr.On(e.BaseField))
		})
	}
}
