// Package validation checks roster records against the field rules and
// the identity edit policy.
package validation

import (
	"fmt"
	"regexp"
	"time"

	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
)

var ssnPattern = regexp.MustCompile(`^\d{9}$`)

const (
	MsgBlank                 = "can't be blank"
	MsgInvalidSSN            = "must be 9 digits"
	MsgHiredBeforeBirth      = "date can't be before date of birth"
	MsgTerminatedBeforeHire  = "must be on or after date of hire"
	MsgCobraBeforeHire       = "must be after Hire Date"
	MsgDuplicateSSN          = "SSN's must be unique for each dependent and subscriber"
	MsgSpouseOrPartner       = "can't have more than one spouse or domestic partner"
	MsgAlreadyActive         = "Employee with this identifying information is already active"
	MsgIdentityLockedForLink = "An employee's identifying information may change only when in 'eligible' status"
)

// TerminationWindow decides whether an employment termination date is still
// reportable.
type TerminationWindow interface {
	TerminationWithinReportingWindow(d time.Time) bool
}

// Validator applies the roster field rules.
type Validator struct {
	window     TerminationWindow
	windowDays int
}

// NewValidator returns a Validator checking termination dates against window.
func NewValidator(window TerminationWindow, windowDays int) *Validator {
	return &Validator{window: window, windowDays: windowDays}
}

// Validate returns a *errors.ValidationError describing every rule ce breaks,
// or nil.
func (v *Validator) Validate(ce *models.CensusEmployee) error {
	verr := e.NewValidationError()

	if ce.EmployerProfileID == uuid.Nil {
		verr.Add("employer_profile_id", MsgBlank)
	}
	if ce.FirstName == "" {
		verr.Add("first_name", MsgBlank)
	}
	if ce.LastName == "" {
		verr.Add("last_name", MsgBlank)
	}
	switch {
	case ce.SSN == "":
		verr.Add("ssn", MsgBlank)
	case !ssnPattern.MatchString(ce.SSN):
		verr.Add("ssn", MsgInvalidSSN)
	}
	if ce.DOB.IsZero() {
		verr.Add("dob", MsgBlank)
	}

	switch {
	case ce.HiredOn == nil:
		verr.Add("hired_on", MsgBlank)
	case !ce.DOB.IsZero() && ce.HiredOn.Before(ce.DOB):
		verr.Add("hired_on", MsgHiredBeforeBirth)
	}

	v.validateTermination(ce, verr)

	if ce.ExistingCobra && ce.CobraBeginDate != nil && ce.HiredOn != nil &&
		utils.DateOf(*ce.CobraBeginDate).Before(utils.DateOf(*ce.HiredOn)) {
		verr.Add("cobra_begin_date", MsgCobraBeforeHire)
	}

	validateDependents(ce, verr)
	return verr.OrNil()
}

func (v *Validator) validateTermination(ce *models.CensusEmployee, verr *e.ValidationError) {
	if ce.EmploymentTerminatedOn == nil {
		return
	}
	if ce.HiredOn != nil && utils.DateOf(*ce.EmploymentTerminatedOn).Before(utils.DateOf(*ce.HiredOn)) {
		verr.Add("employment_terminated_on", MsgTerminatedBeforeHire)
	}
	if ce.IsEmploymentTerminated() {
		return
	}
	if !v.window.TerminationWithinReportingWindow(*ce.EmploymentTerminatedOn) {
		verr.Add("employment_terminated_on", fmt.Sprintf("must be within the past %d days", v.windowDays))
	}
}

// ValidateTerminationDate checks the date given to a termination. Late
// reports are accepted; their coverage end is clamped by the calculator, so
// only the hire date bounds d.
func (v *Validator) ValidateTerminationDate(ce *models.CensusEmployee, d time.Time) error {
	verr := e.NewValidationError()
	if ce.HiredOn != nil && utils.DateOf(d).Before(utils.DateOf(*ce.HiredOn)) {
		verr.Add("employment_terminated_on", MsgTerminatedBeforeHire)
	}
	return verr.OrNil()
}

func validateDependents(ce *models.CensusEmployee, verr *e.ValidationError) {
	seen := map[string]bool{}
	if ce.SSN != "" {
		seen[ce.SSN] = true
	}
	duplicate := false
	partners := 0
	for _, d := range ce.Dependents {
		if d.SSN != nil && *d.SSN != "" {
			if seen[*d.SSN] {
				duplicate = true
			}
			seen[*d.SSN] = true
		}
		if d.EmployeeRelationship == models.RelationshipSpouse || d.EmployeeRelationship == models.RelationshipDomesticPartner {
			partners++
		}
	}
	if duplicate {
		verr.Add(e.BaseField, MsgDuplicateSSN)
	}
	if partners > 1 {
		verr.Add("census_dependents", MsgSpouseOrPartner)
	}
}

// NormalizeDependents stores blank dependent SSNs as nil.
func NormalizeDependents(ce *models.CensusEmployee) {
	for _, d := range ce.Dependents {
		if d.SSN != nil && *d.SSN == "" {
			d.SSN = nil
		}
	}
}
