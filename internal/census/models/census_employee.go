// Package models defines the domain model of the employer roster: census
// employees, their dependents and benefit group assignments, plus the plan
// year, enrollment and identity records the lifecycle reads.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the roster status of a CensusEmployee.
type State string

const (
	StateEligible                   State = "eligible"
	StateNewlyDesignatedEligible    State = "newly_designated_eligible"
	StateEmployeeRoleLinked         State = "employee_role_linked"
	StateNewlyDesignatedLinked      State = "newly_designated_linked"
	StateCobraEligible              State = "cobra_eligible"
	StateCobraLinked                State = "cobra_linked"
	StateCobraTerminated            State = "cobra_terminated"
	StateEmployeeTerminationPending State = "employee_termination_pending"
	StateEmploymentTerminated       State = "employment_terminated"
	StateRehired                    State = "rehired"
)

// StateSet is an unordered set of roster states.
type StateSet []State

// Contains reports whether s is in the set.
func (ss StateSet) Contains(s State) bool {
	for _, candidate := range ss {
		if candidate == s {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings, for queries.
func (ss StateSet) Strings() []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

var (
	// ActiveStates are the states from which employment can be terminated.
	ActiveStates = StateSet{
		StateEligible, StateNewlyDesignatedEligible,
		StateEmployeeRoleLinked, StateNewlyDesignatedLinked,
		StateCobraEligible, StateCobraLinked,
	}
	// UnlinkedStates accept link_employee_role.
	UnlinkedStates = StateSet{StateEligible, StateNewlyDesignatedEligible, StateCobraEligible}
	// LinkedStates accept delink_employee_role.
	LinkedStates    = StateSet{StateEmployeeRoleLinked, StateNewlyDesignatedLinked, StateCobraLinked}
	CobraStates     = StateSet{StateCobraEligible, StateCobraLinked, StateCobraTerminated}
	NewlyDesignated = StateSet{StateNewlyDesignatedEligible, StateNewlyDesignatedLinked}
	// EmploymentTerminatedStates skip the termination reporting window check.
	EmploymentTerminatedStates = StateSet{
		StateEmployeeTerminationPending, StateEmploymentTerminated,
		StateCobraTerminated, StateRehired,
	}
	// TerminatedStates are reported by the terminated roster query.
	TerminatedStates = StateSet{StateEmploymentTerminated, StateCobraTerminated, StateRehired}
)

// Gender values accepted on employees and dependents.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// CensusEmployee is an employer-maintained roster record.
type CensusEmployee struct {
	ID                      uuid.UUID
	EmployerProfileID       uuid.UUID
	FirstName               string
	MiddleName              string
	LastName                string
	NameSfx                 string
	SSN                     string
	DOB                     time.Time
	Gender                  string
	HiredOn                 *time.Time
	IsBusinessOwner         bool
	State                   State
	EmploymentTerminatedOn  *time.Time
	CoverageTerminatedOn    *time.Time
	ExistingCobra           bool
	CobraBeginDate          *time.Time
	// EmployeeRoleID is a weak reference to the identity-side role record.
	EmployeeRoleID          *uuid.UUID
	Dependents              []*CensusDependent
	BenefitGroupAssignments []*BenefitGroupAssignment
	Version                 int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// FullName joins the name parts that are present.
func (c *CensusEmployee) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.FirstName, c.MiddleName, c.LastName, c.NameSfx} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsLinked reports whether the record is bound to an employee role.
func (c *CensusEmployee) IsLinked() bool {
	return c.State == StateEmployeeRoleLinked || c.State == StateCobraLinked
}

// IsActive reports whether the record is in a non-terminated roster state.
func (c *CensusEmployee) IsActive() bool {
	return ActiveStates.Contains(c.State)
}

// IsCobraStatus reports whether the employee is on continuation coverage.
func (c *CensusEmployee) IsCobraStatus() bool {
	return c.ExistingCobra || CobraStates.Contains(c.State)
}

// IsEmploymentTerminated reports whether employment has ended or is scheduled to.
func (c *CensusEmployee) IsEmploymentTerminated() bool {
	return EmploymentTerminatedStates.Contains(c.State)
}

// CurrentState is the display form of the roster state.
func (c *CensusEmployee) CurrentState() string {
	if c.ExistingCobra && c.State == StateCobraEligible {
		return "Cobra Eligible"
	}
	words := strings.Split(string(c.State), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// AssignmentByID returns the assignment with the given id.
func (c *CensusEmployee) AssignmentByID(id uuid.UUID) *BenefitGroupAssignment {
	for _, a := range c.BenefitGroupAssignments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// CensusEmployeeUpdate carries a partial update. Nil fields are left as-is.
type CensusEmployeeUpdate struct {
	ID uuid.UUID
	// Version, when set, must match the stored version.
	Version         *int
	FirstName       *string
	MiddleName      *string
	LastName        *string
	NameSfx         *string
	SSN             *string
	DOB             *time.Time
	Gender          *string
	HiredOn         *time.Time
	IsBusinessOwner *bool
	ExistingCobra   *bool
	CobraBeginDate  *time.Time
	// Dependents replaces the dependent list when non-nil.
	Dependents []*CensusDependent
}

// ChangesIdentity reports whether the update touches identifying fields of c.
func (u *CensusEmployeeUpdate) ChangesIdentity(c *CensusEmployee) bool {
	changed := func(p *string, cur string) bool { return p != nil && *p != cur }
	if changed(u.SSN, c.SSN) || changed(u.FirstName, c.FirstName) ||
		changed(u.MiddleName, c.MiddleName) || changed(u.LastName, c.LastName) ||
		changed(u.NameSfx, c.NameSfx) {
		return true
	}
	return u.DOB != nil && !u.DOB.Equal(c.DOB)
}

// Apply copies the set fields of u onto c.
func (u *CensusEmployeeUpdate) Apply(c *CensusEmployee) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.FirstName, u.FirstName)
	setString(&c.MiddleName, u.MiddleName)
	setString(&c.LastName, u.LastName)
	setString(&c.NameSfx, u.NameSfx)
	setString(&c.SSN, u.SSN)
	setString(&c.Gender, u.Gender)
	if u.DOB != nil {
		c.DOB = *u.DOB
	}
	if u.HiredOn != nil {
		c.HiredOn = u.HiredOn
	}
	if u.IsBusinessOwner != nil {
		c.IsBusinessOwner = *u.IsBusinessOwner
	}
	if u.ExistingCobra != nil {
		c.ExistingCobra = *u.ExistingCobra
	}
	if u.CobraBeginDate != nil {
		c.CobraBeginDate = u.CobraBeginDate
	}
	if u.Dependents != nil {
		c.Dependents = u.Dependents
	}
}

// TerminatedFilter narrows the terminated roster query.
type TerminatedFilter struct {
	EmployerProfileIDs []uuid.UUID
	From               time.Time
	To                 time.Time
}
