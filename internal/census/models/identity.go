package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Person is the identity-side record a roster entry can be matched to.
type Person struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	SSN       string
	DOB       time.Time
	Gender    string
}

// MatchesDemographics compares DOB and names case-insensitively.
func (p *Person) MatchesDemographics(dob time.Time, first, last string) bool {
	return p.DOB.Equal(dob) &&
		strings.EqualFold(p.FirstName, first) &&
		strings.EqualFold(p.LastName, last)
}

// EmployeeRole links a person to an employer, and optionally to a roster record.
type EmployeeRole struct {
	ID                uuid.UUID
	PersonID          uuid.UUID
	EmployerProfileID uuid.UUID
	CensusEmployeeID  *uuid.UUID
	HiredOn           *time.Time
	TerminatedOn      *time.Time
}

// IsActive reports whether the role has not been terminated.
func (r *EmployeeRole) IsActive() bool {
	return r.TerminatedOn == nil
}

// Role of an authenticated caller.
type Role string

const (
	RoleAdmin    Role = "hbx_staff"
	RoleEmployer Role = "employer_staff"
	RoleEmployee Role = "employee"
	RoleSystem   Role = "system"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleEmployee, RoleSystem:
		return true
	}
	return false
}

// Actor is the authenticated caller performing an operation.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor may change protected fields.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}
