// Package models contains the persistence records of the roster, mapped
// with GORM. Child collections are plain tables keyed by their owner and
// are written explicitly by the repository, not through associations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CensusEmployee is the census_employees row.
type CensusEmployee struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EmployerProfileID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	FirstName              string     `gorm:"size:255;not null"`
	MiddleName             string     `gorm:"size:255"`
	LastName               string     `gorm:"size:255;not null;index"`
	NameSfx                string     `gorm:"size:32"`
	SSN                    string     `gorm:"size:9;index"`
	DOB                    time.Time  `gorm:"type:date"`
	Gender                 string     `gorm:"size:16"`
	HiredOn                *time.Time `gorm:"type:date"`
	IsBusinessOwner        bool
	AasmState              string     `gorm:"size:64;not null;index"`
	EmploymentTerminatedOn *time.Time `gorm:"type:date;index"`
	CoverageTerminatedOn   *time.Time `gorm:"type:date"`
	ExistingCobra          bool
	CobraBeginDate         *time.Time `gorm:"type:date"`
	EmployeeRoleID         *uuid.UUID `gorm:"type:uuid;index"`
	Version                int        `gorm:"not null;default:1"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// CensusDependent is the census_dependents row.
type CensusDependent struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	CensusEmployeeID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FirstName            string    `gorm:"size:255"`
	MiddleName           string    `gorm:"size:255"`
	LastName             string    `gorm:"size:255"`
	DOB                  time.Time `gorm:"type:date"`
	Gender               string    `gorm:"size:16"`
	SSN                  *string   `gorm:"size:9"`
	EmployeeRelationship string    `gorm:"size:64"`
	Position             int
}

// BenefitGroupAssignment is the benefit_group_assignments row.
type BenefitGroupAssignment struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CensusEmployeeID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BenefitGroupID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	StartOn          time.Time  `gorm:"type:date"`
	EndOn            *time.Time `gorm:"type:date"`
	IsActive         bool       `gorm:"index"`
	ActivatedAt      *time.Time
	AasmState        string `gorm:"size:64;not null"`
	CreatedAt        time.Time
}

// PlanYear is the plan_years row.
type PlanYear struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployerProfileID uuid.UUID `gorm:"type:uuid;not null;index"`
	StartOn           time.Time `gorm:"type:date"`
	EndOn             time.Time `gorm:"type:date"`
	AasmState         string    `gorm:"size:64;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BenefitGroup is the benefit_groups row.
type BenefitGroup struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlanYearID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Title             string    `gorm:"size:255"`
	EffectiveOnKind   string    `gorm:"size:32"`
	EffectiveOnOffset int
	IsDefault         bool
}

// Enrollment is the hbx_enrollments row.
type Enrollment struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BenefitGroupAssignmentID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CoverageKind             string     `gorm:"size:16"`
	EffectiveOn              time.Time  `gorm:"type:date"`
	TerminatedOn             *time.Time `gorm:"type:date"`
	AasmState                string     `gorm:"size:64;not null"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// TableName keeps the exchange's table name.
func (Enrollment) TableName() string { return "hbx_enrollments" }

// Person is the people row.
type Person struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName string    `gorm:"size:255"`
	LastName  string    `gorm:"size:255"`
	SSN       string    `gorm:"size:9;index"`
	DOB       time.Time `gorm:"type:date;index"`
	Gender    string    `gorm:"size:16"`
	CreatedAt time.Time
}

// TableName pins the plural.
func (Person) TableName() string { return "people" }

// EmployeeRole is the employee_roles row.
type EmployeeRole struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PersonID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployerProfileID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CensusEmployeeID  *uuid.UUID `gorm:"type:uuid;index"`
	HiredOn           *time.Time `gorm:"type:date"`
	TerminatedOn      *time.Time `gorm:"type:date"`
	CreatedAt         time.Time
}

// All lists every record for migrations.
func All() []interface{} {
	return []interface{}{
		&CensusEmployee{}, &CensusDependent{}, &BenefitGroupAssignment{},
		&PlanYear{}, &BenefitGroup{}, &Enrollment{},
		&Person{}, &EmployeeRole{},
	}
}
