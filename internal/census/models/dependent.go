package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship of a dependent to the employee.
type Relationship string

const (
	RelationshipSpouse          Relationship = "spouse"
	RelationshipDomesticPartner Relationship = "domestic_partner"
	RelationshipChildUnder26    Relationship = "child_under_26"
	RelationshipChild26Plus     Relationship = "child_26_and_over"
	RelationshipDisabledChild   Relationship = "disabled_child_26_and_over"
)

// CensusDependent is a dependent listed on a roster record.
type CensusDependent struct {
	ID                   uuid.UUID
	FirstName            string
	MiddleName           string
	LastName             string
	DOB                  time.Time
	Gender               string
	// SSN is nil when not provided.
	SSN                  *string
	EmployeeRelationship Relationship
}
