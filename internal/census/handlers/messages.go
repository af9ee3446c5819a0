package handlers

// Wire messages of census.v1.CensusService. Dates travel as YYYY-MM-DD.

type Dependent struct {
	ID                   string  `json:"id,omitempty"`
	FirstName            string  `json:"first_name"`
	MiddleName           string  `json:"middle_name,omitempty"`
	LastName             string  `json:"last_name"`
	DOB                  string  `json:"dob"`
	Gender               string  `json:"gender"`
	SSN                  *string `json:"ssn,omitempty"`
	EmployeeRelationship string  `json:"employee_relationship"`
}

type BenefitGroupAssignment struct {
	ID             string `json:"id"`
	BenefitGroupID string `json:"benefit_group_id"`
	StartOn        string `json:"start_on"`
	EndOn          string `json:"end_on,omitempty"`
	IsActive       bool   `json:"is_active"`
	State          string `json:"state"`
}

type CensusEmployee struct {
	ID                      string                    `json:"id,omitempty"`
	EmployerProfileID       string                    `json:"employer_profile_id"`
	EmployeeRoleID          string                    `json:"employee_role_id,omitempty"`
	FirstName               string                    `json:"first_name"`
	MiddleName              string                    `json:"middle_name,omitempty"`
	LastName                string                    `json:"last_name"`
	NameSfx                 string                    `json:"name_sfx,omitempty"`
	SSN                     string                    `json:"ssn"`
	DOB                     string                    `json:"dob"`
	Gender                  string                    `json:"gender"`
	HiredOn                 string                    `json:"hired_on,omitempty"`
	IsBusinessOwner         bool                      `json:"is_business_owner"`
	ExistingCobra           bool                      `json:"existing_cobra"`
	CobraBeginDate          string                    `json:"cobra_begin_date,omitempty"`
	EmploymentTerminatedOn  string                    `json:"employment_terminated_on,omitempty"`
	CoverageTerminatedOn    string                    `json:"coverage_terminated_on,omitempty"`
	State                   string                    `json:"aasm_state,omitempty"`
	CurrentState            string                    `json:"current_state,omitempty"`
	Version                 int                       `json:"version,omitempty"`
	Dependents              []*Dependent              `json:"census_dependents,omitempty"`
	BenefitGroupAssignments []*BenefitGroupAssignment `json:"benefit_group_assignments,omitempty"`
}

type Enrollment struct {
	ID                       string `json:"id"`
	BenefitGroupAssignmentID string `json:"benefit_group_assignment_id"`
	CoverageKind             string `json:"coverage_kind"`
	EffectiveOn              string `json:"effective_on"`
	TerminatedOn             string `json:"terminated_on,omitempty"`
	State                    string `json:"aasm_state"`
}

type CensusEmployeeRequest struct {
	ID string `json:"id"`
}

type CensusEmployeeResponse struct {
	CensusEmployee *CensusEmployee `json:"census_employee"`
}

type CensusEmployeeListResponse struct {
	CensusEmployees []*CensusEmployee `json:"census_employees"`
}

type CreateCensusEmployeeRequest struct {
	CensusEmployee *CensusEmployee `json:"census_employee"`
}

// UpdateCensusEmployeeRequest carries a partial update; absent fields are
// left unchanged.
type UpdateCensusEmployeeRequest struct {
	ID              string       `json:"id"`
	Version         *int         `json:"version,omitempty"`
	FirstName       *string      `json:"first_name,omitempty"`
	MiddleName      *string      `json:"middle_name,omitempty"`
	LastName        *string      `json:"last_name,omitempty"`
	NameSfx         *string      `json:"name_sfx,omitempty"`
	SSN             *string      `json:"ssn,omitempty"`
	DOB             *string      `json:"dob,omitempty"`
	Gender          *string      `json:"gender,omitempty"`
	HiredOn         *string      `json:"hired_on,omitempty"`
	IsBusinessOwner *bool        `json:"is_business_owner,omitempty"`
	ExistingCobra   *bool        `json:"existing_cobra,omitempty"`
	CobraBeginDate  *string      `json:"cobra_begin_date,omitempty"`
	Dependents      []*Dependent `json:"census_dependents,omitempty"`
}

type DatedRequest struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

type EnrollmentChange struct {
	EnrollmentID string `json:"enrollment_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Outcome      string `json:"outcome"`
}

type TerminateEmploymentResponse struct {
	CensusEmployee       *CensusEmployee     `json:"census_employee"`
	CoverageTerminatedOn string              `json:"coverage_terminated_on,omitempty"`
	EnrollmentChanges    []*EnrollmentChange `json:"enrollment_changes"`
}

type LinkEmployeeRoleRequest struct {
	ID             string `json:"id"`
	EmployeeRoleID string `json:"employee_role_id"`
}

type ConstructEmployeeRoleResponse struct {
	Linked bool `json:"linked"`
}

type AssignBenefitGroupRequest struct {
	ID             string `json:"id"`
	BenefitGroupID string `json:"benefit_group_id"`
}

type UpdateAssignmentCoverageRequest struct {
	ID                       string `json:"id"`
	BenefitGroupAssignmentID string `json:"benefit_group_assignment_id"`
	Event                    string `json:"event"`
}

type BenefitGroupAssignmentResponse struct {
	BenefitGroupAssignment *BenefitGroupAssignment `json:"benefit_group_assignment"`
}

type EligibilityResponse struct {
	CensusEmployee            *CensusEmployee         `json:"census_employee"`
	CurrentState              string                  `json:"current_state"`
	IsLinked                  bool                    `json:"is_linked"`
	IsActive                  bool                    `json:"is_active"`
	IsCobraStatus             bool                    `json:"is_cobra_status"`
	MayLinkEmployeeRole       bool                    `json:"may_link_employee_role"`
	MayElectCobra             bool                    `json:"may_elect_cobra"`
	CanElectCobra             bool                    `json:"can_elect_cobra"`
	IsDisabledCobraAction     bool                    `json:"is_disabled_cobra_action"`
	NewhireEnrollmentEligible bool                    `json:"newhire_enrollment_eligible"`
	ShowPlanEndDate           bool                    `json:"show_plan_end_date"`
	EarliestEligibleDate      string                  `json:"earliest_eligible_date,omitempty"`
	NewHireEnrollmentStart    string                  `json:"new_hire_enrollment_period_start"`
	NewHireEnrollmentEnd      string                  `json:"new_hire_enrollment_period_end"`
	ActiveAssignment          *BenefitGroupAssignment `json:"active_benefit_group_assignment,omitempty"`
	RenewalAssignment         *BenefitGroupAssignment `json:"renewal_benefit_group_assignment,omitempty"`
	PublishedAssignment       *BenefitGroupAssignment `json:"published_benefit_group_assignment,omitempty"`
	EnrollmentsForDisplay     []*Enrollment           `json:"enrollments_for_display"`
	BusinessDate              string                  `json:"business_date"`
}

type ListCensusEmployeesRequest struct {
	EmployerProfileID string `json:"employer_profile_id"`
	// Query filters by employee name when set.
	Query string `json:"query,omitempty"`
}

type ListTerminatedRequest struct {
	EmployerProfileIDs []string `json:"employer_profile_ids,omitempty"`
	From               string   `json:"from,omitempty"`
	To                 string   `json:"to,omitempty"`
}

type ListMatchableRequest struct {
	SSN string `json:"ssn"`
	DOB string `json:"dob"`
}

type ListByEmployeeRoleRequest struct {
	EmployeeRoleID string `json:"employee_role_id"`
}

type SyncPersonIdentityRequest struct {
	PersonID string `json:"person_id"`
}

type SyncPersonIdentityResponse struct {
	Updated int `json:"updated"`
}
