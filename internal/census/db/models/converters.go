package models

import (
	domain "github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
)

// FromCensusEmployee maps the aggregate root to its row.
func FromCensusEmployee(c *domain.CensusEmployee) *CensusEmployee {
	return &CensusEmployee{
		ID:                     c.ID,
		EmployerProfileID:      c.EmployerProfileID,
		FirstName:              c.FirstName,
		MiddleName:             c.MiddleName,
		LastName:               c.LastName,
		NameSfx:                c.NameSfx,
		SSN:                    c.SSN,
		DOB:                    c.DOB,
		Gender:                 c.Gender,
		HiredOn:                c.HiredOn,
		IsBusinessOwner:        c.IsBusinessOwner,
		AasmState:              string(c.State),
		EmploymentTerminatedOn: c.EmploymentTerminatedOn,
		CoverageTerminatedOn:   c.CoverageTerminatedOn,
		ExistingCobra:          c.ExistingCobra,
		CobraBeginDate:         c.CobraBeginDate,
		EmployeeRoleID:         c.EmployeeRoleID,
		Version:                c.Version,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

// ToDomain maps the row back without children.
func (r *CensusEmployee) ToDomain() *domain.CensusEmployee {
	return &domain.CensusEmployee{
		ID:                     r.ID,
		EmployerProfileID:      r.EmployerProfileID,
		FirstName:              r.FirstName,
		MiddleName:             r.MiddleName,
		LastName:               r.LastName,
		NameSfx:                r.NameSfx,
		SSN:                    r.SSN,
		DOB:                    r.DOB,
		Gender:                 r.Gender,
		HiredOn:                r.HiredOn,
		IsBusinessOwner:        r.IsBusinessOwner,
		State:                  domain.State(r.AasmState),
		EmploymentTerminatedOn: r.EmploymentTerminatedOn,
		CoverageTerminatedOn:   r.CoverageTerminatedOn,
		ExistingCobra:          r.ExistingCobra,
		CobraBeginDate:         r.CobraBeginDate,
		EmployeeRoleID:         r.EmployeeRoleID,
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

// FromDependents maps the dependents of owner, keeping their order.
func FromDependents(owner uuid.UUID, deps []*domain.CensusDependent) []*CensusDependent {
	rows := make([]*CensusDependent, 0, len(deps))
	for i, d := range deps {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		rows = append(rows, &CensusDependent{
			ID:                   d.ID,
			CensusEmployeeID:     owner,
			FirstName:            d.FirstName,
			MiddleName:           d.MiddleName,
			LastName:             d.LastName,
			DOB:                  d.DOB,
			Gender:               d.Gender,
			SSN:                  d.SSN,
			EmployeeRelationship: string(d.EmployeeRelationship),
			Position:             i,
		})
	}
	return rows
}

// ToDomain maps a dependent row.
func (r *CensusDependent) ToDomain() *domain.CensusDependent {
	return &domain.CensusDependent{
		ID:                   r.ID,
		FirstName:            r.FirstName,
		MiddleName:           r.MiddleName,
		LastName:             r.LastName,
		DOB:                  r.DOB,
		Gender:               r.Gender,
		SSN:                  r.SSN,
		EmployeeRelationship: domain.Relationship(r.EmployeeRelationship),
	}
}

// FromAssignments maps the assignments of owner.
func FromAssignments(owner uuid.UUID, as []*domain.BenefitGroupAssignment) []*BenefitGroupAssignment {
	rows := make([]*BenefitGroupAssignment, 0, len(as))
	for _, a := range as {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		rows = append(rows, &BenefitGroupAssignment{
			ID:               a.ID,
			CensusEmployeeID: owner,
			BenefitGroupID:   a.BenefitGroupID,
			StartOn:          a.StartOn,
			EndOn:            a.EndOn,
			IsActive:         a.IsActive,
			ActivatedAt:      a.ActivatedAt,
			AasmState:        string(a.State),
			CreatedAt:        a.CreatedAt,
		})
	}
	return rows
}

// ToDomain maps an assignment row.
func (r *BenefitGroupAssignment) ToDomain() *domain.BenefitGroupAssignment {
	return &domain.BenefitGroupAssignment{
		ID:             r.ID,
		BenefitGroupID: r.BenefitGroupID,
		StartOn:        r.StartOn,
		EndOn:          r.EndOn,
		IsActive:       r.IsActive,
		ActivatedAt:    r.ActivatedAt,
		State:          domain.AssignmentState(r.AasmState),
		CreatedAt:      r.CreatedAt,
	}
}

// FromPlanYear maps a plan year row.
func FromPlanYear(p *domain.PlanYear) *PlanYear {
	return &PlanYear{
		ID:                p.ID,
		EmployerProfileID: p.EmployerProfileID,
		StartOn:           p.StartOn,
		EndOn:             p.EndOn,
		AasmState:         string(p.State),
	}
}

// ToDomain maps a plan year row without groups.
func (r *PlanYear) ToDomain() *domain.PlanYear {
	return &domain.PlanYear{
		ID:                r.ID,
		EmployerProfileID: r.EmployerProfileID,
		StartOn:           r.StartOn,
		EndOn:             r.EndOn,
		State:             domain.PlanYearState(r.AasmState),
	}
}

// FromBenefitGroup maps a benefit group row.
func FromBenefitGroup(planYearID uuid.UUID, g *domain.BenefitGroup) *BenefitGroup {
	return &BenefitGroup{
		ID:                g.ID,
		PlanYearID:        planYearID,
		Title:             g.Title,
		EffectiveOnKind:   string(g.EffectiveOnKind),
		EffectiveOnOffset: g.EffectiveOnOffset,
		IsDefault:         g.IsDefault,
	}
}

// ToDomain maps a benefit group row without its plan year.
func (r *BenefitGroup) ToDomain() *domain.BenefitGroup {
	return &domain.BenefitGroup{
		ID:                r.ID,
		PlanYearID:        r.PlanYearID,
		Title:             r.Title,
		EffectiveOnKind:   domain.EffectiveOnKind(r.EffectiveOnKind),
		EffectiveOnOffset: r.EffectiveOnOffset,
		IsDefault:         r.IsDefault,
	}
}

// FromEnrollment maps an enrollment row.
func FromEnrollment(e *domain.Enrollment) *Enrollment {
	return &Enrollment{
		ID:                       e.ID,
		BenefitGroupAssignmentID: e.BenefitGroupAssignmentID,
		CoverageKind:             e.CoverageKind,
		EffectiveOn:              e.EffectiveOn,
		TerminatedOn:             e.TerminatedOn,
		AasmState:                string(e.State),
		CreatedAt:                e.CreatedAt,
	}
}

// ToDomain maps an enrollment row.
func (r *Enrollment) ToDomain() *domain.Enrollment {
	return &domain.Enrollment{
		ID:                       r.ID,
		BenefitGroupAssignmentID: r.BenefitGroupAssignmentID,
		CoverageKind:             r.CoverageKind,
		EffectiveOn:              r.EffectiveOn,
		TerminatedOn:             r.TerminatedOn,
		State:                    domain.EnrollmentState(r.AasmState),
		CreatedAt:                r.CreatedAt,
	}
}

// FromPerson maps a person row.
func FromPerson(p *domain.Person) *Person {
	return &Person{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, SSN: p.SSN, DOB: p.DOB, Gender: p.Gender}
}

// ToDomain maps a person row.
func (r *Person) ToDomain() *domain.Person {
	return &domain.Person{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, SSN: r.SSN, DOB: r.DOB, Gender: r.Gender}
}

// FromEmployeeRole maps an employee role row.
func FromEmployeeRole(er *domain.EmployeeRole) *EmployeeRole {
	return &EmployeeRole{
		ID:                er.ID,
		PersonID:          er.PersonID,
		EmployerProfileID: er.EmployerProfileID,
		CensusEmployeeID:  er.CensusEmployeeID,
		HiredOn:           er.HiredOn,
		TerminatedOn:      er.TerminatedOn,
	}
}

// ToDomain maps an employee role row.
func (r *EmployeeRole) ToDomain() *domain.EmployeeRole {
	return &domain.EmployeeRole{
		ID:                r.ID,
		PersonID:          r.PersonID,
		EmployerProfileID: r.EmployerProfileID,
		CensusEmployeeID:  r.CensusEmployeeID,
		HiredOn:           r.HiredOn,
		TerminatedOn:      r.TerminatedOn,
	}
}
