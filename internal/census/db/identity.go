package db

import (
	"context"
	"errors"
	"strings"
	"time"

	dbmodels "github.com/gartstein/census/internal/census/db/models"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePerson inserts an identity record.
func (r *Repository) CreatePerson(ctx context.Context, p *models.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).Create(dbmodels.FromPerson(p)).Error
}

// GetPerson loads an identity record.
func (r *Repository) GetPerson(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var row dbmodels.Person
	if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// SavePerson updates the demographics of an identity record.
func (r *Repository) SavePerson(ctx context.Context, p *models.Person) error {
	result := r.conn(ctx).Model(&dbmodels.Person{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"ssn":        p.SSN,
			"dob":        p.DOB,
			"gender":     p.Gender,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// MatchPeople returns the people sharing ssn, or sharing dob and both names.
func (r *Repository) MatchPeople(ctx context.Context, ssn string, dob time.Time, firstName, lastName string) ([]*models.Person, error) {
	var rows []dbmodels.Person
	err := r.conn(ctx).
		Where("(ssn = ? AND ssn <> '') OR (dob = ? AND LOWER(first_name) = ? AND LOWER(last_name) = ?)",
			ssn, dob, strings.ToLower(firstName), strings.ToLower(lastName)).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.Person, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// CreateEmployeeRole inserts an employee role.
func (r *Repository) CreateEmployeeRole(ctx context.Context, role *models.EmployeeRole) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	return r.conn(ctx).Create(dbmodels.FromEmployeeRole(role)).Error
}

// SaveEmployeeRole updates the census link and dates of role.
func (r *Repository) SaveEmployeeRole(ctx context.Context, role *models.EmployeeRole) error {
	result := r.conn(ctx).Model(&dbmodels.EmployeeRole{}).
		Where("id = ?", role.ID).
		Updates(map[string]interface{}{
			"census_employee_id": role.CensusEmployeeID,
			"hired_on":           role.HiredOn,
			"terminated_on":      role.TerminatedOn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// GetEmployeeRole loads an employee role.
func (r *Repository) GetEmployeeRole(ctx context.Context, id uuid.UUID) (*models.EmployeeRole, error) {
	var row dbmodels.EmployeeRole
	if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindEmployeeRolesByPerson returns every role held by a person.
func (r *Repository) FindEmployeeRolesByPerson(ctx context.Context, personID uuid.UUID) ([]*models.EmployeeRole, error) {
	var rows []dbmodels.EmployeeRole
	if err := r.conn(ctx).Where("person_id = ?", personID).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.EmployeeRole, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}
