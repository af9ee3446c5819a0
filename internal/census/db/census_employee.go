package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbmodels "github.com/gartstein/census/internal/census/db/models"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateCensusEmployee inserts the record with its dependents and assignments.
func (r *Repository) CreateCensusEmployee(ctx context.Context, ce *models.CensusEmployee) error {
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		if ce.Version == 0 {
			ce.Version = 1
		}
		row := dbmodels.FromCensusEmployee(ce)
		if err := r.conn(ctx).Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return e.ErrDuplicateIdentity
			}
			return err
		}
		ce.CreatedAt, ce.UpdatedAt = row.CreatedAt, row.UpdatedAt
		return r.saveChildren(ctx, ce)
	})
}

// SaveCensusEmployee writes the record and its children. The stored version
// must equal ce.Version; it is incremented on success.
func (r *Repository) SaveCensusEmployee(ctx context.Context, ce *models.CensusEmployee) error {
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		row := dbmodels.FromCensusEmployee(ce)
		row.Version = ce.Version + 1
		row.UpdatedAt = time.Now().UTC()

		result := r.conn(ctx).Model(&dbmodels.CensusEmployee{}).
			Where("id = ? AND version = ?", ce.ID, ce.Version).
			Select("*").Omit("id", "created_at").
			Updates(row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := r.conn(ctx).Model(&dbmodels.CensusEmployee{}).Where("id = ?", ce.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return e.ErrNotFound
			}
			return fmt.Errorf("%w: census employee %s", e.ErrConcurrentUpdate, ce.ID)
		}

		if err := r.saveChildren(ctx, ce); err != nil {
			return err
		}
		ce.Version = row.Version
		ce.UpdatedAt = row.UpdatedAt
		return nil
	})
}

// saveChildren replaces the dependents and upserts the assignments of ce.
// Assignments are never deleted.
func (r *Repository) saveChildren(ctx context.Context, ce *models.CensusEmployee) error {
	tx := r.conn(ctx)
	if err := tx.Where("census_employee_id = ?", ce.ID).Delete(&dbmodels.CensusDependent{}).Error; err != nil {
		return fmt.Errorf("failed to clear dependents: %w", err)
	}
	if deps := dbmodels.FromDependents(ce.ID, ce.Dependents); len(deps) > 0 {
		if err := tx.Create(&deps).Error; err != nil {
			return fmt.Errorf("failed to save dependents: %w", err)
		}
	}

	if assignments := dbmodels.FromAssignments(ce.ID, ce.BenefitGroupAssignments); len(assignments) > 0 {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_on", "end_on", "is_active", "activated_at", "aasm_state"}),
		}).Create(&assignments).Error
		if err != nil {
			return fmt.Errorf("failed to save benefit group assignments: %w", err)
		}
	}
	return nil
}

// GetCensusEmployee loads the aggregate.
func (r *Repository) GetCensusEmployee(ctx context.Context, id uuid.UUID) (*models.CensusEmployee, error) {
	var row dbmodels.CensusEmployee
	result := r.conn(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, result.Error
	}
	list, err := r.hydrate(ctx, []dbmodels.CensusEmployee{row})
	if err != nil {
		return nil, err
	}
	return list[0], nil
}

// hydrate attaches dependents and assignments to rows.
func (r *Repository) hydrate(ctx context.Context, rows []dbmodels.CensusEmployee) ([]*models.CensusEmployee, error) {
	out := make([]*models.CensusEmployee, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	byID := make(map[uuid.UUID]*models.CensusEmployee, len(rows))
	for i := range rows {
		ce := rows[i].ToDomain()
		out = append(out, ce)
		ids = append(ids, ce.ID)
		byID[ce.ID] = ce
	}

	var deps []dbmodels.CensusDependent
	if err := r.conn(ctx).Where("census_employee_id IN ?", ids).Order("position").Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("failed to load dependents: %w", err)
	}
	for i := range deps {
		owner := byID[deps[i].CensusEmployeeID]
		owner.Dependents = append(owner.Dependents, deps[i].ToDomain())
	}

	var assignments []dbmodels.BenefitGroupAssignment
	if err := r.conn(ctx).Where("census_employee_id IN ?", ids).Order("created_at").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to load benefit group assignments: %w", err)
	}
	for i := range assignments {
		owner := byID[assignments[i].CensusEmployeeID]
		owner.BenefitGroupAssignments = append(owner.BenefitGroupAssignments, assignments[i].ToDomain())
	}
	return out, nil
}

func (r *Repository) findCensusEmployees(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*models.CensusEmployee, error) {
	var rows []dbmodels.CensusEmployee
	if err := scope(r.conn(ctx).Model(&dbmodels.CensusEmployee{})).Order("last_name, first_name, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, rows)
}

// FindByEmployerProfile returns the employer's whole roster.
func (r *Repository) FindByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("employer_profile_id = ?", employerProfileID)
	})
}

// FindActiveByEmployerProfile returns the employer's non-terminated roster.
func (r *Repository) FindActiveByEmployerProfile(ctx context.Context, employerProfileID uuid.UUID) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("employer_profile_id = ? AND aasm_state IN ?", employerProfileID, models.ActiveStates.Strings())
	})
}

// FindByEmployeeRole returns the records linked to an employee role.
func (r *Repository) FindByEmployeeRole(ctx context.Context, employeeRoleID uuid.UUID) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("employee_role_id = ?", employeeRoleID)
	})
}

// FindMatchable returns unlinked records carrying ssn and dob.
func (r *Repository) FindMatchable(ctx context.Context, ssn string, dob time.Time) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("ssn = ? AND dob = ? AND aasm_state IN ?", ssn, dob, models.UnlinkedStates.Strings())
	})
}

// FindPendingTerminations returns records scheduled to terminate on or
// before asOf.
func (r *Repository) FindPendingTerminations(ctx context.Context, asOf time.Time) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("aasm_state = ? AND employment_terminated_on <= ?", models.StateEmployeeTerminationPending, asOf)
	})
}

// FindNewlyDesignated returns records in a newly designated state,
// optionally for one employer.
func (r *Repository) FindNewlyDesignated(ctx context.Context, employerProfileID *uuid.UUID) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("aasm_state IN ?", models.NewlyDesignated.Strings())
		if employerProfileID != nil {
			db = db.Where("employer_profile_id = ?", *employerProfileID)
		}
		return db
	})
}

// FindTerminated returns records whose employment ended inside the filter's
// date range.
func (r *Repository) FindTerminated(ctx context.Context, filter models.TerminatedFilter) ([]*models.CensusEmployee, error) {
	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("aasm_state IN ? AND employment_terminated_on BETWEEN ? AND ?",
			models.TerminatedStates.Strings(), filter.From, filter.To)
		if len(filter.EmployerProfileIDs) > 0 {
			db = db.Where("employer_profile_id IN ?", filter.EmployerProfileIDs)
		}
		return db
	})
}

// SearchByName matches a roster search box. A single term matches first or
// last name; several terms must each hit first and last name, in any order,
// so "doe jane" finds Jane Doe. The query also matches an exact SSN, with
// dashes and spaces ignored. Name matching ignores case.
func (r *Repository) SearchByName(ctx context.Context, employerProfileID uuid.UUID, query string) ([]*models.CensusEmployee, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []*models.CensusEmployee{}, nil
	}
	ssn := ssnSeparators.Replace(strings.TrimSpace(query))

	anyTerm := func(column string) (string, []interface{}) {
		clauses := make([]string, len(terms))
		args := make([]interface{}, len(terms))
		for i, term := range terms {
			clauses[i] = "LOWER(" + column + ") LIKE ?"
			args[i] = "%" + term + "%"
		}
		return "(" + strings.Join(clauses, " OR ") + ")", args
	}
	first, firstArgs := anyTerm("first_name")
	last, lastArgs := anyTerm("last_name")

	join := " OR "
	if len(terms) > 1 {
		join = " AND "
	}
	names := "(" + first + join + last + ")"
	args := append(append(firstArgs, lastArgs...), ssn)

	return r.findCensusEmployees(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("employer_profile_id = ?", employerProfileID).
			Where("("+names+" OR ssn = ?)", args...)
	})
}

var ssnSeparators = strings.NewReplacer("-", "", " ", "")

// ActiveSSNExists reports whether another non-terminated record of the
// employer carries ssn.
func (r *Repository) ActiveSSNExists(ctx context.Context, employerProfileID uuid.UUID, ssn string, excludeID uuid.UUID) (bool, error) {
	var count int64
	result := r.conn(ctx).Model(&dbmodels.CensusEmployee{}).
		Where("employer_profile_id = ? AND ssn = ? AND id <> ?", employerProfileID, ssn, excludeID).
		Where("aasm_state NOT IN ?", models.EmploymentTerminatedStates.Strings()).
		Count(&count)
	return count > 0, result.Error
}
