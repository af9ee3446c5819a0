package db

import (
	"context"

	dbmodels "github.com/gartstein/census/internal/census/db/models"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
)

// CreateEnrollment inserts an enrollment.
func (r *Repository) CreateEnrollment(ctx context.Context, en *models.Enrollment) error {
	if en.ID == uuid.Nil {
		en.ID = uuid.New()
	}
	row := dbmodels.FromEnrollment(en)
	if err := r.conn(ctx).Create(row).Error; err != nil {
		return err
	}
	en.CreatedAt = row.CreatedAt
	return nil
}

// FindEnrollmentsByAssignment returns the enrollments made through one
// assignment.
func (r *Repository) FindEnrollmentsByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*models.Enrollment, error) {
	return r.FindEnrollmentsByAssignments(ctx, []uuid.UUID{assignmentID})
}

// FindEnrollmentsByAssignments returns the enrollments made through any of ids.
func (r *Repository) FindEnrollmentsByAssignments(ctx context.Context, ids []uuid.UUID) ([]*models.Enrollment, error) {
	out := make([]*models.Enrollment, 0)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []dbmodels.Enrollment
	if err := r.conn(ctx).Where("benefit_group_assignment_id IN ?", ids).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// UpdateEnrollment writes the state and termination date of en.
func (r *Repository) UpdateEnrollment(ctx context.Context, en *models.Enrollment) error {
	result := r.conn(ctx).Model(&dbmodels.Enrollment{}).
		Where("id = ?", en.ID).
		Updates(map[string]interface{}{
			"aasm_state":    string(en.State),
			"terminated_on": en.TerminatedOn,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
