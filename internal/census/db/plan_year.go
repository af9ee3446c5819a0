package db

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/gartstein/census/internal/census/db/models"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePlanYear inserts a plan year with its benefit groups.
func (r *Repository) CreatePlanYear(ctx context.Context, py *models.PlanYear) error {
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		if py.ID == uuid.Nil {
			py.ID = uuid.New()
		}
		if err := r.conn(ctx).Create(dbmodels.FromPlanYear(py)).Error; err != nil {
			return err
		}
		for _, g := range py.BenefitGroups {
			if g.ID == uuid.Nil {
				g.ID = uuid.New()
			}
			g.PlanYearID = py.ID
			if err := r.conn(ctx).Create(dbmodels.FromBenefitGroup(py.ID, g)).Error; err != nil {
				return fmt.Errorf("failed to create benefit group: %w", err)
			}
			g.PlanYear = py
		}
		return nil
	})
}

// GetPlanYear loads a plan year with its benefit groups.
func (r *Repository) GetPlanYear(ctx context.Context, id uuid.UUID) (*models.PlanYear, error) {
	var row dbmodels.PlanYear
	if err := r.conn(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.ErrNotFound
		}
		return nil, err
	}
	years, err := r.withBenefitGroups(ctx, []dbmodels.PlanYear{row})
	if err != nil {
		return nil, err
	}
	return years[0], nil
}

// UpdatePlanYearState records a plan year status change.
func (r *Repository) UpdatePlanYearState(ctx context.Context, id uuid.UUID, state models.PlanYearState) error {
	result := r.conn(ctx).Model(&dbmodels.PlanYear{}).Where("id = ?", id).Update("aasm_state", string(state))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// FindPlanYearsByEmployer returns the employer's plan years with groups.
func (r *Repository) FindPlanYearsByEmployer(ctx context.Context, employerProfileID uuid.UUID) ([]*models.PlanYear, error) {
	var rows []dbmodels.PlanYear
	if err := r.conn(ctx).Where("employer_profile_id = ?", employerProfileID).Order("start_on").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withBenefitGroups(ctx, rows)
}

func (r *Repository) withBenefitGroups(ctx context.Context, rows []dbmodels.PlanYear) ([]*models.PlanYear, error) {
	out := make([]*models.PlanYear, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	byID := make(map[uuid.UUID]*models.PlanYear, len(rows))
	for i := range rows {
		py := rows[i].ToDomain()
		out = append(out, py)
		ids = append(ids, py.ID)
		byID[py.ID] = py
	}

	var groups []dbmodels.BenefitGroup
	if err := r.conn(ctx).Where("plan_year_id IN ?", ids).Order("title").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to load benefit groups: %w", err)
	}
	for i := range groups {
		py := byID[groups[i].PlanYearID]
		g := groups[i].ToDomain()
		g.PlanYear = py
		py.BenefitGroups = append(py.BenefitGroups, g)
	}
	return out, nil
}

// FindBenefitGroups loads the benefit groups with ids, each with its plan year.
func (r *Repository) FindBenefitGroups(ctx context.Context, ids []uuid.UUID) ([]*models.BenefitGroup, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var groups []dbmodels.BenefitGroup
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&groups).Error; err != nil {
		return nil, err
	}

	planYearIDs := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		planYearIDs = append(planYearIDs, g.PlanYearID)
	}
	var years []dbmodels.PlanYear
	if err := r.conn(ctx).Where("id IN ?", planYearIDs).Find(&years).Error; err != nil {
		return nil, fmt.Errorf("failed to load plan years: %w", err)
	}
	yearsByID := make(map[uuid.UUID]*models.PlanYear, len(years))
	for i := range years {
		yearsByID[years[i].ID] = years[i].ToDomain()
	}

	out := make([]*models.BenefitGroup, 0, len(groups))
	for i := range groups {
		g := groups[i].ToDomain()
		g.PlanYear = yearsByID[g.PlanYearID]
		out = append(out, g)
	}
	return out, nil
}

// GetBenefitGroup loads one benefit group with its plan year.
func (r *Repository) GetBenefitGroup(ctx context.Context, id uuid.UUID) (*models.BenefitGroup, error) {
	groups, err := r.FindBenefitGroups(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, e.ErrNotFound
	}
	return groups[0], nil
}
