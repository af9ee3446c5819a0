package eligibility

import (
	"time"

	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
	"github.com/google/uuid"
)

// rank orders assignments for selection: a coverage choice beats an open
// assignment, which beats a waiver.
func rank(a *models.BenefitGroupAssignment) int {
	switch a.State {
	case models.AssignmentCoverageSelected, models.AssignmentCoverageRenewing:
		return 2
	case models.AssignmentCoverageWaived:
		return 0
	default:
		return 1
	}
}

// best returns the highest ranked assignment, newest first on ties.
func best(candidates []*models.BenefitGroupAssignment) *models.BenefitGroupAssignment {
	var chosen *models.BenefitGroupAssignment
	for _, a := range candidates {
		if chosen == nil {
			chosen = a
			continue
		}
		ra, rc := rank(a), rank(chosen)
		if ra > rc || (ra == rc && a.CreatedAt.After(chosen.CreatedAt)) {
			chosen = a
		}
	}
	return chosen
}

// ActiveAssignment returns the preferred active assignment of ce.
func ActiveAssignment(ce *models.CensusEmployee) *models.BenefitGroupAssignment {
	active := make([]*models.BenefitGroupAssignment, 0, len(ce.BenefitGroupAssignments))
	for _, a := range ce.BenefitGroupAssignments {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return best(active)
}

// RenewalAssignment returns the newest assignment whose plan year is a
// published renewal.
func RenewalAssignment(ce *models.CensusEmployee, idx models.BenefitGroupIndex) *models.BenefitGroupAssignment {
	var latest *models.BenefitGroupAssignment
	for _, a := range ce.BenefitGroupAssignments {
		py := idx.PlanYearOf(a.BenefitGroupID)
		if py == nil || !py.IsRenewingPublished() {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	return latest
}

// PublishedAssignment returns the active assignment when its plan year is
// published, else the renewal assignment.
func PublishedAssignment(ce *models.CensusEmployee, idx models.BenefitGroupIndex) *models.BenefitGroupAssignment {
	if active := ActiveAssignment(ce); active != nil {
		if py := idx.PlanYearOf(active.BenefitGroupID); py != nil && py.IsPublished() {
			return active
		}
	}
	return RenewalAssignment(ce, idx)
}

// HasPublishedAssignment reports whether any assignment of ce belongs to a
// published or renewing-published plan year.
func HasPublishedAssignment(ce *models.CensusEmployee, idx models.BenefitGroupIndex) bool {
	for _, a := range ce.BenefitGroupAssignments {
		py := idx.PlanYearOf(a.BenefitGroupID)
		if py != nil && (py.IsPublished() || py.IsRenewingPublished()) {
			return true
		}
	}
	return false
}

// FindOrCreateAssignment makes an assignment for group the only active one
// on ce. An existing assignment for the group is reused when present.
func FindOrCreateAssignment(ce *models.CensusEmployee, group *models.BenefitGroup, startOn, now time.Time) (*models.BenefitGroupAssignment, bool) {
	candidates := make([]*models.BenefitGroupAssignment, 0)
	for _, a := range ce.BenefitGroupAssignments {
		if a.BenefitGroupID == group.ID {
			candidates = append(candidates, a)
		}
	}

	chosen := best(candidates)
	created := false
	if chosen == nil {
		chosen = &models.BenefitGroupAssignment{
			ID:             uuid.New(),
			BenefitGroupID: group.ID,
			StartOn:        utils.DateOf(startOn),
			State:          models.AssignmentInitialized,
			CreatedAt:      now,
		}
		ce.BenefitGroupAssignments = append(ce.BenefitGroupAssignments, chosen)
		created = true
	}

	for _, a := range ce.BenefitGroupAssignments {
		if a != chosen {
			a.Deactivate()
		}
	}
	chosen.Activate(now)
	return chosen, created
}

// AddRenewalAssignment adds an inactive assignment for the renewal group
// unless ce already has one for it.
func AddRenewalAssignment(ce *models.CensusEmployee, group *models.BenefitGroup, startOn, now time.Time) (*models.BenefitGroupAssignment, bool) {
	for _, a := range ce.BenefitGroupAssignments {
		if a.BenefitGroupID == group.ID {
			return a, false
		}
	}
	a := &models.BenefitGroupAssignment{
		ID:             uuid.New(),
		BenefitGroupID: group.ID,
		StartOn:        utils.DateOf(startOn),
		State:          models.AssignmentInitialized,
		CreatedAt:      now,
	}
	ce.BenefitGroupAssignments = append(ce.BenefitGroupAssignments, a)
	return a, true
}

// AssignDefaultBenefitPackage gives a new record an active assignment in the
// employer's published plan year and a renewal assignment in a renewing one.
func AssignDefaultBenefitPackage(ce *models.CensusEmployee, planYears []*models.PlanYear, now time.Time) {
	var published, renewing *models.PlanYear
	for _, py := range planYears {
		switch {
		case py.IsPublished():
			if published == nil || py.StartOn.After(published.StartOn) {
				published = py
			}
		case py.IsRenewing():
			if renewing == nil || py.StartOn.After(renewing.StartOn) {
				renewing = py
			}
		}
	}

	if published != nil {
		if group := published.DefaultBenefitGroup(); group != nil {
			start := published.StartOn
			if ce.HiredOn != nil {
				start = utils.MaxDate(start, *ce.HiredOn)
			}
			FindOrCreateAssignment(ce, group, start, now)
		}
	}
	if renewing != nil {
		if group := renewing.DefaultBenefitGroup(); group != nil {
			AddRenewalAssignment(ce, group, renewing.StartOn, now)
		}
	}
}
