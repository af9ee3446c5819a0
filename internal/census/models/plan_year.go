package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanYearState is the status of an employer's plan year.
type PlanYearState string

const (
	PlanYearDraft             PlanYearState = "draft"
	PlanYearPublished         PlanYearState = "published"
	PlanYearEnrolling         PlanYearState = "enrolling"
	PlanYearEnrolled          PlanYearState = "enrolled"
	PlanYearActive            PlanYearState = "active"
	PlanYearSuspended         PlanYearState = "suspended"
	PlanYearExpired           PlanYearState = "expired"
	PlanYearTerminated        PlanYearState = "terminated"
	PlanYearCanceled          PlanYearState = "canceled"
	PlanYearRenewingDraft     PlanYearState = "renewing_draft"
	PlanYearRenewingPublished PlanYearState = "renewing_published"
	PlanYearRenewingEnrolling PlanYearState = "renewing_enrolling"
	PlanYearRenewingEnrolled  PlanYearState = "renewing_enrolled"
	PlanYearRenewingCanceled  PlanYearState = "renewing_canceled"
)

var (
	PublishedPlanYearStates         = []PlanYearState{PlanYearPublished, PlanYearEnrolling, PlanYearEnrolled, PlanYearActive, PlanYearSuspended}
	RenewingPublishedPlanYearStates = []PlanYearState{PlanYearRenewingPublished, PlanYearRenewingEnrolling, PlanYearRenewingEnrolled}
	RenewingPlanYearStates          = []PlanYearState{PlanYearRenewingDraft, PlanYearRenewingPublished, PlanYearRenewingEnrolling, PlanYearRenewingEnrolled}
)

func containsPlanYearState(set []PlanYearState, s PlanYearState) bool {
	for _, c := range set {
		if c == s {
			return true
		}
	}
	return false
}

// PlanYear is an employer's coverage year.
type PlanYear struct {
	ID                uuid.UUID
	EmployerProfileID uuid.UUID
	StartOn           time.Time
	EndOn             time.Time
	State             PlanYearState
	BenefitGroups     []*BenefitGroup
}

// IsPublished reports whether the plan year is open to the roster.
func (p *PlanYear) IsPublished() bool {
	return containsPlanYearState(PublishedPlanYearStates, p.State)
}

// IsRenewingPublished reports whether the renewal has been published.
func (p *PlanYear) IsRenewingPublished() bool {
	return containsPlanYearState(RenewingPublishedPlanYearStates, p.State)
}

// IsRenewing reports whether the plan year is a renewal in progress.
func (p *PlanYear) IsRenewing() bool {
	return containsPlanYearState(RenewingPlanYearStates, p.State)
}

// DefaultBenefitGroup returns the default group, else the first one.
func (p *PlanYear) DefaultBenefitGroup() *BenefitGroup {
	for _, bg := range p.BenefitGroups {
		if bg.IsDefault {
			return bg
		}
	}
	if len(p.BenefitGroups) > 0 {
		return p.BenefitGroups[0]
	}
	return nil
}

// EffectiveOnKind selects how the eligibility offset is applied.
type EffectiveOnKind string

const (
	EffectiveOnDateOfHire   EffectiveOnKind = "date_of_hire"
	EffectiveOnFirstOfMonth EffectiveOnKind = "first_of_month"
)

// BenefitGroup is a package of plans offered within a plan year.
type BenefitGroup struct {
	ID                uuid.UUID
	PlanYearID        uuid.UUID
	Title             string
	EffectiveOnKind   EffectiveOnKind
	EffectiveOnOffset int
	IsDefault         bool
	// PlanYear is populated on lookup.
	PlanYear *PlanYear
}

// BenefitGroupIndex resolves benefit groups (with their plan years) by id.
type BenefitGroupIndex map[uuid.UUID]*BenefitGroup

// NewBenefitGroupIndex indexes groups by id.
func NewBenefitGroupIndex(groups []*BenefitGroup) BenefitGroupIndex {
	idx := make(BenefitGroupIndex, len(groups))
	for _, g := range groups {
		idx[g.ID] = g
	}
	return idx
}

// PlanYearOf returns the plan year of the group with id, if known.
func (idx BenefitGroupIndex) PlanYearOf(id uuid.UUID) *PlanYear {
	if g, ok := idx[id]; ok {
		return g.PlanYear
	}
	return nil
}
