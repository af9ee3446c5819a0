// Package eligibility derives enrollment windows, cobra eligibility and
// assignment selection from a roster record and the business date.
package eligibility

import (
	"time"

	"github.com/gartstein/census/internal/census/clock"
	"github.com/gartstein/census/internal/census/models"
	"github.com/gartstein/census/internal/pkg/utils"
)

// Settings are the exchange-wide parameters of the shop market.
type Settings struct {
	RetroactiveCoverageTerminationMaximumMonths int
	EmploymentTerminationReportingWindowDays    int
	CobraEnrollmentPeriodMonths                 int
	NewHireEnrollmentWindowDays                 int
}

// DefaultSettings returns the standard shop market parameters.
func DefaultSettings() Settings {
	return Settings{
		RetroactiveCoverageTerminationMaximumMonths: 2,
		EmploymentTerminationReportingWindowDays:    60,
		CobraEnrollmentPeriodMonths:                 6,
		NewHireEnrollmentWindowDays:                 30,
	}
}

// Period is a closed interval of time.
type Period struct {
	Start time.Time
	End   time.Time
}

// Calculator evaluates date-based eligibility rules against a clock.
type Calculator struct {
	clock    clock.Clock
	settings Settings
}

// NewCalculator returns a Calculator reading the business date from c.
func NewCalculator(c clock.Clock, settings Settings) *Calculator {
	return &Calculator{clock: c, settings: settings}
}

// Today is the current business date.
func (c *Calculator) Today() time.Time {
	return c.clock.Today()
}

// Settings returns the configured parameters.
func (c *Calculator) Settings() Settings {
	return c.settings
}

// EarliestCoverageTerminationOn is the coverage end date for an employment
// termination on d: the end of d's month, but never earlier than the end of
// the month that lies the retroactive maximum before the business date.
func (c *Calculator) EarliestCoverageTerminationOn(d time.Time) time.Time {
	floor := utils.EndOfMonth(utils.AddMonths(utils.BeginningOfMonth(c.Today()), -c.settings.RetroactiveCoverageTerminationMaximumMonths))
	return utils.MaxDate(utils.EndOfMonth(d), floor)
}

// TerminationWithinReportingWindow reports whether d is no further in the
// past than the reporting window allows.
func (c *Calculator) TerminationWithinReportingWindow(d time.Time) bool {
	earliest := c.Today().AddDate(0, 0, -c.settings.EmploymentTerminationReportingWindowDays)
	return !utils.DateOf(d).Before(earliest)
}

// MayLinkEmployeeRole reports whether ce is unlinked and holds an assignment
// in a published or renewing-published plan year.
func (c *Calculator) MayLinkEmployeeRole(ce *models.CensusEmployee, idx models.BenefitGroupIndex) bool {
	return models.UnlinkedStates.Contains(ce.State) && HasPublishedAssignment(ce, idx)
}

// MayElectCobra reports whether the cobra begin date falls in the election
// window.
func (c *Calculator) MayElectCobra(ce *models.CensusEmployee) bool {
	if ce.CobraBeginDate == nil || ce.HiredOn == nil {
		return false
	}
	begin := utils.DateOf(*ce.CobraBeginDate)
	if begin.Before(utils.DateOf(*ce.HiredOn)) {
		return false
	}
	if ce.CoverageTerminatedOn == nil {
		return true
	}
	windowStart := utils.DateOf(*ce.CoverageTerminatedOn)
	windowEnd := utils.AddMonths(windowStart, c.settings.CobraEnrollmentPeriodMonths)
	return !begin.Before(windowStart) && !begin.After(windowEnd)
}

// CanElectCobra reports whether the roster state allows a cobra election.
func (c *Calculator) CanElectCobra(ce *models.CensusEmployee) bool {
	return ce.State == models.StateEmploymentTerminated
}

// EarliestEligibleDate is the first date the employee may be covered under
// the active assignment's benefit group.
func (c *Calculator) EarliestEligibleDate(ce *models.CensusEmployee, idx models.BenefitGroupIndex) (time.Time, bool) {
	if ce.HiredOn == nil {
		return time.Time{}, false
	}
	active := ActiveAssignment(ce)
	if active == nil {
		return time.Time{}, false
	}
	group, ok := idx[active.BenefitGroupID]
	if !ok {
		return time.Time{}, false
	}

	date := utils.DateOf(*ce.HiredOn).AddDate(0, 0, group.EffectiveOnOffset)
	if group.EffectiveOnKind == models.EffectiveOnFirstOfMonth && date.Day() != 1 {
		date = utils.BeginningOfMonth(date).AddDate(0, 1, 0)
	}
	return date, true
}

// NewHireEnrollmentPeriod is the special enrollment window for a new hire.
func (c *Calculator) NewHireEnrollmentPeriod(ce *models.CensusEmployee, idx models.BenefitGroupIndex) Period {
	start := utils.BeginningOfDay(ce.CreatedAt)
	if ce.HiredOn != nil && ce.HiredOn.After(c.Today()) {
		start = utils.DateOf(*ce.HiredOn)
	}

	end := start.AddDate(0, 0, c.settings.NewHireEnrollmentWindowDays)
	if eligible, ok := c.EarliestEligibleDate(ce, idx); ok {
		end = utils.MinDate(end, eligible)
	}
	return Period{Start: start, End: utils.EndOfDay(end)}
}

// NewhireEnrollmentEligible reports whether the active assignment has not
// yet recorded a coverage choice.
func (c *Calculator) NewhireEnrollmentEligible(ce *models.CensusEmployee) bool {
	active := ActiveAssignment(ce)
	return active != nil && active.State == models.AssignmentInitialized
}

// ShowPlanEndDate reports whether a coverage end date should be displayed.
func (c *Calculator) ShowPlanEndDate(ce *models.CensusEmployee) bool {
	return models.EmploymentTerminatedStates.Contains(ce.State) && ce.CoverageTerminatedOn != nil
}

// IsDisabledCobraAction reports whether the cobra action must be disabled
// given the enrollments under the active assignment.
func (c *Calculator) IsDisabledCobraAction(ce *models.CensusEmployee, enrollments []*models.Enrollment) bool {
	if ce.EmployeeRoleID == nil || ce.State == models.StateEmployeeTerminationPending {
		return true
	}
	active := ActiveAssignment(ce)
	if active == nil || active.State == models.AssignmentCoverageWaived {
		return true
	}
	for _, en := range enrollments {
		if en.BenefitGroupAssignmentID == active.ID {
			return false
		}
	}
	return true
}

// EnrollmentsForDisplay returns the in-force enrollments of the active
// assignment followed by the renewing enrollments of the renewal assignment.
func (c *Calculator) EnrollmentsForDisplay(ce *models.CensusEmployee, idx models.BenefitGroupIndex, enrollments []*models.Enrollment) []*models.Enrollment {
	out := make([]*models.Enrollment, 0, len(enrollments))
	active := ActiveAssignment(ce)
	renewal := RenewalAssignment(ce, idx)

	for _, kind := range []string{models.CoverageHealth, models.CoverageDental} {
		for _, en := range enrollments {
			if active != nil && en.BenefitGroupAssignmentID == active.ID && en.CoverageKind == kind &&
				en.IsEnrolledOrRenewing() {
				out = append(out, en)
			}
		}
	}
	if renewal != nil && (active == nil || renewal.ID != active.ID) {
		for _, en := range enrollments {
			if en.BenefitGroupAssignmentID == renewal.ID && en.IsEnrolledOrRenewing() {
				out = append(out, en)
			}
		}
	}
	return out
}
