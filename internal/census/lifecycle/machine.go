// Package lifecycle holds the roster state machine and the coverage
// sub-state machines of assignments and enrollments. Transitions are
// declared as tables and resolved by pure functions; nothing here touches
// storage.
package lifecycle

import (
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
)

// Event names a roster transition.
type Event string

const (
	EventNewlyDesignate              Event = "newly_designate"
	EventRebaseNewDesignee           Event = "rebase_new_designee"
	EventLinkEmployeeRole            Event = "link_employee_role"
	EventDelinkEmployeeRole          Event = "delink_employee_role"
	EventScheduleEmployeeTermination Event = "schedule_employee_termination"
	EventTerminateEmployeeRole       Event = "terminate_employee_role"
	EventTerminateCobra              Event = "terminate_cobra"
	EventRehireEmployeeRole          Event = "rehire_employee_role"
	EventElectCobra                  Event = "elect_cobra"
)

type transition struct {
	from models.StateSet
	to   models.State
}

// transitions lists, per event, the source states and their targets. An
// event with several entries maps each source to its own target.
var transitions = map[Event][]transition{
	EventNewlyDesignate: {
		{from: models.StateSet{models.StateEligible}, to: models.StateNewlyDesignatedEligible},
		{from: models.StateSet{models.StateEmployeeRoleLinked}, to: models.StateNewlyDesignatedLinked},
	},
	EventRebaseNewDesignee: {
		{from: models.StateSet{models.StateNewlyDesignatedEligible}, to: models.StateEligible},
		{from: models.StateSet{models.StateNewlyDesignatedLinked}, to: models.StateEmployeeRoleLinked},
	},
	EventLinkEmployeeRole: {
		{from: models.StateSet{models.StateEligible}, to: models.StateEmployeeRoleLinked},
		{from: models.StateSet{models.StateNewlyDesignatedEligible}, to: models.StateNewlyDesignatedLinked},
		{from: models.StateSet{models.StateCobraEligible}, to: models.StateCobraLinked},
	},
	EventDelinkEmployeeRole: {
		{from: models.StateSet{models.StateEmployeeRoleLinked}, to: models.StateEligible},
		{from: models.StateSet{models.StateNewlyDesignatedLinked}, to: models.StateNewlyDesignatedEligible},
		{from: models.StateSet{models.StateCobraLinked}, to: models.StateCobraEligible},
	},
	EventScheduleEmployeeTermination: {
		{from: models.ActiveStates, to: models.StateEmployeeTerminationPending},
	},
	EventTerminateEmployeeRole: {
		{from: append(models.StateSet{models.StateEmployeeTerminationPending}, models.ActiveStates...), to: models.StateEmploymentTerminated},
	},
	EventTerminateCobra: {
		{from: models.StateSet{models.StateCobraEligible, models.StateCobraLinked}, to: models.StateCobraTerminated},
	},
	EventRehireEmployeeRole: {
		{from: models.StateSet{models.StateEmploymentTerminated, models.StateCobraTerminated}, to: models.StateRehired},
	},
	EventElectCobra: {
		{from: models.StateSet{models.StateEmploymentTerminated, models.StateCobraEligible}, to: models.StateCobraLinked},
	},
}

// NextState resolves the target of event from current.
func NextState(current models.State, event Event) (models.State, error) {
	for _, t := range transitions[event] {
		if t.from.Contains(current) {
			return t.to, nil
		}
	}
	return current, &e.IllegalTransitionError{Event: string(event), From: string(current)}
}

// May reports whether event is accepted from current.
func May(current models.State, event Event) bool {
	_, err := NextState(current, event)
	return err == nil
}

// Guard checks a precondition beyond the source state. A non-empty return
// value is the reason the transition is refused.
type Guard func(*models.CensusEmployee) string

// Fire moves ce to the target of event. Guards run after the source state
// check; ce is left unchanged when either fails.
func Fire(ce *models.CensusEmployee, event Event, guards ...Guard) error {
	next, err := NextState(ce.State, event)
	if err != nil {
		return err
	}
	for _, g := range guards {
		if reason := g(ce); reason != "" {
			return &e.IllegalTransitionError{Event: string(event), From: string(ce.State), Reason: reason}
		}
	}
	ce.State = next
	return nil
}

// InitialState is the state a new record starts in.
func InitialState(ce *models.CensusEmployee) models.State {
	if ce.ExistingCobra {
		return models.StateCobraEligible
	}
	return models.StateEligible
}
