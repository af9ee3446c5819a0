package validation

import (
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/gartstein/census/internal/census/models"
)

// CheckIdentityEdit rejects changes to identifying fields of a linked record
// unless the actor is an administrator.
func CheckIdentityEdit(actor models.Actor, current *models.CensusEmployee, update *models.CensusEmployeeUpdate) error {
	if !update.ChangesIdentity(current) {
		return nil
	}
	if current.EmployeeRoleID == nil && !models.LinkedStates.Contains(current.State) {
		return nil
	}
	if actor.IsAdmin() {
		return nil
	}
	verr := e.NewValidationError()
	verr.Add(e.BaseField, MsgIdentityLockedForLink)
	return verr
}
