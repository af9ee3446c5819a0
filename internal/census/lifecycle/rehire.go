package lifecycle

import (
	"time"

	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
)

// ReplicateForRehire moves src to rehired and returns a new, unsaved record
// carrying its identity and dependents. The copy has no hire date, no
// assignments and no employee role.
func ReplicateForRehire(src *models.CensusEmployee, now time.Time) (*models.CensusEmployee, error) {
	if err := Fire(src, EventRehireEmployeeRole); err != nil {
		return nil, err
	}

	replica := &models.CensusEmployee{
		ID:                uuid.New(),
		EmployerProfileID: src.EmployerProfileID,
		FirstName:         src.FirstName,
		MiddleName:        src.MiddleName,
		LastName:          src.LastName,
		NameSfx:           src.NameSfx,
		SSN:               src.SSN,
		DOB:               src.DOB,
		Gender:            src.Gender,
		IsBusinessOwner:   src.IsBusinessOwner,
		State:             models.StateEligible,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, d := range src.Dependents {
		dep := *d
		dep.ID = uuid.New()
		if d.SSN != nil {
			ssn := *d.SSN
			dep.SSN = &ssn
		}
		replica.Dependents = append(replica.Dependents, &dep)
	}
	return replica, nil
}
