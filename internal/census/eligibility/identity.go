package eligibility

import "github.com/gartstein/census/internal/census/models"

// MatchForLink picks the person a roster record links to: an SSN match
// first, else a DOB and name match.
func MatchForLink(ce *models.CensusEmployee, people []*models.Person) *models.Person {
	for _, p := range people {
		if ce.SSN != "" && p.SSN == ce.SSN {
			return p
		}
	}
	for _, p := range people {
		if p.MatchesDemographics(ce.DOB, ce.FirstName, ce.LastName) {
			return p
		}
	}
	return nil
}

// ExactMatch picks the person matching SSN, DOB, first and last name.
func ExactMatch(ce *models.CensusEmployee, people []*models.Person) *models.Person {
	for _, p := range people {
		if p.SSN == ce.SSN && p.MatchesDemographics(ce.DOB, ce.FirstName, ce.LastName) {
			return p
		}
	}
	return nil
}
