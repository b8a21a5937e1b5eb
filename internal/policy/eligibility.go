// Package policy holds the pure eligibility and permission predicates of the
// allocation core. Nothing here mutates state.
package policy

import "housingcore/pkg/domain"

// Age thresholds for flat-type eligibility.
const (
	MarriedMinAge = 21
	SingleMinAge  = 35
)

// IsEligible reports whether the user's marital status and age qualify them for t.
func IsEligible(user domain.User, t domain.FlatType) bool {
	married := user.MaritalStatus == domain.Married && user.Age >= MarriedMinAge
	switch t {
	case domain.TwoRoom:
		return married || (user.MaritalStatus == domain.Single && user.Age >= SingleMinAge)
	case domain.ThreeRoom:
		return married
	}
	return false
}

// EligibleTypes returns the flat types of the project the user qualifies for,
// in project order.
func EligibleTypes(user domain.User, project domain.Project) []domain.FlatType {
	var out []domain.FlatType
	for _, f := range project.Flats {
		if IsEligible(user, f.Type) {
			out = append(out, f.Type)
		}
	}
	return out
}
