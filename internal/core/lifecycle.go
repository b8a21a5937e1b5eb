package core

import (
	"fmt"

	"housingcore/pkg/domain"
)

// machine is a transition table over one entity's status values.
type machine[S ~string] struct {
	entity EntityType
	label  string
	edges  map[S][]S
}

func (m machine[S]) terminal(s S) bool {
	_, known := m.edges[s]
	return !known
}

func (m machine[S]) allows(from, to S) bool {
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// check returns a StateConflict failure when from → to is not in the table.
func (m machine[S]) check(id any, from, to S) error {
	if m.allows(from, to) {
		return nil
	}
	if m.terminal(from) {
		return domain.NewStateConflict(m.entity, id, fmt.Sprintf("%s is already %s", m.label, from))
	}
	return domain.NewStateConflict(m.entity, id, fmt.Sprintf("cannot move %s from %s to %s", m.label, from, to))
}

// Booked and Withdrawn have no outgoing edges and are therefore terminal.
var applicationMachine = machine[domain.ApplicationStatus]{
	entity: EntityApplication,
	label:  "application",
	edges: map[domain.ApplicationStatus][]domain.ApplicationStatus{
		domain.ApplicationPending:             {domain.ApplicationSuccessful, domain.ApplicationUnsuccessful, domain.ApplicationWithdrawalRequested},
		domain.ApplicationSuccessful:          {domain.ApplicationBooked, domain.ApplicationWithdrawalRequested},
		domain.ApplicationUnsuccessful:        {domain.ApplicationWithdrawalRequested},
		domain.ApplicationWithdrawalRequested: {domain.ApplicationWithdrawn},
	},
}

var registrationMachine = machine[domain.RegistrationStatus]{
	entity: EntityRegistration,
	label:  "registration",
	edges: map[domain.RegistrationStatus][]domain.RegistrationStatus{
		domain.RegistrationPending: {domain.RegistrationApproved, domain.RegistrationRejected},
	},
}

var enquiryMachine = machine[domain.EnquiryStatus]{
	entity: EntityEnquiry,
	label:  "enquiry",
	edges: map[domain.EnquiryStatus][]domain.EnquiryStatus{
		domain.EnquirySubmitted: {domain.EnquiryReplied},
	},
}

// CanTransitionApplication reports whether the application table allows from → to.
func CanTransitionApplication(from, to domain.ApplicationStatus) bool {
	return applicationMachine.allows(from, to)
}

// CanTransitionRegistration reports whether the registration table allows from → to.
func CanTransitionRegistration(from, to domain.RegistrationStatus) bool {
	return registrationMachine.allows(from, to)
}

// CanTransitionEnquiry reports whether the enquiry table allows from → to.
func CanTransitionEnquiry(from, to domain.EnquiryStatus) bool {
	return enquiryMachine.allows(from, to)
}
