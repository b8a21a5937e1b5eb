package core

import (
	"context"
	"fmt"

	"housingcore/pkg/domain"
)

// NewActiveApplicationRule blocks a second non-withdrawn application by the
// same applicant for the same project.
func NewActiveApplicationRule() domain.Rule {
	return activeApplicationRule{}
}

type activeApplicationRule struct{}

func (activeApplicationRule) Name() string { return "active_application" }

func (r activeApplicationRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, EntityApplication) {
		return res, nil
	}
	type key struct {
		applicant string
		project   int
	}
	counts := make(map[key]int)
	for _, a := range view.ListApplications() {
		if a.Active() {
			counts[key{a.ApplicantNRIC, a.ProjectID}]++
		}
	}
	for _, change := range changes {
		a, ok := change.After.(Application)
		if change.Entity != EntityApplication || !ok || !a.Active() {
			continue
		}
		if counts[key{a.ApplicantNRIC, a.ProjectID}] > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("applicant %s already has an active application for project %d", a.ApplicantNRIC, a.ProjectID),
				Entity:   EntityApplication,
				EntityID: change.ID,
			})
		}
	}
	return res, nil
}

// NewActiveRegistrationRule blocks an officer from holding more than one
// pending or approved registration.
func NewActiveRegistrationRule() domain.Rule {
	return activeRegistrationRule{}
}

type activeRegistrationRule struct{}

func (activeRegistrationRule) Name() string { return "active_registration" }

func (r activeRegistrationRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, EntityRegistration) {
		return res, nil
	}
	counts := make(map[string]int)
	for _, reg := range view.ListRegistrations() {
		if reg.Active() {
			counts[reg.OfficerNRIC]++
		}
	}
	for _, change := range changes {
		reg, ok := change.After.(Registration)
		if change.Entity != EntityRegistration || !ok || !reg.Active() {
			continue
		}
		if counts[reg.OfficerNRIC] > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("officer %s already holds an active registration", reg.OfficerNRIC),
				Entity:   EntityRegistration,
				EntityID: change.ID,
			})
		}
	}
	return res, nil
}

func touches(changes []domain.Change, entity EntityType) bool {
	for _, c := range changes {
		if c.Entity == entity {
			return true
		}
	}
	return false
}
