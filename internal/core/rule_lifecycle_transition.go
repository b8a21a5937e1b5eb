package core

import (
	"context"
	"fmt"

	"housingcore/pkg/domain"
)

// LifecycleTransitionRule blocks status changes that are not edges of the
// application, registration, or enquiry transition tables.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (r lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != ActionUpdate {
			continue
		}
		from, to, allowed, ok := transitionOf(change)
		if !ok || from == to || allowed {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("illegal %s transition %s -> %s", change.Entity, from, to),
			Entity:   change.Entity,
			EntityID: change.ID,
		})
	}
	return res, nil
}

func transitionOf(change domain.Change) (from, to string, allowed, ok bool) {
	switch change.Entity {
	case EntityApplication:
		before, okB := change.Before.(Application)
		after, okA := change.After.(Application)
		if !okB || !okA {
			return "", "", false, false
		}
		return string(before.Status), string(after.Status), applicationMachine.allows(before.Status, after.Status), true
	case EntityRegistration:
		before, okB := change.Before.(Registration)
		after, okA := change.After.(Registration)
		if !okB || !okA {
			return "", "", false, false
		}
		return string(before.Status), string(after.Status), registrationMachine.allows(before.Status, after.Status), true
	case EntityEnquiry:
		before, okB := change.Before.(Enquiry)
		after, okA := change.After.(Enquiry)
		if !okB || !okA {
			return "", "", false, false
		}
		return string(before.Status), string(after.Status), enquiryMachine.allows(before.Status, after.Status), true
	}
	return "", "", false, false
}
