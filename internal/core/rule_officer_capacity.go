package core

import (
	"context"
	"fmt"
	"strconv"

	"housingcore/pkg/domain"
)

// NewOfficerCapacityRule returns the rule enforcing officer slots and officer
// uniqueness on touched projects.
func NewOfficerCapacityRule() domain.Rule {
	return officerCapacityRule{}
}

type officerCapacityRule struct{}

func (officerCapacityRule) Name() string { return "officer_capacity" }

func (r officerCapacityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, id := range touchedProjects(changes) {
		project, ok := view.FindProject(id)
		if !ok {
			continue
		}
		if project.OfficerSlots < 0 {
			res.Violations = append(res.Violations, r.violation(project, "officer slots cannot be negative"))
		}
		if len(project.Officers) > project.OfficerSlots {
			res.Violations = append(res.Violations, r.violation(project, fmt.Sprintf("project %s over officer capacity: %d/%d officers", project.Name, len(project.Officers), project.OfficerSlots)))
		}
		seen := make(map[string]bool, len(project.Officers))
		for _, officer := range project.Officers {
			if seen[officer] {
				res.Violations = append(res.Violations, r.violation(project, fmt.Sprintf("officer %s assigned twice", officer)))
			}
			seen[officer] = true
		}
	}
	return res, nil
}

func (r officerCapacityRule) violation(project domain.Project, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   EntityProject,
		EntityID: strconv.Itoa(project.ID),
	}
}
