package core

import (
	"context"
	"fmt"
	"strconv"

	"housingcore/pkg/domain"
)

// NewFlatInventoryRule returns the rule keeping every touched project's flat
// unit counters non-negative and its flat types unique.
func NewFlatInventoryRule() domain.Rule {
	return flatInventoryRule{}
}

type flatInventoryRule struct{}

func (flatInventoryRule) Name() string { return "flat_inventory" }

func (r flatInventoryRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, id := range touchedProjects(changes) {
		project, ok := view.FindProject(id)
		if !ok {
			continue
		}
		seen := make(map[domain.FlatType]bool, len(project.Flats))
		for _, flat := range project.Flats {
			if seen[flat.Type] {
				res.Violations = append(res.Violations, r.violation(project.ID, fmt.Sprintf("project %s lists %s flats twice", project.Name, flat.Type)))
			}
			seen[flat.Type] = true
			if flat.Units < 0 {
				res.Violations = append(res.Violations, r.violation(project.ID, fmt.Sprintf("project %s has negative %s units: %d", project.Name, flat.Type, flat.Units)))
			}
			if flat.Price < 0 {
				res.Violations = append(res.Violations, r.violation(project.ID, fmt.Sprintf("project %s has a negative %s price", project.Name, flat.Type)))
			}
		}
	}
	return res, nil
}

func (r flatInventoryRule) violation(projectID int, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   EntityProject,
		EntityID: strconv.Itoa(projectID),
	}
}

// touchedProjects returns the IDs of projects created or updated by changes.
func touchedProjects(changes []domain.Change) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, change := range changes {
		if change.Entity != EntityProject || change.Action == ActionDelete {
			continue
		}
		id, err := strconv.Atoi(change.ID)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
