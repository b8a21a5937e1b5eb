package core

import (
	"context"
	"fmt"
	"strconv"

	"housingcore/pkg/domain"
)

// NewProjectWindowRule blocks projects whose application window closes before
// it opens and warns when a manager owns projects with overlapping windows.
func NewProjectWindowRule() domain.Rule {
	return projectWindowRule{}
}

type projectWindowRule struct{}

func (projectWindowRule) Name() string { return "project_window" }

func (r projectWindowRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	touched := touchedProjects(changes)
	if len(touched) == 0 {
		return res, nil
	}
	all := view.ListProjects()
	for _, id := range touched {
		project, ok := view.FindProject(id)
		if !ok {
			continue
		}
		if project.CloseDate.Before(project.OpenDate) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("project %s closes (%s) before it opens (%s)", project.Name, project.CloseDate, project.OpenDate),
				Entity:   EntityProject,
				EntityID: strconv.Itoa(project.ID),
			})
			continue
		}
		for _, other := range all {
			if other.ID == project.ID || other.ManagerNRIC != project.ManagerNRIC {
				continue
			}
			if windowsOverlap(project, other) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("manager %s already handles project %s during %s-%s", project.ManagerNRIC, other.Name, other.OpenDate, other.CloseDate),
					Entity:   EntityProject,
					EntityID: strconv.Itoa(project.ID),
				})
			}
		}
	}
	return res, nil
}

func windowsOverlap(a, b domain.Project) bool {
	return !a.CloseDate.Before(b.OpenDate) && !b.CloseDate.Before(a.OpenDate)
}
