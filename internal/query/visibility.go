// Package query derives read-only views over projects and bookings: which
// projects a user may browse, filtering, ordering, eligible flat rows, and
// booking reports.
package query

import (
	"housingcore/internal/policy"
	"housingcore/pkg/domain"
)

// WindowPolicy decides whether a project is currently open for browsing.
type WindowPolicy interface {
	Allows(p domain.Project) bool
}

// DateWindow admits projects whose application window contains Today.
type DateWindow struct {
	Today domain.Date
}

// Allows reports whether Today lies within the project's open and close dates.
func (w DateWindow) Allows(p domain.Project) bool {
	return p.OpenOn(w.Today)
}

// VisibleProjects keeps visible projects; non-managers are further restricted
// by window when it is non-nil.
func VisibleProjects(projects []domain.Project, user domain.User, window WindowPolicy) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if !p.Visible {
			continue
		}
		if user.Role != domain.RoleManager && window != nil && !window.Allows(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Row is one (project, flat) pair offered to a user.
type Row struct {
	Project domain.Project
	Flat    domain.Flat
}

// FlattenEligibleRows expands projects into the flat rows user is eligible
// for, in project then flat order.
func FlattenEligibleRows(projects []domain.Project, user domain.User) []Row {
	var rows []Row
	for _, p := range projects {
		for _, f := range p.Flats {
			if policy.IsEligible(user, f.Type) {
				rows = append(rows, Row{Project: p, Flat: f})
			}
		}
	}
	return rows
}
