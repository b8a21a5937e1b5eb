// Package persistence holds the pieces shared by every storage backend:
// reference resolution on load and the JSON bucket layout used by the
// snapshot stores.
package persistence

import (
	"context"
	"log/slog"
	"strings"

	"housingcore/pkg/domain"
)

// Resolve walks the collections in load order, drops rows whose references do
// not resolve or whose IDs repeat, and seeds seq after each collection. Every
// dropped row is logged at warn level.
func Resolve(ctx context.Context, raw domain.Graph, seq *domain.Sequencer, logger *slog.Logger) domain.Graph {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if seq == nil {
		seq = domain.NewSequencer()
	}
	r := resolver{ctx: ctx, logger: logger}
	var out domain.Graph

	users := make(map[string]domain.User, len(raw.Users))
	for _, u := range raw.Users {
		u.NRIC = strings.ToUpper(strings.TrimSpace(u.NRIC))
		switch {
		case u.NRIC == "":
			r.drop("users", u.Name, "missing NRIC")
			continue
		case hasKey(users, u.NRIC):
			r.drop("users", u.NRIC, "duplicate NRIC")
			continue
		}
		users[u.NRIC] = u
		out.Users = append(out.Users, u)
	}

	projects := make(map[int]domain.Project, len(raw.Projects))
	names := make(map[string]struct{}, len(raw.Projects))
	for _, p := range raw.Projects {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		switch {
		case hasKey(projects, p.ID):
			r.drop("projects", p.ID, "duplicate id")
			continue
		case hasKey(names, key):
			r.drop("projects", p.ID, "duplicate name")
			continue
		case !r.hasRole(users, p.ManagerNRIC, domain.RoleManager):
			r.drop("projects", p.ID, "unknown manager "+p.ManagerNRIC)
			continue
		}
		p = domain.CloneProject(p)
		officers := p.Officers[:0]
		assigned := make(map[string]struct{}, len(p.Officers))
		for _, nric := range p.Officers {
			switch {
			case !r.hasRole(users, nric, domain.RoleOfficer):
				logger.WarnContext(ctx, "dropping officer assignment", "project", p.ID, "officer", nric)
				continue
			case hasKey(assigned, nric):
				logger.WarnContext(ctx, "dropping duplicate officer assignment", "project", p.ID, "officer", nric)
				continue
			}
			assigned[nric] = struct{}{}
			officers = append(officers, nric)
		}
		p.Officers = officers
		for i := range p.Flats {
			p.Flats[i].ProjectID = p.ID
		}
		projects[p.ID] = p
		names[key] = struct{}{}
		out.Projects = append(out.Projects, p)
	}
	seq.Seed(domain.SeqProject, maxOf(out.Projects, func(p domain.Project) int { return p.ID }))

	applications := make(map[int]struct{}, len(raw.Applications))
	for _, a := range raw.Applications {
		switch {
		case hasKey(applications, a.ID):
			r.drop("applications", a.ID, "duplicate id")
			continue
		case !hasKey(projects, a.ProjectID):
			r.drop("applications", a.ID, "unknown project")
			continue
		case !hasKey(users, a.ApplicantNRIC):
			r.drop("applications", a.ID, "unknown applicant "+a.ApplicantNRIC)
			continue
		}
		applications[a.ID] = struct{}{}
		out.Applications = append(out.Applications, a)
	}
	seq.Seed(domain.SeqApplication, maxOf(out.Applications, func(a domain.Application) int { return a.ID }))

	enquiries := make(map[int]struct{}, len(raw.Enquiries))
	for _, e := range raw.Enquiries {
		switch {
		case hasKey(enquiries, e.ID):
			r.drop("enquiries", e.ID, "duplicate id")
			continue
		case !hasKey(projects, e.ProjectID):
			r.drop("enquiries", e.ID, "unknown project")
			continue
		case !hasKey(users, e.CreatorNRIC):
			r.drop("enquiries", e.ID, "unknown creator "+e.CreatorNRIC)
			continue
		case e.ReplierNRIC != "" && !hasKey(users, e.ReplierNRIC):
			r.drop("enquiries", e.ID, "unknown replier "+e.ReplierNRIC)
			continue
		}
		enquiries[e.ID] = struct{}{}
		out.Enquiries = append(out.Enquiries, e)
	}
	seq.Seed(domain.SeqEnquiry, maxOf(out.Enquiries, func(e domain.Enquiry) int { return e.ID }))

	registrations := make(map[string]struct{}, len(raw.Registrations))
	for _, reg := range raw.Registrations {
		switch {
		case reg.ID == "":
			r.drop("registrations", reg.OfficerNRIC, "missing id")
			continue
		case hasKey(registrations, reg.ID):
			r.drop("registrations", reg.ID, "duplicate id")
			continue
		case !hasKey(projects, reg.ProjectID):
			r.drop("registrations", reg.ID, "unknown project")
			continue
		case !r.hasRole(users, reg.OfficerNRIC, domain.RoleOfficer):
			r.drop("registrations", reg.ID, "unknown officer "+reg.OfficerNRIC)
			continue
		}
		registrations[reg.ID] = struct{}{}
		out.Registrations = append(out.Registrations, reg)
	}

	bookings := make(map[int]struct{}, len(raw.Bookings))
	for _, b := range raw.Bookings {
		switch {
		case hasKey(bookings, b.ID):
			r.drop("bookings", b.ID, "duplicate id")
			continue
		case !hasKey(projects, b.ProjectID):
			r.drop("bookings", b.ID, "unknown project")
			continue
		case !hasKey(users, b.ApplicantNRIC):
			r.drop("bookings", b.ID, "unknown applicant "+b.ApplicantNRIC)
			continue
		case b.OfficerNRIC != "" && !hasKey(users, b.OfficerNRIC):
			r.drop("bookings", b.ID, "unknown officer "+b.OfficerNRIC)
			continue
		}
		bookings[b.ID] = struct{}{}
		out.Bookings = append(out.Bookings, b)
	}
	seq.Seed(domain.SeqBooking, maxOf(out.Bookings, func(b domain.Booking) int { return b.ID }))

	return out
}

type resolver struct {
	ctx    context.Context
	logger *slog.Logger
}

func (r resolver) drop(collection string, id any, reason string) {
	r.logger.WarnContext(r.ctx, "dropping row", "collection", collection, "id", id, "reason", reason)
}

func (r resolver) hasRole(users map[string]domain.User, nric string, role domain.Role) bool {
	u, ok := users[nric]
	return ok && u.Role == role
}

func hasKey[K comparable, V any](m map[K]V, k K) bool {
	_, ok := m[k]
	return ok
}

func maxOf[T any](items []T, id func(T) int) int {
	highest := 0
	for _, item := range items {
		if v := id(item); v > highest {
			highest = v
		}
	}
	return highest
}
