package core

import (
	"context"
	"fmt"
	"strings"

	"housingcore/internal/policy"
	"housingcore/pkg/domain"
)

// ProjectUpdate carries optional project field edits; nil fields are left
// unchanged. Units and Prices are keyed by existing flat type.
type ProjectUpdate struct {
	Name          *string
	Neighbourhood *string
	OpenDate      *domain.Date
	CloseDate     *domain.Date
	OfficerSlots  *int
	Units         map[domain.FlatType]int
	Prices        map[domain.FlatType]int
}

// CreateProject persists a new project owned by the acting manager.
func (s *Service) CreateProject(ctx context.Context, actor User, project Project) (Project, Result, error) {
	var created Project
	res, err := s.run(ctx, "create_project", func(tx *Transaction) error {
		manager, err := actorIn(tx.View(), actor)
		if err != nil {
			return err
		}
		if manager.Role != domain.RoleManager {
			return domain.NewPermissionDenied("only managers may create projects")
		}
		if err := validateProjectFields(project); err != nil {
			return err
		}
		if err := uniqueProjectName(tx.View(), project.Name, 0); err != nil {
			return err
		}
		project.ID = 0
		project.ManagerNRIC = manager.NRIC
		project.Officers = nil
		created, err = tx.createProject(project)
		return err
	})
	return created, res, err
}

// EditProject applies upd to a project the acting manager owns.
func (s *Service) EditProject(ctx context.Context, actor User, id int, upd ProjectUpdate) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "edit_project", func(tx *Transaction) error {
		project, err := s.managedProject(tx.View(), actor, id)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			if err := uniqueProjectName(tx.View(), *upd.Name, project.ID); err != nil {
				return err
			}
		}
		updated, err = tx.updateProject(id, func(p *Project) error {
			if err := upd.apply(p); err != nil {
				return err
			}
			return validateProjectFields(*p)
		})
		return err
	})
	return updated, res, err
}

// ToggleVisibility flips the visible flag of a project the acting manager owns.
func (s *Service) ToggleVisibility(ctx context.Context, actor User, id int) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "toggle_visibility", func(tx *Transaction) error {
		if _, err := s.managedProject(tx.View(), actor, id); err != nil {
			return err
		}
		var err error
		updated, err = tx.updateProject(id, func(p *Project) error {
			p.Visible = !p.Visible
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteProject removes a project with no active applications or
// registrations, together with its enquiries and inactive history.
func (s *Service) DeleteProject(ctx context.Context, actor User, id int) (Result, error) {
	return s.run(ctx, "delete_project", func(tx *Transaction) error {
		if _, err := s.managedProject(tx.View(), actor, id); err != nil {
			return err
		}
		view := tx.View()
		for _, b := range view.ListBookings() {
			if b.ProjectID == id {
				return domain.NewStateConflict(EntityProject, id, "project has bookings")
			}
		}
		for _, a := range view.ListApplications() {
			if a.ProjectID != id {
				continue
			}
			if a.Active() {
				return domain.NewStateConflict(EntityProject, id, "project has active applications")
			}
			if err := tx.deleteApplication(a.ID); err != nil {
				return err
			}
		}
		for _, r := range view.ListRegistrations() {
			if r.ProjectID != id {
				continue
			}
			if r.Active() {
				return domain.NewStateConflict(EntityProject, id, "project has active officer registrations")
			}
			if err := tx.deleteRegistration(r.ID); err != nil {
				return err
			}
		}
		for _, e := range view.ListEnquiries() {
			if e.ProjectID == id {
				if err := tx.deleteEnquiry(e.ID); err != nil {
					return err
				}
			}
		}
		return tx.deleteProject(id)
	})
}

// Project returns a project the actor may view.
func (s *Service) Project(ctx context.Context, actor User, id int) (Project, error) {
	var out Project
	err := s.read(ctx, "get_project", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, id)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionView}); err != nil {
			return err
		}
		out = project
		return nil
	})
	return out, err
}

// Projects returns every project the actor may view, ordered by ID.
func (s *Service) Projects(ctx context.Context, actor User) ([]Project, error) {
	var out []Project
	err := s.read(ctx, "list_projects", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, p := range view.ListProjects() {
			if policy.CanPerform(view, user, p, policy.ActionView) {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

// ManagedProjects returns the projects owned by the acting manager.
func (s *Service) ManagedProjects(ctx context.Context, actor User) ([]Project, error) {
	var out []Project
	err := s.read(ctx, "managed_projects", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, p := range view.ListProjects() {
			if p.ManagerNRIC == user.NRIC {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) managedProject(view RuleView, actor User, id int) (Project, error) {
	user, err := actorIn(view, actor)
	if err != nil {
		return Project{}, err
	}
	project, err := projectIn(view, id)
	if err != nil {
		return Project{}, err
	}
	if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionManageProject}); err != nil {
		return Project{}, err
	}
	return project, nil
}

func (u ProjectUpdate) apply(p *Project) error {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Neighbourhood != nil {
		p.Neighbourhood = strings.TrimSpace(*u.Neighbourhood)
	}
	if u.OpenDate != nil {
		p.OpenDate = *u.OpenDate
	}
	if u.CloseDate != nil {
		p.CloseDate = *u.CloseDate
	}
	if u.OfficerSlots != nil {
		p.OfficerSlots = *u.OfficerSlots
	}
	for t, units := range u.Units {
		i := flatIndex(*p, t)
		if i < 0 {
			return domain.NewValidation(fmt.Sprintf("project offers no %s flats", t))
		}
		p.Flats[i].Units = units
	}
	for t, price := range u.Prices {
		i := flatIndex(*p, t)
		if i < 0 {
			return domain.NewValidation(fmt.Sprintf("project offers no %s flats", t))
		}
		p.Flats[i].Price = price
	}
	return nil
}

func flatIndex(p Project, t domain.FlatType) int {
	for i, f := range p.Flats {
		if f.Type == t {
			return i
		}
	}
	return -1
}

func validateProjectFields(p Project) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return domain.NewValidation("project name is required")
	case strings.TrimSpace(p.Neighbourhood) == "":
		return domain.NewValidation("neighbourhood is required")
	case p.OpenDate.IsZero() || p.CloseDate.IsZero():
		return domain.NewValidation("opening and closing dates are required")
	case len(p.Flats) == 0:
		return domain.NewValidation("project must offer at least one flat type")
	}
	for _, f := range p.Flats {
		if _, err := domain.ParseFlatType(string(f.Type)); err != nil {
			return err
		}
	}
	return nil
}

func uniqueProjectName(view RuleView, name string, self int) error {
	name = strings.TrimSpace(name)
	for _, p := range view.ListProjects() {
		if p.ID != self && strings.EqualFold(p.Name, name) {
			return domain.NewStateConflict(EntityProject, p.ID, fmt.Sprintf("project name %q already in use", name))
		}
	}
	return nil
}
