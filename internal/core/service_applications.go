package core

import (
	"context"
	"fmt"
	"slices"

	"housingcore/internal/policy"
	"housingcore/pkg/domain"
)

// Apply submits a Pending application by the actor for flatType in a project.
func (s *Service) Apply(ctx context.Context, actor User, projectID int, flatType domain.FlatType) (Application, Result, error) {
	var created Application
	res, err := s.run(ctx, "apply", func(tx *Transaction) error {
		if !slices.Contains(domain.FlatTypes, flatType) {
			return domain.NewValidation(fmt.Sprintf("unknown flat type %q", flatType))
		}
		view := tx.View()
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, projectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionApply, FlatType: flatType}); err != nil {
			return err
		}
		for _, a := range view.ListApplications() {
			if a.ApplicantNRIC == user.NRIC && a.ProjectID == projectID && a.Active() {
				return domain.NewStateConflict(EntityApplication, a.ID, "already applied for this project")
			}
		}
		created, err = tx.createApplication(Application{
			ProjectID:     projectID,
			ApplicantNRIC: user.NRIC,
			FlatType:      flatType,
			Status:        domain.ApplicationPending,
			SubmittedOn:   tx.Today(),
		})
		return err
	})
	return created, res, err
}

// ApproveApplication moves a Pending application to Successful when a unit of
// its flat type is still available.
func (s *Service) ApproveApplication(ctx context.Context, actor User, id int) (Application, Result, error) {
	var updated Application
	res, err := s.run(ctx, "approve_application", func(tx *Transaction) error {
		app, project, err := s.authorizeApplication(tx.View(), actor, id, policy.ActionApproveApplications)
		if err != nil {
			return err
		}
		if err := applicationMachine.check(id, app.Status, domain.ApplicationSuccessful); err != nil {
			return err
		}
		if flat, ok := project.Flat(app.FlatType); !ok || flat.Units < 1 {
			return domain.NewStateConflict(EntityApplication, id, fmt.Sprintf("no %s units available", app.FlatType))
		}
		updated, err = tx.updateApplication(id, func(a *Application) error {
			a.Status = domain.ApplicationSuccessful
			return nil
		})
		return err
	})
	return updated, res, err
}

// RejectApplication moves a Pending application to Unsuccessful.
func (s *Service) RejectApplication(ctx context.Context, actor User, id int) (Application, Result, error) {
	return s.transitionApplication(ctx, "reject_application", actor, id, policy.ActionApproveApplications, domain.ApplicationUnsuccessful)
}

// ApproveWithdrawal moves a WithdrawalRequested application to Withdrawn.
func (s *Service) ApproveWithdrawal(ctx context.Context, actor User, id int) (Application, Result, error) {
	return s.transitionApplication(ctx, "approve_withdrawal", actor, id, policy.ActionProcessWithdrawal, domain.ApplicationWithdrawn)
}

// RequestWithdrawal marks the actor's own application WithdrawalRequested.
func (s *Service) RequestWithdrawal(ctx context.Context, actor User, id int) (Application, Result, error) {
	var updated Application
	res, err := s.run(ctx, "request_withdrawal", func(tx *Transaction) error {
		view := tx.View()
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		app, err := applicationIn(view, id)
		if err != nil {
			return err
		}
		if app.ApplicantNRIC != user.NRIC {
			return domain.NewPermissionDenied("not owner of this resource")
		}
		project, err := projectIn(view, app.ProjectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionWithdraw}); err != nil {
			return err
		}
		if err := applicationMachine.check(id, app.Status, domain.ApplicationWithdrawalRequested); err != nil {
			return err
		}
		updated, err = tx.updateApplication(id, func(a *Application) error {
			a.Status = domain.ApplicationWithdrawalRequested
			return nil
		})
		return err
	})
	return updated, res, err
}

// Book allocates one unit to a Successful application. The unit decrement,
// the Booking record, and the Booked transition commit together or not at all.
func (s *Service) Book(ctx context.Context, actor User, id int) (Booking, Result, error) {
	var booking Booking
	res, err := s.run(ctx, "book", func(tx *Transaction) error {
		view := tx.View()
		app, project, err := s.authorizeApplication(view, actor, id, policy.ActionBook)
		if err != nil {
			return err
		}
		switch app.Status {
		case domain.ApplicationSuccessful:
		case domain.ApplicationBooked:
			return domain.NewStateConflict(EntityApplication, id, "already booked")
		default:
			return domain.NewStateConflict(EntityApplication, id, "application must be Successful")
		}
		for _, b := range view.ListBookings() {
			if b.ApplicantNRIC == app.ApplicantNRIC && b.ProjectID == app.ProjectID {
				return domain.NewStateConflict(EntityApplication, id, "already booked")
			}
		}
		if flat, ok := project.Flat(app.FlatType); !ok || flat.Units < 1 {
			return domain.NewStateConflict(EntityApplication, id, "no units available")
		}
		if _, err := tx.updateProject(project.ID, func(p *Project) error {
			p.Flats[flatIndex(*p, app.FlatType)].Units--
			return nil
		}); err != nil {
			return err
		}
		booking, err = tx.createBooking(Booking{
			FlatType:      app.FlatType,
			ProjectID:     app.ProjectID,
			ApplicantNRIC: app.ApplicantNRIC,
			OfficerNRIC:   actor.NRIC,
			BookedOn:      tx.Today(),
		})
		if err != nil {
			return err
		}
		_, err = tx.updateApplication(id, func(a *Application) error {
			a.Status = domain.ApplicationBooked
			return nil
		})
		return err
	})
	return booking, res, err
}

// Application returns one application visible to the actor: its applicant or
// a user allowed to view the project's applications.
func (s *Service) Application(ctx context.Context, actor User, id int) (Application, error) {
	var out Application
	err := s.read(ctx, "get_application", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		app, err := applicationIn(view, id)
		if err != nil {
			return err
		}
		if app.ApplicantNRIC != user.NRIC {
			project, err := projectIn(view, app.ProjectID)
			if err != nil {
				return err
			}
			if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionViewProjectApplications}); err != nil {
				return err
			}
		}
		out = app
		return nil
	})
	return out, err
}

// ProjectApplications lists a project's applications for its manager or
// assigned officers.
func (s *Service) ProjectApplications(ctx context.Context, actor User, projectID int) ([]Application, error) {
	var out []Application
	err := s.read(ctx, "project_applications", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, projectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionViewProjectApplications}); err != nil {
			return err
		}
		for _, a := range view.ListApplications() {
			if a.ProjectID == projectID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

// MyApplications lists the actor's own applications.
func (s *Service) MyApplications(ctx context.Context, actor User) ([]Application, error) {
	var out []Application
	err := s.read(ctx, "my_applications", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, a := range view.ListApplications() {
			if a.ApplicantNRIC == user.NRIC {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

// BookingFor returns the booking created for an application the actor may view.
func (s *Service) BookingFor(ctx context.Context, actor User, applicationID int) (Booking, error) {
	app, err := s.Application(ctx, actor, applicationID)
	if err != nil {
		return Booking{}, err
	}
	var out Booking
	err = s.read(ctx, "booking_for", func(view TransactionView) error {
		for _, b := range view.ListBookings() {
			if b.ApplicantNRIC == app.ApplicantNRIC && b.ProjectID == app.ProjectID {
				out = b
				return nil
			}
		}
		return domain.NewNotFound(EntityBooking, fmt.Sprintf("application %d", applicationID))
	})
	return out, err
}

func (s *Service) transitionApplication(ctx context.Context, op string, actor User, id int, action policy.Action, to domain.ApplicationStatus) (Application, Result, error) {
	var updated Application
	res, err := s.run(ctx, op, func(tx *Transaction) error {
		app, _, err := s.authorizeApplication(tx.View(), actor, id, action)
		if err != nil {
			return err
		}
		if err := applicationMachine.check(id, app.Status, to); err != nil {
			return err
		}
		updated, err = tx.updateApplication(id, func(a *Application) error {
			a.Status = to
			return nil
		})
		return err
	})
	return updated, res, err
}

func (s *Service) authorizeApplication(view RuleView, actor User, id int, action policy.Action) (Application, Project, error) {
	user, err := actorIn(view, actor)
	if err != nil {
		return Application{}, Project{}, err
	}
	app, err := applicationIn(view, id)
	if err != nil {
		return Application{}, Project{}, err
	}
	project, err := projectIn(view, app.ProjectID)
	if err != nil {
		return Application{}, Project{}, err
	}
	if err := policy.Check(view, user, project, policy.Request{Action: action}); err != nil {
		return Application{}, Project{}, err
	}
	return app, project, nil
}

// Bookings lists the bookings the actor may see: their own, those of projects
// they are assigned to, or those of projects they manage.
func (s *Service) Bookings(ctx context.Context, actor User) ([]Booking, error) {
	var out []Booking
	err := s.read(ctx, "list_bookings", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, b := range view.ListBookings() {
			project, _ := view.FindProject(b.ProjectID)
			switch {
			case b.ApplicantNRIC == user.NRIC,
				user.Role == domain.RoleOfficer && project.HasOfficer(user.NRIC),
				user.Role == domain.RoleManager && project.ManagerNRIC == user.NRIC:
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}
