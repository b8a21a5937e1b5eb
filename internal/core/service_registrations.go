package core

import (
	"context"

	"housingcore/internal/policy"
	"housingcore/pkg/domain"
)

// Register submits a Pending officer registration for a project.
func (s *Service) Register(ctx context.Context, actor User, projectID int) (Registration, Result, error) {
	var created Registration
	res, err := s.run(ctx, "register", func(tx *Transaction) error {
		view := tx.View()
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, projectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionRegister}); err != nil {
			return err
		}
		for _, r := range view.ListRegistrations() {
			if r.OfficerNRIC == user.NRIC && r.Active() {
				return domain.NewStateConflict(EntityRegistration, r.ID, "officer already holds an active registration")
			}
		}
		created, err = tx.createRegistration(Registration{
			ID:          s.newID(),
			ProjectID:   projectID,
			OfficerNRIC: user.NRIC,
			Status:      domain.RegistrationPending,
			SubmittedOn: tx.Today(),
		})
		return err
	})
	return created, res, err
}

// ApproveRegistration approves a Pending registration and assigns the officer
// to the project.
func (s *Service) ApproveRegistration(ctx context.Context, actor User, id string) (Registration, Result, error) {
	var updated Registration
	res, err := s.run(ctx, "approve_registration", func(tx *Transaction) error {
		reg, project, err := s.authorizeRegistration(tx.View(), actor, id)
		if err != nil {
			return err
		}
		if err := registrationMachine.check(id, reg.Status, domain.RegistrationApproved); err != nil {
			return err
		}
		if project.RemainingSlots() <= 0 {
			return domain.NewStateConflict(EntityRegistration, id, "no officer slots remaining")
		}
		if _, err := tx.updateProject(project.ID, func(p *Project) error {
			if !p.HasOfficer(reg.OfficerNRIC) {
				p.Officers = append(p.Officers, reg.OfficerNRIC)
			}
			return nil
		}); err != nil {
			return err
		}
		updated, err = tx.updateRegistration(id, func(r *Registration) error {
			r.Status = domain.RegistrationApproved
			return nil
		})
		return err
	})
	return updated, res, err
}

// RejectRegistration rejects a Pending registration.
func (s *Service) RejectRegistration(ctx context.Context, actor User, id string) (Registration, Result, error) {
	var updated Registration
	res, err := s.run(ctx, "reject_registration", func(tx *Transaction) error {
		reg, _, err := s.authorizeRegistration(tx.View(), actor, id)
		if err != nil {
			return err
		}
		if err := registrationMachine.check(id, reg.Status, domain.RegistrationRejected); err != nil {
			return err
		}
		updated, err = tx.updateRegistration(id, func(r *Registration) error {
			r.Status = domain.RegistrationRejected
			return nil
		})
		return err
	})
	return updated, res, err
}

// ProjectRegistrations lists registrations for a project the actor manages.
func (s *Service) ProjectRegistrations(ctx context.Context, actor User, projectID int) ([]Registration, error) {
	var out []Registration
	err := s.read(ctx, "project_registrations", func(view TransactionView) error {
		if _, err := s.managedProject(view, actor, projectID); err != nil {
			return err
		}
		for _, r := range view.ListRegistrations() {
			if r.ProjectID == projectID {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

// MyRegistrations lists the actor's own registrations.
func (s *Service) MyRegistrations(ctx context.Context, actor User) ([]Registration, error) {
	var out []Registration
	err := s.read(ctx, "my_registrations", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, r := range view.ListRegistrations() {
			if r.OfficerNRIC == user.NRIC {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) authorizeRegistration(view RuleView, actor User, id string) (Registration, Project, error) {
	reg, ok := view.FindRegistration(id)
	if !ok {
		return Registration{}, Project{}, domain.NewNotFound(EntityRegistration, id)
	}
	project, err := s.managedProject(view, actor, reg.ProjectID)
	if err != nil {
		return Registration{}, Project{}, err
	}
	return reg, project, nil
}
