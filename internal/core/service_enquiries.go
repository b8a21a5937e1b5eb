package core

import (
	"context"
	"strings"

	"housingcore/internal/policy"
	"housingcore/pkg/domain"
)

// CreateEnquiry records a Submitted enquiry by the actor about a project.
func (s *Service) CreateEnquiry(ctx context.Context, actor User, projectID int, title, content string) (Enquiry, Result, error) {
	var created Enquiry
	res, err := s.run(ctx, "create_enquiry", func(tx *Transaction) error {
		view := tx.View()
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, projectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionCreateEnquiry}); err != nil {
			return err
		}
		title, content, err = enquiryText(title, content)
		if err != nil {
			return err
		}
		today := tx.Today()
		created, err = tx.createEnquiry(Enquiry{
			Title:       title,
			Content:     content,
			CreatorNRIC: user.NRIC,
			ProjectID:   projectID,
			Status:      domain.EnquirySubmitted,
			CreatedOn:   today,
			UpdatedOn:   today,
		})
		return err
	})
	return created, res, err
}

// EditEnquiry replaces the title and content of the actor's unreplied enquiry.
func (s *Service) EditEnquiry(ctx context.Context, actor User, id int, title, content string) (Enquiry, Result, error) {
	var updated Enquiry
	res, err := s.run(ctx, "edit_enquiry", func(tx *Transaction) error {
		if _, err := ownEditableEnquiry(tx.View(), actor, id); err != nil {
			return err
		}
		var err error
		title, content, err = enquiryText(title, content)
		if err != nil {
			return err
		}
		today := tx.Today()
		updated, err = tx.updateEnquiry(id, func(e *Enquiry) error {
			e.Title = title
			e.Content = content
			e.UpdatedOn = today
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeleteEnquiry removes the actor's unreplied enquiry.
func (s *Service) DeleteEnquiry(ctx context.Context, actor User, id int) (Result, error) {
	return s.run(ctx, "delete_enquiry", func(tx *Transaction) error {
		if _, err := ownEditableEnquiry(tx.View(), actor, id); err != nil {
			return err
		}
		return tx.deleteEnquiry(id)
	})
}

// ReplyEnquiry answers a Submitted enquiry as the project's manager or an
// assigned officer.
func (s *Service) ReplyEnquiry(ctx context.Context, actor User, id int, reply string) (Enquiry, Result, error) {
	var updated Enquiry
	res, err := s.run(ctx, "reply_enquiry", func(tx *Transaction) error {
		view := tx.View()
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		enquiry, ok := view.FindEnquiry(id)
		if !ok {
			return domain.NewNotFound(EntityEnquiry, id)
		}
		project, err := projectIn(view, enquiry.ProjectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionReplyEnquiry}); err != nil {
			return err
		}
		if err := enquiryMachine.check(id, enquiry.Status, domain.EnquiryReplied); err != nil {
			return err
		}
		reply = strings.TrimSpace(reply)
		if reply == "" {
			return domain.NewValidation("reply must not be empty")
		}
		today := tx.Today()
		updated, err = tx.updateEnquiry(id, func(e *Enquiry) error {
			e.Reply = reply
			e.ReplierNRIC = user.NRIC
			e.Status = domain.EnquiryReplied
			e.UpdatedOn = today
			return nil
		})
		return err
	})
	return updated, res, err
}

// MyEnquiries lists enquiries created by the actor.
func (s *Service) MyEnquiries(ctx context.Context, actor User) ([]Enquiry, error) {
	var out []Enquiry
	err := s.read(ctx, "my_enquiries", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		for _, e := range view.ListEnquiries() {
			if e.CreatorNRIC == user.NRIC {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// ProjectEnquiries lists a project's enquiries for staff allowed to see them.
func (s *Service) ProjectEnquiries(ctx context.Context, actor User, projectID int) ([]Enquiry, error) {
	var out []Enquiry
	err := s.read(ctx, "project_enquiries", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		project, err := projectIn(view, projectID)
		if err != nil {
			return err
		}
		if err := policy.Check(view, user, project, policy.Request{Action: policy.ActionViewEnquiries}); err != nil {
			return err
		}
		for _, e := range view.ListEnquiries() {
			if e.ProjectID == projectID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

// AllEnquiries lists every enquiry across projects; managers only.
func (s *Service) AllEnquiries(ctx context.Context, actor User) ([]Enquiry, error) {
	var out []Enquiry
	err := s.read(ctx, "all_enquiries", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		if user.Role != domain.RoleManager {
			return domain.NewPermissionDenied("only managers may view all enquiries")
		}
		out = view.ListEnquiries()
		return nil
	})
	return out, err
}

func ownEditableEnquiry(view RuleView, actor User, id int) (Enquiry, error) {
	user, err := actorIn(view, actor)
	if err != nil {
		return Enquiry{}, err
	}
	enquiry, ok := view.FindEnquiry(id)
	if !ok {
		return Enquiry{}, domain.NewNotFound(EntityEnquiry, id)
	}
	if enquiry.CreatorNRIC != user.NRIC {
		return Enquiry{}, domain.NewPermissionDenied("not owner of this resource")
	}
	if enquiry.Status != domain.EnquirySubmitted {
		return Enquiry{}, domain.NewStateConflict(EntityEnquiry, id, "enquiry already replied")
	}
	return enquiry, nil
}

func enquiryText(title, content string) (string, string, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" {
		return "", "", domain.NewValidation("enquiry title must not be empty")
	}
	if content == "" {
		return "", "", domain.NewValidation("enquiry content must not be empty")
	}
	return title, content, nil
}
