package core

import (
	"context"

	"housingcore/internal/query"
	"housingcore/pkg/domain"
)

// Receipt returns the booking receipt for an application the actor may view.
func (s *Service) Receipt(ctx context.Context, actor User, applicationID int) (query.BookingDetail, error) {
	booking, err := s.BookingFor(ctx, actor, applicationID)
	if err != nil {
		return query.BookingDetail{}, err
	}
	var out query.BookingDetail
	err = s.read(ctx, "receipt", func(view TransactionView) error {
		out, err = query.Receipt(view, booking)
		return err
	})
	return out, err
}

// Report lists bookings of the acting manager's projects matching f. The
// manager field of f is always the actor.
func (s *Service) Report(ctx context.Context, actor User, f query.ReportFilter) ([]query.BookingDetail, error) {
	var out []query.BookingDetail
	err := s.read(ctx, "booking_report", func(view TransactionView) error {
		user, err := actorIn(view, actor)
		if err != nil {
			return err
		}
		if user.Role != domain.RoleManager {
			return domain.NewPermissionDenied("only managers can generate booking reports")
		}
		f.ManagerNRIC = user.NRIC
		out = query.BookingReport(view, f)
		return nil
	})
	return out, err
}
