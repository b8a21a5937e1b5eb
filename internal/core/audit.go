package core

import (
	"context"
	"fmt"
)

// Audit evaluates the store's rules over the whole current state as though
// every record had just been created. Nothing is committed; the result lists
// all blocking and warning violations found in loaded data.
func (s *MemoryStore) Audit(ctx context.Context) (Result, error) {
	var res Result
	err := s.View(ctx, func(view TransactionView) error {
		var changes []Change
		for _, u := range view.ListUsers() {
			changes = append(changes, Change{Entity: EntityUser, Action: ActionCreate, ID: u.NRIC, After: u})
		}
		for _, p := range view.ListProjects() {
			changes = append(changes, Change{Entity: EntityProject, Action: ActionCreate, ID: fmt.Sprint(p.ID), After: p})
		}
		for _, a := range view.ListApplications() {
			changes = append(changes, Change{Entity: EntityApplication, Action: ActionCreate, ID: fmt.Sprint(a.ID), After: a})
		}
		for _, r := range view.ListRegistrations() {
			changes = append(changes, Change{Entity: EntityRegistration, Action: ActionCreate, ID: r.ID, After: r})
		}
		for _, e := range view.ListEnquiries() {
			changes = append(changes, Change{Entity: EntityEnquiry, Action: ActionCreate, ID: fmt.Sprint(e.ID), After: e})
		}
		for _, b := range view.ListBookings() {
			changes = append(changes, Change{Entity: EntityBooking, Action: ActionCreate, ID: fmt.Sprint(b.ID), After: b})
		}
		var err error
		res, err = s.engine.Evaluate(ctx, view, changes)
		return err
	})
	return res, err
}
