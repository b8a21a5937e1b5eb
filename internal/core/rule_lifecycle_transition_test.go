package core

import (
	"context"
	"testing"

	"housingcore/pkg/domain"
)

func TestApplicationTransitionTable(t *testing.T) {
	statuses := []domain.ApplicationStatus{
		domain.ApplicationPending,
		domain.ApplicationSuccessful,
		domain.ApplicationUnsuccessful,
		domain.ApplicationBooked,
		domain.ApplicationWithdrawalRequested,
		domain.ApplicationWithdrawn,
	}
	allowed := map[[2]domain.ApplicationStatus]bool{
		{domain.ApplicationPending, domain.ApplicationSuccessful}:             true,
		{domain.ApplicationPending, domain.ApplicationUnsuccessful}:           true,
		{domain.ApplicationPending, domain.ApplicationWithdrawalRequested}:    true,
		{domain.ApplicationSuccessful, domain.ApplicationBooked}:              true,
		{domain.ApplicationSuccessful, domain.ApplicationWithdrawalRequested}: true,
		{domain.ApplicationUnsuccessful, domain.ApplicationWithdrawalRequested}: true,
		{domain.ApplicationWithdrawalRequested, domain.ApplicationWithdrawn}:  true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]domain.ApplicationStatus{from, to}]
			if got := CanTransitionApplication(from, to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
	for _, terminal := range []domain.ApplicationStatus{domain.ApplicationBooked, domain.ApplicationWithdrawn} {
		if !applicationMachine.terminal(terminal) {
			t.Errorf("%s should be terminal", terminal)
		}
	}
}

func TestRegistrationAndEnquiryTransitions(t *testing.T) {
	if !CanTransitionRegistration(domain.RegistrationPending, domain.RegistrationApproved) ||
		!CanTransitionRegistration(domain.RegistrationPending, domain.RegistrationRejected) {
		t.Fatalf("pending registration must be approvable and rejectable")
	}
	if CanTransitionRegistration(domain.RegistrationRejected, domain.RegistrationApproved) {
		t.Fatalf("rejected registration is terminal")
	}
	if !CanTransitionEnquiry(domain.EnquirySubmitted, domain.EnquiryReplied) {
		t.Fatalf("submitted enquiry must be repliable")
	}
	if CanTransitionEnquiry(domain.EnquiryReplied, domain.EnquirySubmitted) {
		t.Fatalf("replied enquiry is terminal")
	}
}

func TestMachineCheckReasons(t *testing.T) {
	err := applicationMachine.check(7, domain.ApplicationPending, domain.ApplicationBooked)
	if domain.ReasonOf(err) != "cannot move application from Pending to Booked" {
		t.Fatalf("unexpected reason: %v", err)
	}
	if kind, _ := domain.KindOf(err); kind != domain.KindStateConflict {
		t.Fatalf("expected state conflict, got %s", kind)
	}
	err = applicationMachine.check(7, domain.ApplicationBooked, domain.ApplicationWithdrawalRequested)
	if domain.ReasonOf(err) != "application is already Booked" {
		t.Fatalf("unexpected reason: %v", err)
	}
	if err := applicationMachine.check(7, domain.ApplicationPending, domain.ApplicationSuccessful); err != nil {
		t.Fatalf("expected allowed transition, got %v", err)
	}
}

func TestLifecycleTransitionRuleBlocksIllegalUpdate(t *testing.T) {
	ctx := context.Background()
	rule := LifecycleTransitionRule()
	view := domain.NewGraphView(domain.Graph{})

	res, err := rule.Evaluate(ctx, view, []domain.Change{{
		Entity: EntityApplication,
		Action: ActionUpdate,
		ID:     "1",
		Before: domain.Application{ID: 1, Status: domain.ApplicationPending},
		After:  domain.Application{ID: 1, Status: domain.ApplicationBooked},
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}

	res, _ = rule.Evaluate(ctx, view, []domain.Change{
		{
			Entity: EntityEnquiry, Action: ActionUpdate, ID: "2",
			Before: domain.Enquiry{ID: 2, Status: domain.EnquirySubmitted},
			After:  domain.Enquiry{ID: 2, Status: domain.EnquiryReplied},
		},
		{
			Entity: EntityRegistration, Action: ActionUpdate, ID: "r",
			Before: domain.Registration{ID: "r", Status: domain.RegistrationPending},
			After:  domain.Registration{ID: "r", Status: domain.RegistrationPending},
		},
		{Entity: EntityApplication, Action: ActionCreate, ID: "3", After: domain.Application{ID: 3, Status: domain.ApplicationBooked}},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
}
