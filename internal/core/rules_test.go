package core

import (
	"context"
	"testing"
	"time"

	"housingcore/pkg/domain"
)

func TestDefaultRulesEngineRegistersInvariants(t *testing.T) {
	names := map[string]bool{}
	for _, r := range NewDefaultRulesEngine().Rules() {
		names[r.Name()] = true
	}
	for _, want := range []string{"lifecycle_transition", "flat_inventory", "officer_capacity", "active_application", "active_registration", "project_window"} {
		if !names[want] {
			t.Errorf("missing rule %s", want)
		}
	}
	if len(NewRulesEngine().Rules()) != 0 {
		t.Fatalf("empty engine has rules")
	}
}

func projectChange(p domain.Project) domain.Change {
	return domain.Change{Entity: EntityProject, Action: ActionUpdate, ID: "1", After: p}
}

func TestFlatInventoryRule(t *testing.T) {
	p := domain.Project{ID: 1, Name: "P", Flats: []domain.Flat{
		{Type: domain.TwoRoom, Units: -1},
		{Type: domain.TwoRoom, Units: 2, Price: -5},
	}}
	view := domain.NewGraphView(domain.Graph{Projects: []domain.Project{p}})
	res, err := NewFlatInventoryRule().Evaluate(context.Background(), view, []domain.Change{projectChange(p)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 3 {
		t.Fatalf("expected duplicate, negative units and negative price violations, got %+v", res.Violations)
	}

	res, _ = NewFlatInventoryRule().Evaluate(context.Background(), view, []domain.Change{{Entity: EntityProject, Action: ActionDelete, ID: "1"}})
	if len(res.Violations) != 0 {
		t.Fatalf("deletes are not evaluated: %+v", res.Violations)
	}
}

func TestOfficerCapacityRule(t *testing.T) {
	p := domain.Project{ID: 1, Name: "P", OfficerSlots: 1, Officers: []string{"T1", "T1"}}
	view := domain.NewGraphView(domain.Graph{Projects: []domain.Project{p}})
	res, _ := NewOfficerCapacityRule().Evaluate(context.Background(), view, []domain.Change{projectChange(p)})
	if len(res.Violations) != 2 || !res.HasBlocking() {
		t.Fatalf("expected capacity and duplicate violations, got %+v", res.Violations)
	}
}

func TestActiveUniquenessRules(t *testing.T) {
	ctx := context.Background()
	g := domain.Graph{
		Applications: []domain.Application{
			{ID: 1, ProjectID: 1, ApplicantNRIC: "S1", Status: domain.ApplicationPending},
			{ID: 2, ProjectID: 1, ApplicantNRIC: "S1", Status: domain.ApplicationSuccessful},
			{ID: 3, ProjectID: 1, ApplicantNRIC: "S2", Status: domain.ApplicationWithdrawn},
			{ID: 4, ProjectID: 1, ApplicantNRIC: "S2", Status: domain.ApplicationPending},
		},
		Registrations: []domain.Registration{
			{ID: "a", ProjectID: 1, OfficerNRIC: "T1", Status: domain.RegistrationApproved},
			{ID: "b", ProjectID: 2, OfficerNRIC: "T1", Status: domain.RegistrationPending},
			{ID: "c", ProjectID: 2, OfficerNRIC: "T2", Status: domain.RegistrationRejected},
			{ID: "d", ProjectID: 3, OfficerNRIC: "T2", Status: domain.RegistrationPending},
		},
	}
	view := domain.NewGraphView(g)

	res, _ := NewActiveApplicationRule().Evaluate(ctx, view, []domain.Change{
		{Entity: EntityApplication, Action: ActionCreate, ID: "2", After: g.Applications[1]},
		{Entity: EntityApplication, Action: ActionCreate, ID: "4", After: g.Applications[3]},
	})
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "2" {
		t.Fatalf("expected one application violation, got %+v", res.Violations)
	}

	res, _ = NewActiveRegistrationRule().Evaluate(ctx, view, []domain.Change{
		{Entity: EntityRegistration, Action: ActionCreate, ID: "b", After: g.Registrations[1]},
		{Entity: EntityRegistration, Action: ActionCreate, ID: "d", After: g.Registrations[3]},
	})
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "b" {
		t.Fatalf("expected one registration violation, got %+v", res.Violations)
	}
}

func TestProjectWindowRule(t *testing.T) {
	open := domain.NewDate(2025, time.January, 1)
	p1 := domain.Project{ID: 1, Name: "A", ManagerNRIC: "M", OpenDate: open, CloseDate: open.AddDays(30)}
	p2 := domain.Project{ID: 2, Name: "B", ManagerNRIC: "M", OpenDate: open.AddDays(30), CloseDate: open.AddDays(60)}
	p3 := domain.Project{ID: 3, Name: "C", ManagerNRIC: "X", OpenDate: open, CloseDate: open.AddDays(60)}
	bad := domain.Project{ID: 4, Name: "D", ManagerNRIC: "M", OpenDate: open.AddDays(10), CloseDate: open}
	view := domain.NewGraphView(domain.Graph{Projects: []domain.Project{p1, p2, p3, bad}})

	res, _ := NewProjectWindowRule().Evaluate(context.Background(), view, []domain.Change{{Entity: EntityProject, Action: ActionCreate, ID: "2", After: p2}})
	if res.HasBlocking() || len(res.Warnings()) != 1 {
		t.Fatalf("expected a single overlap warning on the shared close/open day, got %+v", res.Violations)
	}

	res, _ = NewProjectWindowRule().Evaluate(context.Background(), view, []domain.Change{{Entity: EntityProject, Action: ActionCreate, ID: "4", After: bad}})
	if !res.HasBlocking() {
		t.Fatalf("expected inverted window to block")
	}
}
