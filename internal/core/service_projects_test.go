package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"housingcore/internal/core"
	"housingcore/pkg/domain"
)

func projectUnits(ft domain.FlatType, n int) core.ProjectUpdate {
	return core.ProjectUpdate{Units: map[domain.FlatType]int{ft: n}}
}

func newProject(open, close domain.Date) domain.Project {
	return domain.Project{
		Name:          "Cedar Grove",
		Neighbourhood: "Bedok",
		Visible:       true,
		OpenDate:      open,
		CloseDate:     close,
		OfficerSlots:  3,
		Flats: []domain.Flat{
			{Type: domain.TwoRoom, Units: 10, Price: 280000},
		},
	}
}

func TestCreateProjectAssignsIDAndWarnsOnOverlap(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	created, res, err := svc.CreateProject(ctx, mona, newProject(domain.NewDate(2025, time.March, 1), domain.NewDate(2025, time.March, 31)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 3 {
		t.Fatalf("expected ID 3, got %d", created.ID)
	}
	if created.ManagerNRIC != mona.NRIC {
		t.Fatalf("expected manager %s, got %s", mona.NRIC, created.ManagerNRIC)
	}
	if created.Flats[0].ProjectID != 3 {
		t.Fatalf("flat project id not set: %+v", created.Flats)
	}
	warnings := res.Warnings()
	if len(warnings) != 1 || warnings[0].Rule != "project_window" {
		t.Fatalf("expected one overlap warning, got %+v", res.Violations)
	}
}

func TestCreateProjectRejectsInvertedWindowWithoutConsumingID(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	_, _, err := svc.CreateProject(ctx, mona, newProject(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.May, 1)))
	expectKind(t, err, domain.ErrStateConflict)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %T", err)
	}
	if violation.Result.Violations[0].Rule != "project_window" {
		t.Fatalf("unexpected violations: %+v", violation.Result.Violations)
	}

	created, _, err := svc.CreateProject(ctx, mona, newProject(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.July, 1)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 3 {
		t.Fatalf("failed create must not consume an ID, got %d", created.ID)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	_, _, err := svc.CreateProject(ctx, alice, newProject(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.July, 1)))
	expectKind(t, err, domain.ErrPermissionDenied)

	p := newProject(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.July, 1))
	p.Name = " "
	_, _, err = svc.CreateProject(ctx, mona, p)
	expectKind(t, err, domain.ErrValidation)

	p = newProject(domain.NewDate(2025, time.June, 1), domain.NewDate(2025, time.July, 1))
	p.Name = "acacia breeze"
	_, _, err = svc.CreateProject(ctx, mona, p)
	expectKind(t, err, domain.ErrStateConflict)
}

func TestCrossManagerEditDenied(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	name := "Renamed"
	_, _, err := svc.EditProject(ctx, mark, acacia, core.ProjectUpdate{Name: &name})
	expectKind(t, err, domain.ErrPermissionDenied)
	expectReason(t, err, "not owner of this resource")
	if got := findProject(t, svc, acacia).Name; got != "Acacia Breeze" {
		t.Fatalf("name changed to %q", got)
	}
}

func TestEditProjectFieldsAndInvariants(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	hood := "Sembawang"
	price := 360000
	updated, _, err := svc.EditProject(ctx, mona, acacia, core.ProjectUpdate{
		Neighbourhood: &hood,
		Prices:        map[domain.FlatType]int{domain.TwoRoom: price},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Neighbourhood != hood {
		t.Fatalf("neighbourhood not updated: %q", updated.Neighbourhood)
	}
	if f, _ := updated.Flat(domain.TwoRoom); f.Price != price {
		t.Fatalf("price not updated: %d", f.Price)
	}

	_, _, err = svc.EditProject(ctx, mona, acacia, projectUnits(domain.TwoRoom, -1))
	expectKind(t, err, domain.ErrStateConflict)

	zero := 0
	_, _, err = svc.EditProject(ctx, mona, acacia, core.ProjectUpdate{OfficerSlots: &zero})
	expectKind(t, err, domain.ErrStateConflict)

	_, _, err = svc.EditProject(ctx, mark, bayview, core.ProjectUpdate{Units: map[domain.FlatType]int{"4-Room": 1}})
	expectKind(t, err, domain.ErrValidation)

	if got := units(t, svc, acacia, domain.TwoRoom); got != 2 {
		t.Fatalf("blocked edits must not change units, got %d", got)
	}
}

func TestToggleVisibility(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	p, _, err := svc.ToggleVisibility(ctx, mona, acacia)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if p.Visible {
		t.Fatalf("expected hidden project")
	}
	_, _, err = svc.Apply(ctx, alice, acacia, domain.TwoRoom)
	expectKind(t, err, domain.ErrPermissionDenied)
	expectReason(t, err, "project is not visible")

	visible, err := svc.Projects(ctx, alice)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	for _, v := range visible {
		if v.ID == acacia {
			t.Fatalf("hidden project listed for applicant")
		}
	}
	managed, err := svc.ManagedProjects(ctx, mona)
	if err != nil || len(managed) != 1 {
		t.Fatalf("managed projects: %v %+v", err, managed)
	}
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	if _, _, err := svc.Apply(ctx, alice, acacia, domain.TwoRoom); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := svc.DeleteProject(ctx, mona, acacia)
	expectKind(t, err, domain.ErrStateConflict)
	expectReason(t, err, "project has active applications")

	if _, _, err := svc.CreateEnquiry(ctx, alice, bayview, "Parking", "Is there parking?"); err != nil {
		t.Fatalf("enquiry: %v", err)
	}
	_, err = svc.DeleteProject(ctx, mona, bayview)
	expectKind(t, err, domain.ErrPermissionDenied)

	if _, err := svc.DeleteProject(ctx, mark, bayview); err != nil {
		t.Fatalf("delete: %v", err)
	}
	g := svc.Store().ExportGraph()
	if len(g.Projects) != 1 || len(g.Enquiries) != 0 {
		t.Fatalf("expected project and enquiries removed: %+v", g)
	}
	_, err = svc.Project(ctx, mark, bayview)
	expectKind(t, err, domain.ErrNotFound)
}
