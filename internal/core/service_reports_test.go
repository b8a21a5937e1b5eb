package core_test

import (
	"context"
	"testing"

	"housingcore/internal/core"
	"housingcore/internal/query"
	"housingcore/pkg/domain"
)

func applyFor(ctx context.Context, t *testing.T, svc *core.Service, u domain.User, project int, ft domain.FlatType) domain.Application {
	t.Helper()
	app, _, err := svc.Apply(ctx, u, project, ft)
	if err != nil {
		t.Fatalf("apply %s: %v", u.Name, err)
	}
	return app
}

func TestReceiptAndReport(t *testing.T) {
	ctx := context.Background()
	svc := newFixtureService(t)

	aliceApp := applyFor(ctx, t, svc, alice, acacia, domain.TwoRoom)
	benApp := applyFor(ctx, t, svc, ben, acacia, domain.ThreeRoom)
	for _, id := range []int{aliceApp.ID, benApp.ID} {
		if _, _, err := svc.ApproveApplication(ctx, mona, id); err != nil {
			t.Fatalf("approve %d: %v", id, err)
		}
		if _, _, err := svc.Book(ctx, olivia, id); err != nil {
			t.Fatalf("book %d: %v", id, err)
		}
	}

	receipt, err := svc.Receipt(ctx, alice, aliceApp.ID)
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	if receipt.ApplicantName != "Alice" || receipt.ProjectName != "Acacia Breeze" || receipt.Price != 350000 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	_, err = svc.Receipt(ctx, carl, aliceApp.ID)
	expectKind(t, err, domain.ErrPermissionDenied)

	all, err := svc.Report(ctx, mona, query.ReportFilter{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(all))
	}
	married, _ := svc.Report(ctx, mona, query.ReportFilter{MaritalStatus: domain.Married})
	if len(married) != 1 || married[0].ApplicantNRIC != ben.NRIC {
		t.Fatalf("unexpected married report %+v", married)
	}
	other, _ := svc.Report(ctx, mark, query.ReportFilter{ManagerNRIC: mona.NRIC})
	if len(other) != 0 {
		t.Fatalf("manager must only see own projects, got %+v", other)
	}
	_, err = svc.Report(ctx, olivia, query.ReportFilter{})
	expectKind(t, err, domain.ErrPermissionDenied)
}
