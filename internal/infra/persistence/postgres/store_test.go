package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"housingcore/internal/infra/persistence/postgres/testutil"
	"housingcore/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StateConn) {
	t.Helper()
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, conn
}

func graph() domain.Graph {
	day := domain.NewDate(2025, time.April, 2)
	return domain.Graph{
		Users: []domain.User{
			{NRIC: "S1234567A", Name: "John", Age: 35, MaritalStatus: domain.Single, Role: domain.RoleApplicant},
			{NRIC: "T2109876H", Name: "Daniel", Age: 36, MaritalStatus: domain.Single, Role: domain.RoleOfficer},
			{NRIC: "T8765432F", Name: "Michael", Age: 36, MaritalStatus: domain.Single, Role: domain.RoleManager},
		},
		Projects: []domain.Project{{ID: 2, Name: "Bayview", ManagerNRIC: "T8765432F", OfficerSlots: 1,
			Officers: []string{"T2109876H"}, OpenDate: day, CloseDate: day}},
		Enquiries: []domain.Enquiry{{ID: 6, ProjectID: 2, CreatorNRIC: "S1234567A", Title: "t", Content: "c",
			Status: domain.EnquirySubmitted, CreatedOn: day, UpdatedOn: day}},
		Registrations: []domain.Registration{{ID: "r-1", ProjectID: 2, OfficerNRIC: "T2109876H",
			Status: domain.RegistrationApproved, SubmittedOn: day}},
	}
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStub(t)
	if execs := conn.Execs(); len(execs) != 1 || !strings.Contains(execs[0], "CREATE TABLE IF NOT EXISTS state") {
		t.Fatalf("expected one DDL statement, got %v", execs)
	}
}

func TestSaveAndLoadThroughStub(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	if err := store.Save(ctx, graph()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, graph()); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if got := conn.Buckets(); len(got) != 6 {
		t.Fatalf("expected one row per bucket, got %v", got)
	}

	seq := domain.NewSequencer()
	g, err := store.Load(ctx, seq)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(g.Users) != 3 || len(g.Projects) != 1 || len(g.Enquiries) != 1 || len(g.Registrations) != 1 {
		t.Fatalf("unexpected graph %+v", g)
	}
	if g.Projects[0].Officers[0] != "T2109876H" {
		t.Fatalf("officers lost: %+v", g.Projects[0])
	}
	if seq.Peek(domain.SeqEnquiry) != 7 {
		t.Fatalf("enquiry sequence not seeded: %d", seq.Peek(domain.SeqEnquiry))
	}
}

func TestStoreFailuresArePersistenceErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		setup func(*testutil.StateConn)
		run   func(*Store) error
	}{
		{"begin", func(c *testutil.StateConn) { c.FailBegin = true }, func(s *Store) error { return s.Save(ctx, graph()) }},
		{"upsert", func(c *testutil.StateConn) { c.FailUpsert = map[string]bool{"enquiries": true} }, func(s *Store) error { return s.Save(ctx, graph()) }},
		{"commit", func(c *testutil.StateConn) { c.FailCommit = true }, func(s *Store) error { return s.Save(ctx, graph()) }},
		{"select", func(c *testutil.StateConn) { c.FailSelect = true }, func(s *Store) error {
			_, err := s.Load(ctx, domain.NewSequencer())
			return err
		}},
		{"rows", func(c *testutil.StateConn) { c.RowsErr = errors.New("broken") }, func(s *Store) error {
			_, err := s.Load(ctx, domain.NewSequencer())
			return err
		}},
		{"decode", func(c *testutil.StateConn) { c.Put("users", []byte("{not json")) }, func(s *Store) error {
			_, err := s.Load(ctx, domain.NewSequencer())
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, conn := openStub(t)
			tc.setup(conn)
			if err := tc.run(store); !errors.Is(err, domain.ErrPersistence) {
				t.Fatalf("expected persistence failure, got %v", err)
			}
		})
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStateDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://example", nil); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	if err := store.Save(ctx, graph()); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, _ := conn.Payload("users")

	next := graph()
	next.Users = next.Users[:1]
	conn.FailUpsert = map[string]bool{"bookings": true}
	if err := store.Save(ctx, next); err == nil {
		t.Fatal("expected save failure")
	}
	if after, _ := conn.Payload("users"); string(after) != string(before) {
		t.Fatalf("partial save leaked: %s", after)
	}
}
