package storage

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"housingcore/internal/config"
	"housingcore/internal/infra/persistence/csvfile"
	"housingcore/internal/infra/persistence/memory"
	"housingcore/internal/infra/persistence/postgres"
	"housingcore/internal/infra/persistence/postgres/testutil"
	"housingcore/internal/infra/persistence/sqlite"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, _ := testutil.NewStateDB()
	restore := postgres.OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()

	cases := []struct {
		driver string
		check  func(t *testing.T, backend any)
	}{
		{config.StorageCSV, func(t *testing.T, b any) {
			s, ok := b.(*csvfile.Store)
			if !ok {
				t.Fatalf("expected csv store, got %T", b)
			}
			if s.Paths().Users != filepath.Join(dir, "users.csv") {
				t.Fatalf("unexpected users path %s", s.Paths().Users)
			}
		}},
		{config.StorageSQLite, func(t *testing.T, b any) {
			if _, ok := b.(*sqlite.Store); !ok {
				t.Fatalf("expected sqlite store, got %T", b)
			}
		}},
		{config.StoragePostgres, func(t *testing.T, b any) {
			if _, ok := b.(*postgres.Store); !ok {
				t.Fatalf("expected postgres store, got %T", b)
			}
		}},
		{config.StorageMemory, func(t *testing.T, b any) {
			if _, ok := b.(*memory.Store); !ok {
				t.Fatalf("expected memory store, got %T", b)
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := config.Config{
				Data: config.DataConfig{Dir: dir, UsersFile: "users.csv", ProjectsFile: "projects.csv",
					ApplicationsFile: "applications.csv", EnquiriesFile: "enquiries.csv",
					BookingsFile: "bookings.csv", RegistrationsFile: "registrations.csv"},
				Storage: config.StorageConfig{Driver: tc.driver, SQLitePath: filepath.Join(dir, "state.db")},
			}
			backend, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("open %s: %v", tc.driver, err)
			}
			tc.check(t, backend)
			if c, ok := backend.(io.Closer); ok && tc.driver == config.StorageSQLite {
				_ = c.Close()
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.Config{Storage: config.StorageConfig{Driver: "mongo"}}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
