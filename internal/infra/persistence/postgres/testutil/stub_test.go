package testutil

import (
	"context"
	"testing"
)

func TestStateDBUpsertCommitsPerBucket(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	defer func() { _ = db.Close() }()

	upsert := `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
	for _, payload := range []string{"[1]", "[2]"} {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := tx.ExecContext(ctx, upsert, "users", []byte(payload)); err != nil {
			t.Fatalf("exec: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	if got := conn.Buckets(); len(got) != 1 || got[0] != "users" {
		t.Fatalf("expected one bucket, got %v", got)
	}

	var bucket string
	var payload []byte
	if err := db.QueryRowContext(ctx, "SELECT bucket, payload FROM state").Scan(&bucket, &payload); err != nil {
		t.Fatalf("query: %v", err)
	}
	if bucket != "users" || string(payload) != "[2]" {
		t.Fatalf("unexpected row %s %s", bucket, payload)
	}
}

func TestStateDBRollbackDiscardsUpserts(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	defer func() { _ = db.Close() }()
	conn.Put("projects", []byte("[]"))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO state(bucket,payload) VALUES($1,$2)", "projects", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if p, _ := conn.Payload("projects"); string(p) != "[]" {
		t.Fatalf("rollback leaked payload %s", p)
	}
}

func TestStateDBFailureSwitches(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	defer func() { _ = db.Close() }()

	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatal("expected ping failure")
	}
	conn.FailPing = false
	conn.FailSelect = true
	if _, err := db.QueryContext(ctx, "SELECT bucket, payload FROM state"); err == nil {
		t.Fatal("expected select failure")
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM state"); err == nil {
		t.Fatal("expected unsupported statement error")
	}
}
