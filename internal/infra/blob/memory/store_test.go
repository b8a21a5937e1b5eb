package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"housingcore/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	meta := map[string]string{"k": "v"}
	if _, err := st.Put(ctx, "x/a", strings.NewReader("hello"), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["k"] = "mutated"
	info, err := st.Head(ctx, "x/a")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Metadata["k"] != "v" || info.Size != 5 {
		t.Fatalf("metadata aliased or size wrong: %+v", info)
	}
	if _, err := st.Put(ctx, "x/a", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := st.Get(ctx, "x/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "hello" {
		t.Fatalf("unexpected body %q", b)
	}
	if _, _, err := st.Get(ctx, "x/missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.Put(ctx, "y/b", strings.NewReader(""), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	infos, _ := st.List(ctx, "x/")
	if len(infos) != 1 || infos[0].Key != "x/a" {
		t.Fatalf("unexpected list %+v", infos)
	}
	if ok, _ := st.Delete(ctx, "x/a"); !ok {
		t.Fatal("expected delete to report existing key")
	}
	if ok, _ := st.Delete(ctx, "x/a"); ok {
		t.Fatal("expected second delete to report missing")
	}
}
