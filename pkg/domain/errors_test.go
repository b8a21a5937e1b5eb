package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestFailureKindsUnwrapToSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		kind     FailureKind
	}{
		{NewValidation("bad"), ErrValidation, KindValidation},
		{NewPermissionDenied("no"), ErrPermissionDenied, KindPermissionDenied},
		{NewStateConflict(EntityApplication, 3, "already booked"), ErrStateConflict, KindStateConflict},
		{NewNotFound(EntityProject, 9), ErrNotFound, KindNotFound},
		{NewPersistence("save users", io.ErrShortWrite), ErrPersistence, KindPersistence},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("op: %w", tc.err)
		if !errors.Is(wrapped, tc.sentinel) {
			t.Errorf("%v does not match %v", tc.err, tc.sentinel)
		}
		if kind, ok := KindOf(wrapped); !ok || kind != tc.kind {
			t.Errorf("KindOf(%v) = %s", tc.err, kind)
		}
	}
}

func TestFailureMessages(t *testing.T) {
	err := NewStateConflict(EntityApplication, 3, "already booked")
	if err.Error() != "application 3: already booked" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if ReasonOf(err) != "already booked" {
		t.Fatalf("unexpected reason %q", ReasonOf(err))
	}
	persist := NewPersistence("save users", io.ErrShortWrite)
	if !errors.Is(persist, io.ErrShortWrite) {
		t.Fatalf("persistence failure must expose its cause")
	}
	if ReasonOf(errors.New("plain")) != "plain" || ReasonOf(nil) != "" {
		t.Fatalf("ReasonOf fallback broken")
	}
}
