package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying each failure kind. Use errors.Is against these.
var (
	ErrValidation       = errors.New("validation failure")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStateConflict    = errors.New("state conflict")
	ErrNotFound         = errors.New("not found")
	ErrPersistence      = errors.New("persistence failure")
)

// FailureKind classifies a Failure.
type FailureKind string

// Failure kinds.
const (
	KindValidation       FailureKind = "validation"
	KindPermissionDenied FailureKind = "permission_denied"
	KindStateConflict    FailureKind = "state_conflict"
	KindNotFound         FailureKind = "not_found"
	KindPersistence      FailureKind = "persistence"
)

var kindSentinels = map[FailureKind]error{
	KindValidation:       ErrValidation,
	KindPermissionDenied: ErrPermissionDenied,
	KindStateConflict:    ErrStateConflict,
	KindNotFound:         ErrNotFound,
	KindPersistence:      ErrPersistence,
}

// Failure is the typed result of an operation that did not succeed. Reason is
// human readable and safe to show to the user.
type Failure struct {
	Kind   FailureKind
	Entity EntityType
	ID     string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	msg := f.Reason
	if f.Entity != "" {
		subject := string(f.Entity)
		if f.ID != "" {
			subject += " " + f.ID
		}
		msg = subject + ": " + msg
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap exposes the kind sentinel and any underlying cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := kindSentinels[f.Kind]; ok {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// NewValidation reports malformed input.
func NewValidation(reason string) *Failure {
	return &Failure{Kind: KindValidation, Reason: reason}
}

// NewPermissionDenied reports a failed eligibility or ownership check.
func NewPermissionDenied(reason string) *Failure {
	return &Failure{Kind: KindPermissionDenied, Reason: reason}
}

// NewStateConflict reports an illegal lifecycle transition on an entity.
func NewStateConflict(entity EntityType, id any, reason string) *Failure {
	return &Failure{Kind: KindStateConflict, Entity: entity, ID: fmt.Sprint(id), Reason: reason}
}

// NewNotFound reports a missing referenced entity.
func NewNotFound(entity EntityType, id any) *Failure {
	return &Failure{Kind: KindNotFound, Entity: entity, ID: fmt.Sprint(id), Reason: "not found"}
}

// NewPersistence wraps an I/O error raised while saving or loading.
func NewPersistence(op string, err error) *Failure {
	return &Failure{Kind: KindPersistence, Reason: op, Err: err}
}

// KindOf returns the kind of the first Failure in err's chain.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// ReasonOf returns the human-readable reason of the first Failure in err's chain,
// falling back to err.Error().
func ReasonOf(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
