package domain

import (
	"context"
	"errors"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn, Message: "low stock"}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "no units left"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	if w := result.Warnings(); len(w) != 1 || w[0].Rule != "warn" {
		t.Fatalf("unexpected warnings %+v", w)
	}
	err := RuleViolationError{Result: result}
	if err.Error() != "no units left" {
		t.Fatalf("error should list blocking messages only, got %q", err.Error())
	}
}

func TestRuleViolationErrorWithoutMessages(t *testing.T) {
	if got := (RuleViolationError{}).Error(); got != "transaction blocked by rules" {
		t.Fatalf("unexpected empty message %q", got)
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"first"})
	engine.Register(staticRule{"second"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || res.Violations[0].Rule != "first" {
		t.Fatalf("expected violations in registration order, got %+v", res.Violations)
	}
	if got := engine.Rules(); len(got) != 2 || got[1].Name() != "second" {
		t.Fatalf("unexpected rules %+v", got)
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); !errors.Is(err, errBoom) {
		t.Fatalf("expected evaluation error, got %v", err)
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

var errBoom = errors.New("boom")

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, errBoom
}

type emptyView struct{}

func (emptyView) ListUsers() []User                            { return nil }
func (emptyView) ListProjects() []Project                      { return nil }
func (emptyView) ListApplications() []Application              { return nil }
func (emptyView) ListRegistrations() []Registration            { return nil }
func (emptyView) ListEnquiries() []Enquiry                     { return nil }
func (emptyView) ListBookings() []Booking                      { return nil }
func (emptyView) FindUser(string) (User, bool)                 { return User{}, false }
func (emptyView) FindProject(int) (Project, bool)              { return Project{}, false }
func (emptyView) FindApplication(int) (Application, bool)      { return Application{}, false }
func (emptyView) FindRegistration(string) (Registration, bool) { return Registration{}, false }
func (emptyView) FindEnquiry(int) (Enquiry, bool)              { return Enquiry{}, false }
