package domain

import (
	"errors"
	"testing"
)

func TestParseEnums(t *testing.T) {
	if r, err := ParseRole("HDB Officer"); err != nil || r != RoleOfficer {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
	if m, err := ParseMaritalStatus("married"); err != nil || m != Married {
		t.Fatalf("ParseMaritalStatus: %v %v", m, err)
	}
	for _, raw := range []string{"2-Room", "2 room", "TWO_ROOM"} {
		if ft, err := ParseFlatType(raw); err != nil || ft != TwoRoom {
			t.Fatalf("ParseFlatType(%q): %v %v", raw, ft, err)
		}
	}
	if s, err := ParseApplicationStatus("withdrawal_requested"); err != nil || s != ApplicationWithdrawalRequested {
		t.Fatalf("ParseApplicationStatus: %v %v", s, err)
	}
	if s, err := ParseRegistrationStatus("APPROVED"); err != nil || s != RegistrationApproved {
		t.Fatalf("ParseRegistrationStatus: %v %v", s, err)
	}
	if s, err := ParseEnquiryStatus("replied"); err != nil || s != EnquiryReplied {
		t.Fatalf("ParseEnquiryStatus: %v %v", s, err)
	}
	for _, fn := range []func() error{
		func() error { _, err := ParseRole("admin"); return err },
		func() error { _, err := ParseFlatType("5-Room"); return err },
		func() error { _, err := ParseApplicationStatus("lost"); return err },
	} {
		if err := fn(); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation failure, got %v", err)
		}
	}
}

func TestProjectHelpers(t *testing.T) {
	p := Project{
		OfficerSlots: 3,
		Officers:     []string{"T1"},
		Flats:        []Flat{{Type: TwoRoom, Price: 300}, {Type: ThreeRoom, Price: 200}},
	}
	if min, ok := p.MinPrice(); !ok || min != 200 {
		t.Fatalf("MinPrice = %d %v", min, ok)
	}
	if p.RemainingSlots() != 2 || !p.HasOfficer("T1") || p.HasOfficer("T2") {
		t.Fatalf("officer helpers broken")
	}
	if _, ok := (Project{}).MinPrice(); ok {
		t.Fatalf("empty project has no min price")
	}
	clone := CloneProject(p)
	clone.Flats[0].Units = 9
	clone.Officers[0] = "X"
	if p.Flats[0].Units != 0 || p.Officers[0] != "T1" {
		t.Fatalf("clone aliases source slices")
	}
}
