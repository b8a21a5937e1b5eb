// Package domain defines the housing-allocation entities, value types, and
// rule evaluation primitives shared by every layer of housingcore.
package domain

import (
	"fmt"
	"strings"
)

// EntityType identifies the type of record stored in the entity graph.
type EntityType string

// Supported entity type identifiers used in Change records, failures, and persistence buckets.
const (
	EntityUser         EntityType = "user"
	EntityProject      EntityType = "project"
	EntityFlat         EntityType = "flat"
	EntityApplication  EntityType = "application"
	EntityRegistration EntityType = "registration"
	EntityEnquiry      EntityType = "enquiry"
	EntityBooking      EntityType = "booking"
)

// Role tags a user with the permission policy that applies to them.
type Role string

// Canonical roles.
const (
	RoleApplicant Role = "Applicant"
	RoleOfficer   Role = "Officer"
	RoleManager   Role = "Manager"
)

// ParseRole accepts the persisted role names case-insensitively, including the
// "HDB Officer" / "HDB Manager" spellings found in older user files.
func ParseRole(raw string) (Role, error) {
	key := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	switch key {
	case "applicant":
		return RoleApplicant, nil
	case "officer", "hdbofficer":
		return RoleOfficer, nil
	case "manager", "hdbmanager":
		return RoleManager, nil
	}
	return "", NewValidation(fmt.Sprintf("unknown role %q", raw))
}

// MaritalStatus drives flat-type eligibility.
type MaritalStatus string

// Marital statuses recognised by the eligibility rules.
const (
	Single  MaritalStatus = "Single"
	Married MaritalStatus = "Married"
)

// ParseMaritalStatus parses a persisted marital status case-insensitively.
func ParseMaritalStatus(raw string) (MaritalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "single":
		return Single, nil
	case "married":
		return Married, nil
	}
	return "", NewValidation(fmt.Sprintf("unknown marital status %q", raw))
}

// FlatType is a housing unit category with its own eligibility rule, price and inventory.
type FlatType string

// Flat types. TwoRoom is the smaller class, ThreeRoom the larger.
const (
	TwoRoom   FlatType = "2-Room"
	ThreeRoom FlatType = "3-Room"
)

// FlatTypes lists every flat type in display order.
var FlatTypes = []FlatType{TwoRoom, ThreeRoom}

// ParseFlatType accepts "2-Room", "2 room", "TWO_ROOM" and similar spellings.
func ParseFlatType(raw string) (FlatType, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(raw)))
	switch key {
	case "2room", "tworoom":
		return TwoRoom, nil
	case "3room", "threeroom":
		return ThreeRoom, nil
	}
	return "", NewValidation(fmt.Sprintf("unknown flat type %q", raw))
}

// Smaller reports whether the flat type belongs to the smaller class.
func (t FlatType) Smaller() bool { return t == TwoRoom }

// ApplicationStatus is the lifecycle state of an Application.
type ApplicationStatus string

// Application lifecycle states.
const (
	ApplicationPending             ApplicationStatus = "Pending"
	ApplicationSuccessful          ApplicationStatus = "Successful"
	ApplicationUnsuccessful        ApplicationStatus = "Unsuccessful"
	ApplicationBooked              ApplicationStatus = "Booked"
	ApplicationWithdrawalRequested ApplicationStatus = "WithdrawalRequested"
	ApplicationWithdrawn           ApplicationStatus = "Withdrawn"
)

// ParseApplicationStatus parses a persisted application status.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	for _, s := range []ApplicationStatus{
		ApplicationPending, ApplicationSuccessful, ApplicationUnsuccessful,
		ApplicationBooked, ApplicationWithdrawalRequested, ApplicationWithdrawn,
	} {
		if normalizeStatus(raw) == normalizeStatus(string(s)) {
			return s, nil
		}
	}
	return "", NewValidation(fmt.Sprintf("unknown application status %q", raw))
}

// RegistrationStatus is the lifecycle state of an officer Registration.
type RegistrationStatus string

// Registration lifecycle states.
const (
	RegistrationPending  RegistrationStatus = "Pending"
	RegistrationApproved RegistrationStatus = "Approved"
	RegistrationRejected RegistrationStatus = "Rejected"
)

// ParseRegistrationStatus parses a persisted registration status.
func ParseRegistrationStatus(raw string) (RegistrationStatus, error) {
	for _, s := range []RegistrationStatus{RegistrationPending, RegistrationApproved, RegistrationRejected} {
		if normalizeStatus(raw) == normalizeStatus(string(s)) {
			return s, nil
		}
	}
	return "", NewValidation(fmt.Sprintf("unknown registration status %q", raw))
}

// EnquiryStatus is the lifecycle state of an Enquiry.
type EnquiryStatus string

// Enquiry lifecycle states.
const (
	EnquirySubmitted EnquiryStatus = "Submitted"
	EnquiryReplied   EnquiryStatus = "Replied"
)

// ParseEnquiryStatus parses a persisted enquiry status.
func ParseEnquiryStatus(raw string) (EnquiryStatus, error) {
	for _, s := range []EnquiryStatus{EnquirySubmitted, EnquiryReplied} {
		if normalizeStatus(raw) == normalizeStatus(string(s)) {
			return s, nil
		}
	}
	return "", NewValidation(fmt.Sprintf("unknown enquiry status %q", raw))
}

func normalizeStatus(raw string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(strings.TrimSpace(raw)))
}

// User is an account holder. NRIC is the immutable, globally unique identity key.
type User struct {
	NRIC          string        `json:"nric"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	MaritalStatus MaritalStatus `json:"marital_status"`
	Password      string        `json:"password"`
	Role          Role          `json:"role"`
}

// Flat is the inventory of one flat type within a project.
type Flat struct {
	ProjectID int      `json:"project_id"`
	Type      FlatType `json:"type"`
	Units     int      `json:"units"`
	Price     int      `json:"price"`
}

// Project is a housing project listing owned by a manager.
type Project struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Neighbourhood string   `json:"neighbourhood"`
	Visible       bool     `json:"visible"`
	OpenDate      Date     `json:"open_date"`
	CloseDate     Date     `json:"close_date"`
	ManagerNRIC   string   `json:"manager_nric"`
	OfficerSlots  int      `json:"officer_slots"`
	Officers      []string `json:"officers"`
	Flats         []Flat   `json:"flats"`
}

// Flat returns the project's flat record of the given type.
func (p Project) Flat(t FlatType) (Flat, bool) {
	for _, f := range p.Flats {
		if f.Type == t {
			return f, true
		}
	}
	return Flat{}, false
}

// HasOfficer reports whether nric is assigned to the project as an officer.
func (p Project) HasOfficer(nric string) bool {
	for _, o := range p.Officers {
		if o == nric {
			return true
		}
	}
	return false
}

// RemainingSlots returns how many more officers may be assigned.
func (p Project) RemainingSlots() int {
	return p.OfficerSlots - len(p.Officers)
}

// MinPrice returns the lowest selling price across the project's flats.
func (p Project) MinPrice() (int, bool) {
	if len(p.Flats) == 0 {
		return 0, false
	}
	lowest := p.Flats[0].Price
	for _, f := range p.Flats[1:] {
		if f.Price < lowest {
			lowest = f.Price
		}
	}
	return lowest, true
}

// OpenOn reports whether d falls inside the application window, inclusive.
func (p Project) OpenOn(d Date) bool {
	return !d.Before(p.OpenDate) && !d.After(p.CloseDate)
}

// Application is an applicant's request for a flat type within a project.
type Application struct {
	ID            int               `json:"id"`
	ProjectID     int               `json:"project_id"`
	ApplicantNRIC string            `json:"applicant_nric"`
	FlatType      FlatType          `json:"flat_type"`
	Status        ApplicationStatus `json:"status"`
	SubmittedOn   Date              `json:"submitted_on"`
}

// Active reports whether the application still counts against the
// one-application-per-project limit.
func (a Application) Active() bool { return a.Status != ApplicationWithdrawn }

// Registration is an officer's request to help manage a project.
type Registration struct {
	ID          string             `json:"id"`
	ProjectID   int                `json:"project_id"`
	OfficerNRIC string             `json:"officer_nric"`
	Status      RegistrationStatus `json:"status"`
	SubmittedOn Date               `json:"submitted_on"`
}

// Active reports whether the registration is pending or approved.
func (r Registration) Active() bool {
	return r.Status == RegistrationPending || r.Status == RegistrationApproved
}

// Enquiry is a question raised by a user about a project.
type Enquiry struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Reply       string        `json:"reply"`
	CreatorNRIC string        `json:"creator_nric"`
	ProjectID   int           `json:"project_id"`
	ReplierNRIC string        `json:"replier_nric"`
	Status      EnquiryStatus `json:"status"`
	CreatedOn   Date          `json:"created_on"`
	UpdatedOn   Date          `json:"updated_on"`
}

// Booking is the terminal allocation of one flat unit to an applicant.
type Booking struct {
	ID            int      `json:"id"`
	FlatType      FlatType `json:"flat_type"`
	ProjectID     int      `json:"project_id"`
	ApplicantNRIC string   `json:"applicant_nric"`
	OfficerNRIC   string   `json:"officer_nric"`
	BookedOn      Date     `json:"booked_on"`
}
