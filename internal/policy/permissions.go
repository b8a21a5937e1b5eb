package policy

import (
	"fmt"

	"housingcore/pkg/domain"
)

// Action names a permission-checked user action on a project.
type Action string

// Actions evaluated by CanPerform.
const (
	ActionApply                   Action = "apply"
	ActionView                    Action = "view"
	ActionWithdraw                Action = "withdraw"
	ActionViewProjectApplications Action = "view_project_applications"
	ActionApproveApplications     Action = "approve_applications"
	ActionCreateEnquiry           Action = "create_enquiry"
	ActionReplyEnquiry            Action = "reply_enquiry"
	ActionBook                    Action = "book"
	ActionProcessWithdrawal       Action = "process_withdrawal"
	ActionManageProject           Action = "manage_project"
	ActionRegister                Action = "register"
	ActionViewEnquiries           Action = "view_enquiries"
)

// Request is an action plus, for ActionApply, the requested flat type. An
// empty FlatType means "any flat type of the project".
type Request struct {
	Action   Action
	FlatType domain.FlatType
}

type subject struct {
	view     domain.RuleView
	user     domain.User
	project  domain.Project
	flatType domain.FlatType
}

type check func(s subject) error

type ruleSet map[Action][]check

var applicantRules = ruleSet{
	ActionApply:         {projectVisible, flatAvailableAndEligible},
	ActionView:          {anyOf(hasApplication, all(projectVisible, hasEligibleFlat))},
	ActionWithdraw:      {allow},
	ActionCreateEnquiry: {anyOf(hasApplication, projectVisible)},
}

// officerRules start from the applicant rules; an officer applying is treated as
// an applicant except on projects they help manage.
var officerRules = extend(applicantRules, ruleSet{
	ActionApply:                   prepend(applicantRules[ActionApply], notAssignedOfficer, noActiveRegistration),
	ActionView:                    {anyOf(assignedOfficer, all(applicantRules[ActionView]...))},
	ActionViewProjectApplications: {assignedOfficer},
	ActionBook:                    {assignedOfficer},
	ActionReplyEnquiry:            {assignedOfficer},
	ActionViewEnquiries:           {assignedOfficer},
	ActionProcessWithdrawal:       {assignedOfficer},
	ActionRegister:                {notAssignedOfficer, noApplication},
})

var managerRules = ruleSet{
	ActionApply:                   {deny("managers cannot apply for flats")},
	ActionView:                    {allow},
	ActionViewProjectApplications: {ownsProject},
	ActionApproveApplications:     {ownsProject},
	ActionReplyEnquiry:            {ownsProject},
	ActionViewEnquiries:           {allow},
	ActionProcessWithdrawal:       {ownsProject},
	ActionManageProject:           {ownsProject},
}

var roleRules = map[domain.Role]ruleSet{
	domain.RoleApplicant: applicantRules,
	domain.RoleOfficer:   officerRules,
	domain.RoleManager:   managerRules,
}

// Check evaluates req for user on project against the current snapshot. It
// returns a PermissionDenied failure carrying the first failing reason.
func Check(view domain.RuleView, user domain.User, project domain.Project, req Request) error {
	rules, ok := roleRules[user.Role]
	if !ok {
		return domain.NewPermissionDenied(fmt.Sprintf("unknown role %q", user.Role))
	}
	checks, ok := rules[req.Action]
	if !ok {
		return domain.NewPermissionDenied(fmt.Sprintf("%s may not %s", roleLabel(user.Role), actionLabel(req.Action)))
	}
	s := subject{view: view, user: user, project: project, flatType: req.FlatType}
	for _, c := range checks {
		if err := c(s); err != nil {
			return err
		}
	}
	return nil
}

// CanPerform reports whether user may take action on project.
func CanPerform(view domain.RuleView, user domain.User, project domain.Project, action Action) bool {
	return Check(view, user, project, Request{Action: action}) == nil
}

func extend(base, overrides ruleSet) ruleSet {
	out := make(ruleSet, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func prepend(base []check, extra ...check) []check {
	return append(append([]check(nil), extra...), base...)
}

func all(checks ...check) check {
	return func(s subject) error {
		for _, c := range checks {
			if err := c(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// anyOf passes when one check passes and otherwise reports the last failure.
func anyOf(checks ...check) check {
	return func(s subject) error {
		var last error
		for _, c := range checks {
			if last = c(s); last == nil {
				return nil
			}
		}
		return last
	}
}

func allow(subject) error { return nil }

func deny(reason string) check {
	return func(subject) error { return domain.NewPermissionDenied(reason) }
}

func projectVisible(s subject) error {
	if !s.project.Visible {
		return domain.NewPermissionDenied("project is not visible")
	}
	return nil
}

func hasEligibleFlat(s subject) error {
	if len(EligibleTypes(s.user, s.project)) == 0 {
		return domain.NewPermissionDenied("not eligible for any flat type in this project")
	}
	return nil
}

func flatAvailableAndEligible(s subject) error {
	if s.flatType == "" {
		for _, f := range s.project.Flats {
			if f.Units > 0 && IsEligible(s.user, f.Type) {
				return nil
			}
		}
		return domain.NewPermissionDenied("no eligible flat type with units available")
	}
	flat, ok := s.project.Flat(s.flatType)
	if !ok {
		return domain.NewPermissionDenied(fmt.Sprintf("project offers no %s flats", s.flatType))
	}
	if !IsEligible(s.user, s.flatType) {
		return domain.NewPermissionDenied(fmt.Sprintf("not eligible for %s flats", s.flatType))
	}
	if flat.Units < 1 {
		return domain.NewPermissionDenied("no units available")
	}
	return nil
}

func assignedOfficer(s subject) error {
	if !s.project.HasOfficer(s.user.NRIC) {
		return domain.NewPermissionDenied("not an assigned officer of this project")
	}
	return nil
}

func notAssignedOfficer(s subject) error {
	if s.project.HasOfficer(s.user.NRIC) {
		return domain.NewPermissionDenied("officers cannot act as applicants on a project they manage")
	}
	return nil
}

func noActiveRegistration(s subject) error {
	for _, r := range s.view.ListRegistrations() {
		if r.ProjectID == s.project.ID && r.OfficerNRIC == s.user.NRIC && r.Active() {
			return domain.NewPermissionDenied("cannot apply to a project you registered to manage")
		}
	}
	return nil
}

func hasApplication(s subject) error {
	for _, a := range s.view.ListApplications() {
		if a.ProjectID == s.project.ID && a.ApplicantNRIC == s.user.NRIC && a.Active() {
			return nil
		}
	}
	return domain.NewPermissionDenied("no application for this project")
}

func noApplication(s subject) error {
	if hasApplication(s) == nil {
		return domain.NewPermissionDenied("cannot register for a project you applied to")
	}
	return nil
}

func ownsProject(s subject) error {
	if s.project.ManagerNRIC != s.user.NRIC {
		return domain.NewPermissionDenied("not owner of this resource")
	}
	return nil
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RoleApplicant:
		return "applicants"
	case domain.RoleOfficer:
		return "officers"
	case domain.RoleManager:
		return "managers"
	}
	return string(r)
}

func actionLabel(a Action) string {
	switch a {
	case ActionViewProjectApplications:
		return "view project applications"
	case ActionApproveApplications:
		return "approve applications"
	case ActionCreateEnquiry:
		return "create enquiries"
	case ActionReplyEnquiry:
		return "reply to enquiries"
	case ActionProcessWithdrawal:
		return "process withdrawals"
	case ActionManageProject:
		return "manage projects"
	case ActionViewEnquiries:
		return "view project enquiries"
	}
	return string(a)
}
