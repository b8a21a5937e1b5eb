package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"housingcore/internal/app"
	"housingcore/internal/config"
	"housingcore/internal/query"
	"housingcore/pkg/domain"
)

type command struct {
	args    string
	help    string
	minArgs int

	// withPassword prepends the --password value to args.
	withPassword bool

	run func(ctx context.Context, a *app.App, args []string, out io.Writer) error

	// offline commands run without loading data or logging in.
	offline func(ctx context.Context, cfg config.Config, args []string, out io.Writer) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"projects":             {help: "list projects you can browse", run: cmdProjects},
		"rows":                 {help: "list flats you are eligible to apply for", run: cmdRows},
		"apply":                {args: "<project> <flat-type>", minArgs: 2, help: "apply for a flat", run: cmdApply},
		"withdraw":             {args: "<application>", minArgs: 1, help: "request withdrawal of an application", run: applicationAction(withdraw)},
		"applications":         {args: "[project]", help: "list your applications or a project's", run: cmdApplications},
		"approve":              {args: "<application>", minArgs: 1, help: "approve a pending application", run: applicationAction(approve)},
		"reject":               {args: "<application>", minArgs: 1, help: "reject a pending application", run: applicationAction(reject)},
		"approve-withdrawal":   {args: "<application>", minArgs: 1, help: "approve a withdrawal request", run: applicationAction(approveWithdrawal)},
		"book":                 {args: "<application>", minArgs: 1, help: "book the flat of a successful application", run: cmdBook},
		"receipt":              {args: "<application>", minArgs: 1, help: "print the booking receipt", run: cmdReceipt},
		"register":             {args: "<project>", minArgs: 1, help: "register as officer for a project", run: cmdRegister},
		"registrations":        {args: "[project]", help: "list your registrations or a project's", run: cmdRegistrations},
		"approve-registration": {args: "<registration>", minArgs: 1, help: "approve an officer registration", run: registrationAction(true)},
		"reject-registration":  {args: "<registration>", minArgs: 1, help: "reject an officer registration", run: registrationAction(false)},
		"enquire":              {args: "<project> <title> <content>", minArgs: 3, help: "submit an enquiry", run: cmdEnquire},
		"edit-enquiry":         {args: "<enquiry> <title> <content>", minArgs: 3, help: "edit an unanswered enquiry", run: cmdEditEnquiry},
		"delete-enquiry":       {args: "<enquiry>", minArgs: 1, help: "delete an unanswered enquiry", run: cmdDeleteEnquiry},
		"reply":                {args: "<enquiry> <reply>", minArgs: 2, help: "reply to an enquiry", run: cmdReply},
		"enquiries":            {args: "[project|all]", help: "list your enquiries, a project's, or all", run: cmdEnquiries},
		"toggle-visibility":    {args: "<project>", minArgs: 1, help: "show or hide a managed project", run: cmdToggleVisibility},
		"delete-project":       {args: "<project>", minArgs: 1, help: "delete a managed project", run: cmdDeleteProject},
		"report":               {args: "[--flat-type t] [--marital m] [--project id] [--min-age n] [--max-age n]", help: "booking report for your projects", run: cmdReport},
		"passwd":               {args: "<new-password>", minArgs: 1, withPassword: true, help: "change your password (current one via --password)", run: cmdPasswd},
		"backup":               {args: "list | restore <stamp>", minArgs: 1, help: "list or restore archived data files", offline: cmdBackup},
	}
}

func atoi(kind, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, domain.NewValidation(fmt.Sprintf("invalid %s id %q", kind, raw))
	}
	return n, nil
}

func printWarnings(out io.Writer, res domain.Result) {
	for _, w := range res.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w.Message)
	}
}

func newTable(out io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func cmdProjects(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	projects, err := a.Browse(ctx)
	if err != nil {
		return err
	}
	tw := newTable(out, "ID", "NAME", "NEIGHBOURHOOD", "OPENS", "CLOSES", "VISIBLE", "FLATS")
	for _, p := range projects {
		flats := make([]string, 0, len(p.Flats))
		for _, f := range p.Flats {
			flats = append(flats, fmt.Sprintf("%s x%d @ $%d", f.Type, f.Units, f.Price))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\t%s\n", p.ID, p.Name, p.Neighbourhood, p.OpenDate, p.CloseDate, p.Visible, strings.Join(flats, ", "))
	}
	return tw.Flush()
}

func cmdRows(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	rows, err := a.Rows(ctx)
	if err != nil {
		return err
	}
	tw := newTable(out, "PROJECT", "NAME", "FLAT", "UNITS", "PRICE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", r.Project.ID, r.Project.Name, r.Flat.Type, r.Flat.Units, r.Flat.Price)
	}
	return tw.Flush()
}

func cmdApply(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	projectID, err := atoi("project", args[0])
	if err != nil {
		return err
	}
	ft, err := domain.ParseFlatType(args[1])
	if err != nil {
		return err
	}
	application, res, err := a.Service.Apply(ctx, user, projectID, ft)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "application %d %s\n", application.ID, application.Status)
	return nil
}

type applicationOp int

const (
	withdraw applicationOp = iota
	approve
	reject
	approveWithdrawal
)

func applicationAction(op applicationOp) func(context.Context, *app.App, []string, io.Writer) error {
	return func(ctx context.Context, a *app.App, args []string, out io.Writer) error {
		user, err := a.Session.Require()
		if err != nil {
			return err
		}
		id, err := atoi("application", args[0])
		if err != nil {
			return err
		}
		var (
			application domain.Application
			res         domain.Result
		)
		switch op {
		case withdraw:
			application, res, err = a.Service.RequestWithdrawal(ctx, user, id)
		case approve:
			application, res, err = a.Service.ApproveApplication(ctx, user, id)
		case reject:
			application, res, err = a.Service.RejectApplication(ctx, user, id)
		case approveWithdrawal:
			application, res, err = a.Service.ApproveWithdrawal(ctx, user, id)
		}
		if err != nil {
			return err
		}
		printWarnings(out, res)
		fmt.Fprintf(out, "application %d %s\n", application.ID, application.Status)
		return nil
	}
}

func cmdApplications(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	var apps []domain.Application
	if len(args) > 0 {
		projectID, err := atoi("project", args[0])
		if err != nil {
			return err
		}
		apps, err = a.Service.ProjectApplications(ctx, user, projectID)
		if err != nil {
			return err
		}
	} else if apps, err = a.Service.MyApplications(ctx, user); err != nil {
		return err
	}
	tw := newTable(out, "ID", "PROJECT", "APPLICANT", "FLAT", "STATUS", "SUBMITTED")
	for _, ap := range apps {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", ap.ID, ap.ProjectID, ap.ApplicantNRIC, ap.FlatType, ap.Status, ap.SubmittedOn)
	}
	return tw.Flush()
}

func cmdBook(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("application", args[0])
	if err != nil {
		return err
	}
	_, res, err := a.Service.Book(ctx, user, id)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	detail, err := a.Service.Receipt(ctx, user, id)
	if err != nil {
		return err
	}
	return query.WriteReceipt(out, detail)
}

func cmdReceipt(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("application", args[0])
	if err != nil {
		return err
	}
	detail, err := a.Service.Receipt(ctx, user, id)
	if err != nil {
		return err
	}
	return query.WriteReceipt(out, detail)
}

func cmdRegister(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	projectID, err := atoi("project", args[0])
	if err != nil {
		return err
	}
	reg, res, err := a.Service.Register(ctx, user, projectID)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "registration %s %s\n", reg.ID, reg.Status)
	return nil
}

func cmdRegistrations(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	var regs []domain.Registration
	if len(args) > 0 {
		projectID, err := atoi("project", args[0])
		if err != nil {
			return err
		}
		if regs, err = a.Service.ProjectRegistrations(ctx, user, projectID); err != nil {
			return err
		}
	} else if regs, err = a.Service.MyRegistrations(ctx, user); err != nil {
		return err
	}
	tw := newTable(out, "ID", "PROJECT", "OFFICER", "STATUS", "SUBMITTED")
	for _, r := range regs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.ID, r.ProjectID, r.OfficerNRIC, r.Status, r.SubmittedOn)
	}
	return tw.Flush()
}

func registrationAction(approve bool) func(context.Context, *app.App, []string, io.Writer) error {
	return func(ctx context.Context, a *app.App, args []string, out io.Writer) error {
		user, err := a.Session.Require()
		if err != nil {
			return err
		}
		var (
			reg domain.Registration
			res domain.Result
		)
		if approve {
			reg, res, err = a.Service.ApproveRegistration(ctx, user, args[0])
		} else {
			reg, res, err = a.Service.RejectRegistration(ctx, user, args[0])
		}
		if err != nil {
			return err
		}
		printWarnings(out, res)
		fmt.Fprintf(out, "registration %s %s\n", reg.ID, reg.Status)
		return nil
	}
}

func cmdEnquire(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	projectID, err := atoi("project", args[0])
	if err != nil {
		return err
	}
	enq, res, err := a.Service.CreateEnquiry(ctx, user, projectID, args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "enquiry %d %s\n", enq.ID, enq.Status)
	return nil
}

func cmdEditEnquiry(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("enquiry", args[0])
	if err != nil {
		return err
	}
	enq, res, err := a.Service.EditEnquiry(ctx, user, id, args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "enquiry %d updated\n", enq.ID)
	return nil
}

func cmdDeleteEnquiry(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("enquiry", args[0])
	if err != nil {
		return err
	}
	res, err := a.Service.DeleteEnquiry(ctx, user, id)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "enquiry %d deleted\n", id)
	return nil
}

func cmdReply(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("enquiry", args[0])
	if err != nil {
		return err
	}
	enq, res, err := a.Service.ReplyEnquiry(ctx, user, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "enquiry %d %s\n", enq.ID, enq.Status)
	return nil
}

func cmdEnquiries(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	var list []domain.Enquiry
	switch {
	case len(args) == 0:
		list, err = a.Service.MyEnquiries(ctx, user)
	case args[0] == "all":
		list, err = a.Service.AllEnquiries(ctx, user)
	default:
		var projectID int
		if projectID, err = atoi("project", args[0]); err == nil {
			list, err = a.Service.ProjectEnquiries(ctx, user, projectID)
		}
	}
	if err != nil {
		return err
	}
	tw := newTable(out, "ID", "PROJECT", "CREATOR", "STATUS", "TITLE", "REPLY")
	for _, e := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", e.ID, e.ProjectID, e.CreatorNRIC, e.Status, e.Title, e.Reply)
	}
	return tw.Flush()
}

func cmdToggleVisibility(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("project", args[0])
	if err != nil {
		return err
	}
	p, res, err := a.Service.ToggleVisibility(ctx, user, id)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "project %d visible=%t\n", p.ID, p.Visible)
	return nil
}

func cmdDeleteProject(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	id, err := atoi("project", args[0])
	if err != nil {
		return err
	}
	res, err := a.Service.DeleteProject(ctx, user, id)
	if err != nil {
		return err
	}
	printWarnings(out, res)
	fmt.Fprintf(out, "project %d deleted\n", id)
	return nil
}

func cmdReport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	var (
		flatType, marital string
		f                 query.ReportFilter
	)
	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&flatType, "flat-type", "", "2-Room or 3-Room")
	fs.StringVar(&marital, "marital", "", "Single or Married")
	fs.IntVar(&f.ProjectID, "project", 0, "project id")
	fs.IntVar(&f.MinAge, "min-age", 0, "minimum applicant age")
	fs.IntVar(&f.MaxAge, "max-age", 0, "maximum applicant age")
	if err := fs.Parse(args); err != nil {
		return domain.NewValidation(err.Error())
	}
	if flatType != "" {
		if f.FlatType, err = domain.ParseFlatType(flatType); err != nil {
			return err
		}
	}
	if marital != "" {
		if f.MaritalStatus, err = domain.ParseMaritalStatus(marital); err != nil {
			return err
		}
	}
	rows, err := a.Service.Report(ctx, user, f)
	if err != nil {
		return err
	}
	return query.WriteReport(out, rows)
}

func cmdPasswd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	user, err := a.Session.Require()
	if err != nil {
		return err
	}
	updated, _, err := a.Service.ChangePassword(ctx, user, args[0], args[1])
	if err != nil {
		return err
	}
	a.Session.Refresh(updated)
	fmt.Fprintln(out, "password changed")
	return nil
}

func cmdBackup(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	logger := app.NewLogger(cfg.Log)
	switch args[0] {
	case "list":
		snaps, err := app.ListBackups(ctx, cfg, logger)
		if err != nil {
			return err
		}
		tw := newTable(out, "STAMP", "FILES")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%s\t%d\n", s.Stamp, len(s.Keys))
		}
		return tw.Flush()
	case "restore":
		if len(args) < 2 {
			return domain.NewValidation("backup restore needs a stamp")
		}
		if err := app.Restore(ctx, cfg, args[1], logger); err != nil {
			return err
		}
		fmt.Fprintf(out, "restored %s\n", args[1])
		return nil
	default:
		return domain.NewValidation(fmt.Sprintf("unknown backup action %q", args[0]))
	}
}
