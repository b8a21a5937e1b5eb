package query

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"housingcore/pkg/domain"
)

// BookingDetail joins a booking with its applicant and project.
type BookingDetail struct {
	BookingID     int
	ApplicantName string
	ApplicantNRIC string
	Age           int
	MaritalStatus domain.MaritalStatus
	FlatType      domain.FlatType
	ProjectID     int
	ProjectName   string
	Neighbourhood string
	Price         int
	BookedOn      domain.Date
	OfficerNRIC   string
}

// ReportFilter narrows a booking report. Zero fields are ignored; MaxAge of
// zero means no upper bound.
type ReportFilter struct {
	ManagerNRIC   string
	ProjectID     int
	FlatType      domain.FlatType
	MaritalStatus domain.MaritalStatus
	MinAge        int
	MaxAge        int
}

func (f ReportFilter) matches(d BookingDetail, manager string) bool {
	switch {
	case f.ManagerNRIC != "" && manager != f.ManagerNRIC:
		return false
	case f.ProjectID != 0 && d.ProjectID != f.ProjectID:
		return false
	case f.FlatType != "" && d.FlatType != f.FlatType:
		return false
	case f.MaritalStatus != "" && d.MaritalStatus != f.MaritalStatus:
		return false
	case d.Age < f.MinAge:
		return false
	case f.MaxAge > 0 && d.Age > f.MaxAge:
		return false
	}
	return true
}

// BookingReport returns booking details matching f in booking order.
// Bookings whose applicant or project no longer resolves are skipped.
func BookingReport(view domain.RuleView, f ReportFilter) []BookingDetail {
	var out []BookingDetail
	for _, b := range view.ListBookings() {
		detail, manager, err := detailOf(view, b)
		if err != nil {
			continue
		}
		if f.matches(detail, manager) {
			out = append(out, detail)
		}
	}
	return out
}

// Receipt resolves the full detail of one booking.
func Receipt(view domain.RuleView, b domain.Booking) (BookingDetail, error) {
	detail, _, err := detailOf(view, b)
	return detail, err
}

func detailOf(view domain.RuleView, b domain.Booking) (BookingDetail, string, error) {
	user, ok := view.FindUser(b.ApplicantNRIC)
	if !ok {
		return BookingDetail{}, "", domain.NewNotFound(domain.EntityUser, b.ApplicantNRIC)
	}
	project, ok := view.FindProject(b.ProjectID)
	if !ok {
		return BookingDetail{}, "", domain.NewNotFound(domain.EntityProject, b.ProjectID)
	}
	flat, _ := project.Flat(b.FlatType)
	return BookingDetail{
		BookingID:     b.ID,
		ApplicantName: user.Name,
		ApplicantNRIC: user.NRIC,
		Age:           user.Age,
		MaritalStatus: user.MaritalStatus,
		FlatType:      b.FlatType,
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		Neighbourhood: project.Neighbourhood,
		Price:         flat.Price,
		BookedOn:      b.BookedOn,
		OfficerNRIC:   b.OfficerNRIC,
	}, project.ManagerNRIC, nil
}

// WriteReceipt renders d as a labelled receipt.
func WriteReceipt(w io.Writer, d BookingDetail) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	lines := [][2]string{
		{"Booking", fmt.Sprint(d.BookingID)},
		{"Applicant", d.ApplicantName},
		{"NRIC", d.ApplicantNRIC},
		{"Age", fmt.Sprint(d.Age)},
		{"Marital status", string(d.MaritalStatus)},
		{"Flat type", string(d.FlatType)},
		{"Project", d.ProjectName},
		{"Neighbourhood", d.Neighbourhood},
		{"Price", fmt.Sprintf("$%d", d.Price)},
		{"Booked on", d.BookedOn.String()},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", l[0], l[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteReport renders rows as an aligned table with a header.
func WriteReport(w io.Writer, rows []BookingDetail) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"BOOKING", "APPLICANT", "NRIC", "AGE", "MARITAL", "FLAT", "PROJECT", "PRICE", "BOOKED"}, "\t"))
	for _, d := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			d.BookingID, d.ApplicantName, d.ApplicantNRIC, d.Age, d.MaritalStatus, d.FlatType, d.ProjectName, d.Price, d.BookedOn)
	}
	return tw.Flush()
}
