package csvfile

import (
	"fmt"
	"strconv"
	"strings"

	"housingcore/pkg/domain"
)

// listSep joins list-valued columns inside a single CSV field.
const listSep = ";"

// table describes one collection file: its header row and the row codec.
// Column order is load-bearing; decoders index by position.
type table[T any] struct {
	name   string
	header []string
	encode func(T) []string
	decode func([]string) (T, error)
}

var usersTable = table[domain.User]{
	name:   "users",
	header: []string{"Name", "NRIC", "Age", "MaritalStatus", "Password", "Role"},
	encode: func(u domain.User) []string {
		return []string{u.Name, u.NRIC, strconv.Itoa(u.Age), string(u.MaritalStatus), u.Password, string(u.Role)}
	},
	decode: func(rec []string) (domain.User, error) {
		var u domain.User
		var err error
		u.Name = strings.TrimSpace(rec[0])
		u.NRIC = strings.ToUpper(strings.TrimSpace(rec[1]))
		if u.Age, err = parseInt("Age", rec[2]); err != nil {
			return u, err
		}
		if u.MaritalStatus, err = domain.ParseMaritalStatus(rec[3]); err != nil {
			return u, err
		}
		u.Password = rec[4]
		if u.Role, err = domain.ParseRole(rec[5]); err != nil {
			return u, err
		}
		return u, nil
	},
}

var projectsTable = table[domain.Project]{
	name: "projects",
	header: []string{"ID", "Name", "Neighbourhood", "Visible", "FlatTypes", "Units", "Prices",
		"OpenDate", "CloseDate", "Manager", "OfficerSlots", "Officers"},
	encode: func(p domain.Project) []string {
		types := make([]string, 0, len(p.Flats))
		units := make([]string, 0, len(p.Flats))
		prices := make([]string, 0, len(p.Flats))
		for _, f := range p.Flats {
			types = append(types, string(f.Type))
			units = append(units, strconv.Itoa(f.Units))
			prices = append(prices, strconv.Itoa(f.Price))
		}
		return []string{
			strconv.Itoa(p.ID), p.Name, p.Neighbourhood, strconv.FormatBool(p.Visible),
			strings.Join(types, listSep), strings.Join(units, listSep), strings.Join(prices, listSep),
			p.OpenDate.String(), p.CloseDate.String(), p.ManagerNRIC,
			strconv.Itoa(p.OfficerSlots), strings.Join(p.Officers, listSep),
		}
	},
	decode: func(rec []string) (domain.Project, error) {
		var p domain.Project
		var err error
		if p.ID, err = parseInt("ID", rec[0]); err != nil {
			return p, err
		}
		p.Name = strings.TrimSpace(rec[1])
		p.Neighbourhood = strings.TrimSpace(rec[2])
		if p.Visible, err = parseBool("Visible", rec[3]); err != nil {
			return p, err
		}
		if p.Flats, err = decodeFlats(p.ID, rec[4], rec[5], rec[6]); err != nil {
			return p, err
		}
		if p.OpenDate, err = domain.ParseDate(rec[7]); err != nil {
			return p, err
		}
		if p.CloseDate, err = domain.ParseDate(rec[8]); err != nil {
			return p, err
		}
		p.ManagerNRIC = strings.ToUpper(strings.TrimSpace(rec[9]))
		if p.OfficerSlots, err = parseInt("OfficerSlots", rec[10]); err != nil {
			return p, err
		}
		for _, nric := range splitList(rec[11]) {
			p.Officers = append(p.Officers, strings.ToUpper(nric))
		}
		return p, nil
	},
}

var applicationsTable = table[domain.Application]{
	name:   "applications",
	header: []string{"ID", "ProjectID", "Applicant", "FlatType", "Status", "SubmittedOn"},
	encode: func(a domain.Application) []string {
		return []string{strconv.Itoa(a.ID), strconv.Itoa(a.ProjectID), a.ApplicantNRIC,
			string(a.FlatType), string(a.Status), a.SubmittedOn.String()}
	},
	decode: func(rec []string) (domain.Application, error) {
		var a domain.Application
		var err error
		if a.ID, err = parseInt("ID", rec[0]); err != nil {
			return a, err
		}
		if a.ProjectID, err = parseInt("ProjectID", rec[1]); err != nil {
			return a, err
		}
		a.ApplicantNRIC = strings.ToUpper(strings.TrimSpace(rec[2]))
		if a.FlatType, err = domain.ParseFlatType(rec[3]); err != nil {
			return a, err
		}
		if a.Status, err = domain.ParseApplicationStatus(rec[4]); err != nil {
			return a, err
		}
		if a.SubmittedOn, err = optionalDate(rec[5]); err != nil {
			return a, err
		}
		return a, nil
	},
}

var enquiriesTable = table[domain.Enquiry]{
	name: "enquiries",
	header: []string{"ID", "Title", "Content", "Reply", "Creator", "ProjectID", "Replier",
		"Status", "CreatedOn", "UpdatedOn"},
	encode: func(e domain.Enquiry) []string {
		return []string{strconv.Itoa(e.ID), e.Title, e.Content, e.Reply, e.CreatorNRIC,
			strconv.Itoa(e.ProjectID), e.ReplierNRIC, string(e.Status),
			e.CreatedOn.String(), e.UpdatedOn.String()}
	},
	decode: func(rec []string) (domain.Enquiry, error) {
		var e domain.Enquiry
		var err error
		if e.ID, err = parseInt("ID", rec[0]); err != nil {
			return e, err
		}
		e.Title = rec[1]
		e.Content = rec[2]
		e.Reply = rec[3]
		e.CreatorNRIC = strings.ToUpper(strings.TrimSpace(rec[4]))
		if e.ProjectID, err = parseInt("ProjectID", rec[5]); err != nil {
			return e, err
		}
		e.ReplierNRIC = strings.ToUpper(strings.TrimSpace(rec[6]))
		if e.Status, err = domain.ParseEnquiryStatus(rec[7]); err != nil {
			return e, err
		}
		if e.CreatedOn, err = optionalDate(rec[8]); err != nil {
			return e, err
		}
		if e.UpdatedOn, err = optionalDate(rec[9]); err != nil {
			return e, err
		}
		return e, nil
	},
}

var bookingsTable = table[domain.Booking]{
	name:   "bookings",
	header: []string{"ID", "FlatType", "ProjectID", "Applicant", "Officer", "BookedOn"},
	encode: func(b domain.Booking) []string {
		return []string{strconv.Itoa(b.ID), string(b.FlatType), strconv.Itoa(b.ProjectID),
			b.ApplicantNRIC, b.OfficerNRIC, b.BookedOn.String()}
	},
	decode: func(rec []string) (domain.Booking, error) {
		var b domain.Booking
		var err error
		if b.ID, err = parseInt("ID", rec[0]); err != nil {
			return b, err
		}
		if b.FlatType, err = domain.ParseFlatType(rec[1]); err != nil {
			return b, err
		}
		if b.ProjectID, err = parseInt("ProjectID", rec[2]); err != nil {
			return b, err
		}
		b.ApplicantNRIC = strings.ToUpper(strings.TrimSpace(rec[3]))
		b.OfficerNRIC = strings.ToUpper(strings.TrimSpace(rec[4]))
		if b.BookedOn, err = optionalDate(rec[5]); err != nil {
			return b, err
		}
		return b, nil
	},
}

var registrationsTable = table[domain.Registration]{
	name:   "registrations",
	header: []string{"ID", "ProjectID", "Applicant", "Status", "SubmittedOn"},
	encode: func(r domain.Registration) []string {
		return []string{r.ID, strconv.Itoa(r.ProjectID), r.OfficerNRIC, string(r.Status), r.SubmittedOn.String()}
	},
	decode: func(rec []string) (domain.Registration, error) {
		var r domain.Registration
		var err error
		r.ID = strings.TrimSpace(rec[0])
		if r.ProjectID, err = parseInt("ProjectID", rec[1]); err != nil {
			return r, err
		}
		r.OfficerNRIC = strings.ToUpper(strings.TrimSpace(rec[2]))
		if r.Status, err = domain.ParseRegistrationStatus(rec[3]); err != nil {
			return r, err
		}
		if r.SubmittedOn, err = optionalDate(rec[4]); err != nil {
			return r, err
		}
		return r, nil
	},
}

func decodeFlats(projectID int, rawTypes, rawUnits, rawPrices string) ([]domain.Flat, error) {
	types := splitList(rawTypes)
	units := splitList(rawUnits)
	prices := splitList(rawPrices)
	if len(units) != len(types) || len(prices) != len(types) {
		return nil, domain.NewValidation(fmt.Sprintf(
			"flat columns differ in length: %d types, %d units, %d prices", len(types), len(units), len(prices)))
	}
	flats := make([]domain.Flat, 0, len(types))
	for i := range types {
		ft, err := domain.ParseFlatType(types[i])
		if err != nil {
			return nil, err
		}
		n, err := parseInt("Units", units[i])
		if err != nil {
			return nil, err
		}
		price, err := parseInt("Prices", prices[i])
		if err != nil {
			return nil, err
		}
		flats = append(flats, domain.Flat{ProjectID: projectID, Type: ft, Units: n, Price: price})
	}
	return flats, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, listSep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(column, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.NewValidation(fmt.Sprintf("%s: invalid number %q", column, raw))
	}
	return n, nil
}

func parseBool(column, raw string) (bool, error) {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return false, domain.NewValidation(fmt.Sprintf("%s: invalid boolean %q", column, raw))
	}
	return b, nil
}

func optionalDate(raw string) (domain.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(raw)
}
