package domain

// GraphView adapts a Graph to RuleView with linear lookups. It is meant for
// small snapshots: tests, reports, and offline tooling.
type GraphView struct {
	g Graph
}

var _ RuleView = GraphView{}

// NewGraphView wraps g without copying it.
func NewGraphView(g Graph) GraphView { return GraphView{g: g} }

func (v GraphView) ListUsers() []User                 { return v.g.Users }
func (v GraphView) ListProjects() []Project           { return v.g.Projects }
func (v GraphView) ListApplications() []Application   { return v.g.Applications }
func (v GraphView) ListRegistrations() []Registration { return v.g.Registrations }
func (v GraphView) ListEnquiries() []Enquiry          { return v.g.Enquiries }
func (v GraphView) ListBookings() []Booking           { return v.g.Bookings }

func (v GraphView) FindUser(nric string) (User, bool) {
	return find(v.g.Users, func(u User) bool { return u.NRIC == nric })
}

func (v GraphView) FindProject(id int) (Project, bool) {
	return find(v.g.Projects, func(p Project) bool { return p.ID == id })
}

func (v GraphView) FindApplication(id int) (Application, bool) {
	return find(v.g.Applications, func(a Application) bool { return a.ID == id })
}

func (v GraphView) FindRegistration(id string) (Registration, bool) {
	return find(v.g.Registrations, func(r Registration) bool { return r.ID == id })
}

func (v GraphView) FindEnquiry(id int) (Enquiry, bool) {
	return find(v.g.Enquiries, func(e Enquiry) bool { return e.ID == id })
}

func find[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
