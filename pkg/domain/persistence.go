package domain

import "context"

// Graph is the full set of persisted collections in canonical order.
type Graph struct {
	Users         []User         `json:"users"`
	Projects      []Project      `json:"projects"`
	Applications  []Application  `json:"applications"`
	Enquiries     []Enquiry      `json:"enquiries"`
	Registrations []Registration `json:"registrations"`
	Bookings      []Booking      `json:"bookings"`
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Users:         append([]User(nil), g.Users...),
		Projects:      make([]Project, 0, len(g.Projects)),
		Applications:  append([]Application(nil), g.Applications...),
		Enquiries:     append([]Enquiry(nil), g.Enquiries...),
		Registrations: append([]Registration(nil), g.Registrations...),
		Bookings:      append([]Booking(nil), g.Bookings...),
	}
	for _, p := range g.Projects {
		out.Projects = append(out.Projects, CloneProject(p))
	}
	return out
}

// CloneProject deep-copies the officer and flat slices of a project.
func CloneProject(p Project) Project {
	cp := p
	cp.Officers = append([]string(nil), p.Officers...)
	cp.Flats = append([]Flat(nil), p.Flats...)
	return cp
}

// Backend loads and saves the entity graph. Load seeds seq from the highest
// persisted IDs and may return a partial graph together with an error when
// some collection could not be read; Save is all-or-nothing per collection.
type Backend interface {
	Load(ctx context.Context, seq *Sequencer) (Graph, error)
	Save(ctx context.Context, g Graph) error
}

// FileBackend is implemented by backends whose collections live in local
// files that can be archived after a save.
type FileBackend interface {
	Backend
	Files() map[string]string
}
