package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"housingcore/pkg/domain"
)

type memoryState struct {
	users             map[string]User
	userOrder         []string
	projects          map[int]Project
	applications      map[int]Application
	registrations     map[string]Registration
	registrationOrder []string
	enquiries         map[int]Enquiry
	bookings          map[int]Booking
}

func newMemoryState() memoryState {
	return memoryState{
		users:         make(map[string]User),
		projects:      make(map[int]Project),
		applications:  make(map[int]Application),
		registrations: make(map[string]Registration),
		enquiries:     make(map[int]Enquiry),
		bookings:      make(map[int]Booking),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.users {
		cloned.users[k] = v
	}
	cloned.userOrder = append([]string(nil), s.userOrder...)
	for k, v := range s.projects {
		cloned.projects[k] = domain.CloneProject(v)
	}
	for k, v := range s.applications {
		cloned.applications[k] = v
	}
	for k, v := range s.registrations {
		cloned.registrations[k] = v
	}
	cloned.registrationOrder = append([]string(nil), s.registrationOrder...)
	for k, v := range s.enquiries {
		cloned.enquiries[k] = v
	}
	for k, v := range s.bookings {
		cloned.bookings[k] = v
	}
	return cloned
}

func stateFromGraph(g Graph) memoryState {
	state := newMemoryState()
	for _, u := range g.Users {
		if _, ok := state.users[u.NRIC]; !ok {
			state.userOrder = append(state.userOrder, u.NRIC)
		}
		state.users[u.NRIC] = u
	}
	for _, p := range g.Projects {
		state.projects[p.ID] = domain.CloneProject(p)
	}
	for _, a := range g.Applications {
		state.applications[a.ID] = a
	}
	for _, r := range g.Registrations {
		if _, ok := state.registrations[r.ID]; !ok {
			state.registrationOrder = append(state.registrationOrder, r.ID)
		}
		state.registrations[r.ID] = r
	}
	for _, e := range g.Enquiries {
		state.enquiries[e.ID] = e
	}
	for _, b := range g.Bookings {
		state.bookings[b.ID] = b
	}
	return state
}

func (s memoryState) graph() Graph {
	view := TransactionView{state: &s}
	return Graph{
		Users:         view.ListUsers(),
		Projects:      view.ListProjects(),
		Applications:  view.ListApplications(),
		Enquiries:     view.ListEnquiries(),
		Registrations: view.ListRegistrations(),
		Bookings:      view.ListBookings(),
	}
}

// MemoryStore owns the canonical entity collections for a session. Every
// mutation runs in a cloned transactional state that replaces the live state
// only when the mutator and all blocking rules succeed.
type MemoryStore struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	seq    *domain.Sequencer
	nowFn  func() time.Time
}

// NewMemoryStore constructs a store backed by the provided rules engine and ID sequencer.
func NewMemoryStore(engine *RulesEngine, seq *domain.Sequencer) *MemoryStore {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	if seq == nil {
		seq = domain.NewSequencer()
	}
	return &MemoryStore{
		state:  newMemoryState(),
		engine: engine,
		seq:    seq,
		nowFn:  func() time.Time { return time.Now() },
	}
}

// SetNowFunc overrides the clock used to stamp submission and booking dates.
func (s *MemoryStore) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// Sequencer returns the injected ID sequencer.
func (s *MemoryStore) Sequencer() *domain.Sequencer { return s.seq }

// ImportGraph replaces the store state with g.
func (s *MemoryStore) ImportGraph(g Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromGraph(g)
}

// ExportGraph returns a deep copy of the current state in canonical order.
func (s *MemoryStore) ExportGraph() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone().graph()
}

// View executes fn against a read-only snapshot of the store state.
func (s *MemoryStore) View(ctx context.Context, fn func(TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(TransactionView{state: &snapshot})
}

func (s *MemoryStore) runInTransaction(ctx context.Context, fn func(tx *Transaction) error) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	mark := s.seq.Mark()
	tx := &Transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		s.seq.Reset(mark)
		return Result{}, err
	}

	res, err := s.engine.Evaluate(ctx, TransactionView{state: &tx.state}, tx.changes)
	if err != nil {
		s.seq.Reset(mark)
		return Result{}, err
	}
	if res.HasBlocking() {
		s.seq.Reset(mark)
		violation := RuleViolationError{Result: res}
		return res, &domain.Failure{Kind: domain.KindStateConflict, Reason: violation.Error(), Err: violation}
	}
	s.state = tx.state
	return res, nil
}

// TransactionView exposes a read-only snapshot of the transactional state to rules and policy.
type TransactionView struct {
	state *memoryState
}

var _ RuleView = TransactionView{}

// ListUsers returns users in load order.
func (v TransactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.userOrder))
	for _, nric := range v.state.userOrder {
		if u, ok := v.state.users[nric]; ok {
			out = append(out, u)
		}
	}
	return out
}

// ListProjects returns projects ordered by ID.
func (v TransactionView) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, p := range v.state.projects {
		out = append(out, domain.CloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListApplications returns applications ordered by ID.
func (v TransactionView) ListApplications() []Application {
	return sortedByID(v.state.applications, func(a Application) int { return a.ID })
}

// ListRegistrations returns registrations in creation order.
func (v TransactionView) ListRegistrations() []Registration {
	out := make([]Registration, 0, len(v.state.registrationOrder))
	for _, id := range v.state.registrationOrder {
		if r, ok := v.state.registrations[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ListEnquiries returns enquiries ordered by ID.
func (v TransactionView) ListEnquiries() []Enquiry {
	return sortedByID(v.state.enquiries, func(e Enquiry) int { return e.ID })
}

// ListBookings returns bookings ordered by ID.
func (v TransactionView) ListBookings() []Booking {
	return sortedByID(v.state.bookings, func(b Booking) int { return b.ID })
}

// FindUser retrieves a user by NRIC.
func (v TransactionView) FindUser(nric string) (User, bool) {
	u, ok := v.state.users[nric]
	return u, ok
}

// FindProject retrieves a project by ID.
func (v TransactionView) FindProject(id int) (Project, bool) {
	p, ok := v.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return domain.CloneProject(p), true
}

// FindApplication retrieves an application by ID.
func (v TransactionView) FindApplication(id int) (Application, bool) {
	a, ok := v.state.applications[id]
	return a, ok
}

// FindRegistration retrieves a registration by ID.
func (v TransactionView) FindRegistration(id string) (Registration, bool) {
	r, ok := v.state.registrations[id]
	return r, ok
}

// FindEnquiry retrieves an enquiry by ID.
func (v TransactionView) FindEnquiry(id int) (Enquiry, bool) {
	e, ok := v.state.enquiries[id]
	return e, ok
}

func sortedByID[T any](m map[int]T, id func(T) int) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// Transaction is a mutation set applied to a cloned store state. Its mutators
// are unexported: Service is the only entry point allowed to change state.
type Transaction struct {
	store   *MemoryStore
	state   memoryState
	changes []Change
	now     time.Time
}

// View returns a read-only view of the in-flight transactional state.
func (tx *Transaction) View() TransactionView {
	return TransactionView{state: &tx.state}
}

// Today returns the transaction's calendar date.
func (tx *Transaction) Today() domain.Date {
	return domain.DateOf(tx.now)
}

func (tx *Transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *Transaction) updateUser(nric string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[nric]
	if !ok {
		return User{}, domain.NewNotFound(EntityUser, nric)
	}
	before := current
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	if current.NRIC != nric {
		return User{}, domain.NewValidation("identity key is immutable")
	}
	tx.state.users[nric] = current
	tx.recordChange(Change{Entity: EntityUser, Action: ActionUpdate, ID: nric, Before: before, After: current})
	return current, nil
}

func (tx *Transaction) createProject(p Project) (Project, error) {
	if p.ID == 0 {
		p.ID = tx.store.seq.Next(domain.SeqProject)
	}
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, domain.NewStateConflict(EntityProject, p.ID, "project already exists")
	}
	for i := range p.Flats {
		p.Flats[i].ProjectID = p.ID
	}
	tx.state.projects[p.ID] = domain.CloneProject(p)
	tx.recordChange(Change{Entity: EntityProject, Action: ActionCreate, ID: fmt.Sprint(p.ID), After: domain.CloneProject(p)})
	return domain.CloneProject(p), nil
}

func (tx *Transaction) updateProject(id int, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, domain.NewNotFound(EntityProject, id)
	}
	before := domain.CloneProject(current)
	current = domain.CloneProject(current)
	if err := mutator(&current); err != nil {
		return Project{}, err
	}
	current.ID = id
	for i := range current.Flats {
		current.Flats[i].ProjectID = id
	}
	tx.state.projects[id] = current
	tx.recordChange(Change{Entity: EntityProject, Action: ActionUpdate, ID: fmt.Sprint(id), Before: before, After: domain.CloneProject(current)})
	return domain.CloneProject(current), nil
}

func (tx *Transaction) deleteProject(id int) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return domain.NewNotFound(EntityProject, id)
	}
	delete(tx.state.projects, id)
	tx.recordChange(Change{Entity: EntityProject, Action: ActionDelete, ID: fmt.Sprint(id), Before: current})
	return nil
}

func (tx *Transaction) createApplication(a Application) (Application, error) {
	if a.ID == 0 {
		a.ID = tx.store.seq.Next(domain.SeqApplication)
	}
	if _, exists := tx.state.applications[a.ID]; exists {
		return Application{}, domain.NewStateConflict(EntityApplication, a.ID, "application already exists")
	}
	tx.state.applications[a.ID] = a
	tx.recordChange(Change{Entity: EntityApplication, Action: ActionCreate, ID: fmt.Sprint(a.ID), After: a})
	return a, nil
}

func (tx *Transaction) updateApplication(id int, mutator func(*Application) error) (Application, error) {
	current, ok := tx.state.applications[id]
	if !ok {
		return Application{}, domain.NewNotFound(EntityApplication, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Application{}, err
	}
	current.ID = id
	tx.state.applications[id] = current
	tx.recordChange(Change{Entity: EntityApplication, Action: ActionUpdate, ID: fmt.Sprint(id), Before: before, After: current})
	return current, nil
}

func (tx *Transaction) createRegistration(r Registration) (Registration, error) {
	if r.ID == "" {
		return Registration{}, domain.NewValidation("registration id required")
	}
	if _, exists := tx.state.registrations[r.ID]; exists {
		return Registration{}, domain.NewStateConflict(EntityRegistration, r.ID, "registration already exists")
	}
	tx.state.registrations[r.ID] = r
	tx.state.registrationOrder = append(tx.state.registrationOrder, r.ID)
	tx.recordChange(Change{Entity: EntityRegistration, Action: ActionCreate, ID: r.ID, After: r})
	return r, nil
}

func (tx *Transaction) updateRegistration(id string, mutator func(*Registration) error) (Registration, error) {
	current, ok := tx.state.registrations[id]
	if !ok {
		return Registration{}, domain.NewNotFound(EntityRegistration, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Registration{}, err
	}
	current.ID = id
	tx.state.registrations[id] = current
	tx.recordChange(Change{Entity: EntityRegistration, Action: ActionUpdate, ID: id, Before: before, After: current})
	return current, nil
}

func (tx *Transaction) createEnquiry(e Enquiry) (Enquiry, error) {
	if e.ID == 0 {
		e.ID = tx.store.seq.Next(domain.SeqEnquiry)
	}
	if _, exists := tx.state.enquiries[e.ID]; exists {
		return Enquiry{}, domain.NewStateConflict(EntityEnquiry, e.ID, "enquiry already exists")
	}
	tx.state.enquiries[e.ID] = e
	tx.recordChange(Change{Entity: EntityEnquiry, Action: ActionCreate, ID: fmt.Sprint(e.ID), After: e})
	return e, nil
}

func (tx *Transaction) updateEnquiry(id int, mutator func(*Enquiry) error) (Enquiry, error) {
	current, ok := tx.state.enquiries[id]
	if !ok {
		return Enquiry{}, domain.NewNotFound(EntityEnquiry, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Enquiry{}, err
	}
	current.ID = id
	tx.state.enquiries[id] = current
	tx.recordChange(Change{Entity: EntityEnquiry, Action: ActionUpdate, ID: fmt.Sprint(id), Before: before, After: current})
	return current, nil
}

func (tx *Transaction) deleteEnquiry(id int) error {
	current, ok := tx.state.enquiries[id]
	if !ok {
		return domain.NewNotFound(EntityEnquiry, id)
	}
	delete(tx.state.enquiries, id)
	tx.recordChange(Change{Entity: EntityEnquiry, Action: ActionDelete, ID: fmt.Sprint(id), Before: current})
	return nil
}

func (tx *Transaction) createBooking(b Booking) (Booking, error) {
	if b.ID == 0 {
		b.ID = tx.store.seq.Next(domain.SeqBooking)
	}
	if _, exists := tx.state.bookings[b.ID]; exists {
		return Booking{}, domain.NewStateConflict(EntityBooking, b.ID, "booking already exists")
	}
	tx.state.bookings[b.ID] = b
	tx.recordChange(Change{Entity: EntityBooking, Action: ActionCreate, ID: fmt.Sprint(b.ID), After: b})
	return b, nil
}

func (tx *Transaction) deleteApplication(id int) error {
	current, ok := tx.state.applications[id]
	if !ok {
		return domain.NewNotFound(EntityApplication, id)
	}
	delete(tx.state.applications, id)
	tx.recordChange(Change{Entity: EntityApplication, Action: ActionDelete, ID: fmt.Sprint(id), Before: current})
	return nil
}

func (tx *Transaction) deleteRegistration(id string) error {
	current, ok := tx.state.registrations[id]
	if !ok {
		return domain.NewNotFound(EntityRegistration, id)
	}
	delete(tx.state.registrations, id)
	order := tx.state.registrationOrder[:0:0]
	for _, existing := range tx.state.registrationOrder {
		if existing != id {
			order = append(order, existing)
		}
	}
	tx.state.registrationOrder = order
	tx.recordChange(Change{Entity: EntityRegistration, Action: ActionDelete, ID: id, Before: current})
	return nil
}
