package domain

import "sync"

// Sequence names a monotonic integer ID space.
type Sequence string

// Integer ID sequences. Registrations use string IDs and have no sequence.
const (
	SeqProject     Sequence = "project"
	SeqApplication Sequence = "application"
	SeqEnquiry     Sequence = "enquiry"
	SeqBooking     Sequence = "booking"
)

// Sequencer hands out monotonic IDs per sequence. It is seeded by the
// persistence layer from the highest persisted ID and injected into the store.
type Sequencer struct {
	mu   sync.Mutex
	next map[Sequence]int
}

// NewSequencer returns a sequencer whose sequences all start at 1.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[Sequence]int)}
}

// Next returns the next ID of seq and advances it.
func (s *Sequencer) Next(seq Sequence) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.peek(seq)
	s.next[seq] = id + 1
	return id
}

// Peek returns the ID Next would return without advancing.
func (s *Sequencer) Peek(seq Sequence) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peek(seq)
}

func (s *Sequencer) peek(seq Sequence) int {
	if n, ok := s.next[seq]; ok && n > 0 {
		return n
	}
	return 1
}

// Seed moves seq to one past maxID. A sequence never moves backwards.
func (s *Sequencer) Seed(seq Sequence, maxID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxID+1 > s.peek(seq) {
		s.next[seq] = maxID + 1
	}
}

// Mark captures the current positions so a failed transaction can release
// the IDs it reserved.
func (s *Sequencer) Mark() map[Sequence]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Sequence]int, len(s.next))
	for k, v := range s.next {
		out[k] = v
	}
	return out
}

// Reset restores positions captured by Mark.
func (s *Sequencer) Reset(mark map[Sequence]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = make(map[Sequence]int, len(mark))
	for k, v := range mark {
		s.next[k] = v
	}
}

// SeedFromGraph seeds every integer sequence from the maximum IDs present in g.
func (s *Sequencer) SeedFromGraph(g Graph) {
	s.Seed(SeqProject, maxID(g.Projects, func(p Project) int { return p.ID }))
	s.Seed(SeqApplication, maxID(g.Applications, func(a Application) int { return a.ID }))
	s.Seed(SeqEnquiry, maxID(g.Enquiries, func(e Enquiry) int { return e.ID }))
	s.Seed(SeqBooking, maxID(g.Bookings, func(b Booking) int { return b.ID }))
}

func maxID[T any](items []T, id func(T) int) int {
	highest := 0
	for _, item := range items {
		if v := id(item); v > highest {
			highest = v
		}
	}
	return highest
}
