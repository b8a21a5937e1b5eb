// Package session holds the per-process login state: the current user and
// the project filter and sort they have chosen.
package session

import (
	"context"
	"sync"

	"housingcore/internal/query"
	"housingcore/pkg/domain"
)

// Authenticator verifies credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, nric, password string) (domain.User, error)
}

// Sort is the active project ordering.
type Sort struct {
	Key       query.SortKey
	Direction query.Direction
}

// DefaultSort orders projects alphabetically.
var DefaultSort = Sort{Key: query.SortByName, Direction: query.Ascending}

// Session is the single login session of the process.
type Session struct {
	mu     sync.RWMutex
	auth   Authenticator
	user   *domain.User
	filter query.Criteria
	sort   Sort
}

// New returns a logged-out session.
func New(auth Authenticator) *Session {
	return &Session{auth: auth, sort: DefaultSort}
}

// Login authenticates and replaces any current login. Filter and sort reset.
func (s *Session) Login(ctx context.Context, nric, password string) (domain.User, error) {
	user, err := s.auth.Authenticate(ctx, nric, password)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.filter = query.Criteria{}
	s.sort = DefaultSort
	return user, nil
}

// Logout clears the user, filter, and sort.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.filter = query.Criteria{}
	s.sort = DefaultSort
}

// Refresh replaces the cached user, e.g. after a password change.
func (s *Session) Refresh(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.NRIC == u.NRIC {
		s.user = &u
	}
}

// Current returns the logged-in user.
func (s *Session) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Require returns the logged-in user or a PermissionDenied failure.
func (s *Session) Require() (domain.User, error) {
	u, ok := s.Current()
	if !ok {
		return domain.User{}, domain.NewPermissionDenied("not logged in")
	}
	return u, nil
}

// Filter returns the active project filter.
func (s *Session) Filter() query.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter replaces the active project filter.
func (s *Session) SetFilter(c query.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = c
}

// Sort returns the active project ordering.
func (s *Session) Sort() Sort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// SetSort replaces the active project ordering.
func (s *Session) SetSort(v Sort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = v
}
