package core

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"housingcore/internal/pkg/password"
	"housingcore/pkg/domain"
)

// Service is the only mutating entry point over the store. Every operation
// re-reads the acting user from the transactional state, checks permissions
// against the same snapshot it mutates, and commits through the rules engine.
type Service struct {
	store    *MemoryStore
	logger   *slog.Logger
	metrics  MetricsRecorder
	newID    func() string
	hashCost int
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithLogger sets the structured logger used for rule warnings and failures.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder observing every operation.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the clock stamping submission, update, and booking dates.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.store.SetNowFunc(now)
	}
}

// WithRegistrationIDs overrides the registration ID generator.
func WithRegistrationIDs(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithPasswordCost sets the bcrypt cost used when passwords change.
func WithPasswordCost(cost int) ServiceOption {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store *MemoryStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  noopMetrics{},
		newID:    uuid.NewString,
		hashCost: password.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine, domain.NewSequencer()), opts...)
}

// Store returns the underlying store.
func (s *Service) Store() *MemoryStore {
	return s.store
}

func (s *Service) run(ctx context.Context, op string, fn func(tx *Transaction) error) (Result, error) {
	start := time.Now()
	res, err := s.store.runInTransaction(ctx, fn)
	s.observe(ctx, op, res, err, time.Since(start))
	return res, err
}

func (s *Service) read(ctx context.Context, op string, fn func(view TransactionView) error) error {
	start := time.Now()
	err := s.store.View(ctx, fn)
	s.observe(ctx, op, Result{}, err, time.Since(start))
	return err
}

func (s *Service) observe(ctx context.Context, op string, res Result, err error, d time.Duration) {
	s.metrics.Observe(ctx, op, err == nil, d)
	for _, w := range res.Warnings() {
		s.logger.WarnContext(ctx, "rule warning",
			slog.String("operation", op),
			slog.String("rule", w.Rule),
			slog.String("entity", string(w.Entity)),
			slog.String("entity_id", w.EntityID),
			slog.String("message", w.Message))
	}
	if err != nil {
		kind, _ := domain.KindOf(err)
		s.logger.DebugContext(ctx, "operation failed",
			slog.String("operation", op),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
}

// actorIn resolves the acting user against view so the role and identity used
// for permission checks are the stored ones.
func actorIn(view RuleView, actor User) (User, error) {
	if actor.NRIC == "" {
		return User{}, domain.NewPermissionDenied("not logged in")
	}
	current, ok := view.FindUser(actor.NRIC)
	if !ok {
		return User{}, domain.NewPermissionDenied("unknown user")
	}
	return current, nil
}

func projectIn(view RuleView, id int) (Project, error) {
	p, ok := view.FindProject(id)
	if !ok {
		return Project{}, domain.NewNotFound(EntityProject, id)
	}
	return p, nil
}

func applicationIn(view RuleView, id int) (Application, error) {
	a, ok := view.FindApplication(id)
	if !ok {
		return Application{}, domain.NewNotFound(EntityApplication, id)
	}
	return a, nil
}
