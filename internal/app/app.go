// Package app assembles the housing core from configuration: storage backend,
// service, session, backups and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"housingcore/internal/backup"
	"housingcore/internal/blob"
	"housingcore/internal/config"
	"housingcore/internal/core"
	"housingcore/internal/infra/persistence/csvfile"
	"housingcore/internal/metrics"
	"housingcore/internal/query"
	"housingcore/internal/session"
	"housingcore/internal/storage"
	"housingcore/pkg/domain"
)

// App owns one loaded session over the configured backend. Close persists it.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Service *core.Service
	Session *session.Session

	backend  domain.Backend
	archiver *backup.Archiver
	metrics  *metrics.Recorder
	now      func() time.Time

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	logger  *slog.Logger
	backend domain.Backend
	blobs   blob.Store
	now     func() time.Time
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*options)

// WithLogger replaces the config-derived logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBackend replaces storage.Open.
func WithBackend(b domain.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithBlobStore replaces the blob store opened from cfg.Backup.
func WithBlobStore(s blob.Store) Option {
	return func(o *options) { o.blobs = s }
}

// WithClock sets the clock for stamping dates, browsing windows and backups.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New opens the backend, loads the graph and wires the service.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = NewLogger(cfg.Log)
	}

	backend := o.backend
	if backend == nil {
		var err error
		if backend, err = storage.Open(ctx, cfg, logger); err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}
	seq := domain.NewSequencer()
	graph, err := backend.Load(ctx, seq)
	// A partial graph is not served: the exit save would overwrite the
	// collections that failed to load.
	if err != nil {
		closeBackend(backend)
		return nil, fmt.Errorf("load: %w", err)
	}

	archiver, err := newArchiver(ctx, cfg.Backup, o.blobs, o.now, logger)
	if err != nil {
		closeBackend(backend)
		return nil, err
	}

	store := core.NewMemoryStore(core.NewDefaultRulesEngine(), seq)
	store.ImportGraph(graph)
	rec := metrics.NewRecorder()
	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetrics(rec),
		core.WithClock(o.now),
		core.WithPasswordCost(cfg.Auth.BcryptCost),
	)
	logger.InfoContext(ctx, "housing data loaded",
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("users", len(graph.Users)),
		slog.Int("projects", len(graph.Projects)),
		slog.Int("applications", len(graph.Applications)))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Service:  svc,
		Session:  session.New(svc),
		backend:  backend,
		archiver: archiver,
		metrics:  rec,
		now:      o.now,
	}, nil
}

func newArchiver(ctx context.Context, cfg config.BackupConfig, st blob.Store, now func() time.Time, logger *slog.Logger) (*backup.Archiver, error) {
	if st == nil {
		var err error
		st, err = blob.Open(ctx, cfg)
		if errors.Is(err, blob.ErrDisabled) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("open backup store: %w", err)
		}
	}
	return backup.New(st, cfg.Prefix, backup.WithClock(now), backup.WithLogger(logger)), nil
}

// Window returns the browsing window policy for today, or nil when the
// configuration ignores application windows.
func (a *App) Window() query.WindowPolicy {
	if a.Config.Query.IgnoreWindow {
		return nil
	}
	return query.DateWindow{Today: domain.DateOf(a.now())}
}

// Browse returns the projects the logged-in user sees with the session filter
// and sort applied.
func (a *App) Browse(ctx context.Context) ([]domain.Project, error) {
	user, err := a.Session.Require()
	if err != nil {
		return nil, err
	}
	projects, err := a.Service.Projects(ctx, user)
	if err != nil {
		return nil, err
	}
	visible := query.VisibleProjects(projects, user, a.Window())
	order := a.Session.Sort()
	return query.Sort(query.Filter(visible, a.Session.Filter()), order.Key, order.Direction), nil
}

// Rows expands Browse into the flat rows the user may apply for.
func (a *App) Rows(ctx context.Context) ([]query.Row, error) {
	projects, err := a.Browse(ctx)
	if err != nil {
		return nil, err
	}
	user, err := a.Session.Require()
	if err != nil {
		return nil, err
	}
	return query.FlattenEligibleRows(projects, user), nil
}

// Save writes the current graph through the backend and archives the written
// files when backups are enabled.
func (a *App) Save(ctx context.Context) error {
	if err := a.backend.Save(ctx, a.Service.Store().ExportGraph()); err != nil {
		return err
	}
	if a.archiver == nil {
		return nil
	}
	fb, ok := a.backend.(domain.FileBackend)
	if !ok {
		a.Logger.DebugContext(ctx, "backend has no files to archive")
		return nil
	}
	if _, err := a.archiver.Archive(ctx, fb.Files()); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	return nil
}

// Backups lists archived snapshots.
func (a *App) Backups(ctx context.Context) ([]backup.Snapshot, error) {
	if a.archiver == nil {
		return nil, blob.ErrDisabled
	}
	return a.archiver.List(ctx)
}

// Metrics exposes the operation recorder.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Close saves once, writes the metrics textfile when configured and releases
// the backend. Later calls return the first result.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		var errs []error
		if err := a.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("save: %w", err))
		}
		if path := a.Config.Metrics.TextfilePath; path != "" {
			if err := a.metrics.WriteTextfile(path); err != nil {
				errs = append(errs, err)
			}
		}
		if c, ok := a.backend.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
		}
		a.closeErr = errors.Join(errs...)
		if a.closeErr != nil {
			a.Logger.ErrorContext(ctx, "shutdown incomplete", slog.String("error", a.closeErr.Error()))
		}
	})
	return a.closeErr
}

// Restore replaces the CSV data files with the backup taken at stamp. It runs
// without loading the data so a later session starts from the restored files.
func Restore(ctx context.Context, cfg config.Config, stamp string, logger *slog.Logger) error {
	if cfg.Storage.Driver != config.StorageCSV && cfg.Storage.Driver != "" {
		return fmt.Errorf("restore supports the csv storage driver only (got %s)", cfg.Storage.Driver)
	}
	paths, err := storage.CSVPaths(cfg.Data)
	if err != nil {
		return err
	}
	archiver, err := newArchiver(ctx, cfg.Backup, nil, time.Now, logger)
	if err != nil {
		return err
	}
	if archiver == nil {
		return blob.ErrDisabled
	}
	return archiver.Restore(ctx, stamp, csvfile.New(paths).Files())
}

// ListBackups lists archived snapshots without loading the data.
func ListBackups(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]backup.Snapshot, error) {
	archiver, err := newArchiver(ctx, cfg.Backup, nil, time.Now, logger)
	if err != nil {
		return nil, err
	}
	if archiver == nil {
		return nil, blob.ErrDisabled
	}
	return archiver.List(ctx)
}

func closeBackend(b domain.Backend) {
	if c, ok := b.(io.Closer); ok {
		_ = c.Close()
	}
}
