// Package csvfile stores the entity graph as one CSV file per collection.
// Files carry a single header row; dates are dd/MM/yyyy and list columns are
// joined with ';'.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"housingcore/internal/infra/persistence"
	"housingcore/pkg/domain"
)

var _ domain.FileBackend = (*Store)(nil)

// Logical collection names used by the configuration layer.
const (
	UsersFile         = "usersFile"
	ProjectsFile      = "projectsFile"
	ApplicationsFile  = "applicationsFile"
	EnquiriesFile     = "enquiriesFile"
	BookingsFile      = "bookingsFile"
	RegistrationsFile = "registrationsFile"
)

// Paths locates each collection file.
type Paths struct {
	Users         string
	Projects      string
	Applications  string
	Enquiries     string
	Registrations string
	Bookings      string
}

// PathsIn returns the default file names inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Users:         filepath.Join(dir, "users.csv"),
		Projects:      filepath.Join(dir, "projects.csv"),
		Applications:  filepath.Join(dir, "applications.csv"),
		Enquiries:     filepath.Join(dir, "enquiries.csv"),
		Registrations: filepath.Join(dir, "registrations.csv"),
		Bookings:      filepath.Join(dir, "bookings.csv"),
	}
}

// Store is a flat-file Backend.
type Store struct {
	paths  Paths
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes skipped-row and dropped-row warnings to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Store over paths.
func New(paths Paths, opts ...Option) *Store {
	s := &Store{paths: paths, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Paths returns the configured file locations.
func (s *Store) Paths() Paths { return s.paths }

// Files maps each logical collection name to its path.
func (s *Store) Files() map[string]string {
	return map[string]string{
		UsersFile:         s.paths.Users,
		ProjectsFile:      s.paths.Projects,
		ApplicationsFile:  s.paths.Applications,
		EnquiriesFile:     s.paths.Enquiries,
		BookingsFile:      s.paths.Bookings,
		RegistrationsFile: s.paths.Registrations,
	}
}

// Load reads every collection, skips rows that fail to parse, resolves
// references and seeds seq. A missing file loads as an empty collection. A
// collection that cannot be read keeps the rows read before the failure; the
// returned graph still holds every other collection alongside the joined error.
func (s *Store) Load(ctx context.Context, seq *domain.Sequencer) (domain.Graph, error) {
	var raw domain.Graph
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error
	raw.Users, err = readTable(ctx, s, s.paths.Users, usersTable)
	collect(err)
	raw.Projects, err = readTable(ctx, s, s.paths.Projects, projectsTable)
	collect(err)
	raw.Applications, err = readTable(ctx, s, s.paths.Applications, applicationsTable)
	collect(err)
	raw.Enquiries, err = readTable(ctx, s, s.paths.Enquiries, enquiriesTable)
	collect(err)
	raw.Registrations, err = readTable(ctx, s, s.paths.Registrations, registrationsTable)
	collect(err)
	raw.Bookings, err = readTable(ctx, s, s.paths.Bookings, bookingsTable)
	collect(err)
	return persistence.Resolve(ctx, raw, seq, s.logger), errors.Join(errs...)
}

// Save rewrites every collection file. Each file is replaced atomically; a
// failed collection keeps its previous contents and does not stop the rest.
func (s *Store) Save(ctx context.Context, g domain.Graph) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistence("save", err)
	}
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(writeTable(s.paths.Users, usersTable, g.Users))
	collect(writeTable(s.paths.Projects, projectsTable, g.Projects))
	collect(writeTable(s.paths.Applications, applicationsTable, g.Applications))
	collect(writeTable(s.paths.Enquiries, enquiriesTable, g.Enquiries))
	collect(writeTable(s.paths.Registrations, registrationsTable, g.Registrations))
	collect(writeTable(s.paths.Bookings, bookingsTable, g.Bookings))
	return errors.Join(errs...)
}

func readTable[T any](ctx context.Context, s *Store, path string, tbl table[T]) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path) // #nosec G304 -- path comes from operator configuration
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.InfoContext(ctx, "collection file missing, starting empty", "collection", tbl.name, "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewPersistence("open "+tbl.name, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var out []T
	for first := true; ; first = false {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			s.logger.WarnContext(ctx, "skipping row", "collection", tbl.name, "line", perr.StartLine, "error", perr.Err)
			continue
		}
		if err != nil {
			return out, domain.NewPersistence("read "+tbl.name, err)
		}
		line, _ := r.FieldPos(0)
		if first && isHeader(rec, tbl.header) {
			continue
		}
		if len(rec) > len(tbl.header) {
			s.logger.WarnContext(ctx, "skipping row", "collection", tbl.name, "line", line,
				"error", fmt.Sprintf("expected %d columns, got %d", len(tbl.header), len(rec)))
			continue
		}
		for len(rec) < len(tbl.header) {
			rec = append(rec, "")
		}
		item, err := tbl.decode(rec)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping row", "collection", tbl.name, "line", line, "error", err)
			continue
		}
		out = append(out, item)
	}
}

func isHeader(rec, header []string) bool {
	if len(rec) == 0 {
		return false
	}
	first := strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff"))
	return strings.EqualFold(first, header[0])
}

func writeTable[T any](path string, tbl table[T], rows []T) error {
	if path == "" {
		return nil
	}
	err := writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(tbl.header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(tbl.encode(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return domain.NewPersistence("save "+tbl.name, err)
	}
	return nil
}

// writeAtomic writes to a temp file beside path, syncs it and renames it over
// path. On any failure the temp file is removed and path is untouched.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
