// Package backup copies saved collection files into a blob store and restores
// them from there.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"housingcore/internal/blob"
)

// StampLayout names each archive folder.
const StampLayout = "20060102T150405.000Z"

// Snapshot is one archived save: every file stored under <prefix>/<Stamp>/.
type Snapshot struct {
	Stamp string
	Keys  []string
}

// Archiver writes collection files under <prefix>/<stamp>/<file name>.
type Archiver struct {
	store  blob.Store
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithClock overrides the time source used for stamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// WithLogger sets the archiver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New returns an Archiver over store. An empty prefix defaults to "backups".
func New(store blob.Store, prefix string, opts ...Option) *Archiver {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "backups"
	}
	a := &Archiver{store: store, prefix: prefix, now: time.Now, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive uploads every existing file in files (logical name to path).
// Missing files are skipped; upload failures are joined.
func (a *Archiver) Archive(ctx context.Context, files map[string]string) (Snapshot, error) {
	snap := Snapshot{Stamp: a.now().UTC().Format(StampLayout)}
	var errs []error
	for _, logical := range sortedKeys(files) {
		src := files[logical]
		key := a.key(snap.Stamp, src)
		err := a.upload(ctx, key, logical, src)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			a.logger.InfoContext(ctx, "backup skipped missing file", "collection", logical, "path", src)
		case err != nil:
			errs = append(errs, fmt.Errorf("archive %s: %w", logical, err))
		default:
			snap.Keys = append(snap.Keys, key)
		}
	}
	if len(errs) == 0 {
		a.logger.InfoContext(ctx, "backup written", "stamp", snap.Stamp, "files", len(snap.Keys), "driver", a.store.Driver())
	}
	return snap, errors.Join(errs...)
}

func (a *Archiver) upload(ctx context.Context, key, logical, src string) error {
	f, err := os.Open(src) // #nosec G304 -- configured data file
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = a.store.Put(ctx, key, f, blob.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"collection": logical},
	})
	return err
}

// List returns archived snapshots ordered oldest first.
func (a *Archiver) List(ctx context.Context) ([]Snapshot, error) {
	infos, err := a.store.List(ctx, a.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	byStamp := make(map[string]*Snapshot)
	var stamps []string
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, a.prefix+"/")
		stamp, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		snap, seen := byStamp[stamp]
		if !seen {
			snap = &Snapshot{Stamp: stamp}
			byStamp[stamp] = snap
			stamps = append(stamps, stamp)
		}
		snap.Keys = append(snap.Keys, info.Key)
	}
	sort.Strings(stamps)
	out := make([]Snapshot, 0, len(stamps))
	for _, s := range stamps {
		out = append(out, *byStamp[s])
	}
	return out, nil
}

// Restore overwrites each path in files with its copy from the snapshot stamp.
// Files absent from the snapshot are left untouched.
func (a *Archiver) Restore(ctx context.Context, stamp string, files map[string]string) error {
	if stamp == "" {
		return fmt.Errorf("restore: stamp required")
	}
	var errs []error
	restored := 0
	for _, logical := range sortedKeys(files) {
		dst := files[logical]
		err := a.download(ctx, a.key(stamp, dst), dst)
		switch {
		case errors.Is(err, blob.ErrNotFound):
			a.logger.WarnContext(ctx, "backup missing collection", "stamp", stamp, "collection", logical)
		case err != nil:
			errs = append(errs, fmt.Errorf("restore %s: %w", logical, err))
		default:
			restored++
		}
	}
	if restored == 0 && len(errs) == 0 {
		return fmt.Errorf("restore: no files found for backup %s", stamp)
	}
	return errors.Join(errs...)
}

func (a *Archiver) download(ctx context.Context, key, dst string) error {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".restore-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	_, err = io.Copy(tmp, rc)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (a *Archiver) key(stamp, file string) string {
	return path.Join(a.prefix, stamp, filepath.Base(file))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
