// Package storage selects the persistence backend named by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"housingcore/internal/config"
	"housingcore/internal/infra/persistence/csvfile"
	"housingcore/internal/infra/persistence/memory"
	"housingcore/internal/infra/persistence/postgres"
	"housingcore/internal/infra/persistence/sqlite"
	"housingcore/pkg/domain"
)

// Open returns the backend for cfg.Storage.Driver:
//
//	csv:      one CSV file per collection under cfg.Data (default)
//	sqlite:   JSON buckets in an embedded sqlite file
//	postgres: JSON buckets in a PostgreSQL table
//	memory:   in-process only (tests / ephemeral)
//
// Backends holding connections also implement io.Closer.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.Backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageCSV, "":
		paths, err := CSVPaths(cfg.Data)
		if err != nil {
			return nil, err
		}
		return csvfile.New(paths, csvfile.WithLogger(logger)), nil
	case config.StorageSQLite:
		s, err := sqlite.NewStore(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMemory:
		return memory.NewStore(domain.Graph{}, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Storage.Driver)
	}
}

// CSVPaths resolves every logical collection name through data.
func CSVPaths(data config.DataConfig) (csvfile.Paths, error) {
	var p csvfile.Paths
	targets := []struct {
		logical string
		dst     *string
	}{
		{config.UsersFile, &p.Users},
		{config.ProjectsFile, &p.Projects},
		{config.ApplicationsFile, &p.Applications},
		{config.EnquiriesFile, &p.Enquiries},
		{config.BookingsFile, &p.Bookings},
		{config.RegistrationsFile, &p.Registrations},
	}
	for _, t := range targets {
		path, err := data.Path(t.logical)
		if err != nil {
			return csvfile.Paths{}, err
		}
		*t.dst = path
	}
	return p, nil
}
