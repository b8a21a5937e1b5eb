package blob

import (
	"context"
	"errors"
	"fmt"

	"housingcore/internal/config"
	"housingcore/internal/infra/blob/fs"
	"housingcore/internal/infra/blob/memory"
	"housingcore/internal/infra/blob/s3"
)

// ErrDisabled is returned by Open when the backup driver is "none".
var ErrDisabled = errors.New("blob: backups disabled")

// Open selects a Store for cfg.Driver:
//
//	fs:     files under cfg.FSRoot
//	s3:     cfg.S3Bucket, credentials from the default AWS chain
//	memory: process memory (tests)
//	none:   ErrDisabled
func Open(ctx context.Context, cfg config.BackupConfig) (Store, error) {
	switch cfg.Driver {
	case config.BackupFS:
		st, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, fmt.Errorf("open fs blob store: %w", err)
		}
		return st, nil
	case config.BackupS3:
		st, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		return st, nil
	case config.BackupMemory:
		return memory.New(), nil
	case config.BackupNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
