package blob

import (
	"context"
	"errors"
	"testing"

	"housingcore/internal/config"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  config.BackupConfig
		want Driver
	}{
		{"fs", config.BackupConfig{Driver: config.BackupFS, FSRoot: t.TempDir()}, DriverFilesystem},
		{"memory", config.BackupConfig{Driver: config.BackupMemory}, DriverMemory},
		{"s3", config.BackupConfig{Driver: config.BackupS3, S3Bucket: "housing-backups", S3Region: "ap-southeast-1"}, DriverS3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if st.Driver() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, st.Driver())
			}
		})
	}
}

func TestOpenDisabledAndUnknown(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, config.BackupConfig{Driver: config.BackupNone}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if _, err := Open(ctx, config.BackupConfig{Driver: "ftp"}); err == nil || errors.Is(err, ErrDisabled) {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
	if _, err := Open(ctx, config.BackupConfig{Driver: config.BackupS3}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
