package config

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	storageDrivers = []string{StorageCSV, StorageSQLite, StoragePostgres, StorageMemory}
	backupDrivers  = []string{BackupNone, BackupFS, BackupS3, BackupMemory}
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"text", "json"}
)

// Validate checks enumerations and cross-field requirements. Load calls it
// automatically.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Backup.Driver = strings.ToLower(strings.TrimSpace(c.Backup.Driver))

	if !slices.Contains(storageDrivers, c.Storage.Driver) {
		return fmt.Errorf("storage.driver must be one of %v (got %q)", storageDrivers, c.Storage.Driver)
	}
	if c.Storage.Driver == StorageCSV && c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required for the csv storage driver")
	}
	if !slices.Contains(backupDrivers, c.Backup.Driver) {
		return fmt.Errorf("backup.driver must be one of %v (got %q)", backupDrivers, c.Backup.Driver)
	}
	if c.Backup.Driver == BackupS3 && c.Backup.S3Bucket == "" {
		return fmt.Errorf("backup.s3_bucket is required for the s3 backup driver")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be within [%d, %d] (got %d)", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}
	return nil
}
