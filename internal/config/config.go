package config

import (
	"fmt"
	"path/filepath"
)

// Config is the root application configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Storage StorageConfig `yaml:"storage"`
	Backup  BackupConfig  `yaml:"backup"`
	Query   QueryConfig   `yaml:"query"`
	Auth    AuthConfig    `yaml:"auth"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// DataConfig locates the CSV collection files. File names are resolved
// relative to Dir unless absolute.
type DataConfig struct {
	Dir               string `yaml:"dir"                env:"HOUSING_DATA_DIR"           env-default:"data"`
	UsersFile         string `yaml:"users_file"         env:"HOUSING_USERS_FILE"         env-default:"users.csv"`
	ProjectsFile      string `yaml:"projects_file"      env:"HOUSING_PROJECTS_FILE"      env-default:"projects.csv"`
	ApplicationsFile  string `yaml:"applications_file"  env:"HOUSING_APPLICATIONS_FILE"  env-default:"applications.csv"`
	EnquiriesFile     string `yaml:"enquiries_file"     env:"HOUSING_ENQUIRIES_FILE"     env-default:"enquiries.csv"`
	BookingsFile      string `yaml:"bookings_file"      env:"HOUSING_BOOKINGS_FILE"      env-default:"bookings.csv"`
	RegistrationsFile string `yaml:"registrations_file" env:"HOUSING_REGISTRATIONS_FILE" env-default:"registrations.csv"`
}

// Logical collection names accepted by DataConfig.Path.
const (
	UsersFile         = "usersFile"
	ProjectsFile      = "projectsFile"
	ApplicationsFile  = "applicationsFile"
	EnquiriesFile     = "enquiriesFile"
	BookingsFile      = "bookingsFile"
	RegistrationsFile = "registrationsFile"
)

// Path resolves a logical collection name to a file path.
func (d DataConfig) Path(logical string) (string, error) {
	var name string
	switch logical {
	case UsersFile:
		name = d.UsersFile
	case ProjectsFile:
		name = d.ProjectsFile
	case ApplicationsFile:
		name = d.ApplicationsFile
	case EnquiriesFile:
		name = d.EnquiriesFile
	case BookingsFile:
		name = d.BookingsFile
	case RegistrationsFile:
		name = d.RegistrationsFile
	default:
		return "", fmt.Errorf("unknown data file %q", logical)
	}
	if name == "" || filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(d.Dir, name), nil
}

// Storage drivers.
const (
	StorageCSV      = "csv"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"       env:"HOUSING_STORAGE_DRIVER" env-default:"csv"`
	SQLitePath  string `yaml:"sqlite_path"  env:"HOUSING_SQLITE_PATH"    env-default:"data/housing.db"`
	PostgresDSN string `yaml:"postgres_dsn" env:"HOUSING_POSTGRES_DSN"`
}

// Backup drivers.
const (
	BackupNone   = "none"
	BackupFS     = "fs"
	BackupS3     = "s3"
	BackupMemory = "memory"
)

// BackupConfig selects where saved collection files are archived.
type BackupConfig struct {
	Driver      string `yaml:"driver"        env:"HOUSING_BACKUP_DRIVER"        env-default:"none"`
	Prefix      string `yaml:"prefix"        env:"HOUSING_BACKUP_PREFIX"        env-default:"backups"`
	FSRoot      string `yaml:"fs_root"       env:"HOUSING_BACKUP_FS_ROOT"       env-default:"var/backups"`
	S3Bucket    string `yaml:"s3_bucket"     env:"HOUSING_BACKUP_S3_BUCKET"`
	S3Region    string `yaml:"s3_region"     env:"HOUSING_BACKUP_S3_REGION"     env-default:"ap-southeast-1"`
	S3Endpoint  string `yaml:"s3_endpoint"   env:"HOUSING_BACKUP_S3_ENDPOINT"`
	S3PathStyle bool   `yaml:"s3_path_style" env:"HOUSING_BACKUP_S3_PATH_STYLE" env-default:"false"`
}

// QueryConfig tunes project listings. Applicants and officers only see
// projects whose application window contains today unless IgnoreWindow is set.
type QueryConfig struct {
	IgnoreWindow bool `yaml:"ignore_window" env:"HOUSING_QUERY_IGNORE_WINDOW"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"HOUSING_BCRYPT_COST" env-default:"12"`
}

// MetricsConfig controls the Prometheus textfile written at shutdown.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" env:"HOUSING_METRICS_TEXTFILE"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
