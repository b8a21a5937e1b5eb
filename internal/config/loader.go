package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// PathEnv names the variable holding the YAML config path.
const PathEnv = "HOUSING_CONFIG_PATH"

const defaultPath = "./housing.yaml"

// Load reads configuration from a .env file, a YAML file and environment
// variables. Priority: ENV > YAML > defaults (via env-default tags).
// The YAML path comes from HOUSING_CONFIG_PATH (fallback "./housing.yaml").
// A missing fallback file means ENV + defaults only; a missing explicit file
// is an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	path := os.Getenv(PathEnv)
	explicitPath := path != ""
	if !explicitPath {
		path = defaultPath
	}
	return LoadFile(&cfg, path, explicitPath)
}

// LoadFile fills cfg from path (when present) and the environment, then validates it.
func LoadFile(cfg *Config, path string, required bool) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if required {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
