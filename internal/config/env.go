package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for process environment settings.
const EnvPrefix = "DRIVESTYLE"

// Env holds process-level settings read from the environment.
type Env struct {
	DBPath     string `envconfig:"DB_PATH" default:"drivestyle.db"`
	Listen     string `envconfig:"LISTEN" default:":8080"`
	ConfigPath string `envconfig:"CONFIG"`
}

// LoadEnv reads DRIVESTYLE_* variables, first loading dotenvPath if it exists.
// Variables already set in the process take precedence over the dotenv file.
func LoadEnv(dotenvPath string) (*Env, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenvPath, err)
		}
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &env, nil
}

// LoadTuning returns the tuning config at ConfigPath, or the built-in
// defaults when no path is configured.
func (e *Env) LoadTuning() (*TuningConfig, error) {
	if e.ConfigPath == "" {
		return EmptyTuningConfig(), nil
	}
	return LoadTuningConfig(e.ConfigPath)
}
