package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env holds process settings read from the environment.
type Env struct {
	HTTPAddr       string        `env:"RISKWHEEL_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr       string        `env:"RISKWHEEL_GRPC_ADDR" envDefault:":9090"`
	ContentDir     string        `env:"RISKWHEEL_CONTENT_DIR" envDefault:"content"`
	Profile        string        `env:"RISKWHEEL_PROFILE"`
	ReloadInterval time.Duration `env:"RISKWHEEL_RELOAD_INTERVAL" envDefault:"2s"`

	StorageDriver string `env:"RISKWHEEL_STORAGE" envDefault:"memory"` // memory | sqlite | postgres
	SQLitePath    string `env:"RISKWHEEL_SQLITE_PATH" envDefault:"riskwheel.db"`
	PostgresDSN   string `env:"RISKWHEEL_PG_DSN"`
	StartingCash  int    `env:"RISKWHEEL_STARTING_CASH" envDefault:"0"`

	LogLevel  string `env:"RISKWHEEL_LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"RISKWHEEL_LOG_PRETTY" envDefault:"false"`

	OTLPEndpoint string `env:"RISKWHEEL_OTLP_ENDPOINT"`
	RNGSeed      uint64 `env:"RISKWHEEL_RNG_SEED"` // 0 uses the crypto source
}

// LoadDotEnv reads key=value pairs from path into the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	switch e.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return Env{}, fmt.Errorf("parse env: unknown storage driver %q", e.StorageDriver)
	}
	if e.StorageDriver == "postgres" && e.PostgresDSN == "" {
		return Env{}, errors.New("parse env: RISKWHEEL_PG_DSN is required for postgres storage")
	}
	return e, nil
}
