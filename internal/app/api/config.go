package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"

	"github.com/Apurer/pets-adoption-api/internal/platform/migrations"
)

// ErrMemoryStoreNotShared rejects setups where the API and a Temporal worker would each
// hold a private in-memory store.
var ErrMemoryStoreNotShared = errors.New("memory store is process-local and cannot be combined with Temporal workflows")

// StoreKind selects the pets persistence backend.
type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StorePostgres StoreKind = "postgres"
	StoreSQLite   StoreKind = "sqlite"
)

// Config carries file- and environment-driven settings for the API and worker processes.
type Config struct {
	Port            string         `yaml:"port"`
	Environment     string         `yaml:"environment"`
	LogLevel        string         `yaml:"logLevel"`
	TenantID        string         `yaml:"tenantId"`
	Store           StoreKind      `yaml:"store"`
	PostgresDSN     string         `yaml:"postgresDsn"`
	SQLitePath      string         `yaml:"sqlitePath"`
	AdoptionTimeout time.Duration  `yaml:"adoptionTimeout"`
	ShutdownTimeout time.Duration  `yaml:"shutdownTimeout"`
	Temporal        TemporalConfig `yaml:"temporal"`
}

// TemporalConfig addresses the Temporal cluster used for durable adoptions.
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	Disabled  bool   `yaml:"disabled"`
}

// DefaultConfig returns the settings used when neither file nor environment say otherwise.
func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		Environment:     "local",
		LogLevel:        "info",
		TenantID:        "diku",
		SQLitePath:      "data/pets.db",
		AdoptionTimeout: 5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Temporal: TemporalConfig{
			Address:   client.DefaultHostPort,
			Namespace: client.DefaultNamespace,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file read through fs, and environment
// variables, then validates the result. An empty path skips the file.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()
	if path = strings.TrimSpace(path); path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Store == "" {
		cfg.Store = StoreMemory
		if cfg.PostgresDSN != "" {
			cfg.Store = StorePostgres
		}
	}
	if cfg.Store == StoreMemory {
		// A Temporal worker would adopt from its own empty process memory.
		cfg.Temporal.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the processes cannot start with.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %q", c.Port)
	}
	if _, err := migrations.SchemaName(c.TenantID); err != nil {
		return fmt.Errorf("tenant: %w", err)
	}
	switch c.Store {
	case StoreMemory:
		if !c.Temporal.Disabled {
			return ErrMemoryStoreNotShared
		}
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgres store requires POSTGRES_DSN")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite store requires SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, postgres or sqlite)", c.Store)
	}
	if c.AdoptionTimeout <= 0 {
		return errors.New("adoption timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.TenantID, "TENANT_ID")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")
	setString(&cfg.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Temporal.Address, "TEMPORAL_ADDRESS")
	setString(&cfg.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	if raw := envValue("PETS_STORE"); raw != "" {
		cfg.Store = StoreKind(strings.ToLower(raw))
	}
	if raw := envValue("TEMPORAL_DISABLED"); raw != "" {
		cfg.Temporal.Disabled = isTruthy(raw)
	}
	if err := setDuration(&cfg.AdoptionTimeout, "ADOPTION_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if val := envValue(key); val != "" {
		*dst = val
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := envValue(key)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s must be a duration like 5s: %w", key, err)
	}
	*dst = d
	return nil
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
