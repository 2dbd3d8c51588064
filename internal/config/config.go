package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config contains runtime configuration required by the agent.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DedupBackend       string        `env:"DEDUP_BACKEND" envDefault:"memory"`
	DBURL              string        `env:"DB_URL"`
	SQLitePath         string        `env:"SQLITE_PATH" envDefault:"dedup.db"`
	DedupTTL           time.Duration `env:"DEDUP_TTL" envDefault:"10m"`
	DedupMaxEntries    int           `env:"DEDUP_MAX_ENTRIES" envDefault:"100000"`
	DedupPurgeInterval time.Duration `env:"DEDUP_PURGE_INTERVAL" envDefault:"1m"`

	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	APIBaseURL      string        `env:"BM_API_BASE_URL" envDefault:"https://businessmessages.googleapis.com"`
	CredentialsFile string        `env:"CREDENTIALS_FILE"`
	ClientToken     string        `env:"CLIENT_TOKEN"`

	ClientRetryInterval time.Duration `env:"CLIENT_RETRY_INTERVAL" envDefault:"30s"`

	PersonaFile string `env:"PERSONA_FILE"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	AdminKeysRaw string            `env:"ADMIN_KEYS"`
	AdminKeys    map[string]string // apiKey -> operator name, parsed from AdminKeysRaw
}

// Load reads configuration from environment variables.
// ADMIN_KEYS format: "alice:key1,bob:key2"
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryValidation, "config: parse environment").
			WithTextCode("INVALID_CONFIG")
	}

	cfg.DedupBackend = strings.ToLower(strings.TrimSpace(cfg.DedupBackend))
	switch cfg.DedupBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if strings.TrimSpace(cfg.DBURL) == "" {
			return Config{}, invalid("DB_URL required when DEDUP_BACKEND=postgres")
		}
	default:
		return Config{}, invalid(`DEDUP_BACKEND must be "memory", "postgres" or "sqlite"`)
	}

	if cfg.DedupTTL <= 0 {
		return Config{}, invalid("DEDUP_TTL must be positive")
	}
	if cfg.SendTimeout <= 0 {
		return Config{}, invalid("SEND_TIMEOUT must be positive")
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	keys, err := parseAdminKeys(cfg.AdminKeysRaw)
	if err != nil {
		return Config{}, err
	}
	cfg.AdminKeys = keys

	return cfg, nil
}

func parseAdminKeys(raw string) (map[string]string, error) {
	keys := map[string]string{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return keys, nil
	}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, invalid(`ADMIN_KEYS must be "name:key,name:key"`)
		}
		name := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if name == "" || key == "" {
			return nil, invalid(`ADMIN_KEYS must be "name:key,name:key"`)
		}
		keys[key] = name
	}
	return keys, nil
}

func invalid(message string) error {
	return goerrors.New("config: "+message, goerrors.CategoryValidation).
		WithTextCode("INVALID_CONFIG")
}
