package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when no --config
// flag is given.
const EnvConfigPath = "JOBATLAS_CONFIG"

const defaultConfigPath = "config.yaml"

// Config is the root configuration for jobatlas.
type Config struct {
	Source       SourceConfig
	Cache        CacheConfig
	Sync         SyncConfig
	Analytics    AnalyticsConfig
	Lock         LockConfig
	Classifier   ClassifierConfig
	Notification NotificationConfig
	Server       ServerConfig
	Retry        RetryConfig
}

// SourceConfig points at the authoritative Postgres store.
type SourceConfig struct {
	DatabaseURL  string
	Table        string
	QueryTimeout time.Duration
}

type CacheConfig struct {
	Path string // SQLite file
}

// SyncConfig controls when and how FullSync runs.
type SyncConfig struct {
	Schedule       string // cron spec
	BatchSize      int
	LeaseTTL       time.Duration
	RunOnStart     bool
	ManualCooldown time.Duration // minimum gap between manual triggers
	HQCountries    []string      // empty means the built-in list
}

type AnalyticsConfig struct {
	TTL time.Duration
}

// LockConfig selects the cross-process sync lock. With RedisURL empty the
// SQLite lease row is used.
type LockConfig struct {
	RedisURL string
	Key      string
}

type ClassifierConfig struct {
	Dictionary                string // optional YAML dictionary path
	LeadershipMinProfessional int
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RetryConfig controls retries of the source fetch.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Source struct {
		DatabaseURL  string `yaml:"database_url"`
		Table        string `yaml:"table"`
		QueryTimeout string `yaml:"query_timeout"`
	} `yaml:"source"`
	Cache struct {
		Path string `yaml:"path"`
	} `yaml:"cache"`
	Sync struct {
		Schedule       string   `yaml:"schedule"`
		BatchSize      int      `yaml:"batch_size"`
		LeaseTTL       string   `yaml:"lease_ttl"`
		RunOnStart     *bool    `yaml:"run_on_start"`
		ManualCooldown string   `yaml:"manual_cooldown"`
		HQCountries    []string `yaml:"hq_countries"`
	} `yaml:"sync"`
	Analytics struct {
		TTL string `yaml:"ttl"`
	} `yaml:"analytics"`
	Lock struct {
		RedisURL string `yaml:"redis_url"`
		Key      string `yaml:"key"`
	} `yaml:"lock"`
	Classifier struct {
		Dictionary                string `yaml:"dictionary"`
		LeadershipMinProfessional int    `yaml:"leadership_min_professional"`
	} `yaml:"classifier"`
	Notification NotificationConfig `yaml:"notification"`
	Server       struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Retry struct {
		MaxRetries *int   `yaml:"max_retries"`
		BaseDelay  string `yaml:"base_delay"`
	} `yaml:"retry"`
}

// ResolvePath picks the config file: the flag value, then $JOBATLAS_CONFIG,
// then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A .env file next to the config, or in the working directory, is loaded
// first so ${VAR} references can come from it. Existing variables win.
func Load(path string) (*Config, error) {
	loadDotEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var errs []error
	duration := func(field, value string, def time.Duration) time.Duration {
		if value == "" {
			return def
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s %q: %w", field, value, err))
		}
		return d
	}

	cfg := &Config{
		Source: SourceConfig{
			DatabaseURL:  raw.Source.DatabaseURL,
			Table:        orDefault(raw.Source.Table, "jobs"),
			QueryTimeout: duration("source.query_timeout", raw.Source.QueryTimeout, 2*time.Minute),
		},
		Cache: CacheConfig{Path: orDefault(raw.Cache.Path, "jobatlas.db")},
		Sync: SyncConfig{
			Schedule:       orDefault(raw.Sync.Schedule, "0 */6 * * *"),
			BatchSize:      raw.Sync.BatchSize,
			LeaseTTL:       duration("sync.lease_ttl", raw.Sync.LeaseTTL, 30*time.Minute),
			RunOnStart:     raw.Sync.RunOnStart == nil || *raw.Sync.RunOnStart,
			ManualCooldown: duration("sync.manual_cooldown", raw.Sync.ManualCooldown, time.Minute),
			HQCountries:    raw.Sync.HQCountries,
		},
		Analytics: AnalyticsConfig{TTL: duration("analytics.ttl", raw.Analytics.TTL, 24*time.Hour)},
		Lock: LockConfig{
			RedisURL: raw.Lock.RedisURL,
			Key:      orDefault(raw.Lock.Key, "jobatlas:sync:lock"),
		},
		Classifier: ClassifierConfig{
			Dictionary:                raw.Classifier.Dictionary,
			LeadershipMinProfessional: raw.Classifier.LeadershipMinProfessional,
		},
		Notification: NotificationConfig{
			Type:       orDefault(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
		},
		Server: ServerConfig{
			Addr:            orDefault(raw.Server.Addr, ":8080"),
			ShutdownTimeout: duration("server.shutdown_timeout", raw.Server.ShutdownTimeout, 15*time.Second),
		},
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  duration("retry.base_delay", raw.Retry.BaseDelay, 5*time.Second),
		},
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 500
	}
	if cfg.Classifier.LeadershipMinProfessional == 0 {
		cfg.Classifier.LeadershipMinProfessional = 5
	}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(configPath string) {
	candidates := []string{filepath.Join(filepath.Dir(configPath), ".env"), ".env"}
	seen := map[string]bool{}
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		// Missing .env files are fine.
		_ = godotenv.Load(abs)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func validate(cfg *Config) error {
	if cfg.Source.DatabaseURL == "" {
		return fmt.Errorf("source.database_url is required")
	}
	if !tableName.MatchString(cfg.Source.Table) {
		return fmt.Errorf("source.table %q is not a valid table name", cfg.Source.Table)
	}
	if cfg.Source.QueryTimeout <= 0 {
		return fmt.Errorf("source.query_timeout must be positive, got %v", cfg.Source.QueryTimeout)
	}

	if cfg.Sync.BatchSize < 1 || cfg.Sync.BatchSize > 10000 {
		return fmt.Errorf("sync.batch_size must be between 1 and 10000, got %d", cfg.Sync.BatchSize)
	}
	if cfg.Sync.LeaseTTL <= 0 {
		return fmt.Errorf("sync.lease_ttl must be positive, got %v", cfg.Sync.LeaseTTL)
	}
	if cfg.Sync.ManualCooldown < 0 {
		return fmt.Errorf("sync.manual_cooldown must not be negative, got %v", cfg.Sync.ManualCooldown)
	}
	if cfg.Analytics.TTL <= 0 {
		return fmt.Errorf("analytics.ttl must be positive, got %v", cfg.Analytics.TTL)
	}

	if n := cfg.Classifier.LeadershipMinProfessional; n < 1 || n > 7 {
		return fmt.Errorf("classifier.leadership_min_professional must be between 1 and 7, got %d", n)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.MaxRetries > 0 && cfg.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive, got %v", cfg.Retry.BaseDelay)
	}

	return nil
}
