package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
	yamlv3 "gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/footprint/config.yaml"

// EnvPrefix marks environment variables that override the config file.
// FOOTPRINT_SERVER_PORT sets server.port.
const EnvPrefix = "FOOTPRINT_"

// Config holds all footprint configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Models    ModelsConfig    `yaml:"models"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Retention RetentionConfig `yaml:"retention"`
	Capture   CaptureConfig   `yaml:"capture"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int    `yaml:"max_request_size"`
	// AllowedOrigins are the CORS origins; "*" wildcards are allowed, e.g.
	// "chrome-extension://*". Empty disables CORS.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
}

type ModelsConfig struct {
	// Backend is "stub" or "http".
	Backend     string `yaml:"backend"`
	BaseURL     string `yaml:"base_url"`
	LoadOnStart bool   `yaml:"load_on_start"`
	// RetrySeconds is the minimum gap between load attempts after a failed
	// load. Zero uses the classifier default.
	RetrySeconds int `yaml:"retry_seconds"`
}

type DashboardConfig struct {
	DefaultUserID     string `yaml:"default_user_id"`
	UseMachineLabels  bool   `yaml:"use_machine_labels"`
	LabelBatchSize    int    `yaml:"label_batch_size"`
	RecentDomainLimit int    `yaml:"recent_domain_limit"`
}

type RetentionConfig struct {
	Days               int `yaml:"days"`
	PruneIntervalHours int `yaml:"prune_interval_hours"`
}

type CaptureConfig struct {
	UseDefaultDenylist bool     `yaml:"use_default_denylist"`
	DenylistDomains    []string `yaml:"denylist_domains"`
	DenylistRegex      []string `yaml:"denylist_regex"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads a YAML config file at path, merges it over the defaults and
// applies FOOTPRINT_* environment overrides. Returns an error if the file
// cannot be read, contains invalid YAML or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// listKeys are the config keys whose environment value is comma-separated.
var listKeys = map[string]bool{
	"server.allowed_origins":   true,
	"capture.denylist_domains": true,
	"capture.denylist_regex":   true,
}

// envValue maps an environment variable to its config key and splits list
// values on commas.
func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// envKey maps FOOTPRINT_MODELS_BASE_URL to models.base_url: the first
// segment is the section, the rest is the field name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Models.Backend {
	case "stub":
	case "http":
		if c.Models.BaseURL == "" {
			return fmt.Errorf("models.base_url is required when models.backend is http")
		}
	default:
		return fmt.Errorf("models.backend must be stub or http, got %q", c.Models.Backend)
	}
	if c.Models.RetrySeconds < 0 {
		return fmt.Errorf("models.retry_seconds cannot be negative")
	}
	if c.Dashboard.LabelBatchSize < 1 {
		return fmt.Errorf("dashboard.label_batch_size must be positive")
	}
	if c.Dashboard.RecentDomainLimit < 1 {
		return fmt.Errorf("dashboard.recent_domain_limit must be positive")
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention.days cannot be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// DBPath returns the expanded SQLite database path.
func (c *Config) DBPath() (string, error) {
	return expandPath(filepath.Join(c.Storage.Path, c.Storage.SQLiteFile))
}

// Denylist returns the domains whose sessions are never recorded.
func (c *Config) Denylist() []string {
	var out []string
	if c.Capture.UseDefaultDenylist {
		out = append(out, DefaultDenylistDomains()...)
	}
	return append(out, c.Capture.DenylistDomains...)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ExpandPath is expandPath for callers outside the package.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yamlv3.Marshal(DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	}

	return Load(path)
}
