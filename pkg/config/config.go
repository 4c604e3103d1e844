package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Errors returned by config loading and validation.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Default values applied to fields left empty in the file.
const (
	DefaultNamespace  = "default"
	DefaultProtocol   = "irn"
	DefaultTTL        = 30 * 24 * time.Hour
	DefaultStorageDir = ".relaymesh"
)

// Duration wraps time.Duration for YAML fields written as "30s" or
// "720h".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration notation.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds the client configuration.
type Config struct {
	// ClientID identifies this client; it scopes the storage key so
	// several clients can share one store.
	ClientID string `yaml:"client_id"`

	// Namespace partitions subscription state within a client.
	Namespace string `yaml:"namespace"`

	// RelayURL is the relay endpoint to connect to.
	RelayURL string `yaml:"relay_url"`

	// Protocol is the relay routing protocol identifier.
	Protocol string `yaml:"protocol"`

	// Encrypted requires decryption key material on every subscribe.
	Encrypted bool `yaml:"encrypted"`

	// DefaultTTL is the lifetime applied to subscriptions created
	// without an explicit expiry.
	DefaultTTL Duration `yaml:"default_ttl"`

	// StorageDir is the directory for the on-disk snapshot store.
	StorageDir string `yaml:"storage_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ClientID:   "",
		Namespace:  DefaultNamespace,
		Protocol:   DefaultProtocol,
		DefaultTTL: Duration(DefaultTTL),
		StorageDir: DefaultStorageDir,
		LogLevel:   "info",
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidConfig)
	}
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace must not be empty", ErrInvalidConfig)
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("%w: default_ttl must be positive", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
