// Package config loads querykit settings from an optional YAML file and
// overlays environment variables prefixed with QUERYKIT_.
//
// Environment names follow the YAML layout, e.g. database.timeout_seconds is
// QUERYKIT_DATABASE_TIMEOUT_SECONDS and store.access_key is
// QUERYKIT_STORE_ACCESS_KEY.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/filestore"
	"github.com/koustreak/querykit/internal/logger"
	"go.yaml.in/yaml/v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "QUERYKIT"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
}

type DatabaseConfig struct {
	// Driver is postgres, mysql or sqlite.
	Driver string `yaml:"driver"`

	// Template is the connection string with a {{.<secret_key>}} placeholder.
	Template string `yaml:"template"`

	SecretKey      string `yaml:"secret_key" split_words:"true"`
	TimeoutSeconds int    `yaml:"timeout_seconds" split_words:"true"`

	// Policy is reuse, fresh or once.
	Policy  string `yaml:"policy"`
	OneShot bool   `yaml:"one_shot" split_words:"true"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig describes the optional object store that exports upload to.
// An empty Endpoint disables it.
type StoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key" split_words:"true"`
	SecretKey string `yaml:"secret_key" split_words:"true"`
	UseSSL    bool   `yaml:"use_ssl" split_words:"true"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// Default returns the settings used when neither file nor environment say
// otherwise. The connection template has no default.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         string(database.DriverPostgres),
			SecretKey:      database.DefaultSecretKey,
			TimeoutSeconds: 30,
			Policy:         database.PolicyReuse.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (skipped when empty) over Default and then applies
// QUERYKIT_ environment overrides. Unknown YAML keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid environment override", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.ErrKindNotFound, fmt.Sprintf("config file %s not found", path), err)
		}
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("decoding %s", path), err)
	}
	return nil
}

// Validate checks every section that has enough information to be used.
func (c *Config) Validate() error {
	if _, err := c.ConnectionConfig(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	if c.Store.Enabled() {
		return c.Store.Filestore().Validate()
	}
	return nil
}

// ConnectionConfig converts the database section and validates the result.
func (c *Config) ConnectionConfig() (*database.ConnectionConfig, error) {
	policy, err := database.ParsePolicy(c.Database.Policy)
	if err != nil {
		return nil, err
	}
	cc := &database.ConnectionConfig{
		Driver:    database.Driver(c.Database.Driver),
		Template:  c.Database.Template,
		SecretKey: c.Database.SecretKey,
		Timeout:   time.Duration(c.Database.TimeoutSeconds) * time.Second,
		Policy:    policy,
	}
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	return cc, nil
}

// LoggerConfig converts the logging section.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	return lc
}

// Enabled reports whether an object store is configured.
func (s StoreConfig) Enabled() bool {
	return s.Endpoint != ""
}

// Filestore converts the store section.
func (s StoreConfig) Filestore() *filestore.Config {
	fc := filestore.DefaultConfig(s.Endpoint, s.AccessKey, s.SecretKey)
	fc.UseSSL = s.UseSSL
	fc.Region = s.Region
	fc.DefaultBucket = s.Bucket
	return fc
}
