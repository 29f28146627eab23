package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blockreg-labs/blockreg/internal/branding"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const fileType = "yaml"

// DefaultResolverTimeout bounds a single resolution's store lookups.
const DefaultResolverTimeout = 2 * time.Second

// Config is the fully decoded configuration.
type Config struct {
	Name          string     `mapstructure:"name"`
	Root          string     `mapstructure:"root"`
	Out           string     `mapstructure:"out"`
	Extension     string     `mapstructure:"extension"`
	SharedModules []string   `mapstructure:"shared_modules"`
	LayoutPattern string     `mapstructure:"layout_pattern"`
	Repository    Repository `mapstructure:"repository"`
	Build         Build      `mapstructure:"build"`
	Resolver      Resolver   `mapstructure:"resolver"`
	Store         Store      `mapstructure:"store"`
	Server        Server     `mapstructure:"server"`
	Log           Log        `mapstructure:"log"`
	Tracing       Tracing    `mapstructure:"tracing"`
}

// Repository overrides the repository info derived from git.
type Repository struct {
	Provider string `mapstructure:"provider"`
	URL      string `mapstructure:"url"`
}

// Build controls registry generation.
type Build struct {
	Workers int `mapstructure:"workers"`
}

// Resolver controls content resolution.
type Resolver struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Store selects and configures the external collection store.
type Store struct {
	Driver   string        `mapstructure:"driver"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	SQLite   SQLite        `mapstructure:"sqlite"`
	S3       S3            `mapstructure:"s3"`
}

// SQLite configures the SQLite store.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// S3 configures the S3 store.
type S3 struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Server configures the preview HTTP server.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
}

// Defaults maps every key to its default value.
var Defaults = map[string]any{
	"name":                branding.RegistryName(),
	"root":                "blocks",
	"out":                 "public/r",
	"extension":           ".html",
	"shared_modules":      []string{"ui"},
	"layout_pattern":      `^(header|footer)(-.*)?$`,
	"repository.provider": "",
	"repository.url":      "",
	"build.workers":       8,
	"resolver.timeout":    DefaultResolverTimeout,
	"store.driver":        "none",
	"store.cache_ttl":     time.Duration(0),
	"store.sqlite.path":   "content.db",
	"store.s3.bucket":     "",
	"store.s3.prefix":     "collections",
	"store.s3.region":     "",
	"store.s3.endpoint":   "",
	"server.addr":         ":8080",
	"log.level":           "info",
	"log.format":          "text",
	"tracing.enabled":     false,
	"tracing.exporter":    "stdout",
	"tracing.endpoint":    "localhost:4317",
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"root":      "root",
	"out":       "out",
	"name":      "name",
	"workers":   "build.workers",
	"timeout":   "resolver.timeout",
	"store":     "store.driver",
	"addr":      "server.addr",
	"log-level": "log.level",
}

// FileName returns the default config file name (blockreg.yaml).
func FileName() string {
	return branding.ConfigName() + "." + fileType
}

// newViper builds a viper instance with defaults, env binding and the config
// file (when present) applied.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType(fileType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(branding.ConfigName())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (path != "" && os.IsNotExist(err)) {
			return v, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return v, nil
}

// Load reads configuration from path (or ./blockreg.yaml when empty), the
// environment, and any changed flags in fs whose names appear in FlagKeys.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("config: root must not be empty")
	}
	if c.Out == "" {
		return fmt.Errorf("config: out must not be empty")
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("config: extension %q must start with a dot", c.Extension)
	}
	if c.Build.Workers < 1 {
		c.Build.Workers = 1
	}
	if c.Resolver.Timeout <= 0 {
		c.Resolver.Timeout = DefaultResolverTimeout
	}
	switch c.Store.Driver {
	case "none", "memory", "sqlite", "s3":
	default:
		return fmt.Errorf("config: unknown store driver %q (want none, memory, sqlite or s3)", c.Store.Driver)
	}
	return nil
}

// Get returns a single key as a string from the config file at path.
func Get(path, key string) (string, error) {
	v, err := newViper(path)
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes a config key-value pair and saves the config file.
func Set(path, key, value string) error {
	if path == "" {
		path = FileName()
	}

	v, err := newViper(path)
	if err != nil {
		return err
	}
	v.Set(key, value)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory %s: %w", dir, err)
		}
	}

	// Create the file if it doesn't exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", path, err)
		}
		f.Close()
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
