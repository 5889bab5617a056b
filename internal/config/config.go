package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type MongoConfig struct {
	URI         string `yaml:"uri"`
	Database    string `yaml:"database"`
	Timeout     string `yaml:"timeout"`
	Collections struct {
		Articles string `yaml:"articles"`
		Links    string `yaml:"links"`
		Index    string `yaml:"index"`
		Counters string `yaml:"counters"`
	} `yaml:"collections"`
}

// TimeoutDuration returns the per-operation timeout, 10s when unset or invalid.
func (m MongoConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

type StorageConfig struct {
	Driver  string      `yaml:"driver"`
	DataDir string      `yaml:"data_dir"`
	Mongo   MongoConfig `yaml:"mongo"`
}

type WikipediaConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
}

// TimeoutDuration returns the outbound request timeout, 10s when unset or invalid.
func (w WikipediaConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(w.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

type PagesConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Pages     PagesConfig     `yaml:"pages"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading default config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing default config: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration from the embedded defaults, the YAML file at
// path (skipped when path is empty) and finally environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	overrides := []struct {
		env string
		dst *string
	}{
		{"WIKIPAGES_ADDR", &c.Server.Addr},
		{"WIKIPAGES_DATA_DIR", &c.Storage.DataDir},
		{"WIKIPAGES_STORAGE_DRIVER", &c.Storage.Driver},
		{"WIKIPAGES_MONGO_URI", &c.Storage.Mongo.URI},
		{"WIKIPAGES_WIKI_BASE_URL", &c.Wikipedia.BaseURL},
		{"WIKIPAGES_PAGES_DIR", &c.Pages.Dir},
		{"WIKIPAGES_LOG_LEVEL", &c.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DataDir == "" {
			errs = append(errs, errors.New("storage.data_dir is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Storage.Mongo.URI == "" || c.Storage.Mongo.Database == "" {
			errs = append(errs, errors.New("storage.mongo.uri and storage.mongo.database are required for the mongo driver"))
		}
		if _, err := time.ParseDuration(c.Storage.Mongo.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("storage.mongo.timeout: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of %s, %s", c.Storage.Driver, DriverSQLite, DriverMongo))
	}

	if u, err := url.Parse(c.Wikipedia.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("wikipedia.base_url %q is not an absolute URL", c.Wikipedia.BaseURL))
	}
	if _, err := time.ParseDuration(c.Wikipedia.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("wikipedia.timeout: %w", err))
	}

	if c.Pages.Dir == "" {
		errs = append(errs, errors.New("pages.dir is required"))
	}
	if !strings.HasPrefix(c.Pages.URLPrefix, "/") {
		errs = append(errs, fmt.Errorf("pages.url_prefix %q must start with /", c.Pages.URLPrefix))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}
