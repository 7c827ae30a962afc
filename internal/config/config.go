// Package config loads the gallery configuration from an optional TOML file,
// an environment-specific overlay and GALLERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/leca/image-gallery/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment overlays.
	OverlayConfigPattern = "config.%s.toml"

	EnvConfigFile    = "GALLERY_CONFIG"
	EnvEnvironment   = "GALLERY_ENV"
	EnvLogLevel      = "GALLERY_LOG_LEVEL"
	EnvLogFormat     = "GALLERY_LOG_FORMAT"
	EnvListenAddr    = "GALLERY_LISTEN_ADDR"
	EnvBaseURL       = "GALLERY_BASE_URL"
	EnvShutdown      = "GALLERY_SHUTDOWN_TIMEOUT"
	EnvAPIBaseURL    = "GALLERY_API_URL"
	EnvAPIAuthToken  = "GALLERY_API_TOKEN"
	EnvAPIPageSize   = "GALLERY_API_PAGE_SIZE"
	EnvDBPath        = "GALLERY_DB_PATH"
	EnvStorage       = "GALLERY_STORAGE_BACKEND"
	EnvStoragePath   = "GALLERY_STORAGE_PATH"
	EnvStorageBucket = "GALLERY_STORAGE_BUCKET"
	EnvStorageRegion = "GALLERY_STORAGE_REGION"
	EnvMaxUpload     = "GALLERY_MAX_UPLOAD_SIZE"
	EnvHostingURL    = "GALLERY_HOSTING_URL"
	EnvHostingTime   = "GALLERY_HOSTING_TIMEOUT"
	EnvSessionTTL    = "GALLERY_SESSION_TTL"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Hosting  HostingConfig  `toml:"hosting"`
	Web      WebConfig      `toml:"web"`
	Logging  logging.Config `toml:"logging"`
}

// Load reads the base file (if present) and any overlay, then finalizes.
// A missing base file is not an error: defaults and env vars still apply.
func Load() (*Config, error) {
	path := BaseConfigFile
	if v := os.Getenv(EnvConfigFile); v != "" {
		path = v
	}

	cfg, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
	} else if err != nil {
		return nil, err
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults and environment overrides, then validates.
func (c *Config) Finalize() error {
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(c.Server.BaseURL); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Database.Finalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Hosting.Finalize(c.Server.BaseURL); err != nil {
		return fmt.Errorf("hosting: %w", err)
	}
	if err := c.Web.Finalize(); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	if err := c.Logging.Finalize(EnvLogLevel, EnvLogFormat); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Hosting.Merge(&overlay.Hosting)
	c.Web.Merge(&overlay.Web)
	c.Logging.Merge(&overlay.Logging)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvEnvironment); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
