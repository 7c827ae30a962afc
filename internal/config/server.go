package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	BaseURL         string `toml:"base_url"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	shutdownTimeout time.Duration
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return c.shutdownTimeout
}

func (c *ServerConfig) Finalize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "15s"
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvShutdown); v != "" {
		c.ShutdownTimeout = v
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	d, err := parseDuration("shutdown_timeout", c.ShutdownTimeout)
	if err != nil {
		return err
	}
	c.shutdownTimeout = d
	return nil
}

func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.ListenAddr != "" {
		c.ListenAddr = overlay.ListenAddr
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
}

// APIConfig points the gallery at the images REST API. When BaseURL is
// empty the reference API is mounted in-process and the client targets
// the server's own base URL.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	AuthToken string `toml:"auth_token"`
	PageSize  int    `toml:"page_size"`
	embedded  bool
	target    string
}

// Embedded reports whether the reference API is served by this process.
func (c *APIConfig) Embedded() bool { return c.embedded }

// Target is the base URL the API client talks to.
func (c *APIConfig) Target() string { return c.target }

func (c *APIConfig) Finalize(serverBase string) error {
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAPIAuthToken); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv(EnvAPIPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid page_size: %w", err)
		}
		c.PageSize = n
	}
	if c.PageSize == 0 {
		c.PageSize = 6
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.embedded = c.BaseURL == ""
	c.target = c.BaseURL
	if c.embedded {
		c.target = serverBase
	}
	return nil
}

func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.AuthToken != "" {
		c.AuthToken = overlay.AuthToken
	}
	if overlay.PageSize != 0 {
		c.PageSize = overlay.PageSize
	}
}

// DatabaseConfig locates the sqlite database used by the reference API.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

func (c *DatabaseConfig) Finalize() error {
	if c.Path == "" {
		c.Path = ".data/gallery.db"
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Path = v
	}
	return nil
}

func (c *DatabaseConfig) Merge(overlay *DatabaseConfig) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
}
