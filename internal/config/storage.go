package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
)

// Storage backends.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// StorageConfig selects the blob store behind the image-hosting endpoint.
type StorageConfig struct {
	Backend          string `toml:"backend"`
	BasePath         string `toml:"base_path"`
	Bucket           string `toml:"bucket"`
	Region           string `toml:"region"`
	MaxUploadSize    string `toml:"max_upload_size"`
	maxUploadSizeVal int64
}

// MaxUploadSizeBytes returns the parsed upload cap.
func (c *StorageConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

func (c *StorageConfig) Finalize() error {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MiB"
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvStorageBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvStorageRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvMaxUpload); v != "" {
		c.MaxUploadSize = v
	}
	return c.validate()
}

func (c *StorageConfig) validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case BackendS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket required for s3 backend")
		}
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}

	size, err := units.RAMInBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size
	return nil
}

func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
}

// HostingConfig points the upload form at the image-hosting endpoint. An
// empty UploadURL mounts the reference endpoint in-process.
type HostingConfig struct {
	UploadURL string `toml:"upload_url"`
	Timeout   string `toml:"timeout"`
	embedded  bool
	timeout   time.Duration
}

// Embedded reports whether the reference hosting endpoint is served here.
func (c *HostingConfig) Embedded() bool { return c.embedded }

// TimeoutDuration returns the parsed upload timeout.
func (c *HostingConfig) TimeoutDuration() time.Duration { return c.timeout }

func (c *HostingConfig) Finalize(serverBase string) error {
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if v := os.Getenv(EnvHostingURL); v != "" {
		c.UploadURL = v
	}
	if v := os.Getenv(EnvHostingTime); v != "" {
		c.Timeout = v
	}

	c.embedded = c.UploadURL == ""
	if c.embedded {
		c.UploadURL = serverBase + "/hosting/upload"
	}

	d, err := parseDuration("timeout", c.Timeout)
	if err != nil {
		return err
	}
	c.timeout = d
	return nil
}

func (c *HostingConfig) Merge(overlay *HostingConfig) {
	if overlay.UploadURL != "" {
		c.UploadURL = overlay.UploadURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// WebConfig controls browser sessions of the gallery front-end.
type WebConfig struct {
	SessionTTL string `toml:"session_ttl"`
	CookieName string `toml:"cookie_name"`
	sessionTTL time.Duration
}

// SessionTTLDuration returns the idle time after which a session is evicted.
func (c *WebConfig) SessionTTLDuration() time.Duration { return c.sessionTTL }

func (c *WebConfig) Finalize() error {
	if c.SessionTTL == "" {
		c.SessionTTL = "30m"
	}
	if c.CookieName == "" {
		c.CookieName = "gallery_session"
	}
	if v := os.Getenv(EnvSessionTTL); v != "" {
		c.SessionTTL = v
	}
	d, err := parseDuration("session_ttl", c.SessionTTL)
	if err != nil {
		return err
	}
	c.sessionTTL = d
	return nil
}

func (c *WebConfig) Merge(overlay *WebConfig) {
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
}
