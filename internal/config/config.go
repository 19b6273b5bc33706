// Package config loads the YAML site configuration of pageload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/logging"
	"github.com/alnah/go-pageload/internal/session"
	"github.com/alnah/go-pageload/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength = 4096 // PATH_MAX on Linux
	MaxLangLength = 35   // BCP 47 tags with extensions
	MaxAddrLength = 255  // host:port
)

// Limits on numeric settings.
const (
	MaxFontsBreakpoint = 10000
	MaxDelayedAfter    = 5 * time.Minute
	MaxSnapshotWorkers = 8
)

// configDirName is the directory searched under os.UserConfigDir.
const configDirName = "go-pageload"

// Duration is a time.Duration written as "3s" or "500ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(data []byte) error {
	var s string
	if err := yamlutil.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidValue, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the configuration of the site, the loader and the server.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Assets    AssetsConfig    `yaml:"assets"`
	Loader    LoaderConfig    `yaml:"loader"`
	Resources ResourcesConfig `yaml:"resources"`
	Aria      AriaConfig      `yaml:"aria"`
	Session   SessionConfig   `yaml:"session"`
	Server    ServerConfig    `yaml:"server"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Log       LogConfig       `yaml:"log"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	BasePath   string `yaml:"basePath"`   // URL prefix of site assets (empty = root)
	Lang       string `yaml:"lang"`       // Document language (empty = "en")
	ContentDir string `yaml:"contentDir"` // Directory of page sources served by the server
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Custom assets directory (empty = embedded)
}

// LoaderConfig tunes the page-load sequence.
type LoaderConfig struct {
	DelayedAfter    Duration `yaml:"delayedAfter"`    // Pause before delayed tasks (0 = default)
	FontsBreakpoint int      `yaml:"fontsBreakpoint"` // Viewport width loading fonts eagerly (0 = default)
	SnapshotDir     string   `yaml:"snapshotDir"`     // Directory receiving delayed HTML snapshots
}

// ResourcesConfig selects how stylesheets reach the page.
type ResourcesConfig struct {
	Inline bool `yaml:"inline"` // Embed CSS in <style> instead of <link>
}

// AriaConfig configures the remediation engine.
type AriaConfig struct {
	ErrorPolicy string `yaml:"errorPolicy"` // fail-fast or continue
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend string      `yaml:"backend"` // memory or redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr   string   `yaml:"addr"`
	Prefix string   `yaml:"prefix"`
	TTL    Duration `yaml:"ttl"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SnapshotConfig configures browser captures.
type SnapshotConfig struct {
	Workers int      `yaml:"workers"` // Browser pool size (0 = auto)
	Timeout Duration `yaml:"timeout"` // Per-capture timeout (0 = default)
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate checks field lengths and enumerated values.
func (c *Config) Validate() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"site.basePath", c.Site.BasePath, MaxPathLength},
		{"site.lang", c.Site.Lang, MaxLangLength},
		{"site.contentDir", c.Site.ContentDir, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"loader.snapshotDir", c.Loader.SnapshotDir, MaxPathLength},
		{"session.redis.addr", c.Session.Redis.Addr, MaxAddrLength},
		{"session.redis.prefix", c.Session.Redis.Prefix, MaxAddrLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
	} {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.Loader.DelayedAfter < 0 || c.Loader.DelayedAfter.Std() > MaxDelayedAfter {
		return fmt.Errorf("%w: loader.delayedAfter must be between 0 and %s, got %s",
			ErrInvalidValue, MaxDelayedAfter, c.Loader.DelayedAfter.Std())
	}
	if c.Loader.FontsBreakpoint < 0 || c.Loader.FontsBreakpoint > MaxFontsBreakpoint {
		return fmt.Errorf("%w: loader.fontsBreakpoint must be between 0 and %d, got %d",
			ErrInvalidValue, MaxFontsBreakpoint, c.Loader.FontsBreakpoint)
	}
	if _, err := aria.ParseErrorPolicy(c.Aria.ErrorPolicy); err != nil {
		return fmt.Errorf("%w: aria.errorPolicy: %v", ErrInvalidValue, err)
	}

	switch c.Session.Backend {
	case "", session.BackendMemory:
	case session.BackendRedis:
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("%w: session.redis.addr is required with the redis backend", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: session.backend must be memory or redis, got %q", ErrInvalidValue, c.Session.Backend)
	}
	if c.Session.Redis.TTL < 0 {
		return fmt.Errorf("%w: session.redis.ttl cannot be negative", ErrInvalidValue)
	}

	if c.Snapshot.Workers < 0 || c.Snapshot.Workers > MaxSnapshotWorkers {
		return fmt.Errorf("%w: snapshot.workers must be between 0 and %d, got %d",
			ErrInvalidValue, MaxSnapshotWorkers, c.Snapshot.Workers)
	}
	if c.Snapshot.Timeout < 0 {
		return fmt.Errorf("%w: snapshot.timeout cannot be negative", ErrInvalidValue)
	}

	if c.Log.Level != "" {
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
		}
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %v", ErrInvalidValue, err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Site:    SiteConfig{Lang: "en", ContentDir: "content"},
		Loader:  LoaderConfig{DelayedAfter: Duration(3 * time.Second), FontsBreakpoint: 900},
		Aria:    AriaConfig{ErrorPolicy: aria.FailFast.String()},
		Session: SessionConfig{Backend: session.BackendMemory},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: string(logging.FormatText)},
	}
}

// SessionOptions converts the session section for session.Open.
func (c *Config) SessionOptions() session.Config {
	return session.Config{
		Backend: c.Session.Backend,
		Addr:    c.Session.Redis.Addr,
		Prefix:  c.Session.Redis.Prefix,
		TTL:     c.Session.Redis.TTL.Std(),
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-pageload/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
