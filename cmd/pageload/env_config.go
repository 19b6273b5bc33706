package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-pageload/internal/config"
)

// envPrefix starts every variable read by pageload.
const envPrefix = "PAGELOAD_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // PAGELOAD_CONFIG: config file name or path

	Lang        string // PAGELOAD_LANG: document language
	BasePath    string // PAGELOAD_BASE_PATH: URL prefix of site assets
	ContentDir  string // PAGELOAD_CONTENT_DIR: pages served by the server
	AssetsDir   string // PAGELOAD_ASSETS_DIR: custom site assets
	SnapshotDir string // PAGELOAD_SNAPSHOT_DIR: delayed HTML snapshots

	Addr           string // PAGELOAD_ADDR: server listen address
	SessionBackend string // PAGELOAD_SESSION_BACKEND: memory or redis
	RedisAddr      string // PAGELOAD_REDIS_ADDR: redis host:port
	ErrorPolicy    string // PAGELOAD_ERROR_POLICY: fail-fast or continue
	Inline         *bool  // PAGELOAD_INLINE: inline stylesheets

	Timeout time.Duration // PAGELOAD_TIMEOUT: capture timeout
	Workers int           // PAGELOAD_WORKERS: browser pool size

	LogLevel  string // PAGELOAD_LOG_LEVEL
	LogFormat string // PAGELOAD_LOG_FORMAT
}

// knownEnvVars lists valid PAGELOAD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PAGELOAD_CONFIG":          true,
	"PAGELOAD_LANG":            true,
	"PAGELOAD_BASE_PATH":       true,
	"PAGELOAD_CONTENT_DIR":     true,
	"PAGELOAD_ASSETS_DIR":      true,
	"PAGELOAD_SNAPSHOT_DIR":    true,
	"PAGELOAD_ADDR":            true,
	"PAGELOAD_SESSION_BACKEND": true,
	"PAGELOAD_REDIS_ADDR":      true,
	"PAGELOAD_ERROR_POLICY":    true,
	"PAGELOAD_INLINE":          true,
	"PAGELOAD_TIMEOUT":         true,
	"PAGELOAD_WORKERS":         true,
	"PAGELOAD_LOG_LEVEL":       true,
	"PAGELOAD_LOG_FORMAT":      true,
	"PAGELOAD_CONTAINER":       true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers, durations and booleans are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:     os.Getenv("PAGELOAD_CONFIG"),
		Lang:           os.Getenv("PAGELOAD_LANG"),
		BasePath:       os.Getenv("PAGELOAD_BASE_PATH"),
		ContentDir:     os.Getenv("PAGELOAD_CONTENT_DIR"),
		AssetsDir:      os.Getenv("PAGELOAD_ASSETS_DIR"),
		SnapshotDir:    os.Getenv("PAGELOAD_SNAPSHOT_DIR"),
		Addr:           os.Getenv("PAGELOAD_ADDR"),
		SessionBackend: os.Getenv("PAGELOAD_SESSION_BACKEND"),
		RedisAddr:      os.Getenv("PAGELOAD_REDIS_ADDR"),
		ErrorPolicy:    os.Getenv("PAGELOAD_ERROR_POLICY"),
		LogLevel:       os.Getenv("PAGELOAD_LOG_LEVEL"),
		LogFormat:      os.Getenv("PAGELOAD_LOG_FORMAT"),
	}

	if inline := os.Getenv("PAGELOAD_INLINE"); inline != "" {
		if b, err := strconv.ParseBool(inline); err == nil {
			cfg.Inline = &b
		}
	}
	if timeout := os.Getenv("PAGELOAD_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := os.Getenv("PAGELOAD_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PAGELOAD_* variables.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config values with the variables that are set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Site.Lang, env.Lang)
	setString(&cfg.Site.BasePath, env.BasePath)
	setString(&cfg.Site.ContentDir, env.ContentDir)
	setString(&cfg.Assets.BasePath, env.AssetsDir)
	setString(&cfg.Loader.SnapshotDir, env.SnapshotDir)
	setString(&cfg.Server.Addr, env.Addr)
	setString(&cfg.Session.Backend, env.SessionBackend)
	setString(&cfg.Session.Redis.Addr, env.RedisAddr)
	setString(&cfg.Aria.ErrorPolicy, env.ErrorPolicy)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)

	if env.Inline != nil {
		cfg.Resources.Inline = *env.Inline
	}
	if env.Timeout > 0 {
		cfg.Snapshot.Timeout = config.Duration(env.Timeout)
	}
	if env.Workers > 0 {
		cfg.Snapshot.Workers = env.Workers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
