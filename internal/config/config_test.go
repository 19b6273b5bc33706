package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-pageload/internal/session"
	"github.com/alnah/go-pageload/internal/yamlutil"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Site.Lang != "en" {
		t.Errorf("Site.Lang = %q, want %q", cfg.Site.Lang, "en")
	}
	if got := cfg.Loader.DelayedAfter.Std(); got != 3*time.Second {
		t.Errorf("Loader.DelayedAfter = %s, want 3s", got)
	}
	if cfg.Loader.FontsBreakpoint != 900 {
		t.Errorf("Loader.FontsBreakpoint = %d, want 900", cfg.Loader.FontsBreakpoint)
	}
	if cfg.Session.Backend != session.BackendMemory {
		t.Errorf("Session.Backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Resources.Inline {
		t.Error("Resources.Inline = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				if err != nil && !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error should name the field: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"continue policy", func(c *Config) { c.Aria.ErrorPolicy = "continue" }, nil},
		{"unknown policy", func(c *Config) { c.Aria.ErrorPolicy = "ignore" }, ErrInvalidValue},
		{"redis with addr", func(c *Config) {
			c.Session.Backend = session.BackendRedis
			c.Session.Redis.Addr = "localhost:6379"
		}, nil},
		{"redis without addr", func(c *Config) { c.Session.Backend = session.BackendRedis }, ErrInvalidValue},
		{"unknown backend", func(c *Config) { c.Session.Backend = "memcached" }, ErrInvalidValue},
		{"negative breakpoint", func(c *Config) { c.Loader.FontsBreakpoint = -1 }, ErrInvalidValue},
		{"huge breakpoint", func(c *Config) { c.Loader.FontsBreakpoint = MaxFontsBreakpoint + 1 }, ErrInvalidValue},
		{"negative delay", func(c *Config) { c.Loader.DelayedAfter = Duration(-time.Second) }, ErrInvalidValue},
		{"long delay", func(c *Config) { c.Loader.DelayedAfter = Duration(time.Hour) }, ErrInvalidValue},
		{"too many workers", func(c *Config) { c.Snapshot.Workers = MaxSnapshotWorkers + 1 }, ErrInvalidValue},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidValue},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidValue},
		{"long lang", func(c *Config) { c.Site.Lang = strings.Repeat("a", MaxLangLength+1) }, ErrFieldTooLong},
		{"long server addr", func(c *Config) { c.Server.Addr = strings.Repeat("a", MaxAddrLength+1) }, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_SessionOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Session = SessionConfig{
		Backend: session.BackendRedis,
		Redis:   RedisConfig{Addr: "cache:6379", Prefix: "site:", TTL: Duration(time.Hour)},
	}

	got := cfg.SessionOptions()
	want := session.Config{Backend: "redis", Addr: "cache:6379", Prefix: "site:", TTL: time.Hour}
	if got != want {
		t.Errorf("SessionOptions() = %+v, want %+v", got, want)
	}
}

func TestDuration_YAML(t *testing.T) {
	t.Parallel()

	var c LoaderConfig
	if err := yamlutil.Unmarshal([]byte("delayedAfter: 1500ms\n"), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if c.DelayedAfter.Std() != 1500*time.Millisecond {
		t.Errorf("DelayedAfter = %s, want 1.5s", c.DelayedAfter.Std())
	}

	out, err := yamlutil.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), "delayedAfter: 1.5s") {
		t.Errorf("Marshal() = %q, want delayedAfter: 1.5s", out)
	}

	if err := yamlutil.Unmarshal([]byte("delayedAfter: soon\n"), &c); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config over defaults", func(t *testing.T) {
		path := writeConfig(t, "site.yaml", `site:
  basePath: /docs
  lang: fr
loader:
  delayedAfter: 5s
resources:
  inline: true
session:
  backend: redis
  redis:
    addr: "localhost:6379"
    ttl: 24h
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Site.BasePath != "/docs" || cfg.Site.Lang != "fr" {
			t.Errorf("Site = %+v", cfg.Site)
		}
		if cfg.Loader.DelayedAfter.Std() != 5*time.Second {
			t.Errorf("Loader.DelayedAfter = %s, want 5s", cfg.Loader.DelayedAfter.Std())
		}
		if cfg.Loader.FontsBreakpoint != 900 {
			t.Errorf("Loader.FontsBreakpoint = %d, want default 900", cfg.Loader.FontsBreakpoint)
		}
		if !cfg.Resources.Inline {
			t.Error("Resources.Inline = false, want true")
		}
		if cfg.Session.Redis.TTL.Std() != 24*time.Hour {
			t.Errorf("Session.Redis.TTL = %s, want 24h", cfg.Session.Redis.TTL.Std())
		}
		if cfg.Server.Addr != ":8080" {
			t.Errorf("Server.Addr = %q, want default :8080", cfg.Server.Addr)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		path := writeConfig(t, "invalid.yaml", "site: [unclosed")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		path := writeConfig(t, "unknown.yaml", "site:\n  lang: en\nunknownField: x\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		path := writeConfig(t, "policy.yaml", "aria:\n  errorPolicy: sometimes\n")
		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("config name resolves yaml in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "mysite.yml"), []byte("site:\n  lang: de\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		t.Chdir(dir)

		cfg, err := LoadConfig("mysite")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Site.Lang != "de" {
			t.Errorf("Site.Lang = %q, want de", cfg.Site.Lang)
		}
	})

	t.Run("unknown config name lists tried paths", func(t *testing.T) {
		t.Chdir(t.TempDir())

		_, err := LoadConfig("nosuchsite")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "nosuchsite.yaml") {
			t.Errorf("error should list tried paths: %v", err)
		}
	})
}
