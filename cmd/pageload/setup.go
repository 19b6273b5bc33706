package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/hints"
	"github.com/alnah/go-pageload/internal/logging"
	"github.com/alnah/go-pageload/internal/resources"
)

// loadConfig resolves the configuration of a command.
// Precedence: CLI flags > env vars > config file > defaults.
func loadConfig(flagConfig string) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := flagConfig
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(userConfigPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, nil
}

// userConfigPaths lists where a named config would be found.
func userConfigPaths(name string) []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-pageload", name+".yaml")}
}

// applySiteFlags merges site flags into cfg (CLI wins) and validates it.
func applySiteFlags(f *siteFlags, cfg *config.Config) error {
	setString(&cfg.Site.Lang, f.lang)
	setString(&cfg.Site.BasePath, f.basePath)
	setString(&cfg.Assets.BasePath, f.assetPath)
	setString(&cfg.Aria.ErrorPolicy, f.policy)
	if f.inline {
		cfg.Resources.Inline = true
	}
	return cfg.Validate()
}

// newLogger builds the logger of a command. Verbose selects debug and
// quiet keeps errors only.
func newLogger(w io.Writer, cfg *config.Config, common commonFlags) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	switch {
	case common.verbose:
		level = slog.LevelDebug
	case common.quiet:
		level = slog.LevelError
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	return logging.New(w, level, format), nil
}

// loaderOptions translates cfg into Loader options. engineOpts are applied
// after the configured error policy.
func loaderOptions(cfg *config.Config, logger *slog.Logger, engineOpts ...aria.Option) ([]pageload.Option, error) {
	store, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	policy, err := aria.ParseErrorPolicy(cfg.Aria.ErrorPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}
	mode := resources.ModeLink
	if cfg.Resources.Inline {
		mode = resources.ModeInline
	}

	opts := []pageload.Option{
		pageload.WithAssets(store),
		pageload.WithEngine(aria.New(append([]aria.Option{aria.WithErrorPolicy(policy)}, engineOpts...)...)),
		pageload.WithStyleMode(mode),
		pageload.WithFontsBreakpoint(cfg.Loader.FontsBreakpoint),
		pageload.WithLogger(logger),
		pageload.WithDelayedTasks(pageload.LogSnapshot(logger)),
	}
	if d := cfg.Loader.DelayedAfter.Std(); d > 0 {
		opts = append(opts, pageload.WithDelay(d))
	}
	if cfg.Loader.SnapshotDir != "" {
		opts = append(opts, pageload.WithDelayedTasks(pageload.WriteSnapshot(cfg.Loader.SnapshotDir)))
	}
	return opts, nil
}
