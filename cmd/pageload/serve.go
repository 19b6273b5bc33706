package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/hints"
	"github.com/alnah/go-pageload/internal/metrics"
	"github.com/alnah/go-pageload/internal/server"
	"github.com/alnah/go-pageload/internal/session"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// runServe starts the HTTP server and blocks until ctx is done.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}
	setString(&cfg.Server.Addr, flags.addr)
	setString(&cfg.Site.ContentDir, flags.contentDir)
	if err := applySiteFlags(&flags.site, cfg); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg, flags.common)
	if err != nil {
		return err
	}

	store, err := session.Open(ctx, cfg.SessionOptions())
	if err != nil {
		return fmt.Errorf("opening session store: %w%s", err, hints.ForRedisConnect(cfg.Session.Redis.Addr))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing session store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	handler, err := newSiteHandler(cfg, logger, store, reg)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("%w: listening on %s: %v", ErrUsage, cfg.Server.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
	return serve(ctx, srv, ln, logger)
}

// newSiteHandler wires the Loader, its metrics and the session store into
// the page handler.
func newSiteHandler(cfg *config.Config, logger *slog.Logger, store session.Store, reg *prometheus.Registry) (http.Handler, error) {
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	// Sequential label ids keep ETags stable across renders of one page.
	opts, err := loaderOptions(cfg, logger, aria.WithSequentialIDs())
	if err != nil {
		return nil, err
	}
	opts = append(opts, pageload.WithLifecycleHooks(metricsHooks(collector)))

	renderer := pageload.NewRenderer(pageload.New(opts...),
		pageload.WithPageObserver(func(f pageload.Format, err error) {
			collector.ObservePage(f.String(), err)
		}),
	)

	styles, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}

	return server.NewHandler(renderer, server.Config{
		ContentDir:  cfg.Site.ContentDir,
		BasePath:    cfg.Site.BasePath,
		Lang:        cfg.Site.Lang,
		Assets:      styles,
		Session:     store,
		Gatherer:    reg,
		Diagnostics: pageload.NewLogSink(logger),
		Logger:      logger,
	}), nil
}

// metricsHooks reports page load events to c.
func metricsHooks(c *metrics.Collector) pageload.LifecycleHooks {
	return pageload.LifecycleHooks{
		OnPhase: func(_ context.Context, e pageload.PhaseEvent) {
			c.ObservePhase(e.Phase.String(), e.Duration, e.Err)
		},
		OnRule: func(_ context.Context, r aria.RuleResult) {
			c.ObserveRule(r.Name, r.Changed, r.Err)
		},
		OnBlock: c.ObserveBlock,
		OnOutcome: func(_ context.Context, o pageload.Outcome) {
			c.ObserveOutcome(string(o.Step))
		},
		OnDelayed: c.ObserveDelayed,
	}
}

// serve runs srv on ln until ctx is done, then drains open requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving pages", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
