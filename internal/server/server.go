// Package server serves loaded pages over HTTP.
//
// Every page request runs the full page-load sequence for the requesting
// client: the viewport width comes from client hints, the session from a
// cookie, and the scroll target is left to the browser. Rendered pages carry
// a content hash ETag.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/zeebo/blake3"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/metrics"
	"github.com/alnah/go-pageload/internal/session"
)

// SessionCookie holds the session id of a visitor.
const SessionCookie = "pageload_session"

// MaxPageSize caps the size of a page source read from the content directory.
const MaxPageSize = 4 << 20

const (
	sessionMaxAge = 30 * 24 * time.Hour
	maxViewport   = 10000
)

// Client hints carrying the viewport width, most specific first.
var viewportHints = []string{"Sec-CH-Viewport-Width", "Viewport-Width"}

// pageExtensions are tried in order when a URL names a page without extension.
var pageExtensions = []string{".md", ".html"}

// PageRenderer runs the page load for one source.
type PageRenderer interface {
	Render(ctx context.Context, src pageload.Source, env pageload.Environment) (*pageload.Rendered, error)
}

// Config configures the handler.
type Config struct {
	// ContentDir holds the page sources (.md and .html).
	ContentDir string

	// BasePath is the URL prefix of stylesheets, matching the Loader's.
	BasePath string

	Lang string

	// Assets serves stylesheets. Nil serves the embedded site.
	Assets assets.AssetLoader

	// Session persists per-visitor flags. Nil disables sessions.
	Session session.Store

	// Gatherer exposes metrics on /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Diagnostics receives cosmetic failures of every page load.
	Diagnostics pageload.DiagnosticSink

	Logger *slog.Logger
}

type handler struct {
	renderer PageRenderer
	cfg      Config
	logger   *slog.Logger
}

// NewHandler creates the HTTP handler serving pages rendered by r.
func NewHandler(r PageRenderer, cfg Config) http.Handler {
	if cfg.Assets == nil {
		cfg.Assets = assets.NewEmbeddedLoader()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{renderer: r, cfg: cfg, logger: logger}

	router := chi.NewRouter()
	router.Use(h.recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if cfg.Gatherer != nil {
		router.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	assetRoutes := func(r chi.Router) {
		r.Get("/styles/{name}.css", h.serveStyle)
		r.Get("/blocks/{block}/{file}.css", h.serveBlockStyle)
	}
	if base := strings.TrimSuffix(cfg.BasePath, "/"); base != "" {
		router.Route(base, assetRoutes)
	} else {
		assetRoutes(router)
	}

	router.Get("/*", h.servePage)
	return router
}

func (h *handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(r.Context(), "handler panic", "path", r.URL.Path, "panic", fmt.Sprint(rec))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *handler) serveStyle(w http.ResponseWriter, r *http.Request) {
	css, err := h.cfg.Assets.LoadStyle(chi.URLParam(r, "name"))
	h.writeCSS(w, r, css, err)
}

func (h *handler) serveBlockStyle(w http.ResponseWriter, r *http.Request) {
	block := chi.URLParam(r, "block")
	if chi.URLParam(r, "file") != block {
		http.NotFound(w, r)
		return
	}
	css, err := h.cfg.Assets.LoadBlockStyle(block)
	h.writeCSS(w, r, css, err)
}

func (h *handler) writeCSS(w http.ResponseWriter, r *http.Request, css string, err error) {
	if err != nil {
		if errors.Is(err, assets.ErrStyleNotFound) || errors.Is(err, assets.ErrInvalidAssetName) {
			http.NotFound(w, r)
			return
		}
		h.logger.ErrorContext(r.Context(), "loading stylesheet", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	h.writeBody(w, r, []byte(css))
}

func (h *handler) servePage(w http.ResponseWriter, r *http.Request) {
	file, name, ok := h.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	content, err := fileutil.ReadFileLimited(file, MaxPageSize)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reading page", "file", file, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	env := pageload.Environment{
		BasePath:      h.cfg.BasePath,
		Lang:          h.cfg.Lang,
		Location:      requestURL(r),
		ViewportWidth: ViewportWidth(r),
		Diagnostics:   h.cfg.Diagnostics,
	}
	if h.cfg.Session != nil {
		env.Session = h.cfg.Session
		env.SessionID = sessionID(w, r)
	}

	out, err := h.renderer.Render(r.Context(), pageload.Source{Content: string(content), Name: name}, env)
	if err != nil {
		status := statusFor(err)
		h.logger.ErrorContext(r.Context(), "rendering page", "path", r.URL.Path, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Accept-CH", viewportHints[0])
	w.Header().Add("Vary", strings.Join(viewportHints, ", "))
	w.Header().Add("Vary", "Cookie")
	h.writeBody(w, r, []byte(out.HTML))
}

// writeBody sends body with an ETag, answering 304 when the client has it.
func (h *handler) writeBody(w http.ResponseWriter, r *http.Request, body []byte) {
	etag := ETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// resolve maps a URL path to a page source under the content directory.
// "/" maps to index, and a path without extension tries .md, .html and a
// directory index.
func (h *handler) resolve(urlPath string) (file, name string, ok bool) {
	rel := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	var candidates []string
	switch ext := path.Ext(rel); {
	case rel == "":
		candidates = withExtensions("index")
	case ext == ".md" || ext == ".html":
		candidates = []string{rel}
	case ext != "":
		return "", "", false
	default:
		candidates = append(withExtensions(rel), withExtensions(path.Join(rel, "index"))...)
	}
	for _, c := range candidates {
		full := filepath.Join(h.cfg.ContentDir, filepath.FromSlash(c))
		if fileutil.FileExists(full) {
			return full, c, true
		}
	}
	return "", "", false
}

func withExtensions(base string) []string {
	out := make([]string, len(pageExtensions))
	for i, ext := range pageExtensions {
		out[i] = base + ext
	}
	return out
}

// ViewportWidth reads the viewport width client hint of r, 0 when absent
// or invalid.
func ViewportWidth(r *http.Request) int {
	for _, name := range viewportHints {
		v := strings.TrimSpace(r.Header.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 || n > maxViewport {
			return 0
		}
		return int(n)
	}
	return 0
}

// sessionID returns the session cookie of r, issuing a new one when absent.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return id
}

func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
}

// statusFor maps a render error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case pageload.IsStructural(err),
		errors.Is(err, pageload.ErrEmptySource),
		errors.Is(err, pageload.ErrSkeleton):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ETag returns a strong entity tag for body, derived from its BLAKE3 hash.
func ETag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
