package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/hints"
)

// Sentinel errors for render operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadSource         = errors.New("failed to read page source")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidExtension   = errors.New("file must have .md, .markdown, .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// maxSourceSize caps a page source read from disk or stdin.
const maxSourceSize = 16 << 20

// stdinName selects standard input as the page source.
const stdinName = "-"

// sourceExtensions are the page sources discovered in directories.
var sourceExtensions = map[string]bool{".md": true, ".markdown": true, ".html": true, ".htm": true}

// PageRenderer runs the page load for one source.
type PageRenderer interface {
	Render(ctx context.Context, src pageload.Source, env pageload.Environment) (*pageload.Rendered, error)
}

var _ PageRenderer = (*pageload.Renderer)(nil)

// FileToRender represents a single page to process.
type FileToRender struct {
	InputPath  string
	OutputPath string
}

// RenderResult holds the outcome of a single page.
type RenderResult struct {
	InputPath   string
	OutputPath  string
	CapturePath string
	Outcomes    int
	Delayed     *pageload.DelayedRun
	Err         error
	Duration    time.Duration
}

// renderParams groups parameters shared across batch/file rendering.
type renderParams struct {
	format    pageload.Format
	lang      string
	basePath  string
	location  *url.URL
	capturer  pageload.Capturer
	capture   pageload.CaptureOptions
	sink      pageload.DiagnosticSink
	workers   int
	sourceDir bool
}

// runRender orchestrates the render command.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if err := validateWorkers(flags.capture.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}
	setString(&cfg.Loader.SnapshotDir, flags.snapshotDir)
	if flags.capture.kind != "" {
		// Captured pages are opened from a temporary file, so links to
		// site stylesheets would not resolve.
		cfg.Resources.Inline = true
	}
	if err := applySiteFlags(&flags.site, cfg); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg, flags.common)
	if err != nil {
		return err
	}
	opts, err := loaderOptions(cfg, logger)
	if err != nil {
		return err
	}

	params, err := buildRenderParams(flags, cfg)
	if err != nil {
		return err
	}
	params.sink = pageload.NewLogSink(logger)

	if len(positional) == 0 {
		return fmt.Errorf("%w: pass a file, a directory or %q for stdin", ErrNoInput, stdinName)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected one input, got %d", ErrUsage, len(positional))
	}

	renderer := pageload.NewRenderer(pageload.New(opts...))

	if positional[0] == stdinName {
		return renderStdin(ctx, renderer, params, env)
	}

	files, err := discoverFiles(positional[0], flags.output)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no page sources found in %s", ErrNoInput, positional[0])
	}

	if params.capture.Kind != "" {
		poolSize := params.workers
		timeout, err := resolveTimeout(flags.capture.timeout, cfg)
		if err != nil {
			return err
		}
		pool := pageload.NewSnapshotterPool(poolSize, timeout)
		defer pool.Close()
		params.capturer = pool
		params.workers = poolSize
		logger.Debug("browser pool ready", "size", poolSize, "timeout", timeout)
	}

	results := renderBatch(ctx, renderer, files, params)

	if cfg.Loader.SnapshotDir != "" {
		waitDelayed(ctx, results, env)
	}

	failedCount := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failedCount > 0 {
		return fmt.Errorf("%d page(s) failed: %w", failedCount, firstError(results))
	}
	return nil
}

// buildRenderParams validates flags that shape every page.
func buildRenderParams(flags *renderFlags, cfg *config.Config) (*renderParams, error) {
	format, err := pageload.ParseFormat(flags.format)
	if err != nil {
		return nil, err
	}
	params := &renderParams{
		format:   format,
		lang:     cfg.Site.Lang,
		basePath: cfg.Site.BasePath,
		workers:  pageload.ResolvePoolSize(resolveWorkers(flags.capture.workers, cfg)),
	}

	if flags.url != "" {
		u, err := url.Parse(flags.url)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid --url: %v", ErrUsage, err)
		}
		params.location = u
	}

	if flags.capture.kind != "" {
		viewport, err := parseViewport(flags.capture.viewport)
		if err != nil {
			return nil, err
		}
		params.capture = pageload.CaptureOptions{
			Kind:     pageload.OutputKind(strings.ToLower(flags.capture.kind)),
			Viewport: viewport,
			FullPage: flags.capture.fullPage,
		}
		if err := params.capture.Validate(); err != nil {
			return nil, err
		}
		params.sourceDir = true
	}
	return params, nil
}

// resolveWorkers picks the worker count: flag, then config.
func resolveWorkers(flagWorkers int, cfg *config.Config) int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	return cfg.Snapshot.Workers
}

// resolveTimeout picks the capture timeout: flag, then config, then default.
func resolveTimeout(flagTimeout string, cfg *config.Config) (time.Duration, error) {
	if flagTimeout != "" {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: invalid --timeout %q", ErrUsage, flagTimeout)
		}
		return d, nil
	}
	return cfg.Snapshot.Timeout.Std(), nil
}

// renderStdin renders standard input to standard output.
func renderStdin(ctx context.Context, r PageRenderer, params *renderParams, env *Environment) error {
	if params.capture.Kind != "" {
		return fmt.Errorf("%w: --capture needs a file input", ErrUsage)
	}
	content, err := fileutil.ReadLimited(env.Stdin, maxSourceSize)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSource, err)
	}
	out, err := r.Render(ctx, pageload.Source{Content: string(content), Format: params.format}, params.environment(""))
	if err != nil {
		return withPageHint(err)
	}
	if _, err := fmt.Fprint(env.Stdout, out.HTML); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// environment builds the Environment of the page read from inputPath.
func (p *renderParams) environment(inputPath string) pageload.Environment {
	env := pageload.Environment{
		BasePath:      p.basePath,
		Lang:          p.lang,
		Location:      p.location,
		ViewportWidth: p.capture.Viewport.Width,
		Diagnostics:   p.sink,
	}
	if env.Location == nil && inputPath != "" {
		if abs, err := filepath.Abs(inputPath); err == nil {
			env.Location = &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		}
	}
	return env
}

// renderBatch processes files concurrently. The Renderer is shared; captures
// go through the browser pool.
func renderBatch(ctx context.Context, r PageRenderer, files []FileToRender, params *renderParams) []RenderResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := params.workers
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]RenderResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = renderFile(ctx, r, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile processes a single page and returns the result.
func renderFile(ctx context.Context, r PageRenderer, f FileToRender, params *renderParams) RenderResult {
	start := time.Now()
	result := RenderResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	fail := func(err error) RenderResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := fileutil.ReadFileLimited(f.InputPath, maxSourceSize)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrReadSource, err))
	}

	src := pageload.Source{Content: string(content), Format: params.format, Name: f.InputPath}
	if params.sourceDir {
		src.SourceDir = filepath.Dir(f.InputPath)
	}
	out, err := r.Render(ctx, src, params.environment(f.InputPath))
	if err != nil {
		return fail(withPageHint(err))
	}
	result.Outcomes = len(out.Result.Outcomes)
	result.Delayed = out.Result.Delayed

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: creating output directory: %v", ErrWriteOutput, err))
	}
	// #nosec G306 -- rendered pages are meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(out.HTML), filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	if params.capturer != nil {
		opts := params.capture
		opts.ScrollTarget = out.Result.ScrollTarget
		data, err := params.capturer.Capture(ctx, out.HTML, &opts)
		if err != nil {
			if errors.Is(err, pageload.ErrBrowserConnect) {
				err = fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
			} else if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w%s", err, hints.ForTimeout())
			}
			return fail(err)
		}
		result.CapturePath = capturePath(f.OutputPath, opts.Kind)
		// #nosec G306 -- captures are meant to be readable
		if err := os.WriteFile(result.CapturePath, data, filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
		}
	}

	result.Duration = time.Since(start)
	return result
}

// withPageHint appends a hint to structural page failures.
func withPageHint(err error) error {
	switch {
	case errors.Is(err, pageload.ErrMainNotFound):
		return fmt.Errorf("%w%s", err, hints.ForMissingLandmark("main"))
	case errors.Is(err, pageload.ErrHeaderNotFound):
		return fmt.Errorf("%w%s", err, hints.ForMissingLandmark("header"))
	case errors.Is(err, pageload.ErrFooterNotFound):
		return fmt.Errorf("%w%s", err, hints.ForMissingLandmark("footer"))
	case pageload.IsStructural(err) && !errors.Is(err, pageload.ErrInternal):
		return fmt.Errorf("%w%s", err, hints.ForRemediation())
	}
	return err
}

// waitDelayed blocks until the delayed work of every page settled, so
// snapshots are written before the process exits.
func waitDelayed(ctx context.Context, results []RenderResult, env *Environment) {
	for _, r := range results {
		if r.Delayed == nil {
			continue
		}
		if err := r.Delayed.Wait(ctx); err != nil {
			fmt.Fprintf(env.Stderr, "WARN %s: delayed work: %v\n", r.InputPath, err)
		}
	}
}

// discoverFiles finds all page sources to render.
func discoverFiles(inputPath, output string) ([]FileToRender, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateSourceExtension(inputPath); err != nil {
			return nil, err
		}
		return []FileToRender{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, output, "")}}, nil
	}

	var files []FileToRender
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		// Skip pages rendered by an earlier run.
		if strings.HasSuffix(path, loadedSuffix+".html") {
			return nil
		}
		files = append(files, FileToRender{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath)})
		return nil
	})

	return files, err
}

// loadedSuffix marks rendered HTML written next to an HTML source.
const loadedSuffix = ".loaded"

// resolveOutputPath determines the HTML output path for a page source.
// A rendered HTML page never overwrites its source.
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	var out string
	switch {
	case output == "":
		out = filepath.Join(filepath.Dir(inputPath), base+".html")
	case strings.HasSuffix(output, ".html") && baseInputDir == "":
		out = output
	case baseInputDir != "":
		relDir := "."
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			relDir = filepath.Dir(rel)
		}
		out = filepath.Join(output, relDir, base+".html")
	default:
		out = filepath.Join(output, base+".html")
	}

	if filepath.Clean(out) == filepath.Clean(inputPath) {
		out = strings.TrimSuffix(out, ".html") + loadedSuffix + ".html"
	}
	return out
}

// capturePath returns the capture path next to an HTML output.
func capturePath(htmlPath string, kind pageload.OutputKind) string {
	return strings.TrimSuffix(htmlPath, ".html") + "." + string(kind)
}

// validateSourceExtension checks that the file is a Markdown or HTML source.
func validateSourceExtension(path string) error {
	ext := filepath.Ext(path)
	if !sourceExtensions[strings.ToLower(ext)] {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > pageload.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, pageload.MaxPoolSize)
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed pages.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed pages.
func countResults(results []RenderResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first failure, for the exit code.
func firstError(results []RenderResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResults outputs render results and returns the failure count.
func printResults(results []RenderResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		if quiet {
			continue
		}

		created := r.OutputPath
		if r.CapturePath != "" {
			created += ", " + r.CapturePath
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, %d warnings)\n", r.InputPath, created, r.Duration.Round(time.Millisecond), r.Outcomes)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", created)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
