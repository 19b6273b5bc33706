package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pageload"
)

// ErrUsage marks invalid command lines.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// siteFlags override the site section of the configuration.
type siteFlags struct {
	lang      string
	basePath  string
	assetPath string
	policy    string
	inline    bool
}

// captureFlags select browser captures of rendered pages.
type captureFlags struct {
	kind     string
	viewport string
	fullPage bool
	workers  int
	timeout  string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common      commonFlags
	site        siteFlags
	capture     captureFlags
	output      string
	format      string
	url         string
	snapshotDir string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common     commonFlags
	site       siteFlags
	addr       string
	contentDir string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addSiteFlags adds site flags to a FlagSet.
func addSiteFlags(fs *flag.FlagSet, f *siteFlags) {
	fs.StringVar(&f.lang, "lang", "", "document language")
	fs.StringVar(&f.basePath, "base-path", "", "URL prefix of site assets")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.policy, "policy", "", "remediation error policy: fail-fast, continue")
	fs.BoolVar(&f.inline, "inline", false, "inline stylesheets instead of linking them")
}

// addCaptureFlags adds capture flags to a FlagSet.
func addCaptureFlags(fs *flag.FlagSet, f *captureFlags) {
	fs.StringVar(&f.kind, "capture", "", "capture rendered pages: png, pdf")
	fs.StringVar(&f.viewport, "viewport", "", "viewport as WIDTHxHEIGHT (default 1280x800)")
	fs.BoolVar(&f.fullPage, "full-page", false, "capture the whole page (png only)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "capture timeout (e.g., 30s, 2m)")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "f", "auto", "source format: auto, html, markdown")
	fs.StringVar(&f.url, "url", "", "page URL; its fragment selects the scroll target")
	fs.StringVar(&f.snapshotDir, "snapshot-dir", "", "archive settled pages in this directory")

	addCommonFlags(fs, &f.common)
	addSiteFlags(fs, &f.site)
	addCaptureFlags(fs, &f.capture)

	fs.Usage = func() { printRenderUsage(stderr) }

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	fs.StringVar(&f.contentDir, "content-dir", "", "directory of page sources")

	addCommonFlags(fs, &f.common)
	addSiteFlags(fs, &f.site)

	fs.Usage = func() { printServeUsage(stderr) }

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}

// parseCommonFlags parses commands taking only common flags.
func parseCommonFlags(name string, args []string, stderr io.Writer, usage func(io.Writer)) (*commonFlags, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &commonFlags{}
	addCommonFlags(fs, f)
	fs.Usage = func() { usage(stderr) }
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// parse runs fs and marks parse errors as usage errors. ErrHelp is kept.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseViewport parses "WIDTHxHEIGHT". The empty string yields the zero
// Viewport, which capture options replace with the default size.
func parseViewport(s string) (pageload.Viewport, error) {
	if s == "" {
		return pageload.Viewport{}, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return pageload.Viewport{}, fmt.Errorf("%w: %q (want WIDTHxHEIGHT)", pageload.ErrInvalidViewport, s)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return pageload.Viewport{}, fmt.Errorf("%w: %q", pageload.ErrInvalidViewport, s)
	}
	return pageload.Viewport{Width: width, Height: height}, nil
}
