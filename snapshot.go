package pageload

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/process"
)

// OutputKind selects the format of a captured page.
type OutputKind string

const (
	OutputPNG OutputKind = "png"
	OutputPDF OutputKind = "pdf"
)

// Default capture settings.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	defaultCaptureTimeout = 30 * time.Second
	maxViewportSide       = 10000
)

// Viewport is the size, in CSS pixels, of the emulated browser window.
type Viewport struct {
	Width  int
	Height int
}

// CaptureOptions configures a page capture.
type CaptureOptions struct {
	Kind     OutputKind
	Viewport Viewport

	// ScrollTarget is the id of the element scrolled into view before capture.
	ScrollTarget string

	// FullPage captures the whole page instead of the viewport (PNG only).
	FullPage bool
}

// Validate checks the options and fills in defaults.
func (o *CaptureOptions) Validate() error {
	switch o.Kind {
	case "":
		o.Kind = OutputPNG
	case OutputPNG, OutputPDF:
	default:
		return fmt.Errorf("%w: %q (use png or pdf)", ErrInvalidOutputKind, o.Kind)
	}
	if o.Viewport.Width == 0 && o.Viewport.Height == 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 ||
		o.Viewport.Width > maxViewportSide || o.Viewport.Height > maxViewportSide {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, o.Viewport.Width, o.Viewport.Height)
	}
	return nil
}

// Capturer renders loaded pages in a browser.
type Capturer interface {
	Capture(ctx context.Context, html string, opts *CaptureOptions) ([]byte, error)
	Close() error
}

// pageRenderer renders a local HTML file, so Snapshotter can be tested
// without a browser.
type pageRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *CaptureOptions) ([]byte, error)
	Close() error
}

var (
	_ Capturer     = (*Snapshotter)(nil)
	_ pageRenderer = (*rodRenderer)(nil)
)

// rodRenderer implements pageRenderer with headless Chrome via go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox is required in CI and containers
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		r.kill(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher, r.browser = l, browser
	return nil
}

// kill terminates the browser process tree.
func (r *rodRenderer) kill(l *launcher.Launcher) {
	if pid := l.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	l.Kill()
}

// Close releases browser resources. A browser that does not close
// cleanly is killed.
func (r *rodRenderer) Close() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if err != nil && r.launcher != nil {
		r.kill(r.launcher)
	}
	r.browser, r.launcher = nil, nil
	return err
}

// RenderFromFile opens a local HTML file and captures it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *CaptureOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Timeout(timeout)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}
	if err := page.Navigate("file://" + filePath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.ScrollTarget != "" {
		const scrollJS = `(id) => { const el = document.getElementById(id); if (el) el.scrollIntoView(); }`
		if _, err := page.Eval(scrollJS, opts.ScrollTarget); err != nil {
			return nil, fmt.Errorf("%w: scrolling to %q: %v", ErrCapture, opts.ScrollTarget, err)
		}
	}

	if opts.Kind == OutputPDF {
		return r.pdf(page)
	}
	buf, err := page.Screenshot(opts.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return buf, nil
}

func (r *rodRenderer) pdf(page *rod.Page) ([]byte, error) {
	reader, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrCapture, err)
	}
	return buf, nil
}

// Snapshotter captures loaded pages as PNG or PDF in headless Chrome.
// The browser starts on first use. A Snapshotter is not safe for
// concurrent use; use a SnapshotterPool for parallel captures.
type Snapshotter struct {
	renderer pageRenderer
}

// NewSnapshotter creates a Snapshotter. A zero timeout selects 30 seconds.
func NewSnapshotter(timeout time.Duration) *Snapshotter {
	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}
	return &Snapshotter{renderer: newRodRenderer(timeout)}
}

// Capture renders html in the browser and returns the captured bytes.
func (s *Snapshotter) Capture(ctx context.Context, html string, opts *CaptureOptions) ([]byte, error) {
	if opts == nil {
		opts = &CaptureOptions{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return s.renderer.RenderFromFile(ctx, tmpPath, opts)
}

// Close releases browser resources.
func (s *Snapshotter) Close() error {
	if s.renderer != nil {
		return s.renderer.Close()
	}
	return nil
}

// CaptureSnapshot returns a delayed task capturing the settled page with c
// and handing the bytes to store.
func CaptureSnapshot(c Capturer, opts CaptureOptions, store func(ctx context.Context, snap Snapshot, data []byte) error) DelayedTask {
	return func(ctx context.Context, snap Snapshot) error {
		o := opts
		if o.ScrollTarget == "" {
			o.ScrollTarget = snap.ScrollTarget
		}
		data, err := c.Capture(ctx, snap.HTML, &o)
		if err != nil {
			return err
		}
		return store(ctx, snap, data)
	}
}
