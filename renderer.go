package pageload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-pageload/internal/dom"
	"github.com/alnah/go-pageload/internal/pipeline"
)

// Format is the markup of a page source.
type Format int

const (
	FormatAuto Format = iota
	FormatHTML
	FormatMarkdown
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "markdown"
	}
	return "auto"
}

// ParseFormat parses "auto", "html", "markdown" or "md".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat guesses the format from the file extension of name, then
// from the content: markup starting with "<" is HTML.
func DetectFormat(name, content string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".html", ".htm":
		return FormatHTML
	}
	if strings.HasPrefix(strings.TrimSpace(content), "<") {
		return FormatHTML
	}
	return FormatMarkdown
}

// Source is a page to render.
type Source struct {
	Content string
	Format  Format

	// Name is the file name of the source, used to detect its format.
	Name string

	// SourceDir resolves relative media paths of Markdown sources.
	SourceDir string
}

// Rendered is a loaded page.
type Rendered struct {
	HTML   string
	Format Format
	Result *Result
}

// PageObserver is notified after every render with the source format.
type PageObserver func(format Format, err error)

// Renderer parses sources, runs the page load, and serializes the result.
// A Renderer is safe for concurrent use.
type Renderer struct {
	loader   *Loader
	skeleton *pipeline.Builder
	observe  PageObserver
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithSkeletonBuilder sets the Markdown skeleton builder.
func WithSkeletonBuilder(b *pipeline.Builder) RendererOption {
	return func(r *Renderer) {
		if b != nil {
			r.skeleton = b
		}
	}
}

// WithPageObserver registers a callback invoked after every render.
func WithPageObserver(fn PageObserver) RendererOption {
	return func(r *Renderer) { r.observe = fn }
}

// NewRenderer creates a Renderer loading pages with loader.
func NewRenderer(loader *Loader, opts ...RendererOption) *Renderer {
	if loader == nil {
		loader = New()
	}
	r := &Renderer{loader: loader, skeleton: pipeline.NewBuilder()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Loader returns the page loader.
func (r *Renderer) Loader() *Loader { return r.loader }

// Render loads src and returns the serialized page. On a structural
// failure the partial Result is returned with the error.
func (r *Renderer) Render(ctx context.Context, src Source, env Environment) (out *Rendered, err error) {
	format := src.Format
	if format == FormatAuto {
		format = DetectFormat(src.Name, src.Content)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, rec)
		}
		if r.observe != nil {
			r.observe(format, err)
		}
	}()

	if strings.TrimSpace(src.Content) == "" {
		return nil, ErrEmptySource
	}
	doc, err := r.parse(ctx, src, format)
	if err != nil {
		return nil, err
	}

	res, err := r.loader.Load(ctx, doc, env)
	if err != nil {
		return &Rendered{Format: format, Result: res}, err
	}
	html, err := doc.String()
	if err != nil {
		return &Rendered{Format: format, Result: res}, err
	}
	return &Rendered{HTML: html, Format: format, Result: res}, nil
}

func (r *Renderer) parse(ctx context.Context, src Source, format Format) (*dom.Document, error) {
	switch format {
	case FormatHTML:
		return dom.ParseString(src.Content)
	case FormatMarkdown:
		doc, err := r.skeleton.Build(ctx, pipeline.Input{Markdown: src.Content, SourceDir: src.SourceDir})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSkeleton, err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
