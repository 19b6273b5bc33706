// Package resources attaches stylesheets to a document head.
//
// A stylesheet is referenced by the href a browser would request, for
// example "/styles/fonts.css" or "/blocks/hero/hero.css". The Loader checks
// that the site provides it, then either links it or inlines it as a
// <style> element. Loading the same href twice leaves a single element.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/dom"
)

// Sentinel errors for stylesheet loading.
var (
	ErrStylesheetUnavailable = errors.New("stylesheet unavailable")
	ErrNoHead                = errors.New("document has no head")
	ErrForeignHref           = errors.New("stylesheet is not served by the site")
)

// Mode selects how a stylesheet is attached.
type Mode int

const (
	// ModeLink appends <link rel="stylesheet" href="...">.
	ModeLink Mode = iota
	// ModeInline appends <style data-href="...">...</style> with the stylesheet body.
	ModeInline
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	if m == ModeInline {
		return "inline"
	}
	return "link"
}

// CSSLoader loads stylesheets into documents.
type CSSLoader interface {
	LoadCSS(ctx context.Context, doc *dom.Document, href string) error
}

// Loader resolves stylesheet hrefs against a site asset store.
type Loader struct {
	assets   assets.AssetLoader
	basePath string
	mode     Mode
}

// Option configures a Loader.
type Option func(*Loader)

// WithBasePath sets the path prefix the site code is served under.
func WithBasePath(base string) Option {
	return func(l *Loader) { l.basePath = strings.TrimRight(base, "/") }
}

// WithMode selects link or inline attachment.
func WithMode(m Mode) Option {
	return func(l *Loader) { l.mode = m }
}

// New creates a Loader backed by store.
func New(store assets.AssetLoader, opts ...Option) *Loader {
	l := &Loader{assets: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BasePath returns the configured code base path.
func (l *Loader) BasePath() string { return l.basePath }

// StyleHref returns the href of a global stylesheet.
func (l *Loader) StyleHref(name string) string {
	return l.basePath + "/" + assets.StylePath(name)
}

// BlockStyleHref returns the href of a block stylesheet.
func (l *Loader) BlockStyleHref(block string) string {
	return l.basePath + "/" + assets.BlockStylePath(block)
}

// LoadCSS attaches the stylesheet at href to the head of doc.
// It is a no-op when the head already references href. A stylesheet the
// site does not provide yields an error wrapping ErrStylesheetUnavailable
// and leaves the document untouched.
func (l *Loader) LoadCSS(ctx context.Context, doc *dom.Document, href string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: %s: %w", ErrStylesheetUnavailable, href, dom.ErrNilNode)
	}
	head := doc.Head()
	if head == nil {
		return fmt.Errorf("%w: %s: %w", ErrStylesheetUnavailable, href, ErrNoHead)
	}
	if attached(head, href) {
		return nil
	}

	css, err := l.fetch(href)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStylesheetUnavailable, href, err)
	}

	switch l.mode {
	case ModeInline:
		style := dom.NewElement("style", html.Attribute{Key: "data-href", Val: href})
		style.AppendChild(dom.NewText(sanitizeCSS(css)))
		head.AppendChild(style)
	default:
		head.AppendChild(dom.NewElement("link",
			html.Attribute{Key: "rel", Val: "stylesheet"},
			html.Attribute{Key: "href", Val: href},
		))
	}
	return nil
}

// fetch maps href onto the asset store.
func (l *Loader) fetch(href string) (string, error) {
	rel, ok := strings.CutPrefix(href, l.basePath+"/")
	if !ok {
		return "", ErrForeignHref
	}
	parts := strings.Split(rel, "/")
	switch {
	case len(parts) == 2 && parts[0] == assets.StylesDir:
		name, ok := strings.CutSuffix(parts[1], ".css")
		if !ok {
			return "", ErrForeignHref
		}
		return l.assets.LoadStyle(name)
	case len(parts) == 3 && parts[0] == assets.BlocksDir && parts[2] == parts[1]+".css":
		return l.assets.LoadBlockStyle(parts[1])
	}
	return "", ErrForeignHref
}

// attached reports whether head already carries href.
func attached(head *html.Node, href string) bool {
	for _, el := range dom.Children(head) {
		switch dom.Tag(el) {
		case "link":
			if dom.AttrOr(el, "href", "") == href {
				return true
			}
		case "style":
			if dom.AttrOr(el, "data-href", "") == href {
				return true
			}
		}
	}
	return false
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// Compile-time interface check.
var _ CSSLoader = (*Loader)(nil)
