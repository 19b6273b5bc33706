package blocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
	"github.com/alnah/go-pageload/internal/logging"
)

// Sentinel errors for the pipeline.
var (
	ErrNilSection   = errors.New("section is nil")
	ErrNilContainer = errors.New("container element is nil")
	ErrNoDecorator  = errors.New("no decorator registered for block")
	ErrDecorate     = errors.New("block decoration failed")
)

// StyleLoader attaches block stylesheets to the owning document.
type StyleLoader interface {
	LoadCSS(ctx context.Context, doc *dom.Document, href string) error
	BlockStyleHref(block string) string
}

// FirstContentFunc runs once the blocks of a section are loaded, before the
// section is marked loaded.
type FirstContentFunc func(ctx context.Context, section *html.Node) error

// BlockObserver is notified after each block load with the block name and
// the failure, if any.
type BlockObserver func(block string, err error)

// Pipeline loads sections and blocks. A Pipeline holds no per-page state
// and may be shared by concurrent page loads.
type Pipeline struct {
	registry *Registry
	styles   StyleLoader
	logger   *slog.Logger
	observe  BlockObserver
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for block load failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBlockObserver registers a callback invoked after every block load.
func WithBlockObserver(fn BlockObserver) Option {
	return func(p *Pipeline) { p.observe = fn }
}

// New creates a Pipeline resolving decorators from registry.
func New(registry *Registry, styles StyleLoader, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		styles:   styles,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the decorator registry.
func (p *Pipeline) Registry() *Registry { return p.registry }

// LoadBlock loads the stylesheet of a block and runs its decorator.
// Failures are logged and the block still ends up loaded; only a canceled
// context is returned. Blocks already loading or loaded are skipped.
func (p *Pipeline) LoadBlock(ctx context.Context, block *html.Node) error {
	status := dom.AttrOr(block, AttrBlockStatus, "")
	if status == StatusLoading || status == StatusLoaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	name := dom.AttrOr(block, AttrBlockName, "")
	dom.SetAttr(block, AttrBlockStatus, StatusLoading)

	if err := p.loadBlock(ctx, block, name); err != nil {
		p.logger.Warn("failed to load block", "block", name, "error", err)
		if p.observe != nil {
			p.observe(name, err)
		}
	} else if p.observe != nil {
		p.observe(name, nil)
	}

	dom.SetAttr(block, AttrBlockStatus, StatusLoaded)
	return nil
}

func (p *Pipeline) loadBlock(ctx context.Context, block *html.Node, name string) error {
	var cssErr error
	if p.styles != nil {
		cssErr = p.styles.LoadCSS(ctx, dom.OwnerDocument(block), p.styles.BlockStyleHref(name))
	}
	return errors.Join(cssErr, p.decorate(ctx, block, name))
}

// decorate runs the registered decorator, recovering from panics.
func (p *Pipeline) decorate(ctx context.Context, block *html.Node, name string) (err error) {
	d, ok := p.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoDecorator, name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", ErrDecorate, name, r)
		}
	}()
	if err := d.Decorate(ctx, block); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecorate, name, err)
	}
	return nil
}

// LoadSection loads every block of section in document order, then runs
// onFirstContent, then marks the section loaded and visible.
// Sections past the initialized state are skipped.
func (p *Pipeline) LoadSection(ctx context.Context, section *html.Node, onFirstContent FirstContentFunc) error {
	if section == nil {
		return ErrNilSection
	}
	status := dom.AttrOr(section, AttrSectionStatus, "")
	if status != "" && status != StatusInitialized {
		return nil
	}
	dom.SetAttr(section, AttrSectionStatus, StatusLoading)

	for _, block := range dom.Find(section, blockExpr) {
		if err := p.LoadBlock(ctx, block); err != nil {
			return err
		}
	}
	if onFirstContent != nil {
		if err := onFirstContent(ctx, section); err != nil {
			return fmt.Errorf("first content: %w", err)
		}
	}

	dom.SetAttr(section, AttrSectionStatus, StatusLoaded)
	show(section)
	return nil
}

// LoadSections loads every section of main in document order.
func (p *Pipeline) LoadSections(ctx context.Context, main *html.Node) error {
	if main == nil {
		return fmt.Errorf("%w: main", ErrNilContainer)
	}
	for _, section := range dom.Find(main, sectionExpr) {
		if err := p.LoadSection(ctx, section, nil); err != nil {
			return err
		}
	}
	return nil
}

// LoadHeader builds, decorates and loads the header block inside header.
func (p *Pipeline) LoadHeader(ctx context.Context, header *html.Node) error {
	return p.loadChrome(ctx, header, "header")
}

// LoadFooter builds, decorates and loads the footer block inside footer.
func (p *Pipeline) LoadFooter(ctx context.Context, footer *html.Node) error {
	return p.loadChrome(ctx, footer, "footer")
}

func (p *Pipeline) loadChrome(ctx context.Context, container *html.Node, name string) error {
	if container == nil {
		return fmt.Errorf("%w: %s", ErrNilContainer, name)
	}
	for _, child := range dom.Children(container) {
		if dom.AttrOr(child, AttrBlockName, "") == name {
			return p.LoadBlock(ctx, child)
		}
	}
	block := BuildBlock(name)
	container.AppendChild(block)
	DecorateBlock(block)
	return p.LoadBlock(ctx, block)
}

// WaitForFirstImage marks the first image of section for eager loading.
func WaitForFirstImage(ctx context.Context, section *html.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if img := dom.FindOne(section, imgExpr); img != nil {
		dom.SetAttr(img, "loading", "eager")
	}
	return nil
}
