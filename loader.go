package pageload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/blocks"
	"github.com/alnah/go-pageload/internal/dom"
	"github.com/alnah/go-pageload/internal/logging"
	"github.com/alnah/go-pageload/internal/resources"
)

// Default timings.
const (
	// DefaultDelay separates the end of the remediation phase from delayed work.
	DefaultDelay = 3 * time.Second

	// DefaultDelayedTimeout bounds the delayed tasks of one page load.
	DefaultDelayedTimeout = 30 * time.Second

	// DefaultFontsBreakpoint is the viewport width, in CSS pixels, from which
	// fonts load during the eager phase.
	DefaultFontsBreakpoint = 900
)

// appearClass reveals the body once the first section is decorated.
const appearClass = "appear"

var firstSectionExpr = xpath.MustCompile(".//div[" + dom.ClassPredicate("section") + "]")

// Result describes a page load.
type Result struct {
	// Phase is the last phase that completed.
	Phase Phase

	// Report of the remediation pass; nil when the phase was not reached.
	Report *aria.Report

	// Outcomes lists the cosmetic failures in the order they happened.
	// Failures of delayed work are only sent to the DiagnosticSink.
	Outcomes []Outcome

	// ScrollTarget is the id of the element named by the URL fragment,
	// when that element exists once the sections are loaded.
	ScrollTarget string

	// FontsLoaded reports whether the fonts stylesheet is attached.
	FontsLoaded bool

	// Delayed tracks the scheduled delayed work; nil unless Load succeeded.
	Delayed *DelayedRun
}

// Loader runs the page-load sequence on parsed documents. A Loader holds
// no per-page state and may be shared across goroutines.
type Loader struct {
	assets          assets.AssetLoader
	registry        *blocks.Registry
	engine          *aria.Engine
	styleMode       resources.Mode
	autoBlocks      []AutoBlock
	delay           time.Duration
	delayedTimeout  time.Duration
	tasks           []DelayedTask
	fontsBreakpoint int
	logger          *slog.Logger
	hooks           LifecycleHooks
	schedule        scheduleFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithAssets sets the store stylesheets and block fragments are read from.
func WithAssets(a assets.AssetLoader) Option {
	return func(l *Loader) {
		if a != nil {
			l.assets = a
		}
	}
}

// WithRegistry sets the block decorators. Defaults to the built-in blocks
// backed by the asset store.
func WithRegistry(r *blocks.Registry) Option {
	return func(l *Loader) { l.registry = r }
}

// WithEngine sets the accessibility remediation engine.
func WithEngine(e *aria.Engine) Option {
	return func(l *Loader) {
		if e != nil {
			l.engine = e
		}
	}
}

// WithStyleMode selects how stylesheets are attached to the head.
func WithStyleMode(m resources.Mode) Option {
	return func(l *Loader) { l.styleMode = m }
}

// WithAutoBlocks replaces the auto-block builders run before sections
// are decorated.
func WithAutoBlocks(builders ...AutoBlock) Option {
	return func(l *Loader) { l.autoBlocks = builders }
}

// WithDelay sets the pause before delayed work starts.
func WithDelay(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.delay = d
		}
	}
}

// WithDelayedTimeout bounds the delayed tasks of one page load.
// Zero disables the bound.
func WithDelayedTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d >= 0 {
			l.delayedTimeout = d
		}
	}
}

// WithDelayedTasks appends tasks to the delayed work.
func WithDelayedTasks(tasks ...DelayedTask) Option {
	return func(l *Loader) { l.tasks = append(l.tasks, tasks...) }
}

// WithFontsBreakpoint sets the viewport width from which fonts load eagerly.
func WithFontsBreakpoint(px int) Option {
	return func(l *Loader) {
		if px > 0 {
			l.fontsBreakpoint = px
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h LifecycleHooks) Option {
	return func(l *Loader) { l.hooks = h }
}

// New creates a Loader serving the embedded site assets by default.
func New(opts ...Option) *Loader {
	l := &Loader{
		assets:          assets.NewEmbeddedLoader(),
		engine:          aria.New(),
		autoBlocks:      []AutoBlock{BuildHeroBlock},
		delay:           DefaultDelay,
		delayedTimeout:  DefaultDelayedTimeout,
		fontsBreakpoint: DefaultFontsBreakpoint,
		logger:          logging.NewNop(),
		schedule:        afterFunc,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.registry == nil {
		l.registry = blocks.DefaultRegistry(l.assets)
	}
	return l
}

// Engine returns the remediation engine.
func (l *Loader) Engine() *aria.Engine { return l.engine }

// Registry returns the block decorators.
func (l *Loader) Registry() *blocks.Registry { return l.registry }

// Load runs the eager, lazy and remediation phases on doc, in that order,
// then schedules the delayed work and returns without waiting for it.
//
// A structural failure stops the sequence: the error is returned with the
// partial Result, and no later phase runs. Cosmetic failures are reported
// to env.Diagnostics and recorded in Result.Outcomes.
func (l *Loader) Load(ctx context.Context, doc *dom.Document, env Environment) (res *Result, err error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	p := l.newPage(doc, env.withDefaults())

	defer func() {
		if r := recover(); r != nil {
			res, err = p.result, fmt.Errorf("%w: %s phase: %v", ErrInternal, p.phase, r)
		}
	}()

	phases := []struct {
		phase Phase
		run   func(context.Context) error
	}{
		{PhaseEager, p.eager},
		{PhaseLazy, p.lazy},
		{PhaseRemediation, p.remediate},
	}
	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return p.result, err
		}
		p.phase = ph.phase
		start := time.Now()
		err := ph.run(ctx)
		l.hooks.phase(ctx, ph.phase, start, err)
		if err != nil {
			l.logger.ErrorContext(ctx, "page load aborted", "phase", ph.phase.String(), "error", err)
			return p.result, fmt.Errorf("%s phase: %w", ph.phase, err)
		}
		p.result.Phase = ph.phase
	}

	p.phase = PhaseDelayed
	snap, err := p.snapshot()
	if err != nil {
		return p.result, fmt.Errorf("%s phase: %w", PhaseDelayed, err)
	}
	p.result.Delayed = l.scheduleDelayed(snap, p.env)
	p.result.Phase = PhaseDone
	return p.result, nil
}

// page is the state of one Load call.
type page struct {
	l      *Loader
	doc    *dom.Document
	env    Environment
	styles *resources.Loader
	blocks *blocks.Pipeline
	phase  Phase
	result *Result
}

func (l *Loader) newPage(doc *dom.Document, env Environment) *page {
	styles := resources.New(l.assets,
		resources.WithBasePath(env.BasePath),
		resources.WithMode(l.styleMode))
	pipe := blocks.New(l.registry, styles,
		blocks.WithLogger(l.logger),
		blocks.WithBlockObserver(l.hooks.OnBlock))
	return &page{
		l:      l,
		doc:    doc,
		env:    env,
		styles: styles,
		blocks: pipe,
		result: &Result{Phase: PhaseInitial},
	}
}

// report records a cosmetic failure of the current phase.
func (p *page) report(ctx context.Context, step Step, err error) {
	o := Outcome{Phase: p.phase, Step: step, Err: err}
	p.result.Outcomes = append(p.result.Outcomes, o)
	p.env.Diagnostics.Report(ctx, o)
	p.l.hooks.outcome(ctx, o)
}

// eager prepares the document and loads the first section so that the
// largest contentful paint can happen as early as possible.
func (p *page) eager(ctx context.Context) error {
	p.doc.SetLang(p.env.Lang)
	if err := blocks.DecorateTemplateAndTheme(p.doc); err != nil {
		p.report(ctx, StepTemplate, err)
	}

	if main := p.doc.Main(); main != nil {
		if err := p.decorateMain(ctx, main); err != nil {
			return err
		}
		if body := p.doc.Body(); body != nil {
			dom.AddClass(body, appearClass)
		}
		if first := dom.FindOne(main, firstSectionExpr); first != nil {
			if err := p.blocks.LoadSection(ctx, first, blocks.WaitForFirstImage); err != nil {
				return fmt.Errorf("loading first section: %w", err)
			}
		}
	}

	if p.fontsDesired(ctx) {
		p.loadFonts(ctx)
	}
	return nil
}

func (p *page) decorateMain(ctx context.Context, main *html.Node) error {
	blocks.DecorateButtons(main)
	blocks.DecorateIcons(main, p.env.BasePath)
	p.buildAutoBlocks(ctx, main)
	if err := blocks.DecorateSections(main); err != nil {
		return fmt.Errorf("decorating sections: %w", err)
	}
	blocks.DecorateBlocks(main)
	return nil
}

// lazy loads the remaining sections, the header and footer blocks, and
// the below-the-fold styles.
func (p *page) lazy(ctx context.Context) error {
	main := p.doc.Main()
	if main == nil {
		return ErrMainNotFound
	}
	if err := p.blocks.LoadSections(ctx, main); err != nil {
		return fmt.Errorf("loading sections: %w", err)
	}

	if id := p.env.fragment(); id != "" && p.doc.ElementByID(id) != nil {
		p.result.ScrollTarget = id
	}

	header := p.doc.Header()
	if header == nil {
		return ErrHeaderNotFound
	}
	if err := p.blocks.LoadHeader(ctx, header); err != nil {
		return fmt.Errorf("loading header: %w", err)
	}
	footer := p.doc.Footer()
	if footer == nil {
		return ErrFooterNotFound
	}
	if err := p.blocks.LoadFooter(ctx, footer); err != nil {
		return fmt.Errorf("loading footer: %w", err)
	}

	if err := p.styles.LoadCSS(ctx, p.doc, p.styles.StyleHref(assets.StyleLazy)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.report(ctx, StepLazyStyles, err)
	}
	p.loadFonts(ctx)
	return nil
}

// remediate runs the accessibility rules over main once all content exists.
func (p *page) remediate(ctx context.Context) error {
	main := p.doc.Main()
	if main == nil {
		return ErrMainNotFound
	}
	report, err := p.l.engine.Remediate(main)
	p.result.Report = report
	p.l.hooks.rules(ctx, report)
	if err != nil {
		return fmt.Errorf("remediating main: %w", err)
	}
	for _, failed := range report.Failed() {
		p.report(ctx, StepRemediation, failed.Err)
	}
	if n := report.Changes(); n > 0 {
		p.l.logger.DebugContext(ctx, "remediated main", "changes", n)
	}
	return nil
}

// snapshot freezes the document for delayed work.
func (p *page) snapshot() (Snapshot, error) {
	out, err := p.doc.String()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		HTML:         out,
		URL:          p.env.location(),
		Report:       p.result.Report,
		ScrollTarget: p.result.ScrollTarget,
		FontsLoaded:  p.result.FontsLoaded,
		TakenAt:      time.Now(),
	}, nil
}

// IsStructural reports whether err comes from a failure that aborts a
// page load, as opposed to cancellation or a caller mistake.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMainNotFound) ||
		errors.Is(err, ErrHeaderNotFound) ||
		errors.Is(err, ErrFooterNotFound) ||
		errors.Is(err, aria.ErrRuleFailed) ||
		errors.Is(err, ErrInternal)
}
