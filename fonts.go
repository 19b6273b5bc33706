package pageload

import (
	"context"

	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/session"
)

const fontsLoadedValue = "true"

// fontsDesired reports whether fonts should load during the eager phase:
// on wide viewports, or when the session already fetched them once.
func (p *page) fontsDesired(ctx context.Context) bool {
	if p.env.ViewportWidth >= p.l.fontsBreakpoint {
		return true
	}
	if !p.env.hasSession() {
		return false
	}
	v, ok, err := p.env.Session.Get(ctx, p.env.SessionID, session.FontsLoadedKey)
	if err != nil {
		p.report(ctx, StepSession, err)
		return false
	}
	return ok && v == fontsLoadedValue
}

// loadFonts attaches the fonts stylesheet and remembers it in the session.
// The flag is not persisted for development hosts.
func (p *page) loadFonts(ctx context.Context) {
	if err := p.styles.LoadCSS(ctx, p.doc, p.styles.StyleHref(assets.StyleFonts)); err != nil {
		p.report(ctx, StepFonts, err)
		return
	}
	p.result.FontsLoaded = true

	if p.env.isLocal() || !p.env.hasSession() {
		return
	}
	if err := p.env.Session.Set(ctx, p.env.SessionID, session.FontsLoadedKey, fontsLoadedValue); err != nil {
		p.report(ctx, StepSession, err)
	}
}
