package pageload

import (
	"net/url"
	"strings"

	"github.com/alnah/go-pageload/internal/session"
)

// DefaultLang is applied to the document when Environment.Lang is empty.
const DefaultLang = "en"

// Environment carries the per-request inputs a page load depends on.
// The zero value loads a page in English with no session and no viewport.
type Environment struct {
	// BasePath prefixes every stylesheet and icon URL ("" serves from root).
	BasePath string

	// Lang is written to the lang attribute of <html>.
	Lang string

	// Location is the page URL. Its hostname decides whether the fonts flag
	// is persisted and its fragment names the scroll target.
	Location *url.URL

	// ViewportWidth in CSS pixels; 0 when unknown.
	ViewportWidth int

	// Session persists the fonts-loaded flag across page loads. Nil disables it.
	Session   session.Store
	SessionID string

	// Diagnostics receives cosmetic failures. Nil discards them.
	// A sink may be called after Load returns, from delayed work.
	Diagnostics DiagnosticSink
}

func (e Environment) withDefaults() Environment {
	if e.Lang == "" {
		e.Lang = DefaultLang
	}
	if e.Diagnostics == nil {
		e.Diagnostics = Discard
	}
	return e
}

func (e Environment) hostname() string {
	if e.Location == nil {
		return ""
	}
	return e.Location.Hostname()
}

// isLocal reports whether the page is served from a development host.
func (e Environment) isLocal() bool {
	return strings.Contains(e.hostname(), "localhost")
}

func (e Environment) fragment() string {
	if e.Location == nil {
		return ""
	}
	return e.Location.Fragment
}

func (e Environment) hasSession() bool {
	return e.Session != nil && e.SessionID != ""
}

func (e Environment) location() string {
	if e.Location == nil {
		return ""
	}
	return e.Location.String()
}
