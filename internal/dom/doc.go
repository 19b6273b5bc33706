// Package dom provides a small mutable document model over golang.org/x/net/html.
//
// Queries are XPath expressions evaluated with antchfx/htmlquery. Every
// query returns a fresh slice, so callers can mutate the tree while walking
// the result. Attribute setters report whether they changed the tree, which
// lets idempotent passes count real edits.
package dom
