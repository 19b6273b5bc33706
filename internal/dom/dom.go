package dom

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for document operations.
var (
	ErrParse    = errors.New("failed to parse HTML")
	ErrRender   = errors.New("failed to render HTML")
	ErrNilNode  = errors.New("nil node")
	ErrSelector = errors.New("invalid selector")
)

// Common expressions used to locate the document landmarks.
var (
	htmlExpr   = xpath.MustCompile("//html")
	headExpr   = xpath.MustCompile("//head")
	bodyExpr   = xpath.MustCompile("//body")
	mainExpr   = xpath.MustCompile("//main")
	headerExpr = xpath.MustCompile("//header")
	footerExpr = xpath.MustCompile("//footer")
)

// Document is a mutable HTML tree. It is not safe for concurrent use:
// a single goroutine owns it for the duration of a page load.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Document{root: root}, nil
}

// ParseString parses a full HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an already parsed tree.
func NewDocument(root *html.Node) *Document {
	return &Document{root: root}
}

// OwnerDocument returns the document containing n, rooted at its topmost ancestor.
func OwnerDocument(n *html.Node) *Document {
	if n == nil {
		return nil
	}
	for n.Parent != nil {
		n = n.Parent
	}
	return &Document{root: n}
}

// Root returns the document node.
func (d *Document) Root() *html.Node { return d.root }

// HTML returns the <html> element.
func (d *Document) HTML() *html.Node { return htmlquery.QuerySelector(d.root, htmlExpr) }

// Head returns the <head> element.
func (d *Document) Head() *html.Node { return htmlquery.QuerySelector(d.root, headExpr) }

// Body returns the <body> element.
func (d *Document) Body() *html.Node { return htmlquery.QuerySelector(d.root, bodyExpr) }

// Main returns the first <main> element, or nil.
func (d *Document) Main() *html.Node { return htmlquery.QuerySelector(d.root, mainExpr) }

// Header returns the first <header> element, or nil.
func (d *Document) Header() *html.Node { return htmlquery.QuerySelector(d.root, headerExpr) }

// Footer returns the first <footer> element, or nil.
func (d *Document) Footer() *html.Node { return htmlquery.QuerySelector(d.root, footerExpr) }

// ElementByID returns the first element whose id equals id.
// Walks the tree instead of building an XPath so ids never need escaping.
func (d *Document) ElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	Walk(d.root, func(n *html.Node) bool {
		if v, ok := Attr(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// SetLang sets the lang attribute of the <html> element.
func (d *Document) SetLang(lang string) {
	if el := d.HTML(); el != nil {
		SetAttr(el, "lang", lang)
	}
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// String serializes the document.
func (d *Document) String() (string, error) {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Compile compiles an XPath expression, wrapping failures in ErrSelector.
func Compile(expr string) (*xpath.Expr, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSelector, expr, err)
	}
	return e, nil
}

// ClassPredicate returns an XPath predicate body matching elements that
// carry class c, the equivalent of the CSS selector ".c".
func ClassPredicate(c string) string {
	return "contains(concat(' ', normalize-space(@class), ' '), ' " + c + " ')"
}

// Find returns every node under top matching expr, in document order.
// The result is a snapshot: mutating the tree while iterating it is safe.
func Find(top *html.Node, expr *xpath.Expr) []*html.Node {
	if top == nil {
		return nil
	}
	nodes := htmlquery.QuerySelectorAll(top, expr)
	if len(nodes) < 2 {
		return nodes
	}
	// Descendant steps come back level by level, not in tree order.
	order := make(map[*html.Node]int, len(nodes))
	for _, n := range nodes {
		order[n] = -1
	}
	i := 0
	Walk(OwnerDocument(top).Root(), func(n *html.Node) bool {
		if _, ok := order[n]; ok {
			order[n] = i
			i++
		}
		return i < len(nodes)
	})
	sort.SliceStable(nodes, func(a, b int) bool { return order[nodes[a]] < order[nodes[b]] })
	return nodes
}

// FindOne returns the first node under top matching expr in document
// order, or nil.
func FindOne(top *html.Node, expr *xpath.Expr) *html.Node {
	nodes := Find(top, expr)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}

// OuterHTML renders n including its own tag.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.OutputHTML(n, true)
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.OutputHTML(n, false)
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn stops the walk.
func Walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// ParseFragment parses markup in the context of parent without attaching it.
func ParseFragment(parent *html.Node, markup string) ([]*html.Node, error) {
	if parent == nil {
		return nil, ErrNilNode
	}
	ctx := parent
	if ctx.Type != html.ElementNode {
		ctx = NewElement("div")
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nodes, nil
}

// AppendHTML parses markup and appends the resulting nodes to parent.
func AppendHTML(parent *html.Node, markup string) error {
	nodes, err := ParseFragment(parent, markup)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}
