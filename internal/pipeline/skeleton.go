package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
	"github.com/alnah/go-pageload/internal/yamlutil"
)

// Sentinel errors for skeleton building.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrFrontMatter   = errors.New("invalid front matter")
)

// skeletonTemplate is the page every Markdown document is poured into.
const skeletonTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title></title>
</head>
<body>
<header></header>
<main></main>
<footer></footer>
</body>
</html>`

var (
	titleExpr = xpath.MustCompile(".//title")
	h1Expr    = xpath.MustCompile(".//h1")
)

// Input is a Markdown document to build a skeleton from.
type Input struct {
	Markdown string

	// SourceDir resolves relative media paths to file:// URLs when set.
	SourceDir string
}

// Builder builds page skeletons from Markdown.
// A Builder is safe for concurrent use.
type Builder struct {
	converter HTMLConverter
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConverter sets the Markdown to HTML converter.
func WithConverter(c HTMLConverter) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.converter = c
		}
	}
}

// NewBuilder creates a Builder using goldmark.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{converter: NewGoldmarkConverter()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build converts in into a page skeleton.
func (b *Builder) Build(ctx context.Context, in Input) (*dom.Document, error) {
	if strings.TrimSpace(in.Markdown) == "" {
		return nil, ErrEmptyMarkdown
	}

	meta, body, err := yamlutil.DecodeFrontMatter(in.Markdown)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrontMatter, err)
	}

	fragment, err := b.converter.ToHTML(ctx, Preprocess(body))
	if err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	doc, err := dom.ParseString(skeletonTemplate)
	if err != nil {
		return nil, err
	}
	main := doc.Main()
	nodes, err := dom.ParseFragment(main, fragment)
	if err != nil {
		return nil, err
	}
	for _, section := range splitSections(nodes) {
		convertBlockTables(section)
		main.AppendChild(section)
	}

	writeHead(doc, meta)
	if _, err := RewriteRelativePaths(main, in.SourceDir); err != nil {
		return nil, fmt.Errorf("rewriting paths: %w", err)
	}
	return doc, nil
}

// splitSections groups top-level nodes into section <div>s separated by
// thematic breaks. Blank text between blocks and empty sections are dropped.
func splitSections(nodes []*html.Node) []*html.Node {
	var sections []*html.Node
	current := dom.NewElement("div")
	flush := func() {
		if current.FirstChild != nil {
			sections = append(sections, current)
		}
		current = dom.NewElement("div")
	}

	for _, n := range nodes {
		switch {
		case dom.Tag(n) == "hr":
			flush()
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) == "":
		default:
			dom.Append(current, n)
		}
	}
	flush()
	return sections
}

// writeHead sets the title and one <meta> per front matter value.
// Without a title key, the first heading names the page.
func writeHead(doc *dom.Document, meta map[string]any) {
	head := doc.Head()
	if head == nil {
		return
	}

	title := stringify(meta["title"])
	if len(title) == 0 {
		if h1 := dom.FindOne(doc.Main(), h1Expr); h1 != nil {
			title = []string{strings.TrimSpace(dom.Text(h1))}
		}
	}
	if t := dom.FindOne(head, titleExpr); t != nil && len(title) > 0 {
		t.AppendChild(dom.NewText(title[0]))
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		if k != "title" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		attr := "name"
		if strings.Contains(k, ":") {
			attr = "property"
		}
		for _, v := range stringify(meta[k]) {
			head.AppendChild(dom.NewElement("meta",
				html.Attribute{Key: attr, Val: k},
				html.Attribute{Key: "content", Val: v},
			))
		}
	}
}

// stringify flattens a front matter value into tag contents.
func stringify(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item)...)
		}
		return out
	default:
		return []string{fmt.Sprint(val)}
	}
}
