package pipeline

import (
	"strings"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/blocks"
	"github.com/alnah/go-pageload/internal/dom"
)

var (
	headerCellExpr = xpath.MustCompile("./thead/tr[1]/th")
	bodyRowExpr    = xpath.MustCompile("./tbody/tr")
	bodyCellExpr   = xpath.MustCompile("./td")
)

// BlockName parses a block table header such as "Cards (Wide, Dark)" into
// the block name and its variant classes.
func BlockName(header string) (name string, variants []string) {
	header = strings.TrimSpace(header)
	base, rest, hasVariants := strings.Cut(header, "(")
	name = blocks.ToClassName(base)
	if !hasVariants {
		return name, nil
	}
	rest, _, _ = strings.Cut(rest, ")")
	for _, v := range strings.Split(rest, ",") {
		if c := blocks.ToClassName(v); c != "" {
			variants = append(variants, c)
		}
	}
	return name, variants
}

// tableToBlock converts a table whose only non-empty header cell names a
// block into that block. Other tables yield nil and stay untouched.
func tableToBlock(table *html.Node) *html.Node {
	headers := dom.Find(table, headerCellExpr)
	if len(headers) == 0 {
		return nil
	}
	for _, th := range headers[1:] {
		if strings.TrimSpace(dom.Text(th)) != "" {
			return nil
		}
	}
	name, variants := BlockName(dom.Text(headers[0]))
	if name == "" {
		return nil
	}

	var rows []blocks.Row
	for _, tr := range dom.Find(table, bodyRowExpr) {
		var row blocks.Row
		for _, td := range dom.Find(tr, bodyCellExpr) {
			row = append(row, blocks.Cell(childNodes(td)))
		}
		rows = append(rows, row)
	}

	block := blocks.BuildBlock(name, rows...)
	dom.AddClass(block, variants...)
	return block
}

// convertBlockTables replaces the block tables among the children of section.
func convertBlockTables(section *html.Node) int {
	count := 0
	for _, child := range dom.Children(section) {
		if dom.Tag(child) != "table" {
			continue
		}
		if block := tableToBlock(child); block != nil {
			section.InsertBefore(block, child)
			section.RemoveChild(child)
			count++
		}
	}
	return count
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}
