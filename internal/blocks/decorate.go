package blocks

import (
	"strings"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

// Status values shared by sections and blocks.
const (
	StatusInitialized = "initialized"
	StatusLoading     = "loading"
	StatusLoaded      = "loaded"
)

// Attribute names used to track decoration.
const (
	AttrSectionStatus = "data-section-status"
	AttrBlockStatus   = "data-block-status"
	AttrBlockName     = "data-block-name"
)

var (
	anchorExpr      = xpath.MustCompile(".//a")
	imgExpr         = xpath.MustCompile(".//img")
	iconExpr        = xpath.MustCompile(".//span[" + dom.ClassPredicate("icon") + "]")
	rawSectionExpr  = xpath.MustCompile("./div[not(@" + AttrSectionStatus + ")]")
	sectionMetaExpr = xpath.MustCompile(".//div[" + dom.ClassPredicate("section-metadata") + "]")
	sectionExpr     = xpath.MustCompile(".//div[" + dom.ClassPredicate("section") + "]")
	blockCandidates = xpath.MustCompile(".//div[" + dom.ClassPredicate("section") + "]/div/div")
	blockExpr       = xpath.MustCompile(".//div[" + dom.ClassPredicate("block") + "]")
	rowExpr         = xpath.MustCompile("./div")
	paragraphExpr   = xpath.MustCompile(".//p")
)

// DecorateButtons turns links that stand alone in a paragraph into buttons.
// A link wrapped in <strong> becomes a primary button, in <em> a secondary one.
func DecorateButtons(el *html.Node) {
	for _, a := range dom.Find(el, anchorExpr) {
		text := dom.Text(a)
		if dom.AttrOr(a, "title", "") == "" {
			dom.SetAttr(a, "title", strings.TrimSpace(text))
		}
		if dom.AttrOr(a, "href", "") == strings.TrimSpace(text) {
			continue
		}
		if dom.FindOne(a, imgExpr) != nil {
			continue
		}

		up := a.Parent
		if up == nil || up.Type != html.ElementNode {
			continue
		}
		twoUp := up.Parent

		if dom.ChildNodeCount(up) == 1 && dom.IsElement(up, "p", "div") {
			dom.SetAttr(a, "class", "button")
			dom.AddClass(up, "button-container")
		}
		if dom.ChildNodeCount(up) == 1 && dom.IsElement(twoUp, "p") && dom.ChildNodeCount(twoUp) == 1 {
			switch dom.Tag(up) {
			case "strong":
				dom.SetAttr(a, "class", "button primary")
				dom.AddClass(twoUp, "button-container")
			case "em":
				dom.SetAttr(a, "class", "button secondary")
				dom.AddClass(twoUp, "button-container")
			}
		}
	}
}

// DecorateIcons appends an <img> to every span.icon-<name> that has none yet.
// The image points at {basePath}/icons/<name>.svg.
func DecorateIcons(el *html.Node, basePath string) {
	base := strings.TrimRight(basePath, "/")
	for _, span := range dom.Find(el, iconExpr) {
		name := iconName(span)
		if name == "" || dom.FindOne(span, imgExpr) != nil {
			continue
		}
		span.AppendChild(dom.NewElement("img",
			html.Attribute{Key: "data-icon-name", Val: name},
			html.Attribute{Key: "src", Val: base + "/icons/" + name + ".svg"},
			html.Attribute{Key: "alt", Val: ""},
			html.Attribute{Key: "loading", Val: "lazy"},
		))
	}
}

func iconName(span *html.Node) string {
	for _, c := range dom.Classes(span) {
		if name, ok := strings.CutPrefix(c, "icon-"); ok {
			return name
		}
	}
	return ""
}

// DecorateSections turns the undecorated <div> children of main into sections.
// Runs of default content are grouped in a default-content-wrapper, each
// classed <div> gets a wrapper of its own. Sections start hidden in the
// initialized state. A section-metadata block is applied to its section
// and removed.
func DecorateSections(main *html.Node) error {
	for _, section := range dom.Find(main, rawSectionExpr) {
		var wrappers []*html.Node
		defaultContent := false
		for _, e := range dom.Children(section) {
			classedDiv := dom.IsElement(e, "div") && dom.AttrOr(e, "class", "") != ""
			if classedDiv || !defaultContent {
				wrapper := dom.NewElement("div")
				wrappers = append(wrappers, wrapper)
				defaultContent = !classedDiv
				if defaultContent {
					dom.AddClass(wrapper, "default-content-wrapper")
				}
			}
			dom.Append(wrappers[len(wrappers)-1], e)
		}
		for _, w := range wrappers {
			section.AppendChild(w)
		}

		dom.AddClass(section, "section")
		dom.SetAttr(section, AttrSectionStatus, StatusInitialized)
		hide(section)

		if meta := dom.FindOne(section, sectionMetaExpr); meta != nil {
			if err := applySectionMetadata(section, meta); err != nil {
				return err
			}
			dom.Detach(meta.Parent)
		}
	}
	return nil
}

// DecorateBlocks decorates every block candidate in the sections of main.
func DecorateBlocks(main *html.Node) {
	for _, block := range dom.Find(main, blockCandidates) {
		DecorateBlock(block)
	}
}

// DecorateBlock marks a <div> as a block named after its first class.
// Its parent becomes <name>-wrapper and its section <name>-container.
func DecorateBlock(block *html.Node) {
	classes := dom.Classes(block)
	if len(classes) == 0 || dom.HasAttr(block, AttrBlockStatus) {
		return
	}
	name := classes[0]

	dom.AddClass(block, "block")
	dom.SetAttr(block, AttrBlockName, name)
	dom.SetAttr(block, AttrBlockStatus, StatusInitialized)

	if wrapper := dom.ParentElement(block); wrapper != nil {
		dom.AddClass(wrapper, name+"-wrapper")
	}
	if section := dom.Closest(block, func(n *html.Node) bool { return dom.HasClass(n, "section") }); section != nil {
		dom.AddClass(section, name+"-container")
	}
}

// Cell is one column of a block row. Its nodes are moved into the block.
type Cell []*html.Node

// Row is one row of a block.
type Row []Cell

// BuildBlock creates a detached block element from rows of cells:
// <div class="name"><div><div>cell</div>...</div>...</div>.
func BuildBlock(name string, rows ...Row) *html.Node {
	block := dom.NewElement("div", html.Attribute{Key: "class", Val: ToClassName(name)})
	for _, row := range rows {
		rowEl := dom.NewElement("div")
		for _, cell := range row {
			col := dom.NewElement("div")
			for _, n := range cell {
				if n != nil {
					dom.Append(col, n)
				}
			}
			rowEl.AppendChild(col)
		}
		block.AppendChild(rowEl)
	}
	return block
}

// ReadBlockConfig extracts the key/value rows of a configuration block.
// The first column names the key; the second holds the value. Links yield
// their href, images their src, paragraphs their text. Several values
// produce a []string, a single one a string.
func ReadBlockConfig(block *html.Node) map[string]any {
	config := make(map[string]any)
	for _, row := range dom.Find(block, rowExpr) {
		cols := dom.Children(row)
		if len(cols) < 2 {
			continue
		}
		name := ToClassName(dom.Text(cols[0]))
		if name == "" {
			continue
		}
		config[name] = cellValue(cols[1])
	}
	return config
}

func cellValue(col *html.Node) any {
	if links := dom.Find(col, anchorExpr); len(links) > 0 {
		return collapse(links, func(n *html.Node) string { return dom.AttrOr(n, "href", "") })
	}
	if imgs := dom.Find(col, imgExpr); len(imgs) > 0 {
		return collapse(imgs, func(n *html.Node) string { return dom.AttrOr(n, "src", "") })
	}
	if ps := dom.Find(col, paragraphExpr); len(ps) > 0 {
		return collapse(ps, func(n *html.Node) string { return strings.TrimSpace(dom.Text(n)) })
	}
	return strings.TrimSpace(dom.Text(col))
}

func collapse(nodes []*html.Node, value func(*html.Node) string) any {
	if len(nodes) == 1 {
		return value(nodes[0])
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = value(n)
	}
	return out
}

const displayNone = "display: none;"

func hide(el *html.Node) {
	style := strings.TrimSpace(dom.AttrOr(el, "style", ""))
	if strings.Contains(style, displayNone) {
		return
	}
	if style != "" && !strings.HasSuffix(style, ";") {
		style += ";"
	}
	dom.SetAttr(el, "style", strings.TrimSpace(style+" "+displayNone))
}

func show(el *html.Node) {
	style, ok := dom.Attr(el, "style")
	if !ok {
		return
	}
	style = strings.TrimSpace(strings.ReplaceAll(style, displayNone, ""))
	if style == "" {
		dom.RemoveAttr(el, "style")
		return
	}
	dom.SetAttr(el, "style", style)
}
