package pageload

import (
	"context"
	"fmt"

	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/blocks"
	"github.com/alnah/go-pageload/internal/dom"
)

// AutoBlock synthesizes blocks from default content of main. It runs
// before sections are decorated, so new blocks are decorated like
// authored ones.
type AutoBlock func(main *html.Node) error

var (
	h1Expr      = xpath.MustCompile(".//h1")
	pictureExpr = xpath.MustCompile(".//picture")
	bareImgExpr = xpath.MustCompile(".//img[not(ancestor::picture)]")
)

// BuildHeroBlock moves the first <h1> and the picture before it into a hero
// block, placed in a new section at the top of main. Pages whose heading
// comes first, or that lack either element, are left untouched.
func BuildHeroBlock(main *html.Node) error {
	h1 := dom.FindOne(main, h1Expr)
	if h1 == nil {
		return nil
	}
	picture := dom.FindOne(main, pictureExpr)
	if picture == nil {
		picture = dom.FindOne(main, bareImgExpr)
	}
	if picture == nil || !dom.Precedes(picture, h1) {
		return nil
	}
	if dom.Closest(h1, isHero) != nil {
		return nil
	}

	section := dom.NewElement("div")
	section.AppendChild(blocks.BuildBlock("hero", blocks.Row{blocks.Cell{picture, h1}}))
	dom.Prepend(main, section)
	return nil
}

func isHero(n *html.Node) bool {
	return dom.HasClass(n, "hero")
}

// buildAutoBlocks runs every builder. A failing builder is reported and
// the page continues without its block.
func (p *page) buildAutoBlocks(ctx context.Context, main *html.Node) {
	for _, build := range p.l.autoBlocks {
		if err := runAutoBlock(build, main); err != nil {
			p.report(ctx, StepAutoBlocks, err)
		}
	}
}

func runAutoBlock(build AutoBlock, main *html.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("auto block panic: %v", r)
		}
	}()
	return build(main)
}
