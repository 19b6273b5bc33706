package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/antchfx/xpath"

	"github.com/alnah/go-pageload/internal/dom"
)

const samplePage = `---
title: Welcome
description: A sample page
template: Article
og:image: /media/hero.png
keywords:
  - go
  - pages
---
![Hero](/media/hero.png)

# Hello World

Intro with ==highlight==.

---

| Cards (Wide) |  |
| --- | --- |
| ![a](/a.png) | First |
| ![b](/b.png) | Second |

| Name | Value |
| --- | --- |
| plain | table |

---

| Section Metadata | |
| --- | --- |
| Style | Dark |
`

var (
	sectionsExpr = xpath.MustCompile("./div")
	metaTagExpr  = xpath.MustCompile(".//meta[@name or @property]")
	tableTagExpr = xpath.MustCompile(".//table")
)

func build(t *testing.T, md string) *dom.Document {
	t.Helper()
	doc, err := NewBuilder().Build(context.Background(), Input{Markdown: md})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return doc
}

// ---------------------------------------------------------------------------
// TestBuilder_Build - Markdown to page skeleton
// ---------------------------------------------------------------------------

func TestBuilder_Build_Layout(t *testing.T) {
	t.Parallel()

	doc := build(t, samplePage)

	if doc.Header() == nil || doc.Main() == nil || doc.Footer() == nil {
		t.Fatal("skeleton must carry header, main and footer")
	}
	if dom.ChildNodeCount(doc.Header()) != 0 || dom.ChildNodeCount(doc.Footer()) != 0 {
		t.Error("header and footer must start empty")
	}

	sections := dom.Find(doc.Main(), sectionsExpr)
	if len(sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(sections))
	}
	for i, s := range sections {
		if dom.HasAttr(s, "class") {
			t.Errorf("section %d must be undecorated, got class %q", i, dom.AttrOr(s, "class", ""))
		}
	}
}

func TestBuilder_Build_BlockTables(t *testing.T) {
	t.Parallel()

	doc := build(t, samplePage)
	sections := dom.Find(doc.Main(), sectionsExpr)

	cards := dom.Children(sections[1])[0]
	if got := dom.AttrOr(cards, "class", ""); got != "cards wide" {
		t.Errorf("block class = %q, want %q", got, "cards wide")
	}
	rows := dom.Children(cards)
	if len(rows) != 2 {
		t.Fatalf("block rows = %d, want 2", len(rows))
	}
	if cols := dom.Children(rows[0]); len(cols) != 2 || strings.TrimSpace(dom.Text(cols[1])) != "First" {
		t.Errorf("first row = %q", dom.OuterHTML(rows[0]))
	}

	if len(dom.Find(sections[1], tableTagExpr)) != 1 {
		t.Error("a table with several header cells must stay a table")
	}

	meta := dom.Children(sections[2])[0]
	if !dom.HasClass(meta, "section-metadata") {
		t.Errorf("section metadata block class = %q", dom.AttrOr(meta, "class", ""))
	}
}

func TestBuilder_Build_Head(t *testing.T) {
	t.Parallel()

	doc := build(t, samplePage)
	out, err := doc.String()
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}

	for _, want := range []string{
		"<title>Welcome</title>",
		`<meta name="description" content="A sample page"/>`,
		`<meta name="template" content="Article"/>`,
		`<meta property="og:image" content="/media/hero.png"/>`,
		`<meta name="keywords" content="go"/>`,
		`<meta name="keywords" content="pages"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("document missing %s", want)
		}
	}
	if got := len(dom.Find(doc.Head(), metaTagExpr)); got != 5 {
		t.Errorf("meta tags = %d, want 5", got)
	}
	if !strings.Contains(out, "<mark>highlight</mark>") {
		t.Error("highlight syntax must become <mark>")
	}
	if doc.ElementByID("hello-world") == nil {
		t.Error("headings must carry generated ids")
	}
}

func TestBuilder_Build_TitleFromHeading(t *testing.T) {
	t.Parallel()

	doc := build(t, "# First Heading\n\nText\n")
	out, _ := doc.String()
	if !strings.Contains(out, "<title>First Heading</title>") {
		t.Errorf("title not taken from heading: %s", out)
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		md      string
		ctx     func() context.Context
		wantErr error
	}{
		{"empty", "  \n", context.Background, ErrEmptyMarkdown},
		{"unterminated front matter", "---\ntitle: x\n# body", context.Background, ErrFrontMatter},
		{"invalid front matter", "---\ntitle: [x\n---\nbody", context.Background, ErrFrontMatter},
		{"canceled", "# Hi", func() context.Context {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx
		}, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewBuilder().Build(tt.ctx(), Input{Markdown: tt.md})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_Build_SourceDir(t *testing.T) {
	t.Parallel()

	doc, err := NewBuilder().Build(context.Background(), Input{
		Markdown:  "![logo](images/logo.png)\n",
		SourceDir: testSourceDir(),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	out, _ := doc.String()
	if !strings.Contains(out, `src="file://`) {
		t.Errorf("relative image not rewritten: %s", out)
	}
}

func TestBlockName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header       string
		wantName     string
		wantVariants []string
	}{
		{"Cards", "cards", nil},
		{"Section Metadata", "section-metadata", nil},
		{"Cards (Wide, Dark)", "cards", []string{"wide", "dark"}},
		{"  Hero ( Full Width ) ", "hero", []string{"full-width"}},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()

			name, variants := BlockName(tt.header)
			if name != tt.wantName || strings.Join(variants, ",") != strings.Join(tt.wantVariants, ",") {
				t.Errorf("BlockName(%q) = (%q, %v), want (%q, %v)", tt.header, name, variants, tt.wantName, tt.wantVariants)
			}
		})
	}
}

func TestPreprocess(t *testing.T) {
	t.Parallel()

	got := Preprocess("\uFEFFa\r\nb\r\n\r\n\r\n\r\nc ==x==")
	want := "a\nb\n\nc " + MarkStartPlaceholder + "x" + MarkEndPlaceholder
	if got != want {
		t.Errorf("Preprocess() = %q, want %q", got, want)
	}
}
