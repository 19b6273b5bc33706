package pageload_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/dom"
)

// Example loads a Markdown page and prints what the page load did.
func Example() {
	r := pageload.NewRenderer(pageload.New(pageload.WithDelay(time.Hour)))

	out, err := r.Render(context.Background(), pageload.Source{
		Content: "# Hello World\n\nThis is a test.",
	}, pageload.Environment{Lang: "en"})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer out.Result.Delayed.Stop()

	fmt.Println("format:", out.Format)
	fmt.Println("phase:", out.Result.Phase)
	fmt.Println("has main:", strings.Contains(out.HTML, "<main"))
	// Output:
	// format: markdown
	// phase: done
	// has main: true
}

// Example_scrollTarget shows how the URL fragment selects the element to
// scroll to once all sections are loaded.
func Example_scrollTarget() {
	doc, err := dom.ParseString(`<html><body><header></header>
<main><div><h2 id="install">Install</h2></div></main>
<footer></footer></body></html>`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	loc, _ := url.Parse("https://example.com/guide#install")
	res, err := pageload.New(pageload.WithDelay(time.Hour)).Load(context.Background(), doc, pageload.Environment{Location: loc})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer res.Delayed.Stop()

	fmt.Println(res.ScrollTarget)
	// Output: install
}

// Example_structuralFailure shows a page load aborted by a missing landmark.
func Example_structuralFailure() {
	doc, _ := dom.ParseString(`<html><body><main><div><p>x</p></div></main></body></html>`)

	res, err := pageload.New().Load(context.Background(), doc, pageload.Environment{})
	fmt.Println(pageload.IsStructural(err))
	fmt.Println("last phase:", res.Phase)
	// Output:
	// true
	// last phase: eager
}
