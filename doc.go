// Package pageload runs the page-load sequence of a block-based site on
// server-side HTML documents.
//
// # Quick Start
//
// Parse a page, load it, and serialize the result:
//
//	doc, err := dom.ParseString(page)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loader := pageload.New()
//	result, err := loader.Load(ctx, doc, pageload.Environment{
//	    Lang:          "en",
//	    ViewportWidth: 1280,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	html, _ := doc.String()
//
// Renderer wraps these steps and also accepts Markdown sources, which are
// first poured into a page skeleton.
//
// # Phases
//
// Load runs three phases in order, then schedules a fourth:
//
//  1. Eager: lang attribute, template and theme classes, button and icon
//     decoration, auto blocks, sections and blocks, then the first section.
//     Fonts load now on wide viewports or when the session already has them.
//  2. Lazy: remaining sections, header and footer blocks, lazy styles, fonts.
//  3. Remediation: accessibility rules over <main>.
//  4. Delayed: tasks receive a Snapshot of the page after a pause (3s by
//     default) and never touch the live document.
//
// # Failures
//
// A missing <main>, <header> or <footer>, or a failing remediation rule
// under the fail-fast policy, stops the sequence and is returned as an
// error with the partial Result. Everything else (a block whose stylesheet
// or decorator fails, missing fonts, an unreachable session store) is
// reported as an Outcome to the Environment's DiagnosticSink and the page
// keeps loading.
//
// # Capturing Pages
//
// Snapshotter renders loaded pages to PNG or PDF in headless Chrome via
// go-rod. SnapshotterPool shares a bounded set of browsers between
// goroutines; both satisfy Capturer, and CaptureSnapshot turns a Capturer
// into a delayed task.
package pageload
