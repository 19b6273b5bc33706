// Package pipeline turns Markdown documents into page skeletons ready for
// the page loader.
//
// A skeleton is a complete HTML document with an empty <header>, a <main>
// holding one undecorated <div> per section, and an empty <footer>:
//   - YAML front matter becomes <title> and <meta> tags
//   - thematic breaks (---) separate sections
//   - tables whose header names a block become block <div>s
//   - relative media paths can be rewritten to file:// URLs
//
// Decoration and block loading are left to the loader.
package pipeline
