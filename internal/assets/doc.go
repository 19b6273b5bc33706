// Package assets provides the stylesheets and block fragments of a site.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in site)
//	    ├── FilesystemLoader  - loads from a site directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in global styles and the hero, cards,
// header and footer blocks, compiled into the binary.
//
// FilesystemLoader lets a site override any asset from a directory, with
// path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the page loader and the server. It
// tries the FilesystemLoader first and falls back to the EmbeddedLoader when
// the asset is not found there.
//
// # Directory Structure
//
// Assets follow the layout a site is served with:
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # global styles (styles, lazy-styles, fonts)
//	└── blocks/
//	    └── {block}/
//	        ├── {block}.css      # block stylesheet
//	        └── {block}.html     # markup stamped by the block decorator
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
