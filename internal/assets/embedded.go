package assets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed site
var site embed.FS

// EmbeddedLoader loads assets from embedded filesystem.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a global stylesheet from embedded assets by name.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	return e.read(StylePath(name), ErrStyleNotFound, name)
}

// LoadBlockStyle loads a block stylesheet from embedded assets.
func (e *EmbeddedLoader) LoadBlockStyle(block string) (string, error) {
	if err := ValidateAssetName(block); err != nil {
		return "", err
	}
	return e.read(BlockStylePath(block), ErrStyleNotFound, block)
}

// LoadFragment loads a block fragment from embedded assets.
func (e *EmbeddedLoader) LoadFragment(block string) (string, error) {
	if err := ValidateAssetName(block); err != nil {
		return "", err
	}
	return e.read(BlockFragmentPath(block), ErrFragmentNotFound, block)
}

func (e *EmbeddedLoader) read(path string, notFound error, name string) (string, error) {
	content, err := site.ReadFile("site/" + path)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(content), nil
}

// SiteFS returns the embedded site rooted at its top directory.
func SiteFS() fs.FS {
	sub, err := fs.Sub(site, "site")
	if err != nil {
		panic(err) // the embed directive guarantees the directory
	}
	return sub
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
