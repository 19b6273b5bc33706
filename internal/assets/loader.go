package assets

// AssetLoader defines the contract for loading site stylesheets and block fragments.
// Implementations may load from embedded assets, filesystem, object storage, etc.
type AssetLoader interface {
	// LoadStyle loads a global stylesheet by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// LoadBlockStyle loads the stylesheet of a block by block name.
	// Returns ErrStyleNotFound if the block has no stylesheet.
	LoadBlockStyle(block string) (string, error)

	// LoadFragment loads the markup stamped by a block decorator.
	// Returns ErrFragmentNotFound if the block has no fragment.
	LoadFragment(block string) (string, error)
}

// Names of the built-in global stylesheets.
const (
	StyleMain   = "styles"
	StyleLazy   = "lazy-styles"
	StyleFonts  = "fonts"
	StylesDir   = "styles"
	BlocksDir   = "blocks"
	styleExt    = ".css"
	fragmentExt = ".html"
)

// StylePath returns the site-relative path of a global stylesheet.
func StylePath(name string) string {
	return StylesDir + "/" + name + styleExt
}

// BlockStylePath returns the site-relative path of a block stylesheet.
func BlockStylePath(block string) string {
	return BlocksDir + "/" + block + "/" + block + styleExt
}

// BlockFragmentPath returns the site-relative path of a block fragment.
func BlockFragmentPath(block string) string {
	return BlocksDir + "/" + block + "/" + block + fragmentExt
}
