package assets

import "fmt"

// ValidateAssetName checks that name is a block or stylesheet name: lowercase
// ASCII letters and digits in dash-separated words, the form block class
// names take once normalized. Anything else, path separators and dots
// included, yields ErrInvalidAssetName.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	prevDash := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			prevDash = false
		case r == '-' && !prevDash:
			prevDash = true
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	if prevDash {
		return fmt.Errorf("%w: %q ends with a dash", ErrInvalidAssetName, name)
	}
	return nil
}
