package blocks

import (
	"strings"
	"unicode"
)

// ToClassName sanitizes a string for use as a CSS class name:
// lower case, non-alphanumerics collapsed to single dashes, no edge dashes.
func ToClassName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// ToCamelCase sanitizes a string for use as a property name.
func ToCamelCase(name string) string {
	parts := strings.Split(ToClassName(name), "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		r := []rune(parts[i])
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "")
}
