// Package yamlutil wraps YAML parsing so callers share size limits and
// error wrapping, and so front matter is split the same way everywhere.
package yamlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData           = errors.New("yamlutil: nil or empty data")
	ErrNilDestination    = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge     = errors.New("yamlutil: input exceeds maximum size")
	ErrUnterminatedFront = errors.New("yamlutil: front matter is not terminated")
)

// frontMatterDelim opens and closes a front matter block.
const frontMatterDelim = "---"

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// SplitFrontMatter separates a leading "---" delimited YAML block from the
// rest of content. ok is false when content has no front matter.
func SplitFrontMatter(content string) (front, body string, ok bool, err error) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimRight(first, " \t\r") != frontMatterDelim {
		return "", content, false, nil
	}

	var b strings.Builder
	for {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t\r") == frontMatterDelim {
			return b.String(), next, true, nil
		}
		if !more {
			return "", content, false, ErrUnterminatedFront
		}
		b.WriteString(line)
		b.WriteByte('\n')
		rest = next
	}
}

// DecodeFrontMatter splits the front matter of content and decodes it into
// a map. Content without front matter yields a nil map and content unchanged.
func DecodeFrontMatter(content string) (map[string]any, string, error) {
	front, body, ok, err := SplitFrontMatter(content)
	if err != nil || !ok {
		return nil, body, err
	}
	if strings.TrimSpace(front) == "" {
		return map[string]any{}, body, nil
	}
	values := make(map[string]any)
	if err := Unmarshal([]byte(front), &values); err != nil {
		return nil, content, err
	}
	return values, body, nil
}
