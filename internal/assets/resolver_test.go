package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("expected custom loader for valid path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_CustomWithFallback(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeSiteFile(t, tmpDir, "styles/fonts.css", "/* CUSTOM fonts */")
	writeSiteFile(t, tmpDir, "blocks/hero/hero.html", `<div class="hero custom"></div>`)

	resolver, err := NewAssetResolver(tmpDir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	t.Run("custom style overrides embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadStyle(StyleFonts)
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if got != "/* CUSTOM fonts */" {
			t.Errorf("LoadStyle() = %q, want custom override", got)
		}
	})

	t.Run("falls back to embedded style", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadStyle(StyleMain)
		if err != nil {
			t.Fatalf("LoadStyle() error = %v", err)
		}
		if !strings.Contains(got, "body.appear") {
			t.Error("LoadStyle() should fall back to the embedded stylesheet")
		}
	})

	t.Run("custom fragment overrides embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadFragment("hero")
		if err != nil {
			t.Fatalf("LoadFragment() error = %v", err)
		}
		if !strings.Contains(got, "custom") {
			t.Errorf("LoadFragment() = %q, want custom override", got)
		}
	})

	t.Run("falls back to embedded block style", func(t *testing.T) {
		t.Parallel()

		if _, err := resolver.LoadBlockStyle("hero"); err != nil {
			t.Errorf("LoadBlockStyle() error = %v", err)
		}
	})

	t.Run("returns error when neither has the asset", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadFragment("nonexistent")
		if !errors.Is(err, ErrFragmentNotFound) {
			t.Errorf("LoadFragment() error = %v, want ErrFragmentNotFound", err)
		}
	})

	t.Run("does not fall back on validation errors", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadStyle("../etc")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("LoadStyle() error = %v, want ErrInvalidAssetName", err)
		}
	})
}
