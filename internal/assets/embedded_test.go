package assets

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name        string
		styleName   string
		wantErr     error
		wantContain string
	}{
		{
			name:        "loads main styles",
			styleName:   StyleMain,
			wantContain: "body.appear",
		},
		{
			name:        "loads lazy styles",
			styleName:   StyleLazy,
			wantContain: "section",
		},
		{
			name:        "loads fonts",
			styleName:   StyleFonts,
			wantContain: "@font-face",
		},
		{
			name:      "returns ErrStyleNotFound for nonexistent",
			styleName: "nonexistent-style-xyz",
			wantErr:   ErrStyleNotFound,
		},
		{
			name:      "returns ErrInvalidAssetName for empty name",
			styleName: "",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "returns ErrInvalidAssetName for path traversal",
			styleName: "../secret",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "returns ErrInvalidAssetName for name with dot",
			styleName: "style.name",
			wantErr:   ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadStyle(tt.styleName)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadStyle(%q) content should contain %q", tt.styleName, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_Blocks(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		block        string
		wantFragment string
	}{
		{"hero", `tabindex="0"`},
		{"cards", `role="listbox"`},
		{"header", "<nav"},
		{"footer", "footer-content"},
	}

	for _, tt := range tests {
		t.Run(tt.block, func(t *testing.T) {
			t.Parallel()

			css, err := loader.LoadBlockStyle(tt.block)
			if err != nil {
				t.Fatalf("LoadBlockStyle(%q) error = %v", tt.block, err)
			}
			if css == "" {
				t.Errorf("LoadBlockStyle(%q) returned empty content", tt.block)
			}

			fragment, err := loader.LoadFragment(tt.block)
			if err != nil {
				t.Fatalf("LoadFragment(%q) error = %v", tt.block, err)
			}
			if !strings.Contains(fragment, tt.wantFragment) {
				t.Errorf("LoadFragment(%q) should contain %q", tt.block, tt.wantFragment)
			}
		})
	}

	if _, err := loader.LoadFragment("columns"); !errors.Is(err, ErrFragmentNotFound) {
		t.Errorf("LoadFragment(columns) error = %v, want ErrFragmentNotFound", err)
	}
	if _, err := loader.LoadBlockStyle("columns"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadBlockStyle(columns) error = %v, want ErrStyleNotFound", err)
	}
}

func TestSiteFS(t *testing.T) {
	t.Parallel()

	for _, path := range []string{StylePath(StyleMain), BlockStylePath("hero"), BlockFragmentPath("cards")} {
		if _, err := fs.Stat(SiteFS(), path); err != nil {
			t.Errorf("SiteFS() missing %s: %v", path, err)
		}
	}
}

func TestEmbeddedLoader_ImplementsAssetLoader(t *testing.T) {
	t.Parallel()

	var _ AssetLoader = (*EmbeddedLoader)(nil)
}
