package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-pageload/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary page files
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		extension string
		wantErr   error
	}{
		{name: "html page", content: "<html><body><main></main></body></html>", extension: "html"},
		{name: "empty content", content: "", extension: "html"},
		{name: "empty extension", content: "x", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "extension with slash", content: "x", extension: "../html", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "extension with null byte", content: "x", extension: "ht\x00ml", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, cleanup, err := fileutil.WriteTempFile(tt.content, tt.extension)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("WriteTempFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("WriteTempFile() error = %v", err)
			}
			defer cleanup()

			if !strings.Contains(filepath.Base(path), "pageload-") || !strings.HasSuffix(path, "."+tt.extension) {
				t.Errorf("path = %q, want pageload-*.%s", path, tt.extension)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading temp file: %v", err)
			}
			if string(data) != tt.content {
				t.Errorf("content = %q, want %q", data, tt.content)
			}
		})
	}
}

func TestWriteTempFile_Cleanup(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("x", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after cleanup at %s", path)
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "page.md")
	if err := os.WriteFile(file, []byte("# hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", file, true},
		{"directory", dir, false},
		{"missing", filepath.Join(dir, "missing"), false},
		{"empty path", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestReadFileLimited(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "page.md")
	if err := os.WriteFile(file, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("within limit", func(t *testing.T) {
		t.Parallel()

		data, err := fileutil.ReadFileLimited(file, 10)
		if err != nil || string(data) != "0123456789" {
			t.Errorf("ReadFileLimited() = (%q, %v)", data, err)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		t.Parallel()

		if _, err := fileutil.ReadFileLimited(file, 9); !errors.Is(err, fileutil.ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := fileutil.ReadFileLimited(filepath.Join(dir, "nope"), 9); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want os.ErrNotExist", err)
		}
	})
}
