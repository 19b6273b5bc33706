package main

// Notes:
// - exitCodeFor: we test the sentinel errors of pageload, config and this
//   package, plus wrapped errors to verify the errors.Is() chain.
// - Exit code constants: we verify Unix conventions (0=success, 1=general,
//   2=usage) and that custom codes stay below 126.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/aria"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/session"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", pageload.ErrBrowserConnect, ExitBrowser},
		{"page create", pageload.ErrPageCreate, ExitBrowser},
		{"page load", pageload.ErrPageLoad, ExitBrowser},
		{"capture", pageload.ErrCapture, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("failed: %w", pageload.ErrBrowserConnect), ExitBrowser},

		// Structural page errors (exit 5)
		{"main not found", pageload.ErrMainNotFound, ExitPage},
		{"header not found", pageload.ErrHeaderNotFound, ExitPage},
		{"footer not found", pageload.ErrFooterNotFound, ExitPage},
		{"rule failed", aria.ErrRuleFailed, ExitPage},
		{"wrapped main not found", fmt.Errorf("2 page(s) failed: %w", pageload.ErrMainNotFound), ExitPage},
		{"internal", pageload.ErrInternal, ExitGeneral},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"file too large", fileutil.ErrFileTooLarge, ExitIO},
		{"read source", ErrReadSource, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Usage/config/validation errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"worker count", ErrInvalidWorkerCount, ExitUsage},
		{"extension", ErrInvalidExtension, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid value", config.ErrInvalidValue, ExitUsage},
		{"unknown backend", session.ErrUnknownBackend, ExitUsage},
		{"empty source", pageload.ErrEmptySource, ExitUsage},
		{"skeleton", pageload.ErrSkeleton, ExitUsage},
		{"unsupported format", pageload.ErrUnsupportedFormat, ExitUsage},
		{"invalid viewport", pageload.ErrInvalidViewport, ExitUsage},
		{"invalid output kind", pageload.ErrInvalidOutputKind, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading: %w", config.ErrConfigParse), ExitUsage},

		// General errors (exit 1)
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
		{"wrapped unknown", fmt.Errorf("context: %w", errors.New("unknown")), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := exitCodeFor(tt.err)
			if got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix convention compliance
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("standard codes = %d, %d, %d, want 0, 1, 2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	codes := []int{ExitIO, ExitBrowser, ExitPage}
	seen := map[int]bool{ExitSuccess: true, ExitGeneral: true, ExitUsage: true}
	for _, c := range codes {
		if c >= 126 {
			t.Errorf("exit code %d collides with shell reserved codes", c)
		}
		if seen[c] {
			t.Errorf("exit code %d is used twice", c)
		}
		seen[c] = true
	}
}
