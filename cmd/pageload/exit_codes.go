package main

import (
	"errors"
	"os"

	"github.com/alnah/go-pageload"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/fileutil"
	"github.com/alnah/go-pageload/internal/session"
)

// Exit codes for the pageload CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitPage    = 5 // Page structurally unloadable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, pageload.ErrBrowserConnect) ||
		errors.Is(err, pageload.ErrPageCreate) ||
		errors.Is(err, pageload.ErrPageLoad) ||
		errors.Is(err, pageload.ErrCapture) {
		return ExitBrowser
	}

	if pageload.IsStructural(err) && !errors.Is(err, pageload.ErrInternal) {
		return ExitPage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrFileTooLarge) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, session.ErrUnknownBackend) ||
		errors.Is(err, pageload.ErrEmptySource) ||
		errors.Is(err, pageload.ErrSkeleton) ||
		errors.Is(err, pageload.ErrUnsupportedFormat) ||
		errors.Is(err, pageload.ErrInvalidViewport) ||
		errors.Is(err, pageload.ErrInvalidOutputKind) {
		return ExitUsage
	}

	return ExitGeneral
}
