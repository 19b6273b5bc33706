package pageload

import "errors"

// Sentinel errors for page loading. Cosmetic failures never surface as
// errors; they are reported as Outcomes to the DiagnosticSink.
var (
	ErrNilDocument    = errors.New("document is nil")
	ErrMainNotFound   = errors.New("main element not found")
	ErrHeaderNotFound = errors.New("header element not found")
	ErrFooterNotFound = errors.New("footer element not found")
	ErrInternal       = errors.New("internal error")

	// Delayed work errors.
	ErrDelayedCanceled = errors.New("delayed work canceled")
	ErrDelayedTask     = errors.New("delayed task failed")

	// Rendering errors.
	ErrEmptySource       = errors.New("source content cannot be empty")
	ErrUnsupportedFormat = errors.New("unsupported source format")
	ErrSkeleton          = errors.New("building page skeleton failed")

	// Snapshot errors.
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrCapture           = errors.New("page capture failed")
	ErrInvalidViewport   = errors.New("invalid viewport")
	ErrInvalidOutputKind = errors.New("invalid output kind")
)
