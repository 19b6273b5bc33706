package pageload

// Notes:
// - Snapshotter.Capture is tested with a fake pageRenderer; the rod
//   renderer needs Chrome and is not exercised here.

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestCaptureOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    CaptureOptions
		want    CaptureOptions
		wantErr error
	}{
		{
			name: "defaults",
			opts: CaptureOptions{},
			want: CaptureOptions{Kind: OutputPNG, Viewport: Viewport{DefaultViewportWidth, DefaultViewportHeight}},
		},
		{
			name: "pdf keeps viewport",
			opts: CaptureOptions{Kind: OutputPDF, Viewport: Viewport{375, 667}},
			want: CaptureOptions{Kind: OutputPDF, Viewport: Viewport{375, 667}},
		},
		{
			name:    "unknown kind",
			opts:    CaptureOptions{Kind: "gif"},
			wantErr: ErrInvalidOutputKind,
		},
		{
			name:    "half viewport",
			opts:    CaptureOptions{Viewport: Viewport{Width: 800}},
			wantErr: ErrInvalidViewport,
		},
		{
			name:    "negative viewport",
			opts:    CaptureOptions{Viewport: Viewport{-1, 600}},
			wantErr: ErrInvalidViewport,
		},
		{
			name:    "oversized viewport",
			opts:    CaptureOptions{Viewport: Viewport{maxViewportSide + 1, 600}},
			wantErr: ErrInvalidViewport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := tt.opts
			err := opts.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if opts != tt.want {
				t.Errorf("Validate() = %+v, want %+v", opts, tt.want)
			}
		})
	}
}

// fakeRenderer records the file it was asked to render.
type fakeRenderer struct {
	content string
	opts    *CaptureOptions
	err     error
	closed  bool
}

func (f *fakeRenderer) RenderFromFile(_ context.Context, path string, opts *CaptureOptions) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f.content = string(data)
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []byte("captured"), nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func TestSnapshotter_Capture(t *testing.T) {
	t.Parallel()

	t.Run("writes page and validates options", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRenderer{}
		s := &Snapshotter{renderer: fake}

		data, err := s.Capture(context.Background(), "<html>page</html>", nil)
		if err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
		if string(data) != "captured" {
			t.Errorf("Capture() = %q", data)
		}
		if fake.content != "<html>page</html>" {
			t.Errorf("rendered file content = %q", fake.content)
		}
		if fake.opts.Kind != OutputPNG || fake.opts.Viewport.Width != DefaultViewportWidth {
			t.Errorf("options not defaulted: %+v", fake.opts)
		}

		if err := s.Close(); err != nil || !fake.closed {
			t.Errorf("Close() error = %v, closed = %v", err, fake.closed)
		}
	})

	t.Run("invalid options never reach the browser", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRenderer{}
		s := &Snapshotter{renderer: fake}
		if _, err := s.Capture(context.Background(), "<p></p>", &CaptureOptions{Kind: "svg"}); !errors.Is(err, ErrInvalidOutputKind) {
			t.Errorf("Capture() error = %v, want ErrInvalidOutputKind", err)
		}
		if fake.opts != nil {
			t.Error("renderer called with invalid options")
		}
	})

	t.Run("renderer error", func(t *testing.T) {
		t.Parallel()

		fake := &fakeRenderer{err: ErrBrowserConnect}
		s := &Snapshotter{renderer: fake}
		if _, err := s.Capture(context.Background(), "<p></p>", nil); !errors.Is(err, ErrBrowserConnect) {
			t.Errorf("Capture() error = %v, want ErrBrowserConnect", err)
		}
	})
}

func TestCaptureSnapshot(t *testing.T) {
	t.Parallel()

	fake := &fakeRenderer{}
	s := &Snapshotter{renderer: fake}

	var stored []byte
	task := CaptureSnapshot(s, CaptureOptions{Kind: OutputPDF}, func(_ context.Context, _ Snapshot, data []byte) error {
		stored = data
		return nil
	})

	snap := Snapshot{HTML: "<main id=\"top\"></main>", ScrollTarget: "top", TakenAt: time.Now()}
	if err := task(context.Background(), snap); err != nil {
		t.Fatalf("task error = %v", err)
	}
	if string(stored) != "captured" {
		t.Errorf("stored = %q", stored)
	}
	if fake.opts.ScrollTarget != "top" || fake.opts.Kind != OutputPDF {
		t.Errorf("options = %+v", fake.opts)
	}
	if !strings.Contains(fake.content, `id="top"`) {
		t.Errorf("captured html = %q", fake.content)
	}
}

func TestLoader_CaptureAsDelayedTask(t *testing.T) {
	t.Parallel()

	pool := newPool(1, func() Capturer { return &fakeCapturer{} })
	t.Cleanup(func() { _ = pool.Close() })

	var stored string
	task := CaptureSnapshot(pool, CaptureOptions{}, func(_ context.Context, _ Snapshot, data []byte) error {
		stored = string(data)
		return nil
	})
	l, m := newManualLoader(WithDelayedTasks(task))
	res := loadPage(t, l, Environment{})
	m.fire()

	if err := res.Delayed.Err(); err != nil {
		t.Fatalf("delayed error = %v", err)
	}
	if !strings.Contains(stored, "<main") {
		t.Errorf("captured page = %q", stored)
	}
}
