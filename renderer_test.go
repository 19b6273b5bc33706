package pageload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-pageload/internal/pipeline"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"auto", FormatAuto, false},
		{"HTML", FormatHTML, false},
		{"htm", FormatHTML, false},
		{"md", FormatMarkdown, false},
		{" markdown ", FormatMarkdown, false},
		{"rst", FormatAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"doc.md", "<div>looks like html</div>", FormatMarkdown},
		{"doc.MARKDOWN", "", FormatMarkdown},
		{"page.html", "# heading", FormatHTML},
		{"page.htm", "", FormatHTML},
		{"", "  \n<!DOCTYPE html><html></html>", FormatHTML},
		{"", "# Title", FormatMarkdown},
		{"notes.txt", "plain", FormatMarkdown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name, tt.content); got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %s, want %s", tt.name, tt.content, got, tt.want)
		}
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	type observed struct {
		format Format
		err    error
	}
	var mu sync.Mutex
	var seen []observed
	r := NewRenderer(New(WithDelay(time.Hour)), WithPageObserver(func(f Format, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, observed{f, err})
	}))

	tests := []struct {
		name       string
		src        Source
		wantFormat Format
		wantErr    error
		wantHTML   []string
	}{
		{
			name:       "markdown",
			src:        Source{Content: "# Hello\n\nSome *text*.\n"},
			wantFormat: FormatMarkdown,
			wantHTML:   []string{"<main", "Hello", "<em>text</em>", `id="nav"`, `class="appear"`},
		},
		{
			name:       "html by extension",
			src:        Source{Name: "page.html", Content: fullPage},
			wantFormat: FormatHTML,
			wantHTML:   []string{`role="button"`},
		},
		{
			name:       "empty",
			src:        Source{Content: " \n\t"},
			wantFormat: FormatMarkdown,
			wantErr:    ErrEmptySource,
		},
		{
			name:       "html without landmarks",
			src:        Source{Format: FormatHTML, Content: "<p>bare</p>"},
			wantFormat: FormatHTML,
			wantErr:    ErrMainNotFound,
		},
		{
			name:       "unknown format",
			src:        Source{Format: Format(42), Content: "x"},
			wantFormat: Format(42),
			wantErr:    ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := r.Render(context.Background(), tt.src, Environment{})
			if out != nil {
				stopDelayed(t, out.Result)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Render() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if out.Format != tt.wantFormat {
				t.Errorf("Format = %s, want %s", out.Format, tt.wantFormat)
			}
			if out.Result.Phase != PhaseDone {
				t.Errorf("Phase = %s, want done", out.Result.Phase)
			}
			for _, want := range tt.wantHTML {
				if !strings.Contains(out.HTML, want) {
					t.Errorf("HTML missing %s", want)
				}
			}
		})
	}

	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		if len(seen) != len(tests) {
			t.Errorf("observer calls = %d, want %d", len(seen), len(tests))
		}
	})
}

func TestRenderer_StructuralFailureKeepsResult(t *testing.T) {
	t.Parallel()

	r := NewRenderer(New(WithDelay(time.Hour)))
	markup := `<html><body><main><div><p>x</p></div></main></body></html>`
	out, err := r.Render(context.Background(), Source{Format: FormatHTML, Content: markup}, Environment{})
	if !errors.Is(err, ErrHeaderNotFound) {
		t.Fatalf("Render() error = %v, want ErrHeaderNotFound", err)
	}
	if out == nil || out.Result == nil {
		t.Fatal("partial result must be returned")
	}
	if out.HTML != "" {
		t.Error("a failed page must not be serialized")
	}
	if out.Result.Phase != PhaseEager {
		t.Errorf("Phase = %s, want eager", out.Result.Phase)
	}
}

func TestNewRenderer_NilLoader(t *testing.T) {
	t.Parallel()

	if r := NewRenderer(nil); r.Loader() == nil {
		t.Error("NewRenderer(nil) must use a default Loader")
	}
}

// upperConverter is a pipeline.HTMLConverter emitting a fixed paragraph.
type upperConverter struct{}

func (upperConverter) ToHTML(_ context.Context, content string) (string, error) {
	return "<p>" + strings.ToUpper(strings.TrimSpace(content)) + "</p>", nil
}

func TestRenderer_WithSkeletonBuilder(t *testing.T) {
	t.Parallel()

	b := pipeline.NewBuilder(pipeline.WithConverter(upperConverter{}))
	r := NewRenderer(New(WithDelay(time.Hour)), WithSkeletonBuilder(b))

	out, err := r.Render(context.Background(), Source{Content: "quiet words", Format: FormatMarkdown}, Environment{})
	if out != nil {
		stopDelayed(t, out.Result)
	}
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out.HTML, "QUIET WORDS") {
		t.Errorf("custom converter not used:\n%s", out.HTML)
	}
}
