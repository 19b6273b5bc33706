package main

import (
	"errors"
	"io"
	"testing"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pageload"
)

func TestParseRenderFlags(t *testing.T) {
	t.Parallel()

	f, args, err := parseRenderFlags([]string{
		"docs/", "-o", "out", "--lang", "fr", "--inline", "--capture", "pdf",
		"--viewport", "800x600", "-w", "2", "--url", "https://example.com/a#b",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseRenderFlags() error = %v", err)
	}
	if len(args) != 1 || args[0] != "docs/" {
		t.Errorf("args = %v, want [docs/]", args)
	}
	if f.output != "out" || f.site.lang != "fr" || !f.site.inline {
		t.Errorf("flags = %+v", f)
	}
	if f.capture.kind != "pdf" || f.capture.viewport != "800x600" || f.capture.workers != 2 {
		t.Errorf("capture = %+v", f.capture)
	}
	if f.format != "auto" {
		t.Errorf("format = %q, want auto", f.format)
	}
	if f.url != "https://example.com/a#b" {
		t.Errorf("url = %q", f.url)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := parseRenderFlags([]string{"--nope"}, io.Discard); !errors.Is(err, ErrUsage) {
		t.Errorf("unknown flag error = %v, want ErrUsage", err)
	}
	if _, _, err := parseRenderFlags([]string{"--help"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("--help error = %v, want ErrHelp", err)
	}
	if _, err := parseServeFlags([]string{"extra"}, io.Discard); !errors.Is(err, ErrUsage) {
		t.Errorf("positional serve arg error = %v, want ErrUsage", err)
	}

	f, err := parseServeFlags([]string{"-a", ":9000", "--content-dir", "site"}, io.Discard)
	if err != nil {
		t.Fatalf("parseServeFlags() error = %v", err)
	}
	if f.addr != ":9000" || f.contentDir != "site" {
		t.Errorf("serve flags = %+v", f)
	}
}

func TestParseViewport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    pageload.Viewport
		wantErr bool
	}{
		{"", pageload.Viewport{}, false},
		{"1280x800", pageload.Viewport{Width: 1280, Height: 800}, false},
		{"375X667", pageload.Viewport{Width: 375, Height: 667}, false},
		{" 640 x 480 ", pageload.Viewport{Width: 640, Height: 480}, false},
		{"1280", pageload.Viewport{}, true},
		{"0x800", pageload.Viewport{}, true},
		{"wide x tall", pageload.Viewport{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseViewport(tt.in)
			if tt.wantErr {
				if !errors.Is(err, pageload.ErrInvalidViewport) {
					t.Errorf("error = %v, want ErrInvalidViewport", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseViewport(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
