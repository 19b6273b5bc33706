package main

// Notes:
// - runMain: we test dispatch and exit codes. Page rendering itself is
//   covered in render_test.go.
// - rules and config: we test their output against the default config.

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// testEnv returns an Environment writing to buffers.
func testEnv(stdin string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", nil, ExitUsage, "", "Usage: pageload"},
		{"version", []string{"version"}, ExitSuccess, "pageload dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help render", []string{"help", "render"}, ExitSuccess, "Usage: pageload render", ""},
		{"help serve", []string{"help", "serve"}, ExitSuccess, "--content-dir", ""},
		{"help unknown", []string{"help", "bake"}, ExitUsage, "", "Unknown command: bake"},
		{"unknown command", []string{"bake"}, ExitUsage, "", "unknown command: bake"},
		{"render --help", []string{"render", "--help"}, ExitSuccess, "", "Usage: pageload render"},
		{"render bad flag", []string{"render", "--nope"}, ExitUsage, "", "error:"},
		{"render without input", []string{"render"}, ExitIO, "", "no input specified"},
		{"render bad capture", []string{"render", "--capture", "gif", "x.md"}, ExitUsage, "", "invalid output kind"},
		{"render bad workers", []string{"render", "-w", "99", "x.md"}, ExitUsage, "", "invalid worker count"},
		{"render bad policy", []string{"render", "--policy", "ignore", "x.md"}, ExitUsage, "", "error:"},
		{"render missing file", []string{"render", "/nonexistent/page.md"}, ExitIO, "", "error:"},
		{"serve extra arg", []string{"serve", "extra"}, ExitUsage, "", "unexpected argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv("")
			code := runMain(context.Background(), append([]string{"pageload"}, tt.args...), env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunRules(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv("")
	if err := runRules(nil, env); err != nil {
		t.Fatalf("runRules() error = %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"interactive-role", "checkbox-state", "error policy: fail-fast"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if first, last := strings.Index(out, "interactive-role"), strings.Index(out, "checkbox-state"); first > last {
		t.Error("rules not listed in execution order")
	}
}

func TestRunConfig(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv("")
	if err := runConfig(nil, env); err != nil {
		t.Fatalf("runConfig() error = %v", err)
	}
	for _, want := range []string{"lang: en", "delayedAfter: 3s", "backend: memory", "errorPolicy: fail-fast"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout.String())
		}
	}
}
