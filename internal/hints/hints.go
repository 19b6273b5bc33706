// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-pageload/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow captures.
func ForTimeout() string {
	return format("for heavy pages, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/site.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "/go-pageload/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForRedisConnect returns hints for session store connection errors.
func ForRedisConnect(addr string) string {
	if addr == "" {
		return format("set session.redis.addr or PAGELOAD_REDIS_ADDR")
	}
	return formatHints([]string{
		"check that Redis listens on " + addr,
		"use session.backend: memory to run without Redis",
	})
}

// ForMissingLandmark returns hints for pages lacking <main>, <header> or <footer>.
func ForMissingLandmark(tag string) string {
	if tag == "" {
		return ""
	}
	return format("the page body needs an empty <" + tag + "> element; Markdown sources get one automatically")
}

// ForRemediation returns hints for a remediation rule aborting the load.
func ForRemediation() string {
	return format("set aria.errorPolicy: continue to keep loading past failing rules")
}

// filepathSlash normalizes Windows separators so paths match one pattern.
func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
