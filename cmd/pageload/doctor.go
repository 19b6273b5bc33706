package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pageload/internal/assets"
	"github.com/alnah/go-pageload/internal/config"
	"github.com/alnah/go-pageload/internal/hints"
	"github.com/alnah/go-pageload/internal/session"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// sessionCheckTimeout bounds the session store ping.
const sessionCheckTimeout = 3 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"`
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Site     siteInfo    `json:"site"`
	Session  sessionInfo `json:"session"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// siteInfo holds content and asset directory checks.
type siteInfo struct {
	ContentDir   string `json:"content_dir"`
	ContentFound bool   `json:"content_found"`
	Assets       string `json:"assets"`
}

// sessionInfo holds the session store check.
type sessionInfo struct {
	Backend   string `json:"backend"`
	Addr      string `json:"addr,omitempty"`
	Reachable bool   `json:"reachable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	configName := fs.StringP("config", "c", "", "config file name or path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	cfg, err := loadConfig(*configName)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result)
	checkSystem(result)
	checkSite(result, cfg)
	checkSession(ctx, result, cfg)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium. Captures need it; plain renders
// and the server do not, so a missing browser is a warning.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; --capture will download it or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// #nosec G204 -- the browser path comes from rod or ROD_BROWSER_BIN
	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if os.Getenv("PAGELOAD_CONTAINER") == "1" {
		return true, "PAGELOAD_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for captures is writable.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "pageload-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// checkSite verifies the content directory and custom assets.
func checkSite(result *doctorResult, cfg *config.Config) {
	result.Site.ContentDir = cfg.Site.ContentDir
	if info, err := os.Stat(cfg.Site.ContentDir); err == nil && info.IsDir() {
		result.Site.ContentFound = true
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Content directory %s not found; serve will answer 404", cfg.Site.ContentDir))
	}

	result.Site.Assets = "embedded"
	if cfg.Assets.BasePath == "" {
		return
	}
	if _, err := assets.NewAssetResolver(cfg.Assets.BasePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Asset directory: %v", err))
		return
	}
	if abs, err := filepath.Abs(cfg.Assets.BasePath); err == nil {
		result.Site.Assets = abs
	} else {
		result.Site.Assets = cfg.Assets.BasePath
	}
}

// checkSession opens the configured session store once.
func checkSession(ctx context.Context, result *doctorResult, cfg *config.Config) {
	opts := cfg.SessionOptions()
	result.Session.Backend = opts.Backend
	if result.Session.Backend == "" {
		result.Session.Backend = session.BackendMemory
	}
	result.Session.Addr = opts.Addr

	ctx, cancel := context.WithTimeout(ctx, sessionCheckTimeout)
	defer cancel()
	store, err := session.Open(ctx, opts)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Session store: %v%s", err, hints.ForRedisConnect(opts.Addr)))
		return
	}
	_ = store.Close()
	result.Session.Reachable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pageload doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found (needed for --capture only)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Site")
	if r.Site.ContentFound {
		fmt.Fprintf(w, "  [OK] Content: %s\n", r.Site.ContentDir)
	} else {
		fmt.Fprintf(w, "  [WARN] Content: %s not found\n", r.Site.ContentDir)
	}
	fmt.Fprintf(w, "  [OK] Assets: %s\n", r.Site.Assets)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Session")
	label := r.Session.Backend
	if r.Session.Addr != "" {
		label += " at " + r.Session.Addr
	}
	if r.Session.Reachable {
		fmt.Fprintf(w, "  [OK] Store: %s\n", label)
	} else {
		fmt.Fprintf(w, "  [ERROR] Store: %s unreachable\n", label)
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
