package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pageload <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Run the page load on HTML or Markdown sources")
	fmt.Fprintln(w, "  serve      Serve a content directory with per-request page loads")
	fmt.Fprintln(w, "  rules      List the accessibility remediation rules")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check browser and session store setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pageload help <command>' for details on a specific command.")
}

// printCommonUsage prints flags shared by every command.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

// printSiteUsage prints flags overriding the site configuration.
func printSiteUsage(w io.Writer) {
	fmt.Fprintln(w, "Site:")
	fmt.Fprintln(w, "      --lang <s>            Document language (default en)")
	fmt.Fprintln(w, "      --base-path <s>       URL prefix of site assets")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles and block styles")
	fmt.Fprintln(w, "      --policy <s>          Remediation errors: fail-fast, continue")
	fmt.Fprintln(w, "      --inline              Inline stylesheets instead of linking them")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pageload render <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Load HTML or Markdown pages and write the resulting HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Page source, directory of sources, or - for stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <s>          Source format: auto, html, markdown")
	fmt.Fprintln(w, "      --url <url>           Page URL; its #fragment selects the scroll target")
	fmt.Fprintln(w, "      --snapshot-dir <dir>  Archive settled pages after the delayed phase")
	fmt.Fprintln(w)
	printSiteUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture:")
	fmt.Fprintln(w, "      --capture <s>         Also capture each page: png, pdf")
	fmt.Fprintln(w, "      --viewport <WxH>      Browser viewport (default 1280x800)")
	fmt.Fprintln(w, "      --full-page           Capture the whole page (png only)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Capture timeout (default 30s)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pageload serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve pages of a content directory. Every request runs the page load")
	fmt.Fprintln(w, "with the viewport width and session of the client.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default :8080)")
	fmt.Fprintln(w, "      --content-dir <dir>   Directory of page sources (default content)")
	fmt.Fprintln(w)
	printSiteUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRulesUsage prints usage for the rules command.
func printRulesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pageload rules [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List the accessibility remediation rules in execution order.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pageload config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after merging defaults, the config file")
	fmt.Fprintln(w, "and PAGELOAD_* environment variables.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "rules":
		printRulesUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: pageload doctor [--json] [-c config]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, the environment and the session store.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pageload version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pageload help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
