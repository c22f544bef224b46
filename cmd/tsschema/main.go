package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		// No subcommand: default to build
		return runBuild(nil)
	}

	switch args[0] {
	case "build":
		return runBuild(args[1:])
	case "watch":
		return runWatch(args[1:])
	case "dump":
		return runDump(args[1:])
	case "--version", "-v":
		fmt.Println("tsschema", version)
		return 0
	case "--help", "-h", "help":
		printUsage()
		return 0
	default:
		// A leading flag means build flags without the subcommand
		if strings.HasPrefix(args[0], "-") {
			return runBuild(args)
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("tsschema - JSON Schema (draft-07) generator for TypeScript type graphs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tsschema [flags] [graph files...]         Build schemas (default)")
	fmt.Println("  tsschema build [flags] [graph files...]   Build schemas")
	fmt.Println("  tsschema watch [flags]                    Build, then rebuild on graph changes")
	fmt.Println("  tsschema dump [--config p] [graphs...]    Print each declaration's classification tree")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --version, -v          Print version and exit")
	fmt.Println("  --help, -h             Print this help message")
	fmt.Println()
	fmt.Println("Build Flags:")
	fmt.Println("  --config <path>        Path to tsschema.config.json or .yaml")
	fmt.Println("  --out, -o <dir>        Output directory (overrides output.dir)")
	fmt.Println("  --bundle <file>        Write one bundle document instead of one file per declaration")
	fmt.Println("  --check                Compile every emitted schema against draft-07")
	fmt.Println("  --strict               Treat warnings as errors")
	fmt.Println("  --quiet                Suppress warnings and cycle notes")
	fmt.Println("  --verbose              Debug logging")
	fmt.Println("  --force                Rebuild even when nothing changed")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  tsschema")
	fmt.Println("  tsschema build --config tsschema.config.yaml")
	fmt.Println("  tsschema build -o schemas --bundle api.schema.json graph/api.json")
	fmt.Println("  tsschema watch --verbose")
	fmt.Println()
}

// newLogger returns the stderr text logger used for structured progress.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
