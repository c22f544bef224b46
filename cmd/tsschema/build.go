package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tsgonest/tsschema/internal/config"
)

// buildFlags holds the parsed flags shared by build and watch.
type buildFlags struct {
	ConfigPath string
	OutDir     string
	Bundle     string
	Check      bool
	Strict     bool
	Quiet      bool
	Verbose    bool
	Force      bool
	// Inputs are graph documents named on the command line. When present
	// they replace input.include discovery.
	Inputs []string
}

func newBuildFlagSet(name string, f *buildFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "Path to tsschema config file (tsschema.config.json or .yaml)")
	fs.StringVar(&f.OutDir, "out", "", "Output directory (overrides output.dir)")
	fs.StringVar(&f.OutDir, "o", "", "Output directory (shorthand for --out)")
	fs.StringVar(&f.Bundle, "bundle", "", "Write a single bundle document with this file name")
	fs.BoolVar(&f.Check, "check", false, "Compile every emitted schema against draft-07")
	fs.BoolVar(&f.Strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&f.Quiet, "quiet", false, "Suppress warnings and cycle notes")
	fs.BoolVar(&f.Verbose, "verbose", false, "Enable debug logging")
	fs.BoolVar(&f.Force, "force", false, "Rebuild even if the build cache is up to date")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: tsschema %s [flags] [graph files...]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// parseBuildArgs parses build flags. Positional arguments are graph files.
func parseBuildArgs(args []string) (*buildFlags, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet("build", f)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Inputs = fs.Args()
	return f, nil
}

// apply lets command-line flags override the loaded config.
func (f *buildFlags) apply(cfg *config.Config) {
	if f.OutDir != "" {
		cfg.Output.Dir = f.OutDir
	}
	if f.Bundle != "" {
		cfg.Output.Bundle = f.Bundle
	}
	if f.Check {
		cfg.Output.Check = true
	}
	if f.Strict {
		cfg.Strict = true
	}
	if f.Quiet {
		cfg.Quiet = true
	}
}

// loadConfig loads the config at path, or the default config file in cwd,
// or the built-in defaults. The returned root anchors relative paths in the
// config; loaded is the file actually read, "" for the defaults.
func loadConfig(cwd, path string) (cfg *config.Config, root, loaded string, err error) {
	if path == "" {
		path = config.Find(cwd)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	if path == "" {
		defaults := config.DefaultConfig()
		return &defaults, cwd, "", nil
	}
	cfg, err = config.Load(path)
	if err != nil {
		return nil, "", "", err
	}
	return cfg, filepath.Dir(path), path, nil
}

// prepare parses flags and resolves the effective config. ok is false when
// the command should exit with code.
func prepare(name string, args []string) (f *buildFlags, cfg *config.Config, root string, code int, ok bool) {
	f = &buildFlags{}
	fs := newBuildFlagSet(name, f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, "", 0, false
		}
		return nil, nil, "", 2, false
	}
	f.Inputs = fs.Args()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not get working directory: %v\n", err)
		return nil, nil, "", 1, false
	}

	cfg, root, loaded, err := loadConfig(cwd, f.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, nil, "", 1, false
	}
	if loaded != "" && !cfg.Quiet {
		fmt.Fprintf(os.Stderr, "loaded config from %s\n", loaded)
	}
	f.apply(cfg)

	result := cfg.ValidateDetailed()
	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	if !result.IsValid() {
		return nil, nil, "", 1, false
	}
	if !cfg.Quiet {
		for _, msg := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
		}
	}

	// Command-line inputs are relative to the working directory.
	for i, in := range f.Inputs {
		if !filepath.IsAbs(in) {
			f.Inputs[i] = filepath.Join(cwd, in)
		}
	}
	return f, cfg, root, 0, true
}

// runBuild executes the build pipeline once:
// discover -> fingerprint -> load graphs -> resolve -> emit -> cache.
func runBuild(args []string) int {
	f, cfg, root, code, ok := prepare("build", args)
	if !ok {
		return code
	}

	ctx := slogcontext.NewCtx(context.Background(), newLogger(f.Verbose))
	start := time.Now()

	p := newPipeline(cfg, root, f.Force)
	report, err := p.run(ctx, f.Inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	report.print(os.Stderr, f.Verbose, time.Since(start))
	if report.Diagnostics.HasErrors() {
		return 1
	}
	return 0
}
