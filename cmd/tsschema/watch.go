package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tsgonest/tsschema/internal/discovery"
	"github.com/tsgonest/tsschema/internal/watcher"
)

// runWatch implements "tsschema watch": an initial build, then a rebuild
// whenever a watched graph document changes. Stops on SIGINT/SIGTERM.
func runWatch(args []string) int {
	f, cfg, root, code, ok := prepare("watch", args)
	if !ok {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = slogcontext.NewCtx(ctx, newLogger(f.Verbose))

	p := newPipeline(cfg, root, f.Force)
	filter, err := watchFilter(p, f.Inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var mu sync.Mutex
	rebuild := func(ctx context.Context, force bool) {
		mu.Lock()
		defer mu.Unlock()
		start := time.Now()
		p.force = force
		report, err := p.run(ctx, f.Inputs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		report.print(os.Stderr, f.Verbose, time.Since(start))
	}

	rebuild(ctx, f.Force)

	dirs := watchDirs(root, f.Inputs)
	w := watcher.New(dirs, filter, watcher.DefaultDebounce, func(ctx context.Context, events []watcher.Event) {
		for _, ev := range events {
			slogcontext.FromCtx(ctx).InfoContext(ctx, "graph document changed",
				slog.String("path", ev.Path),
				slog.String("op", string(ev.Op)),
			)
		}
		fmt.Fprintf(os.Stderr, "\n%d graph document(s) changed, rebuilding...\n", len(events))
		// removed documents are invisible to the cache
		rebuild(ctx, true)
	})

	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl+c to stop)\n", strings.Join(dirs, ", "))
	if err := w.Watch(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stderr, "stopped watching")
	return 0
}

// watchDirs returns the directories to poll: the parents of explicit inputs,
// or the config root.
func watchDirs(root string, inputs []string) []string {
	if len(inputs) == 0 {
		return []string{root}
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, in := range inputs {
		dir := filepath.Dir(in)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// watchFilter selects the files whose changes trigger a rebuild. Files
// under the output directory never do.
func watchFilter(p *pipeline, inputs []string) (func(string) bool, error) {
	outDir := p.outDir()
	isOutput := func(path string) bool {
		rel, err := filepath.Rel(outDir, path)
		return err == nil && !strings.HasPrefix(rel, "..")
	}

	if len(inputs) > 0 {
		wanted := make(map[string]bool, len(inputs))
		for _, in := range inputs {
			wanted[filepath.Clean(in)] = true
		}
		return func(path string) bool {
			return wanted[filepath.Clean(path)] && !isOutput(path)
		}, nil
	}

	m, err := discovery.NewMatcher(p.cfg.Input.Include, p.cfg.Input.Exclude)
	if err != nil {
		return nil, err
	}
	return func(path string) bool {
		if !discovery.IsGraphFile(path) || isOutput(path) {
			return false
		}
		rel, err := filepath.Rel(p.root, path)
		return err == nil && m.Match(rel)
	}, nil
}
