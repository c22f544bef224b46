package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tsgonest/tsschema/internal/analyzer"
	"github.com/tsgonest/tsschema/internal/buildcache"
	"github.com/tsgonest/tsschema/internal/config"
	"github.com/tsgonest/tsschema/internal/diagnostic"
	"github.com/tsgonest/tsschema/internal/discovery"
	"github.com/tsgonest/tsschema/internal/emit"
	"github.com/tsgonest/tsschema/internal/schema"
	"github.com/tsgonest/tsschema/internal/typegraph"
)

// pipeline runs one build against a resolved config.
type pipeline struct {
	cfg   *config.Config
	root  string
	force bool
}

func newPipeline(cfg *config.Config, root string, force bool) *pipeline {
	return &pipeline{cfg: cfg, root: root, force: force}
}

// buildReport describes what a build did.
type buildReport struct {
	Inputs      []string
	OutDir      string
	Resolved    []string
	Failed      []string
	Written     []string
	UpToDate    bool
	Diagnostics *diagnostic.Collector
}

func (p *pipeline) outDir() string {
	if filepath.IsAbs(p.cfg.Output.Dir) {
		return p.cfg.Output.Dir
	}
	return filepath.Join(p.root, p.cfg.Output.Dir)
}

func (p *pipeline) resolverOptions() analyzer.Options {
	return analyzer.Options{
		MaxDepth:    p.cfg.Resolver.MaxDepth,
		Cycles:      analyzer.CyclePolicy(p.cfg.Resolver.Cycles),
		Dates:       analyzer.DatePolicy(p.cfg.Resolver.Date),
		Bundle:      p.cfg.Output.Bundle != "",
		Parallelism: p.cfg.Resolver.Parallelism,
	}
}

// discover returns the graph documents to load: explicit inputs when given,
// otherwise every file under root matching input.include.
func (p *pipeline) discover(explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	m, err := discovery.NewMatcher(p.cfg.Input.Include, p.cfg.Input.Exclude)
	if err != nil {
		return nil, err
	}
	found, err := discovery.FindGraphs(p.root, m)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no graph documents match input.include %v under %s", p.cfg.Input.Include, p.root)
	}
	return found, nil
}

func (p *pipeline) run(ctx context.Context, explicit []string) (*buildReport, error) {
	logger := slogcontext.FromCtx(ctx)
	diags := diagnostic.NewCollector(p.cfg.Strict, p.cfg.Quiet)
	report := &buildReport{OutDir: p.outDir(), Diagnostics: diags}

	inputs, err := p.discover(explicit)
	if err != nil {
		return nil, err
	}
	report.Inputs = inputs

	configHash, err := buildcache.FingerprintValue(p.cfg)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting config: %w", err)
	}
	// unreadable documents are reported by load; the build runs uncached
	fingerprints, err := buildcache.FingerprintFiles(inputs)
	cacheable := err == nil
	if !cacheable {
		logger.DebugContext(ctx, "build cache disabled", slog.Any("error", err))
	}
	cachePath := buildcache.CachePath(report.OutDir)
	if cacheable && !p.force {
		if c := buildcache.Load(cachePath); c != nil && c.IsValid(configHash, fingerprints) {
			logger.DebugContext(ctx, "build cache hit", slog.String("cache", cachePath))
			report.UpToDate = true
			report.Written = c.Outputs
			return report, nil
		}
	}

	decls, err := p.load(ctx, inputs, diags)
	if err != nil {
		return nil, err
	}

	results := analyzer.NewResolver(p.resolverOptions()).ResolveAll(ctx, decls)
	for _, res := range results {
		diags.AddAll(res.Diagnostics)
		if res.Err != nil {
			diags.Error(categoryOf(res.Err), res.Declaration.File, 0, res.Err.Error())
			report.Failed = append(report.Failed, res.Declaration.Name)
			continue
		}
		report.Resolved = append(report.Resolved, res.Declaration.Name)
	}

	emitter := emit.New(emit.Options{
		Dir:    report.OutDir,
		Bundle: p.cfg.Output.Bundle,
		Check:  p.cfg.Output.Check,
	}, diags)
	written, err := emitter.Emit(ctx, results)
	report.Written = written
	if err != nil {
		return nil, err
	}

	if diags.HasErrors() || !cacheable {
		buildcache.Delete(cachePath)
	} else if err := buildcache.Save(cachePath, buildcache.New(configHash, fingerprints, written)); err != nil {
		logger.WarnContext(ctx, "could not save build cache", slog.String("cache", cachePath), slog.Any("error", err))
	}
	return report, nil
}

// load reads every graph document and returns the selected declarations.
// Unreadable documents and repeated declaration names become errors in
// diags; the rest of the build goes on.
func (p *pipeline) load(ctx context.Context, inputs []string, diags *diagnostic.Collector) ([]typegraph.Declaration, error) {
	filter, err := analyzer.NewNameFilter(p.cfg.Declarations.Include, p.cfg.Declarations.Exclude)
	if err != nil {
		return nil, err
	}

	var decls []typegraph.Declaration
	owners := make(map[string]string)
	for _, path := range inputs {
		g, err := typegraph.LoadFile(path)
		if err != nil {
			diags.Error(diagnostic.CategoryGraphInvalid, path, 0, err.Error())
			continue
		}
		selected := analyzer.SelectDeclarations(g.Declarations, filter)
		slogcontext.FromCtx(ctx).DebugContext(ctx, "loaded graph document",
			slog.String("path", path),
			slog.Int("types", g.Arena.Len()),
			slog.Int("declarations", len(g.Declarations)),
			slog.Int("selected", len(selected)),
		)
		for _, d := range selected {
			if d.File == "" {
				d.File = path
			}
			if prev, taken := owners[d.Name]; taken {
				diags.Error(diagnostic.CategoryGraphInvalid, d.File, 0,
					fmt.Sprintf("declaration %s is also declared in %s; only the first is emitted", d.Name, prev))
				continue
			}
			owners[d.Name] = d.File
			decls = append(decls, d)
		}
	}
	return decls, nil
}

// categoryOf maps a resolver failure to the diagnostic category users filter
// on.
func categoryOf(err error) diagnostic.Category {
	switch {
	case errors.Is(err, schema.ErrUnsupportedPrimitive),
		errors.Is(err, schema.ErrUnsupportedLiteral),
		errors.Is(err, analyzer.ErrFunctionType):
		return diagnostic.CategoryTypeUnsupported
	case errors.Is(err, analyzer.ErrDepthExceeded):
		return diagnostic.CategoryDepth
	case errors.Is(err, analyzer.ErrUnclassified),
		errors.Is(err, analyzer.ErrNotTranspilable):
		return diagnostic.CategoryClassification
	default:
		return diagnostic.CategoryGraphInvalid
	}
}

func (r *buildReport) print(w io.Writer, verbose bool, elapsed time.Duration) {
	if r.UpToDate {
		fmt.Fprintf(w, "schemas in %s are up to date (%d file(s)), use --force to rebuild\n", r.OutDir, len(r.Written))
		return
	}

	if out := r.Diagnostics.FormatAll(); out != "" {
		fmt.Fprint(w, out)
	}

	fmt.Fprintf(w, "resolved %d declaration(s) from %d graph document(s)", len(r.Resolved), len(r.Inputs))
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, ", %d failed", len(r.Failed))
	}
	fmt.Fprintln(w)
	if verbose && len(r.Resolved) > 0 {
		names := append([]string(nil), r.Resolved...)
		emit.SortNames(names)
		fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "wrote %d schema file(s) to %s\n", len(r.Written), r.OutDir)
	if summary := r.Diagnostics.Summary(); summary != "no issues" {
		fmt.Fprintln(w, summary)
	}
	fmt.Fprintf(w, "done in %s\n", elapsed.Round(time.Millisecond))
}
