package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tsgonest/tsschema/internal/analyzer"
	"github.com/tsgonest/tsschema/internal/emit"
	"github.com/tsgonest/tsschema/internal/typegraph"
)

// runDump prints how every declaration of the given graph documents is
// classified, node by node. Without arguments the configured inputs are
// dumped.
func runDump(args []string) int {
	f, cfg, root, code, ok := prepare("dump", args)
	if !ok {
		return code
	}
	p := newPipeline(cfg, root, false)
	inputs, err := p.discover(f.Inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	status := 0
	for _, path := range inputs {
		g, err := typegraph.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			status = 1
			continue
		}
		fmt.Printf("# %s\n", path)
		writeDump(os.Stdout, g.Declarations, cfg.Resolver.MaxDepth)
	}
	return status
}

// writeDump renders declarations sorted by name.
func writeDump(w io.Writer, decls []typegraph.Declaration, maxDepth int) {
	if maxDepth <= 0 {
		maxDepth = analyzer.DefaultMaxDepth
	}
	byName := make(map[string][]typegraph.Declaration)
	names := make([]string, 0, len(decls))
	for _, d := range decls {
		if _, seen := byName[d.Name]; !seen {
			names = append(names, d.Name)
		}
		byName[d.Name] = append(byName[d.Name], d)
	}
	emit.SortNames(names)

	for _, name := range names {
		for _, d := range byName[name] {
			fmt.Fprintln(w, d.String())
			if !analyzer.IsTranspilable(d) {
				fmt.Fprintln(w, "  (skipped: not transpilable)")
				continue
			}
			dd := &dumper{w: w, maxDepth: maxDepth, active: make(map[typegraph.TypeID]bool)}
			dd.node("", d.Type, 1)
		}
	}
}

type dumper struct {
	w        io.Writer
	maxDepth int
	// active holds the nodes on the current path, to stop at cycles.
	active map[typegraph.TypeID]bool
}

func (d *dumper) line(depth int, label, text string) {
	indent := strings.Repeat("  ", depth)
	if label != "" {
		fmt.Fprintf(d.w, "%s%s: %s\n", indent, label, text)
		return
	}
	fmt.Fprintf(d.w, "%s%s\n", indent, text)
}

func (d *dumper) node(label string, t typegraph.Type, depth int) {
	if t == nil {
		d.line(depth, label, "<missing>")
		return
	}
	kind, err := analyzer.Classify(t)
	if err != nil {
		d.line(depth, label, "error: "+err.Error())
		return
	}
	d.line(depth, label, fmt.Sprintf("%s %s", kind, t))

	if d.active[t.ID()] {
		d.line(depth+1, "", "(cycle)")
		return
	}
	if depth >= d.maxDepth {
		d.line(depth+1, "", "(max depth)")
		return
	}
	d.active[t.ID()] = true
	defer delete(d.active, t.ID())

	switch kind {
	case analyzer.KindEnum, analyzer.KindUnion, analyzer.KindIntersection:
		for _, c := range t.Types() {
			d.node("", c, depth+1)
		}
	case analyzer.KindArray:
		for _, a := range t.TypeArguments() {
			d.node("[]", a, depth+1)
		}
	case analyzer.KindTuple:
		for i, a := range t.TypeArguments() {
			d.node(fmt.Sprintf("[%d]", i), a, depth+1)
		}
	case analyzer.KindIndexable:
		d.node("[string]", t.StringIndexType(), depth+1)
	case analyzer.KindObject, analyzer.KindDate:
		d.members(t, depth+1)
	}
}

func (d *dumper) members(t typegraph.Type, depth int) {
	for _, m := range t.Members() {
		label := m.Name
		if m.Optional {
			label += "?"
		}
		switch {
		case analyzer.IsPrototypeMember(m):
			continue
		case analyzer.IsMethodMember(m):
			d.line(depth, label, "method (skipped)")
			continue
		case analyzer.IsGetAccessor(m) && m.GetterType != nil:
			d.node("get "+label, m.GetterType, depth)
			continue
		}
		d.node(label, m.Type, depth)
	}
	if index := t.StringIndexType(); index != nil {
		d.node("[string]", index, depth)
	}
}
