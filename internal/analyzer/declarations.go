package analyzer

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/tsgonest/tsschema/internal/typegraph"
)

// IsTranspilable reports whether a declaration yields a schema: interfaces,
// type aliases, enums and classes do; functions, variables and modules don't.
func IsTranspilable(d typegraph.Declaration) bool {
	switch d.Kind {
	case typegraph.DeclarationInterface, typegraph.DeclarationTypeAlias,
		typegraph.DeclarationEnum, typegraph.DeclarationClass:
		return true
	}
	return false
}

// NameFilter selects declarations by name. Patterns use glob syntax with '.'
// as separator, so "api.*" matches "api.User" but not "api.v1.User", while
// "api.**" matches both.
type NameFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewNameFilter compiles include and exclude patterns. An empty include list
// selects every name.
func NewNameFilter(include, exclude []string) (*NameFilter, error) {
	f := &NameFilter{}
	for _, pattern := range include {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid declaration include pattern %q: %w", pattern, err)
		}
		f.include = append(f.include, g)
	}
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid declaration exclude pattern %q: %w", pattern, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

// Match reports whether name passes the filter. Excludes win over includes.
func (f *NameFilter) Match(name string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// SelectDeclarations keeps the transpilable declarations whose names pass
// the filter, in their original order.
func SelectDeclarations(decls []typegraph.Declaration, filter *NameFilter) []typegraph.Declaration {
	var out []typegraph.Declaration
	for _, d := range decls {
		if IsTranspilable(d) && filter.Match(d.Name) {
			out = append(out, d)
		}
	}
	return out
}

// FilterDeclarations compiles the name patterns and applies them with
// SelectDeclarations.
func FilterDeclarations(decls []typegraph.Declaration, include, exclude []string) ([]typegraph.Declaration, error) {
	filter, err := NewNameFilter(include, exclude)
	if err != nil {
		return nil, err
	}
	return SelectDeclarations(decls, filter), nil
}
