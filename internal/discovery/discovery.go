// Package discovery finds graph documents on disk by include/exclude globs.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// GraphExtensions are the file extensions accepted as graph documents.
var GraphExtensions = []string{".json", ".yaml", ".yml"}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Matcher matches slash-separated relative paths against include and exclude
// globs. "*" stays within one path segment, "**" spans any number of them,
// including none.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher compiles the patterns.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	var err error
	if m.include, err = compileAll(include); err != nil {
		return nil, fmt.Errorf("input.include: %w", err)
	}
	if m.exclude, err = compileAll(exclude); err != nil {
		return nil, fmt.Errorf("input.exclude: %w", err)
	}
	return m, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "./")
		for _, variant := range expandDoubleStar(p) {
			g, err := glob.Compile(variant, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

// expandDoubleStar adds the variants of p in which a "**/" segment matches
// zero directories, so "types/**/*.json" also matches "types/user.json".
func expandDoubleStar(p string) []string {
	variants := []string{p}
	if strings.HasPrefix(p, "**/") {
		variants = append(variants, strings.TrimPrefix(p, "**/"))
	}
	if strings.Contains(p, "/**/") {
		variants = append(variants, strings.ReplaceAll(p, "/**/", "/"))
	}
	return variants
}

// Match reports whether the relative path rel is included and not excluded.
// A Matcher without include patterns matches nothing.
func (m *Matcher) Match(rel string) bool {
	if len(m.include) == 0 {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// IsGraphFile reports whether path has a graph document extension.
func IsGraphFile(path string) bool {
	return slices.Contains(GraphExtensions, strings.ToLower(filepath.Ext(path)))
}

// FindGraphs walks root and returns every graph document whose path relative
// to root passes m. Results are sorted.
func FindGraphs(root string, m *Matcher) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsGraphFile(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if m.Match(rel) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering graph documents under %s: %w", root, err)
	}
	slices.Sort(found)
	return found, nil
}
