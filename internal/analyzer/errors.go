package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsgonest/tsschema/internal/typegraph"
)

var (
	// ErrUnclassified is matched by ClassificationError.
	ErrUnclassified = errors.New("unclassified type")
	// ErrDepthExceeded is returned when a type nests deeper than MaxDepth.
	ErrDepthExceeded = errors.New("maximum type depth exceeded")
	// ErrNotTranspilable is returned when Resolve is handed a declaration
	// kind that has no schema (functions, variables, modules).
	ErrNotTranspilable = errors.New("declaration is not transpilable")
)

// ClassificationError reports a type node that matches no shape variant.
// Declaration and Path are filled in once the error leaves Resolve.
type ClassificationError struct {
	Declaration string
	Path        []string
	Type        string
	Flags       typegraph.TypeFlags
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify type %s (flags %s)", e.Type, e.Flags)
}

func (e *ClassificationError) Is(target error) bool {
	return target == ErrUnclassified
}

// ResolveError locates a failure inside a declaration.
type ResolveError struct {
	Declaration string
	// Path is the member path from the declaration root, e.g.
	// ["address", "[]", "street"].
	Path []string
	Err  error
}

func (e *ResolveError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", e.Declaration, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", e.Declaration, FormatPath(e.Path), e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// FormatPath renders a member path the way it would be written in source.
func FormatPath(path []string) string {
	var sb strings.Builder
	for _, seg := range path {
		switch {
		case strings.HasPrefix(seg, "["):
			sb.WriteString(seg)
		case strings.HasPrefix(seg, "<"):
			sb.WriteString(seg)
		default:
			sb.WriteString(".")
			sb.WriteString(seg)
		}
	}
	return sb.String()
}
