// Package schema builds JSON Schema (draft-07) fragments from already
// resolved inputs. Nothing in this package looks at type graph nodes.
package schema

import (
	"fmt"
	"strconv"
)

// Draft07 is the $schema URI stamped on emitted documents.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Fragment is a JSON Schema sub-document. A fragment is either a literal
// value (see IsLiteral) or a complex node using the exported fields.
// Fragments are immutable once built and may be shared between parents.
type Fragment struct {
	literal *LiteralValue

	Ref         string
	Type        string
	Format      string
	Description string
	Enum        []LiteralValue
	// Items is the homogeneous element schema of an array.
	Items *Fragment
	// TupleItems holds positional element schemas. A non-nil empty slice is
	// the empty tuple.
	TupleItems []*Fragment
	AllOf      []*Fragment
	AnyOf      []*Fragment
	// AdditionalProperties is nil when unconstrained.
	AdditionalProperties *bool
	PatternProperties    []Property
	// Properties is encoded whenever it is non-nil, so an object with no
	// members still carries "properties": {}.
	Properties []Property
	// Required is omitted from the encoding when empty.
	Required []string
}

// Property is one named entry of properties or patternProperties.
type Property struct {
	Name   string
	Schema *Fragment
}

// LiteralKind tags the payload of a LiteralValue.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralBigInt
)

// LiteralValue is a scalar usable as an enum member or const.
type LiteralValue struct {
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
	// BigInt holds the decimal digits of a big integer literal, with a
	// leading '-' when negative.
	BigInt string
}

// Interface returns the value as a plain Go value (string, float64, bool or,
// for big integers, the decimal string).
func (v LiteralValue) Interface() any {
	switch v.Kind {
	case LiteralString:
		return v.Str
	case LiteralNumber:
		return v.Num
	case LiteralBoolean:
		return v.Bool
	default:
		return v.BigInt
	}
}

func (v LiteralValue) String() string {
	switch v.Kind {
	case LiteralString:
		return strconv.Quote(v.Str)
	case LiteralNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case LiteralBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.BigInt + "n"
	}
}

// IsLiteral reports whether f is a literal fragment.
func (f *Fragment) IsLiteral() bool {
	return f != nil && f.literal != nil
}

// Literal returns the literal payload of a literal fragment.
func (f *Fragment) Literal() (LiteralValue, bool) {
	if !f.IsLiteral() {
		return LiteralValue{}, false
	}
	return *f.literal, true
}

// IsClosedObject reports whether f is a plain closed object produced by
// Object or MergeObjects.
func (f *Fragment) IsClosedObject() bool {
	return f != nil && f.literal == nil && f.Type == "object" && f.Ref == "" &&
		f.AdditionalProperties != nil && !*f.AdditionalProperties &&
		f.PatternProperties == nil && f.Properties != nil
}

// IsPureEnum reports whether f is an enum schema and nothing else.
func (f *Fragment) IsPureEnum() bool {
	return f != nil && f.literal == nil && f.Enum != nil && f.Ref == "" && f.Type == "" &&
		f.Format == "" && f.Description == "" && f.Items == nil && f.TupleItems == nil &&
		f.AllOf == nil && f.AnyOf == nil && f.AdditionalProperties == nil &&
		f.PatternProperties == nil && f.Properties == nil && f.Required == nil
}

// Property looks up a property schema by name.
func (f *Fragment) Property(name string) (*Fragment, bool) {
	if f == nil {
		return nil, false
	}
	for _, p := range f.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

func (f *Fragment) String() string {
	if f == nil {
		return "<nil>"
	}
	data, err := Marshal(f)
	if err != nil {
		return fmt.Sprintf("<invalid fragment: %v>", err)
	}
	return string(data)
}
