package schema

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// PrimitiveKind names a primitive slot of the source type system.
type PrimitiveKind string

const (
	PrimitiveAny       PrimitiveKind = "any"
	PrimitiveUnknown   PrimitiveKind = "unknown"
	PrimitiveString    PrimitiveKind = "string"
	PrimitiveNumber    PrimitiveKind = "number"
	PrimitiveBigInt    PrimitiveKind = "bigint"
	PrimitiveBoolean   PrimitiveKind = "boolean"
	PrimitiveVoid      PrimitiveKind = "void"
	PrimitiveUndefined PrimitiveKind = "undefined"
	PrimitiveNull      PrimitiveKind = "null"
	PrimitiveNever     PrimitiveKind = "never"
)

// NeverDescription is attached to the never encoding.
const NeverDescription = "This is a never type"

var (
	// ErrUnsupportedPrimitive is matched by UnsupportedPrimitiveError.
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
	// ErrUnsupportedLiteral is returned for literal payloads of unknown type.
	ErrUnsupportedLiteral = errors.New("unsupported literal value")
	// ErrNotLiteral is returned when an enum member is not a literal fragment.
	ErrNotLiteral = errors.New("enum member is not a literal")
)

// UnsupportedPrimitiveError reports a primitive kind with no schema mapping.
type UnsupportedPrimitiveError struct {
	Kind PrimitiveKind
}

func (e *UnsupportedPrimitiveError) Error() string {
	return fmt.Sprintf("unsupported primitive %q: no JSON Schema mapping", string(e.Kind))
}

func (e *UnsupportedPrimitiveError) Is(target error) bool {
	return target == ErrUnsupportedPrimitive
}

// Literal builds a literal fragment. v must be a string, float64, int, bool
// or BigInt.
func Literal(v any) (*Fragment, error) {
	var lit LiteralValue
	switch v := v.(type) {
	case string:
		lit = LiteralValue{Kind: LiteralString, Str: v}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %v has no JSON representation", ErrUnsupportedLiteral, v)
		}
		lit = LiteralValue{Kind: LiteralNumber, Num: v}
	case int:
		lit = LiteralValue{Kind: LiteralNumber, Num: float64(v)}
	case bool:
		lit = LiteralValue{Kind: LiteralBoolean, Bool: v}
	case BigInt:
		digits, err := v.text()
		if err != nil {
			return nil, err
		}
		lit = LiteralValue{Kind: LiteralBigInt, BigInt: digits}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
	}
	return &Fragment{literal: &lit}, nil
}

// LiteralOf wraps an already validated literal value.
func LiteralOf(v LiteralValue) *Fragment {
	return &Fragment{literal: &v}
}

// BigInt is a big integer literal payload kept as sign and decimal digits.
type BigInt struct {
	Negative bool
	Digits   string
}

func (b BigInt) text() (string, error) {
	if b.Digits == "" || strings.TrimLeft(b.Digits, "0123456789") != "" {
		return "", fmt.Errorf("%w: bigint digits %q", ErrUnsupportedLiteral, b.Digits)
	}
	digits := strings.TrimLeft(b.Digits, "0")
	if digits == "" {
		return "0", nil
	}
	if b.Negative {
		return "-" + digits, nil
	}
	return digits, nil
}

// Primitive maps a primitive kind to its fixed schema.
func Primitive(kind PrimitiveKind) (*Fragment, error) {
	switch kind {
	case PrimitiveAny, PrimitiveUnknown:
		return Any(), nil
	case PrimitiveVoid, PrimitiveUndefined:
		return &Fragment{Type: "undefined"}, nil
	case PrimitiveNull:
		return &Fragment{Type: "null"}, nil
	case PrimitiveNever:
		// No value is both a string and a number.
		return &Fragment{
			Description: NeverDescription,
			AllOf:       []*Fragment{{Type: "string"}, {Type: "number"}},
		}, nil
	case PrimitiveString, PrimitiveNumber, PrimitiveBoolean:
		return &Fragment{Type: string(kind)}, nil
	default:
		return nil, &UnsupportedPrimitiveError{Kind: kind}
	}
}

// Array builds a homogeneous array schema.
func Array(item *Fragment) *Fragment {
	return &Fragment{Type: "array", Items: item}
}

// Tuple builds a positional array schema.
func Tuple(items []*Fragment) *Fragment {
	out := make([]*Fragment, len(items))
	copy(out, items)
	return &Fragment{Type: "array", TupleItems: out}
}

// EnumMember pairs an enum member name with its resolved literal.
type EnumMember struct {
	Name  string
	Value *Fragment
}

// Enum builds {enum: [...]} in member order. Names are dropped.
func Enum(members []EnumMember) (*Fragment, error) {
	values := make([]LiteralValue, 0, len(members))
	for _, m := range members {
		v, ok := m.Value.Literal()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotLiteral, m.Name)
		}
		values = append(values, v)
	}
	return &Fragment{Enum: values}, nil
}

// ObjectProperty is one resolved member of an object shape.
type ObjectProperty struct {
	Name     string
	Optional bool
	Schema   *Fragment
}

// Object builds a closed object schema. Non-optional members are listed in
// required; required is left nil when there are none.
func Object(props []ObjectProperty) *Fragment {
	f := &Fragment{
		Type:                 "object",
		AdditionalProperties: boolPtr(false),
		Properties:           make([]Property, 0, len(props)),
	}
	for _, p := range props {
		f.Properties = append(f.Properties, Property{Name: p.Name, Schema: p.Schema})
		if !p.Optional {
			f.Required = append(f.Required, p.Name)
		}
	}
	return f
}

// IndexableObject builds an object whose keys are unconstrained strings.
func IndexableObject(value *Fragment) *Fragment {
	return &Fragment{
		Type:                 "object",
		AdditionalProperties: boolPtr(false),
		PatternProperties:    []Property{{Name: ".*", Schema: value}},
		Properties:           []Property{},
	}
}

// WithPatternProperties returns a copy of obj that also constrains
// properties not listed by name to value.
func WithPatternProperties(obj, value *Fragment) *Fragment {
	out := *obj
	out.PatternProperties = []Property{{Name: ".*", Schema: value}}
	return &out
}

// Any matches every value.
func Any() *Fragment {
	return &Fragment{}
}

// Generic is the schema of an unresolved type parameter. It matches every
// value; the description records why.
func Generic(name string) *Fragment {
	if name == "" {
		name = "T"
	}
	return &Fragment{Description: "Generic type parameter " + name}
}

// Date is the schema of a Date-shaped value as it appears after JSON
// serialization.
func Date(format string) *Fragment {
	if format == "" {
		format = "date-time"
	}
	return &Fragment{Type: "string", Format: format}
}

// AnyOf builds a union of schemas.
func AnyOf(fs []*Fragment) *Fragment {
	out := make([]*Fragment, len(fs))
	copy(out, fs)
	return &Fragment{AnyOf: out}
}

// AllOf builds an intersection of schemas.
func AllOf(fs []*Fragment) *Fragment {
	out := make([]*Fragment, len(fs))
	copy(out, fs)
	return &Fragment{AllOf: out}
}

// Open returns a copy of a closed object that admits additional properties.
// Other fragments are returned unchanged.
func Open(f *Fragment) *Fragment {
	if !f.IsClosedObject() {
		return f
	}
	open := *f
	open.AdditionalProperties = nil
	return &open
}

// Ref builds a JSON pointer reference.
func Ref(pointer string) *Fragment {
	return &Fragment{Ref: pointer}
}

// DefinitionPointer returns the pointer under which a named definition is
// stored in a document.
func DefinitionPointer(name string) string {
	return "#/definitions/" + escapePointer(name)
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// Placeholder stands in for a type that is already being resolved higher up.
func Placeholder(name string) *Fragment {
	return &Fragment{Description: "Circular reference to " + name}
}

// MergeObjects folds closed object schemas into one. A property present on
// several inputs must satisfy all of them: nested closed objects are merged
// and anything else is combined with allOf. Required names are unioned. ok is
// false when any input is not a closed object.
func MergeObjects(fs []*Fragment) (merged *Fragment, ok bool) {
	index := make(map[string]int)
	var props []ObjectProperty
	for _, f := range fs {
		if !f.IsClosedObject() {
			return nil, false
		}
		required := make(map[string]bool, len(f.Required))
		for _, r := range f.Required {
			required[r] = true
		}
		for _, p := range f.Properties {
			prop := ObjectProperty{Name: p.Name, Optional: !required[p.Name], Schema: p.Schema}
			if i, seen := index[p.Name]; seen {
				// a member required on either side stays required
				prop.Optional = prop.Optional && props[i].Optional
				prop.Schema = intersectProperty(props[i].Schema, p.Schema)
				props[i] = prop
				continue
			}
			index[p.Name] = len(props)
			props = append(props, prop)
		}
	}
	return Object(props), true
}

func intersectProperty(prev, next *Fragment) *Fragment {
	if prev == next {
		return prev
	}
	if merged, ok := MergeObjects([]*Fragment{prev, next}); ok {
		return merged
	}
	return AllOf([]*Fragment{prev, next})
}

func boolPtr(b bool) *bool { return &b }
