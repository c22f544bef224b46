// Package typegraph defines the read-only type graph consumed by the schema
// analyzer, together with an arena-backed implementation that can be built in
// code or decoded from a graph document produced by an external type checker.
package typegraph

import "fmt"

// TypeID identifies a type node within one checker instance. Two handles with
// the same TypeID always describe the same type.
type TypeID uint64

// Type is the capability surface of a type node. Implementations must be safe
// for concurrent reads.
type Type interface {
	ID() TypeID
	Flags() TypeFlags
	// ObjectFlags is only meaningful when Flags has TypeFlagsObject.
	ObjectFlags() ObjectFlags
	Symbol() *Symbol
	// Types returns union and intersection constituents in declaration order.
	Types() []Type
	// Target returns the generic target of a reference, or nil.
	Target() Type
	// TypeArguments returns the arguments of a reference. Tuple elements and
	// the array element type are reported here.
	TypeArguments() []Type
	Members() []Member
	// StringIndexType returns V for a `[key: string]: V` or mapped shape.
	StringIndexType() Type
	// Value is the literal payload: string, float64 or PseudoBigInt. Boolean
	// literals carry no value, see IntrinsicName.
	Value() any
	IntrinsicName() string
	String() string
}

// Symbol is the name binding attached to a type or member.
type Symbol struct {
	Name  string
	Flags SymbolFlags
}

// Member is one named member of an object shape.
type Member struct {
	Name     string
	Optional bool
	Type     Type
	Symbol   *Symbol
	// GetterType is the return type of a get accessor.
	GetterType Type
}

// PseudoBigInt is a big integer literal kept as sign and decimal digits.
type PseudoBigInt struct {
	Negative    bool   `json:"negative,omitempty"`
	Base10Value string `json:"base10Value"`
}

func (b PseudoBigInt) String() string {
	if b.Negative && b.Base10Value != "0" {
		return "-" + b.Base10Value
	}
	return b.Base10Value
}

// DeclarationKind is the syntactic kind of a top-level declaration.
type DeclarationKind string

const (
	DeclarationInterface DeclarationKind = "interface"
	DeclarationTypeAlias DeclarationKind = "typeAlias"
	DeclarationEnum      DeclarationKind = "enum"
	DeclarationClass     DeclarationKind = "class"
	DeclarationFunction  DeclarationKind = "function"
	DeclarationVariable  DeclarationKind = "variable"
	DeclarationModule    DeclarationKind = "module"
)

func (k DeclarationKind) valid() bool {
	switch k {
	case DeclarationInterface, DeclarationTypeAlias, DeclarationEnum, DeclarationClass,
		DeclarationFunction, DeclarationVariable, DeclarationModule:
		return true
	}
	return false
}

// Declaration is a named top-level declaration of a source file.
type Declaration struct {
	Name string
	Kind DeclarationKind
	File string
	Type Type
}

func (d Declaration) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s %s (%s)", d.Kind, d.Name, d.File)
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Name)
}
