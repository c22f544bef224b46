package typegraph

import (
	"fmt"
	"strings"
)

// TypeFlags is the capability bitset of a type node.
type TypeFlags uint32

const (
	TypeFlagsAny TypeFlags = 1 << iota
	TypeFlagsUnknown
	TypeFlagsString
	TypeFlagsNumber
	TypeFlagsBoolean
	TypeFlagsEnum
	TypeFlagsBigInt
	TypeFlagsStringLiteral
	TypeFlagsNumberLiteral
	TypeFlagsBooleanLiteral
	TypeFlagsEnumLiteral
	TypeFlagsBigIntLiteral
	TypeFlagsESSymbol
	TypeFlagsVoid
	TypeFlagsUndefined
	TypeFlagsNull
	TypeFlagsNever
	TypeFlagsTypeParameter
	TypeFlagsObject
	TypeFlagsUnion
	TypeFlagsIntersection
)

const (
	TypeFlagsLiteral   = TypeFlagsStringLiteral | TypeFlagsNumberLiteral | TypeFlagsBooleanLiteral | TypeFlagsBigIntLiteral
	TypeFlagsPrimitive = TypeFlagsAny | TypeFlagsUnknown | TypeFlagsString | TypeFlagsNumber | TypeFlagsBigInt |
		TypeFlagsBoolean | TypeFlagsVoid | TypeFlagsUndefined | TypeFlagsNull | TypeFlagsNever
)

var typeFlagNames = []flagName[TypeFlags]{
	{TypeFlagsAny, "any"},
	{TypeFlagsUnknown, "unknown"},
	{TypeFlagsString, "string"},
	{TypeFlagsNumber, "number"},
	{TypeFlagsBoolean, "boolean"},
	{TypeFlagsEnum, "enum"},
	{TypeFlagsBigInt, "bigint"},
	{TypeFlagsStringLiteral, "stringLiteral"},
	{TypeFlagsNumberLiteral, "numberLiteral"},
	{TypeFlagsBooleanLiteral, "booleanLiteral"},
	{TypeFlagsEnumLiteral, "enumLiteral"},
	{TypeFlagsBigIntLiteral, "bigintLiteral"},
	{TypeFlagsESSymbol, "esSymbol"},
	{TypeFlagsVoid, "void"},
	{TypeFlagsUndefined, "undefined"},
	{TypeFlagsNull, "null"},
	{TypeFlagsNever, "never"},
	{TypeFlagsTypeParameter, "typeParameter"},
	{TypeFlagsObject, "object"},
	{TypeFlagsUnion, "union"},
	{TypeFlagsIntersection, "intersection"},
}

func (f TypeFlags) String() string { return formatFlags(f, typeFlagNames) }

// ParseTypeFlags folds flag names (as written in graph documents) into a bitset.
func ParseTypeFlags(names []string) (TypeFlags, error) {
	return parseFlags(names, typeFlagNames, "type")
}

// ObjectFlags refine TypeFlagsObject nodes.
type ObjectFlags uint32

const (
	ObjectFlagsClass ObjectFlags = 1 << iota
	ObjectFlagsInterface
	ObjectFlagsReference
	ObjectFlagsTuple
	ObjectFlagsAnonymous
	ObjectFlagsMapped
)

var objectFlagNames = []flagName[ObjectFlags]{
	{ObjectFlagsClass, "class"},
	{ObjectFlagsInterface, "interface"},
	{ObjectFlagsReference, "reference"},
	{ObjectFlagsTuple, "tuple"},
	{ObjectFlagsAnonymous, "anonymous"},
	{ObjectFlagsMapped, "mapped"},
}

func (f ObjectFlags) String() string { return formatFlags(f, objectFlagNames) }

// ParseObjectFlags folds object flag names into a bitset.
func ParseObjectFlags(names []string) (ObjectFlags, error) {
	return parseFlags(names, objectFlagNames, "object")
}

// SymbolFlags describe what a symbol declares.
type SymbolFlags uint32

const (
	SymbolFlagsProperty SymbolFlags = 1 << iota
	SymbolFlagsMethod
	SymbolFlagsFunction
	SymbolFlagsGetAccessor
	SymbolFlagsSetAccessor
	SymbolFlagsPrototype
	SymbolFlagsClass
	SymbolFlagsInterface
	SymbolFlagsEnum
	SymbolFlagsEnumMember
	SymbolFlagsTypeAlias
	SymbolFlagsTypeParameter
	SymbolFlagsTypeLiteral
)

var symbolFlagNames = []flagName[SymbolFlags]{
	{SymbolFlagsProperty, "property"},
	{SymbolFlagsMethod, "method"},
	{SymbolFlagsFunction, "function"},
	{SymbolFlagsGetAccessor, "getAccessor"},
	{SymbolFlagsSetAccessor, "setAccessor"},
	{SymbolFlagsPrototype, "prototype"},
	{SymbolFlagsClass, "class"},
	{SymbolFlagsInterface, "interface"},
	{SymbolFlagsEnum, "enum"},
	{SymbolFlagsEnumMember, "enumMember"},
	{SymbolFlagsTypeAlias, "typeAlias"},
	{SymbolFlagsTypeParameter, "typeParameter"},
	{SymbolFlagsTypeLiteral, "typeLiteral"},
}

func (f SymbolFlags) String() string { return formatFlags(f, symbolFlagNames) }

// ParseSymbolFlags folds symbol flag names into a bitset.
func ParseSymbolFlags(names []string) (SymbolFlags, error) {
	return parseFlags(names, symbolFlagNames, "symbol")
}

type flagName[F ~uint32] struct {
	flag F
	name string
}

func formatFlags[F ~uint32](f F, names []flagName[F]) string {
	if f == 0 {
		return "none"
	}
	var parts []string
	rest := f
	for _, n := range names {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

func parseFlags[F ~uint32](names []string, table []flagName[F], kind string) (F, error) {
	var f F
	for _, name := range names {
		found := false
		for _, n := range table {
			if n.name == name {
				f |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown %s flag %q", kind, name)
		}
	}
	return f, nil
}
