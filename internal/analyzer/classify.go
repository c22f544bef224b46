package analyzer

import (
	"github.com/tsgonest/tsschema/internal/schema"
	"github.com/tsgonest/tsschema/internal/typegraph"
)

// Kind is the single shape variant a type node is classified as.
type Kind string

const (
	KindEnum         Kind = "enum"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindLiteral      Kind = "literal"
	KindPrimitive    Kind = "primitive"
	KindGeneric      Kind = "generic"
	KindArray        Kind = "array"
	KindTuple        Kind = "tuple"
	KindDate         Kind = "date"
	KindFunction     Kind = "function"
	KindIndexable    Kind = "indexable"
	KindObject       Kind = "object"
)

// Classify returns the one variant t belongs to. Checks run from the most to
// the least specific so that overlapping flag sets (an enum is also a union,
// an array is also an object) resolve to a single tag. It inspects only t's
// own flags and symbol.
func Classify(t typegraph.Type) (Kind, error) {
	switch {
	case t == nil:
		return "", &ClassificationError{Type: "<nil>"}
	case IsEnum(t):
		return KindEnum, nil
	case IsUnion(t):
		return KindUnion, nil
	case IsIntersection(t):
		return KindIntersection, nil
	case IsLiteral(t):
		return KindLiteral, nil
	case IsPrimitive(t):
		return KindPrimitive, nil
	case IsGeneric(t):
		return KindGeneric, nil
	case IsArray(t):
		return KindArray, nil
	case IsTuple(t):
		return KindTuple, nil
	case IsDate(t):
		return KindDate, nil
	case IsFunctionLike(t):
		return KindFunction, nil
	case IsIndexable(t):
		return KindIndexable, nil
	case IsObject(t):
		return KindObject, nil
	}
	return "", &ClassificationError{Type: t.String(), Flags: t.Flags()}
}

// IsLiteral reports string, number, boolean and bigint literal types.
func IsLiteral(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsLiteral != 0
}

// IsPrimitive reports the intrinsic types that carry no value.
func IsPrimitive(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsPrimitive != 0
}

// PrimitiveKindOf names the primitive slot of t. ok is false for types that
// are not primitives.
func PrimitiveKindOf(t typegraph.Type) (kind schema.PrimitiveKind, ok bool) {
	flags := t.Flags()
	switch {
	case flags&typegraph.TypeFlagsAny != 0:
		return schema.PrimitiveAny, true
	case flags&typegraph.TypeFlagsUnknown != 0:
		return schema.PrimitiveUnknown, true
	case flags&typegraph.TypeFlagsNever != 0:
		return schema.PrimitiveNever, true
	case flags&typegraph.TypeFlagsVoid != 0:
		return schema.PrimitiveVoid, true
	case flags&typegraph.TypeFlagsUndefined != 0:
		return schema.PrimitiveUndefined, true
	case flags&typegraph.TypeFlagsNull != 0:
		return schema.PrimitiveNull, true
	case flags&typegraph.TypeFlagsString != 0:
		return schema.PrimitiveString, true
	case flags&typegraph.TypeFlagsNumber != 0:
		return schema.PrimitiveNumber, true
	case flags&typegraph.TypeFlagsBigInt != 0:
		return schema.PrimitiveBigInt, true
	case flags&typegraph.TypeFlagsBoolean != 0:
		return schema.PrimitiveBoolean, true
	}
	return "", false
}

// IsBooleanLiteral reports the synthetic true or false literal. These carry
// no value; the checker tags them by intrinsic name.
func IsBooleanLiteral(t typegraph.Type) bool {
	if t.Flags()&typegraph.TypeFlagsBooleanLiteral == 0 || t.Value() != nil {
		return false
	}
	name := t.IntrinsicName()
	return name == "true" || name == "false"
}

// IsBooleanUnion reports whether a and b are exactly {true, false} in either
// order. Callers pass constituents that already had undefined filtered out.
func IsBooleanUnion(a, b typegraph.Type) bool {
	if !IsLiteral(a) || !IsLiteral(b) || !IsBooleanLiteral(a) || !IsBooleanLiteral(b) {
		return false
	}
	return a.IntrinsicName() != b.IntrinsicName()
}

// IsObject reports object types of any sort.
func IsObject(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsObject != 0
}

// IsReference reports instantiations of generic targets, including arrays
// and tuples.
func IsReference(t typegraph.Type) bool {
	return IsObject(t) && t.ObjectFlags()&typegraph.ObjectFlagsReference != 0
}

// IsArray reports Array<T> and ReadonlyArray<T> references.
func IsArray(t typegraph.Type) bool {
	if !IsReference(t) {
		return false
	}
	sym := t.Symbol()
	return sym != nil && (sym.Name == "Array" || sym.Name == "ReadonlyArray")
}

// IsTuple reports references whose target is a tuple target.
func IsTuple(t typegraph.Type) bool {
	if !IsReference(t) || IsArray(t) {
		return false
	}
	target := t.Target()
	return target != nil && target.ObjectFlags()&typegraph.ObjectFlagsTuple != 0
}

// IsEnum reports enum declarations: a union of enum literals.
func IsEnum(t typegraph.Type) bool {
	flags := t.Flags()
	return flags&typegraph.TypeFlagsEnumLiteral != 0 && flags&typegraph.TypeFlagsUnion != 0
}

// IsUnion reports union types.
func IsUnion(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsUnion != 0
}

// IsIntersection reports intersection types.
func IsIntersection(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsIntersection != 0
}

// IsGeneric reports an unresolved type parameter. This is best effort: a
// parameter that the checker already substituted is not seen here.
func IsGeneric(t typegraph.Type) bool {
	return t.Flags()&typegraph.TypeFlagsTypeParameter != 0
}

// IsDefined reports whether t is anything other than the bare undefined type.
func IsDefined(t typegraph.Type) bool {
	return t.Flags() != typegraph.TypeFlagsUndefined
}

// IsFunctionLike reports callable object types.
func IsFunctionLike(t typegraph.Type) bool {
	if !IsObject(t) {
		return false
	}
	sym := t.Symbol()
	return sym != nil && sym.Flags&(typegraph.SymbolFlagsFunction|typegraph.SymbolFlagsMethod) != 0
}

// IsFunctionValued reports callable types, including optional callbacks
// typed as a union of functions and undefined.
func IsFunctionValued(t typegraph.Type) bool {
	if IsFunctionLike(t) {
		return true
	}
	if !IsUnion(t) || IsEnum(t) {
		return false
	}
	found := false
	for _, c := range t.Types() {
		if !IsDefined(c) {
			continue
		}
		if !IsFunctionLike(c) {
			return false
		}
		found = true
	}
	return found
}

// IsIndexable reports objects described only by a string index signature,
// such as Record<string, V> or { [key: string]: V }.
func IsIndexable(t typegraph.Type) bool {
	return IsObject(t) && t.StringIndexType() != nil && len(t.Members()) == 0
}

// IsDate is a best-effort nominal check on the display name. A user type
// that happens to be called Date is a false positive, and an aliased Date is
// a false negative.
func IsDate(t typegraph.Type) bool {
	return IsObject(t) && t.String() == "Date"
}

// IsOptional reports the member's own optionality flag.
func IsOptional(m typegraph.Member) bool {
	return m.Optional
}

// IsMethodMember reports members declared as methods or functions.
func IsMethodMember(m typegraph.Member) bool {
	return m.Symbol != nil && m.Symbol.Flags&(typegraph.SymbolFlagsMethod|typegraph.SymbolFlagsFunction) != 0
}

// IsPrototypeMember reports the synthetic prototype member of classes.
func IsPrototypeMember(m typegraph.Member) bool {
	return m.Symbol != nil && m.Symbol.Flags&typegraph.SymbolFlagsPrototype != 0
}

// IsGetAccessor reports get accessor members.
func IsGetAccessor(m typegraph.Member) bool {
	return m.Symbol != nil && m.Symbol.Flags&typegraph.SymbolFlagsGetAccessor != 0
}
