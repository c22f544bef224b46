package analyzer

import (
	"strings"

	"github.com/tsgonest/tsschema/internal/typegraph"
)

// BrandedBase detects the branded primitive pattern, such as
// `string & { __brand: "Email" }` or `number & {}`: exactly one primitive or
// literal constituent, all others phantom objects. It returns that base
// constituent. Phantom objects place no constraint a JSON value can carry,
// so the base alone describes every value of the intersection.
func BrandedBase(t typegraph.Type) (typegraph.Type, bool) {
	if !IsIntersection(t) {
		return nil, false
	}
	var base typegraph.Type
	phantoms := 0
	for _, c := range t.Types() {
		switch {
		case IsPrimitive(c) || IsLiteral(c):
			if base != nil {
				return nil, false
			}
			base = c
		case IsPhantomObject(c):
			phantoms++
		default:
			return nil, false
		}
	}
	return base, base != nil && phantoms > 0
}

// IsPhantomObject reports plain object types whose members are all optional
// or brand properties.
func IsPhantomObject(t typegraph.Type) bool {
	if !IsObject(t) || IsFunctionLike(t) || IsArray(t) || IsTuple(t) || IsDate(t) || IsEnum(t) {
		return false
	}
	if t.StringIndexType() != nil {
		return false
	}
	for _, m := range t.Members() {
		if IsPrototypeMember(m) || IsMethodMember(m) || m.Optional || IsBrandProperty(m.Name) {
			continue
		}
		return false
	}
	return true
}

// IsBrandProperty reports member names used for nominal branding.
func IsBrandProperty(name string) bool {
	return strings.HasPrefix(name, "__") || name == "typia.tag"
}
