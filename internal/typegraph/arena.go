package typegraph

import (
	"fmt"
	"strconv"
	"strings"
)

// Arena owns a set of type nodes addressed by TypeID. Nodes are mutable only
// while the graph is being built; once handed to a resolver the arena must
// not change.
type Arena struct {
	nodes  map[TypeID]*Node
	order  []*Node
	nextID TypeID

	arrayTarget *Node
	intrinsics  map[TypeFlags]*Node
	trueType    *Node
	falseType   *Node
	booleanType *Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		nodes:      make(map[TypeID]*Node),
		nextID:     1,
		intrinsics: make(map[TypeFlags]*Node),
	}
}

// Node is the arena implementation of Type.
type Node struct {
	id          TypeID
	flags       TypeFlags
	objectFlags ObjectFlags
	symbol      *Symbol
	types       []*Node
	target      *Node
	typeArgs    []*Node
	members     []Member
	stringIndex *Node
	value       any
	intrinsic   string
	display     string
}

var _ Type = (*Node)(nil)

func (n *Node) ID() TypeID               { return n.id }
func (n *Node) Flags() TypeFlags         { return n.flags }
func (n *Node) ObjectFlags() ObjectFlags { return n.objectFlags }
func (n *Node) Symbol() *Symbol          { return n.symbol }
func (n *Node) Types() []Type            { return toTypes(n.types) }
func (n *Node) TypeArguments() []Type    { return toTypes(n.typeArgs) }
func (n *Node) Value() any               { return n.value }
func (n *Node) IntrinsicName() string    { return n.intrinsic }

func (n *Node) Target() Type {
	if n.target == nil {
		return nil
	}
	return n.target
}

func (n *Node) StringIndexType() Type {
	if n.stringIndex == nil {
		return nil
	}
	return n.stringIndex
}

// Members returns a copy of the member list.
func (n *Node) Members() []Member {
	out := make([]Member, len(n.members))
	copy(out, n.members)
	return out
}

// String renders the node roughly the way a checker prints it.
func (n *Node) String() string {
	if n.display != "" {
		return n.display
	}
	return n.describe(0)
}

func (n *Node) describe(depth int) string {
	if depth > 4 {
		return "..."
	}
	switch {
	case n.intrinsic != "":
		return n.intrinsic
	case n.flags&TypeFlagsStringLiteral != 0:
		return strconv.Quote(fmt.Sprint(n.value))
	case n.flags&(TypeFlagsNumberLiteral|TypeFlagsBigIntLiteral) != 0:
		return fmt.Sprint(n.value)
	case n.flags&(TypeFlagsUnion|TypeFlagsIntersection) != 0 && (n.symbol == nil || n.flags&TypeFlagsEnumLiteral == 0):
		sep := " | "
		if n.flags&TypeFlagsIntersection != 0 {
			sep = " & "
		}
		parts := make([]string, len(n.types))
		for i, t := range n.types {
			parts[i] = t.describe(depth + 1)
		}
		return strings.Join(parts, sep)
	case n.objectFlags&ObjectFlagsReference != 0 && n.target != nil && n.target.objectFlags&ObjectFlagsTuple != 0:
		parts := make([]string, len(n.typeArgs))
		for i, t := range n.typeArgs {
			parts[i] = t.describe(depth + 1)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case n.symbol != nil && n.symbol.Name == "Array" && len(n.typeArgs) == 1:
		return n.typeArgs[0].describe(depth+1) + "[]"
	case n.symbol != nil && len(n.typeArgs) > 0:
		parts := make([]string, len(n.typeArgs))
		for i, t := range n.typeArgs {
			parts[i] = t.describe(depth + 1)
		}
		return n.symbol.Name + "<" + strings.Join(parts, ", ") + ">"
	case n.symbol != nil && n.symbol.Name != "":
		return n.symbol.Name
	case n.flags&TypeFlagsObject != 0:
		return "{...}"
	}
	return n.flags.String()
}

func toTypes(nodes []*Node) []Type {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Type, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// Lookup returns the node with the given id.
func (a *Arena) Lookup(id TypeID) (*Node, bool) {
	n, ok := a.nodes[id]
	return n, ok
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int { return len(a.order) }

// Nodes returns all nodes in creation order.
func (a *Arena) Nodes() []*Node {
	out := make([]*Node, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Arena) add(n *Node) *Node {
	if n.id == 0 {
		n.id = a.nextID
	}
	if n.id >= a.nextID {
		a.nextID = n.id + 1
	}
	a.nodes[n.id] = n
	a.order = append(a.order, n)
	return n
}

// Intrinsic returns the shared node for a primitive flag (string, number,
// any, never, ...). Intrinsics are interned per arena.
func (a *Arena) Intrinsic(flag TypeFlags) *Node {
	if n, ok := a.intrinsics[flag]; ok {
		return n
	}
	n := a.add(&Node{flags: flag, intrinsic: intrinsicName(flag)})
	a.intrinsics[flag] = n
	return n
}

func intrinsicName(flag TypeFlags) string {
	for _, n := range typeFlagNames {
		if n.flag == flag {
			return n.name
		}
	}
	return flag.String()
}

func (a *Arena) StringType() *Node    { return a.Intrinsic(TypeFlagsString) }
func (a *Arena) NumberType() *Node    { return a.Intrinsic(TypeFlagsNumber) }
func (a *Arena) UndefinedType() *Node { return a.Intrinsic(TypeFlagsUndefined) }
func (a *Arena) NullType() *Node      { return a.Intrinsic(TypeFlagsNull) }
func (a *Arena) AnyType() *Node       { return a.Intrinsic(TypeFlagsAny) }
func (a *Arena) NeverType() *Node     { return a.Intrinsic(TypeFlagsNever) }

// BooleanType returns the checker's view of boolean: the union true | false.
func (a *Arena) BooleanType() *Node {
	if a.booleanType == nil {
		a.booleanType = a.Union(a.BooleanLiteral(true), a.BooleanLiteral(false))
		a.booleanType.display = "boolean"
	}
	return a.booleanType
}

// StringLiteral creates a string literal type.
func (a *Arena) StringLiteral(v string) *Node {
	return a.add(&Node{flags: TypeFlagsStringLiteral, value: v})
}

// NumberLiteral creates a number literal type.
func (a *Arena) NumberLiteral(v float64) *Node {
	return a.add(&Node{flags: TypeFlagsNumberLiteral, value: v})
}

// BigIntLiteral creates a big integer literal type.
func (a *Arena) BigIntLiteral(v PseudoBigInt) *Node {
	return a.add(&Node{flags: TypeFlagsBigIntLiteral, value: v})
}

// BooleanLiteral returns the interned true or false literal type. Like the
// checker's, these carry no value and are told apart by their intrinsic name.
func (a *Arena) BooleanLiteral(v bool) *Node {
	slot := &a.falseType
	if v {
		slot = &a.trueType
	}
	if *slot == nil {
		*slot = a.add(&Node{flags: TypeFlagsBooleanLiteral, intrinsic: strconv.FormatBool(v)})
	}
	return *slot
}

// Union creates a union of the given constituents.
func (a *Arena) Union(types ...*Node) *Node {
	return a.add(&Node{flags: TypeFlagsUnion, types: types})
}

// Intersection creates an intersection of the given constituents.
func (a *Arena) Intersection(types ...*Node) *Node {
	return a.add(&Node{flags: TypeFlagsIntersection, types: types})
}

// EnumMember names one literal of an enum declaration.
type EnumMember struct {
	Name  string
	Value any
}

// Enum creates an enum type: a union of enum literal members, each bound to
// the symbol naming the member.
func (a *Arena) Enum(name string, members ...EnumMember) *Node {
	lits := make([]*Node, len(members))
	for i, m := range members {
		lit := &Node{
			flags:  TypeFlagsEnumLiteral,
			symbol: &Symbol{Name: m.Name, Flags: SymbolFlagsEnumMember},
		}
		switch v := m.Value.(type) {
		case string:
			lit.flags |= TypeFlagsStringLiteral
			lit.value = v
		case int:
			lit.flags |= TypeFlagsNumberLiteral
			lit.value = float64(v)
		default:
			lit.flags |= TypeFlagsNumberLiteral
			lit.value = v
		}
		lits[i] = a.add(lit)
	}
	return a.add(&Node{
		flags:  TypeFlagsEnumLiteral | TypeFlagsUnion,
		types:  lits,
		symbol: &Symbol{Name: name, Flags: SymbolFlagsEnum},
	})
}

// TypeParameter creates an unresolved type parameter.
func (a *Arena) TypeParameter(name string) *Node {
	return a.add(&Node{
		flags:  TypeFlagsTypeParameter,
		symbol: &Symbol{Name: name, Flags: SymbolFlagsTypeParameter},
	})
}

// Object creates an object type. Members are added with AddMember so that
// self-referential shapes can be built.
func (a *Arena) Object(flags ObjectFlags, sym *Symbol) *Node {
	return a.add(&Node{flags: TypeFlagsObject, objectFlags: flags, symbol: sym})
}

// Function creates a callable object type.
func (a *Arena) Function(name string) *Node {
	return a.add(&Node{
		flags:       TypeFlagsObject,
		objectFlags: ObjectFlagsAnonymous,
		symbol:      &Symbol{Name: name, Flags: SymbolFlagsFunction},
	})
}

// Indexable creates an anonymous object with a string index signature.
func (a *Arena) Indexable(value *Node) *Node {
	return a.add(&Node{flags: TypeFlagsObject, objectFlags: ObjectFlagsAnonymous, stringIndex: value})
}

// Array creates an Array<elem> reference.
func (a *Arena) Array(elem *Node) *Node {
	if a.arrayTarget == nil {
		a.arrayTarget = a.add(&Node{
			flags:       TypeFlagsObject,
			objectFlags: ObjectFlagsInterface,
			symbol:      &Symbol{Name: "Array", Flags: SymbolFlagsInterface},
		})
	}
	return a.add(&Node{
		flags:       TypeFlagsObject,
		objectFlags: ObjectFlagsReference,
		symbol:      a.arrayTarget.symbol,
		target:      a.arrayTarget,
		typeArgs:    []*Node{elem},
	})
}

// Tuple creates a tuple reference with the given element types.
func (a *Arena) Tuple(elems ...*Node) *Node {
	target := a.add(&Node{flags: TypeFlagsObject, objectFlags: ObjectFlagsTuple})
	return a.add(&Node{
		flags:       TypeFlagsObject,
		objectFlags: ObjectFlagsReference,
		target:      target,
		typeArgs:    elems,
	})
}

// Reference creates an instantiation of a generic target, e.g. Box<string>.
// Members of the instantiation must be added explicitly.
func (a *Arena) Reference(target *Node, args ...*Node) *Node {
	return a.add(&Node{
		flags:       TypeFlagsObject,
		objectFlags: ObjectFlagsReference,
		symbol:      target.symbol,
		target:      target,
		typeArgs:    args,
	})
}

// MemberOption adjusts a member added with AddMember.
type MemberOption func(*Member)

// Optional marks the member optional.
func Optional() MemberOption {
	return func(m *Member) { m.Optional = true }
}

// WithSymbolFlags sets the member symbol's flags.
func WithSymbolFlags(flags SymbolFlags) MemberOption {
	return func(m *Member) { m.Symbol.Flags = flags }
}

// Getter turns the member into a get accessor returning t.
func Getter(t *Node) MemberOption {
	return func(m *Member) {
		m.Symbol.Flags = SymbolFlagsGetAccessor
		m.GetterType = t
	}
}

// AddMember appends a member to an object node and returns the node.
func (n *Node) AddMember(name string, t *Node, opts ...MemberOption) *Node {
	m := Member{Name: name, Symbol: &Symbol{Name: name, Flags: SymbolFlagsProperty}}
	if t != nil {
		m.Type = t
	}
	for _, opt := range opts {
		opt(&m)
	}
	n.members = append(n.members, m)
	return n
}

// SetDisplay overrides the node's display name.
func (n *Node) SetDisplay(s string) *Node {
	n.display = s
	return n
}
