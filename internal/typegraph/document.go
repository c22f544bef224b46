package typegraph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"sigs.k8s.io/yaml"
)

// Document is the serialized form of a type graph as dumped by a checker.
type Document struct {
	Types        []TypeRecord        `json:"types"`
	Declarations []DeclarationRecord `json:"declarations"`
}

// TypeRecord is one node of a graph document. References to other nodes are
// by id.
type TypeRecord struct {
	ID              TypeID         `json:"id"`
	Flags           []string       `json:"flags"`
	ObjectFlags     []string       `json:"objectFlags,omitempty"`
	Symbol          *SymbolRecord  `json:"symbol,omitempty"`
	Types           []TypeID       `json:"types,omitempty"`
	Target          TypeID         `json:"target,omitempty"`
	TypeArguments   []TypeID       `json:"typeArguments,omitempty"`
	Members         []MemberRecord `json:"members,omitempty"`
	StringIndexType TypeID         `json:"stringIndexType,omitempty"`
	Value           any            `json:"value,omitempty"`
	BigInt          *PseudoBigInt  `json:"bigint,omitempty"`
	IntrinsicName   string         `json:"intrinsicName,omitempty"`
	Display         string         `json:"display,omitempty"`
}

// SymbolRecord is the serialized form of a Symbol.
type SymbolRecord struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags,omitempty"`
}

// MemberRecord is the serialized form of a Member.
type MemberRecord struct {
	Name        string   `json:"name"`
	Type        TypeID   `json:"type"`
	Optional    bool     `json:"optional,omitempty"`
	SymbolFlags []string `json:"symbolFlags,omitempty"`
	GetterType  TypeID   `json:"getterType,omitempty"`
}

// DeclarationRecord is the serialized form of a Declaration.
type DeclarationRecord struct {
	Name string          `json:"name"`
	Kind DeclarationKind `json:"kind"`
	File string          `json:"file,omitempty"`
	Type TypeID          `json:"type"`
}

// Graph is a loaded graph document.
type Graph struct {
	Source       string
	Arena        *Arena
	Declarations []Declaration
}

// LoadFile reads a graph document from disk. The format is picked from the
// file extension: .yaml and .yml are YAML, anything else is JSON.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document %q: %w", path, err)
	}
	g, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load graph document %q: %w", path, err)
	}
	g.Source = path
	return g, nil
}

// Decode parses a graph document. ext selects YAML for ".yaml"/".yml".
func Decode(data []byte, ext string) (*Graph, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		data = converted
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return doc.Build()
}

// Build links the records of a document into an arena.
func (doc *Document) Build() (*Graph, error) {
	a := NewArena()

	for i := range doc.Types {
		rec := &doc.Types[i]
		if rec.ID == 0 {
			return nil, fmt.Errorf("types[%d]: id must be a positive integer", i)
		}
		if _, dup := a.nodes[rec.ID]; dup {
			return nil, fmt.Errorf("types[%d]: duplicate id %d", i, rec.ID)
		}
		flags, err := ParseTypeFlags(rec.Flags)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", rec.ID, err)
		}
		objectFlags, err := ParseObjectFlags(rec.ObjectFlags)
		if err != nil {
			return nil, fmt.Errorf("type %d: %w", rec.ID, err)
		}
		n := &Node{
			id:          rec.ID,
			flags:       flags,
			objectFlags: objectFlags,
			intrinsic:   rec.IntrinsicName,
			display:     rec.Display,
		}
		if rec.Symbol != nil {
			symFlags, err := ParseSymbolFlags(rec.Symbol.Flags)
			if err != nil {
				return nil, fmt.Errorf("type %d: %w", rec.ID, err)
			}
			n.symbol = &Symbol{Name: rec.Symbol.Name, Flags: symFlags}
		}
		if err := n.setValue(rec); err != nil {
			return nil, fmt.Errorf("type %d: %w", rec.ID, err)
		}
		a.add(n)
	}

	ref := func(owner TypeID, field string, id TypeID) (*Node, error) {
		if id == 0 {
			return nil, nil
		}
		n, ok := a.nodes[id]
		if !ok {
			return nil, fmt.Errorf("type %d: %s refers to unknown type %d", owner, field, id)
		}
		return n, nil
	}
	refs := func(owner TypeID, field string, ids []TypeID) ([]*Node, error) {
		if len(ids) == 0 {
			return nil, nil
		}
		out := make([]*Node, len(ids))
		for i, id := range ids {
			n, err := ref(owner, field, id)
			if err != nil {
				return nil, err
			}
			if n == nil {
				return nil, fmt.Errorf("type %d: %s[%d] is empty", owner, field, i)
			}
			out[i] = n
		}
		return out, nil
	}

	var err error
	for i := range doc.Types {
		rec := &doc.Types[i]
		n := a.nodes[rec.ID]
		if n.types, err = refs(rec.ID, "types", rec.Types); err != nil {
			return nil, err
		}
		if n.typeArgs, err = refs(rec.ID, "typeArguments", rec.TypeArguments); err != nil {
			return nil, err
		}
		if n.target, err = ref(rec.ID, "target", rec.Target); err != nil {
			return nil, err
		}
		if n.stringIndex, err = ref(rec.ID, "stringIndexType", rec.StringIndexType); err != nil {
			return nil, err
		}
		for j, mr := range rec.Members {
			m, err := buildMember(rec.ID, mr, ref)
			if err != nil {
				return nil, fmt.Errorf("%w (members[%d])", err, j)
			}
			n.members = append(n.members, m)
		}
	}

	g := &Graph{Arena: a}
	for i, dr := range doc.Declarations {
		if dr.Name == "" {
			return nil, fmt.Errorf("declarations[%d]: name is required", i)
		}
		if !dr.Kind.valid() {
			return nil, fmt.Errorf("declaration %s: unknown kind %q", dr.Name, dr.Kind)
		}
		n, ok := a.nodes[dr.Type]
		if !ok {
			return nil, fmt.Errorf("declaration %s: refers to unknown type %d", dr.Name, dr.Type)
		}
		g.Declarations = append(g.Declarations, Declaration{
			Name: dr.Name,
			Kind: dr.Kind,
			File: dr.File,
			Type: n,
		})
	}
	return g, nil
}

func buildMember(owner TypeID, mr MemberRecord, ref func(TypeID, string, TypeID) (*Node, error)) (Member, error) {
	if mr.Name == "" {
		return Member{}, fmt.Errorf("type %d: member name is required", owner)
	}
	symFlags, err := ParseSymbolFlags(mr.SymbolFlags)
	if err != nil {
		return Member{}, fmt.Errorf("type %d: member %s: %w", owner, mr.Name, err)
	}
	if symFlags == 0 {
		symFlags = SymbolFlagsProperty
	}
	m := Member{
		Name:     mr.Name,
		Optional: mr.Optional,
		Symbol:   &Symbol{Name: mr.Name, Flags: symFlags},
	}
	t, err := ref(owner, "member "+mr.Name, mr.Type)
	if err != nil {
		return Member{}, err
	}
	if t != nil {
		m.Type = t
	}
	getter, err := ref(owner, "member "+mr.Name+" getterType", mr.GetterType)
	if err != nil {
		return Member{}, err
	}
	if getter != nil {
		m.GetterType = getter
	}
	if m.Type == nil && m.GetterType == nil {
		return Member{}, fmt.Errorf("type %d: member %s has no type", owner, mr.Name)
	}
	return m, nil
}

func (n *Node) setValue(rec *TypeRecord) error {
	if rec.BigInt != nil {
		if rec.BigInt.Base10Value == "" || strings.TrimLeft(rec.BigInt.Base10Value, "0123456789") != "" {
			return fmt.Errorf("bigint literal has invalid digits %q", rec.BigInt.Base10Value)
		}
		n.value = *rec.BigInt
		return nil
	}
	switch v := rec.Value.(type) {
	case nil:
	case string, float64:
		n.value = v
	case bool:
		// boolean literals are identified by intrinsic name only
		if n.intrinsic == "" {
			n.intrinsic = fmt.Sprint(v)
		}
	default:
		return fmt.Errorf("unsupported literal value %v (%T)", v, v)
	}
	return nil
}
