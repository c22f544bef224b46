package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"github.com/tsgonest/tsschema/internal/diagnostic"
	"github.com/tsgonest/tsschema/internal/schema"
	"github.com/tsgonest/tsschema/internal/typegraph"
)

// DefaultMaxDepth bounds how deeply nested a declaration's type may be.
const DefaultMaxDepth = 64

// ErrFunctionType is returned when a callable type sits where a value is
// expected (a declaration root, a union member, an array element...).
// Function-valued object members are skipped instead.
var ErrFunctionType = errors.New("function types have no JSON Schema representation")

// CyclePolicy selects what a cycle in the type graph turns into.
type CyclePolicy string

const (
	// CycleRef emits $ref pointers and hoists the repeated type into the
	// document's definitions.
	CycleRef CyclePolicy = "ref"
	// CyclePlaceholder emits a description-only schema at the point where the
	// cycle closes.
	CyclePlaceholder CyclePolicy = "placeholder"
)

// DatePolicy selects how Date-named object types are rendered.
type DatePolicy string

const (
	DateString DatePolicy = "date-time"
	DateObject DatePolicy = "object"
)

// Options configures a Resolver.
type Options struct {
	MaxDepth int
	Cycles   CyclePolicy
	Dates    DatePolicy
	// Bundle makes pointers relative to a bundle document in which every
	// declaration lives under definitions.
	Bundle bool
	// Parallelism caps concurrent passes in ResolveAll. Zero means no limit.
	Parallelism int
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Cycles == "" {
		o.Cycles = CycleRef
	}
	if o.Dates == "" {
		o.Dates = DateString
	}
	return o
}

// Resolver turns declarations into schema fragments. A Resolver holds no
// per-pass state and may be shared between goroutines.
type Resolver struct {
	opts Options
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (r *Resolver) Options() Options {
	return r.opts
}

// Result is the outcome of one declaration's pass. Exactly one of Schema and
// Err is set.
type Result struct {
	Declaration typegraph.Declaration
	Schema      *schema.Fragment
	Definitions []schema.Definition
	Diagnostics []diagnostic.Diagnostic
	Err         error
}

// ResolveAll resolves each declaration in its own pass. Passes run
// concurrently up to Options.Parallelism; a failing declaration does not stop
// its siblings. Results keep the order of decls.
func (r *Resolver) ResolveAll(ctx context.Context, decls []typegraph.Declaration) []Result {
	results := make([]Result, len(decls))
	var reserved map[string]bool
	if r.opts.Bundle {
		reserved = make(map[string]bool, len(decls))
		for _, d := range decls {
			reserved[d.Name] = true
		}
	}

	var g errgroup.Group
	if r.opts.Parallelism > 0 {
		g.SetLimit(r.opts.Parallelism)
	}
	for i, decl := range decls {
		g.Go(func() error {
			res, err := r.resolve(ctx, decl, reserved)
			if err != nil {
				results[i] = Result{Declaration: decl, Err: err}
				return nil
			}
			results[i] = *res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Resolve runs one pass over decl with a fresh memo table.
func (r *Resolver) Resolve(ctx context.Context, decl typegraph.Declaration) (*Result, error) {
	return r.resolve(ctx, decl, nil)
}

// resolve runs a pass. In bundle mode reserved holds the declaration names
// that share the bundle's definitions, which hoisted names must avoid.
func (r *Resolver) resolve(ctx context.Context, decl typegraph.Declaration, reserved map[string]bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResolveError{Declaration: decl.Name, Err: err}
	}
	if !IsTranspilable(decl) {
		return nil, &ResolveError{Declaration: decl.Name, Err: fmt.Errorf("%w: %s", ErrNotTranspilable, decl.Kind)}
	}
	if decl.Type == nil {
		return nil, &ResolveError{Declaration: decl.Name, Err: &ClassificationError{Declaration: decl.Name, Type: "<nil>"}}
	}

	logger := slogcontext.FromCtx(ctx).With(slog.String("declaration", decl.Name))
	p := &pass{
		opts:     r.opts,
		ctx:      ctx,
		logger:   logger,
		decl:     decl,
		root:     decl.Type.ID(),
		memo:       make(map[typegraph.TypeID]*entry),
		defNames:   make(map[string]typegraph.TypeID),
		refTargets: make(map[string]typegraph.Type),
		reserved:   reserved,
	}

	root, err := p.resolve(decl.Type)
	if err != nil {
		var re *ResolveError
		if errors.As(err, &re) {
			return nil, err
		}
		var ce *ClassificationError
		if errors.As(err, &ce) && ce.Declaration == "" {
			ce.Declaration = decl.Name
			ce.Path = p.failedPath
		}
		return nil, &ResolveError{Declaration: decl.Name, Path: p.failedPath, Err: err}
	}

	res := &Result{
		Declaration: decl,
		Schema:      root,
		Diagnostics: p.diags,
	}
	for _, id := range p.defOrder {
		e := p.memo[id]
		res.Definitions = append(res.Definitions, schema.Definition{Name: e.defName, Schema: e.body})
	}
	logger.DebugContext(ctx, "resolved declaration",
		slog.Int("types", len(p.memo)),
		slog.Int("definitions", len(res.Definitions)),
	)
	return res, nil
}

type visitState int

const (
	stateResolving visitState = iota + 1
	stateResolved
)

type entry struct {
	state visitState
	// body is the resolved schema of the node itself.
	body *schema.Fragment
	// referenced is set once a cycle closed on this node under CycleRef.
	referenced bool
	defName    string
}

// pass is the per-declaration state: memo table, member path and depth.
type pass struct {
	opts   Options
	ctx    context.Context
	logger *slog.Logger
	decl   typegraph.Declaration
	root   typegraph.TypeID

	memo     map[typegraph.TypeID]*entry
	defNames map[string]typegraph.TypeID
	defOrder []typegraph.TypeID
	// refTargets maps every pointer this pass emitted to its node.
	refTargets map[string]typegraph.Type
	reserved   map[string]bool

	path       []string
	failedPath []string
	depth      int
	diags      []diagnostic.Diagnostic
}

func (p *pass) resolve(t typegraph.Type) (*schema.Fragment, error) {
	id := t.ID()
	if e, ok := p.memo[id]; ok {
		switch e.state {
		case stateResolved:
			return p.use(id, e), nil
		case stateResolving:
			return p.breakCycle(t, e), nil
		}
	}

	if p.depth >= p.opts.MaxDepth {
		return nil, p.fail(fmt.Errorf("%w (%d) at type %s", ErrDepthExceeded, p.opts.MaxDepth, t.String()))
	}
	if err := p.ctx.Err(); err != nil {
		return nil, p.fail(err)
	}
	p.depth++
	defer func() { p.depth-- }()

	e := &entry{state: stateResolving}
	p.memo[id] = e
	body, err := p.dispatch(t)
	if err != nil {
		return nil, p.fail(err)
	}
	e.body = body
	e.state = stateResolved
	return p.use(id, e), nil
}

// use returns what a parent embeds for a resolved node: the body itself, or
// a pointer when the node was hoisted into definitions.
func (p *pass) use(id typegraph.TypeID, e *entry) *schema.Fragment {
	if e.referenced && id != p.root {
		return schema.Ref(schema.DefinitionPointer(e.defName))
	}
	return e.body
}

// fail records the path of the innermost failure.
func (p *pass) fail(err error) error {
	if p.failedPath == nil {
		p.failedPath = append([]string{}, p.path...)
	}
	return err
}

func (p *pass) breakCycle(t typegraph.Type, e *entry) *schema.Fragment {
	name := t.String()
	p.diags = append(p.diags, diagnostic.Diagnostic{
		Severity: diagnostic.SeverityInfo,
		Category: diagnostic.CategoryCycle,
		File:     p.decl.File,
		Message:  fmt.Sprintf("%s: type %s refers to itself at %s", p.decl.Name, name, p.pathString()),
	})
	p.logger.InfoContext(p.ctx, "breaking type cycle",
		slog.String("type", name),
		slog.String("path", p.pathString()),
		slog.String("policy", string(p.opts.Cycles)),
	)

	if p.opts.Cycles == CyclePlaceholder {
		return schema.Placeholder(name)
	}
	if t.ID() == p.root {
		ptr := p.rootPointer()
		p.refTargets[ptr] = t
		return schema.Ref(ptr)
	}
	if !e.referenced {
		e.referenced = true
		e.defName = p.definitionName(t)
		p.defOrder = append(p.defOrder, t.ID())
		p.refTargets[schema.DefinitionPointer(e.defName)] = t
	}
	return schema.Ref(schema.DefinitionPointer(e.defName))
}

func (p *pass) rootPointer() string {
	if p.opts.Bundle {
		return schema.DefinitionPointer(p.decl.Name)
	}
	return "#"
}

func (p *pass) definitionName(t typegraph.Type) string {
	name := ""
	if sym := t.Symbol(); sym != nil && !strings.HasPrefix(sym.Name, "__") {
		name = sym.Name
	}
	if name == "" || (IsReference(t) && len(t.TypeArguments()) > 0) {
		name = t.String()
	}
	name = sanitizeName(name)
	if name == "" {
		name = fmt.Sprintf("Type%d", t.ID())
	}
	if p.opts.Bundle {
		name = p.decl.Name + "." + name
	}
	if owner, taken := p.defNames[name]; (taken && owner != t.ID()) || p.reserved[name] {
		name = fmt.Sprintf("%s_%d", name, t.ID())
	}
	p.defNames[name] = t.ID()
	return name
}

func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-', r == '.', r == '$':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return strings.Trim(sb.String(), "_")
}

func (p *pass) pathString() string {
	if len(p.path) == 0 {
		return "the root"
	}
	return FormatPath(p.path)
}

func (p *pass) child(seg string, t typegraph.Type) (*schema.Fragment, error) {
	p.path = append(p.path, seg)
	defer func() { p.path = p.path[:len(p.path)-1] }()
	return p.resolve(t)
}

func (p *pass) dispatch(t typegraph.Type) (*schema.Fragment, error) {
	kind, err := Classify(t)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindEnum:
		return p.resolveEnum(t)
	case KindUnion:
		return p.resolveUnion(t)
	case KindIntersection:
		return p.resolveIntersection(t)
	case KindLiteral:
		return literalFragment(t)
	case KindPrimitive:
		prim, _ := PrimitiveKindOf(t)
		return schema.Primitive(prim)
	case KindGeneric:
		name := ""
		if sym := t.Symbol(); sym != nil {
			name = sym.Name
		}
		return schema.Generic(name), nil
	case KindArray:
		args := t.TypeArguments()
		if len(args) == 0 {
			return schema.Array(schema.Any()), nil
		}
		item, err := p.child("[]", args[0])
		if err != nil {
			return nil, err
		}
		return schema.Array(item), nil
	case KindTuple:
		elems := t.TypeArguments()
		items := make([]*schema.Fragment, 0, len(elems))
		for i, elem := range elems {
			f, err := p.child(fmt.Sprintf("[%d]", i), elem)
			if err != nil {
				return nil, err
			}
			items = append(items, f)
		}
		return schema.Tuple(items), nil
	case KindDate:
		if p.opts.Dates == DateObject {
			return p.resolveObject(t)
		}
		return schema.Date(string(DateString)), nil
	case KindFunction:
		return nil, fmt.Errorf("%w: %s", ErrFunctionType, t.String())
	case KindIndexable:
		value, err := p.child("[string]", t.StringIndexType())
		if err != nil {
			return nil, err
		}
		return schema.IndexableObject(value), nil
	case KindObject:
		return p.resolveObject(t)
	default:
		return nil, &ClassificationError{Type: t.String(), Flags: t.Flags()}
	}
}

func literalFragment(t typegraph.Type) (*schema.Fragment, error) {
	if IsBooleanLiteral(t) {
		return schema.Literal(t.IntrinsicName() == "true")
	}
	switch v := t.Value().(type) {
	case typegraph.PseudoBigInt:
		return schema.Literal(schema.BigInt{Negative: v.Negative, Digits: v.Base10Value})
	case string, float64:
		return schema.Literal(v)
	case nil:
		return nil, &ClassificationError{Type: t.String(), Flags: t.Flags()}
	default:
		return nil, fmt.Errorf("literal %s: %w", t.String(), schema.ErrUnsupportedLiteral)
	}
}

func (p *pass) resolveEnum(t typegraph.Type) (*schema.Fragment, error) {
	constituents := t.Types()
	members := make([]schema.EnumMember, 0, len(constituents))
	for _, c := range constituents {
		if !IsLiteral(c) {
			return nil, &ClassificationError{Type: c.String(), Flags: c.Flags()}
		}
		value, err := literalFragment(c)
		if err != nil {
			return nil, err
		}
		name := ""
		if sym := c.Symbol(); sym != nil {
			name = sym.Name
		}
		members = append(members, schema.EnumMember{Name: name, Value: value})
	}
	return schema.Enum(members)
}

// resolveUnion drops undefined constituents (optionality lives on members),
// collapses true|false to boolean, folds all-literal unions into one enum and
// falls back to anyOf.
func (p *pass) resolveUnion(t typegraph.Type) (*schema.Fragment, error) {
	var defined []typegraph.Type
	for _, c := range t.Types() {
		if IsDefined(c) {
			defined = append(defined, c)
		}
	}

	switch len(defined) {
	case 0:
		return schema.Primitive(schema.PrimitiveUndefined)
	case 1:
		return p.resolve(defined[0])
	case 2:
		if IsBooleanUnion(defined[0], defined[1]) {
			return schema.Primitive(schema.PrimitiveBoolean)
		}
	}

	hasTrue, hasFalse := false, false
	for _, c := range defined {
		if IsBooleanLiteral(c) {
			if c.IntrinsicName() == "true" {
				hasTrue = true
			} else {
				hasFalse = true
			}
		}
	}

	var frags []*schema.Fragment
	boolAdded := false
	for _, c := range defined {
		if hasTrue && hasFalse && IsBooleanLiteral(c) {
			if !boolAdded {
				b, err := schema.Primitive(schema.PrimitiveBoolean)
				if err != nil {
					return nil, err
				}
				frags = append(frags, b)
				boolAdded = true
			}
			continue
		}
		f, err := p.resolve(c)
		if err != nil {
			return nil, err
		}
		frags = append(frags, f)
	}

	if len(frags) == 1 {
		return frags[0], nil
	}
	if values, ok := enumValues(frags); ok {
		members := make([]schema.EnumMember, len(values))
		for i, v := range values {
			members[i] = schema.EnumMember{Value: schema.LiteralOf(v)}
		}
		return schema.Enum(members)
	}
	return schema.AnyOf(frags), nil
}

// enumValues flattens literal and pure-enum fragments into one deduplicated
// value list. ok is false if any fragment is something else.
func enumValues(frags []*schema.Fragment) ([]schema.LiteralValue, bool) {
	var values []schema.LiteralValue
	seen := make(map[schema.LiteralValue]bool)
	add := func(v schema.LiteralValue) {
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	for _, f := range frags {
		if v, ok := f.Literal(); ok {
			add(v)
			continue
		}
		if !f.IsPureEnum() {
			return nil, false
		}
		for _, v := range f.Enum {
			add(v)
		}
	}
	return values, true
}

func (p *pass) resolveIntersection(t typegraph.Type) (*schema.Fragment, error) {
	constituents := t.Types()
	if len(constituents) == 1 {
		return p.resolve(constituents[0])
	}
	if base, ok := BrandedBase(t); ok {
		return p.resolve(base)
	}
	frags := make([]*schema.Fragment, 0, len(constituents))
	bodies := make([]*schema.Fragment, 0, len(constituents))
	for _, c := range constituents {
		f, err := p.resolve(c)
		if err != nil {
			return nil, err
		}
		body, err := p.objectBody(f)
		if err != nil {
			return nil, err
		}
		frags = append(frags, f)
		bodies = append(bodies, body)
	}
	// closed objects under allOf would reject each other's properties
	if merged, ok := schema.MergeObjects(bodies); ok {
		return merged, nil
	}
	for i, f := range frags {
		frags[i] = schema.Open(f)
	}
	return schema.AllOf(frags), nil
}

// objectBody returns the schema behind a pointer emitted by this pass, so
// hoisted object types can still be merged. A node that is still being
// resolved higher up is rebuilt inline; references to it inside stay
// pointers.
func (p *pass) objectBody(f *schema.Fragment) (*schema.Fragment, error) {
	t, ok := p.refTargets[f.Ref]
	if f.Ref == "" || !ok {
		return f, nil
	}
	if e := p.memo[t.ID()]; e != nil && e.body != nil {
		return e.body, nil
	}
	if kind, err := Classify(t); err == nil && kind == KindObject {
		return p.resolveObject(t)
	}
	return f, nil
}

func (p *pass) resolveObject(t typegraph.Type) (*schema.Fragment, error) {
	members := t.Members()
	props := make([]schema.ObjectProperty, 0, len(members))
	for _, m := range members {
		if IsPrototypeMember(m) || IsMethodMember(m) {
			continue
		}
		mt := m.Type
		if IsGetAccessor(m) && m.GetterType != nil {
			mt = m.GetterType
		} else if m.Symbol != nil && m.Symbol.Flags&typegraph.SymbolFlagsSetAccessor != 0 && !IsGetAccessor(m) {
			// write-only accessors never show up in serialized values
			continue
		}
		if mt == nil {
			return nil, fmt.Errorf("member %s has no type", m.Name)
		}
		if IsFunctionValued(mt) {
			continue
		}
		f, err := p.child(m.Name, mt)
		if err != nil {
			return nil, err
		}
		props = append(props, schema.ObjectProperty{Name: m.Name, Optional: IsOptional(m), Schema: f})
	}

	obj := schema.Object(props)
	if index := t.StringIndexType(); index != nil {
		value, err := p.child("[string]", index)
		if err != nil {
			return nil, err
		}
		obj = schema.WithPatternProperties(obj, value)
	}
	return obj, nil
}
