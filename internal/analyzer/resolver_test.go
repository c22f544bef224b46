package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tsgonest/tsschema/internal/diagnostic"
	"github.com/tsgonest/tsschema/internal/schema"
	"github.com/tsgonest/tsschema/internal/typegraph"
)

func alias(name string, t typegraph.Type) typegraph.Declaration {
	return typegraph.Declaration{Name: name, Kind: typegraph.DeclarationTypeAlias, File: "types.json", Type: t}
}

func iface(a *typegraph.Arena, name string) *typegraph.Node {
	return a.Object(typegraph.ObjectFlagsInterface, &typegraph.Symbol{Name: name, Flags: typegraph.SymbolFlagsInterface})
}

func mustResolve(t *testing.T, opts Options, decl typegraph.Declaration) *Result {
	t.Helper()
	res, err := NewResolver(opts).Resolve(context.Background(), decl)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", decl.Name, err)
	}
	return res
}

func jsonOf(t *testing.T, f *schema.Fragment) string {
	t.Helper()
	data, err := schema.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(data)
}

// compileResult builds a validator for a resolved declaration.
func compileResult(t *testing.T, res *Result) *jsonschema.Schema {
	t.Helper()
	data, err := schema.MarshalDocument(&schema.Document{
		Schema:      schema.Draft07,
		Title:       res.Declaration.Name,
		Root:        res.Schema,
		Definitions: res.Definitions,
	})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		t.Fatal(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("file:///"+res.Declaration.Name+".json", doc); err != nil {
		t.Fatal(err)
	}
	sch, err := c.Compile("file:///" + res.Declaration.Name + ".json")
	if err != nil {
		t.Fatalf("Compile %s: %v", data, err)
	}
	return sch
}

func accepts(t *testing.T, sch *jsonschema.Schema, instance string) bool {
	t.Helper()
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(instance))
	if err != nil {
		t.Fatalf("bad instance %s: %v", instance, err)
	}
	return sch.Validate(v) == nil
}

func TestResolve_Interface(t *testing.T) {
	a := typegraph.NewArena()
	user := iface(a, "User")
	user.AddMember("id", a.StringType())
	user.AddMember("age", a.NumberType())
	user.AddMember("nick", a.Union(a.StringType(), a.UndefinedType()), typegraph.Optional())
	user.AddMember("role", a.Union(a.StringLiteral("admin"), a.StringLiteral("user")))
	user.AddMember("active", a.BooleanType())
	user.AddMember("tags", a.Array(a.StringType()))
	user.AddMember("pair", a.Tuple(a.StringType(), a.NumberType()))
	user.AddMember("meta", a.Indexable(a.AnyType()))

	res := mustResolve(t, Options{}, typegraph.Declaration{Name: "User", Kind: typegraph.DeclarationInterface, Type: user})
	want := `{"type":"object","additionalProperties":false,"properties":{` +
		`"id":{"type":"string"},` +
		`"age":{"type":"number"},` +
		`"nick":{"type":"string"},` +
		`"role":{"enum":["admin","user"]},` +
		`"active":{"type":"boolean"},` +
		`"tags":{"type":"array","items":{"type":"string"}},` +
		`"pair":{"type":"array","items":[{"type":"string"},{"type":"number"}]},` +
		`"meta":{"type":"object","additionalProperties":false,"patternProperties":{".*":{}},"properties":{}}` +
		`},"required":["id","age","role","active","tags","pair","meta"]}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if len(res.Definitions) != 0 || len(res.Diagnostics) != 0 {
		t.Errorf("unexpected definitions %v or diagnostics %v", res.Definitions, res.Diagnostics)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	a := typegraph.NewArena()
	node := iface(a, "Node")
	node.AddMember("value", a.Union(a.StringType(), a.NullType()))
	node.AddMember("children", a.Array(node))
	decl := alias("Node", node)

	r := NewResolver(Options{})
	first, err := r.Resolve(context.Background(), decl)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(context.Background(), decl)
	if err != nil {
		t.Fatal(err)
	}
	if jsonOf(t, first.Schema) != jsonOf(t, second.Schema) {
		t.Errorf("passes differ:\n%s\n%s", first.Schema, second.Schema)
	}
}

func TestResolve_Unions(t *testing.T) {
	a := typegraph.NewArena()
	tru, fls := a.BooleanLiteral(true), a.BooleanLiteral(false)
	color := a.Enum("Color", typegraph.EnumMember{Name: "Red", Value: "r"}, typegraph.EnumMember{Name: "Green", Value: 2})

	tests := []struct {
		name string
		typ  *typegraph.Node
		want string
	}{
		{"true|false", a.Union(tru, fls), `{"type":"boolean"}`},
		{"false|true", a.Union(fls, tru), `{"type":"boolean"}`},
		{"boolean|undefined", a.Union(tru, a.UndefinedType(), fls), `{"type":"boolean"}`},
		{"string|boolean", a.Union(a.StringType(), tru, fls), `{"anyOf":[{"type":"string"},{"type":"boolean"}]}`},
		{"boolean with literal", a.Union(tru, a.StringLiteral("x"), fls), `{"anyOf":[{"type":"boolean"},{"const":"x"}]}`},
		{"single true", a.Union(tru, a.UndefinedType()), `{"const":true}`},
		{"only undefined", a.Union(a.UndefinedType()), `{"type":"undefined"}`},
		{"string|null", a.Union(a.StringType(), a.NullType()), `{"anyOf":[{"type":"string"},{"type":"null"}]}`},
		{"literals dedup", a.Union(a.StringLiteral("a"), a.NumberLiteral(1), a.StringLiteral("a")), `{"enum":["a",1]}`},
		{"enum with literal", a.Union(color, a.StringLiteral("x")), `{"enum":["r",2,"x"]}`},
		{"void kept", a.Union(a.StringType(), a.Intrinsic(typegraph.TypeFlagsVoid)), `{"anyOf":[{"type":"string"},{"type":"undefined"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustResolve(t, Options{}, alias("U", tt.typ))
			if got := jsonOf(t, res.Schema); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolve_Literals(t *testing.T) {
	a := typegraph.NewArena()
	tests := []struct {
		typ  *typegraph.Node
		want string
	}{
		{a.StringLiteral("on"), `{"const":"on"}`},
		{a.NumberLiteral(0.5), `{"const":0.5}`},
		{a.BooleanLiteral(false), `{"const":false}`},
		{a.BigIntLiteral(typegraph.PseudoBigInt{Negative: true, Base10Value: "12"}), `{"const":-12}`},
	}
	for _, tt := range tests {
		res := mustResolve(t, Options{}, alias("L", tt.typ))
		if got := jsonOf(t, res.Schema); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestResolve_Enum(t *testing.T) {
	a := typegraph.NewArena()
	color := a.Enum("Color",
		typegraph.EnumMember{Name: "Red", Value: "r"},
		typegraph.EnumMember{Name: "Green", Value: "g"},
		typegraph.EnumMember{Name: "Blue", Value: 3},
	)
	res := mustResolve(t, Options{}, typegraph.Declaration{Name: "Color", Kind: typegraph.DeclarationEnum, Type: color})
	if got, want := jsonOf(t, res.Schema), `{"enum":["r","g",3]}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolve_OptionalMembersNotRequired(t *testing.T) {
	a := typegraph.NewArena()
	opts := iface(a, "Opts")
	opts.AddMember("a", a.StringType(), typegraph.Optional())
	opts.AddMember("b", a.Union(a.NumberType(), a.UndefinedType()), typegraph.Optional())

	res := mustResolve(t, Options{}, alias("Opts", opts))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"a":{"type":"string"},"b":{"type":"number"}}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolve_SelfReferenceAtRoot(t *testing.T) {
	a := typegraph.NewArena()
	node := iface(a, "Node")
	node.AddMember("value", a.NumberType())
	node.AddMember("next", node, typegraph.Optional())

	res := mustResolve(t, Options{}, alias("Node", node))
	want := `{"type":"object","additionalProperties":false,"properties":{"value":{"type":"number"},"next":{"$ref":"#"}},"required":["value"]}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if len(res.Definitions) != 0 {
		t.Errorf("root cycles need no definitions, got %v", res.Definitions)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected one cycle diagnostic, got %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Severity != diagnostic.SeverityInfo || d.Category != diagnostic.CategoryCycle || !strings.Contains(d.Message, ".next") {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}

func treeGraph(a *typegraph.Arena) *typegraph.Node {
	treeNode := iface(a, "TreeNode")
	treeNode.AddMember("children", a.Array(treeNode))
	tree := iface(a, "Tree")
	tree.AddMember("root", treeNode)
	return tree
}

func TestResolve_NestedCycleHoistsDefinition(t *testing.T) {
	a := typegraph.NewArena()
	res := mustResolve(t, Options{}, alias("Tree", treeGraph(a)))

	want := `{"type":"object","additionalProperties":false,"properties":{"root":{"$ref":"#/definitions/TreeNode"}},"required":["root"]}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("root: got %s, want %s", got, want)
	}
	if len(res.Definitions) != 1 || res.Definitions[0].Name != "TreeNode" {
		t.Fatalf("unexpected definitions %v", res.Definitions)
	}
	wantDef := `{"type":"object","additionalProperties":false,"properties":{"children":{"type":"array","items":{"$ref":"#/definitions/TreeNode"}}},"required":["children"]}`
	if got := jsonOf(t, res.Definitions[0].Schema); got != wantDef {
		t.Errorf("definition: got %s, want %s", got, wantDef)
	}
}

func TestResolve_BundlePointers(t *testing.T) {
	a := typegraph.NewArena()
	res := mustResolve(t, Options{Bundle: true}, alias("Tree", treeGraph(a)))
	if len(res.Definitions) != 1 || res.Definitions[0].Name != "Tree.TreeNode" {
		t.Fatalf("unexpected definitions %v", res.Definitions)
	}
	if !strings.Contains(jsonOf(t, res.Schema), `"$ref":"#/definitions/Tree.TreeNode"`) {
		t.Errorf("expected bundle-qualified pointer, got %s", res.Schema)
	}

	node := iface(a, "Node")
	node.AddMember("next", node, typegraph.Optional())
	res = mustResolve(t, Options{Bundle: true}, alias("Node", node))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"next":{"$ref":"#/definitions/Node"}}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolveAll_BundleNamesAvoidDeclarations(t *testing.T) {
	a := typegraph.NewArena()
	decls := []typegraph.Declaration{
		alias("Tree", treeGraph(a)),
		alias("Tree.TreeNode", iface(a, "Leaf").AddMember("id", a.StringType())),
	}

	results := NewResolver(Options{Bundle: true}).ResolveAll(context.Background(), decls)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Declaration.Name, r.Err)
		}
	}
	defs := results[0].Definitions
	if len(defs) != 1 || defs[0].Name == "Tree.TreeNode" || !strings.HasPrefix(defs[0].Name, "Tree.TreeNode_") {
		t.Fatalf("hoisted definition should avoid the declaration name, got %v", defs)
	}
	if !strings.Contains(jsonOf(t, results[0].Schema), `"$ref":"#/definitions/`+defs[0].Name+`"`) {
		t.Errorf("pointer does not follow the renamed definition: %s", results[0].Schema)
	}
}

func TestResolve_DefinitionNameCollision(t *testing.T) {
	a := typegraph.NewArena()
	first := iface(a, "Node")
	first.AddMember("next", first, typegraph.Optional())
	second := iface(a, "Node")
	second.AddMember("prev", second, typegraph.Optional())
	root := iface(a, "Pair")
	root.AddMember("a", first)
	root.AddMember("b", second)

	res := mustResolve(t, Options{}, alias("Pair", root))
	if len(res.Definitions) != 2 {
		t.Fatalf("expected two definitions, got %v", res.Definitions)
	}
	if res.Definitions[0].Name != "Node" || !strings.HasPrefix(res.Definitions[1].Name, "Node_") {
		t.Errorf("unexpected definition names %q, %q", res.Definitions[0].Name, res.Definitions[1].Name)
	}
}

func TestResolve_PlaceholderCycles(t *testing.T) {
	a := typegraph.NewArena()
	node := iface(a, "Node")
	node.AddMember("next", node, typegraph.Optional())

	res := mustResolve(t, Options{Cycles: CyclePlaceholder}, alias("Node", node))
	want := `{"type":"object","additionalProperties":false,"properties":{"next":{"description":"Circular reference to Node"}}}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	res = mustResolve(t, Options{Cycles: CyclePlaceholder}, alias("Tree", treeGraph(a)))
	if len(res.Definitions) != 0 {
		t.Errorf("placeholder policy must not hoist definitions, got %v", res.Definitions)
	}
}

func TestResolve_DepthExceeded(t *testing.T) {
	a := typegraph.NewArena()
	nested := a.Array(a.Array(a.Array(a.StringType())))

	_, err := NewResolver(Options{MaxDepth: 2}).Resolve(context.Background(), alias("Deep", nested))
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	var re *ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolveError, got %T", err)
	}
	if re.Declaration != "Deep" || FormatPath(re.Path) != "[][]" {
		t.Errorf("unexpected error location %q %v", re.Declaration, re.Path)
	}

	if _, err := NewResolver(Options{}).Resolve(context.Background(), alias("Deep", nested)); err != nil {
		t.Errorf("default depth should be enough: %v", err)
	}
}

func TestResolve_Functions(t *testing.T) {
	a := typegraph.NewArena()
	svc := a.Object(typegraph.ObjectFlagsClass, &typegraph.Symbol{Name: "Service", Flags: typegraph.SymbolFlagsClass})
	svc.AddMember("name", a.StringType())
	svc.AddMember("run", a.Function("run"), typegraph.WithSymbolFlags(typegraph.SymbolFlagsMethod))
	svc.AddMember("callback", a.Function("callback"))
	svc.AddMember("prototype", svc, typegraph.WithSymbolFlags(typegraph.SymbolFlagsPrototype))

	res := mustResolve(t, Options{}, typegraph.Declaration{Name: "Service", Kind: typegraph.DeclarationClass, Type: svc})
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"name":{"type":"string"}},"required":["name"]}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	_, err := NewResolver(Options{}).Resolve(context.Background(), alias("Handler", a.Function("handler")))
	if !errors.Is(err, ErrFunctionType) {
		t.Errorf("expected ErrFunctionType, got %v", err)
	}
}

func TestResolve_OptionalCallbacksSkipped(t *testing.T) {
	a := typegraph.NewArena()
	button := iface(a, "Button")
	button.AddMember("label", a.StringType())
	button.AddMember("onClick", a.Union(a.Function("onClick"), a.UndefinedType()), typegraph.Optional())
	button.AddMember("render", a.Union(a.Function("render"), a.Function("renderAsync")))

	res := mustResolve(t, Options{}, typegraph.Declaration{Name: "Button", Kind: typegraph.DeclarationInterface, Type: button})
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"label":{"type":"string"}},"required":["label"]}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	// a callback mixed with a value is still a value position
	mixed := iface(a, "Mixed")
	mixed.AddMember("either", a.Union(a.Function("fn"), a.StringType()))
	_, err := NewResolver(Options{}).Resolve(context.Background(), alias("Mixed", mixed))
	if !errors.Is(err, ErrFunctionType) {
		t.Errorf("expected ErrFunctionType, got %v", err)
	}
}

func TestResolve_Accessors(t *testing.T) {
	a := typegraph.NewArena()
	acct := a.Object(typegraph.ObjectFlagsClass, &typegraph.Symbol{Name: "Account", Flags: typegraph.SymbolFlagsClass})
	acct.AddMember("balance", nil, typegraph.Getter(a.NumberType()))
	acct.AddMember("password", a.StringType(), typegraph.WithSymbolFlags(typegraph.SymbolFlagsSetAccessor))

	res := mustResolve(t, Options{}, typegraph.Declaration{Name: "Account", Kind: typegraph.DeclarationClass, Type: acct})
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"balance":{"type":"number"}},"required":["balance"]}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolve_Intersections(t *testing.T) {
	a := typegraph.NewArena()
	named := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("id", a.StringType())
	tagged := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("tag", a.StringType(), typegraph.Optional())

	res := mustResolve(t, Options{}, alias("Both", a.Intersection(named, tagged)))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"id":{"type":"string"},"tag":{"type":"string"}},"required":["id"]}`; got != want {
		t.Errorf("merge: got %s, want %s", got, want)
	}

	res = mustResolve(t, Options{}, alias("Tagged", a.Intersection(a.StringType(), tagged)))
	if got, want := jsonOf(t, res.Schema), `{"type":"string"}`; got != want {
		t.Errorf("optional-only object: got %s, want %s", got, want)
	}

	res = mustResolve(t, Options{}, alias("Mixed", a.Intersection(a.StringType(), named)))
	if got, want := jsonOf(t, res.Schema), `{"allOf":[{"type":"string"},{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}]}`; got != want {
		t.Errorf("allOf: got %s, want %s", got, want)
	}

	res = mustResolve(t, Options{}, alias("One", a.Intersection(named)))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"id":{"type":"string"}},"required":["id"]}`; got != want {
		t.Errorf("single: got %s, want %s", got, want)
	}
}

func TestResolve_BrandedPrimitives(t *testing.T) {
	a := typegraph.NewArena()
	optionalBrand := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("__brand", a.StringLiteral("Email"), typegraph.Optional())
	requiredBrand := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("__id", a.StringLiteral("UserId"))
	typiaTag := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("typia.tag", a.StringLiteral("Format"))
	empty := a.Object(typegraph.ObjectFlagsAnonymous, nil)

	tests := []struct {
		name string
		typ  typegraph.Type
		want string
	}{
		{"optional brand", a.Intersection(a.StringType(), optionalBrand), `{"type":"string"}`},
		{"required brand", a.Intersection(requiredBrand, a.NumberType()), `{"type":"number"}`},
		{"typia tag", a.Intersection(a.StringType(), typiaTag, optionalBrand), `{"type":"string"}`},
		{"empty object", a.Intersection(a.StringType(), empty), `{"type":"string"}`},
		{"literal base", a.Intersection(a.StringLiteral("admin"), optionalBrand), `{"const":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustResolve(t, Options{}, alias("Branded", tt.typ))
			if got := jsonOf(t, res.Schema); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	res := mustResolve(t, Options{}, alias("Email", a.Intersection(a.StringType(), optionalBrand)))
	sch := compileResult(t, res)
	if !accepts(t, sch, `"a@b.c"`) {
		t.Error("branded string rejects a string")
	}
	if accepts(t, sch, `{"__brand":"Email"}`) {
		t.Error("branded string accepts an object")
	}
}

func TestResolve_IntersectionWithHoistedObject(t *testing.T) {
	a := typegraph.NewArena()
	b := iface(a, "B")
	b.AddMember("name", a.StringType())
	b.AddMember("next", b, typegraph.Optional())
	extra := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("x", a.StringType())
	holder := iface(a, "Holder")
	holder.AddMember("b", b)
	holder.AddMember("both", a.Intersection(b, extra))

	res := mustResolve(t, Options{}, alias("Holder", holder))
	both, ok := res.Schema.Property("both")
	if !ok {
		t.Fatalf("missing both in %s", res.Schema)
	}
	if got, want := jsonOf(t, both), `{"type":"object","additionalProperties":false,"properties":{"name":{"type":"string"},"next":{"$ref":"#/definitions/B"},"x":{"type":"string"}},"required":["name","x"]}`; got != want {
		t.Errorf("both: got %s, want %s", got, want)
	}

	sch := compileResult(t, res)
	if !accepts(t, sch, `{"b":{"name":"n"},"both":{"name":"n","x":"s","next":{"name":"m"}}}`) {
		t.Error("valid holder rejected")
	}
	if accepts(t, sch, `{"b":{"name":"n"},"both":{"name":"n"}}`) {
		t.Error("holder missing x accepted")
	}
}

func TestResolve_IntersectionInsideOwnCycle(t *testing.T) {
	a := typegraph.NewArena()
	chain := iface(a, "Chain")
	tag := a.Object(typegraph.ObjectFlagsAnonymous, nil).AddMember("tag", a.StringType())
	chain.AddMember("value", a.StringType())
	chain.AddMember("next", a.Intersection(chain, tag), typegraph.Optional())

	res := mustResolve(t, Options{}, alias("Chain", chain))
	if strings.Contains(jsonOf(t, res.Schema), "allOf") {
		t.Errorf("expected merged objects, got %s", res.Schema)
	}
	sch := compileResult(t, res)
	if !accepts(t, sch, `{"value":"a","next":{"value":"b","tag":"t","next":{"value":"c","tag":"u"}}}`) {
		t.Error("valid chain rejected")
	}
	if accepts(t, sch, `{"value":"a","next":{"value":"b"}}`) {
		t.Error("chain link without tag accepted")
	}
}

func TestResolve_Dates(t *testing.T) {
	a := typegraph.NewArena()
	date := iface(a, "Date")
	date.AddMember("getTime", a.Function("getTime"), typegraph.WithSymbolFlags(typegraph.SymbolFlagsMethod))
	event := iface(a, "Event")
	event.AddMember("at", date)

	res := mustResolve(t, Options{}, alias("Event", event))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"at":{"type":"string","format":"date-time"}},"required":["at"]}`; got != want {
		t.Errorf("date-time: got %s, want %s", got, want)
	}

	res = mustResolve(t, Options{Dates: DateObject}, alias("Event", event))
	if got, want := jsonOf(t, res.Schema), `{"type":"object","additionalProperties":false,"properties":{"at":{"type":"object","additionalProperties":false,"properties":{}}},"required":["at"]}`; got != want {
		t.Errorf("object: got %s, want %s", got, want)
	}
}

func TestResolve_GenericAndNever(t *testing.T) {
	a := typegraph.NewArena()
	box := iface(a, "Box")
	box.AddMember("value", a.TypeParameter("T"))
	box.AddMember("nothing", a.NeverType(), typegraph.Optional())

	res := mustResolve(t, Options{}, alias("Box", box))
	want := `{"type":"object","additionalProperties":false,"properties":{"value":{"description":"Generic type parameter T"},"nothing":{"description":"This is a never type","allOf":[{"type":"string"},{"type":"number"}]}},"required":["value"]}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolve_IndexSignatureWithMembers(t *testing.T) {
	doc := `
types:
  - id: 1
    flags: [object]
    objectFlags: [anonymous]
    members:
      - {name: id, type: 2}
    stringIndexType: 3
  - {id: 2, flags: [string], intrinsicName: string}
  - {id: 3, flags: [number], intrinsicName: number}
declarations:
  - {name: Bag, kind: typeAlias, type: 1}
`
	g, err := typegraph.Decode([]byte(doc), ".yaml")
	if err != nil {
		t.Fatal(err)
	}
	res := mustResolve(t, Options{}, g.Declarations[0])
	want := `{"type":"object","additionalProperties":false,"patternProperties":{".*":{"type":"number"}},"properties":{"id":{"type":"string"}},"required":["id"]}`
	if got := jsonOf(t, res.Schema); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestResolve_Errors(t *testing.T) {
	a := typegraph.NewArena()
	withBig := iface(a, "Ledger")
	withBig.AddMember("total", a.Intrinsic(typegraph.TypeFlagsBigInt))

	withSymbol := iface(a, "Keyed")
	withSymbol.AddMember("key", a.Array(a.Intrinsic(typegraph.TypeFlagsESSymbol)))

	tests := []struct {
		name     string
		decl     typegraph.Declaration
		wantErr  error
		wantPath string
	}{
		{"bigint primitive", alias("Ledger", withBig), schema.ErrUnsupportedPrimitive, ".total"},
		{"unclassified", alias("Keyed", withSymbol), ErrUnclassified, ".key[]"},
		{"function declaration", typegraph.Declaration{Name: "main", Kind: typegraph.DeclarationFunction, Type: a.Function("main")}, ErrNotTranspilable, ""},
		{"missing type", alias("Empty", nil), ErrUnclassified, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(Options{}).Resolve(context.Background(), tt.decl)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var re *ResolveError
			if !errors.As(err, &re) {
				t.Fatalf("expected ResolveError, got %T", err)
			}
			if got := FormatPath(re.Path); got != tt.wantPath {
				t.Errorf("path = %q, want %q", got, tt.wantPath)
			}
			if !strings.HasPrefix(err.Error(), tt.decl.Name) {
				t.Errorf("error should name the declaration: %v", err)
			}
			var ce *ClassificationError
			if errors.As(err, &ce) {
				if ce.Declaration != tt.decl.Name || FormatPath(ce.Path) != tt.wantPath {
					t.Errorf("classification error located at %s%s, want %s%s",
						ce.Declaration, FormatPath(ce.Path), tt.decl.Name, tt.wantPath)
				}
			}
		})
	}
}

func TestResolveAll_IsolatesFailures(t *testing.T) {
	a := typegraph.NewArena()
	good := iface(a, "Good")
	good.AddMember("id", a.StringType())
	bad := iface(a, "Bad")
	bad.AddMember("big", a.Intrinsic(typegraph.TypeFlagsBigInt))

	decls := []typegraph.Declaration{alias("A", good), alias("B", bad), alias("C", a.NumberType())}
	results := NewResolver(Options{Parallelism: 2}).ResolveAll(context.Background(), decls)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, name := range []string{"A", "B", "C"} {
		if results[i].Declaration.Name != name {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Declaration.Name, name)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("siblings of a failure must succeed: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, schema.ErrUnsupportedPrimitive) || results[1].Schema != nil {
		t.Errorf("unexpected result for B: %+v", results[1])
	}
}

func TestResolve_CanceledContext(t *testing.T) {
	a := typegraph.NewArena()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewResolver(Options{}).Resolve(ctx, alias("S", a.StringType()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResolver_Defaults(t *testing.T) {
	opts := NewResolver(Options{}).Options()
	if opts.MaxDepth != DefaultMaxDepth || opts.Cycles != CycleRef || opts.Dates != DateString {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"address", "[]", "street"}, ".address[].street"},
		{[]string{"pair", "[1]"}, ".pair[1]"},
		{[]string{"meta", "[string]"}, ".meta[string]"},
	}
	for _, tt := range tests {
		if got := FormatPath(tt.path); got != tt.want {
			t.Errorf("FormatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
