// Package emit assembles resolved declarations into schema documents and
// writes them to disk.
package emit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tsgonest/tsschema/internal/analyzer"
	"github.com/tsgonest/tsschema/internal/diagnostic"
	"github.com/tsgonest/tsschema/internal/schema"
)

// FileSuffix is appended to a declaration name to form its schema file name.
const FileSuffix = ".schema.json"

// Options controls where documents go.
type Options struct {
	Dir string
	// Bundle, when set, writes one document named Bundle under Dir holding
	// every declaration under definitions instead of one file each.
	Bundle string
	// Check compiles each document with a draft-07 compiler before writing
	// and reports failures as schema-invalid warnings.
	Check bool
}

// Emitter writes schema documents for resolver results.
type Emitter struct {
	opts  Options
	diags *diagnostic.Collector
}

// New creates an Emitter reporting to diags, which may be nil.
func New(opts Options, diags *diagnostic.Collector) *Emitter {
	return &Emitter{opts: opts, diags: diags}
}

// DocumentFor wraps one declaration's schema and its hoisted definitions.
func DocumentFor(res analyzer.Result) *schema.Document {
	return &schema.Document{
		Schema:      schema.Draft07,
		Title:       res.Declaration.Name,
		Root:        res.Schema,
		Definitions: res.Definitions,
	}
}

// BundleDocument puts every successful declaration under definitions, next
// to the definitions its pass hoisted. Results must come from a resolver
// running with Options.Bundle so their pointers target this layout. A name
// that is already taken keeps its first definition and is returned in
// duplicates.
func BundleDocument(title string, results []analyzer.Result) (doc *schema.Document, duplicates []string) {
	doc = &schema.Document{Schema: schema.Draft07, Title: title}
	seen := make(map[string]bool)
	add := func(def schema.Definition) {
		if seen[def.Name] {
			duplicates = append(duplicates, def.Name)
			return
		}
		seen[def.Name] = true
		doc.Definitions = append(doc.Definitions, def)
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		add(schema.Definition{Name: res.Declaration.Name, Schema: res.Schema})
		for _, def := range res.Definitions {
			add(def)
		}
	}
	return doc, duplicates
}

// FileName maps a declaration name to a file name. Characters that are
// awkward in paths become '_'.
func FileName(declName string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, declName)
	return name + FileSuffix
}

// Emit writes documents for every successful result and returns the written
// paths. Failed results are skipped; the caller reports them.
func (e *Emitter) Emit(ctx context.Context, results []analyzer.Result) ([]string, error) {
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", e.opts.Dir, err)
	}

	if e.opts.Bundle != "" {
		path := filepath.Join(e.opts.Dir, e.opts.Bundle)
		title := strings.TrimSuffix(filepath.Base(e.opts.Bundle), filepath.Ext(e.opts.Bundle))
		doc, duplicates := BundleDocument(title, results)
		for _, name := range duplicates {
			e.diags.Error(diagnostic.CategoryGraphInvalid, path, 0,
				fmt.Sprintf("definition %s is declared more than once in the bundle; only the first is kept", name))
		}
		if err := e.writeDocument(ctx, path, doc); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	var written []string
	owners := make(map[string]string)
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name := FileName(res.Declaration.Name)
		if prev, taken := owners[name]; taken {
			e.diags.Error(diagnostic.CategoryGraphInvalid, res.Declaration.File, 0,
				fmt.Sprintf("declaration %s would overwrite %s (already written for %s)", res.Declaration.Name, name, prev))
			continue
		}
		owners[name] = res.Declaration.String()

		path := filepath.Join(e.opts.Dir, name)
		if err := e.writeDocument(ctx, path, DocumentFor(res)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (e *Emitter) writeDocument(ctx context.Context, path string, doc *schema.Document) error {
	data, err := schema.MarshalDocument(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", doc.Title, err)
	}
	data = append(data, '\n')

	if e.opts.Check {
		if err := Check(path, data); err != nil {
			e.diags.WarnWithHint(diagnostic.CategorySchemaInvalid, path, 0,
				fmt.Sprintf("%s does not compile as draft-07: %v", doc.Title, err),
				"undefined and void members produce {\"type\": \"undefined\"}, which strict validators reject")
		}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	slogcontext.FromCtx(ctx).DebugContext(ctx, "wrote schema",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Check compiles an encoded document against the draft-07 metaschema.
func Check(location string, data []byte) error {
	_, err := Compile(location, data)
	return err
}

// Compile turns an encoded document into a validator.
func Compile(location string, data []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	url := "file:///" + strings.TrimPrefix(filepath.ToSlash(location), "/")
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// SortNames orders declaration names for display. Case differences sort
// together rather than all capitals first.
func SortNames(names []string) {
	collate.New(language.Und, collate.IgnoreCase).SortStrings(names)
}
