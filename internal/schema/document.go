package schema

import (
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Definition is a named schema stored under "definitions".
type Definition struct {
	Name   string
	Schema *Fragment
}

// Document is a top-level schema document: a root fragment plus the
// definitions its $ref pointers resolve against.
type Document struct {
	Schema      string
	Title       string
	Root        *Fragment
	Definitions []Definition
}

// MarshalDocument encodes a document with two-space indentation.
func MarshalDocument(d *Document) ([]byte, error) {
	return json.Marshal(d, jsontext.WithIndent("  "))
}

// MarshalJSONTo implements json.MarshalerTo.
func (d *Document) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	w := memberWriter{enc: enc}
	w.str("$schema", d.Schema)
	w.str("title", d.Title)
	if w.err != nil {
		return w.err
	}
	if err := d.Root.encodeMembers(enc); err != nil {
		return err
	}
	if len(d.Definitions) > 0 {
		if err := enc.WriteToken(jsontext.String("definitions")); err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, def := range d.Definitions {
			if err := enc.WriteToken(jsontext.String(def.Name)); err != nil {
				return err
			}
			if err := def.Schema.MarshalJSONTo(enc); err != nil {
				return err
			}
		}
		if err := enc.WriteToken(jsontext.EndObject); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}
