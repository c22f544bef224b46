package schema

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Marshal encodes a fragment, preserving property order.
func Marshal(f *Fragment, opts ...json.Options) ([]byte, error) {
	return json.Marshal(f, opts...)
}

// MarshalIndent encodes a fragment across multiple lines.
func MarshalIndent(f *Fragment) ([]byte, error) {
	return json.Marshal(f, jsontext.WithIndent("  "))
}

// MarshalJSONTo implements json.MarshalerTo. A literal standing on its own is
// written as {"const": value} so that it stays a valid schema.
func (f *Fragment) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := f.encodeMembers(enc); err != nil {
		return err
	}
	return enc.WriteToken(jsontext.EndObject)
}

// encodeMembers writes the fragment's keys without the enclosing braces.
func (f *Fragment) encodeMembers(enc *jsontext.Encoder) error {
	if f == nil {
		return nil
	}
	if f.literal != nil {
		if err := enc.WriteToken(jsontext.String("const")); err != nil {
			return err
		}
		return encodeLiteral(enc, *f.literal)
	}

	w := memberWriter{enc: enc}
	w.str("$ref", f.Ref)
	w.str("type", f.Type)
	w.str("format", f.Format)
	w.str("description", f.Description)
	if f.Enum != nil {
		w.key("enum")
		w.do(func() error {
			if err := enc.WriteToken(jsontext.BeginArray); err != nil {
				return err
			}
			for _, v := range f.Enum {
				if err := encodeLiteral(enc, v); err != nil {
					return err
				}
			}
			return enc.WriteToken(jsontext.EndArray)
		})
	}
	if f.Items != nil {
		w.key("items")
		w.do(func() error { return f.Items.MarshalJSONTo(enc) })
	} else if f.TupleItems != nil {
		w.key("items")
		w.do(func() error { return encodeList(enc, f.TupleItems) })
	}
	if f.AllOf != nil {
		w.key("allOf")
		w.do(func() error { return encodeList(enc, f.AllOf) })
	}
	if f.AnyOf != nil {
		w.key("anyOf")
		w.do(func() error { return encodeList(enc, f.AnyOf) })
	}
	if f.AdditionalProperties != nil {
		w.key("additionalProperties")
		w.do(func() error { return enc.WriteToken(jsontext.Bool(*f.AdditionalProperties)) })
	}
	if f.PatternProperties != nil {
		w.key("patternProperties")
		w.do(func() error { return encodeProperties(enc, f.PatternProperties) })
	}
	if f.Properties != nil {
		w.key("properties")
		w.do(func() error { return encodeProperties(enc, f.Properties) })
	}
	if len(f.Required) > 0 {
		w.key("required")
		w.do(func() error {
			if err := enc.WriteToken(jsontext.BeginArray); err != nil {
				return err
			}
			for _, name := range f.Required {
				if err := enc.WriteToken(jsontext.String(name)); err != nil {
					return err
				}
			}
			return enc.WriteToken(jsontext.EndArray)
		})
	}
	return w.err
}

// memberWriter keeps the first write error so that encodeMembers reads as a
// flat list of keys.
type memberWriter struct {
	enc *jsontext.Encoder
	err error
}

func (w *memberWriter) do(fn func() error) {
	if w.err == nil {
		w.err = fn()
	}
}

func (w *memberWriter) key(name string) {
	w.do(func() error { return w.enc.WriteToken(jsontext.String(name)) })
}

func (w *memberWriter) str(name, value string) {
	if value == "" {
		return
	}
	w.key(name)
	w.do(func() error { return w.enc.WriteToken(jsontext.String(value)) })
}

func encodeLiteral(enc *jsontext.Encoder, v LiteralValue) error {
	switch v.Kind {
	case LiteralString:
		return enc.WriteToken(jsontext.String(v.Str))
	case LiteralNumber:
		return enc.WriteToken(jsontext.Float(v.Num))
	case LiteralBoolean:
		return enc.WriteToken(jsontext.Bool(v.Bool))
	case LiteralBigInt:
		// written as a JSON number without going through float64
		return enc.WriteValue(jsontext.Value(v.BigInt))
	default:
		return fmt.Errorf("unknown literal kind %d", v.Kind)
	}
}

func encodeList(enc *jsontext.Encoder, fs []*Fragment) error {
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for _, f := range fs {
		if err := f.MarshalJSONTo(enc); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndArray)
}

func encodeProperties(enc *jsontext.Encoder, props []Property) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, p := range props {
		if err := enc.WriteToken(jsontext.String(p.Name)); err != nil {
			return err
		}
		if err := p.Schema.MarshalJSONTo(enc); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}
