package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// Parse decodes a single JSON document, preserving object key order.
// Duplicate keys keep their first position and their last value.
// Errors wrap hfsrb.ErrMalformedInput.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decode(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", hfsrb.ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("%w: unexpected data after top-level value", hfsrb.ErrMalformedInput)
	}
	return v, nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				v, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectOf(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				v, err := decode(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ArrayOf(items...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

// UnmarshalJSON lets a Value be embedded in structs decoded by encoding/json.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON emits compact JSON with keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v)
}

// Marshal emits compact JSON with keys in insertion order and no HTML escaping.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent emits two-space indented JSON terminated by a newline, the
// on-disk form of every document this module writes.
func MarshalIndent(v Value) ([]byte, error) {
	compact, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.object.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.object.values[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindScalar:
		switch s := v.scalar.(type) {
		case nil:
			buf.WriteString("null")
		case bool:
			if s {
				buf.WriteString("true")
			} else {
				buf.WriteString("false")
			}
		case json.Number:
			if s == "" {
				buf.WriteByte('0')
			} else {
				buf.WriteString(s.String())
			}
		case string:
			return writeString(buf, s)
		default:
			return fmt.Errorf("jsonvalue: invalid scalar %T", s)
		}
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}
