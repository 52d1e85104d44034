package jsonvalue

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindScalar Kind = iota
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is an immutable-by-convention JSON value.
// The zero Value is the JSON null scalar.
type Value struct {
	kind   Kind
	scalar any // nil, bool, json.Number or string
	items  []Value
	object *Object
}

// Null returns the JSON null scalar.
func Null() Value { return Value{} }

// Bool returns a boolean scalar.
func Bool(b bool) Value { return Value{scalar: b} }

// String returns a string scalar.
func String(s string) Value { return Value{scalar: s} }

// Number returns a numeric scalar. The literal is not re-validated.
func Number(n json.Number) Value { return Value{scalar: n} }

// Int returns an integer scalar.
func Int(n int64) Value { return Value{scalar: json.Number(strconv.FormatInt(n, 10))} }

// Float returns a numeric scalar using the shortest round-trip representation.
func Float(f float64) Value {
	return Value{scalar: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// ArrayOf returns an array value holding items.
func ArrayOf(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// ObjectOf returns an object value backed by o. A nil o yields an empty object.
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, object: o}
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null scalar.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// Scalar returns the raw scalar payload: nil, bool, json.Number or string.
func (v Value) Scalar() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

func (v Value) AsString() (string, bool) {
	s, ok := v.Scalar().(string)
	return s, ok
}

func (v Value) AsNumber() (json.Number, bool) {
	n, ok := v.Scalar().(json.Number)
	return n, ok
}

func (v Value) AsBool() (bool, bool) {
	b, ok := v.Scalar().(bool)
	return b, ok
}

func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.object, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.items, true
}

// Text renders a scalar as plain text: strings verbatim, numbers and booleans
// in their JSON spelling, null as "". Arrays and objects render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindScalar:
		switch s := v.scalar.(type) {
		case nil:
			return ""
		case string:
			return s
		case json.Number:
			return s.String()
		case bool:
			return strconv.FormatBool(s)
		}
	}
	b, err := Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal reports deep equality. Numbers compare by numeric value, so 1, 1.0
// and 1e0 are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindObject:
		if a.object.Len() != b.object.Len() {
			return false
		}
		for _, k := range a.object.keys {
			bv, ok := b.object.Get(k)
			if !ok || !Equal(a.object.values[k], bv) {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		an, aNum := a.scalar.(json.Number)
		bn, bNum := b.scalar.(json.Number)
		if aNum && bNum {
			return numbersEqual(an, bn)
		}
		return a.scalar == b.scalar
	}
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	ar, ok1 := new(big.Rat).SetString(string(a))
	br, ok2 := new(big.Rat).SetString(string(b))
	if !ok1 || !ok2 {
		return false
	}
	return ar.Cmp(br) == 0
}

// FromGo converts values produced by encoding/json (or built by hand) into a
// Value. Go maps are emitted in sorted key order.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Object:
		return ObjectOf(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ArrayOf(items...), nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, String(s))
		}
		return ArrayOf(items...), nil
	case map[string]string:
		obj := NewObject()
		for _, k := range sortedKeys(t) {
			obj.Set(k, String(t[k]))
		}
		return ObjectOf(obj), nil
	case map[string]any:
		obj := NewObject()
		for _, k := range sortedKeys(t) {
			v, err := FromGo(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			obj.Set(k, v)
		}
		return ObjectOf(obj), nil
	default:
		return Value{}, fmt.Errorf("unsupported type %T", x)
	}
}

// MustFromGo is FromGo for literals known to be convertible. It panics on error.
func MustFromGo(x any) Value {
	v, err := FromGo(x)
	if err != nil {
		panic(err)
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
