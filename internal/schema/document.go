package schema

import (
	"fmt"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// Parse decodes a schema document and checks that its root is an object.
func Parse(data []byte) (jsonvalue.Value, error) {
	v, err := jsonvalue.Parse(data)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if v.Kind() != jsonvalue.KindObject {
		return jsonvalue.Value{}, fmt.Errorf("%w: schema root is a %s, not an object", hfsrb.ErrMalformedInput, v.Kind())
	}
	return v, nil
}

// Declared is the set of top-level property names a schema declares.
type Declared map[string]bool

// DeclaredProperties returns the names under the root "properties" keyword.
func DeclaredProperties(schema jsonvalue.Value) Declared {
	declared := make(Declared)
	props, ok := Properties(schema)
	if !ok {
		return declared
	}
	for _, name := range props.Keys() {
		declared[name] = true
	}
	return declared
}

// Properties returns the "properties" object of a schema.
func Properties(schema jsonvalue.Value) (*jsonvalue.Object, bool) {
	root, ok := schema.AsObject()
	if !ok {
		return nil, false
	}
	v, ok := root.Get("properties")
	if !ok {
		return nil, false
	}
	return v.AsObject()
}

// Types returns the declared "type" of a schema object as a list, accepting
// both the string and the array form.
func Types(obj *jsonvalue.Object) []string {
	v, ok := obj.Get("type")
	if !ok {
		return nil
	}
	if s, ok := v.AsString(); ok {
		return []string{s}
	}
	items, _ := v.AsArray()
	types := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.AsString(); ok {
			types = append(types, s)
		}
	}
	return types
}
