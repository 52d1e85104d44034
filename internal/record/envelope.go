package record

import (
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
)

// PayloadFileName is the envelope written next to each data.json.
const PayloadFileName = "schema_payload.json"

// Envelope is the persisted result of mapping one entity.
type Envelope struct {
	Meta       *jsonvalue.Object
	Payload    *jsonvalue.Object
	Provenance *jsonvalue.Object
	Unmapped   []string
	Schema     string
}

// Value renders the envelope with keys in the order meta, payload,
// provenance, unmapped_fields, schema.
func (e Envelope) Value() jsonvalue.Value {
	unmapped := make([]jsonvalue.Value, len(e.Unmapped))
	for i, key := range e.Unmapped {
		unmapped[i] = jsonvalue.String(key)
	}

	root := jsonvalue.NewObject()
	root.Set("meta", jsonvalue.ObjectOf(e.Meta))
	root.Set("payload", jsonvalue.ObjectOf(e.Payload))
	root.Set("provenance", jsonvalue.ObjectOf(e.Provenance))
	root.Set("unmapped_fields", jsonvalue.ArrayOf(unmapped...))
	root.Set("schema", jsonvalue.String(e.Schema))
	return jsonvalue.ObjectOf(root)
}

// Marshal renders the envelope as indented JSON with a trailing newline.
func (e Envelope) Marshal() ([]byte, error) {
	return jsonvalue.MarshalIndent(e.Value())
}

// ParseEnvelope reads a stored envelope back. Missing sections are empty.
func ParseEnvelope(path string, data []byte) (Envelope, error) {
	root, err := jsonvalue.Parse(data)
	if err != nil {
		return Envelope{}, &DecodeError{Path: path, Message: "invalid JSON", Err: err}
	}
	obj, ok := root.AsObject()
	if !ok {
		return Envelope{}, &DecodeError{Path: path, Message: "envelope root must be an object"}
	}

	section := func(key string) (*jsonvalue.Object, error) {
		v, ok := obj.Get(key)
		if !ok || v.IsNull() {
			return jsonvalue.NewObject(), nil
		}
		o, ok := v.AsObject()
		if !ok {
			return nil, &DecodeError{Path: path, Message: key + " must be an object"}
		}
		return o, nil
	}

	var env Envelope
	if env.Meta, err = section("meta"); err != nil {
		return Envelope{}, err
	}
	if env.Payload, err = section("payload"); err != nil {
		return Envelope{}, err
	}
	if env.Provenance, err = section("provenance"); err != nil {
		return Envelope{}, err
	}
	if v, ok := obj.Get("unmapped_fields"); ok {
		items, _ := v.AsArray()
		for _, item := range items {
			env.Unmapped = append(env.Unmapped, item.Text())
		}
	}
	if v, ok := obj.Get("schema"); ok {
		env.Schema = v.Text()
	}
	return env, nil
}
