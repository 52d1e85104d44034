package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// CountPlaceholder is replaced by the 1-based item index in array templates.
const CountPlaceholder = "{n}"

// Document is a parsed mapping ruleset. Every rule list keeps the order in
// which it was authored.
type Document struct {
	// Source is the file the document was read from.
	Source string
	// Schema is a single schema path or a "|"-delimited candidate list.
	Schema     string
	Direct     []DirectRule
	Const      []ConstRule
	Meta       []MetaRule
	Sum        []SumRule
	Arrays     []ArrayRule
	Transforms []TransformRule
}

// DirectRule copies field Src to property Dst.
type DirectRule struct {
	Src string
	Dst string
}

// ConstRule sets property Dst to a literal.
type ConstRule struct {
	Dst   string
	Value jsonvalue.Value
}

// MetaRule copies entity metadata Key to property Dst.
type MetaRule struct {
	Dst string
	Key string
}

// SumRule adds the integer values of Sources into property Dst.
type SumRule struct {
	Dst     string
	Sources []string
}

// ArrayRule builds up to Count items for property Dest.
type ArrayRule struct {
	Dest    string
	Count   int
	Item    []ItemTemplate
	Require []string
}

// ItemTemplate names the field that fills sub-key Key. Template contains
// CountPlaceholder.
type ItemTemplate struct {
	Key      string
	Template string
}

// Source returns the field name for item index n.
func (t ItemTemplate) Source(n int) string {
	return strings.ReplaceAll(t.Template, CountPlaceholder, strconv.Itoa(n))
}

// TransformRule formats field Src with the named op into property Dst.
type TransformRule struct {
	Src string
	Dst string
	Op  string
	Pad int
}

// ParseDocument decodes a JSON or YAML mapping document, chosen by the
// extension of source.
func ParseDocument(source string, data []byte) (*Document, error) {
	var (
		root jsonvalue.Value
		err  error
	)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		root, err = parseYAML(data)
	default:
		root, err = jsonvalue.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", source, err)
	}
	return Decode(source, root)
}

// Decode builds a Document from an already parsed value.
func Decode(source string, root jsonvalue.Value) (*Document, error) {
	d := decoder{source: source}
	obj, ok := root.AsObject()
	if !ok {
		return nil, d.fail("", "document root is a %s, not an object", root.Kind())
	}

	doc := &Document{Source: source}
	var err error
	if v, ok := obj.Get("schema"); ok {
		if doc.Schema, err = d.str("schema", v); err != nil {
			return nil, err
		}
	}
	if doc.Direct, err = d.direct(obj); err != nil {
		return nil, err
	}
	if doc.Const, err = d.consts(obj); err != nil {
		return nil, err
	}
	if doc.Meta, err = d.meta(obj); err != nil {
		return nil, err
	}
	if doc.Sum, err = d.sum(obj); err != nil {
		return nil, err
	}
	if doc.Arrays, err = d.arrays(obj); err != nil {
		return nil, err
	}
	if doc.Transforms, err = d.transforms(obj); err != nil {
		return nil, err
	}
	return doc, nil
}

type decoder struct {
	source string
}

func (d decoder) fail(rule, format string, args ...any) error {
	return &DocumentError{Path: d.source, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func (d decoder) str(rule string, v jsonvalue.Value) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", d.fail(rule, "expected a string, got %s", v.Text())
	}
	return s, nil
}

func (d decoder) object(obj *jsonvalue.Object, key string) (*jsonvalue.Object, error) {
	v, ok := obj.Get(key)
	if !ok || v.IsNull() {
		return nil, nil
	}
	o, ok := v.AsObject()
	if !ok {
		return nil, d.fail(key, "expected an object")
	}
	return o, nil
}

func (d decoder) list(obj *jsonvalue.Object, key string) ([]jsonvalue.Value, error) {
	v, ok := obj.Get(key)
	if !ok || v.IsNull() {
		return nil, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, d.fail(key, "expected a list")
	}
	return items, nil
}

func (d decoder) stringList(rule string, v jsonvalue.Value) ([]string, error) {
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, d.fail(rule, "expected a list of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, err := d.str(rule, item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d decoder) integer(rule string, v jsonvalue.Value) (int, error) {
	var text string
	if n, ok := v.AsNumber(); ok {
		text = n.String()
	} else if s, ok := v.AsString(); ok {
		text = strings.TrimSpace(s)
	} else {
		return 0, d.fail(rule, "expected an integer, got %s", v.Text())
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, d.fail(rule, "expected a non-negative integer, got %q", text)
	}
	return n, nil
}

func (d decoder) direct(obj *jsonvalue.Object) ([]DirectRule, error) {
	o, err := d.object(obj, "direct")
	if o == nil || err != nil {
		return nil, err
	}
	rules := make([]DirectRule, 0, o.Len())
	for _, src := range o.Keys() {
		v, _ := o.Get(src)
		dst, err := d.str("direct."+src, v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, DirectRule{Src: src, Dst: dst})
	}
	return rules, nil
}

func (d decoder) consts(obj *jsonvalue.Object) ([]ConstRule, error) {
	o, err := d.object(obj, "const")
	if o == nil || err != nil {
		return nil, err
	}
	rules := make([]ConstRule, 0, o.Len())
	o.Range(func(dst string, v jsonvalue.Value) bool {
		rules = append(rules, ConstRule{Dst: dst, Value: jsonvalue.Clone(v)})
		return true
	})
	return rules, nil
}

func (d decoder) meta(obj *jsonvalue.Object) ([]MetaRule, error) {
	o, err := d.object(obj, "meta")
	if o == nil || err != nil {
		return nil, err
	}
	rules := make([]MetaRule, 0, o.Len())
	for _, dst := range o.Keys() {
		v, _ := o.Get(dst)
		key, err := d.str("meta."+dst, v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, MetaRule{Dst: dst, Key: key})
	}
	return rules, nil
}

func (d decoder) sum(obj *jsonvalue.Object) ([]SumRule, error) {
	o, err := d.object(obj, "sum")
	if o == nil || err != nil {
		return nil, err
	}
	rules := make([]SumRule, 0, o.Len())
	for _, dst := range o.Keys() {
		v, _ := o.Get(dst)
		sources, err := d.stringList("sum."+dst, v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, SumRule{Dst: dst, Sources: sources})
	}
	return rules, nil
}

func (d decoder) arrays(obj *jsonvalue.Object) ([]ArrayRule, error) {
	items, err := d.list(obj, "arrays")
	if err != nil {
		return nil, err
	}
	rules := make([]ArrayRule, 0, len(items))
	for i, item := range items {
		rule := fmt.Sprintf("arrays[%d]", i)
		o, ok := item.AsObject()
		if !ok {
			return nil, d.fail(rule, "expected an object")
		}

		var ar ArrayRule
		v, ok := o.Get("dest")
		if !ok {
			return nil, d.fail(rule, "missing dest")
		}
		if ar.Dest, err = d.str(rule+".dest", v); err != nil {
			return nil, err
		}
		v, ok = o.Get("count")
		if !ok {
			return nil, d.fail(rule, "missing count")
		}
		if ar.Count, err = d.integer(rule+".count", v); err != nil {
			return nil, err
		}

		tmpl, err := d.object(o, "item")
		if err != nil {
			return nil, d.fail(rule+".item", "expected an object")
		}
		if tmpl != nil {
			for _, key := range tmpl.Keys() {
				tv, _ := tmpl.Get(key)
				src, err := d.str(rule+".item."+key, tv)
				if err != nil {
					return nil, err
				}
				ar.Item = append(ar.Item, ItemTemplate{Key: key, Template: src})
			}
		}

		if v, ok := o.Get("require"); ok && !v.IsNull() {
			if ar.Require, err = d.stringList(rule+".require", v); err != nil {
				return nil, err
			}
		}
		rules = append(rules, ar)
	}
	return rules, nil
}

func (d decoder) transforms(obj *jsonvalue.Object) ([]TransformRule, error) {
	items, err := d.list(obj, "transforms")
	if err != nil {
		return nil, err
	}
	rules := make([]TransformRule, 0, len(items))
	for i, item := range items {
		rule := fmt.Sprintf("transforms[%d]", i)
		o, ok := item.AsObject()
		if !ok {
			return nil, d.fail(rule, "expected an object")
		}

		var tr TransformRule
		for _, f := range []struct {
			key string
			dst *string
		}{{"src", &tr.Src}, {"dst", &tr.Dst}, {"op", &tr.Op}} {
			v, ok := o.Get(f.key)
			if !ok {
				return nil, d.fail(rule, "missing %s", f.key)
			}
			if *f.dst, err = d.str(rule+"."+f.key, v); err != nil {
				return nil, err
			}
		}
		if v, ok := o.Get("pad"); ok && !v.IsNull() {
			if tr.Pad, err = d.integer(rule+".pad", v); err != nil {
				return nil, err
			}
		}
		rules = append(rules, tr)
	}
	return rules, nil
}

// parseYAML converts a YAML document into a tagged value, keeping mapping
// key order.
func parseYAML(data []byte) (jsonvalue.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return jsonvalue.Value{}, fmt.Errorf("%w: %v", hfsrb.ErrMalformedInput, err)
	}
	if node.Kind == 0 {
		return jsonvalue.ObjectOf(jsonvalue.NewObject()), nil
	}
	return fromYAML(&node)
}

func fromYAML(node *yaml.Node) (jsonvalue.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return jsonvalue.Null(), nil
		}
		return fromYAML(node.Content[0])
	case yaml.AliasNode:
		return fromYAML(node.Alias)
	case yaml.MappingNode:
		obj := jsonvalue.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return jsonvalue.Value{}, fmt.Errorf("%w: line %d: mapping keys must be scalars", hfsrb.ErrMalformedInput, key.Line)
			}
			v, err := fromYAML(node.Content[i+1])
			if err != nil {
				return jsonvalue.Value{}, err
			}
			obj.Set(key.Value, v)
		}
		return jsonvalue.ObjectOf(obj), nil
	case yaml.SequenceNode:
		items := make([]jsonvalue.Value, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := fromYAML(c)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			items = append(items, v)
		}
		return jsonvalue.ArrayOf(items...), nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	}
	return jsonvalue.Value{}, fmt.Errorf("%w: line %d: unsupported YAML node", hfsrb.ErrMalformedInput, node.Line)
}

func yamlScalar(node *yaml.Node) (jsonvalue.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return jsonvalue.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return jsonvalue.Value{}, fmt.Errorf("%w: line %d: %v", hfsrb.ErrMalformedInput, node.Line, err)
		}
		return jsonvalue.Bool(b), nil
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return jsonvalue.Value{}, fmt.Errorf("%w: line %d: %v", hfsrb.ErrMalformedInput, node.Line, err)
		}
		return jsonvalue.Int(n), nil
	case "!!float":
		if _, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return jsonvalue.Number(json.Number(node.Value)), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return jsonvalue.Value{}, fmt.Errorf("%w: line %d: %v", hfsrb.ErrMalformedInput, node.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return jsonvalue.Value{}, fmt.Errorf("%w: line %d: %s has no JSON representation", hfsrb.ErrMalformedInput, node.Line, node.Value)
		}
		return jsonvalue.Float(f), nil
	}
	return jsonvalue.String(node.Value), nil
}
