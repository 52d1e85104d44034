package mapping

import (
	"encoding/json"
	"math/big"
	"slices"
	"sort"
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/schema"
	"github.com/hfsrb/hfsrb/internal/transform"
)

// Result is the outcome of applying a Document to one entity.
type Result struct {
	// Fields holds the mapped properties in first-write order.
	Fields *jsonvalue.Object
	// Provenance maps each contributing source field to the property path it
	// ended up in, e.g. "owners[0].name".
	Provenance *jsonvalue.Object
	// Unmapped lists the input fields no rule consumed, sorted ascending.
	Unmapped []string
}

// Apply runs doc against one entity's fields. Only properties present in
// declared are ever written. Apply does not modify its arguments.
func Apply(fields map[string]string, doc *Document, declared schema.Declared, meta *jsonvalue.Object) Result {
	run := &run{
		fields:     fields,
		declared:   declared,
		out:        jsonvalue.NewObject(),
		provenance: jsonvalue.NewObject(),
		used:       make(map[string]bool, len(fields)),
	}

	run.direct(doc.Direct)
	run.consts(doc.Const)
	run.meta(doc.Meta, meta)
	run.sum(doc.Sum)
	run.arrays(doc.Arrays)
	run.transforms(doc.Transforms)

	unmapped := make([]string, 0, len(fields))
	for key := range fields {
		if !run.used[key] {
			unmapped = append(unmapped, key)
		}
	}
	sort.Strings(unmapped)

	return Result{Fields: run.out, Provenance: run.provenance, Unmapped: unmapped}
}

type run struct {
	fields     map[string]string
	declared   schema.Declared
	out        *jsonvalue.Object
	provenance *jsonvalue.Object
	used       map[string]bool
}

// set writes dst and drops provenance left behind by earlier writers of dst.
func (r *run) set(dst string, v jsonvalue.Value) {
	for _, src := range r.provenance.Keys() {
		p, _ := r.provenance.Get(src)
		path, _ := p.AsString()
		if path == dst || strings.HasPrefix(path, dst+"[") || strings.HasPrefix(path, dst+".") {
			r.provenance.Delete(src)
		}
	}
	r.out.Set(dst, v)
}

func (r *run) trace(src, path string) {
	r.provenance.Set(src, jsonvalue.String(path))
}

func (r *run) direct(rules []DirectRule) {
	for _, rule := range rules {
		value, present := r.fields[rule.Src]
		if !present || !r.declared[rule.Dst] {
			continue
		}
		r.set(rule.Dst, jsonvalue.String(value))
		r.trace(rule.Src, rule.Dst)
		r.used[rule.Src] = true
	}
}

func (r *run) consts(rules []ConstRule) {
	for _, rule := range rules {
		if r.declared[rule.Dst] {
			r.set(rule.Dst, jsonvalue.Clone(rule.Value))
		}
	}
}

func (r *run) meta(rules []MetaRule, meta *jsonvalue.Object) {
	if meta == nil {
		return
	}
	for _, rule := range rules {
		if !r.declared[rule.Dst] {
			continue
		}
		if v, ok := meta.Get(rule.Key); ok {
			r.set(rule.Dst, jsonvalue.Clone(v))
		}
	}
}

// sum marks every present source used, including ones that do not parse.
func (r *run) sum(rules []SumRule) {
	for _, rule := range rules {
		var (
			total   = new(big.Int)
			present []string
		)
		for _, src := range rule.Sources {
			value, ok := r.fields[src]
			if !ok {
				continue
			}
			present = append(present, src)
			r.used[src] = true
			if n, ok := transform.ParseBigInt(value); ok {
				total.Add(total, n)
			}
		}
		if len(present) == 0 || !r.declared[rule.Dst] {
			continue
		}
		r.set(rule.Dst, jsonvalue.Number(json.Number(total.String())))
		for _, src := range present {
			r.trace(src, rule.Dst)
		}
	}
}

func (r *run) arrays(rules []ArrayRule) {
	for _, rule := range rules {
		var (
			items   []jsonvalue.Value
			sources [][]ItemTemplate
		)
		for n := 1; n <= rule.Count; n++ {
			item, contributed := r.candidate(rule, n)
			if item == nil {
				continue
			}
			items = append(items, jsonvalue.ObjectOf(item))
			sources = append(sources, contributed)
		}
		if len(items) == 0 || !r.declared[rule.Dest] {
			continue
		}

		r.set(rule.Dest, jsonvalue.ArrayOf(items...))
		for i, contributed := range sources {
			item := jsonvalue.Path{rule.Dest}.Index(i)
			for _, t := range contributed {
				r.trace(t.Template, item.Child(t.Key).String())
			}
		}
	}
}

// candidate builds item n of rule. It returns nil when the item has no
// populated sub-keys or misses a required one. Sources that supplied a
// non-blank value are marked used either way. The returned templates carry
// the resolved source name in Template.
func (r *run) candidate(rule ArrayRule, n int) (*jsonvalue.Object, []ItemTemplate) {
	item := jsonvalue.NewObject()
	var contributed []ItemTemplate

	for _, t := range rule.Item {
		src := t.Source(n)
		value, ok := r.fields[src]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		r.used[src] = true
		item.Set(t.Key, jsonvalue.String(value))
		// Overlapping templates: the last one iterated wins the sub-key.
		contributed = slices.DeleteFunc(contributed, func(c ItemTemplate) bool { return c.Key == t.Key })
		contributed = append(contributed, ItemTemplate{Key: t.Key, Template: src})
	}

	if item.Len() == 0 {
		return nil, nil
	}
	for _, key := range rule.Require {
		v, ok := item.Get(key)
		if !ok {
			return nil, nil
		}
		if s, _ := v.AsString(); strings.TrimSpace(s) == "" {
			return nil, nil
		}
	}
	return item, contributed
}

func (r *run) transforms(rules []TransformRule) {
	for _, rule := range rules {
		value, present := r.fields[rule.Src]
		if !present || !r.declared[rule.Dst] {
			continue
		}
		out, _ := transform.Apply(rule.Op, value, transform.Options{Pad: rule.Pad})
		r.set(rule.Dst, jsonvalue.String(out))
		r.trace(rule.Src, rule.Dst)
		r.used[rule.Src] = true
	}
}
