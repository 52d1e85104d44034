package jsonvalue

import (
	"errors"
	"strconv"
	"strings"
)

// Path locates a node from the root. Object members are plain segments,
// array elements are "[i]" segments.
type Path []string

// Child returns a new path extended by an object key.
func (p Path) Child(key string) Path {
	return append(p[:len(p):len(p)], key)
}

// Index returns a new path extended by an array index.
func (p Path) Index(i int) Path {
	return append(p[:len(p):len(p)], "["+strconv.Itoa(i)+"]")
}

// Last returns the final segment, or "" for the root.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[: len(p)-1 : len(p)-1]
}

// String renders the path as "a.b[0].c".
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// SkipChildren may be returned by a WalkFunc to prune the current subtree.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node in pre-order.
type WalkFunc func(path Path, v Value) error

// Walk visits v and all of its descendants pre-order. Object members are
// visited in insertion order. The first non-SkipChildren error stops the walk.
func Walk(v Value, fn WalkFunc) error {
	return walk(nil, v, fn)
}

func walk(path Path, v Value, fn WalkFunc) error {
	if err := fn(path, v); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}

	switch v.kind {
	case KindObject:
		for _, k := range v.object.keys {
			if err := walk(path.Child(k), v.object.values[k], fn); err != nil {
				return err
			}
		}
	case KindArray:
		for i, item := range v.items {
			if err := walk(path.Index(i), item, fn); err != nil {
				return err
			}
		}
	case KindScalar:
	}
	return nil
}

// RewriteFunc receives each rebuilt node after its children were rewritten and
// returns the node to put in its place. Objects and arrays passed to it are
// fresh copies owned by the callback.
type RewriteFunc func(path Path, v Value) Value

// Rewrite rebuilds v bottom-up through fn. The input tree is never modified.
func Rewrite(v Value, fn RewriteFunc) Value {
	return rewrite(nil, v, fn)
}

func rewrite(path Path, v Value, fn RewriteFunc) Value {
	switch v.kind {
	case KindObject:
		out := NewObject()
		for _, k := range v.object.keys {
			out.Set(k, rewrite(path.Child(k), v.object.values[k], fn))
		}
		v = ObjectOf(out)
	case KindArray:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = rewrite(path.Index(i), item, fn)
		}
		v = ArrayOf(items...)
	case KindScalar:
	}
	return fn(path, v)
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	return Rewrite(v, func(_ Path, v Value) Value { return v })
}
