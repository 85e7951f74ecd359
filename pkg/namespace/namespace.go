// Package namespace builds a tree of nested containers from dotted
// identifiers. Each node may hold child nodes, a leaf value, or both.
package namespace

import (
	"slices"
	"strings"
)

// Separator splits identifiers into path segments.
const Separator = "."

// Outcome reports what Insert did with a value.
type Outcome int

const (
	// Installed means the value was stored at a path that held no value.
	Installed Outcome = iota
	// Replaced means a value already stored at the same path was overwritten.
	Replaced
	// Skipped means nothing was installed: the identifier had a single
	// segment, or a segment after the service prefix was empty.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Installed:
		return "installed"
	case Replaced:
		return "replaced"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Node is one position in the tree. The zero value is an empty container.
type Node[V any] struct {
	value    V
	hasValue bool
	children map[string]*Node[V]
}

// New returns an empty root node.
func New[V any]() *Node[V] {
	return &Node[V]{}
}

// Extend installs value at dottedPath under root and returns root, allocating
// a new root when root is nil. The first segment of dottedPath names the
// service and is dropped; intermediate segments become containers on demand
// and the last segment receives value, overwriting any value already there.
func Extend[V any](root *Node[V], dottedPath string, value V) *Node[V] {
	if root == nil {
		root = New[V]()
	}
	root.Insert(dottedPath, value)
	return root
}

// Insert is Extend on an existing root, reporting the outcome. Children of
// the target node are kept when its value is replaced, so a helper installed
// at "svc.a.b" survives a later "svc.a".
func (n *Node[V]) Insert(dottedPath string, value V) Outcome {
	segments := strings.Split(dottedPath, Separator)
	if len(segments) < 2 || slices.Contains(segments[1:], "") {
		return Skipped
	}
	target := n.ensure(segments[1:])
	outcome := Installed
	if target.hasValue {
		outcome = Replaced
	}
	target.value = value
	target.hasValue = true
	return outcome
}

func (n *Node[V]) ensure(segments []string) *Node[V] {
	cur := n
	for _, seg := range segments {
		if cur.children == nil {
			cur.children = make(map[string]*Node[V])
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &Node[V]{}
			cur.children[seg] = next
		}
		cur = next
	}
	return cur
}

// Child returns the direct child named segment.
func (n *Node[V]) Child(segment string) (*Node[V], bool) {
	if n == nil {
		return nil, false
	}
	c, ok := n.children[segment]
	return c, ok
}

// Children returns the names of direct children in lexical order.
func (n *Node[V]) Children() []string {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Value returns the leaf value stored at n.
func (n *Node[V]) Value() (V, bool) {
	if n == nil {
		var zero V
		return zero, false
	}
	return n.value, n.hasValue
}

// IsLeaf reports whether n holds a value.
func (n *Node[V]) IsLeaf() bool {
	return n != nil && n.hasValue
}

// IsContainer reports whether n has children.
func (n *Node[V]) IsContainer() bool {
	return n != nil && len(n.children) > 0
}

// Lookup walks path (without the service prefix) from n. An empty path
// returns n itself.
func (n *Node[V]) Lookup(path string) (*Node[V], bool) {
	if n == nil {
		return nil, false
	}
	if path == "" {
		return n, true
	}
	cur := n
	for _, seg := range strings.Split(path, Separator) {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// LookupID resolves a full method identifier, dropping its first segment the
// same way Insert does.
func (n *Node[V]) LookupID(id string) (*Node[V], bool) {
	_, rest, ok := strings.Cut(id, Separator)
	if !ok {
		return nil, false
	}
	return n.Lookup(rest)
}

// Walk calls fn for every leaf below n in depth-first lexical order. The path
// passed to fn is relative to n.
func (n *Node[V]) Walk(fn func(path string, value V)) {
	n.walk("", 0, fn)
}

func (n *Node[V]) walk(prefix string, depth int, fn func(string, V)) {
	if n == nil {
		return
	}
	if n.hasValue && depth > 0 {
		fn(prefix, n.value)
	}
	for _, name := range n.Children() {
		p := name
		if depth > 0 {
			p = prefix + Separator + name
		}
		n.children[name].walk(p, depth+1, fn)
	}
}

// Paths returns the paths of all leaves below n in lexical order.
func (n *Node[V]) Paths() []string {
	var out []string
	n.Walk(func(path string, _ V) {
		out = append(out, path)
	})
	return out
}

// Len returns the number of leaves below n.
func (n *Node[V]) Len() int {
	count := 0
	n.Walk(func(string, V) { count++ })
	return count
}
