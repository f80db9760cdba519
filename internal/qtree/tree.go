// Package qtree implements a region quadtree over borrowed bounded
// elements.
//
// Each element lives at the deepest node whose quadrant strictly contains
// its bounds. Elements that straddle a dividing line stay at the node where
// they straddle and are never pushed down. A leaf splits into four
// quadrants (TL, TR, BR, BL) once it holds more than its capacity, unless
// it is already at the maximum depth.
//
// The tree stores element values and never owns the data behind them: use
// pointers or [Ref] handles into an [Arena] so that the tree can be dropped
// or rebuilt independently of the element storage.
//
// A Tree is not safe for concurrent use.
package qtree

import (
	"errors"
	"iter"
)

const (
	DefaultCapacity = 4
	DefaultMaxDepth = 10
)

// ErrAlreadySplit is the panic value raised when a node with children is
// split again. It marks a bug in the tree, not bad input.
var ErrAlreadySplit = errors.New("qtree: split of a node that already has children")

type settings struct {
	capacity int
	maxDepth int
}

type Option func(*settings)

func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func WithMaxDepth(d int) Option {
	return func(s *settings) {
		if d >= 0 {
			s.maxDepth = d
		}
	}
}

type Tree[T Bounded] struct {
	root *node[T]
	len  int
}

type node[T Bounded] struct {
	bounds   Bounds
	capacity int
	depth    int
	maxDepth int
	elements []T
	children *[4]*node[T]
}

func New[T Bounded](bounds Bounds, opts ...Option) *Tree[T] {
	s := settings{capacity: DefaultCapacity, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&s)
	}
	return &Tree[T]{
		root: &node[T]{
			bounds:   bounds,
			capacity: s.capacity,
			maxDepth: s.maxDepth,
		},
	}
}

// Build returns a tree over bounds holding every element of elems.
func Build[T Bounded](bounds Bounds, elems []T, opts ...Option) *Tree[T] {
	t := New[T](bounds, opts...)
	for _, e := range elems {
		t.Insert(e)
	}
	return t
}

func (t *Tree[T]) Bounds() Bounds { return t.root.bounds }
func (t *Tree[T]) Len() int       { return t.len }

func (t *Tree[T]) Insert(e T) {
	t.root.insert(e)
	t.len++
}

func (n *node[T]) insert(e T) {
	if n.children != nil {
		if q, ok := n.bounds.QuadrantOf(e.Bounds()); ok {
			n.children[q].insert(e)
			return
		}
		n.elements = append(n.elements, e)
		return
	}

	n.elements = append(n.elements, e)
	if len(n.elements) > n.capacity && n.depth < n.maxDepth {
		n.split()
	}
}

func (n *node[T]) split() {
	if n.children != nil {
		panic(ErrAlreadySplit)
	}

	quads := n.bounds.Quadrants()
	var children [4]*node[T]
	for i, b := range quads {
		children[i] = &node[T]{
			bounds:   b,
			capacity: n.capacity,
			depth:    n.depth + 1,
			maxDepth: n.maxDepth,
		}
	}
	n.children = &children

	kept := n.elements[:0]
	for _, e := range n.elements {
		if q, ok := n.bounds.QuadrantOf(e.Bounds()); ok {
			children[q].insert(e)
		} else {
			kept = append(kept, e)
		}
	}
	clear(n.elements[len(kept):])
	n.elements = kept
}

// All yields every element depth first: a node's own elements, then its
// children in TL, TR, BR, BL order. Each call starts a fresh walk from the
// root.
func (t *Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.root.walk(yield)
	}
}

func (n *node[T]) walk(yield func(T) bool) bool {
	for _, e := range n.elements {
		if !yield(e) {
			return false
		}
	}
	if n.children == nil {
		return true
	}
	for _, c := range n.children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Near yields the elements relevant to proximity checks against e, which
// need not be in the tree. Following the path e would take on insertion,
// it yields the elements held at every node on the path, root included,
// and the whole subtree of every off-path child whose bounds intersect e.
// At the end of the path that covers the subtree below the node e would be
// stored in. Each element is yielded at most once.
func (t *Tree[T]) Near(e T) iter.Seq[T] {
	return func(yield func(T) bool) {
		b := e.Bounds()
		n := t.root
		for {
			for _, x := range n.elements {
				if !yield(x) {
					return
				}
			}
			if n.children == nil {
				return
			}

			q, ok := n.bounds.QuadrantOf(b)
			for i, c := range n.children {
				if ok && Quadrant(i) == q {
					continue
				}
				if c.bounds.Intersects(b) && !c.walk(yield) {
					return
				}
			}
			if !ok {
				return
			}
			n = n.children[q]
		}
	}
}

type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
	Elements int
	// Floating counts elements held by nodes that have children.
	Floating int
}

func (t *Tree[T]) Stats() Stats {
	var s Stats
	t.root.stats(&s)
	return s
}

func (n *node[T]) stats(s *Stats) {
	s.Nodes++
	s.Elements += len(n.elements)
	s.MaxDepth = max(s.MaxDepth, n.depth)
	if n.children == nil {
		s.Leaves++
		return
	}
	s.Floating += len(n.elements)
	for _, c := range n.children {
		c.stats(s)
	}
}
