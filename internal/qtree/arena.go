package qtree

// Arena owns elements on behalf of one or more trees and hands out stable
// Ref handles to them.
type Arena[E Bounded] struct {
	items []E
}

func NewArena[E Bounded](capacity int) *Arena[E] {
	return &Arena[E]{items: make([]E, 0, capacity)}
}

// ArenaOf copies elems into a new arena and returns it with a handle per
// element, in order.
func ArenaOf[E Bounded](elems []E) (*Arena[E], []Ref[E]) {
	a := NewArena[E](len(elems))
	refs := make([]Ref[E], len(elems))
	for i, e := range elems {
		refs[i] = a.Add(e)
	}
	return a, refs
}

func (a *Arena[E]) Add(e E) Ref[E] {
	a.items = append(a.items, e)
	return Ref[E]{arena: a, index: len(a.items) - 1}
}

func (a *Arena[E]) Get(r Ref[E]) E { return a.items[r.index] }
func (a *Arena[E]) Len() int       { return len(a.items) }

// Ref is a handle into an Arena. It is comparable, and its bounds are read
// through the arena at the time of the call.
type Ref[E Bounded] struct {
	arena *Arena[E]
	index int
}

func (r Ref[E]) Index() int     { return r.index }
func (r Ref[E]) Value() E       { return r.arena.items[r.index] }
func (r Ref[E]) Bounds() Bounds { return r.arena.items[r.index].Bounds() }
