package qtree

import (
	"slices"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type box struct {
	id   int
	x, y float64
	w, h float64
}

func (b box) Bounds() Bounds { return Bounds{X: b.x, Y: b.y, Width: b.w, Height: b.h} }

func unit(id int, x, y float64) box { return box{id: id, x: x, y: y, w: 1, h: 1} }

func ids(seq func(func(box) bool)) []int {
	var out []int
	for b := range seq {
		out = append(out, b.id)
	}
	return out
}

var area = Bounds{X: 0, Y: 0, Width: 10, Height: 10}

var _ = Describe("Bounds", func() {
	It("splits into TL, TR, BR, BL quadrants", func() {
		q := area.Quadrants()
		Expect(q[TL]).To(Equal(Bounds{X: 0, Y: 0, Width: 5, Height: 5}))
		Expect(q[TR]).To(Equal(Bounds{X: 5, Y: 0, Width: 5, Height: 5}))
		Expect(q[BR]).To(Equal(Bounds{X: 5, Y: 5, Width: 5, Height: 5}))
		Expect(q[BL]).To(Equal(Bounds{X: 0, Y: 5, Width: 5, Height: 5}))
	})

	DescribeTable("quadrant by strict containment",
		func(e Bounds, want Quadrant, fits bool) {
			q, ok := area.QuadrantOf(e)
			Expect(ok).To(Equal(fits))
			if fits {
				Expect(q).To(Equal(want))
			}
		},
		Entry("top left", Bounds{X: 1, Y: 1, Width: 1, Height: 1}, TL, true),
		Entry("top right", Bounds{X: 6, Y: 1, Width: 1, Height: 1}, TR, true),
		Entry("bottom right", Bounds{X: 6, Y: 6, Width: 1, Height: 1}, BR, true),
		Entry("bottom left", Bounds{X: 1, Y: 6, Width: 1, Height: 1}, BL, true),
		Entry("point inside", Bounds{X: 2.5, Y: 7.5}, BL, true),
		Entry("straddles vertical midline", Bounds{X: 4, Y: 1, Width: 2, Height: 1}, TL, false),
		Entry("straddles both midlines", Bounds{X: 4, Y: 4, Width: 2, Height: 2}, TL, false),
		Entry("touches midline", Bounds{X: 4, Y: 1, Width: 1, Height: 1}, TL, false),
		Entry("touches outer edge", Bounds{X: 9, Y: 9, Width: 1, Height: 1}, BR, false),
		Entry("on outer origin", Bounds{X: 0, Y: 1, Width: 1, Height: 1}, TL, false),
		Entry("outside", Bounds{X: 20, Y: 20, Width: 1, Height: 1}, TL, false),
	)

	It("computes intersections, unions and enclosing rectangles", func() {
		a := Bounds{X: 0, Y: 0, Width: 2, Height: 2}
		Expect(a.Intersects(Bounds{X: 1, Y: 1, Width: 2, Height: 2})).To(BeTrue())
		Expect(a.Intersects(Bounds{X: 2, Y: 0, Width: 1, Height: 1})).To(BeTrue())
		Expect(a.Intersects(Bounds{X: 3, Y: 3, Width: 1, Height: 1})).To(BeFalse())

		Expect(a.Union(Bounds{X: 3, Y: -1, Width: 1, Height: 1})).To(Equal(Bounds{X: 0, Y: -1, Width: 4, Height: 3}))
		Expect(Enclosing([]box{unit(0, 1, 1), unit(1, 4, 6)}, 0.5)).To(Equal(Bounds{X: 0.5, Y: 0.5, Width: 5, Height: 7}))
		Expect(Enclosing([]box{}, 1)).To(Equal(Bounds{X: -1, Y: -1, Width: 2, Height: 2}))
	})
})

var _ = Describe("Tree", func() {
	var tree *Tree[box]

	BeforeEach(func() {
		tree = New[box](area)
	})

	It("yields nothing when empty", func() {
		Expect(ids(tree.All())).To(BeEmpty())
		Expect(tree.Len()).To(BeZero())
		Expect(tree.Stats()).To(Equal(Stats{Nodes: 1, Leaves: 1}))
	})

	It("uses the default capacity and depth", func() {
		Expect(tree.root.capacity).To(Equal(DefaultCapacity))
		Expect(tree.root.maxDepth).To(Equal(DefaultMaxDepth))
		Expect(tree.root.depth).To(BeZero())
		Expect(tree.Bounds()).To(Equal(area))
	})

	It("does not split at or below capacity", func() {
		for i := 0; i < DefaultCapacity; i++ {
			tree.Insert(unit(i, 1+float64(i), 1))
		}

		Expect(tree.root.children).To(BeNil())
		Expect(ids(tree.All())).To(Equal([]int{0, 1, 2, 3}))
	})

	It("splits once when capacity is exceeded", func() {
		tree.Insert(unit(0, 1, 1))
		tree.Insert(unit(1, 6, 1))
		tree.Insert(unit(2, 6, 6))
		tree.Insert(unit(3, 1, 6))
		tree.Insert(unit(4, 2, 2))

		Expect(tree.root.children).NotTo(BeNil())
		Expect(tree.root.elements).To(BeEmpty())
		Expect(tree.Stats()).To(Equal(Stats{Nodes: 5, Leaves: 4, MaxDepth: 1, Elements: 5}))
		Expect(ids(tree.All())).To(ConsistOf(0, 1, 2, 3, 4))

		for _, c := range tree.root.children {
			Expect(c.children).To(BeNil())
			Expect(c.depth).To(Equal(1))
		}
		Expect(tree.root.children[TL].elements).To(HaveLen(2))
	})

	It("keeps straddling elements where they were inserted", func() {
		straddler := box{id: 99, x: 4, y: 4, w: 2, h: 2}
		tree.Insert(straddler)
		tree.Insert(unit(0, 1, 1))
		tree.Insert(unit(1, 6, 1))
		tree.Insert(unit(2, 6, 6))
		tree.Insert(unit(3, 1, 6))

		Expect(tree.root.children).NotTo(BeNil())
		Expect(tree.root.elements).To(Equal([]box{straddler}))

		// Fill TL until it splits as well.
		tree.Insert(unit(4, 0.5, 0.5))
		tree.Insert(unit(5, 3, 0.5))
		tree.Insert(unit(6, 0.5, 3))
		tree.Insert(unit(7, 3, 3))

		tl := tree.root.children[TL]
		Expect(tl.children).NotTo(BeNil())
		Expect(tree.root.elements).To(Equal([]box{straddler}))
		Expect(ids(tree.All())).To(ConsistOf(99, 0, 1, 2, 3, 4, 5, 6, 7))
		Expect(tree.Len()).To(Equal(9))
	})

	It("keeps elements that straddle a child's midline in that child", func() {
		tree.Insert(unit(0, 6, 1))
		tree.Insert(unit(1, 6, 6))
		tree.Insert(unit(2, 1, 6))
		tree.Insert(unit(3, 0.5, 0.5))
		tree.Insert(unit(4, 3, 3))
		// Crosses TL's own midlines at (2.5, 2.5) but fits in TL.
		tree.Insert(box{id: 5, x: 2, y: 2, w: 1, h: 1})
		tree.Insert(unit(6, 3, 0.5))
		tree.Insert(unit(7, 0.5, 3))

		tl := tree.root.children[TL]
		Expect(tl.children).NotTo(BeNil())
		Expect(ids(slices.Values(tl.elements))).To(Equal([]int{5}))
	})

	It("visits local elements before children in TL, TR, BR, BL order", func() {
		for _, b := range []box{
			unit(0, 6, 6),
			unit(1, 1, 6),
			unit(2, 6, 1),
			unit(3, 1, 1),
			{id: 4, x: 4, y: 1, w: 2, h: 1},
		} {
			tree.Insert(b)
		}

		want := []int{4, 3, 2, 0, 1}
		if diff := cmp.Diff(want, ids(tree.All())); diff != "" {
			Fail("traversal order mismatch (-want +got):\n" + diff)
		}
	})

	It("restarts traversal and honours early termination", func() {
		for i := 0; i < 30; i++ {
			tree.Insert(unit(i, 0.2+float64(i%9), 0.2+float64(i/9)*2))
		}

		first := ids(tree.All())
		Expect(first).To(HaveLen(30))
		Expect(ids(tree.All())).To(Equal(first))

		var seen []int
		for b := range tree.All() {
			seen = append(seen, b.id)
			if len(seen) == 3 {
				break
			}
		}
		Expect(seen).To(Equal(first[:3]))
	})

	It("stops splitting at max depth and lets leaves overflow", func() {
		shallow := New[box](area, WithCapacity(1), WithMaxDepth(2))
		for i := 0; i < 10; i++ {
			shallow.Insert(box{id: i, x: 1, y: 1, w: 0.1, h: 0.1})
		}

		s := shallow.Stats()
		Expect(s.MaxDepth).To(Equal(2))
		Expect(s.Elements).To(Equal(10))
		Expect(s.Nodes).To(Equal(9))

		leaf := shallow.root.children[TL].children[TL]
		Expect(leaf.children).To(BeNil())
		Expect(leaf.elements).To(HaveLen(10))
	})

	It("never splits with max depth zero", func() {
		flat := New[box](area, WithMaxDepth(0))
		for i := 0; i < 20; i++ {
			flat.Insert(unit(i, 1, 1))
		}
		Expect(flat.root.children).To(BeNil())
		Expect(flat.Len()).To(Equal(20))
	})

	It("treats splitting a split node as a fatal invariant violation", func() {
		for i := 0; i < DefaultCapacity+1; i++ {
			tree.Insert(unit(i, 1+float64(i%2)*5, 1+float64(i/2%2)*5))
		}
		Expect(tree.root.children).NotTo(BeNil())
		Expect(func() { tree.root.split() }).To(PanicWith(ErrAlreadySplit))
	})

	It("matches the reference build scenario", func() {
		for i, p := range [][2]float64{{1, 1}, {9, 9}, {1, 9}, {9, 1}, {8, 1}, {8, 8}} {
			tree.Insert(unit(i, p[0], p[1]))
		}

		// Boxes at x or y = 9 touch the outer edge and float at the root.
		Expect(ids(slices.Values(tree.root.elements))).To(Equal([]int{1, 2, 3}))
		Expect(ids(tree.All())).To(ConsistOf(0, 1, 2, 3, 4, 5))
	})
})

var _ = Describe("Near", func() {
	var tree *Tree[box]

	BeforeEach(func() {
		tree = New[box](area)
		tree.Insert(box{id: 99, x: 4, y: 4, w: 2, h: 2})
		tree.Insert(unit(0, 1, 1))
		tree.Insert(unit(1, 6, 1))
		tree.Insert(unit(2, 6, 6))
		tree.Insert(unit(3, 1, 6))
		tree.Insert(unit(4, 3, 3))
	})

	It("yields root floating elements and the target quadrant", func() {
		got := ids(tree.Near(unit(-1, 2, 2)))
		Expect(got).To(ConsistOf(99, 0, 4))
	})

	It("includes every intersecting child for a straddling query", func() {
		got := ids(tree.Near(box{id: -1, x: 4, y: 0.5, w: 2, h: 1}))
		Expect(got).To(ConsistOf(99, 0, 4, 1))
	})

	It("never yields an element twice", func() {
		got := ids(tree.Near(box{id: -1, x: 0, y: 0, w: 10, h: 10}))
		Expect(got).To(ConsistOf(99, 0, 1, 2, 3, 4))
	})

	It("works on an unsplit tree", func() {
		small := New[box](area)
		small.Insert(unit(7, 1, 1))
		Expect(ids(small.Near(unit(-1, 8, 8)))).To(Equal([]int{7}))
	})

	It("stops when the consumer stops", func() {
		n := 0
		for range tree.Near(box{id: -1, x: 0, y: 0, w: 10, h: 10}) {
			n++
			break
		}
		Expect(n).To(Equal(1))
	})
})

var _ = Describe("Arena", func() {
	It("indexes handles without copying elements into the tree", func() {
		arena, refs := ArenaOf([]box{unit(0, 1, 1), unit(1, 6, 6), {id: 2, x: 4, y: 4, w: 2, h: 2}})
		Expect(arena.Len()).To(Equal(3))

		t := Build(area, refs, WithCapacity(1))
		Expect(t.Len()).To(Equal(3))

		var got []int
		for r := range t.All() {
			Expect(arena.Get(r)).To(Equal(r.Value()))
			got = append(got, r.Value().id)
		}
		Expect(got).To(ConsistOf(0, 1, 2))
		Expect(t.root.elements).To(Equal([]Ref[box]{refs[2]}))
		Expect(refs[1].Index()).To(Equal(1))
	})

	It("hands out stable, comparable references", func() {
		a := NewArena[box](0)
		r1 := a.Add(unit(0, 1, 1))
		r2 := a.Add(unit(1, 2, 2))
		Expect(r1).NotTo(Equal(r2))
		Expect(r1.Bounds()).To(Equal(Bounds{X: 1, Y: 1, Width: 1, Height: 1}))
		Expect(a.Get(r2).id).To(Equal(1))
	})
})
