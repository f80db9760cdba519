package qtree

// Bounds is an axis-aligned rectangle with its origin at the top-left
// corner; Y grows downwards.
type Bounds struct {
	X, Y          float64
	Width, Height float64
}

// Bounded is implemented by everything a Tree can index.
type Bounded interface {
	Bounds() Bounds
}

func (b Bounds) MaxX() float64 { return b.X + b.Width }
func (b Bounds) MaxY() float64 { return b.Y + b.Height }

// Intersects reports whether the two rectangles overlap or touch.
func (b Bounds) Intersects(o Bounds) bool {
	return b.X <= o.MaxX() && o.X <= b.MaxX() &&
		b.Y <= o.MaxY() && o.Y <= b.MaxY()
}

// Union returns the smallest rectangle covering both.
func (b Bounds) Union(o Bounds) Bounds {
	x, y := min(b.X, o.X), min(b.Y, o.Y)
	return Bounds{
		X:      x,
		Y:      y,
		Width:  max(b.MaxX(), o.MaxX()) - x,
		Height: max(b.MaxY(), o.MaxY()) - y,
	}
}

// Pad grows the rectangle by m on every side.
func (b Bounds) Pad(m float64) Bounds {
	return Bounds{X: b.X - m, Y: b.Y - m, Width: b.Width + 2*m, Height: b.Height + 2*m}
}

type Quadrant int

const (
	TL Quadrant = iota
	TR
	BR
	BL
)

func (q Quadrant) String() string {
	switch q {
	case TL:
		return "TL"
	case TR:
		return "TR"
	case BR:
		return "BR"
	case BL:
		return "BL"
	}
	return "?"
}

// Quadrants splits b into four equal parts, indexed by Quadrant.
func (b Bounds) Quadrants() [4]Bounds {
	w, h := b.Width/2, b.Height/2
	return [4]Bounds{
		TL: {X: b.X, Y: b.Y, Width: w, Height: h},
		TR: {X: b.X + w, Y: b.Y, Width: w, Height: h},
		BR: {X: b.X + w, Y: b.Y + h, Width: w, Height: h},
		BL: {X: b.X, Y: b.Y + h, Width: w, Height: h},
	}
}

// QuadrantOf returns the quadrant of b that strictly contains e on both
// axes. An e that touches or crosses a dividing line or the outer edge has
// no quadrant.
func (b Bounds) QuadrantOf(e Bounds) (Quadrant, bool) {
	midX := b.X + b.Width/2
	midY := b.Y + b.Height/2

	left := e.X > b.X && e.MaxX() < midX
	right := e.X > midX && e.MaxX() < b.MaxX()
	top := e.Y > b.Y && e.MaxY() < midY
	bottom := e.Y > midY && e.MaxY() < b.MaxY()

	switch {
	case top && left:
		return TL, true
	case top && right:
		return TR, true
	case bottom && right:
		return BR, true
	case bottom && left:
		return BL, true
	}
	return 0, false
}

// Enclosing returns the smallest rectangle covering every element, grown by
// pad on each side.
func Enclosing[T Bounded](elems []T, pad float64) Bounds {
	if len(elems) == 0 {
		return Bounds{}.Pad(pad)
	}
	b := elems[0].Bounds()
	for _, e := range elems[1:] {
		b = b.Union(e.Bounds())
	}
	return b.Pad(pad)
}
