package packing

// rect is an axis-aligned rectangle in integer millimetres.
type rect struct {
	x, y, w, h int
}

// overlaps reports whether two rectangles share interior area. Touching
// edges do not overlap.
func overlaps(a, b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// inflate grows a rectangle by k on every side.
func (r rect) inflate(k int) rect {
	return rect{x: r.x - k, y: r.y - k, w: r.w + 2*k, h: r.h + 2*k}
}

// contains reports whether outer fully contains inner.
func contains(outer, inner rect) bool {
	return outer.x <= inner.x && outer.y <= inner.y &&
		outer.x+outer.w >= inner.x+inner.w &&
		outer.y+outer.h >= inner.y+inner.h
}
