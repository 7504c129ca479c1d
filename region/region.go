// SPDX-License-Identifier: Unlicense OR MIT

// Package region implements sets of pixels described by
// non-overlapping integer rectangles, used for frame damage.
package region

import (
	"image"
)

// Region is an immutable set of pixels. The zero value is empty.
type Region struct {
	rects []image.Rectangle
}

// New returns the union of rects.
func New(rects ...image.Rectangle) Region {
	var r Region
	for _, rect := range rects {
		r = r.UnionRect(rect)
	}
	return r
}

// Empty reports whether r contains no pixels.
func (r Region) Empty() bool {
	return len(r.rects) == 0
}

// Rects returns the disjoint rectangles making up r.
func (r Region) Rects() []image.Rectangle {
	return append([]image.Rectangle(nil), r.rects...)
}

// Bounds returns the smallest rectangle containing r.
func (r Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, rect := range r.rects {
		b = b.Union(rect)
	}
	return b
}

// Area returns the number of pixels in r.
func (r Region) Area() int {
	a := 0
	for _, rect := range r.rects {
		a += rect.Dx() * rect.Dy()
	}
	return a
}

// UnionRect returns r with rect added.
func (r Region) UnionRect(rect image.Rectangle) Region {
	if rect.Empty() {
		return r
	}
	pieces := []image.Rectangle{rect}
	for _, have := range r.rects {
		pieces = subtractAll(pieces, have)
		if len(pieces) == 0 {
			return r
		}
	}
	rects := make([]image.Rectangle, 0, len(r.rects)+len(pieces))
	rects = append(rects, r.rects...)
	rects = append(rects, pieces...)
	return Region{rects: rects}
}

// Union returns the pixels in r or o.
func (r Region) Union(o Region) Region {
	for _, rect := range o.rects {
		r = r.UnionRect(rect)
	}
	return r
}

// Subtract returns the pixels in r but not in o.
func (r Region) Subtract(o Region) Region {
	rects := r.rects
	for _, cut := range o.rects {
		rects = subtractAll(rects, cut)
	}
	return Region{rects: rects}
}

// Intersect returns the pixels of r inside rect.
func (r Region) Intersect(rect image.Rectangle) Region {
	var rects []image.Rectangle
	for _, have := range r.rects {
		if i := have.Intersect(rect); !i.Empty() {
			rects = append(rects, i)
		}
	}
	return Region{rects: rects}
}

// ContainsRect reports whether every pixel of rect is in r.
func (r Region) ContainsRect(rect image.Rectangle) bool {
	return New(rect).Subtract(r).Empty()
}

// Equal reports whether r and o contain the same pixels.
func (r Region) Equal(o Region) bool {
	return r.Subtract(o).Empty() && o.Subtract(r).Empty()
}

// Scale returns r with every coordinate multiplied by s.
func (r Region) Scale(s int) Region {
	rects := make([]image.Rectangle, len(r.rects))
	for i, rect := range r.rects {
		rects[i] = image.Rectangle{Min: rect.Min.Mul(s), Max: rect.Max.Mul(s)}
	}
	return Region{rects: rects}
}

func subtractAll(rects []image.Rectangle, cut image.Rectangle) []image.Rectangle {
	var out []image.Rectangle
	for _, rect := range rects {
		out = append(out, subtract(rect, cut)...)
	}
	return out
}

// subtract splits a minus b into at most four bands: above, below, left
// and right of the overlap.
func subtract(a, b image.Rectangle) []image.Rectangle {
	i := a.Intersect(b)
	if i.Empty() {
		return []image.Rectangle{a}
	}
	var out []image.Rectangle
	if a.Min.Y < i.Min.Y {
		out = append(out, image.Rect(a.Min.X, a.Min.Y, a.Max.X, i.Min.Y))
	}
	if i.Max.Y < a.Max.Y {
		out = append(out, image.Rect(a.Min.X, i.Max.Y, a.Max.X, a.Max.Y))
	}
	if a.Min.X < i.Min.X {
		out = append(out, image.Rect(a.Min.X, i.Min.Y, i.Min.X, i.Max.Y))
	}
	if i.Max.X < a.Max.X {
		out = append(out, image.Rect(i.Max.X, i.Min.Y, a.Max.X, i.Max.Y))
	}
	return out
}
