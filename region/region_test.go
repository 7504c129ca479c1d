// SPDX-License-Identifier: Unlicense OR MIT

package region

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionOverlap(t *testing.T) {
	r := New(image.Rect(0, 0, 10, 10), image.Rect(5, 5, 15, 15))
	assert.Equal(t, 100+100-25, r.Area())
	assert.Equal(t, image.Rect(0, 0, 15, 15), r.Bounds())
	for i, a := range r.Rects() {
		for j, b := range r.Rects() {
			if i != j {
				assert.True(t, a.Intersect(b).Empty(), "%v overlaps %v", a, b)
			}
		}
	}
}

func TestSubtract(t *testing.T) {
	whole := New(image.Rect(0, 0, 100, 100))
	hole := New(image.Rect(25, 25, 75, 75))
	ring := whole.Subtract(hole)
	assert.Equal(t, 100*100-50*50, ring.Area())
	assert.False(t, ring.ContainsRect(image.Rect(30, 30, 40, 40)))
	assert.True(t, ring.ContainsRect(image.Rect(0, 0, 100, 25)))
	assert.True(t, ring.Union(hole).Equal(whole))
}

func TestContainsRect(t *testing.T) {
	r := New(image.Rect(0, 0, 50, 100), image.Rect(50, 0, 100, 100))
	assert.True(t, r.ContainsRect(image.Rect(0, 0, 100, 100)))
	assert.False(t, r.ContainsRect(image.Rect(0, 0, 101, 100)))
	assert.True(t, Region{}.ContainsRect(image.Rectangle{}))
}

func TestEmpty(t *testing.T) {
	var r Region
	assert.True(t, r.Empty())
	r = r.UnionRect(image.Rectangle{})
	assert.True(t, r.Empty())
	r = r.UnionRect(image.Rect(1, 1, 2, 2))
	assert.False(t, r.Empty())
	assert.True(t, r.Subtract(r).Empty())
}

func TestIntersectAndScale(t *testing.T) {
	r := New(image.Rect(0, 0, 10, 10), image.Rect(20, 0, 30, 10))
	clipped := r.Intersect(image.Rect(5, 0, 25, 5))
	assert.Equal(t, 5*5+5*5, clipped.Area())
	scaled := New(image.Rect(1, 2, 3, 4)).Scale(2)
	assert.Equal(t, []image.Rectangle{image.Rect(2, 4, 6, 8)}, scaled.Rects())
}
