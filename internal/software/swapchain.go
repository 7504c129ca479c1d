// SPDX-License-Identifier: Unlicense OR MIT

package software

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gdkgo/glctx/driver"
)

// Swapchain is the presentation surface of a window: a front buffer
// shown to the user and the back buffers rendered to.
type Swapchain struct {
	// Config describes the buffers. Only double buffered chains are
	// copy sources, and opaque chains present with alpha forced to one.
	Config gputypes.SurfaceConfiguration
	Swap   driver.SwapMethod

	size image.Point
	// buffers[0] is the front buffer. Single buffered chains have only
	// the front buffer.
	buffers []*image.RGBA
	// shown records the swap count when each buffer was last presented.
	shown    []int
	swaps    int
	released bool
}

func newSwapchain(pf pixelFormat, size image.Point) *Swapchain {
	s := &Swapchain{
		Config: gputypes.SurfaceConfiguration{
			Usage:     gputypes.TextureUsageRenderAttachment,
			Format:    pf.format,
			AlphaMode: pf.alpha,
		},
		Swap: pf.swap,
	}
	n := 1
	if pf.double {
		n = 2
		s.Config.Usage |= gputypes.TextureUsageCopySrc
	}
	s.buffers = make([]*image.RGBA, n)
	s.shown = make([]int, n)
	s.resize(size)
	return s
}

// resize reallocates the buffers when size changed. Buffer contents and
// ages are lost.
func (s *Swapchain) resize(size image.Point) {
	if size == s.size && s.buffers[0] != nil {
		return
	}
	s.size = size
	s.Config.Width, s.Config.Height = uint32(size.X), uint32(size.Y)
	for i := range s.buffers {
		s.buffers[i] = image.NewRGBA(image.Rectangle{Max: size})
		s.shown[i] = 0
	}
	s.swaps = 0
}

// Size returns the buffer size in device pixels.
func (s *Swapchain) Size() image.Point {
	return s.size
}

// Front returns the buffer currently presented.
func (s *Swapchain) Front() *image.RGBA {
	return s.buffers[0]
}

// Back returns the buffer to render into.
func (s *Swapchain) Back() *image.RGBA {
	return s.buffers[len(s.buffers)-1]
}

// Age returns the number of presents since the back buffer was last
// shown, or 0 when its content is undefined.
func (s *Swapchain) Age() int {
	if len(s.buffers) == 1 {
		return 1
	}
	shown := s.shown[len(s.buffers)-1]
	if shown == 0 {
		return 0
	}
	return s.swaps - shown + 1
}

// Present shows the back buffer according to the swap method.
func (s *Swapchain) Present() error {
	if s.released {
		return fmt.Errorf("software: present on released swap chain")
	}
	if len(s.buffers) == 1 {
		return nil
	}
	s.swaps++
	back := len(s.buffers) - 1
	switch s.Swap {
	case driver.SwapCopy:
		draw.Draw(s.buffers[0], s.buffers[0].Bounds(), s.buffers[back], image.Point{}, draw.Src)
		// The back buffer keeps the frame just shown.
		s.shown[back] = s.swaps
	default:
		s.buffers[0], s.buffers[back] = s.buffers[back], s.buffers[0]
		s.shown[0], s.shown[back] = s.swaps, s.shown[0]
	}
	s.composite(s.buffers[0].Bounds())
	return nil
}

// Blit copies rects, in device pixels with a top left origin, from the
// back to the front buffer.
func (s *Swapchain) Blit(rects []image.Rectangle) error {
	if s.released {
		return fmt.Errorf("software: blit on released swap chain")
	}
	// A single buffer is rendered and shown in place.
	if !s.Config.Usage.Contains(gputypes.TextureUsageCopySrc) {
		return nil
	}
	front, back := s.buffers[0], s.Back()
	for _, r := range rects {
		r = r.Intersect(front.Bounds())
		draw.Draw(front, r, back, r.Min, draw.Src)
		s.composite(r)
	}
	// The back buffer still holds the complete frame.
	s.swaps++
	s.shown[0] = s.swaps
	s.shown[len(s.buffers)-1] = s.swaps
	return nil
}

// composite applies the alpha mode to r of the front buffer.
func (s *Swapchain) composite(r image.Rectangle) {
	if s.Config.AlphaMode != gputypes.CompositeAlphaModeOpaque {
		return
	}
	front := s.buffers[0]
	r = r.Intersect(front.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := front.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			front.Pix[i+3] = 0xff
			i += 4
		}
	}
}

func (s *Swapchain) release() {
	s.released = true
	s.buffers = nil
	s.shown = nil
}
