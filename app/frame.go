// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"image"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/region"
)

// ErrPresentFailed is returned when the native present call fails.
var ErrPresentFailed = errors.New("present failed")

// Decision is the presentation strategy chosen for a frame.
type Decision uint8

const (
	// FullSwap swaps the whole back buffer to the front.
	FullSwap Decision = iota
	// PartialBlit copies the painted region from back to front without
	// swapping.
	PartialBlit
)

// Depth is the per channel storage of the framebuffer.
type Depth uint8

const (
	DepthU8 Depth = iota
	// DepthU8SRGB stores 8 bits per channel and encodes to sRGB on
	// write.
	DepthU8SRGB
)

// ColorSpace is the space rendering should produce values in.
type ColorSpace uint8

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceSRGBLinear
)

// FrameDamage describes the regions of a frame.
type FrameDamage struct {
	// Requested is the region passed to BeginFrame.
	Requested region.Region
	// Repaint is the region the renderer must paint: the requested
	// region plus damage carried from earlier frames.
	Repaint  region.Region
	Decision Decision
}

type frameStage uint8

const (
	stageIdle frameStage = iota
	stageBegun
	stagePainted
	stagePresented
)

type frame struct {
	stage frameStage
	// updated holds the regions requested by recent frames, most recent
	// first.
	updated []region.Region
	size    image.Point
	scale   int
	damage  FrameDamage
	// hint is the changed part of a full swap, for backends that accept
	// swap hint rectangles.
	hint region.Region
}

func (d Decision) String() string {
	switch d {
	case FullSwap:
		return "full-swap"
	case PartialBlit:
		return "partial-blit"
	default:
		panic("invalid decision")
	}
}

// BeginFrame starts a frame repainting at least req, given in logical
// pixels. It returns the colour space and depth to render with.
func (c *Context) BeginFrame(req region.Region) (ColorSpace, Depth, error) {
	if err := c.checkFrame("BeginFrame", stageIdle); err != nil {
		return 0, 0, err
	}
	c.resolveResize()
	if err := c.MakeCurrent(); err != nil {
		return 0, 0, err
	}
	d := c.disp
	f := &c.frame
	whole := image.Rectangle{Max: f.size}
	damage := c.damage(whole)

	// Remember what this frame asked for, before carried damage.
	limit := d.cfg.MaxTrackedBuffers
	f.updated = append([]region.Region{req}, f.updated...)
	if len(f.updated) > limit {
		f.updated = f.updated[:limit]
	}

	repaint := req.Union(damage).Intersect(whole)
	decision := FullSwap
	if !repaint.ContainsRect(whole) && d.caps.FramebufferBlit && c.format.Config.DoubleBuffer {
		decision = PartialBlit
	}
	f.hint = region.Region{}
	if decision == FullSwap {
		if d.caps.SwapHint && !repaint.ContainsRect(whole) {
			f.hint = repaint
		}
		repaint = region.New(whole)
	}
	f.damage = FrameDamage{Requested: req, Repaint: repaint, Decision: decision}
	f.stage = stageBegun

	cs, depth := ColorSpaceSRGB, DepthU8
	if c.format.Config.SRGB && d.caps.ColorSpace {
		cs, depth = ColorSpaceSRGBLinear, DepthU8SRGB
	}
	return cs, depth, nil
}

// damage returns the region of the back buffer that no longer holds the
// content of the previous frame.
func (c *Context) damage(whole image.Rectangle) region.Region {
	d := c.disp
	f := &c.frame
	cfg := c.format.Config
	if !cfg.DoubleBuffer {
		return region.Region{}
	}
	if d.caps.BufferAge {
		if age, ok := d.drv.BufferAge(c.drawable); ok {
			if age == 0 || age-1 > len(f.updated) {
				return region.New(whole)
			}
			var r region.Region
			for _, u := range f.updated[:age-1] {
				r = r.Union(u)
			}
			return r
		}
	}
	switch cfg.Swap {
	case driver.SwapCopy:
		return region.Region{}
	case driver.SwapExchange:
		if len(f.updated) > 0 {
			return f.updated[0]
		}
	}
	return region.New(whole)
}

// EndFrame presents the frame. Under PartialBlit exactly painted is
// copied to the front buffer; a resize since BeginFrame forces a full
// swap.
func (c *Context) EndFrame(painted region.Region) error {
	if err := c.checkFrame("EndFrame", stageBegun); err != nil {
		return err
	}
	d := c.disp
	f := &c.frame
	f.stage = stagePainted
	defer func() {
		f.stage = stageIdle
	}()
	if c.resolveResize() {
		f.damage.Decision = FullSwap
		f.damage.Repaint = region.New(image.Rectangle{Max: f.size})
		f.hint = region.Region{}
	}
	if d.caps.SyncControl && d.cfg.VSync {
		if err := d.drv.Finish(); err != nil {
			return newError("EndFrame", d.caps.API, ErrPresentFailed, err)
		}
		if err := d.drv.WaitVBlank(c.drawable); err != nil {
			d.log.Debug("Vertical blank wait failed", "err", err)
		}
	}
	var err error
	switch f.damage.Decision {
	case FullSwap:
		if !f.hint.Empty() {
			if err := d.drv.SwapHint(c.drawable, c.nativeRects(f.hint)); err != nil {
				d.log.Debug("Swap hint failed", "err", err)
			}
		}
		err = d.drv.SwapBuffers(c.drawable)
	case PartialBlit:
		err = d.drv.BlitRegion(c.drawable, c.nativeRects(painted))
	}
	if err != nil {
		return newError("EndFrame", d.caps.API, ErrPresentFailed, err)
	}
	f.stage = stagePresented
	return nil
}

// nativeRects converts painted to device pixels in the native
// framebuffer orientation.
func (c *Context) nativeRects(painted region.Region) []image.Rectangle {
	f := &c.frame
	h := f.size.Y
	var rects []image.Rectangle
	for _, r := range painted.Intersect(image.Rectangle{Max: f.size}).Rects() {
		if c.disp.caps.BottomLeftOrigin {
			r.Min.Y, r.Max.Y = h-r.Max.Y, h-r.Min.Y
		}
		rects = append(rects, image.Rectangle{Min: r.Min.Mul(f.scale), Max: r.Max.Mul(f.scale)})
	}
	return rects
}

// EmptyFrame handles a redraw that presents nothing, such as a size
// only update.
func (c *Context) EmptyFrame() error {
	if err := c.checkFrame("EmptyFrame", stageIdle); err != nil {
		return err
	}
	c.resolveResize()
	return nil
}

// Frame returns the damage of the current or last frame.
func (c *Context) Frame() FrameDamage {
	return c.frame.damage
}

// resolveResize applies a pending resize and reads the surface
// geometry. When it changed, tracked damage is dropped and true is
// returned.
func (c *Context) resolveResize() bool {
	if r, ok := c.surface.(resizingSurface); ok {
		r.ApplyPendingResize()
	}
	f := &c.frame
	size, scale := c.surface.Size(), c.surface.Scale()
	if scale < 1 {
		scale = 1
	}
	if size == f.size && scale == f.scale {
		return false
	}
	first := f.scale == 0
	f.size, f.scale = size, scale
	f.updated = nil
	if !first {
		c.disp.log.Debug("Surface resized", "window", c.surface.NativeHandle(), "size", size, "scale", scale)
	}
	return !first
}

func (c *Context) checkFrame(op string, want frameStage) error {
	if c.released {
		return newError(op, c.disp.caps.API, ErrReleased, nil)
	}
	if !c.attached {
		return errorf(op, c.disp.caps.API, ErrFrameState, "context has no surface")
	}
	if err := c.Realize(); err != nil {
		return err
	}
	if c.frame.stage != want {
		return errorf(op, c.disp.caps.API, ErrFrameState, "frame is %s", c.frame.stage)
	}
	return nil
}

func (s frameStage) String() string {
	switch s {
	case stageIdle:
		return "idle"
	case stageBegun:
		return "begun"
	case stagePainted:
		return "painted"
	case stagePresented:
		return "presented"
	default:
		panic("invalid frame stage")
	}
}
