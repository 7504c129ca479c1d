// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"image"

	"github.com/gdkgo/glctx/driver"
)

// Surface is the native window a context renders to.
type Surface interface {
	NativeHandle() driver.Handle
	// Size returns the size in logical pixels.
	Size() image.Point
	// Scale returns the device pixel scale factor.
	Scale() int
}

// transparentSurface is implemented by surfaces that need an alpha
// channel.
type transparentSurface interface {
	Transparent() bool
}

// resizingSurface is implemented by surfaces that queue size changes
// until the next frame.
type resizingSurface interface {
	// ApplyPendingResize applies any queued size change and reports
	// whether the size changed.
	ApplyPendingResize() bool
}

// ESMode selects between desktop GL and GL ES.
type ESMode uint8

const (
	// ESAuto lets the backend and the shared context decide.
	ESAuto ESMode = iota
	ESYes
	ESNo
)

// ContextOption configures a Context before it is realized.
type ContextOption func(c *Context)

// Share makes the new context share objects with parent.
func Share(parent *Context) ContextOption {
	return func(c *Context) {
		c.share = parent
	}
}

// Attached controls whether the context presents to its surface. A
// detached context renders offscreen.
func Attached(attached bool) ContextOption {
	return func(c *Context) {
		c.attached = attached && c.surface != nil
	}
}

// Alpha requests a pixel format with an alpha channel.
func Alpha(alpha bool) ContextOption {
	return func(c *Context) {
		c.alpha = alpha
	}
}

// RequiredVersion sets the minimum version requested. Zero selects the
// default for the API.
func RequiredVersion(major, minor int) ContextOption {
	return func(c *Context) {
		c.required = driver.Version{Major: major, Minor: minor}
	}
}

func DebugEnabled(enabled bool) ContextOption {
	return func(c *Context) {
		c.debug = enabled
	}
}

func ForwardCompatible(enabled bool) ContextOption {
	return func(c *Context) {
		c.forwardCompat = enabled
	}
}

func UseES(mode ESMode) ContextOption {
	return func(c *Context) {
		c.useES = mode
	}
}

// Context is a native rendering context, optionally attached to a
// surface.
type Context struct {
	disp    *Display
	surface Surface
	share   *Context

	attached      bool
	alpha         bool
	required      driver.Version
	debug         bool
	forwardCompat bool
	useES         ESMode

	realized   bool
	realizeErr error
	// released is set once the owner let go; destroyed once the native
	// objects are gone. A parent with children stays alive in between.
	released  bool
	destroyed bool
	children  int

	handle    driver.Handle
	drawable  driver.Handle
	format    *PixelFormat
	offscreen bool
	version   driver.Version
	legacy    bool
	gles      bool
	// interval is the swap interval last set, or -1.
	interval int

	frame frame
}

// NewContext returns an unrealized context for s. A nil surface creates
// an offscreen context. No native calls are made until Realize.
func (d *Display) NewContext(s Surface, opts ...ContextOption) (*Context, error) {
	if d.closed {
		return nil, newError("NewContext", driver.APINone, ErrReleased, nil)
	}
	c := &Context{
		disp:     d,
		surface:  s,
		attached: s != nil,
		interval: -1,
	}
	if t, ok := s.(transparentSurface); ok {
		c.alpha = t.Transparent()
	}
	for _, o := range opts {
		o(c)
	}
	if c.share != nil && c.share.disp != d {
		panic("shared context belongs to another display")
	}
	return c, nil
}

// Apply changes options of an unrealized context.
func (c *Context) Apply(opts ...ContextOption) {
	if c.realized {
		panic("context options changed after realize")
	}
	for _, o := range opts {
		o(c)
	}
}

// Realize selects and applies a pixel format and creates the native
// context. It is idempotent: later calls return the first result.
func (c *Context) Realize() error {
	if c.released {
		return newError("Realize", driver.APINone, ErrReleased, nil)
	}
	if !c.realized {
		c.realized = true
		c.realizeErr = c.disp.create(c)
	}
	return c.realizeErr
}

// MakeCurrent realizes c if needed and binds it to the display thread.
func (c *Context) MakeCurrent() error {
	if err := c.Realize(); err != nil {
		return err
	}
	d := c.disp
	if d.current == c && d.drv.CurrentContext() == c.handle {
		return nil
	}
	if err := d.bind(c); err != nil {
		return newError("MakeCurrent", d.caps.API, ErrNotAvailable, err)
	}
	c.syncFrames()
	return nil
}

// syncFrames applies the configured swap interval to attached contexts.
func (c *Context) syncFrames() {
	d := c.disp
	if !c.attached || !d.caps.SwapControl {
		return
	}
	interval := 0
	if d.cfg.VSync {
		interval = 1
	}
	if interval == c.interval {
		return
	}
	if err := d.drv.SwapInterval(c.drawable, interval); err != nil {
		d.log.Warn("Failed to set swap interval", "interval", interval, "err", err)
		return
	}
	c.interval = interval
}

// IsCurrent reports whether c is bound to the display thread.
func (c *Context) IsCurrent() bool {
	return c.disp.current == c
}

// Display returns the display c was created on.
func (c *Context) Display() *Display {
	return c.disp
}

// Surface returns the surface of c, or nil for offscreen contexts.
func (c *Context) Surface() Surface {
	return c.surface
}

// Attached reports whether c presents to its surface.
func (c *Context) Attached() bool {
	return c.attached
}

// Version returns the negotiated version. It is zero before a successful
// Realize.
func (c *Context) Version() driver.Version {
	return c.version
}

// IsLegacy reports whether c is a legacy or compatibility profile
// context.
func (c *Context) IsLegacy() bool {
	return c.legacy
}

// UsesES reports whether c is a GL ES context.
func (c *Context) UsesES() bool {
	return c.gles
}

// SharedContext returns the context c shares objects with, or nil.
func (c *Context) SharedContext() *Context {
	return c.share
}

// Format returns the pixel format of the surface, or nil for offscreen
// contexts.
func (c *Context) Format() *PixelFormat {
	return c.format
}

// NativeHandle returns the native context handle.
func (c *Context) NativeHandle() driver.Handle {
	return c.handle
}

// Drawable returns the native drawable the context renders to: the
// window drawable, the offscreen pairing or zero when surfaceless.
func (c *Context) Drawable() driver.Handle {
	return c.drawable
}
