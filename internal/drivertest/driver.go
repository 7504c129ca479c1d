// SPDX-License-Identifier: Unlicense OR MIT

// Package drivertest implements an in-memory driver.Driver that records
// every native call, for testing context negotiation without a GPU.
package drivertest

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/gdkgo/glctx/driver"
)

// Driver is a fake backend. Exported fields configure its behaviour and
// may be changed between calls.
type Driver struct {
	Kind driver.API
	// Platform is the version returned by Open.
	Platform driver.Version
	// MaxVersion is the highest version modern creation accepts per
	// profile. Missing profiles accept nothing.
	MaxVersion map[driver.Profile]driver.Version
	// LegacyVersion is the version reported by legacy contexts.
	LegacyVersion driver.Version
	Exts          []string
	VendorName    string
	Configs       []driver.Config
	// Chosen overrides the result of ChooseConfigs. When nil, configs
	// matching the request are returned in enumeration order.
	Chosen []driver.ConfigID
	Age    int

	FailOpen   error
	FailLegacy error
	FailSwap   error
	FailUnbind error

	// Calls is the log of native calls in order.
	Calls []string
	// Probes counts dummy windows created.
	Probes int
	Swaps  int
	Blits  [][]image.Rectangle
	Hints  [][]image.Rectangle

	next      driver.Handle
	formats   map[driver.Handle]driver.ConfigID
	contexts  map[driver.Handle]contextInfo
	drawables map[driver.Handle]driver.Handle
	current   driver.Handle
	bound     driver.Handle
	interval  int
}

type contextInfo struct {
	version driver.Version
	legacy  bool
	profile driver.Profile
}

var errRejected = errors.New("drivertest: context attributes rejected")

// New returns a driver that accepts GL up to 4.6 (core and
// compatibility) and ES up to 3.2, with extensions typical for api.
func New(api driver.API) *Driver {
	d := &Driver{
		Kind:     api,
		Platform: driver.Version{Major: 1, Minor: 5},
		MaxVersion: map[driver.Profile]driver.Version{
			driver.ProfileCore:          {Major: 4, Minor: 6},
			driver.ProfileCompatibility: {Major: 4, Minor: 6},
			driver.ProfileES:            {Major: 3, Minor: 2},
		},
		LegacyVersion: driver.Version{Major: 4, Minor: 6},
		VendorName:    "glctx test",
		Configs: []driver.Config{
			{ID: 1, Window: true, GL: true, RGBA: true, DoubleBuffer: true, Swap: driver.SwapExchange, RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8, DepthBits: 24, StencilBits: 8},
			{ID: 2, Window: true, GL: true, RGBA: true, DoubleBuffer: true, Swap: driver.SwapCopy, RedBits: 8, GreenBits: 8, BlueBits: 8, DepthBits: 24},
			{ID: 3, Window: true, GL: true, RGBA: true, RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8},
		},
	}
	switch api {
	case driver.APIWGL:
		d.Platform = driver.Version{Major: 1, Minor: 1}
		d.Exts = []string{
			"WGL_ARB_create_context", "WGL_ARB_create_context_profile",
			"WGL_EXT_swap_control", "WGL_OML_sync_control", "WGL_ARB_pixel_format",
			"WGL_ARB_multisample", "GL_WIN_swap_hint", "GL_ARB_framebuffer_object",
		}
	case driver.APIEGL:
		d.Exts = []string{
			"EGL_KHR_create_context", "EGL_KHR_surfaceless_context",
			"EGL_EXT_buffer_age", "EGL_KHR_gl_colorspace",
		}
	}
	return d
}

func (d *Driver) log(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Driver) handle() driver.Handle {
	d.next++
	return d.next
}

// Count returns the number of logged calls starting with prefix.
func (d *Driver) Count(prefix string) int {
	n := 0
	for _, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Live reports the number of contexts not yet destroyed.
func (d *Driver) Live() int {
	return len(d.contexts)
}

// OpenDrawables reports the number of drawables not yet closed.
func (d *Driver) OpenDrawables() int {
	return len(d.drawables)
}

// Interval returns the last swap interval set.
func (d *Driver) Interval() int {
	return d.interval
}

// Format returns the config applied to window.
func (d *Driver) Format(window driver.Handle) driver.ConfigID {
	return d.formats[window]
}

func (d *Driver) API() driver.API {
	return d.Kind
}

func (d *Driver) Open() (driver.Version, error) {
	d.log("Open")
	if d.FailOpen != nil {
		return driver.Version{}, d.FailOpen
	}
	d.formats = make(map[driver.Handle]driver.ConfigID)
	d.contexts = make(map[driver.Handle]contextInfo)
	d.drawables = make(map[driver.Handle]driver.Handle)
	return d.Platform, nil
}

func (d *Driver) Close() error {
	d.log("Close")
	return nil
}

func (d *Driver) CreateDummy() (driver.Dummy, error) {
	d.log("CreateDummy")
	d.Probes++
	win := d.handle()
	id := driver.ConfigID(0)
	if len(d.Configs) > 0 {
		id = d.Configs[0].ID
	}
	d.formats[win] = id
	draw := d.handle()
	d.drawables[draw] = win
	return driver.Dummy{Window: win, Drawable: draw, Config: id}, nil
}

func (d *Driver) DestroyDummy(dm driver.Dummy) error {
	d.log("DestroyDummy")
	delete(d.drawables, dm.Drawable)
	delete(d.formats, dm.Window)
	return nil
}

func (d *Driver) Extensions(drawable driver.Handle) []string {
	return append([]string(nil), d.Exts...)
}

func (d *Driver) Vendor() string {
	return d.VendorName
}

func (d *Driver) Version() driver.Version {
	return d.contexts[d.current].version
}

func (d *Driver) ChooseConfigs(window driver.Handle, req driver.FormatRequest) ([]driver.ConfigID, error) {
	if req.Samples > 0 {
		d.log("ChooseConfigs(alpha=%v, swap=%s, samples=%d)", req.Alpha, req.Swap, req.Samples)
	} else {
		d.log("ChooseConfigs(alpha=%v, swap=%s)", req.Alpha, req.Swap)
	}
	if d.Chosen != nil {
		return d.Chosen, nil
	}
	var ids []driver.ConfigID
	for _, c := range d.Configs {
		if req.Alpha && !c.HasAlpha() || req.DoubleBuffer && !c.DoubleBuffer {
			continue
		}
		if req.Swap != driver.SwapUndefined && c.Swap != req.Swap {
			continue
		}
		if req.Samples > 0 && c.Samples < req.Samples {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (d *Driver) DescribeConfigs(window driver.Handle) ([]driver.Config, error) {
	d.log("DescribeConfigs")
	return append([]driver.Config(nil), d.Configs...), nil
}

func (d *Driver) DescribeConfig(window driver.Handle, id driver.ConfigID) (driver.Config, error) {
	for _, c := range d.Configs {
		if c.ID == id {
			return c, nil
		}
	}
	return driver.Config{}, fmt.Errorf("drivertest: no config %d", id)
}

func (d *Driver) ConfigOf(window driver.Handle) (driver.ConfigID, error) {
	return d.formats[window], nil
}

func (d *Driver) SetConfig(window driver.Handle, id driver.ConfigID) error {
	d.log("SetConfig(%d)", id)
	if d.formats[window] != 0 {
		return fmt.Errorf("drivertest: window %d already has format %d", window, d.formats[window])
	}
	d.formats[window] = id
	return nil
}

func (d *Driver) OpenDrawable(window driver.Handle, id driver.ConfigID) (driver.Handle, error) {
	d.log("OpenDrawable")
	draw := d.handle()
	d.drawables[draw] = window
	return draw, nil
}

func (d *Driver) CloseDrawable(window, drawable driver.Handle) error {
	d.log("CloseDrawable")
	if _, ok := d.drawables[drawable]; !ok {
		return fmt.Errorf("drivertest: drawable %d not open", drawable)
	}
	delete(d.drawables, drawable)
	return nil
}

func (d *Driver) CreateContext(drawable driver.Handle, id driver.ConfigID, share driver.Handle, attribs *driver.ContextAttribs) (driver.Handle, error) {
	if share != 0 {
		if _, ok := d.contexts[share]; !ok {
			return 0, fmt.Errorf("drivertest: share context %d does not exist", share)
		}
	}
	if attribs == nil {
		d.log("CreateContext(legacy)")
		if d.FailLegacy != nil {
			return 0, d.FailLegacy
		}
		h := d.handle()
		d.contexts[h] = contextInfo{version: d.LegacyVersion, legacy: true, profile: driver.ProfileCompatibility}
		return h, nil
	}
	d.log("CreateContext(%s %s)", attribs.Profile, attribs.Version)
	max, ok := d.MaxVersion[attribs.Profile]
	if !ok || attribs.Version.Less(driver.Version{Major: 1}) || max.Less(attribs.Version) {
		return 0, errRejected
	}
	h := d.handle()
	d.contexts[h] = contextInfo{version: attribs.Version, profile: attribs.Profile}
	return h, nil
}

func (d *Driver) DestroyContext(ctx driver.Handle) error {
	d.log("DestroyContext")
	if _, ok := d.contexts[ctx]; !ok {
		return fmt.Errorf("drivertest: context %d does not exist", ctx)
	}
	if ctx == d.current {
		d.current, d.bound = 0, 0
	}
	delete(d.contexts, ctx)
	return nil
}

func (d *Driver) MakeCurrent(drawable, ctx driver.Handle) error {
	if ctx == 0 {
		d.log("MakeCurrent(none)")
		if d.FailUnbind != nil {
			return d.FailUnbind
		}
		d.current, d.bound = 0, 0
		return nil
	}
	d.log("MakeCurrent")
	if _, ok := d.contexts[ctx]; !ok {
		return fmt.Errorf("drivertest: context %d does not exist", ctx)
	}
	d.current, d.bound = ctx, drawable
	return nil
}

func (d *Driver) CurrentContext() driver.Handle {
	return d.current
}

// CurrentDrawable returns the drawable bound with the current context.
func (d *Driver) CurrentDrawable() driver.Handle {
	return d.bound
}

// IsLegacy reports whether ctx was created without attributes.
func (d *Driver) IsLegacy(ctx driver.Handle) bool {
	return d.contexts[ctx].legacy
}

func (d *Driver) SwapInterval(drawable driver.Handle, interval int) error {
	d.log("SwapInterval(%d)", interval)
	d.interval = interval
	return nil
}

func (d *Driver) SwapBuffers(drawable driver.Handle) error {
	d.log("SwapBuffers")
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if d.FailSwap != nil {
		return d.FailSwap
	}
	d.Swaps++
	return nil
}

func (d *Driver) SwapHint(drawable driver.Handle, rects []image.Rectangle) error {
	d.log("SwapHint")
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	d.Hints = append(d.Hints, append([]image.Rectangle(nil), rects...))
	return nil
}

func (d *Driver) BlitRegion(drawable driver.Handle, rects []image.Rectangle) error {
	d.log("BlitRegion")
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	d.Blits = append(d.Blits, append([]image.Rectangle(nil), rects...))
	return nil
}

func (d *Driver) BufferAge(drawable driver.Handle) (int, bool) {
	if d.Age == 0 {
		return 0, false
	}
	return d.Age, true
}

func (d *Driver) Finish() error {
	d.log("Finish")
	return nil
}

func (d *Driver) WaitVBlank(drawable driver.Handle) error {
	d.log("WaitVBlank")
	return nil
}

// Window is a fake native window implementing the app package's surface
// contract.
type Window struct {
	Handle      driver.Handle
	Dims        image.Point
	ScaleFactor int
	Alpha       bool
	pending     *image.Point
}

// NewWindow returns a window with a fresh handle.
func (d *Driver) NewWindow(w, h int) *Window {
	return &Window{Handle: d.handle() + 1000, Dims: image.Pt(w, h), ScaleFactor: 1}
}

func (w *Window) NativeHandle() driver.Handle { return w.Handle }
func (w *Window) Size() image.Point           { return w.Dims }
func (w *Window) Scale() int                  { return w.ScaleFactor }
func (w *Window) Transparent() bool           { return w.Alpha }

// Resize queues a size change applied by the next ApplyPendingResize.
func (w *Window) Resize(width, height int) {
	p := image.Pt(width, height)
	w.pending = &p
}

// ResizeNow changes the size without going through the pending queue,
// as a window resized by the system between calls.
func (w *Window) ResizeNow(width, height int) {
	w.Dims = image.Pt(width, height)
}

func (w *Window) ApplyPendingResize() bool {
	if w.pending == nil {
		return false
	}
	changed := *w.pending != w.Dims
	w.Dims = *w.pending
	w.pending = nil
	return changed
}
