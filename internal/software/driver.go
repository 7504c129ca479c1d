// SPDX-License-Identifier: Unlicense OR MIT

// Package software implements a driver.Driver that renders into memory.
// Contexts are legacy only; each window drawable is a Swapchain of RGBA
// images.
package software

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gdkgo/glctx/driver"
)

// Driver is a software backend connection.
type Driver struct {
	open     bool
	next     driver.Handle
	formats  map[driver.Handle]driver.ConfigID
	chains   map[driver.Handle]*drawable
	contexts map[driver.Handle]bool
	dummies  map[driver.Handle]bool
	current  driver.Handle
	bound    driver.Handle
	interval int
}

type drawable struct {
	window driver.Handle
	// win is nil for dummy windows, which never resize.
	win   *Window
	chain *Swapchain
}

var (
	// ContextVersion is the version reported by software contexts.
	ContextVersion = driver.Version{Major: 1, Minor: 0}

	errAttribs = errors.New("software: context attributes not supported")
)

// pixelFormat is a software format: the surface configuration of its
// colour buffers plus the ancillary depth buffer.
type pixelFormat struct {
	id     driver.ConfigID
	format gputypes.TextureFormat
	depth  gputypes.TextureFormat
	alpha  gputypes.CompositeAlphaMode
	double bool
	swap   driver.SwapMethod
}

// pixelFormats are the formats offered to every window.
var pixelFormats = []pixelFormat{
	{1, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.CompositeAlphaModePremultiplied, true, driver.SwapExchange},
	{2, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.CompositeAlphaModeOpaque, true, driver.SwapCopy},
	{3, gputypes.TextureFormatRGBA8UnormSrgb, gputypes.TextureFormatUndefined,
		gputypes.CompositeAlphaModePremultiplied, true, driver.SwapCopy},
	{4, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatUndefined,
		gputypes.CompositeAlphaModePremultiplied, false, driver.SwapUndefined},
}

// configs describes pixelFormats, in the same order.
var configs = describeFormats(pixelFormats)

func describeFormats(pfs []pixelFormat) []driver.Config {
	res := make([]driver.Config, len(pfs))
	for i, pf := range pfs {
		res[i] = pf.config()
	}
	return res
}

func (pf pixelFormat) config() driver.Config {
	c := driver.Config{
		ID:           pf.id,
		Window:       true,
		GL:           true,
		RGBA:         true,
		DoubleBuffer: pf.double,
		Swap:         pf.swap,
		SRGB:         pf.format.IsSrgb(),
		RedBits:      8,
		GreenBits:    8,
		BlueBits:     8,
	}
	// Opaque surfaces ignore the alpha channel when composited.
	if pf.alpha != gputypes.CompositeAlphaModeOpaque {
		c.AlphaBits = 8
	}
	if pf.depth.HasDepth() {
		c.DepthBits = 24
	}
	if pf.depth.HasStencil() {
		c.StencilBits = 8
	}
	return c
}

func lookupFormat(id driver.ConfigID) (pixelFormat, error) {
	for _, pf := range pixelFormats {
		if pf.id == id {
			return pf, nil
		}
	}
	return pixelFormat{}, fmt.Errorf("software: invalid format %d", id)
}

// New returns an unopened software driver.
func New() *Driver {
	return new(Driver)
}

func (d *Driver) API() driver.API {
	return driver.APISoftware
}

func (d *Driver) Open() (driver.Version, error) {
	d.open = true
	d.formats = make(map[driver.Handle]driver.ConfigID)
	d.chains = make(map[driver.Handle]*drawable)
	d.contexts = make(map[driver.Handle]bool)
	d.dummies = make(map[driver.Handle]bool)
	return driver.Version{Major: 1, Minor: 0}, nil
}

func (d *Driver) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	var leaked int
	for h, dr := range d.chains {
		dr.chain.release()
		delete(d.chains, h)
		leaked++
	}
	if n := len(d.contexts); n > 0 || leaked > 0 {
		return fmt.Errorf("software: closed with %d contexts and %d drawables alive", n, leaked)
	}
	return nil
}

func (d *Driver) handle() driver.Handle {
	d.next++
	return d.next
}

func (d *Driver) CreateDummy() (driver.Dummy, error) {
	win := d.handle()
	d.dummies[win] = true
	pf := pixelFormats[0]
	d.formats[win] = pf.id
	draw := d.handle()
	d.chains[draw] = &drawable{window: win, chain: newSwapchain(pf, image.Pt(1, 1))}
	return driver.Dummy{Window: win, Drawable: draw, Config: pf.id}, nil
}

func (d *Driver) DestroyDummy(dm driver.Dummy) error {
	if !d.dummies[dm.Window] {
		return fmt.Errorf("software: unknown dummy window %d", dm.Window)
	}
	if dr, ok := d.chains[dm.Drawable]; ok {
		dr.chain.release()
		delete(d.chains, dm.Drawable)
	}
	delete(d.dummies, dm.Window)
	delete(d.formats, dm.Window)
	return nil
}

func (d *Driver) Extensions(drawable driver.Handle) []string {
	return nil
}

func (d *Driver) Vendor() string {
	return "glctx software"
}

func (d *Driver) Version() driver.Version {
	if d.current == 0 {
		return driver.Version{}
	}
	return ContextVersion
}

func (d *Driver) ChooseConfigs(window driver.Handle, req driver.FormatRequest) ([]driver.ConfigID, error) {
	var ids []driver.ConfigID
	for _, c := range configs {
		if req.Alpha && !c.HasAlpha() || req.DoubleBuffer && !c.DoubleBuffer {
			continue
		}
		if req.Swap != driver.SwapUndefined && c.Swap != req.Swap {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (d *Driver) DescribeConfigs(window driver.Handle) ([]driver.Config, error) {
	return append([]driver.Config(nil), configs...), nil
}

func (d *Driver) DescribeConfig(window driver.Handle, id driver.ConfigID) (driver.Config, error) {
	pf, err := lookupFormat(id)
	if err != nil {
		return driver.Config{}, err
	}
	return pf.config(), nil
}

func (d *Driver) ConfigOf(window driver.Handle) (driver.ConfigID, error) {
	return d.formats[window], nil
}

func (d *Driver) SetConfig(window driver.Handle, id driver.ConfigID) error {
	if _, ok := lookupWindow(window); !ok && !d.dummies[window] {
		return fmt.Errorf("software: unknown window %d", window)
	}
	if d.formats[window] != 0 {
		return fmt.Errorf("software: window %d already has format %d", window, d.formats[window])
	}
	if _, err := d.DescribeConfig(window, id); err != nil {
		return err
	}
	d.formats[window] = id
	return nil
}

func (d *Driver) OpenDrawable(window driver.Handle, id driver.ConfigID) (driver.Handle, error) {
	win, ok := lookupWindow(window)
	if !ok {
		return 0, fmt.Errorf("software: unknown window %d", window)
	}
	pf, err := lookupFormat(id)
	if err != nil {
		return 0, err
	}
	h := d.handle()
	d.chains[h] = &drawable{window: window, win: win, chain: newSwapchain(pf, win.pixels())}
	return h, nil
}

func (d *Driver) CloseDrawable(window, h driver.Handle) error {
	dr, ok := d.chains[h]
	if !ok || dr.window != window {
		return fmt.Errorf("software: drawable %d is not open on window %d", h, window)
	}
	if d.bound == h && d.current != 0 {
		return fmt.Errorf("software: drawable %d released while current", h)
	}
	dr.chain.release()
	delete(d.chains, h)
	return nil
}

func (d *Driver) CreateContext(drawable driver.Handle, id driver.ConfigID, share driver.Handle, attribs *driver.ContextAttribs) (driver.Handle, error) {
	if attribs != nil {
		return 0, errAttribs
	}
	if share != 0 && !d.contexts[share] {
		return 0, fmt.Errorf("software: invalid share context %d", share)
	}
	h := d.handle()
	d.contexts[h] = true
	return h, nil
}

func (d *Driver) DestroyContext(ctx driver.Handle) error {
	if !d.contexts[ctx] {
		return fmt.Errorf("software: invalid context %d", ctx)
	}
	if d.current == ctx {
		return fmt.Errorf("software: context %d destroyed while current", ctx)
	}
	delete(d.contexts, ctx)
	return nil
}

func (d *Driver) MakeCurrent(drawable, ctx driver.Handle) error {
	if ctx == 0 {
		d.current, d.bound = 0, 0
		return nil
	}
	if !d.contexts[ctx] {
		return fmt.Errorf("software: invalid context %d", ctx)
	}
	if drawable != 0 {
		if _, ok := d.chains[drawable]; !ok {
			return fmt.Errorf("software: invalid drawable %d", drawable)
		}
	}
	d.current, d.bound = ctx, drawable
	return nil
}

func (d *Driver) CurrentContext() driver.Handle {
	return d.current
}

func (d *Driver) SwapInterval(drawable driver.Handle, interval int) error {
	d.interval = interval
	return nil
}

// Swapchain returns the swap chain of an open drawable, resized to its
// window.
func (d *Driver) Swapchain(h driver.Handle) (*Swapchain, error) {
	dr, ok := d.chains[h]
	if !ok {
		return nil, driver.ErrNoSurface
	}
	if dr.win != nil {
		dr.chain.resize(dr.win.pixels())
	}
	return dr.chain, nil
}

func (d *Driver) SwapBuffers(h driver.Handle) error {
	s, err := d.Swapchain(h)
	if err != nil {
		return err
	}
	return s.Present()
}

// SwapHint does nothing: Present copies the whole back buffer.
func (d *Driver) SwapHint(h driver.Handle, rects []image.Rectangle) error {
	return nil
}

func (d *Driver) BlitRegion(h driver.Handle, rects []image.Rectangle) error {
	s, err := d.Swapchain(h)
	if err != nil {
		return err
	}
	return s.Blit(rects)
}

func (d *Driver) BufferAge(h driver.Handle) (int, bool) {
	s, err := d.Swapchain(h)
	if err != nil {
		return 0, false
	}
	return s.Age(), true
}

func (d *Driver) Finish() error {
	return nil
}

func (d *Driver) WaitVBlank(drawable driver.Handle) error {
	return nil
}
