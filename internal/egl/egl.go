// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd || windows

// Package egl implements driver.Driver on EGL. Desktop GL contexts are
// created through eglBindAPI(EGL_OPENGL_API); GL ES contexts through
// EGL_OPENGL_ES_API.
package egl

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/gl"
)

type (
	_EGLint     int32
	_EGLDisplay uintptr
	_EGLConfig  uintptr
	_EGLContext uintptr
	_EGLSurface uintptr
)

var (
	nilEGLDisplay _EGLDisplay
	nilEGLSurface _EGLSurface
	nilEGLContext _EGLContext
	nilEGLConfig  _EGLConfig
)

const (
	_EGL_ALPHA_SIZE                        = 0x3021
	_EGL_BLUE_SIZE                         = 0x3022
	_EGL_GREEN_SIZE                        = 0x3023
	_EGL_RED_SIZE                          = 0x3024
	_EGL_DEPTH_SIZE                        = 0x3025
	_EGL_STENCIL_SIZE                      = 0x3026
	_EGL_CONFIG_CAVEAT                     = 0x3027
	_EGL_CONFIG_ID                         = 0x3028
	_EGL_SAMPLES                           = 0x3031
	_EGL_SAMPLE_BUFFERS                    = 0x3032
	_EGL_SURFACE_TYPE                      = 0x3033
	_EGL_NONE                              = 0x3038
	_EGL_COLOR_BUFFER_TYPE                 = 0x303f
	_EGL_RENDERABLE_TYPE                   = 0x3040
	_EGL_SLOW_CONFIG                       = 0x3050
	_EGL_EXTENSIONS                        = 0x3055
	_EGL_HEIGHT                            = 0x3056
	_EGL_WIDTH                             = 0x3057
	_EGL_GL_COLORSPACE_SRGB_KHR            = 0x3089
	_EGL_RGB_BUFFER                        = 0x308e
	_EGL_SWAP_BEHAVIOR                     = 0x3093
	_EGL_BUFFER_PRESERVED                  = 0x3094
	_EGL_CONTEXT_CLIENT_VERSION            = 0x3098
	_EGL_GL_COLORSPACE_KHR                 = 0x309d
	_EGL_OPENGL_ES_API                     = 0x30a0
	_EGL_OPENGL_API                        = 0x30a2
	_EGL_CONTEXT_MINOR_VERSION             = 0x30fb
	_EGL_CONTEXT_FLAGS_KHR                 = 0x30fc
	_EGL_CONTEXT_OPENGL_PROFILE_MASK       = 0x30fd
	_EGL_BUFFER_AGE_EXT                    = 0x313d
	_EGL_PBUFFER_BIT                       = 0x1
	_EGL_WINDOW_BIT                        = 0x4
	_EGL_SWAP_BEHAVIOR_PRESERVED_BIT       = 0x400
	_EGL_OPENGL_ES2_BIT                    = 0x4
	_EGL_OPENGL_BIT                        = 0x8
	_EGL_OPENGL_ES3_BIT                    = 0x40
	_EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT   = 0x1
	_EGL_CONTEXT_OPENGL_COMPAT_PROFILE_BIT = 0x2
	_EGL_CONTEXT_OPENGL_DEBUG_BIT_KHR      = 0x1
	_EGL_CONTEXT_OPENGL_FORWARD_COMPAT_BIT = 0x2
)

// Driver is an EGL display connection.
type Driver struct {
	native  NativeDisplayType
	disp    _EGLDisplay
	version driver.Version
	exts    []string
	configs map[driver.ConfigID]_EGLConfig
	// windows records the config assigned to each native window.
	windows  map[driver.Handle]driver.ConfigID
	surfaces map[driver.Handle]surface
	contexts map[driver.Handle]contextInfo
	funcs    *gl.Functions
	current  driver.Handle
}

type surface struct {
	window  driver.Handle
	config  driver.ConfigID
	pbuffer bool
}

type contextInfo struct {
	desktop bool
}

// NewDriver loads the EGL library for the native display. No display
// connection is made until Open.
func NewDriver(native NativeDisplayType) (*Driver, error) {
	if err := loadEGL(); err != nil {
		return nil, err
	}
	return &Driver{native: native}, nil
}

func (d *Driver) API() driver.API {
	return driver.APIEGL
}

func (d *Driver) Open() (driver.Version, error) {
	disp := eglGetDisplay(d.native)
	if disp == nilEGLDisplay {
		return driver.Version{}, fmt.Errorf("eglGetDisplay failed: 0x%x", eglGetError())
	}
	major, minor, ok := eglInitialize(disp)
	if !ok {
		return driver.Version{}, fmt.Errorf("eglInitialize failed: 0x%x", eglGetError())
	}
	d.disp = disp
	d.version = driver.Version{Major: int(major), Minor: int(minor)}
	d.exts = strings.Fields(eglQueryString(disp, _EGL_EXTENSIONS))
	d.configs = make(map[driver.ConfigID]_EGLConfig)
	for _, c := range eglGetConfigs(disp) {
		if id, ok := eglGetConfigAttrib(disp, c, _EGL_CONFIG_ID); ok {
			d.configs[driver.ConfigID(id)] = c
		}
	}
	if len(d.configs) == 0 {
		eglTerminate(disp)
		d.disp = nilEGLDisplay
		return driver.Version{}, errors.New("egl: display has no configs")
	}
	d.windows = make(map[driver.Handle]driver.ConfigID)
	d.surfaces = make(map[driver.Handle]surface)
	d.contexts = make(map[driver.Handle]contextInfo)
	return d.version, nil
}

func (d *Driver) Close() error {
	if d.disp == nilEGLDisplay {
		return nil
	}
	eglMakeCurrent(d.disp, nilEGLSurface, nilEGLSurface, nilEGLContext)
	var err error
	if n := len(d.contexts) + len(d.surfaces); n > 0 {
		err = fmt.Errorf("egl: closing display with %d live objects", n)
	}
	if !eglTerminate(d.disp) && err == nil {
		err = fmt.Errorf("eglTerminate failed: 0x%x", eglGetError())
	}
	eglReleaseThread()
	d.disp = nilEGLDisplay
	d.funcs = nil
	d.current = 0
	return err
}

func (d *Driver) has(ext string) bool {
	return slices.Contains(d.exts, ext)
}

func (d *Driver) colorspace() bool {
	return d.version.AtLeast(driver.Version{Major: 1, Minor: 5}) || d.has("EGL_KHR_gl_colorspace")
}

// CreateDummy creates a 1x1 pbuffer. EGL needs no window to probe.
func (d *Driver) CreateDummy() (driver.Dummy, error) {
	cfgs, ok := eglChooseConfig(d.disp, []_EGLint{
		_EGL_SURFACE_TYPE, _EGL_PBUFFER_BIT,
		_EGL_RED_SIZE, 8,
		_EGL_GREEN_SIZE, 8,
		_EGL_BLUE_SIZE, 8,
		_EGL_NONE,
	})
	if !ok || len(cfgs) == 0 {
		return driver.Dummy{}, fmt.Errorf("eglChooseConfig for pbuffer failed: 0x%x", eglGetError())
	}
	id, _ := eglGetConfigAttrib(d.disp, cfgs[0], _EGL_CONFIG_ID)
	surf := eglCreatePbufferSurface(d.disp, cfgs[0], []_EGLint{_EGL_WIDTH, 1, _EGL_HEIGHT, 1, _EGL_NONE})
	if surf == nilEGLSurface {
		return driver.Dummy{}, fmt.Errorf("eglCreatePbufferSurface failed: 0x%x", eglGetError())
	}
	h := driver.Handle(surf)
	d.surfaces[h] = surface{config: driver.ConfigID(id), pbuffer: true}
	return driver.Dummy{Drawable: h, Config: driver.ConfigID(id)}, nil
}

func (d *Driver) DestroyDummy(dm driver.Dummy) error {
	return d.CloseDrawable(dm.Window, dm.Drawable)
}

func (d *Driver) Extensions(drawable driver.Handle) []string {
	exts := slices.Clone(d.exts)
	if d.funcs != nil {
		exts = append(exts, d.funcs.Extensions(d.Version().Major)...)
	}
	return exts
}

func (d *Driver) Vendor() string {
	if d.funcs == nil {
		return ""
	}
	return d.funcs.GetString(gl.VENDOR)
}

func (d *Driver) Version() driver.Version {
	if d.funcs == nil {
		return driver.Version{}
	}
	v, err := driver.ParseVersion(d.funcs.GetString(gl.VERSION))
	if err != nil {
		return driver.Version{}
	}
	return v
}

func (d *Driver) ChooseConfigs(window driver.Handle, req driver.FormatRequest) ([]driver.ConfigID, error) {
	attribs, ok := configAttribs(req)
	if !ok {
		return nil, nil
	}
	cfgs, ok := eglChooseConfig(d.disp, attribs)
	if !ok {
		return nil, fmt.Errorf("eglChooseConfig failed: 0x%x", eglGetError())
	}
	var ids []driver.ConfigID
	for _, c := range cfgs {
		if id, ok := eglGetConfigAttrib(d.disp, c, _EGL_CONFIG_ID); ok {
			ids = append(ids, driver.ConfigID(id))
		}
	}
	return ids, nil
}

// configAttribs returns the eglChooseConfig attributes for req. EGL
// has no exchange swap, so such requests match nothing.
func configAttribs(req driver.FormatRequest) ([]_EGLint, bool) {
	if req.Swap == driver.SwapExchange {
		return nil, false
	}
	surfType := _EGLint(_EGL_WINDOW_BIT)
	if req.Swap == driver.SwapCopy {
		surfType |= _EGL_SWAP_BEHAVIOR_PRESERVED_BIT
	}
	bits := _EGLint(req.ColorBits / 3)
	if bits < 8 {
		bits = 8
	}
	attribs := []_EGLint{
		_EGL_SURFACE_TYPE, surfType,
		_EGL_COLOR_BUFFER_TYPE, _EGL_RGB_BUFFER,
		_EGL_CONFIG_CAVEAT, _EGL_NONE,
		_EGL_RED_SIZE, bits,
		_EGL_GREEN_SIZE, bits,
		_EGL_BLUE_SIZE, bits,
	}
	if req.Alpha {
		attribs = append(attribs, _EGL_ALPHA_SIZE, 8)
	}
	if req.Samples > 0 {
		attribs = append(attribs, _EGL_SAMPLE_BUFFERS, 1, _EGL_SAMPLES, _EGLint(req.Samples))
	}
	return append(attribs, _EGL_NONE), true
}

func (d *Driver) DescribeConfigs(window driver.Handle) ([]driver.Config, error) {
	ids := maps.Keys(d.configs)
	slices.Sort(ids)
	res := make([]driver.Config, 0, len(ids))
	for _, id := range ids {
		res = append(res, d.describe(d.configs[id]))
	}
	return res, nil
}

func (d *Driver) DescribeConfig(window driver.Handle, id driver.ConfigID) (driver.Config, error) {
	cfg, ok := d.configs[id]
	if !ok {
		return driver.Config{}, fmt.Errorf("egl: no config %d", id)
	}
	return d.describe(cfg), nil
}

func (d *Driver) describe(cfg _EGLConfig) driver.Config {
	attr := func(a _EGLint) int {
		v, _ := eglGetConfigAttrib(d.disp, cfg, a)
		return int(v)
	}
	surfType := attr(_EGL_SURFACE_TYPE)
	c := driver.Config{
		ID:     driver.ConfigID(attr(_EGL_CONFIG_ID)),
		Window: surfType&_EGL_WINDOW_BIT != 0,
		GL:     attr(_EGL_RENDERABLE_TYPE)&(_EGL_OPENGL_BIT|_EGL_OPENGL_ES2_BIT|_EGL_OPENGL_ES3_BIT) != 0,
		RGBA:   attr(_EGL_COLOR_BUFFER_TYPE) == _EGL_RGB_BUFFER,
		// Window surfaces always render to a back buffer.
		DoubleBuffer: true,
		Generic:      attr(_EGL_CONFIG_CAVEAT) == _EGL_SLOW_CONFIG,
		RedBits:      attr(_EGL_RED_SIZE),
		GreenBits:    attr(_EGL_GREEN_SIZE),
		BlueBits:     attr(_EGL_BLUE_SIZE),
		AlphaBits:    attr(_EGL_ALPHA_SIZE),
		DepthBits:    attr(_EGL_DEPTH_SIZE),
		StencilBits:  attr(_EGL_STENCIL_SIZE),
		Samples:      attr(_EGL_SAMPLES),
	}
	if surfType&_EGL_SWAP_BEHAVIOR_PRESERVED_BIT != 0 {
		c.Swap = driver.SwapCopy
	}
	c.SRGB = d.colorspace() && c.RedBits == 8 && c.GreenBits == 8 && c.BlueBits == 8
	return c
}

func (d *Driver) ConfigOf(window driver.Handle) (driver.ConfigID, error) {
	return d.windows[window], nil
}

func (d *Driver) SetConfig(window driver.Handle, id driver.ConfigID) error {
	if prev := d.windows[window]; prev != 0 {
		return fmt.Errorf("egl: window %#x already uses config %d", window, prev)
	}
	if _, ok := d.configs[id]; !ok {
		return fmt.Errorf("egl: no config %d", id)
	}
	d.windows[window] = id
	return nil
}

func (d *Driver) OpenDrawable(window driver.Handle, id driver.ConfigID) (driver.Handle, error) {
	cfg, ok := d.configs[id]
	if !ok {
		return 0, fmt.Errorf("egl: no config %d", id)
	}
	desc := d.describe(cfg)
	var attribs []_EGLint
	if desc.SRGB {
		attribs = append(attribs, _EGL_GL_COLORSPACE_KHR, _EGL_GL_COLORSPACE_SRGB_KHR)
	}
	attribs = append(attribs, _EGL_NONE)
	surf := eglCreateWindowSurface(d.disp, cfg, NativeWindowType(window), attribs)
	if surf == nilEGLSurface && desc.SRGB {
		// Try again without sRGB.
		surf = eglCreateWindowSurface(d.disp, cfg, NativeWindowType(window), []_EGLint{_EGL_NONE})
	}
	if surf == nilEGLSurface {
		return 0, fmt.Errorf("eglCreateWindowSurface failed: 0x%x", eglGetError())
	}
	if desc.Swap == driver.SwapCopy {
		eglSurfaceAttrib(d.disp, surf, _EGL_SWAP_BEHAVIOR, _EGL_BUFFER_PRESERVED)
	}
	h := driver.Handle(surf)
	d.surfaces[h] = surface{window: window, config: id}
	return h, nil
}

func (d *Driver) CloseDrawable(window, drawable driver.Handle) error {
	if _, ok := d.surfaces[drawable]; !ok {
		return fmt.Errorf("egl: surface %#x is not open", drawable)
	}
	delete(d.surfaces, drawable)
	if !eglDestroySurface(d.disp, _EGLSurface(drawable)) {
		return fmt.Errorf("eglDestroySurface failed: 0x%x", eglGetError())
	}
	return nil
}

func (d *Driver) CreateContext(drawable driver.Handle, id driver.ConfigID, share driver.Handle, attribs *driver.ContextAttribs) (driver.Handle, error) {
	cfg := nilEGLConfig
	if id != 0 {
		c, ok := d.configs[id]
		if !ok {
			return 0, fmt.Errorf("egl: no config %d", id)
		}
		cfg = c
	}
	api, ctxAttribs := contextAttribs(attribs)
	desktop := api == _EGL_OPENGL_API
	if !eglBindAPI(api) {
		if attribs != nil {
			return 0, fmt.Errorf("eglBindAPI(0x%x) failed: 0x%x", api, eglGetError())
		}
		// Without desktop GL, fall back to OpenGL ES 2 and rely on
		// extensions.
		if !eglBindAPI(_EGL_OPENGL_ES_API) {
			return 0, fmt.Errorf("eglBindAPI failed: 0x%x", eglGetError())
		}
		desktop = false
		ctxAttribs = []_EGLint{_EGL_CONTEXT_CLIENT_VERSION, 2, _EGL_NONE}
	}
	ctx := eglCreateContext(d.disp, cfg, _EGLContext(share), ctxAttribs)
	if ctx == nilEGLContext {
		return 0, fmt.Errorf("eglCreateContext failed: 0x%x", eglGetError())
	}
	h := driver.Handle(ctx)
	d.contexts[h] = contextInfo{desktop: desktop}
	return h, nil
}

// contextAttribs returns the client API and eglCreateContext attributes
// for attribs. A nil attribs requests a desktop context of any version.
func contextAttribs(attribs *driver.ContextAttribs) (_EGLint, []_EGLint) {
	if attribs == nil {
		return _EGL_OPENGL_API, []_EGLint{_EGL_NONE}
	}
	api := _EGLint(_EGL_OPENGL_API)
	list := []_EGLint{
		_EGL_CONTEXT_CLIENT_VERSION, _EGLint(attribs.Version.Major),
		_EGL_CONTEXT_MINOR_VERSION, _EGLint(attribs.Version.Minor),
	}
	var flags _EGLint
	switch attribs.Profile {
	case driver.ProfileES:
		api = _EGL_OPENGL_ES_API
	case driver.ProfileCore:
		list = append(list, _EGL_CONTEXT_OPENGL_PROFILE_MASK, _EGL_CONTEXT_OPENGL_CORE_PROFILE_BIT)
		if attribs.ForwardCompatible {
			flags |= _EGL_CONTEXT_OPENGL_FORWARD_COMPAT_BIT
		}
	case driver.ProfileCompatibility:
		list = append(list, _EGL_CONTEXT_OPENGL_PROFILE_MASK, _EGL_CONTEXT_OPENGL_COMPAT_PROFILE_BIT)
	}
	if attribs.Debug {
		flags |= _EGL_CONTEXT_OPENGL_DEBUG_BIT_KHR
	}
	if flags != 0 {
		list = append(list, _EGL_CONTEXT_FLAGS_KHR, flags)
	}
	return api, append(list, _EGL_NONE)
}

func (d *Driver) DestroyContext(ctx driver.Handle) error {
	if _, ok := d.contexts[ctx]; !ok {
		return fmt.Errorf("egl: context %#x does not exist", ctx)
	}
	delete(d.contexts, ctx)
	if ctx == d.current {
		d.current = 0
	}
	if !eglDestroyContext(d.disp, _EGLContext(ctx)) {
		return fmt.Errorf("eglDestroyContext failed: 0x%x", eglGetError())
	}
	return nil
}

func (d *Driver) MakeCurrent(drawable, ctx driver.Handle) error {
	surf := _EGLSurface(drawable)
	if ctx == 0 {
		surf = nilEGLSurface
	}
	if !eglMakeCurrent(d.disp, surf, surf, _EGLContext(ctx)) {
		return fmt.Errorf("eglMakeCurrent failed: 0x%x", eglGetError())
	}
	d.current = ctx
	if ctx != 0 && d.funcs == nil {
		f, err := gl.Load(glProc)
		if err != nil {
			return err
		}
		d.funcs = f
	}
	return nil
}

func (d *Driver) CurrentContext() driver.Handle {
	return driver.Handle(eglGetCurrentContext())
}

func (d *Driver) SwapInterval(drawable driver.Handle, interval int) error {
	if !eglSwapInterval(d.disp, _EGLint(interval)) {
		return fmt.Errorf("eglSwapInterval failed: 0x%x", eglGetError())
	}
	return nil
}

func (d *Driver) SwapBuffers(drawable driver.Handle) error {
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if !eglSwapBuffers(d.disp, _EGLSurface(drawable)) {
		return fmt.Errorf("eglSwapBuffers failed: 0x%x", eglGetError())
	}
	return nil
}

// SwapHint does nothing: EGL passes damage with the swap itself.
func (d *Driver) SwapHint(drawable driver.Handle, rects []image.Rectangle) error {
	return nil
}

// BlitRegion copies rects to the front buffer of desktop contexts. GL ES
// has no front buffer access; there the damage is passed to
// eglSwapBuffersWithDamage when available.
func (d *Driver) BlitRegion(drawable driver.Handle, rects []image.Rectangle) error {
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if c, ok := d.contexts[d.current]; ok && c.desktop && d.funcs != nil && d.funcs.CanBlit() {
		return d.funcs.BlitRegion(rects)
	}
	if d.has("EGL_KHR_swap_buffers_with_damage") || d.has("EGL_EXT_swap_buffers_with_damage") {
		if eglSwapBuffersWithDamage(d.disp, _EGLSurface(drawable), damageRects(rects)) {
			return nil
		}
	}
	return d.SwapBuffers(drawable)
}

// damageRects flattens rects to x, y, width, height quadruples.
func damageRects(rects []image.Rectangle) []_EGLint {
	res := make([]_EGLint, 0, 4*len(rects))
	for _, r := range rects {
		res = append(res, _EGLint(r.Min.X), _EGLint(r.Min.Y), _EGLint(r.Dx()), _EGLint(r.Dy()))
	}
	return res
}

func (d *Driver) BufferAge(drawable driver.Handle) (int, bool) {
	if drawable == 0 || !d.has("EGL_EXT_buffer_age") {
		return 0, false
	}
	age, ok := eglQuerySurface(d.disp, _EGLSurface(drawable), _EGL_BUFFER_AGE_EXT)
	return int(age), ok
}

func (d *Driver) Finish() error {
	if d.funcs == nil {
		return errors.New("egl: no current context")
	}
	d.funcs.Finish()
	return nil
}

// WaitVBlank waits for client rendering only: EGL offers no vertical
// blank wait.
func (d *Driver) WaitVBlank(drawable driver.Handle) error {
	if !eglWaitClient() {
		return fmt.Errorf("eglWaitClient failed: 0x%x", eglGetError())
	}
	return nil
}
