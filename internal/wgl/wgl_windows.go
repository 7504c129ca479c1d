// SPDX-License-Identifier: Unlicense OR MIT

package wgl

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"
	gosyscall "syscall"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/gl"
	gunsafe "github.com/gdkgo/glctx/internal/unsafe"
)

const (
	_CS_OWNDC        = 0x0020
	_WS_POPUP        = 0x80000000
	_WS_CLIPSIBLINGS = 0x04000000
	_WS_CLIPCHILDREN = 0x02000000
)

// wndClassEx mirrors WNDCLASSEXW.
type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   syscall.Handle
	Icon       syscall.Handle
	Cursor     syscall.Handle
	Background syscall.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     syscall.Handle
}

var (
	opengl32 = syscall.NewLazySystemDLL("opengl32.dll")
	gdi32    = syscall.NewLazySystemDLL("gdi32.dll")
	user32   = syscall.NewLazySystemDLL("user32.dll")

	_wglCreateContext     = opengl32.NewProc("wglCreateContext")
	_wglDeleteContext     = opengl32.NewProc("wglDeleteContext")
	_wglGetCurrentContext = opengl32.NewProc("wglGetCurrentContext")
	_wglGetProcAddress    = opengl32.NewProc("wglGetProcAddress")
	_wglMakeCurrent       = opengl32.NewProc("wglMakeCurrent")
	_wglShareLists        = opengl32.NewProc("wglShareLists")

	_ChoosePixelFormat   = gdi32.NewProc("ChoosePixelFormat")
	_DescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	_GetPixelFormat      = gdi32.NewProc("GetPixelFormat")
	_SetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	_SwapBuffers         = gdi32.NewProc("SwapBuffers")

	_CreateWindowExW  = user32.NewProc("CreateWindowExW")
	_DefWindowProcW   = user32.NewProc("DefWindowProcW")
	_DestroyWindow    = user32.NewProc("DestroyWindow")
	_GetDC            = user32.NewProc("GetDC")
	_RegisterClassExW = user32.NewProc("RegisterClassExW")
	_ReleaseDC        = user32.NewProc("ReleaseDC")

	procs = []*syscall.LazyProc{
		_wglCreateContext, _wglDeleteContext, _wglGetCurrentContext,
		_wglGetProcAddress, _wglMakeCurrent, _wglShareLists,
		_ChoosePixelFormat, _DescribePixelFormat, _GetPixelFormat,
		_SetPixelFormat, _SwapBuffers,
		_CreateWindowExW, _DefWindowProcW, _DestroyWindow, _GetDC,
		_RegisterClassExW, _ReleaseDC,
	}
)

var (
	dummyClassOnce sync.Once
	dummyClass     *uint16
	dummyInstance  syscall.Handle
	dummyClassErr  error
)

// Driver is a WGL connection. Drawables are device contexts of windows.
type Driver struct {
	ext   extProcs
	funcs *gl.Functions
	// drawables maps open device contexts to their window.
	drawables map[driver.Handle]driver.Handle
	contexts  map[driver.Handle]struct{}
}

// extProcs are the WGL extension entry points. They are resolved with
// the first context made current and kept for the driver's lifetime.
type extProcs struct {
	loaded                 bool
	getExtensionsStringARB uintptr
	getExtensionsStringEXT uintptr
	createContextAttribs   uintptr
	choosePixelFormat      uintptr
	getPixelFormatAttribiv uintptr
	swapInterval           uintptr
	getSyncValues          uintptr
	waitForMsc             uintptr
}

func NewDriver() (*Driver, error) {
	if err := opengl32.Load(); err != nil {
		return nil, fmt.Errorf("wgl: failed to load %s: %w", opengl32.Name, err)
	}
	return &Driver{}, nil
}

func (d *Driver) API() driver.API {
	return driver.APIWGL
}

// Open resolves the native entry points. WGL reports no version of its
// own.
func (d *Driver) Open() (driver.Version, error) {
	for _, p := range procs {
		if err := p.Find(); err != nil {
			return driver.Version{}, fmt.Errorf("wgl: %w", err)
		}
	}
	d.drawables = make(map[driver.Handle]driver.Handle)
	d.contexts = make(map[driver.Handle]struct{})
	return driver.Version{Major: 1, Minor: 0}, nil
}

func (d *Driver) Close() error {
	_wglMakeCurrent.Call(0, 0)
	var err error
	if n := len(d.contexts) + len(d.drawables); n > 0 {
		err = fmt.Errorf("wgl: closing display with %d live objects", n)
	}
	d.funcs = nil
	d.ext = extProcs{}
	d.drawables = nil
	d.contexts = nil
	return err
}

func registerDummyClass() (*uint16, syscall.Handle, error) {
	dummyClassOnce.Do(func() {
		if err := syscall.GetModuleHandleEx(0, nil, &dummyInstance); err != nil {
			dummyClassErr = fmt.Errorf("GetModuleHandleEx failed: %w", err)
			return
		}
		name, _ := syscall.UTF16PtrFromString("GlctxDummyWindow")
		wcls := wndClassEx{
			Style:     _CS_OWNDC,
			WndProc:   _DefWindowProcW.Addr(),
			Instance:  dummyInstance,
			ClassName: name,
		}
		wcls.Size = uint32(unsafe.Sizeof(wcls))
		if r, _, err := _RegisterClassExW.Call(uintptr(unsafe.Pointer(&wcls))); r == 0 {
			dummyClassErr = fmt.Errorf("RegisterClassEx failed: %w", err)
			return
		}
		dummyClass = name
	})
	return dummyClass, dummyInstance, dummyClassErr
}

// CreateDummy creates a hidden 1x1 window with a basic double buffered
// format applied to its device context.
func (d *Driver) CreateDummy() (driver.Dummy, error) {
	cls, inst, err := registerDummyClass()
	if err != nil {
		return driver.Dummy{}, err
	}
	hwnd, _, err := _CreateWindowExW.Call(0, uintptr(unsafe.Pointer(cls)), 0,
		_WS_POPUP|_WS_CLIPSIBLINGS|_WS_CLIPCHILDREN,
		0, 0, 1, 1, 0, 0, uintptr(inst), 0)
	if hwnd == 0 {
		return driver.Dummy{}, fmt.Errorf("CreateWindowEx failed: %w", err)
	}
	hdc, _, err := _GetDC.Call(hwnd)
	if hdc == 0 {
		_DestroyWindow.Call(hwnd)
		return driver.Dummy{}, fmt.Errorf("GetDC failed: %w", err)
	}
	pfd := basicDescriptor(driver.FormatRequest{DoubleBuffer: true})
	id, _, err := _ChoosePixelFormat.Call(hdc, uintptr(unsafe.Pointer(&pfd)))
	if id == 0 {
		d.destroyWindow(hwnd, hdc)
		return driver.Dummy{}, fmt.Errorf("ChoosePixelFormat failed: %w", err)
	}
	if r, _, err := _SetPixelFormat.Call(hdc, id, uintptr(unsafe.Pointer(&pfd))); r == 0 {
		d.destroyWindow(hwnd, hdc)
		return driver.Dummy{}, fmt.Errorf("SetPixelFormat failed: %w", err)
	}
	d.drawables[driver.Handle(hdc)] = driver.Handle(hwnd)
	return driver.Dummy{
		Window:   driver.Handle(hwnd),
		Drawable: driver.Handle(hdc),
		Config:   driver.ConfigID(id),
	}, nil
}

func (d *Driver) destroyWindow(hwnd, hdc uintptr) error {
	_ReleaseDC.Call(hwnd, hdc)
	if r, _, err := _DestroyWindow.Call(hwnd); r == 0 {
		return fmt.Errorf("DestroyWindow failed: %w", err)
	}
	return nil
}

func (d *Driver) DestroyDummy(dm driver.Dummy) error {
	delete(d.drawables, dm.Drawable)
	return d.destroyWindow(uintptr(dm.Window), uintptr(dm.Drawable))
}

func (d *Driver) Extensions(drawable driver.Handle) []string {
	var exts []string
	switch {
	case d.ext.getExtensionsStringARB != 0:
		r, _, _ := gosyscall.SyscallN(d.ext.getExtensionsStringARB, uintptr(drawable))
		exts = strings.Fields(goString(r))
	case d.ext.getExtensionsStringEXT != 0:
		r, _, _ := gosyscall.SyscallN(d.ext.getExtensionsStringEXT)
		exts = strings.Fields(goString(r))
	}
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

// withDC runs f with a device context of window.
func withDC(window driver.Handle, f func(hdc uintptr) error) error {
	hdc, _, err := _GetDC.Call(uintptr(window))
	if hdc == 0 {
		return fmt.Errorf("GetDC failed: %w", err)
	}
	defer _ReleaseDC.Call(uintptr(window), hdc)
	return f(hdc)
}

func (d *Driver) ChooseConfigs(window driver.Handle, req driver.FormatRequest) ([]driver.ConfigID, error) {
	var ids []driver.ConfigID
	err := withDC(window, func(hdc uintptr) error {
		if d.ext.choosePixelFormat == 0 {
			pfd := basicDescriptor(req)
			id, _, _ := _ChoosePixelFormat.Call(hdc, uintptr(unsafe.Pointer(&pfd)))
			if id != 0 {
				ids = append(ids, driver.ConfigID(id))
			}
			return nil
		}
		attribs := formatAttribs(req)
		var formats [64]int32
		var n uint32
		r, _, err := gosyscall.SyscallN(d.ext.choosePixelFormat, hdc,
			uintptr(unsafe.Pointer(&attribs[0])), 0,
			uintptr(len(formats)), uintptr(unsafe.Pointer(&formats[0])), uintptr(unsafe.Pointer(&n)))
		issue34474KeepAlive(attribs)
		if r == 0 {
			return fmt.Errorf("wglChoosePixelFormatARB failed: %w", err)
		}
		for _, f := range formats[:min(int(n), len(formats))] {
			ids = append(ids, driver.ConfigID(f))
		}
		return nil
	})
	return ids, err
}

func (d *Driver) DescribeConfigs(window driver.Handle) ([]driver.Config, error) {
	var res []driver.Config
	err := withDC(window, func(hdc uintptr) error {
		n, err := d.formatCount(hdc)
		if err != nil {
			return err
		}
		res = make([]driver.Config, 0, n)
		for i := 1; i <= n; i++ {
			c, err := d.describe(hdc, driver.ConfigID(i))
			if err != nil {
				return err
			}
			res = append(res, c)
		}
		return nil
	})
	return res, err
}

func (d *Driver) DescribeConfig(window driver.Handle, id driver.ConfigID) (driver.Config, error) {
	var c driver.Config
	err := withDC(window, func(hdc uintptr) error {
		var err error
		c, err = d.describe(hdc, id)
		return err
	})
	return c, err
}

func (d *Driver) formatCount(hdc uintptr) (int, error) {
	if d.ext.getPixelFormatAttribiv != 0 {
		attr := int32(_WGL_NUMBER_PIXEL_FORMATS_ARB)
		var n int32
		r, _, err := gosyscall.SyscallN(d.ext.getPixelFormatAttribiv, hdc, 1, 0, 1,
			uintptr(unsafe.Pointer(&attr)), uintptr(unsafe.Pointer(&n)))
		if r == 0 {
			return 0, fmt.Errorf("wglGetPixelFormatAttribivARB failed: %w", err)
		}
		return int(n), nil
	}
	n, _, err := _DescribePixelFormat.Call(hdc, 1, 0, 0)
	if n == 0 {
		return 0, fmt.Errorf("DescribePixelFormat failed: %w", err)
	}
	return int(n), nil
}

func (d *Driver) describe(hdc uintptr, id driver.ConfigID) (driver.Config, error) {
	if d.ext.getPixelFormatAttribiv != 0 {
		values := make([]int32, len(describeAttribs))
		r, _, err := gosyscall.SyscallN(d.ext.getPixelFormatAttribiv, hdc, uintptr(id), 0,
			uintptr(len(describeAttribs)), uintptr(unsafe.Pointer(&describeAttribs[0])),
			uintptr(unsafe.Pointer(&values[0])))
		if r == 0 {
			return driver.Config{}, fmt.Errorf("wglGetPixelFormatAttribivARB(%d) failed: %w", id, err)
		}
		return configFromValues(id, values), nil
	}
	var pfd pixelFormatDescriptor
	r, _, err := _DescribePixelFormat.Call(hdc, uintptr(id), unsafe.Sizeof(pfd), uintptr(unsafe.Pointer(&pfd)))
	if r == 0 {
		return driver.Config{}, fmt.Errorf("DescribePixelFormat(%d) failed: %w", id, err)
	}
	return configFromDescriptor(id, &pfd), nil
}

func (d *Driver) ConfigOf(window driver.Handle) (driver.ConfigID, error) {
	var id driver.ConfigID
	err := withDC(window, func(hdc uintptr) error {
		r, _, _ := _GetPixelFormat.Call(hdc)
		id = driver.ConfigID(r)
		return nil
	})
	return id, err
}

func (d *Driver) SetConfig(window driver.Handle, id driver.ConfigID) error {
	return withDC(window, func(hdc uintptr) error {
		var pfd pixelFormatDescriptor
		if r, _, err := _DescribePixelFormat.Call(hdc, uintptr(id), unsafe.Sizeof(pfd), uintptr(unsafe.Pointer(&pfd))); r == 0 {
			return fmt.Errorf("DescribePixelFormat(%d) failed: %w", id, err)
		}
		if r, _, err := _SetPixelFormat.Call(hdc, uintptr(id), uintptr(unsafe.Pointer(&pfd))); r == 0 {
			return fmt.Errorf("SetPixelFormat(%d) failed: %w", id, err)
		}
		return nil
	})
}

func (d *Driver) OpenDrawable(window driver.Handle, id driver.ConfigID) (driver.Handle, error) {
	hdc, _, err := _GetDC.Call(uintptr(window))
	if hdc == 0 {
		return 0, fmt.Errorf("GetDC failed: %w", err)
	}
	if cur, _, _ := _GetPixelFormat.Call(hdc); driver.ConfigID(cur) != id {
		_ReleaseDC.Call(uintptr(window), hdc)
		return 0, fmt.Errorf("wgl: window %#x uses format %d, not %d", window, cur, id)
	}
	d.drawables[driver.Handle(hdc)] = window
	return driver.Handle(hdc), nil
}

func (d *Driver) CloseDrawable(window, drawable driver.Handle) error {
	if _, ok := d.drawables[drawable]; !ok {
		return fmt.Errorf("wgl: device context %#x is not open", drawable)
	}
	delete(d.drawables, drawable)
	if r, _, err := _ReleaseDC.Call(uintptr(window), uintptr(drawable)); r == 0 {
		return fmt.Errorf("ReleaseDC failed: %w", err)
	}
	return nil
}

// CreateContext creates a context with wglCreateContextAttribsARB, or
// with wglCreateContext and wglShareLists when attribs is nil.
func (d *Driver) CreateContext(drawable driver.Handle, id driver.ConfigID, share driver.Handle, attribs *driver.ContextAttribs) (driver.Handle, error) {
	if attribs == nil {
		ctx, _, err := _wglCreateContext.Call(uintptr(drawable))
		if ctx == 0 {
			return 0, fmt.Errorf("wglCreateContext failed: %w", err)
		}
		if share != 0 {
			if r, _, err := _wglShareLists.Call(uintptr(share), ctx); r == 0 {
				_wglDeleteContext.Call(ctx)
				return 0, fmt.Errorf("wglShareLists failed: %w", err)
			}
		}
		d.contexts[driver.Handle(ctx)] = struct{}{}
		return driver.Handle(ctx), nil
	}
	if d.ext.createContextAttribs == 0 {
		return 0, errors.New("wgl: WGL_ARB_create_context not available")
	}
	list := contextAttribs(attribs)
	ctx, _, err := gosyscall.SyscallN(d.ext.createContextAttribs, uintptr(drawable), uintptr(share), uintptr(unsafe.Pointer(&list[0])))
	issue34474KeepAlive(list)
	if ctx == 0 {
		return 0, fmt.Errorf("wglCreateContextAttribsARB(%s %d.%d) failed: %w",
			attribs.Profile, attribs.Version.Major, attribs.Version.Minor, err)
	}
	d.contexts[driver.Handle(ctx)] = struct{}{}
	return driver.Handle(ctx), nil
}

func (d *Driver) DestroyContext(ctx driver.Handle) error {
	if _, ok := d.contexts[ctx]; !ok {
		return fmt.Errorf("wgl: context %#x does not exist", ctx)
	}
	delete(d.contexts, ctx)
	if r, _, err := _wglDeleteContext.Call(uintptr(ctx)); r == 0 {
		return fmt.Errorf("wglDeleteContext failed: %w", err)
	}
	return nil
}

func (d *Driver) MakeCurrent(drawable, ctx driver.Handle) error {
	if ctx == 0 {
		drawable = 0
	}
	if r, _, err := _wglMakeCurrent.Call(uintptr(drawable), uintptr(ctx)); r == 0 {
		return fmt.Errorf("wglMakeCurrent failed: %w", err)
	}
	if ctx == 0 {
		return nil
	}
	if d.funcs == nil {
		f, err := gl.Load(glProc)
		if err != nil {
			return err
		}
		d.funcs = f
	}
	if !d.ext.loaded {
		d.ext = loadExtProcs()
	}
	return nil
}

func loadExtProcs() extProcs {
	return extProcs{
		loaded:                 true,
		getExtensionsStringARB: wglGetProcAddress("wglGetExtensionsStringARB"),
		getExtensionsStringEXT: wglGetProcAddress("wglGetExtensionsStringEXT"),
		createContextAttribs:   wglGetProcAddress("wglCreateContextAttribsARB"),
		choosePixelFormat:      wglGetProcAddress("wglChoosePixelFormatARB"),
		getPixelFormatAttribiv: wglGetProcAddress("wglGetPixelFormatAttribivARB"),
		swapInterval:           wglGetProcAddress("wglSwapIntervalEXT"),
		getSyncValues:          wglGetProcAddress("wglGetSyncValuesOML"),
		waitForMsc:             wglGetProcAddress("wglWaitForMscOML"),
	}
}

func (d *Driver) CurrentContext() driver.Handle {
	ctx, _, _ := _wglGetCurrentContext.Call()
	return driver.Handle(ctx)
}

func (d *Driver) SwapInterval(drawable driver.Handle, interval int) error {
	if d.ext.swapInterval == 0 {
		return errors.New("wgl: WGL_EXT_swap_control not available")
	}
	if r, _, err := gosyscall.SyscallN(d.ext.swapInterval, uintptr(interval)); r == 0 {
		return fmt.Errorf("wglSwapIntervalEXT failed: %w", err)
	}
	return nil
}

func (d *Driver) SwapBuffers(drawable driver.Handle) error {
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if r, _, err := _SwapBuffers.Call(uintptr(drawable)); r == 0 {
		return fmt.Errorf("SwapBuffers failed: %w", err)
	}
	return nil
}

// BlitRegion copies rects to the front buffer with glBlitFramebuffer.
// Without it, the rects are passed as GL_WIN_swap_hint rectangles to a
// full swap.
func (d *Driver) BlitRegion(drawable driver.Handle, rects []image.Rectangle) error {
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if d.funcs == nil {
		return errors.New("wgl: no current context")
	}
	if d.funcs.CanBlit() {
		return d.funcs.BlitRegion(rects)
	}
	if err := d.SwapHint(drawable, rects); err != nil {
		return err
	}
	return d.SwapBuffers(drawable)
}

// SwapHint adds rects with glAddSwapHintRectWIN when GL_WIN_swap_hint
// is present.
func (d *Driver) SwapHint(drawable driver.Handle, rects []image.Rectangle) error {
	if drawable == 0 {
		return driver.ErrNoSurface
	}
	if d.funcs == nil {
		return errors.New("wgl: no current context")
	}
	d.funcs.SwapHint(rects)
	return nil
}

// BufferAge always reports unknown: WGL has no buffer age query.
func (d *Driver) BufferAge(drawable driver.Handle) (int, bool) {
	return 0, false
}

func (d *Driver) Finish() error {
	if d.funcs == nil {
		return errors.New("wgl: no current context")
	}
	d.funcs.Finish()
	return nil
}

// WaitVBlank waits for the next media stream counter value of the
// opposite parity through WGL_OML_sync_control.
func (d *Driver) WaitVBlank(drawable driver.Handle) error {
	if d.ext.getSyncValues == 0 || d.ext.waitForMsc == 0 {
		return errors.New("wgl: WGL_OML_sync_control not available")
	}
	var ust, msc, sbc int64
	r, _, err := gosyscall.SyscallN(d.ext.getSyncValues, uintptr(drawable),
		uintptr(unsafe.Pointer(&ust)), uintptr(unsafe.Pointer(&msc)), uintptr(unsafe.Pointer(&sbc)))
	if r == 0 {
		return fmt.Errorf("wglGetSyncValuesOML failed: %w", err)
	}
	r, _, err = gosyscall.SyscallN(d.ext.waitForMsc, uintptr(drawable), 0, 2, uintptr((msc+1)%2),
		uintptr(unsafe.Pointer(&ust)), uintptr(unsafe.Pointer(&msc)), uintptr(unsafe.Pointer(&sbc)))
	if r == 0 {
		return fmt.Errorf("wglWaitForMscOML failed: %w", err)
	}
	return nil
}

func wglGetProcAddress(name string) uintptr {
	cname := gunsafe.CString(name)
	r, _, _ := _wglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	issue34474KeepAlive(cname)
	if !validProc(r) {
		return 0
	}
	return r
}

// glProc resolves GL entry points. GL 1.1 functions are only exported
// by opengl32.dll.
func glProc(name string) uintptr {
	if p := wglGetProcAddress(name); p != 0 {
		return p
	}
	p := opengl32.NewProc(name)
	if p.Find() != nil {
		return 0
	}
	return p.Addr()
}

func goString(p uintptr) string {
	return gunsafe.GoString(gunsafe.SliceOf(p))
}

// issue34474KeepAlive calls runtime.KeepAlive as a
// workaround for golang.org/issue/34474.
func issue34474KeepAlive(v any) {
	runtime.KeepAlive(v)
}
