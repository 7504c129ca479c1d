// SPDX-License-Identifier: Unlicense OR MIT

package egl

import (
	"fmt"
	"runtime"
	"sync"
	gosyscall "syscall"
	"unsafe"

	syscall "golang.org/x/sys/windows"

	gunsafe "github.com/gdkgo/glctx/internal/unsafe"
)

type (
	NativeDisplayType uintptr
	NativeWindowType  uintptr
)

var (
	libEGL                    = syscall.DLL{}
	libGLESv2                 = syscall.DLL{}
	_eglBindAPI               *syscall.Proc
	_eglChooseConfig          *syscall.Proc
	_eglCreateContext         *syscall.Proc
	_eglCreatePbufferSurface  *syscall.Proc
	_eglCreateWindowSurface   *syscall.Proc
	_eglDestroyContext        *syscall.Proc
	_eglDestroySurface        *syscall.Proc
	_eglGetConfigAttrib       *syscall.Proc
	_eglGetConfigs            *syscall.Proc
	_eglGetCurrentContext     *syscall.Proc
	_eglGetDisplay            *syscall.Proc
	_eglGetError              *syscall.Proc
	_eglGetProcAddress        *syscall.Proc
	_eglInitialize            *syscall.Proc
	_eglMakeCurrent           *syscall.Proc
	_eglQueryString           *syscall.Proc
	_eglQuerySurface          *syscall.Proc
	_eglReleaseThread         *syscall.Proc
	_eglSurfaceAttrib         *syscall.Proc
	_eglSwapInterval          *syscall.Proc
	_eglSwapBuffers           *syscall.Proc
	_eglTerminate             *syscall.Proc
	_eglWaitClient            *syscall.Proc
	_eglSwapBuffersWithDamage uintptr
	loadSwapWithDamage        sync.Once
)

var (
	loadOnce sync.Once
	loadErr  error
)

func loadEGL() error {
	loadOnce.Do(func() {
		loadErr = loadDLLs()
	})
	return loadErr
}

func loadDLLs() error {
	if err := loadDLL(&libEGL, "libEGL.dll"); err != nil {
		return err
	}
	// GL entry points missing from eglGetProcAddress are looked up here.
	loadDLL(&libGLESv2, "libGLESv2.dll")

	procs := map[string]**syscall.Proc{
		"eglBindAPI":              &_eglBindAPI,
		"eglChooseConfig":         &_eglChooseConfig,
		"eglCreateContext":        &_eglCreateContext,
		"eglCreatePbufferSurface": &_eglCreatePbufferSurface,
		"eglCreateWindowSurface":  &_eglCreateWindowSurface,
		"eglDestroyContext":       &_eglDestroyContext,
		"eglDestroySurface":       &_eglDestroySurface,
		"eglGetConfigAttrib":      &_eglGetConfigAttrib,
		"eglGetConfigs":           &_eglGetConfigs,
		"eglGetCurrentContext":    &_eglGetCurrentContext,
		"eglGetDisplay":           &_eglGetDisplay,
		"eglGetError":             &_eglGetError,
		"eglGetProcAddress":       &_eglGetProcAddress,
		"eglInitialize":           &_eglInitialize,
		"eglMakeCurrent":          &_eglMakeCurrent,
		"eglQueryString":          &_eglQueryString,
		"eglQuerySurface":         &_eglQuerySurface,
		"eglReleaseThread":        &_eglReleaseThread,
		"eglSurfaceAttrib":        &_eglSurfaceAttrib,
		"eglSwapInterval":         &_eglSwapInterval,
		"eglSwapBuffers":          &_eglSwapBuffers,
		"eglTerminate":            &_eglTerminate,
		"eglWaitClient":           &_eglWaitClient,
	}
	for name, proc := range procs {
		p, err := libEGL.FindProc(name)
		if err != nil {
			return fmt.Errorf("failed to locate %s in %s: %w", name, libEGL.Name, err)
		}
		*proc = p
	}
	return nil
}

func loadDLL(dll *syscall.DLL, name string) error {
	handle, err := syscall.LoadLibraryEx(name, 0, syscall.LOAD_LIBRARY_SEARCH_DEFAULT_DIRS)
	if err != nil {
		return fmt.Errorf("egl: failed to load %s: %v", name, err)
	}
	dll.Handle = handle
	dll.Name = name
	return nil
}

func eglBindAPI(api _EGLint) bool {
	r, _, _ := _eglBindAPI.Call(uintptr(api))
	return r != 0
}

func eglChooseConfig(disp _EGLDisplay, attribs []_EGLint) ([]_EGLConfig, bool) {
	a := &attribs[0]
	var n _EGLint
	r, _, _ := _eglChooseConfig.Call(uintptr(disp), uintptr(unsafe.Pointer(a)), 0, 0, uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	cfgs := make([]_EGLConfig, n)
	r, _, _ = _eglChooseConfig.Call(uintptr(disp), uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&cfgs[0])), uintptr(n), uintptr(unsafe.Pointer(&n)))
	issue34474KeepAlive(a)
	return cfgs[:n], r != 0
}

func eglGetConfigs(disp _EGLDisplay) []_EGLConfig {
	var n _EGLint
	r, _, _ := _eglGetConfigs.Call(uintptr(disp), 0, 0, uintptr(unsafe.Pointer(&n)))
	if r == 0 || n == 0 {
		return nil
	}
	cfgs := make([]_EGLConfig, n)
	r, _, _ = _eglGetConfigs.Call(uintptr(disp), uintptr(unsafe.Pointer(&cfgs[0])), uintptr(n), uintptr(unsafe.Pointer(&n)))
	if r == 0 {
		return nil
	}
	return cfgs[:n]
}

func eglCreateContext(disp _EGLDisplay, cfg _EGLConfig, shareCtx _EGLContext, attribs []_EGLint) _EGLContext {
	a := &attribs[0]
	c, _, _ := _eglCreateContext.Call(uintptr(disp), uintptr(cfg), uintptr(shareCtx), uintptr(unsafe.Pointer(a)))
	issue34474KeepAlive(a)
	return _EGLContext(c)
}

func eglCreateWindowSurface(disp _EGLDisplay, cfg _EGLConfig, win NativeWindowType, attribs []_EGLint) _EGLSurface {
	a := &attribs[0]
	s, _, _ := _eglCreateWindowSurface.Call(uintptr(disp), uintptr(cfg), uintptr(win), uintptr(unsafe.Pointer(a)))
	issue34474KeepAlive(a)
	return _EGLSurface(s)
}

func eglCreatePbufferSurface(disp _EGLDisplay, cfg _EGLConfig, attribs []_EGLint) _EGLSurface {
	a := &attribs[0]
	s, _, _ := _eglCreatePbufferSurface.Call(uintptr(disp), uintptr(cfg), uintptr(unsafe.Pointer(a)))
	issue34474KeepAlive(a)
	return _EGLSurface(s)
}

func eglDestroySurface(disp _EGLDisplay, surf _EGLSurface) bool {
	r, _, _ := _eglDestroySurface.Call(uintptr(disp), uintptr(surf))
	return r != 0
}

func eglDestroyContext(disp _EGLDisplay, ctx _EGLContext) bool {
	r, _, _ := _eglDestroyContext.Call(uintptr(disp), uintptr(ctx))
	return r != 0
}

func eglGetConfigAttrib(disp _EGLDisplay, cfg _EGLConfig, attr _EGLint) (_EGLint, bool) {
	var val _EGLint
	r, _, _ := _eglGetConfigAttrib.Call(uintptr(disp), uintptr(cfg), uintptr(attr), uintptr(unsafe.Pointer(&val)))
	return val, r != 0
}

func eglGetCurrentContext() _EGLContext {
	c, _, _ := _eglGetCurrentContext.Call()
	return _EGLContext(c)
}

func eglGetDisplay(disp NativeDisplayType) _EGLDisplay {
	d, _, _ := _eglGetDisplay.Call(uintptr(disp))
	return _EGLDisplay(d)
}

func eglGetError() _EGLint {
	e, _, _ := _eglGetError.Call()
	return _EGLint(e)
}

func eglInitialize(disp _EGLDisplay) (_EGLint, _EGLint, bool) {
	var maj, min _EGLint
	r, _, _ := _eglInitialize.Call(uintptr(disp), uintptr(unsafe.Pointer(&maj)), uintptr(unsafe.Pointer(&min)))
	return maj, min, r != 0
}

func eglMakeCurrent(disp _EGLDisplay, draw, read _EGLSurface, ctx _EGLContext) bool {
	r, _, _ := _eglMakeCurrent.Call(uintptr(disp), uintptr(draw), uintptr(read), uintptr(ctx))
	return r != 0
}

func eglQuerySurface(disp _EGLDisplay, surf _EGLSurface, attr _EGLint) (_EGLint, bool) {
	var val _EGLint
	r, _, _ := _eglQuerySurface.Call(uintptr(disp), uintptr(surf), uintptr(attr), uintptr(unsafe.Pointer(&val)))
	return val, r != 0
}

func eglReleaseThread() bool {
	r, _, _ := _eglReleaseThread.Call()
	return r != 0
}

func eglSurfaceAttrib(disp _EGLDisplay, surf _EGLSurface, attr, val _EGLint) bool {
	r, _, _ := _eglSurfaceAttrib.Call(uintptr(disp), uintptr(surf), uintptr(attr), uintptr(val))
	return r != 0
}

func eglSwapInterval(disp _EGLDisplay, interval _EGLint) bool {
	r, _, _ := _eglSwapInterval.Call(uintptr(disp), uintptr(interval))
	return r != 0
}

func eglSwapBuffers(disp _EGLDisplay, surf _EGLSurface) bool {
	r, _, _ := _eglSwapBuffers.Call(uintptr(disp), uintptr(surf))
	return r != 0
}

func eglSwapBuffersWithDamage(disp _EGLDisplay, surf _EGLSurface, rects []_EGLint) bool {
	loadSwapWithDamage.Do(func() {
		_eglSwapBuffersWithDamage = eglGetProcAddress("eglSwapBuffersWithDamageKHR")
		if _eglSwapBuffersWithDamage == 0 {
			_eglSwapBuffersWithDamage = eglGetProcAddress("eglSwapBuffersWithDamageEXT")
		}
	})
	if _eglSwapBuffersWithDamage == 0 || len(rects) == 0 {
		return false
	}
	a := &rects[0]
	r, _, _ := gosyscall.SyscallN(_eglSwapBuffersWithDamage, uintptr(disp), uintptr(surf), uintptr(unsafe.Pointer(a)), uintptr(len(rects)/4))
	issue34474KeepAlive(a)
	return r != 0
}

func eglTerminate(disp _EGLDisplay) bool {
	r, _, _ := _eglTerminate.Call(uintptr(disp))
	return r != 0
}

func eglQueryString(disp _EGLDisplay, name _EGLint) string {
	r, _, _ := _eglQueryString.Call(uintptr(disp), uintptr(name))
	return syscall.BytePtrToString((*byte)(unsafe.Pointer(r)))
}

func eglWaitClient() bool {
	r, _, _ := _eglWaitClient.Call()
	return r != 0
}

func eglGetProcAddress(name string) uintptr {
	cname := gunsafe.CString(name)
	r, _, _ := _eglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	issue34474KeepAlive(cname)
	return r
}

// glProc resolves GL entry points of the current context.
func glProc(name string) uintptr {
	if p := eglGetProcAddress(name); p != 0 {
		return p
	}
	if libGLESv2.Handle == 0 {
		return 0
	}
	p, err := libGLESv2.FindProc(name)
	if err != nil {
		return 0
	}
	return p.Addr()
}

// issue34474KeepAlive calls runtime.KeepAlive as a
// workaround for golang.org/issue/34474.
func issue34474KeepAlive(v any) {
	runtime.KeepAlive(v)
}
