// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package egl

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"

	gunsafe "github.com/gdkgo/glctx/internal/unsafe"
)

type (
	NativeDisplayType uintptr
	NativeWindowType  uintptr
)

var (
	libEGL uintptr
	// libGL provides GL entry points eglGetProcAddress does not return.
	libGL uintptr

	_eglBindAPI               func(api _EGLint) uint32
	_eglChooseConfig          func(disp _EGLDisplay, attribs *_EGLint, configs *_EGLConfig, size _EGLint, n *_EGLint) uint32
	_eglCreateContext         func(disp _EGLDisplay, cfg _EGLConfig, share _EGLContext, attribs *_EGLint) _EGLContext
	_eglCreatePbufferSurface  func(disp _EGLDisplay, cfg _EGLConfig, attribs *_EGLint) _EGLSurface
	_eglCreateWindowSurface   func(disp _EGLDisplay, cfg _EGLConfig, win NativeWindowType, attribs *_EGLint) _EGLSurface
	_eglDestroyContext        func(disp _EGLDisplay, ctx _EGLContext) uint32
	_eglDestroySurface        func(disp _EGLDisplay, surf _EGLSurface) uint32
	_eglGetConfigAttrib       func(disp _EGLDisplay, cfg _EGLConfig, attr _EGLint, val *_EGLint) uint32
	_eglGetConfigs            func(disp _EGLDisplay, configs *_EGLConfig, size _EGLint, n *_EGLint) uint32
	_eglGetCurrentContext     func() _EGLContext
	_eglGetDisplay            func(disp NativeDisplayType) _EGLDisplay
	_eglGetError              func() _EGLint
	_eglGetProcAddress        func(name *byte) uintptr
	_eglInitialize            func(disp _EGLDisplay, major, minor *_EGLint) uint32
	_eglMakeCurrent           func(disp _EGLDisplay, draw, read _EGLSurface, ctx _EGLContext) uint32
	_eglQueryString           func(disp _EGLDisplay, name _EGLint) uintptr
	_eglQuerySurface          func(disp _EGLDisplay, surf _EGLSurface, attr _EGLint, val *_EGLint) uint32
	_eglReleaseThread         func() uint32
	_eglSurfaceAttrib         func(disp _EGLDisplay, surf _EGLSurface, attr, val _EGLint) uint32
	_eglSwapBuffers           func(disp _EGLDisplay, surf _EGLSurface) uint32
	_eglSwapInterval          func(disp _EGLDisplay, interval _EGLint) uint32
	_eglTerminate             func(disp _EGLDisplay) uint32
	_eglWaitClient            func() uint32
	_eglSwapBuffersWithDamage func(disp _EGLDisplay, surf _EGLSurface, rects *_EGLint, n _EGLint) uint32

	loadSwapWithDamage sync.Once
)

var (
	loadOnce sync.Once
	loadErr  error
)

func loadEGL() error {
	loadOnce.Do(func() {
		loadErr = loadLibs()
	})
	return loadErr
}

func loadLibs() error {
	var err error
	libEGL, err = dlopen("libEGL.so.1", "libEGL.so")
	if err != nil {
		return err
	}
	libGL, _ = dlopen("libGL.so.1", "libGLESv2.so.2")
	procs := []struct {
		fn   any
		name string
	}{
		{&_eglBindAPI, "eglBindAPI"},
		{&_eglChooseConfig, "eglChooseConfig"},
		{&_eglCreateContext, "eglCreateContext"},
		{&_eglCreatePbufferSurface, "eglCreatePbufferSurface"},
		{&_eglCreateWindowSurface, "eglCreateWindowSurface"},
		{&_eglDestroyContext, "eglDestroyContext"},
		{&_eglDestroySurface, "eglDestroySurface"},
		{&_eglGetConfigAttrib, "eglGetConfigAttrib"},
		{&_eglGetConfigs, "eglGetConfigs"},
		{&_eglGetCurrentContext, "eglGetCurrentContext"},
		{&_eglGetDisplay, "eglGetDisplay"},
		{&_eglGetError, "eglGetError"},
		{&_eglGetProcAddress, "eglGetProcAddress"},
		{&_eglInitialize, "eglInitialize"},
		{&_eglMakeCurrent, "eglMakeCurrent"},
		{&_eglQueryString, "eglQueryString"},
		{&_eglQuerySurface, "eglQuerySurface"},
		{&_eglReleaseThread, "eglReleaseThread"},
		{&_eglSurfaceAttrib, "eglSurfaceAttrib"},
		{&_eglSwapBuffers, "eglSwapBuffers"},
		{&_eglSwapInterval, "eglSwapInterval"},
		{&_eglTerminate, "eglTerminate"},
		{&_eglWaitClient, "eglWaitClient"},
	}
	for _, p := range procs {
		if _, err := purego.Dlsym(libEGL, p.name); err != nil {
			return fmt.Errorf("egl: failed to locate %s: %w", p.name, err)
		}
		purego.RegisterLibFunc(p.fn, libEGL, p.name)
	}
	return nil
}

// dlopen opens the first library of names that loads.
func dlopen(names ...string) (uintptr, error) {
	var err error
	for _, name := range names {
		var lib uintptr
		lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
	}
	return 0, fmt.Errorf("egl: failed to load %s: %w", names[0], err)
}

func eglBindAPI(api _EGLint) bool {
	return _eglBindAPI(api) != 0
}

func eglChooseConfig(disp _EGLDisplay, attribs []_EGLint) ([]_EGLConfig, bool) {
	var n _EGLint
	if _eglChooseConfig(disp, &attribs[0], nil, 0, &n) == 0 {
		return nil, false
	}
	if n == 0 {
		return nil, true
	}
	cfgs := make([]_EGLConfig, n)
	ok := _eglChooseConfig(disp, &attribs[0], &cfgs[0], n, &n) != 0
	return cfgs[:n], ok
}

func eglGetConfigs(disp _EGLDisplay) []_EGLConfig {
	var n _EGLint
	if _eglGetConfigs(disp, nil, 0, &n) == 0 || n == 0 {
		return nil
	}
	cfgs := make([]_EGLConfig, n)
	if _eglGetConfigs(disp, &cfgs[0], n, &n) == 0 {
		return nil
	}
	return cfgs[:n]
}

func eglCreateContext(disp _EGLDisplay, cfg _EGLConfig, shareCtx _EGLContext, attribs []_EGLint) _EGLContext {
	return _eglCreateContext(disp, cfg, shareCtx, &attribs[0])
}

func eglCreateWindowSurface(disp _EGLDisplay, cfg _EGLConfig, win NativeWindowType, attribs []_EGLint) _EGLSurface {
	return _eglCreateWindowSurface(disp, cfg, win, &attribs[0])
}

func eglCreatePbufferSurface(disp _EGLDisplay, cfg _EGLConfig, attribs []_EGLint) _EGLSurface {
	return _eglCreatePbufferSurface(disp, cfg, &attribs[0])
}

func eglDestroySurface(disp _EGLDisplay, surf _EGLSurface) bool {
	return _eglDestroySurface(disp, surf) != 0
}

func eglDestroyContext(disp _EGLDisplay, ctx _EGLContext) bool {
	return _eglDestroyContext(disp, ctx) != 0
}

func eglGetConfigAttrib(disp _EGLDisplay, cfg _EGLConfig, attr _EGLint) (_EGLint, bool) {
	var val _EGLint
	ok := _eglGetConfigAttrib(disp, cfg, attr, &val) != 0
	return val, ok
}

func eglGetCurrentContext() _EGLContext {
	return _eglGetCurrentContext()
}

func eglGetDisplay(disp NativeDisplayType) _EGLDisplay {
	return _eglGetDisplay(disp)
}

func eglGetError() _EGLint {
	return _eglGetError()
}

func eglInitialize(disp _EGLDisplay) (_EGLint, _EGLint, bool) {
	var maj, min _EGLint
	ok := _eglInitialize(disp, &maj, &min) != 0
	return maj, min, ok
}

func eglMakeCurrent(disp _EGLDisplay, draw, read _EGLSurface, ctx _EGLContext) bool {
	return _eglMakeCurrent(disp, draw, read, ctx) != 0
}

func eglQuerySurface(disp _EGLDisplay, surf _EGLSurface, attr _EGLint) (_EGLint, bool) {
	var val _EGLint
	ok := _eglQuerySurface(disp, surf, attr, &val) != 0
	return val, ok
}

func eglReleaseThread() bool {
	return _eglReleaseThread() != 0
}

func eglSurfaceAttrib(disp _EGLDisplay, surf _EGLSurface, attr, val _EGLint) bool {
	return _eglSurfaceAttrib(disp, surf, attr, val) != 0
}

func eglSwapInterval(disp _EGLDisplay, interval _EGLint) bool {
	return _eglSwapInterval(disp, interval) != 0
}

func eglSwapBuffers(disp _EGLDisplay, surf _EGLSurface) bool {
	return _eglSwapBuffers(disp, surf) != 0
}

func eglSwapBuffersWithDamage(disp _EGLDisplay, surf _EGLSurface, rects []_EGLint) bool {
	loadSwapWithDamage.Do(func() {
		p := eglGetProcAddress("eglSwapBuffersWithDamageKHR")
		if p == 0 {
			p = eglGetProcAddress("eglSwapBuffersWithDamageEXT")
		}
		if p != 0 {
			purego.RegisterFunc(&_eglSwapBuffersWithDamage, p)
		}
	})
	if _eglSwapBuffersWithDamage == nil || len(rects) == 0 {
		return false
	}
	return _eglSwapBuffersWithDamage(disp, surf, &rects[0], _EGLint(len(rects)/4)) != 0
}

func eglTerminate(disp _EGLDisplay) bool {
	return _eglTerminate(disp) != 0
}

func eglQueryString(disp _EGLDisplay, name _EGLint) string {
	return gunsafe.GoString(gunsafe.SliceOf(_eglQueryString(disp, name)))
}

func eglWaitClient() bool {
	return _eglWaitClient() != 0
}

func eglGetProcAddress(name string) uintptr {
	return _eglGetProcAddress(gunsafe.CString(name))
}

// glProc resolves GL entry points of the current context.
func glProc(name string) uintptr {
	if p := eglGetProcAddress(name); p != 0 {
		return p
	}
	if libGL == 0 {
		return 0
	}
	p, err := purego.Dlsym(libGL, name)
	if err != nil {
		return 0
	}
	return p
}
