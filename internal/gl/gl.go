// SPDX-License-Identifier: Unlicense OR MIT

// Package gl calls the handful of GL entry points needed to probe a
// context and present a frame, resolved at runtime through the window
// system's proc address lookup.
package gl

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unsafe"

	gunsafe "github.com/gdkgo/glctx/internal/unsafe"
)

type Enum uint

const (
	BACK             = 0x0405
	COLOR_BUFFER_BIT = 0x4000
	EXTENSIONS       = 0x1f03
	FRONT            = 0x0404
	NEAREST          = 0x2600
	NUM_EXTENSIONS   = 0x821D
	RENDERER         = 0x1F01
	SCISSOR_TEST     = 0x0c11
	VENDOR           = 0x1F00
	VERSION          = 0x1f02
)

// ProcLoader resolves a GL entry point by name. It returns 0 for
// missing entry points.
type ProcLoader func(name string) uintptr

// Functions holds the resolved entry points of the current context.
// Entry points are only valid while a context of the same driver is
// current.
type Functions struct {
	getString       uintptr
	getStringi      uintptr
	getIntegerv     uintptr
	finish          uintptr
	flush           uintptr
	enable          uintptr
	disable         uintptr
	scissor         uintptr
	drawBuffer      uintptr
	readBuffer      uintptr
	blitFramebuffer uintptr
	addSwapHintRect uintptr

	call func(fn uintptr, args ...uintptr) uintptr
	ints [1]int32
}

// Load resolves the entry points through load. glGetString,
// glGetIntegerv, glFinish and glFlush are required.
func Load(load ProcLoader) (*Functions, error) {
	f := &Functions{call: call}
	required := []struct {
		name string
		fn   *uintptr
	}{
		{"glGetString", &f.getString},
		{"glGetIntegerv", &f.getIntegerv},
		{"glFinish", &f.finish},
		{"glFlush", &f.flush},
	}
	for _, p := range required {
		if *p.fn = load(p.name); *p.fn == 0 {
			return nil, fmt.Errorf("gl: failed to resolve %s", p.name)
		}
	}
	f.getStringi = load("glGetStringi")
	f.enable = load("glEnable")
	f.disable = load("glDisable")
	f.scissor = load("glScissor")
	f.drawBuffer = load("glDrawBuffer")
	f.readBuffer = load("glReadBuffer")
	f.blitFramebuffer = load("glBlitFramebuffer")
	if f.blitFramebuffer == 0 {
		f.blitFramebuffer = load("glBlitFramebufferEXT")
	}
	f.addSwapHintRect = load("glAddSwapHintRectWIN")
	return f, nil
}

func (f *Functions) GetString(pname Enum) string {
	r := f.call(f.getString, uintptr(pname))
	return gunsafe.GoString(gunsafe.SliceOf(r))
}

func (f *Functions) GetStringi(pname Enum, index int) string {
	if f.getStringi == 0 {
		return ""
	}
	r := f.call(f.getStringi, uintptr(pname), uintptr(index))
	return gunsafe.GoString(gunsafe.SliceOf(r))
}

func (f *Functions) GetInteger(pname Enum) int {
	f.ints[0] = 0
	f.call(f.getIntegerv, uintptr(pname), uintptr(unsafe.Pointer(&f.ints[0])))
	return int(f.ints[0])
}

// Extensions lists the extensions of the current context. Contexts of
// version 3 and later are queried by index, which core profiles require.
func (f *Functions) Extensions(major int) []string {
	if major >= 3 && f.getStringi != 0 {
		n := f.GetInteger(NUM_EXTENSIONS)
		exts := make([]string, 0, n)
		for i := 0; i < n; i++ {
			if e := f.GetStringi(EXTENSIONS, i); e != "" {
				exts = append(exts, e)
			}
		}
		if len(exts) > 0 {
			return exts
		}
	}
	return strings.Fields(f.GetString(EXTENSIONS))
}

func (f *Functions) Finish() {
	f.call(f.finish)
}

func (f *Functions) Flush() {
	f.call(f.flush)
}

// CanBlit reports whether BlitRegion is available.
func (f *Functions) CanBlit() bool {
	return f.blitFramebuffer != 0 && f.drawBuffer != 0 && f.readBuffer != 0 &&
		f.scissor != 0 && f.enable != 0 && f.disable != 0
}

// BlitRegion copies rects from the back to the front buffer of the
// default framebuffer and flushes. Rects are in framebuffer coordinates
// with a bottom left origin.
func (f *Functions) BlitRegion(rects []image.Rectangle) error {
	if !f.CanBlit() {
		return errors.New("gl: framebuffer blit not available")
	}
	f.call(f.drawBuffer, FRONT)
	f.call(f.readBuffer, BACK)
	f.call(f.enable, SCISSOR_TEST)
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		f.call(f.scissor, uintptr(r.Min.X), uintptr(r.Min.Y), uintptr(r.Dx()), uintptr(r.Dy()))
		f.call(f.blitFramebuffer,
			uintptr(r.Min.X), uintptr(r.Min.Y), uintptr(r.Max.X), uintptr(r.Max.Y),
			uintptr(r.Min.X), uintptr(r.Min.Y), uintptr(r.Max.X), uintptr(r.Max.Y),
			COLOR_BUFFER_BIT, NEAREST)
	}
	f.call(f.disable, SCISSOR_TEST)
	f.call(f.drawBuffer, BACK)
	f.Flush()
	return nil
}

// SwapHint restricts the next buffer swap to rects through
// GL_WIN_swap_hint. It reports false if the extension is missing.
func (f *Functions) SwapHint(rects []image.Rectangle) bool {
	if f.addSwapHintRect == 0 {
		return false
	}
	for _, r := range rects {
		if r.Empty() {
			continue
		}
		f.call(f.addSwapHintRect, uintptr(r.Min.X), uintptr(r.Min.Y), uintptr(r.Dx()), uintptr(r.Dy()))
	}
	return true
}
