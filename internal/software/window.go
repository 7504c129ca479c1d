// SPDX-License-Identifier: Unlicense OR MIT

package software

import (
	"image"
	"sync"

	"github.com/gdkgo/glctx/driver"
)

// Window is a virtual native window. Windows are process wide, like the
// native windows of a windowing system, and visible to every Driver.
type Window struct {
	handle driver.Handle

	mu      sync.Mutex
	size    image.Point
	scale   int
	pending *image.Point
	alpha   bool
}

var windows struct {
	mu   sync.Mutex
	next driver.Handle
	byID map[driver.Handle]*Window
}

// windowBase keeps virtual window handles apart from driver handles.
const windowBase = 1 << 20

// NewWindow creates a virtual window of the given size in logical
// pixels.
func NewWindow(width, height int) *Window {
	windows.mu.Lock()
	defer windows.mu.Unlock()
	if windows.byID == nil {
		windows.byID = make(map[driver.Handle]*Window)
	}
	windows.next++
	w := &Window{
		handle: windowBase + windows.next,
		size:   image.Pt(width, height),
		scale:  1,
	}
	windows.byID[w.handle] = w
	return w
}

func lookupWindow(h driver.Handle) (*Window, bool) {
	windows.mu.Lock()
	defer windows.mu.Unlock()
	w, ok := windows.byID[h]
	return w, ok
}

// Destroy unregisters the window.
func (w *Window) Destroy() {
	windows.mu.Lock()
	defer windows.mu.Unlock()
	delete(windows.byID, w.handle)
}

func (w *Window) NativeHandle() driver.Handle {
	return w.handle
}

func (w *Window) Size() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *Window) Scale() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale
}

// SetScale changes the device pixel scale.
func (w *Window) SetScale(scale int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scale = scale
}

// SetTransparent marks the window as needing an alpha channel.
func (w *Window) SetTransparent(alpha bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alpha = alpha
}

func (w *Window) Transparent() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alpha
}

// Resize queues a size change, applied by ApplyPendingResize.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := image.Pt(width, height)
	w.pending = &p
}

func (w *Window) ApplyPendingResize() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return false
	}
	changed := *w.pending != w.size
	w.size = *w.pending
	w.pending = nil
	return changed
}

// pixels returns the size in device pixels.
func (w *Window) pixels() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size.Mul(w.scale)
}
