// SPDX-License-Identifier: Unlicense OR MIT

// Package driver defines the native calls a graphics backend must provide
// for context negotiation and presentation. Implementations wrap WGL, EGL
// or a software swap chain; the app package drives them.
package driver

import (
	"errors"
	"image"
)

// API identifies a graphics backend.
type API uint8

const (
	APINone API = iota
	APIWGL
	APIEGL
	APID3D12
	APISoftware
)

// Handle is an opaque native handle: a window, device context, EGL
// surface, rendering context or swap chain.
type Handle uintptr

// Profile selects the context profile requested from CreateContext.
type Profile uint8

const (
	ProfileCore Profile = iota
	ProfileCompatibility
	ProfileES
)

// ContextAttribs are the attributes of a modern context creation call
// (wglCreateContextAttribsARB, eglCreateContext with KHR_create_context).
type ContextAttribs struct {
	Profile           Profile
	Version           Version
	Debug             bool
	ForwardCompatible bool
}

// Dummy is a throwaway window and drawable used to probe a driver and to
// back offscreen contexts on backends without surfaceless support.
type Dummy struct {
	Window   Handle
	Drawable Handle
	Config   ConfigID
}

// ErrNoSurface is returned by drivers asked to present without a drawable.
var ErrNoSurface = errors.New("driver: no drawable")

// Driver is the native interface of a backend. All methods are called
// from the thread owning the display connection.
type Driver interface {
	API() API
	// Open connects to the native display and returns the
	// platform API version (EGL version, WGL/opengl32 version).
	Open() (Version, error)
	// Close disconnects from the native display.
	Close() error

	// CreateDummy creates a throwaway window and drawable with a basic
	// pixel format applied.
	CreateDummy() (Dummy, error)
	DestroyDummy(d Dummy) error
	// Extensions returns the platform and GL extension names available
	// with the current context bound to drawable.
	Extensions(drawable Handle) []string
	// Vendor returns the vendor string of the current context.
	Vendor() string
	// Version returns the version of the current context.
	Version() Version

	// ChooseConfigs runs the attribute-based format query
	// (wglChoosePixelFormatARB, eglChooseConfig) for window.
	ChooseConfigs(window Handle, req FormatRequest) ([]ConfigID, error)
	// DescribeConfigs enumerates every format window can use.
	DescribeConfigs(window Handle) ([]Config, error)
	DescribeConfig(window Handle, id ConfigID) (Config, error)
	// ConfigOf returns the format already applied to window, or 0.
	ConfigOf(window Handle) (ConfigID, error)
	// SetConfig applies a format to window. The platform allows this
	// at most once per window.
	SetConfig(window Handle, id ConfigID) error

	// OpenDrawable returns the drawable for window: its device
	// context, EGL surface or swap chain.
	OpenDrawable(window Handle, id ConfigID) (Handle, error)
	CloseDrawable(window, drawable Handle) error

	// CreateContext creates a rendering context on drawable sharing
	// objects with share, if non-zero. A nil attribs creates a legacy
	// context without attributes.
	CreateContext(drawable Handle, id ConfigID, share Handle, attribs *ContextAttribs) (Handle, error)
	DestroyContext(ctx Handle) error
	// MakeCurrent binds ctx and drawable to the calling thread. Zero
	// handles unbind.
	MakeCurrent(drawable, ctx Handle) error
	CurrentContext() Handle

	SwapInterval(drawable Handle, interval int) error
	SwapBuffers(drawable Handle) error
	// SwapHint limits the next SwapBuffers to rects, in native pixel
	// coordinates. Backends without swap hints ignore it.
	SwapHint(drawable Handle, rects []image.Rectangle) error
	// BlitRegion copies rects from the back to the front buffer and
	// flushes. Rects are in native pixel coordinates.
	BlitRegion(drawable Handle, rects []image.Rectangle) error
	// BufferAge reports the age of the back buffer, if known.
	BufferAge(drawable Handle) (int, bool)
	Finish() error
	// WaitVBlank blocks until the next vertical blank of drawable.
	WaitVBlank(drawable Handle) error
}

func (a API) String() string {
	switch a {
	case APINone:
		return "none"
	case APIWGL:
		return "wgl"
	case APIEGL:
		return "egl"
	case APID3D12:
		return "d3d12"
	case APISoftware:
		return "software"
	default:
		panic("invalid API")
	}
}

// ParseAPI parses the names returned by API.String.
func ParseAPI(s string) (API, bool) {
	for a := APIWGL; a <= APISoftware; a++ {
		if a.String() == s {
			return a, true
		}
	}
	return APINone, false
}

func (p Profile) String() string {
	switch p {
	case ProfileCore:
		return "core"
	case ProfileCompatibility:
		return "compat"
	case ProfileES:
		return "es"
	default:
		panic("invalid profile")
	}
}
