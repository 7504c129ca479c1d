// SPDX-License-Identifier: Unlicense OR MIT

// Package wgl implements driver.Driver on WGL. The attribute and
// descriptor translation in this file is platform independent; the
// native calls live in wgl_windows.go.
package wgl

import (
	"github.com/gdkgo/glctx/driver"
)

const (
	_WGL_NUMBER_PIXEL_FORMATS_ARB     = 0x2000
	_WGL_DRAW_TO_WINDOW_ARB           = 0x2001
	_WGL_ACCELERATION_ARB             = 0x2003
	_WGL_SWAP_METHOD_ARB              = 0x2007
	_WGL_SUPPORT_OPENGL_ARB           = 0x2010
	_WGL_DOUBLE_BUFFER_ARB            = 0x2011
	_WGL_STEREO_ARB                   = 0x2012
	_WGL_PIXEL_TYPE_ARB               = 0x2013
	_WGL_COLOR_BITS_ARB               = 0x2014
	_WGL_RED_BITS_ARB                 = 0x2015
	_WGL_GREEN_BITS_ARB               = 0x2017
	_WGL_BLUE_BITS_ARB                = 0x2019
	_WGL_ALPHA_BITS_ARB               = 0x201b
	_WGL_ACCUM_BITS_ARB               = 0x201d
	_WGL_DEPTH_BITS_ARB               = 0x2022
	_WGL_STENCIL_BITS_ARB             = 0x2023
	_WGL_NO_ACCELERATION_ARB          = 0x2025
	_WGL_FULL_ACCELERATION_ARB        = 0x2027
	_WGL_SWAP_EXCHANGE_ARB            = 0x2028
	_WGL_SWAP_COPY_ARB                = 0x2029
	_WGL_SWAP_UNDEFINED_ARB           = 0x202a
	_WGL_TYPE_RGBA_ARB                = 0x202b
	_WGL_SAMPLE_BUFFERS_ARB           = 0x2041
	_WGL_SAMPLES_ARB                  = 0x2042
	_WGL_FRAMEBUFFER_SRGB_CAPABLE_ARB = 0x20a9

	_WGL_CONTEXT_MAJOR_VERSION_ARB          = 0x2091
	_WGL_CONTEXT_MINOR_VERSION_ARB          = 0x2092
	_WGL_CONTEXT_FLAGS_ARB                  = 0x2094
	_WGL_CONTEXT_PROFILE_MASK_ARB           = 0x9126
	_WGL_CONTEXT_DEBUG_BIT_ARB              = 0x1
	_WGL_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB = 0x2
	_WGL_CONTEXT_CORE_PROFILE_BIT_ARB       = 0x1
	_WGL_CONTEXT_COMPATIBILITY_PROFILE_BIT  = 0x2
	_WGL_CONTEXT_ES2_PROFILE_BIT_EXT        = 0x4

	_PFD_DOUBLEBUFFER        = 0x1
	_PFD_STEREO              = 0x2
	_PFD_DRAW_TO_WINDOW      = 0x4
	_PFD_SUPPORT_OPENGL      = 0x20
	_PFD_GENERIC_FORMAT      = 0x40
	_PFD_SWAP_EXCHANGE       = 0x200
	_PFD_SWAP_COPY           = 0x400
	_PFD_GENERIC_ACCELERATED = 0x1000
	_PFD_TYPE_RGBA           = 0
)

// pixelFormatDescriptor mirrors PIXELFORMATDESCRIPTOR.
type pixelFormatDescriptor struct {
	Size           uint16
	Version        uint16
	Flags          uint32
	PixelType      uint8
	ColorBits      uint8
	RedBits        uint8
	RedShift       uint8
	GreenBits      uint8
	GreenShift     uint8
	BlueBits       uint8
	BlueShift      uint8
	AlphaBits      uint8
	AlphaShift     uint8
	AccumBits      uint8
	AccumRedBits   uint8
	AccumGreenBits uint8
	AccumBlueBits  uint8
	AccumAlphaBits uint8
	DepthBits      uint8
	StencilBits    uint8
	AuxBuffers     uint8
	LayerType      uint8
	Reserved       uint8
	LayerMask      uint32
	VisibleMask    uint32
	DamageMask     uint32
}

const pixelFormatDescriptorSize = 40

// basicDescriptor is the format requested for dummy windows and by the
// legacy ChoosePixelFormat path.
func basicDescriptor(req driver.FormatRequest) pixelFormatDescriptor {
	pfd := pixelFormatDescriptor{
		Size:      pixelFormatDescriptorSize,
		Version:   1,
		Flags:     _PFD_DRAW_TO_WINDOW | _PFD_SUPPORT_OPENGL,
		PixelType: _PFD_TYPE_RGBA,
		ColorBits: 24,
	}
	if req.DoubleBuffer {
		pfd.Flags |= _PFD_DOUBLEBUFFER
	}
	switch req.Swap {
	case driver.SwapExchange:
		pfd.Flags |= _PFD_SWAP_EXCHANGE
	case driver.SwapCopy:
		pfd.Flags |= _PFD_SWAP_COPY
	}
	if req.ColorBits > 0 {
		pfd.ColorBits = uint8(req.ColorBits)
	}
	if req.Alpha {
		pfd.AlphaBits = 8
	}
	return pfd
}

// configFromDescriptor describes format id from its descriptor. Formats
// implemented by the Microsoft GDI renderer are generic.
func configFromDescriptor(id driver.ConfigID, pfd *pixelFormatDescriptor) driver.Config {
	c := driver.Config{
		ID:           id,
		Window:       pfd.Flags&_PFD_DRAW_TO_WINDOW != 0,
		GL:           pfd.Flags&_PFD_SUPPORT_OPENGL != 0,
		RGBA:         pfd.PixelType == _PFD_TYPE_RGBA,
		Generic:      pfd.Flags&_PFD_GENERIC_FORMAT != 0 && pfd.Flags&_PFD_GENERIC_ACCELERATED == 0,
		DoubleBuffer: pfd.Flags&_PFD_DOUBLEBUFFER != 0,
		Stereo:       pfd.Flags&_PFD_STEREO != 0,
		RedBits:      int(pfd.RedBits),
		GreenBits:    int(pfd.GreenBits),
		BlueBits:     int(pfd.BlueBits),
		AlphaBits:    int(pfd.AlphaBits),
		DepthBits:    int(pfd.DepthBits),
		StencilBits:  int(pfd.StencilBits),
		AccumBits:    int(pfd.AccumBits),
	}
	switch {
	case pfd.Flags&_PFD_SWAP_EXCHANGE != 0:
		c.Swap = driver.SwapExchange
	case pfd.Flags&_PFD_SWAP_COPY != 0:
		c.Swap = driver.SwapCopy
	}
	return c
}

// formatAttribs returns the wglChoosePixelFormatARB attribute list for
// req, terminated by 0.
func formatAttribs(req driver.FormatRequest) []int32 {
	attribs := []int32{
		_WGL_DRAW_TO_WINDOW_ARB, 1,
		_WGL_SUPPORT_OPENGL_ARB, 1,
		_WGL_ACCELERATION_ARB, _WGL_FULL_ACCELERATION_ARB,
		_WGL_PIXEL_TYPE_ARB, _WGL_TYPE_RGBA_ARB,
		_WGL_DOUBLE_BUFFER_ARB, boolAttrib(req.DoubleBuffer),
		_WGL_COLOR_BITS_ARB, int32(req.ColorBits),
	}
	if req.Alpha {
		attribs = append(attribs, _WGL_ALPHA_BITS_ARB, 8)
	}
	if req.Samples > 0 {
		attribs = append(attribs, _WGL_SAMPLE_BUFFERS_ARB, 1, _WGL_SAMPLES_ARB, int32(req.Samples))
	}
	var swap int32
	switch req.Swap {
	case driver.SwapExchange:
		swap = _WGL_SWAP_EXCHANGE_ARB
	case driver.SwapCopy:
		swap = _WGL_SWAP_COPY_ARB
	default:
		swap = _WGL_SWAP_UNDEFINED_ARB
	}
	attribs = append(attribs, _WGL_SWAP_METHOD_ARB, swap)
	return append(attribs, 0)
}

func boolAttrib(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// describeAttribs are queried through wglGetPixelFormatAttribivARB, in
// the order configFromValues expects.
var describeAttribs = []int32{
	_WGL_DRAW_TO_WINDOW_ARB,
	_WGL_SUPPORT_OPENGL_ARB,
	_WGL_PIXEL_TYPE_ARB,
	_WGL_ACCELERATION_ARB,
	_WGL_DOUBLE_BUFFER_ARB,
	_WGL_STEREO_ARB,
	_WGL_SWAP_METHOD_ARB,
	_WGL_RED_BITS_ARB,
	_WGL_GREEN_BITS_ARB,
	_WGL_BLUE_BITS_ARB,
	_WGL_ALPHA_BITS_ARB,
	_WGL_DEPTH_BITS_ARB,
	_WGL_STENCIL_BITS_ARB,
	_WGL_ACCUM_BITS_ARB,
	_WGL_SAMPLES_ARB,
	_WGL_FRAMEBUFFER_SRGB_CAPABLE_ARB,
}

// configFromValues describes format id from the values of
// describeAttribs.
func configFromValues(id driver.ConfigID, v []int32) driver.Config {
	if len(v) != len(describeAttribs) {
		panic("wgl: attribute count mismatch")
	}
	c := driver.Config{
		ID:           id,
		Window:       v[0] != 0,
		GL:           v[1] != 0,
		RGBA:         v[2] == _WGL_TYPE_RGBA_ARB,
		Generic:      v[3] == _WGL_NO_ACCELERATION_ARB,
		DoubleBuffer: v[4] != 0,
		Stereo:       v[5] != 0,
		RedBits:      int(v[7]),
		GreenBits:    int(v[8]),
		BlueBits:     int(v[9]),
		AlphaBits:    int(v[10]),
		DepthBits:    int(v[11]),
		StencilBits:  int(v[12]),
		AccumBits:    int(v[13]),
		Samples:      int(v[14]),
		SRGB:         v[15] != 0,
	}
	switch v[6] {
	case _WGL_SWAP_EXCHANGE_ARB:
		c.Swap = driver.SwapExchange
	case _WGL_SWAP_COPY_ARB:
		c.Swap = driver.SwapCopy
	}
	return c
}

// contextAttribs returns the wglCreateContextAttribsARB attribute list
// for attribs, terminated by 0.
func contextAttribs(attribs *driver.ContextAttribs) []int32 {
	list := []int32{
		_WGL_CONTEXT_MAJOR_VERSION_ARB, int32(attribs.Version.Major),
		_WGL_CONTEXT_MINOR_VERSION_ARB, int32(attribs.Version.Minor),
	}
	var mask, flags int32
	switch attribs.Profile {
	case driver.ProfileCore:
		mask = _WGL_CONTEXT_CORE_PROFILE_BIT_ARB
		if attribs.ForwardCompatible {
			flags |= _WGL_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB
		}
	case driver.ProfileCompatibility:
		mask = _WGL_CONTEXT_COMPATIBILITY_PROFILE_BIT
	case driver.ProfileES:
		mask = _WGL_CONTEXT_ES2_PROFILE_BIT_EXT
	}
	if attribs.Debug {
		flags |= _WGL_CONTEXT_DEBUG_BIT_ARB
	}
	list = append(list, _WGL_CONTEXT_PROFILE_MASK_ARB, mask)
	if flags != 0 {
		list = append(list, _WGL_CONTEXT_FLAGS_ARB, flags)
	}
	return append(list, 0)
}

// validProc reports whether p is a usable wglGetProcAddress result. Some
// drivers return small sentinel values instead of NULL.
func validProc(p uintptr) bool {
	switch p {
	case 0, 1, 2, 3, ^uintptr(0):
		return false
	}
	return true
}
