// SPDX-License-Identifier: Unlicense OR MIT

package wgl

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/gdkgo/glctx/driver"
)

func attrib(list []int32, key int32) (int32, bool) {
	for i := 0; i+1 < len(list); i += 2 {
		if list[i] == key {
			return list[i+1], true
		}
	}
	return 0, false
}

func TestDescriptorSize(t *testing.T) {
	assert.Equal(t, uintptr(pixelFormatDescriptorSize), unsafe.Sizeof(pixelFormatDescriptor{}))
}

func TestFormatAttribs(t *testing.T) {
	tests := []struct {
		swap driver.SwapMethod
		want int32
	}{
		{driver.SwapExchange, _WGL_SWAP_EXCHANGE_ARB},
		{driver.SwapCopy, _WGL_SWAP_COPY_ARB},
		{driver.SwapUndefined, _WGL_SWAP_UNDEFINED_ARB},
	}
	for _, test := range tests {
		t.Run(test.swap.String(), func(t *testing.T) {
			list := formatAttribs(driver.FormatRequest{DoubleBuffer: true, ColorBits: 24, Swap: test.swap})
			assert.Equal(t, int32(0), list[len(list)-1])
			swap, _ := attrib(list, _WGL_SWAP_METHOD_ARB)
			assert.Equal(t, test.want, swap)
			db, _ := attrib(list, _WGL_DOUBLE_BUFFER_ARB)
			assert.Equal(t, int32(1), db)
			_, ok := attrib(list, _WGL_ALPHA_BITS_ARB)
			assert.False(t, ok)
		})
	}
}

func TestFormatAttribsAlphaSamples(t *testing.T) {
	list := formatAttribs(driver.FormatRequest{Alpha: true, ColorBits: 24, Samples: 4})
	alpha, _ := attrib(list, _WGL_ALPHA_BITS_ARB)
	assert.Equal(t, int32(8), alpha)
	samples, _ := attrib(list, _WGL_SAMPLES_ARB)
	assert.Equal(t, int32(4), samples)
	db, _ := attrib(list, _WGL_DOUBLE_BUFFER_ARB)
	assert.Equal(t, int32(0), db)
}

func TestContextAttribs(t *testing.T) {
	list := contextAttribs(&driver.ContextAttribs{
		Version:           driver.Version{Major: 3, Minor: 2},
		Profile:           driver.ProfileCore,
		ForwardCompatible: true,
		Debug:             true,
	})
	major, _ := attrib(list, _WGL_CONTEXT_MAJOR_VERSION_ARB)
	minor, _ := attrib(list, _WGL_CONTEXT_MINOR_VERSION_ARB)
	mask, _ := attrib(list, _WGL_CONTEXT_PROFILE_MASK_ARB)
	flags, _ := attrib(list, _WGL_CONTEXT_FLAGS_ARB)
	assert.Equal(t, []int32{3, 2}, []int32{major, minor})
	assert.Equal(t, int32(_WGL_CONTEXT_CORE_PROFILE_BIT_ARB), mask)
	assert.Equal(t, int32(_WGL_CONTEXT_DEBUG_BIT_ARB|_WGL_CONTEXT_FORWARD_COMPATIBLE_BIT_ARB), flags)

	list = contextAttribs(&driver.ContextAttribs{
		Version:           driver.Version{Major: 3, Minor: 0},
		Profile:           driver.ProfileCompatibility,
		ForwardCompatible: true,
	})
	mask, _ = attrib(list, _WGL_CONTEXT_PROFILE_MASK_ARB)
	assert.Equal(t, int32(_WGL_CONTEXT_COMPATIBILITY_PROFILE_BIT), mask)
	_, ok := attrib(list, _WGL_CONTEXT_FLAGS_ARB)
	assert.False(t, ok)

	list = contextAttribs(&driver.ContextAttribs{Version: driver.Version{Major: 2}, Profile: driver.ProfileES})
	mask, _ = attrib(list, _WGL_CONTEXT_PROFILE_MASK_ARB)
	assert.Equal(t, int32(_WGL_CONTEXT_ES2_PROFILE_BIT_EXT), mask)
}

func TestConfigFromDescriptor(t *testing.T) {
	pfd := basicDescriptor(driver.FormatRequest{DoubleBuffer: true, Swap: driver.SwapCopy, Alpha: true})
	pfd.RedBits, pfd.GreenBits, pfd.BlueBits = 8, 8, 8
	pfd.DepthBits = 24
	c := configFromDescriptor(7, &pfd)
	assert.Equal(t, driver.Config{
		ID:           7,
		Window:       true,
		GL:           true,
		RGBA:         true,
		DoubleBuffer: true,
		Swap:         driver.SwapCopy,
		RedBits:      8,
		GreenBits:    8,
		BlueBits:     8,
		AlphaBits:    8,
		DepthBits:    24,
	}, c)

	pfd.Flags |= _PFD_GENERIC_FORMAT
	assert.True(t, configFromDescriptor(7, &pfd).Generic)
	// Generic formats accelerated by an MCD driver are not software.
	pfd.Flags |= _PFD_GENERIC_ACCELERATED
	assert.False(t, configFromDescriptor(7, &pfd).Generic)
}

func TestConfigFromValues(t *testing.T) {
	values := []int32{
		1, 1, _WGL_TYPE_RGBA_ARB, _WGL_FULL_ACCELERATION_ARB,
		1, 0, _WGL_SWAP_EXCHANGE_ARB,
		8, 8, 8, 8, 24, 8, 0, 4, 1,
	}
	c := configFromValues(3, values)
	assert.Equal(t, driver.SwapExchange, c.Swap)
	assert.True(t, c.SRGB)
	assert.False(t, c.Generic)
	assert.Equal(t, 4, c.Samples)
	assert.Equal(t, 32, c.Ancillary())

	values[3] = _WGL_NO_ACCELERATION_ARB
	values[6] = _WGL_SWAP_UNDEFINED_ARB
	c = configFromValues(3, values)
	assert.True(t, c.Generic)
	assert.Equal(t, driver.SwapUndefined, c.Swap)

	assert.Panics(t, func() { configFromValues(1, values[:3]) })
}

func TestValidProc(t *testing.T) {
	for _, p := range []uintptr{0, 1, 2, 3, ^uintptr(0)} {
		assert.False(t, validProc(p), "%#x", p)
	}
	assert.True(t, validProc(0x7ff0_1000))
}
