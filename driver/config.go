// SPDX-License-Identifier: Unlicense OR MIT

package driver

// ConfigID identifies a native pixel format or EGL config. Zero means
// no format.
type ConfigID int

// SwapMethod describes what happens to the back buffer on swap.
type SwapMethod uint8

const (
	SwapUndefined SwapMethod = iota
	// SwapCopy leaves the back buffer intact.
	SwapCopy
	// SwapExchange hands the previous front buffer back.
	SwapExchange
)

// Config describes a pixel format.
type Config struct {
	ID           ConfigID
	Window       bool
	GL           bool
	RGBA         bool
	Generic      bool
	DoubleBuffer bool
	Stereo       bool
	Swap         SwapMethod
	SRGB         bool

	RedBits, GreenBits, BlueBits, AlphaBits int
	DepthBits, StencilBits, AccumBits       int
	Samples                                 int
}

// FormatRequest is the attribute query of ChooseConfigs.
type FormatRequest struct {
	Alpha        bool
	DoubleBuffer bool
	ColorBits    int
	Samples      int
	// Swap requests a particular swap method; SwapUndefined leaves it
	// unspecified.
	Swap SwapMethod
}

// HasAlpha reports whether the format carries an 8-bit alpha channel.
func (c Config) HasAlpha() bool {
	return c.AlphaBits >= 8
}

// Ancillary returns the bits spent on depth, stencil and accumulation.
func (c Config) Ancillary() int {
	return c.DepthBits + c.StencilBits + c.AccumBits
}

func (s SwapMethod) String() string {
	switch s {
	case SwapUndefined:
		return "undefined"
	case SwapCopy:
		return "copy"
	case SwapExchange:
		return "exchange"
	default:
		panic("invalid swap method")
	}
}
