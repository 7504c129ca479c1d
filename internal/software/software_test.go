// SPDX-License-Identifier: Unlicense OR MIT

package software

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/gdkgo/glctx/driver"
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

func TestExchangeAges(t *testing.T) {
	s := newSwapchain(pixelFormats[0], image.Pt(4, 4))
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, s.Config.Format)
	assert.Equal(t, uint32(4), s.Config.Width)
	assert.Equal(t, 0, s.Age())
	require.NoError(t, s.Present())
	assert.Equal(t, 0, s.Age())
	require.NoError(t, s.Present())
	assert.Equal(t, 2, s.Age())

	red := color.RGBA{R: 0xff, A: 0xff}
	fill(s.Back(), s.Back().Bounds(), red)
	require.NoError(t, s.Present())
	assert.Equal(t, red, s.Front().RGBAAt(1, 1))
	assert.NotEqual(t, red, s.Back().RGBAAt(1, 1))
}

func TestCopyKeepsBackBuffer(t *testing.T) {
	s := newSwapchain(pixelFormats[1], image.Pt(4, 4))
	green := color.RGBA{G: 0xff, A: 0xff}
	fill(s.Back(), s.Back().Bounds(), green)
	require.NoError(t, s.Present())
	assert.Equal(t, 1, s.Age())
	assert.Equal(t, green, s.Front().RGBAAt(3, 3))
	assert.Equal(t, green, s.Back().RGBAAt(3, 3))
}

func TestBlit(t *testing.T) {
	s := newSwapchain(pixelFormats[0], image.Pt(8, 8))
	blue := color.RGBA{B: 0xff, A: 0xff}
	fill(s.Back(), s.Back().Bounds(), blue)
	require.NoError(t, s.Blit([]image.Rectangle{image.Rect(0, 0, 4, 4), image.Rect(6, 6, 20, 20)}))
	assert.Equal(t, blue, s.Front().RGBAAt(2, 2))
	assert.Equal(t, blue, s.Front().RGBAAt(7, 7))
	assert.Equal(t, color.RGBA{}, s.Front().RGBAAt(5, 5))
	assert.Equal(t, 1, s.Age())
}

func TestFormatDescriptions(t *testing.T) {
	tests := []struct {
		id                    driver.ConfigID
		alpha, depth, stencil int
		srgb, double          bool
	}{
		{1, 8, 24, 8, false, true},
		{2, 0, 24, 8, false, true},
		{3, 8, 0, 0, true, true},
		{4, 8, 0, 0, false, false},
	}
	for _, test := range tests {
		c, err := New().DescribeConfig(0, test.id)
		require.NoError(t, err)
		assert.Equal(t, test.alpha, c.AlphaBits, "format %d", test.id)
		assert.Equal(t, test.depth, c.DepthBits, "format %d", test.id)
		assert.Equal(t, test.stencil, c.StencilBits, "format %d", test.id)
		assert.Equal(t, test.srgb, c.SRGB, "format %d", test.id)
		assert.Equal(t, test.double, c.DoubleBuffer, "format %d", test.id)
	}
	_, err := New().DescribeConfig(0, 9)
	assert.Error(t, err)
}

func TestOpaquePresent(t *testing.T) {
	s := newSwapchain(pixelFormats[1], image.Pt(4, 4))
	translucent := color.RGBA{R: 0x40, A: 0x80}
	fill(s.Back(), s.Back().Bounds(), translucent)
	require.NoError(t, s.Blit([]image.Rectangle{image.Rect(0, 0, 2, 2)}))
	assert.Equal(t, color.RGBA{R: 0x40, A: 0xff}, s.Front().RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, s.Front().RGBAAt(3, 3))
	require.NoError(t, s.Present())
	assert.Equal(t, color.RGBA{R: 0x40, A: 0xff}, s.Front().RGBAAt(3, 3))
	// The back buffer keeps what was rendered.
	assert.Equal(t, translucent, s.Back().RGBAAt(3, 3))
}

func TestSingleBufferedBlit(t *testing.T) {
	s := newSwapchain(pixelFormats[3], image.Pt(4, 4))
	assert.False(t, s.Config.Usage.Contains(gputypes.TextureUsageCopySrc))
	red := color.RGBA{R: 0xff, A: 0xff}
	fill(s.Back(), s.Back().Bounds(), red)
	require.NoError(t, s.Blit([]image.Rectangle{image.Rect(0, 0, 4, 4)}))
	assert.Same(t, s.Front(), s.Back())
	assert.Equal(t, red, s.Front().RGBAAt(2, 2))
}

func TestResizeDropsContent(t *testing.T) {
	s := newSwapchain(pixelFormats[1], image.Pt(2, 2))
	require.NoError(t, s.Present())
	s.resize(image.Pt(3, 5))
	assert.Equal(t, image.Pt(3, 5), s.Size())
	assert.Equal(t, image.Pt(3, 5), s.Back().Bounds().Size())
	assert.Equal(t, 0, s.Age())
}

func TestDriverLifecycle(t *testing.T) {
	d := New()
	_, err := d.Open()
	require.NoError(t, err)
	win := NewWindow(10, 10)
	defer win.Destroy()

	require.NoError(t, d.SetConfig(win.NativeHandle(), 1))
	assert.Error(t, d.SetConfig(win.NativeHandle(), 2))
	surf, err := d.OpenDrawable(win.NativeHandle(), 1)
	require.NoError(t, err)

	_, err = d.CreateContext(surf, 1, 0, &driver.ContextAttribs{Version: driver.Version{Major: 3, Minor: 2}})
	assert.ErrorIs(t, err, errAttribs)
	ctx, err := d.CreateContext(surf, 1, 0, nil)
	require.NoError(t, err)
	require.NoError(t, d.MakeCurrent(surf, ctx))
	assert.Equal(t, ContextVersion, d.Version())

	assert.Error(t, d.DestroyContext(ctx), "destroying the current context")
	assert.Error(t, d.CloseDrawable(win.NativeHandle(), surf), "closing the current drawable")
	require.NoError(t, d.MakeCurrent(0, 0))
	require.NoError(t, d.DestroyContext(ctx))
	require.NoError(t, d.CloseDrawable(win.NativeHandle(), surf))
	require.NoError(t, d.Close())
}

func TestSwapchainFollowsWindow(t *testing.T) {
	d := New()
	_, err := d.Open()
	require.NoError(t, err)
	win := NewWindow(10, 10)
	defer win.Destroy()
	require.NoError(t, d.SetConfig(win.NativeHandle(), 2))
	surf, err := d.OpenDrawable(win.NativeHandle(), 2)
	require.NoError(t, err)
	win.SetScale(2)
	win.Resize(20, 5)
	assert.True(t, win.ApplyPendingResize())
	s, err := d.Swapchain(surf)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 10), s.Size())
	require.NoError(t, d.CloseDrawable(win.NativeHandle(), surf))
}
