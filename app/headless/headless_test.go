// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdkgo/glctx/app"
	"github.com/gdkgo/glctx/internal/config"
	"github.com/gdkgo/glctx/region"
)

var dumpImages = flag.Bool("saveimages", false, "save test images")

var (
	bg   = color.RGBA{A: 0xff, R: 0xff, G: 0xff, B: 0xff}
	col  = color.RGBA{A: 0xff, R: 0xca, G: 0xfe}
	col2 = color.RGBA{A: 0xff, G: 0xfe}
)

func TestHeadless(t *testing.T) {
	w := newTestWindow(t)

	sz := image.Pt(800, 600)
	dmg, err := w.Frame(region.Region{}, FillRect(bg, col, image.Rect(0, 0, sz.X-100, sz.Y-100)))
	require.NoError(t, err)
	assert.Equal(t, app.FullSwap, dmg.Decision)

	img, err := w.Screenshot()
	require.NoError(t, err)
	saveImage(t, "headless.png", img)
	assert.Equal(t, sz, img.Bounds().Size())
	assert.Equal(t, col, img.RGBAAt(0, 0))
	assert.Equal(t, bg, img.RGBAAt(sz.X-50, sz.Y-50))
}

func TestPartialFrame(t *testing.T) {
	w := newTestWindow(t)

	_, err := w.Frame(region.Region{}, Fill(bg))
	require.NoError(t, err)

	dirty := image.Rect(100, 100, 200, 150)
	dmg, err := w.Frame(region.New(dirty), Fill(col2))
	require.NoError(t, err)
	assert.Equal(t, app.PartialBlit, dmg.Decision)
	assert.True(t, dmg.Repaint.Equal(region.New(dirty)))

	img, err := w.Screenshot()
	require.NoError(t, err)
	saveImage(t, "partial.png", img)
	tests := []struct {
		x, y  int
		color color.RGBA
	}{
		{120, 120, col2},
		{199, 149, col2},
		{99, 120, bg},
		{150, 150, bg},
		{0, 0, bg},
	}
	for _, test := range tests {
		assert.Equal(t, test.color, img.RGBAAt(test.x, test.y), "(%d,%d)", test.x, test.y)
	}
}

func TestResize(t *testing.T) {
	w := newTestWindow(t)

	_, err := w.Frame(region.Region{}, Fill(bg))
	require.NoError(t, err)
	w.Resize(320, 200)
	dmg, err := w.Frame(region.New(image.Rect(0, 0, 10, 10)), Fill(col))
	require.NoError(t, err)
	assert.Equal(t, app.FullSwap, dmg.Decision)

	img, err := w.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(320, 200), img.Bounds().Size())
	assert.Equal(t, col, img.RGBAAt(319, 199))
}

func TestReleased(t *testing.T) {
	w, err := NewWindow(10, 10, testOptions()...)
	require.NoError(t, err)
	ctx := w.ctx
	w.Release()
	w.Release()
	assert.ErrorIs(t, ctx.MakeCurrent(), app.ErrReleased)
}

func testOptions() []app.Option {
	return []app.Option{
		app.WithConfig(config.Default()),
		app.WithLogger(log.New(io.Discard)),
	}
}

func newTestWindow(t *testing.T) *Window {
	t.Helper()
	w, err := NewWindow(800, 600, testOptions()...)
	if err != nil {
		t.Skipf("headless windows not supported: %v", err)
	}
	t.Cleanup(w.Release)
	return w
}

func saveImage(t *testing.T, file string, img image.Image) {
	t.Helper()
	if !*dumpImages {
		return
	}
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
