// SPDX-License-Identifier: Unlicense OR MIT

// Package headless implements headless windows for rendering
// frames to an image through the software backend.
package headless

import (
	"image"
	"image/color"
	"runtime"

	"golang.org/x/image/draw"

	"github.com/gdkgo/glctx/app"
	"github.com/gdkgo/glctx/internal/software"
	"github.com/gdkgo/glctx/region"
)

// Window is a headless window.
type Window struct {
	disp *app.Display
	drv  *software.Driver
	win  *software.Window
	ctx  *app.Context
}

// Painter draws a frame into dst. Only repaint, in device pixels, must
// be drawn; the rest of dst already holds the previous frame.
type Painter func(dst draw.Image, repaint region.Region)

// NewWindow creates a new headless window of the given size.
func NewWindow(width, height int, opts ...app.Option) (*Window, error) {
	drv := software.New()
	disp, err := app.NewDisplay(0, append([]app.Option{app.WithDriver(drv)}, opts...)...)
	if err != nil {
		return nil, err
	}
	w := &Window{
		disp: disp,
		drv:  drv,
		win:  software.NewWindow(width, height),
	}
	ctx, err := disp.NewContext(w.win)
	if err == nil {
		w.ctx = ctx
		err = contextDo(ctx, func() error { return nil })
	}
	if err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

// Release resources associated with the window.
func (w *Window) Release() {
	if w.ctx != nil {
		w.ctx.Release()
		w.ctx = nil
	}
	if w.disp != nil {
		w.disp.Close()
		w.disp = nil
	}
	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
}

// Resize changes the window size from the next frame on.
func (w *Window) Resize(width, height int) {
	w.win.Resize(width, height)
}

// Frame renders a frame repainting at least req with paint, and
// presents it. It returns the damage of the frame.
func (w *Window) Frame(req region.Region, paint Painter) (app.FrameDamage, error) {
	var dmg app.FrameDamage
	err := contextDo(w.ctx, func() error {
		if _, _, err := w.ctx.BeginFrame(req); err != nil {
			return err
		}
		dmg = w.ctx.Frame()
		chain, err := w.drv.Swapchain(w.ctx.Drawable())
		if err != nil {
			w.ctx.EndFrame(region.Region{})
			return err
		}
		paint(chain.Back(), dmg.Repaint.Scale(w.win.Scale()))
		return w.ctx.EndFrame(dmg.Repaint)
	})
	return dmg, err
}

// Screenshot returns an image with the content of the window.
func (w *Window) Screenshot() (*image.RGBA, error) {
	var img *image.RGBA
	err := contextDo(w.ctx, func() error {
		chain, err := w.drv.Swapchain(w.ctx.Drawable())
		if err != nil {
			return err
		}
		front := chain.Front()
		img = image.NewRGBA(front.Bounds())
		draw.Draw(img, img.Bounds(), front, image.Point{}, draw.Src)
		return nil
	})
	return img, err
}

// Fill returns a Painter filling the repainted area with col.
func Fill(col color.Color) Painter {
	return func(dst draw.Image, repaint region.Region) {
		src := image.NewUniform(col)
		for _, r := range repaint.Rects() {
			draw.Draw(dst, r, src, image.Point{}, draw.Src)
		}
	}
}

// FillRect returns a Painter filling r with col, clipped to the
// repainted area, over a background.
func FillRect(bg, col color.Color, r image.Rectangle) Painter {
	return func(dst draw.Image, repaint region.Region) {
		Fill(bg)(dst, repaint)
		src := image.NewUniform(col)
		for _, rr := range repaint.Rects() {
			draw.Draw(dst, rr.Intersect(r), src, image.Point{}, draw.Src)
		}
	}
}

func contextDo(ctx *app.Context, f func() error) error {
	errCh := make(chan error)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := ctx.MakeCurrent(); err != nil {
			errCh <- err
			return
		}
		defer ctx.Display().ClearCurrent()
		errCh <- f()
	}()
	return <-errCh
}
