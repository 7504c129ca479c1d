// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app negotiates native graphics contexts for windows and presents
their frames.

# Displays

A Display wraps one native display connection. The first call to
Capabilities selects a backend by probing the registered drivers in
priority order (WGL, EGL, then the software renderer) and caches the
result:

	d, err := app.NewDisplay(0)
	if err != nil {
		...
	}
	defer d.Close()
	caps, err := d.Capabilities()

# Contexts

NewContext returns an unrealized Context for a Surface. Realize selects a
pixel format for the window, applied at most once, and creates the native
context, walking down from a core profile through a compatibility profile
to a legacy context until one succeeds:

	ctx, err := d.NewContext(win, app.RequiredVersion(3, 2))
	if err != nil {
		...
	}
	if err := ctx.Realize(); err != nil {
		...
	}
	defer ctx.Release()

A nil Surface, or the Attached(false) option, creates an offscreen context.
Contexts created with Share use the objects of their parent, which is kept
alive until its last child is released.

# Frames

Each redraw is bracketed by BeginFrame and EndFrame. BeginFrame returns the
region to repaint, which includes damage carried over from earlier frames,
and decides whether the frame is presented by a full swap or by copying
the painted region to the front buffer:

	if _, _, err := ctx.BeginFrame(dirty); err != nil {
		...
	}
	repaint := ctx.Frame().Repaint
	// Render at least repaint.
	if err := ctx.EndFrame(repaint); err != nil {
		...
	}

# Threads

A Display and its contexts must be used from a single goroutine. Native
backends bind contexts to OS threads: callers lock the thread with
runtime.LockOSThread for as long as a context is current.
*/
package app
