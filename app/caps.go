// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"

	"github.com/gdkgo/glctx/driver"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Caps describes the backend selected for a Display.
type Caps struct {
	API driver.API
	// Version is the platform API version: the EGL version, or the
	// opengl32 version for WGL.
	Version driver.Version
	// GLVersion is the version of the legacy context created while
	// probing.
	GLVersion driver.Version
	Vendor    string
	// Extensions lists the platform and GL extensions, minus the
	// disabled ones.
	Extensions []string

	// CreateContextAttribs reports whether contexts can be created with
	// explicit version and profile attributes.
	CreateContextAttribs bool
	SwapControl          bool
	// PixelFormatARB reports the attribute based format query.
	PixelFormatARB bool
	Multisample    bool
	// SyncControl reports the ability to wait for a vertical blank.
	SyncControl bool
	Surfaceless bool

	FramebufferBlit bool
	BufferAge       bool
	ColorSpace      bool
	SwapHint        bool
	DesktopGL       bool
	GLES            bool
	// NeedsBaseContext is set when a legacy context must be current
	// before creating a modern one.
	NeedsBaseContext bool
	// BottomLeftOrigin is set when native framebuffer coordinates start
	// at the bottom left.
	BottomLeftOrigin bool
}

// HasExtension reports whether ext was advertised and not disabled.
func (c Caps) HasExtension(ext string) bool {
	return slices.Contains(c.Extensions, ext)
}

// Capabilities returns the capabilities of the display's backend. The
// first call selects a backend by probing the candidates in order; the
// result, or the failure, is cached for the lifetime of the Display.
func (d *Display) Capabilities() (Caps, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Caps{}, newError("Capabilities", driver.APINone, ErrReleased, nil)
	}
	if !d.probed {
		d.probed = true
		d.probeErr = d.selectBackend()
	}
	return d.caps, d.probeErr
}

func (d *Display) selectBackend() error {
	drivers := d.candidates
	if drivers == nil {
		for _, b := range candidateBackends(d.cfg) {
			drv, err := b.open(d.handle)
			if err != nil {
				d.dead[b.api] = err
				d.log.Debug("Backend unavailable", "api", b.api, "err", err)
				continue
			}
			drivers = append(drivers, drv)
		}
	}
	for _, drv := range drivers {
		caps, err := d.probe(drv)
		if err != nil {
			d.dead[drv.API()] = err
			d.log.Debug("Backend probe failed", "api", drv.API(), "err", err)
			continue
		}
		d.drv = drv
		d.caps = caps
		d.log.Debug("Selected backend",
			"api", caps.API,
			"version", caps.Version,
			"gl", caps.GLVersion,
			"vendor", caps.Vendor,
			"attribs", caps.CreateContextAttribs,
			"swap_control", caps.SwapControl,
			"sync_control", caps.SyncControl,
			"pixel_format", caps.PixelFormatARB,
			"multisample", caps.Multisample,
			"surfaceless", caps.Surfaceless,
			"buffer_age", caps.BufferAge,
		)
		return nil
	}
	var errs []error
	apis := maps.Keys(d.dead)
	slices.Sort(apis)
	for _, api := range apis {
		errs = append(errs, fmt.Errorf("%s: %w", api, d.dead[api]))
	}
	return newError("Capabilities", driver.APINone, ErrNotAvailable, errors.Join(errs...))
}

// probe opens drv and inspects a legacy context on a throwaway window.
// Every native object created here is destroyed before returning.
func (d *Display) probe(drv driver.Driver) (caps Caps, err error) {
	platform, err := drv.Open()
	if err != nil {
		return Caps{}, err
	}
	defer func() {
		if err != nil {
			drv.Close()
		}
	}()
	dummy, err := drv.CreateDummy()
	if err != nil {
		return Caps{}, fmt.Errorf("dummy window: %w", err)
	}
	defer drv.DestroyDummy(dummy)
	ctx, err := drv.CreateContext(dummy.Drawable, dummy.Config, 0, nil)
	if err != nil {
		return Caps{}, fmt.Errorf("dummy context: %w", err)
	}
	defer drv.DestroyContext(ctx)
	if err := drv.MakeCurrent(dummy.Drawable, ctx); err != nil {
		return Caps{}, fmt.Errorf("dummy context: %w", err)
	}
	exts := drv.Extensions(dummy.Drawable)
	vendor := drv.Vendor()
	glVersion := drv.Version()
	if err := drv.MakeCurrent(0, 0); err != nil {
		return Caps{}, err
	}
	exts = slices.DeleteFunc(exts, func(e string) bool {
		return slices.Contains(d.cfg.DisabledExtensions, e)
	})
	caps = interpretCaps(drv.API(), platform, glVersion, exts)
	caps.Vendor = vendor
	return caps, nil
}

func interpretCaps(api driver.API, platform, glVersion driver.Version, exts []string) Caps {
	has := func(e string) bool {
		return slices.Contains(exts, e)
	}
	c := Caps{
		API:        api,
		Version:    platform,
		GLVersion:  glVersion,
		Extensions: exts,
		FramebufferBlit: glVersion.AtLeast(driver.Version{Major: 3}) ||
			has("GL_EXT_framebuffer_blit") || has("GL_ARB_framebuffer_object"),
	}
	switch api {
	case driver.APIWGL:
		c.CreateContextAttribs = has("WGL_ARB_create_context")
		c.SwapControl = has("WGL_EXT_swap_control")
		c.SyncControl = has("WGL_OML_sync_control")
		c.PixelFormatARB = has("WGL_ARB_pixel_format")
		c.Multisample = has("WGL_ARB_multisample")
		c.SwapHint = has("GL_WIN_swap_hint")
		c.ColorSpace = has("WGL_ARB_framebuffer_sRGB") || has("WGL_EXT_framebuffer_sRGB")
		c.GLES = c.CreateContextAttribs && (has("WGL_EXT_create_context_es2_profile") || has("WGL_EXT_create_context_es_profile"))
		c.DesktopGL = true
		c.NeedsBaseContext = true
		c.BottomLeftOrigin = true
	case driver.APIEGL:
		egl15 := platform.AtLeast(driver.Version{Major: 1, Minor: 5})
		c.CreateContextAttribs = egl15 || has("EGL_KHR_create_context")
		c.SwapControl = true
		// EGL has no vertical blank wait.
		c.SyncControl = false
		c.PixelFormatARB = true
		c.Multisample = true
		c.Surfaceless = has("EGL_KHR_surfaceless_context")
		c.BufferAge = has("EGL_EXT_buffer_age")
		c.ColorSpace = egl15 || has("EGL_KHR_gl_colorspace")
		c.GLES = true
		c.DesktopGL = true
		c.BottomLeftOrigin = true
	case driver.APISoftware, driver.APID3D12:
		c.Surfaceless = true
		c.FramebufferBlit = true
		c.BufferAge = true
		c.DesktopGL = true
	}
	return c
}
