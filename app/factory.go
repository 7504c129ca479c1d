// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
)

// Version tables walked downwards from the requested version.
var (
	glVersions = []driver.Version{
		{Major: 4, Minor: 6}, {Major: 4, Minor: 5}, {Major: 4, Minor: 4},
		{Major: 4, Minor: 3}, {Major: 4, Minor: 2}, {Major: 4, Minor: 1},
		{Major: 4, Minor: 0}, {Major: 3, Minor: 3}, {Major: 3, Minor: 2},
		{Major: 3, Minor: 1}, {Major: 3, Minor: 0},
	}
	glesVersions = []driver.Version{
		{Major: 3, Minor: 2}, {Major: 3, Minor: 1}, {Major: 3, Minor: 0},
		{Major: 2, Minor: 0},
	}
)

var (
	defaultGLVersion   = driver.Version{Major: 3, Minor: 2}
	defaultGLESVersion = driver.Version{Major: 3, Minor: 0}
	minCoreVersion     = driver.Version{Major: 3, Minor: 2}
	minCompatVersion   = driver.Version{Major: 3, Minor: 0}
	minGLESVersion     = driver.Version{Major: 2, Minor: 0}
	maxGLESVersion     = driver.Version{Major: 3, Minor: 2}
	minLegacyVersion   = driver.Version{Major: 1, Minor: 0}
)

// request is a context request after sharing rules and configuration
// have been applied.
type request struct {
	gles          bool
	legacy        bool
	version       driver.Version
	debug         bool
	forwardCompat bool
}

// rung is one step of the creation ladder.
type rung struct {
	name    string
	profile driver.Profile
	// versions are tried in order. Legacy rungs have none.
	versions []driver.Version
	legacy   bool
}

// resolve applies the sharing rules and configuration to the options of
// c. It makes no native calls.
func (d *Display) resolve(c *Context) (request, error) {
	caps := d.caps
	r := request{
		debug:         c.debug || d.cfg.Has(config.FlagDebug),
		forwardCompat: c.forwardCompat,
		legacy:        d.cfg.Has(config.FlagLegacy),
	}
	share := c.share
	switch c.useES {
	case ESYes:
		r.gles = true
	case ESNo:
		r.gles = false
	default:
		r.gles = d.cfg.Has(config.FlagGLES) || !caps.DesktopGL
		if share != nil {
			r.gles = share.gles
		}
	}
	if share != nil {
		if share.gles != r.gles {
			return request{}, errorf("NewContext", caps.API, ErrUnsupportedProfile,
				"cannot share between ES=%v and ES=%v contexts", share.gles, r.gles)
		}
		if share.legacy && !share.gles {
			r.legacy = true
		}
	}
	if r.gles && !caps.GLES {
		return request{}, errorf("NewContext", caps.API, ErrUnsupportedProfile, "GL ES is not supported")
	}
	if !r.gles && !caps.DesktopGL {
		return request{}, errorf("NewContext", caps.API, ErrUnsupportedProfile, "desktop GL is not supported")
	}
	r.version = c.required
	if r.gles {
		r.legacy = false
		if r.version.IsZero() {
			r.version = defaultGLESVersion
		}
		if r.version.Less(minGLESVersion) {
			r.version = minGLESVersion
		}
		if maxGLESVersion.Less(r.version) {
			r.version = maxGLESVersion
		}
	} else if r.version.IsZero() {
		r.version = defaultGLVersion
	}
	if !caps.CreateContextAttribs {
		r.legacy = true
	}
	return r, nil
}

// ladder returns the creation attempts for r, most capable first.
func ladder(r request) []rung {
	if r.gles {
		return []rung{{name: "es", profile: driver.ProfileES, versions: versionsFrom(glesVersions, r.version, minGLESVersion)}}
	}
	legacy := rung{name: "legacy", legacy: true}
	if r.legacy {
		return []rung{legacy}
	}
	return []rung{
		{name: "core", profile: driver.ProfileCore, versions: versionsFrom(glVersions, r.version, minCoreVersion)},
		{name: "compat", profile: driver.ProfileCompatibility, versions: versionsFrom(glVersions, r.version, minCompatVersion)},
		legacy,
	}
}

// versionsFrom returns start followed by the table versions below it, down
// to floor.
func versionsFrom(table []driver.Version, start, floor driver.Version) []driver.Version {
	var vs []driver.Version
	if start.Less(floor) {
		return nil
	}
	vs = append(vs, start)
	for _, v := range table {
		if v.Less(start) && v.AtLeast(floor) {
			vs = append(vs, v)
		}
	}
	return vs
}

// create realizes c: it selects a drawable, walks the creation ladder and
// restores the previously current context. Nothing created here survives
// a failure.
func (d *Display) create(c *Context) (err error) {
	caps, err := d.Capabilities()
	if err != nil {
		return err
	}
	var shareHandle driver.Handle
	if s := c.share; s != nil {
		if err := s.Realize(); err != nil {
			return newError("NewContext", caps.API, ErrCreationFailed, fmt.Errorf("shared context: %w", err))
		}
		if s.released {
			return newError("NewContext", caps.API, ErrReleased, errors.New("shared context released"))
		}
		shareHandle = s.handle
	}
	req, err := d.resolve(c)
	if err != nil {
		return err
	}

	var (
		drawable driver.Handle
		configID driver.ConfigID
	)
	switch {
	case c.attached:
		pf, err := d.ensureFormat(c.surface.NativeHandle(), c.alpha)
		if err != nil {
			return err
		}
		drawable, err = d.drv.OpenDrawable(pf.Window, pf.Config.ID)
		if err != nil {
			return newError("NewContext", caps.API, ErrCreationFailed, err)
		}
		c.format = pf
		configID = pf.Config.ID
	case caps.Surfaceless:
	default:
		dummy, err := d.acquireOffscreen()
		if err != nil {
			return newError("NewContext", caps.API, ErrCreationFailed, err)
		}
		c.offscreen = true
		drawable, configID = dummy.Drawable, dummy.Config
	}
	defer func() {
		if err == nil {
			return
		}
		if c.attached {
			d.drv.CloseDrawable(c.surface.NativeHandle(), drawable)
			c.format = nil
		}
		if c.offscreen {
			d.releaseOffscreen()
			c.offscreen = false
		}
	}()

	prev := d.current
	defer func() {
		if prev != nil && !prev.destroyed {
			d.bind(prev)
		} else {
			d.bind(nil)
		}
	}()

	res, err := d.climb(drawable, configID, shareHandle, req)
	if err != nil {
		return err
	}
	c.handle = res.handle
	c.drawable = drawable
	c.version = res.version
	c.legacy = res.legacy
	c.gles = req.gles
	d.contexts = append(d.contexts, c)
	if c.share != nil {
		c.share.children++
	}
	d.log.Debug("Created context",
		"api", caps.API,
		"version", c.version,
		"legacy", c.legacy,
		"es", c.gles,
		"debug", req.debug,
		"forward_compatible", req.forwardCompat,
		"attached", c.attached,
	)
	return nil
}

type climbResult struct {
	handle  driver.Handle
	version driver.Version
	legacy  bool
}

// climb walks the ladder for req, stopping at the first success.
func (d *Display) climb(drawable driver.Handle, id driver.ConfigID, share driver.Handle, req request) (climbResult, error) {
	api := d.caps.API
	var base driver.Handle
	rungs := ladder(req)
	if d.caps.NeedsBaseContext {
		h, err := d.drv.CreateContext(drawable, id, share, nil)
		if err != nil {
			return climbResult{}, newError("NewContext", api, ErrCreationFailed, fmt.Errorf("base context: %w", err))
		}
		if err := d.drv.MakeCurrent(drawable, h); err != nil {
			d.drv.DestroyContext(h)
			return climbResult{}, newError("NewContext", api, ErrCreationFailed, fmt.Errorf("base context: %w", err))
		}
		base = h
	}
	var errs []error
	for _, r := range rungs {
		if r.legacy {
			res, err := d.createLegacy(drawable, id, share, base, req.version)
			if err != nil {
				errs = append(errs, err)
				break
			}
			d.log.Debug("Using legacy context as fallback", "version", res.version)
			return res, nil
		}
		for _, v := range r.versions {
			attribs := &driver.ContextAttribs{
				Profile: r.profile,
				Version: v,
				Debug:   req.debug,
			}
			if r.profile == driver.ProfileCore {
				attribs.ForwardCompatible = req.forwardCompat
			}
			h, err := d.drv.CreateContext(drawable, id, share, attribs)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", r.name, v, err))
				continue
			}
			if base != 0 {
				d.destroyBound(base)
			}
			return climbResult{
				handle:  h,
				version: v,
				legacy:  r.profile == driver.ProfileCompatibility,
			}, nil
		}
	}
	if base != 0 {
		d.destroyBound(base)
	}
	kind := ErrCreationFailed
	if req.gles {
		kind = ErrUnsupportedProfile
	}
	return climbResult{}, newError("NewContext", api, kind, errors.Join(errs...))
}

// createLegacy returns base when set, or a new legacy context, and checks
// its version.
func (d *Display) createLegacy(drawable driver.Handle, id driver.ConfigID, share, base driver.Handle, requested driver.Version) (climbResult, error) {
	h := base
	if h == 0 {
		var err error
		h, err = d.drv.CreateContext(drawable, id, share, nil)
		if err != nil {
			return climbResult{}, fmt.Errorf("legacy: %w", err)
		}
		if err := d.drv.MakeCurrent(drawable, h); err != nil {
			d.drv.DestroyContext(h)
			return climbResult{}, fmt.Errorf("legacy: %w", err)
		}
	}
	v := d.drv.Version()
	if requested.Less(v) {
		v = requested
	}
	if v.Less(minLegacyVersion) {
		if h != base {
			d.destroyBound(h)
		}
		return climbResult{}, fmt.Errorf("legacy: version %s below %s", v, minLegacyVersion)
	}
	return climbResult{handle: h, version: v, legacy: true}, nil
}

// destroyBound unbinds and destroys a context made current during
// creation.
func (d *Display) destroyBound(h driver.Handle) {
	d.drv.MakeCurrent(0, 0)
	d.drv.DestroyContext(h)
}
