// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
)

// Release destroys the native context. A context that other contexts
// share objects with stays alive until the last of them is released.
// Release is safe to call more than once.
func (c *Context) Release() error {
	if c.released {
		return nil
	}
	c.released = true
	if c.children > 0 {
		c.disp.log.Debug("Deferring release of shared context", "children", c.children)
		return nil
	}
	return c.destroy()
}

// destroy releases the native objects of c in order: unbind, context,
// drawable, then the offscreen pairing.
func (c *Context) destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	d := c.disp
	if !c.realized || c.realizeErr != nil {
		return nil
	}
	var errs []error
	if d.current == c || d.drv.CurrentContext() == c.handle {
		if err := d.bind(nil); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.drv.DestroyContext(c.handle); err != nil {
		errs = append(errs, err)
	}
	c.handle = 0
	if c.attached {
		if err := d.drv.CloseDrawable(c.surface.NativeHandle(), c.drawable); err != nil {
			errs = append(errs, err)
		}
	}
	c.drawable = 0
	if c.offscreen {
		if err := d.releaseOffscreen(); err != nil {
			errs = append(errs, err)
		}
		c.offscreen = false
	}
	d.forget(c)
	if p := c.share; p != nil {
		p.children--
		if p.children == 0 && p.released {
			if err := p.destroy(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return newError("Release", d.caps.API, ErrReleased, err)
	}
	return nil
}
