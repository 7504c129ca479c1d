// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
)

// Display is a connection to a native display and the graphics state
// negotiated on it: the selected backend, its capabilities and the pixel
// formats applied to its windows.
//
// A Display and its contexts must be used from a single goroutine, locked
// to its OS thread when the backend requires it.
type Display struct {
	handle driver.Handle
	cfg    *config.Config
	log    *log.Logger
	// candidates replaces the registered backends when set.
	candidates []driver.Driver

	// mu guards the probe-once and format-once paths.
	mu       sync.Mutex
	probed   bool
	probeErr error
	drv      driver.Driver
	caps     Caps
	dead     map[driver.API]error
	formats  map[driver.Handle]*PixelFormat

	current   *Context
	contexts  []*Context
	offscreen *offscreen
	closed    bool
}

// offscreen is a dummy window and drawable backing contexts that have no
// surface on backends without surfaceless support.
type offscreen struct {
	dummy driver.Dummy
	refs  int
}

// Option configures a Display.
type Option func(d *Display)

// WithConfig replaces the configuration loaded from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(d *Display) {
		d.cfg = cfg
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Display) {
		d.log = l
	}
}

// WithDriver restricts the Display to the given drivers, tried in order,
// instead of the registered backends.
func WithDriver(drvs ...driver.Driver) Option {
	return func(d *Display) {
		d.candidates = append(d.candidates, drvs...)
	}
}

// NewDisplay returns a Display for the native display connection handle.
// A zero handle selects the default display. No native calls are made
// until the first capability query.
func NewDisplay(handle driver.Handle, opts ...Option) (*Display, error) {
	d := &Display{
		handle:  handle,
		dead:    make(map[driver.API]error),
		formats: make(map[driver.Handle]*PixelFormat),
	}
	for _, o := range opts {
		o(d)
	}
	if d.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		d.cfg = cfg
	} else if err := d.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if d.log == nil {
		d.log = newLogger(d.cfg)
	}
	return d, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	level := log.WarnLevel
	if cfg.Has(config.FlagOpenGL) {
		level = log.DebugLevel
	}
	return log.NewWithOptions(logOutput(os.Stderr), log.Options{
		Prefix: "glctx",
		Level:  level,
	})
}

// Config returns the configuration in effect.
func (d *Display) Config() config.Config {
	return *d.cfg
}

// Current returns the context current on the display thread, or nil.
func (d *Display) Current() *Context {
	return d.current
}

// ClearCurrent unbinds the current context, if any.
func (d *Display) ClearCurrent() error {
	if d.current == nil {
		return nil
	}
	if err := d.drv.MakeCurrent(0, 0); err != nil {
		return fmt.Errorf("ClearCurrent: %w", err)
	}
	d.current = nil
	return nil
}

// Close releases every live context, children before their parents,
// then the offscreen pairing and finally the driver connection.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	for len(d.contexts) > 0 {
		progress := false
		for _, c := range append([]*Context(nil), d.contexts...) {
			if c.children > 0 {
				continue
			}
			c.released = true
			if err := c.destroy(); err != nil {
				errs = append(errs, err)
			}
			progress = true
		}
		if !progress {
			panic("context sharing cycle")
		}
	}
	if d.drv == nil {
		return errors.Join(errs...)
	}
	if d.offscreen != nil {
		if err := d.drv.DestroyDummy(d.offscreen.dummy); err != nil {
			errs = append(errs, err)
		}
		d.offscreen = nil
	}
	if err := d.drv.Close(); err != nil {
		errs = append(errs, err)
	}
	d.log.Debug("Closed display", "api", d.drv.API())
	return errors.Join(errs...)
}

// acquireOffscreen returns the shared dummy drawable, creating it for its
// first user.
func (d *Display) acquireOffscreen() (driver.Dummy, error) {
	if d.offscreen == nil {
		dummy, err := d.drv.CreateDummy()
		if err != nil {
			return driver.Dummy{}, err
		}
		d.offscreen = &offscreen{dummy: dummy}
	}
	d.offscreen.refs++
	return d.offscreen.dummy, nil
}

// releaseOffscreen drops a reference to the dummy drawable and destroys
// it with the last one.
func (d *Display) releaseOffscreen() error {
	if d.offscreen == nil {
		return nil
	}
	d.offscreen.refs--
	if d.offscreen.refs > 0 {
		return nil
	}
	dummy := d.offscreen.dummy
	d.offscreen = nil
	return d.drv.DestroyDummy(dummy)
}

// bind makes c current, or unbinds when c is nil.
func (d *Display) bind(c *Context) error {
	if c == nil {
		d.current = nil
		return d.drv.MakeCurrent(0, 0)
	}
	if err := d.drv.MakeCurrent(c.drawable, c.handle); err != nil {
		return err
	}
	d.current = c
	return nil
}

func (d *Display) forget(c *Context) {
	for i, l := range d.contexts {
		if l == c {
			d.contexts = append(d.contexts[:i], d.contexts[i+1:]...)
			return
		}
	}
}
