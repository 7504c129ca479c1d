// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
	"golang.org/x/exp/slices"
)

// PixelFormat records the format applied to a native window.
type PixelFormat struct {
	Window driver.Handle
	Config driver.Config
	// WantAlpha is the alpha requirement the format was selected for.
	WantAlpha bool
}

// HasAlpha reports whether the applied format carries alpha.
func (p *PixelFormat) HasAlpha() bool {
	return p.Config.HasAlpha()
}

// Distance weights used to rank enumerated formats. Lower is better.
const (
	opacityDistance     = 5000
	qualityDistance     = 1000
	performanceDistance = 200
)

// SelectFormat picks the best format for win. When needsAlpha is set and
// no format with alpha exists, the selection is retried once without it.
func (d *Display) SelectFormat(win driver.Handle, needsAlpha bool) (driver.Config, error) {
	if _, err := d.Capabilities(); err != nil {
		return driver.Config{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectFormat(win, needsAlpha)
}

func (d *Display) selectFormat(win driver.Handle, needsAlpha bool) (driver.Config, error) {
	cfg, err := d.chooseFormat(win, needsAlpha)
	if errors.Is(err, ErrUnsupportedFormat) && needsAlpha {
		d.log.Debug("No pixel format with alpha, retrying without", "window", win)
		cfg, err = d.chooseFormat(win, false)
	}
	return cfg, err
}

func (d *Display) chooseFormat(win driver.Handle, alpha bool) (driver.Config, error) {
	if d.caps.PixelFormatARB {
		return d.queryFormat(win, alpha)
	}
	return d.enumerateFormat(win, alpha)
}

// queryFormat uses the attribute based query, trying each swap method
// from the most to the least useful. Configured multisampling is
// dropped only when no swap method matches with it.
func (d *Display) queryFormat(win driver.Handle, alpha bool) (driver.Config, error) {
	req := driver.FormatRequest{
		Alpha:        alpha,
		DoubleBuffer: true,
		ColorBits:    24,
	}
	methods := []driver.SwapMethod{driver.SwapExchange, driver.SwapCopy, driver.SwapUndefined}
	if d.cfg.DisallowSwapExchange {
		methods = methods[1:]
	}
	samples := []int{0}
	if d.caps.Multisample && d.cfg.Samples > 0 {
		samples = []int{d.cfg.Samples, 0}
	}
	for _, n := range samples {
		req.Samples = n
		for _, m := range methods {
			req.Swap = m
			ids, err := d.drv.ChooseConfigs(win, req)
			if err != nil {
				return driver.Config{}, newError("SelectFormat", d.caps.API, ErrUnsupportedFormat, err)
			}
			if len(ids) == 0 {
				continue
			}
			c, err := d.drv.DescribeConfig(win, ids[0])
			if err != nil {
				return driver.Config{}, newError("SelectFormat", d.caps.API, ErrUnsupportedFormat, err)
			}
			return d.adjustSwap(c), nil
		}
		if n > 0 {
			d.log.Debug("No multisampled pixel format, retrying without", "window", win, "samples", n)
		}
	}
	return driver.Config{}, errorf("SelectFormat", d.caps.API, ErrUnsupportedFormat, "no format matches alpha=%v", alpha)
}

// enumerateFormat ranks every usable format by distance.
func (d *Display) enumerateFormat(win driver.Handle, alpha bool) (driver.Config, error) {
	all, err := d.drv.DescribeConfigs(win)
	if err != nil {
		return driver.Config{}, newError("SelectFormat", d.caps.API, ErrUnsupportedFormat, err)
	}
	var usable []driver.Config
	for _, c := range all {
		c = d.adjustSwap(c)
		if c.Generic || !c.Window || !c.GL || !c.RGBA {
			continue
		}
		if c.RedBits < 8 || c.GreenBits < 8 || c.BlueBits < 8 {
			continue
		}
		if alpha && !c.HasAlpha() {
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return driver.Config{}, errorf("SelectFormat", d.caps.API, ErrUnsupportedFormat, "none of %d formats is usable (alpha=%v)", len(all), alpha)
	}
	slices.SortStableFunc(usable, compareFormats)
	return usable[0], nil
}

// compareFormats orders by distance, then prefers a defined swap method.
func compareFormats(a, b driver.Config) int {
	if da, db := formatDistance(a), formatDistance(b); da != db {
		return da - db
	}
	return swapRank(a) - swapRank(b)
}

func swapRank(c driver.Config) int {
	if c.Swap == driver.SwapUndefined {
		return 1
	}
	return 0
}

func formatDistance(c driver.Config) int {
	dist := c.Ancillary()
	if !c.HasAlpha() {
		dist += opacityDistance
	}
	if !c.DoubleBuffer {
		dist += qualityDistance
	}
	if c.Swap == driver.SwapUndefined {
		dist += performanceDistance
	}
	if c.Stereo {
		dist++
	}
	return dist
}

func (d *Display) adjustSwap(c driver.Config) driver.Config {
	if d.cfg.DisallowSwapExchange && c.Swap == driver.SwapExchange {
		c.Swap = driver.SwapUndefined
	}
	return c
}

// ApplyFormat commits cfg to win. A window accepts a format at most once;
// later calls fail with ErrAlreadyConfigured, or panic in strict mode.
func (d *Display) ApplyFormat(win driver.Handle, cfg driver.Config) error {
	if _, err := d.Capabilities(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.applyFormat(win, cfg, false)
	return err
}

func (d *Display) applyFormat(win driver.Handle, cfg driver.Config, wantAlpha bool) (*PixelFormat, error) {
	existing, err := d.drv.ConfigOf(win)
	if err != nil {
		return nil, newError("ApplyFormat", d.caps.API, ErrUnsupportedFormat, err)
	}
	if _, ok := d.formats[win]; ok || existing != 0 {
		err := errorf("ApplyFormat", d.caps.API, ErrAlreadyConfigured, "window %#x", win)
		if d.cfg.Has(config.FlagStrict) {
			panic(err)
		}
		return nil, err
	}
	if err := d.drv.SetConfig(win, cfg.ID); err != nil {
		return nil, newError("ApplyFormat", d.caps.API, ErrUnsupportedFormat, err)
	}
	pf := &PixelFormat{Window: win, Config: cfg, WantAlpha: wantAlpha}
	d.formats[win] = pf
	d.log.Debug("Applied pixel format",
		"window", win,
		"format", cfg.ID,
		"double_buffer", cfg.DoubleBuffer,
		"swap", cfg.Swap,
		"alpha", cfg.AlphaBits,
		"depth", cfg.DepthBits,
		"stencil", cfg.StencilBits,
	)
	return pf, nil
}

// Format returns the format applied to win through this Display.
func (d *Display) Format(win driver.Handle) (*PixelFormat, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pf, ok := d.formats[win]
	return pf, ok
}

// ensureFormat returns the format of win, selecting and applying one the
// first time. A format applied to win outside this Display is adopted.
func (d *Display) ensureFormat(win driver.Handle, alpha bool) (*PixelFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pf, ok := d.formats[win]; ok {
		return pf, nil
	}
	existing, err := d.drv.ConfigOf(win)
	if err != nil {
		return nil, newError("ApplyFormat", d.caps.API, ErrUnsupportedFormat, err)
	}
	if existing != 0 {
		c, err := d.drv.DescribeConfig(win, existing)
		if err != nil {
			return nil, newError("ApplyFormat", d.caps.API, ErrUnsupportedFormat, err)
		}
		pf := &PixelFormat{Window: win, Config: d.adjustSwap(c), WantAlpha: alpha}
		d.formats[win] = pf
		d.log.Debug("Adopted existing pixel format", "window", win, "format", existing)
		return pf, nil
	}
	cfg, err := d.selectFormat(win, alpha)
	if err != nil {
		return nil, err
	}
	return d.applyFormat(win, cfg, alpha)
}
