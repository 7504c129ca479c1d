// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
	"github.com/gdkgo/glctx/internal/drivertest"
)

func TestApplyFormatOnce(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	require.NoError(t, d.ApplyFormat(win.Handle, cfg))
	err = d.ApplyFormat(win.Handle, cfg)
	assert.ErrorIs(t, err, ErrAlreadyConfigured)
	assert.Equal(t, 1, drv.Count("SetConfig"))
	pf, ok := d.Format(win.Handle)
	require.True(t, ok)
	assert.Equal(t, cfg, pf.Config)
}

func TestApplyFormatSetElsewhere(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	require.NoError(t, drv.SetConfig(win.Handle, 2))
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.ErrorIs(t, d.ApplyFormat(win.Handle, cfg), ErrAlreadyConfigured)
	assert.Equal(t, driver.ConfigID(2), drv.Format(win.Handle))
}

func TestApplyFormatStrict(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv, func(c *config.Config) {
		c.Set(config.FlagStrict)
	})
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	require.NoError(t, d.ApplyFormat(win.Handle, cfg))
	assert.Panics(t, func() {
		d.ApplyFormat(win.Handle, cfg)
	})
}

func TestQueryFormatSwapOrder(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.Equal(t, driver.ConfigID(1), cfg.ID)
	assert.Equal(t, []string{"ChooseConfigs(alpha=false, swap=exchange)"}, drv.Calls)
}

func TestQueryFormatDisallowExchange(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv, func(c *config.Config) {
		c.DisallowSwapExchange = true
	})
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.Equal(t, driver.ConfigID(2), cfg.ID)
	assert.Equal(t, driver.SwapCopy, cfg.Swap)
	assert.Equal(t, 0, drv.Count("ChooseConfigs(alpha=false, swap=exchange)"))
}

func TestQueryFormatSamples(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.Configs = append(drv.Configs, driver.Config{
		ID: 8, Window: true, GL: true, RGBA: true, DoubleBuffer: true, Swap: driver.SwapCopy,
		RedBits: 8, GreenBits: 8, BlueBits: 8, AlphaBits: 8, Samples: 4,
	})
	d := probed(t, drv, func(c *config.Config) {
		c.Samples = 4
	})
	require.True(t, d.caps.Multisample)
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.Equal(t, driver.ConfigID(8), cfg.ID)
	assert.Equal(t, 4, cfg.Samples)
	assert.Equal(t, []string{
		"ChooseConfigs(alpha=false, swap=exchange, samples=4)",
		"ChooseConfigs(alpha=false, swap=copy, samples=4)",
	}, drv.Calls)
}

func TestQueryFormatSamplesFallback(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv, func(c *config.Config) {
		c.Samples = 8
	})
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.Equal(t, driver.ConfigID(1), cfg.ID)
	assert.Equal(t, []string{
		"ChooseConfigs(alpha=false, swap=exchange, samples=8)",
		"ChooseConfigs(alpha=false, swap=copy, samples=8)",
		"ChooseConfigs(alpha=false, swap=undefined, samples=8)",
		"ChooseConfigs(alpha=false, swap=exchange)",
	}, drv.Calls)
}

// Multisampling is not requested from backends without it.
func TestQueryFormatNoMultisample(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.Exts = []string{"WGL_ARB_create_context", "WGL_ARB_pixel_format"}
	d := probed(t, drv, func(c *config.Config) {
		c.Samples = 4
	})
	win := drv.NewWindow(100, 100)
	_, err := d.SelectFormat(win.Handle, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ChooseConfigs(alpha=false, swap=exchange)"}, drv.Calls)
}

func TestQueryFormatAlphaRetry(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.Configs = []driver.Config{
		{ID: 7, Window: true, GL: true, RGBA: true, DoubleBuffer: true, Swap: driver.SwapCopy, RedBits: 8, GreenBits: 8, BlueBits: 8},
	}
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	cfg, err := d.SelectFormat(win.Handle, true)
	require.NoError(t, err)
	assert.Equal(t, driver.ConfigID(7), cfg.ID)
	assert.False(t, cfg.HasAlpha())
	assert.Equal(t, 3, drv.Count("ChooseConfigs(alpha=true"))
	assert.Equal(t, 2, drv.Count("ChooseConfigs(alpha=false"))
}

func TestEnumerateFormatRanking(t *testing.T) {
	base := driver.Config{Window: true, GL: true, RGBA: true, RedBits: 8, GreenBits: 8, BlueBits: 8}
	with := func(id driver.ConfigID, f func(c *driver.Config)) driver.Config {
		c := base
		c.ID = id
		f(&c)
		return c
	}
	tests := []struct {
		name    string
		configs []driver.Config
		alpha   bool
		want    driver.ConfigID
	}{
		{
			name: "double buffer beats ancillary cost",
			configs: []driver.Config{
				with(1, func(c *driver.Config) { c.AlphaBits = 8; c.Swap = driver.SwapCopy }),
				with(2, func(c *driver.Config) {
					c.AlphaBits = 8
					c.DoubleBuffer = true
					c.Swap = driver.SwapCopy
					c.DepthBits = 24
					c.StencilBits = 8
				}),
			},
			want: 2,
		},
		{
			name: "transparency beats double buffering",
			configs: []driver.Config{
				with(1, func(c *driver.Config) { c.DoubleBuffer = true; c.Swap = driver.SwapExchange }),
				with(2, func(c *driver.Config) { c.AlphaBits = 8 }),
			},
			want: 2,
		},
		{
			name: "generic and non-window formats are skipped",
			configs: []driver.Config{
				with(1, func(c *driver.Config) {
					c.AlphaBits = 8
					c.DoubleBuffer = true
					c.Swap = driver.SwapCopy
					c.Generic = true
				}),
				with(2, func(c *driver.Config) {
					c.AlphaBits = 8
					c.DoubleBuffer = true
					c.Swap = driver.SwapCopy
					c.Window = false
				}),
				with(3, func(c *driver.Config) { c.AlphaBits = 8; c.RedBits = 5 }),
				with(4, func(c *driver.Config) { c.DoubleBuffer = true }),
			},
			want: 4,
		},
		{
			name: "ties prefer a defined swap method",
			configs: []driver.Config{
				with(1, func(c *driver.Config) { c.AlphaBits = 8; c.DoubleBuffer = true }),
				with(2, func(c *driver.Config) {
					c.AlphaBits = 8
					c.DoubleBuffer = true
					c.Swap = driver.SwapExchange
					c.DepthBits = 200
				}),
			},
			want: 2,
		},
		{
			name: "alpha retried without",
			configs: []driver.Config{
				with(1, func(c *driver.Config) { c.DoubleBuffer = true; c.Swap = driver.SwapCopy }),
			},
			alpha: true,
			want:  1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			drv := drivertest.New(driver.APIWGL)
			drv.Exts = []string{"WGL_ARB_create_context"}
			drv.Configs = test.configs
			d := probed(t, drv)
			win := drv.NewWindow(100, 100)
			cfg, err := d.SelectFormat(win.Handle, test.alpha)
			require.NoError(t, err)
			assert.Equal(t, test.want, cfg.ID)
		})
	}
}

func TestEnumerateFormatNone(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.Exts = nil
	drv.Configs = []driver.Config{{ID: 1, Window: true, GL: true, Generic: true, RGBA: true, RedBits: 8, GreenBits: 8, BlueBits: 8}}
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	_, err := d.SelectFormat(win.Handle, true)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
