// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
	"github.com/gdkgo/glctx/internal/drivertest"
)

func v(major, minor int) driver.Version {
	return driver.Version{Major: major, Minor: minor}
}

func TestLadder(t *testing.T) {
	rungs := ladder(request{version: v(4, 1)})
	require.Len(t, rungs, 3)
	assert.Equal(t, "core", rungs[0].name)
	assert.Equal(t, []driver.Version{v(4, 1), v(4, 0), v(3, 3), v(3, 2)}, rungs[0].versions)
	assert.Equal(t, []driver.Version{v(4, 1), v(4, 0), v(3, 3), v(3, 2), v(3, 1), v(3, 0)}, rungs[1].versions)
	assert.True(t, rungs[2].legacy)

	rungs = ladder(request{version: v(3, 0)})
	assert.Empty(t, rungs[0].versions)

	rungs = ladder(request{version: v(3, 2), legacy: true})
	require.Len(t, rungs, 1)
	assert.True(t, rungs[0].legacy)

	rungs = ladder(request{version: v(3, 1), gles: true})
	require.Len(t, rungs, 1)
	assert.Equal(t, []driver.Version{v(3, 1), v(3, 0), v(2, 0)}, rungs[0].versions)
}

func TestCreateCore(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	d := probed(t, drv)
	win := drv.NewWindow(100, 100)
	ctx, err := d.NewContext(win, ForwardCompatible(true), DebugEnabled(true))
	require.NoError(t, err)
	require.NoError(t, ctx.Realize())
	assert.Equal(t, v(3, 2), ctx.Version())
	assert.False(t, ctx.IsLegacy())
	assert.False(t, ctx.UsesES())
	assert.Nil(t, ctx.SharedContext())
	assert.Equal(t, []string{
		"ChooseConfigs(alpha=false, swap=exchange)", "SetConfig(1)", "OpenDrawable",
		"CreateContext(core 3.2)", "MakeCurrent(none)",
	}, drv.Calls)
	assert.Nil(t, d.Current())
}

// Compatibility contexts count as legacy, and a compatibility success
// ends the ladder.
func TestFallbackToCompatibility(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	delete(drv.MaxVersion, driver.ProfileCore)
	d := probed(t, drv)
	ctx, err := d.NewContext(drv.NewWindow(100, 100))
	require.NoError(t, err)
	require.NoError(t, ctx.Realize())
	assert.True(t, ctx.IsLegacy())
	assert.Equal(t, v(3, 2), ctx.Version())
	assert.Equal(t, 1, drv.Count("CreateContext(core"))
	assert.Equal(t, 1, drv.Count("CreateContext(compat 3.2)"))
	assert.Equal(t, 0, drv.Count("CreateContext(legacy)"))
}

func TestLegacyShareForcesLegacy(t *testing.T) {
	for _, mode := range []ESMode{ESAuto, ESNo} {
		for _, req := range []driver.Version{{}, v(3, 2), v(4, 5), v(2, 1)} {
			t.Run(fmt.Sprintf("es=%d/%s", mode, req), func(t *testing.T) {
				drv := drivertest.New(driver.APIEGL)
				d := probed(t, drv, func(c *config.Config) {
					c.Set(config.FlagLegacy)
				})
				parent, err := d.NewContext(nil)
				require.NoError(t, err)
				require.NoError(t, parent.Realize())
				require.True(t, parent.IsLegacy())

				d.cfg.Debug = nil
				drv.Calls = nil
				child, err := d.NewContext(drv.NewWindow(10, 10), Share(parent), UseES(mode), RequiredVersion(req.Major, req.Minor))
				require.NoError(t, err)
				require.NoError(t, child.Realize())
				assert.True(t, child.IsLegacy())
				assert.Same(t, parent, child.SharedContext())
				assert.Equal(t, 0, drv.Count("CreateContext(core"))
				assert.Equal(t, 0, drv.Count("CreateContext(compat"))
				assert.Equal(t, 1, drv.Count("CreateContext(legacy)"))
			})
		}
	}
}

func TestVersionRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		core      driver.Version
		compat    driver.Version
		legacy    driver.Version
		noAttribs bool
		request   driver.Version
		want      driver.Version
	}{
		{name: "exact", core: v(4, 6), compat: v(4, 6), request: v(3, 2), want: v(3, 2)},
		{name: "highest below request", core: v(3, 3), compat: v(3, 3), request: v(4, 1), want: v(3, 3)},
		{name: "compat below core floor", core: v(3, 1), compat: v(3, 1), request: v(3, 2), want: v(3, 1)},
		{name: "legacy clamped to request", noAttribs: true, legacy: v(4, 6), request: v(3, 2), want: v(3, 2)},
		{name: "legacy below request", noAttribs: true, legacy: v(2, 1), request: v(3, 2), want: v(2, 1)},
		{name: "request below compat floor", core: v(4, 6), compat: v(4, 6), legacy: v(4, 6), request: v(2, 1), want: v(2, 1)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			drv := drivertest.New(driver.APIEGL)
			drv.MaxVersion = map[driver.Profile]driver.Version{
				driver.ProfileCore:          test.core,
				driver.ProfileCompatibility: test.compat,
			}
			if test.noAttribs {
				drv.Exts = nil
				drv.Platform = v(1, 4)
			}
			drv.LegacyVersion = test.legacy
			d := probed(t, drv)
			ctx, err := d.NewContext(nil, RequiredVersion(test.request.Major, test.request.Minor))
			require.NoError(t, err)
			require.NoError(t, ctx.Realize())
			got := ctx.Version()
			assert.Equal(t, test.want, got)
			assert.False(t, test.request.Less(got), "version above request")
			assert.True(t, got.AtLeast(v(1, 0)))
		})
	}
}

func TestLegacyVersionFloor(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	drv.Exts = nil
	drv.Platform = v(1, 4)
	d := probed(t, drv)
	drv.LegacyVersion = v(0, 9)
	ctx, err := d.NewContext(drv.NewWindow(10, 10))
	require.NoError(t, err)
	err = ctx.Realize()
	assert.ErrorIs(t, err, ErrCreationFailed)
	assert.Equal(t, 0, drv.Live())
	assert.Equal(t, 0, drv.OpenDrawables())
}

func TestBaseContext(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv)
	ctx, err := d.NewContext(drv.NewWindow(100, 100))
	require.NoError(t, err)
	require.NoError(t, ctx.Realize())
	assert.Equal(t, []string{
		"ChooseConfigs(alpha=false, swap=exchange)", "SetConfig(1)", "OpenDrawable",
		"CreateContext(legacy)", "MakeCurrent", "CreateContext(core 3.2)",
		"MakeCurrent(none)", "DestroyContext", "MakeCurrent(none)",
	}, drv.Calls)
	assert.Equal(t, 1, drv.Live())
	assert.False(t, drv.IsLegacy(ctx.NativeHandle()))
}

func TestBaseContextUnboundOnFailure(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.MaxVersion = nil
	d := probed(t, drv)
	drv.LegacyVersion = v(0, 9)
	ctx, err := d.NewContext(drv.NewWindow(100, 100))
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Realize(), ErrCreationFailed)
	require.Equal(t, 1, drv.Count("DestroyContext"))
	for i, c := range drv.Calls {
		if c == "DestroyContext" {
			assert.Equal(t, "MakeCurrent(none)", drv.Calls[i-1])
		}
	}
	assert.Equal(t, 0, drv.Live())
}

func TestBaseContextBecomesResult(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	drv.MaxVersion = nil
	drv.LegacyVersion = v(2, 1)
	d := probed(t, drv)
	ctx, err := d.NewContext(drv.NewWindow(100, 100))
	require.NoError(t, err)
	require.NoError(t, ctx.Realize())
	assert.True(t, ctx.IsLegacy())
	assert.Equal(t, v(2, 1), ctx.Version())
	assert.Equal(t, 1, drv.Count("CreateContext(legacy)"))
	assert.Equal(t, 0, drv.Count("DestroyContext"))
	assert.Equal(t, 1, drv.Live())
	assert.True(t, drv.IsLegacy(ctx.NativeHandle()))
}

func TestCreationFailureReleasesEverything(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	drv.MaxVersion = nil
	d := probed(t, drv)
	errNoMemory := errors.New("out of memory")
	drv.FailLegacy = errNoMemory
	ctx, err := d.NewContext(drv.NewWindow(100, 100))
	require.NoError(t, err)
	err = ctx.Realize()
	assert.ErrorIs(t, err, ErrCreationFailed)
	assert.ErrorIs(t, err, errNoMemory)
	assert.Equal(t, 0, drv.Live())
	assert.Equal(t, 0, drv.OpenDrawables())
	// The failure is cached.
	drv.FailLegacy = nil
	assert.Equal(t, err, ctx.Realize())
	assert.ErrorIs(t, ctx.MakeCurrent(), ErrCreationFailed)
}

func TestESSharing(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	d := probed(t, drv)
	parent, err := d.NewContext(nil, UseES(ESYes))
	require.NoError(t, err)
	require.NoError(t, parent.Realize())
	assert.True(t, parent.UsesES())
	assert.Equal(t, v(3, 0), parent.Version())

	child, err := d.NewContext(nil, Share(parent))
	require.NoError(t, err)
	require.NoError(t, child.Realize())
	assert.True(t, child.UsesES())

	drv.Calls = nil
	desktop, err := d.NewContext(nil, Share(parent), UseES(ESNo))
	require.NoError(t, err)
	assert.ErrorIs(t, desktop.Realize(), ErrUnsupportedProfile)
	assert.Equal(t, 0, drv.Count("CreateContext"))
}

func TestESUnsupported(t *testing.T) {
	drv := drivertest.New(driver.APIWGL)
	d := probed(t, drv)
	ctx, err := d.NewContext(drv.NewWindow(10, 10), UseES(ESYes))
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.Realize(), ErrUnsupportedProfile)
	assert.Empty(t, drv.Calls)
}

func TestESVersionClamp(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	drv.MaxVersion[driver.ProfileES] = v(2, 0)
	d := probed(t, drv, func(c *config.Config) {
		c.Set(config.FlagGLES)
	})
	ctx, err := d.NewContext(nil, RequiredVersion(9, 9))
	require.NoError(t, err)
	require.NoError(t, ctx.Realize())
	assert.True(t, ctx.UsesES())
	assert.Equal(t, v(2, 0), ctx.Version())
	assert.Equal(t, []string{
		"CreateContext(es 3.2)", "CreateContext(es 3.1)", "CreateContext(es 3.0)", "CreateContext(es 2.0)",
	}, filter(drv.Calls, "CreateContext"))
}

func TestRestorePreviousCurrent(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	d := probed(t, drv)
	a, err := d.NewContext(drv.NewWindow(10, 10))
	require.NoError(t, err)
	require.NoError(t, a.MakeCurrent())
	b, err := d.NewContext(drv.NewWindow(10, 10))
	require.NoError(t, err)
	require.NoError(t, b.Realize())
	assert.Same(t, a, d.Current())
	assert.Equal(t, a.NativeHandle(), drv.CurrentContext())
	assert.True(t, a.IsCurrent())
	require.NoError(t, d.ClearCurrent())
	assert.Nil(t, d.Current())
	assert.Equal(t, driver.Handle(0), drv.CurrentContext())
}

func TestOptionsAfterRealizePanic(t *testing.T) {
	drv := drivertest.New(driver.APIEGL)
	d := probed(t, drv)
	ctx, err := d.NewContext(nil)
	require.NoError(t, err)
	ctx.Apply(RequiredVersion(4, 0))
	require.NoError(t, ctx.Realize())
	assert.Equal(t, v(4, 0), ctx.Version())
	assert.Panics(t, func() {
		ctx.Apply(DebugEnabled(true))
	})
}

func filter(calls []string, prefix string) []string {
	var res []string
	for _, c := range calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			res = append(res, c)
		}
	}
	return res
}
