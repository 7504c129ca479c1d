// SPDX-License-Identifier: Unlicense OR MIT

//go:build (linux || freebsd || windows) && !noopengl

package app

import (
	"runtime"

	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/egl"
)

func init() {
	priority := 1
	if runtime.GOOS == "windows" {
		// WGL is preferred unless disabled by configuration.
		priority = 2
	}
	backends = append(backends, backend{
		api:      driver.APIEGL,
		priority: priority,
		open: func(display driver.Handle) (driver.Driver, error) {
			return egl.NewDriver(egl.NativeDisplayType(display))
		},
	})
}
