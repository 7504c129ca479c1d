// SPDX-License-Identifier: Unlicense OR MIT

//go:build !noopengl

package app

import (
	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/wgl"
)

func init() {
	backends = append(backends, backend{
		api:      driver.APIWGL,
		priority: 1,
		open: func(display driver.Handle) (driver.Driver, error) {
			return wgl.NewDriver()
		},
	})
}
