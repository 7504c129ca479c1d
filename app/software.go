// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/software"
)

func init() {
	backends = append(backends, backend{
		api:      driver.APISoftware,
		priority: 10,
		open: func(display driver.Handle) (driver.Driver, error) {
			return software.New(), nil
		},
	})
}
