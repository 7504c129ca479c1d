// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"github.com/gdkgo/glctx/driver"
	"github.com/gdkgo/glctx/internal/config"
	"golang.org/x/exp/slices"
)

// backend is a registered driver constructor.
type backend struct {
	api driver.API
	// priority orders backends; lower is tried first.
	priority int
	open     func(display driver.Handle) (driver.Driver, error)
}

// backends is the list of potential driver implementations, filled by
// platform specific init functions.
var backends []backend

// candidateBackends returns the backends to try for cfg, in order.
func candidateBackends(cfg *config.Config) []backend {
	all := slices.Clone(backends)
	slices.SortStableFunc(all, func(a, b backend) int {
		return a.priority - b.priority
	})
	if len(cfg.Backends) > 0 {
		var ordered []backend
		for _, name := range cfg.Backends {
			api, ok := driver.ParseAPI(name)
			if !ok {
				continue
			}
			for _, b := range all {
				if b.api == api {
					ordered = append(ordered, b)
				}
			}
		}
		all = ordered
	}
	var res []backend
	for _, b := range all {
		switch {
		case cfg.Has(config.FlagDisable) && b.api != driver.APISoftware:
		case cfg.Has(config.FlagGLES) && b.api == driver.APIWGL:
		default:
			res = append(res, b)
		}
	}
	return res
}
