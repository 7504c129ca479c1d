// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux || freebsd

package gl

import "github.com/ebitengine/purego"

func call(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := purego.SyscallN(fn, args...)
	return r
}
