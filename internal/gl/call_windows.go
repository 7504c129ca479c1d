// SPDX-License-Identifier: Unlicense OR MIT

package gl

import "syscall"

func call(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, args...)
	return r
}
