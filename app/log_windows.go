// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"io"
	"unsafe"

	syscall "golang.org/x/sys/windows"
)

// debugWriter sends log lines to the debugger, for GUI processes started
// without a console.
type debugWriter struct{}

var (
	kernel32           = syscall.NewLazySystemDLL("kernel32")
	outputDebugStringW = kernel32.NewProc("OutputDebugStringW")
)

func logOutput(w io.Writer) io.Writer {
	if syscall.Stderr == 0 {
		return debugWriter{}
	}
	return w
}

func (debugWriter) Write(buf []byte) (int, error) {
	p, err := syscall.UTF16PtrFromString(string(buf))
	if err != nil {
		return 0, err
	}
	outputDebugStringW.Call(uintptr(unsafe.Pointer(p)))
	return len(buf), nil
}
