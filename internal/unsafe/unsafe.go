// SPDX-License-Identifier: Unlicense OR MIT

// Package unsafe converts native strings and buffers returned by the
// graphics drivers.
package unsafe

import (
	"unsafe"
)

// SliceOf returns a slice from a (native) pointer. The length is
// unbounded; callers must stop at a terminator.
func SliceOf(s uintptr) []byte {
	if s == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(s)), 1<<30)
}

// GoString convert a NUL-terminated C string
// to a Go string.
func GoString(s []byte) string {
	for i, v := range s {
		if v == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

// CString returns a NUL-terminated copy of s. The result must be kept
// alive until the native call using it returns.
func CString(s string) *byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

// Int32s returns a pointer to the first element of v, or nil.
func Int32s(v []int32) *int32 {
	if len(v) == 0 {
		return nil
	}
	return &v[0]
}
