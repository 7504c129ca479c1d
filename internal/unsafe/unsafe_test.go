// SPDX-License-Identifier: Unlicense OR MIT

package unsafe

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestGoString(t *testing.T) {
	assert.Equal(t, "EGL_KHR_image", GoString([]byte("EGL_KHR_image\x00garbage")))
	assert.Equal(t, "unterminated", GoString([]byte("unterminated")))
	assert.Equal(t, "", GoString(nil))
}

func TestCString(t *testing.T) {
	p := CString("glBlitFramebuffer")
	b := unsafe.Slice(p, len("glBlitFramebuffer")+1)
	assert.Equal(t, byte(0), b[len(b)-1])
	assert.Equal(t, "glBlitFramebuffer", GoString(b))
	assert.Nil(t, SliceOf(0))
}

func TestInt32s(t *testing.T) {
	assert.Nil(t, Int32s(nil))
	v := []int32{0x3038}
	assert.Equal(t, &v[0], Int32s(v))
}
