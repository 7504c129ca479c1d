// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"4.6.0 NVIDIA 535.104.05", Version{4, 6}},
		{"OpenGL ES 3.2 Mesa 23.1", Version{3, 2}},
		{"WebGL 2.0", Version{3, 0}},
		{"  1.1 ", Version{1, 1}},
	}
	for _, test := range tests {
		got, err := ParseVersion(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}
	_, err := ParseVersion("Direct3D")
	assert.Error(t, err)
}

func TestVersionOrder(t *testing.T) {
	assert.True(t, Version{3, 2}.AtLeast(Version{3, 2}))
	assert.True(t, Version{4, 0}.AtLeast(Version{3, 3}))
	assert.True(t, Version{2, 1}.Less(Version{3, 0}))
	assert.False(t, Version{3, 1}.AtLeast(Version{3, 2}))
	assert.True(t, Version{}.IsZero())
}

func TestParseAPI(t *testing.T) {
	for a := APIWGL; a <= APISoftware; a++ {
		got, ok := ParseAPI(a.String())
		assert.True(t, ok)
		assert.Equal(t, a, got)
	}
	_, ok := ParseAPI("metal")
	assert.False(t, ok)
}
