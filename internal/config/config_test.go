// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvDebug, EnvBackend, EnvExtensions, EnvVSync, EnvSamples} {
		t.Setenv(k, "")
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
debug: [opengl, gl-legacy]
backends: [egl, software]
vsync: false
disabled_extensions: [EGL_EXT_buffer_age]
disallow_swap_exchange: true
max_tracked_buffers: 2
samples: 4
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.True(t, cfg.Has(FlagOpenGL))
	assert.True(t, cfg.Has(FlagLegacy))
	assert.False(t, cfg.Has(FlagGLES))
	assert.Equal(t, []string{"egl", "software"}, cfg.Backends)
	assert.False(t, cfg.VSync)
	assert.Equal(t, []string{"EGL_EXT_buffer_age"}, cfg.DisabledExtensions)
	assert.True(t, cfg.DisallowSwapExchange)
	assert.Equal(t, 2, cfg.MaxTrackedBuffers)
	assert.Equal(t, 4, cfg.Samples)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends: [wgl]\n"), 0o644))
	t.Setenv(EnvDebug, "gl-gles,strict")
	t.Setenv(EnvBackend, "software")
	t.Setenv(EnvExtensions, "WGL_ARB_pixel_format:WGL_EXT_swap_control")
	t.Setenv(EnvVSync, "0")
	t.Setenv(EnvSamples, "2")
	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.True(t, cfg.Has(FlagGLES))
	assert.True(t, cfg.Has(FlagStrict))
	assert.Equal(t, []string{"software"}, cfg.Backends)
	assert.Equal(t, []string{"WGL_ARB_pixel_format", "WGL_EXT_swap_control"}, cfg.DisabledExtensions)
	assert.False(t, cfg.VSync)
	assert.Equal(t, 2, cfg.Samples)
}

func TestInvalidConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	tests := []struct {
		name string
		data string
	}{
		{"unknown flag", "debug: [wireframe]\n"},
		{"unknown field", "swap: fast\n"},
		{"tracked buffers", "max_tracked_buffers: 0\n"},
		{"samples", "samples: -2\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(dir, test.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.data), 0o644))
			_, err := LoadFromPath(path)
			assert.Error(t, err)
		})
	}
	t.Setenv(EnvVSync, "sometimes")
	_, err := LoadFromPath(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
	t.Setenv(EnvVSync, "")
	t.Setenv(EnvSamples, "many")
	_, err = LoadFromPath(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "/etc/glctx.yaml")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/glctx.yaml", p)
}
