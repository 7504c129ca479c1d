// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads context negotiation settings from defaults, an
// optional YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flag is a debug switch.
type Flag string

const (
	// FlagOpenGL enables debug logging of probing and creation.
	FlagOpenGL Flag = "opengl"
	// FlagLegacy forces legacy contexts.
	FlagLegacy Flag = "gl-legacy"
	// FlagGLES forces ES contexts and disables WGL.
	FlagGLES Flag = "gl-gles"
	// FlagDisable disables every native GL backend.
	FlagDisable Flag = "gl-disable"
	// FlagDebug requests debug contexts.
	FlagDebug Flag = "gl-debug"
	// FlagStrict turns misuse such as reapplying a pixel format into
	// panics.
	FlagStrict Flag = "strict"
)

var knownFlags = []Flag{FlagOpenGL, FlagLegacy, FlagGLES, FlagDisable, FlagDebug, FlagStrict}

// DefaultMaxTrackedBuffers bounds the damage history kept per context.
const DefaultMaxTrackedBuffers = 4

// Environment variables read by Load.
const (
	EnvPath       = "GLCTX_CONFIG"
	EnvDebug      = "GLCTX_DEBUG"
	EnvBackend    = "GLCTX_BACKEND"
	EnvExtensions = "GLCTX_DISABLE_EXTENSIONS"
	EnvVSync      = "GLCTX_VSYNC"
	EnvSamples    = "GLCTX_SAMPLES"
)

type Config struct {
	Debug []Flag `yaml:"debug"`
	// Backends overrides the backend preference order by name ("wgl",
	// "egl", "software"). Empty means the platform default.
	Backends []string `yaml:"backends"`
	// VSync enables swap interval 1 on attached contexts.
	VSync bool `yaml:"vsync"`
	// DisabledExtensions are hidden from capability probing.
	DisabledExtensions []string `yaml:"disabled_extensions"`
	// DisallowSwapExchange treats exchange formats as undefined, for
	// drivers that report exchange without honouring it.
	DisallowSwapExchange bool `yaml:"disallow_swap_exchange"`
	MaxTrackedBuffers    int  `yaml:"max_tracked_buffers"`
	// Samples requests multisampled window formats when the backend
	// supports multisampling. Zero disables it.
	Samples int `yaml:"samples"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		VSync:             true,
		MaxTrackedBuffers: DefaultMaxTrackedBuffers,
	}
}

// Has reports whether f is enabled.
func (c *Config) Has(f Flag) bool {
	for _, d := range c.Debug {
		if d == f {
			return true
		}
	}
	return false
}

// Set enables f.
func (c *Config) Set(f Flag) {
	if !c.Has(f) {
		c.Debug = append(c.Debug, f)
	}
}

// Validate rejects unknown flags and out of range values.
func (c *Config) Validate() error {
	var errs []error
	for _, d := range c.Debug {
		known := false
		for _, k := range knownFlags {
			known = known || d == k
		}
		if !known {
			errs = append(errs, fmt.Errorf("unknown debug flag %q", d))
		}
	}
	if c.MaxTrackedBuffers < 1 {
		errs = append(errs, fmt.Errorf("max_tracked_buffers must be at least 1, got %d", c.MaxTrackedBuffers))
	}
	if c.Samples < 0 {
		errs = append(errs, fmt.Errorf("samples must not be negative, got %d", c.Samples))
	}
	return errors.Join(errs...)
}

// DefaultPath returns the path of the user configuration file.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "glctx", "config.yaml"), nil
}

// Load returns the defaults overlaid with the user configuration file,
// if any, and the environment.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is like Load with an explicit file path. A missing file is
// not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := decode(cfg, data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	for _, f := range splitList(getenv(EnvDebug)) {
		c.Set(Flag(f))
	}
	if b := splitList(getenv(EnvBackend)); len(b) > 0 {
		c.Backends = b
	}
	c.DisabledExtensions = append(c.DisabledExtensions, splitList(getenv(EnvExtensions))...)
	if v := getenv(EnvVSync); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVSync, err)
		}
		c.VSync = on
	}
	if v := getenv(EnvSamples); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSamples, err)
		}
		c.Samples = n
	}
	return nil
}

// splitList splits on commas, colons and whitespace, the separators
// accepted by GDK_DEBUG style variables.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ':' || r == ' ' || r == '\t'
	})
}
