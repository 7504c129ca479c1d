// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gdkgo/glctx/app"
)

type report struct {
	Backend      string   `yaml:"backend"`
	Version      string   `yaml:"version"`
	GLVersion    string   `yaml:"gl_version"`
	Vendor       string   `yaml:"vendor,omitempty"`
	Features     []string `yaml:"features,flow"`
	Extensions   int      `yaml:"extensions"`
	Context      *ctxInfo `yaml:"context,omitempty"`
	ContextError string   `yaml:"context_error,omitempty"`
}

type ctxInfo struct {
	Version  string `yaml:"version"`
	Profile  string `yaml:"profile"`
	Drawable string `yaml:"drawable"`
}

// probe queries the capabilities of disp and realizes an offscreen
// context with opts. A context failure is reported, not returned.
func probe(disp *app.Display, opts ...app.ContextOption) (*report, error) {
	caps, err := disp.Capabilities()
	if err != nil {
		return nil, err
	}
	r := &report{
		Backend:    caps.API.String(),
		Version:    caps.Version.String(),
		GLVersion:  caps.GLVersion.String(),
		Vendor:     caps.Vendor,
		Features:   features(caps),
		Extensions: len(caps.Extensions),
	}
	ctx, err := disp.NewContext(nil, opts...)
	if err != nil {
		return nil, err
	}
	defer ctx.Release()
	if err := ctx.Realize(); err != nil {
		r.ContextError = err.Error()
		return r, nil
	}
	info := &ctxInfo{
		Version:  ctx.Version().String(),
		Profile:  "core",
		Drawable: "surfaceless",
	}
	switch {
	case ctx.UsesES():
		info.Profile = "es"
	case ctx.IsLegacy():
		info.Profile = "legacy"
	}
	if ctx.Drawable() != 0 {
		info.Drawable = fmt.Sprintf("%#x", ctx.Drawable())
	}
	r.Context = info
	return r, nil
}

func features(c app.Caps) []string {
	flags := []struct {
		name string
		on   bool
	}{
		{"create_context", c.CreateContextAttribs},
		{"swap_control", c.SwapControl},
		{"sync_control", c.SyncControl},
		{"pixel_format", c.PixelFormatARB},
		{"multisample", c.Multisample},
		{"surfaceless", c.Surfaceless},
		{"framebuffer_blit", c.FramebufferBlit},
		{"buffer_age", c.BufferAge},
		{"colorspace", c.ColorSpace},
		{"swap_hint", c.SwapHint},
		{"desktop_gl", c.DesktopGL},
		{"gles", c.GLES},
	}
	res := []string{}
	for _, f := range flags {
		if f.on {
			res = append(res, f.name)
		}
	}
	return res
}

func (r *report) write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
