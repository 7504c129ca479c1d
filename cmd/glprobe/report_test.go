// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gdkgo/glctx/app"
	"github.com/gdkgo/glctx/internal/config"
	"github.com/gdkgo/glctx/internal/software"
)

func softwareDisplay(t *testing.T) *app.Display {
	t.Helper()
	d, err := app.NewDisplay(0,
		app.WithConfig(config.Default()),
		app.WithDriver(software.New()),
		app.WithLogger(log.New(io.Discard)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestProbeSoftware(t *testing.T) {
	r, err := probe(softwareDisplay(t))
	require.NoError(t, err)
	assert.Equal(t, "software", r.Backend)
	assert.Contains(t, r.Features, "surfaceless")
	assert.Contains(t, r.Features, "buffer_age")
	require.NotNil(t, r.Context)
	assert.Equal(t, &ctxInfo{Version: "1.0", Profile: "legacy", Drawable: "surfaceless"}, r.Context)

	var buf bytes.Buffer
	require.NoError(t, r.write(&buf))
	var decoded report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *r, decoded)
}

func TestProbeContextError(t *testing.T) {
	r, err := probe(softwareDisplay(t), app.UseES(app.ESYes))
	require.NoError(t, err)
	assert.Nil(t, r.Context)
	assert.NotEmpty(t, r.ContextError)
}

func TestParseVersion(t *testing.T) {
	major, minor, err := parseVersion("3.2")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, []int{major, minor})
	for _, s := range []string{"3", "a.b", "0.1", "3.-1"} {
		_, _, err := parseVersion(s)
		assert.Error(t, err, s)
	}
}
