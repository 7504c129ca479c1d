// SPDX-License-Identifier: Unlicense OR MIT

// Command glprobe reports the capabilities of the available GL backends
// and the context negotiated for a set of requirements, as YAML.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gdkgo/glctx/app"
	"github.com/gdkgo/glctx/app/headless"
	"github.com/gdkgo/glctx/internal/config"
	"github.com/gdkgo/glctx/region"
)

var (
	backends   = flag.String("backend", "", "comma separated backends to try, in order (wgl, egl, software).")
	configPath = flag.String("config", "", "configuration file. Defaults to $GLCTX_CONFIG or ~/.config/glctx/config.yaml.")
	glVersion  = flag.String("gl", "", "minimum context version, as major.minor.")
	useES      = flag.Bool("es", false, "request a GL ES context.")
	legacy     = flag.Bool("legacy", false, "force a legacy context.")
	debugCtx   = flag.Bool("debug", false, "request a debug context.")
	forward    = flag.Bool("forward", false, "request a forward compatible context.")
	verbose    = flag.Bool("v", false, "log probing and context creation.")
	shotPath   = flag.String("o", "", "render a test frame in a headless window and write it as PNG.")
)

func main() {
	flag.Parse()
	if err := mainErr(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "glprobe: %v\n", err)
		os.Exit(1)
	}
}

func mainErr(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := contextOptions()
	if err != nil {
		return err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "glprobe"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	disp, err := app.NewDisplay(0, app.WithConfig(cfg), app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer disp.Close()
	r, err := probe(disp, opts...)
	if err != nil {
		return err
	}
	if err := r.write(out); err != nil {
		return err
	}
	if *shotPath != "" {
		return screenshot(*shotPath, cfg, logger)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromPath(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if *backends != "" {
		cfg.Backends = strings.Split(*backends, ",")
	}
	if *legacy {
		cfg.Set(config.FlagLegacy)
	}
	if *verbose {
		cfg.Set(config.FlagOpenGL)
	}
	return cfg, nil
}

func contextOptions() ([]app.ContextOption, error) {
	var opts []app.ContextOption
	if *glVersion != "" {
		major, minor, err := parseVersion(*glVersion)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.RequiredVersion(major, minor))
	}
	if *useES {
		opts = append(opts, app.UseES(app.ESYes))
	}
	return append(opts, app.DebugEnabled(*debugCtx), app.ForwardCompatible(*forward)), nil
}

func parseVersion(s string) (int, int, error) {
	maj, min, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("invalid -gl %q: want major.minor", s)
	}
	major, err1 := strconv.Atoi(maj)
	minor, err2 := strconv.Atoi(min)
	if err := errors.Join(err1, err2); err != nil || major < 1 || minor < 0 {
		return 0, 0, fmt.Errorf("invalid -gl %q: want major.minor", s)
	}
	return major, minor, nil
}

// screenshot renders a test frame through the software backend.
func screenshot(path string, cfg *config.Config, logger *log.Logger) error {
	w, err := headless.NewWindow(256, 256, app.WithConfig(cfg), app.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Release()
	paint := headless.FillRect(image.White, image.Black, image.Rect(64, 64, 192, 192))
	if _, err := w.Frame(region.Region{}, paint); err != nil {
		return err
	}
	img, err := w.Screenshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
