package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/config"
	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/spectrometer"
)

// settings is the resolved command configuration: config file values with
// any explicitly set flags applied on top.
type settings struct {
	dev     bool
	list    bool
	demo    bool
	history int

	port     string
	portOpts spectrometer.PortOptions

	frames        int
	integration   time.Duration
	smootherName  string
	smootherParam float64
	smoother      smoothing.Smoother
	badPixels     capture.BadPixels

	darkPath     string
	standardPath string

	save   bool
	name   string
	outDir string
	ext    string
	dbPath string

	htmlPath string
	pngPath  string
}

// resolve merges cfg with the flags named in set. Flags that were not set on
// the command line never override the config file.
func resolve(cfg *config.Config, set map[string]bool) (settings, error) {
	s := settings{
		dev:     *devMode,
		list:    *listDevices,
		demo:    *demo,
		history: *history,

		port:     cfg.GetPort(),
		portOpts: cfg.GetPortOptions(),

		frames:        cfg.GetFrames(),
		integration:   cfg.GetIntegration(),
		smootherName:  cfg.GetSmoother(),
		smootherParam: cfg.GetSmootherParam(),
		badPixels:     cfg.GetBadPixels(),

		darkPath:     *darkFile,
		standardPath: *standardFile,

		save:   *save,
		name:   *saveName,
		outDir: cfg.GetOutputDir(),
		ext:    cfg.GetExtension(),
		dbPath: cfg.GetDBPath(),

		htmlPath: *htmlOut,
		pngPath:  *pngOut,
	}

	if set["port"] {
		s.port = *port
	}
	if set["frames"] {
		s.frames = *frames
	}
	if set["integration"] {
		s.integration = *integration
	}
	if set["smoother"] {
		s.smootherName = *smootherName
	}
	if set["param"] {
		s.smootherParam = *param
	}
	if set["out"] {
		s.outDir = *outDir
	}
	if set["db"] {
		s.dbPath = *dbPath
	}
	if s.name != "" {
		s.save = true
	}

	sm, err := smoothing.Parse(s.smootherName, s.smootherParam)
	if err != nil {
		return settings{}, err
	}
	s.smoother = sm
	s.smootherName = strings.ToLower(strings.TrimSpace(s.smootherName))
	if s.smootherName == "" {
		s.smootherName = smoothing.NameNone
	}

	if s.history < 0 {
		return settings{}, fmt.Errorf("-history must not be negative, got %d", s.history)
	}
	if s.history > 0 && s.dbPath == "" {
		return settings{}, fmt.Errorf("-history needs a catalogue (-db or db_path)")
	}
	return s, nil
}

// plotting reports whether a comparison chart was requested.
func (s settings) plotting() bool {
	return s.htmlPath != "" || s.pngPath != ""
}
