// Command spectro captures spectra from an Ocean Optics spectrometer,
// applies dark and standard correction, and saves or plots the result.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/config"
	"github.com/banshee-data/spectro/internal/monitoring"
	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/store"
	"github.com/banshee-data/spectro/internal/version"
)

var (
	configFile   = flag.String("config", "", "Path to JSON configuration file (built-in defaults when empty)")
	devMode      = flag.Bool("dev", false, "Replay recorded fixture frames instead of opening a spectrometer")
	listDevices  = flag.Bool("list", false, "List spectrometers attached as OBP serial ports and exit")
	showVersion  = flag.Bool("version", false, "Print version and exit")
	verbose      = flag.Bool("verbose", false, "Log per-frame and per-message detail")
	port         = flag.String("port", "", "Serial device path (empty selects the first spectrometer found)")
	frames       = flag.Int("frames", 1, "Number of frames averaged per capture")
	integration  = flag.Duration("integration", capture.DefaultIntegration, "Exposure per frame")
	smootherName = flag.String("smoother", smoothing.NameNone, "Smoothing filter: gaussian, boxcar or none")
	param        = flag.Float64("param", 1, "Smoother parameter: tau for gaussian, radius in pixels for boxcar")
	darkFile     = flag.String("dark", "", "Dark spectrum to subtract: a file path or a saved name")
	standardFile = flag.String("standard", "", "Standard spectrum to divide by: a file path or a saved name")
	save         = flag.Bool("save", false, "Save the result to the output directory")
	saveName     = flag.String("name", "", "Name to save under; implies -save (default is a timestamp)")
	outDir       = flag.String("out", store.DefaultDir, "Directory saved spectra are written to")
	dbPath       = flag.String("db", "", "SQLite catalogue of saved captures (empty disables it)")
	history      = flag.Int("history", 0, "Print the N most recent catalogued captures and exit")
	htmlOut      = flag.String("html", "", "Write an interactive comparison chart to this path")
	pngOut       = flag.String("png", "", "Write a comparison plot image to this path")
	demo         = flag.Bool("demo", false, "Plot the bundled fixture spectra and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.Empty()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	s, err := resolve(cfg, set)
	if err != nil {
		log.Fatalf("invalid options: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, s, os.Stdout)
	stop()
	if err != nil {
		log.Fatalf("spectro: %v", err)
	}
}
