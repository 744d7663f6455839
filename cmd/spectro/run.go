package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/db"
	"github.com/banshee-data/spectro/internal/fixtures"
	"github.com/banshee-data/spectro/internal/plot"
	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/spectrometer"
	"github.com/banshee-data/spectro/internal/spectrum"
	"github.com/banshee-data/spectro/internal/store"
)

// devSerial is recorded as the device serial for captures replayed in -dev.
const devSerial = "fixture"

func run(ctx context.Context, s settings, out io.Writer) error {
	switch {
	case s.list:
		return printDevices(out)
	case s.history > 0:
		return printHistory(s, out)
	case s.demo:
		return runDemo(s, out)
	}
	return runCapture(ctx, s, out)
}

func printDevices(out io.Writer) error {
	devices, err := spectrometer.ListDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "no spectrometers found")
		return nil
	}
	for _, d := range devices {
		fmt.Fprintln(out, d)
	}
	return nil
}

// printHistory lists the newest catalogue records, then any spectra in the
// output directory that were never catalogued.
func printHistory(s settings, out io.Writer) error {
	database, err := db.NewDB(s.dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	schema, _, err := database.MigrateVersion()
	if err != nil {
		return err
	}
	log.Printf("catalogue %s at schema version %d", s.dbPath, schema)

	records, err := database.Captures(s.history)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintln(out, r)
	}

	// spectra saved without -db have no catalogue row
	st := store.New(s.outDir, s.ext)
	names, err := st.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		_, err := database.CaptureByName(name)
		if errors.Is(err, db.ErrNotFound) {
			fmt.Fprintf(out, "uncatalogued %s\n", name)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// runDemo plots the bundled fixture spectra. Bad pixels are fixed in the
// measurement and the standard before comparing.
func runDemo(s settings, out io.Writer) error {
	y, err := spectrum.Subtract(fixtures.Sample(), fixtures.Dark())
	if err != nil {
		return err
	}
	y, _ = s.badPixels.Apply(y)
	standard, _ := s.badPixels.Apply(fixtures.Standard())

	c, err := capture.Compare(y, standard, fixtures.Wavelengths(), compareSmoother(s.smoother))
	if err != nil {
		return err
	}
	if !s.plotting() {
		s.pngPath = filepath.Join(s.outDir, "comparison.png")
	}
	return render(c, s, out)
}

func runCapture(ctx context.Context, s settings, out io.Writer) error {
	st := store.New(s.outDir, s.ext)

	var dark, standard spectrum.Spectrum
	var err error
	if s.darkPath != "" {
		if dark, err = loadSpectrum(st, s.darkPath); err != nil {
			return fmt.Errorf("load dark: %w", err)
		}
	}
	if s.standardPath != "" {
		if standard, err = loadSpectrum(st, s.standardPath); err != nil {
			return fmt.Errorf("load standard: %w", err)
		}
	}
	if s.plotting() && standard == nil {
		return errors.New("-html and -png need -standard to compare against")
	}

	session, serial, err := openSession(ctx, s)
	if err != nil {
		return err
	}
	defer session.Close()

	opts := capture.Options{
		Frames:      s.frames,
		Integration: s.integration,
		Smoother:    s.smoother,
		Dark:        dark,
		Standard:    standard,
	}
	// The comparison view divides and smooths itself, so the capture stops
	// after dark correction.
	if s.plotting() {
		opts.Standard = nil
		opts.Smoother = smoothing.None{}
	}

	pipeline := capture.New(session, s.badPixels)
	result, err := pipeline.Capture(ctx, opts)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}
	log.Printf("captured %d pixels (%d frames at %s)", len(result), s.frames, s.integration)

	if s.plotting() {
		wl, err := pipeline.Wavelengths(ctx)
		if err != nil {
			return err
		}
		c, err := capture.Compare(result, standard, wl, compareSmoother(s.smoother))
		if err != nil {
			return err
		}
		if err := render(c, s, out); err != nil {
			return err
		}
	}

	if !s.save {
		if s.plotting() {
			return nil
		}
		return spectrum.Write(out, result)
	}

	path, err := st.Save(result, s.name)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)

	if s.dbPath == "" {
		return nil
	}
	rec := db.CaptureRecord{
		Name:          strings.TrimSuffix(filepath.Base(path), st.Ext),
		Path:          path,
		CapturedAt:    st.Clock.Now(),
		IntegrationUs: s.integration.Microseconds(),
		Frames:        s.frames,
		Smoother:      smoothing.NameNone,
		Pixels:        len(result),
		Dark:          opts.Dark != nil,
		Standard:      opts.Standard != nil,
		DeviceSerial:  serial,
	}
	if !smoothing.IsNone(opts.Smoother) {
		rec.Smoother = s.smootherName
		rec.SmootherParam = s.smootherParam
	}
	return recordCapture(s.dbPath, rec)
}

func recordCapture(path string, rec db.CaptureRecord) error {
	database, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := database.RecordCapture(rec)
	if err != nil {
		return err
	}
	log.Printf("catalogued capture %s as %s", rec.Name, id)
	return nil
}

// openSession returns the session to capture from and the device serial
// number, which may be empty when the device does not report one.
func openSession(ctx context.Context, s settings) (spectrometer.Session, string, error) {
	if s.dev {
		wl, sample, _, _ := fixtures.RawFrames()
		log.Printf("dev mode: replaying fixture frames")
		return spectrometer.NewFakeSession(wl, sample), devSerial, nil
	}

	if s.port == "" {
		session, dev, err := spectrometer.OpenFirst(s.portOpts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open spectrometer: %w", err)
		}
		return session, dev.SerialNumber, nil
	}

	session, err := spectrometer.Open(s.port, s.portOpts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open spectrometer at %s: %w", s.port, err)
	}
	serial, err := session.SerialNumber(ctx)
	if err != nil {
		log.Printf("could not read serial number from %s: %v", s.port, err)
	}
	return session, serial, nil
}

// loadSpectrum reads ref as a file path when one exists, otherwise as a name
// saved in st.
func loadSpectrum(st *store.Store, ref string) (spectrum.Spectrum, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return store.ReadFile(store.OSFileSystem{}, ref)
	}
	return st.Load(ref)
}

func compareSmoother(sm smoothing.Smoother) smoothing.Smoother {
	if smoothing.IsNone(sm) {
		return capture.DefaultCompareSmoother
	}
	return sm
}

func render(c capture.Comparison, s settings, out io.Writer) error {
	if s.pngPath != "" {
		if err := plot.SavePNG(s.pngPath, c); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		fmt.Fprintln(out, s.pngPath)
	}
	if s.htmlPath != "" {
		if err := writeHTML(s.htmlPath, c); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		fmt.Fprintln(out, s.htmlPath)
	}
	return nil
}

func writeHTML(path string, c capture.Comparison) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot.WriteHTML(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
