package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/spectro/internal/capture"
	"github.com/banshee-data/spectro/internal/smoothing"
	"github.com/banshee-data/spectro/internal/spectrometer"
	"github.com/banshee-data/spectro/internal/store"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/spectro.defaults.json"

// Config is the on-disk configuration for the spectro command. Every field is
// optional; the Get* methods supply defaults for omitted values so partial
// files are safe.
type Config struct {
	// Device
	Port        *string `json:"port,omitempty"` // empty selects the first enumerated device
	BaudRate    *int    `json:"baud_rate,omitempty"`
	ReadTimeout *string `json:"read_timeout,omitempty"` // duration string like "2s"

	// Capture
	Integration      *string  `json:"integration,omitempty"` // duration string like "500ms"
	Frames           *int     `json:"frames,omitempty"`
	Smoother         *string  `json:"smoother,omitempty"`
	SmootherParam    *float64 `json:"smoother_param,omitempty"`
	BadPixels        []int    `json:"bad_pixels,omitempty"`
	BadPixelStrategy *string  `json:"bad_pixel_strategy,omitempty"`

	// Output
	OutputDir *string `json:"output_dir,omitempty"`
	Extension *string `json:"extension,omitempty"`
	DBPath    *string `json:"db_path,omitempty"` // empty disables the catalogue
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json extension
// and be at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if err := validDuration("read_timeout", c.ReadTimeout); err != nil {
		return err
	}
	if err := validDuration("integration", c.Integration); err != nil {
		return err
	}
	if c.Integration != nil && *c.Integration != "" {
		d, _ := time.ParseDuration(*c.Integration)
		if d < time.Microsecond {
			return fmt.Errorf("integration must be at least 1us, got %s", *c.Integration)
		}
	}
	if c.Frames != nil && *c.Frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", *c.Frames)
	}
	if _, err := smoothing.Parse(c.GetSmoother(), c.GetSmootherParam()); err != nil {
		return err
	}
	for _, i := range c.BadPixels {
		if i < 0 {
			return fmt.Errorf("bad_pixels must be non-negative, got %d", i)
		}
	}
	if c.BadPixelStrategy != nil {
		if _, err := capture.ParseStrategy(*c.BadPixelStrategy); err != nil {
			return err
		}
	}
	if c.Extension != nil && *c.Extension != "" && !strings.HasPrefix(*c.Extension, ".") {
		return fmt.Errorf("extension must start with '.', got %q", *c.Extension)
	}
	return nil
}

func validDuration(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	if _, err := time.ParseDuration(*v); err != nil {
		return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
	}
	return nil
}

// GetPort returns the configured device path, or "" to auto-detect.
func (c *Config) GetPort() string {
	if c.Port == nil {
		return ""
	}
	return *c.Port
}

// GetPortOptions returns the serial settings for the device.
func (c *Config) GetPortOptions() spectrometer.PortOptions {
	opts := spectrometer.PortOptions{ReadTimeout: spectrometer.DefaultReadTimeout}
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.ReadTimeout != nil && *c.ReadTimeout != "" {
		if d, err := time.ParseDuration(*c.ReadTimeout); err == nil {
			opts.ReadTimeout = d
		}
	}
	return opts
}

// GetIntegration returns the exposure per frame.
func (c *Config) GetIntegration() time.Duration {
	if c.Integration == nil || *c.Integration == "" {
		return capture.DefaultIntegration
	}
	d, err := time.ParseDuration(*c.Integration)
	if err != nil {
		return capture.DefaultIntegration
	}
	return d
}

// GetFrames returns the number of frames averaged per capture.
func (c *Config) GetFrames() int {
	if c.Frames == nil {
		return 1
	}
	return *c.Frames
}

// GetSmoother returns the smoother name; "none" when unset.
func (c *Config) GetSmoother() string {
	if c.Smoother == nil || *c.Smoother == "" {
		return smoothing.NameNone
	}
	return *c.Smoother
}

// GetSmootherParam returns tau or the boxcar radius.
func (c *Config) GetSmootherParam() float64 {
	if c.SmootherParam == nil {
		return 1
	}
	return *c.SmootherParam
}

// GetBadPixels returns the bad pixel correction. An explicit empty list
// in the file cannot be told apart from an omitted one, so both give the
// default index.
func (c *Config) GetBadPixels() capture.BadPixels {
	bp := capture.DefaultBadPixels()
	if len(c.BadPixels) > 0 {
		bp.Indices = append([]int(nil), c.BadPixels...)
	}
	if c.BadPixelStrategy != nil {
		if s, err := capture.ParseStrategy(*c.BadPixelStrategy); err == nil {
			bp.Strategy = s
		}
	}
	return bp
}

// GetOutputDir returns the directory spectra are saved in.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return store.DefaultDir
	}
	return *c.OutputDir
}

// GetExtension returns the saved file extension.
func (c *Config) GetExtension() string {
	if c.Extension == nil || *c.Extension == "" {
		return store.DefaultExt
	}
	return *c.Extension
}

// GetDBPath returns the catalogue path; "" disables it.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}
