// Package store saves captured spectra as flat numeric text files and loads
// them back, including recorded dark and standard frames.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/spectro/internal/monitoring"
	"github.com/banshee-data/spectro/internal/spectrum"
	"github.com/banshee-data/spectro/internal/timeutil"
)

// Defaults for a Store created with New.
const (
	DefaultDir = "spec_data"
	DefaultExt = ".txt"
)

// TimestampLayout names files saved without an explicit name. The colons
// make such names unusable on filesystems that reject ':' (Windows); pass a
// name there.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrInvalidName is returned for names that would escape the store directory.
var ErrInvalidName = errors.New("invalid spectrum name")

// Store writes spectra under Dir as <name><Ext>.
type Store struct {
	FS    FileSystem
	Dir   string
	Ext   string
	Clock timeutil.Clock
}

// New returns a store on the local filesystem. Empty dir and ext select the
// defaults.
func New(dir, ext string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if ext == "" {
		ext = DefaultExt
	}
	return &Store{FS: OSFileSystem{}, Dir: dir, Ext: ext, Clock: timeutil.RealClock{}}
}

// ValidateName rejects names that are empty after trimming, contain a path
// separator, or are a dot directory. Dots inside a name are allowed.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns the file path used for name.
func (s *Store) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, name+s.Ext), nil
}

// Save writes data and returns the path written. An empty name is replaced by
// the current time in TimestampLayout. Existing files are overwritten.
func (s *Store) Save(data spectrum.Spectrum, name string) (string, error) {
	if name == "" {
		name = s.Clock.Now().Format(TimestampLayout)
	}
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	if err := s.FS.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", s.Dir, err)
	}

	f, err := s.FS.Create(path)
	if err != nil {
		return "", err
	}
	if err := spectrum.Write(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	monitoring.Logf("saved %d pixels to %s", len(data), path)
	return path, nil
}

// Load reads the spectrum saved under name.
func (s *Store) Load(name string) (spectrum.Spectrum, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return ReadFile(s.FS, path)
}

// Names lists the saved spectra, sorted.
func (s *Store) Names() ([]string, error) {
	matches, err := s.FS.Glob(filepath.Join(s.Dir, "*"+s.Ext))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), s.Ext))
	}
	return names, nil
}

// ReadFile reads a flat numeric file from any path on fsys.
func ReadFile(fsys FileSystem, path string) (spectrum.Spectrum, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := spectrum.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s, nil
}
