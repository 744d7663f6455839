// Package spectrometer is the boundary to the spectrometer hardware. It
// exposes a Session with the handful of operations the capture pipeline
// needs, an Ocean Binary Protocol implementation over a serial transport, and
// a fake session for tests and offline use.
package spectrometer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/banshee-data/spectro/internal/monitoring"
)

var (
	// ErrNoDevice is returned when enumeration finds no spectrometer.
	ErrNoDevice = errors.New("no spectrometer connected")
	// ErrReadTimeout is returned when the device stops sending mid-message.
	ErrReadTimeout = errors.New("spectrometer read timed out")
	// ErrProtocol is returned for malformed or unexpected frames.
	ErrProtocol = errors.New("spectrometer protocol error")
	// ErrNACK is returned when the device rejects a request.
	ErrNACK = errors.New("spectrometer rejected request")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("spectrometer session closed")
)

// Session is one open connection to a spectrometer. Integration time is
// device state: once set it applies to every later read until changed.
// A Session is not safe for concurrent captures.
type Session interface {
	// SetIntegrationTime sets the exposure per frame, in microseconds.
	SetIntegrationTime(micros int64) error
	// Intensities acquires one frame and returns the raw per-pixel counts,
	// including the defective channel 0.
	Intensities(ctx context.Context) ([]float64, error)
	// Wavelengths returns the calibrated wavelength of every raw pixel, in nm.
	Wavelengths(ctx context.Context) ([]float64, error)
	// Close releases the device.
	Close() error
}

// OceanOpticsVID is the USB vendor id used by Ocean Optics (Ocean Insight).
const OceanOpticsVID = "2457"

// Device identifies an enumerated spectrometer.
type Device struct {
	Port         string
	SerialNumber string
	Product      string
	PID          string
}

func (d Device) String() string {
	if d.Product != "" {
		return fmt.Sprintf("%s (%s, serial %s)", d.Port, d.Product, d.SerialNumber)
	}
	return fmt.Sprintf("%s (serial %s)", d.Port, d.SerialNumber)
}

// detailedPorts is replaced in tests.
var detailedPorts = enumerator.GetDetailedPortsList

// ListDevices returns the Ocean Optics serial ports ordered by port name.
// Spectrometers that only offer USB bulk endpoints are not listed.
func ListDevices() ([]Device, error) {
	ports, err := detailedPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []Device
	for _, p := range ports {
		if p == nil || !p.IsUSB || !strings.EqualFold(p.VID, OceanOpticsVID) {
			continue
		}
		devices = append(devices, Device{
			Port:         p.Name,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
			PID:          strings.ToUpper(p.PID),
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Port < devices[j].Port })
	return devices, nil
}

// OpenFirst opens the first enumerated spectrometer.
func OpenFirst(opts PortOptions) (*OBPSession, Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, Device{}, err
	}
	if len(devices) == 0 {
		return nil, Device{}, ErrNoDevice
	}
	dev := devices[0]
	monitoring.Logf("spectrometer connected: %s", dev)

	s, err := Open(dev.Port, opts)
	if err != nil {
		return nil, dev, err
	}
	return s, dev, nil
}

// Open opens the spectrometer at path over a real serial port.
func Open(path string, opts PortOptions) (*OBPSession, error) {
	return OpenWith(OpenSerialPort, path, opts)
}

// OpenWith opens the spectrometer at path using opener for the transport.
func OpenWith(opener PortOpener, path string, opts PortOptions) (*OBPSession, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	port, err := opener(path, normalized)
	if err != nil {
		return nil, err
	}
	return NewOBPSession(port, normalized), nil
}

var (
	_ Session = (*OBPSession)(nil)
	_ Session = (*FakeSession)(nil)
)
