package spectrometer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Port is the minimal transport a session needs. go.bug.st/serial ports
// satisfy it; tests substitute an in-memory implementation.
type Port interface {
	io.ReadWriteCloser
	// SetReadTimeout bounds each Read. A Read that times out returns 0, nil.
	SetReadTimeout(t time.Duration) error
}

// PortOpener opens the transport for a device path.
type PortOpener func(path string, opts PortOptions) (Port, error)

// PortOptions describes the serial connection parameters used when opening a
// device. Only models that speak OBP over a serial interface are reachable
// this way: USB units that expose a virtual serial port ignore the line
// settings, RS-232 connections need them to match the device. Bulk-transfer
// USB models (USB2000+, Flame, HR4000) do not appear as serial ports.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
	// ReadTimeout is the allowance for a response after the device has
	// finished integrating. Spectrum reads wait for the integration time plus
	// this allowance.
	ReadTimeout time.Duration `json:"read_timeout"`
}

// DefaultReadTimeout is used when PortOptions.ReadTimeout is unset.
const DefaultReadTimeout = 2 * time.Second

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch parity := strings.TrimSpace(strings.ToUpper(opts.Parity)); parity {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", o.Parity)
	}

	if opts.ReadTimeout < 0 {
		return opts, fmt.Errorf("invalid read timeout %v: must not be negative", opts.ReadTimeout)
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	return opts, nil
}

// SerialMode converts the options into the serial.Mode required by
// go.bug.st/serial when opening a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}
	switch opts.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}

// OpenSerialPort opens a real serial port. It is the default PortOpener.
func OpenSerialPort(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return port, nil
}
