package spectrometer

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/spectro/internal/monitoring"
)

// OBPSession talks the Ocean Binary Protocol over a Port.
type OBPSession struct {
	mu     sync.Mutex
	port   Port
	opts   PortOptions
	closed bool

	integrationMicros int64
	pixels            int
	coeffs            []float64
}

// NewOBPSession wraps an open port. opts should already be normalized.
func NewOBPSession(port Port, opts PortOptions) *OBPSession {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	return &OBPSession{port: port, opts: opts}
}

// SetIntegrationTime implements Session.
func (s *OBPSession) SetIntegrationTime(micros int64) error {
	if micros <= 0 || micros > math.MaxUint32 {
		return fmt.Errorf("integration time %dus out of range", micros)
	}
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(micros))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.transact(context.Background(), msgSetIntegration, data, s.opts.ReadTimeout); err != nil {
		return fmt.Errorf("set integration time: %w", err)
	}
	s.integrationMicros = micros
	monitoring.Debugf("spectrometer integration time set to %dus", micros)
	return nil
}

// Intensities implements Session. Pixels are 16-bit little-endian counts.
func (s *OBPSession) Intensities(ctx context.Context) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readSpectrum(ctx)
}

func (s *OBPSession) readSpectrum(ctx context.Context) ([]float64, error) {
	timeout := time.Duration(s.integrationMicros)*time.Microsecond + s.opts.ReadTimeout
	resp, err := s.transact(ctx, msgGetSpectrum, nil, timeout)
	if err != nil {
		return nil, fmt.Errorf("read spectrum: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data)%2 != 0 {
		return nil, fmt.Errorf("%w: spectrum payload of %d bytes", ErrProtocol, len(resp.Data))
	}

	out := make([]float64, len(resp.Data)/2)
	for i := range out {
		out[i] = float64(binary.LittleEndian.Uint16(resp.Data[2*i:]))
	}
	s.pixels = len(out)
	return out, nil
}

// Wavelengths implements Session. The table is the device's calibration
// polynomial evaluated at each raw pixel index. If no spectrum has been read
// yet one is acquired to learn the pixel count.
func (s *OBPSession) Wavelengths(ctx context.Context) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coeffs == nil {
		coeffs, err := s.readCoefficients(ctx)
		if err != nil {
			return nil, err
		}
		s.coeffs = coeffs
	}
	if s.pixels == 0 {
		if _, err := s.readSpectrum(ctx); err != nil {
			return nil, fmt.Errorf("probe pixel count: %w", err)
		}
	}

	out := make([]float64, s.pixels)
	for i := range out {
		x := float64(i)
		// Horner's rule, highest order first
		v := 0.0
		for k := len(s.coeffs) - 1; k >= 0; k-- {
			v = v*x + s.coeffs[k]
		}
		out[i] = v
	}
	return out, nil
}

func (s *OBPSession) readCoefficients(ctx context.Context) ([]float64, error) {
	resp, err := s.transact(ctx, msgGetWavecalCount, nil, s.opts.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("read wavelength coefficient count: %w", err)
	}
	if len(resp.Data) < 1 || resp.Data[0] == 0 {
		return nil, fmt.Errorf("%w: device reports no wavelength coefficients", ErrProtocol)
	}

	count := int(resp.Data[0])
	coeffs := make([]float64, count)
	for i := range coeffs {
		resp, err := s.transact(ctx, msgGetWavecalCoeff, []byte{uint8(i)}, s.opts.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("read wavelength coefficient %d: %w", i, err)
		}
		if len(resp.Data) < 4 {
			return nil, fmt.Errorf("%w: coefficient %d has %d bytes", ErrProtocol, i, len(resp.Data))
		}
		coeffs[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(resp.Data)))
	}
	monitoring.Logf("spectrometer wavelength calibration: %v", coeffs)
	return coeffs, nil
}

// SerialNumber asks the device for its serial number.
func (s *OBPSession) SerialNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, err := s.transact(ctx, msgGetSerialNumber, nil, s.opts.ReadTimeout)
	if err != nil {
		return "", fmt.Errorf("read serial number: %w", err)
	}
	return strings.TrimRight(string(resp.Data), "\x00"), nil
}

// Close implements Session.
func (s *OBPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}

// transact sends one request and reads its reply. Every request asks for an
// acknowledgement so that commands without a data reply still confirm.
// Callers hold s.mu.
func (s *OBPSession) transact(ctx context.Context, msgType uint32, data []byte, timeout time.Duration) (message, error) {
	if s.closed {
		return message{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return message{}, err
	}

	frame, err := message{Flags: flagAckRequested, Type: msgType, Data: data}.MarshalBinary()
	if err != nil {
		return message{}, err
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return message{}, fmt.Errorf("set read timeout: %w", err)
	}
	n, err := s.port.Write(frame)
	if err != nil {
		return message{}, err
	}
	if n != len(frame) {
		return message{}, fmt.Errorf("short write: %d of %d bytes", n, len(frame))
	}

	resp, err := readMessage(s.port)
	if err != nil {
		return message{}, err
	}
	monitoring.Debugf("obp 0x%08X -> flags=0x%04X errno=%d %d bytes", msgType, resp.Flags, resp.ErrNo, len(resp.Data))

	if resp.Type != msgType {
		return message{}, fmt.Errorf("%w: reply type 0x%08X for request 0x%08X", ErrProtocol, resp.Type, msgType)
	}
	if resp.Flags&flagNACK != 0 || resp.Flags&flagException != 0 {
		return message{}, fmt.Errorf("%w: message 0x%08X errno %d", ErrNACK, msgType, resp.ErrNo)
	}
	if resp.Flags&flagResponse == 0 {
		return message{}, fmt.Errorf("%w: reply to 0x%08X is not flagged as a response", ErrProtocol, msgType)
	}
	return resp, nil
}
