package spectrometer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/spectro/internal/timeutil"
)

// FakeSession is an in-memory Session that replays recorded raw frames. Each
// read waits the configured integration time on its clock, so captures with
// a real clock take as long as they would on hardware.
type FakeSession struct {
	mu          sync.Mutex
	clock       timeutil.Clock
	frames      [][]float64
	wavelengths []float64
	next        int
	closed      bool

	integrationMicros int64
	integrationCalls  []int64
	reads             int
	readErr           error
}

// NewFakeSession returns a session whose reads cycle through frames. Every
// frame and the wavelength table are raw device readings (channel 0
// included) and must share one length.
func NewFakeSession(wavelengths []float64, frames ...[]float64) *FakeSession {
	f := &FakeSession{
		clock:       timeutil.NewMockClock(time.Time{}),
		wavelengths: append([]float64(nil), wavelengths...),
	}
	for _, fr := range frames {
		f.frames = append(f.frames, append([]float64(nil), fr...))
	}
	return f
}

// WithClock sets the clock used to simulate exposures.
func (f *FakeSession) WithClock(c timeutil.Clock) *FakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = c
	return f
}

// FailNextRead makes the next Intensities call return err.
func (f *FakeSession) FailNextRead(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

// SetIntegrationTime implements Session.
func (f *FakeSession) SetIntegrationTime(micros int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if micros <= 0 {
		return fmt.Errorf("integration time %dus out of range", micros)
	}
	f.integrationMicros = micros
	f.integrationCalls = append(f.integrationCalls, micros)
	return nil
}

// Intensities implements Session.
func (f *FakeSession) Intensities(ctx context.Context) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if f.readErr != nil {
		err := f.readErr
		f.readErr = nil
		return nil, err
	}
	if len(f.frames) == 0 {
		return nil, fmt.Errorf("%w: fake session has no frames", ErrProtocol)
	}
	if err := f.clock.Sleep(ctx, time.Duration(f.integrationMicros)*time.Microsecond); err != nil {
		return nil, err
	}

	frame := f.frames[f.next%len(f.frames)]
	f.next++
	f.reads++
	return append([]float64(nil), frame...), nil
}

// Wavelengths implements Session.
func (f *FakeSession) Wavelengths(context.Context) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	return append([]float64(nil), f.wavelengths...), nil
}

// Close implements Session.
func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// IntegrationTime returns the current integration time in microseconds.
func (f *FakeSession) IntegrationTime() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.integrationMicros
}

// IntegrationCalls returns every value passed to SetIntegrationTime.
func (f *FakeSession) IntegrationCalls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.integrationCalls...)
}

// Reads returns the number of successful Intensities calls.
func (f *FakeSession) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *FakeSession) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
