package spectrometer

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPort is an in-memory Port. Each frame written to it is decoded and
// passed to handler; the frames the handler returns become readable.
type scriptedPort struct {
	mu       sync.Mutex
	in       bytes.Buffer
	handler  func(req message) []message
	requests []message
	timeouts []time.Duration
	closed   bool
	// stall makes Read behave like a serial port whose read timed out.
	stall bool
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	req, err := readMessage(bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	p.requests = append(p.requests, req)
	if p.handler != nil {
		for _, resp := range p.handler(req) {
			frame, err := resp.MarshalBinary()
			if err != nil {
				return 0, err
			}
			p.in.Write(frame)
		}
	}
	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.in.Len() == 0 && p.stall {
		return 0, nil
	}
	return p.in.Read(b)
}

func (p *scriptedPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeouts = append(p.timeouts, t)
	return nil
}

func (p *scriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// deviceHandler emulates a spectrometer with a fixed spectrum and
// calibration polynomial.
func deviceHandler(pixels []uint16, coeffs []float32) func(message) []message {
	return func(req message) []message {
		resp := message{Flags: flagResponse | flagACK, Type: req.Type, ChecksumType: checksumMD5}
		switch req.Type {
		case msgSetIntegration:
		case msgGetSpectrum:
			resp.Data = make([]byte, 2*len(pixels))
			for i, v := range pixels {
				binary.LittleEndian.PutUint16(resp.Data[2*i:], v)
			}
		case msgGetWavecalCount:
			resp.Data = []byte{uint8(len(coeffs))}
		case msgGetWavecalCoeff:
			resp.Data = make([]byte, 4)
			binary.LittleEndian.PutUint32(resp.Data, math.Float32bits(coeffs[req.Data[0]]))
		case msgGetSerialNumber:
			resp.Data = []byte("STS01234\x00\x00")
		default:
			resp.Flags = flagResponse | flagNACK
			resp.ErrNo = 1
		}
		return []message{resp}
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  message
	}{
		{"empty", message{Flags: flagAckRequested, Type: msgGetSpectrum}},
		{"immediate", message{Flags: flagResponse, Type: msgSetIntegration, Data: []byte{0x20, 0xA1, 0x07, 0x00}}},
		{"full immediate", message{Type: msgGetSerialNumber, Data: bytes.Repeat([]byte{7}, 16)}},
		{"payload", message{Flags: flagResponse, Type: msgGetSpectrum, Data: bytes.Repeat([]byte{1, 2, 3}, 100)}},
		{"md5 payload", message{Type: msgGetSpectrum, ChecksumType: checksumMD5, Data: bytes.Repeat([]byte{9, 8}, 40)}},
		{"md5 immediate", message{Type: msgGetWavecalCount, ChecksumType: checksumMD5, ErrNo: 3, Regarding: 77, Data: []byte{4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := tt.msg.MarshalBinary()
			require.NoError(t, err)

			payload := 0
			if len(tt.msg.Data) > obpImmediateLen {
				payload = len(tt.msg.Data)
			}
			assert.Len(t, frame, obpHeaderLen+payload+obpChecksumLen+obpFooterLen)
			assert.Equal(t, []byte{0xC1, 0xC0}, frame[:2])
			assert.Equal(t, []byte{0xC5, 0xC4, 0xC3, 0xC2}, frame[len(frame)-4:])

			got, err := readMessage(bytes.NewReader(frame))
			require.NoError(t, err)
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestMessage_SetIntegrationLayout(t *testing.T) {
	frame, err := message{Flags: flagAckRequested, Type: msgSetIntegration, Data: []byte{1, 2, 3, 4}}.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, frame, 64)

	assert.Equal(t, uint16(0x1100), binary.LittleEndian.Uint16(frame[2:4]))
	assert.Equal(t, flagAckRequested, binary.LittleEndian.Uint16(frame[4:6]))
	assert.Equal(t, msgSetIntegration, binary.LittleEndian.Uint32(frame[8:12]))
	assert.Equal(t, uint8(4), frame[23])
	assert.Equal(t, []byte{1, 2, 3, 4}, frame[24:28])
	assert.Equal(t, uint32(20), binary.LittleEndian.Uint32(frame[40:44]))
}

func TestReadMessage_Corrupt(t *testing.T) {
	good, err := message{Type: msgGetSpectrum, ChecksumType: checksumMD5, Data: bytes.Repeat([]byte{5}, 32)}.MarshalBinary()
	require.NoError(t, err)

	corrupt := func(f func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}

	tests := []struct {
		name  string
		frame []byte
	}{
		{"start bytes", corrupt(func(b []byte) { b[0] = 0 })},
		{"version", corrupt(func(b []byte) { b[2] = 0x12 })},
		{"footer", corrupt(func(b []byte) { b[len(b)-1] = 0 })},
		{"checksum", corrupt(func(b []byte) { b[obpHeaderLen] ^= 0xFF })},
		{"checksum type", corrupt(func(b []byte) { b[22] = 9 })},
		{"immediate length", corrupt(func(b []byte) { b[23] = 17 })},
		{"remaining too small", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[40:44], 3) })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readMessage(bytes.NewReader(tt.frame))
			assert.ErrorIs(t, err, ErrProtocol)
		})
	}
}

func TestReadMessage_Truncated(t *testing.T) {
	frame, err := message{Type: msgGetSpectrum, Data: bytes.Repeat([]byte{5}, 32)}.MarshalBinary()
	require.NoError(t, err)

	_, err = readMessage(bytes.NewReader(frame[:50]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = readMessage(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFull_Timeout(t *testing.T) {
	p := &scriptedPort{stall: true}
	p.in.Write([]byte{1, 2, 3})

	buf := make([]byte, 8)
	err := readFull(p, buf)
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Contains(t, err.Error(), "3 of 8")
}
