package spectrometer

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
)

// Ocean Binary Protocol framing. Every message is a 44 byte header, an
// optional payload, a 16 byte checksum and a 4 byte footer. Data of up to 16
// bytes travels in the header's immediate field instead of the payload.
const (
	obpHeaderLen    = 44
	obpChecksumLen  = 16
	obpFooterLen    = 4
	obpImmediateLen = 16
	obpVersion      = 0x1100

	// largest response accepted: a 4096 pixel 16-bit spectrum with room to spare
	obpMaxRemaining = 1 << 16
)

var (
	obpStart  = [2]byte{0xC1, 0xC0}
	obpFooter = [4]byte{0xC5, 0xC4, 0xC3, 0xC2}
)

// Header flag bits.
const (
	flagResponse     uint16 = 0x0001
	flagACK          uint16 = 0x0002
	flagAckRequested uint16 = 0x0004
	flagNACK         uint16 = 0x0008
	flagException    uint16 = 0x0010
)

// Checksum types.
const (
	checksumNone uint8 = 0x00
	checksumMD5  uint8 = 0x01
)

// Message types used by the session.
const (
	msgGetSerialNumber uint32 = 0x00000100
	msgGetSpectrum     uint32 = 0x00101000
	msgSetIntegration  uint32 = 0x00110010
	msgGetWavecalCount uint32 = 0x00180100
	msgGetWavecalCoeff uint32 = 0x00180101
)

// message is one decoded OBP frame.
type message struct {
	Flags        uint16
	ErrNo        uint16
	Type         uint32
	Regarding    uint32
	ChecksumType uint8
	Data         []byte
}

// MarshalBinary encodes m as a complete frame.
func (m message) MarshalBinary() ([]byte, error) {
	var immediate, payload []byte
	if len(m.Data) <= obpImmediateLen {
		immediate = m.Data
	} else {
		payload = m.Data
	}
	remaining := len(payload) + obpChecksumLen + obpFooterLen
	if remaining > obpMaxRemaining {
		return nil, fmt.Errorf("message payload of %d bytes is too large", len(payload))
	}

	buf := make([]byte, obpHeaderLen, obpHeaderLen+remaining)
	copy(buf[0:2], obpStart[:])
	binary.LittleEndian.PutUint16(buf[2:4], obpVersion)
	binary.LittleEndian.PutUint16(buf[4:6], m.Flags)
	binary.LittleEndian.PutUint16(buf[6:8], m.ErrNo)
	binary.LittleEndian.PutUint32(buf[8:12], m.Type)
	binary.LittleEndian.PutUint32(buf[12:16], m.Regarding)
	// buf[16:22] reserved
	buf[22] = m.ChecksumType
	buf[23] = uint8(len(immediate))
	copy(buf[24:40], immediate)
	binary.LittleEndian.PutUint32(buf[40:44], uint32(remaining))
	buf = append(buf, payload...)

	var sum [obpChecksumLen]byte
	if m.ChecksumType == checksumMD5 {
		sum = md5.Sum(buf)
	}
	buf = append(buf, sum[:]...)
	buf = append(buf, obpFooter[:]...)
	return buf, nil
}

// readMessage reads and validates one frame from r.
func readMessage(r io.Reader) (message, error) {
	var hdr [obpHeaderLen]byte
	if err := readFull(r, hdr[:]); err != nil {
		return message{}, err
	}
	if hdr[0] != obpStart[0] || hdr[1] != obpStart[1] {
		return message{}, fmt.Errorf("%w: bad start bytes % X", ErrProtocol, hdr[0:2])
	}
	if v := binary.LittleEndian.Uint16(hdr[2:4]); v != obpVersion {
		return message{}, fmt.Errorf("%w: unsupported protocol version 0x%04X", ErrProtocol, v)
	}

	m := message{
		Flags:        binary.LittleEndian.Uint16(hdr[4:6]),
		ErrNo:        binary.LittleEndian.Uint16(hdr[6:8]),
		Type:         binary.LittleEndian.Uint32(hdr[8:12]),
		Regarding:    binary.LittleEndian.Uint32(hdr[12:16]),
		ChecksumType: hdr[22],
	}
	immLen := int(hdr[23])
	if immLen > obpImmediateLen {
		return message{}, fmt.Errorf("%w: immediate length %d", ErrProtocol, immLen)
	}
	remaining := int(binary.LittleEndian.Uint32(hdr[40:44]))
	if remaining < obpChecksumLen+obpFooterLen || remaining > obpMaxRemaining {
		return message{}, fmt.Errorf("%w: bytes remaining %d", ErrProtocol, remaining)
	}

	rest := make([]byte, remaining)
	if err := readFull(r, rest); err != nil {
		return message{}, err
	}
	payloadLen := remaining - obpChecksumLen - obpFooterLen
	payload := rest[:payloadLen]
	sum := rest[payloadLen : payloadLen+obpChecksumLen]
	if !bytes.Equal(rest[payloadLen+obpChecksumLen:], obpFooter[:]) {
		return message{}, fmt.Errorf("%w: bad footer % X", ErrProtocol, rest[payloadLen+obpChecksumLen:])
	}

	switch m.ChecksumType {
	case checksumNone:
	case checksumMD5:
		h := md5.New()
		h.Write(hdr[:])
		h.Write(payload)
		if !bytes.Equal(h.Sum(nil), sum) {
			return message{}, fmt.Errorf("%w: checksum mismatch on message 0x%08X", ErrProtocol, m.Type)
		}
	default:
		return message{}, fmt.Errorf("%w: unknown checksum type %d", ErrProtocol, m.ChecksumType)
	}

	if payloadLen > 0 {
		m.Data = payload
	} else if immLen > 0 {
		m.Data = append([]byte(nil), hdr[24:24+immLen]...)
	}
	return m, nil
}

// readFull is io.ReadFull for ports whose Read returns 0, nil on timeout.
func readFull(r io.Reader, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if n == len(buf) {
			return nil
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if m == 0 {
			return fmt.Errorf("%w after %d of %d bytes", ErrReadTimeout, n, len(buf))
		}
	}
	return nil
}
