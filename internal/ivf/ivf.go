// Package ivf reads the IVF container format used by the AV1 reference
// tooling to wrap a raw OBU bitstream for on-disk storage: a 32-byte file
// header followed by a sequence of frames, each a 12-byte chunk header
// (4-byte little-endian payload size, 8-byte presentation timestamp)
// immediately followed by that many bytes of payload.
//
// This package exists only to drive obudump; it is not part of the OBU
// parsing surface itself.
package ivf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrBadHeader is returned when a file's global header is too short or does
// not carry the "DKIF" signature.
var ErrBadHeader = errors.New("ivf: not an IVF file")

const (
	fileHeaderSize  = 32
	frameHeaderSize = 12
)

// Header is the IVF file header.
type Header struct {
	Version    uint16
	FourCC     [4]byte
	Width      uint16
	Height     uint16
	FrameRate  uint32
	TimeScale  uint32
	FrameCount uint32
}

// Frame is a single decoded frame chunk: its presentation timestamp and its
// payload bytes, which are themselves a concatenation of one or more OBUs.
type Frame struct {
	Timestamp uint64
	Payload   []byte
}

// Reader walks the frames of an IVF stream in order.
type Reader struct {
	r      io.Reader
	Header Header
}

// NewReader reads and validates the IVF file header from r and returns a
// Reader positioned at the first frame.
func NewReader(r io.Reader) (*Reader, error) {
	var raw [fileHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	if string(raw[0:4]) != "DKIF" {
		return nil, ErrBadHeader
	}

	h := Header{
		Version:    binary.LittleEndian.Uint16(raw[4:6]),
		Width:      binary.LittleEndian.Uint16(raw[12:14]),
		Height:     binary.LittleEndian.Uint16(raw[14:16]),
		FrameRate:  binary.LittleEndian.Uint32(raw[16:20]),
		TimeScale:  binary.LittleEndian.Uint32(raw[20:24]),
		FrameCount: binary.LittleEndian.Uint32(raw[24:28]),
	}
	copy(h.FourCC[:], raw[8:12])

	return &Reader{r: r, Header: h}, nil
}

// ReadFrame reads the next frame chunk. It returns io.EOF, unwrapped, once
// the stream is exhausted at a frame boundary.
func (r *Reader) ReadFrame() (Frame, error) {
	var raw [frameHeaderSize]byte
	if _, err := io.ReadFull(r.r, raw[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("ivf: reading frame header: %w", err)
	}

	size := binary.LittleEndian.Uint32(raw[0:4])
	ts := binary.LittleEndian.Uint64(raw[4:12])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return Frame{}, fmt.Errorf("ivf: reading %d-byte frame payload: %w", size, err)
	}

	return Frame{Timestamp: ts, Payload: payload}, nil
}
