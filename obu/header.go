// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import "fmt"

// Bit layout of the first OBU header byte (MSB to LSB):
//
//	forbidden(1) | obu_type(4) | extension_flag(1) | has_size_field(1) | reserved(1)
const (
	forbiddenBitMask  = 0b1000_0000
	typeMask          = 0b0111_1000
	typeShift         = 3
	extensionFlagMask = 0b0000_0100
	hasSizeFlagMask   = 0b0000_0010
	reserved1BitMask  = 0b0000_0001
)

// Bit layout of the optional extension header byte:
//
//	temporal_id(3) | spatial_id(2) | reserved(3)
const (
	temporalIDShift  = 5
	temporalIDMask   = 0b0000_0111
	spatialIDShift   = 3
	spatialIDMask    = 0b0000_0011
	reserved3BitMask = 0b0000_0111
)

// ExtensionHeader is the optional second byte of an OBU header, present
// when the header's extension_flag bit is set.
type ExtensionHeader struct {
	TemporalID    uint8
	SpatialID     uint8
	Reserved3Bits uint8
}

// Marshal encodes e into its single-byte wire form. Fields wider than their
// bitfield are silently truncated to their low bits.
func (e ExtensionHeader) Marshal() byte {
	return (e.TemporalID&temporalIDMask)<<temporalIDShift |
		(e.SpatialID&spatialIDMask)<<spatialIDShift |
		e.Reserved3Bits&reserved3BitMask
}

// Header is a parsed OBU header: its type and flags, plus the extension
// header when present. The forbidden bit and the trailing reserved bit are
// not validated here: the forbidden bit is not read at all, and the
// reserved bit is only recorded in Reserved1Bit.
type Header struct {
	Type            Type
	HasSizeField    bool
	Reserved1Bit    bool
	ExtensionHeader *ExtensionHeader
}

// Size returns the number of bytes the header occupies on the wire: 1, or
// 2 if an extension header is present.
func (h *Header) Size() int {
	if h.ExtensionHeader != nil {
		return 2
	}
	return 1
}

// Marshal encodes h into its wire form.
func (h *Header) Marshal() []byte {
	data := make([]byte, h.Size())
	data[0] = byte(h.Type) << typeShift & typeMask
	if h.HasSizeField {
		data[0] |= hasSizeFlagMask
	}
	if h.Reserved1Bit {
		data[0] |= reserved1BitMask
	}
	if h.ExtensionHeader != nil {
		data[0] |= extensionFlagMask
		data[1] = h.ExtensionHeader.Marshal()
	}
	return data
}

// ParseOBUHeader decomposes the first one or two bytes of buf into a Header.
// It performs no validation of the obu_type field against the set of known
// OBU types; callers that need that check (as NextOBU does) apply it
// themselves once the header has been read.
func ParseOBUHeader(buf []byte) (*Header, error) {
	if len(buf) < 1 {
		return nil, ErrShortHeader
	}

	b0 := buf[0]
	h := &Header{
		Type:         Type((b0 & typeMask) >> typeShift),
		HasSizeField: b0&hasSizeFlagMask != 0,
		Reserved1Bit: b0&reserved1BitMask != 0,
	}

	if b0&extensionFlagMask != 0 {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: missing extension byte", ErrShortHeader)
		}
		b1 := buf[1]
		h.ExtensionHeader = &ExtensionHeader{
			TemporalID: (b1 >> temporalIDShift) & temporalIDMask,
			SpatialID:  (b1 >> spatialIDShift) & spatialIDMask,
		}
	}

	return h, nil
}

// NextOBU locates the next OBU in buf and returns its header fields and
// payload extent, per the AV1 specification's low-overhead bitstream
// format. It is the entry point referred to as get_next_obu in the AV1
// reference implementation: it reads the header, the optional extension
// byte, and the optional LEB128 size field, and returns where the payload
// begins and how long it is. The payload itself is not inspected; dispatch
// to ParseSequenceHeader or ParseMetadata based on the returned Type.
func NextOBU(buf []byte) (Frame, error) {
	if len(buf) < 1 {
		return Frame{}, fmt.Errorf("%w: buffer too small to contain an OBU", ErrTruncatedInput)
	}

	header, err := ParseOBUHeader(buf)
	if err != nil {
		return Frame{}, err
	}

	if !isKnownType(header.Type) {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidOBUType, header.Type)
	}

	pos := header.Size()

	var frame Frame
	frame.Type = header.Type
	if header.ExtensionHeader != nil {
		frame.TemporalID = header.ExtensionHeader.TemporalID
		frame.SpatialID = header.ExtensionHeader.SpatialID
	}

	if header.HasSizeField {
		value, consumed, err := ReadLEB128(buf[pos:])
		if err != nil {
			return Frame{}, fmt.Errorf("failed to read OBU size: %w", err)
		}
		if value > 0xFFFFFFFF {
			return Frame{}, fmt.Errorf("%w: obu_size exceeds 32 bits", ErrInvalidSize)
		}
		frame.Offset = pos + consumed
		frame.Size = int(value)
	} else {
		frame.Offset = pos
		frame.Size = len(buf) - pos
	}

	if frame.Size > len(buf)-frame.Offset {
		return Frame{}, ErrInvalidSize
	}

	return frame, nil
}
