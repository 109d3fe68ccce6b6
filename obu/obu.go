// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package obu decomposes an AV1 bitstream into typed Open Bitstream Unit
// records: it reads OBU framing, the Sequence Header payload, and the
// Metadata payload (and its five sub-types) straight off the wire.
//
// The package is a stateless, per-call decomposer. It never carries state
// between OBUs, never decodes image data, and never allocates for payload
// bytes: the ITU-T T.35 and unregistered metadata payloads it returns are
// sub-slices of the caller's own buffer and are only valid as long as that
// buffer is.
package obu

// Type identifies an Open Bitstream Unit's kind, from the 4-bit obu_type
// field of the OBU header.
type Type uint8

// OBU types, per the AV1 bitstream specification section 6.2.2.
const (
	// OBUSequenceHeader carries a Sequence Header payload.
	OBUSequenceHeader Type = 1
	// OBUTemporalDelimiter marks a new temporal unit; it carries no payload.
	OBUTemporalDelimiter Type = 2
	// OBUFrameHeader carries a Frame Header payload. Not parsed by this package.
	OBUFrameHeader Type = 3
	// OBUTileGroup carries a Tile Group payload. Not parsed by this package.
	OBUTileGroup Type = 4
	// OBUMetadata carries a Metadata payload.
	OBUMetadata Type = 5
	// OBUFrame carries a combined Frame Header and Tile Group. Not parsed by this package.
	OBUFrame Type = 6
	// OBURedundantFrameHeader carries a redundant copy of a Frame Header. Not parsed by this package.
	OBURedundantFrameHeader Type = 7
	// OBUTileList carries a Tile List payload. Not parsed by this package.
	OBUTileList Type = 8
	// OBUPadding carries no semantic payload; its bytes may be ignored.
	OBUPadding Type = 15
)

// String implements fmt.Stringer. Reserved and unknown type values (0 and
// 9-14) all render as "OBU_RESERVED", matching the AV1 specification's
// treatment of those codepoints as a single reserved category.
func (t Type) String() string {
	switch t {
	case OBUSequenceHeader:
		return "OBU_SEQUENCE_HEADER"
	case OBUTemporalDelimiter:
		return "OBU_TEMPORAL_DELIMITER"
	case OBUFrameHeader:
		return "OBU_FRAME_HEADER"
	case OBUTileGroup:
		return "OBU_TILE_GROUP"
	case OBUMetadata:
		return "OBU_METADATA"
	case OBUFrame:
		return "OBU_FRAME"
	case OBURedundantFrameHeader:
		return "OBU_REDUNDANT_FRAME_HEADER"
	case OBUTileList:
		return "OBU_TILE_LIST"
	case OBUPadding:
		return "OBU_PADDING"
	default:
		return "OBU_RESERVED"
	}
}

// isKnownType reports whether t is one of the OBU types defined by the AV1
// specification; 0 and 9-14 are reserved and rejected by NextOBU.
func isKnownType(t Type) bool {
	switch t {
	case OBUSequenceHeader, OBUTemporalDelimiter, OBUFrameHeader, OBUTileGroup,
		OBUMetadata, OBUFrame, OBURedundantFrameHeader, OBUTileList, OBUPadding:
		return true
	default:
		return false
	}
}

// Frame is the result of locating one OBU within an input buffer: its type,
// scalability identifiers, and the byte range of its payload, relative to
// the start of the buffer passed to NextOBU.
type Frame struct {
	Type Type

	// TemporalID and SpatialID are the scalability indices carried in the
	// OBU extension header, or 0 if the OBU has no extension header.
	TemporalID uint8
	SpatialID  uint8

	// Offset is the byte offset, from the start of the input buffer, at
	// which the payload (i.e. everything after the header, extension, and
	// size field) begins.
	Offset int

	// Size is the payload length in bytes. Offset+Size never exceeds the
	// length of the buffer passed to NextOBU.
	Size int
}
