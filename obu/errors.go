// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import "errors"

// Sentinel errors returned by this package. Wrap with fmt.Errorf("...: %w", ...)
// for context; callers should match with errors.Is.
var (
	// ErrTruncatedInput is returned when a bit read or a LEB128 read would
	// consume more bytes than remain in the buffer.
	ErrTruncatedInput = errors.New("obu: ran out of bytes in buffer")

	// ErrInvalidOBUType is returned when an OBU header carries a reserved
	// obu_type value (0, or 9 through 14).
	ErrInvalidOBUType = errors.New("obu: invalid OBU type")

	// ErrInvalidSize is returned when an OBU's LEB128-decoded size would
	// extend past the end of the input buffer.
	ErrInvalidSize = errors.New("obu: invalid OBU size: larger than remaining buffer")

	// ErrInvalidVLC is returned when a uvlc-encoded value has 32 leading
	// zero bits, which the AV1 specification treats as an invalid stream.
	ErrInvalidVLC = errors.New("obu: invalid uvlc: 32 leading zero bits")

	// ErrInvalidMetadataType is returned when a Metadata OBU's LEB128 type
	// field is 0 or 32 or greater.
	ErrInvalidMetadataType = errors.New("obu: invalid metadata type")

	// ErrMetadataOverflow is returned when a scalability structure's
	// spatial-layer count, temporal-group size, or per-entry reference
	// count would exceed this package's fixed capacity for that field.
	ErrMetadataOverflow = errors.New("obu: metadata field exceeds maximum capacity")

	// ErrShortHeader is returned when the buffer ends before a complete
	// OBU header (and, if present, its extension byte) can be read.
	ErrShortHeader = errors.New("obu: buffer too short for OBU header")
)
