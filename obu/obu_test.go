// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_String(t *testing.T) {
	for _, test := range []struct {
		Type Type
		Str  string
	}{
		{OBUSequenceHeader, "OBU_SEQUENCE_HEADER"},
		{OBUTemporalDelimiter, "OBU_TEMPORAL_DELIMITER"},
		{OBUFrameHeader, "OBU_FRAME_HEADER"},
		{OBUTileGroup, "OBU_TILE_GROUP"},
		{OBUMetadata, "OBU_METADATA"},
		{OBUFrame, "OBU_FRAME"},
		{OBURedundantFrameHeader, "OBU_REDUNDANT_FRAME_HEADER"},
		{OBUTileList, "OBU_TILE_LIST"},
		{OBUPadding, "OBU_PADDING"},
		{Type(0), "OBU_RESERVED"},
		{Type(9), "OBU_RESERVED"},
		{Type(14), "OBU_RESERVED"},
	} {
		assert.Equal(t, test.Str, test.Type.String())
	}
}

func TestIsKnownType(t *testing.T) {
	for _, known := range []Type{
		OBUSequenceHeader, OBUTemporalDelimiter, OBUFrameHeader, OBUTileGroup,
		OBUMetadata, OBUFrame, OBURedundantFrameHeader, OBUTileList, OBUPadding,
	} {
		assert.True(t, isKnownType(known))
	}

	for _, reserved := range []Type{0, 9, 10, 11, 12, 13, 14} {
		assert.False(t, isKnownType(reserved))
	}
}
