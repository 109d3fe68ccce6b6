// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata_HDRCLL(t *testing.T) {
	buf := append(EncodeLEB128(uint64(MetadataTypeHDRCLL)), 0x01, 0x00, 0x01, 0x40)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	assert.Equal(t, MetadataTypeHDRCLL, md.Type)
	require.NotNil(t, md.HDRCLL)
	assert.Equal(t, uint16(0x0100), md.HDRCLL.MaxCLL)
	assert.Equal(t, uint16(0x0140), md.HDRCLL.MaxFALL)
}

func TestParseMetadata_HDRMDCV(t *testing.T) {
	w := &testBitWriter{}
	for i := 0; i < 3; i++ {
		w.writeBits(uint64(100+i), 16) // primary_chromaticity_x[i]
		w.writeBits(uint64(200+i), 16) // primary_chromaticity_y[i]
	}
	w.writeBits(300, 16) // white_point_chromaticity_x
	w.writeBits(400, 16) // white_point_chromaticity_y
	w.writeBits(50000, 32) // luminance_max
	w.writeBits(1, 32)     // luminance_min

	buf := append(EncodeLEB128(uint64(MetadataTypeHDRMDCV)), w.bytes()...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	require.NotNil(t, md.HDRMDCV)
	assert.Equal(t, [3]uint16{100, 101, 102}, md.HDRMDCV.PrimaryChromaticityX)
	assert.Equal(t, [3]uint16{200, 201, 202}, md.HDRMDCV.PrimaryChromaticityY)
	assert.Equal(t, uint16(300), md.HDRMDCV.WhitePointChromaticityX)
	assert.Equal(t, uint16(400), md.HDRMDCV.WhitePointChromaticityY)
	assert.Equal(t, uint32(50000), md.HDRMDCV.LuminanceMax)
	assert.Equal(t, uint32(1), md.HDRMDCV.LuminanceMin)
}

func TestParseMetadata_ITUT35(t *testing.T) {
	payload := []byte{0x10, 0x11, 0x12, 0x13}
	buf := append(EncodeLEB128(uint64(MetadataTypeITUT35)), 0xFF, 0x01)
	buf = append(buf, payload...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	require.NotNil(t, md.ITUT35)
	assert.Equal(t, uint8(0xFF), md.ITUT35.CountryCode)
	assert.Equal(t, uint8(0x01), md.ITUT35.CountryCodeExtensionByte)
	assert.Equal(t, payload, md.ITUT35.Payload)
}

func TestParseMetadata_ITUT35_NoExtensionByte(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	buf := append(EncodeLEB128(uint64(MetadataTypeITUT35)), 0x20)
	buf = append(buf, payload...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x20), md.ITUT35.CountryCode)
	assert.Equal(t, payload, md.ITUT35.Payload)
}

func TestParseMetadata_Scalability_NoStructure(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(0, 8) // scalability_mode_idc == 0: no nested structure
	buf := append(EncodeLEB128(uint64(MetadataTypeScalability)), w.bytes()...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	require.NotNil(t, md.Scalability)
	assert.Equal(t, uint8(0), md.Scalability.ScalabilityModeIdc)
	assert.Nil(t, md.Scalability.Structure)
}

func TestParseMetadata_Scalability_WithStructure(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(1, 8) // scalability_mode_idc != 0
	w.writeBits(1, 2) // spatial_layers_cnt_minus_1 -> 2 layers, but the loop bound is the count itself
	w.writeFlag(true)  // spatial_layer_dimensions_present_flag
	w.writeFlag(false) // spatial_layer_description_present_flag
	w.writeFlag(false) // temporal_group_description_present_flag
	w.writeBits(0, 3)  // scalability_structure_reserved_3bits

	// Loop bound is spatial_layers_cnt_minus_1 (1), not +1, so exactly one
	// layer's dimensions are read.
	w.writeBits(640, 16)
	w.writeBits(480, 16)

	buf := append(EncodeLEB128(uint64(MetadataTypeScalability)), w.bytes()...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	require.NotNil(t, md.Scalability.Structure)
	s := md.Scalability.Structure
	assert.Equal(t, uint8(1), s.SpatialLayersCntMinus1)
	require.Len(t, s.SpatialLayerMaxWidth, 1)
	assert.Equal(t, uint16(640), s.SpatialLayerMaxWidth[0])
	assert.Equal(t, uint16(480), s.SpatialLayerMaxHeight[0])
}

func TestParseMetadata_Scalability_SpatialLayersOverflow(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(1, 8) // scalability_mode_idc != 0
	w.writeBits(3, 2) // spatial_layers_cnt_minus_1 = 3 -> 4 layers, exceeds maxSpatialLayers(3)

	buf := append(EncodeLEB128(uint64(MetadataTypeScalability)), w.bytes()...)

	_, err := ParseMetadata(buf)
	assert.ErrorIs(t, err, ErrMetadataOverflow)
}

func TestParseMetadata_Timecode(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(4, 5)   // counting_type
	w.writeFlag(true)   // full_timestamp_flag
	w.writeFlag(false)  // discontinuity_flag
	w.writeFlag(false)  // cnt_dropped_flag
	w.writeBits(10, 9)  // n_frames
	w.writeBits(30, 6)  // seconds_value
	w.writeBits(45, 6)  // minutes_value
	w.writeBits(12, 5)  // hours_value
	w.writeBits(0, 5)   // time_offset_length == 0: no time_offset_value

	buf := append(EncodeLEB128(uint64(MetadataTypeTimecode)), w.bytes()...)

	md, err := ParseMetadata(buf)
	require.NoError(t, err)
	require.NotNil(t, md.Timecode)
	tc := md.Timecode
	assert.Equal(t, uint8(4), tc.CountingType)
	assert.True(t, tc.FullTimestampFlag)
	assert.Equal(t, uint16(10), tc.NFrames)
	assert.Equal(t, uint8(30), tc.SecondsValue)
	assert.Equal(t, uint8(45), tc.MinutesValue)
	assert.Equal(t, uint8(12), tc.HoursValue)
	assert.Equal(t, uint8(0), tc.TimeOffsetLength)
}

func TestParseMetadata_Unregistered(t *testing.T) {
	for _, typ := range []uint64{6, 20, 31} {
		payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		buf := append(EncodeLEB128(typ), payload...)

		md, err := ParseMetadata(buf)
		require.NoError(t, err)
		assert.Equal(t, MetadataTypeUnregistered, md.Type)
		assert.Equal(t, payload, md.Unregistered)
	}
}

func TestParseMetadata_InvalidType(t *testing.T) {
	for _, typ := range []uint64{0, 32, 100} {
		buf := EncodeLEB128(typ)
		_, err := ParseMetadata(buf)
		assert.ErrorIs(t, err, ErrInvalidMetadataType)
	}
}

func TestParseMetadata_Truncated(t *testing.T) {
	buf := EncodeLEB128(uint64(MetadataTypeHDRCLL))
	_, err := ParseMetadata(buf)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

func TestMetadataType_String(t *testing.T) {
	assert.Equal(t, "hdr_cll", MetadataTypeHDRCLL.String())
	assert.Equal(t, "unregistered", MetadataTypeUnregistered.String())
}
