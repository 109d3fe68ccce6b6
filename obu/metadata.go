// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import (
	"fmt"
	"math"
)

// MetadataType identifies which of the Metadata OBU's sub-types a Metadata
// record carries, from the metadata_type LEB128 field.
type MetadataType uint64

// Registered metadata types, AV1 specification section 6.7.1. Values 6-31
// are "unregistered user private" and are all surfaced as
// MetadataTypeUnregistered; 0 and 32+ are invalid.
const (
	MetadataTypeHDRCLL       MetadataType = 1
	MetadataTypeHDRMDCV      MetadataType = 2
	MetadataTypeScalability  MetadataType = 3
	MetadataTypeITUT35       MetadataType = 4
	MetadataTypeTimecode     MetadataType = 5
	MetadataTypeUnregistered MetadataType = 6 // sentinel; any value 6-31 collapses to this
)

const (
	unregisteredRangeStart = 6
	unregisteredRangeEnd   = 31 // inclusive
)

// String returns a short name for known metadata types, and
// "unregistered" for the MetadataTypeUnregistered sentinel.
func (t MetadataType) String() string {
	switch t {
	case MetadataTypeHDRCLL:
		return "hdr_cll"
	case MetadataTypeHDRMDCV:
		return "hdr_mdcv"
	case MetadataTypeScalability:
		return "scalability"
	case MetadataTypeITUT35:
		return "itut_t35"
	case MetadataTypeTimecode:
		return "timecode"
	case MetadataTypeUnregistered:
		return "unregistered"
	default:
		return fmt.Sprintf("metadata_type(%d)", uint64(t))
	}
}

const (
	maxSpatialLayers      = 3
	maxTemporalGroupSize  = 256
	maxRefPicDiffPerEntry = 8
)

// MetadataHDRCLL is the metadata_hdr_cll() payload: MaxCLL/MaxFALL, AV1
// specification section 6.7.3.
type MetadataHDRCLL struct {
	MaxCLL  uint16
	MaxFALL uint16
}

// MetadataHDRMDCV is the metadata_hdr_mdcv() payload, AV1 specification
// section 6.7.4.
type MetadataHDRMDCV struct {
	PrimaryChromaticityX    [3]uint16
	PrimaryChromaticityY    [3]uint16
	WhitePointChromaticityX uint16
	WhitePointChromaticityY uint16
	LuminanceMax            uint32
	LuminanceMin            uint32
}

// TemporalGroupEntry is one entry of a scalability structure's temporal
// group description, AV1 specification section 6.7.5.
type TemporalGroupEntry struct {
	TemporalID                   uint8
	TemporalSwitchingUpPointFlag bool
	SpatialSwitchingUpPointFlag  bool
	RefPicDiff                   []uint8 // length == ref count for this entry, capped at maxRefPicDiffPerEntry
}

// ScalabilityStructure is the scalability_structure() payload nested in
// MetadataScalability when scalability_mode_idc is nonzero.
type ScalabilityStructure struct {
	SpatialLayersCntMinus1          uint8
	SpatialLayerDimensionsPresent   bool
	SpatialLayerDescriptionPresent  bool
	TemporalGroupDescriptionPresent bool

	SpatialLayerMaxWidth  []uint16 // length spatial_layers_cnt_minus_1, see design note below
	SpatialLayerMaxHeight []uint16
	SpatialLayerRefID     []uint8

	TemporalGroupSize    uint8
	TemporalGroupEntries []TemporalGroupEntry
}

// MetadataScalability is the metadata_scalability() payload, AV1
// specification section 6.7.5.
type MetadataScalability struct {
	ScalabilityModeIdc uint8
	Structure          *ScalabilityStructure // nil when ScalabilityModeIdc == 0
}

// MetadataITUT35 is the metadata_itut_t35() payload, AV1 specification
// section 6.7.2. Payload is a sub-slice of the buffer passed to
// ParseMetadata: it is only valid as long as that buffer is.
type MetadataITUT35 struct {
	CountryCode              uint8
	CountryCodeExtensionByte uint8 // only meaningful if CountryCode == 0xFF
	Payload                  []byte
}

// MetadataTimecode is the metadata_timecode() payload, AV1 specification
// section 6.7.6.
type MetadataTimecode struct {
	CountingType      uint8
	FullTimestampFlag bool
	DiscontinuityFlag bool
	CntDroppedFlag    bool
	NFrames           uint16
	SecondsValue      uint8
	MinutesValue      uint8
	HoursValue        uint8
	SecondsFlag       bool
	MinutesFlag       bool
	HoursFlag         bool
	TimeOffsetLength  uint8
	TimeOffsetValue   uint32
}

// Metadata is the fully parsed result of a Metadata OBU: the metadata type
// plus exactly one populated sub-payload. Unlike the C reference API this
// package draws on, the Go rendering keeps only the variant matching
// MetadataType populated (the others are left at their zero value) rather
// than a flat struct carrying all five sub-payloads at once.
type Metadata struct {
	Type MetadataType

	HDRCLL       *MetadataHDRCLL
	HDRMDCV      *MetadataHDRMDCV
	Scalability  *MetadataScalability
	ITUT35       *MetadataITUT35
	Timecode     *MetadataTimecode
	Unregistered []byte // sub-slice of the input buffer, for types 6-31
}

// ParseMetadata parses a Metadata OBU payload. buf must be exactly the
// payload bytes, as returned via the Frame from NextOBU for an OBU of type
// OBUMetadata.
func ParseMetadata(buf []byte) (*Metadata, error) {
	rawType, consumed, err := ReadLEB128(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata_type: %w", err)
	}

	rest := buf[consumed:]
	md := &Metadata{}

	switch {
	case rawType == uint64(MetadataTypeHDRCLL):
		md.Type = MetadataTypeHDRCLL
		md.HDRCLL, err = parseHDRCLL(rest)
	case rawType == uint64(MetadataTypeHDRMDCV):
		md.Type = MetadataTypeHDRMDCV
		md.HDRMDCV, err = parseHDRMDCV(rest)
	case rawType == uint64(MetadataTypeScalability):
		md.Type = MetadataTypeScalability
		md.Scalability, err = parseScalability(rest)
	case rawType == uint64(MetadataTypeITUT35):
		md.Type = MetadataTypeITUT35
		md.ITUT35, err = parseITUT35(rest)
	case rawType == uint64(MetadataTypeTimecode):
		md.Type = MetadataTypeTimecode
		md.Timecode, err = parseTimecode(rest)
	case rawType >= unregisteredRangeStart && rawType <= unregisteredRangeEnd:
		md.Type = MetadataTypeUnregistered
		md.Unregistered = rest
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMetadataType, rawType)
	}

	if err != nil {
		return nil, err
	}

	return md, nil
}

func parseHDRCLL(buf []byte) (*MetadataHDRCLL, error) {
	r := NewBitReader(buf)

	maxCLL, err := r.Read(16)
	if err != nil {
		return nil, err
	}
	maxFALL, err := r.Read(16)
	if err != nil {
		return nil, err
	}

	return &MetadataHDRCLL{MaxCLL: uint16(maxCLL), MaxFALL: uint16(maxFALL)}, nil
}

func parseHDRMDCV(buf []byte) (*MetadataHDRMDCV, error) {
	r := NewBitReader(buf)
	md := &MetadataHDRMDCV{}

	for i := 0; i < 3; i++ {
		x, err := r.Read(16)
		if err != nil {
			return nil, err
		}
		y, err := r.Read(16)
		if err != nil {
			return nil, err
		}
		md.PrimaryChromaticityX[i] = uint16(x)
		md.PrimaryChromaticityY[i] = uint16(y)
	}

	v, err := r.Read(16)
	if err != nil {
		return nil, err
	}
	md.WhitePointChromaticityX = uint16(v)

	v, err = r.Read(16)
	if err != nil {
		return nil, err
	}
	md.WhitePointChromaticityY = uint16(v)

	v, err = r.Read(32)
	if err != nil {
		return nil, err
	}
	md.LuminanceMax = uint32(v)

	v, err = r.Read(32)
	if err != nil {
		return nil, err
	}
	md.LuminanceMin = uint32(v)

	return md, nil
}

func parseScalability(buf []byte) (*MetadataScalability, error) {
	r := NewBitReader(buf)

	modeIdc, err := r.Read(8)
	if err != nil {
		return nil, err
	}

	md := &MetadataScalability{ScalabilityModeIdc: uint8(modeIdc)}
	if md.ScalabilityModeIdc == 0 {
		return md, nil
	}

	s := &ScalabilityStructure{}
	md.Structure = s

	cnt, err := r.Read(2)
	if err != nil {
		return nil, err
	}
	s.SpatialLayersCntMinus1 = uint8(cnt)
	if s.SpatialLayersCntMinus1+1 > maxSpatialLayers {
		return nil, fmt.Errorf("%w: spatial_layers_cnt_minus_1+1 = %d exceeds %d",
			ErrMetadataOverflow, s.SpatialLayersCntMinus1+1, maxSpatialLayers)
	}

	if s.SpatialLayerDimensionsPresent, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if s.SpatialLayerDescriptionPresent, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if s.TemporalGroupDescriptionPresent, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if _, err = r.Read(3); err != nil { // scalability_structure_reserved_3bits
		return nil, err
	}

	// scalability_structure's spatial-layer loop is bounded by
	// spatial_layers_cnt_minus_1 itself, not +1, matching the reference
	// parser's literal loop bound rather than the usual minus_1-convention
	// reading.
	numLayers := int(s.SpatialLayersCntMinus1)

	if s.SpatialLayerDimensionsPresent {
		s.SpatialLayerMaxWidth = make([]uint16, numLayers)
		s.SpatialLayerMaxHeight = make([]uint16, numLayers)
		for i := 0; i < numLayers; i++ {
			w, err := r.Read(16)
			if err != nil {
				return nil, err
			}
			h, err := r.Read(16)
			if err != nil {
				return nil, err
			}
			s.SpatialLayerMaxWidth[i] = uint16(w)
			s.SpatialLayerMaxHeight[i] = uint16(h)
		}
	}

	if s.SpatialLayerDescriptionPresent {
		s.SpatialLayerRefID = make([]uint8, numLayers)
		for i := 0; i < numLayers; i++ {
			v, err := r.Read(8)
			if err != nil {
				return nil, err
			}
			s.SpatialLayerRefID[i] = uint8(v)
		}
	}

	if s.TemporalGroupDescriptionPresent {
		size, err := r.Read(8)
		if err != nil {
			return nil, err
		}
		s.TemporalGroupSize = uint8(size)
		if int(s.TemporalGroupSize) > maxTemporalGroupSize {
			return nil, fmt.Errorf("%w: temporal_group_size = %d exceeds %d",
				ErrMetadataOverflow, s.TemporalGroupSize, maxTemporalGroupSize)
		}

		s.TemporalGroupEntries = make([]TemporalGroupEntry, s.TemporalGroupSize)
		for i := 0; i < int(s.TemporalGroupSize); i++ {
			entry := &s.TemporalGroupEntries[i]

			id, err := r.Read(3)
			if err != nil {
				return nil, err
			}
			entry.TemporalID = uint8(id)

			if entry.TemporalSwitchingUpPointFlag, err = r.ReadFlag(); err != nil {
				return nil, err
			}
			if entry.SpatialSwitchingUpPointFlag, err = r.ReadFlag(); err != nil {
				return nil, err
			}

			refCnt, err := r.Read(3)
			if err != nil {
				return nil, err
			}
			if refCnt > maxRefPicDiffPerEntry {
				return nil, fmt.Errorf("%w: temporal_group_ref_cnt = %d exceeds %d",
					ErrMetadataOverflow, refCnt, maxRefPicDiffPerEntry)
			}

			entry.RefPicDiff = make([]uint8, refCnt)
			for j := uint64(0); j < refCnt; j++ {
				v, err := r.Read(8)
				if err != nil {
					return nil, err
				}
				entry.RefPicDiff[j] = uint8(v)
			}
		}
	}

	return md, nil
}

func parseITUT35(buf []byte) (*MetadataITUT35, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("%w: missing itu_t_t35_country_code", ErrTruncatedInput)
	}

	md := &MetadataITUT35{CountryCode: buf[0]}
	pos := 1

	if md.CountryCode == 0xFF {
		if len(buf) < 2 {
			return nil, fmt.Errorf("%w: missing itu_t_t35_country_code_extension_byte", ErrTruncatedInput)
		}
		md.CountryCodeExtensionByte = buf[1]
		pos = 2
	}

	md.Payload = buf[pos:]
	return md, nil
}

func parseTimecode(buf []byte) (*MetadataTimecode, error) {
	r := NewBitReader(buf)
	tc := &MetadataTimecode{}

	v, err := r.Read(5)
	if err != nil {
		return nil, err
	}
	tc.CountingType = uint8(v)

	if tc.FullTimestampFlag, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if tc.DiscontinuityFlag, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if tc.CntDroppedFlag, err = r.ReadFlag(); err != nil {
		return nil, err
	}

	v, err = r.Read(9)
	if err != nil {
		return nil, err
	}
	tc.NFrames = uint16(v)

	if tc.FullTimestampFlag {
		v, err = r.Read(6)
		if err != nil {
			return nil, err
		}
		tc.SecondsValue = uint8(v)

		v, err = r.Read(6)
		if err != nil {
			return nil, err
		}
		tc.MinutesValue = uint8(v)

		v, err = r.Read(5)
		if err != nil {
			return nil, err
		}
		tc.HoursValue = uint8(v)
	} else {
		if tc.SecondsFlag, err = r.ReadFlag(); err != nil {
			return nil, err
		}
		if tc.SecondsFlag {
			v, err = r.Read(6)
			if err != nil {
				return nil, err
			}
			tc.SecondsValue = uint8(v)

			if tc.MinutesFlag, err = r.ReadFlag(); err != nil {
				return nil, err
			}
			if tc.MinutesFlag {
				v, err = r.Read(6)
				if err != nil {
					return nil, err
				}
				tc.MinutesValue = uint8(v)

				if tc.HoursFlag, err = r.ReadFlag(); err != nil {
					return nil, err
				}
				if tc.HoursFlag {
					v, err = r.Read(5)
					if err != nil {
						return nil, err
					}
					tc.HoursValue = uint8(v)
				}
			}
		}
	}

	v, err = r.Read(5)
	if err != nil {
		return nil, err
	}
	tc.TimeOffsetLength = uint8(v)

	if tc.TimeOffsetLength > 0 {
		v, err = r.Read(uint(tc.TimeOffsetLength))
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("%w: time_offset_value exceeds 32 bits", ErrInvalidSize)
		}
		tc.TimeOffsetValue = uint32(v)
	}

	return tc, nil
}
