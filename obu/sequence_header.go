// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package obu

import "fmt"

// maxOperatingPoints is the AV1 specification's cap on the number of
// operating points a sequence header may declare
// (operating_points_cnt_minus_1 + 1, max 32).
const maxOperatingPoints = 32

// Color primaries, transfer characteristics, and matrix coefficient values
// referenced directly by the color_config parsing logic. The full tables
// are defined by ISO/IEC 23091-4 / ITU-T H.273; only the codepoints this
// package's control flow depends on are named here.
const (
	colorPrimariesBT709           = 1
	colorPrimariesUnspec          = 2
	transferCharacteristicsSRGB   = 13
	transferCharacteristicsUnspec = 2
	matrixCoefficientsIdentity    = 0
	matrixCoefficientsUnspec      = 2
)

// ChromaSamplePosition is the chroma_sample_position field of color_config.
type ChromaSamplePosition uint8

// Chroma sample position values, AV1 specification section 6.4.2.
const (
	ChromaSampleUnknown   ChromaSamplePosition = 0
	ChromaSampleVertical  ChromaSamplePosition = 1
	ChromaSampleColocated ChromaSamplePosition = 2
)

// ScreenContentTools values for seq_force_screen_content_tools /
// seq_force_integer_mv, AV1 specification section 6.8.2.
const (
	SelectScreenContentTools = 2
	SelectIntegerMV          = 2
)

// TimingInfo is the sequence header's timing_info() group, present when
// timing_info_present_flag is set.
type TimingInfo struct {
	NumUnitsInDisplayTick    uint32
	TimeScale                uint32
	EqualPictureInterval     bool
	NumTicksPerPictureMinus1 uint32
}

// DecoderModelInfo is the sequence header's decoder_model_info() group,
// present when decoder_model_info_present_flag is set.
type DecoderModelInfo struct {
	BufferDelayLengthMinus1           uint8
	NumUnitsInDecodingTick            uint32
	BufferRemovalTimeLengthMinus1     uint8
	FramePresentationTimeLengthMinus1 uint8
}

// OperatingParametersInfo is one operating_parameters_info() entry, present
// per-operating-point when decoder_model_present_for_this_op is set.
type OperatingParametersInfo struct {
	DecoderBufferDelay uint64
	EncoderBufferDelay uint64
	LowDelayModeFlag   bool
}

// ColorConfig is the sequence header's color_config() group.
type ColorConfig struct {
	HighBitdepth            bool
	TwelveBit               bool
	BitDepth                uint8
	MonoChrome              bool
	NumPlanes               uint8
	ColorDescriptionPresent bool
	ColorPrimaries          uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
	ColorRange              bool
	SubsamplingX            uint8
	SubsamplingY            uint8
	ChromaSamplePosition    ChromaSamplePosition
	SeparateUVDeltaQ        bool
}

// SequenceHeader is a fully parsed Sequence Header OBU payload. Fields
// whose presence is conditional on an earlier flag take the documented
// default when absent (for example, the timing, decoder-model and
// operating-point fields are zero when reduced_still_picture_header is
// set, except seq_level_idx[0], which is still read from the payload),
// matching the flat-record contract: callers read one struct, with
// no need to branch on which fields happen to be meaningful.
type SequenceHeader struct {
	SeqProfile                uint8
	StillPicture              bool
	ReducedStillPictureHeader bool

	TimingInfoPresent       bool
	TimingInfo              TimingInfo
	DecoderModelInfoPresent bool
	DecoderModelInfo        DecoderModelInfo

	InitialDisplayDelayPresent bool
	OperatingPointsCntMinus1   uint8

	OperatingPointIdc                    []uint16
	SeqLevelIdx                          []uint8
	SeqTier                              []uint8
	DecoderModelPresentForThisOp         []bool
	OperatingParametersInfo              []OperatingParametersInfo
	InitialDisplayDelayPresentForThisOp  []bool
	InitialDisplayDelayMinus1            []uint8

	FrameWidthBitsMinus1  uint8
	FrameHeightBitsMinus1 uint8
	MaxFrameWidthMinus1   uint32
	MaxFrameHeightMinus1  uint32

	FrameIDNumbersPresent         bool
	DeltaFrameIDLengthMinus2      uint8
	AdditionalFrameIDLengthMinus1 uint8

	Use128x128Superblock  bool
	EnableFilterIntra     bool
	EnableIntraEdgeFilter bool

	EnableInterintraCompound bool
	EnableMaskedCompound     bool
	EnableWarpedMotion       bool
	EnableDualFilter         bool
	EnableOrderHint          bool
	EnableJntComp            bool
	EnableRefFrameMvs        bool

	SeqChooseScreenContentTools bool
	SeqForceScreenContentTools  uint8
	SeqChooseIntegerMv          bool
	SeqForceIntegerMv           uint8

	OrderHintBitsMinus1 uint8
	OrderHintBits       uint8

	EnableSuperres    bool
	EnableCdef        bool
	EnableRestoration bool

	ColorConfig ColorConfig

	FilmGrainParamsPresent bool
}

// ParseSequenceHeader parses a Sequence Header OBU payload. buf must be
// exactly the payload bytes: the OBU header, extension byte, and size
// field (if any) must already have been stripped by the caller, typically
// using the Frame returned by NextOBU.
func ParseSequenceHeader(buf []byte) (*SequenceHeader, error) {
	r := NewBitReader(buf)
	sh := &SequenceHeader{}

	seqProfile, err := r.Read(3)
	if err != nil {
		return nil, err
	}
	sh.SeqProfile = uint8(seqProfile)

	sh.StillPicture, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	sh.ReducedStillPictureHeader, err = r.ReadFlag()
	if err != nil {
		return nil, err
	}

	if sh.ReducedStillPictureHeader {
		sh.OperatingPointsCntMinus1 = 0
		sh.OperatingPointIdc = []uint16{0}
		sh.SeqLevelIdx = []uint8{0}
		sh.SeqTier = []uint8{0}

		level, err := r.Read(5)
		if err != nil {
			return nil, err
		}
		sh.SeqLevelIdx[0] = uint8(level)
	} else {
		if err := parseTimingAndOperatingPoints(r, sh); err != nil {
			return nil, err
		}
	}

	if err := parseFrameSize(r, sh); err != nil {
		return nil, err
	}

	if !sh.ReducedStillPictureHeader {
		sh.FrameIDNumbersPresent, err = r.ReadFlag()
		if err != nil {
			return nil, err
		}
	}

	if sh.FrameIDNumbersPresent {
		v, err := r.Read(4)
		if err != nil {
			return nil, err
		}
		sh.DeltaFrameIDLengthMinus2 = uint8(v)

		v, err = r.Read(3)
		if err != nil {
			return nil, err
		}
		sh.AdditionalFrameIDLengthMinus1 = uint8(v)
	}

	if sh.Use128x128Superblock, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if sh.EnableFilterIntra, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if sh.EnableIntraEdgeFilter, err = r.ReadFlag(); err != nil {
		return nil, err
	}

	if err := parseCompoundAndOrderHint(r, sh); err != nil {
		return nil, err
	}

	if sh.EnableSuperres, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if sh.EnableCdef, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if sh.EnableRestoration, err = r.ReadFlag(); err != nil {
		return nil, err
	}

	if err := parseColorConfig(r, sh); err != nil {
		return nil, err
	}

	if sh.FilmGrainParamsPresent, err = r.ReadFlag(); err != nil {
		return nil, err
	}

	return sh, nil
}

func parseTimingAndOperatingPoints(r *BitReader, sh *SequenceHeader) error {
	var err error

	sh.TimingInfoPresent, err = r.ReadFlag()
	if err != nil {
		return err
	}

	if sh.TimingInfoPresent {
		v, err := r.Read(32)
		if err != nil {
			return err
		}
		sh.TimingInfo.NumUnitsInDisplayTick = uint32(v)

		v, err = r.Read(32)
		if err != nil {
			return err
		}
		sh.TimingInfo.TimeScale = uint32(v)

		sh.TimingInfo.EqualPictureInterval, err = r.ReadFlag()
		if err != nil {
			return err
		}

		if sh.TimingInfo.EqualPictureInterval {
			v, err := r.ReadUVLC()
			if err != nil {
				return err
			}
			sh.TimingInfo.NumTicksPerPictureMinus1 = uint32(v)
		}

		sh.DecoderModelInfoPresent, err = r.ReadFlag()
		if err != nil {
			return err
		}

		if sh.DecoderModelInfoPresent {
			v, err := r.Read(5)
			if err != nil {
				return err
			}
			sh.DecoderModelInfo.BufferDelayLengthMinus1 = uint8(v)

			v, err = r.Read(32)
			if err != nil {
				return err
			}
			sh.DecoderModelInfo.NumUnitsInDecodingTick = uint32(v)

			v, err = r.Read(5)
			if err != nil {
				return err
			}
			sh.DecoderModelInfo.BufferRemovalTimeLengthMinus1 = uint8(v)

			v, err = r.Read(5)
			if err != nil {
				return err
			}
			sh.DecoderModelInfo.FramePresentationTimeLengthMinus1 = uint8(v)
		}
	}

	sh.InitialDisplayDelayPresent, err = r.ReadFlag()
	if err != nil {
		return err
	}

	cnt, err := r.Read(5)
	if err != nil {
		return err
	}
	sh.OperatingPointsCntMinus1 = uint8(cnt)

	n := int(sh.OperatingPointsCntMinus1) + 1
	if n > maxOperatingPoints {
		return fmt.Errorf("%w: operating_points_cnt_minus_1+1 = %d exceeds %d", ErrMetadataOverflow, n, maxOperatingPoints)
	}

	sh.OperatingPointIdc = make([]uint16, n)
	sh.SeqLevelIdx = make([]uint8, n)
	sh.SeqTier = make([]uint8, n)
	sh.DecoderModelPresentForThisOp = make([]bool, n)
	sh.OperatingParametersInfo = make([]OperatingParametersInfo, n)
	sh.InitialDisplayDelayPresentForThisOp = make([]bool, n)
	sh.InitialDisplayDelayMinus1 = make([]uint8, n)

	for i := 0; i < n; i++ {
		idc, err := r.Read(12)
		if err != nil {
			return err
		}
		sh.OperatingPointIdc[i] = uint16(idc)

		level, err := r.Read(5)
		if err != nil {
			return err
		}
		sh.SeqLevelIdx[i] = uint8(level)

		if sh.SeqLevelIdx[i] > 7 {
			tier, err := r.Read(1)
			if err != nil {
				return err
			}
			sh.SeqTier[i] = uint8(tier)
		}

		if sh.DecoderModelInfoPresent {
			sh.DecoderModelPresentForThisOp[i], err = r.ReadFlag()
			if err != nil {
				return err
			}

			if sh.DecoderModelPresentForThisOp[i] {
				width := uint(sh.DecoderModelInfo.BufferDelayLengthMinus1) + 1

				decoderDelay, err := r.Read(width)
				if err != nil {
					return err
				}
				encoderDelay, err := r.Read(width)
				if err != nil {
					return err
				}
				lowDelay, err := r.ReadFlag()
				if err != nil {
					return err
				}

				sh.OperatingParametersInfo[i] = OperatingParametersInfo{
					DecoderBufferDelay: decoderDelay,
					EncoderBufferDelay: encoderDelay,
					LowDelayModeFlag:   lowDelay,
				}
			}
		}

		if sh.InitialDisplayDelayPresent {
			sh.InitialDisplayDelayPresentForThisOp[i], err = r.ReadFlag()
			if err != nil {
				return err
			}

			if sh.InitialDisplayDelayPresentForThisOp[i] {
				v, err := r.Read(4)
				if err != nil {
					return err
				}
				sh.InitialDisplayDelayMinus1[i] = uint8(v)
			}
		}
	}

	return nil
}

func parseFrameSize(r *BitReader, sh *SequenceHeader) error {
	v, err := r.Read(4)
	if err != nil {
		return err
	}
	sh.FrameWidthBitsMinus1 = uint8(v)

	v, err = r.Read(4)
	if err != nil {
		return err
	}
	sh.FrameHeightBitsMinus1 = uint8(v)

	v, err = r.Read(uint(sh.FrameWidthBitsMinus1) + 1)
	if err != nil {
		return err
	}
	sh.MaxFrameWidthMinus1 = uint32(v)

	v, err = r.Read(uint(sh.FrameHeightBitsMinus1) + 1)
	if err != nil {
		return err
	}
	sh.MaxFrameHeightMinus1 = uint32(v)

	return nil
}

func parseCompoundAndOrderHint(r *BitReader, sh *SequenceHeader) error {
	if sh.ReducedStillPictureHeader {
		sh.SeqForceScreenContentTools = SelectScreenContentTools
		sh.SeqForceIntegerMv = SelectIntegerMV
		sh.OrderHintBits = 0
		return nil
	}

	var err error
	if sh.EnableInterintraCompound, err = r.ReadFlag(); err != nil {
		return err
	}
	if sh.EnableMaskedCompound, err = r.ReadFlag(); err != nil {
		return err
	}
	if sh.EnableWarpedMotion, err = r.ReadFlag(); err != nil {
		return err
	}
	if sh.EnableDualFilter, err = r.ReadFlag(); err != nil {
		return err
	}
	if sh.EnableOrderHint, err = r.ReadFlag(); err != nil {
		return err
	}

	if sh.EnableOrderHint {
		if sh.EnableJntComp, err = r.ReadFlag(); err != nil {
			return err
		}
		if sh.EnableRefFrameMvs, err = r.ReadFlag(); err != nil {
			return err
		}
	}

	if sh.SeqChooseScreenContentTools, err = r.ReadFlag(); err != nil {
		return err
	}
	if sh.SeqChooseScreenContentTools {
		sh.SeqForceScreenContentTools = SelectScreenContentTools
	} else {
		v, err := r.Read(1)
		if err != nil {
			return err
		}
		sh.SeqForceScreenContentTools = uint8(v)
	}

	if sh.SeqForceScreenContentTools > 0 {
		if sh.SeqChooseIntegerMv, err = r.ReadFlag(); err != nil {
			return err
		}
		if sh.SeqChooseIntegerMv {
			sh.SeqForceIntegerMv = SelectIntegerMV
		} else {
			v, err := r.Read(1)
			if err != nil {
				return err
			}
			sh.SeqForceIntegerMv = uint8(v)
		}
	} else {
		sh.SeqForceIntegerMv = SelectIntegerMV
	}

	if sh.EnableOrderHint {
		v, err := r.Read(3)
		if err != nil {
			return err
		}
		sh.OrderHintBitsMinus1 = uint8(v)
		sh.OrderHintBits = sh.OrderHintBitsMinus1 + 1
	} else {
		sh.OrderHintBits = 0
	}

	return nil
}

func parseColorConfig(r *BitReader, sh *SequenceHeader) error {
	cc := &sh.ColorConfig

	var err error
	if cc.HighBitdepth, err = r.ReadFlag(); err != nil {
		return err
	}

	if sh.SeqProfile == 2 && cc.HighBitdepth {
		if cc.TwelveBit, err = r.ReadFlag(); err != nil {
			return err
		}
		if cc.TwelveBit {
			cc.BitDepth = 12
		} else {
			cc.BitDepth = 10
		}
	} else if cc.HighBitdepth {
		cc.BitDepth = 10
	} else {
		cc.BitDepth = 8
	}

	if sh.SeqProfile == 1 {
		cc.MonoChrome = false
	} else {
		if cc.MonoChrome, err = r.ReadFlag(); err != nil {
			return err
		}
	}

	if cc.MonoChrome {
		cc.NumPlanes = 1
	} else {
		cc.NumPlanes = 3
	}

	if cc.ColorDescriptionPresent, err = r.ReadFlag(); err != nil {
		return err
	}

	if cc.ColorDescriptionPresent {
		v, err := r.Read(8)
		if err != nil {
			return err
		}
		cc.ColorPrimaries = uint8(v)

		v, err = r.Read(8)
		if err != nil {
			return err
		}
		cc.TransferCharacteristics = uint8(v)

		v, err = r.Read(8)
		if err != nil {
			return err
		}
		cc.MatrixCoefficients = uint8(v)
	} else {
		cc.ColorPrimaries = colorPrimariesUnspec
		cc.TransferCharacteristics = transferCharacteristicsUnspec
		cc.MatrixCoefficients = matrixCoefficientsUnspec
	}

	if cc.MonoChrome {
		if cc.ColorRange, err = r.ReadFlag(); err != nil {
			return err
		}
		cc.SubsamplingX = 1
		cc.SubsamplingY = 1
		cc.ChromaSamplePosition = ChromaSampleUnknown
		cc.SeparateUVDeltaQ = false
		return nil
	}

	if cc.ColorPrimaries == colorPrimariesBT709 &&
		cc.TransferCharacteristics == transferCharacteristicsSRGB &&
		cc.MatrixCoefficients == matrixCoefficientsIdentity {
		cc.ColorRange = true
		cc.SubsamplingX = 0
		cc.SubsamplingY = 0
	} else {
		if cc.ColorRange, err = r.ReadFlag(); err != nil {
			return err
		}

		switch sh.SeqProfile {
		case 0:
			cc.SubsamplingX = 1
			cc.SubsamplingY = 1
		case 1:
			cc.SubsamplingX = 0
			cc.SubsamplingY = 0
		case 2:
			if cc.BitDepth == 12 {
				v, err := r.Read(1)
				if err != nil {
					return err
				}
				cc.SubsamplingX = uint8(v)

				if cc.SubsamplingX != 0 {
					v, err := r.Read(1)
					if err != nil {
						return err
					}
					cc.SubsamplingY = uint8(v)
				} else {
					cc.SubsamplingY = 0
				}
			} else {
				cc.SubsamplingX = 1
				cc.SubsamplingY = 0
			}
		}

		if cc.SubsamplingX != 0 && cc.SubsamplingY != 0 {
			v, err := r.Read(2)
			if err != nil {
				return err
			}
			cc.ChromaSamplePosition = ChromaSamplePosition(v)
		}
	}

	if cc.SeparateUVDeltaQ, err = r.ReadFlag(); err != nil {
		return err
	}

	return nil
}
