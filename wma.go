package ffcodecs

import (
	"encoding/binary"
)

// WMAPrefixSize is the size of the [block_align u16][bit_rate u32] header
// prepended to WMA-family init data, because decoders of this family need
// both values and the container carries them outside of the extradata.
const WMAPrefixSize = 6

var wmaCodecNames = map[string]struct{}{
	"wmav1":       {},
	"wmav2":       {},
	"wmapro":      {},
	"wmalossless": {},
}

// IsWMACodec reports whether the codec needs the block-align/bit-rate prefix.
func IsWMACodec(codecName string) bool {
	_, ok := wmaCodecNames[codecName]
	return ok
}

// BuildWMAInitData returns little-endian blockAlign (u16) and bitRate (u32)
// followed by a copy of extradata. Negative values are stored as zero.
func BuildWMAInitData(blockAlign int, bitRate int64, extradata []byte) []byte {
	result := make([]byte, WMAPrefixSize+len(extradata))
	binary.LittleEndian.PutUint16(result[0:2], uint16(max(blockAlign, 0)))
	binary.LittleEndian.PutUint32(result[2:6], uint32(max(bitRate, 0)))
	copy(result[WMAPrefixSize:], extradata)
	return result
}

// WMARepair is the outcome of RepairWMAInitData.
type WMARepair struct {
	ExtraData  []byte
	BlockAlign int
	BitRate    int64
}

// RepairWMAInitData strips the prefix written by BuildWMAInitData.
//
// The prefix values are applied only where the current value is unset
// (<= 0) and the prefix value is non-zero. Init data shorter than the
// prefix is returned untouched.
func RepairWMAInitData(
	initData []byte,
	currentBlockAlign int,
	currentBitRate int64,
) WMARepair {
	result := WMARepair{
		ExtraData:  initData,
		BlockAlign: currentBlockAlign,
		BitRate:    currentBitRate,
	}
	if len(initData) < WMAPrefixSize {
		return result
	}

	blockAlign := int(binary.LittleEndian.Uint16(initData[0:2]))
	bitRate := int64(binary.LittleEndian.Uint32(initData[2:6]))
	if result.BlockAlign <= 0 && blockAlign > 0 {
		result.BlockAlign = blockAlign
	}
	if result.BitRate <= 0 && bitRate > 0 {
		result.BitRate = bitRate
	}

	result.ExtraData = nil
	if len(initData) > WMAPrefixSize {
		result.ExtraData = append([]byte(nil), initData[WMAPrefixSize:]...)
	}
	return result
}
