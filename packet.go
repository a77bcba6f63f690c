package ffcodecs

import (
	"fmt"
	"math"
)

// TimeUnset marks an unknown duration or timestamp.
const TimeUnset = int64(math.MinInt64 + 1)

type PacketFlags int32

const (
	PacketFlagKeyFrame = PacketFlags(1 << 0)
)

func (f PacketFlags) Has(flag PacketFlags) bool {
	return f&flag == flag
}

// Packet is one coded access unit produced by a demuxer.
//
// Payload is owned by the Packet; an empty payload is a valid flush marker.
type Packet struct {
	TrackIndex      int32
	TimestampMicros int64
	Flags           PacketFlags
	Payload         []byte
}

func (p *Packet) IsKeyFrame() bool {
	return p.Flags.Has(PacketFlagKeyFrame)
}

func (p *Packet) String() string {
	if p == nil {
		return "null"
	}
	return fmt.Sprintf("track:%d ts:%dus key:%t size:%d", p.TrackIndex, p.TimestampMicros, p.IsKeyFrame(), len(p.Payload))
}
