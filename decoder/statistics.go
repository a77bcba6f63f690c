package decoder

import (
	"sync/atomic"
)

type StatisticsPackets struct {
	Sent    uint64 `json:"sent"    yaml:"sent"`
	Dropped uint64 `json:"dropped" yaml:"dropped"`
	Carried uint64 `json:"carried" yaml:"carried"`
	Invalid uint64 `json:"invalid" yaml:"invalid"`
}

type StatisticsFrames struct {
	Received uint64 `json:"received" yaml:"received"`
	Rendered uint64 `json:"rendered" yaml:"rendered"`
	Skipped  uint64 `json:"skipped"  yaml:"skipped"`
}

// Statistics is a snapshot of a session's counters.
type Statistics struct {
	Packets      StatisticsPackets `json:"packets"       yaml:"packets"`
	Frames       StatisticsFrames  `json:"frames"        yaml:"frames"`
	BytesWritten uint64            `json:"bytes_written" yaml:"bytes_written"`
	Flushes      uint64            `json:"flushes"       yaml:"flushes"`
}

type sessionPacketsStatistics struct {
	Sent    atomic.Uint64
	Dropped atomic.Uint64
	Carried atomic.Uint64
	Invalid atomic.Uint64
}

type sessionFramesStatistics struct {
	Received atomic.Uint64
	Rendered atomic.Uint64
	Skipped  atomic.Uint64
}

type sessionStatistics struct {
	Packets      sessionPacketsStatistics
	Frames       sessionFramesStatistics
	BytesWritten atomic.Uint64
	Flushes      atomic.Uint64
}

func (stats *sessionStatistics) Convert() Statistics {
	return Statistics{
		Packets: StatisticsPackets{
			Sent:    stats.Packets.Sent.Load(),
			Dropped: stats.Packets.Dropped.Load(),
			Carried: stats.Packets.Carried.Load(),
			Invalid: stats.Packets.Invalid.Load(),
		},
		Frames: StatisticsFrames{
			Received: stats.Frames.Received.Load(),
			Rendered: stats.Frames.Rendered.Load(),
			Skipped:  stats.Frames.Skipped.Load(),
		},
		BytesWritten: stats.BytesWritten.Load(),
		Flushes:      stats.Flushes.Load(),
	}
}
