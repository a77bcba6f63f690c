package libav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs/container"
	"github.com/xaionaro-go/ffcodecs/internal"
	"github.com/xaionaro-go/xsync"
)

type InputID uint64

// Input is an opened and probed container.
type Input struct {
	ID     InputID
	Source container.Source
	*astikit.Closer
	*astiav.FormatContext

	locker  xsync.Mutex
	streams []container.Stream
}

var _ container.Container = (*Input)(nil)

var nextInputID atomic.Uint64

// libavTimeBase is the time base of format-level timestamps.
var libavTimeBase = container.Rational{Num: 1, Den: int64(astiav.TimeBase)}

// Opener opens containers with the FFmpeg demuxers.
type Opener struct{}

var _ container.Opener = (*Opener)(nil)

func NewOpener() *Opener {
	return &Opener{}
}

func (*Opener) OpenContainer(
	ctx context.Context,
	req container.OpenRequest,
) (container.Container, error) {
	input, err := NewInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return input, nil
}

func NewInput(
	ctx context.Context,
	req container.OpenRequest,
) (_ret *Input, _err error) {
	logger.Debugf(ctx, "NewInput(ctx, %s)", req.Source)
	defer func() { logger.Debugf(ctx, "/NewInput(ctx, %s): %v", req.Source, _err) }()

	if req.Source == nil || req.Source.Locator() == "" {
		return nil, fmt.Errorf("the provided source is empty")
	}

	input := &Input{
		ID:     InputID(nextInputID.Add(1)),
		Source: req.Source,
		Closer: astikit.NewCloser(),
	}
	defer func() {
		if _err != nil {
			_ = input.Closer.Close()
		}
	}()

	input.FormatContext = astiav.AllocFormatContext()
	if input.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}
	input.Closer.Add(input.FormatContext.Free)

	for _, opt := range req.Options {
		if opt.Key == "f" {
			return nil, fmt.Errorf("overriding input format is not supported, yet")
		}
	}
	dict, err := newDictionary(ctx, req.Options, input.Closer)
	if err != nil {
		return nil, err
	}

	if err := input.FormatContext.OpenInput(req.Source.Locator(), nil, dict); err != nil {
		return nil, fmt.Errorf("unable to open input %s: %w", req.Source, err)
	}
	input.Closer.Add(input.FormatContext.CloseInput)

	if err := input.FormatContext.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("unable to get stream info: %w", err)
	}

	for _, stream := range input.FormatContext.Streams() {
		input.streams = append(input.streams, input.convertStream(stream))
	}

	internal.SetFinalizerClose(ctx, input)
	return input, nil
}

func (i *Input) String() string {
	return fmt.Sprintf("input#%d(%s)", i.ID, i.Source)
}

func (i *Input) FormatLongName() string {
	if f := i.FormatContext.InputFormat(); f != nil {
		return f.LongName()
	}
	return ""
}

func (i *Input) Duration() int64 {
	duration := i.FormatContext.Duration()
	if duration == astiav.NoPtsValue {
		return container.NoPTS
	}
	return container.Rescale(duration, libavTimeBase, container.MicrosecondTimeBase)
}

func (i *Input) Streams() []container.Stream {
	return i.streams
}

// Chapters is always empty: the bindings do not expose AVChapter.
// TODO: read chapters once astiav exposes FormatContext chapters.
func (i *Input) Chapters() []container.Chapter {
	return nil
}

func (i *Input) convertStream(stream *astiav.Stream) container.Stream {
	cp := stream.CodecParameters()
	s := container.Stream{
		Index:       stream.Index(),
		MediaType:   mediaTypeFromLibav(cp.MediaType()),
		CodecName:   cp.CodecID().Name(),
		TimeBase:    rationalFromLibav(stream.TimeBase()),
		Metadata:    dictionaryToMap(stream.Metadata()),
		Disposition: int(stream.DispositionFlags()),
		BitRate:     cp.BitRate(),
		ExtraData:   append([]byte(nil), cp.ExtraData()...),
	}
	if codec := astiav.FindDecoder(cp.CodecID()); codec != nil {
		s.CodecLongName = codec.LongName()
	}

	switch s.MediaType {
	case container.MediaTypeVideo:
		s.Width = cp.Width()
		s.Height = cp.Height()
		s.FrameRate = rationalFromLibav(i.FormatContext.GuessFrameRate(stream, nil))
		if matrix, ok := cp.SideData().DisplayMatrix().Get(); ok {
			for _, v := range matrix {
				s.DisplayMatrix = append(s.DisplayMatrix, int32(v))
			}
		}
	case container.MediaTypeAudio:
		s.SampleFormat = cp.SampleFormat().Name()
		s.SampleRate = cp.SampleRate()
		s.ChannelCount = cp.ChannelLayout().Channels()
		s.ChannelLayout = cp.ChannelLayout().String()
		s.BlockAlign = cp.BlockAlign()
	}
	return s
}

func (i *Input) ReadPacket(
	ctx context.Context,
) (*container.Packet, error) {
	return xsync.DoR2(ctx, &i.locker, func() (*container.Packet, error) {
		packet := astiav.AllocPacket()
		defer packet.Free()

		err := i.FormatContext.ReadFrame(packet)
		switch {
		case err == nil:
		case errors.Is(err, astiav.ErrEof):
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("unable to read a frame: %w", err)
		}
		logger.Tracef(
			ctx,
			"received a packet (stream:%d, pos:%d, pts:%d, dts:%d, dur:%d)",
			packet.StreamIndex(), packet.Pos(), packet.Pts(), packet.Dts(), packet.Duration(),
		)

		return &container.Packet{
			StreamIndex: packet.StreamIndex(),
			PTS:         noPTSFromLibav(packet.Pts()),
			DTS:         noPTSFromLibav(packet.Dts()),
			KeyFrame:    packet.Flags().Has(astiav.PacketFlagKey),
			Data:        append([]byte(nil), packet.Data()...),
		}, nil
	})
}

// Seek moves to the closest key frame at or before the timestamp on any
// stream and drops whatever the demuxer buffered.
func (i *Input) Seek(
	ctx context.Context,
	timestampMicros int64,
) (_err error) {
	logger.Debugf(ctx, "Seek(ctx, %d)", timestampMicros)
	defer func() { logger.Debugf(ctx, "/Seek(ctx, %d): %v", timestampMicros, _err) }()

	return xsync.DoR1(ctx, &i.locker, func() error {
		ts := container.Rescale(timestampMicros, container.MicrosecondTimeBase, libavTimeBase)
		if err := i.FormatContext.SeekFrame(-1, ts, astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
			return fmt.Errorf("unable to seek to %dus: %w", timestampMicros, err)
		}
		if err := i.FormatContext.Flush(); err != nil {
			return fmt.Errorf("unable to flush after seeking: %w", err)
		}
		return nil
	})
}

func (i *Input) Close() error {
	internal.UnsetFinalizer(i)
	return i.Closer.Close()
}

func mediaTypeFromLibav(t astiav.MediaType) container.MediaType {
	switch t {
	case astiav.MediaTypeVideo:
		return container.MediaTypeVideo
	case astiav.MediaTypeAudio:
		return container.MediaTypeAudio
	case astiav.MediaTypeData:
		return container.MediaTypeData
	case astiav.MediaTypeSubtitle:
		return container.MediaTypeSubtitle
	case astiav.MediaTypeAttachment:
		return container.MediaTypeAttachment
	}
	return container.MediaTypeUnknown
}

func rationalFromLibav(r astiav.Rational) container.Rational {
	return container.Rational{Num: int64(r.Num()), Den: int64(r.Den())}
}

func noPTSFromLibav(ts int64) int64 {
	if ts == astiav.NoPtsValue {
		return container.NoPTS
	}
	return ts
}

func dictionaryToMap(dict *astiav.Dictionary) map[string]string {
	if dict == nil {
		return nil
	}
	result := map[string]string{}
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)
	for entry := dict.Get("", nil, flags); entry != nil; entry = dict.Get("", entry, flags) {
		result[entry.Key()] = entry.Value()
	}
	return result
}
