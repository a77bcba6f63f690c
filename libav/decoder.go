package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/decoder"
	"github.com/xaionaro-go/ffcodecs/internal"
	"github.com/xaionaro-go/xsync"
)

// Decoder is an opened codec context driven by decoder.Manager.
type Decoder struct {
	Request   decoder.OpenRequest
	MediaType astiav.MediaType

	locker xsync.Mutex
	codec  *Codec
	packet *astiav.Packet
}

var _ decoder.Decoder = (*Decoder)(nil)

func newDecoder(
	ctx context.Context,
	req decoder.OpenRequest,
) (*Decoder, error) {
	codec, err := newDecoderCodec(ctx, req.Codec.Name, nil, req.ExtraData, req.Options)
	if err != nil {
		return nil, err
	}

	d := &Decoder{
		Request:   req,
		MediaType: mediaTypeOf(req.Codec.Type),
		codec:     codec,
		packet:    astiav.AllocPacket(),
	}
	internal.SetFinalizerClose(ctx, d)
	return d, nil
}

func mediaTypeOf(t ffcodecs.TrackType) astiav.MediaType {
	switch t {
	case ffcodecs.TrackTypeAudio:
		return astiav.MediaTypeAudio
	case ffcodecs.TrackTypeVideo:
		return astiav.MediaTypeVideo
	}
	return astiav.MediaTypeUnknown
}

func (d *Decoder) String() string {
	return fmt.Sprintf("%s-decoder", d.Request.Codec.Name)
}

// SendPacket submits one packet; an empty payload starts draining.
func (d *Decoder) SendPacket(
	ctx context.Context,
	payload []byte,
	pts int64,
) error {
	return xsync.DoR1(ctx, &d.locker, func() error {
		if len(payload) == 0 {
			return codecError("unable to enter draining mode", d.codec.codecContext.SendPacket(nil))
		}

		d.packet.Unref()
		if err := d.packet.FromData(payload); err != nil {
			return fmt.Errorf("unable to fill the packet: %w", err)
		}
		if pts == decoder.NoPTS {
			pts = astiav.NoPtsValue
		}
		d.packet.SetPts(pts)
		err := d.codec.codecContext.SendPacket(d.packet)
		d.packet.Unref()
		return codecError("unable to send the packet", err)
	})
}

func (d *Decoder) ReceiveFrame(
	ctx context.Context,
) (decoder.Frame, error) {
	return xsync.DoR2(ctx, &d.locker, func() (decoder.Frame, error) {
		frame := astiav.AllocFrame()
		if err := d.codec.codecContext.ReceiveFrame(frame); err != nil {
			frame.Free()
			return nil, codecError("unable to receive a frame", err)
		}

		switch d.MediaType {
		case astiav.MediaTypeAudio:
			return &AudioFrame{Frame: Frame{Frame: frame}}, nil
		case astiav.MediaTypeVideo:
			return &VideoFrame{Frame: Frame{Frame: frame}}, nil
		default:
			return &Frame{Frame: frame}, nil
		}
	})
}

// Flush drops the buffered packets and frames; the codec context and its
// negotiated parameters are kept.
func (d *Decoder) Flush(ctx context.Context) {
	logger.Debugf(ctx, "Flush: %s", d)
	defer func() { logger.Debugf(ctx, "/Flush: %s", d) }()

	d.locker.Do(ctx, func() {
		d.codec.codecContext.FlushBuffers()
	})
}

func (d *Decoder) SampleRate() int {
	return xsync.DoR1(context.Background(), &d.locker, func() int {
		return d.codec.codecContext.SampleRate()
	})
}

func (d *Decoder) ChannelCount() int {
	return xsync.DoR1(context.Background(), &d.locker, func() int {
		return d.codec.codecContext.ChannelLayout().Channels()
	})
}

func (d *Decoder) Close() error {
	internal.UnsetFinalizer(d)
	return xsync.DoR1(context.Background(), &d.locker, func() error {
		if d.packet != nil {
			d.packet.Free()
			d.packet = nil
		}
		if d.codec == nil {
			return nil
		}
		err := d.codec.Close()
		d.codec = nil
		return err
	})
}
