package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/decoder"
	"github.com/xaionaro-go/ffcodecs/libav"
	"github.com/xaionaro-go/ffcodecs/surface"
	"github.com/xaionaro-go/xcontext"
	"golang.org/x/sync/errgroup"
)

// cmdDecode decodes the first audio and the first video track; the demux
// loop feeds one worker per track.
func cmdDecode(ctx context.Context, a *app, args []string) (_err error) {
	dmx, dmxID, closeDemuxer, err := a.openDemuxer(ctx, args)
	if err != nil {
		return err
	}
	defer closeDemuxer()

	dec := decoder.NewManager(libav.NewBackend(), a.Config.Decoder)
	defer func() {
		if err := dec.Close(xcontext.DetachDone(ctx)); err != nil {
			logger.Errorf(ctx, "unable to close the decoders: %v", err)
		}
	}()

	count, err := dmx.TrackCount(ctx, dmxID)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	queues := map[int32]chan *ffcodecs.Packet{}
	for idx := 0; idx < count; idx++ {
		info, err := dmx.TrackInfo(ctx, dmxID, idx)
		if err != nil {
			return err
		}

		var worker func(ctx context.Context, packets <-chan *ffcodecs.Packet) error
		switch {
		case info.TrackType == ffcodecs.TrackTypeAudio && a.AudioOutput != "":
			worker = func(ctx context.Context, packets <-chan *ffcodecs.Packet) error {
				return decodeAudioTrack(ctx, dec, info, a.AudioOutput, packets)
			}
			a.AudioOutput = ""
		case info.TrackType == ffcodecs.TrackTypeVideo && a.VideoOutput != "":
			worker = func(ctx context.Context, packets <-chan *ffcodecs.Packet) error {
				return decodeVideoTrack(ctx, dec, info, a.VideoOutput, packets)
			}
			a.VideoOutput = ""
		default:
			continue
		}

		queue := make(chan *ffcodecs.Packet, 16)
		queues[int32(idx)] = queue
		g.Go(func() error {
			return worker(ctx, queue)
		})
	}
	if len(queues) == 0 {
		return fmt.Errorf("nothing to decode, see --out-audio and --out-video")
	}

	g.Go(func() error {
		defer func() {
			for _, queue := range queues {
				close(queue)
			}
		}()
		for {
			pkt, err := dmx.ReadPacket(ctx, dmxID)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			queue, ok := queues[pkt.TrackIndex]
			if !ok {
				continue
			}
			select {
			case queue <- pkt:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}

func decodeAudioTrack(
	ctx context.Context,
	dec *decoder.Manager,
	info *ffcodecs.TrackInfo,
	outPath string,
	packets <-chan *ffcodecs.Packet,
) (_err error) {
	logger.Debugf(ctx, "decodeAudioTrack(ctx, '%s', '%s')", info.CodecName, outPath)
	defer func() { logger.Debugf(ctx, "/decodeAudioTrack(ctx, '%s', '%s'): %v", info.CodecName, outPath, _err) }()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", outPath, err)
	}
	defer out.Close()

	id, err := dec.Initialize(ctx, decoder.InitParams{
		CodecName:       info.CodecName,
		ExtraData:       info.InitData,
		RawSampleRate:   int(info.SampleRate),
		RawChannelCount: int(info.ChannelCount),
		BitRate:         int64(info.AverageBitrate),
	})
	if err != nil {
		return err
	}
	defer dec.Release(ctx, id)

	var buf []byte
	for pkt := range packets {
		n, err := dec.DecodeAudio(ctx, id, pkt.Payload, buf, decoder.GrowSlice(&buf))
		switch {
		case err == nil:
		case errors.Is(err, ffcodecs.ErrInvalidData):
			logger.Warnf(ctx, "skipping a broken audio packet %s: %v", pkt, err)
			continue
		default:
			return err
		}
		if _, err := out.Write(buf[:n]); err != nil {
			return fmt.Errorf("unable to write to '%s': %w", outPath, err)
		}
	}

	stats, err := dec.GetStats(ctx, id)
	if err == nil {
		logger.Infof(ctx, "audio: %d bytes from %d packets (%d dropped)", stats.BytesWritten, stats.Packets.Sent, stats.Packets.Dropped)
	}
	return nil
}

func decodeVideoTrack(
	ctx context.Context,
	dec *decoder.Manager,
	info *ffcodecs.TrackInfo,
	outPath string,
	packets <-chan *ffcodecs.Packet,
) (_err error) {
	logger.Debugf(ctx, "decodeVideoTrack(ctx, '%s', '%s')", info.CodecName, outPath)
	defer func() { logger.Debugf(ctx, "/decodeVideoTrack(ctx, '%s', '%s'): %v", info.CodecName, outPath, _err) }()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", outPath, err)
	}
	defer out.Close()
	surf := surface.NewMemory(out)

	id, err := dec.Initialize(ctx, decoder.InitParams{
		CodecName:   info.CodecName,
		ExtraData:   info.InitData,
		ThreadCount: dec.Config.Video.ThreadCount,
	})
	if err != nil {
		return err
	}
	defer dec.Release(ctx, id)

	render := func() error {
		for {
			frame, err := dec.ReceiveVideoFrame(ctx, id, false)
			switch {
			case err == nil:
			case errors.Is(err, ffcodecs.ErrNoFrame):
				return nil
			default:
				return err
			}
			err = dec.RenderFrame(ctx, id, surf, frame, frame.Width(), frame.Height())
			frame.Release()
			if err != nil {
				return err
			}
		}
	}

	send := func(payload []byte, pts int64) error {
		for {
			err := dec.SendVideoPacket(ctx, id, payload, pts)
			switch {
			case err == nil:
				return render()
			case errors.Is(err, ffcodecs.ErrNeedMoreInput):
				if err := render(); err != nil {
					return err
				}
			case errors.Is(err, ffcodecs.ErrInvalidData):
				logger.Warnf(ctx, "skipping a broken video packet: %v", err)
				return nil
			default:
				return err
			}
		}
	}

	for pkt := range packets {
		if err := send(pkt.Payload, pkt.TimestampMicros); err != nil {
			return err
		}
	}
	if err := dec.SendVideoPacket(ctx, id, nil, decoder.NoPTS); err != nil {
		logger.Debugf(ctx, "unable to start draining: %v", err)
	}
	if err := render(); err != nil && !errors.Is(err, ffcodecs.ErrOther) {
		return err
	}

	logger.Infof(ctx, "video: %d frames written", surf.Posted(ctx))
	return nil
}
