package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs/demuxer"
	"github.com/xaionaro-go/ffcodecs/libav"
	"github.com/xaionaro-go/ffcodecs/probe"
	"github.com/xaionaro-go/xcontext"
)

func cmdProbe(ctx context.Context, a *app, args []string) error {
	source, err := parseSource(args)
	if err != nil {
		return err
	}
	info, err := probe.Probe(ctx, libav.NewOpener(), source, a.Config.Demuxer)
	if err != nil {
		return err
	}
	return a.print(info)
}

// openDemuxer opens the source and returns a manager to be closed by the
// caller even if the context is cancelled.
func (a *app) openDemuxer(ctx context.Context, args []string) (*demuxer.Manager, demuxer.DemuxerID, func(), error) {
	source, err := parseSource(args)
	if err != nil {
		return nil, 0, nil, err
	}
	m := demuxer.NewManager(libav.NewOpener(), a.Config.Demuxer)
	closeFn := func() {
		if err := m.Close(xcontext.DetachDone(ctx)); err != nil {
			logger.Errorf(ctx, "unable to close the demuxer: %v", err)
		}
	}
	id, err := m.Open(ctx, source)
	if err != nil {
		closeFn()
		return nil, 0, nil, err
	}
	return m, id, closeFn, nil
}

func cmdTracks(ctx context.Context, a *app, args []string) error {
	m, id, closeFn, err := a.openDemuxer(ctx, args)
	if err != nil {
		return err
	}
	defer closeFn()

	count, err := m.TrackCount(ctx, id)
	if err != nil {
		return err
	}
	duration, err := m.DurationMicros(ctx, id)
	if err != nil {
		return err
	}

	type trackList struct {
		DurationMicros int64 `json:"duration_us" yaml:"duration_us"`
		Tracks         []any `json:"tracks"      yaml:"tracks"`
	}
	result := trackList{DurationMicros: duration}
	for idx := 0; idx < count; idx++ {
		info, err := m.TrackInfo(ctx, id, idx)
		if err != nil {
			return err
		}
		result.Tracks = append(result.Tracks, info)
	}
	return a.print(result)
}

func cmdDemux(ctx context.Context, a *app, args []string) error {
	m, id, closeFn, err := a.openDemuxer(ctx, args)
	if err != nil {
		return err
	}
	defer closeFn()

	if len(args) > 1 {
		at, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("unable to parse the seek position '%s': %w", args[1], err)
		}
		if err := m.Seek(ctx, id, at.Microseconds()); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := m.ReadPacket(ctx, id)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Stdout, pkt)
	}
}

func cmdThumbnail(ctx context.Context, a *app, args []string) error {
	source, err := parseSource(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("output file is not specified")
	}
	outPath := args[1]

	at := libav.ThumbnailPositionAuto
	if len(args) > 2 {
		at, err = time.ParseDuration(args[2])
		if err != nil {
			return fmt.Errorf("unable to parse the position '%s': %w", args[2], err)
		}
	}

	img, err := libav.ExtractThumbnail(
		ctx, source, a.Config.Demuxer, at,
		a.Config.Probe.ThumbnailWidth, a.Config.Probe.ThumbnailHeight,
	)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", outPath, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(outPath), ".png") {
		err = png.Encode(f, img)
	} else {
		_, err = f.Write(img.Pix)
	}
	if err != nil {
		return fmt.Errorf("unable to write '%s': %w", outPath, err)
	}
	logger.Infof(ctx, "wrote a %dx%d thumbnail to '%s'", img.Rect.Dx(), img.Rect.Dy(), outPath)
	return nil
}
