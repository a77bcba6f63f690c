package decoder

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/ffcodecs"
)

type fakeBackend struct {
	Codecs       map[string]CodecInfo
	Opened       []OpenRequest
	Decoders     []*fakeDecoder
	NewDecoder   func(req OpenRequest) *fakeDecoder
	Resamplers   []*fakeResampler
	PendingAfter int
	Scalers      []*fakeScaler
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		Codecs: map[string]CodecInfo{
			"aac":    {Name: "aac", Type: ffcodecs.TrackTypeAudio},
			"wmav2":  {Name: "wmav2", Type: ffcodecs.TrackTypeAudio},
			"truehd": {Name: "truehd", Type: ffcodecs.TrackTypeAudio},
			"h264":   {Name: "h264", Type: ffcodecs.TrackTypeVideo},
			"srt":    {Name: "srt", Type: ffcodecs.TrackTypeUnknown},
		},
	}
}

func (b *fakeBackend) FindDecoder(ctx context.Context, codecName string) (CodecInfo, bool) {
	c, ok := b.Codecs[codecName]
	return c, ok
}

func (b *fakeBackend) OpenDecoder(ctx context.Context, req OpenRequest) (Decoder, error) {
	b.Opened = append(b.Opened, req)
	d := &fakeDecoder{sampleRate: 44100, channelCount: 2}
	if b.NewDecoder != nil {
		d = b.NewDecoder(req)
	}
	if d == nil {
		return nil, fmt.Errorf("open failed")
	}
	b.Decoders = append(b.Decoders, d)
	return d, nil
}

func (b *fakeBackend) NewResampler(ctx context.Context, src AudioFrame, dst ffcodecs.SampleFormat) (Resampler, error) {
	r := &fakeResampler{pending: b.PendingAfter}
	b.Resamplers = append(b.Resamplers, r)
	return r, nil
}

func (b *fakeBackend) NewScaler(ctx context.Context, req ScaleRequest) (Scaler, error) {
	s := &fakeScaler{Request: req}
	b.Scalers = append(b.Scalers, s)
	return s, nil
}

// fakeDecoder replays scripted results; frames are queued by OnSend.
type fakeDecoder struct {
	sampleRate   int
	channelCount int

	SendResults []error
	OnSend      func(d *fakeDecoder, payload []byte)
	Output      []Frame
	ReceiveErr  error
	Sent        [][]byte
	SentPTS     []int64
	Flushes     int
	Closed      bool
}

func (d *fakeDecoder) SendPacket(ctx context.Context, payload []byte, pts int64) error {
	if len(d.SendResults) > 0 {
		err := d.SendResults[0]
		d.SendResults = d.SendResults[1:]
		if err != nil {
			return err
		}
	}
	d.Sent = append(d.Sent, append([]byte(nil), payload...))
	d.SentPTS = append(d.SentPTS, pts)
	if d.OnSend != nil {
		d.OnSend(d, payload)
	}
	return nil
}

func (d *fakeDecoder) ReceiveFrame(ctx context.Context) (Frame, error) {
	if len(d.Output) == 0 {
		if d.ReceiveErr != nil {
			return nil, d.ReceiveErr
		}
		return nil, ErrWouldBlock
	}
	f := d.Output[0]
	d.Output = d.Output[1:]
	return f, nil
}

func (d *fakeDecoder) Flush(ctx context.Context) {
	d.Flushes++
	d.Output = nil
}

func (d *fakeDecoder) SampleRate() int   { return d.sampleRate }
func (d *fakeDecoder) ChannelCount() int { return d.channelCount }

func (d *fakeDecoder) Close() error {
	d.Closed = true
	return nil
}

type fakeAudioFrame struct {
	Samples  int
	Channels int
	Fill     byte
	Released int
}

func (f *fakeAudioFrame) PTS() int64        { return NoPTS }
func (f *fakeAudioFrame) Release()          { f.Released++ }
func (f *fakeAudioFrame) SampleCount() int  { return f.Samples }
func (f *fakeAudioFrame) ChannelCount() int { return f.Channels }
func (f *fakeAudioFrame) SampleRate() int   { return 44100 }

type fakeResampler struct {
	pending int
	Closed  bool
}

func (r *fakeResampler) OutSamples(frame AudioFrame) int { return frame.SampleCount() }

func (r *fakeResampler) Convert(ctx context.Context, frame AudioFrame, dst []byte) (int, error) {
	fill := frame.(*fakeAudioFrame).Fill
	for idx := range dst {
		dst[idx] = fill
	}
	return len(dst), nil
}

func (r *fakeResampler) Pending() int { return r.pending }

func (r *fakeResampler) Close() error {
	r.Closed = true
	return nil
}

type fakeVideoFrame struct {
	W, H     int
	Format   PixelFormat
	Data     []Plane
	Released int
}

func (f *fakeVideoFrame) PTS() int64               { return 0 }
func (f *fakeVideoFrame) Release()                 { f.Released++ }
func (f *fakeVideoFrame) Width() int               { return f.W }
func (f *fakeVideoFrame) Height() int              { return f.H }
func (f *fakeVideoFrame) PixelFormat() PixelFormat { return f.Format }
func (f *fakeVideoFrame) Planes() ([]Plane, error) { return f.Data, nil }

// newFilledFrame returns a yuv420p frame with planes Y, U, V filled with 1, 2, 3.
func newFilledFrame(w, h int) *fakeVideoFrame {
	fill := func(stride, rows int, v byte) Plane {
		data := make([]byte, stride*rows)
		for idx := range data {
			data[idx] = v
		}
		return Plane{Data: data, Stride: stride}
	}
	cw, ch := (w+1)/2, (h+1)/2
	return &fakeVideoFrame{
		W: w, H: h,
		Format: PixelFormatYUV420P,
		Data:   []Plane{fill(w, h, 1), fill(cw, ch, 2), fill(cw, ch, 3)},
	}
}

type fakeScaler struct {
	Request ScaleRequest
	Calls   int
	Closed  bool
}

func (s *fakeScaler) Scale(ctx context.Context, frame VideoFrame) ([]Plane, error) {
	s.Calls++
	return newFilledFrame(s.Request.TargetWidth, s.Request.TargetHeight).Data, nil
}

func (s *fakeScaler) Close() error {
	s.Closed = true
	return nil
}

type fakeSurface struct {
	id       SurfaceID
	Acquired int
	Released int
	Geometry [][2]int
	Buffer   SurfaceBuffer
	LockErrs []error
	Posted   int
}

func (s *fakeSurface) ID() SurfaceID { return s.id }

func (s *fakeSurface) Acquire(ctx context.Context) error {
	s.Acquired++
	return nil
}

func (s *fakeSurface) SetGeometry(ctx context.Context, width, height int, format SurfaceFormat) error {
	if format != SurfaceFormatYV12 {
		return fmt.Errorf("unexpected format %s", format)
	}
	s.Geometry = append(s.Geometry, [2]int{width, height})
	stride := align(width, 32)
	layout := NewYV12Layout(stride, height, height)
	s.Buffer = SurfaceBuffer{
		Bits:   make([]byte, layout.Size),
		Width:  width,
		Height: height,
		Stride: stride,
	}
	return nil
}

func (s *fakeSurface) Lock(ctx context.Context) (SurfaceBuffer, error) {
	if len(s.LockErrs) > 0 {
		err := s.LockErrs[0]
		s.LockErrs = s.LockErrs[1:]
		if err != nil {
			return SurfaceBuffer{}, err
		}
	}
	return s.Buffer, nil
}

func (s *fakeSurface) UnlockAndPost(ctx context.Context) error {
	s.Posted++
	return nil
}

func (s *fakeSurface) Release(ctx context.Context) {
	s.Released++
}
