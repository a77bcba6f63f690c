package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ffcodecs"
	"github.com/xaionaro-go/ffcodecs/internal"
)

// maxCarriedPackets bounds the carry-over queue; the oldest packet is
// dropped when it overflows.
const maxCarriedPackets = 8

// GrowFunc is called when the output buffer is too small. It must return
// a buffer of at least requiredSize bytes whose prefix holds the content
// of the previous buffer.
type GrowFunc func(requiredSize int) ([]byte, error)

// GrowSlice returns a GrowFunc reallocating *buf. After DecodeAudio
// returns, *buf is the buffer holding the output.
func GrowSlice(buf *[]byte) GrowFunc {
	return func(requiredSize int) ([]byte, error) {
		if requiredSize <= len(*buf) {
			return *buf, nil
		}
		if requiredSize <= cap(*buf) {
			*buf = (*buf)[:requiredSize]
			return *buf, nil
		}
		newBuf := make([]byte, requiredSize, requiredSize+requiredSize/2)
		copy(newBuf, *buf)
		*buf = newBuf
		return newBuf, nil
	}
}

type audioOutput struct {
	Buffer  []byte
	Written int
	Grow    GrowFunc
}

func (out *audioOutput) reserve(ctx context.Context, size int) error {
	required := out.Written + size
	if required <= len(out.Buffer) {
		return nil
	}
	if out.Grow == nil {
		return fmt.Errorf("output buffer is too small (%d < %d) and cannot grow", len(out.Buffer), required)
	}
	logger.Tracef(ctx, "growing the output buffer %d -> %d", len(out.Buffer), required)
	buf, err := out.Grow(required)
	if err != nil {
		return fmt.Errorf("unable to grow the output buffer to %d bytes: %w", required, err)
	}
	if len(buf) < required {
		return fmt.Errorf("the grown output buffer is too small: %d < %d", len(buf), required)
	}
	out.Buffer = buf
	return nil
}

// DecodeAudio submits one compressed packet and writes every frame the
// codec produces into out as interleaved samples of the session output
// format. It returns the number of bytes written.
//
// An empty payload is submitted as is, which puts the codec into draining
// mode. On ErrInvalidData the session is already flushed.
func (m *Manager) DecodeAudio(
	ctx context.Context,
	id SessionID,
	payload []byte,
	out []byte,
	grow GrowFunc,
) (_ret int, _err error) {
	s, err := m.getSession(ctx, id)
	if err != nil {
		return 0, err
	}
	ctx = s.ctx(ctx)
	logger.Tracef(ctx, "DecodeAudio(ctx, %d, len:%d, cap:%d)", id, len(payload), len(out))
	defer func() { logger.Tracef(ctx, "/DecodeAudio(ctx, %d, len:%d): %d %v", id, len(payload), _ret, _err) }()

	if s.Codec.Type != ffcodecs.TrackTypeAudio {
		return 0, fmt.Errorf("session %s is not an audio session: %w", s, ffcodecs.ErrOther)
	}

	output := &audioOutput{Buffer: out, Grow: grow}
	packets := append(s.CarriedPackets, payload)
	s.CarriedPackets = nil
	for idx, pkt := range packets {
		dropped, err := m.decodeAudioPacket(ctx, s, pkt, output)
		if err != nil {
			if rest := len(packets) - idx - 1; rest > 0 {
				logger.Warnf(ctx, "discarding %d queued packets after an error", rest)
			}
			return 0, err
		}
		if !dropped {
			continue
		}
		switch m.Config.Audio.ResubmitPolicy {
		case ffcodecs.ResubmitPolicyCarryOver:
			s.carry(ctx, packets[idx:])
			return output.Written, nil
		default:
			logger.Debugf(ctx, "the codec refused a packet of %d bytes twice, dropping it", len(pkt))
			s.Stats.Packets.Dropped.Add(1)
		}
	}
	return output.Written, nil
}

func (s *Session) carry(ctx context.Context, packets [][]byte) {
	for len(packets) > maxCarriedPackets {
		logger.Warnf(ctx, "carry-over queue overflow, dropping a packet of %d bytes", len(packets[0]))
		s.Stats.Packets.Dropped.Add(1)
		packets = packets[1:]
	}
	s.CarriedPackets = make([][]byte, 0, len(packets))
	for _, pkt := range packets {
		s.CarriedPackets = append(s.CarriedPackets, append([]byte(nil), pkt...))
	}
	// Only the newest payload is carried for the first time.
	s.Stats.Packets.Carried.Add(1)
	logger.Debugf(ctx, "carrying over %d packets to the next call", len(packets))
}

func (m *Manager) decodeAudioPacket(
	ctx context.Context,
	s *Session,
	payload []byte,
	output *audioOutput,
) (_dropped bool, _err error) {
	var sm submitMachine

	wouldBlock, err := m.sendAudioPacket(ctx, s, payload)
	if err != nil {
		return false, err
	}
	sm.Submitted(wouldBlock)
	sm.BeginDraining()

	for {
		frame, err := s.Decoder.ReceiveFrame(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrWouldBlock):
			if sm.OutputExhausted() != submitActionResubmit {
				return sm.Dropped(), nil
			}
			wouldBlock, err := m.sendAudioPacket(ctx, s, payload)
			if err != nil {
				return false, err
			}
			if sm.Submitted(wouldBlock) == submitActionDone {
				return sm.Dropped(), nil
			}
			sm.BeginDraining()
			continue
		case errors.Is(err, ErrMalformed):
			return false, fmt.Errorf("unable to receive a frame: %w: %w", ffcodecs.ErrInvalidData, err)
		default:
			return false, fmt.Errorf("unable to receive a frame: %w: %w", ffcodecs.ErrOther, err)
		}

		s.Stats.Frames.Received.Add(1)
		err = m.writeAudioFrame(ctx, s, frame, output)
		frame.Release()
		if err != nil {
			return false, err
		}
	}
}

// sendAudioPacket reports wouldBlock instead of an error if the codec
// input is full.
func (m *Manager) sendAudioPacket(
	ctx context.Context,
	s *Session,
	payload []byte,
) (_wouldBlock bool, _err error) {
	err := s.Decoder.SendPacket(ctx, payload, NoPTS)
	switch {
	case err == nil:
		s.Stats.Packets.Sent.Add(1)
		return false, nil
	case errors.Is(err, ErrWouldBlock):
		return true, nil
	case errors.Is(err, ErrMalformed), errors.Is(err, ErrInvalidState):
		logger.Debugf(ctx, "the codec rejected a packet, flushing: %v", err)
		s.Stats.Packets.Invalid.Add(1)
		s.Decoder.Flush(ctx)
		s.Stats.Flushes.Add(1)
		return false, fmt.Errorf("unable to send a packet: %w: %w", ffcodecs.ErrInvalidData, err)
	default:
		return false, fmt.Errorf("unable to send a packet: %w: %w", ffcodecs.ErrOther, err)
	}
}

func (m *Manager) writeAudioFrame(
	ctx context.Context,
	s *Session,
	frame Frame,
	output *audioOutput,
) error {
	audioFrame, ok := frame.(AudioFrame)
	if !ok {
		return fmt.Errorf("received a non-audio frame %T: %w", frame, ffcodecs.ErrInvalidData)
	}

	if s.Resampler == nil {
		r, err := m.Backend.NewResampler(ctx, audioFrame, s.OutputFormat)
		if err != nil {
			return fmt.Errorf("unable to initialize the resampler: %w: %w", ffcodecs.ErrOther, err)
		}
		logger.Debugf(ctx, "initialized a resampler %d Hz x %d -> %s",
			audioFrame.SampleRate(), audioFrame.ChannelCount(), s.OutputFormat)
		s.Resampler = r
	}

	required := s.Resampler.OutSamples(audioFrame) * audioFrame.ChannelCount() * s.OutputFormat.BytesPerSample()
	if err := output.reserve(ctx, required); err != nil {
		return fmt.Errorf("%w: %w", ffcodecs.ErrOther, err)
	}

	n, err := s.Resampler.Convert(ctx, audioFrame, output.Buffer[output.Written:output.Written+required])
	if err != nil {
		return fmt.Errorf("unable to convert the frame: %w: %w", ffcodecs.ErrInvalidData, err)
	}
	if pending := s.Resampler.Pending(); pending != 0 {
		return fmt.Errorf("the resampler keeps %d samples buffered: %w", pending, ffcodecs.ErrInvalidData)
	}
	internal.Assertf(ctx, n >= 0 && n <= required, "the resampler reported %d bytes written into %d", n, required)
	output.Written += n
	s.Stats.BytesWritten.Add(uint64(n))
	return nil
}
