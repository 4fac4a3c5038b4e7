package audio

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cbegin/beatdrop-go/internal/device"
	"github.com/cbegin/beatdrop-go/internal/waveform"
)

var errClosed = errors.New("audio: backend closed")

// DefaultLatency sizes the frame ring: the tick loop must refill it at least
// this often to avoid gaps.
const DefaultLatency = 100 * time.Millisecond

const drainPoll = 5 * time.Millisecond

// sink holds the behaviour shared by every ring-fed backend. The concrete
// backend owns the driver that empties the ring.
type sink struct {
	ring    *FrameRing
	format  device.Format
	latency time.Duration
	closed  bool
	log     *slog.Logger
}

func (s *sink) init(f device.Format, latency time.Duration) {
	s.format = f
	s.latency = latency
	s.ring = NewFrameRing(int(int64(f.SampleRate) * int64(latency) / int64(time.Second)))
}

func (s *sink) Avail() (int, error) {
	if s.closed {
		return 0, errClosed
	}
	if s.ring == nil {
		return 0, device.ErrWouldBlock
	}
	return s.ring.Free(), nil
}

func (s *sink) WriteFrames(frames []waveform.Frame) (int, error) {
	if s.closed {
		return 0, errClosed
	}
	if s.ring == nil {
		return 0, device.ErrWouldBlock
	}
	return s.ring.Write(frames), nil
}

// report logs the ring's playback counters. Silence inserted after playback
// started is audible, so it is a warning.
func (s *sink) report() {
	if s.ring == nil {
		return
	}
	log := s.log
	if log == nil {
		log = slog.Default()
	}
	played, silent := s.ring.Played(), s.ring.Underrun()
	if silent > 0 {
		log.Warn("audio underrun", "played", played, "silentFrames", silent)
		return
	}
	log.Debug("audio played", "frames", played)
}

func (s *sink) reset() {
	if s.ring != nil {
		s.ring.Reset()
	}
}

// drain waits for the ring to empty, then for one more latency period so the
// driver's own buffer reaches the speaker.
func (s *sink) drain(ctx context.Context, tick func()) error {
	if s.ring == nil {
		return nil
	}
	t := time.NewTicker(drainPoll)
	defer t.Stop()
	for s.ring.Buffered() > 0 {
		if tick != nil {
			tick()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.latency):
		return nil
	}
}
