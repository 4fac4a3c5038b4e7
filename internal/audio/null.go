package audio

import (
	"context"
	"time"

	"github.com/cbegin/beatdrop-go/internal/device"
)

// nullBackend consumes frames at the negotiated rate in wall-clock time
// without touching any hardware. It lets the whole pipeline run headless.
type nullBackend struct {
	sink
	now  func() time.Time
	last time.Time
	owed time.Duration // consumed time not yet worth a whole frame
}

func newNullBackend(now func() time.Time) *nullBackend {
	if now == nil {
		now = time.Now
	}
	return &nullBackend{now: now}
}

func (b *nullBackend) Configure(want device.Format) (device.Format, error) {
	b.init(want, DefaultLatency)
	b.last = b.now()
	return want, nil
}

// consume plays out whatever the elapsed time since the last call covers.
func (b *nullBackend) consume() {
	if b.ring == nil {
		return
	}
	now := b.now()
	b.owed += now.Sub(b.last)
	b.last = now
	frames := int(int64(b.owed) * int64(b.format.SampleRate) / int64(time.Second))
	if frames <= 0 {
		return
	}
	b.owed -= time.Duration(int64(frames) * int64(time.Second) / int64(b.format.SampleRate))
	if b.ring.Discard(frames) < frames {
		b.owed = 0
	}
}

func (b *nullBackend) Avail() (int, error) {
	b.consume()
	return b.sink.Avail()
}

func (b *nullBackend) Reset() error {
	if b.closed {
		return errClosed
	}
	b.reset()
	b.last = b.now()
	b.owed = 0
	return nil
}

func (b *nullBackend) Drain(ctx context.Context) error {
	return b.drain(ctx, b.consume)
}

func (b *nullBackend) Close() error {
	if !b.closed {
		b.closed = true
		b.report()
	}
	return nil
}
