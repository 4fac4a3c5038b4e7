package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbegin/beatdrop-go/internal/device"
	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

// sharedOtoContext creates the process-wide oto context. oto allows one
// context per process; its rate is fixed by the first caller.
func sharedOtoContext(sampleRate int) (*oto.Context, int, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   DefaultLatency,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx = ctx
		otoRate = sampleRate
	})
	return otoCtx, otoRate, otoErr
}

type otoBackend struct {
	sink
	player *oto.Player
}

func newOtoBackend() *otoBackend { return &otoBackend{} }

func (b *otoBackend) Configure(want device.Format) (device.Format, error) {
	if want.Channels != 2 || want.BitDepth != 16 {
		return device.Format{}, fmt.Errorf("oto: only 16-bit stereo is supported, got %d ch %d bit", want.Channels, want.BitDepth)
	}
	ctx, rate, err := sharedOtoContext(want.SampleRate)
	if err != nil {
		return device.Format{}, err
	}
	got := want
	got.SampleRate = rate
	b.init(got, DefaultLatency)
	b.player = ctx.NewPlayer(b.ring)
	return got, nil
}

func (b *otoBackend) Reset() error {
	if b.player == nil {
		return errClosed
	}
	b.player.Pause()
	b.reset()
	b.player.Play()
	return nil
}

func (b *otoBackend) Drain(ctx context.Context) error {
	if err := b.drain(ctx, nil); err != nil {
		return err
	}
	if b.player != nil {
		return b.player.Err()
	}
	return nil
}

func (b *otoBackend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.player == nil {
		return nil
	}
	b.player.Pause()
	b.report()
	err := b.player.Close()
	b.player = nil
	return err
}
