package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbegin/beatdrop-go/internal/device"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
)

// sharedAudioContext returns the process-wide Ebitengine audio context,
// creating it at sampleRate on first use. Later callers get the existing
// context and must read its rate back.
func sharedAudioContext(sampleRate int) *ebitaudio.Context {
	audioContextOnce.Do(func() {
		if c := ebitaudio.CurrentContext(); c != nil {
			audioContext = c
			return
		}
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	return audioContext
}

// ebitenBackend plays through the Ebitengine audio context, the same one
// an Ebitengine game uses for its own sounds.
type ebitenBackend struct {
	sink
	player *ebitaudio.Player
}

func newEbitenBackend() *ebitenBackend { return &ebitenBackend{} }

func (b *ebitenBackend) Configure(want device.Format) (device.Format, error) {
	if want.Channels != 2 || want.BitDepth != 16 {
		return device.Format{}, fmt.Errorf("ebiten: only 16-bit stereo is supported, got %d ch %d bit", want.Channels, want.BitDepth)
	}
	ctx := sharedAudioContext(want.SampleRate)
	got := want
	got.SampleRate = ctx.SampleRate()
	b.init(got, DefaultLatency)

	pl, err := ctx.NewPlayer(b.ring)
	if err != nil {
		return device.Format{}, err
	}
	pl.SetBufferSize(b.latency)
	b.player = pl
	return got, nil
}

func (b *ebitenBackend) Reset() error {
	if b.player == nil {
		return errClosed
	}
	b.player.Pause()
	b.reset()
	b.player.Play()
	return nil
}

func (b *ebitenBackend) Drain(ctx context.Context) error {
	return b.drain(ctx, nil)
}

func (b *ebitenBackend) Close() error {
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
