package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

var (
	ErrOpenFailure           = errors.New("device: open failed")
	ErrConfigurationRejected = errors.New("device: configuration rejected")
	ErrNotOpen               = errors.New("device: stream is not open")
	ErrNotPrepared           = errors.New("device: stream is not prepared")
	// ErrWouldBlock is returned by a Backend that cannot accept frames right
	// now. Stream treats it as a zero-frame write.
	ErrWouldBlock = errors.New("device: write would block")
)

// Format describes an interleaved signed little-endian PCM layout.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is the layout every backend is asked for.
var DefaultFormat = Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

// Backend is a playback device that accepts frames without blocking.
type Backend interface {
	// Configure applies the requested format and returns what the device
	// actually uses. Devices may substitute the nearest supported rate.
	Configure(want Format) (Format, error)
	// Avail reports how many frames can be written right now.
	Avail() (int, error)
	// WriteFrames queues frames and reports how many were accepted.
	WriteFrames(frames []waveform.Frame) (int, error)
	// Reset discards queued frames and readies the device for a new stream.
	Reset() error
	// Drain blocks until every queued frame has been played.
	Drain(ctx context.Context) error
	Close() error
}

// Opener acquires the backend registered under name.
type Opener func(name string) (Backend, error)

type Option func(*Stream)

func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.log = l
		}
	}
}

func WithFormat(f Format) Option {
	return func(s *Stream) {
		s.want = f
	}
}

// Stream feeds the frames of a Store to a Backend, one non-blocking write
// per call, and moves the store's cursor by what the device took.
type Stream struct {
	store    *waveform.Store
	open     Opener
	backend  Backend
	want     Format
	format   Format
	prepared bool
	log      *slog.Logger
}

func NewStream(store *waveform.Store, open Opener, opts ...Option) *Stream {
	s := &Stream{
		store: store,
		open:  open,
		want:  DefaultFormat,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open acquires and configures the named device. A stream that is already
// open is closed first.
func (s *Stream) Open(name string) error {
	if err := s.Close(); err != nil {
		s.log.Warn("closing previous device", "err", err)
	}
	b, err := s.open(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenFailure, name, err)
	}
	got, err := b.Configure(s.want)
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			s.log.Warn("closing rejected device", "device", name, "err", cerr)
		}
		return fmt.Errorf("%w: %s: %w", ErrConfigurationRejected, name, err)
	}
	if got.Channels != s.want.Channels || got.BitDepth != s.want.BitDepth {
		if cerr := b.Close(); cerr != nil {
			s.log.Warn("closing rejected device", "device", name, "err", cerr)
		}
		return fmt.Errorf("%w: %s: got %d ch %d bit", ErrConfigurationRejected, name, got.Channels, got.BitDepth)
	}
	if got.SampleRate != s.want.SampleRate {
		s.log.Info("device substituted sample rate", "device", name, "requested", s.want.SampleRate, "rate", got.SampleRate)
	}
	s.backend = b
	s.format = got
	s.log.Debug("device open", "device", name, "rate", got.SampleRate)
	return nil
}

// Prepare resets the device for a fresh pass over the store. It must be
// called before the first WriteNext.
func (s *Stream) Prepare() error {
	if s.backend == nil {
		return ErrNotOpen
	}
	if err := s.backend.Reset(); err != nil {
		return fmt.Errorf("device: prepare: %w", err)
	}
	s.prepared = true
	return nil
}

// WriteNext hands the device as many remaining frames as it can take right
// now, keeping one frame of slack under the reported capacity, and returns
// the number of frames written.
func (s *Stream) WriteNext() (int, error) {
	if s.backend == nil {
		return 0, ErrNotOpen
	}
	if !s.prepared {
		return 0, ErrNotPrepared
	}
	avail, err := s.backend.Avail()
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return 0, nil
		}
		return 0, fmt.Errorf("device: avail: %w", err)
	}
	n := min(avail-1, s.store.RemainingFrames())
	if n <= 0 {
		return 0, nil
	}
	written, err := s.backend.WriteFrames(s.store.RawView(s.store.Cursor(), n))
	if err != nil {
		if errors.Is(err, ErrWouldBlock) {
			return 0, nil
		}
		return 0, fmt.Errorf("device: write: %w", err)
	}
	written = max(0, min(written, n))
	s.store.Advance(written)
	return written, nil
}

// Drain blocks until the device has played everything queued. It is meant
// for play-to-completion use, never for a per-frame loop.
func (s *Stream) Drain(ctx context.Context) error {
	if s.backend == nil {
		return ErrNotOpen
	}
	return s.backend.Drain(ctx)
}

// Close releases the device. It is safe on a stream that never opened.
func (s *Stream) Close() error {
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	s.prepared = false
	s.format = Format{}
	return err
}

func (s *Stream) IsOpen() bool { return s.backend != nil }

// SampleRate is the rate negotiated with the device, 0 when closed.
func (s *Stream) SampleRate() int { return s.format.SampleRate }

func (s *Stream) Format() Format { return s.format }
