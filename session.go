package beatdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/go-homedir"

	intaudio "github.com/cbegin/beatdrop-go/internal/audio"
	intdev "github.com/cbegin/beatdrop-go/internal/device"
	intonset "github.com/cbegin/beatdrop-go/internal/onset"
	intsched "github.com/cbegin/beatdrop-go/internal/schedule"
	intwave "github.com/cbegin/beatdrop-go/internal/waveform"
)

// Errors surfaced by Session. Load and device errors wrap these; match them
// with errors.Is.
var (
	ErrSizeMismatch          = intwave.ErrSizeMismatch
	ErrIOFailure             = intwave.ErrIOFailure
	ErrOpenFailure           = intdev.ErrOpenFailure
	ErrConfigurationRejected = intdev.ErrConfigurationRejected
	ErrNotStarted            = errors.New("beatdrop: playback not started")
)

// TickResult is what the presentation layer consumes once per tick.
type TickResult struct {
	Due       int  // beats whose cue must be spawned this tick
	Remaining bool // samples still waiting to be handed to the device
	Written   int  // frames handed to the device this tick
	// Dense is set when more than one beat fell due in this tick: the
	// script is denser than the tick rate and cues will overlap.
	Dense bool
}

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	sampleRate int
	speed      float64
	peaks      int
	metronome  time.Duration
	opener     intdev.Opener
	logger     *slog.Logger
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		sampleRate: intonset.DefaultSampleRate,
		speed:      intsched.DefaultSpeed,
		peaks:      intonset.DefaultTarget,
		opener:     intaudio.Open,
		logger:     slog.Default(),
	}
}

// WithSampleRate sets the rate the input files were recorded at. It is also
// the rate requested from the device.
func WithSampleRate(rate int) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.sampleRate = rate
	}
}

// WithSpeed sets the cue travel speed in path lengths per second. The
// scheduler spawns each cue 1/speed seconds ahead of its beat.
func WithSpeed(speed float64) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.speed = speed
	}
}

// WithPeakTarget sets how many beats extraction may leave at most.
func WithPeakTarget(n int) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.peaks = n
	}
}

// WithMetronome replaces peak extraction with a fixed beat interval.
func WithMetronome(interval time.Duration) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.metronome = interval
	}
}

// WithOpener overrides how device names are turned into backends.
func WithOpener(open intdev.Opener) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.opener = open
	}
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// Session owns one playback: the waveform, its beat script, the scheduler
// and the output device. It is driven from a single goroutine.
type Session struct {
	cfg     sessionConfig
	store   *intwave.Store
	stream  *intdev.Stream
	sched   *intsched.Scheduler
	beats   []int
	started bool
	log     *slog.Logger
}

func NewSession(opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if cfg.speed <= 0 {
		return nil, errors.New("speed must be positive")
	}
	if cfg.opener == nil {
		return nil, errors.New("device opener must not be nil")
	}
	store := intwave.NewStore()
	s := &Session{
		cfg:   cfg,
		store: store,
		stream: intdev.NewStream(store, cfg.opener,
			intdev.WithLogger(cfg.logger),
			intdev.WithFormat(intdev.Format{SampleRate: cfg.sampleRate, Channels: 2, BitDepth: 16}),
		),
		log: cfg.logger,
	}
	s.arm(nil)
	return s, nil
}

// Load reads the waveform at path and computes its beat script. A leading
// ~ in path is expanded. Nothing about the session changes if it fails.
func (s *Session) Load(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if info, err := intwave.Probe(path); err == nil && info.Valid && !info.Matches(s.cfg.sampleRate) {
		s.log.Warn("header disagrees with assumed layout; loading as raw frames",
			"path", path,
			"headerRate", info.SampleRate,
			"headerChannels", info.Channels,
			"headerBits", info.BitDepth,
			"rate", s.cfg.sampleRate,
		)
	}
	if err := s.store.Load(path); err != nil {
		return err
	}
	s.log.Debug("waveform loaded", "path", path, "frames", s.store.Len())
	s.analyze()
	return nil
}

// LoadFrames installs an in-memory waveform and computes its beat script.
func (s *Session) LoadFrames(frames []intwave.Frame) {
	s.store.LoadFrames(frames)
	s.analyze()
}

func (s *Session) analyze() {
	var beats []int
	if s.cfg.metronome > 0 {
		beats = intonset.Metronome(s.store.Duration(s.cfg.sampleRate), s.cfg.metronome)
		s.log.Debug("metronome script", "interval", s.cfg.metronome, "beats", len(beats))
	} else {
		var st intonset.Stats
		beats, st = intonset.ExtractWithStats(s.store.Frames(), intonset.Config{
			SampleRate: s.cfg.sampleRate,
			Target:     s.cfg.peaks,
		})
		s.log.Debug("beats extracted", "passes", st.Passes, "beats", st.Peaks)
	}
	s.arm(beats)
}

func (s *Session) arm(beats []int) {
	if beats == nil {
		beats = []int{}
	}
	s.beats = beats
	s.sched = intsched.New(beats, intsched.WithSpeed(s.cfg.speed), intsched.WithLogger(s.log))
	s.started = false
}

// OpenDevice acquires the named output device. Failure leaves analysis
// results intact. On a started session the device is prepared right away and
// playback resumes from the current position.
func (s *Session) OpenDevice(name string) error {
	if err := s.stream.Open(name); err != nil {
		return err
	}
	if rate := s.stream.SampleRate(); rate != s.cfg.sampleRate {
		s.log.Warn("device rate differs from waveform rate; playback pitch will shift",
			"device", rate, "waveform", s.cfg.sampleRate)
	}
	if s.started {
		return s.stream.Prepare()
	}
	return nil
}

// Start rewinds the waveform and the scheduler and readies the device.
// Without an open device only the scheduler runs.
func (s *Session) Start() error {
	s.store.Rewind()
	s.sched.Reset()
	if s.stream.IsOpen() {
		if err := s.stream.Prepare(); err != nil {
			return err
		}
	}
	s.started = true
	return nil
}

// Pump performs this tick's non-blocking device write.
func (s *Session) Pump() (int, error) {
	if !s.started {
		return 0, ErrNotStarted
	}
	if !s.stream.IsOpen() || !s.store.HasRemaining() {
		return 0, nil
	}
	return s.stream.WriteNext()
}

// Advance moves the scheduler by delta and returns the beats now due.
func (s *Session) Advance(delta time.Duration) int {
	if !s.started {
		return 0
	}
	return s.sched.Advance(delta)
}

// Tick runs one frame of the engine: a device write, then a scheduler
// advance by the time elapsed since the previous tick.
func (s *Session) Tick(delta time.Duration) (TickResult, error) {
	written, err := s.Pump()
	if err != nil {
		return TickResult{}, err
	}
	due := s.Advance(delta)
	return TickResult{
		Due:       due,
		Remaining: s.store.HasRemaining(),
		Written:   written,
		Dense:     due > 1,
	}, nil
}

// PlayAndWait streams the whole waveform and blocks until the device has
// played it. It is not meant to be mixed with Tick.
func (s *Session) PlayAndWait(ctx context.Context, poll time.Duration) error {
	if !s.stream.IsOpen() {
		return fmt.Errorf("play: %w", intdev.ErrNotOpen)
	}
	if err := s.Start(); err != nil {
		return err
	}
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	t := time.NewTicker(poll)
	defer t.Stop()
	for s.store.HasRemaining() {
		if _, err := s.stream.WriteNext(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return s.stream.Drain(ctx)
}

// Beats returns the beat script in milliseconds. Callers must not modify it.
func (s *Session) Beats() []int { return s.beats }

// Remaining reports whether samples still wait to be handed to the device.
func (s *Session) Remaining() bool { return s.store.HasRemaining() }

// Progress returns the fraction of the waveform handed to the device.
func (s *Session) Progress() float64 {
	if s.store.Len() == 0 {
		return 0
	}
	return float64(s.store.Cursor()) / float64(s.store.Len())
}

func (s *Session) Duration() time.Duration { return s.store.Duration(s.cfg.sampleRate) }

// Lead is how far ahead of its beat each cue is spawned.
func (s *Session) Lead() time.Duration { return s.sched.Lead() }

func (s *Session) Elapsed() time.Duration { return s.sched.Elapsed() }

// Upcoming lists spawned beats due within window of the current time.
func (s *Session) Upcoming(window time.Duration) []int { return s.sched.Upcoming(window) }

// DenseTicks counts ticks since Start that released more than one beat.
func (s *Session) DenseTicks() int { return s.sched.DenseTicks() }

func (s *Session) DeviceSampleRate() int { return s.stream.SampleRate() }

// Close releases the output device. Analysis results stay available.
func (s *Session) Close() error {
	s.started = false
	return s.stream.Close()
}
