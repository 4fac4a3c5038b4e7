package schedule

import (
	"log/slog"
	"time"
)

// DefaultSpeed is the cue travel speed in path lengths per second.
const DefaultSpeed = 0.5

type Option func(*Scheduler)

// WithSpeed sets the cue travel speed; the lead time is the time a cue needs
// to cross its whole path. Non-positive speeds are ignored.
func WithSpeed(speed float64) Option {
	return func(s *Scheduler) {
		if speed > 0 {
			s.lead = leadFor(speed)
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// Scheduler turns a static beat script into per-tick due counts. Elapsed time
// is kept as an integer duration so splitting one advance into several with
// the same total yields identical results.
type Scheduler struct {
	script     []int
	lead       time.Duration
	elapsed    time.Duration
	next       int
	denseTicks int
	log        *slog.Logger
}

func New(script []int, opts ...Option) *Scheduler {
	s := &Scheduler{
		script: script,
		lead:   leadFor(DefaultSpeed),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func leadFor(speed float64) time.Duration {
	return time.Duration(float64(time.Second) / speed)
}

// Advance adds delta to the elapsed time and returns how many beats became
// due, i.e. how many cues must be spawned this tick. Negative deltas are
// ignored.
func (s *Scheduler) Advance(delta time.Duration) int {
	if delta > 0 {
		s.elapsed += delta
	}
	start := s.next
	for s.next < len(s.script) && s.elapsed >= s.beatAt(s.next)-s.lead {
		s.next++
	}
	due := s.next - start
	if due > 1 {
		s.denseTicks++
		s.log.Warn("beat script denser than tick rate",
			"due", due,
			"elapsed", s.elapsed,
			"next", s.next,
		)
	}
	return due
}

func (s *Scheduler) beatAt(i int) time.Duration {
	return time.Duration(s.script[i]) * time.Millisecond
}

// Upcoming returns the timestamps of beats already spawned whose target time
// lies within window after the current elapsed time.
func (s *Scheduler) Upcoming(window time.Duration) []int {
	var out []int
	for i := s.next - 1; i >= 0; i-- {
		at := s.beatAt(i)
		if at < s.elapsed {
			break
		}
		if at-s.elapsed <= window {
			out = append(out, s.script[i])
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// Reset rewinds to the start of the script.
func (s *Scheduler) Reset() {
	s.elapsed = 0
	s.next = 0
	s.denseTicks = 0
}

func (s *Scheduler) Lead() time.Duration    { return s.lead }
func (s *Scheduler) Elapsed() time.Duration { return s.elapsed }
func (s *Scheduler) Next() int              { return s.next }
func (s *Scheduler) Len() int               { return len(s.script) }
func (s *Scheduler) Done() bool             { return s.next >= len(s.script) }

// DenseTicks counts advances that released more than one beat at once.
func (s *Scheduler) DenseTicks() int { return s.denseTicks }
