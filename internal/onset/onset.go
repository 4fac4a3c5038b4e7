// Package onset derives beat timestamps from a sample buffer by repeatedly
// keeping only strict local amplitude maxima until few enough remain.
//
// The analysis is deliberately coarse: it follows envelope peaks of the left
// channel, not spectral onsets. It never fails; degenerate input yields an
// empty script.
package onset

import (
	"time"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

const (
	DefaultSampleRate = 44100
	DefaultTarget     = 500
)

type Config struct {
	SampleRate int // rate the buffer was recorded at
	Target     int // stop once at most this many peaks survive
}

func DefaultConfig() Config {
	return Config{SampleRate: DefaultSampleRate, Target: DefaultTarget}
}

// Stats describes one extraction run.
type Stats struct {
	Passes int
	Peaks  int
}

// Extract returns millisecond timestamps of the dominant amplitude peaks in
// frames, in ascending order.
func Extract(frames []waveform.Frame, cfg Config) []int {
	ts, _ := ExtractWithStats(frames, cfg)
	return ts
}

func ExtractWithStats(frames []waveform.Frame, cfg Config) ([]int, Stats) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Target < 0 {
		cfg.Target = 0
	}
	if len(frames) < 3 {
		return []int{}, Stats{}
	}

	idx := make([]int, len(frames))
	for i := range idx {
		idx[i] = i
	}
	var st Stats
	for len(idx) > cfg.Target {
		n := len(idx)
		idx = filterPeaks(frames, idx)
		st.Passes++
		// Stop on an empty or non-shrinking set.
		if len(idx) == 0 || len(idx) >= n {
			break
		}
	}
	st.Peaks = len(idx)

	msPerFrame := float64(cfg.SampleRate) / 1000
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = int(float64(v) / msPerFrame)
	}
	return out, st
}

// filterPeaks compacts idx in place, keeping interior entries whose left
// channel amplitude is strictly greater than both neighbours.
func filterPeaks(frames []waveform.Frame, idx []int) []int {
	k := 0
	for i := 1; i < len(idx)-1; i++ {
		a := frames[idx[i-1]].Left
		b := frames[idx[i]].Left
		c := frames[idx[i+1]].Left
		if a < b && b > c {
			idx[k] = idx[i]
			k++
		}
	}
	return idx[:k]
}

// Metronome returns a fixed-interval script covering duration, starting one
// interval in.
func Metronome(duration, interval time.Duration) []int {
	if interval <= 0 || duration <= 0 {
		return []int{}
	}
	out := make([]int, 0, int(duration/interval))
	for t := interval; t < duration; t += interval {
		out = append(out, int(t/time.Millisecond))
	}
	return out
}
