package onset

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

func framesFromLeft(left []int16) []waveform.Frame {
	out := make([]waveform.Frame, len(left))
	for i, v := range left {
		out[i] = waveform.Frame{Left: v, Right: -v}
	}
	return out
}

func TestExtractShortBufferIsEmpty(t *testing.T) {
	for n := 0; n < 3; n++ {
		got := Extract(framesFromLeft(make([]int16, n)), DefaultConfig())
		if got == nil || len(got) != 0 {
			t.Fatalf("n=%d: got %v, want empty non-nil", n, got)
		}
	}
}

func TestExtractSinglePeakAtHalfSecond(t *testing.T) {
	const n = 44100
	const peak = 22050
	left := make([]int16, n)
	for i := range left {
		if i <= peak {
			left[i] = int16(i - peak + 10000)
		} else {
			left[i] = int16(10000 - (i - peak))
		}
	}
	got := Extract(framesFromLeft(left), DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("got %d timestamps (%v), want 1", len(got), got)
	}
	if got[0] < 499 || got[0] > 501 {
		t.Fatalf("timestamp = %dms, want ~500ms", got[0])
	}
}

func TestExtractMonotonicSignalCollapsesToEmpty(t *testing.T) {
	cases := []struct {
		name string
		gen  func(i int) int16
	}{
		{name: "rising", gen: func(i int) int16 { return int16(i) }},
		{name: "falling", gen: func(i int) int16 { return int16(-i) }},
		{name: "constant", gen: func(int) int16 { return 1234 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			left := make([]int16, 5000)
			for i := range left {
				left[i] = tc.gen(i)
			}
			got, st := ExtractWithStats(framesFromLeft(left), DefaultConfig())
			if len(got) != 0 {
				t.Fatalf("got %v, want empty", got)
			}
			if st.Passes != 1 {
				t.Fatalf("passes = %d, want 1", st.Passes)
			}
		})
	}
}

func TestExtractConvergesOnNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{3, 501, 44100, 200000} {
		left := make([]int16, n)
		for i := range left {
			left[i] = int16(rng.Intn(65536) - 32768)
		}
		cfg := DefaultConfig()
		got := Extract(framesFromLeft(left), cfg)
		if len(got) > cfg.Target {
			t.Fatalf("n=%d: %d timestamps exceeds target %d", n, len(got), cfg.Target)
		}
		totalMs := float64(n) / float64(cfg.SampleRate) * 1000
		for i, v := range got {
			if v < 0 || float64(v) >= totalMs {
				t.Fatalf("n=%d: timestamp %d out of [0, %.1f)", n, v, totalMs)
			}
			if i > 0 && v < got[i-1] {
				t.Fatalf("n=%d: timestamps not ordered at %d: %v", n, i, got[i-1:i+1])
			}
		}
	}
}

func TestExtractHonoursTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	left := make([]int16, 50000)
	for i := range left {
		left[i] = int16(rng.Intn(20000))
	}
	for _, target := range []int{0, 1, 10, 100} {
		got := Extract(framesFromLeft(left), Config{SampleRate: 44100, Target: target})
		if len(got) > target {
			t.Fatalf("target %d: got %d timestamps", target, len(got))
		}
	}
}

func TestExtractUsesLeftChannelOnly(t *testing.T) {
	frames := []waveform.Frame{
		{Left: 0, Right: 9000},
		{Left: 5, Right: -9000},
		{Left: 0, Right: 9000},
		{Left: 0, Right: -9000},
		{Left: 0, Right: 9000},
	}
	got, st := ExtractWithStats(frames, Config{SampleRate: 1000, Target: 1})
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
	if st.Peaks != 1 {
		t.Fatalf("peaks = %d, want 1", st.Peaks)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	left := make([]int16, 30000)
	for i := range left {
		left[i] = int16(rng.Intn(65536) - 32768)
	}
	frames := framesFromLeft(left)
	a := Extract(frames, DefaultConfig())
	b := Extract(frames, DefaultConfig())
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestMetronome(t *testing.T) {
	got := Metronome(3500*time.Millisecond, time.Second)
	want := []int{1000, 2000, 3000}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if len(Metronome(time.Second, 0)) != 0 {
		t.Fatalf("zero interval should yield empty script")
	}
}
