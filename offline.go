package beatdrop

import (
	"time"

	intonset "github.com/cbegin/beatdrop-go/internal/onset"
	intwave "github.com/cbegin/beatdrop-go/internal/waveform"
)

const (
	clickAmplitude = 20000
	clickHalfWidth = time.Millisecond
)

// RenderClickTrack synthesizes a stereo buffer of the given duration with a
// short triangular click centred on each beat. Each click is a single strict
// amplitude peak, so extraction recovers the script to within a millisecond
// as long as there are no more beats than the extraction target.
func RenderClickTrack(beats []int, duration time.Duration, sampleRate int) []intwave.Frame {
	n := int(int64(duration) * int64(sampleRate) / int64(time.Second))
	out := make([]intwave.Frame, max(n, 0))
	w := max(int(int64(clickHalfWidth)*int64(sampleRate)/int64(time.Second)), 1)
	for _, ms := range beats {
		centre := int(int64(ms) * int64(sampleRate) / 1000)
		for i := max(centre-w+1, 0); i < min(centre+w, len(out)); i++ {
			d := i - centre
			if d < 0 {
				d = -d
			}
			v := int16(clickAmplitude * (w - d) / w)
			if v > out[i].Left {
				out[i] = intwave.Frame{Left: v, Right: v}
			}
		}
	}
	return out
}

// MetronomeScript returns beats at a fixed tempo covering duration.
func MetronomeScript(bpm float64, duration time.Duration) []int {
	if bpm <= 0 {
		return []int{}
	}
	return intonset.Metronome(duration, time.Duration(float64(time.Minute)/bpm))
}

// ExtractBeats runs peak extraction over frames without a session or device.
func ExtractBeats(frames []intwave.Frame, sampleRate int, target int) []int {
	return intonset.Extract(frames, intonset.Config{SampleRate: sampleRate, Target: target})
}
