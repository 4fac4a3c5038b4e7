package onset

import (
	"math"
	"testing"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

func BenchmarkExtractThreeMinutes(b *testing.B) {
	const n = 44100 * 180
	frames := make([]waveform.Frame, n)
	for i := range frames {
		env := math.Abs(math.Sin(float64(i) * 2 * math.Pi / 22050))
		v := int16(env * 20000 * math.Sin(float64(i)*2*math.Pi*220/44100))
		frames[i] = waveform.Frame{Left: v, Right: v}
	}
	cfg := DefaultConfig()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Extract(frames, cfg)
	}
}
