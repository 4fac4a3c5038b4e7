package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/beatdrop-go"
	"github.com/cbegin/beatdrop-go/internal/waveform"
)

func main() {
	var (
		out        = flag.String("out", "clicks.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		duration   = flag.Duration("duration", 30*time.Second, "track length")
		bpm        = flag.Float64("bpm", 120, "click tempo when -beats is empty")
		beatList   = flag.String("beats", "", "comma-separated click times in ms, overrides -bpm")
	)
	flag.Parse()

	beats, err := resolveBeats(*beatList, *bpm, *duration)
	if err != nil {
		log.Fatal(err)
	}
	frames := beatdrop.RenderClickTrack(beats, *duration, *sampleRate)
	if err := waveform.WriteFile(*out, frames, *sampleRate); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s: %d clicks, %d frames\n", *out, len(beats), len(frames))
}

func resolveBeats(list string, bpm float64, duration time.Duration) ([]int, error) {
	if strings.TrimSpace(list) == "" {
		return beatdrop.MetronomeScript(bpm, duration), nil
	}
	var out []int
	for _, f := range strings.Split(list, ",") {
		ms, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("invalid -beats entry %q: %v", f, err)
		}
		if ms < 0 || time.Duration(ms)*time.Millisecond >= duration {
			return nil, fmt.Errorf("beat %dms outside track of %s", ms, duration)
		}
		out = append(out, ms)
	}
	return out, nil
}
