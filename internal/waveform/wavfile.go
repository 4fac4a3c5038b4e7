package waveform

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info is what the container header claims about its payload. Load never
// trusts it; it is reported so callers can warn about mismatched material.
type Info struct {
	Valid      bool
	SampleRate int
	Channels   int
	BitDepth   int
	Format     int
}

// Probe reads the RIFF/WAVE header of path. A file that is not a WAV
// container is not an error; Valid is false.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, nil
	}
	return Info{
		Valid:      true,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     int(dec.WavAudioFormat),
	}, nil
}

// Matches reports whether the header describes the layout Load assumes.
func (i Info) Matches(sampleRate int) bool {
	return i.Valid && i.Format == 1 && i.Channels == 2 && i.BitDepth == 16 && i.SampleRate == sampleRate
}

// WriteFile writes frames as a canonical 16-bit stereo PCM WAV whose header
// is exactly HeaderSize bytes, so the result is loadable by Store.Load.
func WriteFile(path string, frames []Frame, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(frames)*2),
		SourceBitDepth: 16,
	}
	for i, fr := range frames {
		buf.Data[2*i] = int(fr.Left)
		buf.Data[2*i+1] = int(fr.Right)
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
