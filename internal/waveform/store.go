package waveform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	// HeaderSize is the length of the container header skipped by Load.
	HeaderSize = 44
	// FrameSize is the width in bytes of one interleaved S16LE stereo frame.
	FrameSize = 4
)

var (
	ErrSizeMismatch = errors.New("waveform: payload is not a whole number of frames")
	ErrIOFailure    = errors.New("waveform: read failed")
)

// Frame is one sample instant across both channels.
type Frame struct {
	Left  int16
	Right int16
}

// Store owns a decoded sample buffer and the playback cursor into it.
// The buffer is immutable once loaded; only the cursor moves.
type Store struct {
	frames []Frame
	cursor int
}

func NewStore() *Store {
	return &Store{}
}

// Load replaces the buffer with the frames of the file at path and rewinds
// the cursor. The 44-byte header is skipped without inspection. On error the
// previous buffer and cursor are kept.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	size := fi.Size()
	if size < HeaderSize {
		return fmt.Errorf("%w: %s is %d bytes, shorter than the %d-byte header", ErrIOFailure, path, size, HeaderSize)
	}
	if (size-HeaderSize)%FrameSize != 0 {
		return fmt.Errorf("%w: %s has %d payload bytes", ErrSizeMismatch, path, size-HeaderSize)
	}

	if _, err := f.Seek(HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	data := make([]byte, size-HeaderSize)
	if _, err := io.ReadFull(f, data); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	frames, err := DecodeFrames(data)
	if err != nil {
		return err
	}
	s.LoadFrames(frames)
	return nil
}

// LoadFrames installs an in-memory buffer and rewinds the cursor.
func (s *Store) LoadFrames(frames []Frame) {
	s.frames = frames
	s.cursor = 0
}

// DecodeFrames converts raw interleaved S16LE stereo bytes into frames.
func DecodeFrames(data []byte) ([]Frame, error) {
	if len(data)%FrameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeMismatch, len(data))
	}
	frames := make([]Frame, len(data)/FrameSize)
	for i := range frames {
		b := data[i*FrameSize:]
		frames[i] = Frame{
			Left:  int16(binary.LittleEndian.Uint16(b[0:2])),
			Right: int16(binary.LittleEndian.Uint16(b[2:4])),
		}
	}
	return frames, nil
}

// Rewind starts a new pass over the same buffer, as a reload would.
func (s *Store) Rewind() { s.cursor = 0 }

func (s *Store) HasRemaining() bool { return s.cursor < len(s.frames) }

// Advance moves the cursor forward by n frames, never past the end.
func (s *Store) Advance(n int) {
	if n <= 0 {
		return
	}
	s.cursor = min(s.cursor+n, len(s.frames))
}

func (s *Store) RemainingFrames() int { return len(s.frames) - s.cursor }

// RawView returns frames [start, start+count). The range is not checked;
// callers must keep it within Len.
func (s *Store) RawView(start, count int) []Frame {
	return s.frames[start : start+count]
}

func (s *Store) Len() int    { return len(s.frames) }
func (s *Store) Cursor() int { return s.cursor }

// Frames exposes the whole buffer for analysis. Callers must not modify it.
func (s *Store) Frames() []Frame { return s.frames }

// Duration reports the buffer length in time at the given sample rate.
func (s *Store) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.frames)) * time.Second / time.Duration(sampleRate)
}
