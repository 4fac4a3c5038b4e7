package audio

import (
	"encoding/binary"
	"sync"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

// FrameRing is a bounded frame queue between the tick loop, which writes,
// and the audio driver thread, which reads S16LE bytes through Read.
type FrameRing struct {
	mu       sync.Mutex
	buf      []waveform.Frame
	head     int // next frame to read
	size     int // frames queued
	played   int64
	underrun int64
}

func NewFrameRing(capacity int) *FrameRing {
	return &FrameRing{buf: make([]waveform.Frame, max(capacity, 1))}
}

func (r *FrameRing) Cap() int { return len(r.buf) }

// Free reports how many frames Write would accept right now.
func (r *FrameRing) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf) - r.size
}

func (r *FrameRing) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Write queues as many frames as fit and returns the count.
func (r *FrameRing) Write(frames []waveform.Frame) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(len(frames), len(r.buf)-r.size)
	tail := (r.head + r.size) % len(r.buf)
	for i := 0; i < n; i++ {
		r.buf[(tail+i)%len(r.buf)] = frames[i]
	}
	r.size += n
	return n
}

// Discard drops up to n queued frames as if they had been played.
func (r *FrameRing) Discard(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n = min(max(n, 0), r.size)
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	r.played += int64(n)
	return n
}

// Reset drops everything queued and clears the counters.
func (r *FrameRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.size = 0
	r.played = 0
	r.underrun = 0
}

// Read implements io.Reader for audio drivers expecting interleaved 16-bit
// stereo. When the queue runs dry the rest of p is silence, so the driver
// never stalls on the tick loop.
func (r *FrameRing) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / waveform.FrameSize
	n := min(frames, r.size)
	for i := 0; i < n; i++ {
		f := r.buf[(r.head+i)%len(r.buf)]
		binary.LittleEndian.PutUint16(p[i*waveform.FrameSize:], uint16(f.Left))
		binary.LittleEndian.PutUint16(p[i*waveform.FrameSize+2:], uint16(f.Right))
	}
	clear(p[n*waveform.FrameSize:])
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	r.played += int64(n)
	if n < frames && r.played > 0 {
		r.underrun += int64(frames - n)
	}
	return len(p), nil
}

func (r *FrameRing) Close() error { return nil }

// Played counts frames handed to the driver since the last Reset.
func (r *FrameRing) Played() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.played
}

// Underrun counts silent frames emitted after playback had started.
func (r *FrameRing) Underrun() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.underrun
}
