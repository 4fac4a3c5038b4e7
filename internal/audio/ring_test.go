package audio

import (
	"encoding/binary"
	"testing"

	"github.com/cbegin/beatdrop-go/internal/waveform"
)

func TestFrameRingWriteRespectsCapacity(t *testing.T) {
	r := NewFrameRing(8)
	frames := make([]waveform.Frame, 12)
	if n := r.Write(frames); n != 8 {
		t.Fatalf("write = %d, want 8", n)
	}
	if r.Free() != 0 || r.Buffered() != 8 {
		t.Fatalf("free=%d buffered=%d, want 0 and 8", r.Free(), r.Buffered())
	}
	if n := r.Write(frames); n != 0 {
		t.Fatalf("write into full ring = %d, want 0", n)
	}
}

func TestFrameRingReadEncodesS16LE(t *testing.T) {
	r := NewFrameRing(4)
	r.Write([]waveform.Frame{{Left: 1, Right: -2}, {Left: -32768, Right: 32767}})
	p := make([]byte, 16)
	for i := range p {
		p[i] = 0xAA
	}
	n, err := r.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read n=%d err=%v", n, err)
	}
	want := []int16{1, -2, -32768, 32767, 0, 0, 0, 0}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(p[i*2:]))
		if got != w {
			t.Fatalf("sample %d = %d, want %d", i, got, w)
		}
	}
	if r.Played() != 2 {
		t.Fatalf("played = %d, want 2", r.Played())
	}
	if r.Underrun() != 2 {
		t.Fatalf("underrun = %d, want 2", r.Underrun())
	}
}

func TestFrameRingWrapsAround(t *testing.T) {
	r := NewFrameRing(3)
	r.Write([]waveform.Frame{{Left: 1}, {Left: 2}, {Left: 3}})
	p := make([]byte, 8)
	r.Read(p)
	if n := r.Write([]waveform.Frame{{Left: 4}, {Left: 5}}); n != 2 {
		t.Fatalf("write = %d, want 2", n)
	}
	p = make([]byte, 12)
	r.Read(p)
	for i, w := range []int16{3, 4, 5} {
		if got := int16(binary.LittleEndian.Uint16(p[i*4:])); got != w {
			t.Fatalf("frame %d left = %d, want %d", i, got, w)
		}
	}
}

func TestFrameRingSilenceBeforeStartIsNotUnderrun(t *testing.T) {
	r := NewFrameRing(4)
	r.Read(make([]byte, 64))
	if r.Underrun() != 0 {
		t.Fatalf("underrun = %d before any audio, want 0", r.Underrun())
	}
}

func TestFrameRingDiscardAndReset(t *testing.T) {
	r := NewFrameRing(10)
	r.Write(make([]waveform.Frame, 6))
	if n := r.Discard(4); n != 4 {
		t.Fatalf("discard = %d, want 4", n)
	}
	if n := r.Discard(10); n != 2 {
		t.Fatalf("discard = %d, want 2", n)
	}
	r.Write(make([]waveform.Frame, 3))
	r.Reset()
	if r.Buffered() != 0 || r.Played() != 0 || r.Free() != 10 {
		t.Fatalf("reset left buffered=%d played=%d free=%d", r.Buffered(), r.Played(), r.Free())
	}
}
