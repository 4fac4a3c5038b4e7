package schedule

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestLeadFromSpeed(t *testing.T) {
	if got := New(nil).Lead(); got != 2*time.Second {
		t.Fatalf("default lead = %v, want 2s", got)
	}
	if got := New(nil, WithSpeed(4)).Lead(); got != 250*time.Millisecond {
		t.Fatalf("lead = %v, want 250ms", got)
	}
	if got := New(nil, WithSpeed(-1)).Lead(); got != 2*time.Second {
		t.Fatalf("negative speed should keep default, got %v", got)
	}
}

func TestAdvanceAccountsForLead(t *testing.T) {
	s := New([]int{2500, 3000}, WithSpeed(1), WithLogger(quietLogger()))
	if due := s.Advance(1499 * time.Millisecond); due != 0 {
		t.Fatalf("due = %d before lead window, want 0", due)
	}
	if due := s.Advance(time.Millisecond); due != 1 {
		t.Fatalf("due = %d at t-lead, want 1", due)
	}
	if due := s.Advance(500 * time.Millisecond); due != 1 {
		t.Fatalf("due = %d, want 1", due)
	}
	if !s.Done() {
		t.Fatalf("expected scheduler to be done")
	}
}

func TestBeatsInsideLeadAreDueImmediately(t *testing.T) {
	s := New([]int{0, 100, 5000}, WithLogger(quietLogger()))
	if due := s.Advance(0); due != 2 {
		t.Fatalf("due = %d, want 2", due)
	}
}

func TestAdvanceChunkingIsInvariant(t *testing.T) {
	script := []int{0, 10, 10, 250, 400, 1000, 1001, 1002, 2500, 4000, 9000}
	cases := []struct {
		name   string
		chunks []time.Duration
	}{
		{name: "single", chunks: []time.Duration{5 * time.Second}},
		{name: "halves", chunks: []time.Duration{2500 * time.Millisecond, 2500 * time.Millisecond}},
		{name: "frames", chunks: repeat(16666667*time.Nanosecond, 300)},
		{name: "uneven", chunks: []time.Duration{1, 999 * time.Millisecond, 3*time.Second + 7, 1*time.Second - 8}},
		{name: "micro", chunks: repeat(time.Millisecond, 5000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var total time.Duration
			for _, c := range tc.chunks {
				total += c
			}
			ref := New(script, WithLogger(quietLogger()))
			wantDue := ref.Advance(total)

			s := New(script, WithLogger(quietLogger()))
			gotDue := 0
			for _, c := range tc.chunks {
				gotDue += s.Advance(c)
			}
			if gotDue != wantDue {
				t.Fatalf("cumulative due = %d, want %d", gotDue, wantDue)
			}
			if s.Next() != ref.Next() {
				t.Fatalf("next = %d, want %d", s.Next(), ref.Next())
			}
		})
	}
}

func repeat(d time.Duration, n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestAdvanceTerminates(t *testing.T) {
	s := New([]int{100, 200}, WithLogger(quietLogger()))
	if due := s.Advance(time.Minute); due != 2 {
		t.Fatalf("due = %d, want 2", due)
	}
	for i := 0; i < 10; i++ {
		if due := s.Advance(time.Duration(i+1) * time.Second); due != 0 {
			t.Fatalf("due = %d after exhaustion, want 0", due)
		}
		if s.Next() != s.Len() {
			t.Fatalf("next = %d, want %d", s.Next(), s.Len())
		}
	}
}

func TestEmptyScriptNeverDue(t *testing.T) {
	s := New([]int{})
	if s.Advance(time.Hour) != 0 || !s.Done() {
		t.Fatalf("empty script should be done and never due")
	}
}

func TestNegativeDeltaIgnored(t *testing.T) {
	s := New([]int{3000}, WithLogger(quietLogger()))
	s.Advance(500 * time.Millisecond)
	s.Advance(-time.Second)
	if s.Elapsed() != 500*time.Millisecond {
		t.Fatalf("elapsed = %v, want 500ms", s.Elapsed())
	}
}

func TestDenseTickIsLoggedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	s := New([]int{2000, 2001, 2002, 6000}, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if due := s.Advance(10 * time.Millisecond); due != 3 {
		t.Fatalf("due = %d, want 3", due)
	}
	if s.DenseTicks() != 1 {
		t.Fatalf("dense ticks = %d, want 1", s.DenseTicks())
	}
	if !strings.Contains(buf.String(), "denser than tick rate") {
		t.Fatalf("expected warning in log, got %q", buf.String())
	}
	if due := s.Advance(4 * time.Second); due != 1 {
		t.Fatalf("due = %d after dense tick, want 1", due)
	}
}

func TestUpcoming(t *testing.T) {
	s := New([]int{1000, 1500, 1800, 4000}, WithLogger(quietLogger()))
	s.Advance(0)
	got := s.Upcoming(time.Second)
	want := []int{1000}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("upcoming = %v, want %v", got, want)
	}
	s.Advance(900 * time.Millisecond)
	got = s.Upcoming(time.Second)
	want = []int{1000, 1500, 1800}
	if len(got) != len(want) {
		t.Fatalf("upcoming = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("upcoming = %v, want %v", got, want)
		}
	}
}

func TestReset(t *testing.T) {
	s := New([]int{100}, WithLogger(quietLogger()))
	s.Advance(time.Second)
	s.Reset()
	if s.Next() != 0 || s.Elapsed() != 0 || s.Done() {
		t.Fatalf("reset did not rewind: next=%d elapsed=%v", s.Next(), s.Elapsed())
	}
}
