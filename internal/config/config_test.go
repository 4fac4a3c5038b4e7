package config

import (
	"flag"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"BEATDROP_FILE", "BEATDROP_DEVICE", "BEATDROP_SPEED", "BEATDROP_PEAKS", "BEATDROP_METRONOME", "BEATDROP_FPS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Device != "default" {
		t.Errorf("Device = %q, want default", cfg.Device)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.Speed != 0.5 {
		t.Errorf("Speed = %v, want 0.5", cfg.Speed)
	}
	if cfg.Peaks != 500 {
		t.Errorf("Peaks = %d, want 500", cfg.Peaks)
	}
	if cfg.Metronome != 0 {
		t.Errorf("Metronome = %v, want 0", cfg.Metronome)
	}
	if cfg.TickInterval() != time.Second/60 {
		t.Errorf("TickInterval = %v", cfg.TickInterval())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BEATDROP_DEVICE", "null")
	t.Setenv("BEATDROP_SPEED", "2")
	t.Setenv("BEATDROP_PEAKS", "120")
	t.Setenv("BEATDROP_METRONOME", "750ms")
	t.Setenv("BEATDROP_FPS", "not-a-number")

	cfg := Load()
	if cfg.Device != "null" || cfg.Speed != 2 || cfg.Peaks != 120 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Metronome != 750*time.Millisecond {
		t.Errorf("Metronome = %v, want 750ms", cfg.Metronome)
	}
	if cfg.FPS != 60 {
		t.Errorf("FPS = %d, want fallback 60 for unparsable value", cfg.FPS)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("BEATDROP_PEAKS", "120")
	cfg := Load()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"-peaks", "42", "-device", "ebiten", "-analyze"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Peaks != 42 || cfg.Device != "ebiten" || !cfg.AnalyzeOnly {
		t.Errorf("cfg = %+v", cfg)
	}
}
