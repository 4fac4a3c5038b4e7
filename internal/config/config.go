package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/cbegin/beatdrop-go/internal/onset"
	"github.com/cbegin/beatdrop-go/internal/schedule"
)

// Config holds runtime settings. Environment variables provide the defaults;
// command-line flags registered with RegisterFlags override them.
type Config struct {
	File       string
	Device     string
	SampleRate int

	Speed     float64       // cue travel speed, path lengths per second
	Peaks     int           // onset extraction target
	Metronome time.Duration // fixed-interval script instead of extraction when > 0

	FPS         int
	LogLevel    string
	AnalyzeOnly bool
	Wait        bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		File:       envStr("BEATDROP_FILE", ""),
		Device:     envStr("BEATDROP_DEVICE", "default"),
		SampleRate: envInt("BEATDROP_SAMPLE_RATE", onset.DefaultSampleRate),

		Speed:     envFloat("BEATDROP_SPEED", schedule.DefaultSpeed),
		Peaks:     envInt("BEATDROP_PEAKS", onset.DefaultTarget),
		Metronome: envDuration("BEATDROP_METRONOME", 0),

		FPS:      envInt("BEATDROP_FPS", 60),
		LogLevel: envStr("BEATDROP_LOG_LEVEL", "info"),
	}
}

// RegisterFlags binds flags for every field onto fs, using the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.File, "file", c.File, "path to a 44-byte-header S16LE stereo PCM file")
	fs.StringVar(&c.Device, "device", c.Device, "audio backend: default|oto|ebiten|null")
	fs.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "sample rate of the input file and requested device rate")
	fs.Float64Var(&c.Speed, "speed", c.Speed, "cue travel speed in path lengths per second")
	fs.IntVar(&c.Peaks, "peaks", c.Peaks, "stop peak filtering once at most this many beats remain")
	fs.DurationVar(&c.Metronome, "metronome", c.Metronome, "use a fixed beat interval instead of peak extraction (e.g. 1s)")
	fs.IntVar(&c.FPS, "fps", c.FPS, "tick rate")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug|info|warn|error")
	fs.BoolVar(&c.AnalyzeOnly, "analyze", c.AnalyzeOnly, "print beat timestamps and exit without opening a device")
	fs.BoolVar(&c.Wait, "wait", c.Wait, "play to completion, then drain the device")
}

// TickInterval is the frame period implied by FPS.
func (c Config) TickInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FPS)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
