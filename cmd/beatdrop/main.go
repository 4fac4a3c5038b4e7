package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cbegin/beatdrop-go"
	"github.com/cbegin/beatdrop-go/internal/config"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if cfg.File == "" && flag.NArg() > 0 {
		cfg.File = flag.Arg(0)
	}
	if cfg.File == "" {
		log.Fatal("no input: pass -file or a path argument")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := beatdrop.NewSession(
		beatdrop.WithSampleRate(cfg.SampleRate),
		beatdrop.WithSpeed(cfg.Speed),
		beatdrop.WithPeakTarget(cfg.Peaks),
		beatdrop.WithMetronome(cfg.Metronome),
		beatdrop.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := sess.Load(cfg.File); err != nil {
		log.Fatal(err)
	}

	if cfg.AnalyzeOnly {
		for _, ms := range sess.Beats() {
			fmt.Println(ms)
		}
		return
	}

	if err := sess.OpenDevice(cfg.Device); err != nil {
		log.Fatal(err)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("%s: %d beats over %s, lead %s, device %s @ %d Hz\n",
		cfg.File, len(sess.Beats()), sess.Duration().Round(time.Millisecond), sess.Lead(), cfg.Device, sess.DeviceSampleRate())

	if cfg.Wait {
		if err := sess.PlayAndWait(ctx, cfg.TickInterval()); err != nil {
			log.Fatal(err)
		}
		fmt.Println("playback completed")
		return
	}
	if err := run(ctx, sess, cfg.TickInterval()); err != nil {
		log.Fatal(err)
	}
}

// run drives the session at a fixed tick rate and reports spawned beats,
// the way a presentation layer would consume them.
func run(ctx context.Context, sess *beatdrop.Session, interval time.Duration) error {
	if err := sess.Start(); err != nil {
		return err
	}
	live := term.IsTerminal(int(os.Stdout.Fd()))
	t := time.NewTicker(interval)
	defer t.Stop()

	last := time.Now()
	spawned := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case now := <-t.C:
			res, err := sess.Tick(now.Sub(last))
			last = now
			if err != nil {
				return err
			}
			spawned += res.Due
			if res.Due > 0 && !live {
				note := ""
				if res.Dense {
					note = " dense"
				}
				fmt.Printf("%8s spawn %d (total %d)%s\n", sess.Elapsed().Round(time.Millisecond), res.Due, spawned, note)
			}
			if live {
				fmt.Printf("\r%s %3.0f%%  %s  beats %d/%d  dense %d ",
					progressBar(sess.Progress(), 30), sess.Progress()*100,
					sess.Elapsed().Round(100*time.Millisecond), spawned, len(sess.Beats()), sess.DenseTicks())
			}
			if !res.Remaining && sess.Elapsed() >= sess.Duration() {
				if live {
					fmt.Println()
				}
				fmt.Println("playback completed")
				return nil
			}
		}
	}
}

func progressBar(frac float64, width int) string {
	n := int(frac * float64(width))
	n = min(max(n, 0), width)
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", width-n) + "]"
}

func newLogger(level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q (expected debug|info|warn|error)", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})), nil
}
