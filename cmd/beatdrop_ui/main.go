package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cbegin/beatdrop-go"
	intaudio "github.com/cbegin/beatdrop-go/internal/audio"
	"github.com/cbegin/beatdrop-go/internal/config"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

const (
	windowW = 480
	windowH = 720

	laneCount  = 4
	laneW      = 80
	blockH     = 24
	hitLineY   = windowH - 120
	boardLeft  = (windowW - laneCount*laneW) / 2
	hitWindow  = 120 * time.Millisecond
	fpsLogTime = 10 * time.Second
)

var (
	bgColor      = color.RGBA{24, 24, 32, 255}
	laneColor    = color.RGBA{40, 44, 58, 255}
	borderColor  = color.RGBA{128, 128, 128, 255}
	hitLineColor = color.RGBA{255, 255, 255, 255}
	targetColor  = color.RGBA{255, 255, 255, 40}
	textColor    = color.RGBA{255, 255, 255, 255}
	flashColor   = color.RGBA{255, 255, 255, 90}

	blockColors = [laneCount]color.RGBA{
		{220, 64, 64, 255},
		{64, 200, 96, 255},
		{64, 120, 230, 255},
		{230, 200, 64, 255},
	}
	laneKeys   = [laneCount]ebiten.Key{ebiten.KeyD, ebiten.KeyF, ebiten.KeyJ, ebiten.KeyK}
	laneLabels = [laneCount]string{"D", "F", "J", "K"}
)

type game struct {
	sess  *beatdrop.Session
	board *board
	face  text.Face
	title string

	last     time.Time
	lastFPS  time.Time
	flash    [laneCount]int
	finished bool
	status   string
}

func newGame(sess *beatdrop.Session, title string) *game {
	return &game{
		sess:  sess,
		board: newBoard(laneCount, sess.Lead(), hitWindow, rand.IntN),
		face:  text.NewGoXFace(basicfont.Face7x13),
		title: title,
	}
}

func (g *game) start() error {
	if err := g.sess.Start(); err != nil {
		return err
	}
	g.board.reset()
	g.finished = false
	g.status = "Playing"
	g.last = time.Now()
	g.lastFPS = g.last
	return nil
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.start(); err != nil {
			return err
		}
	}

	now := time.Now()
	res, err := g.sess.Tick(now.Sub(g.last))
	g.last = now
	if err != nil {
		return err
	}
	if res.Due > 0 {
		beats := g.sess.Beats()
		g.board.spawn(beats[g.board.spawned : g.board.spawned+res.Due])
	}

	elapsed := g.sess.Elapsed()
	for lane, key := range laneKeys {
		if g.flash[lane] > 0 {
			g.flash[lane]--
		}
		if inpututil.IsKeyJustPressed(key) {
			g.flash[lane] = 6
			g.board.press(lane, elapsed)
		}
	}
	g.board.expire(elapsed)

	if !g.finished && !res.Remaining && g.board.spawned == len(g.sess.Beats()) && len(g.board.blocks) == 0 {
		g.finished = true
		g.status = "Finished - R to replay, Esc to quit"
		log.Printf("finished: %d hits, %d misses, %d strays", g.board.hits, g.board.misses, g.board.strays)
	}

	if now.Sub(g.lastFPS) >= fpsLogTime {
		g.lastFPS = now
		log.Printf("FPS: %.1f TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	lit := g.board.targets(g.sess.Upcoming(hitWindow))
	for lane := 0; lane < laneCount; lane++ {
		x := float64(boardLeft + lane*laneW)
		ebitenutil.DrawRect(screen, x, 0, laneW, windowH, laneColor)
		ebitenutil.DrawRect(screen, x, 0, 1, windowH, borderColor)
		if lit[lane] {
			ebitenutil.DrawRect(screen, x+1, hitLineY-blockH, laneW-1, blockH*2, targetColor)
		}
		if g.flash[lane] > 0 {
			ebitenutil.DrawRect(screen, x+1, hitLineY-blockH, laneW-1, blockH*2, flashColor)
		}
		g.drawText(screen, laneLabels[lane], int(x)+laneW/2-3, hitLineY+20)
	}
	ebitenutil.DrawRect(screen, float64(boardLeft+laneCount*laneW), 0, 1, windowH, borderColor)
	ebitenutil.DrawRect(screen, boardLeft, hitLineY, laneCount*laneW, 2, hitLineColor)

	elapsed := g.sess.Elapsed()
	for _, blk := range g.board.blocks {
		if blk.hit {
			continue
		}
		y := g.board.fall(blk, elapsed)*hitLineY - blockH/2
		if y > windowH {
			continue
		}
		x := float64(boardLeft+blk.lane*laneW) + 4
		ebitenutil.DrawRect(screen, x, y, laneW-8, blockH, blockColors[blk.lane])
	}

	g.drawText(screen, g.title, 8, 8)
	g.drawText(screen, fmt.Sprintf("Hits %d  Misses %d  Strays %d  Dense %d", g.board.hits, g.board.misses, g.board.strays, g.sess.DenseTicks()), 8, 26)
	g.drawText(screen, fmt.Sprintf("%s / %s  %3.0f%%",
		elapsed.Round(100*time.Millisecond), g.sess.Duration().Round(100*time.Millisecond), g.sess.Progress()*100), 8, 44)
	g.drawText(screen, g.status, 8, windowH-24)
}

func (g *game) drawText(screen *ebiten.Image, s string, x, y int) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, s, g.face, op)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return windowW, windowH
}

func (g *game) Close() {
	if err := g.sess.Close(); err != nil {
		log.Printf("close device: %v", err)
	}
}

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
	// Ebitengine owns the process audio context, so oto cannot be used here.
	switch strings.ToLower(cfg.Device) {
	case "", "default":
		cfg.Device = intaudio.BackendEbiten
	case intaudio.BackendOto:
		log.Fatalf("device %q cannot run alongside the ebiten window; use ebiten or null", cfg.Device)
	}

	var lv slog.Level
	if err := lv.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("invalid -log-level %q", cfg.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))

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
		log.Fatalf("load %q: %v", cfg.File, err)
	}
	if err := sess.OpenDevice(cfg.Device); err != nil {
		log.Fatal(err)
	}

	g := newGame(sess, filepath.Base(cfg.File))
	defer g.Close()
	if err := g.start(); err != nil {
		log.Fatal(err)
	}

	if cfg.FPS > 0 {
		ebiten.SetTPS(cfg.FPS)
	}
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowTitle("beatdrop - " + g.title)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
