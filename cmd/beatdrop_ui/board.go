package main

import (
	"time"
)

// block is one falling cue. It reaches the hit line at its beat time.
type block struct {
	lane int
	at   time.Duration
	hit  bool
}

// board tracks the falling blocks and the score. It knows nothing about
// drawing or input devices.
type board struct {
	lanes  int
	lead   time.Duration
	window time.Duration
	pick   func(n int) int

	blocks  []block
	hits    int
	misses  int
	strays  int
	spawned int
}

func newBoard(lanes int, lead, window time.Duration, pick func(int) int) *board {
	return &board{lanes: lanes, lead: lead, window: window, pick: pick}
}

// spawn adds one block per beat, each in a randomly picked lane.
func (b *board) spawn(beats []int) {
	for _, ms := range beats {
		b.blocks = append(b.blocks, block{
			lane: b.pick(b.lanes),
			at:   time.Duration(ms) * time.Millisecond,
		})
	}
	b.spawned += len(beats)
}

// expire drops blocks that fell past the hit window. Unhit ones count as
// misses.
func (b *board) expire(elapsed time.Duration) {
	kept := b.blocks[:0]
	for _, blk := range b.blocks {
		if elapsed-blk.at > b.window {
			if !blk.hit {
				b.misses++
			}
			continue
		}
		kept = append(kept, blk)
	}
	b.blocks = kept
}

// press scores a key press in lane. The closest unhit block within the hit
// window is taken; a press with none in reach counts as a stray.
func (b *board) press(lane int, elapsed time.Duration) bool {
	best := -1
	var bestDist time.Duration
	for i, blk := range b.blocks {
		if blk.lane != lane || blk.hit {
			continue
		}
		d := blk.at - elapsed
		if d < 0 {
			d = -d
		}
		if d > b.window {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		b.strays++
		return false
	}
	b.blocks[best].hit = true
	b.hits++
	return true
}

// targets marks the lanes holding an unhit block whose beat is among
// upcoming, the beats in reach of a key press right now.
func (b *board) targets(upcoming []int) []bool {
	lit := make([]bool, b.lanes)
	if len(upcoming) == 0 {
		return lit
	}
	due := make(map[time.Duration]bool, len(upcoming))
	for _, ms := range upcoming {
		due[time.Duration(ms)*time.Millisecond] = true
	}
	for _, blk := range b.blocks {
		if !blk.hit && due[blk.at] {
			lit[blk.lane] = true
		}
	}
	return lit
}

// fall is how far along its path a block is: 0 at spawn, 1 on the hit line.
func (b *board) fall(blk block, elapsed time.Duration) float64 {
	if b.lead <= 0 {
		return 1
	}
	return 1 - float64(blk.at-elapsed)/float64(b.lead)
}

func (b *board) reset() {
	b.blocks = b.blocks[:0]
	b.hits, b.misses, b.strays, b.spawned = 0, 0, 0, 0
}
