package app

import (
	"log/slog"
	"sync/atomic"

	"github.com/AndrewNeo/nessharp/internal/input"
	"github.com/AndrewNeo/nessharp/internal/nes"
)

// pads carries both controllers' buttons from the presentation goroutine
// to the emulation goroutine: player 1 in bits 0-7, player 2 in bits 8-15.
type pads struct {
	bits atomic.Uint32
}

func (p *pads) set(player int, button input.Button, pressed bool) {
	if player < 1 || player > 2 {
		return
	}
	mask := uint32(button) << (8 * uint(player-1))
	for {
		old := p.bits.Load()
		v := old &^ mask
		if pressed {
			v |= mask
		}
		if p.bits.CompareAndSwap(old, v) {
			return
		}
	}
}

// buttons returns the held buttons of player 1 or 2.
func (p *pads) buttons(player int) input.Button {
	return input.Button(p.bits.Load() >> (8 * uint(player-1)))
}

// apply copies the pad state into the console's controllers.
func (p *pads) apply(in *input.InputState) {
	v := p.bits.Load()
	setButtons(in.Controller1, input.Button(v))
	setButtons(in.Controller2, input.Button(v>>8))
}

func setButtons(c *input.Controller, held input.Button) {
	for i := 0; i < 8; i++ {
		b := input.Button(1 << i)
		c.SetButton(b, held&b != 0)
	}
}

const (
	noReset int32 = iota
	softReset
	hardReset
)

// requests queues console resets for the emulation goroutine. A hard
// request wins over a soft one.
type requests struct {
	pending atomic.Int32
}

func (r *requests) reset(hard bool) {
	want := softReset
	if hard {
		want = hardReset
	}
	for {
		old := r.pending.Load()
		if old >= want || r.pending.CompareAndSwap(old, want) {
			return
		}
	}
}

func (r *requests) apply(c *nes.Console, log *slog.Logger) {
	switch r.pending.Swap(noReset) {
	case softReset:
		log.Info("soft reset")
		c.Reset(false)
	case hardReset:
		log.Info("hard reset")
		c.Reset(true)
	}
}
